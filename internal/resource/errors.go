package resource

import (
	"errors"
	"fmt"
)

// Preconditions for building a resource URI.
var (
	ErrNoName   = errors.New("resource: file has no name")
	ErrNoParent = errors.New("resource: file has no parent node")
)

// ErrorKind discriminates upload failure modes.
type ErrorKind int

const (
	// LocalFileMissing means the local file was absent at save time.
	// No network call was made.
	LocalFileMissing ErrorKind = iota + 1

	// ChecksumMismatch means post-upload verification detected a corrupted
	// or incomplete upload. The remote copy has been deleted.
	ChecksumMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case LocalFileMissing:
		return "local file missing"
	case ChecksumMismatch:
		return "checksum mismatch"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// UploadError reports a failed Save. Check the kind with errors.As:
//
//	var ue *resource.UploadError
//	if errors.As(err, &ue) && ue.Kind == resource.ChecksumMismatch { ... }
//
// Transport failures are not UploadErrors; they propagate from the Session
// unchanged.
type UploadError struct {
	Kind      ErrorKind
	Path      string // local file path
	URI       string // remote resource URI, when known
	LocalMD5  string // ChecksumMismatch only
	RemoteMD5 string // ChecksumMismatch only
}

func (e *UploadError) Error() string {
	switch e.Kind {
	case LocalFileMissing:
		return fmt.Sprintf("resource: upload failed: local file %q does not exist", e.Path)
	case ChecksumMismatch:
		return fmt.Sprintf("resource: upload of %q failed verification: local md5 %s, remote md5 %s (remote copy deleted)",
			e.Path, e.LocalMD5, e.RemoteMD5)
	default:
		return fmt.Sprintf("resource: upload of %q failed: %s", e.Path, e.Kind)
	}
}
