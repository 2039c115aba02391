// Package resource implements the client-side proxy for remote XNAT files:
// metadata properties, resource URI construction, and the upload-and-verify,
// download, and existence operations against a Session.
package resource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Property keys for the file-specific metadata. These are the in-memory
// names; the upload query translates the last three to their short wire
// names (tags, format, content).
const (
	PropName        = "Name"
	PropFileTags    = "file_tags"
	PropFileFormat  = "file_format"
	PropFileContent = "file_content"
)

// File is an in-memory proxy for a remote file: a property bag plus the
// local path it is uploaded from or downloaded to. A File is not safe for
// concurrent use; callers serialize saves on the same File.
type File struct {
	session    Session
	parent     Node
	schemaType string
	logger     *slog.Logger

	// Insertion-ordered property bag. propKeys holds the order, props the
	// values. Order is observable in the upload query.
	propKeys []string
	props    map[string]string

	localFilePath string

	// remoteExists caches prior server state: whether a file of this name
	// was already on the server before Save. Set by Exists or by the caller
	// when the File was built from a catalog listing.
	remoteExists bool

	// Outcome of the last Save's checksum check (see verification.go).
	skipVerify   bool
	verification Verification
	localMD5     string
	remoteMD5    string
}

// NewFile creates a File under parent. schemaType is the xsi type reported
// on upload (e.g. "xnat:fileData"). The parent reference is non-owning and
// must outlive the File.
func NewFile(session Session, parent Node, schemaType string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}

	return &File{
		session:    session,
		parent:     parent,
		schemaType: schemaType,
		logger:     logger,
		props:      make(map[string]string),
	}
}

// SetProperty stores a metadata property. First-time keys keep their
// insertion position; existing keys are updated in place.
func (f *File) SetProperty(key, value string) {
	if _, ok := f.props[key]; !ok {
		f.propKeys = append(f.propKeys, key)
	}

	f.props[key] = value
}

// Property returns a metadata property, or "" when unset.
func (f *File) Property(key string) string {
	return f.props[key]
}

// Properties returns the property keys in insertion order.
func (f *File) Properties() []string {
	keys := make([]string, len(f.propKeys))
	copy(keys, f.propKeys)

	return keys
}

// SetName sets the file name (unique within the parent resource).
func (f *File) SetName(name string) { f.SetProperty(PropName, name) }

// Name returns the file name.
func (f *File) Name() string { return f.Property(PropName) }

// SetFileFormat sets the file format (e.g. "NIFTI").
func (f *File) SetFileFormat(format string) { f.SetProperty(PropFileFormat, format) }

// FileFormat returns the file format.
func (f *File) FileFormat() string { return f.Property(PropFileFormat) }

// SetFileContent sets the file content kind (e.g. "T1").
func (f *File) SetFileContent(content string) { f.SetProperty(PropFileContent, content) }

// FileContent returns the file content kind.
func (f *File) FileContent() string { return f.Property(PropFileContent) }

// SetFileTags sets the comma-separated file tags.
func (f *File) SetFileTags(tags string) { f.SetProperty(PropFileTags, tags) }

// FileTags returns the file tags.
func (f *File) FileTags() string { return f.Property(PropFileTags) }

// SetLocalFilePath sets the local filesystem path the file is uploaded from.
// Not persisted server-side.
func (f *File) SetLocalFilePath(path string) { f.localFilePath = path }

// LocalFilePath returns the local filesystem path.
func (f *File) LocalFilePath() string { return f.localFilePath }

// SchemaType returns the xsi type reported on upload.
func (f *File) SchemaType() string { return f.schemaType }

// SetRemoteExists records prior server state for this file name, used to
// decide whether the upload query carries overwrite=true. Callers building
// Files from a catalog listing set it; Exists refreshes it.
func (f *File) SetRemoteExists(exists bool) { f.remoteExists = exists }

// ResourceURI returns the REST path of the file:
// <parent URI>/files/<escaped name>. Recomputed on every call so it always
// reflects the current name and parent state. An unset name or parent is a
// precondition violation reported as an explicit error.
//
// Names are escaped per slash-separated segment: catalog sub-paths
// ("anat/T1/scan.nii") stay paths on the wire instead of collapsing into a
// single %2F-encoded segment.
func (f *File) ResourceURI() (string, error) {
	if f.parent == nil {
		return "", ErrNoParent
	}

	name := f.Name()
	if name == "" {
		return "", ErrNoName
	}

	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return fmt.Sprintf("%s/files/%s", f.parent.ResourceURI(), strings.Join(segments, "/")), nil
}

// Fetch is a no-op: individual file nodes carry no separately fetchable
// metadata document distinct from their parent's catalog.
func (f *File) Fetch(_ context.Context) error {
	return nil
}

// Download streams the remote file into targetPath. Session failures
// propagate unchanged.
func (f *File) Download(ctx context.Context, targetPath string) error {
	uri, err := f.ResourceURI()
	if err != nil {
		return err
	}

	out, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("resource: creating %s: %w", targetPath, err)
	}

	_, err = f.session.Download(ctx, uri, out)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("resource: closing %s: %w", targetPath, closeErr)
	}

	return err
}

// Exists probes the server for a file of this name and caches the answer
// for the overwrite decision in Save.
func (f *File) Exists(ctx context.Context) (bool, error) {
	uri, err := f.ResourceURI()
	if err != nil {
		return false, err
	}

	exists, err := f.session.Exists(ctx, uri)
	if err != nil {
		return false, err
	}

	f.remoteExists = exists

	return exists, nil
}

// Erase deletes the remote file. Used on its own and as the compensating
// action when post-upload verification fails.
func (f *File) Erase(ctx context.Context) error {
	uri, err := f.ResourceURI()
	if err != nil {
		return err
	}

	if err := f.session.Delete(ctx, uri); err != nil {
		return err
	}

	f.remoteExists = false

	return nil
}

// CopyTo streams the remote file to an arbitrary writer.
func (f *File) CopyTo(ctx context.Context, w io.Writer) (int64, error) {
	uri, err := f.ResourceURI()
	if err != nil {
		return 0, err
	}

	return f.session.Download(ctx, uri, w)
}
