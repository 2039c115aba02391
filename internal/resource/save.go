package resource

import (
	"context"
	"crypto/md5" //nolint:gosec // MD5 is the checksum the XNAT catalog reports
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/openxnat/xnat-go/internal/xnat"
)

// noDigest is the sentinel meaning "no remote checksum available". It is
// never a legitimate checksum; verification is skipped when the catalog scan
// leaves it in place.
const noDigest = "0"

// Save uploads the local file and verifies the transfer against the server
// catalog:
//
//  1. Fail fast when the local file is missing (no network call is made).
//  2. Build the upload query on top of the resource URI.
//  3. Upload. Transport failures propagate unchanged; nothing is retried.
//  4. Fetch the parent's catalog and compare the server-reported MD5 with a
//     locally computed one. On mismatch the remote copy is deleted and an
//     UploadError of kind ChecksumMismatch is returned.
//
// The upload response itself carries no checksum on older servers, which is
// why the catalog round-trip exists at all. Verification is best-effort:
// when the server reports no checksum for the file, or the local file cannot
// be reopened, a warning is logged and the upload counts as succeeded.
func (f *File) Save(ctx context.Context) error {
	localPath := f.LocalFilePath()
	if _, err := os.Stat(localPath); err != nil {
		return &UploadError{Kind: LocalFileMissing, Path: localPath}
	}

	uri, err := f.ResourceURI()
	if err != nil {
		return err
	}

	query := f.buildUploadQuery(uri)

	if err := f.session.Upload(ctx, localPath, query); err != nil {
		return err
	}

	f.remoteExists = true

	if f.skipVerify {
		f.verification = VerificationSkipped
		f.localMD5 = ""
		f.remoteMD5 = ""

		f.logger.Debug("upload verification disabled", slog.String("uri", uri))

		return nil
	}

	return f.verifyUpload(ctx, uri, localPath)
}

// buildUploadQuery appends the upload parameters to the resource URI.
// Wire names are a compatibility contract with the server REST API:
// xsi:type, verbatim extra property keys, then format, content, tags
// (short names for the file_format / file_content / file_tags properties),
// overwrite, inbody.
func (f *File) buildUploadQuery(uri string) string {
	var b strings.Builder

	b.WriteString(uri)
	b.WriteString("?xsi:type=")
	b.WriteString(f.schemaType)

	for _, key := range f.propKeys {
		// These three need different keys on the wire; they are appended
		// under their short names below.
		if key == PropFileTags || key == PropFileFormat || key == PropFileContent {
			continue
		}

		fmt.Fprintf(&b, "&%s=%s", key, f.props[key])
	}

	fmt.Fprintf(&b, "&format=%s", f.FileFormat())
	fmt.Fprintf(&b, "&content=%s", f.FileContent())
	fmt.Fprintf(&b, "&tags=%s", f.FileTags())

	if f.remoteExists {
		b.WriteString("&overwrite=true")
	}

	// Payload travels in the request body, not as a multipart attachment.
	b.WriteString("&inbody=true")

	return b.String()
}

// verifyUpload fetches the parent catalog, recovers the server-side MD5 for
// this file, and compares it against the local file's digest. Deletes the
// remote copy on mismatch.
func (f *File) verifyUpload(ctx context.Context, uri, localPath string) error {
	handle, err := f.session.HTTPGet(ctx, f.parent.ResourceURI())
	if err != nil {
		return err
	}

	records, err := f.session.HTTPSync(ctx, handle)
	if err != nil {
		return err
	}

	remoteMD5 := scanForDigest(records, f.Name())

	local, openErr := os.Open(localPath)
	if openErr != nil || remoteMD5 == noDigest {
		if openErr == nil {
			local.Close()
		}

		f.verification = VerificationSkipped
		f.localMD5 = ""
		f.remoteMD5 = ""

		f.logger.Warn("could not validate file upload",
			slog.String("uri", uri),
			slog.String("path", localPath),
			slog.Bool("local_readable", openErr == nil),
			slog.Bool("remote_digest_reported", remoteMD5 != noDigest),
		)

		return nil
	}
	defer local.Close()

	localMD5, err := digestMD5(local)
	if err != nil {
		return fmt.Errorf("resource: hashing %s: %w", localPath, err)
	}

	f.localMD5 = localMD5
	f.remoteMD5 = remoteMD5

	if localMD5 != remoteMD5 {
		f.verification = VerificationNone

		f.logger.Error("upload verification failed, deleting remote copy",
			slog.String("uri", uri),
			slog.String("local_md5", localMD5),
			slog.String("remote_md5", remoteMD5),
		)

		if eraseErr := f.Erase(ctx); eraseErr != nil {
			f.logger.Warn("compensating delete failed",
				slog.String("uri", uri),
				slog.String("error", eraseErr.Error()),
			)
		}

		return &UploadError{
			Kind:      ChecksumMismatch,
			Path:      localPath,
			URI:       uri,
			LocalMD5:  localMD5,
			RemoteMD5: remoteMD5,
		}
	}

	f.verification = VerificationPassed

	f.logger.Debug("upload verified",
		slog.String("uri", uri),
		slog.String("md5", localMD5),
	)

	return nil
}

// scanForDigest walks the catalog records from the end backward and returns
// the digest of the first record matching name, or the noDigest sentinel
// when none matches. Newly added files land at the end of the catalog, so
// the backward scan finds the just-uploaded file fastest; the scan stops at
// the first (highest-index) match.
//
// A record matches either when it carries name as a key (narrow name→digest
// records) or when its Name column equals name (full catalog rows).
func scanForDigest(records []xnat.CatalogEntry, name string) string {
	for i := len(records) - 1; i >= 0; i-- {
		if digest, ok := records[i][name]; ok {
			return digest
		}

		if records[i].Name() == name {
			digest := records[i].Digest()
			if digest == "" {
				// The record is this file's, but the server reported no
				// checksum. Treat as "no remote checksum available".
				return noDigest
			}

			return digest
		}
	}

	return noDigest
}

// digestMD5 hashes r in full and returns the lowercase hex digest.
func digestMD5(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec // catalog digests are MD5
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeMD5 hashes the file at fsPath and returns the lowercase hex digest.
// Uses streaming I/O (constant memory).
func ComputeMD5(fsPath string) (string, error) {
	f, err := os.Open(fsPath)
	if err != nil {
		return "", fmt.Errorf("resource: opening %s for hashing: %w", fsPath, err)
	}
	defer f.Close()

	return digestMD5(f)
}
