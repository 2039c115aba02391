package resource

import (
	"context"
	"crypto/md5" //nolint:gosec // test computes expected catalog digests
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openxnat/xnat-go/internal/xnat"
)

// fakeNode is a stand-in parent resource.
type fakeNode struct {
	uri string
}

func (n *fakeNode) ResourceURI() string { return n.uri }

// fakeSession records calls and plays back a canned catalog.
type fakeSession struct {
	uploadQueries []string
	uploadPaths   []string
	uploadErr     error

	catalog    []xnat.CatalogEntry
	catalogErr error
	getQueries []string

	deletes   []string
	deleteErr error

	existsResult bool
	existsErr    error
}

func (s *fakeSession) Upload(_ context.Context, localPath, query string) error {
	s.uploadPaths = append(s.uploadPaths, localPath)
	s.uploadQueries = append(s.uploadQueries, query)

	return s.uploadErr
}

func (s *fakeSession) Download(_ context.Context, _ string, _ io.Writer) (int64, error) {
	return 0, nil
}

func (s *fakeSession) Delete(_ context.Context, uri string) error {
	s.deletes = append(s.deletes, uri)
	return s.deleteErr
}

func (s *fakeSession) Exists(_ context.Context, _ string) (bool, error) {
	return s.existsResult, s.existsErr
}

func (s *fakeSession) HTTPGet(_ context.Context, query string) (xnat.Handle, error) {
	s.getQueries = append(s.getQueries, query)
	return xnat.Handle{}, nil
}

func (s *fakeSession) HTTPSync(_ context.Context, _ xnat.Handle) ([]xnat.CatalogEntry, error) {
	return s.catalog, s.catalogErr
}

func md5hex(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// newTestFile builds a File named scan.nii backed by a real temp file.
// Returns the file, its session fake, and the temp file's MD5.
func newTestFile(t *testing.T, sess *fakeSession) (*File, string) {
	t.Helper()

	content := []byte("synthetic voxel data")
	localPath := filepath.Join(t.TempDir(), "scan.nii")
	require.NoError(t, os.WriteFile(localPath, content, 0o600))

	f := NewFile(sess, &fakeNode{uri: "/data/projects/p1/resources/NIFTI"}, "xnat:fileData",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.SetName("scan.nii")
	f.SetLocalFilePath(localPath)

	return f, md5hex(content)
}

func TestSave_VerifiedMatch(t *testing.T) {
	sess := &fakeSession{}
	f, localMD5 := newTestFile(t, sess)

	sess.catalog = []xnat.CatalogEntry{
		{"other.nii": "def456"},
		{"scan.nii": localMD5},
	}

	require.NoError(t, f.Save(context.Background()))
	assert.Empty(t, sess.deletes, "matching checksum must not trigger deletion")
	assert.Equal(t, VerificationPassed, f.Verification())
	assert.Equal(t, localMD5, f.LocalMD5())
	assert.Equal(t, localMD5, f.RemoteMD5())

	// Verification fetched the parent catalog, not the file URI.
	require.Len(t, sess.getQueries, 1)
	assert.Equal(t, "/data/projects/p1/resources/NIFTI", sess.getQueries[0])
}

func TestSave_ChecksumMismatchDeletesRemote(t *testing.T) {
	sess := &fakeSession{}
	f, _ := newTestFile(t, sess)

	sess.catalog = []xnat.CatalogEntry{{"scan.nii": "000000"}}

	err := f.Save(context.Background())
	require.Error(t, err)

	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ChecksumMismatch, ue.Kind)
	assert.Equal(t, "000000", ue.RemoteMD5)

	require.Len(t, sess.deletes, 1, "erase must be invoked exactly once")
	assert.Equal(t, "/data/projects/p1/resources/NIFTI/files/scan.nii", sess.deletes[0])
}

func TestSave_LocalFileMissing(t *testing.T) {
	sess := &fakeSession{}
	f, _ := newTestFile(t, sess)
	f.SetLocalFilePath(filepath.Join(t.TempDir(), "gone.nii"))

	err := f.Save(context.Background())
	require.Error(t, err)

	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, LocalFileMissing, ue.Kind)

	// Fails before any network call.
	assert.Empty(t, sess.uploadQueries)
	assert.Empty(t, sess.getQueries)
	assert.Empty(t, sess.deletes)
}

func TestSave_EmptyCatalogSkipsVerification(t *testing.T) {
	sess := &fakeSession{catalog: []xnat.CatalogEntry{}}
	f, _ := newTestFile(t, sess)

	require.NoError(t, f.Save(context.Background()))
	assert.Equal(t, VerificationSkipped, f.Verification())
	assert.Empty(t, sess.deletes)
}

func TestSave_NoMatchingRecordSkipsVerification(t *testing.T) {
	sess := &fakeSession{catalog: []xnat.CatalogEntry{
		{"unrelated.nii": "abc"},
	}}
	f, _ := newTestFile(t, sess)

	require.NoError(t, f.Save(context.Background()))
	assert.Equal(t, VerificationSkipped, f.Verification())
}

func TestSave_SentinelDigestNeverTreatedAsChecksum(t *testing.T) {
	// A record carrying the literal "0" means "no checksum available", even
	// though it would never match a real MD5.
	sess := &fakeSession{catalog: []xnat.CatalogEntry{
		{"scan.nii": "0"},
	}}
	f, _ := newTestFile(t, sess)

	require.NoError(t, f.Save(context.Background()))
	assert.Equal(t, VerificationSkipped, f.Verification())
	assert.Empty(t, sess.deletes)
}

func TestSave_TransportErrorPropagates(t *testing.T) {
	uploadErr := errors.New("connection reset")
	sess := &fakeSession{uploadErr: uploadErr}
	f, _ := newTestFile(t, sess)

	err := f.Save(context.Background())
	require.ErrorIs(t, err, uploadErr)
	assert.Empty(t, sess.getQueries, "no verification after failed upload")
}

func TestSave_CatalogFetchErrorPropagates(t *testing.T) {
	catErr := errors.New("catalog unavailable")
	sess := &fakeSession{catalogErr: catErr}
	f, _ := newTestFile(t, sess)

	err := f.Save(context.Background())
	require.ErrorIs(t, err, catErr)
}

func TestSave_SkipVerifyDisablesCatalogFetch(t *testing.T) {
	sess := &fakeSession{}
	f, _ := newTestFile(t, sess)
	f.SetSkipVerify(true)

	require.NoError(t, f.Save(context.Background()))
	assert.Empty(t, sess.getQueries)
	assert.Equal(t, VerificationSkipped, f.Verification())
}

func TestSave_CompensatingDeleteFailureStillReportsMismatch(t *testing.T) {
	sess := &fakeSession{
		catalog:   []xnat.CatalogEntry{{"scan.nii": "badbad"}},
		deleteErr: errors.New("delete refused"),
	}
	f, _ := newTestFile(t, sess)

	err := f.Save(context.Background())

	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ChecksumMismatch, ue.Kind)
	require.Len(t, sess.deletes, 1)
}

func TestBuildUploadQuery_WireNames(t *testing.T) {
	sess := &fakeSession{}
	f, _ := newTestFile(t, sess)
	f.SetFileFormat("NIFTI")
	f.SetFileContent("T1")
	f.SetFileTags("brain,raw")
	f.SetProperty("quality", "usable")

	uri, err := f.ResourceURI()
	require.NoError(t, err)

	query := f.buildUploadQuery(uri)

	assert.Equal(t,
		"/data/projects/p1/resources/NIFTI/files/scan.nii"+
			"?xsi:type=xnat:fileData"+
			"&Name=scan.nii"+
			"&quality=usable"+
			"&format=NIFTI"+
			"&content=T1"+
			"&tags=brain,raw"+
			"&inbody=true",
		query)
}

func TestBuildUploadQuery_ReservedKeysExcludedFromGenericLoop(t *testing.T) {
	sess := &fakeSession{}
	f, _ := newTestFile(t, sess)
	f.SetFileTags("tag1")
	f.SetFileFormat("DICOM")
	f.SetFileContent("scan")

	uri, err := f.ResourceURI()
	require.NoError(t, err)

	query := f.buildUploadQuery(uri)

	// The long in-memory keys never appear; the short wire names appear
	// exactly once each.
	assert.NotContains(t, query, "file_tags=")
	assert.NotContains(t, query, "file_format=")
	assert.NotContains(t, query, "file_content=")
	assert.Equal(t, 1, strings.Count(query, "&tags="))
	assert.Equal(t, 1, strings.Count(query, "&format="))
	assert.Equal(t, 1, strings.Count(query, "&content="))
}

func TestBuildUploadQuery_Idempotent(t *testing.T) {
	sess := &fakeSession{}
	f, _ := newTestFile(t, sess)
	f.SetProperty("b_key", "2")
	f.SetProperty("a_key", "1")
	f.SetFileFormat("NIFTI")

	uri, err := f.ResourceURI()
	require.NoError(t, err)

	first := f.buildUploadQuery(uri)
	second := f.buildUploadQuery(uri)

	assert.Equal(t, first, second)
}

func TestBuildUploadQuery_OverwriteOnlyWhenRemoteExists(t *testing.T) {
	sess := &fakeSession{existsResult: true}
	f, _ := newTestFile(t, sess)

	uri, err := f.ResourceURI()
	require.NoError(t, err)

	assert.NotContains(t, f.buildUploadQuery(uri), "overwrite")

	exists, err := f.Exists(context.Background())
	require.NoError(t, err)
	require.True(t, exists)

	withOverwrite := f.buildUploadQuery(uri)
	assert.Contains(t, withOverwrite, "&overwrite=true&inbody=true")
}

func TestScanForDigest_BackwardScanTakesLastMatch(t *testing.T) {
	records := []xnat.CatalogEntry{
		{"scan.nii": "first"},
		{"other.nii": "zzz"},
		{"scan.nii": "last"},
	}

	assert.Equal(t, "last", scanForDigest(records, "scan.nii"))
}

func TestScanForDigest_NoMatchReturnsSentinel(t *testing.T) {
	assert.Equal(t, "0", scanForDigest(nil, "scan.nii"))
	assert.Equal(t, "0", scanForDigest([]xnat.CatalogEntry{}, "scan.nii"))
	assert.Equal(t, "0", scanForDigest([]xnat.CatalogEntry{{"a": "b"}}, "scan.nii"))
}

func TestScanForDigest_FullCatalogRows(t *testing.T) {
	records := []xnat.CatalogEntry{
		{"Name": "other.nii", "digest": "aaa"},
		{"Name": "scan.nii", "digest": "bbb"},
	}

	assert.Equal(t, "bbb", scanForDigest(records, "scan.nii"))
}

func TestScanForDigest_FullRowWithoutDigestIsSentinel(t *testing.T) {
	records := []xnat.CatalogEntry{
		{"Name": "scan.nii", "Size": "42"},
	}

	assert.Equal(t, "0", scanForDigest(records, "scan.nii"))
}

func TestComputeMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	sum, err := ComputeMD5(path)
	require.NoError(t, err)
	assert.Equal(t, md5hex([]byte("hello")), sum)

	_, err = ComputeMD5(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
