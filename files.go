package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/openxnat/xnat-go/internal/config"
	"github.com/openxnat/xnat-go/internal/ledger"
	"github.com/openxnat/xnat-go/internal/resource"
	"github.com/openxnat/xnat-go/internal/xnat"
	"github.com/openxnat/xnat-go/internal/xnatpath"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <project/.../resources/RESOURCE>",
		Short: "List the files of a resource",
		Args:  cobra.ExactArgs(1),
		RunE:  runLs,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path> <project/.../resources/RESOURCE[/files/NAME]>",
		Short: "Upload a file with checksum verification",
		Long: `Upload a local file into a resource. After the upload the resource
catalog is re-fetched and the server-reported MD5 is compared against the
local file; on a mismatch the remote copy is deleted and the command fails.`,
		Args: cobra.ExactArgs(2),
		RunE: runPut,
	}

	cmd.Flags().String("format", "", "file format metadata (e.g. NIFTI)")
	cmd.Flags().String("content", "", "file content metadata (e.g. T1)")
	cmd.Flags().String("tags", "", "comma-separated file tags")
	cmd.Flags().Bool("no-verify", false, "skip post-upload checksum verification")

	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <project/.../resources/RESOURCE/files/NAME> [local-path]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project/.../resources/RESOURCE/files/NAME>",
		Short: "Delete a remote file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <project/.../resources/RESOURCE/files/NAME>",
		Short: "Display a file's catalog record",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

// normalizeRemotePath NFC-normalizes a user-typed remote path. macOS
// terminals produce decomposed (NFD) input for accented characters; the
// server stores composed names.
func normalizeRemotePath(path string) string {
	return norm.NFC.String(strings.Trim(path, "/"))
}

// parseRemotePath normalizes and parses a CLI path argument.
func parseRemotePath(raw string) (xnatpath.Path, error) {
	return xnatpath.Parse(normalizeRemotePath(raw))
}

// clientAndLogger loads the saved session for the configured server and
// creates an API client.
func clientAndLogger() (*xnat.Client, *slog.Logger, error) {
	logger := buildLogger()

	serverURL := resolvedCfg.Server.URL
	if serverURL == "" {
		return nil, nil, errors.New("no server URL — set server.url in the config file or pass --url")
	}

	creds, err := xnat.CredentialsFromPath(config.SessionPath(serverURL), logger)
	if err != nil {
		if errors.Is(err, xnat.ErrNotLoggedIn) {
			return nil, nil, fmt.Errorf("not logged in to %s — run 'xnat-go login' first", serverURL)
		}

		return nil, nil, err
	}

	return xnat.NewClient(serverURL, defaultHTTPClient(), creds, logger), logger, nil
}

// openLedger opens the transfer ledger. A nil return (no error) means the
// ledger path could not be determined; history is then simply not recorded.
func openLedger(ctx context.Context, logger *slog.Logger) *ledger.Ledger {
	path := config.LedgerPath()
	if path == "" {
		return nil
	}

	l, err := ledger.Open(ctx, path, logger)
	if err != nil {
		logger.Warn("transfer ledger unavailable", slog.String("error", err.Error()))
		return nil
	}

	return l
}

// recordTransfer best-effort writes a ledger row.
func recordTransfer(ctx context.Context, l *ledger.Ledger, logger *slog.Logger, t ledger.Transfer) {
	if l == nil {
		return
	}

	if err := l.Record(ctx, t); err != nil {
		logger.Warn("failed to record transfer", slog.String("error", err.Error()))
	}
}

func runLs(cmd *cobra.Command, args []string) error {
	client, _, err := clientAndLogger()
	if err != nil {
		return err
	}

	p, err := parseRemotePath(args[0])
	if err != nil {
		return err
	}

	if p.IsFile() {
		return fmt.Errorf("%q names a file — 'ls' lists resources, use 'stat' for files", args[0])
	}

	entries, err := client.Catalog(cmd.Context(), p.ResourceURI()+"/files")
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(entries)
	}

	headers := []string{"NAME", "SIZE", "DIGEST"}
	rows := make([][]string, len(entries))

	for i, e := range entries {
		rows[i] = []string{e.Name(), formatCatalogSize(e["Size"]), formatDigest(e.Digest())}
	}

	printTable(os.Stdout, headers, rows)

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	client, logger, err := clientAndLogger()
	if err != nil {
		return err
	}

	localPath := args[0]

	p, err := parseRemotePath(args[1])
	if err != nil {
		return err
	}

	name := p.FileName
	if name == "" {
		name = filepath.Base(localPath)
	}

	file := resource.NewFile(client, p, resolvedCfg.Transfers.SchemaType, logger)
	file.SetName(name)
	file.SetLocalFilePath(localPath)

	if v, _ := cmd.Flags().GetString("format"); v != "" { //nolint:errcheck // flag is registered
		file.SetFileFormat(v)
	}

	if v, _ := cmd.Flags().GetString("content"); v != "" { //nolint:errcheck // flag is registered
		file.SetFileContent(v)
	}

	if v, _ := cmd.Flags().GetString("tags"); v != "" { //nolint:errcheck // flag is registered
		file.SetFileTags(v)
	}

	noVerify, _ := cmd.Flags().GetBool("no-verify") //nolint:errcheck // flag is registered
	if noVerify || !resolvedCfg.Transfers.VerifyUploads {
		file.SetSkipVerify(true)
	}

	// Prior server state decides whether the upload overwrites.
	if _, err := file.Exists(cmd.Context()); err != nil {
		return err
	}

	ldg := openLedger(cmd.Context(), logger)
	if ldg != nil {
		defer ldg.Close()
	}

	saveErr := file.Save(cmd.Context())

	uri, uriErr := file.ResourceURI()
	if uriErr != nil {
		uri = ""
	}

	size := int64(0)
	if info, statErr := os.Stat(localPath); statErr == nil {
		size = info.Size()
	}

	var ue *resource.UploadError

	switch {
	case saveErr == nil:
		outcome := ledger.OutcomeVerified
		if file.Verification() != resource.VerificationPassed {
			outcome = ledger.OutcomeSkipped
		}

		recordTransfer(cmd.Context(), ldg, logger, ledger.Transfer{
			Direction: ledger.DirectionUpload,
			RemoteURI: uri,
			LocalPath: localPath,
			Size:      size,
			LocalMD5:  file.LocalMD5(),
			RemoteMD5: file.RemoteMD5(),
			Outcome:   outcome,
		})

		statusf(flagQuiet, "Uploaded %s to %s (%s)\n", localPath, uri, file.Verification())

		return nil

	case errors.As(saveErr, &ue) && ue.Kind == resource.ChecksumMismatch:
		recordTransfer(cmd.Context(), ldg, logger, ledger.Transfer{
			Direction: ledger.DirectionUpload,
			RemoteURI: uri,
			LocalPath: localPath,
			Size:      size,
			LocalMD5:  ue.LocalMD5,
			RemoteMD5: ue.RemoteMD5,
			Outcome:   ledger.OutcomeMismatch,
		})

		return saveErr

	default:
		return saveErr
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	client, logger, err := clientAndLogger()
	if err != nil {
		return err
	}

	p, err := parseRemotePath(args[0])
	if err != nil {
		return err
	}

	if !p.IsFile() {
		return fmt.Errorf("%q does not name a file — expected .../files/NAME", args[0])
	}

	targetPath := filepath.Base(p.FileName)
	if len(args) == 2 {
		targetPath = args[1]
	}

	n, err := client.DownloadToFile(cmd.Context(), p.URI(), targetPath)
	if err != nil {
		return err
	}

	localMD5, remoteMD5, outcome := verifyDownload(cmd.Context(), client, p, targetPath, logger)

	ldg := openLedger(cmd.Context(), logger)
	if ldg != nil {
		defer ldg.Close()

		recordTransfer(cmd.Context(), ldg, logger, ledger.Transfer{
			Direction: ledger.DirectionDownload,
			RemoteURI: p.URI(),
			LocalPath: targetPath,
			Size:      n,
			LocalMD5:  localMD5,
			RemoteMD5: remoteMD5,
			Outcome:   outcome,
		})
	}

	statusf(flagQuiet, "Downloaded %s to %s (%s)\n", p.URI(), targetPath, formatSize(n))

	return nil
}

// verifyDownload compares the downloaded file against the catalog digest.
// Best-effort: a mismatch is logged as a warning (the local copy is kept for
// inspection), and a missing digest skips the check.
func verifyDownload(
	ctx context.Context, client *xnat.Client, p xnatpath.Path, targetPath string, logger *slog.Logger,
) (localMD5, remoteMD5, outcome string) {
	outcome = ledger.OutcomeSkipped

	localMD5, err := resource.ComputeMD5(targetPath)
	if err != nil {
		logger.Warn("could not hash downloaded file", slog.String("error", err.Error()))
		return "", "", outcome
	}

	entries, err := client.Catalog(ctx, p.FilesURI())
	if err != nil {
		logger.Warn("could not fetch catalog for download verification", slog.String("error", err.Error()))
		return localMD5, "", outcome
	}

	for _, e := range entries {
		if e.Name() != p.FileName {
			continue
		}

		remoteMD5 = e.Digest()

		break
	}

	if remoteMD5 == "" {
		return localMD5, "", outcome
	}

	if localMD5 == remoteMD5 {
		return localMD5, remoteMD5, ledger.OutcomeVerified
	}

	logger.Warn("downloaded file does not match catalog digest",
		slog.String("path", targetPath),
		slog.String("local_md5", localMD5),
		slog.String("remote_md5", remoteMD5),
	)

	return localMD5, remoteMD5, ledger.OutcomeMismatch
}

func runRm(cmd *cobra.Command, args []string) error {
	client, _, err := clientAndLogger()
	if err != nil {
		return err
	}

	p, err := parseRemotePath(args[0])
	if err != nil {
		return err
	}

	if !p.IsFile() {
		return fmt.Errorf("%q does not name a file — expected .../files/NAME", args[0])
	}

	if err := client.Delete(cmd.Context(), p.URI()); err != nil {
		return err
	}

	statusf(flagQuiet, "Deleted %s\n", p.URI())

	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	client, _, err := clientAndLogger()
	if err != nil {
		return err
	}

	p, err := parseRemotePath(args[0])
	if err != nil {
		return err
	}

	if !p.IsFile() {
		return fmt.Errorf("%q does not name a file — expected .../files/NAME", args[0])
	}

	entries, err := client.Catalog(cmd.Context(), p.FilesURI())
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Name() != p.FileName {
			continue
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(e)
		}

		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			fmt.Printf("%-14s %s\n", k+":", e[k])
		}

		return nil
	}

	return fmt.Errorf("%w: %s", xnat.ErrNotFound, p.URI())
}
