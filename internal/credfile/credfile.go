// Package credfile handles reading and writing XNAT session files. A session
// file stores the username and the JSESSIONID token obtained at login, plus
// when it was acquired. This is a leaf package imported by both config/ and
// xnat/ to avoid duplication and break the config→xnat import cycle.
package credfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FilePerms restricts session files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the sessions directory.
const DirPerms = 0o700

// File is the on-disk format for session files.
type File struct {
	Server     string    `json:"server"`
	Username   string    `json:"username"`
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Load reads a saved session file from disk.
// Returns (nil, nil) if the file does not exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("credfile: reading %s: %w", path, err)
	}

	var cf File
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("credfile: decoding %s: %w", path, err)
	}

	if cf.Token == "" {
		return nil, fmt.Errorf("credfile: %s missing token field (re-login required)", path)
	}

	return &cf, nil
}

// Save writes a session file atomically (temp file + rename) with owner-only
// permissions. The parent directory is created if needed.
func Save(path string, cf *File) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerms); err != nil {
		return fmt.Errorf("credfile: creating directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("credfile: encoding session: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, FilePerms); err != nil {
		return fmt.Errorf("credfile: writing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("credfile: renaming %s: %w", tmp, err)
	}

	return nil
}

// Delete removes a session file. Missing files are not an error.
func Delete(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credfile: removing %s: %w", path, err)
	}

	return nil
}
