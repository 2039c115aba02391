package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "xnat-go"

// Config file name.
const configFileName = "config.toml"

// sessionURLHashLen truncates the server-URL hash used in session file
// names. 12 hex chars is plenty to keep servers apart.
const sessionURLHashLen = 12

// DefaultConfigDir returns the platform-specific directory for config files.
// On Linux, respects XDG_CONFIG_HOME (defaults to ~/.config/xnat-go).
// On macOS, uses ~/Library/Application Support/xnat-go per Apple guidelines.
// Other platforms fall back to ~/.config/xnat-go.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxConfigDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// linuxConfigDir returns the XDG-compliant config directory for Linux.
func linuxConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultDataDir returns the platform-specific directory for application
// data (the transfer ledger database). On Linux, respects XDG_DATA_HOME.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}

		return filepath.Join(home, ".local", "share", appName)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".local", "share", appName)
	}
}

// DefaultConfigPath returns the full path of the config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// SessionPath returns the session file path for a server URL. Each server
// gets its own file, keyed by a hash of the URL so odd characters in URLs
// never leak into file names.
func SessionPath(serverURL string) string {
	dir := DefaultConfigDir()
	if dir == "" || serverURL == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(serverURL))

	return filepath.Join(dir, "sessions", hex.EncodeToString(sum[:])[:sessionURLHashLen]+".json")
}

// LedgerPath returns the transfer ledger database path.
func LedgerPath() string {
	dir := DefaultDataDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, "ledger.db")
}
