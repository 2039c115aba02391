package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig = "XNAT_GO_CONFIG"
	EnvURL    = "XNAT_GO_URL"
	EnvUser   = "XNAT_GO_USER"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // XNAT_GO_CONFIG: override config file path
	ServerURL  string // XNAT_GO_URL: server base URL
	Username   string // XNAT_GO_USER: login username
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		ServerURL:  os.Getenv(EnvURL),
		Username:   os.Getenv(EnvUser),
	}
}
