// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for xnat-go. It supports a three-layer
// override chain (defaults -> config file -> environment/CLI flags).
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Transfers TransfersConfig `toml:"transfers"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig identifies the XNAT server and how to reach it.
type ServerConfig struct {
	URL                string `toml:"url"`
	Username           string `toml:"username"`
	Timeout            string `toml:"timeout"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// TransfersConfig controls upload/download behavior.
// verify_uploads toggles the post-upload catalog checksum comparison; it is
// on by default and only worth disabling against servers that never report
// digests.
type TransfersConfig struct {
	VerifyUploads bool   `toml:"verify_uploads"`
	SchemaType    string `toml:"schema_type"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}
