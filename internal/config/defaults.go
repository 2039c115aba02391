package config

// Default values for configuration options. These are "layer 0" of the
// override chain and work for most users without any config file.
const (
	defaultTimeout    = "30s"
	defaultSchemaType = "xnat:fileData"
	defaultLogLevel   = "info"
	defaultLogFormat  = "auto"
)

// DefaultConfig returns a Config populated with all default values.
// Used both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout: defaultTimeout,
		},
		Transfers: TransfersConfig{
			VerifyUploads: true,
			SchemaType:    defaultSchemaType,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
