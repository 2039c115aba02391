package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Valid log levels and formats.
var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"auto": true, "text": true, "json": true}
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

func validateServer(s *ServerConfig) []error {
	var errs []error

	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.url %q is not an absolute http(s) URL", s.URL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("server.url scheme %q: only http and https are supported", u.Scheme))
		}
	}

	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("server.timeout %q: %w", s.Timeout, err))
		}
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if l.LogLevel != "" && !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level %q: must be debug, info, warn, or error", l.LogLevel))
	}

	if l.LogFormat != "" && !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("logging.log_format %q: must be auto, text, or json", l.LogFormat))
	}

	return errs
}

// TimeoutDuration returns the parsed server timeout, falling back to the default
// when unset or unparseable (Validate reports unparseable values).
func (s *ServerConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		fallback, _ := time.ParseDuration(defaultTimeout) //nolint:errcheck // constant parses
		return fallback
	}

	return d
}
