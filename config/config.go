// Package config resolves client configuration for the Layla OCR service
// from explicit values or environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/vaheandonians/layla-client/model"
)

// Default environment variable names. FromEnvKeys accepts alternates for
// callers whose deployment uses different names.
const (
	EnvServiceURL  = "LAYLA_OCR_SERVICE_URL"
	EnvServicePort = "LAYLA_OCR_SERVICE_PORT"
	EnvAPIKey      = "LAYLA_API_KEY"
	EnvLogLevel    = "LAYLA_LOG_LEVEL"
)

// Configuration holds the connection settings for the remote OCR service.
// It is immutable after construction and safe to share across goroutines.
type Configuration struct {
	// ServiceURL is the base URL of the service, e.g. "https://ocr.example.com".
	ServiceURL string
	// ServicePort optionally overrides the port; 0 means "use the URL as-is".
	ServicePort int
	// APIKey authenticates every request. Required.
	APIKey string
}

// EnvKeys names the environment variables FromEnvKeys reads. Zero-valued
// fields fall back to the package defaults.
type EnvKeys struct {
	URL    string
	Port   string
	APIKey string
}

// FromEnv reads configuration from the default environment variables.
func FromEnv() (Configuration, error) {
	return FromEnvKeys(EnvKeys{})
}

// FromEnvKeys reads configuration from the named environment variables.
// A malformed port value is reported immediately; everything else is
// checked by Validate.
func FromEnvKeys(keys EnvKeys) (Configuration, error) {
	if keys.URL == "" {
		keys.URL = EnvServiceURL
	}
	if keys.Port == "" {
		keys.Port = EnvServicePort
	}
	if keys.APIKey == "" {
		keys.APIKey = EnvAPIKey
	}

	cfg := Configuration{
		ServiceURL: os.Getenv(keys.URL),
		APIKey:     os.Getenv(keys.APIKey),
	}

	if v := os.Getenv(keys.Port); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Configuration{}, &model.ConfigurationError{
				Field:   "service_port",
				Message: fmt.Sprintf("%s=%q is not a number", keys.Port, v),
			}
		}
		cfg.ServicePort = port
	}

	return cfg, nil
}

// Validate checks that the configuration can produce authenticated requests.
func (c Configuration) Validate() error {
	if c.APIKey == "" {
		return &model.ConfigurationError{Field: "api_key", Message: "required"}
	}
	if c.ServiceURL == "" {
		return &model.ConfigurationError{Field: "service_url", Message: "required"}
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil {
		return &model.ConfigurationError{
			Field:   "service_url",
			Message: fmt.Sprintf("%q is not a valid URL", c.ServiceURL),
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &model.ConfigurationError{
			Field:   "service_url",
			Message: fmt.Sprintf("scheme %q is not http or https", u.Scheme),
		}
	}
	if u.Host == "" {
		return &model.ConfigurationError{Field: "service_url", Message: "missing host"}
	}
	if c.ServicePort < 0 || c.ServicePort > 65535 {
		return &model.ConfigurationError{
			Field:   "service_port",
			Message: fmt.Sprintf("%d is out of range", c.ServicePort),
		}
	}
	return nil
}

// BaseURL joins the service URL and optional port into the request base.
func (c Configuration) BaseURL() string {
	base := strings.TrimRight(c.ServiceURL, "/")
	if c.ServicePort == 0 {
		return base
	}
	return fmt.Sprintf("%s:%d", base, c.ServicePort)
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
