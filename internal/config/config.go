package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"

	bridgeerrors "github.com/wagiedev/archive-bridge/internal/errors"
)

// Defaults used when nothing is configured.
const (
	DefaultPort            = "8000"
	DefaultServerName      = "Claude → AIArchives Bridge"
	DefaultServerVersion   = "1.1.0"
	DefaultProtocolVersion = "2025-06-18"
	DefaultUploadTimeout   = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 4 << 20
)

// Config is the process configuration of the bridge.
type Config struct {
	// Addr is the host:port the HTTP server listens on.
	Addr string

	// BaseURL is the archive service root; uploads go to BaseURL/api/conversation.
	BaseURL string

	// UploadTimeout bounds a single archive upload.
	UploadTimeout time.Duration

	// ShutdownTimeout bounds the graceful drain on exit.
	ShutdownTimeout time.Duration

	// ServerName and ServerVersion identify the bridge in initialize and /health.
	ServerName    string
	ServerVersion string

	// ProtocolVersion is the MCP revision announced by initialize.
	ProtocolVersion string

	// AllowedOrigins lists CORS origins. "*" allows any.
	AllowedOrigins []string

	// MaxBodyBytes caps the size of an inbound request body.
	MaxBodyBytes int64

	// EscapeHTML escapes message text before rendering it into the archive
	// document. Disabling it reproduces verbatim interpolation.
	EscapeHTML bool
}

// Default returns the configuration with every default applied and no
// archive URL.
func Default() Config {
	return Config{
		Addr:            ListenAddr(DefaultPort),
		UploadTimeout:   DefaultUploadTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		ServerName:      DefaultServerName,
		ServerVersion:   DefaultServerVersion,
		ProtocolVersion: DefaultProtocolVersion,
		AllowedOrigins:  []string{"*"},
		MaxBodyBytes:    DefaultMaxBodyBytes,
		EscapeHTML:      true,
	}
}

// ListenAddr turns a bare port into a listen address on all interfaces.
// Values that already contain a colon are returned unchanged.
func ListenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}

	return ":" + port
}

// SplitOrigins parses a comma-separated origin list.
func SplitOrigins(s string) []string {
	var origins []string

	for o := range strings.SplitSeq(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}

// LoadDotEnv loads environment files into the process environment without
// overriding variables that are already set. With no arguments it loads
// ".env" from the working directory and a missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		return nil
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}

	return nil
}

// Validate reports the first unusable setting as a *errors.ConfigError.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return &bridgeerrors.ConfigError{Field: "BASE_URL", Err: bridgeerrors.ErrMissingBaseURL}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &bridgeerrors.ConfigError{Field: "BASE_URL", Err: err}
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &bridgeerrors.ConfigError{
			Field: "BASE_URL",
			Err:   fmt.Errorf("%q is not an absolute http(s) URL", c.BaseURL),
		}
	}

	if c.Addr == "" {
		return &bridgeerrors.ConfigError{Field: "ADDR", Err: errors.New("listen address is empty")}
	}

	if c.UploadTimeout <= 0 {
		return &bridgeerrors.ConfigError{
			Field: "UPLOAD_TIMEOUT",
			Err:   fmt.Errorf("must be positive, got %s", c.UploadTimeout),
		}
	}

	if c.MaxBodyBytes <= 0 {
		return &bridgeerrors.ConfigError{
			Field: "MAX_BODY_BYTES",
			Err:   fmt.Errorf("must be positive, got %d", c.MaxBodyBytes),
		}
	}

	return nil
}
