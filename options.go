package archivebridge

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/archive-bridge/internal/config"
)

// Config is the bridge configuration. Start from DefaultConfig.
type Config = config.Config

// DefaultConfig returns the configuration with every default applied.
// BaseURL is left empty and must be set.
func DefaultConfig() Config {
	return config.Default()
}

// Option configures a Bridge using the functional options pattern.
type Option func(*bridgeOptions)

// bridgeOptions collects everything New needs.
type bridgeOptions struct {
	config     Config
	logger     *slog.Logger
	httpClient *http.Client
	registry   *prometheus.Registry
}

// applyOptions applies functional options on top of the defaults.
func applyOptions(opts []Option) *bridgeOptions {
	options := &bridgeOptions{config: config.Default()}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for request and upload logs.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *bridgeOptions) {
		o.logger = logger
	}
}

// WithConfig replaces the whole configuration. Options applied after it
// still override individual fields.
func WithConfig(cfg Config) Option {
	return func(o *bridgeOptions) {
		o.config = cfg
	}
}

// WithAddr sets the listen address, e.g. ":8000" or "127.0.0.1:9000".
func WithAddr(addr string) Option {
	return func(o *bridgeOptions) {
		o.config.Addr = addr
	}
}

// WithServerInfo sets the name and version reported by initialize and /health.
func WithServerInfo(name, version string) Option {
	return func(o *bridgeOptions) {
		o.config.ServerName = name
		o.config.ServerVersion = version
	}
}

// WithProtocolVersion sets the MCP revision announced by initialize.
func WithProtocolVersion(version string) Option {
	return func(o *bridgeOptions) {
		o.config.ProtocolVersion = version
	}
}

// ===== Archive =====

// WithBaseURL sets the archive service root. Required.
func WithBaseURL(baseURL string) Option {
	return func(o *bridgeOptions) {
		o.config.BaseURL = baseURL
	}
}

// WithUploadTimeout bounds each archive upload.
func WithUploadTimeout(d time.Duration) Option {
	return func(o *bridgeOptions) {
		o.config.UploadTimeout = d
	}
}

// WithHTTPClient sets the HTTP client used to reach the archive.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *bridgeOptions) {
		o.httpClient = hc
	}
}

// WithEscapeHTML controls HTML escaping of message text in the archived
// document. Escaping is on by default.
func WithEscapeHTML(escape bool) Option {
	return func(o *bridgeOptions) {
		o.config.EscapeHTML = escape
	}
}

// ===== HTTP Surface =====

// WithAllowedOrigins sets the CORS origins. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *bridgeOptions) {
		o.config.AllowedOrigins = origins
	}
}

// WithMaxBodyBytes caps the size of inbound request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *bridgeOptions) {
		o.config.MaxBodyBytes = n
	}
}

// WithShutdownTimeout bounds the graceful drain when serving stops.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *bridgeOptions) {
		o.config.ShutdownTimeout = d
	}
}

// WithMetricsRegistry registers bridge metrics with reg and serves reg on
// /metrics. If not set, a private registry is used.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *bridgeOptions) {
		o.registry = reg
	}
}
