package archivebridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/archive-bridge/internal/archive"
	"github.com/wagiedev/archive-bridge/internal/mcp"
	"github.com/wagiedev/archive-bridge/internal/server"
)

const readHeaderTimeout = 10 * time.Second

// Bridge is an MCP endpoint that archives conversations.
type Bridge struct {
	log    *slog.Logger
	config Config
	server *server.Server
}

// New validates the configuration and wires the archive client, the
// saveConversation tool, the dispatcher and the HTTP server.
func New(opts ...Option) (*Bridge, error) {
	options := applyOptions(opts)

	log := options.logger
	if log == nil {
		log = NopLogger()
	}

	cfg := options.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := server.NewMetrics(options.registry)

	client, err := archive.NewClient(log, cfg.BaseURL,
		archive.WithHTTPClient(options.httpClient),
		archive.WithTimeout(cfg.UploadTimeout),
		archive.WithObserver(metrics.ObserveUpload),
	)
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}

	registry := mcp.NewRegistry(cfg.ServerName, cfg.ServerVersion)
	if err := archive.NewTool(log, client, cfg.EscapeHTML).Register(registry); err != nil {
		return nil, fmt.Errorf("register %s: %w", archive.ToolName, err)
	}

	srv := server.New(server.Options{
		Logger:         log,
		Dispatcher:     mcp.NewDispatcher(log, registry, cfg.ProtocolVersion),
		ServerName:     cfg.ServerName,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Metrics:        metrics,
	})

	log.Debug("Bridge configured", "archive", client.Endpoint(), "upload_timeout", cfg.UploadTimeout)

	return &Bridge{
		log:    log.With("component", "bridge"),
		config: cfg,
		server: srv,
	}, nil
}

// Handler returns the HTTP handler serving /mcp, /health and /metrics.
func (b *Bridge) Handler() http.Handler {
	return b.server.Handler()
}

// Config returns the effective configuration.
func (b *Bridge) Config() Config {
	return b.config
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (b *Bridge) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", b.config.Addr, err)
	}

	return b.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails. In-flight
// requests get up to the configured shutdown timeout to finish.
func (b *Bridge) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.log.Info("MCP bridge listening", "url", "http://"+ln.Addr().String()+"/mcp")

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		b.log.Info("MCP bridge shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), b.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}
