// Command archive-bridge serves the MCP endpoint that saves conversations to
// AIArchives.
//
// Settings come from flags, with defaults read from the environment (and a
// .env file in the working directory, if present):
//
//	PORT            listen port or host:port (default 8000)
//	BASE_URL        archive service root (required)
//	UPLOAD_TIMEOUT  archive upload deadline, e.g. 45s (default 30s)
//	ALLOWED_ORIGINS comma-separated CORS origins (default *)
//	DEBUG           verbose logging
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rusq/osenv/v2"

	archivebridge "github.com/wagiedev/archive-bridge"
	"github.com/wagiedev/archive-bridge/internal/config"
)

type params struct {
	cfg       archivebridge.Config
	origins   string
	rawHTML   bool
	verbose   bool
	logFormat string
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	p, err := parseParams(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := newLogger(os.Stderr, p.logFormat, p.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, p); err != nil {
		log.Error("archive-bridge failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, p params) error {
	bridge, err := archivebridge.New(
		archivebridge.WithConfig(p.cfg),
		archivebridge.WithAllowedOrigins(config.SplitOrigins(p.origins)...),
		archivebridge.WithEscapeHTML(!p.rawHTML),
		archivebridge.WithLogger(log),
	)
	if err != nil {
		return err
	}

	return bridge.ListenAndServe(ctx)
}

func parseParams(args []string) (params, error) {
	p := params{cfg: archivebridge.DefaultConfig()}

	timeout, err := envDuration("UPLOAD_TIMEOUT", config.DefaultUploadTimeout)
	if err != nil {
		return p, err
	}

	fs := flag.NewFlagSet("archive-bridge", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags]\n\nFlags:\n", fs.Name())
		fs.PrintDefaults()
	}

	fs.StringVar(&p.cfg.Addr, "addr", config.ListenAddr(osenv.Value("PORT", config.DefaultPort)), "listen `address` (environment: PORT)")
	fs.StringVar(&p.cfg.BaseURL, "base-url", osenv.Value("BASE_URL", ""), "archive service `URL` (environment: BASE_URL)")
	fs.DurationVar(&p.cfg.UploadTimeout, "upload-timeout", timeout, "archive upload `timeout` (environment: UPLOAD_TIMEOUT)")
	fs.DurationVar(&p.cfg.ShutdownTimeout, "shutdown-timeout", config.DefaultShutdownTimeout, "graceful shutdown `timeout`")
	fs.Int64Var(&p.cfg.MaxBodyBytes, "max-body", config.DefaultMaxBodyBytes, "maximum request body `bytes`")
	fs.StringVar(&p.origins, "origins", osenv.Value("ALLOWED_ORIGINS", "*"), "comma-separated CORS `origins` (environment: ALLOWED_ORIGINS)")
	fs.BoolVar(&p.rawHTML, "raw-html", false, "interpolate message text into the archive document without escaping")
	fs.BoolVar(&p.verbose, "v", osenv.Value("DEBUG", false), "verbose messages")
	fs.StringVar(&p.logFormat, "log-format", "text", "log `format`: text or json")

	if err := fs.Parse(args); err != nil {
		return p, err
	}

	if p.logFormat != "text" && p.logFormat != "json" {
		return p, fmt.Errorf("unknown log format %q", p.logFormat)
	}

	return p, nil
}

// envDuration reads a duration from the environment, falling back to def
// when the variable is unset.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(osenv.Value(key, ""))
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
