// Package archivebridge exposes a Model Context Protocol endpoint that lets an
// MCP client save a conversation to the AIArchives service.
//
// The bridge speaks JSON-RPC 2.0 over plain HTTP POST on /mcp. It answers
// initialize, tools/list and tools/call, and offers a single tool,
// saveConversation, which renders the messages it is given into an HTML
// document and uploads that document to <base>/api/conversation.
//
// # Basic Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	bridge, err := archivebridge.New(
//	    archivebridge.WithBaseURL("https://aiarchives.example"),
//	    archivebridge.WithAddr(":8000"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := bridge.ListenAndServe(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Bridge.Handler returns the http.Handler for embedding in an existing server.
//
// # Logging
//
// For request and upload tracing, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	bridge, err := archivebridge.New(
//	    archivebridge.WithBaseURL(baseURL),
//	    archivebridge.WithLogger(logger),
//	)
//
// # Error Handling
//
// Configuration problems are reported as typed errors:
//
//	bridge, err := archivebridge.New()
//	if cfgErr, ok := errors.AsType[*archivebridge.ConfigError](err); ok {
//	    log.Fatalf("bad setting %s: %v", cfgErr.Field, cfgErr.Err)
//	}
//
// Failures during a tool call never surface as Go errors. They are returned
// to the MCP client as JSON-RPC error objects.
package archivebridge
