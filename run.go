package archivebridge

import (
	"context"
	"fmt"
)

// Run builds a Bridge from opts and serves it until ctx is cancelled.
//
// Example usage:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	err := archivebridge.Run(ctx,
//	    archivebridge.WithBaseURL("https://aiarchives.example"),
//	    archivebridge.WithLogger(log),
//	)
func Run(ctx context.Context, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	bridge, err := New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	return bridge.ListenAndServe(ctx)
}
