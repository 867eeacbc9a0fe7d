package archivebridge

import "github.com/wagiedev/archive-bridge/internal/errors"

// Re-export error types from internal package

// ConfigError indicates the configuration is unusable.
type ConfigError = errors.ConfigError

// DownstreamError indicates the archive answered with a non-success status.
type DownstreamError = errors.DownstreamError

// TimeoutError indicates an archive upload exceeded its deadline.
type TimeoutError = errors.TimeoutError

// ToolError indicates tools/call named an unknown tool or sent bad arguments.
type ToolError = errors.ToolError

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrMissingBaseURL indicates the archive base URL was not configured.
	ErrMissingBaseURL = errors.ErrMissingBaseURL

	// ErrUploadTimeout indicates an archive upload did not finish in time.
	ErrUploadTimeout = errors.ErrUploadTimeout

	// ErrUnknownTool indicates tools/call named a tool that is not registered.
	ErrUnknownTool = errors.ErrUnknownTool

	// ErrInvalidArguments indicates tool arguments failed schema validation.
	ErrInvalidArguments = errors.ErrInvalidArguments

	// ErrMissingURL indicates the archive reply carried no url.
	ErrMissingURL = errors.ErrMissingURL
)
