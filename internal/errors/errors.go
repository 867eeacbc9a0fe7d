package errors

import (
	"errors"
	"fmt"
	"time"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*ConfigError)(nil)
	_ BridgeError = (*DownstreamError)(nil)
	_ BridgeError = (*TimeoutError)(nil)
	_ BridgeError = (*ToolError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrMissingBaseURL indicates the archive base URL was not configured.
	ErrMissingBaseURL = errors.New("archive base URL is not configured")

	// ErrUploadTimeout indicates the archive upload did not finish in time.
	ErrUploadTimeout = errors.New("archive upload timed out")

	// ErrUnknownTool indicates tools/call named a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments indicates tool arguments failed schema validation.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrMissingURL indicates the archive accepted the upload but did not
	// report where the conversation lives.
	ErrMissingURL = errors.New("archive response missing url")
)

// ConfigError indicates the process configuration is unusable.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ConfigError) IsBridgeError() bool { return true }

// DownstreamError indicates the archive answered with a non-success status.
// Status is the full HTTP status line, e.g. "500 Internal Server Error".
type DownstreamError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("Remote API error: %s - %s", e.Status, e.Body)
}

// IsBridgeError implements BridgeError.
func (e *DownstreamError) IsBridgeError() bool { return true }

// TimeoutError indicates the archive upload exceeded its deadline.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("archive upload timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrUploadTimeout, e.Err}
}

// IsBridgeError implements BridgeError.
func (e *TimeoutError) IsBridgeError() bool { return true }

// ToolError indicates a tool could not be resolved or its arguments were
// rejected before the tool body ran.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	if errors.Is(e.Err, ErrUnknownTool) {
		return "Unknown tool: " + e.Tool
	}

	return fmt.Sprintf("Invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ToolError) IsBridgeError() bool { return true }
