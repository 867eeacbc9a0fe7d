// Package mcp implements the Model Context Protocol method layer.
//
// The Registry holds the static set of tools with their input schemas and
// handlers. The Dispatcher routes request envelopes by method name:
//   - initialize returns protocol version, capabilities and server identity
//   - tools/list renders the registry in registration order
//   - tools/call validates arguments against the tool schema and runs it
//
// Unknown methods and unknown tools both fail with method-not-found; bad
// arguments fail with invalid-params; anything raised while the tool runs
// fails with the server error code.
package mcp
