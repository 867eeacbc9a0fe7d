package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"

	bridgeerrors "github.com/wagiedev/archive-bridge/internal/errors"
	"github.com/wagiedev/archive-bridge/internal/jsonrpc"
)

// DefaultProtocolVersion is the MCP revision announced by initialize.
const DefaultProtocolVersion = "2025-06-18"

// Method is a JSON-RPC method the bridge answers. The set is closed.
type Method string

const (
	// MethodInitialize negotiates protocol version and capabilities.
	MethodInitialize Method = "initialize"
	// MethodToolsList describes the registered tools.
	MethodToolsList Method = "tools/list"
	// MethodToolsCall invokes a registered tool.
	MethodToolsCall Method = "tools/call"
)

// Methods lists every method in the closed set.
var Methods = []Method{MethodInitialize, MethodToolsList, MethodToolsCall}

// ParseMethod maps a wire method name onto the closed set.
func ParseMethod(name string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == name {
			return m, true
		}
	}

	return "", false
}

// callParams is the params member of a tools/call request.
type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Dispatcher routes request envelopes to method handlers and always
// produces exactly one response.
type Dispatcher struct {
	log             *slog.Logger
	registry        *Registry
	protocolVersion string
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(log *slog.Logger, registry *Registry, protocolVersion string) *Dispatcher {
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}

	return &Dispatcher{
		log:             log.With("component", "dispatcher"),
		registry:        registry,
		protocolVersion: protocolVersion,
	}
}

// Dispatch handles a request envelope. The envelope must already be
// classified as jsonrpc.KindRequest.
func (d *Dispatcher) Dispatch(ctx context.Context, env *jsonrpc.Envelope) *jsonrpc.Response {
	id := env.ReplyID()

	method, ok := ParseMethod(env.Method)
	if !ok {
		d.log.Warn("Unknown method", "method", env.Method, "id", string(id))

		return jsonrpc.Failure(id, jsonrpc.Errorf(jsonrpc.CodeMethodNotFound, "Unknown method: %s", env.Method))
	}

	var (
		result any
		rpcErr *jsonrpc.Error
	)

	switch method {
	case MethodInitialize:
		result = d.initialize()
	case MethodToolsList:
		result = d.listTools()
	case MethodToolsCall:
		result, rpcErr = d.callTool(ctx, env.Params)
	}

	if rpcErr != nil {
		return jsonrpc.Failure(id, rpcErr)
	}

	return jsonrpc.Success(id, result)
}

func (d *Dispatcher) initialize() map[string]any {
	return map[string]any{
		"protocolVersion": d.protocolVersion,
		"capabilities":    d.registry.Capabilities(),
		"serverInfo":      d.registry.ServerInfo(),
	}
}

func (d *Dispatcher) listTools() map[string]any {
	return map[string]any{
		"tools": d.registry.ListTools(),
	}
}

// callTool decodes tools/call params, runs the tool and maps its failure
// onto a protocol error.
func (d *Dispatcher) callTool(ctx context.Context, raw json.RawMessage) (map[string]any, *jsonrpc.Error) {
	var params callParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, jsonrpc.Errorf(jsonrpc.CodeInvalidParams, "Invalid params: %v", err)
		}
	}

	if params.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "Invalid params: missing tool name")
	}

	callID := ulid.Make().String()
	log := d.log.With("tool", params.Name, "call_id", callID)

	log.Debug("Calling tool")

	result, err := d.registry.CallTool(WithCallID(ctx, callID), params.Name, params.Arguments)
	if err != nil {
		rpcErr := toolFailure(err)
		if rpcErr.Code == jsonrpc.CodeServerError {
			log.Error("Tool execution failed", "error", err)
		} else {
			log.Warn("Tool call rejected", "error", err)
		}

		return nil, rpcErr
	}

	log.Info("Tool call completed")

	return result, nil
}

// toolFailure maps a registry error onto the protocol error taxonomy.
func toolFailure(err error) *jsonrpc.Error {
	switch {
	case errors.Is(err, bridgeerrors.ErrUnknownTool):
		return jsonrpc.NewError(jsonrpc.CodeMethodNotFound, err.Error())
	case errors.Is(err, bridgeerrors.ErrInvalidArguments):
		return jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error())
	default:
		return jsonrpc.NewError(jsonrpc.CodeServerError, err.Error())
	}
}
