package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	bridgeerrors "github.com/wagiedev/archive-bridge/internal/errors"
)

// DefaultStructuredKey is the result member that carries a tool's
// structured content unless the tool chose another name.
const DefaultStructuredKey = "structuredContent"

// Registry is the static set of tools exposed through tools/list and
// tools/call.
//
// Tools are registered once at startup. After serving starts the registry is
// only read, so concurrent calls need no coordination beyond the read lock.
type Registry struct {
	name    string
	version string

	mu    sync.RWMutex
	order []string
	tools map[string]*registeredTool
}

// registeredTool holds tool metadata, its resolved input schema and handler.
type registeredTool struct {
	tool          *mcp.Tool
	schema        *jsonschema.Resolved
	handler       mcp.ToolHandler
	structuredKey string
}

// ToolOption configures a tool at registration.
type ToolOption func(*registeredTool)

// WithStructuredKey renames the result member that carries the handler's
// StructuredContent.
func WithStructuredKey(key string) ToolOption {
	return func(t *registeredTool) {
		t.structuredKey = key
	}
}

// NewRegistry creates an empty tool registry for the named server.
func NewRegistry(name, version string) *Registry {
	return &Registry{
		name:    name,
		version: version,
		tools:   make(map[string]*registeredTool, 4),
	}
}

// AddTool registers a tool. If the tool's InputSchema is a
// *jsonschema.Schema it is resolved now and every call's arguments are
// validated against it before the handler runs.
func (r *Registry) AddTool(tool *mcp.Tool, handler mcp.ToolHandler, opts ...ToolOption) error {
	if tool == nil || tool.Name == "" {
		return fmt.Errorf("register tool: missing name")
	}

	if handler == nil {
		return fmt.Errorf("register tool %s: missing handler", tool.Name)
	}

	t := &registeredTool{
		tool:          tool,
		handler:       handler,
		structuredKey: DefaultStructuredKey,
	}

	if schema, ok := tool.InputSchema.(*jsonschema.Schema); ok && schema != nil {
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("register tool %s: resolve input schema: %w", tool.Name, err)
		}

		t.schema = resolved
	}

	for _, opt := range opts {
		opt(t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("register tool %s: already registered", tool.Name)
	}

	r.tools[tool.Name] = t
	r.order = append(r.order, tool.Name)

	return nil
}

// Name returns the server name.
func (r *Registry) Name() string {
	return r.name
}

// Version returns the server version.
func (r *Registry) Version() string {
	return r.version
}

// ServerInfo returns server information for the initialize response.
func (r *Registry) ServerInfo() map[string]any {
	return map[string]any{
		"name":    r.name,
		"version": r.version,
	}
}

// Capabilities returns server capabilities for the initialize response.
func (r *Registry) Capabilities() map[string]any {
	return map[string]any{
		"tools": map[string]any{},
	}
}

// ListTools returns name, description and inputSchema for every tool in
// registration order.
func (r *Registry) ListTools() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]

		toolMap := map[string]any{
			"name":        t.tool.Name,
			"description": t.tool.Description,
		}

		if t.tool.InputSchema != nil {
			if schemaMap, ok := toMap(t.tool.InputSchema); ok {
				toolMap["inputSchema"] = schemaMap
			}
		}

		if t.tool.Annotations != nil {
			if annotMap, ok := toMap(t.tool.Annotations); ok {
				toolMap["annotations"] = annotMap
			}
		}

		result = append(result, toolMap)
	}

	return result
}

// CallTool validates arguments and executes the named tool.
//
// Errors are one of:
//   - *errors.ToolError wrapping ErrUnknownTool when the tool does not exist
//   - *errors.ToolError wrapping ErrInvalidArguments when validation fails
//   - whatever the handler returned, unwrapped, when execution fails
//
// A panicking handler is recovered and reported as an execution error.
func (r *Registry) CallTool(ctx context.Context, name string, arguments json.RawMessage) (result map[string]any, err error) {
	r.mu.RLock()
	t, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &bridgeerrors.ToolError{Tool: name, Err: bridgeerrors.ErrUnknownTool}
	}

	if len(arguments) == 0 {
		arguments = json.RawMessage("{}")
	}

	if err := t.validate(arguments); err != nil {
		return nil, &bridgeerrors.ToolError{
			Tool: name,
			Err:  fmt.Errorf("%w: %v", bridgeerrors.ErrInvalidArguments, err),
		}
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: arguments,
		},
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("tool %s panicked: %v", name, p)
		}
	}()

	res, err := t.handler(ctx, req)
	if err != nil {
		return nil, err
	}

	return convertCallToolResultToMap(res, t.structuredKey), nil
}

// validate checks raw arguments against the tool's resolved schema.
func (t *registeredTool) validate(arguments json.RawMessage) error {
	var instance any
	if err := json.Unmarshal(arguments, &instance); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}

	if t.schema == nil {
		return nil
	}

	return t.schema.Validate(instance)
}

// convertCallToolResultToMap converts an MCP CallToolResult to the wire map.
func convertCallToolResultToMap(result *mcp.CallToolResult, structuredKey string) map[string]any {
	if result == nil {
		return map[string]any{
			"content": []map[string]any{},
		}
	}

	content := make([]map[string]any, 0, len(result.Content))
	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			content = append(content, map[string]any{
				"type": "text",
				"text": v.Text,
			})
		case *mcp.ImageContent:
			content = append(content, map[string]any{
				"type":     "image",
				"data":     v.Data,
				"mimeType": v.MIMEType,
			})
		case *mcp.ResourceLink:
			content = append(content, map[string]any{
				"type": "resource_link",
				"uri":  v.URI,
				"name": v.Name,
			})
		}
	}

	resultMap := map[string]any{
		"content": content,
	}

	if result.StructuredContent != nil {
		resultMap[structuredKey] = result.StructuredContent
	}

	if result.IsError {
		resultMap["isError"] = true
	}

	return resultMap
}

// toMap round-trips v through JSON into a generic map.
func toMap(v any) (map[string]any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}

	var m map[string]any
	if json.Unmarshal(data, &m) != nil {
		return nil, false
	}

	return m, true
}
