package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/archive-bridge/internal/mcp"
)

const (
	// ToolName is the name of the built-in conversation archiving tool.
	ToolName = "saveConversation"

	toolDescription = "Saves the current Claude chat to AIArchives."

	// resultKey carries the archive's raw reply in the tool result.
	resultKey = "remoteResponse"

	documentName = "conversation.html"
	documentType = "text/html"
)

// saveConversationArgs are the validated arguments of saveConversation.
type saveConversationArgs struct {
	Messages []Message `json:"messages"`
}

// InputSchema returns the schema for saveConversation: an object with a
// required "messages" array whose items require string role and content.
func InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"messages": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"role":    {Type: "string"},
						"content": {Type: "string"},
					},
					Required: []string{"role", "content"},
				},
			},
		},
		Required: []string{"messages"},
	}
}

// Tool archives conversations through an Uploader.
type Tool struct {
	log      *slog.Logger
	uploader Uploader
	escape   bool
}

// NewTool creates the saveConversation tool. With escape set, message
// text is HTML-escaped before rendering.
func NewTool(log *slog.Logger, uploader Uploader, escape bool) *Tool {
	return &Tool{
		log:      log.With("component", "save_conversation"),
		uploader: uploader,
		escape:   escape,
	}
}

// Register adds the tool to the registry.
func (t *Tool) Register(reg *mcp.Registry) error {
	return reg.AddTool(
		mcp.NewTool(ToolName, toolDescription, InputSchema()),
		t.Handle,
		mcp.WithStructuredKey(resultKey),
	)
}

// Handle renders the messages and uploads them to the archive. Arguments
// have already been validated against InputSchema by the registry.
func (t *Tool) Handle(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	args, err := mcp.DecodeArguments[saveConversationArgs](req)
	if err != nil {
		return nil, err
	}

	doc := Document{
		Filename:    documentName,
		ContentType: documentType,
		Body:        []byte(RenderHTML(args.Messages, t.escape)),
	}

	t.log.Debug("Rendered conversation", "messages", len(args.Messages), "bytes", len(doc.Body))

	receipt, err := t.uploader.Upload(ctx, doc)
	if err != nil {
		return nil, err
	}

	result := mcp.TextResult(fmt.Sprintf("✅ Conversation saved to AIArchives!\n🔗 %s", receipt.URL))
	result.StructuredContent = receipt.Raw

	return result, nil
}
