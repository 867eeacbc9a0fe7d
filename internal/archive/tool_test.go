package archive

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	bridgeerrors "github.com/wagiedev/archive-bridge/internal/errors"
	"github.com/wagiedev/archive-bridge/internal/mcp"
)

func newRegistryWithTool(t *testing.T, up Uploader, escape bool) *mcp.Registry {
	t.Helper()

	reg := mcp.NewRegistry("test", "0.0.0")
	require.NoError(t, NewTool(slog.Default(), up, escape).Register(reg))

	return reg
}

func TestTool_Descriptor(t *testing.T) {
	reg := newRegistryWithTool(t, NewMockUploader(gomock.NewController(t)), true)

	tools := reg.ListTools()
	require.Len(t, tools, 1)
	require.Equal(t, ToolName, tools[0]["name"])
	require.Equal(t, "Saves the current Claude chat to AIArchives.", tools[0]["description"])

	schema := tools[0]["inputSchema"].(map[string]any)
	require.Equal(t, "object", schema["type"])
	require.Equal(t, []any{"messages"}, schema["required"])

	messages := schema["properties"].(map[string]any)["messages"].(map[string]any)
	require.Equal(t, "array", messages["type"])

	items := messages["items"].(map[string]any)
	require.ElementsMatch(t, []any{"role", "content"}, items["required"])
}

func TestTool_Handle_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := NewMockUploader(ctrl)

	up.EXPECT().
		Upload(gomock.Any(), Document{
			Filename:    "conversation.html",
			ContentType: "text/html",
			Body:        []byte("<p><strong>user:</strong> hi</p>\n<p><strong>assistant:</strong> a &lt; b</p>"),
		}).
		Return(&Receipt{URL: "https://x/y", Raw: map[string]any{"url": "https://x/y"}}, nil)

	reg := newRegistryWithTool(t, up, true)

	result, err := reg.CallTool(context.Background(), ToolName, json.RawMessage(
		`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"a < b"}]}`,
	))
	require.NoError(t, err)

	content := result["content"].([]map[string]any)
	require.Len(t, content, 1)
	require.Equal(t, "text", content[0]["type"])
	require.Contains(t, content[0]["text"], "https://x/y")
	require.Equal(t, map[string]any{"url": "https://x/y"}, result["remoteResponse"])
}

func TestTool_Handle_EmptyConversation(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := NewMockUploader(ctrl)

	up.EXPECT().
		Upload(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc Document) (*Receipt, error) {
			require.Empty(t, doc.Body)

			return &Receipt{URL: "https://x/empty", Raw: map[string]any{"url": "https://x/empty"}}, nil
		})

	reg := newRegistryWithTool(t, up, true)

	_, err := reg.CallTool(context.Background(), ToolName, json.RawMessage(`{"messages":[]}`))
	require.NoError(t, err)
}

func TestTool_Handle_RawHTML(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := NewMockUploader(ctrl)

	up.EXPECT().
		Upload(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc Document) (*Receipt, error) {
			require.Equal(t, "<p><strong>user:</strong> <b>bold</b></p>", string(doc.Body))

			return &Receipt{URL: "https://x/y", Raw: map[string]any{"url": "https://x/y"}}, nil
		})

	reg := newRegistryWithTool(t, up, false)

	_, err := reg.CallTool(context.Background(), ToolName, json.RawMessage(
		`{"messages":[{"role":"user","content":"<b>bold</b>"}]}`,
	))
	require.NoError(t, err)
}

func TestTool_Handle_InvalidArgumentsNeverUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := NewMockUploader(ctrl)
	up.EXPECT().Upload(gomock.Any(), gomock.Any()).Times(0)

	reg := newRegistryWithTool(t, up, true)

	for name, args := range map[string]string{
		"no messages":         `{}`,
		"messages not array":  `{"messages":"hi"}`,
		"item missing role":   `{"messages":[{"content":"hi"}]}`,
		"item content number": `{"messages":[{"role":"user","content":1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := reg.CallTool(context.Background(), ToolName, json.RawMessage(args))
			require.ErrorIs(t, err, bridgeerrors.ErrInvalidArguments)
		})
	}
}

func TestTool_Handle_UploadErrorPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := NewMockUploader(ctrl)

	downstream := &bridgeerrors.DownstreamError{
		StatusCode: 500,
		Status:     "500 Internal Server Error",
		Body:       "nope",
	}
	up.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(nil, downstream)

	reg := newRegistryWithTool(t, up, true)

	_, err := reg.CallTool(context.Background(), ToolName, json.RawMessage(
		`{"messages":[{"role":"user","content":"hi"}]}`,
	))
	require.Same(t, downstream, err)
}
