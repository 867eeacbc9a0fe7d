// Package archive connects the bridge to the AIArchives conversation store.
//
// It renders a conversation to HTML, posts it to <base>/api/conversation as a
// multipart upload, and exposes the result as the saveConversation MCP tool.
package archive
