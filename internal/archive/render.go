package archive

import (
	"html"
	"strings"
)

// Message is one turn of a conversation in conversation order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RenderHTML renders messages as one paragraph per turn, joined by newlines:
//
//	<p><strong>user:</strong> hi</p>
//
// With escape set, role and content are HTML-escaped. Without it they are
// inserted verbatim.
func RenderHTML(messages []Message, escape bool) string {
	var sb strings.Builder

	for i, m := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}

		role, content := m.Role, m.Content
		if escape {
			role, content = html.EscapeString(role), html.EscapeString(content)
		}

		sb.WriteString("<p><strong>")
		sb.WriteString(role)
		sb.WriteString(":</strong> ")
		sb.WriteString(content)
		sb.WriteString("</p>")
	}

	return sb.String()
}
