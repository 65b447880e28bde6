package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/quill/internal/processors"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListFormatsTool handles the list_supported_formats MCP tool.
type ListFormatsTool struct {
	registry *processors.Registry
}

// NewListFormatsTool creates the tool with the processor registry.
func NewListFormatsTool(registry *processors.Registry) *ListFormatsTool {
	return &ListFormatsTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *ListFormatsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_supported_formats",
		mcp.WithDescription(
			"List the file formats the resource analyzer can process, by extension. "+
				"Files with other extensions are skipped with an unsupported_format rejection.",
		),
	)
}

// Handle processes the list_supported_formats tool call.
func (t *ListFormatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("Supported file extensions:\n")
	for _, ext := range t.registry.Supported() {
		b.WriteString("- `" + ext + "`\n")
	}
	b.WriteString("\nFormat detection also sniffs file content, so a PDF renamed to `.md` is still treated as a PDF.")
	return mcp.NewToolResultText(b.String()), nil
}
