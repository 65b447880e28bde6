package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/HendryAvila/quill/internal/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
)

// SaveDocumentTool handles the save_generated_document MCP tool.
type SaveDocumentTool struct {
	store     *docgen.Store
	sanitizer *sanitize.Sanitizer
}

// NewSaveDocumentTool creates the tool with the document store.
func NewSaveDocumentTool(store *docgen.Store, sanitizer *sanitize.Sanitizer) *SaveDocumentTool {
	return &SaveDocumentTool{store: store, sanitizer: sanitizer}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("save_generated_document",
		mcp.WithDescription(
			"Persist a generated document into the configured output directory. "+
				"Existing files are never overwritten; on a name collision a numeric "+
				"suffix is added. Content passes the sanitizer before writing.",
		),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Document filename, e.g. 'search-service-prd.md'. Must end in .md."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The full markdown content to save."),
		),
	)
}

// Handle processes the save_generated_document tool call.
func (t *SaveDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename := req.GetString("filename", "")
	content := req.GetString("content", "")

	if strings.TrimSpace(filename) == "" {
		return mcp.NewToolResultError("'filename' is required"), nil
	}
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	res, err := t.sanitizer.Sanitize(content, "arg:document_content")
	if err != nil {
		return generationErrorResult(err)
	}

	path, err := t.store.Save(filename, res.Text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note := ""
	if res.Modified {
		note = "\nNote: unsafe markup in the content was escaped before saving."
	}
	return mcp.NewToolResultText(fmt.Sprintf("Document saved to `%s`.%s", path, note)), nil
}
