package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateContentTool handles the validate_generated_content MCP tool.
type ValidateContentTool struct{}

// NewValidateContentTool creates the tool.
func NewValidateContentTool() *ValidateContentTool {
	return &ValidateContentTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateContentTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_generated_content",
		mcp.WithDescription(
			"Check a generated document against the structural requirements for its "+
				"type: a PRD needs introduction, objectives, user stories and acceptance "+
				"criteria sections; a spec needs overview, architecture, components and "+
				"interfaces; a design needs system design, UI design and data flow.",
		),
		mcp.WithString("document_type",
			mcp.Required(),
			mcp.Description("Document type to validate against: prd, spec or design."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The markdown content to validate."),
		),
	)
}

// Handle processes the validate_generated_content tool call.
func (t *ValidateContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docType := req.GetString("document_type", "")
	content := req.GetString("content", "")

	if strings.TrimSpace(docType) == "" {
		return mcp.NewToolResultError("'document_type' is required: prd, spec or design"), nil
	}

	problems := docgen.ValidateContent(docType, content)
	if len(problems) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Document is a structurally valid %s: all required sections present.", docType)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document failed %s validation:\n", docType)
	for _, p := range problems {
		b.WriteString("- " + p + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
