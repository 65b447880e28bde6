package tools

import (
	"context"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/mark3labs/mcp-go/mcp"
)

// GenerateSpecTool handles the generate_spec MCP tool.
type GenerateSpecTool struct {
	core generateCore
}

// NewGenerateSpecTool creates the tool with its collaborators.
func NewGenerateSpecTool(service *docgen.Service, a *analyzer.Analyzer) *GenerateSpecTool {
	return &GenerateSpecTool{core: generateCore{service: service, analyzer: a, docType: "spec"}}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateSpecTool) Definition() mcp.Tool {
	return t.core.definition("generate_spec",
		"Generate a technical specification covering architecture, components and "+
			"interfaces. Optionally embeds analyzed reference material. Returns "+
			"markdown; use save_generated_document to persist it.",
	)
}

// Handle processes the generate_spec tool call.
func (t *GenerateSpecTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.core.handle(ctx, req)
}
