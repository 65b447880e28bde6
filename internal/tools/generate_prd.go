package tools

import (
	"context"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/mark3labs/mcp-go/mcp"
)

// GeneratePRDTool handles the generate_prd MCP tool.
type GeneratePRDTool struct {
	core generateCore
}

// NewGeneratePRDTool creates the tool with its collaborators.
func NewGeneratePRDTool(service *docgen.Service, a *analyzer.Analyzer) *GeneratePRDTool {
	return &GeneratePRDTool{core: generateCore{service: service, analyzer: a, docType: "prd"}}
}

// Definition returns the MCP tool definition for registration.
func (t *GeneratePRDTool) Definition() mcp.Tool {
	return t.core.definition("generate_prd",
		"Generate a Product Requirements Document (PRD) from a project description. "+
			"Optionally analyzes the configured reference directory and embeds the "+
			"accepted material as a reference appendix. The document is returned as "+
			"markdown; use save_generated_document to persist it.",
	)
}

// Handle processes the generate_prd tool call.
func (t *GeneratePRDTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.core.handle(ctx, req)
}
