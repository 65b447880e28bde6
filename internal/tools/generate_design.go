package tools

import (
	"context"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/mark3labs/mcp-go/mcp"
)

// GenerateDesignTool handles the generate_design MCP tool.
type GenerateDesignTool struct {
	core generateCore
}

// NewGenerateDesignTool creates the tool with its collaborators.
func NewGenerateDesignTool(service *docgen.Service, a *analyzer.Analyzer) *GenerateDesignTool {
	return &GenerateDesignTool{core: generateCore{service: service, analyzer: a, docType: "design"}}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateDesignTool) Definition() mcp.Tool {
	return t.core.definition("generate_design",
		"Generate a design document covering system design, UI design and data "+
			"flow. Optionally embeds analyzed reference material. Returns markdown; "+
			"use save_generated_document to persist it.",
	)
}

// Handle processes the generate_design tool call.
func (t *GenerateDesignTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.core.handle(ctx, req)
}
