package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/mark3labs/mcp-go/mcp"
)

// AnalyzeResourcesTool handles the analyze_resources MCP tool.
type AnalyzeResourcesTool struct {
	analyzer *analyzer.Analyzer
	service  *docgen.Service
}

// NewAnalyzeResourcesTool creates the tool with its collaborators.
func NewAnalyzeResourcesTool(a *analyzer.Analyzer, service *docgen.Service) *AnalyzeResourcesTool {
	return &AnalyzeResourcesTool{analyzer: a, service: service}
}

// Definition returns the MCP tool definition for registration.
func (t *AnalyzeResourcesTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_resources",
		mcp.WithDescription(
			"Analyze the configured reference directory: every file is validated, "+
				"extracted and sanitized, then grouped by its parent folder as category. "+
				"Files failing any check are skipped and listed with the rejection "+
				"reason; one bad file never fails the run.",
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Include the sanitized text of each accepted file in the JSON output. Default: false, which returns the summary only."),
		),
	)
}

// Handle processes the analyze_resources tool call.
func (t *AnalyzeResourcesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, refusal, err := runAnalysis(ctx, t.analyzer, t.service)
	if err != nil {
		return nil, err
	}
	if refusal != nil {
		return refusal, nil
	}

	out := *res
	if !req.GetBool("include_content", false) {
		out.Categories = summarizeCategories(res.Categories)
	}
	raw, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding analysis result: %w", err)
	}

	return mcp.NewToolResultText(analysisSummary(res) + "\n```json\n" + string(raw) + "\n```"), nil
}

// summarizeCategories strips file bodies, keeping paths and metadata.
func summarizeCategories(cats []analyzer.CategoryContent) []analyzer.CategoryContent {
	out := make([]analyzer.CategoryContent, len(cats))
	for i, c := range cats {
		files := make([]analyzer.SanitizedContent, len(c.Files))
		for j, f := range c.Files {
			f.Text = ""
			f.Structured = nil
			files[j] = f
		}
		out[i] = analyzer.CategoryContent{Name: c.Name, Files: files}
	}
	return out
}
