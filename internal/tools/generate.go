package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/mark3labs/mcp-go/mcp"
)

// generateCore is shared by the three generate_* tools; they differ
// only in document type and wording.
type generateCore struct {
	service  *docgen.Service
	analyzer *analyzer.Analyzer
	docType  string
}

// extraValueParams are optional placeholder overrides accepted by all
// generate tools, keyed by document type.
var extraValueParams = map[string][]string{
	"prd":    {"objectives", "user_stories", "functional_requirements", "non_functional_requirements", "acceptance_criteria", "out_of_scope"},
	"spec":   {"architecture", "components", "interfaces", "data_model", "error_handling", "testing_strategy"},
	"design": {"user_interface_design", "data_flow", "deployment"},
}

func (g *generateCore) definition(name, description string) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Project or feature name. Used for the document title and suggested filename."),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Short prose description of what is being built."),
		),
		mcp.WithString("template",
			mcp.Description("Template name to use instead of the built-in default. See list_templates."),
		),
		mcp.WithBoolean("include_references",
			mcp.Description("Analyze the configured reference directory and embed the accepted material in the document. Default: false."),
		),
	}
	for _, param := range extraValueParams[g.docType] {
		opts = append(opts, mcp.WithString(param,
			mcp.Description(fmt.Sprintf("Content for the '%s' section. Optional; the placeholder stays visible when omitted.", strings.ReplaceAll(param, "_", " "))),
		))
	}
	return mcp.NewTool(name, opts...)
}

func (g *generateCore) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectName := req.GetString("project_name", "")
	description := req.GetString("description", "")
	if strings.TrimSpace(projectName) == "" {
		return mcp.NewToolResultError("'project_name' is required"), nil
	}
	if strings.TrimSpace(description) == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	values := map[string]string{}
	for _, param := range extraValueParams[g.docType] {
		if v := req.GetString(param, ""); v != "" {
			values[param] = v
		}
	}

	var analysis *analyzer.AnalysisResult
	if req.GetBool("include_references", false) {
		res, refusal, err := runAnalysis(ctx, g.analyzer, g.service)
		if err != nil {
			return nil, err
		}
		if refusal != nil {
			return refusal, nil
		}
		analysis = res
	}

	doc, err := g.service.Generate(docgen.GenerateRequest{
		Type:         g.docType,
		ProjectName:  projectName,
		Description:  description,
		TemplateName: req.GetString("template", ""),
		Values:       values,
		Analysis:     analysis,
	})
	if err != nil {
		return generationErrorResult(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generated %s document from template %q.\n", doc.Type, doc.Template)
	fmt.Fprintf(&b, "Suggested filename: `%s` (use save_generated_document to persist).\n", doc.SuggestedFilename)
	if analysis != nil {
		fmt.Fprintf(&b, "\n%s\n", analysisSummary(analysis))
	}
	b.WriteString("\n---\n\n")
	b.WriteString(doc.Content)
	return mcp.NewToolResultText(b.String()), nil
}
