package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/quill/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListTemplatesTool handles the list_templates MCP tool.
type ListTemplatesTool struct {
	store *templates.Store
}

// NewListTemplatesTool creates the tool with the template store.
func NewListTemplatesTool(store *templates.Store) *ListTemplatesTool {
	return &ListTemplatesTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTemplatesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_templates",
		mcp.WithDescription(
			"List available document templates with their type, sections and "+
				"placeholders. Pass a template name to generate_prd/generate_spec/"+
				"generate_design via the 'template' parameter.",
		),
		mcp.WithString("type",
			mcp.Description("Filter by document type: prd, spec or design."),
		),
	)
}

// Handle processes the list_templates tool call.
func (t *ListTemplatesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := req.GetString("type", "")

	var b strings.Builder
	b.WriteString("# Available Templates\n")
	count := 0
	for _, tpl := range t.store.List() {
		if filter != "" && tpl.Type != filter {
			continue
		}
		count++
		fmt.Fprintf(&b, "\n## %s\n", tpl.Name)
		fmt.Fprintf(&b, "- **Type:** %s\n", tpl.Type)
		if tpl.Version != "" {
			fmt.Fprintf(&b, "- **Version:** %s\n", tpl.Version)
		}
		if tpl.Description != "" {
			fmt.Fprintf(&b, "- **Description:** %s\n", tpl.Description)
		}
		fmt.Fprintf(&b, "- **Sections:** %s\n", strings.Join(tpl.OrderedSections(), ", "))
		fmt.Fprintf(&b, "- **Placeholders:** %s\n", strings.Join(tpl.Placeholders(), ", "))
	}
	if count == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No templates of type %q. Valid types: prd, spec, design.", filter)), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}
