package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/quill/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// CustomizeTemplateTool handles the customize_template MCP tool.
type CustomizeTemplateTool struct {
	store *templates.Store
}

// NewCustomizeTemplateTool creates the tool with the template store.
func NewCustomizeTemplateTool(store *templates.Store) *CustomizeTemplateTool {
	return &CustomizeTemplateTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *CustomizeTemplateTool) Definition() mcp.Tool {
	return mcp.NewTool("customize_template",
		mcp.WithDescription(
			"Derive a new template from an existing one by overriding or adding "+
				"sections. Section bodies may only use {snake_case} placeholders; "+
				"template-engine syntax is rejected. The derived template lives for "+
				"the server's lifetime and is usable by name in the generate tools.",
		),
		mcp.WithString("base_template",
			mcp.Required(),
			mcp.Description("Name of the template to derive from. See list_templates."),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("Name for the derived template. Letters, digits, '.', '_' and '-'."),
		),
		mcp.WithString("sections",
			mcp.Required(),
			mcp.Description(`JSON object mapping section names to markdown bodies, e.g. {"risks": "## Risks\n\n{risks}"}.`),
		),
	)
}

// Handle processes the customize_template tool call.
func (t *CustomizeTemplateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseName := req.GetString("base_template", "")
	newName := req.GetString("new_name", "")
	rawSections := req.GetString("sections", "")

	if strings.TrimSpace(baseName) == "" {
		return mcp.NewToolResultError("'base_template' is required"), nil
	}
	if strings.TrimSpace(newName) == "" {
		return mcp.NewToolResultError("'new_name' is required"), nil
	}
	if strings.TrimSpace(rawSections) == "" {
		return mcp.NewToolResultError("'sections' is required: a JSON object of section overrides"), nil
	}

	var sections map[string]string
	if err := json.Unmarshal([]byte(rawSections), &sections); err != nil {
		return mcp.NewToolResultError("'sections' must be a JSON object mapping section names to strings"), nil
	}

	derived, err := t.store.Customize(baseName, newName, sections, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := fmt.Sprintf(
		"Template %q created from %q.\n\n- **Type:** %s\n- **Sections:** %s\n- **Placeholders:** %s\n",
		derived.Name, baseName, derived.Type,
		strings.Join(derived.OrderedSections(), ", "),
		strings.Join(derived.Placeholders(), ", "),
	)
	return mcp.NewToolResultText(response), nil
}
