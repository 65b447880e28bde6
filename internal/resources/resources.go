// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (quill://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/processors"
	"github.com/HendryAvila/quill/internal/templates"
)

// Handler manages the quill resource endpoints.
type Handler struct {
	registry *processors.Registry
	store    *templates.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(registry *processors.Registry, store *templates.Store) *Handler {
	return &Handler{registry: registry, store: store}
}

// FormatsResource returns the MCP resource definition for the
// supported file formats.
func (h *Handler) FormatsResource() mcp.Resource {
	return mcp.NewResource(
		"quill://formats",
		"Supported Resource Formats",
		mcp.WithResourceDescription("File extensions the resource analyzer accepts, with the format each maps to"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleFormats returns the supported formats as JSON.
func (h *Handler) HandleFormats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type entry struct {
		Extension string `json:"extension"`
		Format    string `json:"format"`
	}
	var entries []entry
	for _, ext := range h.registry.Supported() {
		entries = append(entries, entry{Extension: ext, Format: string(h.registry.FormatFor(ext))})
	}

	data, err := json.MarshalIndent(map[string]any{"formats": entries}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling formats: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// TemplatesResource returns the MCP resource definition for the
// template catalog.
func (h *Handler) TemplatesResource() mcp.Resource {
	return mcp.NewResource(
		"quill://templates",
		"Document Templates",
		mcp.WithResourceDescription("Available document templates with their type, sections and placeholders"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleTemplates returns the template catalog as JSON.
func (h *Handler) HandleTemplates(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type entry struct {
		Name         string   `json:"name"`
		Type         string   `json:"type"`
		Version      string   `json:"version,omitempty"`
		Description  string   `json:"description,omitempty"`
		Sections     []string `json:"sections"`
		Placeholders []string `json:"placeholders"`
	}
	var entries []entry
	for _, tpl := range h.store.List() {
		entries = append(entries, entry{
			Name:         tpl.Name,
			Type:         tpl.Type,
			Version:      tpl.Version,
			Description:  tpl.Description,
			Sections:     tpl.OrderedSections(),
			Placeholders: tpl.Placeholders(),
		})
	}

	data, err := json.MarshalIndent(map[string]any{"templates": entries}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling templates: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}
