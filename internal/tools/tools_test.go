package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/HendryAvila/quill/internal/limits"
	"github.com/HendryAvila/quill/internal/pathguard"
	"github.com/HendryAvila/quill/internal/processors"
	"github.com/HendryAvila/quill/internal/sanitize"
	"github.com/HendryAvila/quill/internal/seclog"
	"github.com/HendryAvila/quill/internal/templates"
)

// env bundles the collaborators a tool needs, rooted in a temp dir.
type env struct {
	base      string
	analyzer  *analyzer.Analyzer
	service   *docgen.Service
	templates *templates.Store
	registry  *processors.Registry
	sanitizer *sanitize.Sanitizer
	docStore  *docgen.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	log := seclog.New(nil)

	guard, err := pathguard.New(base, pathguard.Options{}, log)
	if err != nil {
		t.Fatal(err)
	}
	registry := processors.NewRegistry()
	sanitizer := sanitize.New(0, log)
	tplStore := templates.NewStore(log)
	docStore, err := docgen.NewStore(filepath.Join(base, ".generated"))
	if err != nil {
		t.Fatal(err)
	}
	return &env{
		base:      base,
		analyzer:  analyzer.New(guard, registry, sanitizer, limits.New(limits.Config{}, log), log),
		service:   docgen.NewService(tplStore, sanitizer),
		templates: tplStore,
		registry:  registry,
		sanitizer: sanitizer,
		docStore:  docStore,
	}
}

func (e *env) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(e.base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// callReq builds a CallToolRequest with the given arguments.
func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

// --- generate_prd ---

func TestGeneratePRDTool(t *testing.T) {
	e := newEnv(t)
	tool := NewGeneratePRDTool(e.service, e.analyzer)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"project_name": "Search Service",
		"description":  "Full-text search for the docs portal.",
		"objectives":   "Fast results.",
	}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	out := textOf(t, res)
	for _, want := range []string{"# Search Service", "## Introduction", "Fast results.", "search-service-prd.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGeneratePRDToolRequiredArgs(t *testing.T) {
	e := newEnv(t)
	tool := NewGeneratePRDTool(e.service, e.analyzer)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{"description": "x"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("missing project_name accepted")
	}

	res, err = tool.Handle(context.Background(), callReq(map[string]any{"project_name": "x"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("missing description accepted")
	}
}

func TestGeneratePRDToolRejectsInjection(t *testing.T) {
	e := newEnv(t)
	tool := NewGeneratePRDTool(e.service, e.analyzer)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"project_name": "x",
		"description":  "{{__import__('os')}}",
	}))
	if err != nil {
		t.Fatalf("injection must be a tool error, not a Go error: %v", err)
	}
	if !res.IsError {
		t.Error("injected description accepted")
	}
	if strings.Contains(textOf(t, res), "__import__") {
		t.Error("error echoes the rejected payload")
	}
}

func TestGenerateWithReferences(t *testing.T) {
	e := newEnv(t)
	e.write(t, "requirements/stories.md", "# Stories\n\nAs a user I want exports.\n")
	tool := NewGenerateSpecTool(e.service, e.analyzer)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"project_name":       "Exporter",
		"description":        "Bulk exports.",
		"include_references": true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	out := textOf(t, res)
	for _, want := range []string{"## Reference Material", "### requirements", "As a user I want exports."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// --- analyze_resources ---

func TestAnalyzeResourcesTool(t *testing.T) {
	e := newEnv(t)
	e.write(t, "docs/a.md", "# A\n")
	e.write(t, "docs/bad.json", `{"broken":`)
	tool := NewAnalyzeResourcesTool(e.analyzer, e.service)

	res, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	out := textOf(t, res)
	for _, want := range []string{"Analyzed 2 files: 1 accepted, 1 rejected", "docs/bad.json: extraction_failed", `"total_files_seen": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q in:\n%s", want, out)
		}
	}
	// Without include_content the sanitized text stays out of the JSON.
	if strings.Contains(out, `"text": "# A"`) {
		t.Error("file content leaked into summary output")
	}

	if stats := e.service.Statistics(); stats.AnalysisRuns != 1 {
		t.Errorf("AnalysisRuns = %d, want 1", stats.AnalysisRuns)
	}
}

// --- list_supported_formats ---

func TestListFormatsTool(t *testing.T) {
	e := newEnv(t)
	tool := NewListFormatsTool(e.registry)

	res, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	out := textOf(t, res)
	for _, want := range []string{"`.md`", "`.json`", "`.yaml`", "`.pdf`", "`.png`"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// --- list_templates ---

func TestListTemplatesTool(t *testing.T) {
	e := newEnv(t)
	tool := NewListTemplatesTool(e.templates)

	res, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	out := textOf(t, res)
	for _, want := range []string{"default-prd", "default-spec", "default-design", "project_name"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	res, err = tool.Handle(context.Background(), callReq(map[string]any{"type": "design"}))
	if err != nil {
		t.Fatal(err)
	}
	out = textOf(t, res)
	if strings.Contains(out, "default-prd") || !strings.Contains(out, "default-design") {
		t.Errorf("type filter not applied:\n%s", out)
	}
}

// --- customize_template ---

func TestCustomizeTemplateTool(t *testing.T) {
	e := newEnv(t)
	tool := NewCustomizeTemplateTool(e.templates)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"base_template": "default-prd",
		"new_name":      "lean-prd",
		"sections":      `{"risks": "## Risks\n\n{risks}"}`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, res))
	}
	if e.templates.Get("lean-prd") == nil {
		t.Error("derived template not stored")
	}

	res, err = tool.Handle(context.Background(), callReq(map[string]any{
		"base_template": "default-prd",
		"new_name":      "evil",
		"sections":      `{"intro": "{os.system}"}`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("unsafe placeholder accepted")
	}

	res, err = tool.Handle(context.Background(), callReq(map[string]any{
		"base_template": "default-prd",
		"new_name":      "x",
		"sections":      "not json",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("malformed sections JSON accepted")
	}
}

// --- save_generated_document ---

func TestSaveDocumentTool(t *testing.T) {
	e := newEnv(t)
	tool := NewSaveDocumentTool(e.docStore, e.sanitizer)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"filename": "out.md",
		"content":  "# Doc\n\nbody\n",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, res))
	}
	raw, err := os.ReadFile(filepath.Join(e.docStore.Dir(), "out.md"))
	if err != nil || !strings.Contains(string(raw), "# Doc") {
		t.Errorf("document not written: %v", err)
	}

	// Markup is escaped, not saved raw.
	res, err = tool.Handle(context.Background(), callReq(map[string]any{
		"filename": "evil.md",
		"content":  "x <script>alert(1)</script>",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("escapable content rejected: %s", textOf(t, res))
	}
	raw, _ = os.ReadFile(filepath.Join(e.docStore.Dir(), "evil.md"))
	if strings.Contains(string(raw), "<script") {
		t.Errorf("raw script tag persisted: %q", raw)
	}

	res, err = tool.Handle(context.Background(), callReq(map[string]any{
		"filename": "../escape.md",
		"content":  "x",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("path-escaping filename accepted")
	}
}

// --- validate_generated_content ---

func TestValidateContentTool(t *testing.T) {
	tool := NewValidateContentTool()

	valid := "# T\n\n## Introduction\nx\n## Objectives\nx\n## User Stories\nx\n## Acceptance Criteria\nx\n"
	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"document_type": "prd",
		"content":       valid,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(textOf(t, res), "structurally valid") {
		t.Errorf("valid document flagged: %s", textOf(t, res))
	}

	res, err = tool.Handle(context.Background(), callReq(map[string]any{
		"document_type": "prd",
		"content":       "# T\n\nno sections\n",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(textOf(t, res), "missing required section") {
		t.Errorf("invalid document passed: %s", textOf(t, res))
	}
}

// --- get_generation_statistics ---

func TestStatisticsTool(t *testing.T) {
	e := newEnv(t)
	if _, err := e.service.Generate(docgen.GenerateRequest{Type: "prd", ProjectName: "p", Description: "d"}); err != nil {
		t.Fatal(err)
	}
	tool := NewStatisticsTool(e.service, nil)

	res, err := tool.Handle(context.Background(), callReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	out := textOf(t, res)
	if !strings.Contains(out, `"prd": 1`) {
		t.Errorf("statistics missing prd count:\n%s", out)
	}
}
