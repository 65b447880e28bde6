package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/quill/internal/seclog"
)

type captureSink struct {
	events []seclog.Event
}

func (c *captureSink) Write(e seclog.Event) error {
	c.events = append(c.events, e)
	return nil
}

func newTestStore() (*Store, *captureSink) {
	sink := &captureSink{}
	return NewStore(seclog.New(nil, seclog.WithSink(sink))), sink
}

func TestBuiltinsAreValid(t *testing.T) {
	s, _ := newTestStore()
	for _, name := range []string{"default-prd", "default-spec", "default-design"} {
		tpl := s.Get(name)
		if tpl == nil {
			t.Fatalf("built-in %q missing", name)
		}
		if err := tpl.Validate(); err != nil {
			t.Errorf("built-in %q invalid: %v", name, err)
		}
	}
}

func TestBuiltinsCoverRequiredSections(t *testing.T) {
	s, _ := newTestStore()
	for _, docType := range []string{TypePRD, TypeSpec, TypeDesign} {
		tpl := s.ForType(docType)
		if tpl == nil {
			t.Fatalf("no template for type %q", docType)
		}
		for _, required := range RequiredSections(docType) {
			if _, ok := tpl.Sections[required]; !ok {
				t.Errorf("template %q missing required section %q", tpl.Name, required)
			}
		}
	}
}

func TestValidateRejectsBadTemplates(t *testing.T) {
	tests := []struct {
		name string
		tpl  Template
	}{
		{"bad name", Template{Name: "bad name!", Type: TypePRD, Sections: map[string]string{"a": "x"}}},
		{"bad type", Template{Name: "t", Type: "novel", Sections: map[string]string{"a": "x"}}},
		{"no sections", Template{Name: "t", Type: TypePRD}},
		{"bad section name", Template{Name: "t", Type: TypePRD, Sections: map[string]string{"a-b": "x"}}},
		{"unsafe placeholder", Template{Name: "t", Type: TypePRD, Sections: map[string]string{"a": "{__import__}"}}},
		{"expression placeholder", Template{Name: "t", Type: TypePRD, Sections: map[string]string{"a": "{os.system}"}}},
		{"unknown ordered section", Template{Name: "t", Type: TypePRD, Sections: map[string]string{"a": "x"}, SectionOrder: []string{"ghost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tpl.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRenderSubstitutesLiterally(t *testing.T) {
	tpl := &Template{
		Name: "t", Type: TypePRD,
		Sections:     map[string]string{"intro": "# {title}\n\n{body}"},
		SectionOrder: []string{"intro"},
	}

	out := tpl.Render(map[string]string{
		"title": "Search Service",
		"body":  "Value with {braces} and $(symbols) stays literal.",
	})
	if !strings.Contains(out, "# Search Service") {
		t.Errorf("title not substituted: %q", out)
	}
	if !strings.Contains(out, "{braces} and $(symbols) stays literal") {
		t.Errorf("values were interpreted instead of inserted literally: %q", out)
	}
}

func TestRenderLeavesUnresolvedPlaceholders(t *testing.T) {
	tpl := &Template{
		Name: "t", Type: TypePRD,
		Sections: map[string]string{"intro": "{known} then {unknown}"},
	}
	out := tpl.Render(map[string]string{"known": "yes"})
	if !strings.Contains(out, "yes then {unknown}") {
		t.Errorf("unresolved placeholder handling wrong: %q", out)
	}
}

func TestOrderedSections(t *testing.T) {
	tpl := &Template{
		Name: "t", Type: TypeSpec,
		Sections:     map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		SectionOrder: []string{"c", "a"},
	}
	got := tpl.OrderedSections()
	want := []string{"c", "a", "b", "d"}
	if len(got) != len(want) {
		t.Fatalf("OrderedSections() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OrderedSections() = %v, want %v", got, want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	tpl := defaultPRD()
	got := tpl.Placeholders()
	if len(got) == 0 {
		t.Fatal("no placeholders found")
	}
	for _, want := range []string{"project_name", "objectives", "user_stories"} {
		found := false
		for _, p := range got {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Errorf("placeholder %q missing from %v", want, got)
		}
	}
}

func TestLoadDir(t *testing.T) {
	s, sink := newTestStore()
	dir := t.TempDir()

	good := `
name: team-prd
type: prd
version: "2.0"
description: Team specific PRD
section_order: [introduction]
sections:
  introduction: "# {project_name}\n\n{introduction}"
`
	evil := `
name: evil
type: prd
sections:
  introduction: "payload {bad-placeholder!} here"
`
	if err := os.WriteFile(filepath.Join(dir, "team.yaml"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "evil.yaml"), []byte(evil), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	if s.Get("team-prd") == nil {
		t.Error("valid custom template not loaded")
	}
	if s.Get("evil") != nil {
		t.Error("invalid template was loaded")
	}
	if len(sink.events) == 0 {
		t.Error("no template-rejected event recorded")
	}

	// A missing directory is not an error.
	if err := s.LoadDir(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("LoadDir(missing) error = %v", err)
	}
}

func TestCustomize(t *testing.T) {
	s, _ := newTestStore()

	derived, err := s.Customize("default-prd", "lean-prd", map[string]string{
		"introduction": "# {project_name} (lean)\n\n{introduction}",
		"risks":        "## Risks\n\n{risks}",
	}, map[string]string{"team": "platform"})
	if err != nil {
		t.Fatalf("Customize() error = %v", err)
	}

	if derived.Type != TypePRD {
		t.Errorf("derived type = %q", derived.Type)
	}
	if !strings.Contains(derived.Sections["introduction"], "(lean)") {
		t.Error("section override lost")
	}
	if _, ok := derived.Sections["objectives"]; !ok {
		t.Error("base sections not inherited")
	}
	order := derived.OrderedSections()
	if order[len(order)-1] != "risks" {
		t.Errorf("new section not appended to order: %v", order)
	}
	if s.Get("lean-prd") == nil {
		t.Error("derived template not stored")
	}

	if _, err := s.Customize("nope", "x", nil, nil); err == nil {
		t.Error("expected error for unknown base")
	}
	if _, err := s.Customize("default-prd", "bad", map[string]string{"intro": "{os.system}"}, nil); err == nil {
		t.Error("expected error for unsafe section")
	}
}
