// Package templates manages document templates for PRD, technical
// specification and design documents. Rendering is literal placeholder
// substitution only; template content is validated against the same
// injection rules as user content, and unsafe placeholder syntax is
// rejected at load time.
package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Document types a template may target.
const (
	TypePRD    = "prd"
	TypeSpec   = "spec"
	TypeDesign = "design"
)

var validTypes = map[string]bool{
	TypePRD:    true,
	TypeSpec:   true,
	TypeDesign: true,
}

var (
	validName        = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	validSectionName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	placeholderRef   = regexp.MustCompile(`\{([^{}]*)\}`)
	safePlaceholder  = regexp.MustCompile(`^\{[a-zA-Z_][a-zA-Z0-9_]*\}$`)
)

// ValidationError reports a template that failed structural checks.
type ValidationError struct {
	Template string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("template %q invalid: %s", e.Template, strings.Join(e.Problems, "; "))
}

// Template is one named document template. Sections map section names
// to markdown bodies containing {placeholder} markers.
type Template struct {
	Name         string            `yaml:"name" json:"name"`
	Type         string            `yaml:"type" json:"type"`
	Version      string            `yaml:"version" json:"version"`
	Description  string            `yaml:"description" json:"description"`
	Sections     map[string]string `yaml:"sections" json:"sections"`
	SectionOrder []string          `yaml:"section_order" json:"section_order"`
	Metadata     map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Validate checks naming, typing and placeholder safety.
func (t *Template) Validate() error {
	var problems []string
	if !validName.MatchString(t.Name) {
		problems = append(problems, "name must match [a-zA-Z0-9_.-]+")
	}
	if !validTypes[t.Type] {
		problems = append(problems, fmt.Sprintf("type %q must be one of prd, spec, design", t.Type))
	}
	if len(t.Sections) == 0 {
		problems = append(problems, "at least one section is required")
	}
	for name, body := range t.Sections {
		if !validSectionName.MatchString(name) {
			problems = append(problems, fmt.Sprintf("section name %q must match [a-zA-Z0-9_]+", name))
		}
		for _, ref := range placeholderRef.FindAllString(body, -1) {
			if !safePlaceholder.MatchString(ref) {
				problems = append(problems, fmt.Sprintf("section %q has unsafe placeholder %q", name, ref))
			}
		}
	}
	for _, name := range t.SectionOrder {
		if _, ok := t.Sections[name]; !ok {
			problems = append(problems, fmt.Sprintf("section_order names unknown section %q", name))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Template: t.Name, Problems: problems}
	}
	return nil
}

// OrderedSections returns section names in render order: SectionOrder
// first, then any remaining sections sorted by name.
func (t *Template) OrderedSections() []string {
	seen := make(map[string]bool, len(t.SectionOrder))
	out := make([]string, 0, len(t.Sections))
	for _, name := range t.SectionOrder {
		if _, ok := t.Sections[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range t.Sections {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Placeholders returns the sorted set of placeholder names used across
// all sections.
func (t *Template) Placeholders() []string {
	set := map[string]bool{}
	for _, body := range t.Sections {
		for _, m := range placeholderRef.FindAllStringSubmatch(body, -1) {
			if safePlaceholder.MatchString(m[0]) {
				set[m[1]] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Render substitutes values into the template's placeholders and joins
// the sections in order. Substitution is literal: values are inserted
// as-is and unresolved placeholders are left visible so the gap is
// obvious in the output. No template engine is involved.
func (t *Template) Render(values map[string]string) string {
	var b strings.Builder
	for i, name := range t.OrderedSections() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		body := t.Sections[name]
		body = placeholderRef.ReplaceAllStringFunc(body, func(ref string) string {
			if !safePlaceholder.MatchString(ref) {
				return ref
			}
			key := ref[1 : len(ref)-1]
			if v, ok := values[key]; ok {
				return v
			}
			return ref
		})
		b.WriteString(strings.TrimRight(body, "\n"))
	}
	return b.String() + "\n"
}

// RequiredSections lists the section names a generated document of the
// given type must contain to pass content validation.
func RequiredSections(docType string) []string {
	switch docType {
	case TypePRD:
		return []string{"introduction", "objectives", "user_stories", "acceptance_criteria"}
	case TypeSpec:
		return []string{"overview", "architecture", "components", "interfaces"}
	case TypeDesign:
		return []string{"system_design", "user_interface_design", "data_flow"}
	default:
		return nil
	}
}
