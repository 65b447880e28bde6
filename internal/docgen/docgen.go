// Package docgen turns templates plus analyzed reference material into
// generated documents: PRDs, technical specifications and design
// documents. Everything user-supplied passes through the sanitizer
// before it reaches a template; analysis content arrives already
// sanitized and is embedded verbatim.
package docgen

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/sanitize"
	"github.com/HendryAvila/quill/internal/templates"
)

// GenerateRequest describes one document generation call.
type GenerateRequest struct {
	Type         string            // prd, spec or design
	ProjectName  string
	Description  string
	TemplateName string            // empty picks the default for Type
	Values       map[string]string // extra placeholder values
	Analysis     *analyzer.AnalysisResult
}

// Document is a generated artifact, not yet persisted.
type Document struct {
	Type              string
	Template          string
	Content           string
	SuggestedFilename string
	References        []string // paths of analyzed files embedded
	GeneratedAt       time.Time
}

// Stats counts generation activity for one server lifetime.
type Stats struct {
	Generated     map[string]int `json:"generated_by_type"`
	AnalysisRuns  int            `json:"analysis_runs"`
	LastGenerated string         `json:"last_generated,omitempty"`
}

// Service coordinates template lookup, input sanitization and content
// assembly.
type Service struct {
	store     *templates.Store
	sanitizer *sanitize.Sanitizer

	mu    sync.Mutex
	stats Stats
	now   func() time.Time
}

// NewService wires a generation service.
func NewService(store *templates.Store, sanitizer *sanitize.Sanitizer) *Service {
	return &Service{
		store:     store,
		sanitizer: sanitizer,
		stats:     Stats{Generated: map[string]int{}},
		now:       time.Now,
	}
}

// Generate renders a document of the requested type. User-supplied
// values are sanitized individually; a hard injection match in any of
// them fails the whole request.
func (s *Service) Generate(req GenerateRequest) (*Document, error) {
	tpl, err := s.pickTemplate(req)
	if err != nil {
		return nil, err
	}

	name, err := s.cleanValue(req.ProjectName, "arg:project_name")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("project name is required")
	}
	desc, err := s.cleanValue(req.Description, "arg:description")
	if err != nil {
		return nil, err
	}

	values := map[string]string{
		"project_name":  name,
		"introduction":  desc,
		"overview":      desc,
		"system_design": desc,
	}
	keys := make([]string, 0, len(req.Values))
	for k := range req.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, verr := s.cleanValue(req.Values[k], "arg:"+k)
		if verr != nil {
			return nil, verr
		}
		values[k] = v
	}

	content := tpl.Render(values)

	var refs []string
	if req.Analysis != nil && req.Analysis.TotalAccepted > 0 {
		section, paths := referenceSection(req.Analysis)
		content += "\n" + section
		refs = paths
	}

	doc := &Document{
		Type:              tpl.Type,
		Template:          tpl.Name,
		Content:           content,
		SuggestedFilename: suggestFilename(name, tpl.Type),
		References:        refs,
		GeneratedAt:       s.now(),
	}

	s.mu.Lock()
	s.stats.Generated[tpl.Type]++
	s.stats.LastGenerated = doc.GeneratedAt.UTC().Format(time.RFC3339)
	s.mu.Unlock()

	return doc, nil
}

// RecordAnalysis bumps the analysis-run counter for statistics.
func (s *Service) RecordAnalysis() {
	s.mu.Lock()
	s.stats.AnalysisRuns++
	s.mu.Unlock()
}

// Statistics returns a copy of the current counters.
func (s *Service) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		Generated:     make(map[string]int, len(s.stats.Generated)),
		AnalysisRuns:  s.stats.AnalysisRuns,
		LastGenerated: s.stats.LastGenerated,
	}
	for k, v := range s.stats.Generated {
		out.Generated[k] = v
	}
	return out
}

func (s *Service) pickTemplate(req GenerateRequest) (*templates.Template, error) {
	if req.TemplateName != "" {
		tpl := s.store.Get(req.TemplateName)
		if tpl == nil {
			return nil, fmt.Errorf("unknown template %q", req.TemplateName)
		}
		if req.Type != "" && tpl.Type != req.Type {
			return nil, fmt.Errorf("template %q produces %s documents, not %s", req.TemplateName, tpl.Type, req.Type)
		}
		return tpl, nil
	}
	tpl := s.store.ForType(req.Type)
	if tpl == nil {
		return nil, fmt.Errorf("no template for document type %q", req.Type)
	}
	return tpl, nil
}

func (s *Service) cleanValue(v, context string) (string, error) {
	if v == "" {
		return "", nil
	}
	res, err := s.sanitizer.Sanitize(v, context)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// referenceSection renders the analyzed material as an appendix. The
// content is already sanitized; it is embedded verbatim, no second
// escaping pass.
func referenceSection(res *analyzer.AnalysisResult) (string, []string) {
	var b strings.Builder
	var paths []string
	b.WriteString("## Reference Material\n")
	for _, cat := range res.Categories {
		fmt.Fprintf(&b, "\n### %s\n", cat.Name)
		for _, f := range cat.Files {
			paths = append(paths, f.Path)
			fmt.Fprintf(&b, "\n#### %s\n\n", f.Path)
			if f.Text == "" {
				b.WriteString("(no extractable text)\n")
				continue
			}
			b.WriteString(f.Text)
			b.WriteString("\n")
		}
	}
	return b.String(), paths
}

// suggestFilename derives a filesystem-safe name for the document.
func suggestFilename(project, docType string) string {
	slug := strings.ToLower(project)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if slug == "" {
		slug = "document"
	}
	return fmt.Sprintf("%s-%s.md", slug, docType)
}
