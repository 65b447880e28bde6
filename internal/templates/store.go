package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/quill/internal/seclog"
)

// maxTemplateFileSize caps custom template files before parsing.
const maxTemplateFileSize = 1 << 20

// Store holds the built-in templates plus any custom templates loaded
// from a directory. Lookups are by name; custom templates shadow
// built-ins with the same name.
type Store struct {
	mu        sync.RWMutex
	templates map[string]*Template
	events    *seclog.Log
}

// NewStore returns a store seeded with the built-in templates.
func NewStore(events *seclog.Log) *Store {
	s := &Store{templates: map[string]*Template{}, events: events}
	for _, t := range []*Template{defaultPRD(), defaultSpec(), defaultDesign()} {
		s.templates[t.Name] = t
	}
	return s
}

// LoadDir loads every *.yaml/*.yml template in dir. Invalid templates
// are skipped with a security event; a missing dir loads nothing.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := s.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			s.events.Record(seclog.Event{
				Type:     seclog.EventTemplateRejected,
				Severity: seclog.SeverityWarn,
				Detail: map[string]any{
					"file":  entry.Name(),
					"error": err.Error(),
				},
			})
		}
	}
	return nil
}

func (s *Store) loadFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxTemplateFileSize {
		return fmt.Errorf("template file too large: %d bytes", info.Size())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var t Template
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.templates[t.Name] = &t
	s.mu.Unlock()
	return nil
}

// Get returns the named template, or nil.
func (s *Store) Get(name string) *Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates[name]
}

// ForType returns the first template of the given document type,
// preferring the built-in default.
func (s *Store) ForType(docType string) *Template {
	if t := s.Get("default-" + docType); t != nil {
		return t
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if s.templates[name].Type == docType {
			return s.templates[name]
		}
	}
	return nil
}

// List returns all templates sorted by name.
func (s *Store) List() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Customize derives a new template from an existing one, overriding or
// adding sections. The result is validated before it is stored.
func (s *Store) Customize(baseName, newName string, sections map[string]string, metadata map[string]string) (*Template, error) {
	base := s.Get(baseName)
	if base == nil {
		return nil, fmt.Errorf("unknown base template %q", baseName)
	}

	derived := &Template{
		Name:         newName,
		Type:         base.Type,
		Version:      base.Version,
		Description:  base.Description,
		Sections:     map[string]string{},
		SectionOrder: append([]string(nil), base.SectionOrder...),
		Metadata:     metadata,
	}
	for name, body := range base.Sections {
		derived.Sections[name] = body
	}
	for name, body := range sections {
		if _, exists := derived.Sections[name]; !exists {
			derived.SectionOrder = append(derived.SectionOrder, name)
		}
		derived.Sections[name] = body
	}

	if err := derived.Validate(); err != nil {
		s.events.Record(seclog.Event{
			Type:     seclog.EventTemplateRejected,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"base":  baseName,
				"name":  newName,
				"error": err.Error(),
			},
		})
		return nil, err
	}

	s.mu.Lock()
	s.templates[derived.Name] = derived
	s.mu.Unlock()
	return derived, nil
}
