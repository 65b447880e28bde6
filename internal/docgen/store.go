package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// validFilename restricts saved document names to a safe charset.
var validFilename = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*\.md$`)

// Store persists generated documents under one output directory.
type Store struct {
	dir string
}

// NewStore creates the output directory if needed.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the resolved output directory.
func (s *Store) Dir() string { return s.dir }

// Save writes content under filename inside the output directory,
// never overwriting: on collision a -2, -3, ... suffix is inserted
// before the extension. Returns the path actually written.
func (s *Store) Save(filename, content string) (string, error) {
	if !validFilename.MatchString(filename) {
		return "", fmt.Errorf("invalid document filename %q: use letters, digits, '-', '_' and a .md extension", filename)
	}

	target := filepath.Join(s.dir, filename)
	base := strings.TrimSuffix(filename, ".md")
	for n := 2; ; n++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		} else if err != nil {
			return "", fmt.Errorf("checking output path: %w", err)
		}
		if n > 1000 {
			return "", fmt.Errorf("too many documents named %q", filename)
		}
		target = filepath.Join(s.dir, fmt.Sprintf("%s-%d.md", base, n))
	}

	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}
	return target, nil
}

// List returns the saved document filenames, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
