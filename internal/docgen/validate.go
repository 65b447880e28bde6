package docgen

import (
	"regexp"
	"strings"

	"github.com/HendryAvila/quill/internal/templates"
)

var headerLine = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// ValidateContent checks a generated document against the structural
// expectations for its type: every required section must appear as a
// markdown header. Returns the list of problems; empty means valid.
func ValidateContent(docType, content string) []string {
	var problems []string

	if strings.TrimSpace(content) == "" {
		return []string{"document is empty"}
	}

	required := templates.RequiredSections(docType)
	if required == nil {
		return []string{"unknown document type: " + docType}
	}

	headers := map[string]bool{}
	for _, m := range headerLine.FindAllStringSubmatch(content, -1) {
		headers[normalizeHeader(m[1])] = true
	}
	if len(headers) == 0 {
		problems = append(problems, "document has no markdown headers")
	}

	for _, section := range required {
		if !headers[section] {
			problems = append(problems, "missing required section: "+strings.ReplaceAll(section, "_", " "))
		}
	}
	return problems
}

// normalizeHeader maps a header title to section-name form: lowercase
// with underscores, punctuation dropped.
func normalizeHeader(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}
