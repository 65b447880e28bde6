package processors

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// jsonExtractor and yamlExtractor share the same shape: parse the
// document, keep the decoded structure, and render a readable text
// walk of it for prompt embedding.

type jsonExtractor struct{}

func (jsonExtractor) Extract(data []byte) (Extraction, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Extraction{}, &ExtractionError{Format: FormatJSON, Reason: "invalid JSON"}
	}
	return dataExtraction(doc), nil
}

type yamlExtractor struct{}

func (yamlExtractor) Extract(data []byte) (Extraction, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Extraction{}, &ExtractionError{Format: FormatYAML, Reason: "invalid YAML"}
	}
	return dataExtraction(doc), nil
}

func dataExtraction(doc any) Extraction {
	structured := map[string]any{}
	switch v := doc.(type) {
	case map[string]any:
		structured = v
	default:
		structured["document"] = v
	}

	var b strings.Builder
	writeReadable(&b, doc, 0)
	return Extraction{
		Text:       strings.TrimRight(b.String(), "\n"),
		Structured: structured,
	}
}

// Rendering bounds: deep or huge documents are summarized, not dumped.
const (
	maxRenderDepth = 10
	maxValueRunes  = 200
)

// writeReadable renders a decoded document as indented key/value text.
// Map keys are sorted so repeated runs produce identical output.
func writeReadable(b *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	if depth > maxRenderDepth {
		fmt.Fprintf(b, "%s...\n", indent)
		return
	}
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch child := val[k].(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s%s:\n", indent, k)
				writeReadable(b, child, depth+1)
			default:
				fmt.Fprintf(b, "%s%s: %s\n", indent, k, scalarText(child))
			}
		}
	case []any:
		for _, item := range val {
			switch child := item.(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s-\n", indent)
				writeReadable(b, child, depth+1)
			default:
				fmt.Fprintf(b, "%s- %s\n", indent, scalarText(child))
			}
		}
	default:
		fmt.Fprintf(b, "%s%s\n", indent, scalarText(val))
	}
}

func scalarText(v any) string {
	s := fmt.Sprintf("%v", v)
	runes := []rune(s)
	if len(runes) > maxValueRunes {
		return string(runes[:maxValueRunes]) + "..."
	}
	return s
}
