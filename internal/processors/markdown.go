package processors

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// markdownExtractor pulls readable text and document structure out of
// markdown. YAML frontmatter, headers, links and fenced code blocks are
// surfaced in Structured so downstream prompts can reference them.
type markdownExtractor struct{}

var (
	mdHeader    = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	mdLink      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	mdCodeFence = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")
)

func (markdownExtractor) Extract(data []byte) (Extraction, error) {
	body := string(data)
	structured := map[string]any{}
	var warnings []string

	body, front, ok := splitFrontmatter(body)
	if ok {
		var meta map[string]any
		if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
			warnings = append(warnings, "frontmatter is not valid YAML, ignored")
		} else if len(meta) > 0 {
			structured["frontmatter"] = meta
		}
	}

	var headers []map[string]any
	for _, m := range mdHeader.FindAllStringSubmatch(body, -1) {
		headers = append(headers, map[string]any{
			"level": len(m[1]),
			"text":  strings.TrimSpace(m[2]),
		})
	}
	if len(headers) > 0 {
		structured["headers"] = headers
	}

	var links []map[string]any
	for _, m := range mdLink.FindAllStringSubmatch(body, -1) {
		links = append(links, map[string]any{
			"text":   m[1],
			"target": m[2],
		})
	}
	if len(links) > 0 {
		structured["links"] = links
	}

	var blocks []map[string]any
	for _, m := range mdCodeFence.FindAllStringSubmatch(body, -1) {
		blocks = append(blocks, map[string]any{
			"language": m[1],
			"lines":    strings.Count(m[2], "\n"),
		})
	}
	if len(blocks) > 0 {
		structured["code_blocks"] = blocks
	}

	return Extraction{
		Text:       cleanText(body),
		Structured: structured,
		Warnings:   warnings,
	}, nil
}

// splitFrontmatter removes a leading YAML frontmatter block, returning
// the remaining body, the frontmatter text, and whether one was found.
func splitFrontmatter(body string) (rest, front string, ok bool) {
	if !strings.HasPrefix(body, "---\n") && !strings.HasPrefix(body, "---\r\n") {
		return body, "", false
	}
	inner := body[strings.Index(body, "\n")+1:]
	end := strings.Index(inner, "\n---")
	if end < 0 {
		return body, "", false
	}
	front = inner[:end]
	rest = inner[end+len("\n---"):]
	rest = strings.TrimPrefix(strings.TrimPrefix(rest, "\r"), "\n")
	return rest, front, true
}
