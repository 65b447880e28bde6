package processors

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// textExtractor handles plain text files. It validates the bytes are
// text at all, then normalizes whitespace.
type textExtractor struct{}

func (textExtractor) Extract(data []byte) (Extraction, error) {
	if !utf8.Valid(data) {
		return Extraction{}, &ExtractionError{Format: FormatText, Reason: "not valid UTF-8"}
	}
	body := string(data)

	structured := map[string]any{
		"line_count": strings.Count(body, "\n") + 1,
	}
	return Extraction{
		Text:       cleanText(body),
		Structured: structured,
	}, nil
}

var (
	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	excessBlank   = regexp.MustCompile(`\n{3,}`)
)

// cleanText normalizes line endings, strips trailing whitespace and
// collapses runs of blank lines. Shared by the text-family extractors.
func cleanText(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	body = trailingSpace.ReplaceAllString(body, "")
	body = excessBlank.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}
