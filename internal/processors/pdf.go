package processors

import (
	"bytes"
	"regexp"
	"strings"
)

// pdfExtractor does a shallow scan of a PDF: it validates the header,
// refuses encrypted documents, counts pages, and pulls visible text
// from uncompressed content streams. Compressed streams are skipped
// with a warning rather than decoded.
type pdfExtractor struct{}

var (
	pdfPageObj  = regexp.MustCompile(`/Type\s*/Page\b[^s]`)
	pdfTextShow = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)
	pdfTextOps  = regexp.MustCompile(`(?s)BT(.*?)ET`)
)

func (pdfExtractor) Extract(data []byte) (Extraction, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Extraction{}, &ExtractionError{Format: FormatPDF, Reason: "missing PDF header"}
	}
	if bytes.Contains(data, []byte("/Encrypt")) {
		return Extraction{}, &ExtractionError{Format: FormatPDF, Reason: "document is encrypted"}
	}

	pages := len(pdfPageObj.FindAll(data, -1))

	var parts []string
	for _, block := range pdfTextOps.FindAllSubmatch(data, -1) {
		for _, show := range pdfTextShow.FindAllSubmatch(block[1], -1) {
			if s := decodePDFString(string(show[1])); s != "" {
				parts = append(parts, s)
			}
		}
	}

	var warnings []string
	if bytes.Contains(data, []byte("/FlateDecode")) {
		warnings = append(warnings, "compressed content streams were not decoded")
	}

	text := cleanText(strings.Join(parts, "\n"))
	if text == "" {
		return Extraction{}, &ExtractionError{Format: FormatPDF, Reason: "no extractable text layer"}
	}

	return Extraction{
		Text: text,
		Structured: map[string]any{
			"page_count": pages,
		},
		Warnings: warnings,
	}, nil
}

// decodePDFString resolves the escape sequences allowed inside PDF
// literal strings.
func decodePDFString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '(', ')', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte(s[i])
		}
	}
	return strings.TrimSpace(b.String())
}
