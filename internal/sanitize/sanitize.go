// Package sanitize neutralizes injection vectors in text before it is
// embedded in generated documents or prompts.
//
// The policy has two tiers. Template-engine payloads and command
// substitution are rejected outright: there is no safe rendering of
// {{__import__('os')}}. Markup vectors (script tags, javascript: URIs,
// inline event handlers) are escaped in place so the surrounding prose
// survives; each neutralization is recorded as a security event.
// Sanitization is idempotent: running it on its own output changes
// nothing.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/HendryAvila/quill/internal/seclog"
)

// InjectionError reports content rejected outright. The offending
// content is never echoed back; it goes to the security log instead.
type InjectionError struct {
	Pattern string // which rule matched, e.g. "template_interpolation"
	Context string // where the content came from, e.g. "file:docs/a.md"
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("content rejected: %s pattern detected", e.Pattern)
}

// TooLongError reports input exceeding the configured length cap.
type TooLongError struct {
	Length int
	Limit  int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("content too long: %d bytes exceeds limit of %d", e.Length, e.Limit)
}

// Result is the outcome of a successful sanitization pass.
type Result struct {
	Text      string
	Anomalies []string // heuristic warnings, never fatal
	Modified  bool     // true when any escaping rewrote the input
}

// denyRule is a pattern whose presence rejects the input entirely.
type denyRule struct {
	name string
	re   *regexp.Regexp
}

var denyRules = []denyRule{
	// Template interpolation carrying dangerous identifiers. Plain
	// {placeholder} substitution markers are fine; {{...}} with code-ish
	// content is not.
	{"template_interpolation", regexp.MustCompile(`(?i)\{\{[^}]*(?:__|import|exec|eval|subprocess|os\.|open\s*\()[^}]*\}\}`)},
	// Template statement blocks that pull in modules.
	{"template_statement", regexp.MustCompile(`(?i)\{%[^%]*(?:import|load)[^%]*%\}`)},
	// Command substitution is only fatal when it carries a command that
	// could do damage; bare $(...) and backtick spans are everywhere in
	// legitimate shell documentation.
	{"command_substitution", regexp.MustCompile("(?i)[$]\\(\\s*(?:rm|curl|wget|nc|sh|bash|python|perl|eval|chmod|chown)\\b[^)]*\\)|`\\s*(?:rm|curl|wget|nc|sh|bash|python|perl|eval|chmod|chown)\\b[^`]*`")},
	{"data_uri_html", regexp.MustCompile(`(?i)data:text/html`)},
}

// escapeRule rewrites a markup vector without dropping surrounding text.
type escapeRule struct {
	name string
	re   *regexp.Regexp
	repl string
}

var escapeRules = []escapeRule{
	{"script_tag_open", regexp.MustCompile(`(?i)<script\b`), "&lt;script"},
	{"script_tag_close", regexp.MustCompile(`(?i)</script>`), "&lt;/script&gt;"},
	{"iframe_tag", regexp.MustCompile(`(?i)<iframe\b`), "&lt;iframe"},
	{"object_tag", regexp.MustCompile(`(?i)<object\b`), "&lt;object"},
	{"embed_tag", regexp.MustCompile(`(?i)<embed\b`), "&lt;embed"},
	{"javascript_uri", regexp.MustCompile(`(?i)javascript:`), "javascript-blocked:"},
	{"vbscript_uri", regexp.MustCompile(`(?i)vbscript:`), "vbscript-blocked:"},
}

// eventHandler matches inline handler attributes like onclick= or onload=.
// The equals sign is escaped so the attribute can no longer bind.
var eventHandler = regexp.MustCompile(`(?i)\bon(abort|blur|change|click|dblclick|error|focus|input|keydown|keypress|keyup|load|mousedown|mousemove|mouseout|mouseover|mouseup|reset|resize|scroll|select|submit|unload)\s*=`)

// controlChars strips non-printable bytes, keeping tab, LF and CR.
var controlChars = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")

// Sanitizer applies the neutralization policy with a configured length cap.
type Sanitizer struct {
	maxLen int
	events *seclog.Log
}

// New creates a Sanitizer. maxLen <= 0 falls back to 50000 bytes.
func New(maxLen int, events *seclog.Log) *Sanitizer {
	if maxLen <= 0 {
		maxLen = 50000
	}
	return &Sanitizer{maxLen: maxLen, events: events}
}

// MaxLen returns the configured input length cap in bytes.
func (s *Sanitizer) MaxLen() int { return s.maxLen }

// Sanitize validates and neutralizes text. context identifies the source
// for security events (e.g. "file:docs/a.md", "arg:project_name"). Errors
// are *TooLongError or *InjectionError; both leave the pipeline's view of
// the content empty.
func (s *Sanitizer) Sanitize(text, context string) (Result, error) {
	if len(text) > s.maxLen {
		s.events.Record(seclog.Event{
			Type:     seclog.EventResourceLimit,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"limit":   "max_input_length",
				"length":  len(text),
				"maximum": s.maxLen,
				"context": context,
			},
		})
		return Result{}, &TooLongError{Length: len(text), Limit: s.maxLen}
	}

	for _, rule := range denyRules {
		if rule.re.MatchString(text) {
			s.events.Record(seclog.Event{
				Type:     seclog.EventInjectionDetected,
				Severity: seclog.SeverityError,
				Detail: map[string]any{
					"pattern":    rule.name,
					"action":     "rejected",
					"context":    context,
					"user_input": excerpt(text, 200),
				},
			})
			return Result{}, &InjectionError{Pattern: rule.name, Context: context}
		}
	}

	out := controlChars.ReplaceAllString(text, "")
	var neutralized []string
	for _, rule := range escapeRules {
		if rule.re.MatchString(out) {
			out = rule.re.ReplaceAllString(out, rule.repl)
			neutralized = append(neutralized, rule.name)
		}
	}
	if eventHandler.MatchString(out) {
		out = eventHandler.ReplaceAllString(out, "on$1&#61;")
		neutralized = append(neutralized, "event_handler")
	}

	for _, name := range neutralized {
		s.events.Record(seclog.Event{
			Type:     seclog.EventInjectionDetected,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"pattern": name,
				"action":  "escaped",
				"context": context,
			},
		})
	}

	anomalies := detectAnomalies(out)
	if len(anomalies) > 0 {
		s.events.Record(seclog.Event{
			Type:     seclog.EventContentAnomaly,
			Severity: seclog.SeverityWarn,
			Detail: map[string]any{
				"anomalies": anomalies,
				"context":   context,
			},
		})
	}

	return Result{
		Text:      out,
		Anomalies: anomalies,
		Modified:  out != text,
	}, nil
}

// detectAnomalies flags statistical oddities that suggest obfuscated or
// machine-generated payloads. Anomalies never reject content; they raise
// the event severity and travel with the result as warnings.
func detectAnomalies(text string) []string {
	var anomalies []string

	if len(text) > 1000 {
		for _, window := range []int{10, 50, 100} {
			if window*3 > len(text) {
				break
			}
			probe := text[:window]
			if strings.Count(text, probe) > len(text)/(window*2) {
				anomalies = append(anomalies, "excessive_repetition")
				break
			}
		}
	}

	if len(text) > 100 {
		nonPrintable := 0
		for _, r := range text {
			if !unicode.IsPrint(r) && r != '\n' && r != '\t' && r != '\r' {
				nonPrintable++
			}
		}
		if float64(nonPrintable)/float64(len(text)) > 0.1 {
			anomalies = append(anomalies, "high_non_printable_ratio")
		}
	}

	if strings.Contains(text, `\x`) || strings.Contains(text, `\u`) {
		anomalies = append(anomalies, "escape_sequence_literals")
	}

	for _, line := range strings.Split(text, "\n") {
		if len(line) > 10000 {
			anomalies = append(anomalies, "oversized_line")
			break
		}
	}

	return anomalies
}

// excerpt returns the first n bytes of s, for event detail only.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
