package seclog

import (
	"fmt"
	"regexp"
)

// Marker replaces any sensitive value before an event is sinked.
const Marker = "[REDACTED]"

// maxRedactDepth bounds recursion into nested detail values.
const maxRedactDepth = 5

// maxDetailString bounds how much of a string value is kept in an event.
const maxDetailString = 1000

// sensitiveKeys matches detail keys whose values must never be logged.
var sensitiveKeys = regexp.MustCompile(`(?i)(password|passwd|token|secret|credential|api[_-]?key|private[_-]?key|auth)`)

// sensitiveValues matches credential-shaped values regardless of key name.
var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/=-]+`),
	regexp.MustCompile(`(?i)(password|token|secret|api[_-]?key)["']?\s*[:=]\s*["']?\S+`),
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`),
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// sensitivePathSegment matches filesystem paths that embed secret-ish names.
var sensitivePathSegment = regexp.MustCompile(`(?i)(password|secret|key|token|credential)`)

// redactDetail returns a deep copy of detail with sensitive keys and
// credential-shaped values replaced by Marker. The input is never mutated.
func redactDetail(detail map[string]any) map[string]any {
	if detail == nil {
		return nil
	}
	out := make(map[string]any, len(detail))
	for k, v := range detail {
		key := k
		if len(key) > 100 {
			key = key[:100]
		}
		if sensitiveKeys.MatchString(key) {
			out[key] = Marker
			continue
		}
		out[key] = redactValue(v, 0)
	}
	return out
}

func redactValue(v any, depth int) any {
	if depth > maxRedactDepth {
		return "[max depth exceeded]"
	}
	switch val := v.(type) {
	case map[string]any:
		nested := make(map[string]any, len(val))
		for k, nv := range val {
			if sensitiveKeys.MatchString(k) {
				nested[k] = Marker
				continue
			}
			nested[k] = redactValue(nv, depth+1)
		}
		return nested
	case []any:
		limit := len(val)
		if limit > 100 {
			limit = 100
		}
		items := make([]any, 0, limit)
		for _, item := range val[:limit] {
			items = append(items, redactValue(item, depth+1))
		}
		return items
	case []string:
		items := make([]any, 0, len(val))
		for _, item := range val {
			items = append(items, redactValue(item, depth+1))
		}
		return items
	case string:
		return redactString(val)
	case int, int64, float64, bool, nil:
		return val
	default:
		return redactString(fmt.Sprintf("%v", val))
	}
}

// redactString replaces credential-shaped substrings and truncates the
// result to a loggable length.
func redactString(s string) string {
	for _, re := range sensitiveValues {
		s = re.ReplaceAllString(s, Marker)
	}
	if len(s) > maxDetailString {
		s = s[:maxDetailString] + "…"
	}
	return s
}

// RedactPath redacts a filesystem path when any of its segments look
// sensitive; otherwise returns the path unchanged. Used by components
// that must log an attempted path without leaking what it pointed at.
func RedactPath(p string) string {
	if sensitivePathSegment.MatchString(p) {
		return Marker
	}
	if len(p) > 500 {
		return p[:500] + "…"
	}
	return p
}

