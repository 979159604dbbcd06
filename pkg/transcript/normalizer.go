// Package transcript flattens voice-agent transcript turns into a single
// text blob for grading.
package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	separator   = "\n\n"
	unknownRole = "Unknown"
)

// Turn is one speaker turn as returned by the voice-agent service.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// NormalizeTurns renders each turn as "<Role>: <text>" joined by a blank
// line. Blank lines inside a turn are collapsed so segment count always
// equals turn count.
func NormalizeTurns(turns []Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, render(t.Role, t.Text))
	}
	return strings.Join(parts, separator)
}

// Normalize accepts an undecoded upstream payload. Anything that is not a
// list yields "".
func Normalize(raw any) string {
	switch v := raw.(type) {
	case []Turn:
		return NormalizeTurns(v)
	case []map[string]any:
		parts := make([]string, 0, len(v))
		for _, m := range v {
			parts = append(parts, renderMap(m))
		}
		return strings.Join(parts, separator)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			m, _ := item.(map[string]any)
			parts = append(parts, renderMap(m))
		}
		return strings.Join(parts, separator)
	default:
		return ""
	}
}

// CountTurns counts the turns in a normalized blob.
func CountTurns(blob string) int {
	if blob == "" {
		return 0
	}
	return strings.Count(blob, separator) + 1
}

func renderMap(m map[string]any) string {
	role := stringField(m, "role")
	text := stringField(m, "text")
	if text == "" {
		text = stringField(m, "message")
	}
	return render(role, text)
}

func render(role, text string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		role = unknownRole
	} else {
		first, size := utf8.DecodeRuneInString(role)
		role = string(unicode.ToUpper(first)) + strings.ToLower(role[size:])
	}
	text = blankLines.ReplaceAllString(strings.TrimSpace(text), "\n")
	return fmt.Sprintf("%s: %s", role, text)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
