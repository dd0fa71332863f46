package oracle

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)```")

// BestEffortJSON pulls the first parseable JSON object or array out of free
// text. Fallback order is fixed: a fenced code block, a narrow pattern
// around the expected top-level key, then the outermost balanced braces.
// Returns false when no strategy yields valid JSON.
func BestEffortJSON(text, key string) (json.RawMessage, bool) {
	// (a) fenced code block
	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if isJSONValue(candidate) {
			return json.RawMessage(candidate), true
		}
	}

	// (b) narrow pattern around the expected top-level key
	if key != "" {
		keyRe := regexp.MustCompile(`(?s)\{\s*"` + regexp.QuoteMeta(key) + `"\s*:.*\}`)
		if m := keyRe.FindString(text); m != "" && isJSONValue(m) {
			return json.RawMessage(m), true
		}
	}

	// (c) outermost balanced {...} or [...]
	if candidate, ok := balancedSlice(text); ok && isJSONValue(candidate) {
		return json.RawMessage(candidate), true
	}

	return nil, false
}

func isJSONValue(s string) bool {
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return false
	}
	return json.Valid([]byte(s))
}

// balancedSlice returns the first balanced top-level {...} or [...]
// substring, tracking string literals and escapes so braces inside quoted
// text do not confuse the depth count.
func balancedSlice(text string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if text[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == open:
			depth++
		case !inString && c == close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
