package research

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonFenceRe    = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ExtractStructured pulls a JSON object out of semi-structured model output.
// Tried in order, first success wins: a ```json fenced block, a generic
// fenced block whose body is a JSON object, then the smallest balanced
// {...} substring containing expectedKey. Returns false when no candidate
// parses; it never fails harder than that.
func ExtractStructured(text, expectedKey string) (map[string]json.RawMessage, bool) {
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		if doc, ok := parseObject(m[1]); ok {
			return doc, true
		}
	}

	if m := genericFenceRe.FindStringSubmatch(text); m != nil {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
			if doc, ok := parseObject(body); ok {
				return doc, true
			}
		}
	}

	if candidate := smallestObjectContaining(text, expectedKey); candidate != "" {
		if doc, ok := parseObject(candidate); ok {
			return doc, true
		}
	}

	return nil, false
}

// ExtractStringList decodes a string array under key from model output.
func ExtractStringList(text, key string) ([]string, bool) {
	doc, ok := ExtractStructured(text, key)
	if !ok {
		return nil, false
	}
	raw, ok := doc[key]
	if !ok {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// decodeStringList decodes raw into a string slice, tolerating absence and
// malformed values.
func decodeStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func parseObject(s string) (map[string]json.RawMessage, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// smallestObjectContaining scans for balanced {...} substrings and returns
// the shortest one that mentions the quoted key. Balanced-brace scanning
// keeps this robust against prose surrounding the object.
func smallestObjectContaining(text, key string) string {
	quoted := `"` + key + `"`
	best := ""
	var stack []int
	for i, ch := range text {
		switch ch {
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			candidate := text[start : i+1]
			if !strings.Contains(candidate, quoted) {
				continue
			}
			if best == "" || len(candidate) < len(best) {
				if json.Valid([]byte(candidate)) {
					best = candidate
				}
			}
		}
	}
	return best
}
