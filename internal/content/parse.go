package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var errNoObject = errors.New("no JSON object found in response")

const fence = "```"

// ParseContent turns raw model output into a validated Content. Code fences
// and prose around the JSON object are tolerated. Any failure is returned as
// a *GenerationParseError carrying raw.
func ParseContent(raw string) (*Content, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return nil, &GenerationParseError{Raw: raw, Err: err}
	}
	normalizeContent(obj)

	if err := ContentSchema.validate(obj); err != nil {
		return nil, &GenerationParseError{Raw: raw, Err: err}
	}

	var c Content
	if err := remarshal(obj, &c); err != nil {
		return nil, &GenerationParseError{Raw: raw, Err: err}
	}
	return &c, nil
}

// ParseVerdict turns raw model output into a validated Verdict. A missing or
// null feedback list decodes as empty. Any failure is returned as a
// *ReviewParseError carrying raw.
func ParseVerdict(raw string) (*Verdict, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return nil, &ReviewParseError{Raw: raw, Err: err}
	}
	normalizeVerdict(obj)

	if err := VerdictSchema.validate(obj); err != nil {
		return nil, &ReviewParseError{Raw: raw, Err: err}
	}

	var v Verdict
	if err := remarshal(obj, &v); err != nil {
		return nil, &ReviewParseError{Raw: raw, Err: err}
	}
	if v.Feedback == nil {
		v.Feedback = []string{}
	}
	return &v, nil
}

// extractObject strips an outer code fence, locates the first balanced
// {...} span and decodes it. A span that does not decode, or never closes,
// gets one pass through jsonrepair before giving up. Fences inside string
// values are content and stay as they are.
func extractObject(raw string) (map[string]any, error) {
	text := stripFence(raw)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, errNoObject
	}

	candidate, balanced := balancedSpan(text[start:])
	if balanced {
		if obj, err := decodeObject(candidate); err == nil {
			return obj, nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	obj, err := decodeObject(repaired)
	if err != nil {
		return nil, fmt.Errorf("malformed JSON after repair: %w", err)
	}
	return obj, nil
}

// stripFence removes a leading fence line (with its optional language tag)
// and a trailing fence from the trimmed text.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, fence) {
		text = strings.TrimPrefix(text, fence)
		if i := strings.IndexAny(text, "\n{"); i >= 0 {
			if text[i] == '\n' {
				i++
			}
			text = text[i:]
		} else {
			text = ""
		}
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, fence))
}

// balancedSpan returns the prefix of s (which starts with '{') up to the
// matching close brace, ignoring braces inside string literals. If the
// braces never balance it returns all of s and false.
func balancedSpan(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return s, false
}

func decodeObject(s string) (map[string]any, error) {
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

func remarshal(obj map[string]any, dst any) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("re-encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// normalizeContent canonicalises answer letters ("b", "B.", "(B)",
// "B. Sunlight") before validation.
func normalizeContent(obj map[string]any) {
	mcqs, ok := obj["mcqs"].([]any)
	if !ok {
		return
	}
	for _, item := range mcqs {
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if a, ok := q["answer"].(string); ok {
			q["answer"] = normalizeAnswer(a)
		}
	}
}

func normalizeAnswer(a string) string {
	a = strings.ToUpper(strings.TrimSpace(a))
	a = strings.TrimPrefix(a, "(")
	if len(a) > 1 && strings.ContainsRune(".): ", rune(a[1])) {
		a = a[:1]
	}
	return a
}

// normalizeVerdict lower-cases the status and coerces feedback into a list
// of non-blank strings.
func normalizeVerdict(obj map[string]any) {
	if s, ok := obj["status"].(string); ok {
		obj["status"] = strings.ToLower(strings.TrimSpace(s))
	}

	switch fb := obj["feedback"].(type) {
	case nil:
		delete(obj, "feedback")
	case string:
		if strings.TrimSpace(fb) == "" {
			obj["feedback"] = []any{}
		} else {
			obj["feedback"] = []any{strings.TrimSpace(fb)}
		}
	case []any:
		kept := make([]any, 0, len(fb))
		for _, item := range fb {
			s, ok := item.(string)
			if !ok {
				kept = append(kept, item)
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				kept = append(kept, s)
			}
		}
		obj["feedback"] = kept
	}
}
