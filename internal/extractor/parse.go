package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

const parseOp = "extractor.parse"

// StripCodeFence removes a Markdown code fence (with or without a language
// tag) wrapped around a model response.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeftFunc(s, isTagRune)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isTagRune matches the characters of a fence language tag such as "json".
func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// ParseResponse decodes a model response into a Result. Every one of the six
// fields must be present and well formed; otherwise nothing is returned and
// the error carries the raw response.
func ParseResponse(raw string) (*Result, error) {
	cleaned := StripCodeFence(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fault.Wrap(fault.KindContractViolation, parseOp, err, "failed to parse AI response").
			WithDetail(raw)
	}
	if obj == nil {
		return nil, violation(raw, "response is not a JSON object")
	}

	var result Result
	for _, name := range FieldNames {
		fieldRaw, ok := obj[name]
		if !ok {
			return nil, violation(raw, "missing field %q", name)
		}
		f, err := parseField(fieldRaw)
		if err != nil {
			return nil, violation(raw, "field %q: %v", name, err)
		}
		result.set(name, f)
	}
	return &result, nil
}

func parseField(raw json.RawMessage) (Field, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Field{}, fmt.Errorf("not an object")
	}

	valueRaw, ok := obj["value"]
	if !ok {
		return Field{}, fmt.Errorf("missing value")
	}
	var f Field
	switch trimmed := bytes.TrimSpace(valueRaw); {
	case bytes.Equal(trimmed, []byte("null")):
	case len(trimmed) > 0 && trimmed[0] == '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return Field{}, fmt.Errorf("value: %w", err)
		}
		f.Value = &v
	default:
		return Field{}, fmt.Errorf("value must be a string or null")
	}

	confRaw, ok := obj["confidence"]
	if !ok {
		return Field{}, fmt.Errorf("missing confidence")
	}
	var conf *float64
	if err := json.Unmarshal(confRaw, &conf); err != nil || conf == nil {
		return Field{}, fmt.Errorf("confidence must be a number")
	}
	f.Confidence = *conf
	if f.Confidence < 0 || f.Confidence > 1 {
		return Field{}, fmt.Errorf("confidence %v outside [0, 1]", f.Confidence)
	}
	return f, nil
}

func violation(raw, format string, args ...any) *fault.Error {
	return fault.New(fault.KindContractViolation, parseOp, "AI response does not match the extraction contract: "+format, args...).
		WithDetail(raw)
}
