package triage

import (
	"bytes"
	"encoding/json"
	"strings"
)

// decision is the exact reply shape the triage prompt demands.
type decision struct {
	Logic    *string `json:"logic"`
	Response *string `json:"response"`
}

// parseDecision extracts the decision object from a raw model reply. Models
// wrap JSON in code fences or prose often enough that we scan for the first
// balanced object, but the object itself is parsed strictly: unknown fields,
// missing fields, and out-of-enum responses are all malformed.
func parseDecision(raw string) (Outcome, string, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return "", "", &MalformedDecisionError{Raw: raw, Reason: "no JSON object in reply"}
	}

	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.DisallowUnknownFields()

	var d decision
	if err := dec.Decode(&d); err != nil {
		return "", "", &MalformedDecisionError{Raw: raw, Reason: "decode: " + err.Error()}
	}
	if d.Logic == nil {
		return "", "", &MalformedDecisionError{Raw: raw, Reason: `missing "logic" field`}
	}
	if d.Response == nil {
		return "", "", &MalformedDecisionError{Raw: raw, Reason: `missing "response" field`}
	}

	outcome := Outcome(strings.ToLower(strings.TrimSpace(*d.Response)))
	if !outcome.Valid() {
		return "", "", &MalformedDecisionError{Raw: raw, Reason: "response " + *d.Response + " is not one of no/email/notify/question"}
	}

	return outcome, *d.Logic, nil
}

// extractJSONObject returns the first balanced top-level JSON object in s.
// Braces inside string literals are skipped.
func extractJSONObject(s string) ([]byte, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
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
				return []byte(s[start : i+1]), true
			}
		}
	}
	return nil, false
}
