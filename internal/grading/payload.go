package grading

import (
	"encoding/json"
	"strings"

	"github.com/mind-engage/triangle-practice/internal/catalog"
)

// scalar decodes a JSON string payload, falling back to the raw bytes.
func scalar(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return string(payload)
}

// checkedSet accepts either {"A":true,"B":false} or ["A","C"].
func checkedSet(payload json.RawMessage) (map[string]bool, bool) {
	var m map[string]bool
	if err := json.Unmarshal(payload, &m); err == nil {
		return m, true
	}
	var ids []string
	if err := json.Unmarshal(payload, &ids); err == nil {
		m = make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		return m, true
	}
	return nil, false
}

func blankValues(payload json.RawMessage) (map[string]string, bool) {
	var m map[string]string
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, false
	}
	return m, true
}

func hasOption(q catalog.Question, id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func trim(s string) string { return strings.TrimSpace(s) }

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}

// Answered reports whether the payload holds anything the student filled in.
// Empty strings, all-unchecked option maps and blank-only fills do not count.
func Answered(q catalog.Question, payload json.RawMessage) bool {
	if len(payload) == 0 || string(payload) == "null" {
		return false
	}
	switch q.Type {
	case catalog.MultiSelect:
		m, ok := checkedSet(payload)
		if !ok {
			return false
		}
		for _, on := range m {
			if on {
				return true
			}
		}
		return false
	case catalog.TrueFalseMatrix, catalog.FillInBlank, catalog.FillInSentence:
		m, ok := blankValues(payload)
		if !ok {
			return false
		}
		for _, v := range m {
			if trim(v) != "" {
				return true
			}
		}
		return false
	default:
		return trim(scalar(payload)) != ""
	}
}
