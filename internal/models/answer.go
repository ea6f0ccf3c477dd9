package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Answer holds the respondent's current value for one question. The value is
// polymorphic and discriminated by the question's type: string for text,
// float64/int for numeric and rating variants, bool for boolean, []string
// for multi-select, []FileDescriptor for uploads.
type Answer struct {
	QuestionID uint        `json:"question_id"`
	Value      interface{} `json:"value"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// FileDescriptor describes one uploaded file in a file/image answer.
type FileDescriptor struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// AnswerSet is the latest-answer-per-question view the engines operate on.
// A later answer for the same question supersedes the prior one.
type AnswerSet map[uint]Answer

// NewAnswerSet collapses an answer stream into the latest-answer map,
// preserving last-writer-wins order of the slice.
func NewAnswerSet(answers []Answer) AnswerSet {
	set := make(AnswerSet, len(answers))
	for _, a := range answers {
		set[a.QuestionID] = a
	}
	return set
}

// Get returns the current answer for a question, if any.
func (s AnswerSet) Get(questionID uint) (Answer, bool) {
	a, ok := s[questionID]
	return a, ok
}

// IsEmptyValue reports whether an answer value counts as "no answer":
// nil, empty string, or an empty list.
func IsEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	case []FileDescriptor:
		return len(v) == 0
	}
	return false
}

// NumericValue coerces an answer value to float64. The second return is
// false for non-numeric values.
func NumericValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// StringValues normalizes an answer value to a string slice: multi-select
// answers pass through, scalar strings become a one-element slice.
func StringValues(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}
