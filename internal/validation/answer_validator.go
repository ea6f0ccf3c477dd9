// Package validation checks a single answer against one question's
// configured constraint rules. All checks are pure and synchronous.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vantagecare/questionnaire-service/internal/models"
)

// RequiredFieldMessage is returned as the sole error for a missing answer
// to a required question.
const RequiredFieldMessage = "This field is required"

// Result is the outcome of validating one answer. Errors carries every
// violation; validation never fails with a Go error.
type Result struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

func valid() Result {
	return Result{IsValid: true, Errors: []string{}}
}

func invalid(errs ...string) Result {
	return Result{IsValid: false, Errors: errs}
}

// ValidateAnswer checks value against the question's rules.
//
// The required check short-circuits: a required question with an empty
// value yields exactly one error, regardless of other configured rules. A
// non-required question with an empty value passes outright. Otherwise
// every applicable rule runs and all violations accumulate.
func ValidateAnswer(q *models.Question, value interface{}) Result {
	if models.IsEmptyValue(value) {
		if q.Required {
			return invalid(RequiredFieldMessage)
		}
		return valid()
	}

	rules := q.ValidationRules
	if rules == nil {
		return valid()
	}

	var errs []string
	switch {
	case q.Type.IsTextType():
		errs = validateText(rules, value)
	case q.Type == models.MultipleChoice:
		errs = validateSelections(rules, value)
	case q.Type.IsNumericType():
		errs = validateNumeric(q.Type, rules, value)
	case q.Type == models.Date || q.Type == models.DateTime:
		errs = validateDate(rules, value)
	case q.Type.IsFileType():
		errs = validateFiles(rules, value)
	}

	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid()
}

func validateText(rules *models.ValidationRules, value interface{}) []string {
	text, ok := value.(string)
	if !ok {
		return nil
	}

	var errs []string
	length := utf8.RuneCountInString(text)
	if rules.MinLength != nil && length < *rules.MinLength {
		errs = append(errs, fmt.Sprintf("Text must be at least %d characters long", *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		errs = append(errs, fmt.Sprintf("Text must not exceed %d characters", *rules.MaxLength))
	}
	if rules.Pattern != nil {
		// An unparsable pattern counts as a mismatch rather than a panic.
		re, err := regexp.Compile(*rules.Pattern)
		if err != nil || !re.MatchString(text) {
			errs = append(errs, "Text format is invalid")
		}
	}
	return errs
}

func validateSelections(rules *models.ValidationRules, value interface{}) []string {
	selected := models.StringValues(value)

	var errs []string
	if rules.MinSelections != nil && len(selected) < *rules.MinSelections {
		errs = append(errs, fmt.Sprintf("Please select at least %d option(s)", *rules.MinSelections))
	}
	if rules.MaxSelections != nil && len(selected) > *rules.MaxSelections {
		errs = append(errs, fmt.Sprintf("Please select at most %d option(s)", *rules.MaxSelections))
	}
	return errs
}

func validateNumeric(qt models.QuestionType, rules *models.ValidationRules, value interface{}) []string {
	num, ok := models.NumericValue(value)
	if !ok {
		return nil
	}

	var errs []string
	if rules.MinValue != nil && num < *rules.MinValue {
		errs = append(errs, fmt.Sprintf("Value must be at least %s", formatBound(*rules.MinValue)))
	}
	if rules.MaxValue != nil && num > *rules.MaxValue {
		errs = append(errs, fmt.Sprintf("Value must not exceed %s", formatBound(*rules.MaxValue)))
	}
	if qt == models.Decimal && rules.DecimalPlaces != nil {
		if decimalPlaces(value) > *rules.DecimalPlaces {
			errs = append(errs, fmt.Sprintf("Value must have at most %d decimal places", *rules.DecimalPlaces))
		}
	}
	return errs
}

func validateDate(rules *models.ValidationRules, value interface{}) []string {
	parsed, ok := parseDateValue(value)
	if !ok {
		return nil
	}

	var errs []string
	if rules.MinDate != nil {
		if min, ok := parseDateString(*rules.MinDate); ok && parsed.Before(min) {
			errs = append(errs, fmt.Sprintf("Date must not be before %s", *rules.MinDate))
		}
	}
	if rules.MaxDate != nil {
		if max, ok := parseDateString(*rules.MaxDate); ok && parsed.After(max) {
			errs = append(errs, fmt.Sprintf("Date must not be after %s", *rules.MaxDate))
		}
	}
	return errs
}

func validateFiles(rules *models.ValidationRules, value interface{}) []string {
	files := fileDescriptors(value)

	var errs []string
	if rules.MaxFiles != nil && len(files) > *rules.MaxFiles {
		errs = append(errs, fmt.Sprintf("Please upload at most %d file(s)", *rules.MaxFiles))
	}
	for _, f := range files {
		if rules.MaxFileSize != nil && f.Size > *rules.MaxFileSize {
			errs = append(errs, fmt.Sprintf("%s is too large", f.Name))
		}
		if len(rules.AllowedFileTypes) > 0 && !typeAllowed(f.Type, rules.AllowedFileTypes) {
			errs = append(errs, fmt.Sprintf("%s has an invalid type", f.Name))
		}
	}
	return errs
}

func typeAllowed(fileType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(t, fileType) {
			return true
		}
	}
	return false
}

func fileDescriptors(value interface{}) []models.FileDescriptor {
	switch v := value.(type) {
	case []models.FileDescriptor:
		return v
	case models.FileDescriptor:
		return []models.FileDescriptor{v}
	}
	return nil
}

// decimalPlaces counts digits after the decimal point of the value's
// canonical string form.
func decimalPlaces(value interface{}) int {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		s = strings.TrimRight(fmt.Sprintf("%f", v), "0")
	default:
		num, ok := models.NumericValue(value)
		if !ok {
			return 0
		}
		s = strings.TrimRight(fmt.Sprintf("%f", num), "0")
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func parseDateValue(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		return parseDateString(v)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatBound renders a numeric bound without a trailing ".000000" when the
// configured bound is integral.
func formatBound(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
}
