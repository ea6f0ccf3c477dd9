package services

import (
	"errors"
	"fmt"

	apperrors "github.com/vantagecare/questionnaire-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")
	ErrInternalError    = errors.New("internal server error")

	// Scoring store specific errors
	ErrConfigurationNotFound = errors.New("scoring configuration not found")
	ErrRuleNotFound          = errors.New("scoring rule not found")
	ErrResultNotFound        = errors.New("score result not found")
	ErrCategoryNotFound      = errors.New("score category not found")
	ErrNoDefaultConfig       = errors.New("no default scoring configuration for questionnaire")
	ErrConfigurationInactive = errors.New("scoring configuration is not active")
)

// Use shared validation errors from the errors package.
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ConfigValidationError carries the authoring-time problem list from
// ValidateConfiguration as a single error value.
type ConfigValidationError struct {
	Problems []string `json:"problems"`
}

func (e *ConfigValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid scoring configuration: %s", e.Problems[0])
	}
	return fmt.Sprintf("invalid scoring configuration: %d problems", len(e.Problems))
}

func (e *ConfigValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if err represents a "not found" condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConfigurationNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrResultNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrNoDefaultConfig)
}

// IsValidation checks if err represents a validation failure.
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}
