package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/vantagecare/questionnaire-service/internal/errors"
	"github.com/vantagecare/questionnaire-service/internal/models"
)

// Validator wraps go-playground/validator with the domain's custom tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with all custom rules registered.
func NewValidator() *Validator {
	v := validator.New()

	// Report json tag names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("question_type", validQuestionType)
	_ = v.RegisterValidation("scoring_method", validScoringMethod)
	_ = v.RegisterValidation("risk_level", validRiskLevel)
	_ = v.RegisterValidation("condition_operator", validConditionOperator)
	_ = v.RegisterValidation("rule_action", validRuleAction)

	return &Validator{validate: v}
}

// ValidateStruct validates tagged struct fields, returning nil or a
// ValidationErrors value.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return apperrors.ToValidationErrors(err)
	}
	return nil
}

func validQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, t := range models.AllQuestionTypes {
		if string(t) == value {
			return true
		}
	}
	return false
}

func validScoringMethod(fl validator.FieldLevel) bool {
	switch models.ScoringMethod(fl.Field().String()) {
	case models.MethodSum, models.MethodAverage, models.MethodWeighted, models.MethodCustom:
		return true
	}
	return false
}

func validRiskLevel(fl validator.FieldLevel) bool {
	return models.RiskLevel(fl.Field().String()).Rank() >= 0
}

func validConditionOperator(fl validator.FieldLevel) bool {
	switch models.ConditionOperator(fl.Field().String()) {
	case models.OperatorEquals, models.OperatorNotEquals,
		models.OperatorGreaterThan, models.OperatorLessThan, models.OperatorContains:
		return true
	}
	return false
}

func validRuleAction(fl validator.FieldLevel) bool {
	switch models.RuleAction(fl.Field().String()) {
	case models.ActionShow, models.ActionHide, models.ActionRequire, models.ActionEndSurvey:
		return true
	}
	return false
}
