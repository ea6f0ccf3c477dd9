package models

type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorContains    ConditionOperator = "contains"
)

type RuleCombinator string

const (
	CombinatorAnd RuleCombinator = "AND"
	CombinatorOr  RuleCombinator = "OR"
)

type RuleAction string

const (
	ActionShow      RuleAction = "show"
	ActionHide      RuleAction = "hide"
	ActionRequire   RuleAction = "require"
	ActionEndSurvey RuleAction = "end_survey"
)

// Condition compares the current answer of a referenced question against a
// fixed value. Referenced questions are assumed to appear earlier in order
// than the rule's owner (acyclic by construction).
type Condition struct {
	QuestionID uint              `json:"question_id" validate:"required"`
	Operator   ConditionOperator `json:"operator" validate:"required,condition_operator"`
	Value      interface{}       `json:"value"`
}

// ConditionalRule attaches branching behavior to one question. All
// conditions combine with the rule's combinator; the action says what a
// true evaluation means for the owning question.
type ConditionalRule struct {
	Conditions []Condition    `json:"conditions" validate:"required,min=1,dive"`
	Combinator RuleCombinator `json:"combinator" validate:"required,oneof=AND OR"`
	Action     RuleAction     `json:"action" validate:"required,rule_action"`
}
