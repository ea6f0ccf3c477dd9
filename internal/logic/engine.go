// Package logic decides, for a partially answered questionnaire, which
// questions are currently visible, which are effectively required, how far
// along the respondent is, and whether the response has ended early.
package logic

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vantagecare/questionnaire-service/internal/models"
)

// Engine evaluates conditional logic over a fixed question list and the
// current answer snapshot. Instances are cheap; each response session should
// own its own engine. The answer snapshot is replaced wholesale by
// UpdateAnswers, never mutated in place.
type Engine struct {
	questions []models.Question // sorted ascending by Order
	answers   models.AnswerSet

	terminated           bool
	terminationOrder     int
	shownAtTermination   int
	skippedAtTermination int

	logger *slog.Logger
}

// Progress summarizes completion over currently visible questions.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// RequiredCheck reports which visible, effectively-required questions still
// lack a non-empty answer.
type RequiredCheck struct {
	IsValid          bool   `json:"is_valid"`
	MissingQuestions []uint `json:"missing_questions"`
}

// TerminationState describes an early end of the response. Sticky: once
// set it survives later answer changes.
type TerminationState struct {
	EarlyTermination    bool `json:"early_termination"`
	TotalQuestionsShown int  `json:"total_questions_shown"`
	QuestionsSkipped    int  `json:"questions_skipped"`
}

// NewEngine builds an engine over the questionnaire's questions and the
// current answers. An empty question list is fine: no visible questions,
// zero progress.
func NewEngine(questions []models.Question, answers []models.Answer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]models.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	e := &Engine{
		questions: sorted,
		answers:   models.NewAnswerSet(answers),
		logger:    logger,
	}
	e.checkTermination()
	return e
}

// UpdateAnswers replaces the answer snapshot and re-derives engine state.
// Early termination, once triggered, never resets here.
func (e *Engine) UpdateAnswers(answers []models.Answer) {
	e.answers = models.NewAnswerSet(answers)
	e.checkTermination()
}

// VisibleQuestions returns the currently visible questions in ascending
// order. Questions past an early-termination trigger are excluded
// permanently.
func (e *Engine) VisibleQuestions() []models.Question {
	visible := make([]models.Question, 0, len(e.questions))
	for _, q := range e.questions {
		if e.terminated && q.Order > e.terminationOrder {
			continue
		}
		if e.isVisible(&q) {
			visible = append(visible, q)
		}
	}
	return visible
}

// IsRequired reports the question's effective required status: the static
// flag, or a require rule whose condition currently holds.
func (e *Engine) IsRequired(q *models.Question) bool {
	if q.Required {
		return true
	}
	rule := q.ConditionalLogic
	if rule != nil && rule.Action == models.ActionRequire {
		return e.evaluate(rule)
	}
	return false
}

// Progress counts answered visible questions over all visible questions.
func (e *Engine) Progress() Progress {
	visible := e.VisibleQuestions()
	total := len(visible)
	if total == 0 {
		return Progress{}
	}

	current := 0
	for _, q := range visible {
		if a, ok := e.answers.Get(q.ID); ok && !models.IsEmptyValue(a.Value) {
			current++
		}
	}
	pct := int(float64(current)/float64(total)*100 + 0.5)
	return Progress{Current: current, Total: total, Percentage: pct}
}

// ValidateRequired lists visible, effectively-required questions without a
// non-empty answer.
func (e *Engine) ValidateRequired() RequiredCheck {
	missing := []uint{}
	for _, q := range e.VisibleQuestions() {
		if !e.IsRequired(&q) {
			continue
		}
		if a, ok := e.answers.Get(q.ID); !ok || models.IsEmptyValue(a.Value) {
			missing = append(missing, q.ID)
		}
	}
	return RequiredCheck{IsValid: len(missing) == 0, MissingQuestions: missing}
}

// Termination returns the current early-termination state.
func (e *Engine) Termination() TerminationState {
	if !e.terminated {
		return TerminationState{}
	}
	return TerminationState{
		EarlyTermination:    true,
		TotalQuestionsShown: e.shownAtTermination,
		QuestionsSkipped:    e.skippedAtTermination,
	}
}

// isVisible applies the question's rule to the current answers. Questions
// without a rule, and questions whose rule only affects required-ness, are
// always visible.
func (e *Engine) isVisible(q *models.Question) bool {
	rule := q.ConditionalLogic
	if rule == nil {
		return true
	}
	switch rule.Action {
	case models.ActionShow:
		return e.evaluate(rule)
	case models.ActionHide:
		return !e.evaluate(rule)
	}
	return true
}

// evaluate combines the rule's conditions with its combinator. A condition
// referencing an unanswered question is false, never an error.
func (e *Engine) evaluate(rule *models.ConditionalRule) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	if rule.Combinator == models.CombinatorOr {
		for _, c := range rule.Conditions {
			if e.evaluateCondition(&c) {
				return true
			}
		}
		return false
	}
	for _, c := range rule.Conditions {
		if !e.evaluateCondition(&c) {
			return false
		}
	}
	return true
}

func (e *Engine) evaluateCondition(c *models.Condition) bool {
	answer, ok := e.answers.Get(c.QuestionID)
	if !ok || answer.Value == nil {
		return false
	}

	switch c.Operator {
	case models.OperatorEquals:
		return valuesEqual(answer.Value, c.Value)
	case models.OperatorNotEquals:
		return !valuesEqual(answer.Value, c.Value)
	case models.OperatorGreaterThan:
		a, aok := models.NumericValue(answer.Value)
		b, bok := models.NumericValue(c.Value)
		return aok && bok && a > b
	case models.OperatorLessThan:
		a, aok := models.NumericValue(answer.Value)
		b, bok := models.NumericValue(c.Value)
		return aok && bok && a < b
	case models.OperatorContains:
		return contains(answer.Value, c.Value)
	}
	return false
}

// checkTermination scans in question order for a satisfied end_survey rule
// and latches the first trigger.
func (e *Engine) checkTermination() {
	if e.terminated {
		return
	}
	for _, q := range e.questions {
		rule := q.ConditionalLogic
		if rule == nil || rule.Action != models.ActionEndSurvey {
			continue
		}
		if !e.evaluate(rule) {
			continue
		}

		e.terminated = true
		e.terminationOrder = q.Order

		shown := 0
		skipped := 0
		for _, other := range e.questions {
			if other.Order > q.Order {
				skipped++
			} else if e.isVisible(&other) {
				shown++
			}
		}
		e.shownAtTermination = shown
		e.skippedAtTermination = skipped

		e.logger.Info("response terminated early",
			"trigger_question_id", q.ID,
			"questions_shown", shown,
			"questions_skipped", skipped)
		return
	}
}

func valuesEqual(a, b interface{}) bool {
	if an, ok := models.NumericValue(a); ok {
		if bn, ok := models.NumericValue(b); ok {
			return an == bn
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// contains checks membership for list answers and substring match for text
// answers.
func contains(haystack, needle interface{}) bool {
	target := fmt.Sprintf("%v", needle)
	switch v := haystack.(type) {
	case []string:
		for _, item := range v {
			if item == target {
				return true
			}
		}
	case []interface{}:
		for _, item := range v {
			if fmt.Sprintf("%v", item) == target {
				return true
			}
		}
	case string:
		return target != "" && strings.Contains(v, target)
	}
	return false
}
