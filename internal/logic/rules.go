package logic

import (
	"fmt"

	"github.com/vantagecare/questionnaire-service/internal/models"
)

// ValidateRules checks a questionnaire's conditional rules at authoring
// time. A rule may only reference questions that appear earlier in order
// than its owner; forward and self references would be unanswerable at
// evaluation time and are reported here instead of silently evaluating
// false forever.
func ValidateRules(questions []models.Question) []string {
	orderByID := make(map[uint]int, len(questions))
	for _, q := range questions {
		orderByID[q.ID] = q.Order
	}

	var errs []string
	for _, q := range questions {
		rule := q.ConditionalLogic
		if rule == nil {
			continue
		}
		if len(rule.Conditions) == 0 {
			errs = append(errs, fmt.Sprintf("question %d has a rule with no conditions", q.ID))
			continue
		}
		for _, c := range rule.Conditions {
			refOrder, ok := orderByID[c.QuestionID]
			if !ok {
				errs = append(errs, fmt.Sprintf("question %d references unknown question %d", q.ID, c.QuestionID))
				continue
			}
			if c.QuestionID == q.ID && rule.Action != models.ActionEndSurvey {
				errs = append(errs, fmt.Sprintf("question %d references itself", q.ID))
				continue
			}
			if refOrder > q.Order {
				errs = append(errs, fmt.Sprintf("question %d references later question %d", q.ID, c.QuestionID))
			}
		}
	}
	return errs
}
