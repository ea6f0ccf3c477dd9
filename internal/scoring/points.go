package scoring

import (
	"github.com/vantagecare/questionnaire-service/internal/models"
)

// pointValue computes the contribution of one answered question.
//
// Resolution order:
//  1. metadata scoring points aligned to options (index lookup, summed for
//     multi-select);
//  2. boolean: true 1, false 0;
//  3. numeric/rating family: the numeric value itself;
//  4. choice types without scoring metadata: zero-based option index.
//
// Anything else, including an unanswerable lookup, contributes 0.
func pointValue(q *models.Question, answer models.Answer) float64 {
	if models.IsEmptyValue(answer.Value) {
		return 0
	}

	if points := q.ScoringPoints(); points != nil {
		return pointsFromOptions(q, answer.Value, points)
	}

	if q.Type == models.Boolean {
		if b, ok := answer.Value.(bool); ok && b {
			return 1
		}
		return 0
	}

	if q.Type.IsNumericType() {
		num, ok := models.NumericValue(answer.Value)
		if !ok {
			return 0
		}
		return num
	}

	if q.Type == models.SingleChoice || q.Type == models.Dropdown || q.Type == models.Likert {
		if s, ok := answer.Value.(string); ok {
			if idx := q.OptionIndex(s); idx >= 0 {
				return float64(idx)
			}
		}
	}

	return 0
}

func pointsFromOptions(q *models.Question, value interface{}, points []float64) float64 {
	lookup := func(option string) float64 {
		idx := q.OptionIndex(option)
		if idx < 0 || idx >= len(points) {
			return 0
		}
		return points[idx]
	}

	if q.Type == models.MultipleChoice {
		total := 0.0
		for _, selected := range models.StringValues(value) {
			total += lookup(selected)
		}
		return total
	}

	if s, ok := value.(string); ok {
		return lookup(s)
	}
	return 0
}
