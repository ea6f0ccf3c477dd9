package scoring

import (
	"github.com/vantagecare/questionnaire-service/internal/models"
)

// CategoryScores computes the sub-scale totals for each category of a
// configuration. A category's raw score is the sum of the point values of
// its member questions; the reported score is the raw score multiplied by
// the category weight (0 is treated as the default weight 1). Questions a
// category names that are absent from the question set contribute 0.
func CategoryScores(categories []models.ScoreCategory, answers []models.Answer, questions []models.Question) []models.CategoryScore {
	if len(categories) == 0 {
		return nil
	}

	answerSet := models.NewAnswerSet(answers)
	byID := make(map[uint]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	scores := make([]models.CategoryScore, 0, len(categories))
	for _, category := range categories {
		raw := 0.0
		for _, questionID := range category.QuestionIDs {
			q, ok := byID[questionID]
			if !ok {
				continue
			}
			if a, found := answerSet.Get(q.ID); found {
				raw += pointValue(q, a)
			}
		}

		weight := category.Weight
		if weight == 0 {
			weight = 1
		}

		scores = append(scores, models.CategoryScore{
			Name:     category.Name,
			RawScore: raw,
			Weight:   weight,
			Score:    raw * weight,
		})
	}
	return scores
}
