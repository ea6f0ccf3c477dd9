package scoring

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vantagecare/questionnaire-service/internal/models"
)

// ErrUnsupportedMethod is returned when a calculator is asked to run an
// unknown scoring method.
var ErrUnsupportedMethod = errors.New("unsupported scoring method")

// ScoreCalculator is the per-configuration strategy applying one scoring
// method to extracted point values.
type ScoreCalculator struct {
	config *models.ScoringConfiguration
}

// NewScoreCalculator builds a calculator for the configuration. Method
// support is checked at calculation time, not here.
func NewScoreCalculator(config *models.ScoringConfiguration) *ScoreCalculator {
	return &ScoreCalculator{config: config}
}

// Calculate folds per-question points into a single total.
//
// sum adds everything; average divides the sum by the number of questions;
// weighted multiplies each point by the configured weight (default 1);
// custom binds the sum to "total" and evaluates the configured formula,
// degrading to 0 when the formula fails.
func (c *ScoreCalculator) Calculate(points map[uint]float64, questions []models.Question) (float64, error) {
	switch c.config.ScoringMethod {
	case models.MethodSum:
		return c.sum(points), nil

	case models.MethodAverage:
		if len(questions) == 0 {
			return 0, nil
		}
		return c.sum(points) / float64(len(questions)), nil

	case models.MethodWeighted:
		total := 0.0
		for id, p := range points {
			weight := 1.0
			if w, ok := c.config.Weights[strconv.FormatUint(uint64(id), 10)]; ok {
				weight = w
			}
			total += p * weight
		}
		return total, nil

	case models.MethodCustom:
		return c.custom(points), nil
	}

	return 0, fmt.Errorf("%w: %s", ErrUnsupportedMethod, c.config.ScoringMethod)
}

func (c *ScoreCalculator) sum(points map[uint]float64) float64 {
	total := 0.0
	for _, p := range points {
		total += p
	}
	return total
}

// custom never reports an error: a malformed or unresolvable formula
// degrades to 0 so a bad configuration does not block a clinical workflow.
func (c *ScoreCalculator) custom(points map[uint]float64) float64 {
	if c.config.Formula == nil || *c.config.Formula == "" {
		return 0
	}

	vars := make(map[string]float64, len(c.config.FormulaVariables)+1)
	for name, v := range c.config.FormulaVariables {
		vars[name] = v
	}
	vars["total"] = c.sum(points)

	result, err := EvalFormula(*c.config.Formula, vars)
	if err != nil {
		return 0
	}
	return result
}
