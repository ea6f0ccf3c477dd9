// Package scoring converts a set of answers into a numeric score, a risk
// classification and chart-ready visualization data, driven by configurable
// range rules.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vantagecare/questionnaire-service/internal/models"
)

// ErrConfigurationNotFound is returned for lookups of unregistered
// configuration ids. The wrapped message carries the missing id.
var ErrConfigurationNotFound = errors.New("Scoring configuration not found")

// Engine holds a registry of scoring configurations and computes score
// results from answer sets. State is constructor-owned, not global; each
// engine instance is safe for concurrent readers, and registration is
// guarded for concurrent writers.
type Engine struct {
	mu       sync.RWMutex
	configs  map[uint]*models.ScoringConfiguration
	defaults map[uint]uint // questionnaire id -> default config id

	logger *slog.Logger
}

// NewEngine builds an empty scoring engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		configs:  make(map[uint]*models.ScoringConfiguration),
		defaults: make(map[uint]uint),
		logger:   logger,
	}
}

// AddConfiguration registers a configuration, replacing any previous entry
// with the same id. A default configuration displaces the questionnaire's
// previous default in the secondary index.
func (e *Engine) AddConfiguration(config *models.ScoringConfiguration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.configs[config.ID] = config
	if config.IsDefault {
		e.defaults[config.QuestionnaireID] = config.ID
	}
}

// Configuration looks up a registered configuration by id.
func (e *Engine) Configuration(id uint) (*models.ScoringConfiguration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	config, ok := e.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrConfigurationNotFound, id)
	}
	return config, nil
}

// DefaultConfiguration returns the questionnaire's default configuration.
func (e *Engine) DefaultConfiguration(questionnaireID uint) (*models.ScoringConfiguration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	id, ok := e.defaults[questionnaireID]
	if !ok {
		return nil, fmt.Errorf("%w: no default for questionnaire %d", ErrConfigurationNotFound, questionnaireID)
	}
	return e.configs[id], nil
}

// ValidateConfiguration returns authoring-time problems as human-readable
// strings; an empty slice means the configuration is valid. Rules sorted by
// their minimum must tile [MinScore, MaxScore] exactly: the first uncovered
// integer score is reported as a gap, the first doubly-covered one as an
// overlap.
func (e *Engine) ValidateConfiguration(config *models.ScoringConfiguration) []string {
	var problems []string

	if config.Name == "" {
		problems = append(problems, "Configuration name is required")
	}
	if config.MaxScore <= config.MinScore {
		problems = append(problems, "Maximum score must be greater than minimum score")
	}
	if len(config.Rules) == 0 {
		problems = append(problems, "At least one scoring rule is required")
		return problems
	}

	rules := make([]models.ScoringRule, len(config.Rules))
	copy(rules, config.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].MinScore < rules[j].MinScore
	})

	cursor := config.MinScore
	for _, r := range rules {
		if r.MinScore > cursor {
			problems = append(problems, fmt.Sprintf("Gap found at score %s", formatScore(cursor)))
			return problems
		}
		if r.MinScore < cursor {
			problems = append(problems, fmt.Sprintf("Overlapping rules at score %s", formatScore(r.MinScore)))
			return problems
		}
		cursor = r.MaxScore + 1
	}
	if cursor <= config.MaxScore {
		problems = append(problems, fmt.Sprintf("Gap found at score %s", formatScore(cursor)))
	}
	return problems
}

// CalculateScore scores a response against a registered configuration.
// Unanswered questions contribute 0, so an empty answer set still resolves
// to whichever rule covers score 0 (or the configuration minimum after
// clamping). The computation is a pure function of its inputs: identical
// inputs yield identical results.
func (e *Engine) CalculateScore(responseID string, answers []models.Answer, questions []models.Question, configID uint) (*models.ScoreResult, error) {
	config, err := e.Configuration(configID)
	if err != nil {
		return nil, err
	}

	answerSet := models.NewAnswerSet(answers)
	points := make(map[uint]float64, len(questions))
	for i := range questions {
		q := &questions[i]
		if a, ok := answerSet.Get(q.ID); ok {
			points[q.ID] = pointValue(q, a)
		}
	}

	calculator := NewScoreCalculator(config)
	total, err := calculator.Calculate(points, questions)
	if err != nil {
		return nil, err
	}

	normalized := clamp(total, config.MinScore, config.MaxScore)
	if config.ScoringMethod == models.MethodCustom {
		// A custom formula owns the final value outright; both reported
		// scores reflect the clamped result.
		total = normalized
	}

	percentage := 0.0
	if scoreRange := config.MaxScore - config.MinScore; scoreRange > 0 {
		percentage = (normalized - config.MinScore) / scoreRange * 100
	}

	result := &models.ScoreResult{
		ResponseID:      responseID,
		ConfigID:        config.ID,
		QuestionnaireID: config.QuestionnaireID,
		TotalScore:      total,
		NormalizedScore: normalized,
		Percentage:      percentage,
		CalculatedAt:    time.Now().UTC(),
	}

	if rule := config.RuleFor(normalized); rule != nil {
		result.RiskLevel = rule.RiskLevel
		result.RiskLabel = rule.Label
		result.RiskColor = rule.Color
		result.Actions = rule.Actions
	}

	viz := buildVisualization(config, result)
	vizJSON, err := json.Marshal(viz)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal visualization data: %w", err)
	}
	result.VisualizationData = vizJSON

	e.logger.Debug("score calculated",
		"response_id", responseID,
		"config_id", config.ID,
		"total_score", result.TotalScore,
		"risk_level", result.RiskLevel)

	return result, nil
}

func buildVisualization(config *models.ScoringConfiguration, result *models.ScoreResult) *models.VisualizationData {
	rules := make([]models.ScoringRule, len(config.Rules))
	copy(rules, config.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].MinScore < rules[j].MinScore
	})

	scoreRange := config.MaxScore - config.MinScore
	toPercent := func(v float64) float64 {
		if scoreRange <= 0 {
			return 0
		}
		return (v - config.MinScore) / scoreRange * 100
	}

	zones := make([]models.VisualizationZone, 0, len(rules))
	for _, r := range rules {
		zones = append(zones, models.VisualizationZone{
			Min:       toPercent(r.MinScore),
			Max:       toPercent(r.MaxScore),
			Color:     r.Color,
			Label:     r.Label,
			RiskLevel: r.RiskLevel,
		})
	}

	return &models.VisualizationData{
		Score:             result.NormalizedScore,
		MaxScore:          config.MaxScore,
		MinScore:          config.MinScore,
		RiskLevel:         result.RiskLevel,
		Label:             result.RiskLabel,
		VisualizationType: "gauge",
		Percentage:        result.Percentage,
		Zones:             zones,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
