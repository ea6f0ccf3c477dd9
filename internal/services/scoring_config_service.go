package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/vantagecare/questionnaire-service/internal/cache"
	"github.com/vantagecare/questionnaire-service/internal/events"
	"github.com/vantagecare/questionnaire-service/internal/logic"
	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/repositories"
	"github.com/vantagecare/questionnaire-service/internal/scoring"
)

const defaultConfigCacheTTL = 5 * time.Minute

// ScoringConfigService is the store layer over scoring configurations,
// rules and computed score results.
type ScoringConfigService interface {
	// Configuration CRUD
	CreateConfiguration(ctx context.Context, config *models.ScoringConfiguration) (*models.ScoringConfiguration, error)
	GetConfiguration(ctx context.Context, id uint) (*models.ScoringConfiguration, error)
	ListConfigurations(ctx context.Context, questionnaireID uint) ([]*models.ScoringConfiguration, error)
	UpdateConfiguration(ctx context.Context, config *models.ScoringConfiguration) (*models.ScoringConfiguration, error)
	DeleteConfiguration(ctx context.Context, id uint) error
	SetDefaultConfiguration(ctx context.Context, id uint) error
	DefaultConfiguration(ctx context.Context, questionnaireID uint) (*models.ScoringConfiguration, error)
	ValidateConfiguration(config *models.ScoringConfiguration) []string

	// Rule CRUD over the owning configuration's embedded rule list
	AddRule(ctx context.Context, configID uint, rule *models.ScoringRule) (*models.ScoringConfiguration, error)
	UpdateRule(ctx context.Context, configID uint, rule *models.ScoringRule) (*models.ScoringConfiguration, error)
	DeleteRule(ctx context.Context, configID, ruleID uint) (*models.ScoringConfiguration, error)

	// Scoring
	CalculateScore(ctx context.Context, req *CalculateScoreRequest) (*models.ScoreResult, error)
	GetResult(ctx context.Context, responseID string, configID uint) (*models.ScoreResult, error)

	// Analytics
	GetAnalytics(ctx context.Context, questionnaireID uint, configID *uint) (*ScoreAnalytics, error)
}

// CalculateScoreRequest carries everything needed to score one response.
// ConfigID nil means "use the questionnaire's default configuration".
type CalculateScoreRequest struct {
	ResponseID      string            `json:"response_id" validate:"required"`
	QuestionnaireID uint              `json:"questionnaire_id" validate:"required"`
	ConfigID        *uint             `json:"config_id"`
	Questions       []models.Question `json:"questions" validate:"required"`
	Answers         []models.Answer   `json:"answers"`
}

// ScoreAnalytics aggregates stored score results for a questionnaire.
type ScoreAnalytics struct {
	QuestionnaireID  uint                     `json:"questionnaire_id"`
	ConfigID         *uint                    `json:"config_id,omitempty"`
	TotalResponses   int                      `json:"total_responses"`
	AverageScore     float64                  `json:"average_score"`
	LowestScore      float64                  `json:"lowest_score"`
	HighestScore     float64                  `json:"highest_score"`
	StdDeviation     float64                  `json:"std_deviation"`
	RiskDistribution map[models.RiskLevel]int `json:"risk_distribution"`
	Trend            []TrendPoint             `json:"trend"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// TrendPoint is one calendar day of scoring activity.
type TrendPoint struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

type scoringConfigService struct {
	repo      repositories.Repository
	engine    *scoring.Engine
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewScoringConfigService(
	repo repositories.Repository,
	engine *scoring.Engine,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
) ScoringConfigService {
	if cacheService == nil {
		cacheService = cache.NoopCache{}
	}
	return &scoringConfigService{
		repo:      repo,
		engine:    engine,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== CONFIGURATION CRUD =====

func (s *scoringConfigService) CreateConfiguration(ctx context.Context, config *models.ScoringConfiguration) (*models.ScoringConfiguration, error) {
	if problems := s.engine.ValidateConfiguration(config); len(problems) > 0 {
		return nil, &ConfigValidationError{Problems: problems}
	}

	// The default swap and the insert commit together so concurrent
	// writers never observe two defaults for one questionnaire.
	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		if err := tx.ScoringConfig().Create(ctx, config); err != nil {
			return fmt.Errorf("failed to create configuration: %w", err)
		}
		if config.IsDefault {
			return tx.ScoringConfig().UnsetDefaults(ctx, config.QuestionnaireID, config.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDefault(ctx, config.QuestionnaireID)
	s.publishConfigChange(ctx, config, "created")
	s.logger.Info("scoring configuration created",
		"config_id", config.ID,
		"questionnaire_id", config.QuestionnaireID,
		"is_default", config.IsDefault)

	return config, nil
}

func (s *scoringConfigService) GetConfiguration(ctx context.Context, id uint) (*models.ScoringConfiguration, error) {
	config, err := s.repo.ScoringConfig().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %d", ErrConfigurationNotFound, id)
		}
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return config, nil
}

func (s *scoringConfigService) ListConfigurations(ctx context.Context, questionnaireID uint) ([]*models.ScoringConfiguration, error) {
	configs, err := s.repo.ScoringConfig().GetByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	return configs, nil
}

func (s *scoringConfigService) UpdateConfiguration(ctx context.Context, config *models.ScoringConfiguration) (*models.ScoringConfiguration, error) {
	if problems := s.engine.ValidateConfiguration(config); len(problems) > 0 {
		return nil, &ConfigValidationError{Problems: problems}
	}

	existing, err := s.GetConfiguration(ctx, config.ID)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		if err := tx.ScoringConfig().Update(ctx, config); err != nil {
			return fmt.Errorf("failed to update configuration: %w", err)
		}
		if config.IsDefault {
			return tx.ScoringConfig().UnsetDefaults(ctx, config.QuestionnaireID, config.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDefault(ctx, existing.QuestionnaireID)
	s.publishConfigChange(ctx, config, "updated")

	return config, nil
}

// DeleteConfiguration removes a configuration and its rules. Previously
// persisted score results are kept.
func (s *scoringConfigService) DeleteConfiguration(ctx context.Context, id uint) error {
	config, err := s.GetConfiguration(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.ScoringConfig().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}

	s.invalidateDefault(ctx, config.QuestionnaireID)
	s.publishConfigChange(ctx, config, "deleted")
	s.logger.Info("scoring configuration deleted", "config_id", id)

	return nil
}

// SetDefaultConfiguration promotes one configuration to be its
// questionnaire's default, demoting every other one atomically.
func (s *scoringConfigService) SetDefaultConfiguration(ctx context.Context, id uint) error {
	config, err := s.GetConfiguration(ctx, id)
	if err != nil {
		return err
	}

	config.IsDefault = true
	err = s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		if err := tx.ScoringConfig().Update(ctx, config); err != nil {
			return fmt.Errorf("failed to promote configuration: %w", err)
		}
		return tx.ScoringConfig().UnsetDefaults(ctx, config.QuestionnaireID, config.ID)
	})
	if err != nil {
		return err
	}

	s.invalidateDefault(ctx, config.QuestionnaireID)
	s.publishConfigChange(ctx, config, "promoted")
	s.logger.Info("default scoring configuration set",
		"config_id", id,
		"questionnaire_id", config.QuestionnaireID)

	return nil
}

// DefaultConfiguration is a read-through cached lookup of the
// questionnaire's default configuration.
func (s *scoringConfigService) DefaultConfiguration(ctx context.Context, questionnaireID uint) (*models.ScoringConfiguration, error) {
	key := defaultConfigCacheKey(questionnaireID)

	var cached models.ScoringConfiguration
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	config, err := s.repo.ScoringConfig().GetDefault(ctx, questionnaireID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w %d", ErrNoDefaultConfig, questionnaireID)
		}
		return nil, fmt.Errorf("failed to get default configuration: %w", err)
	}

	if err := s.cache.Set(ctx, key, config, defaultConfigCacheTTL); err != nil {
		s.logger.Warn("failed to cache default configuration", "error", err)
	}
	return config, nil
}

func (s *scoringConfigService) ValidateConfiguration(config *models.ScoringConfiguration) []string {
	return s.engine.ValidateConfiguration(config)
}

// ===== RULE CRUD =====

func (s *scoringConfigService) AddRule(ctx context.Context, configID uint, rule *models.ScoringRule) (*models.ScoringConfiguration, error) {
	config, err := s.GetConfiguration(ctx, configID)
	if err != nil {
		return nil, err
	}

	rule.ConfigID = configID
	config.Rules = append(config.Rules, *rule)

	if err := s.repo.ScoringConfig().Update(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to add rule: %w", err)
	}
	s.invalidateDefault(ctx, config.QuestionnaireID)
	return config, nil
}

func (s *scoringConfigService) UpdateRule(ctx context.Context, configID uint, rule *models.ScoringRule) (*models.ScoringConfiguration, error) {
	config, err := s.GetConfiguration(ctx, configID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range config.Rules {
		if config.Rules[i].ID == rule.ID {
			rule.ConfigID = configID
			config.Rules[i] = *rule
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrRuleNotFound, rule.ID)
	}

	if err := s.repo.ScoringConfig().Update(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	s.invalidateDefault(ctx, config.QuestionnaireID)
	return config, nil
}

func (s *scoringConfigService) DeleteRule(ctx context.Context, configID, ruleID uint) (*models.ScoringConfiguration, error) {
	config, err := s.GetConfiguration(ctx, configID)
	if err != nil {
		return nil, err
	}

	kept := config.Rules[:0]
	found := false
	for _, r := range config.Rules {
		if r.ID == ruleID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrRuleNotFound, ruleID)
	}
	config.Rules = kept

	if err := s.repo.ScoringConfig().Update(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to delete rule: %w", err)
	}
	s.invalidateDefault(ctx, config.QuestionnaireID)
	return config, nil
}

// ===== SCORING =====

// CalculateScore resolves the configuration, scopes the answers to
// currently visible questions through the conditional logic engine, runs
// the scoring engine, and upserts the result keyed by (response, config).
func (s *scoringConfigService) CalculateScore(ctx context.Context, req *CalculateScoreRequest) (*models.ScoreResult, error) {
	var config *models.ScoringConfiguration
	var err error
	if req.ConfigID != nil {
		config, err = s.GetConfiguration(ctx, *req.ConfigID)
	} else {
		config, err = s.DefaultConfiguration(ctx, req.QuestionnaireID)
	}
	if err != nil {
		return nil, err
	}
	if !config.IsActive {
		return nil, fmt.Errorf("%w: %d", ErrConfigurationInactive, config.ID)
	}

	// Progress and scoring must agree on what counts: only answers to
	// currently visible questions are in scope.
	logicEngine := logic.NewEngine(req.Questions, req.Answers, s.logger)
	visible := logicEngine.VisibleQuestions()
	visibleIDs := make(map[uint]bool, len(visible))
	for _, q := range visible {
		visibleIDs[q.ID] = true
	}
	inScope := make([]models.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		if visibleIDs[a.QuestionID] {
			inScope = append(inScope, a)
		}
	}

	s.engine.AddConfiguration(config)
	result, err := s.engine.CalculateScore(req.ResponseID, inScope, visible, config.ID)
	if err != nil {
		return nil, err
	}
	result.QuestionnaireID = req.QuestionnaireID

	categories, err := s.repo.ScoreCategory().GetByConfig(ctx, config.ID)
	if err != nil {
		s.logger.Warn("failed to load score categories, skipping breakdown",
			"config_id", config.ID, "error", err)
	} else if len(categories) > 0 {
		flat := make([]models.ScoreCategory, len(categories))
		for i, c := range categories {
			flat[i] = *c
		}
		result.CategoryScores = scoring.CategoryScores(flat, inScope, visible)
	}

	if err := s.repo.ScoreResult().Upsert(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store score result: %w", err)
	}

	s.publishEvent(ctx, events.NewScoringEvent(events.EventScoreCalculated, events.ScoreCalculatedEvent{
		ResponseID:      result.ResponseID,
		QuestionnaireID: result.QuestionnaireID,
		ConfigID:        result.ConfigID,
		TotalScore:      result.TotalScore,
		NormalizedScore: result.NormalizedScore,
		RiskLevel:       result.RiskLevel,
		RiskLabel:       result.RiskLabel,
		CalculatedAt:    result.CalculatedAt,
	}))

	return result, nil
}

func (s *scoringConfigService) GetResult(ctx context.Context, responseID string, configID uint) (*models.ScoreResult, error) {
	result, err := s.repo.ScoreResult().GetByResponseAndConfig(ctx, responseID, configID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: response %s config %d", ErrResultNotFound, responseID, configID)
		}
		return nil, fmt.Errorf("failed to get score result: %w", err)
	}
	return result, nil
}

// ===== ANALYTICS =====

func (s *scoringConfigService) GetAnalytics(ctx context.Context, questionnaireID uint, configID *uint) (*ScoreAnalytics, error) {
	results, err := s.repo.ScoreResult().List(ctx, repositories.ResultFilters{
		QuestionnaireID: questionnaireID,
		ConfigID:        configID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load score results: %w", err)
	}

	analytics := &ScoreAnalytics{
		QuestionnaireID:  questionnaireID,
		ConfigID:         configID,
		TotalResponses:   len(results),
		RiskDistribution: make(map[models.RiskLevel]int),
		Trend:            []TrendPoint{},
		GeneratedAt:      time.Now().UTC(),
	}
	if len(results) == 0 {
		return analytics, nil
	}

	sum := 0.0
	analytics.LowestScore = results[0].NormalizedScore
	analytics.HighestScore = results[0].NormalizedScore

	type dayAgg struct {
		count int
		sum   float64
	}
	byDay := make(map[string]*dayAgg)

	for _, r := range results {
		sum += r.NormalizedScore
		if r.NormalizedScore < analytics.LowestScore {
			analytics.LowestScore = r.NormalizedScore
		}
		if r.NormalizedScore > analytics.HighestScore {
			analytics.HighestScore = r.NormalizedScore
		}
		if r.RiskLevel != "" {
			analytics.RiskDistribution[r.RiskLevel]++
		}

		day := r.CalculatedAt.UTC().Format("2006-01-02")
		agg, ok := byDay[day]
		if !ok {
			agg = &dayAgg{}
			byDay[day] = agg
		}
		agg.count++
		agg.sum += r.NormalizedScore
	}

	analytics.AverageScore = sum / float64(len(results))

	variance := 0.0
	for _, r := range results {
		d := r.NormalizedScore - analytics.AverageScore
		variance += d * d
	}
	analytics.StdDeviation = math.Sqrt(variance / float64(len(results)))

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		agg := byDay[day]
		analytics.Trend = append(analytics.Trend, TrendPoint{
			Date:         day,
			Count:        agg.count,
			AverageScore: agg.sum / float64(agg.count),
		})
	}

	return analytics, nil
}

// ===== HELPERS =====

func defaultConfigCacheKey(questionnaireID uint) string {
	return fmt.Sprintf("scoring:default:%d", questionnaireID)
}

func (s *scoringConfigService) invalidateDefault(ctx context.Context, questionnaireID uint) {
	if err := s.cache.Delete(ctx, defaultConfigCacheKey(questionnaireID)); err != nil {
		s.logger.Warn("failed to invalidate default configuration cache",
			"questionnaire_id", questionnaireID,
			"error", err)
	}
}

func (s *scoringConfigService) publishConfigChange(ctx context.Context, config *models.ScoringConfiguration, change string) {
	s.publishEvent(ctx, events.NewScoringEvent(events.EventConfigurationChanged, events.ConfigurationChangedEvent{
		ConfigID:        config.ID,
		QuestionnaireID: config.QuestionnaireID,
		IsDefault:       config.IsDefault,
		Change:          change,
	}))
}

// publishEvent is fire-and-forget: scoring must not fail because the bus is
// down.
func (s *scoringConfigService) publishEvent(ctx context.Context, event *events.ScoringEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishScoringEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish scoring event",
			"event_type", event.Type,
			"error", err)
	}
}
