package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantagecare/questionnaire-service/internal/cache"
	"github.com/vantagecare/questionnaire-service/internal/events"
	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/repositories/memory"
	"github.com/vantagecare/questionnaire-service/internal/scoring"
)

func newTestService(t *testing.T) (ScoringConfigService, *events.MockEventPublisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	repo := memory.NewRepository()
	engine := scoring.NewEngine(logger)
	service := NewScoringConfigService(repo, engine, cache.NoopCache{}, publisher, logger)
	return service, publisher
}

func testConfig(questionnaireID uint, isDefault bool) *models.ScoringConfiguration {
	return &models.ScoringConfiguration{
		QuestionnaireID: questionnaireID,
		Name:            "Anxiety screening",
		ScoringMethod:   models.MethodSum,
		MinScore:        0,
		MaxScore:        21,
		IsDefault:       isDefault,
		IsActive:        true,
		Rules: []models.ScoringRule{
			{MinScore: 0, MaxScore: 9, RiskLevel: models.RiskLow, Label: "Low"},
			{MinScore: 10, MaxScore: 21, RiskLevel: models.RiskHigh, Label: "High",
				Actions: []string{"notify_clinician"}},
		},
	}
}

func testQuestions() []models.Question {
	metadata := []byte(`{"scoring":{"points":[0,1,2,3]}}`)
	options := []string{"Not at all", "Several days", "More than half the days", "Nearly every day"}
	questions := make([]models.Question, 0, 7)
	for i := 1; i <= 7; i++ {
		questions = append(questions, models.Question{
			ID:       uint(i),
			Order:    i,
			Type:     models.Likert,
			Options:  options,
			Metadata: metadata,
		})
	}
	return questions
}

func TestScoringConfigService_CreateConfiguration(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()

	t.Run("valid configuration is persisted", func(t *testing.T) {
		created, err := service.CreateConfiguration(ctx, testConfig(1, true))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		fetched, err := service.GetConfiguration(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Anxiety screening", fetched.Name)
		assert.Len(t, fetched.Rules, 2)

		require.NotEmpty(t, publisher.PublishedEvents())
		event := publisher.PublishedEvents()[0]
		assert.Equal(t, events.EventConfigurationChanged, event.Type)
	})

	t.Run("invalid configuration is rejected with problems", func(t *testing.T) {
		bad := testConfig(1, false)
		bad.Rules = []models.ScoringRule{
			{MinScore: 0, MaxScore: 4, RiskLevel: models.RiskLow, Label: "Low"},
			{MinScore: 9, MaxScore: 21, RiskLevel: models.RiskHigh, Label: "High"},
		}

		_, err := service.CreateConfiguration(ctx, bad)
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		var ve *ConfigValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{"Gap found at score 5"}, ve.Problems)
	})
}

func TestScoringConfigService_SingleDefault(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)
	second, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)

	t.Run("creating a second default demotes the first", func(t *testing.T) {
		configs, err := service.ListConfigurations(ctx, 1)
		require.NoError(t, err)
		require.Len(t, configs, 2)

		defaults := 0
		for _, c := range configs {
			if c.IsDefault {
				defaults++
				assert.Equal(t, second.ID, c.ID)
			}
		}
		assert.Equal(t, 1, defaults)
	})

	t.Run("SetDefaultConfiguration swaps atomically", func(t *testing.T) {
		require.NoError(t, service.SetDefaultConfiguration(ctx, first.ID))

		resolved, err := service.DefaultConfiguration(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, first.ID, resolved.ID)

		demoted, err := service.GetConfiguration(ctx, second.ID)
		require.NoError(t, err)
		assert.False(t, demoted.IsDefault)
	})

	t.Run("no default yields a not-found error", func(t *testing.T) {
		_, err := service.DefaultConfiguration(ctx, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoDefaultConfig)
		assert.True(t, IsNotFound(err))
	})
}

func TestScoringConfigService_RuleCRUD(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	config, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)
	require.Len(t, config.Rules, 2)

	t.Run("add rule", func(t *testing.T) {
		updated, err := service.AddRule(ctx, config.ID, &models.ScoringRule{
			MinScore: 22, MaxScore: 30, RiskLevel: models.RiskCritical, Label: "Critical",
		})
		require.NoError(t, err)
		assert.Len(t, updated.Rules, 3)
	})

	t.Run("update rule", func(t *testing.T) {
		current, err := service.GetConfiguration(ctx, config.ID)
		require.NoError(t, err)
		rule := current.Rules[0]
		rule.Label = "Minimal"

		updated, err := service.UpdateRule(ctx, config.ID, &rule)
		require.NoError(t, err)
		assert.Equal(t, "Minimal", updated.Rules[0].Label)
	})

	t.Run("update unknown rule", func(t *testing.T) {
		_, err := service.UpdateRule(ctx, config.ID, &models.ScoringRule{ID: 9999, Label: "x"})
		assert.ErrorIs(t, err, ErrRuleNotFound)
	})

	t.Run("delete rule", func(t *testing.T) {
		current, err := service.GetConfiguration(ctx, config.ID)
		require.NoError(t, err)
		before := len(current.Rules)

		updated, err := service.DeleteRule(ctx, config.ID, current.Rules[before-1].ID)
		require.NoError(t, err)
		assert.Len(t, updated.Rules, before-1)
	})

	t.Run("delete unknown rule", func(t *testing.T) {
		_, err := service.DeleteRule(ctx, config.ID, 9999)
		assert.ErrorIs(t, err, ErrRuleNotFound)
	})
}

func TestScoringConfigService_DeleteConfiguration(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	config, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)

	require.NoError(t, service.DeleteConfiguration(ctx, config.ID))

	_, err = service.GetConfiguration(ctx, config.ID)
	assert.ErrorIs(t, err, ErrConfigurationNotFound)
	assert.True(t, IsNotFound(err))
}

func TestScoringConfigService_CalculateScore(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()
	questions := testQuestions()

	config, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)
	publisher.ClearEvents()

	answers := []models.Answer{
		{QuestionID: 1, Value: "Nearly every day"},         // 3
		{QuestionID: 2, Value: "More than half the days"},  // 2
		{QuestionID: 3, Value: "More than half the days"},  // 2
		{QuestionID: 4, Value: "More than half the days"},  // 2
		{QuestionID: 5, Value: "Several days"},             // 1
		{QuestionID: 6, Value: "Several days"},             // 1
	}

	t.Run("scores against the default configuration", func(t *testing.T) {
		result, err := service.CalculateScore(ctx, &CalculateScoreRequest{
			ResponseID:      "resp-1",
			QuestionnaireID: 1,
			Questions:       questions,
			Answers:         answers,
		})
		require.NoError(t, err)
		assert.Equal(t, 11.0, result.TotalScore)
		assert.Equal(t, models.RiskHigh, result.RiskLevel)
		assert.Equal(t, config.ID, result.ConfigID)

		stored, err := service.GetResult(ctx, "resp-1", config.ID)
		require.NoError(t, err)
		assert.Equal(t, 11.0, stored.TotalScore)

		require.Len(t, publisher.PublishedEvents(), 1)
		event := publisher.PublishedEvents()[0]
		assert.Equal(t, events.EventScoreCalculated, event.Type)
		payload, ok := event.Data.(events.ScoreCalculatedEvent)
		require.True(t, ok)
		assert.Equal(t, "resp-1", payload.ResponseID)
		assert.Equal(t, models.RiskHigh, payload.RiskLevel)
	})

	t.Run("recalculation overwrites the stored result", func(t *testing.T) {
		lighter := []models.Answer{{QuestionID: 1, Value: "Several days"}}
		result, err := service.CalculateScore(ctx, &CalculateScoreRequest{
			ResponseID:      "resp-1",
			QuestionnaireID: 1,
			Questions:       questions,
			Answers:         lighter,
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.TotalScore)

		stored, err := service.GetResult(ctx, "resp-1", config.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, stored.TotalScore)
		assert.Equal(t, models.RiskLow, stored.RiskLevel)
	})

	t.Run("answers to hidden questions are excluded", func(t *testing.T) {
		branching := testQuestions()[:2]
		branching[1].ConditionalLogic = &models.ConditionalRule{
			Conditions: []models.Condition{{QuestionID: 1, Operator: models.OperatorEquals, Value: "Nearly every day"}},
			Combinator: models.CombinatorAnd,
			Action:     models.ActionShow,
		}

		result, err := service.CalculateScore(ctx, &CalculateScoreRequest{
			ResponseID:      "resp-2",
			QuestionnaireID: 1,
			Questions:       branching,
			Answers: []models.Answer{
				{QuestionID: 1, Value: "Several days"},
				{QuestionID: 2, Value: "Nearly every day"}, // hidden, must not count
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.TotalScore)
	})

	t.Run("inactive configuration is rejected", func(t *testing.T) {
		inactive := testConfig(2, true)
		inactive.IsActive = false
		created, err := service.CreateConfiguration(ctx, inactive)
		require.NoError(t, err)

		_, err = service.CalculateScore(ctx, &CalculateScoreRequest{
			ResponseID:      "resp-3",
			QuestionnaireID: 2,
			ConfigID:        &created.ID,
			Questions:       questions,
		})
		assert.ErrorIs(t, err, ErrConfigurationInactive)
	})

	t.Run("missing result lookup", func(t *testing.T) {
		_, err := service.GetResult(ctx, "nobody", config.ID)
		assert.ErrorIs(t, err, ErrResultNotFound)
	})
}

func TestScoringConfigService_CategoryBreakdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	repo := memory.NewRepository()
	engine := scoring.NewEngine(logger)
	service := NewScoringConfigService(repo, engine, cache.NoopCache{}, publisher, logger)
	ctx := context.Background()

	config, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)

	require.NoError(t, repo.ScoreCategory().Create(ctx, &models.ScoreCategory{
		ConfigID:    config.ID,
		Name:        "Worry",
		QuestionIDs: []uint{1, 2, 3},
	}))
	require.NoError(t, repo.ScoreCategory().Create(ctx, &models.ScoreCategory{
		ConfigID:    config.ID,
		Name:        "Restlessness",
		QuestionIDs: []uint{4, 5},
		Weight:      2,
	}))

	result, err := service.CalculateScore(ctx, &CalculateScoreRequest{
		ResponseID:      "resp-cat",
		QuestionnaireID: 1,
		Questions:       testQuestions(),
		Answers: []models.Answer{
			{QuestionID: 1, Value: "Nearly every day"},        // 3
			{QuestionID: 2, Value: "More than half the days"}, // 2
			{QuestionID: 4, Value: "Several days"},            // 1
			{QuestionID: 5, Value: "Several days"},            // 1
		},
	})
	require.NoError(t, err)

	require.Len(t, result.CategoryScores, 2)
	worry := result.CategoryScores[0]
	assert.Equal(t, "Worry", worry.Name)
	assert.Equal(t, 5.0, worry.RawScore)
	assert.Equal(t, 5.0, worry.Score)
	restlessness := result.CategoryScores[1]
	assert.Equal(t, "Restlessness", restlessness.Name)
	assert.Equal(t, 2.0, restlessness.RawScore)
	assert.Equal(t, 4.0, restlessness.Score)

	stored, err := service.GetResult(ctx, "resp-cat", config.ID)
	require.NoError(t, err)
	require.Len(t, stored.CategoryScores, 2)
}

func TestScoringConfigService_GetAnalytics(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	questions := testQuestions()

	_, err := service.CreateConfiguration(ctx, testConfig(1, true))
	require.NoError(t, err)

	responses := map[string]string{
		"resp-a": "Not at all",              // 0 x 7 -> low
		"resp-b": "Several days",            // 1 x 7 -> low
		"resp-c": "Nearly every day",        // 3 x 7 = 21 -> high
		"resp-d": "More than half the days", // 2 x 7 = 14 -> high
	}
	for responseID, choice := range responses {
		answers := make([]models.Answer, 0, len(questions))
		for _, q := range questions {
			answers = append(answers, models.Answer{QuestionID: q.ID, Value: choice})
		}
		_, err := service.CalculateScore(ctx, &CalculateScoreRequest{
			ResponseID:      responseID,
			QuestionnaireID: 1,
			Questions:       questions,
			Answers:         answers,
		})
		require.NoError(t, err)
	}

	analytics, err := service.GetAnalytics(ctx, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, analytics.TotalResponses)
	assert.Equal(t, 10.5, analytics.AverageScore) // (0 + 7 + 21 + 14) / 4
	assert.Equal(t, 0.0, analytics.LowestScore)
	assert.Equal(t, 21.0, analytics.HighestScore)
	assert.Equal(t, 2, analytics.RiskDistribution[models.RiskLow])
	assert.Equal(t, 2, analytics.RiskDistribution[models.RiskHigh])

	require.Len(t, analytics.Trend, 1) // all calculated today
	assert.Equal(t, 4, analytics.Trend[0].Count)
	assert.Equal(t, 10.5, analytics.Trend[0].AverageScore)

	t.Run("empty questionnaire", func(t *testing.T) {
		empty, err := service.GetAnalytics(ctx, 99, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, empty.TotalResponses)
		assert.Empty(t, empty.Trend)
	})
}
