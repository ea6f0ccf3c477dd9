// Package memory provides an in-process Repository backed by maps. It is
// the injectable default for tests and single-node development; the
// transaction guarantee is a process-wide mutex, which is enough to keep the
// default-configuration swap atomic.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/repositories"
)

type Repository struct {
	mu sync.RWMutex

	nextConfigID   uint
	nextRuleID     uint
	nextCategoryID uint
	nextResultID   uint

	configs    map[uint]models.ScoringConfiguration
	categories map[uint]models.ScoreCategory
	results    map[uint]models.ScoreResult
}

func NewRepository() *Repository {
	return &Repository{
		nextConfigID:   1,
		nextRuleID:     1,
		nextCategoryID: 1,
		nextResultID:   1,
		configs:        make(map[uint]models.ScoringConfiguration),
		categories:     make(map[uint]models.ScoreCategory),
		results:        make(map[uint]models.ScoreResult),
	}
}

func (r *Repository) ScoringConfig() repositories.ScoringConfigRepository { return &configStore{r} }
func (r *Repository) ScoreResult() repositories.ScoreResultRepository     { return &resultStore{r} }
func (r *Repository) ScoreCategory() repositories.ScoreCategoryRepository { return &categoryStore{r} }

func (r *Repository) Transaction(ctx context.Context, fn func(repositories.Repository) error) error {
	// Single-writer semantics: good enough for an in-process store.
	return fn(r)
}

// ===== SCORING CONFIGURATIONS =====

type configStore struct {
	repo *Repository
}

func (s *configStore) Create(ctx context.Context, config *models.ScoringConfiguration) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if config.ID == 0 {
		config.ID = s.repo.nextConfigID
		s.repo.nextConfigID++
	}
	s.assignRuleIDs(config)
	s.repo.configs[config.ID] = cloneConfig(config)
	return nil
}

func (s *configStore) GetByID(ctx context.Context, id uint) (*models.ScoringConfiguration, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	config, ok := s.repo.configs[id]
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}
	out := cloneConfig(&config)
	return &out, nil
}

func (s *configStore) GetByQuestionnaire(ctx context.Context, questionnaireID uint) ([]*models.ScoringConfiguration, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	var configs []*models.ScoringConfiguration
	for id := range s.repo.configs {
		config := s.repo.configs[id]
		if config.QuestionnaireID == questionnaireID {
			out := cloneConfig(&config)
			configs = append(configs, &out)
		}
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs, nil
}

func (s *configStore) GetDefault(ctx context.Context, questionnaireID uint) (*models.ScoringConfiguration, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	for id := range s.repo.configs {
		config := s.repo.configs[id]
		if config.QuestionnaireID == questionnaireID && config.IsDefault {
			out := cloneConfig(&config)
			return &out, nil
		}
	}
	return nil, repositories.ErrRecordNotFound
}

func (s *configStore) Update(ctx context.Context, config *models.ScoringConfiguration) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if _, ok := s.repo.configs[config.ID]; !ok {
		return repositories.ErrRecordNotFound
	}
	s.assignRuleIDs(config)
	s.repo.configs[config.ID] = cloneConfig(config)
	return nil
}

func (s *configStore) Delete(ctx context.Context, id uint) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if _, ok := s.repo.configs[id]; !ok {
		return repositories.ErrRecordNotFound
	}
	delete(s.repo.configs, id)
	for catID, cat := range s.repo.categories {
		if cat.ConfigID == id {
			delete(s.repo.categories, catID)
		}
	}
	return nil
}

func (s *configStore) UnsetDefaults(ctx context.Context, questionnaireID uint, exceptID uint) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	for id, config := range s.repo.configs {
		if config.QuestionnaireID == questionnaireID && id != exceptID && config.IsDefault {
			config.IsDefault = false
			s.repo.configs[id] = config
		}
	}
	return nil
}

func (s *configStore) assignRuleIDs(config *models.ScoringConfiguration) {
	for i := range config.Rules {
		config.Rules[i].ConfigID = config.ID
		if config.Rules[i].ID == 0 {
			config.Rules[i].ID = s.repo.nextRuleID
			s.repo.nextRuleID++
		}
	}
}

// ===== SCORE RESULTS =====

type resultStore struct {
	repo *Repository
}

func (s *resultStore) Upsert(ctx context.Context, result *models.ScoreResult) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	for id, existing := range s.repo.results {
		if existing.ResponseID == result.ResponseID && existing.ConfigID == result.ConfigID {
			result.ID = id
			s.repo.results[id] = *result
			return nil
		}
	}
	if result.ID == 0 {
		result.ID = s.repo.nextResultID
		s.repo.nextResultID++
	}
	s.repo.results[result.ID] = *result
	return nil
}

func (s *resultStore) GetByResponseAndConfig(ctx context.Context, responseID string, configID uint) (*models.ScoreResult, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	for id := range s.repo.results {
		result := s.repo.results[id]
		if result.ResponseID == responseID && result.ConfigID == configID {
			return &result, nil
		}
	}
	return nil, repositories.ErrRecordNotFound
}

func (s *resultStore) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.ScoreResult, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	var results []*models.ScoreResult
	for id := range s.repo.results {
		result := s.repo.results[id]
		if result.QuestionnaireID != filters.QuestionnaireID {
			continue
		}
		if filters.ConfigID != nil && result.ConfigID != *filters.ConfigID {
			continue
		}
		if filters.RiskLevel != nil && result.RiskLevel != *filters.RiskLevel {
			continue
		}
		if filters.DateFrom != nil && result.CalculatedAt.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && result.CalculatedAt.After(*filters.DateTo) {
			continue
		}
		results = append(results, &result)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CalculatedAt.Before(results[j].CalculatedAt)
	})
	if filters.Limit > 0 && len(results) > filters.Limit {
		results = results[:filters.Limit]
	}
	return results, nil
}

// ===== SCORE CATEGORIES =====

type categoryStore struct {
	repo *Repository
}

func (s *categoryStore) Create(ctx context.Context, category *models.ScoreCategory) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if category.ID == 0 {
		category.ID = s.repo.nextCategoryID
		s.repo.nextCategoryID++
	}
	s.repo.categories[category.ID] = *category
	return nil
}

func (s *categoryStore) GetByConfig(ctx context.Context, configID uint) ([]*models.ScoreCategory, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	var categories []*models.ScoreCategory
	for id := range s.repo.categories {
		category := s.repo.categories[id]
		if category.ConfigID == configID {
			categories = append(categories, &category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *categoryStore) Delete(ctx context.Context, id uint) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if _, ok := s.repo.categories[id]; !ok {
		return repositories.ErrRecordNotFound
	}
	delete(s.repo.categories, id)
	return nil
}

func cloneConfig(config *models.ScoringConfiguration) models.ScoringConfiguration {
	out := *config
	out.Rules = make([]models.ScoringRule, len(config.Rules))
	copy(out.Rules, config.Rules)
	return out
}
