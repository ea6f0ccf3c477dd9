package postgres

import (
	"context"

	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm/PostgreSQL implementation of
// repositories.Repository.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ScoringConfig() repositories.ScoringConfigRepository {
	return &ScoringConfigPostgreSQL{db: r.db}
}

func (r *Repository) ScoreResult() repositories.ScoreResultRepository {
	return &ScoreResultPostgreSQL{db: r.db}
}

func (r *Repository) ScoreCategory() repositories.ScoreCategoryRepository {
	return &ScoreCategoryPostgreSQL{db: r.db}
}

func (r *Repository) Transaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// AutoMigrate creates or updates the store's tables.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.Question{},
		&models.ScoringConfiguration{},
		&models.ScoringRule{},
		&models.ScoreCategory{},
		&models.ScoreResult{},
	)
}

// ===== SCORING CONFIGURATIONS =====

type ScoringConfigPostgreSQL struct {
	db *gorm.DB
}

func (s *ScoringConfigPostgreSQL) Create(ctx context.Context, config *models.ScoringConfiguration) error {
	return s.db.WithContext(ctx).Create(config).Error
}

func (s *ScoringConfigPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ScoringConfiguration, error) {
	var config models.ScoringConfiguration
	if err := s.db.WithContext(ctx).Preload("Rules").First(&config, id).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (s *ScoringConfigPostgreSQL) GetByQuestionnaire(ctx context.Context, questionnaireID uint) ([]*models.ScoringConfiguration, error) {
	var configs []*models.ScoringConfiguration
	err := s.db.WithContext(ctx).
		Preload("Rules").
		Where("questionnaire_id = ?", questionnaireID).
		Order("created_at").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (s *ScoringConfigPostgreSQL) GetDefault(ctx context.Context, questionnaireID uint) (*models.ScoringConfiguration, error) {
	var config models.ScoringConfiguration
	err := s.db.WithContext(ctx).
		Preload("Rules").
		Where("questionnaire_id = ? AND is_default = ?", questionnaireID, true).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (s *ScoringConfigPostgreSQL) Update(ctx context.Context, config *models.ScoringConfiguration) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(config).Error
}

func (s *ScoringConfigPostgreSQL) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("config_id = ?", id).Delete(&models.ScoringRule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("config_id = ?", id).Delete(&models.ScoreCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ScoringConfiguration{}, id).Error
	})
}

func (s *ScoringConfigPostgreSQL) UnsetDefaults(ctx context.Context, questionnaireID uint, exceptID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.ScoringConfiguration{}).
		Where("questionnaire_id = ? AND id <> ? AND is_default = ?", questionnaireID, exceptID, true).
		Update("is_default", false).Error
}

// ===== SCORE RESULTS =====

type ScoreResultPostgreSQL struct {
	db *gorm.DB
}

func (s *ScoreResultPostgreSQL) Upsert(ctx context.Context, result *models.ScoreResult) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "response_id"}, {Name: "config_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_score", "normalized_score", "percentage",
				"risk_level", "risk_label", "risk_color", "actions",
				"category_scores", "visualization_data", "calculated_at",
			}),
		}).
		Create(result).Error
}

func (s *ScoreResultPostgreSQL) GetByResponseAndConfig(ctx context.Context, responseID string, configID uint) (*models.ScoreResult, error) {
	var result models.ScoreResult
	err := s.db.WithContext(ctx).
		Where("response_id = ? AND config_id = ?", responseID, configID).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ScoreResultPostgreSQL) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.ScoreResult, error) {
	query := s.db.WithContext(ctx).
		Model(&models.ScoreResult{}).
		Where("questionnaire_id = ?", filters.QuestionnaireID)

	if filters.ConfigID != nil {
		query = query.Where("config_id = ?", *filters.ConfigID)
	}
	if filters.RiskLevel != nil {
		query = query.Where("risk_level = ?", *filters.RiskLevel)
	}
	if filters.DateFrom != nil {
		query = query.Where("calculated_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("calculated_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var results []*models.ScoreResult
	if err := query.Order("calculated_at").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ===== SCORE CATEGORIES =====

type ScoreCategoryPostgreSQL struct {
	db *gorm.DB
}

func (s *ScoreCategoryPostgreSQL) Create(ctx context.Context, category *models.ScoreCategory) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *ScoreCategoryPostgreSQL) GetByConfig(ctx context.Context, configID uint) ([]*models.ScoreCategory, error) {
	var categories []*models.ScoreCategory
	err := s.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("id").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *ScoreCategoryPostgreSQL) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.ScoreCategory{}, id).Error
}
