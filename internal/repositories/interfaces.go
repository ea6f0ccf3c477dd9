package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vantagecare/questionnaire-service/internal/models"
	"gorm.io/gorm"
)

// ErrRecordNotFound is the backend-neutral not-found error. Implementations
// return it (or gorm.ErrRecordNotFound) for missing rows.
var ErrRecordNotFound = errors.New("record not found")

// IsNotFoundError reports whether err is a missing-row condition from any
// backend.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type ResultFilters struct {
	QuestionnaireID uint              `json:"questionnaire_id"`
	ConfigID        *uint             `json:"config_id"`
	RiskLevel       *models.RiskLevel `json:"risk_level"`
	DateFrom        *time.Time        `json:"date_from"`
	DateTo          *time.Time        `json:"date_to"`
	Limit           int               `json:"limit"`
	Offset          int               `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type ScoringConfigRepository interface {
	Create(ctx context.Context, config *models.ScoringConfiguration) error
	GetByID(ctx context.Context, id uint) (*models.ScoringConfiguration, error)
	GetByQuestionnaire(ctx context.Context, questionnaireID uint) ([]*models.ScoringConfiguration, error)
	GetDefault(ctx context.Context, questionnaireID uint) (*models.ScoringConfiguration, error)
	Update(ctx context.Context, config *models.ScoringConfiguration) error
	Delete(ctx context.Context, id uint) error

	// UnsetDefaults clears is_default on every configuration of the
	// questionnaire except exceptID. Run inside the same transaction as
	// the write that sets a new default.
	UnsetDefaults(ctx context.Context, questionnaireID uint, exceptID uint) error
}

type ScoreResultRepository interface {
	// Upsert keeps at most one result per (response, configuration) pair.
	Upsert(ctx context.Context, result *models.ScoreResult) error
	GetByResponseAndConfig(ctx context.Context, responseID string, configID uint) (*models.ScoreResult, error)
	List(ctx context.Context, filters ResultFilters) ([]*models.ScoreResult, error)
}

type ScoreCategoryRepository interface {
	Create(ctx context.Context, category *models.ScoreCategory) error
	GetByConfig(ctx context.Context, configID uint) ([]*models.ScoreCategory, error)
	Delete(ctx context.Context, id uint) error
}

// Repository aggregates the persistence surface of the scoring store.
// Postgres and memory implementations live in subpackages.
type Repository interface {
	ScoringConfig() ScoringConfigRepository
	ScoreResult() ScoreResultRepository
	ScoreCategory() ScoreCategoryRepository

	// Transaction runs fn atomically. The Repository passed to fn is bound
	// to the transaction; returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(Repository) error) error
}
