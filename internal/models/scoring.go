package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScoringMethod string

const (
	MethodSum      ScoringMethod = "sum"
	MethodAverage  ScoringMethod = "average"
	MethodWeighted ScoringMethod = "weighted"
	MethodCustom   ScoringMethod = "custom"
)

// RiskLevel is the ordered classification attached to a score range.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels none < low < medium < high < critical.
// Unknown levels rank below none.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskNone:
		return 0
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return -1
}

type ScoringConfiguration struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	QuestionnaireID uint          `json:"questionnaire_id" gorm:"not null;index:idx_config_questionnaire"`
	Name            string        `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description     *string       `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	ScoringMethod   ScoringMethod `json:"scoring_method" gorm:"not null;size:20" validate:"required,scoring_method"`
	MinScore        float64       `json:"min_score"`
	MaxScore        float64       `json:"max_score"`

	Rules []ScoringRule `json:"rules" gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE"`

	// Weighted method only: question id (as string key) -> weight,
	// defaulting to 1 for questions without an entry.
	Weights map[string]float64 `json:"weights" gorm:"serializer:json"`

	// Custom method only: arithmetic formula over {total} plus the
	// variables below.
	Formula          *string            `json:"formula" gorm:"size:500"`
	FormulaVariables map[string]float64 `json:"formula_variables" gorm:"serializer:json"`

	IsDefault bool `json:"is_default" gorm:"default:false;index:idx_config_questionnaire"`
	IsActive  bool `json:"is_active" gorm:"default:true"`

	CreatedBy string         `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ScoringConfiguration) TableName() string {
	return "scoring_configurations"
}

// RuleFor returns the rule whose inclusive range contains score, or nil.
func (c *ScoringConfiguration) RuleFor(score float64) *ScoringRule {
	for i := range c.Rules {
		r := &c.Rules[i]
		if score >= r.MinScore && score <= r.MaxScore {
			return r
		}
	}
	return nil
}

// ScoringRule maps one inclusive score range to a risk classification.
// Ranges of a valid configuration are disjoint and jointly cover the
// configuration's [MinScore, MaxScore].
type ScoringRule struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	ConfigID uint    `json:"config_id" gorm:"not null;index"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`

	RiskLevel RiskLevel `json:"risk_level" gorm:"not null;size:20" validate:"required,risk_level"`
	Label     string    `json:"label" gorm:"not null;size:200" validate:"required"`
	Color     string    `json:"color" gorm:"size:20"`
	Actions   []string  `json:"actions" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ScoringRule) TableName() string {
	return "scoring_rules"
}

// ScoreCategory groups questions into a named sub-scale of a configuration
// (e.g. "somatic symptoms") for per-category breakdowns.
type ScoreCategory struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	ConfigID    uint    `json:"config_id" gorm:"not null;index"`
	Name        string  `json:"name" gorm:"not null;size:200" validate:"required"`
	QuestionIDs []uint  `json:"question_ids" gorm:"serializer:json"`
	Weight      float64 `json:"weight" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ScoreCategory) TableName() string {
	return "score_categories"
}

// CategoryScore is the computed sub-scale total for one ScoreCategory,
// embedded in the result a category breakdown was calculated for.
type CategoryScore struct {
	Name     string  `json:"name"`
	RawScore float64 `json:"raw_score"`
	Weight   float64 `json:"weight"`
	Score    float64 `json:"score"`
}

// ScoreResult is the persisted output of one scoring run. There is at most
// one live result per (response, configuration) pair; recalculation
// overwrites it.
type ScoreResult struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ResponseID string `json:"response_id" gorm:"not null;size:64;uniqueIndex:idx_result_response_config"`
	ConfigID   uint   `json:"config_id" gorm:"not null;uniqueIndex:idx_result_response_config;index"`

	QuestionnaireID uint `json:"questionnaire_id" gorm:"not null;index"`

	TotalScore      float64 `json:"total_score"`
	NormalizedScore float64 `json:"normalized_score"`
	Percentage      float64 `json:"percentage"`

	RiskLevel RiskLevel `json:"risk_level" gorm:"size:20"`
	RiskLabel string    `json:"risk_label" gorm:"size:200"`
	RiskColor string    `json:"risk_color" gorm:"size:20"`
	Actions   []string  `json:"actions" gorm:"serializer:json"`

	CategoryScores []CategoryScore `json:"category_scores,omitempty" gorm:"serializer:json"`

	VisualizationData datatypes.JSON `json:"visualization_data" gorm:"type:jsonb"`

	CalculatedAt time.Time `json:"calculated_at"`
}

func (ScoreResult) TableName() string {
	return "score_results"
}

// VisualizationZone is one scoring-rule band expressed as a percentage of
// the configuration range, for gauge-style rendering.
type VisualizationZone struct {
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Color     string    `json:"color"`
	Label     string    `json:"label"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// VisualizationData is the chart-ready payload embedded in a ScoreResult.
type VisualizationData struct {
	Score             float64             `json:"score"`
	MaxScore          float64             `json:"max_score"`
	MinScore          float64             `json:"min_score"`
	RiskLevel         RiskLevel           `json:"risk_level"`
	Label             string              `json:"label"`
	VisualizationType string              `json:"visualization_type"`
	Percentage        float64             `json:"percentage"`
	Zones             []VisualizationZone `json:"zones"`
}
