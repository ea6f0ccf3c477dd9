package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/vantagecare/questionnaire-service/internal/models"
)

type EventType string

const (
	EventScoreCalculated      EventType = "score.calculated"
	EventConfigurationChanged EventType = "scoring.configuration.changed"
	EventConfigurationDeleted EventType = "scoring.configuration.deleted"
)

// ScoringEvent is the envelope published to the event bus.
type ScoringEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ScoreCalculatedEvent is emitted after a score result is persisted.
type ScoreCalculatedEvent struct {
	ResponseID      string           `json:"response_id"`
	QuestionnaireID uint             `json:"questionnaire_id"`
	ConfigID        uint             `json:"config_id"`
	TotalScore      float64          `json:"total_score"`
	NormalizedScore float64          `json:"normalized_score"`
	RiskLevel       models.RiskLevel `json:"risk_level"`
	RiskLabel       string           `json:"risk_label"`
	CalculatedAt    time.Time        `json:"calculated_at"`
}

// ConfigurationChangedEvent is emitted on configuration create/update/
// default promotion so caches and downstream consumers can refresh.
type ConfigurationChangedEvent struct {
	ConfigID        uint   `json:"config_id"`
	QuestionnaireID uint   `json:"questionnaire_id"`
	IsDefault       bool   `json:"is_default"`
	Change          string `json:"change"` // created, updated, deleted, promoted
}

// NewScoringEvent wraps payload data in the standard envelope.
func NewScoringEvent(eventType EventType, data interface{}) *ScoringEvent {
	return &ScoringEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "questionnaire-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
