package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	ShortText            QuestionType = "short_text"
	LongText             QuestionType = "long_text"
	RichText             QuestionType = "rich_text"
	Number               QuestionType = "number"
	Decimal              QuestionType = "decimal"
	SingleChoice         QuestionType = "single_choice"
	MultipleChoice       QuestionType = "multiple_choice"
	Dropdown             QuestionType = "dropdown"
	Rating               QuestionType = "rating"
	StarRating           QuestionType = "star_rating"
	Likert               QuestionType = "likert"
	NPS                  QuestionType = "nps"
	SemanticDifferential QuestionType = "semantic_differential"
	Slider               QuestionType = "slider"
	Date                 QuestionType = "date"
	Time                 QuestionType = "time"
	DateTime             QuestionType = "datetime"
	FileUpload           QuestionType = "file_upload"
	ImageUpload          QuestionType = "image_upload"
	Boolean              QuestionType = "boolean"
	Country              QuestionType = "country"
	State                QuestionType = "state"
	City                 QuestionType = "city"
)

// AllQuestionTypes lists every supported variant; keep in sync with the
// consts above (used by the request validator and exhaustiveness tests).
var AllQuestionTypes = []QuestionType{
	ShortText, LongText, RichText,
	Number, Decimal,
	SingleChoice, MultipleChoice, Dropdown,
	Rating, StarRating, Likert, NPS, SemanticDifferential, Slider,
	Date, Time, DateTime,
	FileUpload, ImageUpload,
	Boolean,
	Country, State, City,
}

// IsTextType reports whether answers to this type are free text subject to
// length/pattern rules.
func (t QuestionType) IsTextType() bool {
	return t == ShortText || t == LongText || t == RichText
}

// IsNumericType reports whether answers carry a numeric value usable for
// range rules and direct scoring.
func (t QuestionType) IsNumericType() bool {
	switch t {
	case Number, Decimal, Rating, StarRating, NPS, SemanticDifferential, Slider:
		return true
	}
	return false
}

// IsChoiceType reports whether answers select from the question's options.
func (t QuestionType) IsChoiceType() bool {
	return t == SingleChoice || t == MultipleChoice || t == Dropdown || t == Likert
}

// IsFileType reports whether answers are uploaded file descriptors.
func (t QuestionType) IsFileType() bool {
	return t == FileUpload || t == ImageUpload
}

// ValidationRules is the per-question constraint bag. Only fields relevant
// to the question's type are honored; everything else is ignored.
type ValidationRules struct {
	// Text rules
	MinLength *int    `json:"min_length,omitempty"`
	MaxLength *int    `json:"max_length,omitempty"`
	Pattern   *string `json:"pattern,omitempty"`

	// Multi-select rules
	MinSelections *int `json:"min_selections,omitempty"`
	MaxSelections *int `json:"max_selections,omitempty"`

	// Numeric rules
	MinValue      *float64 `json:"min_value,omitempty"`
	MaxValue      *float64 `json:"max_value,omitempty"`
	DecimalPlaces *int     `json:"decimal_places,omitempty"`

	// Date rules (ISO 8601 dates, boundary-inclusive)
	MinDate *string `json:"min_date,omitempty"`
	MaxDate *string `json:"max_date,omitempty"`

	// File rules
	MaxFileSize      *int64   `json:"max_file_size,omitempty"` // bytes, per file
	AllowedFileTypes []string `json:"allowed_file_types,omitempty"`
	MaxFiles         *int     `json:"max_files,omitempty"`
}

type Question struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	QuestionnaireID  uint             `json:"questionnaire_id" gorm:"not null;index"`
	Type             QuestionType     `json:"type" gorm:"not null;size:30" validate:"required,question_type"`
	Text             string           `json:"text" gorm:"not null;type:text" validate:"required"`
	Required         bool             `json:"required" gorm:"default:false"`
	Order            int              `json:"order" gorm:"not null;index"`
	Options          []string         `json:"options" gorm:"serializer:json"`
	ValidationRules  *ValidationRules `json:"validation_rules" gorm:"serializer:json"`
	ConditionalLogic *ConditionalRule `json:"conditional_logic" gorm:"serializer:json"`

	// Free-form metadata; scoring hints live under the "scoring" key as an
	// ordered points array aligned to Options.
	Metadata datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// questionMetadata mirrors the metadata shape consumed by the scoring engine.
type questionMetadata struct {
	Scoring *struct {
		Points []float64 `json:"points"`
	} `json:"scoring"`
}

// ScoringPoints returns the points array aligned to Options from the
// question metadata, or nil when no scoring hints are configured.
func (q *Question) ScoringPoints() []float64 {
	if len(q.Metadata) == 0 {
		return nil
	}
	var meta questionMetadata
	if err := json.Unmarshal(q.Metadata, &meta); err != nil {
		return nil
	}
	if meta.Scoring == nil || len(meta.Scoring.Points) == 0 {
		return nil
	}
	return meta.Scoring.Points
}

// OptionIndex returns the zero-based index of value among the question's
// options, or -1 when the value is not an option.
func (q *Question) OptionIndex(value string) int {
	for i, opt := range q.Options {
		if opt == value {
			return i
		}
	}
	return -1
}
