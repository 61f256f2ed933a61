package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScoreRecord lifecycle states. Transitions are one-directional:
// processing -> done or processing -> error. Terminal records are never
// re-entered; a resubmission creates a new record.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// Provenance tags carried on the record and on individual category
// scores. Enriched categories carry the scoring backend's own tag
// instead of one of these.
const (
	ModelTagBaseline = "baseline_heuristic_v1"
	ModelTagFallback = "baseline_fallback"
)

// ScoreRecord is the durable artifact of one accepted submission. It is
// created at "processing" with baseline scores attached and mutated exactly
// once more by the enrichment worker (the terminal transition).
type ScoreRecord struct {
	ID                string                                 `gorm:"primarykey" json:"id"`
	SubjectID         string                                 `json:"subject_id" gorm:"not null;index:idx_subject_template"`
	TemplateID        string                                 `json:"template_id" gorm:"not null;index:idx_subject_template"`
	TemplateVersion   int                                    `json:"template_version" gorm:"not null"`
	Status            string                                 `json:"status" gorm:"not null;default:'processing'"`
	Answers           datatypes.JSONType[map[string]string]  `json:"answers"`
	Scores            datatypes.JSONType[ScorePayload]       `json:"scores"`
	PreviousRecordID  *string                                `json:"previous_record_id,omitempty"`
	HistoricalSummary *datatypes.JSONType[HistoricalSummary] `json:"historical_summary,omitempty"`
	CreatedAt         time.Time                              `json:"created_at"`
	UpdatedAt         time.Time                              `json:"updated_at"`
	DeletedAt         gorm.DeletedAt                         `gorm:"index" json:"-"`
}

// ScorePayload is the structured scores blob stored on a ScoreRecord.
// OverallScore keeps one-decimal precision; OverallScoreDisplay is the
// round-half-up integer clients render.
type ScorePayload struct {
	OverallScore          float64                  `json:"overall_score"`
	OverallScoreDisplay   int                      `json:"overall_score_display"`
	Band                  string                   `json:"band"`
	CategoryScores        map[string]CategoryScore `json:"category_scores"`
	TopN                  []CategoryRank           `json:"top_n"`
	QuestionFeedback      []QuestionFeedback       `json:"question_feedback"`
	RecommendationSummary string                   `json:"recommendation_summary"`
	ModelTag              string                   `json:"model_tag"`
}

// CategoryScore pairs a category's 1-10 score with its provenance so a
// record can mix enriched and baseline-fallback categories.
type CategoryScore struct {
	Score          int    `json:"score"`
	ModelTag       string `json:"model_tag"`
	Recommendation string `json:"recommendation,omitempty"`
}

type CategoryRank struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// QuestionFeedback is keyed by question ID; Correct is nil for open-ended
// questions where correctness does not apply.
type QuestionFeedback struct {
	QuestionID  string `json:"question_id"`
	Correct     *bool  `json:"correct"`
	Explanation string `json:"explanation"`
}

// HistoricalSummary caches the trend versus the previous record for the
// same subject and template. Absent (nil on the record) means no prior
// record existed, which is distinct from a computed delta of zero.
type HistoricalSummary struct {
	Delta          float64 `json:"delta"`
	BandTransition string  `json:"band_transition"`
}
