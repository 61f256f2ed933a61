package dto

import (
	"time"

	"github.com/trooth-app/assessment-api/internal/model"
)

// SubmitAssessmentDTO is the request body for submitting a finalized
// answer set. Keys of Answers are question IDs; values are the raw answer
// (an option ID or option text for multiple-choice, free text otherwise).
type SubmitAssessmentDTO struct {
	SubjectID  string            `json:"subject_id" binding:"required"`
	TemplateID string            `json:"template_id" binding:"required"`
	Answers    map[string]string `json:"answers" binding:"required"`
}

// SubmissionAcceptedDTO is returned immediately after baseline scoring,
// before enrichment has run.
type SubmissionAcceptedDTO struct {
	ID               string             `json:"id"`
	SubjectID        string             `json:"subject_id"`
	TemplateID       string             `json:"template_id"`
	TemplateVersion  int                `json:"template_version"`
	Status           string             `json:"status"`
	Scores           model.ScorePayload `json:"scores"`
	PreviousRecordID *string            `json:"previous_record_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// RecordStatusDTO is the polling shape: enough for a client to decide
// whether to re-render, nothing more.
type RecordStatusDTO struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	HasScores    bool      `json:"has_scores"`
	OverallScore *float64  `json:"overall_score,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScoreRecordDTO is the full record shape.
type ScoreRecordDTO struct {
	ID                string                    `json:"id"`
	SubjectID         string                    `json:"subject_id"`
	TemplateID        string                    `json:"template_id"`
	TemplateVersion   int                       `json:"template_version"`
	Status            string                    `json:"status"`
	Scores            model.ScorePayload        `json:"scores"`
	PreviousRecordID  *string                   `json:"previous_record_id,omitempty"`
	HistoricalSummary *model.HistoricalSummary  `json:"historical_summary,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// ScoreRecordSummaryDTO is the history-listing shape.
type ScoreRecordSummaryDTO struct {
	ID                  string               `json:"id"`
	TemplateID          string               `json:"template_id"`
	Status              string               `json:"status"`
	OverallScore        float64              `json:"overall_score"`
	OverallScoreDisplay int                  `json:"overall_score_display"`
	Band                string               `json:"band"`
	TopN                []model.CategoryRank `json:"top_n"`
	CreatedAt           time.Time            `json:"created_at"`
}
