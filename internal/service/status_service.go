package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/internal/dto"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("score record not found")

// StatusTracker is the read side of the pipeline: lifecycle state for
// polling clients plus the full record and the subject's history.
// Reads are always consistent because the terminal mutation is applied as
// a single record update, never field-by-field.
type StatusTracker interface {
	GetStatus(recordID string) (*dto.RecordStatusDTO, error)
	GetRecord(recordID string) (*dto.ScoreRecordDTO, error)
	ListBySubject(subjectID, templateID string, limit int) ([]dto.ScoreRecordSummaryDTO, error)
}

type statusTracker struct {
	recordRepo repository.ScoreRecordRepository
}

func NewStatusTracker(recordRepo repository.ScoreRecordRepository) StatusTracker {
	return &statusTracker{recordRepo: recordRepo}
}

func (t *statusTracker) GetStatus(recordID string) (*dto.RecordStatusDTO, error) {
	record, err := t.recordRepo.FindByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
		}
		return nil, fmt.Errorf("failed to load record %s: %w", recordID, err)
	}

	scores := record.Scores.Data()
	hasScores := len(scores.CategoryScores) > 0
	status := &dto.RecordStatusDTO{
		ID:        record.ID,
		Status:    record.Status,
		HasScores: hasScores,
		UpdatedAt: record.UpdatedAt,
	}
	if hasScores {
		overall := scores.OverallScore
		status.OverallScore = &overall
	}
	return status, nil
}

func (t *statusTracker) GetRecord(recordID string) (*dto.ScoreRecordDTO, error) {
	record, err := t.recordRepo.FindByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
		}
		return nil, fmt.Errorf("failed to load record %s: %w", recordID, err)
	}
	return recordToDTO(record), nil
}

func (t *statusTracker) ListBySubject(subjectID, templateID string, limit int) ([]dto.ScoreRecordSummaryDTO, error) {
	records, err := t.recordRepo.FindAllBySubjectAndTemplate(subjectID, templateID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for subject %s: %w", subjectID, err)
	}

	summaries := make([]dto.ScoreRecordSummaryDTO, 0, len(records))
	for i := range records {
		record := &records[i]
		scores := record.Scores.Data()
		var summary dto.ScoreRecordSummaryDTO
		if err := copier.Copy(&summary, record); err != nil {
			log.Error().Err(err).Str("recordID", record.ID).Msg("ListBySubject: failed to copy record to summary")
			continue
		}
		summary.OverallScore = scores.OverallScore
		summary.OverallScoreDisplay = scores.OverallScoreDisplay
		summary.Band = scores.Band
		summary.TopN = scores.TopN
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func recordToDTO(record *model.ScoreRecord) *dto.ScoreRecordDTO {
	out := &dto.ScoreRecordDTO{
		ID:               record.ID,
		SubjectID:        record.SubjectID,
		TemplateID:       record.TemplateID,
		TemplateVersion:  record.TemplateVersion,
		Status:           record.Status,
		Scores:           record.Scores.Data(),
		PreviousRecordID: record.PreviousRecordID,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
	if record.HistoricalSummary != nil {
		summary := record.HistoricalSummary.Data()
		out.HistoricalSummary = &summary
	}
	return out
}
