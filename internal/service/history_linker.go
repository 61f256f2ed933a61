package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
	"gorm.io/gorm"
)

// HistoryLinker resolves the most recent prior completed record for the
// same subject+template and attaches trend information. "Most recent" is a
// query over creation timestamps, never a mutable latest pointer, so
// concurrent submissions for the same pair cannot race each other into a
// lost update.
type HistoryLinker interface {
	// Link runs once per submission, right after the record is created.
	// It sets previous_record_id (or leaves it null for a first
	// submission) and caches a trend summary against the baseline
	// overall. Returns the previous record's ID when one exists.
	Link(record *model.ScoreRecord) (*string, error)
	// Summarize recomputes the trend against an already-linked previous
	// record, used when the final overall is known at the terminal
	// transition. previous_record_id itself is never relinked.
	Summarize(previousID *string, overall float64) *model.HistoricalSummary
}

type historyLinker struct {
	recordRepo repository.ScoreRecordRepository
}

func NewHistoryLinker(recordRepo repository.ScoreRecordRepository) HistoryLinker {
	return &historyLinker{recordRepo: recordRepo}
}

func (h *historyLinker) Link(record *model.ScoreRecord) (*string, error) {
	previous, err := h.recordRepo.FindLatestTerminalBefore(record.SubjectID, record.TemplateID, record.CreatedAt, record.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First submission for this pair: fields stay null, which is
			// distinct from a computed delta of zero.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve previous record for subject %s: %w", record.SubjectID, err)
	}

	summary := trendSummary(previous, record.Scores.Data().OverallScore)
	if err := h.recordRepo.SetHistory(record.ID, previous.ID, summary); err != nil {
		return nil, fmt.Errorf("failed to attach history to record %s: %w", record.ID, err)
	}
	log.Info().
		Str("recordID", record.ID).
		Str("previousRecordID", previous.ID).
		Float64("delta", summary.Delta).
		Msg("History linked")
	return &previous.ID, nil
}

func (h *historyLinker) Summarize(previousID *string, overall float64) *model.HistoricalSummary {
	if previousID == nil {
		return nil
	}
	previous, err := h.recordRepo.FindByID(*previousID)
	if err != nil {
		log.Warn().Err(err).Str("previousRecordID", *previousID).Msg("Could not reload previous record for trend summary")
		return nil
	}
	return trendSummary(previous, overall)
}

func trendSummary(previous *model.ScoreRecord, overall float64) *model.HistoricalSummary {
	prevScores := previous.Scores.Data()
	delta := math.Round((overall-prevScores.OverallScore)*10) / 10

	prevBand := prevScores.Band
	if prevBand == "" {
		prevBand = ScoreBand(prevScores.OverallScore)
	}
	newBand := ScoreBand(overall)
	transition := "steady"
	if prevBand != newBand {
		transition = prevBand + "→" + newBand
	}
	return &model.HistoricalSummary{Delta: delta, BandTransition: transition}
}
