package service

import (
	"context"
	"testing"
	"time"

	"github.com/trooth-app/assessment-api/internal/model"
)

func finishPrayer(score int) map[string]*CategoryScoreResult {
	return map[string]*CategoryScoreResult{
		"Prayer": {
			Score:          score,
			Recommendation: "noted",
			QuestionFeedback: []BackendFeedback{
				{QuestionID: "q-prayer-mc", Explanation: "ok"},
				{QuestionID: "q-prayer-open", Explanation: "ok"},
			},
		},
		"Scripture": {
			Score:          score,
			Recommendation: "noted",
			QuestionFeedback: []BackendFeedback{
				{QuestionID: "q-scripture-mc", Explanation: "ok"},
			},
		},
	}
}

func TestFirstSubmissionHasNoHistory(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(finishPrayer(8)))
	recordID := f.submit(t, "subject-1")

	record, err := f.recordRepo.FindByID(recordID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if record.PreviousRecordID != nil {
		t.Fatalf("previous_record_id = %v, want nil for first submission", *record.PreviousRecordID)
	}
	if record.HistoricalSummary != nil {
		t.Fatalf("historical_summary should be absent for first submission")
	}
}

func TestSecondSubmissionLinksToPrevious(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(finishPrayer(8)))

	firstID := f.submit(t, "subject-1")
	if err := f.worker.Process(context.Background(), firstID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	// Creation timestamps must be strictly ordered for the history query.
	time.Sleep(5 * time.Millisecond)

	f.backend.mu.Lock()
	f.backend.results = finishPrayer(9)
	f.backend.mu.Unlock()

	secondID := f.submit(t, "subject-1")
	if err := f.worker.Process(context.Background(), secondID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	record, err := f.recordRepo.FindByID(secondID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if record.PreviousRecordID == nil || *record.PreviousRecordID != firstID {
		t.Fatalf("previous_record_id = %v, want %s", record.PreviousRecordID, firstID)
	}
	if record.HistoricalSummary == nil {
		t.Fatal("historical_summary missing on linked record")
	}
	summary := record.HistoricalSummary.Data()
	// Both passes fully enriched: 9.0 vs 8.0 overall.
	if summary.Delta != 1.0 {
		t.Fatalf("delta = %v, want 1.0", summary.Delta)
	}
	if summary.BandTransition != "Maturing→Flourishing" {
		t.Fatalf("band_transition = %q", summary.BandTransition)
	}
}

func TestErrorRecordsStillCountAsHistory(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(nil))

	firstID := f.submit(t, "subject-1")
	if err := f.worker.Process(context.Background(), firstID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	record, _ := f.recordRepo.FindByID(firstID)
	if record.Status != model.StatusError {
		t.Fatalf("status = %q, want error", record.Status)
	}

	time.Sleep(5 * time.Millisecond)

	secondID := f.submit(t, "subject-1")
	second, err := f.recordRepo.FindByID(secondID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if second.PreviousRecordID == nil || *second.PreviousRecordID != firstID {
		t.Fatalf("previous_record_id = %v, want error record %s", second.PreviousRecordID, firstID)
	}
}

func TestHistoryIgnoresOtherSubjectsAndProcessingRecords(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(finishPrayer(8)))

	// A still-processing record and another subject's finished record
	// must both be invisible to the link.
	f.submit(t, "subject-1")
	otherID := f.submit(t, "subject-2")
	if err := f.worker.Process(context.Background(), otherID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	recordID := f.submit(t, "subject-1")
	record, err := f.recordRepo.FindByID(recordID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if record.PreviousRecordID != nil {
		t.Fatalf("previous_record_id = %v, want nil (no terminal record for this subject)", *record.PreviousRecordID)
	}
}

func TestSummarizeSteadyTransition(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(finishPrayer(8)))

	firstID := f.submit(t, "subject-1")
	if err := f.worker.Process(context.Background(), firstID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	linker := NewHistoryLinker(f.recordRepo)
	summary := linker.Summarize(&firstID, 8.1)
	if summary == nil {
		t.Fatal("Summarize returned nil for an existing previous record")
	}
	if summary.Delta != 0.1 {
		t.Fatalf("delta = %v, want 0.1", summary.Delta)
	}
	if summary.BandTransition != "steady" {
		t.Fatalf("band_transition = %q, want steady", summary.BandTransition)
	}
	if got := linker.Summarize(nil, 8.1); got != nil {
		t.Fatalf("Summarize(nil) = %v, want nil", got)
	}
}
