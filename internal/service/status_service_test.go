package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trooth-app/assessment-api/internal/model"
)

func TestGetStatusWhileProcessing(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(nil))
	recordID := f.submit(t, "subject-1")

	tracker := NewStatusTracker(f.recordRepo)
	status, err := tracker.GetStatus(recordID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status.Status != model.StatusProcessing {
		t.Fatalf("status = %q, want processing", status.Status)
	}
	// Baseline scores are attached at submission, so the preview exists
	// before enrichment has run.
	if !status.HasScores {
		t.Fatal("has_scores = false, want baseline preview")
	}
	if status.OverallScore == nil {
		t.Fatal("overall_score missing from processing status")
	}
}

func TestGetStatusUnknownRecord(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(nil))

	tracker := NewStatusTracker(f.recordRepo)
	if _, err := tracker.GetStatus("no-such-record"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
	if _, err := tracker.GetRecord("no-such-record"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestGetRecordAfterEnrichment(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(finishPrayer(8)))
	recordID := f.submit(t, "subject-1")
	if err := f.worker.Process(context.Background(), recordID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	tracker := NewStatusTracker(f.recordRepo)
	record, err := tracker.GetRecord(recordID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if record.Status != model.StatusDone {
		t.Fatalf("status = %q, want done", record.Status)
	}
	if record.Scores.ModelTag != f.backend.ModelTag() {
		t.Fatalf("model_tag = %q, want backend tag", record.Scores.ModelTag)
	}
	if record.TemplateVersion != 1 {
		t.Fatalf("template_version = %d, want 1", record.TemplateVersion)
	}
}

func TestListBySubjectNewestFirst(t *testing.T) {
	f := newWorkerFixture(t, newFakeBackend(finishPrayer(8)))

	firstID := f.submit(t, "subject-1")
	if err := f.worker.Process(context.Background(), firstID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	secondID := f.submit(t, "subject-1")
	f.submit(t, "subject-2")

	tracker := NewStatusTracker(f.recordRepo)
	summaries, err := tracker.ListBySubject("subject-1", "", 0)
	if err != nil {
		t.Fatalf("ListBySubject failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if summaries[0].ID != secondID || summaries[1].ID != firstID {
		t.Fatalf("order = [%s %s], want newest first", summaries[0].ID, summaries[1].ID)
	}
	if summaries[1].OverallScore != 8.0 {
		t.Fatalf("finished record overall = %v, want 8.0", summaries[1].OverallScore)
	}

	limited, err := tracker.ListBySubject("subject-1", "", 1)
	if err != nil {
		t.Fatalf("ListBySubject with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != secondID {
		t.Fatalf("limited = %v, want only the newest record", limited)
	}
}
