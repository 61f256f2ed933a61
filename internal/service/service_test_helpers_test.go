package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trooth-app/assessment-api/config"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "assessment-test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.AssessmentTemplate{},
		&model.Question{},
		&model.QuestionOption{},
		&model.ScoreRecord{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testScoringConfig() *config.Config {
	return &config.Config{
		Scoring: config.Scoring{
			MaxRetries:          3,
			RetryBaseDelay:      time.Millisecond,
			CallTimeout:         time.Second,
			RunBudget:           5 * time.Second,
			CategoryConcurrency: 4,
			WorkerCount:         1,
			QueueSize:           8,
		},
	}
}

// seedTemplate persists a two-category template: one MC question per
// category plus one open-ended question under Prayer.
func seedTemplate(t *testing.T, templateRepo repository.TemplateRepository) *model.AssessmentTemplate {
	t.Helper()
	template := &model.AssessmentTemplate{
		ID:      uuid.NewString(),
		Title:   "Growth Assessment",
		Version: 1,
		Questions: []model.Question{
			{
				ID:       "q-prayer-mc",
				Text:     "How often do you pray?",
				Type:     model.QuestionTypeMultipleChoice,
				Category: "Prayer",
				Order:    1,
				Options: []model.QuestionOption{
					{ID: "opt-daily", Text: "Daily", IsCorrect: true},
					{ID: "opt-never", Text: "Never"},
				},
			},
			{
				ID:       "q-prayer-open",
				Text:     "Describe your prayer life.",
				Type:     model.QuestionTypeOpenEnded,
				Category: "Prayer",
				Order:    2,
			},
			{
				ID:       "q-scripture-mc",
				Text:     "Do you read scripture weekly?",
				Type:     model.QuestionTypeMultipleChoice,
				Category: "Scripture",
				Order:    3,
				Options: []model.QuestionOption{
					{ID: "opt-yes", Text: "Yes", IsCorrect: true},
					{ID: "opt-no", Text: "No"},
				},
			},
		},
	}
	if err := templateRepo.Create(template); err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
	return template
}

// fakeBackend scores categories from a canned table; categories absent
// from the table fail every call.
type fakeBackend struct {
	mu      sync.Mutex
	results map[string]*CategoryScoreResult
	calls   map[string]int
}

func newFakeBackend(results map[string]*CategoryScoreResult) *fakeBackend {
	return &fakeBackend{results: results, calls: make(map[string]int)}
}

func (b *fakeBackend) ScoreCategory(ctx context.Context, req CategoryScoreRequest) (*CategoryScoreResult, error) {
	b.mu.Lock()
	b.calls[req.Category]++
	res, ok := b.results[req.Category]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("backend unavailable for category %q", req.Category)
	}
	return res, nil
}

func (b *fakeBackend) ModelTag() string { return "fake_v1" }

func (b *fakeBackend) callCount(category string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[category]
}

type noopNotifier struct{}

func (noopNotifier) RecordFinished(string, string) {}
