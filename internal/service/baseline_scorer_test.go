package service

import (
	"strings"
	"testing"

	"github.com/trooth-app/assessment-api/internal/model"
)

func mcQuestion(id, category string) model.Question {
	return model.Question{
		ID:       id,
		Text:     "Pick one",
		Type:     model.QuestionTypeMultipleChoice,
		Category: category,
		Options: []model.QuestionOption{
			{ID: id + "-opt-a", QuestionID: id, Text: "Right answer", IsCorrect: true},
			{ID: id + "-opt-b", QuestionID: id, Text: "Wrong answer"},
		},
	}
}

func openQuestion(id, category string) model.Question {
	return model.Question{
		ID:       id,
		Text:     "Describe your practice",
		Type:     model.QuestionTypeOpenEnded,
		Category: category,
	}
}

func TestComputeMultipleChoiceFraction(t *testing.T) {
	scorer := NewBaselineScorer()
	questions := []model.Question{
		mcQuestion("q1", "Prayer"),
		mcQuestion("q2", "Prayer"),
	}
	answers := map[string]string{
		"q1": "q1-opt-a",
		"q2": "q2-opt-b",
	}

	result := scorer.Compute(answers, questions)
	cb, ok := result["Prayer"]
	if !ok {
		t.Fatalf("Prayer category missing from baseline: %v", result)
	}
	// One correct of two at 10 points each.
	if cb.Mean != 5 {
		t.Fatalf("mean = %v, want 5", cb.Mean)
	}
	if cb.Score != 5 {
		t.Fatalf("score = %d, want 5", cb.Score)
	}
	if len(cb.Feedback) != 2 {
		t.Fatalf("feedback items = %d, want 2", len(cb.Feedback))
	}
	for _, fb := range cb.Feedback {
		if fb.Correct == nil {
			t.Fatalf("MC feedback for %s has nil correct flag", fb.QuestionID)
		}
	}
}

func TestComputeMatchesOptionByText(t *testing.T) {
	scorer := NewBaselineScorer()
	questions := []model.Question{mcQuestion("q1", "Prayer")}

	result := scorer.Compute(map[string]string{"q1": "  right ANSWER "}, questions)
	if got := result["Prayer"].Score; got != 10 {
		t.Fatalf("score = %d, want 10 for text-matched correct option", got)
	}
}

func TestComputeOpenEndedLengthHeuristic(t *testing.T) {
	scorer := NewBaselineScorer()
	questions := []model.Question{
		openQuestion("q1", "Scripture"),
		openQuestion("q2", "Scripture"),
		openQuestion("q3", "Scripture"),
	}
	answers := map[string]string{
		"q1": strings.Repeat("a", openAnswerMinLength),
		"q2": "short",
		"q3": "   ",
	}

	result := scorer.Compute(answers, questions)
	cb := result["Scripture"]
	// 6 + 4 + 0 over three questions.
	wantMean := float64(openAnswerFullScore+openAnswerShortScore) / 3
	if cb.Mean != wantMean {
		t.Fatalf("mean = %v, want %v", cb.Mean, wantMean)
	}
	if cb.Score != roundHalfUp(wantMean) {
		t.Fatalf("score = %d, want %d", cb.Score, roundHalfUp(wantMean))
	}
	for _, fb := range cb.Feedback {
		if fb.Correct != nil {
			t.Fatalf("open-ended feedback for %s must not carry a correct flag", fb.QuestionID)
		}
	}
}

func TestComputeUnansweredQuestionsScoreZero(t *testing.T) {
	scorer := NewBaselineScorer()
	questions := []model.Question{
		mcQuestion("q1", "Prayer"),
		openQuestion("q2", "Scripture"),
	}

	result := scorer.Compute(map[string]string{}, questions)
	if result["Prayer"].Score != 0 || result["Scripture"].Score != 0 {
		t.Fatalf("unanswered baseline = %v, want zero scores", result)
	}
	// Feedback still covers every question.
	if len(result["Prayer"].Feedback) != 1 || len(result["Scripture"].Feedback) != 1 {
		t.Fatalf("unanswered questions should still receive feedback: %v", result)
	}
}

func TestComputeGroupsByCategory(t *testing.T) {
	scorer := NewBaselineScorer()
	questions := []model.Question{
		mcQuestion("q1", "Prayer"),
		openQuestion("q2", "Scripture"),
		mcQuestion("q3", "Community"),
	}
	answers := map[string]string{
		"q1": "q1-opt-a",
		"q2": strings.Repeat("b", 30),
		"q3": "q3-opt-a",
	}

	result := scorer.Compute(answers, questions)
	if len(result) != 3 {
		t.Fatalf("categories = %d, want 3: %v", len(result), result)
	}
	if result["Prayer"].Score != 10 || result["Community"].Score != 10 {
		t.Fatalf("MC categories = %v, want full marks", result)
	}
	if result["Scripture"].Score != openAnswerFullScore {
		t.Fatalf("Scripture score = %d, want %d", result["Scripture"].Score, openAnswerFullScore)
	}
}

func TestBaselineRecommendationLowercasesCategory(t *testing.T) {
	got := BaselineRecommendation("Prayer Life")
	if got != "Continue developing your prayer life practices." {
		t.Fatalf("BaselineRecommendation = %q", got)
	}
}
