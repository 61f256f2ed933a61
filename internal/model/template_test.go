package model

import "testing"

func TestResolveOption(t *testing.T) {
	q := Question{
		ID:   "q1",
		Type: QuestionTypeMultipleChoice,
		Options: []QuestionOption{
			{ID: "opt-a", Text: "Daily", IsCorrect: true},
			{ID: "opt-b", Text: "Never"},
		},
	}

	if got := q.ResolveOption("opt-b"); got == nil || got.ID != "opt-b" {
		t.Fatalf("ResolveOption by ID = %v, want opt-b", got)
	}
	if got := q.ResolveOption("  daily "); got == nil || got.ID != "opt-a" {
		t.Fatalf("ResolveOption by text = %v, want opt-a", got)
	}
	if got := q.ResolveOption("Weekly"); got != nil {
		t.Fatalf("ResolveOption for unknown answer = %v, want nil", got)
	}
	// Option ID wins over a colliding option text.
	q.Options = append(q.Options, QuestionOption{ID: "Daily", Text: "Something else"})
	if got := q.ResolveOption("Daily"); got == nil || got.ID != "Daily" {
		t.Fatalf("ResolveOption ID precedence = %v, want ID match", got)
	}
}
