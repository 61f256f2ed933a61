package service

import (
	"context"
	"fmt"
)

// CategoryItem is one question/answer pair sent to the scoring backend.
// For multiple-choice questions the full option set travels with the item,
// including option IDs and correctness flags, so the backend grades by
// identity instead of free-text matching.
type CategoryItem struct {
	QuestionID   string          `json:"question_id"`
	QuestionText string          `json:"question_text"`
	AnswerText   string          `json:"answer_text"`
	QuestionType string          `json:"question_type"`
	Options      []BackendOption `json:"options,omitempty"`
}

type BackendOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// CategoryScoreRequest is the outbound payload for one category.
type CategoryScoreRequest struct {
	Category string         `json:"category"`
	Items    []CategoryItem `json:"items"`
}

// BackendFeedback must echo the question_id of the item it refers to.
// Positional alignment between request and response lists is never used.
type BackendFeedback struct {
	QuestionID  string `json:"question_id"`
	Correct     *bool  `json:"correct"`
	Explanation string `json:"explanation"`
}

// CategoryScoreResult is the backend's verdict for one category.
type CategoryScoreResult struct {
	Score            int               `json:"score"`
	Recommendation   string            `json:"recommendation"`
	QuestionFeedback []BackendFeedback `json:"question_feedback"`
}

// ScoreBackend is the external scoring collaborator. Implementations are
// expected to fail with an error on timeouts, rate limits and malformed
// output; the enrichment worker owns the retry policy.
type ScoreBackend interface {
	ScoreCategory(ctx context.Context, req CategoryScoreRequest) (*CategoryScoreResult, error)
	// ModelTag identifies the backend for provenance on enriched records.
	ModelTag() string
}

// ValidateResult enforces the response contract: score in 1-10, one
// feedback item per requested item, and every feedback item keyed by a
// question_id that was actually sent. A violation is handled the same way
// as a malformed response.
func ValidateResult(req CategoryScoreRequest, res *CategoryScoreResult) error {
	if res == nil {
		return fmt.Errorf("backend returned no result for category %q", req.Category)
	}
	if res.Score < 1 || res.Score > 10 {
		return fmt.Errorf("backend score %d for category %q outside 1-10", res.Score, req.Category)
	}
	if len(res.QuestionFeedback) != len(req.Items) {
		return fmt.Errorf("backend echoed %d feedback items for category %q, expected %d",
			len(res.QuestionFeedback), req.Category, len(req.Items))
	}
	known := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		known[item.QuestionID] = true
	}
	seen := make(map[string]bool, len(res.QuestionFeedback))
	for _, fb := range res.QuestionFeedback {
		if fb.QuestionID == "" {
			return fmt.Errorf("backend feedback item missing question_id for category %q", req.Category)
		}
		if !known[fb.QuestionID] {
			return fmt.Errorf("backend feedback references unknown question %q for category %q", fb.QuestionID, req.Category)
		}
		if seen[fb.QuestionID] {
			return fmt.Errorf("backend feedback duplicates question %q for category %q", fb.QuestionID, req.Category)
		}
		seen[fb.QuestionID] = true
	}
	return nil
}
