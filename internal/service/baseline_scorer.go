package service

import (
	"fmt"
	"strings"

	"github.com/trooth-app/assessment-api/internal/model"
)

// Open-ended answers at or above this length earn the full neutral score;
// shorter non-empty answers earn the reduced one.
const (
	openAnswerMinLength  = 20
	openAnswerFullScore  = 6
	openAnswerShortScore = 4
)

// CategoryBaseline carries both the float mean (for overall aggregation)
// and the rounded 1-10 score (for display and fallback) of one category.
type CategoryBaseline struct {
	Mean     float64
	Score    int
	Feedback []model.QuestionFeedback
}

// BaselineScorer converts raw answers into a coarse score instantly, with
// no I/O. It never fails: degenerate input yields a zero-filled baseline so
// the submitter always has something to look at while enrichment runs.
type BaselineScorer interface {
	Compute(answers map[string]string, questions []model.Question) map[string]CategoryBaseline
}

type baselineScorer struct{}

func NewBaselineScorer() BaselineScorer {
	return &baselineScorer{}
}

func (s *baselineScorer) Compute(answers map[string]string, questions []model.Question) map[string]CategoryBaseline {
	type acc struct {
		points   float64
		count    int
		feedback []model.QuestionFeedback
	}
	byCategory := make(map[string]*acc)

	for i := range questions {
		q := &questions[i]
		a, ok := byCategory[q.Category]
		if !ok {
			a = &acc{}
			byCategory[q.Category] = a
		}
		a.count++

		raw, answered := answers[q.ID]
		switch q.Type {
		case model.QuestionTypeMultipleChoice:
			correct := false
			if answered {
				if opt := q.ResolveOption(raw); opt != nil {
					correct = opt.IsCorrect
				}
			}
			if correct {
				a.points += 10
			}
			c := correct
			explanation := ""
			if !correct {
				explanation = "Incorrect answer."
			}
			a.feedback = append(a.feedback, model.QuestionFeedback{
				QuestionID:  q.ID,
				Correct:     &c,
				Explanation: explanation,
			})
		default:
			// Open-ended: presence/length heuristic, neutral mid-range.
			trimmed := strings.TrimSpace(raw)
			switch {
			case !answered || trimmed == "":
				// no points
			case len(trimmed) >= openAnswerMinLength:
				a.points += openAnswerFullScore
			default:
				a.points += openAnswerShortScore
			}
			explanation := ""
			if answered && trimmed != "" && len(trimmed) < openAnswerMinLength {
				explanation = "Consider providing a more detailed response."
			}
			a.feedback = append(a.feedback, model.QuestionFeedback{
				QuestionID:  q.ID,
				Correct:     nil,
				Explanation: explanation,
			})
		}
	}

	result := make(map[string]CategoryBaseline, len(byCategory))
	for category, a := range byCategory {
		mean := 0.0
		if a.count > 0 {
			mean = a.points / float64(a.count)
		}
		result[category] = CategoryBaseline{
			Mean:     mean,
			Score:    roundHalfUp(mean),
			Feedback: a.feedback,
		}
	}
	return result
}

// BaselineRecommendation is the stock per-category note attached while a
// category carries a baseline (or fallback) score.
func BaselineRecommendation(category string) string {
	return fmt.Sprintf("Continue developing your %s practices.", strings.ToLower(category))
}
