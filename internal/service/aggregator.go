package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/trooth-app/assessment-api/internal/model"
)

// TopNSize is the fixed preview size. Ties at the boundary are not
// expanded: the preview is a simple prefix of the deterministic ranking.
const TopNSize = 3

// OverallResult is the aggregator's output: the one-decimal float overall,
// its display integer, the band label and the truncated top-N ranking.
type OverallResult struct {
	OverallScore        float64
	OverallScoreDisplay int
	Band                string
	TopN                []model.CategoryRank
}

// CategoryAggregator combines per-category results into an overall score
// and a deterministically ordered ranking. The same instance runs over both
// the baseline pass and the enriched pass so previews never disagree with
// final state on ordering rules.
type CategoryAggregator interface {
	// Aggregate takes the float per-category means (never pre-floored
	// integers) and the rounded 1-10 scores used for ranking.
	Aggregate(means map[string]float64, scores map[string]int) OverallResult
	Rank(scores map[string]int) []model.CategoryRank
	SummaryRecommendation(scores map[string]int) string
}

type categoryAggregator struct{}

func NewCategoryAggregator() CategoryAggregator {
	return &categoryAggregator{}
}

func (a *categoryAggregator) Aggregate(means map[string]float64, scores map[string]int) OverallResult {
	overall := 0.0
	if len(means) > 0 {
		sum := 0.0
		for _, v := range means {
			sum += v
		}
		overall = sum / float64(len(means))
	}
	// One decimal retained internally, round-half-up integer for display.
	overall = math.Floor(overall*10+0.5) / 10

	ranked := a.Rank(scores)
	topN := ranked
	if len(topN) > TopNSize {
		topN = topN[:TopNSize]
	}
	display := roundHalfUp(overall)
	return OverallResult{
		OverallScore:        overall,
		OverallScoreDisplay: display,
		Band:                ScoreBand(overall),
		TopN:                topN,
	}
}

// Rank sorts categories by score descending, then category name ascending
// (case-insensitive). This is the single ordering used everywhere a top-N
// is produced; clients never reorder.
func (a *categoryAggregator) Rank(scores map[string]int) []model.CategoryRank {
	ranked := make([]model.CategoryRank, 0, len(scores))
	for category, score := range scores {
		ranked = append(ranked, model.CategoryRank{Category: category, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return strings.ToLower(ranked[i].Category) < strings.ToLower(ranked[j].Category)
	})
	return ranked
}

// SummaryRecommendation names the strongest and weakest categories and
// nudges toward balance when the spread is wide.
func (a *categoryAggregator) SummaryRecommendation(scores map[string]int) string {
	if len(scores) == 0 {
		return "Continue your spiritual journey with consistency and dedication."
	}
	ranked := a.Rank(scores)
	strongest := ranked[0]
	weakest := ranked[len(ranked)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "Your strongest area is %s (score: %d). ", strongest.Category, strongest.Score)
	if strongest.Score-weakest.Score > 2 {
		fmt.Fprintf(&b, "Consider focusing more attention on %s to create better balance in your growth. ", weakest.Category)
	}
	b.WriteString("Continue practicing spiritual disciplines consistently and seek mentorship for areas of growth.")
	return b.String()
}

// roundHalfUp rounds to the nearest integer with .5 going up. A floor-based
// average silently understates results and must not be reproduced.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// ScoreBand maps a 0-10 overall score onto the band labels used across
// reports and trend summaries.
func ScoreBand(overall float64) string {
	percent := overall * 10
	switch {
	case percent >= 85:
		return "Flourishing"
	case percent >= 70:
		return "Maturing"
	case percent >= 55:
		return "Stable"
	case percent >= 40:
		return "Developing"
	default:
		return "Beginning"
	}
}
