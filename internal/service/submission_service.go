package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/internal/dto"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound = errors.New("assessment template not found")
	ErrNoValidAnswers   = errors.New("submission contains no answers for the template's questions")
)

// SubmissionCoordinator is the pipeline's entry point. The synchronous
// path validates the submission, computes the baseline, persists the
// record at "processing", links history, enqueues enrichment and returns.
// It never blocks on the scoring backend.
type SubmissionCoordinator interface {
	Submit(req dto.SubmitAssessmentDTO) (*dto.SubmissionAcceptedDTO, error)
}

type submissionCoordinator struct {
	recordRepo   repository.ScoreRecordRepository
	templateRepo repository.TemplateRepository
	baseline     BaselineScorer
	aggregator   CategoryAggregator
	linker       HistoryLinker
	worker       EnrichmentWorker
}

func NewSubmissionCoordinator(
	recordRepo repository.ScoreRecordRepository,
	templateRepo repository.TemplateRepository,
	baseline BaselineScorer,
	aggregator CategoryAggregator,
	linker HistoryLinker,
	worker EnrichmentWorker,
) SubmissionCoordinator {
	return &submissionCoordinator{
		recordRepo:   recordRepo,
		templateRepo: templateRepo,
		baseline:     baseline,
		aggregator:   aggregator,
		linker:       linker,
		worker:       worker,
	}
}

func (s *submissionCoordinator) Submit(req dto.SubmitAssessmentDTO) (*dto.SubmissionAcceptedDTO, error) {
	template, err := s.templateRepo.FindByIDWithQuestions(req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, req.TemplateID)
		}
		return nil, fmt.Errorf("failed to load template %s: %w", req.TemplateID, err)
	}
	if len(template.Questions) == 0 {
		return nil, fmt.Errorf("%w: template %s has no questions", ErrNoValidAnswers, req.TemplateID)
	}

	known := make(map[string]bool, len(template.Questions))
	for _, q := range template.Questions {
		known[q.ID] = true
	}
	validAnswers := make(map[string]string, len(req.Answers))
	for qid, answer := range req.Answers {
		if !known[qid] {
			log.Warn().Str("questionID", qid).Str("templateID", req.TemplateID).Msg("Submit: answer for a question not in this template, skipping")
			continue
		}
		validAnswers[qid] = answer
	}
	if len(validAnswers) == 0 {
		return nil, ErrNoValidAnswers
	}

	payload := s.baselinePayload(validAnswers, template.Questions)

	record := model.ScoreRecord{
		ID:              uuid.NewString(),
		SubjectID:       req.SubjectID,
		TemplateID:      req.TemplateID,
		TemplateVersion: template.Version,
		Status:          model.StatusProcessing,
		Answers:         datatypes.NewJSONType(validAnswers),
		Scores:          datatypes.NewJSONType(*payload),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.recordRepo.Create(&record); err != nil {
		return nil, fmt.Errorf("failed to persist score record: %w", err)
	}

	previousID, err := s.linker.Link(&record)
	if err != nil {
		// History is best-effort at submission time; the record itself is
		// already durable.
		log.Error().Err(err).Str("recordID", record.ID).Msg("Submit: history linking failed")
	}

	if !s.worker.Enqueue(record.ID) {
		log.Error().Str("recordID", record.ID).Msg("Submit: could not enqueue enrichment, record stays at processing with baseline scores")
	}

	log.Info().
		Str("recordID", record.ID).
		Str("subjectID", record.SubjectID).
		Float64("baselineOverall", payload.OverallScore).
		Msg("Submission accepted, enrichment scheduled")

	return &dto.SubmissionAcceptedDTO{
		ID:               record.ID,
		SubjectID:        record.SubjectID,
		TemplateID:       record.TemplateID,
		TemplateVersion:  record.TemplateVersion,
		Status:           record.Status,
		Scores:           *payload,
		PreviousRecordID: previousID,
		CreatedAt:        record.CreatedAt,
	}, nil
}

// baselinePayload runs the deterministic pass: heuristic category scores,
// then the same aggregation and ranking rules the enriched pass uses.
func (s *submissionCoordinator) baselinePayload(answers map[string]string, questions []model.Question) *model.ScorePayload {
	baseline := s.baseline.Compute(answers, questions)

	means := make(map[string]float64, len(baseline))
	scores := make(map[string]int, len(baseline))
	categoryScores := make(map[string]model.CategoryScore, len(baseline))
	feedback := make([]model.QuestionFeedback, 0, len(answers))
	for category, cb := range baseline {
		means[category] = cb.Mean
		scores[category] = cb.Score
		categoryScores[category] = model.CategoryScore{
			Score:          cb.Score,
			ModelTag:       model.ModelTagBaseline,
			Recommendation: BaselineRecommendation(category),
		}
		feedback = append(feedback, cb.Feedback...)
	}

	result := s.aggregator.Aggregate(means, scores)
	return &model.ScorePayload{
		OverallScore:          result.OverallScore,
		OverallScoreDisplay:   result.OverallScoreDisplay,
		Band:                  result.Band,
		CategoryScores:        categoryScores,
		TopN:                  result.TopN,
		QuestionFeedback:      feedback,
		RecommendationSummary: s.aggregator.SummaryRecommendation(scores),
		ModelTag:              model.ModelTagBaseline,
	}
}
