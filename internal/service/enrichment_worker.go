package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/config"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
	"golang.org/x/sync/errgroup"
)

// EnrichmentWorker consumes submitted records from a bounded channel queue
// and runs the asynchronous scoring pass: one backend call per category,
// retried with exponential backoff, joined, and applied as a single
// terminal record update. The submission path only enqueues and returns.
type EnrichmentWorker interface {
	Enqueue(recordID string) bool
	Start()
	Stop()
	// Process runs one enrichment pass synchronously. Exposed so the
	// worker loop and tests share the exact same path.
	Process(ctx context.Context, recordID string) error
}

type enrichmentWorker struct {
	recordRepo   repository.ScoreRecordRepository
	templateRepo repository.TemplateRepository
	backend      ScoreBackend
	aggregator   CategoryAggregator
	linker       HistoryLinker
	notifier     Notifier
	cfg          config.Scoring

	jobs chan string
	wg   sync.WaitGroup
	once sync.Once
}

func NewEnrichmentWorker(
	recordRepo repository.ScoreRecordRepository,
	templateRepo repository.TemplateRepository,
	backend ScoreBackend,
	aggregator CategoryAggregator,
	linker HistoryLinker,
	notifier Notifier,
	cfg *config.Config,
) EnrichmentWorker {
	return &enrichmentWorker{
		recordRepo:   recordRepo,
		templateRepo: templateRepo,
		backend:      backend,
		aggregator:   aggregator,
		linker:       linker,
		notifier:     notifier,
		cfg:          cfg.Scoring,
		jobs:         make(chan string, cfg.Scoring.QueueSize),
	}
}

func (w *enrichmentWorker) Enqueue(recordID string) bool {
	select {
	case w.jobs <- recordID:
		return true
	default:
		log.Error().Str("recordID", recordID).Msg("Enrichment queue full, record stays at processing")
		return false
	}
}

func (w *enrichmentWorker) Start() {
	count := w.cfg.WorkerCount
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		w.wg.Add(1)
		go func(workerIdx int) {
			defer w.wg.Done()
			for recordID := range w.jobs {
				if err := w.Process(context.Background(), recordID); err != nil {
					log.Error().Err(err).Int("worker", workerIdx).Str("recordID", recordID).Msg("Enrichment run failed")
				}
			}
		}(i)
	}
	log.Info().Int("workers", count).Msg("Enrichment worker pool started")
}

func (w *enrichmentWorker) Stop() {
	w.once.Do(func() { close(w.jobs) })
	w.wg.Wait()
	log.Info().Msg("Enrichment worker pool drained")
}

// categoryOutcome is the per-category join result: either an enriched
// backend verdict or nil after exhausted retries.
type categoryOutcome struct {
	category string
	result   *CategoryScoreResult
}

func (w *enrichmentWorker) Process(ctx context.Context, recordID string) error {
	record, err := w.recordRepo.FindByID(recordID)
	if err != nil {
		return fmt.Errorf("enrichment: record %s not found: %w", recordID, err)
	}
	if record.Status != model.StatusProcessing {
		log.Warn().Str("recordID", recordID).Str("status", record.Status).Msg("Enrichment skipped, record already terminal")
		return nil
	}

	template, err := w.templateRepo.FindByIDWithQuestions(record.TemplateID)
	if err != nil {
		return fmt.Errorf("enrichment: template %s not found for record %s: %w", record.TemplateID, recordID, err)
	}

	answers := record.Answers.Data()
	requests, questionCategory := buildCategoryRequests(answers, template.Questions)
	baseline := record.Scores.Data()

	// The whole run carries a wall-clock budget; categories still pending
	// at expiry count as exhausted and fall back to baseline.
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.RunBudget)
	defer cancel()

	outcomes := make([]categoryOutcome, len(requests))
	g, gctx := errgroup.WithContext(runCtx)
	limit := w.cfg.CategoryConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, req := range requests {
		g.Go(func() error {
			res := w.scoreWithRetry(gctx, req)
			outcomes[i] = categoryOutcome{category: req.Category, result: res}
			// Failures are absorbed here; they only ever degrade one
			// category, never the whole run.
			return nil
		})
	}
	// Join: aggregation waits for every category outcome.
	_ = g.Wait()

	enriched := make(map[string]*CategoryScoreResult, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.result != nil {
			enriched[outcome.category] = outcome.result
		}
	}

	if len(enriched) == 0 {
		// Total enrichment failure: terminal error, but the baseline
		// scores persisted at submission remain the readable payload.
		transitioned, err := w.recordRepo.Finalize(recordID, model.StatusError, nil, nil)
		if err != nil {
			return fmt.Errorf("enrichment: failed to mark record %s as error: %w", recordID, err)
		}
		if transitioned {
			log.Warn().Str("recordID", recordID).Int("categories", len(requests)).Msg("All categories failed enrichment, baseline remains authoritative")
			go w.notifier.RecordFinished(recordID, model.StatusError)
		}
		return nil
	}

	payload := w.buildFinalPayload(&baseline, requests, enriched, questionCategory)
	summary := w.linker.Summarize(record.PreviousRecordID, payload.OverallScore)

	transitioned, err := w.recordRepo.Finalize(recordID, model.StatusDone, payload, summary)
	if err != nil {
		return fmt.Errorf("enrichment: failed to finalize record %s: %w", recordID, err)
	}
	if !transitioned {
		log.Warn().Str("recordID", recordID).Msg("Record left processing concurrently, enrichment result discarded")
		return nil
	}

	log.Info().
		Str("recordID", recordID).
		Int("enriched", len(enriched)).
		Int("fallback", len(requests)-len(enriched)).
		Float64("overall", payload.OverallScore).
		Msg("Enrichment completed")
	go w.notifier.RecordFinished(recordID, model.StatusDone)
	return nil
}

// scoreWithRetry issues the per-category backend call with up to
// MaxRetries attempts and doubling backoff. Every attempt carries its own
// timeout. Returns nil once retries are exhausted or the run budget ends.
func (w *enrichmentWorker) scoreWithRetry(ctx context.Context, req CategoryScoreRequest) *CategoryScoreResult {
	retries := w.cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	delay := w.cfg.RetryBaseDelay
	for attempt := 1; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			log.Warn().Str("category", req.Category).Msg("Run budget exhausted before category could be scored")
			return nil
		}
		callCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
		res, err := w.backend.ScoreCategory(callCtx, req)
		cancel()
		if err == nil {
			return res
		}
		log.Warn().Err(err).Str("category", req.Category).Int("attempt", attempt).Msg("Backend call failed")
		if attempt < retries {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil
}

// buildCategoryRequests groups the submission's answered questions by
// category into backend requests. MC answers are resolved to option text
// while the option set travels alongside with identifiers and correctness
// flags, so grading never depends on free-text matching.
func buildCategoryRequests(answers map[string]string, questions []model.Question) ([]CategoryScoreRequest, map[string]string) {
	questionCategory := make(map[string]string, len(questions))
	grouped := make(map[string][]CategoryItem)
	order := make([]string, 0)

	for i := range questions {
		q := &questions[i]
		questionCategory[q.ID] = q.Category
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}
		item := CategoryItem{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			AnswerText:   raw,
			QuestionType: q.Type,
		}
		if q.Type == model.QuestionTypeMultipleChoice {
			if opt := q.ResolveOption(raw); opt != nil {
				item.AnswerText = opt.Text
			}
			for _, opt := range q.Options {
				item.Options = append(item.Options, BackendOption{ID: opt.ID, Text: opt.Text, IsCorrect: opt.IsCorrect})
			}
		}
		if _, seen := grouped[q.Category]; !seen {
			order = append(order, q.Category)
		}
		grouped[q.Category] = append(grouped[q.Category], item)
	}

	requests := make([]CategoryScoreRequest, 0, len(grouped))
	for _, category := range order {
		requests = append(requests, CategoryScoreRequest{Category: category, Items: grouped[category]})
	}
	return requests, questionCategory
}

// buildFinalPayload merges enriched verdicts with baseline fallbacks into
// the terminal scores blob. Categories that were sent to the backend but
// could not be scored keep their baseline value tagged baseline_fallback;
// categories with no answered questions were never attempted and keep the
// plain baseline tag. Enriched categories carry the backend's own tag.
// The aggregation and ranking rules are the ones the baseline pass
// already used.
func (w *enrichmentWorker) buildFinalPayload(baseline *model.ScorePayload, requests []CategoryScoreRequest, enriched map[string]*CategoryScoreResult, questionCategory map[string]string) *model.ScorePayload {
	attempted := make(map[string]bool, len(requests))
	for _, req := range requests {
		attempted[req.Category] = true
	}

	categoryScores := make(map[string]model.CategoryScore, len(baseline.CategoryScores))
	means := make(map[string]float64, len(baseline.CategoryScores))
	scores := make(map[string]int, len(baseline.CategoryScores))

	for category, base := range baseline.CategoryScores {
		if res, ok := enriched[category]; ok {
			categoryScores[category] = model.CategoryScore{
				Score:          res.Score,
				ModelTag:       w.backend.ModelTag(),
				Recommendation: res.Recommendation,
			}
			means[category] = float64(res.Score)
			scores[category] = res.Score
			continue
		}
		tag := model.ModelTagBaseline
		if attempted[category] {
			tag = model.ModelTagFallback
		}
		categoryScores[category] = model.CategoryScore{
			Score:          base.Score,
			ModelTag:       tag,
			Recommendation: BaselineRecommendation(category),
		}
		means[category] = float64(base.Score)
		scores[category] = base.Score
	}

	// Feedback follows request order so the stored list is stable across
	// runs; non-enriched categories keep their baseline feedback so the
	// record is never left without per-question detail.
	feedback := make([]model.QuestionFeedback, 0, len(baseline.QuestionFeedback))
	for _, req := range requests {
		res, ok := enriched[req.Category]
		if !ok {
			continue
		}
		for _, fb := range res.QuestionFeedback {
			feedback = append(feedback, model.QuestionFeedback{
				QuestionID:  fb.QuestionID,
				Correct:     fb.Correct,
				Explanation: fb.Explanation,
			})
		}
	}
	for _, fb := range baseline.QuestionFeedback {
		if _, ok := enriched[questionCategory[fb.QuestionID]]; !ok {
			feedback = append(feedback, fb)
		}
	}

	result := w.aggregator.Aggregate(means, scores)
	return &model.ScorePayload{
		OverallScore:          result.OverallScore,
		OverallScoreDisplay:   result.OverallScoreDisplay,
		Band:                  result.Band,
		CategoryScores:        categoryScores,
		TopN:                  result.TopN,
		QuestionFeedback:      feedback,
		RecommendationSummary: w.aggregator.SummaryRecommendation(scores),
		ModelTag:              w.backend.ModelTag(),
	}
}
