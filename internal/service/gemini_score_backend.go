package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/config"
	"google.golang.org/api/option"
)

const geminiBackendTag = "gemini_v1"

type geminiScoreBackend struct {
	model *genai.GenerativeModel
	cfg   *config.Config
}

// NewGeminiScoreBackend builds the production ScoreBackend on top of the
// Gemini API. With no API key configured the backend is non-functional and
// every call fails, which the worker turns into baseline fallback.
func NewGeminiScoreBackend(cfg *config.Config) (ScoreBackend, error) {
	if cfg.Scoring.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Score backend will be non-functional; records will keep baseline scores.")
		return &geminiScoreBackend{cfg: cfg, model: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Scoring.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Scoring.GeminiModel)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	return &geminiScoreBackend{model: model, cfg: cfg}, nil
}

func (b *geminiScoreBackend) ModelTag() string {
	return geminiBackendTag
}

func (b *geminiScoreBackend) ScoreCategory(ctx context.Context, req CategoryScoreRequest) (*CategoryScoreResult, error) {
	if b.model == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category request: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString("You are an expert spiritual mentor and assessor.\n")
	prompt.WriteString("Score this category from 1-10 based on the set of answers.\n")
	prompt.WriteString("For multiple-choice questions, use the provided options with is_correct as ground truth and mark correct/incorrect.\n")
	prompt.WriteString("For open-ended questions, do not mark correct/incorrect (use null); give a brief qualitative note.\n")
	prompt.WriteString("Respond with JSON ONLY, keys: score (int 1-10), recommendation (string), question_feedback (array).\n")
	prompt.WriteString("Each question_feedback item must include: question_id (echoed exactly from the input), correct (boolean or null), explanation (string).\n")
	prompt.WriteString("Return exactly one feedback item per input item.\n\n")
	prompt.Write(payload)

	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		log.Error().Err(err).Str("category", req.Category).Msg("Gemini API error during category scoring")
		return nil, fmt.Errorf("gemini call failed for category %q: %w", req.Category, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content for category %q", req.Category)
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		}
	}
	if raw.Len() == 0 {
		return nil, fmt.Errorf("gemini returned no text content for category %q", req.Category)
	}

	var result CategoryScoreResult
	if err := parseJSONLenient(raw.String(), &result); err != nil {
		log.Warn().Err(err).Str("category", req.Category).Msg("Failed to parse Gemini response as JSON")
		return nil, fmt.Errorf("malformed gemini response for category %q: %w", req.Category, err)
	}
	if err := ValidateResult(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var (
	codeFenceOpen   = regexp.MustCompile("^```[a-zA-Z0-9_-]*\n")
	codeFenceClose  = regexp.MustCompile("\n```\\s*$")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// parseJSONLenient tolerates the usual LLM wrapping noise: markdown code
// fences, prose around the object, and trailing commas.
func parseJSONLenient(content string, v interface{}) error {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = codeFenceOpen.ReplaceAllString(text, "")
		text = codeFenceClose.ReplaceAllString(text, "")
	}
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
		text = text[start : end+1]
		if err := json.Unmarshal([]byte(text), v); err == nil {
			return nil
		}
	}
	fixed := trailingCommaRe.ReplaceAllString(text, "$1")
	return json.Unmarshal([]byte(fixed), v)
}
