// Package question sources trivia content from the Gemini generateContent API.
package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"trivia-arcade/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config configures the Gemini client.
type Config struct {
	APIKey     string
	Model      string // e.g. "gemini-2.5-flash"
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiGenerator implements game.Generator against the Gemini REST API using
// JSON-schema constrained responses. Safe for concurrent use; the shuffle rng
// is mutex-guarded.
type GeminiGenerator struct {
	cfg Config

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGeminiGenerator builds a generator; zero config fields get defaults.
func NewGeminiGenerator(cfg Config) *GeminiGenerator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &GeminiGenerator{
		cfg: cfg,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// triviaSchema constrains single-question responses.
var triviaSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"question": map[string]any{
			"type":        "STRING",
			"description": "An interesting and unique trivia question, plain text only.",
		},
		"options": map[string]any{
			"type":        "ARRAY",
			"description": "Exactly 4 strings: one correct answer and three plausible incorrect answers.",
			"items":       map[string]any{"type": "STRING"},
		},
		"answer": map[string]any{
			"type":        "STRING",
			"description": "The correct answer; must be one of the options.",
		},
	},
	"required": []string{"question", "options", "answer"},
}

var dailySetSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"questions": map[string]any{
			"type":        "ARRAY",
			"description": "An array of exactly 20 unique trivia questions.",
			"items":       triviaSchema,
		},
	},
	"required": []string{"questions"},
}

// GenerateQuestion requests one question for the category, hinting the model
// away from recently seen prompts. The exclusion is best-effort only.
func (g *GeminiGenerator) GenerateQuestion(ctx context.Context, category string, excludeTexts []string) (domain.TriviaQuestion, error) {
	prompt := fmt.Sprintf(`Generate a new, unique trivia question about %s.
Avoid questions from this list: [%s].
The question should be of medium difficulty.
Provide 4 multiple-choice options, with one being the correct answer. The question and options must be plain text without any markdown or HTML.`,
		category, strings.Join(excludeTexts, ", "))

	raw, err := g.generate(ctx, prompt, triviaSchema, 1.0)
	if err != nil {
		return domain.TriviaQuestion{}, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	var q domain.TriviaQuestion
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.TriviaQuestion{}, fmt.Errorf("%w: decode payload: %v", domain.ErrGeneration, err)
	}
	if err := q.Validate(); err != nil {
		return domain.TriviaQuestion{}, fmt.Errorf("%w: invalid trivia payload", domain.ErrGeneration)
	}
	g.shuffleOptions(&q)
	return q, nil
}

// GenerateDailySet requests the fixed 20-question daily quiz for the category.
func (g *GeminiGenerator) GenerateDailySet(ctx context.Context, category string) ([]domain.TriviaQuestion, error) {
	prompt := fmt.Sprintf(`Generate a new, unique set of %d trivia questions about %s.
The questions should be of medium difficulty and cover a range of topics within the category.
Each question must have 4 multiple-choice options, with one being the correct answer.
The questions and options must be plain text without any markdown or HTML.`,
		domain.DailySetSize, category)

	raw, err := g.generate(ctx, prompt, dailySetSchema, 0.9)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	var payload struct {
		Questions []domain.TriviaQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", domain.ErrGeneration, err)
	}
	if len(payload.Questions) < domain.DailySetSize {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", domain.ErrGeneration, domain.DailySetSize, len(payload.Questions))
	}
	questions := payload.Questions[:domain.DailySetSize]
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: invalid question %d in daily set", domain.ErrGeneration, i)
		}
		g.shuffleOptions(&questions[i])
	}
	return questions, nil
}

// shuffleOptions applies an unbiased Fisher-Yates permutation to the options.
func (g *GeminiGenerator) shuffleOptions(q *domain.TriviaQuestion) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rnd.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
}

// generate calls models/{model}:generateContent with a response schema and
// returns the JSON text of the first candidate.
func (g *GeminiGenerator) generate(ctx context.Context, prompt string, schema map[string]any, temperature float64) ([]byte, error) {
	requestBody, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
			"temperature":      temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material travels only in this header, never in errors.
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, cand := range payload.Candidates {
		for _, part := range cand.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return []byte(text), nil
			}
		}
	}
	return nil, fmt.Errorf("response contained no text")
}
