package game

import (
	"context"
	"errors"
	"log"
	"math/rand"

	"trivia-arcade/internal/domain"
)

// ErrExhausted signals a sequential question queue has run out.
var ErrExhausted = errors.New("question queue exhausted")

// Generator produces trivia content (an AI-backed service in production).
type Generator interface {
	GenerateQuestion(ctx context.Context, category string, excludeTexts []string) (domain.TriviaQuestion, error)
	GenerateDailySet(ctx context.Context, category string) ([]domain.TriviaQuestion, error)
}

// Catalog is the shared question store keyed by generated id.
type Catalog interface {
	// PutQuestion upserts q, assigning a fresh id when q.ID is empty.
	PutQuestion(ctx context.Context, q domain.TriviaQuestion) (string, error)
	GetQuestionByID(ctx context.Context, id string) (domain.TriviaQuestion, error)
}

// DailyQuizSource resolves the fixed per-date per-category question set,
// generating and persisting it on first access.
type DailyQuizSource interface {
	GetOrGenerate(ctx context.Context, date, category string) ([]domain.TriviaQuestion, error)
}

// UsefulPool lists catalog questions whose average usefulness rating meets the threshold.
type UsefulPool interface {
	UsefulQuestions(ctx context.Context, threshold float64) ([]domain.TriviaQuestion, error)
}

// QuestionProvider yields the next question for a session. Variants cover the
// three game modes; the session selects one at start and never branches on
// mode during play.
type QuestionProvider interface {
	Next(ctx context.Context) (domain.TriviaQuestion, error)
}

// endlessProvider generates one question per call, excluding recently seen
// prompts, and persists each question into the shared catalog.
type endlessProvider struct {
	gen      Generator
	catalog  Catalog
	category string
	recent   []string
}

func newEndlessProvider(gen Generator, catalog Catalog, category string) *endlessProvider {
	return &endlessProvider{gen: gen, catalog: catalog, category: category}
}

func (p *endlessProvider) Next(ctx context.Context) (domain.TriviaQuestion, error) {
	q, err := p.gen.GenerateQuestion(ctx, p.category, p.recent)
	if err != nil {
		return domain.TriviaQuestion{}, err
	}

	p.recent = append(p.recent, q.Question)
	if len(p.recent) > domain.RecentQuestionMax {
		p.recent = p.recent[len(p.recent)-domain.RecentQuestionMax:]
	}

	// Catalog write is best-effort telemetry; gameplay proceeds without the id.
	if p.catalog != nil {
		if id, err := p.catalog.PutQuestion(ctx, q); err != nil {
			log.Printf("catalog upsert failed: %v", err)
		} else {
			q.ID = id
		}
	}
	return q, nil
}

// queueProvider serves a pre-fetched ordered question list by index.
type queueProvider struct {
	queue []domain.TriviaQuestion
	index int
}

func (p *queueProvider) Next(_ context.Context) (domain.TriviaQuestion, error) {
	if p.index >= len(p.queue) {
		return domain.TriviaQuestion{}, ErrExhausted
	}
	q := p.queue[p.index]
	p.index++
	return q, nil
}

// newUsefulProvider builds the quiz over highly rated catalog questions.
// Fewer than UsefulQuizMinPool qualifying questions is a precondition failure.
func newUsefulProvider(ctx context.Context, pool UsefulPool, rnd *rand.Rand) (*queueProvider, error) {
	questions, err := pool.UsefulQuestions(ctx, domain.UsefulThreshold)
	if err != nil {
		return nil, err
	}
	if len(questions) < domain.UsefulQuizMinPool {
		return nil, domain.ErrInsufficientUseful
	}
	shuffled := make([]domain.TriviaQuestion, len(questions))
	copy(shuffled, questions)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &queueProvider{queue: shuffled}, nil
}
