package memory

import (
	"context"
	"fmt"
	"sync"

	"trivia-arcade/internal/domain"
)

// StaticGenerator serves canned questions in order, cycling when it runs out.
// Useful for tests and for running the service without an API key. One
// instance is shared by every session, so the cursor is mutex-guarded.
type StaticGenerator struct {
	mu        sync.Mutex
	questions []domain.TriviaQuestion
	next      int
}

func NewStaticGenerator(questions []domain.TriviaQuestion) *StaticGenerator {
	return &StaticGenerator{questions: questions}
}

func (g *StaticGenerator) GenerateQuestion(_ context.Context, _ string, _ []string) (domain.TriviaQuestion, error) {
	if len(g.questions) == 0 {
		return domain.TriviaQuestion{}, domain.ErrGeneration
	}
	g.mu.Lock()
	q := g.questions[g.next%len(g.questions)]
	g.next++
	g.mu.Unlock()
	return q, nil
}

func (g *StaticGenerator) GenerateDailySet(_ context.Context, _ string) ([]domain.TriviaQuestion, error) {
	if len(g.questions) == 0 {
		return nil, domain.ErrGeneration
	}
	set := make([]domain.TriviaQuestion, 0, domain.DailySetSize)
	for i := 0; i < domain.DailySetSize; i++ {
		q := g.questions[i%len(g.questions)]
		if i >= len(g.questions) {
			// Cycled copies get distinct prompts so a set never repeats itself verbatim.
			q.Question = fmt.Sprintf("%s (%d)", q.Question, i/len(g.questions)+1)
		}
		set = append(set, q)
	}
	return set, nil
}
