package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/infra/memory"
)

func TestDailyStoreGeneratesOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	gen := &countingGenerator{StaticGenerator: memory.NewStaticGenerator(sampleQuestions())}
	store := NewDailyStore(newClient(mr), gen)

	first, err := store.GetOrGenerate(context.Background(), "2025-06-10", "History")
	if err != nil {
		t.Fatalf("get or generate: %v", err)
	}
	if gen.dailyCalls != 1 {
		t.Fatalf("expected one generation, got %d", gen.dailyCalls)
	}

	// Second call must replay the stored set, not regenerate.
	second, err := store.GetOrGenerate(context.Background(), "2025-06-10", "History")
	if err != nil {
		t.Fatalf("get or generate again: %v", err)
	}
	if gen.dailyCalls != 1 {
		t.Fatalf("expected cached set, generator calls=%d", gen.dailyCalls)
	}
	if len(first) != len(second) || first[0].Question != second[0].Question {
		t.Fatalf("expected identical daily sets, got %d vs %d questions", len(first), len(second))
	}
}

func TestDailyStoreKeysByDateAndCategory(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	gen := &countingGenerator{StaticGenerator: memory.NewStaticGenerator(sampleQuestions())}
	store := NewDailyStore(newClient(mr), gen)

	if _, err := store.GetOrGenerate(context.Background(), "2025-06-10", "History"); err != nil {
		t.Fatalf("get or generate: %v", err)
	}
	if !mr.Exists("daily:2025-06-10:History") {
		t.Fatalf("expected daily set key to be set")
	}

	if _, err := store.GetOrGenerate(context.Background(), "2025-06-10", "Science & Nature"); err != nil {
		t.Fatalf("get or generate second category: %v", err)
	}
	if gen.dailyCalls != 2 {
		t.Fatalf("expected per-category generation, got %d calls", gen.dailyCalls)
	}
}

func TestFlagStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewFlagStore(newClient(mr))

	date, err := store.DailyDone(context.Background(), "u1", "History")
	if err != nil {
		t.Fatalf("daily done: %v", err)
	}
	if date != "" {
		t.Fatalf("expected empty flag, got %q", date)
	}

	if err := store.MarkDailyDone(context.Background(), "u1", "History", "2025-06-10"); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	date, err = store.DailyDone(context.Background(), "u1", "History")
	if err != nil {
		t.Fatalf("daily done after mark: %v", err)
	}
	if date != "2025-06-10" {
		t.Fatalf("expected stored date, got %q", date)
	}
}

type countingGenerator struct {
	*memory.StaticGenerator
	dailyCalls int
}

func (g *countingGenerator) GenerateDailySet(ctx context.Context, category string) ([]domain.TriviaQuestion, error) {
	g.dailyCalls++
	return g.StaticGenerator.GenerateDailySet(ctx, category)
}

func sampleQuestions() []domain.TriviaQuestion {
	questions := make([]domain.TriviaQuestion, 0, domain.DailySetSize)
	for i := 0; i < domain.DailySetSize; i++ {
		questions = append(questions, domain.TriviaQuestion{
			Question: "Question " + string(rune('A'+i)),
			Options:  []string{"a", "b", "c", "d"},
			Answer:   "a",
		})
	}
	return questions
}

func newClient(mr *miniredis.Miniredis) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}
