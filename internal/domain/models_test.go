package domain

import "testing"

func validQuestion() TriviaQuestion {
	return TriviaQuestion{
		Question: "Capital of France?",
		Options:  []string{"Paris", "Lyon", "Nice", "Lille"},
		Answer:   "Paris",
	}
}

func TestTriviaQuestionValidate(t *testing.T) {
	if err := validQuestion().Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	cases := map[string]func(*TriviaQuestion){
		"empty prompt":     func(q *TriviaQuestion) { q.Question = "" },
		"three options":    func(q *TriviaQuestion) { q.Options = q.Options[:3] },
		"duplicate option": func(q *TriviaQuestion) { q.Options[1] = "Paris" },
		"answer missing":   func(q *TriviaQuestion) { q.Answer = "Marseille" },
	}
	for name, mutate := range cases {
		q := validQuestion()
		mutate(&q)
		if err := q.Validate(); err != ErrGeneration {
			t.Errorf("%s: expected ErrGeneration, got %v", name, err)
		}
	}
}

func TestModeValid(t *testing.T) {
	for _, mode := range []Mode{ModeEndless, ModeDaily, ModeUsefulQuiz} {
		if !mode.Valid() {
			t.Errorf("expected %s valid", mode)
		}
	}
	if Mode("BOGUS").Valid() {
		t.Errorf("expected unknown mode invalid")
	}
}

func TestNewPlayerStats(t *testing.T) {
	stats := NewPlayerStats()
	if stats.Level != 1 || stats.XP != 0 || stats.XPToNextLevel != XPPerLevelBase {
		t.Fatalf("unexpected starting stats %+v", stats)
	}
}
