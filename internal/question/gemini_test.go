package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"trivia-arcade/internal/domain"
)

// geminiStub fakes the generateContent endpoint, replying with the given JSON
// payload wrapped in a candidate.
func geminiStub(t *testing.T, status int, payload any) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"boom"}}`)
			return
		}
		text, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal stub payload: %v", err)
		}
		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": string(text)}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func newStubGenerator(server *httptest.Server) *GeminiGenerator {
	return NewGeminiGenerator(Config{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: server.URL,
	})
}

func TestGenerateQuestion(t *testing.T) {
	server, captured := geminiStub(t, http.StatusOK, map[string]any{
		"question": "Capital of France?",
		"options":  []string{"Paris", "Lyon", "Nice", "Lille"},
		"answer":   "Paris",
	})
	gen := newStubGenerator(server)

	q, err := gen.GenerateQuestion(context.Background(), "Geography", []string{"Capital of Spain?"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q.Question != "Capital of France?" || q.Answer != "Paris" {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 options, got %v", q.Options)
	}
	found := false
	for _, opt := range q.Options {
		if opt == q.Answer {
			found = true
		}
	}
	if !found {
		t.Fatalf("answer missing from options after shuffle: %v", q.Options)
	}

	if got := captured.Header.Get("x-goog-api-key"); got != "test-key" {
		t.Fatalf("expected api key header, got %q", got)
	}
	if !strings.Contains(captured.URL.Path, "models/gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected path %q", captured.URL.Path)
	}
}

func TestGenerateQuestionRejectsInvalidPayload(t *testing.T) {
	server, _ := geminiStub(t, http.StatusOK, map[string]any{
		"question": "Broken?",
		"options":  []string{"a", "b"},
		"answer":   "a",
	})
	gen := newStubGenerator(server)

	_, err := gen.GenerateQuestion(context.Background(), "Geography", nil)
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration for a malformed question, got %v", err)
	}
}

func TestGenerateQuestionAPIError(t *testing.T) {
	server, _ := geminiStub(t, http.StatusTooManyRequests, nil)
	gen := newStubGenerator(server)

	_, err := gen.GenerateQuestion(context.Background(), "Geography", nil)
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration on API failure, got %v", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("error leaked the api key: %v", err)
	}
}

func TestGenerateDailySet(t *testing.T) {
	questions := make([]map[string]any, domain.DailySetSize+2)
	for i := range questions {
		questions[i] = map[string]any{
			"question": fmt.Sprintf("Question %d?", i),
			"options":  []string{"a", "b", "c", "d"},
			"answer":   "a",
		}
	}
	server, _ := geminiStub(t, http.StatusOK, map[string]any{"questions": questions})
	gen := newStubGenerator(server)

	set, err := gen.GenerateDailySet(context.Background(), "History")
	if err != nil {
		t.Fatalf("generate set: %v", err)
	}
	if len(set) != domain.DailySetSize {
		t.Fatalf("expected the set truncated to %d, got %d", domain.DailySetSize, len(set))
	}
}

func TestGenerateDailySetTooShort(t *testing.T) {
	questions := []map[string]any{
		{"question": "Only one?", "options": []string{"a", "b", "c", "d"}, "answer": "a"},
	}
	server, _ := geminiStub(t, http.StatusOK, map[string]any{"questions": questions})
	gen := newStubGenerator(server)

	_, err := gen.GenerateDailySet(context.Background(), "History")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration for a short set, got %v", err)
	}
}

func TestGenerateQuestionConcurrentUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text, _ := json.Marshal(map[string]any{
			"question": "Capital of France?",
			"options":  []string{"Paris", "Lyon", "Nice", "Lille"},
			"answer":   "Paris",
		})
		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": string(text)}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	gen := newStubGenerator(server)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				q, err := gen.GenerateQuestion(context.Background(), "Geography", nil)
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				if len(q.Options) != 4 {
					t.Errorf("expected 4 options, got %v", q.Options)
					return
				}
			}
		}()
	}
	wg.Wait()
}
