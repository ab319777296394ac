package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trivia-arcade/internal/domain"
)

// Catalog is an in-memory question catalog with usefulness ratings, mirroring
// the Postgres store for tests and no-infra demo runs.
type Catalog struct {
	mu        sync.RWMutex
	questions map[string]domain.TriviaQuestion
	byPrompt  map[string]string
	ratings   map[string]map[string]int // question id -> user id -> rating
}

func NewCatalog() *Catalog {
	return &Catalog{
		questions: make(map[string]domain.TriviaQuestion),
		byPrompt:  make(map[string]string),
		ratings:   make(map[string]map[string]int),
	}
}

// PutQuestion upserts a question, reusing the id of an identical prompt so
// repeated generation stays idempotent.
func (c *Catalog) PutQuestion(_ context.Context, q domain.TriviaQuestion) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q.ID == "" {
		if id, ok := c.byPrompt[q.Question]; ok {
			q.ID = id
		} else {
			q.ID = uuid.NewString()
		}
	}
	c.questions[q.ID] = q
	c.byPrompt[q.Question] = q.ID
	return q.ID, nil
}

func (c *Catalog) GetQuestionByID(_ context.Context, id string) (domain.TriviaQuestion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.questions[id]
	if !ok {
		return domain.TriviaQuestion{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (c *Catalog) SetRating(_ context.Context, questionID, userID string, rating int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.questions[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	votes, ok := c.ratings[questionID]
	if !ok {
		votes = make(map[string]int)
		c.ratings[questionID] = votes
	}
	votes[userID] = rating
	return nil
}

func (c *Catalog) GetRatings(_ context.Context, questionID string) ([]domain.AnswerRating, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	votes := c.ratings[questionID]
	ratings := make([]domain.AnswerRating, 0, len(votes))
	for userID, rating := range votes {
		ratings = append(ratings, domain.AnswerRating{AnswerID: questionID, UserID: userID, Rating: rating})
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].UserID < ratings[j].UserID })
	return ratings, nil
}

func (c *Catalog) AverageRating(_ context.Context, questionID string) (float64, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.averageLocked(questionID)
}

func (c *Catalog) averageLocked(questionID string) (float64, int, error) {
	votes := c.ratings[questionID]
	if len(votes) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, rating := range votes {
		sum += rating
	}
	return float64(sum) / float64(len(votes)), len(votes), nil
}

func (c *Catalog) UsefulQuestionIDs(_ context.Context, threshold float64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0)
	for id := range c.questions {
		if avg, n, _ := c.averageLocked(id); n > 0 && avg >= threshold {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// UsefulQuestions resolves the qualifying ids into full questions.
func (c *Catalog) UsefulQuestions(ctx context.Context, threshold float64) ([]domain.TriviaQuestion, error) {
	ids, err := c.UsefulQuestionIDs(ctx, threshold)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	questions := make([]domain.TriviaQuestion, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, c.questions[id])
	}
	return questions, nil
}
