package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-arcade/internal/domain"
)

// Store backs the question catalog, both leaderboards, and usefulness ratings.
// Questions are stored as JSONB alongside their catalog id.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// PutQuestion upserts a question. A question without an id reuses the id of
// an identical prompt when one exists, so regeneration stays idempotent.
func (s *Store) PutQuestion(ctx context.Context, q domain.TriviaQuestion) (string, error) {
	if q.ID == "" {
		var existing string
		err := s.pool.QueryRow(ctx,
			`SELECT id FROM questions WHERE data->>'question' = $1`, q.Question).Scan(&existing)
		switch {
		case err == nil:
			q.ID = existing
		case errors.Is(err, pgx.ErrNoRows):
			q.ID = uuid.NewString()
		default:
			return "", fmt.Errorf("lookup question by prompt: %w", err)
		}
	}

	data, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal question: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, q.ID, string(data))
	if err != nil {
		return "", fmt.Errorf("upsert question: %w", err)
	}
	return q.ID, nil
}

func (s *Store) GetQuestionByID(ctx context.Context, id string) (domain.TriviaQuestion, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM questions WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TriviaQuestion{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.TriviaQuestion{}, fmt.Errorf("load question: %w", err)
	}
	var q domain.TriviaQuestion
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.TriviaQuestion{}, fmt.Errorf("unmarshal question: %w", err)
	}
	q.ID = id
	return q, nil
}

// SubmitScore writes a terminal score: write-if-greater for endless (keyed by
// user), always-overwrite for daily (keyed by user, date, and category).
func (s *Store) SubmitScore(ctx context.Context, mode domain.Mode, entry domain.LeaderboardEntry) error {
	if mode == domain.ModeDaily {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO daily_leaderboard (user_id, date, category, name, photo_url, score)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (user_id, date, category)
			 DO UPDATE SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url, score = EXCLUDED.score`,
			entry.UserID, entry.Date, entry.Category, entry.Name, entry.PhotoURL, entry.Score)
		if err != nil {
			return fmt.Errorf("submit daily score: %w", err)
		}
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO endless_leaderboard (user_id, name, photo_url, score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id)
		 DO UPDATE SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url, score = EXCLUDED.score
		 WHERE endless_leaderboard.score < EXCLUDED.score`,
		entry.UserID, entry.Name, entry.PhotoURL, entry.Score)
	if err != nil {
		return fmt.Errorf("submit endless score: %w", err)
	}
	return nil
}

// GetLeaderboard returns the top 10 entries by score descending. Daily results
// are filtered to the given date.
func (s *Store) GetLeaderboard(ctx context.Context, mode domain.Mode, date string) ([]domain.LeaderboardEntry, error) {
	var rows pgx.Rows
	var err error
	if mode == domain.ModeDaily {
		rows, err = s.pool.Query(ctx,
			`SELECT user_id, name, photo_url, score, date, category FROM daily_leaderboard
			 WHERE date = $1 ORDER BY score DESC LIMIT 10`, date)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT user_id, name, photo_url, score, '', '' FROM endless_leaderboard
			 ORDER BY score DESC LIMIT 10`)
	}
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.PhotoURL, &entry.Score, &entry.Date, &entry.Category); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetRating records one user's vote for a question, last write wins.
func (s *Store) SetRating(ctx context.Context, questionID, userID string, rating int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO answer_ratings (question_id, user_id, rating) VALUES ($1, $2, $3)
		 ON CONFLICT (question_id, user_id) DO UPDATE SET rating = EXCLUDED.rating`,
		questionID, userID, rating)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}

func (s *Store) GetRatings(ctx context.Context, questionID string) ([]domain.AnswerRating, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id, user_id, rating FROM answer_ratings WHERE question_id = $1 ORDER BY user_id`,
		questionID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.AnswerRating
	for rows.Next() {
		var r domain.AnswerRating
		if err := rows.Scan(&r.AnswerID, &r.UserID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func (s *Store) AverageRating(ctx context.Context, questionID string) (float64, int, error) {
	var avg float64
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM answer_ratings WHERE question_id = $1`,
		questionID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, count, nil
}

func (s *Store) UsefulQuestionIDs(ctx context.Context, threshold float64) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id FROM answer_ratings GROUP BY question_id HAVING AVG(rating) >= $1`,
		threshold)
	if err != nil {
		return nil, fmt.Errorf("query useful ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan useful id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UsefulQuestions resolves the qualifying catalog questions in one query.
func (s *Store) UsefulQuestions(ctx context.Context, threshold float64) ([]domain.TriviaQuestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.data FROM questions q
		 JOIN answer_ratings r ON r.question_id = q.id
		 GROUP BY q.id, q.data HAVING AVG(r.rating) >= $1`,
		threshold)
	if err != nil {
		return nil, fmt.Errorf("query useful questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.TriviaQuestion
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan useful question: %w", err)
		}
		var q domain.TriviaQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal useful question: %w", err)
		}
		q.ID = id
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
