package game

import "trivia-arcade/internal/domain"

// QuestionView is the render-facing slice of the current question. Options
// reflects the 50/50 override when one is active, and Answer is withheld
// until the question has been resolved.
type QuestionView struct {
	ID       string   `json:"id,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer,omitempty"`
}

// Snapshot is the full set of render props emitted after every transition.
type Snapshot struct {
	State           State               `json:"state"`
	Mode            domain.Mode         `json:"mode,omitempty"`
	Category        string              `json:"category,omitempty"`
	Question        *QuestionView       `json:"question,omitempty"`
	QuestionNumber  int                 `json:"questionNumber"`
	Score           int                 `json:"score"`
	Streak          int                 `json:"streak"`
	Stats           domain.PlayerStats  `json:"stats"`
	PowerUps        map[domain.PowerUp]int `json:"powerUps"`
	TimeLeft        int                 `json:"timeLeft"`
	SelectedAnswer  string              `json:"selectedAnswer,omitempty"`
	Correct         *bool               `json:"correct,omitempty"`
	ShowLevelUp     bool                `json:"showLevelUp"`
	RatingSubmitted bool                `json:"ratingSubmitted"`
	AverageRating   *float64            `json:"averageRating,omitempty"`
	GameOverReason  string              `json:"gameOverReason,omitempty"`
}

// Snapshot returns the current render props.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every transition,
// primed with the current state. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// Prime under the lock: every send to a subscriber channel happens while
	// holding s.mu, so the drain-then-refill in broadcastLocked cannot block.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow consumer never blocks the machine.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           s.state,
		Mode:            s.mode,
		Category:        s.category,
		QuestionNumber:  s.questionNumber,
		Score:           s.score,
		Streak:          s.streak,
		Stats:           s.stats,
		PowerUps:        make(map[domain.PowerUp]int, len(s.powerUps)),
		TimeLeft:        s.timeLeft,
		SelectedAnswer:  s.selected,
		Correct:         s.correct,
		ShowLevelUp:     s.showLevelUp,
		RatingSubmitted: s.ratedCurrent,
		AverageRating:   s.avgRating,
		GameOverReason:  s.failure,
	}
	for kind, n := range s.powerUps {
		snap.PowerUps[kind] = n
	}
	if s.current != nil {
		view := &QuestionView{
			ID:       s.current.ID,
			Question: s.current.Question,
			Options:  append([]string(nil), s.current.Options...),
		}
		if s.displayOptions != nil {
			view.Options = append([]string(nil), s.displayOptions...)
		}
		if s.state == StateAnswered || s.state == StateGameOver {
			view.Answer = s.current.Answer
		}
		snap.Question = view
	}
	return snap
}
