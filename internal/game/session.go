package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"trivia-arcade/internal/domain"
)

// State is the session's position in the game flow.
type State string

const (
	StateHome     State = "HOME"
	StateLoading  State = "LOADING"
	StatePlaying  State = "PLAYING"
	StateAnswered State = "ANSWERED"
	StateGameOver State = "GAME_OVER"
)

const (
	defaultAnswerDwell   = 1500 * time.Millisecond
	defaultLevelUpBanner = 2500 * time.Millisecond
)

// DailyFlags records the date a daily challenge was last completed,
// keyed by player and category, and gates same-day re-entry.
type DailyFlags interface {
	DailyDone(ctx context.Context, ownerID, category string) (string, error)
	MarkDailyDone(ctx context.Context, ownerID, category, date string) error
}

// Scores persists terminal session scores to the leaderboards.
type Scores interface {
	SubmitScore(ctx context.Context, mode domain.Mode, entry domain.LeaderboardEntry) error
}

// Ratings records usefulness votes and serves per-question averages.
type Ratings interface {
	SetRating(ctx context.Context, questionID, userID string, rating int) error
	AverageRating(ctx context.Context, questionID string) (float64, int, error)
}

// Deps bundles the collaborators a session needs. Zero fields fall back to
// production defaults where one exists (scheduler, clock, rng, delays).
type Deps struct {
	Generator Generator
	Catalog   Catalog
	Daily     DailyQuizSource
	Useful    UsefulPool
	Flags     DailyFlags
	Scores    Scores
	Ratings   Ratings

	Scheduler     Scheduler
	Now           func() time.Time
	Rand          *rand.Rand
	AnswerDwell   time.Duration
	LevelUpBanner time.Duration
}

// Session owns all mutable game state for one play-through and is the only
// writer of it. External calls and timer callbacks serialize on one mutex;
// the epoch counter lets callbacks scheduled by an abandoned run detect that
// the session has moved on and bail out.
type Session struct {
	mu   sync.Mutex
	deps Deps

	ownerID string
	user    *domain.User

	epoch    uint64
	state    State
	mode     domain.Mode
	category string
	provider QuestionProvider

	current        *domain.TriviaQuestion
	questionNumber int
	displayOptions []string

	score    int
	streak   int
	stats    domain.PlayerStats
	powerUps map[domain.PowerUp]int

	timeLeft    int
	selected    string
	correct     *bool
	showLevelUp bool
	failure     string

	ratedCurrent bool
	avgRating    *float64

	stopTick   func()
	stopDwell  func()
	stopBanner func()

	closed      bool
	subscribers map[chan Snapshot]struct{}
}

// NewSession creates an idle session for one player. ownerID keys the daily
// completion flag; it is the user id for signed-in players and the connection
// id otherwise. user may be nil for anonymous play.
func NewSession(ownerID string, user *domain.User, deps Deps) *Session {
	if deps.Scheduler == nil {
		deps.Scheduler = NewWallScheduler()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.AnswerDwell == 0 {
		deps.AnswerDwell = defaultAnswerDwell
	}
	if deps.LevelUpBanner == 0 {
		deps.LevelUpBanner = defaultLevelUpBanner
	}
	return &Session{
		deps:        deps,
		ownerID:     ownerID,
		user:        user,
		state:       StateHome,
		stats:       domain.NewPlayerStats(),
		powerUps:    freshPowerUps(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

func freshPowerUps() map[domain.PowerUp]int {
	stock := make(map[domain.PowerUp]int, len(domain.AllPowerUps))
	for _, p := range domain.AllPowerUps {
		stock[p] = 1
	}
	return stock
}

// Start begins a new play-through, discarding any prior run. Precondition
// failures (daily already completed, useful pool too small) return an error
// with no state change; question acquisition failures end in GAME_OVER.
func (s *Session) Start(ctx context.Context, mode domain.Mode, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !mode.Valid() {
		return fmt.Errorf("unknown game mode %q", mode)
	}

	today := s.today()
	if mode == domain.ModeDaily {
		done, err := s.deps.Flags.DailyDone(ctx, s.ownerID, category)
		if err != nil {
			// Flag store trouble must not lock players out of the game.
			log.Printf("daily flag read failed: %v", err)
		}
		if done == today {
			return domain.ErrDailyCompleted
		}
	}

	// The useful-quiz pool is a start precondition: resolve it before any
	// session state is touched so an undersized pool mutates nothing.
	var provider QuestionProvider
	switch mode {
	case domain.ModeEndless:
		provider = newEndlessProvider(s.deps.Generator, s.deps.Catalog, category)
	case domain.ModeUsefulQuiz:
		p, err := newUsefulProvider(ctx, s.deps.Useful, s.deps.Rand)
		if err != nil {
			return err
		}
		provider = p
	}

	s.epoch++
	s.cancelTimersLocked()
	s.mode = mode
	s.category = category
	s.provider = provider
	s.score = 0
	s.streak = 0
	s.stats = domain.NewPlayerStats()
	s.powerUps = freshPowerUps()
	s.questionNumber = 0
	s.failure = ""
	s.showLevelUp = false
	s.clearQuestionLocked()
	s.state = StateLoading
	s.broadcastLocked()

	if mode == domain.ModeDaily {
		queue, err := s.deps.Daily.GetOrGenerate(ctx, today, category)
		if err != nil {
			s.gameOverLocked(err.Error())
			return nil
		}
		s.provider = &queueProvider{queue: queue}
	}

	s.advanceLocked(ctx)
	return nil
}

// Answer records the selected option. Outside PLAYING it is a no-op.
func (s *Session) Answer(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying || s.current == nil {
		return
	}

	s.stopTickLocked()
	correct := option == s.current.Answer
	s.selected = option
	s.correct = &correct
	s.state = StateAnswered

	if correct {
		s.applyCorrectLocked()
	} else {
		s.streak = 0
	}

	epoch := s.epoch
	s.stopDwell = s.deps.Scheduler.After(s.deps.AnswerDwell, func() {
		s.onDwellElapsed(epoch, correct)
	})
	s.broadcastLocked()
}

// applyCorrectLocked runs scoring, leveling, and streak bookkeeping for a
// correct answer. Points use the streak value before it increments.
func (s *Session) applyCorrectLocked() {
	points := 10 + (s.streak*3)/2 + 2*s.timeLeft
	s.score += points

	s.stats.XP += points
	leveled := false
	for s.stats.XP >= s.stats.XPToNextLevel {
		s.stats.XP -= s.stats.XPToNextLevel
		s.stats.Level++
		s.stats.XPToNextLevel = nextLevelThreshold(s.stats.Level)
		leveled = true
	}
	if leveled {
		s.showLevelUp = true
		s.stopBannerLocked()
		epoch := s.epoch
		s.stopBanner = s.deps.Scheduler.After(s.deps.LevelUpBanner, func() {
			s.onBannerElapsed(epoch)
		})
	}

	s.streak++
	if s.streak%5 == 0 {
		grant := domain.AllPowerUps[s.deps.Rand.Intn(len(domain.AllPowerUps))]
		s.powerUps[grant]++
	}
}

func nextLevelThreshold(level int) int {
	return int(math.Floor(domain.XPPerLevelBase * math.Pow(1.2, float64(level-1))))
}

// UsePowerUp applies a power-up during PLAYING. Without stock, outside
// PLAYING, or for an already-halved question it is a no-op and decrements
// nothing.
func (s *Session) UsePowerUp(ctx context.Context, kind domain.PowerUp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying || s.powerUps[kind] <= 0 || s.current == nil {
		return
	}

	switch kind {
	case domain.PowerUpFiftyFifty:
		if s.displayOptions != nil {
			return
		}
		s.powerUps[kind]--
		s.displayOptions = s.halveOptionsLocked()
	case domain.PowerUpExtraTime:
		s.powerUps[kind]--
		s.timeLeft += 10
		if s.timeLeft > domain.TimeLimit {
			s.timeLeft = domain.TimeLimit
		}
	case domain.PowerUpSkip:
		s.powerUps[kind]--
		s.stopTickLocked()
		s.advanceLocked(ctx)
		return
	default:
		return
	}
	s.broadcastLocked()
}

// halveOptionsLocked keeps the answer plus one uniformly random incorrect
// option, in Fisher-Yates shuffled order. The question itself is untouched.
func (s *Session) halveOptionsLocked() []string {
	incorrect := make([]string, 0, len(s.current.Options)-1)
	for _, opt := range s.current.Options {
		if opt != s.current.Answer {
			incorrect = append(incorrect, opt)
		}
	}
	display := []string{s.current.Answer, incorrect[s.deps.Rand.Intn(len(incorrect))]}
	s.deps.Rand.Shuffle(len(display), func(i, j int) {
		display[i], display[j] = display[j], display[i]
	})
	return display
}

// RateAnswer submits a usefulness vote for the current question and refreshes
// the displayed average. A failed write leaves rating state unchanged so the
// user can retry.
func (s *Session) RateAnswer(ctx context.Context, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return domain.ErrNotAuthenticated
	}
	if rating < 1 || rating > 10 {
		return domain.ErrInvalidRating
	}
	if s.current == nil || s.current.ID == "" {
		return domain.ErrQuestionNotFound
	}
	if s.ratedCurrent {
		return nil
	}

	if err := s.deps.Ratings.SetRating(ctx, s.current.ID, s.user.ID, rating); err != nil {
		return err
	}
	s.ratedCurrent = true

	// Sequential read-after-write; good enough under concurrent raters.
	if avg, n, err := s.deps.Ratings.AverageRating(ctx, s.current.ID); err == nil && n > 0 {
		s.avgRating = &avg
	}
	s.broadcastLocked()
	return nil
}

// Home returns a finished session to the mode-selection screen.
func (s *Session) Home() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.cancelTimersLocked()
	s.state = StateHome
	s.failure = ""
	s.clearQuestionLocked()
	s.broadcastLocked()
}

// Close tears the session down; outstanding timers and async continuations
// become stale and are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.cancelTimersLocked()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// advanceLocked moves LOADING -> PLAYING via the provider, or to GAME_OVER on
// exhaustion/failure. The lock stays held across the provider call: the state
// machine deliberately never runs overlapping acquisitions.
func (s *Session) advanceLocked(ctx context.Context) {
	s.state = StateLoading
	s.clearQuestionLocked()
	s.broadcastLocked()

	q, err := s.provider.Next(ctx)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			s.gameOverLocked("")
			return
		}
		s.gameOverLocked(err.Error())
		return
	}

	s.current = &q
	s.questionNumber++
	s.state = StatePlaying
	s.timeLeft = domain.TimeLimit
	s.startTickLocked()
	s.broadcastLocked()
}

func (s *Session) clearQuestionLocked() {
	s.current = nil
	s.displayOptions = nil
	s.selected = ""
	s.correct = nil
	s.ratedCurrent = false
	s.avgRating = nil
	s.timeLeft = domain.TimeLimit
}

func (s *Session) startTickLocked() {
	s.stopTickLocked()
	epoch := s.epoch
	s.stopTick = s.deps.Scheduler.Every(time.Second, func() {
		s.onTick(epoch)
	})
}

// onTick drives the countdown. Timeout resets the streak and goes straight to
// GAME_OVER, skipping the ANSWERED dwell entirely.
func (s *Session) onTick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.state != StatePlaying {
		return
	}
	s.timeLeft--
	if s.timeLeft > 0 {
		s.broadcastLocked()
		return
	}
	s.timeLeft = 0
	s.stopTickLocked()
	s.streak = 0
	s.gameOverLocked("")
}

func (s *Session) onDwellElapsed(epoch uint64, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.state != StateAnswered {
		return
	}
	if correct {
		s.advanceLocked(context.Background())
		return
	}
	s.gameOverLocked("")
}

func (s *Session) onBannerElapsed(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return
	}
	s.showLevelUp = false
	s.broadcastLocked()
}

// gameOverLocked enters the terminal state and runs the once-per-entry side
// effects: score submission for the two ranked modes and, for daily runs, the
// completion flag. Both are best-effort and never surface to the player. A run
// that died before serving a single question sets no flag, so a failed daily
// fetch leaves the challenge retryable.
func (s *Session) gameOverLocked(reason string) {
	s.cancelTimersLocked()
	s.state = StateGameOver
	s.failure = reason

	ctx := context.Background()
	if s.user != nil && s.score > 0 && s.mode != domain.ModeUsefulQuiz {
		entry := domain.LeaderboardEntry{
			UserID:   s.user.ID,
			Name:     s.user.Name,
			PhotoURL: s.user.PhotoURL,
			Score:    s.score,
		}
		if s.mode == domain.ModeDaily {
			entry.Date = s.today()
			entry.Category = s.category
		}
		if err := s.deps.Scores.SubmitScore(ctx, s.mode, entry); err != nil {
			log.Printf("score submission failed: %v", err)
		}
	}
	if s.mode == domain.ModeDaily && s.questionNumber > 0 {
		if err := s.deps.Flags.MarkDailyDone(ctx, s.ownerID, s.category, s.today()); err != nil {
			log.Printf("daily flag write failed: %v", err)
		}
	}
	s.broadcastLocked()
}

func (s *Session) stopTickLocked() {
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
}

func (s *Session) stopBannerLocked() {
	if s.stopBanner != nil {
		s.stopBanner()
		s.stopBanner = nil
	}
}

func (s *Session) cancelTimersLocked() {
	s.stopTickLocked()
	s.stopBannerLocked()
	if s.stopDwell != nil {
		s.stopDwell()
		s.stopDwell = nil
	}
}

func (s *Session) today() string {
	return s.deps.Now().Format("2006-01-02")
}
