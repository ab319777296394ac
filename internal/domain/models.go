package domain

// Gameplay constants shared across the session core and its gateways.
const (
	// TimeLimit is the per-question countdown in seconds; EXTRA_TIME clamps to it.
	TimeLimit = 15
	// XPPerLevelBase seeds the level-up threshold curve: floor(250 * 1.2^(level-1)).
	XPPerLevelBase = 250
	// RecentQuestionMax bounds the exclusion hint passed to the generator.
	RecentQuestionMax = 10
	// DailySetSize is the fixed length of a generated daily quiz.
	DailySetSize = 20
	// UsefulThreshold is the minimum average rating for a question to count as useful.
	UsefulThreshold = 7.0
	// UsefulQuizMinPool is the smallest useful-question pool that can start a quiz.
	UsefulQuizMinPool = 5
)

// Mode selects which question provider a session runs against.
type Mode string

const (
	ModeEndless    Mode = "ENDLESS"
	ModeDaily      Mode = "DAILY"
	ModeUsefulQuiz Mode = "USEFUL_QUIZ"
)

// Valid reports whether m is one of the three playable modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeEndless, ModeDaily, ModeUsefulQuiz:
		return true
	}
	return false
}

// PowerUp identifies a consumable gameplay modifier.
type PowerUp string

const (
	PowerUpFiftyFifty PowerUp = "FIFTY_FIFTY"
	PowerUpSkip       PowerUp = "SKIP"
	PowerUpExtraTime  PowerUp = "EXTRA_TIME"
)

// AllPowerUps is the fixed order used for uniform random grants.
var AllPowerUps = []PowerUp{PowerUpFiftyFifty, PowerUpSkip, PowerUpExtraTime}

// Categories are the playable trivia categories.
var Categories = []string{
	"General Knowledge",
	"Science & Nature",
	"History",
	"Geography",
	"Entertainment: Film & TV",
	"Entertainment: Music",
	"Sports",
	"Technology",
	"Real Life",
}

// TriviaQuestion is a single MCQ item. ID is empty until the catalog assigns one.
type TriviaQuestion struct {
	ID       string   `json:"id,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Validate enforces the generation contract: non-empty prompt, exactly four
// unique options, and the answer present among them.
func (q TriviaQuestion) Validate() error {
	if q.Question == "" {
		return ErrGeneration
	}
	if len(q.Options) != 4 {
		return ErrGeneration
	}
	seen := make(map[string]struct{}, len(q.Options))
	answerFound := false
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return ErrGeneration
		}
		seen[opt] = struct{}{}
		if opt == q.Answer {
			answerFound = true
		}
	}
	if !answerFound {
		return ErrGeneration
	}
	return nil
}

// PlayerStats tracks within-session leveling. Invariant: 0 <= XP < XPToNextLevel.
type PlayerStats struct {
	Level         int `json:"level"`
	XP            int `json:"xp"`
	XPToNextLevel int `json:"xpToNextLevel"`
}

// NewPlayerStats returns the level-1 stats every session starts from.
func NewPlayerStats() PlayerStats {
	return PlayerStats{Level: 1, XP: 0, XPToNextLevel: XPPerLevelBase}
}

// User is the identity surfaced by the federated sign-in provider.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// LeaderboardEntry is a stored score. Date and Category are set for daily runs only.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
	Score    int    `json:"score"`
	Date     string `json:"date,omitempty"`
	Category string `json:"category,omitempty"`
}

// AnswerRating is one user's 1-10 usefulness vote for a catalog question.
type AnswerRating struct {
	AnswerID string `json:"answerId"`
	UserID   string `json:"userId"`
	Rating   int    `json:"rating"`
}
