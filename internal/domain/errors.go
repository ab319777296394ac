package domain

import "errors"

var (
	// ErrGeneration is returned when the question source produced no usable content.
	ErrGeneration = errors.New("question generation failed")
	// ErrDailyCompleted blocks re-entry into a daily challenge already finished today.
	ErrDailyCompleted = errors.New("daily challenge already completed today")
	// ErrInsufficientUseful blocks the useful-answers quiz when the pool is too small.
	ErrInsufficientUseful = errors.New("not enough useful questions to start a quiz")
	// ErrQuestionNotFound indicates a catalog lookup missed.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNotAuthenticated is returned when an operation requires a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidRating is returned for usefulness ratings outside 1..10.
	ErrInvalidRating = errors.New("rating must be between 1 and 10")
	// ErrSessionNotFound is returned when a game session has not been started.
	ErrSessionNotFound = errors.New("game session not found")
)
