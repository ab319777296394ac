package game

import (
	"sync"
	"time"
)

// Scheduler abstracts the timers driving the session: the one-second countdown
// tick, the post-answer dwell, and the level-up banner auto-clear. Tests swap
// in a manual implementation to fire callbacks deterministically.
type Scheduler interface {
	// Every invokes fn once per interval until the returned stop func is called.
	Every(interval time.Duration, fn func()) (stop func())
	// After invokes fn once after delay unless the returned stop func is called first.
	After(delay time.Duration, fn func()) (stop func())
}

// NewWallScheduler returns a Scheduler backed by real wall-clock timers.
func NewWallScheduler() Scheduler {
	return wallScheduler{}
}

type wallScheduler struct{}

func (wallScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

func (wallScheduler) After(delay time.Duration, fn func()) func() {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}
