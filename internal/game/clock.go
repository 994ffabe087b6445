package game

import "time"

// Clock abstracts wall time so the round state machine can be driven by a
// fake clock in tests. Phase deadlines and the crash-poll ticker all come
// from here; nothing in the scheduler reads time.Now directly.
type Clock interface {
	Now() time.Time
	// After fires once when d has elapsed.
	After(d time.Duration) <-chan time.Time
	// Ticker fires repeatedly every d until stop is called.
	Ticker(d time.Duration) (ticks <-chan time.Time, stop func())
}

type realClock struct{}

// RealClock returns the wall-clock implementation used in production.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
