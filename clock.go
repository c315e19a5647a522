package main

import "time"

// Clock provides the current time. The engine and the scenario service take one
// so tests can pin timestamps; the runner pool reads the engine's to age sessions.
type Clock interface {
	Now() time.Time
}

// RealClock returns the system time
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}
