package core

import "time"

type Timer interface {
	// Stop reports whether the timer was still pending.
	Stop() bool
}

// Clock is injected wherever timers are armed so tests can drive time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
