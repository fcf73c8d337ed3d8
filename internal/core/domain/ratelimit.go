package domain

import "time"

// Window is a rate-limit granularity.
type Window int

const (
	WindowMinute Window = iota
	WindowHour
	WindowDay
)

// Windows lists every granularity from shortest to longest.
var Windows = []Window{WindowMinute, WindowHour, WindowDay}

// String returns the window name used in headers and keys.
func (w Window) String() string {
	switch w {
	case WindowMinute:
		return "minute"
	case WindowHour:
		return "hour"
	case WindowDay:
		return "day"
	default:
		return "unknown"
	}
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Start returns the epoch-aligned start of the window containing t.
func (w Window) Start(t time.Time) time.Time {
	return t.UTC().Truncate(w.Duration())
}

// WindowCount is one counter observed after an increment.
type WindowCount struct {
	Window Window
	Start  time.Time
	Count  int64
}

// RateLimitResult is the outcome of a rate-limit check, reported for the
// window that determined it.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
	Window    Window
}
