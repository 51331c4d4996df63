package clock

import "time"

// Clock provides the current time. The session core never reads the wall
// clock directly so tests can pin the date.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock that always reports the same instant.
type Fixed struct {
	Time time.Time
}

func (f Fixed) Now() time.Time {
	return f.Time
}

// DateKey returns the calendar day of t as YYYY-MM-DD. The daily quota
// boundary is UTC, matching the ISO date the web client stored.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
