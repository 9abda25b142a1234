package chain

import "time"

// DateLayout is the calendar-day format used for record timestamps.
const DateLayout = "2006-01-02"

// Clock supplies the date stamped on appended records.
type Clock interface {
	Today() string
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

// Today implements Clock.
func (c SystemClock) Today() string {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(DateLayout)
}

// FixedClock always reports the same date. Useful for reproducible hashes.
type FixedClock string

// Today implements Clock.
func (c FixedClock) Today() string { return string(c) }

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() string

// Today implements Clock.
func (f ClockFunc) Today() string { return f() }
