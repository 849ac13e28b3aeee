package calendar

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The Picker and the form rules use it to decide what "today" is.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant. Useful for tests and demos.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.Time
}

// Today returns the civil date of the clock's current instant.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
