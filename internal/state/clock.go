package state

import (
	"fmt"
	"time"
)

// DateLayout is the zero-padded local date format used for lastSeenDate and
// history keys. Lexicographic order of these strings is calendar order.
const DateLayout = "2006-01-02"

// Clock supplies the local calendar date for rollover detection.
type Clock interface {
	Today() string
	Yesterday() string
}

// SystemClock reads the wall clock through an injectable now function.
type SystemClock struct {
	now func() time.Time
}

// NewSystemClock returns a clock over now; nil means time.Now.
func NewSystemClock(now func() time.Time) *SystemClock {
	if now == nil {
		now = time.Now
	}
	return &SystemClock{now: now}
}

// Now returns the current time according to the clock.
func (c *SystemClock) Now() time.Time {
	if c == nil || c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Today returns the current local date.
func (c *SystemClock) Today() string {
	return DateString(c.Now())
}

// Yesterday returns the local date one calendar day before Today.
func (c *SystemClock) Yesterday() string {
	return DateString(c.Now().AddDate(0, 0, -1))
}

// DateString formats t as a local YYYY-MM-DD date.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in the local zone.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return t, nil
}

// PrevDate returns the calendar day before date.
func PrevDate(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return DateString(t.AddDate(0, 0, -1)), nil
}

// IsValidDate reports whether date is a canonical YYYY-MM-DD string.
func IsValidDate(date string) bool {
	t, err := ParseDate(date)
	return err == nil && DateString(t) == date
}
