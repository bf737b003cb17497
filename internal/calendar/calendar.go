// Package calendar computes the day and week windows used by date queries.
//
// All windows are inclusive and millisecond precise: a day runs from
// 00:00:00.000 to 23:59:59.999 and a week from Monday 00:00:00.000 to
// Sunday 23:59:59.999, in the calendar's location.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day form accepted in paths and query strings.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned by Parse for input in neither accepted form.
var ErrInvalidDate = errors.New("invalid date")

// Calendar anchors windows to a location and a clock.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// New returns a Calendar in loc. A nil loc means UTC.
func New(loc *time.Location, opts ...Option) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns a Calendar for an IANA zone name such as "Europe/Berlin".
func Load(name string, opts ...Option) (*Calendar, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return New(loc, opts...), nil
}

// Location returns the calendar's location.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant, truncated to storage precision.
func (c *Calendar) Now() time.Time {
	return Normalize(c.now())
}

// Today returns the window of the current day.
func (c *Calendar) Today() (time.Time, time.Time) {
	return c.DayBounds(c.now())
}

// DayBounds returns the first and last millisecond of the day containing t.
func (c *Calendar) DayBounds(t time.Time) (time.Time, time.Time) {
	start := c.startOfDay(t)
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}

// WeekBounds returns the first and last millisecond of the Monday-based
// week containing t.
func (c *Calendar) WeekBounds(t time.Time) (time.Time, time.Time) {
	day := c.startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7).Add(-time.Millisecond)
}

func (c *Calendar) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// Parse accepts YYYY-MM-DD, interpreted as midnight in the calendar's
// location, or an RFC 3339 timestamp.
func (c *Calendar) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, c.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD or RFC 3339)", ErrInvalidDate, s)
}

// Normalize converts t to UTC at millisecond precision, the resolution every
// store provider keeps.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
