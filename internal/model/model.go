package model

import (
	"strings"
	"time"
)

// Clock supplies the current time and parses client dates. *calendar.Calendar
// satisfies it.
type Clock interface {
	Now() time.Time
	Parse(s string) (time.Time, error)
}

// Field names shared by every document.
const (
	FieldID        = "_id"
	FieldUserID    = "userId"
	FieldDate      = "date"
	FieldCompleted = "completed"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Meta is embedded by every document.
type Meta struct {
	ID        string    `json:"_id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DocID returns the document identifier.
func (m Meta) DocID() string { return m.ID }

// Owner returns the owning user.
func (m Meta) Owner() string { return m.UserID }

func requiredString(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Invalid(field, "%s is required", field)
	}
	return s, nil
}

// ParseDate parses a client date (YYYY-MM-DD or RFC 3339) and reports a
// ValidationError on the date field when it is malformed.
func ParseDate(clock Clock, s string) (time.Time, error) {
	return parseDate(clock, s)
}

func parseDate(clock Clock, s string) (time.Time, error) {
	t, err := clock.Parse(s)
	if err != nil {
		return time.Time{}, Invalid(FieldDate, "must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return normalize(t), nil
}

// optionalDate parses s, falling back to now when it is empty.
func optionalDate(clock Clock, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return normalize(clock.Now()), nil
	}
	return parseDate(clock, s)
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
