// Package events publishes domain events for every mutation and keeps a
// bounded per-user feed of recent activity.
//
// Events are published to NATS under <prefix>.<userId>.<kind>.<action> when
// NATS is enabled. Otherwise they go straight to the in-process Feed.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the entity an event is about.
type Kind string

const (
	KindTask       Kind = "task"
	KindWeeklyGoal Kind = "weekly_goal"
	KindDailyGoal  Kind = "daily_goal"
	KindPost       Kind = "linkedin_post"
)

// Action identifies what happened to the entity.
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionToggled       Action = "toggled"
	ActionStatusChanged Action = "status_changed"
)

// Event is a single mutation performed by a user.
type Event struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Kind     Kind      `json:"kind"`
	Action   Action    `json:"action"`
	EntityID string    `json:"entityId"`
	Title    string    `json:"title"`
	At       time.Time `json:"at"`
}

// New returns an event with a fresh ID.
func New(userID string, kind Kind, action Action, entityID, title string, at time.Time) Event {
	return Event{
		ID:       uuid.New().String(),
		UserID:   userID,
		Kind:     kind,
		Action:   action,
		EntityID: entityID,
		Title:    title,
		At:       at,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Subject returns the NATS subject for e:
//
//	<prefix>.<userId>.<kind>.<action>
//
// Characters NATS treats as tokens or wildcards are replaced in the user ID.
func Subject(prefix string, e Event) string {
	return prefix + "." + subjectToken(e.UserID) + "." + string(e.Kind) + "." + string(e.Action)
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_", "\n", "_", "\r", "_")

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return subjectReplacer.Replace(s)
}
