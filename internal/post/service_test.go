package post

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ceo-assistant/internal/calendar"
	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/store"
	"github.com/fyrsmithlabs/ceo-assistant/internal/telemetry"
)

var now = time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)

func newService(t *testing.T) (Service, *events.Feed) {
	t.Helper()
	posts, err := store.Open[model.LinkedInPost](store.NewMemoryDB(), store.LinkedInPosts)
	require.NoError(t, err)
	feed := events.NewFeed(10)
	cal := calendar.New(time.UTC, calendar.WithClock(func() time.Time { return now }))
	svc, err := NewService(posts, feed, cal, nil)
	require.NoError(t, err)
	return svc, feed
}

func create(t *testing.T, svc Service, title, date, status string) model.LinkedInPost {
	t.Helper()
	p, err := svc.Create(context.Background(), "alice", model.PostInput{Title: title, Date: date, Status: status})
	require.NoError(t, err)
	return p
}

func titles(posts []model.LinkedInPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestCreate(t *testing.T) {
	svc, feed := newService(t)

	p, err := svc.Create(context.Background(), "alice", model.PostInput{
		Title:   "Company achievements in Q2",
		Content: "Proud to announce our team has exceeded sales targets by 20% this quarter...",
		Date:    "2024-03-20",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.PostScheduled, p.Status)
	assert.True(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).Equal(p.Date))

	assert.Equal(t, events.KindPost, feed.Recent("alice", 1)[0].Kind)
}

func TestCreate_Invalid(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    model.PostInput
		field string
	}{
		{"missing title", model.PostInput{Date: "2024-03-20"}, "title"},
		{"missing date", model.PostInput{Title: "t"}, "date"},
		{"bad date", model.PostInput{Title: "t", Date: "soon"}, "date"},
		{"bad status", model.PostInput{Title: "t", Date: "2024-03-20", Status: "draft"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "alice", tt.in)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestListByStatus(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	create(t, svc, "old scheduled", "2024-03-01", "")
	create(t, svc, "posted", "2024-03-05", "posted")
	create(t, svc, "new scheduled", "2024-03-25", "scheduled")

	got, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"new scheduled", "posted", "old scheduled"}, titles(got))

	got, err = svc.ListByStatus(ctx, "alice", "scheduled")
	require.NoError(t, err)
	assert.Equal(t, []string{"new scheduled", "old scheduled"}, titles(got))

	got, err = svc.ListByStatus(ctx, "alice", "open")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.ListByStatus(ctx, "alice", "archived")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid status value", verr.Message)
}

func TestUpdateStatus(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	tel.SetGlobal(t)

	svc, feed := newService(t)
	ctx := context.Background()
	p := create(t, svc, "New features released", "2024-03-20", "")

	got, err := svc.UpdateStatus(ctx, "alice", p.ID, "posted")
	require.NoError(t, err)
	assert.Equal(t, model.PostPosted, got.Status)
	assert.Equal(t, events.ActionStatusChanged, feed.Recent("alice", 1)[0].Action)

	_, err = svc.UpdateStatus(ctx, "alice", p.ID, "deleted")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)

	_, err = svc.UpdateStatus(ctx, "bob", p.ID, "open")
	assert.ErrorIs(t, err, store.ErrNotFound)

	tel.AssertSpanAttribute(t, "post.update_status", "post_id", p.ID)
	assert.Equal(t, int64(2), tel.SumValue(t, "ceo.post.mutations_total"))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := create(t, svc, "draft", "2024-03-20", "")

	content := "  edited body  "
	got, err := svc.Update(ctx, "alice", p.ID, model.PostPatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "edited body", got.Content)
	assert.Equal(t, "draft", got.Title)

	assert.ErrorIs(t, svc.Delete(ctx, "bob", p.ID), store.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "alice", p.ID))
	_, err = svc.Get(ctx, "alice", p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
