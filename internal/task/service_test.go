package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ceo-assistant/internal/calendar"
	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/logging"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/store"
	"github.com/fyrsmithlabs/ceo-assistant/internal/telemetry"
)

var now = time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc  Service
	feed *events.Feed
	tel  *telemetry.TestTelemetry
}

func newFixture(t *testing.T, pub events.Publisher) *fixture {
	t.Helper()
	tel := telemetry.NewTestTelemetry()
	tel.SetGlobal(t)

	tasks, err := store.Open[model.Task](store.NewMemoryDB(), store.Tasks)
	require.NoError(t, err)

	feed := events.NewFeed(10)
	if pub == nil {
		pub = feed
	}
	cal := calendar.New(time.UTC, calendar.WithClock(func() time.Time { return now }))
	svc, err := NewService(tasks, pub, cal, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, feed: feed, tel: tel}
}

func (f *fixture) create(t *testing.T, user, title, date string, cat model.Category) model.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), user, model.TaskInput{
		Title:       title,
		Description: "about " + title,
		Date:        date,
		Category:    string(cat),
		Priority:    "medium",
	})
	require.NoError(t, err)
	return task
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, nil, calendar.New(nil), nil)
	assert.Error(t, err)

	tasks, _ := store.Open[model.Task](store.NewMemoryDB(), store.Tasks)
	_, err = NewService(tasks, nil, nil, nil)
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	task, err := f.svc.Create(ctx, "alice", model.TaskInput{
		Title:       "  Finish API integration ",
		Description: "Connect the frontend to the backend API",
		Category:    "product",
		Priority:    "high",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "alice", task.UserID)
	assert.Equal(t, "Finish API integration", task.Title)
	assert.Equal(t, model.CategoryProduct, task.Category)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.False(t, task.Completed)
	assert.Equal(t, "", task.Notes)
	assert.True(t, now.Equal(task.Date))
	assert.True(t, now.Equal(task.CreatedAt))
	assert.True(t, now.Equal(task.UpdatedAt))

	got, err := f.svc.Get(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)

	recent := f.feed.Recent("alice", 0)
	require.Len(t, recent, 1)
	assert.Equal(t, events.KindTask, recent[0].Kind)
	assert.Equal(t, events.ActionCreated, recent[0].Action)
	assert.Equal(t, task.ID, recent[0].EntityID)

	f.tel.AssertSpanExists(t, "task.create")
	f.tel.AssertSpanAttribute(t, "task.create", "task_id", task.ID)
	assert.Equal(t, int64(1), f.tel.SumValue(t, "ceo.task.mutations_total"))
}

func TestCreate_Invalid(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name  string
		in    model.TaskInput
		field string
	}{
		{"missing title", model.TaskInput{Description: "d", Category: "sales", Priority: "low"}, "title"},
		{"missing description", model.TaskInput{Title: "t", Category: "sales", Priority: "low"}, "description"},
		{"bad category", model.TaskInput{Title: "t", Description: "d", Category: "finance", Priority: "low"}, "category"},
		{"bad priority", model.TaskInput{Title: "t", Description: "d", Category: "sales", Priority: "urgent"}, "priority"},
		{"bad date", model.TaskInput{Title: "t", Description: "d", Date: "14/03/2024", Category: "sales", Priority: "low"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), "alice", tt.in)
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, f.feed.Recent("alice", 0))
}

func TestCreate_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t, failingPublisher{})
	task := f.create(t, "alice", "Prepare presentation", "", model.CategorySales)
	assert.NotEmpty(t, task.ID)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error { return errors.New("nats down") }

func TestList(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.create(t, "alice", "monday", "2024-03-11", model.CategorySales)
	f.create(t, "alice", "wednesday", "2024-03-13", model.CategoryProduct)
	f.create(t, "alice", "tuesday", "2024-03-12", model.CategorySales)
	f.create(t, "bob", "bob's", "2024-03-12", model.CategorySales)

	got, err := f.svc.List(ctx, "alice", Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"wednesday", "tuesday", "monday"}, titles(got))

	got, err = f.svc.List(ctx, "alice", Filter{Category: "sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tuesday", "monday"}, titles(got))

	_, err = f.svc.List(ctx, "alice", Filter{Category: "nope"})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	got, err = f.svc.List(ctx, "carol", Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestList_Completed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	done := f.create(t, "alice", "done", "2024-03-11", model.CategorySales)
	f.create(t, "alice", "open", "2024-03-12", model.CategorySales)
	_, err := f.svc.ToggleCompletion(ctx, "alice", done.ID)
	require.NoError(t, err)

	got, err := f.svc.List(ctx, "alice", Filter{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, titles(got))

	got, err = f.svc.List(ctx, "alice", Filter{Category: "sales", Completed: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"open"}, titles(got))
}

func TestListByCategory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.create(t, "alice", "ads", "2024-03-10", model.CategoryMarketing)
	f.create(t, "alice", "newsletter", "2024-03-12", model.CategoryMarketing)
	f.create(t, "alice", "deck", "2024-03-11", model.CategorySales)

	got, err := f.svc.ListByCategory(ctx, "alice", "marketing")
	require.NoError(t, err)
	assert.Equal(t, []string{"newsletter", "ads"}, titles(got))

	_, err = f.svc.ListByCategory(ctx, "alice", "Marketing")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestListByDate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.create(t, "alice", "late", "2024-03-14T23:59:59.999Z", model.CategorySales)
	f.create(t, "alice", "early", "2024-03-14T00:00:00Z", model.CategorySales)
	f.create(t, "alice", "noon", "2024-03-14T12:00:00Z", model.CategorySales)
	f.create(t, "alice", "next day", "2024-03-15T00:00:00Z", model.CategorySales)
	f.create(t, "alice", "day before", "2024-03-13T23:59:59.999Z", model.CategorySales)

	got, err := f.svc.ListByDate(ctx, "alice", "2024-03-14")
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "noon", "late"}, titles(got))

	got, err = f.svc.ListByDate(ctx, "alice", "2024-03-14T18:30:00Z")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = f.svc.ListByDate(ctx, "alice", "yesterday")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestListByDate_Timezone(t *testing.T) {
	tasks, err := store.Open[model.Task](store.NewMemoryDB(), store.Tasks)
	require.NoError(t, err)
	cal, err := calendar.Load("America/New_York")
	require.NoError(t, err)
	svc, err := NewService(tasks, nil, cal, nil)
	require.NoError(t, err)
	ctx := context.Background()

	in := model.TaskInput{Description: "d", Category: "sales", Priority: "low"}
	in.Title, in.Date = "evening in new york", "2024-03-15T02:00:00Z"
	_, err = svc.Create(ctx, "alice", in)
	require.NoError(t, err)
	in.Title, in.Date = "morning in new york", "2024-03-15T14:00:00Z"
	_, err = svc.Create(ctx, "alice", in)
	require.NoError(t, err)

	got, err := svc.ListByDate(ctx, "alice", "2024-03-14")
	require.NoError(t, err)
	assert.Equal(t, []string{"evening in new york"}, titles(got))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, "alice", "draft", "2024-03-11", model.CategorySales)

	got, err := f.svc.Update(ctx, "alice", task.ID, model.TaskPatch{
		Title:    ptr("final"),
		Priority: ptr("high"),
		Notes:    ptr("ship it"),
		Date:     ptr("2024-03-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Equal(t, "ship it", got.Notes)
	assert.Equal(t, model.CategorySales, got.Category)
	assert.Equal(t, "about draft", got.Description)
	assert.True(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).Equal(got.Date))

	_, err = f.svc.Update(ctx, "alice", task.ID, model.TaskPatch{Category: ptr("legal")})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.Update(ctx, "bob", task.ID, model.TaskPatch{Title: ptr("stolen")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Update(ctx, "alice", "missing", model.TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	recent := f.feed.Recent("alice", 0)
	assert.Equal(t, events.ActionUpdated, recent[0].Action)
	assert.Equal(t, "final", recent[0].Title)
}

func TestToggleCompletion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, "alice", "toggle me", "", model.CategoryProduct)

	got, err := f.svc.ToggleCompletion(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	got, err = f.svc.ToggleCompletion(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	_, err = f.svc.ToggleCompletion(ctx, "bob", task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, events.ActionToggled, f.feed.Recent("alice", 1)[0].Action)
	f.tel.AssertSpanExists(t, "task.toggle")
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := f.create(t, "alice", "obsolete", "", model.CategoryProduct)

	assert.ErrorIs(t, f.svc.Delete(ctx, "bob", task.ID), store.ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, "alice", task.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, "alice", task.ID), store.ErrNotFound)

	_, err := f.svc.Get(ctx, "alice", task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted := f.feed.Recent("alice", 1)[0]
	assert.Equal(t, events.ActionDeleted, deleted.Action)
	assert.Equal(t, "obsolete", deleted.Title)
}

func TestCreate_LogsContextFields(t *testing.T) {
	tl := logging.NewTestLogger()
	tasks, err := store.Open[model.Task](store.NewMemoryDB(), store.Tasks)
	require.NoError(t, err)
	svc, err := NewService(tasks, nil, calendar.New(time.UTC), tl.Logger)
	require.NoError(t, err)

	ctx := logging.WithRequestID(logging.WithUserID(context.Background(), "alice"), "req-42")
	_, err = svc.Create(ctx, "alice", model.TaskInput{
		Title: "Board deck", Description: "Q3 numbers", Category: "product", Priority: "high",
	})
	require.NoError(t, err)

	tl.AssertField(t, "created task", "user.id", "alice")
	tl.AssertField(t, "created task", "request.id", "req-42")
	tl.AssertField(t, "created task", "priority", "high")
}
