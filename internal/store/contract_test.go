package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDBFunc returns an empty database; it registers its own cleanup.
type newDBFunc func(t *testing.T) DB

var base = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func newTask(id, user string, date time.Time, cat model.Category, completed bool) model.Task {
	return model.Task{
		Meta: model.Meta{
			ID:        id,
			UserID:    user,
			CreatedAt: base,
			UpdatedAt: base,
		},
		Title:       "task " + id,
		Description: "description " + id,
		Date:        date,
		Category:    cat,
		Priority:    model.PriorityMedium,
		Completed:   completed,
	}
}

func openTasks(t *testing.T, db DB) Collection[model.Task] {
	t.Helper()
	c, err := Open[model.Task](db, Tasks)
	require.NoError(t, err)
	return c
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

// runContract exercises the behaviour every provider must share.
func runContract(t *testing.T, newDB newDBFunc) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		want := newTask("t1", "alice", base, model.CategorySales, false)
		want.Notes = "bring slides"
		require.NoError(t, tasks.Insert(ctx, want))

		got, err := tasks.Get(ctx, ByID("alice", "t1"))
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.UserID, got.UserID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.Notes, got.Notes)
		assert.True(t, want.Date.Equal(got.Date), "date %s != %s", want.Date, got.Date)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get is scoped to owner", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)))

		_, err := tasks.Get(ctx, ByID("bob", "t1"))
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = tasks.Get(ctx, ByID("alice", "missing"))
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = tasks.Get(ctx, Query{ID: "t1"})
		assert.ErrorIs(t, err, ErrInvalidQuery)

		_, err = tasks.Get(ctx, Query{UserID: "alice"})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("insert rejects duplicates and missing keys", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)))

		err := tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false))
		assert.ErrorIs(t, err, ErrDuplicateID)

		err = tasks.Insert(ctx, newTask("", "alice", base, model.CategorySales, false))
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("find orders by date", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("mid", "alice", base, model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("old", "alice", base.Add(-48*time.Hour), model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("new", "alice", base.Add(48*time.Hour), model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("other", "bob", base, model.CategorySales, false)))

		got, err := tasks.Find(ctx, Query{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "mid", "old"}, ids(got))

		got, err = tasks.Find(ctx, Query{UserID: "alice", Order: Oldest})
		require.NoError(t, err)
		assert.Equal(t, []string{"old", "mid", "new"}, ids(got))

		got, err = tasks.Find(ctx, Query{UserID: "alice", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "mid"}, ids(got))

		got, err = tasks.Find(ctx, Query{UserID: "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("find date range is inclusive", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		from := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 3, 14, 23, 59, 59, 999_000_000, time.UTC)

		require.NoError(t, tasks.Insert(ctx, newTask("start", "alice", from, model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("end", "alice", to, model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("before", "alice", from.Add(-time.Millisecond), model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("after", "alice", to.Add(time.Millisecond), model.CategorySales, false)))

		got, err := tasks.Find(ctx, Query{UserID: "alice", From: from, To: to, Order: Oldest})
		require.NoError(t, err)
		assert.Equal(t, []string{"start", "end"}, ids(got))

		got, err = tasks.Find(ctx, Query{UserID: "alice", From: to.Add(time.Millisecond)})
		require.NoError(t, err)
		assert.Equal(t, []string{"after"}, ids(got))
	})

	t.Run("find filters on fields", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("s1", "alice", base, model.CategorySales, true)))
		require.NoError(t, tasks.Insert(ctx, newTask("s2", "alice", base.Add(time.Hour), model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("m1", "alice", base, model.CategoryMarketing, true)))

		got, err := tasks.Find(ctx, Query{UserID: "alice", Equals: map[string]any{"category": "sales"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"s2", "s1"}, ids(got))

		got, err = tasks.Find(ctx, Query{UserID: "alice", Equals: map[string]any{"category": model.CategorySales, "completed": true}})
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, ids(got))

		got, err = tasks.Find(ctx, Query{UserID: "alice", Equals: map[string]any{"completed": false}})
		require.NoError(t, err)
		assert.Equal(t, []string{"s2"}, ids(got))
	})

	t.Run("update sets fields and timestamp", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)))

		moved := base.Add(72 * time.Hour)
		got, err := tasks.Update(ctx, ByID("alice", "t1"), Fields{
			"title":     "renamed",
			"completed": true,
			"date":      moved,
			"category":  string(model.CategoryProduct),
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
		assert.True(t, got.Completed)
		assert.Equal(t, model.CategoryProduct, got.Category)
		assert.True(t, moved.Equal(got.Date))
		assert.Equal(t, "description t1", got.Description)
		assert.True(t, got.UpdatedAt.After(base))
		assert.True(t, got.CreatedAt.Equal(base))

		// The new date is visible to range queries.
		found, err := tasks.Find(ctx, Query{UserID: "alice", From: moved, To: moved})
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, ids(found))

		reread, err := tasks.Get(ctx, ByID("alice", "t1"))
		require.NoError(t, err)
		assert.Equal(t, "renamed", reread.Title)
	})

	t.Run("update ignores immutable fields", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)))

		got, err := tasks.Update(ctx, ByID("alice", "t1"), Fields{
			"_id":       "hijacked",
			"userId":    "mallory",
			"createdAt": base.Add(time.Hour),
			"notes":     "kept",
		})
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
		assert.Equal(t, "alice", got.UserID)
		assert.True(t, got.CreatedAt.Equal(base))
		assert.Equal(t, "kept", got.Notes)

		_, err = tasks.Get(ctx, ByID("mallory", "t1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update is scoped to owner", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)))

		_, err := tasks.Update(ctx, ByID("bob", "t1"), Fields{"title": "x"})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := tasks.Get(ctx, ByID("alice", "t1"))
		require.NoError(t, err)
		assert.Equal(t, "task t1", got.Title)
	})

	t.Run("delete", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)))

		assert.ErrorIs(t, tasks.Delete(ctx, ByID("bob", "t1")), ErrNotFound)
		require.NoError(t, tasks.Delete(ctx, ByID("alice", "t1")))
		assert.ErrorIs(t, tasks.Delete(ctx, ByID("alice", "t1")), ErrNotFound)

		_, err := tasks.Get(ctx, ByID("alice", "t1"))
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("count", func(t *testing.T) {
		tasks := openTasks(t, newDB(t))
		require.NoError(t, tasks.Insert(ctx, newTask("a", "alice", base, model.CategorySales, true)))
		require.NoError(t, tasks.Insert(ctx, newTask("b", "alice", base, model.CategorySales, false)))
		require.NoError(t, tasks.Insert(ctx, newTask("c", "bob", base, model.CategorySales, true)))

		n, err := tasks.Count(ctx, Query{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = tasks.Count(ctx, Query{UserID: "alice", Equals: map[string]any{"completed": true}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = tasks.Count(ctx, Query{UserID: "alice", From: base.Add(time.Second)})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("collections are independent", func(t *testing.T) {
		db := newDB(t)
		tasks := openTasks(t, db)
		goals, err := Open[model.Goal](db, WeeklyGoals)
		require.NoError(t, err)

		require.NoError(t, tasks.Insert(ctx, newTask("same", "alice", base, model.CategorySales, false)))
		require.NoError(t, goals.Insert(ctx, model.Goal{
			Meta:  model.Meta{ID: "same", UserID: "alice", CreatedAt: base, UpdatedAt: base},
			Title: "goal",
			Date:  base,
		}))

		g, err := goals.Get(ctx, ByID("alice", "same"))
		require.NoError(t, err)
		assert.Equal(t, "goal", g.Title)

		require.NoError(t, goals.Delete(ctx, ByID("alice", "same")))
		_, err = tasks.Get(ctx, ByID("alice", "same"))
		assert.NoError(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newDB(t).Ping(ctx))
	})
}
