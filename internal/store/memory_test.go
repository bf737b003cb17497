package store

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContract(t *testing.T) {
	runContract(t, func(t *testing.T) DB {
		db := NewMemoryDB()
		t.Cleanup(func() { _ = db.Close(context.Background()) })
		return db
	})
}

func TestMemoryDB_Closed(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	tasks := openTasks(t, db)
	require.NoError(t, db.Close(ctx))

	assert.ErrorIs(t, db.Ping(ctx), ErrClosed)
	assert.ErrorIs(t, tasks.Insert(ctx, newTask("t1", "alice", base, model.CategorySales, false)), ErrClosed)
	_, err := tasks.Find(ctx, Query{UserID: "alice"})
	assert.ErrorIs(t, err, ErrClosed)
}

type otherDB struct{}

func (otherDB) Provider() string            { return "other" }
func (otherDB) Ping(context.Context) error  { return nil }
func (otherDB) Close(context.Context) error { return nil }

func TestOpen_Errors(t *testing.T) {
	_, err := Open[model.Task](NewMemoryDB(), "tasks; DROP TABLE tasks")
	assert.Error(t, err)

	_, err = Open[model.Task](otherDB{}, Tasks)
	assert.ErrorIs(t, err, ErrUnsupportedDB)
}

func TestFields_Mutable(t *testing.T) {
	f := Fields{"_id": "x", "userId": "u", "createdAt": base, "updatedAt": base, "title": "t"}.mutable(base.Add(1))
	assert.Equal(t, Fields{"title": "t", "updatedAt": base.Add(1)}, f)
}
