// Package store persists user-owned documents.
//
// A DB is one of three providers (MongoDB, SQLite or in-memory) and hands
// out typed collections through Open. Every query is scoped to a user: Get,
// Update and Delete additionally require a document ID, and a document that
// exists under another user is reported as ErrNotFound.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fyrsmithlabs/ceo-assistant/internal/calendar"
)

var (
	// ErrNotFound is returned when no document matches an ID and owner.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateID is returned by Insert for an ID already in use.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrInvalidQuery is returned for a query missing its owner, or its ID
	// where one is required.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")

	// ErrUnsupportedDB is returned by Open for a DB from another package.
	ErrUnsupportedDB = errors.New("unsupported database")
)

// Collection names.
const (
	Tasks         = "tasks"
	WeeklyGoals   = "weeklygoals"
	DailyGoals    = "dailygoals"
	LinkedInPosts = "linkedinposts"
)

// Stored field names every provider relies on.
const (
	fieldID        = "_id"
	fieldUserID    = "userId"
	fieldDate      = "date"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Document is implemented by every stored type. The ID and owner must be
// set before Insert.
type Document interface {
	DocID() string
	Owner() string
	DocDate() time.Time
}

// Order sorts results by date.
type Order int

const (
	// Newest sorts by date descending. It is the zero value.
	Newest Order = iota
	// Oldest sorts by date ascending.
	Oldest
)

// Query selects documents belonging to UserID.
type Query struct {
	ID     string
	UserID string

	// From and To bound the date inclusively. Zero means unbounded.
	From time.Time
	To   time.Time

	// Equals matches top-level fields by stored name, e.g. "category".
	Equals map[string]any

	Order Order
	Limit int
}

// ByID returns a query for one document owned by userID.
func ByID(userID, id string) Query {
	return Query{UserID: userID, ID: id}
}

func (q Query) validate(needID bool) error {
	if q.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidQuery)
	}
	if needID && q.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Fields is a partial update keyed by stored field name.
type Fields map[string]any

// mutable drops the fields no update may change and stamps updatedAt.
func (f Fields) mutable(now time.Time) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		switch k {
		case fieldID, fieldUserID, fieldCreatedAt, fieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	out[fieldUpdatedAt] = now
	return out
}

// Collection is a typed view over one collection.
type Collection[T Document] interface {
	// Insert stores a new document.
	Insert(ctx context.Context, doc T) error

	// Get returns the document matching q.ID and q.UserID.
	Get(ctx context.Context, q Query) (T, error)

	// Find returns all documents matching q, sorted by date.
	Find(ctx context.Context, q Query) ([]T, error)

	// Update sets fields on the document matching q.ID and q.UserID and
	// returns the updated document.
	Update(ctx context.Context, q Query, fields Fields) (T, error)

	// Delete removes the document matching q.ID and q.UserID.
	Delete(ctx context.Context, q Query) error

	// Count returns the number of documents matching q.
	Count(ctx context.Context, q Query) (int64, error)
}

// DB is an open database connection.
type DB interface {
	// Provider returns the provider name, e.g. "sqlite".
	Provider() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open returns the named collection of db.
func Open[T Document](db DB, name string) (Collection[T], error) {
	if !collectionName.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}
	switch d := db.(type) {
	case *MemoryDB:
		return newMemoryCollection[T](d, name), nil
	case *SQLiteDB:
		return newSQLiteCollection[T](d, name)
	case *MongoDB:
		return newMongoCollection[T](d, name), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedDB, db)
	}
}

// now is the timestamp source for updatedAt.
var now = func() time.Time { return calendar.Normalize(time.Now()) }
