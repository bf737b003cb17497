package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// MemoryDB keeps documents as JSON in process memory.
type MemoryDB struct {
	mu     sync.RWMutex
	cols   map[string]map[string]*memDoc
	seq    uint64
	closed bool
}

type memDoc struct {
	seq    uint64
	userID string
	date   time.Time
	raw    []byte
}

// NewMemoryDB returns an empty in-memory database.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{cols: make(map[string]map[string]*memDoc)}
}

// Provider returns "memory".
func (db *MemoryDB) Provider() string { return "memory" }

// Ping fails only after Close.
func (db *MemoryDB) Ping(context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return nil
}

// Close discards all documents.
func (db *MemoryDB) Close(context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	db.cols = nil
	return nil
}

type memoryCollection[T Document] struct {
	db   *MemoryDB
	name string
}

func newMemoryCollection[T Document](db *MemoryDB, name string) *memoryCollection[T] {
	return &memoryCollection[T]{db: db, name: name}
}

func (c *memoryCollection[T]) Insert(_ context.Context, doc T) error {
	if doc.DocID() == "" || doc.Owner() == "" {
		return fmt.Errorf("%w: document id and owner are required", ErrInvalidQuery)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if c.db.closed {
		return ErrClosed
	}
	col, ok := c.db.cols[c.name]
	if !ok {
		col = make(map[string]*memDoc)
		c.db.cols[c.name] = col
	}
	if _, exists := col[doc.DocID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, doc.DocID())
	}
	c.db.seq++
	col[doc.DocID()] = &memDoc{seq: c.db.seq, userID: doc.Owner(), date: doc.DocDate(), raw: raw}
	return nil
}

func (c *memoryCollection[T]) Get(ctx context.Context, q Query) (T, error) {
	var zero T
	if err := q.validate(true); err != nil {
		return zero, err
	}
	docs, err := c.Find(ctx, Query{ID: q.ID, UserID: q.UserID, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

func (c *memoryCollection[T]) Find(_ context.Context, q Query) ([]T, error) {
	if err := q.validate(false); err != nil {
		return nil, err
	}
	matches, err := c.match(q)
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if q.Order == Oldest {
			a, b = b, a
		}
		if !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}
		return a.seq > b.seq
	})
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	out := make([]T, 0, len(matches))
	for _, m := range matches {
		var doc T
		if err := json.Unmarshal(m.raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *memoryCollection[T]) Update(_ context.Context, q Query, fields Fields) (T, error) {
	var zero T
	if err := q.validate(true); err != nil {
		return zero, err
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if c.db.closed {
		return zero, ErrClosed
	}
	d, ok := c.db.cols[c.name][q.ID]
	if !ok || d.userID != q.UserID {
		return zero, ErrNotFound
	}

	var m map[string]any
	if err := json.Unmarshal(d.raw, &m); err != nil {
		return zero, fmt.Errorf("decode document: %w", err)
	}
	for k, v := range fields.mutable(now()) {
		jv, err := jsonValue(v)
		if err != nil {
			return zero, fmt.Errorf("encode field %s: %w", k, err)
		}
		m[k] = jv
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return zero, fmt.Errorf("encode document: %w", err)
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return zero, fmt.Errorf("decode document: %w", err)
	}

	d.raw = raw
	d.date = doc.DocDate()
	return doc, nil
}

func (c *memoryCollection[T]) Delete(_ context.Context, q Query) error {
	if err := q.validate(true); err != nil {
		return err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if c.db.closed {
		return ErrClosed
	}
	col := c.db.cols[c.name]
	d, ok := col[q.ID]
	if !ok || d.userID != q.UserID {
		return ErrNotFound
	}
	delete(col, q.ID)
	return nil
}

func (c *memoryCollection[T]) Count(_ context.Context, q Query) (int64, error) {
	if err := q.validate(false); err != nil {
		return 0, err
	}
	q.Limit = 0
	matches, err := c.match(q)
	if err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

func (c *memoryCollection[T]) match(q Query) ([]*memDoc, error) {
	equals := make(map[string]any, len(q.Equals))
	for k, v := range q.Equals {
		jv, err := jsonValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", k, err)
		}
		equals[k] = jv
	}

	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	if c.db.closed {
		return nil, ErrClosed
	}

	var out []*memDoc
	for id, d := range c.db.cols[c.name] {
		if d.userID != q.UserID || (q.ID != "" && id != q.ID) {
			continue
		}
		if !q.From.IsZero() && d.date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && d.date.After(q.To) {
			continue
		}
		if len(equals) > 0 {
			var m map[string]any
			if err := json.Unmarshal(d.raw, &m); err != nil {
				return nil, fmt.Errorf("decode document: %w", err)
			}
			if !fieldsEqual(m, equals) {
				continue
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func fieldsEqual(doc, want map[string]any) bool {
	for k, v := range want {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

// jsonValue converts v to the form it takes after a JSON round trip.
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
