package tui

// Store is an ordered local copy of one server list. Mutations return the
// previous state so an optimistic change can be rolled back when the
// server rejects it.
type Store[T any] struct {
	items []T
	id    func(T) string
}

// NewStore creates an empty store keyed by id.
func NewStore[T any](id func(T) string) *Store[T] {
	return &Store[T]{id: id}
}

// Items returns the current items. The slice must not be modified.
func (s *Store[T]) Items() []T { return s.items }

// Len returns the number of items.
func (s *Store[T]) Len() int { return len(s.items) }

// At returns the item at i.
func (s *Store[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Replace swaps in a fresh server list.
func (s *Store[T]) Replace(items []T) {
	s.items = append(s.items[:0:0], items...)
}

// Index returns the position of id, or -1.
func (s *Store[T]) Index(id string) int {
	for i, it := range s.items {
		if s.id(it) == id {
			return i
		}
	}
	return -1
}

// Update applies fn to the item with id and returns its previous value.
func (s *Store[T]) Update(id string, fn func(*T)) (prev T, ok bool) {
	i := s.Index(id)
	if i < 0 {
		return prev, false
	}
	prev = s.items[i]
	fn(&s.items[i])
	return prev, true
}

// Set replaces the item with the same id and reports whether it was
// present. Absent items are not added.
func (s *Store[T]) Set(item T) bool {
	i := s.Index(s.id(item))
	if i < 0 {
		return false
	}
	s.items[i] = item
	return true
}

// Remove deletes the item with id and returns it with its former position.
func (s *Store[T]) Remove(id string) (prev T, index int, ok bool) {
	i := s.Index(id)
	if i < 0 {
		return prev, -1, false
	}
	prev = s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return prev, i, true
}

// Insert puts item back at index, clamped to the list bounds. An item
// already present is replaced instead.
func (s *Store[T]) Insert(index int, item T) {
	if i := s.Index(s.id(item)); i >= 0 {
		s.items[i] = item
		return
	}
	index = max(0, min(index, len(s.items)))
	s.items = append(s.items, item)
	copy(s.items[index+1:], s.items[index:])
	s.items[index] = item
}
