package ecs

import (
	"iter"
)

const chunkSize = 64

type slot[T any] struct {
	key  ID
	live bool
	val  T
}

type chunk[T any] [chunkSize]slot[T]

// Store is an insertion-ordered sparse map from ID to T.
//
// Values live in fixed-size chunks, so a pointer handed out by Open or Find
// stays valid while other ids are inserted. Deleted slots are tombstoned and
// only compacted when no transaction or iteration is in flight.
type Store[T any] struct {
	name   string
	chunks []*chunk[T]
	used   int // slots handed out, tombstones included
	dead   int
	index  map[ID]int
	open   map[ID]struct{}
	iters  int
	def    T
}

// NewStore creates a per-entity store and registers it so that RemoveAll
// clears it when an entity is freed. reg may be nil for private stores.
func NewStore[T any](reg *Registry, name string) *Store[T] {
	s := newStore[T](name)
	if reg != nil {
		reg.Register(name, s)
	}
	return s
}

// NewTemplateStore creates a store keyed by template ids. It is listed in
// the registry but never bulk-cleared.
func NewTemplateStore[T any](reg *Registry, name string) *Store[T] {
	s := newStore[T](name)
	if reg != nil {
		reg.RegisterTemplate(name, s)
	}
	return s
}

func newStore[T any](name string) *Store[T] {
	return &Store[T]{
		name:  name,
		index: make(map[ID]int, 64),
		open:  make(map[ID]struct{}, 4),
	}
}

func (s *Store[T]) Name() string { return s.name }

// SetDefault replaces the value Get returns for absent ids.
func (s *Store[T]) SetDefault(v T) { s.def = v }

func (s *Store[T]) Default() T { return s.def }

func (s *Store[T]) slot(i int) *slot[T] {
	return &s.chunks[i/chunkSize][i%chunkSize]
}

func (s *Store[T]) insert(id ID, v T) *T {
	if s.used == len(s.chunks)*chunkSize {
		s.chunks = append(s.chunks, new(chunk[T]))
	}
	i := s.used
	s.used++
	sl := s.slot(i)
	sl.key = id
	sl.live = true
	sl.val = v
	s.index[id] = i
	return &sl.val
}

// Find returns the stored value or nil. It never creates an entry.
func (s *Store[T]) Find(id ID) *T {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return &s.slot(i).val
}

// Get returns the stored value or the store default when absent.
func (s *Store[T]) Get(id ID) T {
	if p := s.Find(id); p != nil {
		return *p
	}
	return s.def
}

func (s *Store[T]) Has(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// Put inserts or overwrites the value for id.
func (s *Store[T]) Put(id ID, v T) {
	if p := s.Find(id); p != nil {
		*p = v
		return
	}
	s.insert(id, v)
}

// Open begins a write transaction on id, creating a default entry if
// needed. Opening an id that is already open is a programming error.
func (s *Store[T]) Open(id ID) *T {
	if _, busy := s.open[id]; busy {
		panic("ecs: " + s.name + ": Open on an id that is already open")
	}
	s.open[id] = struct{}{}
	if p := s.Find(id); p != nil {
		return p
	}
	return s.insert(id, s.def)
}

// Close ends the transaction started by Open.
func (s *Store[T]) Close(id ID) {
	if _, busy := s.open[id]; !busy {
		panic("ecs: " + s.name + ": Close without Open")
	}
	delete(s.open, id)
	s.maybeCompact()
}

// With runs fn inside an Open/Close pair.
func (s *Store[T]) With(id ID, fn func(*T)) {
	p := s.Open(id)
	defer s.Close(id)
	fn(p)
}

// Delete removes id. Absent ids are ignored.
func (s *Store[T]) Delete(id ID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	sl := s.slot(i)
	var zero T
	sl.val = zero
	sl.live = false
	s.dead++
	s.maybeCompact()
}

// Remove implements Removable.
func (s *Store[T]) Remove(id ID) { s.Delete(id) }

func (s *Store[T]) Len() int { return len(s.index) }

// Keys returns the live ids in insertion order.
func (s *Store[T]) Keys() []ID {
	keys := make([]ID, 0, len(s.index))
	for i := 0; i < s.used; i++ {
		if sl := s.slot(i); sl.live {
			keys = append(keys, sl.key)
		}
	}
	return keys
}

// All iterates live entries in insertion order. Deleting any entry,
// including the current one, is safe during the loop; entries inserted
// during the loop are not visited.
func (s *Store[T]) All() iter.Seq2[ID, *T] {
	return func(yield func(ID, *T) bool) {
		s.iters++
		defer func() {
			s.iters--
			s.maybeCompact()
		}()
		end := s.used
		for i := 0; i < end; i++ {
			sl := s.slot(i)
			if !sl.live {
				continue
			}
			if !yield(sl.key, &sl.val) {
				return
			}
		}
	}
}

// Each calls fn for every live entry in insertion order.
func (s *Store[T]) Each(fn func(ID, *T)) {
	for id, v := range s.All() {
		fn(id, v)
	}
}

func (s *Store[T]) maybeCompact() {
	if s.iters > 0 || len(s.open) > 0 || s.dead < chunkSize || s.dead*2 < s.used {
		return
	}
	w := 0
	for r := 0; r < s.used; r++ {
		src := s.slot(r)
		if !src.live {
			continue
		}
		if w != r {
			dst := s.slot(w)
			*dst = *src
			s.index[dst.key] = w
		}
		w++
	}
	var zero slot[T]
	for i := w; i < s.used; i++ {
		*s.slot(i) = zero
	}
	s.used = w
	s.dead = 0
	keep := (w + chunkSize - 1) / chunkSize
	for i := keep; i < len(s.chunks); i++ {
		s.chunks[i] = nil
	}
	s.chunks = s.chunks[:keep]
}

// Iterator walks a store explicitly and exposes the slot of each entry,
// which stays stable until the store compacts.
type Iterator[T any] struct {
	s      *Store[T]
	pos    int
	end    int
	closed bool
}

// Iter starts an explicit iteration. Close it (or run it to exhaustion).
func (s *Store[T]) Iter() *Iterator[T] {
	s.iters++
	return &Iterator[T]{s: s, pos: -1, end: s.used}
}

func (it *Iterator[T]) Next() bool {
	if it.closed {
		return false
	}
	for it.pos++; it.pos < it.end; it.pos++ {
		if it.s.slot(it.pos).live {
			return true
		}
	}
	it.Close()
	return false
}

func (it *Iterator[T]) Key() ID   { return it.s.slot(it.pos).key }
func (it *Iterator[T]) Value() *T { return &it.s.slot(it.pos).val }
func (it *Iterator[T]) Slot() int { return it.pos }

func (it *Iterator[T]) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.s.iters--
	it.s.maybeCompact()
}
