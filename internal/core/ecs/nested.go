package ecs

import "iter"

// Nested holds named sub-records per entity, such as an entity's several
// resource meters. It is a store of small ordered stores keyed by (id, sub).
type Nested[T any] struct {
	name  string
	outer *Store[*Store[T]]
	def   T
}

func NewNested[T any](reg *Registry, name string) *Nested[T] {
	n := &Nested[T]{name: name, outer: newStore[*Store[T]](name)}
	if reg != nil {
		reg.Register(name, n)
	}
	return n
}

func NewNestedTemplate[T any](reg *Registry, name string) *Nested[T] {
	n := &Nested[T]{name: name, outer: newStore[*Store[T]](name)}
	if reg != nil {
		reg.RegisterTemplate(name, n)
	}
	return n
}

func (n *Nested[T]) Name() string { return n.name }

func (n *Nested[T]) SetDefault(v T) { n.def = v }

func (n *Nested[T]) inner(id ID, create bool) *Store[T] {
	if p := n.outer.Find(id); p != nil {
		return *p
	}
	if !create {
		return nil
	}
	s := newStore[T](n.name)
	s.def = n.def
	n.outer.Put(id, s)
	return s
}

func (n *Nested[T]) Find(id, sub ID) *T {
	if s := n.inner(id, false); s != nil {
		return s.Find(sub)
	}
	return nil
}

func (n *Nested[T]) Get(id, sub ID) T {
	if p := n.Find(id, sub); p != nil {
		return *p
	}
	return n.def
}

func (n *Nested[T]) Has(id, sub ID) bool { return n.Find(id, sub) != nil }

func (n *Nested[T]) Put(id, sub ID, v T) { n.inner(id, true).Put(sub, v) }

func (n *Nested[T]) Open(id, sub ID) *T { return n.inner(id, true).Open(sub) }

func (n *Nested[T]) Close(id, sub ID) {
	s := n.inner(id, false)
	if s == nil {
		panic("ecs: " + n.name + ": Close without Open")
	}
	s.Close(sub)
}

func (n *Nested[T]) With(id, sub ID, fn func(*T)) {
	p := n.Open(id, sub)
	defer n.Close(id, sub)
	fn(p)
}

// DeleteSub removes one sub-record.
func (n *Nested[T]) DeleteSub(id, sub ID) {
	s := n.inner(id, false)
	if s == nil {
		return
	}
	s.Delete(sub)
	if s.Len() == 0 && len(s.open) == 0 {
		n.outer.Delete(id)
	}
}

// Delete removes every sub-record of id.
func (n *Nested[T]) Delete(id ID) { n.outer.Delete(id) }

func (n *Nested[T]) Remove(id ID) { n.Delete(id) }

// Len counts entities with at least one sub-record.
func (n *Nested[T]) Len() int { return n.outer.Len() }

// Count returns the number of sub-records of id.
func (n *Nested[T]) Count(id ID) int {
	if s := n.inner(id, false); s != nil {
		return s.Len()
	}
	return 0
}

// Each iterates the sub-records of id in insertion order.
func (n *Nested[T]) Each(id ID) iter.Seq2[ID, *T] {
	return func(yield func(ID, *T) bool) {
		s := n.inner(id, false)
		if s == nil {
			return
		}
		for sub, v := range s.All() {
			if !yield(sub, v) {
				return
			}
		}
	}
}

// Entities iterates the ids that own sub-records.
func (n *Nested[T]) Entities() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for id := range n.outer.All() {
			if !yield(id) {
				return
			}
		}
	}
}
