package ecs

import (
	"fmt"

	"github.com/warp8/engine/internal/core/hash"
)

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Name() string
	Remove(id ID)
	Len() int
}

type registryEntry struct {
	name     string
	key      uint32
	store    Removable
	instance bool
}

// Registry is the directory of every store, keyed by the hash of its name.
type Registry struct {
	entries []registryEntry
	byKey   map[uint32]int
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make([]registryEntry, 0, 32),
		byKey:   make(map[uint32]int, 32),
	}
}

// Register adds a per-entity store. RemoveAll clears it.
func (r *Registry) Register(name string, store Removable) {
	r.add(name, store, true)
}

// RegisterTemplate adds a template store. RemoveAll leaves it alone.
func (r *Registry) RegisterTemplate(name string, store Removable) {
	r.add(name, store, false)
}

func (r *Registry) add(name string, store Removable, instance bool) {
	key := hash.Hash(name)
	if _, dup := r.byKey[key]; dup {
		panic(fmt.Sprintf("ecs: store %q registered twice", name))
	}
	r.byKey[key] = len(r.entries)
	r.entries = append(r.entries, registryEntry{name: name, key: key, store: store, instance: instance})
}

// Lookup finds a store by name.
func (r *Registry) Lookup(name string) (Removable, bool) {
	return r.LookupKey(hash.Hash(name))
}

// LookupKey finds a store by hashed name.
func (r *Registry) LookupKey(key uint32) (Removable, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return r.entries[i].store, true
}

// MustLookup returns the named store with payload type T. Asking for a store
// that was never created, or with the wrong type, is a programming error.
func MustLookup[T any](r *Registry, name string) *Store[T] {
	s, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("ecs: no store named %q", name))
	}
	typed, ok := s.(*Store[T])
	if !ok {
		panic(fmt.Sprintf("ecs: store %q holds %T", name, s))
	}
	return typed
}

// Each enumerates registered stores in registration order.
func (r *Registry) Each(fn func(name string, key uint32, store Removable, instance bool)) {
	for _, e := range r.entries {
		fn(e.name, e.key, e.store, e.instance)
	}
}

func (r *Registry) Len() int { return len(r.entries) }

// Names lists store names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// RemoveAll clears the given entity from every per-entity store.
func (r *Registry) RemoveAll(id ID) {
	for _, e := range r.entries {
		if e.instance {
			e.store.Remove(id)
		}
	}
}
