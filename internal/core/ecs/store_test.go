package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meter struct {
	Value float64
	Max   float64
}

func TestStoreFindGet(t *testing.T) {
	s := NewStore[meter](nil, "meter")
	s.SetDefault(meter{Max: 100})

	assert.Nil(t, s.Find(42))
	assert.Equal(t, meter{Max: 100}, s.Get(42))
	assert.Equal(t, 0, s.Len(), "Get must not create entries")

	s.Put(42, meter{Value: 3})
	require.NotNil(t, s.Find(42))
	assert.Equal(t, 3.0, s.Get(42).Value)

	s.Delete(42)
	assert.Nil(t, s.Find(42))
	s.Delete(42) // absent id is a no-op
	assert.Equal(t, 0, s.Len())
}

func TestStoreOpenCloseIdempotent(t *testing.T) {
	s := NewStore[meter](nil, "meter")
	p := s.Open(7)
	p.Value = 5
	s.Close(7)

	before := s.Get(7)
	s.With(7, func(*meter) {})
	assert.Equal(t, before, s.Get(7))
	assert.Equal(t, 1, s.Len())
}

func TestStoreReentrantOpenPanics(t *testing.T) {
	s := NewStore[meter](nil, "meter")
	s.Open(1)
	assert.Panics(t, func() { s.Open(1) })
	assert.Panics(t, func() { s.Close(2) })
	s.Close(1)
}

func TestStorePointersSurviveGrowth(t *testing.T) {
	s := NewStore[meter](nil, "meter")
	a := s.Open(1)
	for i := ID(2); i < 500; i++ {
		b := s.Open(i)
		b.Value = float64(i)
		s.Close(i)
	}
	a.Value = 99
	s.Close(1)
	assert.Equal(t, 99.0, s.Get(1).Value)
	assert.Equal(t, 499.0, s.Get(499).Value)
}

func TestStoreInsertionOrderAndDeleteDuringIteration(t *testing.T) {
	s := NewStore[int](nil, "n")
	for _, id := range []ID{5, 3, 9, 1} {
		s.Put(id, int(id))
	}

	var seen []ID
	for id := range s.All() {
		seen = append(seen, id)
		if id == 3 {
			s.Delete(9)
			s.Delete(3)
			s.Put(11, 11)
		}
	}
	assert.Equal(t, []ID{5, 3, 1}, seen)
	assert.Equal(t, []ID{5, 1, 11}, s.Keys())
}

func TestStoreCompactsAfterHeavyDeletion(t *testing.T) {
	s := NewStore[int](nil, "n")
	for i := ID(1); i <= 300; i++ {
		s.Put(i, int(i))
	}
	for i := ID(1); i <= 250; i++ {
		s.Delete(i)
	}
	assert.Equal(t, 50, s.Len())
	assert.Less(t, s.used, 300)
	assert.Equal(t, 251, s.Get(251))
	assert.Equal(t, ID(251), s.Keys()[0])
}

func TestIteratorExposesSlot(t *testing.T) {
	s := NewStore[int](nil, "n")
	s.Put(10, 1)
	s.Put(20, 2)
	s.Delete(10)

	it := s.Iter()
	require.True(t, it.Next())
	assert.Equal(t, ID(20), it.Key())
	assert.Equal(t, 2, *it.Value())
	assert.Equal(t, 1, it.Slot())
	assert.False(t, it.Next())
	assert.Equal(t, 0, s.iters)
}

func TestRegistryLookupAndRemoveAll(t *testing.T) {
	reg := NewRegistry()
	inst := NewStore[int](reg, "health")
	tmpl := NewTemplateStore[int](reg, "healthtemplate")
	inst.Put(1, 10)
	tmpl.Put(1, 20)

	reg.RemoveAll(1)
	assert.False(t, inst.Has(1))
	assert.True(t, tmpl.Has(1))

	assert.Same(t, inst, MustLookup[int](reg, "health"))
	assert.Panics(t, func() { MustLookup[float64](reg, "health") })
	assert.Panics(t, func() { MustLookup[int](reg, "missing") })
	assert.Panics(t, func() { NewStore[int](reg, "health") })

	var names []string
	reg.Each(func(name string, _ uint32, _ Removable, _ bool) { names = append(names, name) })
	assert.Equal(t, []string{"health", "healthtemplate"}, names)
	assert.Equal(t, names, reg.Names())
}

func TestNestedSubRecords(t *testing.T) {
	reg := NewRegistry()
	n := NewNested[meter](reg, "resource")
	n.SetDefault(meter{Max: 1})

	n.Put(1, 100, meter{Value: 5})
	n.With(1, 200, func(m *meter) { m.Value = 7 })
	assert.Equal(t, 2, n.Count(1))
	assert.Equal(t, meter{Max: 1}, n.Get(2, 100))
	assert.Equal(t, 7.0, n.Get(1, 200).Value)

	var subs []ID
	for sub := range n.Each(1) {
		subs = append(subs, sub)
	}
	assert.Equal(t, []ID{100, 200}, subs)

	n.DeleteSub(1, 100)
	assert.Nil(t, n.Find(1, 100))
	reg.RemoveAll(1)
	assert.Equal(t, 0, n.Count(1))
}

func TestWorldFlushCascades(t *testing.T) {
	w := NewWorld()
	s := NewStore[int](w.Registry(), "x")
	a := w.CreateEntity()
	b := w.CreateEntity()
	s.Put(a, 1)
	s.Put(b, 2)

	w.MarkForDestruction(a)
	w.MarkForDestruction(a)
	var order []ID
	n := w.FlushDestroyQueue(func(id ID) {
		order = append(order, id)
		if id == a {
			w.MarkForDestruction(b)
		}
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []ID{a, b}, order)
	assert.False(t, w.Alive(a))
	assert.False(t, w.Alive(b))
	assert.Equal(t, 0, s.Len())
}
