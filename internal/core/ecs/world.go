package ecs

// World is the low-level ECS container. It owns the id pool, the store
// registry, and a deferred destruction queue flushed at the tick boundary.
type World struct {
	pool         *Pool
	registry     *Registry
	destroyQueue []ID
	queued       map[ID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:         NewPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]ID, 0, 64),
		queued:       make(map[ID]struct{}, 64),
	}
}

func (w *World) Pool() *Pool         { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() ID {
	return w.pool.Create()
}

func (w *World) Alive(id ID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup. Queuing the
// same id twice is harmless.
func (w *World) MarkForDestruction(id ID) {
	if _, dup := w.queued[id]; dup {
		return
	}
	w.queued[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending reports whether id is waiting in the destroy queue.
func (w *World) Pending(id ID) bool {
	_, ok := w.queued[id]
	return ok
}

// FlushDestroyQueue hands every queued id to destroy, then clears its
// components and frees the id. Ids queued by destroy itself are processed
// in the same flush.
func (w *World) FlushDestroyQueue(destroy func(ID)) int {
	n := 0
	for len(w.destroyQueue) > 0 {
		id := w.destroyQueue[0]
		w.destroyQueue = w.destroyQueue[1:]
		delete(w.queued, id)
		if destroy != nil {
			destroy(id)
		}
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		n++
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
