package world

import (
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/system"
)

// Handle names a slot in a TaskList. The zero Handle is never valid.
type Handle struct {
	slot uint32
	gen  uint32
}

func (h Handle) Valid() bool { return h.gen != 0 }

type task struct {
	owner  ecs.ID
	fn     func(*system.Clock)
	gen    uint32
	active bool
}

// TaskList is a dense, arena-indexed list of per-tick callbacks. Removing
// an entry while the list is running disables it at once; its slot is only
// recycled after the run, and entries added during a run wait for the next.
type TaskList struct {
	name    string
	tasks   []task
	free    []uint32
	retired []uint32
	running int
	live    int
}

func NewTaskList(name string) *TaskList {
	return &TaskList{name: name, tasks: make([]task, 0, 64)}
}

func (l *TaskList) Name() string { return l.name }

// Add schedules fn for owner and returns its handle.
func (l *TaskList) Add(owner ecs.ID, fn func(*system.Clock)) Handle {
	l.live++
	if l.running == 0 && len(l.free) > 0 {
		slot := l.free[len(l.free)-1]
		l.free = l.free[:len(l.free)-1]
		t := &l.tasks[slot]
		t.gen++
		t.owner, t.fn, t.active = owner, fn, true
		return Handle{slot: slot, gen: t.gen}
	}
	l.tasks = append(l.tasks, task{owner: owner, fn: fn, gen: 1, active: true})
	return Handle{slot: uint32(len(l.tasks) - 1), gen: 1}
}

// Remove unschedules h. Stale or zero handles are ignored.
func (l *TaskList) Remove(h Handle) bool {
	if !l.Active(h) {
		return false
	}
	t := &l.tasks[h.slot]
	t.active = false
	t.fn = nil
	t.owner = 0
	l.live--
	if l.running > 0 {
		l.retired = append(l.retired, h.slot)
	} else {
		l.free = append(l.free, h.slot)
	}
	return true
}

// Active reports whether h is still scheduled.
func (l *TaskList) Active(h Handle) bool {
	if !h.Valid() || int(h.slot) >= len(l.tasks) {
		return false
	}
	t := &l.tasks[h.slot]
	return t.active && t.gen == h.gen
}

// Len counts scheduled entries.
func (l *TaskList) Len() int { return l.live }

// Run calls every scheduled entry once, in slot order.
func (l *TaskList) Run(clk *system.Clock) {
	l.running++
	end := len(l.tasks)
	for i := 0; i < end; i++ {
		if !l.tasks[i].active {
			continue
		}
		// the slice may grow under fn; never hold a pointer across the call
		l.tasks[i].fn(clk)
	}
	l.running--
	if l.running == 0 && len(l.retired) > 0 {
		l.free = append(l.free, l.retired...)
		l.retired = l.retired[:0]
	}
}
