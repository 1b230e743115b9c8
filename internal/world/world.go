package world

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/event"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/hash"
	"github.com/warp8/engine/internal/core/system"
	"github.com/warp8/engine/internal/data"
	"go.uber.org/zap"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrBacklinkCycle   = errors.New("backlink cycle")
	ErrNotAlive        = errors.New("entity not alive")
)

// maxChainDepth bounds back-link walks.
const maxChainDepth = 64

// Kind is the capability table of one component kind. Kinds are registered
// once at start-up; Activate runs in registration order and Deactivate in
// reverse.
type Kind interface {
	Name() string
	Configure(el data.Element, template ecs.ID) error
	Inherit(dst, src ecs.ID)
	HasTemplate(template ecs.ID) bool
	Activate(id ecs.ID) error
	Deactivate(id ecs.ID)
}

// Bounds is the playfield rectangle from the <world> element.
type Bounds struct {
	Min, Max geom.Vec2
	Wall     bool
}

// World owns every entity of one simulation and the manager that creates
// and destroys them. Accessed only from the game loop goroutine, no locks.
type World struct {
	ecs   *ecs.World
	log   *zap.Logger
	bus   *event.Bus
	clock *system.Clock
	rng   *rand.Rand

	Entities      *ecs.Store[Entity]
	states        *ecs.Store[LifeState]
	templateOf    *ecs.Store[ecs.ID]
	owners        *ecs.Store[ecs.ID]
	backlinks     *ecs.Store[ecs.ID]
	activated     *ecs.Store[[]int]
	Teams         *ecs.Store[ecs.ID]
	TeamTemplates *ecs.Store[ecs.ID]
	names         *ecs.Store[string] // template id → declared name

	kinds  []Kind
	byTag  map[uint32]int
	hooks  []func(ecs.ID)
	items  map[string]func(el data.Element, dir string) error
	bounds Bounds

	Simulatables *TaskList
	Updatables   *TaskList
	Controllers  *TaskList

	ticking  bool
	flushing bool
}

// New creates an empty world. bus and log may be nil.
func New(clk *system.Clock, bus *event.Bus, log *zap.Logger, seed uint64) *World {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = event.NewBus()
	}
	if clk == nil {
		clk = system.NewClock(60)
	}
	core := ecs.NewWorld()
	reg := core.Registry()
	w := &World{
		ecs:   core,
		log:   log,
		bus:   bus,
		clock: clk,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),

		Entities:      ecs.NewStore[Entity](reg, "entity"),
		states:        ecs.NewStore[LifeState](reg, "state"),
		templateOf:    ecs.NewStore[ecs.ID](reg, "parent"),
		owners:        ecs.NewStore[ecs.ID](reg, "owner"),
		backlinks:     ecs.NewStore[ecs.ID](reg, "backlink"),
		activated:     ecs.NewStore[[]int](reg, "activated"),
		Teams:         ecs.NewStore[ecs.ID](reg, "team"),
		TeamTemplates: ecs.NewTemplateStore[ecs.ID](reg, "teamtemplate"),
		names:         ecs.NewTemplateStore[string](reg, "name"),

		byTag: make(map[uint32]int, 16),
		items: make(map[string]func(data.Element, string) error, 8),
		bounds: Bounds{
			Min: geom.V(-2048, -2048),
			Max: geom.V(2048, 2048),
		},

		Simulatables: NewTaskList("simulatable"),
		Updatables:   NewTaskList("updatable"),
		Controllers:  NewTaskList("controller"),
	}
	w.registerBuiltinItems()
	return w
}

func (w *World) Log() *zap.Logger       { return w.log }
func (w *World) Bus() *event.Bus        { return w.bus }
func (w *World) Clock() *system.Clock   { return w.clock }
func (w *World) Rand() *rand.Rand       { return w.rng }
func (w *World) Registry() *ecs.Registry { return w.ecs.Registry() }
func (w *World) Bounds() Bounds         { return w.bounds }
func (w *World) SetBounds(b Bounds)     { w.bounds = b }

// RegisterKind appends a kind to the capability table. Configuration
// elements whose tag hashes to the kind's name are routed to it.
func (w *World) RegisterKind(k Kind) {
	key := hash.Hash(k.Name())
	if _, dup := w.byTag[key]; dup {
		panic("world: kind " + k.Name() + " registered twice")
	}
	w.byTag[key] = len(w.kinds)
	w.kinds = append(w.kinds, k)
}

// Kinds returns the registered kinds in activation order.
func (w *World) Kinds() []Kind { return w.kinds }

// KindFor finds the kind that configures elements with the given tag.
func (w *World) KindFor(tag string) (Kind, bool) {
	i, ok := w.byTag[hash.Hash(tag)]
	if !ok {
		return nil, false
	}
	return w.kinds[i], true
}

// OnDeactivate registers a hook that runs for every entity being deleted,
// after its kinds have deactivated.
func (w *World) OnDeactivate(fn func(ecs.ID)) {
	w.hooks = append(w.hooks, fn)
}

// DeclareTemplate makes name a known template and returns its id.
func (w *World) DeclareTemplate(name string) ecs.ID {
	id := ecs.ID(hash.Hash(name))
	if id == 0 {
		return 0
	}
	if !w.names.Has(id) {
		w.names.Put(id, name)
	}
	return id
}

// TemplateID resolves a template name, reporting whether it was declared.
func (w *World) TemplateID(name string) (ecs.ID, bool) {
	id := ecs.ID(hash.Hash(name))
	return id, w.names.Has(id)
}

// TemplateName is the declared name of a template id, for logs.
func (w *World) TemplateName(id ecs.ID) string {
	if n := w.names.Find(id); n != nil {
		return *n
	}
	return fmt.Sprintf("#%08x", uint32(id))
}

func (w *World) IsTemplate(id ecs.ID) bool { return w.names.Has(id) }

// TemplateOf is the template an entity was instantiated from.
func (w *World) TemplateOf(id ecs.ID) ecs.ID { return w.templateOf.Get(id) }

func (w *World) Owner(id ecs.ID) ecs.ID    { return w.owners.Get(id) }
func (w *World) Backlink(id ecs.ID) ecs.ID { return w.backlinks.Get(id) }
func (w *World) Team(id ecs.ID) ecs.ID     { return w.Teams.Get(id) }

// State reports where id is in its lifecycle.
func (w *World) State(id ecs.ID) LifeState {
	if p := w.states.Find(id); p != nil {
		return *p
	}
	if w.ecs.Pool().Retired(id) {
		return Freed
	}
	return Unborn
}

// Alive reports whether id is an active entity.
func (w *World) Alive(id ecs.ID) bool {
	return w.states.Get(id) == Active
}

// Entity returns the pose record of id, or nil.
func (w *World) Entity(id ecs.ID) *Entity { return w.Entities.Find(id) }

// Len counts live entities.
func (w *World) Len() int { return w.Entities.Len() }

// SetBacklink attaches id under parent. A link that would close a cycle
// is rejected.
func (w *World) SetBacklink(id, parent ecs.ID) error {
	if parent == 0 {
		w.backlinks.Delete(id)
		return nil
	}
	for cur := range w.Chain(parent) {
		if cur == id {
			return fmt.Errorf("link %s under %s: %w", w.describe(id), w.describe(parent), ErrBacklinkCycle)
		}
	}
	w.backlinks.Put(id, parent)
	return nil
}

// Chain yields id and then each back-link ancestor.
func (w *World) Chain(id ecs.ID) iter.Seq[ecs.ID] {
	return func(yield func(ecs.ID) bool) {
		for depth := 0; id != 0 && depth < maxChainDepth; depth++ {
			if !yield(id) {
				return
			}
			id = w.backlinks.Get(id)
		}
	}
}

// Root walks back-links to the top of id's attachment tree.
func (w *World) Root(id ecs.ID) ecs.ID {
	root := id
	for cur := range w.Chain(id) {
		root = cur
	}
	return root
}

// Cue raises a hashed sound cue on an entity.
func (w *World) Cue(id ecs.ID, cue uint32) {
	if cue == 0 {
		return
	}
	event.Emit(w.bus, event.SoundCue{ID: id, Cue: cue})
}

func (w *World) describe(id ecs.ID) string {
	if t := w.templateOf.Find(id); t != nil {
		return fmt.Sprintf("%s:%d", w.TemplateName(*t), id.Index())
	}
	return fmt.Sprintf("%d", id)
}
