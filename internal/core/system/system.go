package system

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseDispatch Phase = iota // 0: deliver last tick's events
	PhaseSimulate              // 1: simulatables (lifetimes, timers)
	PhaseCollide               // 2: physics step + transform sync + contacts
	PhaseUpdate                // 3: weapons, resource regen, actuators
	PhaseControl               // 4: controllers write next tick's intents
	PhaseCleanup               // 5: destroy queued entities
	PhasePersist               // 6: kill log flush
)

func (p Phase) String() string {
	switch p {
	case PhaseDispatch:
		return "dispatch"
	case PhaseSimulate:
		return "simulate"
	case PhaseCollide:
		return "collide"
	case PhaseUpdate:
		return "update"
	case PhaseControl:
		return "control"
	case PhaseCleanup:
		return "cleanup"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(clk *Clock)
}
