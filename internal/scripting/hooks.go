package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// DamageContext describes one hit before it is applied.
type DamageContext struct {
	Target         uint32
	TargetTemplate string
	Source         uint32
	SourceTemplate string
	Amount         float64
	Health         float64
	MaxHealth      float64
}

// DeathContext describes an entity that just died.
type DeathContext struct {
	Turn     uint32
	ID       uint32
	Template string
	Killer   uint32
	Source   uint32
	X, Y     float64
}

// ResourceContext describes a resource reaching empty or full.
type ResourceContext struct {
	Turn     uint32
	ID       uint32
	Template string
	Resource uint32 // hashed resource name
	Full     bool
}

// CalcDamage calls calc_damage(ctx) and returns the adjusted amount.
// Without the function, or on error, the amount is returned unchanged.
func (e *Engine) CalcDamage(ctx DamageContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("target", lua.LNumber(ctx.Target))
	t.RawSetString("target_template", lua.LString(ctx.TargetTemplate))
	t.RawSetString("source", lua.LNumber(ctx.Source))
	t.RawSetString("source_template", lua.LString(ctx.SourceTemplate))
	t.RawSetString("amount", lua.LNumber(ctx.Amount))
	t.RawSetString("health", lua.LNumber(ctx.Health))
	t.RawSetString("max_health", lua.LNumber(ctx.MaxHealth))

	result, ok := e.call("calc_damage", t)
	if !ok {
		return ctx.Amount
	}
	n, isNum := result.(lua.LNumber)
	if !isNum {
		return ctx.Amount
	}
	return float64(n)
}

// OnDeath calls on_death(ctx).
func (e *Engine) OnDeath(ctx DeathContext) {
	t := e.vm.NewTable()
	t.RawSetString("turn", lua.LNumber(ctx.Turn))
	t.RawSetString("id", lua.LNumber(ctx.ID))
	t.RawSetString("template", lua.LString(ctx.Template))
	t.RawSetString("killer", lua.LNumber(ctx.Killer))
	t.RawSetString("source", lua.LNumber(ctx.Source))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	e.call("on_death", t)
}

// OnResource calls on_resource_full(ctx) or on_resource_empty(ctx).
func (e *Engine) OnResource(ctx ResourceContext) {
	t := e.vm.NewTable()
	t.RawSetString("turn", lua.LNumber(ctx.Turn))
	t.RawSetString("id", lua.LNumber(ctx.ID))
	t.RawSetString("template", lua.LString(ctx.Template))
	t.RawSetString("resource", lua.LNumber(ctx.Resource))
	name := "on_resource_empty"
	if ctx.Full {
		name = "on_resource_full"
	}
	e.call(name, t)
}
