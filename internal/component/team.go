package component

import (
	"errors"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/data"
	"github.com/warp8/engine/internal/world"
)

// teamKind configures <team name="..."/>. Instances pick their team up in
// Instantiate, so the kind has nothing to activate.
type teamKind struct {
	w *world.World
}

func (teamKind) Name() string { return "team" }

func (k teamKind) Configure(el data.Element, template ecs.ID) error {
	team := data.Key(el, "name")
	if team == 0 {
		return errors.New("team without name")
	}
	k.w.TeamTemplates.Put(template, team)
	return nil
}

func (teamKind) Inherit(dst, src ecs.ID) {}
func (teamKind) HasTemplate(ecs.ID) bool { return false }
func (teamKind) Activate(ecs.ID) error   { return nil }
func (teamKind) Deactivate(ecs.ID)       {}
