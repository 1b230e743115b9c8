package world

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/data"
	"go.uber.org/zap"
)

// presentation-only elements that the simulation core accepts and skips
var ignoredTags = map[string]bool{
	"renderable": true,
	"sound":      true,
	"soundcue":   true,
	"drawlist":   true,
	"texture":    true,
	"expire":     true,
}

// RegisterItem installs a handler for a top-level configuration element.
func (w *World) RegisterItem(tag string, fn func(el data.Element, dir string) error) {
	w.items[tag] = fn
}

func (w *World) registerBuiltinItems() {
	w.RegisterItem("world", w.loadWorld)
	w.RegisterItem("import", w.loadImport)
	w.RegisterItem("template", func(el data.Element, _ string) error {
		_, err := w.ConfigureTemplate(el)
		return err
	})
	w.RegisterItem("entity", func(el data.Element, _ string) error {
		_, err := w.ConfigureEntity(el)
		return err
	})
}

// LoadFile reads an XML configuration file. Malformed items are logged
// and skipped; only an unreadable file is an error.
func (w *World) LoadFile(path string) error {
	root, err := data.ParseFile(path)
	if err != nil {
		return err
	}
	w.log.Info("loading world", zap.String("file", path))
	w.LoadElement(root, filepath.Dir(path))
	return nil
}

// LoadElement processes one configuration element.
func (w *World) LoadElement(el data.Element, dir string) {
	fn, ok := w.items[el.Tag()]
	if !ok {
		w.log.Warn("unknown world item", zap.String("tag", el.Tag()))
		return
	}
	if err := fn(el, dir); err != nil {
		w.log.Warn("world item skipped",
			zap.String("tag", el.Tag()),
			zap.String("name", attr(el, "name")),
			zap.Error(err),
		)
	}
}

func (w *World) loadWorld(el data.Element, dir string) error {
	r := data.Read(el)
	b := w.bounds
	r.Float("xmin", &b.Min.X)
	r.Float("ymin", &b.Min.Y)
	r.Float("xmax", &b.Max.X)
	r.Float("ymax", &b.Max.Y)
	r.Bool("wall", &b.Wall)
	if err := r.Err(); err != nil {
		return err
	}
	if b.Min.X >= b.Max.X || b.Min.Y >= b.Max.Y {
		return fmt.Errorf("empty world bounds %v..%v", b.Min, b.Max)
	}
	w.bounds = b
	for _, child := range el.Children() {
		w.LoadElement(child, dir)
	}
	return nil
}

func (w *World) loadImport(el data.Element, dir string) error {
	name := attr(el, "name")
	if name == "" {
		return errors.New("import without name")
	}
	return w.LoadFile(filepath.Join(dir, name))
}

// ConfigureTemplate declares a template and routes each child element to
// the kind registered for its tag. A type attribute copies every kind's
// record from an earlier template first.
func (w *World) ConfigureTemplate(el data.Element) (ecs.ID, error) {
	name := attr(el, "name")
	if name == "" {
		return 0, errors.New("template without name")
	}
	id := w.DeclareTemplate(name)
	if parent := attr(el, "type"); parent != "" {
		pid, ok := w.TemplateID(parent)
		if !ok {
			return id, fmt.Errorf("template %s type %s: %w", name, parent, ErrUnknownTemplate)
		}
		w.inherit(id, pid)
	}
	w.configureComponents(el, id)
	return id, nil
}

func (w *World) inherit(dst, src ecs.ID) {
	for _, k := range w.kinds {
		if k.HasTemplate(src) {
			k.Inherit(dst, src)
		}
	}
	if team := w.TeamTemplates.Find(src); team != nil {
		w.TeamTemplates.Put(dst, *team)
	}
}

func (w *World) configureComponents(el data.Element, id ecs.ID) {
	for _, child := range el.Children() {
		tag := child.Tag()
		k, ok := w.KindFor(tag)
		if !ok {
			if ignoredTags[tag] {
				continue
			}
			if w.isPlacement(tag) {
				continue
			}
			w.log.Warn("unknown component",
				zap.String("template", w.TemplateName(id)),
				zap.String("tag", tag),
			)
			continue
		}
		if err := k.Configure(child, id); err != nil {
			w.log.Warn("component skipped",
				zap.String("template", w.TemplateName(id)),
				zap.String("kind", k.Name()),
				zap.Error(err),
			)
		}
	}
}

func (w *World) isPlacement(tag string) bool {
	return tag == "position" || tag == "velocity"
}

// ConfigureEntity places an instance. Component children make the entity
// its own template, derived from the template attribute when given.
func (w *World) ConfigureEntity(el data.Element) (ecs.ID, error) {
	name := attr(el, "name")
	tmpl := attr(el, "template")

	var tid ecs.ID
	if hasComponents(el) || tmpl == "" {
		if name == "" {
			return 0, errors.New("entity without name or template")
		}
		tid = w.DeclareTemplate(name)
		if tmpl != "" {
			pid, ok := w.TemplateID(tmpl)
			if !ok {
				return 0, fmt.Errorf("entity %s template %s: %w", name, tmpl, ErrUnknownTemplate)
			}
			w.inherit(tid, pid)
		}
		w.configureComponents(el, tid)
	} else {
		id, ok := w.TemplateID(tmpl)
		if !ok {
			return 0, fmt.Errorf("entity %s template %s: %w", name, tmpl, ErrUnknownTemplate)
		}
		tid = id
	}

	spawn := Spawn{Template: tid}
	var pos, vel geom.Transform
	for _, child := range el.Children() {
		r := data.Read(child)
		switch child.Tag() {
		case "position":
			r.Transform(&pos)
		case "velocity":
			r.Transform(&vel)
		}
		if err := r.Err(); err != nil {
			return 0, err
		}
	}
	spawn.Angle, spawn.Position = pos.Angle, pos.P
	spawn.Omega, spawn.Velocity = vel.Angle, vel.P
	return w.Instantiate(spawn)
}

func hasComponents(el data.Element) bool {
	for _, child := range el.Children() {
		if child.Tag() != "position" && child.Tag() != "velocity" {
			return true
		}
	}
	return false
}

func attr(el data.Element, name string) string {
	v, _ := el.Attr(name)
	return v
}
