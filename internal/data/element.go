package data

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/warp8/engine/internal/core/ecs"
	"github.com/warp8/engine/internal/core/geom"
	"github.com/warp8/engine/internal/core/hash"
)

// Element is one node of a configuration tree.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	Children() []Element
	Text() string
}

type xmlElement struct {
	e *etree.Element
}

func (x xmlElement) Tag() string { return x.e.Tag }

func (x xmlElement) Attr(name string) (string, bool) {
	a := x.e.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

func (x xmlElement) Children() []Element {
	kids := x.e.ChildElements()
	out := make([]Element, len(kids))
	for i, k := range kids {
		out[i] = xmlElement{e: k}
	}
	return out
}

func (x xmlElement) Text() string { return x.e.Text() }

// ParseFile reads an XML configuration file and returns its root element.
func ParseFile(path string) (Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("read xml %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("read xml %s: no root element", path)
	}
	return xmlElement{e: root}, nil
}

// ParseString parses an XML fragment.
func ParseString(s string) (Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}
	return xmlElement{e: root}, nil
}

// MustParse is ParseString for fixtures; it panics on malformed input.
func MustParse(s string) Element {
	el, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return el
}

// Key hashes a name attribute. Absent or empty names give the null id.
func Key(el Element, name string) ecs.ID {
	v, _ := el.Attr(name)
	return ecs.ID(hash.Hash(v))
}

// TagKey hashes an element tag for kind dispatch.
func TagKey(el Element) uint32 { return hash.Hash(el.Tag()) }

// AttrError reports an attribute that is present but malformed.
type AttrError struct {
	Tag   string
	Attr  string
	Value string
	Err   error
}

func (e *AttrError) Error() string {
	return fmt.Sprintf("<%s %s=%q>: %v", e.Tag, e.Attr, e.Value, e.Err)
}

func (e *AttrError) Unwrap() error { return e.Err }

// Reader pulls typed attributes off an element. Absent attributes leave the
// destination untouched; the first malformed one is kept in Err.
type Reader struct {
	el  Element
	err error
}

func Read(el Element) *Reader { return &Reader{el: el} }

func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(name, v string, err error) {
	if r.err == nil {
		r.err = &AttrError{Tag: r.el.Tag(), Attr: name, Value: v, Err: err}
	}
}

func (r *Reader) Has(name string) bool {
	_, ok := r.el.Attr(name)
	return ok
}

func (r *Reader) String(name string, dst *string) bool {
	v, ok := r.el.Attr(name)
	if ok {
		*dst = v
	}
	return ok
}

func (r *Reader) Float(name string, dst *float64) bool {
	v, ok := r.el.Attr(name)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(name, v, err)
		return false
	}
	*dst = f
	return true
}

// Degrees reads an angle in degrees and stores radians.
func (r *Reader) Degrees(name string, dst *float64) bool {
	var d float64
	if !r.Float(name, &d) {
		return false
	}
	*dst = geom.Deg2Rad(d)
	return true
}

func (r *Reader) Int(name string, dst *int) bool {
	v, ok := r.el.Attr(name)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, v, err)
		return false
	}
	*dst = n
	return true
}

func (r *Reader) Bool(name string, dst *bool) bool {
	v, ok := r.el.Attr(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(name, v, err)
		return false
	}
	*dst = b
	return true
}

// Key reads a name attribute as its hashed id.
func (r *Reader) Key(name string, dst *ecs.ID) bool {
	v, ok := r.el.Attr(name)
	if ok {
		*dst = ecs.ID(hash.Hash(v))
	}
	return ok
}

// Vec reads x and y.
func (r *Reader) Vec(dst *geom.Vec2) {
	r.Float("x", &dst.X)
	r.Float("y", &dst.Y)
}

// Transform reads angle (degrees), x and y.
func (r *Reader) Transform(dst *geom.Transform) {
	r.Degrees("angle", &dst.Angle)
	r.Vec(&dst.P)
}
