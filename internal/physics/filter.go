package physics

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/warp8/engine/internal/data"
)

// Filter decides which fixtures may touch.
type Filter struct {
	Category uint16
	Mask     uint16
	Group    int16
}

// DefaultFilter collides with everything, like a fresh Box2D fixture.
var DefaultFilter = Filter{Category: 1, Mask: 0xFFFF}

func (f Filter) b2() box2d.B2Filter {
	return box2d.B2Filter{CategoryBits: f.Category, MaskBits: f.Mask, GroupIndex: f.Group}
}

func filterOf(f box2d.B2Filter) Filter {
	return Filter{Category: f.CategoryBits, Mask: f.MaskBits, Group: f.GroupIndex}
}

// CheckFilter reports whether fixtures with filters a and b should collide.
// A shared non-zero group overrides the masks: positive groups always
// collide, negative never.
func CheckFilter(a, b Filter) bool {
	if a.Group == b.Group && a.Group != 0 {
		return a.Group > 0
	}
	return a.Mask&b.Category != 0 && a.Category&b.Mask != 0
}

// configureFilterItem applies one category/mask/group element.
func configureFilterItem(el data.Element, f *Filter) (bool, error) {
	r := data.Read(el)
	switch el.Tag() {
	case "category":
		var n int
		if r.Int("value", &n) {
			if n < 0 || n > 15 {
				f.Category = 0
			} else {
				f.Category = 1 << uint(n)
			}
		}
	case "mask":
		def := true
		r.Bool("default", &def)
		var mask uint16
		if def {
			mask = 0xFFFF
		}
		for bit := 0; bit < 16; bit++ {
			var on bool
			if r.Bool(fmt.Sprintf("bit%d", bit), &on) {
				if on {
					mask |= 1 << uint(bit)
				} else {
					mask &^= 1 << uint(bit)
				}
			}
		}
		f.Mask = mask
	case "group":
		var n int
		if r.Int("value", &n) {
			if n < -32768 || n > 32767 {
				return true, fmt.Errorf("group %d out of range", n)
			}
			f.Group = int16(n)
		}
	default:
		return false, nil
	}
	return true, r.Err()
}
