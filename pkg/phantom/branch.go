package phantom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// Branch is one vessel segment: a tube of the given length and radius along
// +Z of its own frame. The frame is placed by Rotate (Euler degrees) and
// then Translate, relative to the far end of the parent branch, or to the
// world origin for the root.
type Branch struct {
	Name      string   `yaml:"name" json:"name"`
	Length    float64  `yaml:"length" json:"length"`
	Radius    float64  `yaml:"radius" json:"radius"`
	Sac       float64  `yaml:"sac,omitempty" json:"sac,omitempty"` // radius of an aneurysm at the far end; 0 for none
	Translate r3.Vec   `yaml:"translate,omitempty" json:"translate"`
	Rotate    r3.Vec   `yaml:"rotate,omitempty" json:"rotate"`
	Children  []Branch `yaml:"children,omitempty" json:"children,omitempty"`
}

// Terminal is the open far end of a leaf branch, where a truncation cap
// sits.
type Terminal struct {
	Name   string
	Center r3.Vec
	Axis   r3.Vec // unit, pointing out of the vessel
	Radius float64
}

// transformStack holds the frames from the root down to the branch being
// visited. Each frame rotates first and then translates.
type transformStack struct {
	translations []r3.Vec
	rotations    []r3.Vec
}

func (ts *transformStack) push(translation, rotation r3.Vec) {
	ts.translations = append(ts.translations, translation)
	ts.rotations = append(ts.rotations, rotation)
}

func (ts *transformStack) pop() {
	ts.translations = ts.translations[:len(ts.translations)-1]
	ts.rotations = ts.rotations[:len(ts.rotations)-1]
}

// point maps p from the innermost frame to world space.
func (ts *transformStack) point(p r3.Vec) r3.Vec {
	for i := len(ts.translations) - 1; i >= 0; i-- {
		p = r3.Add(rotateEuler(p, ts.rotations[i]), ts.translations[i])
	}
	return p
}

// direction maps a direction from the innermost frame to world space.
func (ts *transformStack) direction(d r3.Vec) r3.Vec {
	for i := len(ts.rotations) - 1; i >= 0; i-- {
		d = rotateEuler(d, ts.rotations[i])
	}
	return d
}

// solid moves s from the innermost frame to world space with k.
func (ts *transformStack) solid(k Kernel, s Solid) Solid {
	for i := len(ts.translations) - 1; i >= 0; i-- {
		if r := ts.rotations[i]; r != (r3.Vec{}) {
			s = k.Rotate(s, r)
		}
		if t := ts.translations[i]; t != (r3.Vec{}) {
			s = k.Translate(s, t)
		}
	}
	return s
}

// rotateEuler turns p about X, then Y, then Z by the angles in deg.
func rotateEuler(p, deg r3.Vec) r3.Vec {
	if deg.X != 0 {
		p = r3.NewRotation(deg.X*math.Pi/180, r3.Vec{X: 1}).Rotate(p)
	}
	if deg.Y != 0 {
		p = r3.NewRotation(deg.Y*math.Pi/180, r3.Vec{Y: 1}).Rotate(p)
	}
	if deg.Z != 0 {
		p = r3.NewRotation(deg.Z*math.Pi/180, r3.Vec{Z: 1}).Rotate(p)
	}
	return p
}

// walk visits b and its descendants depth first with the stack holding b's
// frame.
func walk(b Branch, ts *transformStack, visit func(Branch, *transformStack) error) error {
	ts.push(b.Translate, b.Rotate)
	defer ts.pop()
	if err := visit(b, ts); err != nil {
		return err
	}
	ts.push(r3.Vec{Z: b.Length}, r3.Vec{})
	defer ts.pop()
	for _, c := range b.Children {
		if err := walk(c, ts, visit); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every branch of the tree.
func (b Branch) Validate() error {
	return walk(b, &transformStack{}, func(b Branch, _ *transformStack) error {
		if b.Length <= 0 || b.Radius <= 0 || b.Sac < 0 {
			return fmt.Errorf("phantom: branch %q length=%g radius=%g sac=%g: %w", b.Name, b.Length, b.Radius, b.Sac, geometry.ErrInvalidArgument)
		}
		return nil
	})
}

// Terminals returns the far end of every leaf branch without a sac, in
// depth-first order.
func (b Branch) Terminals() []Terminal {
	var out []Terminal
	_ = walk(b, &transformStack{}, func(b Branch, ts *transformStack) error {
		if len(b.Children) == 0 && b.Sac == 0 {
			out = append(out, Terminal{
				Name:   b.Name,
				Center: ts.point(r3.Vec{Z: b.Length}),
				Axis:   r3.Unit(ts.direction(r3.Vec{Z: 1})),
				Radius: b.Radius,
			})
		}
		return nil
	})
	return out
}

// Tessellate unions every branch of the tree, blending junctions over blend,
// and returns the welded surface sampled with cells cells along the longest
// side.
func Tessellate(root Branch, k Kernel, blend float64, cells int) (*geometry.Geometry, error) {
	if cells < 2 {
		return nil, fmt.Errorf("phantom: %d cells: %w", cells, geometry.ErrInvalidArgument)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}

	var parts []Solid
	err := walk(root, &transformStack{}, func(b Branch, ts *transformStack) error {
		tube, err := k.Cylinder(b.Length, b.Radius)
		if err != nil {
			return fmt.Errorf("phantom: branch %q: %w", b.Name, err)
		}
		parts = append(parts, ts.solid(k, tube))
		if b.Sac > 0 {
			sac, err := k.Sphere(b.Sac)
			if err != nil {
				return fmt.Errorf("phantom: sac of %q: %w", b.Name, err)
			}
			parts = append(parts, ts.solid(k, k.Translate(sac, r3.Vec{Z: b.Length})))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	whole := parts[0]
	if len(parts) > 1 {
		whole = k.Union(blend, parts...)
	}
	tris, err := k.Triangles(whole, cells)
	if err != nil {
		return nil, fmt.Errorf("phantom: tessellate %q: %w", root.Name, err)
	}
	box := whole.Bounds()
	size := r3.Sub(box.Max, box.Min)
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	return geometry.Weld(tris, longest/float64(cells)/1000)
}
