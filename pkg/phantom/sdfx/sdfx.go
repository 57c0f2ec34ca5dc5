// Package sdfx implements phantom.Kernel with the github.com/deadsy/sdfx
// signed distance field library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/phantom"
)

// Compile-time interface check.
var _ phantom.Kernel = (*Kernel)(nil)

// solid wraps an sdf.SDF3.
type solid struct {
	s sdf.SDF3
}

func (s *solid) Bounds() r3.Box {
	bb := s.s.BoundingBox()
	return r3.Box{Min: fromV3(bb.Min), Max: fromV3(bb.Max)}
}

// Kernel is the sdfx backend.
type Kernel struct{}

// New returns an sdfx kernel.
func New() *Kernel {
	return &Kernel{}
}

func unwrap(s phantom.Solid) sdf.SDF3 {
	return s.(*solid).s
}

func wrap(s sdf.SDF3) phantom.Solid {
	return &solid{s: s}
}

func toV3(v r3.Vec) v3.Vec   { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromV3(v v3.Vec) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// Cylinder returns a flat-ended tube from z=0 to z=length. sdf.Cylinder3D
// is centered on the origin, so it is shifted up by half its length.
func (k *Kernel) Cylinder(length, radius float64) (phantom.Solid, error) {
	s, err := sdf.Cylinder3D(length, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder length=%g radius=%g: %v: %w", length, radius, err, geometry.ErrInvalidArgument)
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: length / 2}))), nil
}

// Sphere returns a ball of the given radius.
func (k *Kernel) Sphere(radius float64) (phantom.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere radius=%g: %v: %w", radius, err, geometry.ErrInvalidArgument)
	}
	return wrap(s), nil
}

// Union joins parts, with a polynomial smooth minimum when blend > 0.
func (k *Kernel) Union(blend float64, parts ...phantom.Solid) phantom.Solid {
	sdfs := make([]sdf.SDF3, len(parts))
	for i, p := range parts {
		sdfs[i] = unwrap(p)
	}
	u := sdf.Union3D(sdfs...)
	// Union3D hands back a lone part unchanged.
	if us, ok := u.(*sdf.UnionSDF3); ok && blend > 0 {
		us.SetMin(sdf.PolyMin(blend))
	}
	return wrap(u)
}

// Translate moves s by v.
func (k *Kernel) Translate(s phantom.Solid, v r3.Vec) phantom.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Translate3d(toV3(v))))
}

// Rotate turns s by Euler angles in degrees, X first.
func (k *Kernel) Rotate(s phantom.Solid, euler r3.Vec) phantom.Solid {
	rad := r3.Scale(math.Pi/180, euler)
	m := sdf.RotateZ(rad.Z).Mul(sdf.RotateY(rad.Y)).Mul(sdf.RotateX(rad.X))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Triangles runs uniform marching cubes over s.
func (k *Kernel) Triangles(s phantom.Solid, cells int) ([][3]r3.Vec, error) {
	if cells < 2 {
		return nil, fmt.Errorf("sdfx: %d cells: %w", cells, geometry.ErrInvalidArgument)
	}
	tris := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(cells))
	out := make([][3]r3.Vec, 0, len(tris))
	for _, tri := range tris {
		out = append(out, [3]r3.Vec{fromV3(tri[0]), fromV3(tri[1]), fromV3(tri[2])})
	}
	return out, nil
}
