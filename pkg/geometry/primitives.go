package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cube returns the closed unit cube [0,1]^3 with outward winding: 8 vertices
// and 12 triangles. Each quad is split so the right angle sits at the first
// vertex of both triangles.
func Cube() *Geometry {
	g := &Geometry{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
	}
	quads := [6][4]uint32{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{3, 7, 6, 2}, // back
		{0, 4, 7, 3}, // left
		{1, 2, 6, 5}, // right
	}
	for _, q := range quads {
		g.Indices = append(g.Indices, q[0], q[1], q[3], q[2], q[3], q[1])
	}
	return g
}

// UVSphere returns a closed sphere of the given radius with two poles and
// rings-1 latitude rings of segments vertices each.
func UVSphere(center r3.Vec, radius float64, rings, segments int) (*Geometry, error) {
	if rings < 2 || segments < 3 || radius <= 0 {
		return nil, fmt.Errorf("geometry: sphere rings=%d segments=%d radius=%g: %w", rings, segments, radius, ErrInvalidArgument)
	}
	g := latLong(center, radius, rings, segments, math.Pi/float64(rings), rings-1)
	south := g.AddVertex(r3.Add(center, r3.Vec{Z: -radius}), r3.Vec{})
	last := ringStart(rings-2, segments)
	for j := 0; j < segments; j++ {
		a := last + uint32(j)
		b := last + uint32((j+1)%segments)
		g.Indices = append(g.Indices, south, b, a)
	}
	return g, nil
}

// Hemisphere returns the upper half of a sphere, open along the equator.
// The equator is a single boundary loop of segments vertices.
func Hemisphere(center r3.Vec, radius float64, rings, segments int) (*Geometry, error) {
	if rings < 1 || segments < 3 || radius <= 0 {
		return nil, fmt.Errorf("geometry: hemisphere rings=%d segments=%d radius=%g: %w", rings, segments, radius, ErrInvalidArgument)
	}
	return latLong(center, radius, rings, segments, 0.5*math.Pi/float64(rings), rings), nil
}

// latLong builds the north pole plus count latitude rings spaced dTheta
// apart, with the pole fan and the bands between consecutive rings.
func latLong(center r3.Vec, radius float64, rings, segments int, dTheta float64, count int) *Geometry {
	g := &Geometry{Vertices: []r3.Vec{r3.Add(center, r3.Vec{Z: radius})}}
	for i := 1; i <= count; i++ {
		theta := dTheta * float64(i)
		for j := 0; j < segments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(segments)
			g.Vertices = append(g.Vertices, r3.Add(center, r3.Scale(radius, r3.Vec{
				X: math.Sin(theta) * math.Cos(phi),
				Y: math.Sin(theta) * math.Sin(phi),
				Z: math.Cos(theta),
			})))
		}
	}
	for j := 0; j < segments; j++ {
		a := ringStart(0, segments) + uint32(j)
		b := ringStart(0, segments) + uint32((j+1)%segments)
		g.Indices = append(g.Indices, 0, a, b)
	}
	for i := 0; i+1 < count; i++ {
		up, down := ringStart(i, segments), ringStart(i+1, segments)
		for j := 0; j < segments; j++ {
			a := up + uint32(j)
			b := up + uint32((j+1)%segments)
			c := down + uint32(j)
			d := down + uint32((j+1)%segments)
			g.Indices = append(g.Indices, b, a, c, b, c, d)
		}
	}
	return g
}

func ringStart(i, segments int) uint32 {
	return uint32(1 + i*segments)
}

// FlaredTube returns a closed vessel stub along axis: a cone tip behind
// origin, a side wall widening from radius to flare*radius over length, and
// a flat cap at the far end. The cap rim is a crease (adjacent face normals
// diverge by more than 90 degrees) when flare > 1.
func FlaredTube(origin, axis r3.Vec, length, radius, flare float64, segments int) (*Geometry, error) {
	if segments < 3 || length <= 0 || radius <= 0 || flare <= 0 || r3.Norm(axis) == 0 {
		return nil, fmt.Errorf("geometry: tube length=%g radius=%g flare=%g segments=%d: %w", length, radius, flare, segments, ErrInvalidArgument)
	}
	w := r3.Unit(axis)
	u, v := orthonormalBasis(w)
	far := r3.Add(origin, r3.Scale(length, w))

	g := &Geometry{}
	ring := func(c r3.Vec, r float64) uint32 {
		start := uint32(len(g.Vertices))
		for j := 0; j < segments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(segments)
			off := r3.Add(r3.Scale(r*math.Cos(phi), u), r3.Scale(r*math.Sin(phi), v))
			g.Vertices = append(g.Vertices, r3.Add(c, off))
		}
		return start
	}
	r0 := ring(origin, radius)
	r1 := ring(far, radius*flare)
	apex := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, r3.Sub(origin, r3.Scale(radius, w)))
	capCenter := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, far)

	for j := 0; j < segments; j++ {
		k := uint32((j + 1) % segments)
		i := uint32(j)
		g.Indices = append(g.Indices,
			r0+i, r0+k, r1+k,
			r0+i, r1+k, r1+i,
			capCenter, r1+i, r1+k,
			apex, r0+k, r0+i,
		)
	}
	return g, nil
}

// orthonormalBasis returns u, v with u x v == w for a unit vector w.
func orthonormalBasis(w r3.Vec) (r3.Vec, r3.Vec) {
	ref := r3.Vec{X: 1}
	if math.Abs(w.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	u := r3.Unit(r3.Cross(ref, w))
	v := r3.Cross(w, u)
	return u, v
}

// Merge appends the vertices and triangles of every part into one Geometry.
// Normals are kept only if every part carries them.
func Merge(parts ...*Geometry) *Geometry {
	out := &Geometry{}
	withNormals := len(parts) > 0
	for _, p := range parts {
		if len(p.Normals) != len(p.Vertices) || len(p.Vertices) == 0 {
			withNormals = false
		}
	}
	for _, p := range parts {
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, p.Vertices...)
		if withNormals {
			out.Normals = append(out.Normals, p.Normals...)
		}
		for _, idx := range p.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}
