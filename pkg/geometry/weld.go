package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Weld builds an indexed Geometry from a triangle soup by merging corners
// that fall into the same cell of a lattice with spacing tol. A tol of zero
// is derived from the shortest edge of the soup. Triangles that collapse
// onto fewer than three distinct vertices after welding are dropped.
func Weld(tris [][3]r3.Vec, tol float64) (*Geometry, error) {
	if tol < 0 || math.IsNaN(tol) {
		return nil, fmt.Errorf("geometry: weld tolerance %g: %w", tol, ErrInvalidArgument)
	}
	g := &Geometry{}
	if len(tris) == 0 {
		return g, nil
	}

	minEdge2 := math.MaxFloat64
	maxEdge2 := 0.0
	for _, t := range tris {
		for j := range t {
			d := r3.Norm2(r3.Sub(t[(j+1)%3], t[j]))
			if d > 0 {
				minEdge2 = math.Min(minEdge2, d)
			}
			maxEdge2 = math.Max(maxEdge2, d)
		}
	}
	if maxEdge2 == 0 {
		return nil, fmt.Errorf("geometry: weld: every triangle has zero extent: %w", ErrDegenerateInput)
	}
	if tol == 0 {
		tol = math.Sqrt(minEdge2) / 256
	}
	if tol > math.Sqrt(maxEdge2)/2 {
		return nil, fmt.Errorf("geometry: weld tolerance %g too large for edges up to %g: %w", tol, math.Sqrt(maxEdge2), ErrInvalidArgument)
	}

	inv := 1 / tol
	cache := make(map[[3]int64]uint32)
	g.Vertices = make([]r3.Vec, 0, len(tris))
	g.Indices = make([]uint32, 0, 3*len(tris))
	for _, t := range tris {
		var ids [3]uint32
		for j, p := range t {
			q := r3.Scale(inv, p)
			key := [3]int64{int64(math.Round(q.X)), int64(math.Round(q.Y)), int64(math.Round(q.Z))}
			id, ok := cache[key]
			if !ok {
				id = uint32(len(g.Vertices))
				cache[key] = id
				g.Vertices = append(g.Vertices, p)
			}
			ids[j] = id
		}
		if ids[0] == ids[1] || ids[1] == ids[2] || ids[2] == ids[0] {
			continue
		}
		g.Indices = append(g.Indices, ids[0], ids[1], ids[2])
	}
	return g, nil
}
