package geometry

import (
	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"
)

// View borrows a base Geometry with its own triangle index subset, e.g. the
// faces of one inlet. Views never mutate the base buffers; several views may
// overlap the same faces.
type View struct {
	Base    *Geometry
	Indices []uint32
}

// NewView returns a view over base restricted to the given index triples.
func NewView(base *Geometry, indices []uint32) View {
	return View{Base: base, Indices: indices}
}

// FacesView returns a view holding the listed faces of base, in order.
func FacesView(base *Geometry, faces []int) View {
	idx := make([]uint32, 0, 3*len(faces))
	for _, f := range faces {
		t := base.Triangle(f)
		idx = append(idx, t[0], t[1], t[2])
	}
	return View{Base: base, Indices: idx}
}

// TriangleCount returns the number of triangles in the view.
func (v View) TriangleCount() int {
	return len(v.Indices) / 3
}

// Triangle returns the base vertex ids of the i-th triangle of the view.
func (v View) Triangle(i int) [3]uint32 {
	return [3]uint32{v.Indices[3*i], v.Indices[3*i+1], v.Indices[3*i+2]}
}

// VertexIDs returns the distinct base vertex ids used by the view, in order
// of first use.
func (v View) VertexIDs() []uint32 {
	return lo.Uniq(v.Indices)
}

// Positions returns the positions of VertexIDs.
func (v View) Positions() []r3.Vec {
	return lo.Map(v.VertexIDs(), func(id uint32, _ int) r3.Vec {
		return v.Base.Vertices[id]
	})
}

// Compact copies the view into a standalone Geometry that holds only the
// referenced vertices, renumbered in order of first use.
func (v View) Compact() *Geometry {
	ids := v.VertexIDs()
	remap := make(map[uint32]uint32, len(ids))
	out := &Geometry{Vertices: make([]r3.Vec, len(ids))}
	hasNormals := len(v.Base.Normals) == len(v.Base.Vertices) && len(v.Base.Vertices) > 0
	if hasNormals {
		out.Normals = make([]r3.Vec, len(ids))
	}
	for i, id := range ids {
		remap[id] = uint32(i)
		out.Vertices[i] = v.Base.Vertices[id]
		if hasNormals {
			out.Normals[i] = v.Base.Normals[id]
		}
	}
	out.Indices = lo.Map(v.Indices, func(id uint32, _ int) uint32 { return remap[id] })
	return out
}
