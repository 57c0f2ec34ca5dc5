package halfedge

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/parallel"
)

// CalculateNormals returns one unit normal per vertex: the sum of the
// unnormalized normals of the incident faces, each weighted by the angle the
// face subtends at the vertex. Corners with a zero-length edge are skipped
// and counted in degenerate. A vertex whose every corner is skipped, or that
// no face uses, gets the zero vector.
func (m *Mesh) CalculateNormals() (normals []r3.Vec, degenerate int) {
	nv := len(m.entry)
	normals = make([]r3.Vec, nv)
	degenerate = parallel.Reduce(nv, func(lo, hi int) int {
		skipped := 0
		for v := lo; v < hi; v++ {
			ring, _ := m.oneRing(v)
			var sum r3.Vec
			for _, he := range ring {
				n, angle, ok := m.cornerWeight(he)
				if !ok {
					skipped++
					continue
				}
				sum = r3.Add(sum, r3.Scale(angle, n))
			}
			if l := r3.Norm(sum); l > 0 {
				normals[v] = r3.Scale(1/l, sum)
			}
		}
		return skipped
	}, func(a, b int) int { return a + b })
	return normals, degenerate
}

// cornerWeight returns the unnormalized normal of he's face and the interior
// angle at he's origin. ok is false when either corner edge has zero length.
func (m *Mesh) cornerWeight(he int) (r3.Vec, float64, bool) {
	verts := m.geom.Vertices
	p := verts[m.From(he)]
	e1 := r3.Sub(verts[m.edges[he].To], p)
	e2 := r3.Sub(verts[m.From(Prev(he))], p)
	l1, l2 := r3.Norm(e1), r3.Norm(e2)
	if l1 == 0 || l2 == 0 {
		return r3.Vec{}, 0, false
	}
	cos := math.Max(-1, math.Min(1, r3.Dot(e1, e2)/(l1*l2)))
	return r3.Cross(e1, e2), math.Acos(cos), true
}

// HardEdgeVertices returns the vertices where two faces adjacent in the
// one-ring have normals with a non-positive dot product. Faces with a zero
// normal are ignored. Ids are ascending.
func (m *Mesh) HardEdgeVertices() []int {
	nv := len(m.entry)
	faceNormals := m.geom.FaceNormals()
	crease := make([]bool, nv)
	parallel.For(nv, func(lo, hi int) {
		for v := lo; v < hi; v++ {
			ring, closed := m.oneRing(v)
			crease[v] = hasCrease(ring, closed, faceNormals)
		}
	})
	var ids []int
	for v, c := range crease {
		if c {
			ids = append(ids, v)
		}
	}
	return ids
}

// HardEdgeCandidates returns the positions of HardEdgeVertices, one entry
// per crease vertex.
func (m *Mesh) HardEdgeCandidates() []r3.Vec {
	ids := m.HardEdgeVertices()
	points := make([]r3.Vec, len(ids))
	for i, v := range ids {
		points[i] = m.geom.Vertices[v]
	}
	return points
}

func hasCrease(ring []int, closed bool, faceNormals []r3.Vec) bool {
	n := len(ring)
	if n < 2 {
		return false
	}
	pairs := n - 1
	if closed {
		pairs = n
	}
	for i := 0; i < pairs; i++ {
		a := faceNormals[Face(ring[i])]
		b := faceNormals[Face(ring[(i+1)%n])]
		if a == (r3.Vec{}) || b == (r3.Vec{}) {
			continue
		}
		if r3.Dot(a, b) <= 0 {
			return true
		}
	}
	return false
}
