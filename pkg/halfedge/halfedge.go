// Package halfedge builds directed edge adjacency over an indexed triangle
// mesh. Half-edges live in a flat arena: half-edge 3f+c runs from corner c of
// face f to corner c+1, so next and prev are arithmetic and opposite is a
// plain index with -1 for unmatched edges.
//
// A Mesh is immutable once built and safe for concurrent readers. Rebuild it
// after changing the Geometry's indices.
package halfedge

import (
	"fmt"
	"sync"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// None marks a missing half-edge: an unmatched opposite or an isolated
// vertex's entry edge.
const None = -1

// Edge is one directed triangle corner.
type Edge struct {
	To       int // vertex the edge points to
	Opposite int // twin in the adjacent face, or None
}

// Mesh is the half-edge topology of a Geometry.
type Mesh struct {
	geom  *geometry.Geometry
	edges []Edge
	entry []int   // per vertex: one outgoing half-edge, or None
	out   [][]int // per vertex: all outgoing half-edges, in face order

	boundaryOnce sync.Once
	boundaries   [][]int
}

// Build constructs the topology of g. Opposites are resolved by matching
// each edge a->b against the unmatched edges leaving b; the first match wins
// and any further candidates stay unmatched, so non-manifold edges leave the
// topology under-connected rather than failing. A geometry without
// triangles yields an empty topology.
func Build(g *geometry.Geometry) (*Mesh, error) {
	if len(g.Indices)%3 != 0 {
		return nil, fmt.Errorf("halfedge: %d indices is not a whole number of triangles: %w", len(g.Indices), geometry.ErrInvalidArgument)
	}
	nv := g.VertexCount()
	for i, idx := range g.Indices {
		if int(idx) >= nv {
			return nil, fmt.Errorf("halfedge: index %d refers to vertex %d of %d: %w", i, idx, nv, geometry.ErrIndexOutOfRange)
		}
	}

	m := &Mesh{
		geom:  g,
		edges: make([]Edge, len(g.Indices)),
		entry: make([]int, nv),
		out:   make([][]int, nv),
	}
	for v := range m.entry {
		m.entry[v] = None
	}
	for he := range m.edges {
		from := int(g.Indices[he])
		m.edges[he] = Edge{To: int(g.Indices[Next(he)]), Opposite: None}
		m.out[from] = append(m.out[from], he)
		if m.entry[from] == None {
			m.entry[from] = he
		}
	}

	for he := range m.edges {
		if m.edges[he].Opposite != None {
			continue
		}
		a, b := m.From(he), m.edges[he].To
		for _, twin := range m.out[b] {
			if twin != he && m.edges[twin].To == a && m.edges[twin].Opposite == None {
				m.edges[he].Opposite = twin
				m.edges[twin].Opposite = he
				break
			}
		}
	}
	return m, nil
}

// Next returns the half-edge following he inside its face.
func Next(he int) int {
	return 3*(he/3) + (he%3+1)%3
}

// Prev returns the half-edge preceding he inside its face.
func Prev(he int) int {
	return 3*(he/3) + (he%3+2)%3
}

// Face returns the face owning he.
func Face(he int) int {
	return he / 3
}

// Geometry returns the mesh the topology was built from.
func (m *Mesh) Geometry() *geometry.Geometry { return m.geom }

// EdgeCount returns the number of half-edges.
func (m *Mesh) EdgeCount() int { return len(m.edges) }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.entry) }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.edges) / 3 }

// Edge returns the record of half-edge he.
func (m *Mesh) Edge(he int) Edge { return m.edges[he] }

// Opposite returns the twin of he, or None on a boundary.
func (m *Mesh) Opposite(he int) int { return m.edges[he].Opposite }

// To returns the vertex he points to.
func (m *Mesh) To(he int) int { return m.edges[he].To }

// From returns the vertex he starts at.
func (m *Mesh) From(he int) int { return int(m.geom.Indices[he]) }

// IsBoundary reports whether he has no twin.
func (m *Mesh) IsBoundary(he int) bool { return m.edges[he].Opposite == None }

// VertexEdge returns the traversal entry half-edge of v, or None for a
// vertex no face uses.
func (m *Mesh) VertexEdge(v int) (int, error) {
	if err := m.checkVertex(v); err != nil {
		return None, err
	}
	return m.entry[v], nil
}

// Outgoing returns every half-edge leaving v. The slice must not be
// modified.
func (m *Mesh) Outgoing(v int) ([]int, error) {
	if err := m.checkVertex(v); err != nil {
		return nil, err
	}
	return m.out[v], nil
}

// CheckEdge returns ErrIndexOutOfRange if he is not a half-edge id.
func (m *Mesh) CheckEdge(he int) error {
	if he < 0 || he >= len(m.edges) {
		return fmt.Errorf("halfedge: edge %d of %d: %w", he, len(m.edges), geometry.ErrIndexOutOfRange)
	}
	return nil
}

func (m *Mesh) checkVertex(v int) error {
	if v < 0 || v >= len(m.entry) {
		return fmt.Errorf("halfedge: vertex %d of %d: %w", v, len(m.entry), geometry.ErrIndexOutOfRange)
	}
	return nil
}
