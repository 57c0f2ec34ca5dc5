// Package trimesh holds a mutable, face-oriented triangle set with per-face
// normal and centroid caches kept in step with every edit.
package trimesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// Face is a triangle as three vertex ids.
type Face [3]uint32

// Equal reports whether f and o name the same triangle regardless of
// orientation: any rotation or reversal of the corners matches.
func (f Face) Equal(o Face) bool {
	return f.Key() == o.Key()
}

// Key returns the corners sorted ascending, the identity used for duplicate
// detection and removal.
func (f Face) Key() [3]uint32 {
	a, b, c := f[0], f[1], f[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return [3]uint32{a, b, c}
}

// Mesh is a set of faces over a shared vertex array. Faces are unique under
// Face.Equal; adding a duplicate is a no-op.
type Mesh struct {
	vertices  []r3.Vec
	faces     []Face
	normals   []r3.Vec
	centroids []r3.Vec
	index     map[[3]uint32]int
}

// New returns an empty mesh over vertices. The slice is retained.
func New(vertices []r3.Vec) *Mesh {
	return &Mesh{vertices: vertices, index: make(map[[3]uint32]int)}
}

// FromGeometry returns a mesh holding every distinct face of g.
func FromGeometry(g *geometry.Geometry) (*Mesh, error) {
	m := New(g.Vertices)
	faces := make([]Face, g.TriangleCount())
	for f := range faces {
		faces[f] = Face(g.Triangle(f))
	}
	if _, err := m.AddFaces(faces...); err != nil {
		return nil, err
	}
	return m, nil
}

// Len returns the number of faces.
func (m *Mesh) Len() int { return len(m.faces) }

// Faces returns the faces in insertion order, with removals filled from the
// back. The slice must not be modified.
func (m *Mesh) Faces() []Face { return m.faces }

// Normal returns the unit normal of face i, zero if it is degenerate.
func (m *Mesh) Normal(i int) r3.Vec { return m.normals[i] }

// Centroid returns the centroid of face i.
func (m *Mesh) Centroid(i int) r3.Vec { return m.centroids[i] }

// Contains reports whether a face equal to f is present.
func (m *Mesh) Contains(f Face) bool {
	_, ok := m.index[f.Key()]
	return ok
}

// AddFace inserts f and reports whether it was new.
func (m *Mesh) AddFace(f Face) (bool, error) {
	for _, v := range f {
		if int(v) >= len(m.vertices) {
			return false, fmt.Errorf("trimesh: face %v refers to vertex %d of %d: %w", f, v, len(m.vertices), geometry.ErrIndexOutOfRange)
		}
	}
	key := f.Key()
	if _, ok := m.index[key]; ok {
		return false, nil
	}
	a, b, c := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]
	m.index[key] = len(m.faces)
	m.faces = append(m.faces, f)
	m.normals = append(m.normals, geometry.FaceNormal(a, b, c))
	m.centroids = append(m.centroids, geometry.Centroid(a, b, c))
	return true, nil
}

// AddFaces inserts every face and returns how many were new. It stops at the
// first out-of-range face; faces before it stay inserted.
func (m *Mesh) AddFaces(faces ...Face) (int, error) {
	added := 0
	for _, f := range faces {
		ok, err := m.AddFace(f)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// RemoveFace deletes the face equal to f, in any orientation, and reports
// whether one was present. The last face takes the freed slot.
func (m *Mesh) RemoveFace(f Face) bool {
	key := f.Key()
	i, ok := m.index[key]
	if !ok {
		return false
	}
	last := len(m.faces) - 1
	if i != last {
		m.faces[i] = m.faces[last]
		m.normals[i] = m.normals[last]
		m.centroids[i] = m.centroids[last]
		m.index[m.faces[i].Key()] = i
	}
	m.faces = m.faces[:last]
	m.normals = m.normals[:last]
	m.centroids = m.centroids[:last]
	delete(m.index, key)
	return true
}

// RemoveFaces deletes every listed face and returns how many were present.
func (m *Mesh) RemoveFaces(faces ...Face) int {
	removed := 0
	for _, f := range faces {
		if m.RemoveFace(f) {
			removed++
		}
	}
	return removed
}

// ToGeometry returns a flat Geometry with three fresh vertices per face and
// no sharing, so per-face attributes can diverge later. Normals are the face
// normals.
func (m *Mesh) ToGeometry() *geometry.Geometry {
	g := &geometry.Geometry{
		Vertices: make([]r3.Vec, 0, 3*len(m.faces)),
		Normals:  make([]r3.Vec, 0, 3*len(m.faces)),
		Indices:  make([]uint32, 0, 3*len(m.faces)),
	}
	for i, f := range m.faces {
		n := m.normals[i]
		for _, v := range f {
			g.Indices = append(g.Indices, uint32(len(g.Vertices)))
			g.Vertices = append(g.Vertices, m.vertices[v])
			g.Normals = append(g.Normals, n)
		}
	}
	return g
}
