package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// RenderMesh is a triangle mesh in the flat layout renderers and the JSON
// mesh files use. vertices has 3 floats per vertex (x,y,z), normals has 3
// floats per vertex, indices has 3 uint32s per triangle.
type RenderMesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // inlet or wall name
	Color    string    `json:"color,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *RenderMesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *RenderMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *RenderMesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Flatten converts g to the flat float32 layout. Missing normals are
// written as zeros so the arrays stay parallel.
func Flatten(g *Geometry, name string) *RenderMesh {
	m := &RenderMesh{
		Vertices: make([]float32, 0, 3*len(g.Vertices)),
		Normals:  make([]float32, 0, 3*len(g.Vertices)),
		Indices:  append([]uint32(nil), g.Indices...),
		PartName: name,
	}
	hasNormals := len(g.Normals) == len(g.Vertices)
	for i, v := range g.Vertices {
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		var n r3.Vec
		if hasNormals {
			n = g.Normals[i]
		}
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return m
}

// FromRenderMesh converts the flat layout back to a Geometry. Normals are
// kept only when they are complete.
func FromRenderMesh(m *RenderMesh) (*Geometry, error) {
	if len(m.Vertices)%3 != 0 {
		return nil, fmt.Errorf("geometry: %d vertex floats is not a multiple of 3: %w", len(m.Vertices), ErrInvalidArgument)
	}
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("geometry: %d indices is not a multiple of 3: %w", len(m.Indices), ErrInvalidArgument)
	}
	n := len(m.Vertices) / 3
	g := &Geometry{
		Vertices: make([]r3.Vec, n),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	for i := 0; i < n; i++ {
		g.Vertices[i] = r3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
	}
	if len(m.Normals) == len(m.Vertices) && n > 0 {
		g.Normals = make([]r3.Vec, n)
		for i := 0; i < n; i++ {
			g.Normals[i] = r3.Vec{X: float64(m.Normals[3*i]), Y: float64(m.Normals[3*i+1]), Z: float64(m.Normals[3*i+2])}
		}
	}
	for _, idx := range g.Indices {
		if int(idx) >= n {
			return nil, fmt.Errorf("geometry: index %d of %d vertices: %w", idx, n, ErrIndexOutOfRange)
		}
	}
	return g, nil
}
