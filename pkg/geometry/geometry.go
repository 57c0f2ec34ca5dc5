// Package geometry defines the surface mesh buffers shared by the topology,
// clustering and inlet-detection packages. A Geometry is the single owner of
// vertex data; Views borrow it with their own index subsets.
package geometry

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/parallel"
)

// Geometry is an indexed triangle mesh. Normals and UVs are optional; when
// present their length equals the vertex count. Indices holds three vertex
// ids per triangle.
//
// The bounding box and the per-face normal/centroid caches are computed
// lazily and dropped by every mutating method. Concurrent readers are safe;
// mutation must not overlap with reads.
type Geometry struct {
	Vertices []r3.Vec     `json:"vertices"`
	Normals  []r3.Vec     `json:"normals,omitempty"`
	UVs      [][2]float64 `json:"uvs,omitempty"`
	Indices  []uint32     `json:"indices"`

	mu    sync.Mutex
	bbox  *r3.Box
	faces *faceCache
}

type faceCache struct {
	normals   []r3.Vec
	centroids []r3.Vec
}

// New returns a Geometry over the given buffers. The slices are retained,
// not copied.
func New(vertices []r3.Vec, indices []uint32) *Geometry {
	return &Geometry{Vertices: vertices, Indices: indices}
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices)
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// IsEmpty returns true if the mesh has no triangles.
func (g *Geometry) IsEmpty() bool {
	return len(g.Indices) < 3
}

// Triangle returns the vertex ids of face f.
func (g *Geometry) Triangle(f int) [3]uint32 {
	return [3]uint32{g.Indices[3*f], g.Indices[3*f+1], g.Indices[3*f+2]}
}

// Corners returns the vertex positions of face f.
func (g *Geometry) Corners(f int) [3]r3.Vec {
	t := g.Triangle(f)
	return [3]r3.Vec{g.Vertices[t[0]], g.Vertices[t[1]], g.Vertices[t[2]]}
}

// CheckVertex returns ErrIndexOutOfRange if v is not a vertex id.
func (g *Geometry) CheckVertex(v int) error {
	if v < 0 || v >= len(g.Vertices) {
		return fmt.Errorf("geometry: vertex %d of %d: %w", v, len(g.Vertices), ErrIndexOutOfRange)
	}
	return nil
}

// CheckFace returns ErrIndexOutOfRange if f is not a face id.
func (g *Geometry) CheckFace(f int) error {
	if f < 0 || f >= g.TriangleCount() {
		return fmt.Errorf("geometry: face %d of %d: %w", f, g.TriangleCount(), ErrIndexOutOfRange)
	}
	return nil
}

// BoundingBox returns the axis-aligned bounding box of all vertices. An empty
// geometry yields the zero box.
func (g *Geometry) BoundingBox() r3.Box {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bbox == nil {
		b := BoundsOf(g.Vertices)
		g.bbox = &b
	}
	return *g.bbox
}

// BoundsOf returns the bounding box of a point set.
func BoundsOf(points []r3.Vec) r3.Box {
	if len(points) == 0 {
		return r3.Box{}
	}
	b := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, p := range points {
		b.Min = r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	}
	return b
}

// BoxCenter returns the midpoint of b.
func BoxCenter(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// FaceNormal returns the unit normal of a triangle, or the zero vector for a
// degenerate triangle.
func FaceNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// Centroid returns the arithmetic mean of the given points.
func Centroid(points ...r3.Vec) r3.Vec {
	var sum r3.Vec
	if len(points) == 0 {
		return sum
	}
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum)
}

// FaceNormals returns the unit normal of every face. The slice is cached and
// must not be modified.
func (g *Geometry) FaceNormals() []r3.Vec {
	return g.faceCache().normals
}

// FaceCentroids returns the centroid of every face. The slice is cached and
// must not be modified.
func (g *Geometry) FaceCentroids() []r3.Vec {
	return g.faceCache().centroids
}

func (g *Geometry) faceCache() *faceCache {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.faces != nil {
		return g.faces
	}
	n := g.TriangleCount()
	fc := &faceCache{
		normals:   make([]r3.Vec, n),
		centroids: make([]r3.Vec, n),
	}
	parallel.For(n, func(lo, hi int) {
		for f := lo; f < hi; f++ {
			c := g.Corners(f)
			fc.normals[f] = FaceNormal(c[0], c[1], c[2])
			fc.centroids[f] = Centroid(c[0], c[1], c[2])
		}
	})
	g.faces = fc
	return fc
}

// Invalidate drops the cached bounding box and face data. Call it after
// writing to the exported buffers directly.
func (g *Geometry) Invalidate() {
	g.mu.Lock()
	g.bbox = nil
	g.faces = nil
	g.mu.Unlock()
}

// AddVertex appends a vertex and returns its id. The normal is stored only
// when the geometry carries normals; a zero UV is appended when it carries
// UVs.
func (g *Geometry) AddVertex(pos, normal r3.Vec) uint32 {
	hasNormals := len(g.Normals) == len(g.Vertices) && len(g.Vertices) > 0
	hasUVs := len(g.UVs) == len(g.Vertices) && len(g.Vertices) > 0
	id := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, pos)
	if hasNormals {
		g.Normals = append(g.Normals, normal)
	}
	if hasUVs {
		g.UVs = append(g.UVs, [2]float64{})
	}
	g.Invalidate()
	return id
}

// AddTriangles appends index triples. len(indices) must be a multiple of 3
// and every index must refer to an existing vertex.
func (g *Geometry) AddTriangles(indices ...uint32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("geometry: %d indices is not a whole number of triangles: %w", len(indices), ErrInvalidArgument)
	}
	for _, i := range indices {
		if int(i) >= len(g.Vertices) {
			return fmt.Errorf("geometry: index %d of %d vertices: %w", i, len(g.Vertices), ErrIndexOutOfRange)
		}
	}
	g.Indices = append(g.Indices, indices...)
	g.Invalidate()
	return nil
}

// Clone returns a deep copy without caches.
func (g *Geometry) Clone() *Geometry {
	c := &Geometry{
		Vertices: append([]r3.Vec(nil), g.Vertices...),
		Indices:  append([]uint32(nil), g.Indices...),
	}
	if len(g.Normals) > 0 {
		c.Normals = append([]r3.Vec(nil), g.Normals...)
	}
	if len(g.UVs) > 0 {
		c.UVs = append([][2]float64(nil), g.UVs...)
	}
	return c
}

// MeanEdgeLength returns the average length over all triangle edges, counting
// shared edges once per incident face.
func (g *Geometry) MeanEdgeLength() float64 {
	n := g.TriangleCount()
	if n == 0 {
		return 0
	}
	sum := parallel.Reduce(n, func(lo, hi int) float64 {
		s := 0.0
		for f := lo; f < hi; f++ {
			c := g.Corners(f)
			s += r3.Norm(r3.Sub(c[1], c[0])) + r3.Norm(r3.Sub(c[2], c[1])) + r3.Norm(r3.Sub(c[0], c[2]))
		}
		return s
	}, func(a, b float64) float64 { return a + b })
	return sum / float64(3*n)
}
