package trimesh

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

func cube(t *testing.T) *Mesh {
	t.Helper()
	m, err := FromGeometry(geometry.Cube())
	if err != nil {
		t.Fatalf("FromGeometry: %v", err)
	}
	return m
}

// --- Face identity ---

func TestFaceEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Face
		want bool
	}{
		{"same", Face{1, 2, 3}, Face{1, 2, 3}, true},
		{"rotated", Face{1, 2, 3}, Face{2, 3, 1}, true},
		{"rotated twice", Face{1, 2, 3}, Face{3, 1, 2}, true},
		{"reversed", Face{1, 2, 3}, Face{3, 2, 1}, true},
		{"different", Face{1, 2, 3}, Face{1, 2, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// --- Add / remove ---

func TestAddRemove(t *testing.T) {
	m := New([]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}})

	added, err := m.AddFaces(Face{0, 1, 2}, Face{0, 1, 3}, Face{2, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 || m.Len() != 2 {
		t.Fatalf("AddFaces added %d, Len() = %d, want 2 and 2", added, m.Len())
	}
	if n := m.Normal(0); n != (r3.Vec{Z: 1}) {
		t.Errorf("Normal(0) = %v, want +z", n)
	}

	if !m.RemoveFace(Face{1, 0, 2}) {
		t.Error("RemoveFace(reversed) = false")
	}
	if m.Len() != 1 || m.Contains(Face{0, 1, 2}) {
		t.Errorf("face still present after removal, Len() = %d", m.Len())
	}
	// the moved face keeps its cached attributes
	if c := m.Centroid(0); math.Abs(c.Z-1.0/3) > 1e-12 {
		t.Errorf("Centroid(0) = %v, want that of face {0,1,3}", c)
	}
	if m.RemoveFace(Face{0, 1, 2}) {
		t.Error("second RemoveFace = true")
	}
	if got := m.RemoveFaces(Face{3, 0, 1}, Face{0, 2, 3}); got != 1 {
		t.Errorf("RemoveFaces() = %d, want 1", got)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestAddFaceOutOfRange(t *testing.T) {
	m := New([]r3.Vec{{}, {X: 1}, {Y: 1}})
	if _, err := m.AddFace(Face{0, 1, 3}); !errors.Is(err, geometry.ErrIndexOutOfRange) {
		t.Errorf("AddFace() = %v, want ErrIndexOutOfRange", err)
	}
}

// --- Stats ---

func TestCubeStats(t *testing.T) {
	s := cube(t).Stats()
	if math.Abs(s.Volume-1) > 1e-5 {
		t.Errorf("Volume = %g, want 1", s.Volume)
	}
	if s.EdgeLength.Min != 1 || s.EdgeLength.Max != 1 {
		t.Errorf("EdgeLength = %+v, want min and max 1", s.EdgeLength)
	}
	// Two unit samples per face, averaged over three edges per face.
	if math.Abs(s.EdgeLength.Avg-2.0/3) > 1e-12 {
		t.Errorf("EdgeLength.Avg = %g, want 2/3", s.EdgeLength.Avg)
	}
	if math.Abs(s.Angle.Min-90) > 1e-9 || math.Abs(s.Angle.Max-90) > 1e-9 {
		t.Errorf("Angle = %+v, want 90 degrees", s.Angle)
	}
	if s.Faces != 12 {
		t.Errorf("Faces = %d, want 12", s.Faces)
	}
}

func TestStatsInvertedCube(t *testing.T) {
	g := geometry.Cube()
	for f := 0; f < g.TriangleCount(); f++ {
		g.Indices[3*f+1], g.Indices[3*f+2] = g.Indices[3*f+2], g.Indices[3*f+1]
	}
	m, err := FromGeometry(g)
	if err != nil {
		t.Fatal(err)
	}
	if s := m.Stats(); math.Abs(s.Volume+1) > 1e-5 {
		t.Errorf("Volume = %g, want -1", s.Volume)
	}
}

func TestStatsSphereVolume(t *testing.T) {
	g, err := geometry.UVSphere(r3.Vec{X: 3, Y: -2}, 2, 64, 128)
	if err != nil {
		t.Fatal(err)
	}
	m, err := FromGeometry(g)
	if err != nil {
		t.Fatal(err)
	}
	want := 4.0 / 3 * math.Pi * 8
	if got := m.Stats().Volume; math.Abs(got-want)/want > 0.01 {
		t.Errorf("Volume = %g, want about %g", got, want)
	}
}

func TestStatsEmpty(t *testing.T) {
	if s := New(nil).Stats(); s != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero", s)
	}
}

// --- Conversion ---

func TestToGeometryUnshared(t *testing.T) {
	m := cube(t)
	g := m.ToGeometry()
	if g.VertexCount() != 36 || g.TriangleCount() != 12 {
		t.Fatalf("ToGeometry() vertices=%d triangles=%d", g.VertexCount(), g.TriangleCount())
	}
	for i, idx := range g.Indices {
		if int(idx) != i {
			t.Fatalf("index %d = %d, want sequential", i, idx)
		}
	}
	for f := 0; f < 12; f++ {
		if g.Normals[3*f] != m.Normal(f) {
			t.Errorf("face %d normal %v, want %v", f, g.Normals[3*f], m.Normal(f))
		}
	}
}
