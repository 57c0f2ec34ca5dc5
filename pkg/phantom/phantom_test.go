package phantom

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// --- Recording kernel ---

// fakeSolid is a bag of marker triangles moved by every transform, so tests
// can see where the kernel was asked to put each part.
type fakeSolid struct {
	tris [][3]r3.Vec
}

func (s *fakeSolid) Bounds() r3.Box {
	var pts []r3.Vec
	for _, t := range s.tris {
		pts = append(pts, t[:]...)
	}
	return geometry.BoundsOf(pts)
}

type fakeKernel struct {
	unions int
	blend  float64
}

func (k *fakeKernel) Cylinder(length, radius float64) (Solid, error) {
	return &fakeSolid{tris: [][3]r3.Vec{{{}, {X: radius}, {Z: length}}}}, nil
}

func (k *fakeKernel) Sphere(radius float64) (Solid, error) {
	return &fakeSolid{tris: [][3]r3.Vec{{{}, {X: radius}, {Y: radius}}}}, nil
}

func (k *fakeKernel) Union(blend float64, parts ...Solid) Solid {
	k.unions++
	k.blend = blend
	out := &fakeSolid{}
	for _, p := range parts {
		out.tris = append(out.tris, p.(*fakeSolid).tris...)
	}
	return out
}

func (k *fakeKernel) mapped(s Solid, f func(r3.Vec) r3.Vec) Solid {
	out := &fakeSolid{}
	for _, t := range s.(*fakeSolid).tris {
		out.tris = append(out.tris, [3]r3.Vec{f(t[0]), f(t[1]), f(t[2])})
	}
	return out
}

func (k *fakeKernel) Translate(s Solid, v r3.Vec) Solid {
	return k.mapped(s, func(p r3.Vec) r3.Vec { return r3.Add(p, v) })
}

func (k *fakeKernel) Rotate(s Solid, euler r3.Vec) Solid {
	return k.mapped(s, func(p r3.Vec) r3.Vec { return rotateEuler(p, euler) })
}

func (k *fakeKernel) Triangles(s Solid, _ int) ([][3]r3.Vec, error) {
	return s.(*fakeSolid).tris, nil
}

var _ Kernel = (*fakeKernel)(nil)

// bifurcation is a trunk along +Z splitting into two branches along +X and
// -X, with a sac on the left one.
func bifurcation() Branch {
	return Branch{
		Name: "trunk", Length: 10, Radius: 1,
		Children: []Branch{
			{Name: "left", Length: 5, Radius: 0.5, Rotate: r3.Vec{Y: 90}},
			{Name: "right", Length: 5, Radius: 0.5, Rotate: r3.Vec{Y: -90},
				Children: []Branch{{Name: "right-sac", Length: 1, Radius: 0.5, Sac: 2, Translate: r3.Vec{X: 1}}}},
		},
	}
}

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func hasVertex(g *geometry.Geometry, p r3.Vec) bool {
	for _, v := range g.Vertices {
		if near(v, p) {
			return true
		}
	}
	return false
}

// --- Frames ---

func TestRotateEuler(t *testing.T) {
	tests := []struct {
		name string
		p    r3.Vec
		deg  r3.Vec
		want r3.Vec
	}{
		{"identity", r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3}},
		{"z about y", r3.Vec{Z: 1}, r3.Vec{Y: 90}, r3.Vec{X: 1}},
		{"x about z", r3.Vec{X: 1}, r3.Vec{Z: 90}, r3.Vec{Y: 1}},
		{"y about x", r3.Vec{Y: 1}, r3.Vec{X: 90}, r3.Vec{Z: 1}},
		{"x first", r3.Vec{Y: 1}, r3.Vec{X: 90, Y: 90}, r3.Vec{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rotateEuler(tt.p, tt.deg); !near(got, tt.want) {
				t.Errorf("rotateEuler(%v, %v) = %v, want %v", tt.p, tt.deg, got, tt.want)
			}
		})
	}
}

func TestTerminals(t *testing.T) {
	got := bifurcation().Terminals()
	if len(got) != 1 {
		t.Fatalf("%d terminals, want 1 (the sac branch is closed)", len(got))
	}
	left := got[0]
	if left.Name != "left" {
		t.Errorf("terminal %q, want left", left.Name)
	}
	if !near(left.Center, r3.Vec{X: 5, Z: 10}) {
		t.Errorf("center = %v, want (5,0,10)", left.Center)
	}
	if !near(left.Axis, r3.Vec{X: 1}) {
		t.Errorf("axis = %v, want +X", left.Axis)
	}
}

// --- Tessellate ---

func TestTessellatePlacesParts(t *testing.T) {
	k := &fakeKernel{}
	g, err := Tessellate(bifurcation(), k, 0.5, 16)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if k.unions != 1 || k.blend != 0.5 {
		t.Errorf("unions=%d blend=%g, want one union with blend 0.5", k.unions, k.blend)
	}
	// 4 tubes and 1 sac.
	if g.TriangleCount() != 5 {
		t.Errorf("%d triangles, want 5", g.TriangleCount())
	}
	wants := []r3.Vec{
		{Z: 10},        // trunk end
		{X: 5, Z: 10},  // left end
		{X: -5, Z: 10}, // right end
		// right-sac starts 1 unit along the right branch's local X, which
		// points to world +Z after the -90 degree turn about Y.
		{X: -5, Z: 11},
		{X: -6, Z: 11}, // right-sac end, where the sac is centered
	}
	for _, w := range wants {
		if !hasVertex(g, w) {
			t.Errorf("no vertex at %v", w)
		}
	}
}

func TestTessellateSingleBranch(t *testing.T) {
	k := &fakeKernel{}
	g, err := Tessellate(Branch{Name: "stub", Length: 2, Radius: 1}, k, 0, 8)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if k.unions != 0 {
		t.Errorf("%d unions for a single part, want 0", k.unions)
	}
	if g.TriangleCount() != 1 {
		t.Errorf("%d triangles, want 1", g.TriangleCount())
	}
}

func TestTessellateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		root  Branch
		cells int
	}{
		{"cells", Branch{Length: 1, Radius: 1}, 1},
		{"length", Branch{Length: 0, Radius: 1}, 8},
		{"child radius", Branch{Length: 1, Radius: 1, Children: []Branch{{Length: 1, Radius: -1}}}, 8},
		{"sac", Branch{Length: 1, Radius: 1, Sac: -1}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tessellate(tt.root, &fakeKernel{}, 0, tt.cells)
			if !errors.Is(err, geometry.ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestTransformStackDirectionIgnoresTranslation(t *testing.T) {
	ts := &transformStack{}
	ts.push(r3.Vec{X: 100}, r3.Vec{Z: 90})
	if got := ts.direction(r3.Vec{X: 1}); !near(got, r3.Vec{Y: 1}) {
		t.Errorf("direction = %v, want +Y", got)
	}
	if got := ts.point(r3.Vec{X: 1}); math.Abs(got.X-100) > 1e-9 || math.Abs(got.Y-1) > 1e-9 {
		t.Errorf("point = %v, want (100,1,0)", got)
	}
}
