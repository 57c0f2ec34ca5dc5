package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/config"
	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/inlet"
)

func newSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(config.Default(), log.New(&buf, "", 0)), &buf
}

func load(t *testing.T, s *Session, g *geometry.Geometry) {
	t.Helper()
	if _, err := s.Load(g); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func tube(t *testing.T) *geometry.Geometry {
	t.Helper()
	g, err := geometry.FlaredTube(r3.Vec{}, r3.Vec{Z: 1}, 3, 1, 1.5, 12)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// threeVessels is three closed flared stubs along the coordinate axes.
func threeVessels(t *testing.T) *geometry.Geometry {
	t.Helper()
	var parts []*geometry.Geometry
	for _, d := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		g, err := geometry.FlaredTube(r3.Scale(10, d), d, 3, 1, 1.5, 12)
		if err != nil {
			t.Fatal(err)
		}
		parts = append(parts, g)
	}
	return geometry.Merge(parts...)
}

func triangles(meshes []*geometry.RenderMesh) int {
	n := 0
	for _, m := range meshes {
		n += m.TriangleCount()
	}
	return n
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestNoMesh(t *testing.T) {
	s, _ := newSession(t)
	if _, err := s.Stats(); !errors.Is(err, ErrNoMesh) {
		t.Errorf("Stats error = %v", err)
	}
	if _, err := s.DetectAutomatic(); !errors.Is(err, ErrNoMesh) {
		t.Errorf("DetectAutomatic error = %v", err)
	}
	if _, err := s.SelectAt(r3.Vec{}); !errors.Is(err, ErrNoMesh) {
		t.Errorf("SelectAt error = %v", err)
	}
	if _, err := s.CapHoles(); !errors.Is(err, ErrNoMesh) {
		t.Errorf("CapHoles error = %v", err)
	}
	if _, err := s.Interpolate([]r3.Vec{{}}, []float64{1}, 0); !errors.Is(err, ErrNoMesh) {
		t.Errorf("Interpolate error = %v", err)
	}
}

func TestLoadRejectsBrokenMesh(t *testing.T) {
	s, _ := newSession(t)
	g := geometry.New([]r3.Vec{{}, {X: 1}}, []uint32{0, 1, 2})
	vr, err := s.Load(g)
	if !errors.Is(err, geometry.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
	if vr.OK() {
		t.Error("validation passed an out-of-range index")
	}
	if s.Geometry() != nil {
		t.Error("broken mesh was kept")
	}
}

func TestLoadResetsInlets(t *testing.T) {
	s, _ := newSession(t)
	load(t, s, tube(t))
	if _, err := s.SelectVertex(2*12 + 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(""); err != nil {
		t.Fatal(err)
	}
	load(t, s, geometry.Cube())
	if s.Inlets().Len() != 0 {
		t.Errorf("%d inlets survived a reload", s.Inlets().Len())
	}
}

func TestStats(t *testing.T) {
	s, _ := newSession(t)
	load(t, s, geometry.Cube())
	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Faces != 12 || math.Abs(st.Volume-1) > 1e-9 {
		t.Errorf("stats = %+v, want 12 faces and unit volume", st)
	}
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

func TestDetectAutomatic(t *testing.T) {
	s, logs := newSession(t)
	g := threeVessels(t)
	load(t, s, g)

	res, err := s.DetectAutomatic()
	if err != nil {
		t.Fatalf("DetectAutomatic: %v", err)
	}
	t.Logf("log:\n%s", logs.String())
	if len(res.Inlets) != 3 {
		t.Fatalf("%d inlets, want 3", len(res.Inlets))
	}
	// One mesh per inlet plus the wall.
	if len(res.Meshes) != 4 || res.Meshes[3].PartName != WallName {
		t.Fatalf("meshes = %d, last %q", len(res.Meshes), res.Meshes[len(res.Meshes)-1].PartName)
	}
	if got := triangles(res.Meshes); got != g.TriangleCount() {
		t.Errorf("render meshes hold %d triangles, mesh has %d", got, g.TriangleCount())
	}
	for i, in := range res.Inlets {
		if in.Color != inlet.Palette[i] {
			t.Errorf("inlet %d color %s, want %s", i, in.Color, inlet.Palette[i])
		}
		if res.Meshes[i].Color != in.Color || res.Meshes[i].PartName != in.Name {
			t.Errorf("mesh %d = %q %s, want %q %s", i, res.Meshes[i].PartName, res.Meshes[i].Color, in.Name, in.Color)
		}
	}
}

func TestDetectAutomaticFailureKeepsInlets(t *testing.T) {
	s, _ := newSession(t)
	g, err := geometry.UVSphere(r3.Vec{}, 1, 10, 16)
	if err != nil {
		t.Fatal(err)
	}
	load(t, s, g)
	if _, err := s.DetectAutomatic(); !errors.Is(err, geometry.ErrDetectionFailure) {
		t.Fatalf("error = %v, want ErrDetectionFailure", err)
	}
	if s.Inlets().Len() != 0 {
		t.Errorf("%d inlets after a failed detection", s.Inlets().Len())
	}
}

func TestSelectAndAccept(t *testing.T) {
	s, _ := newSession(t)
	g := tube(t)
	load(t, s, g)
	capCenter := 2*12 + 1

	sel, err := s.SelectAt(r3.Add(g.Vertices[capCenter], r3.Vec{Z: 0.01}))
	if err != nil {
		t.Fatalf("SelectAt: %v", err)
	}
	if !sel.Selected || sel.Seed != capCenter {
		t.Fatalf("selection = %+v, want a patch seeded at %d", sel, capCenter)
	}
	if len(sel.Highlight) != 13 || sel.Inlet.Triangles != 12 {
		t.Errorf("highlight %d vertices, %d triangles; want 13 and 12", len(sel.Highlight), sel.Inlet.Triangles)
	}
	if sel.Mesh == nil || sel.Mesh.TriangleCount() != 12 {
		t.Error("selection has no render mesh")
	}

	res, err := s.Accept("aorta")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if len(res.Inlets) != 1 || res.Inlets[0].Name != "aorta" {
		t.Fatalf("inlets = %+v", res.Inlets)
	}
	if _, err := s.Accept("again"); !errors.Is(err, geometry.ErrDetectionFailure) {
		t.Errorf("second Accept error = %v", err)
	}
}

func TestSelectNothing(t *testing.T) {
	s, _ := newSession(t)
	load(t, s, geometry.Cube())
	sel, err := s.SelectVertex(0)
	if err != nil {
		t.Fatalf("SelectVertex: %v", err)
	}
	if sel.Selected {
		t.Errorf("cube corner selected %d triangles", sel.Inlet.Triangles)
	}
	if sel.Highlight == nil {
		t.Error("highlight should be an empty slice, not nil")
	}
	if _, err := s.Accept(""); err == nil {
		t.Error("Accept after an empty pick succeeded")
	}
	if _, err := s.SelectVertex(99); !errors.Is(err, geometry.ErrIndexOutOfRange) {
		t.Errorf("SelectVertex(99) error = %v", err)
	}
}

func TestCapHoles(t *testing.T) {
	s, _ := newSession(t)
	g, err := geometry.Hemisphere(r3.Vec{}, 1, 6, 18)
	if err != nil {
		t.Fatal(err)
	}
	load(t, s, g)
	if n, _ := s.Boundaries(); n != 1 {
		t.Fatalf("%d boundaries before capping, want 1", n)
	}
	res, err := s.CapHoles()
	if err != nil {
		t.Fatalf("CapHoles: %v", err)
	}
	if len(res.Inlets) != 1 || res.Inlets[0].Triangles != 18 {
		t.Fatalf("inlets = %+v", res.Inlets)
	}
	if n, _ := s.Boundaries(); n != 0 {
		t.Errorf("%d boundaries after capping", n)
	}
	res, err = s.CapHoles()
	if err != nil || len(res.Inlets) != 1 {
		t.Errorf("capping a closed mesh: %d inlets, err %v", len(res.Inlets), err)
	}
}

// ---------------------------------------------------------------------------
// Scripts
// ---------------------------------------------------------------------------

func TestApplyScript(t *testing.T) {
	s, _ := newSession(t)
	g, _ := geometry.Hemisphere(r3.Vec{}, 1, 6, 18)
	load(t, s, g)
	if _, err := s.CapHoles(); err != nil {
		t.Fatal(err)
	}

	res, err := s.ApplyScript(`(patch "inlet_0" :type :outlet :condition :pressure :value 80 :rename "out")`)
	if err != nil {
		t.Fatalf("ApplyScript: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors: %+v", res.Errors)
	}
	if res.Inlets[0].Name != "out" || res.Inlets[0].Type != inlet.TypeOutlet {
		t.Errorf("inlet = %+v", res.Inlets[0])
	}
	if res.Meshes[0].PartName != "out" {
		t.Errorf("mesh part name %q, want out", res.Meshes[0].PartName)
	}
	if !strings.Contains(s.EmitScript(), `(patch "out" :type :outlet :condition :pressure :value 80.0)`) {
		t.Errorf("emitted script:\n%s", s.EmitScript())
	}
}

func TestApplyScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"syntax", `(patch "inlet_0"`},
		{"unknown inlet", `(patch "nope" :type :wall)`},
		{"bad option", `(patch "inlet_0" :colour "red")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t)
			res, err := s.ApplyScript(tt.source)
			if err != nil {
				t.Fatalf("ApplyScript: %v", err)
			}
			if len(res.Errors) == 0 {
				t.Error("expected script errors")
			}
			t.Logf("errors: %+v", res.Errors)
		})
	}
}

// ---------------------------------------------------------------------------
// Interpolation and JSON
// ---------------------------------------------------------------------------

func TestInterpolate(t *testing.T) {
	s, _ := newSession(t)
	g := geometry.Cube()
	load(t, s, g)

	sources := make([]r3.Vec, len(g.Vertices))
	values := make([]float64, len(g.Vertices))
	for i, v := range g.Vertices {
		sources[i] = r3.Add(v, r3.Vec{X: 0.01})
		values[i] = float64(i)
	}
	got, err := s.Interpolate(sources, values, 0.5)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	for i, v := range got {
		if math.Abs(v-float64(i)) > 1e-9 {
			t.Errorf("vertex %d = %g, want %d", i, v, i)
		}
	}
}

func TestSnapshotJSON(t *testing.T) {
	s, _ := newSession(t)
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"inlets":[],"meshes":[],"errors":[],"warnings":[]}`
	if string(data) != want {
		t.Errorf("empty snapshot = %s, want %s", data, want)
	}

	load(t, s, tube(t))
	if _, err := s.SelectVertex(2*12 + 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Accept(""); err != nil {
		t.Fatal(err)
	}
	data, err = json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"name":"inlet_0"`, `"type":"inlet"`, `"partName":"wall"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("snapshot lacks %s", key)
		}
	}
}
