// Package session holds the state a front end drives while preparing one
// vessel surface: the mesh and its topology, the active inlets, and a
// pending manual selection. Results are JSON-serializable.
package session

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/config"
	"github.com/alexsr/of-vis-sub000/pkg/engine"
	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/grid"
	"github.com/alexsr/of-vis-sub000/pkg/halfedge"
	"github.com/alexsr/of-vis-sub000/pkg/inlet"
	"github.com/alexsr/of-vis-sub000/pkg/trimesh"
)

// WallName is the part name of the render mesh holding every face no inlet
// claims.
const WallName = "wall"

// wallColor is the render color of the wall.
const wallColor = "#B0B0B0"

// ErrNoMesh is returned by operations that need a loaded mesh.
var ErrNoMesh = errors.New("session: no mesh loaded")

// InletSummary is the front-end view of one inlet, without its triangles.
type InletSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      inlet.Type      `json:"type"`
	Condition inlet.Condition `json:"condition"`
	Center    r3.Vec          `json:"center"`
	Normal    r3.Vec          `json:"normal"`
	Radius    float64         `json:"radius"`
	Triangles int             `json:"triangles"`
	Color     string          `json:"color"`
}

// Message is a JSON-serializable diagnostic.
type Message struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is returned by every operation that changes the inlets.
type Result struct {
	Inlets   []InletSummary         `json:"inlets"`
	Meshes   []*geometry.RenderMesh `json:"meshes"`
	Errors   []Message              `json:"errors"`
	Warnings []Message              `json:"warnings"`
}

// SelectionResult is the outcome of a manual pick. Selected is false when
// the pick grew no patch.
type SelectionResult struct {
	Selected  bool                 `json:"selected"`
	Seed      int                  `json:"seed"`
	Inlet     InletSummary         `json:"inlet"`
	Mesh      *geometry.RenderMesh `json:"mesh,omitempty"`
	Highlight []int                `json:"highlight"` // vertex ids
}

// Session is not safe for concurrent use.
type Session struct {
	cfg    config.Config
	logger *log.Logger
	engine *engine.Engine
	rng    *rand.Rand

	geom    *geometry.Geometry
	topo    *halfedge.Mesh
	normals []r3.Vec
	locator *geometry.VertexLocator
	inlets  *inlet.Set
	pending *inlet.Selection
}

// New returns an empty session. A nil logger logs to log.Default().
func New(cfg config.Config, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	inlets, _ := inlet.NewSet()
	return &Session{
		cfg:    cfg,
		logger: logger,
		engine: engine.NewEngine(cfg.Script.Timeout),
		rng:    rand.New(rand.NewSource(cfg.Detection.Seed)),
		inlets: inlets,
	}
}

// Load validates g and makes it the session mesh, dropping every inlet and
// any pending selection. Blocking findings are returned alongside an error
// wrapping geometry.ErrInvalidArgument.
func (s *Session) Load(g *geometry.Geometry) (geometry.ValidationResult, error) {
	vr := geometry.Validate(g)
	for _, w := range vr.Warnings {
		s.logger.Printf("mesh warning (face %d): %s", w.Face, w.Message)
	}
	if !vr.OK() {
		return vr, fmt.Errorf("session: mesh has %d blocking problems, first: %s: %w",
			len(vr.Errors), vr.Errors[0].Message, geometry.ErrInvalidArgument)
	}
	if err := s.rebuild(g); err != nil {
		return vr, err
	}
	s.inlets, _ = inlet.NewSet()
	s.pending = nil
	s.logger.Printf("loaded mesh: %d vertices, %d triangles", g.VertexCount(), g.TriangleCount())
	return vr, nil
}

// rebuild refreshes the topology and per-vertex data after g changed.
func (s *Session) rebuild(g *geometry.Geometry) error {
	topo, err := halfedge.Build(g)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	normals, degenerate := topo.CalculateNormals()
	if degenerate > 0 {
		s.logger.Printf("skipped %d degenerate corners while computing normals", degenerate)
	}
	s.geom, s.topo, s.normals = g, topo, normals
	s.locator = geometry.NewVertexLocator(g.Vertices)
	return nil
}

// Geometry returns the session mesh, or nil.
func (s *Session) Geometry() *geometry.Geometry { return s.geom }

// Inlets returns the active inlet set.
func (s *Session) Inlets() *inlet.Set { return s.inlets }

// Config returns the configuration the session was created with.
func (s *Session) Config() config.Config { return s.cfg }

// Stats measures the session mesh.
func (s *Session) Stats() (trimesh.Stats, error) {
	if s.geom == nil {
		return trimesh.Stats{}, ErrNoMesh
	}
	m, err := trimesh.FromGeometry(s.geom)
	if err != nil {
		return trimesh.Stats{}, fmt.Errorf("session: %w", err)
	}
	return m.Stats(), nil
}

// Boundaries returns the number of open boundary loops of the mesh.
func (s *Session) Boundaries() (int, error) {
	if s.topo == nil {
		return 0, ErrNoMesh
	}
	return len(s.topo.Boundaries()), nil
}

// DetectAutomatic replaces the active inlets with automatically detected
// ones. A detection failure leaves the current inlets untouched.
func (s *Session) DetectAutomatic() (Result, error) {
	if s.topo == nil {
		return Result{}, ErrNoMesh
	}
	s.pending = nil
	res, err := inlet.DetectAutomatic(s.topo, s.cfg.Detection.Options(), s.rng)
	if res.Attempts > 1 {
		s.logger.Printf("automatic detection: %d clustering attempts", res.Attempts)
	}
	if err != nil {
		s.logger.Printf("automatic detection failed: %v", err)
		return Result{}, fmt.Errorf("session: %w", err)
	}
	if res.Degenerate > 0 {
		s.logger.Printf("automatic detection: dropped %d degenerate clusters", res.Degenerate)
	}
	set, err := inlet.NewSet(res.Inlets...)
	if err != nil {
		return Result{}, fmt.Errorf("session: %w", err)
	}
	s.inlets = set
	return s.result(), nil
}

// SelectAt picks the mesh vertex nearest p and grows a manual selection
// from it. See SelectVertex.
func (s *Session) SelectAt(p r3.Vec) (SelectionResult, error) {
	if s.locator == nil || s.locator.Len() == 0 {
		return SelectionResult{}, ErrNoMesh
	}
	v, _ := s.locator.Nearest(p)
	return s.SelectVertex(v)
}

// SelectVertex grows a coplanar patch from seed and keeps it pending until
// Accept. An empty pick clears the pending selection and reports
// Selected == false without an error.
func (s *Session) SelectVertex(seed int) (SelectionResult, error) {
	if s.topo == nil {
		return SelectionResult{}, ErrNoMesh
	}
	s.pending = nil
	sel, ok, err := inlet.SelectManual(s.topo, seed, s.normals, s.cfg.Detection.Options())
	if err != nil {
		return SelectionResult{}, fmt.Errorf("session: %w", err)
	}
	out := SelectionResult{Seed: seed, Highlight: []int{}}
	if !ok {
		return out, nil
	}
	s.pending = &sel
	out.Selected = true
	out.Inlet = summarize(sel.Inlet)
	out.Mesh = s.renderInlet(sel.Inlet)
	for v, on := range sel.Highlight {
		if on {
			out.Highlight = append(out.Highlight, v)
		}
	}
	return out, nil
}

// Accept adds the pending selection to the active inlets under name, or
// under a generated name when name is empty.
func (s *Session) Accept(name string) (Result, error) {
	if s.pending == nil {
		return Result{}, fmt.Errorf("session: no pending selection: %w", geometry.ErrDetectionFailure)
	}
	in := s.pending.Inlet
	in.Name = name
	if _, err := s.inlets.Add(in); err != nil {
		return Result{}, fmt.Errorf("session: %w", err)
	}
	s.pending = nil
	return s.result(), nil
}

// Discard drops the pending selection.
func (s *Session) Discard() { s.pending = nil }

// CapHoles closes every open boundary with a fan and adds each cap as an
// inlet. The mesh grows by one vertex per hole; existing inlets keep their
// triangles.
func (s *Session) CapHoles() (Result, error) {
	if s.topo == nil {
		return Result{}, ErrNoMesh
	}
	s.pending = nil
	caps, err := inlet.CapHoles(s.topo)
	if err != nil {
		return Result{}, fmt.Errorf("session: %w", err)
	}
	if len(caps) == 0 {
		s.logger.Printf("cap holes: mesh is already closed")
		return s.result(), nil
	}
	// The fans were appended to the base buffers, so the topology is stale.
	if err := s.rebuild(s.geom); err != nil {
		return Result{}, err
	}
	for _, c := range caps {
		if _, err := s.inlets.Add(c); err != nil {
			return Result{}, fmt.Errorf("session: %w", err)
		}
	}
	s.logger.Printf("cap holes: closed %d boundaries", len(caps))
	return s.result(), nil
}

// Remove deletes the named inlet. Its faces return to the wall.
func (s *Session) Remove(name string) (Result, error) {
	if !s.inlets.Remove(name) {
		return Result{}, fmt.Errorf("session: no inlet %q: %w", name, geometry.ErrInvalidArgument)
	}
	return s.result(), nil
}

// ApplyScript evaluates boundary-condition source against the active
// inlets. Script errors come back in Result.Errors; only engine failures
// such as a timeout are returned as an error.
func (s *Session) ApplyScript(source string) (Result, error) {
	script, evalErrs, err := s.engine.Evaluate(source)
	if err != nil {
		s.logger.Printf("script evaluation failed: %v", err)
		return Result{}, fmt.Errorf("session: %w", err)
	}
	res := s.result()
	if len(evalErrs) > 0 {
		res.Errors = append(res.Errors, lo.Map(evalErrs, toMessage)...)
		return res, nil
	}
	applyErrs := script.Apply(s.inlets)
	for _, w := range script.Warnings {
		res.Warnings = append(res.Warnings, Message{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	// Renames change the summaries.
	fresh := s.result()
	res.Inlets, res.Meshes = fresh.Inlets, fresh.Meshes
	res.Errors = append(res.Errors, lo.Map(applyErrs, toMessage)...)
	return res, nil
}

// EmitScript writes the active inlets as a boundary-condition script.
func (s *Session) EmitScript() string {
	return engine.Emit(s.inlets.All())
}

// Interpolate transfers scalar samples onto the mesh vertices with modified
// Shepard weights. Vertices out of reach of every sample get grid.NoData.
// A non-positive radius uses the grid cell radius for every sample. Without
// a configured cell size the cells are as wide as the mean mesh edge.
func (s *Session) Interpolate(sources []r3.Vec, values []float64, radius float64) ([]float64, error) {
	if s.geom == nil {
		return nil, ErrNoMesh
	}
	cellSize := s.cfg.Grid.CellSize
	if cellSize == 0 {
		cellSize = s.geom.MeanEdgeLength()
	}
	var radii []float64
	if radius > 0 {
		radii = lo.Times(len(sources), func(int) float64 { return radius })
	}
	out, err := grid.Transfer(s.cfg.Grid.GridKind(), sources, radii, values, s.geom.Vertices, cellSize)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	missed := lo.CountBy(out, func(v float64) bool { return v == grid.NoData })
	if missed > 0 {
		s.logger.Printf("interpolate: %d of %d vertices out of reach", missed, len(out))
	}
	return out, nil
}

// Snapshot returns the current inlets and render meshes.
func (s *Session) Snapshot() Result { return s.result() }

func (s *Session) result() Result {
	res := Result{
		Inlets:   []InletSummary{},
		Meshes:   []*geometry.RenderMesh{},
		Errors:   []Message{},
		Warnings: []Message{},
	}
	if s.geom == nil {
		return res
	}
	for _, in := range s.inlets.All() {
		res.Inlets = append(res.Inlets, summarize(in))
		res.Meshes = append(res.Meshes, s.renderInlet(in))
	}
	if wall := s.inlets.WallIndices(s.geom); len(wall) > 0 {
		m := geometry.Flatten(geometry.NewView(s.geom, wall).Compact(), WallName)
		m.Color = wallColor
		res.Meshes = append(res.Meshes, m)
	}
	return res
}

func (s *Session) renderInlet(in inlet.Inlet) *geometry.RenderMesh {
	m := geometry.Flatten(in.View(s.geom).Compact(), in.Name)
	m.Color = in.Color
	return m
}

func summarize(in inlet.Inlet) InletSummary {
	return InletSummary{
		ID:        in.ID.String(),
		Name:      in.Name,
		Type:      in.Type,
		Condition: in.Condition,
		Center:    in.Plane.Center,
		Normal:    in.Plane.Normal,
		Radius:    in.Radius,
		Triangles: in.TriangleCount(),
		Color:     in.Color,
	}
}

func toMessage(e engine.EvalError, _ int) Message {
	return Message{Line: e.Line, Col: e.Col, Message: e.Message}
}
