// Package grid is a uniform axis-aligned cell grid that buckets points by
// their influence spheres, and the Shepard interpolation built on it.
package grid

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/parallel"
)

// Kind selects the cell radius of a grid.
type Kind int

const (
	Volume  Kind = iota // cell radius sqrt(6) * cell size, for volume samples
	Compact             // cell radius sqrt(3) * cell size, for surface samples
)

func (k Kind) String() string {
	switch k {
	case Volume:
		return "volume"
	case Compact:
		return "compact"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "volume" or "compact" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "volume":
		return Volume, nil
	case "compact":
		return Compact, nil
	}
	return 0, fmt.Errorf("grid: unknown kind %q: %w", s, geometry.ErrInvalidArgument)
}

// Grid partitions a box into cubic cells of equal size. Cell (i,j,k) has
// flat id i + nx*(j + ny*k). Buckets are filled by PopulateCells and read
// concurrently afterwards.
type Grid struct {
	Kind     Kind
	Box      r3.Box
	CellSize float64
	Counts   [3]int
	Radius   float64

	cells [][]int
}

// New returns an empty grid over box. Each axis gets
// ceil(extent/cellSize) cells, at least one. The total cell count must fit a
// signed 32-bit integer.
func New(kind Kind, box r3.Box, cellSize float64) (*Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("grid: cell size %g: %w", cellSize, geometry.ErrInvalidArgument)
	}
	if kind != Volume && kind != Compact {
		return nil, fmt.Errorf("grid: %v: %w", kind, geometry.ErrInvalidArgument)
	}
	ext := r3.Sub(box.Max, box.Min)
	if ext.X < 0 || ext.Y < 0 || ext.Z < 0 {
		return nil, fmt.Errorf("grid: inverted box %v: %w", box, geometry.ErrInvalidArgument)
	}

	g := &Grid{Kind: kind, Box: box, CellSize: cellSize}
	total := 1.0
	for axis, e := range [3]float64{ext.X, ext.Y, ext.Z} {
		n := math.Max(1, math.Ceil(e/cellSize))
		total *= n
		if total > math.MaxInt32 {
			return nil, fmt.Errorf("grid: %g cells at size %g exceed int32: %w", total, cellSize, geometry.ErrInvalidArgument)
		}
		g.Counts[axis] = int(n)
	}
	g.cells = make([][]int, int(total))

	switch kind {
	case Volume:
		g.Radius = math.Sqrt(6) * cellSize
	case Compact:
		g.Radius = math.Sqrt(3) * cellSize
	}
	return g, nil
}

// CellCount returns the total number of cells.
func (g *Grid) CellCount() int {
	return g.Counts[0] * g.Counts[1] * g.Counts[2]
}

// Index1D returns the flat id of cell (i,j,k), or -1 if it is outside the
// grid.
func (g *Grid) Index1D(i, j, k int) int {
	if i < 0 || j < 0 || k < 0 || i >= g.Counts[0] || j >= g.Counts[1] || k >= g.Counts[2] {
		return -1
	}
	return i + g.Counts[0]*(j+g.Counts[1]*k)
}

// Index3D returns the cell coordinates of flat id, or -1s if id is outside
// the grid.
func (g *Grid) Index3D(id int) (i, j, k int) {
	if id < 0 || id >= g.CellCount() {
		return -1, -1, -1
	}
	nx, ny := g.Counts[0], g.Counts[1]
	return id % nx, (id / nx) % ny, id / (nx * ny)
}

// CellOf returns the coordinates of the cell containing p, or -1s if p is
// outside the box. Points on the max faces belong to the last cell.
func (g *Grid) CellOf(p r3.Vec) (i, j, k int) {
	c := [3]int{}
	for axis, v := range [3]float64{p.X - g.Box.Min.X, p.Y - g.Box.Min.Y, p.Z - g.Box.Min.Z} {
		if v < 0 || math.IsNaN(v) {
			return -1, -1, -1
		}
		n := int(math.Floor(v / g.CellSize))
		if n == g.Counts[axis] && v <= g.extent(axis) {
			n--
		}
		if n >= g.Counts[axis] {
			return -1, -1, -1
		}
		c[axis] = n
	}
	return c[0], c[1], c[2]
}

// CellID returns the flat id of the cell containing p, or -1.
func (g *Grid) CellID(p r3.Vec) int {
	i, j, k := g.CellOf(p)
	return g.Index1D(i, j, k)
}

// CellBox returns the bounds of cell id. The last cell on an axis may
// extend past the grid box.
func (g *Grid) CellBox(id int) (r3.Box, error) {
	i, j, k := g.Index3D(id)
	if i < 0 {
		return r3.Box{}, fmt.Errorf("grid: cell %d of %d: %w", id, g.CellCount(), geometry.ErrIndexOutOfRange)
	}
	origin := r3.Add(g.Box.Min, r3.Scale(g.CellSize, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}))
	return r3.Box{Min: origin, Max: r3.Add(origin, r3.Vec{X: g.CellSize, Y: g.CellSize, Z: g.CellSize})}, nil
}

// CellCenter returns the center of cell id.
func (g *Grid) CellCenter(id int) (r3.Vec, error) {
	b, err := g.CellBox(id)
	if err != nil {
		return r3.Vec{}, err
	}
	return geometry.BoxCenter(b), nil
}

// Cell returns the point ids bucketed in cell id. The slice must not be
// modified.
func (g *Grid) Cell(id int) ([]int, error) {
	if id < 0 || id >= len(g.cells) {
		return nil, fmt.Errorf("grid: cell %d of %d: %w", id, len(g.cells), geometry.ErrIndexOutOfRange)
	}
	return g.cells[id], nil
}

// Candidates returns the point ids whose influence sphere may contain p:
// the bucket of p's cell, or nil outside the grid.
func (g *Grid) Candidates(p r3.Vec) []int {
	id := g.CellID(p)
	if id < 0 {
		return nil
	}
	return g.cells[id]
}

func (g *Grid) extent(axis int) float64 {
	switch axis {
	case 0:
		return g.Box.Max.X - g.Box.Min.X
	case 1:
		return g.Box.Max.Y - g.Box.Min.Y
	default:
		return g.Box.Max.Z - g.Box.Min.Z
	}
}

type entry struct {
	cell, point int
}

// PopulateCells clears every bucket, then inserts each point id into every
// cell its sphere of radius radii[i] touches. A nil radii uses the grid's
// cell radius for all points. Buckets list ids ascending.
func (g *Grid) PopulateCells(points []r3.Vec, radii []float64) error {
	if radii != nil && len(radii) != len(points) {
		return fmt.Errorf("grid: %d radii for %d points: %w", len(radii), len(points), geometry.ErrInvalidArgument)
	}
	for i, r := range radii {
		if r < 0 || math.IsNaN(r) {
			return fmt.Errorf("grid: point %d radius %g: %w", i, r, geometry.ErrInvalidArgument)
		}
	}
	radius := func(i int) float64 {
		if radii == nil {
			return g.Radius
		}
		return radii[i]
	}

	found := parallel.Reduce(len(points), func(lo, hi int) []entry {
		var local []entry
		for i := lo; i < hi; i++ {
			local = g.overlaps(local, i, points[i], radius(i))
		}
		return local
	}, func(acc, part []entry) []entry { return append(acc, part...) })

	counts := make([]int, len(g.cells))
	for _, e := range found {
		counts[e.cell]++
	}
	for id := range g.cells {
		g.cells[id] = make([]int, 0, counts[id])
	}
	for _, e := range found {
		g.cells[e.cell] = append(g.cells[e.cell], e.point)
	}
	return nil
}

// overlaps appends an entry for every cell whose box lies within r of p.
func (g *Grid) overlaps(dst []entry, id int, p r3.Vec, r float64) []entry {
	var lo, hi [3]int
	pv := [3]float64{p.X - g.Box.Min.X, p.Y - g.Box.Min.Y, p.Z - g.Box.Min.Z}
	for axis := range pv {
		lo[axis] = int(math.Floor((pv[axis] - r) / g.CellSize))
		hi[axis] = int(math.Floor((pv[axis] + r) / g.CellSize))
		if hi[axis] < 0 || lo[axis] >= g.Counts[axis] {
			return dst
		}
		lo[axis] = max(lo[axis], 0)
		hi[axis] = min(hi[axis], g.Counts[axis]-1)
	}
	r2 := r * r
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				if g.cellDist2(i, j, k, pv) <= r2 {
					dst = append(dst, entry{cell: g.Index1D(i, j, k), point: id})
				}
			}
		}
	}
	return dst
}

// cellDist2 returns the squared distance from a box-relative point to cell
// (i,j,k).
func (g *Grid) cellDist2(i, j, k int, pv [3]float64) float64 {
	d2 := 0.0
	for axis, c := range [3]int{i, j, k} {
		lo := float64(c) * g.CellSize
		hi := lo + g.CellSize
		switch v := pv[axis]; {
		case v < lo:
			d2 += (lo - v) * (lo - v)
		case v > hi:
			d2 += (v - hi) * (v - hi)
		}
	}
	return d2
}
