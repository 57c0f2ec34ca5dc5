package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/parallel"
)

// NoData marks an interpolated sample no source point reached.
const NoData = -math.MaxFloat64

// ModifiedShepardWeight returns ((r - d)+ / (r d))^2 for d = |a - b|. It
// returns -1 for coincident points, which callers skip, and 0 from d >= r
// on or for a non-positive radius.
func ModifiedShepardWeight(a, b r3.Vec, radius float64) float64 {
	d := r3.Norm(r3.Sub(a, b))
	if d == 0 {
		return -1
	}
	if radius <= 0 {
		return 0
	}
	w := math.Max(radius-d, 0) / (radius * d)
	return w * w
}

// Interpolator transfers values sampled at source points onto arbitrary
// targets with modified Shepard weights. Each source point influences
// targets within its own radius.
type Interpolator struct {
	grid    *Grid
	sources []r3.Vec
	radii   []float64
}

// NewInterpolator buckets sources into a grid of the given kind. The grid
// box is the sources' bounds grown by the largest radius; nil radii use the
// grid's cell radius.
func NewInterpolator(kind Kind, sources []r3.Vec, radii []float64, cellSize float64) (*Interpolator, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("grid: interpolate from no sources: %w", geometry.ErrInvalidArgument)
	}
	box := geometry.BoundsOf(sources)
	g, err := New(kind, box, cellSize)
	if err != nil {
		return nil, err
	}
	if radii == nil {
		radii = make([]float64, len(sources))
		for i := range radii {
			radii[i] = g.Radius
		}
	}
	grow := 0.0
	for _, r := range radii {
		grow = math.Max(grow, r)
	}
	if grow > 0 {
		pad := r3.Vec{X: grow, Y: grow, Z: grow}
		box = r3.Box{Min: r3.Sub(box.Min, pad), Max: r3.Add(box.Max, pad)}
		if g, err = New(kind, box, cellSize); err != nil {
			return nil, err
		}
	}
	if err := g.PopulateCells(sources, radii); err != nil {
		return nil, err
	}
	return &Interpolator{grid: g, sources: sources, radii: radii}, nil
}

// Grid returns the populated grid.
func (it *Interpolator) Grid() *Grid { return it.grid }

// Weights returns the source ids contributing to target and their weights.
// Coincident and out-of-radius sources are left out.
func (it *Interpolator) Weights(target r3.Vec) ([]int, []float64) {
	var ids []int
	var ws []float64
	for _, s := range it.grid.Candidates(target) {
		w := ModifiedShepardWeight(target, it.sources[s], it.radii[s])
		if w <= 0 {
			continue
		}
		ids = append(ids, s)
		ws = append(ws, w)
	}
	return ids, ws
}

// Scalar interpolates one value per source onto targets. Targets no source
// reaches get NoData.
func (it *Interpolator) Scalar(values []float64, targets []r3.Vec) ([]float64, error) {
	if len(values) != len(it.sources) {
		return nil, fmt.Errorf("grid: %d values for %d sources: %w", len(values), len(it.sources), geometry.ErrInvalidArgument)
	}
	out := make([]float64, len(targets))
	parallel.For(len(targets), func(lo, hi int) {
		for t := lo; t < hi; t++ {
			ids, ws := it.Weights(targets[t])
			sum, acc := 0.0, 0.0
			for i, s := range ids {
				sum += ws[i]
				acc += ws[i] * values[s]
			}
			if sum == 0 {
				out[t] = NoData
				continue
			}
			out[t] = acc / sum
		}
	})
	return out, nil
}

// Vector interpolates one vector per source onto targets. Targets no source
// reaches get NoData in every component.
func (it *Interpolator) Vector(values []r3.Vec, targets []r3.Vec) ([]r3.Vec, error) {
	if len(values) != len(it.sources) {
		return nil, fmt.Errorf("grid: %d values for %d sources: %w", len(values), len(it.sources), geometry.ErrInvalidArgument)
	}
	out := make([]r3.Vec, len(targets))
	parallel.For(len(targets), func(lo, hi int) {
		for t := lo; t < hi; t++ {
			ids, ws := it.Weights(targets[t])
			sum := 0.0
			var acc r3.Vec
			for i, s := range ids {
				sum += ws[i]
				acc = r3.Add(acc, r3.Scale(ws[i], values[s]))
			}
			if sum == 0 {
				out[t] = r3.Vec{X: NoData, Y: NoData, Z: NoData}
				continue
			}
			out[t] = r3.Scale(1/sum, acc)
		}
	})
	return out, nil
}

// Transfer interpolates scalar values from sources onto targets in one
// call, building a throwaway Interpolator.
func Transfer(kind Kind, sources []r3.Vec, radii, values []float64, targets []r3.Vec, cellSize float64) ([]float64, error) {
	it, err := NewInterpolator(kind, sources, radii, cellSize)
	if err != nil {
		return nil, err
	}
	return it.Scalar(values, targets)
}
