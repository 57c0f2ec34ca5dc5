package trimesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/parallel"
)

// Extents is a running minimum, average and maximum.
type Extents struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// Stats summarizes a closed surface.
type Stats struct {
	Volume     float64 `json:"volume"`     // signed; positive for outward winding
	EdgeLength Extents `json:"edgeLength"` // over the two edges meeting at each face's first vertex
	Angle      Extents `json:"angle"`      // interior angle at each face's first vertex, degrees
	Faces      int     `json:"faces"`
}

type partial struct {
	volume           float64
	edgeSum, angSum  float64
	edgeMin, edgeMax float64
	angMin, angMax   float64
}

func emptyPartial() partial {
	return partial{
		edgeMin: math.Inf(1), edgeMax: math.Inf(-1),
		angMin: math.Inf(1), angMax: math.Inf(-1),
	}
}

func mergePartial(a, b partial) partial {
	return partial{
		volume:  a.volume + b.volume,
		edgeSum: a.edgeSum + b.edgeSum,
		angSum:  a.angSum + b.angSum,
		edgeMin: math.Min(a.edgeMin, b.edgeMin),
		edgeMax: math.Max(a.edgeMax, b.edgeMax),
		angMin:  math.Min(a.angMin, b.angMin),
		angMax:  math.Max(a.angMax, b.angMax),
	}
}

// Stats computes the signed volume by summing the tetrahedra each face
// spans with the origin, and the edge-length and first-vertex angle
// extents. Edge and angle samples come from the corner at each face's first
// vertex, so a face contributes two edge samples and one angle sample. The
// edge average still divides by three edges per face.
// Degenerate corners contribute a zero angle. An empty mesh yields zero
// Stats.
func (m *Mesh) Stats() Stats {
	n := len(m.faces)
	if n == 0 {
		return Stats{}
	}
	p := parallel.Reduce(n, func(lo, hi int) partial {
		acc := emptyPartial()
		for i := lo; i < hi; i++ {
			f := m.faces[i]
			a, b, c := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]
			acc.volume += r3.Dot(a, r3.Cross(b, c)) / 6

			e1, e2 := r3.Sub(b, a), r3.Sub(c, a)
			l1, l2 := r3.Norm(e1), r3.Norm(e2)
			acc.edgeSum += l1 + l2
			acc.edgeMin = math.Min(acc.edgeMin, math.Min(l1, l2))
			acc.edgeMax = math.Max(acc.edgeMax, math.Max(l1, l2))

			angle := 0.0
			if l1 > 0 && l2 > 0 {
				cos := math.Max(-1, math.Min(1, r3.Dot(e1, e2)/(l1*l2)))
				angle = math.Acos(cos) * 180 / math.Pi
			}
			acc.angSum += angle
			acc.angMin = math.Min(acc.angMin, angle)
			acc.angMax = math.Max(acc.angMax, angle)
		}
		return acc
	}, mergePartial)

	return Stats{
		Volume:     p.volume,
		EdgeLength: Extents{Min: p.edgeMin, Avg: p.edgeSum / float64(3*n), Max: p.edgeMax},
		Angle:      Extents{Min: p.angMin, Avg: p.angSum / float64(n), Max: p.angMax},
		Faces:      n,
	}
}
