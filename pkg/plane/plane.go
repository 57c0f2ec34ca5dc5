// Package plane fits and classifies against truncation planes: the flat cuts
// where a vessel branch was clipped.
package plane

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// Plane is a point with a right-handed orthonormal frame:
// Bitangent == Normal x Tangent.
type Plane struct {
	Center    r3.Vec `json:"center"`
	Normal    r3.Vec `json:"normal"`
	Tangent   r3.Vec `json:"tangent"`
	Bitangent r3.Vec `json:"bitangent"`
}

// Fit returns the least-squares plane through points. The center is the
// centroid, the normal is the direction of least variance and the tangent
// the direction of most. The normal's sign is arbitrary; use OrientTo.
// Fewer than three points, or points on a line, give ErrDegenerateInput.
func Fit(points []r3.Vec) (Plane, error) {
	if len(points) < 3 {
		return Plane{}, fmt.Errorf("plane: fit through %d points: %w", len(points), geometry.ErrDegenerateInput)
	}
	c := geometry.Centroid(points...)

	cov := mat.NewSymDense(3, nil)
	for _, p := range points {
		d := r3.Sub(p, c)
		v := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov.SetSym(i, j, cov.At(i, j)+v[i]*v[j])
			}
		}
	}
	cov.ScaleSym(1/float64(len(points)), cov)

	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return Plane{}, fmt.Errorf("plane: eigen decomposition failed: %w", geometry.ErrDegenerateInput)
	}
	vals := es.Values(nil) // ascending
	if vals[2] <= 0 || vals[1] <= 1e-12*vals[2] {
		return Plane{}, fmt.Errorf("plane: %d points are collinear: %w", len(points), geometry.ErrDegenerateInput)
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	col := func(j int) r3.Vec {
		return r3.Unit(r3.Vec{X: vecs.At(0, j), Y: vecs.At(1, j), Z: vecs.At(2, j)})
	}
	n, t := col(0), col(2)
	return Plane{Center: c, Normal: n, Tangent: t, Bitangent: r3.Unit(r3.Cross(n, t))}, nil
}

// FromPointNormal returns the plane through center with the given normal
// and an arbitrary tangent frame.
func FromPointNormal(center, normal r3.Vec) (Plane, error) {
	l := r3.Norm(normal)
	if l == 0 || math.IsNaN(l) {
		return Plane{}, fmt.Errorf("plane: zero normal: %w", geometry.ErrDegenerateInput)
	}
	n := r3.Scale(1/l, normal)
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	t := r3.Unit(r3.Cross(ref, n))
	return Plane{Center: center, Normal: n, Tangent: t, Bitangent: r3.Cross(n, t)}, nil
}

// SignedDistance returns the distance of q above the plane along Normal.
func (p Plane) SignedDistance(q r3.Vec) float64 {
	return r3.Dot(r3.Sub(q, p.Center), p.Normal)
}

// Project returns the foot of q on the plane.
func (p Plane) Project(q r3.Vec) r3.Vec {
	return r3.Sub(q, r3.Scale(p.SignedDistance(q), p.Normal))
}

// Flip reverses the normal and keeps the frame right-handed.
func (p Plane) Flip() Plane {
	p.Normal = r3.Scale(-1, p.Normal)
	p.Bitangent = r3.Scale(-1, p.Bitangent)
	return p
}

// OrientTo flips p if its normal points away from dir.
func (p Plane) OrientTo(dir r3.Vec) Plane {
	if r3.Dot(p.Normal, dir) < 0 {
		return p.Flip()
	}
	return p
}

// Radius returns the largest distance from the center to any of points.
func (p Plane) Radius(points []r3.Vec) float64 {
	r := 0.0
	for _, q := range points {
		r = math.Max(r, r3.Norm(r3.Sub(q, p.Center)))
	}
	return r
}

// Tolerance bounds membership of a face in a plane.
type Tolerance struct {
	NormalDot float64 // minimum dot of face normal and plane normal
	Distance  float64 // maximum |signed distance| of the face point
	Reach     float64 // maximum distance from the center; <= 0 disables
}

// Accepts reports whether a face with unit normal n at point q belongs to
// the plane under tol.
func (p Plane) Accepts(n, q r3.Vec, tol Tolerance) bool {
	if r3.Dot(n, p.Normal) < tol.NormalDot {
		return false
	}
	if math.Abs(p.SignedDistance(q)) > tol.Distance {
		return false
	}
	return tol.Reach <= 0 || r3.Norm(r3.Sub(q, p.Center)) <= tol.Reach
}
