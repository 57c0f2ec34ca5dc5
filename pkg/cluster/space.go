// Package cluster implements k-means++ seeding, Lloyd iteration with
// centers snapped to data points, and single-pass outlier rejection over
// any point type that provides a distance and a mean.
package cluster

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Space defines the metric a clustering runs in.
type Space[T any] interface {
	// Distance returns the distance between a and b.
	Distance(a, b T) float64
	// Mean returns the arithmetic mean of a non-empty point set.
	Mean(points []T) T
}

// Euclidean clusters 3D positions.
type Euclidean struct{}

func (Euclidean) Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

func (Euclidean) Mean(points []r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(points)), sum)
}

// Scalar clusters plain values by absolute difference.
type Scalar struct{}

func (Scalar) Distance(a, b float64) float64 {
	return math.Abs(a - b)
}

func (Scalar) Mean(points []float64) float64 {
	return stat.Mean(points, nil)
}
