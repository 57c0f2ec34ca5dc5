package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/parallel"
)

// Cluster is one partition of a k-means result. Points is a contiguous
// sub-slice of the reordered input.
type Cluster[T any] struct {
	Center T
	Points []T
}

// Empty reports whether no point was assigned to c.
func (c *Cluster[T]) Empty() bool { return len(c.Points) == 0 }

// Assignment maps a point id to a cluster id.
type Assignment struct {
	Point   int
	Cluster int
}

// Seeds picks k initial centers with k-means++: the first uniformly, each
// further one with probability proportional to its squared distance to the
// nearest center chosen so far. Points coinciding with a chosen center have
// zero weight. Every seed is an element of points.
func Seeds[T any](s Space[T], points []T, k int, rng *rand.Rand) ([]T, error) {
	if k < 1 || len(points) < k {
		return nil, fmt.Errorf("cluster: %d seeds from %d points: %w", k, len(points), geometry.ErrInvalidArgument)
	}
	n := len(points)
	chosen := make([]bool, n)
	first := rng.Intn(n)
	chosen[first] = true
	seeds := []T{points[first]}

	d2 := make([]float64, n)
	for i := range d2 {
		d2[i] = math.Inf(1)
	}
	cum := make([]float64, n)
	for len(seeds) < k {
		last := seeds[len(seeds)-1]
		parallel.For(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				d := s.Distance(points[i], last)
				d2[i] = math.Min(d2[i], d*d)
			}
		})
		floats.CumSum(cum, d2)
		total := cum[n-1]

		next := -1
		if total > 0 {
			r := rng.Float64() * total
			next = sort.Search(n, func(i int) bool { return cum[i] > r })
		}
		if next < 0 || next >= n || chosen[next] {
			// every remaining point coincides with a seed
			for i := range chosen {
				if !chosen[i] {
					next = i
					break
				}
			}
		}
		chosen[next] = true
		seeds = append(seeds, points[next])
	}
	return seeds, nil
}

// Assign maps every point to its nearest center; ties go to the lowest
// cluster id.
func Assign[T any](s Space[T], points, centers []T) []Assignment {
	out := make([]Assignment, len(points))
	parallel.For(len(points), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			best, bestD := 0, math.Inf(1)
			for c, center := range centers {
				if d := s.Distance(points[i], center); d < bestD {
					best, bestD = c, d
				}
			}
			out[i] = Assignment{Point: i, Cluster: best}
		}
	})
	return out
}

// KMeans runs Lloyd's algorithm for exactly maxIterations rounds from the
// given centers, then partitions the points by their final assignment.
// After each round a center moves to the member point nearest its members'
// mean; a center that lost all members stays put. With fewer than two
// centers the result is a single cluster centered on the mean of all points.
//
// The result has one cluster per center, in center order, and may contain
// empty clusters.
func KMeans[T any](s Space[T], points, centers []T, maxIterations int) ([]Cluster[T], error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("cluster: k-means over no points: %w", geometry.ErrInvalidArgument)
	}
	if maxIterations < 0 {
		return nil, fmt.Errorf("cluster: %d iterations: %w", maxIterations, geometry.ErrInvalidArgument)
	}
	if len(centers) < 2 {
		all := append([]T(nil), points...)
		return []Cluster[T]{{Center: s.Mean(all), Points: all}}, nil
	}

	k := len(centers)
	centers = append([]T(nil), centers...)
	members := make([][]T, k)
	for iter := 0; iter < maxIterations; iter++ {
		for c := range members {
			members[c] = members[c][:0]
		}
		for _, a := range Assign(s, points, centers) {
			members[a.Cluster] = append(members[a.Cluster], points[a.Point])
		}
		parallel.For(k, func(lo, hi int) {
			for c := lo; c < hi; c++ {
				if len(members[c]) > 0 {
					centers[c] = nearest(s, members[c], s.Mean(members[c]))
				}
			}
		})
	}

	assignments := Assign(s, points, centers)
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].Cluster < assignments[j].Cluster
	})
	ordered := make([]T, len(points))
	sizes := make([]int, k)
	for i, a := range assignments {
		ordered[i] = points[a.Point]
		sizes[a.Cluster]++
	}
	clusters := make([]Cluster[T], k)
	start := 0
	for c := range clusters {
		clusters[c] = Cluster[T]{
			Center: centers[c],
			Points: ordered[start : start+sizes[c] : start+sizes[c]],
		}
		start += sizes[c]
	}
	return clusters, nil
}

// nearest returns the element of points closest to target; the first wins a
// tie.
func nearest[T any](s Space[T], points []T, target T) T {
	best, bestD := points[0], math.Inf(1)
	for _, p := range points {
		if d := s.Distance(p, target); d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

// Spread returns the root mean square distance of the points to the
// center, zero for an empty cluster.
func (c *Cluster[T]) Spread(s Space[T]) float64 {
	if len(c.Points) == 0 {
		return 0
	}
	d := c.distances(s)
	return floats.Norm(d, 2) / math.Sqrt(float64(len(d)))
}

// RemoveOutliers drops every point farther from the center than the
// cluster's Spread, once, and returns how many were dropped. Survivors keep
// their order.
func (c *Cluster[T]) RemoveOutliers(s Space[T]) int {
	if len(c.Points) == 0 {
		return 0
	}
	d := c.distances(s)
	limit := floats.Norm(d, 2) / math.Sqrt(float64(len(d)))
	kept := make([]T, 0, len(c.Points))
	for i, p := range c.Points {
		if d[i] <= limit {
			kept = append(kept, p)
		}
	}
	removed := len(c.Points) - len(kept)
	c.Points = kept
	return removed
}

func (c *Cluster[T]) distances(s Space[T]) []float64 {
	d := make([]float64, len(c.Points))
	for i, p := range c.Points {
		d[i] = s.Distance(p, c.Center)
	}
	return d
}
