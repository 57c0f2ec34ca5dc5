package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// VertexLocator answers nearest-vertex queries over a fixed point set. It is
// how a picked 3D position becomes a seed vertex id.
type VertexLocator struct {
	tree *kdtree.Tree
	n    int
}

// NewVertexLocator indexes points. The slice is copied.
func NewVertexLocator(points []r3.Vec) *VertexLocator {
	set := make(locatorSet, len(points))
	for i, p := range points {
		set[i] = locatorPoint{P: p, ID: i}
	}
	loc := &VertexLocator{n: len(points)}
	if len(points) > 0 {
		loc.tree = kdtree.New(set, false)
	}
	return loc
}

// Len returns the number of indexed points.
func (l *VertexLocator) Len() int { return l.n }

// Nearest returns the id of the point closest to p and its distance. It
// returns -1 and +Inf when the locator is empty.
func (l *VertexLocator) Nearest(p r3.Vec) (int, float64) {
	if l.tree == nil {
		return -1, math.Inf(1)
	}
	c, d2 := l.tree.Nearest(&locatorPoint{P: p})
	if c == nil {
		return -1, math.Inf(1)
	}
	return c.(*locatorPoint).ID, math.Sqrt(d2)
}

// Within returns the ids of every point no farther than r from p, in no
// particular order.
func (l *VertexLocator) Within(p r3.Vec, r float64) []int {
	if l.tree == nil || r < 0 {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	l.tree.NearestSet(keep, &locatorPoint{P: p})
	ids := make([]int, 0, keep.Len())
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		ids = append(ids, cd.Comparable.(*locatorPoint).ID)
	}
	return ids
}

type locatorPoint struct {
	P  r3.Vec
	ID int
}

// Compare implements kdtree.Comparable.
func (p *locatorPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*locatorPoint)
	switch d {
	case 0:
		return p.P.X - q.P.X
	case 1:
		return p.P.Y - q.P.Y
	default:
		return p.P.Z - q.P.Z
	}
}

// Dims implements kdtree.Comparable.
func (p *locatorPoint) Dims() int { return 3 }

// Distance returns the squared euclidean distance, as kdtree expects.
func (p *locatorPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.P, c.(*locatorPoint).P))
}

type locatorSet []locatorPoint

func (s locatorSet) Index(i int) kdtree.Comparable { return &s[i] }
func (s locatorSet) Len() int                      { return len(s) }
func (s locatorSet) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

func (s locatorSet) Pivot(d kdtree.Dim) int {
	p := locatorPlane{dim: d, points: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

type locatorPlane struct {
	dim    kdtree.Dim
	points locatorSet
}

func (p locatorPlane) Less(i, j int) bool {
	return p.points[i].Compare(&p.points[j], p.dim) < 0
}
func (p locatorPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p locatorPlane) Len() int {
	return len(p.points)
}
func (p locatorPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
