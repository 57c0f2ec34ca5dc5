package inlet

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/cluster"
	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/halfedge"
	"github.com/alexsr/of-vis-sub000/pkg/parallel"
	"github.com/alexsr/of-vis-sub000/pkg/plane"
)

// AutoResult is the outcome of automatic detection.
type AutoResult struct {
	Inlets     []Inlet
	Attempts   int // clustering attempts, including the successful one
	Degenerate int // clusters dropped because no plane or patch could be fitted
}

// DetectAutomatic finds truncation patches from the mesh's crease vertices.
// The creases are split into opts.PlaneCount clusters with k-means++; an
// attempt that leaves any cluster empty is discarded and re-seeded, at most
// opts.MaxRetries times. Each cluster, after outlier removal, seeds a plane
// facing away from the mesh center. Every face not yet claimed whose normal
// agrees with that plane, whose centroid lies within DistanceBand standard
// deviations of it and within SpreadFactor standard deviations of its center
// joins the patch. The plane is then refit through the patch vertices and
// turned to agree with the seed plane.
//
// ErrDetectionFailure is returned when there are too few creases, when every
// attempt left a cluster empty, or when no patch survived.
func DetectAutomatic(topo *halfedge.Mesh, opts Options, rng *rand.Rand) (AutoResult, error) {
	if err := opts.Validate(); err != nil {
		return AutoResult{}, err
	}
	creases := topo.HardEdgeCandidates()
	if len(creases) < opts.PlaneCount {
		return AutoResult{}, fmt.Errorf("inlet: %d crease vertices for %d planes: %w", len(creases), opts.PlaneCount, geometry.ErrDetectionFailure)
	}

	var result AutoResult
	var clusters []cluster.Cluster[r3.Vec]
	for result.Attempts <= opts.MaxRetries {
		result.Attempts++
		seeds, err := cluster.Seeds[r3.Vec](cluster.Euclidean{}, creases, opts.PlaneCount, rng)
		if err != nil {
			return result, err
		}
		clusters, err = cluster.KMeans[r3.Vec](cluster.Euclidean{}, creases, seeds, opts.MaxIterations)
		if err != nil {
			return result, err
		}
		if !lo.SomeBy(clusters, func(c cluster.Cluster[r3.Vec]) bool { return c.Empty() }) {
			break
		}
		clusters = nil
	}
	if clusters == nil {
		return result, fmt.Errorf("inlet: empty cluster after %d attempts: %w", result.Attempts, geometry.ErrDetectionFailure)
	}

	g := topo.Geometry()
	meshCenter := geometry.BoxCenter(g.BoundingBox())
	taken := make([]bool, g.TriangleCount())
	for i := range clusters {
		in, err := growPatch(g, &clusters[i], meshCenter, taken, opts)
		if errors.Is(err, geometry.ErrDegenerateInput) {
			result.Degenerate++
			continue
		}
		if err != nil {
			return result, err
		}
		result.Inlets = append(result.Inlets, in)
	}
	if len(result.Inlets) == 0 {
		return result, fmt.Errorf("inlet: no patch grown from %d clusters: %w", len(clusters), geometry.ErrDetectionFailure)
	}
	return result, nil
}

// growPatch turns one crease cluster into an inlet and marks its faces in
// taken.
func growPatch(g *geometry.Geometry, c *cluster.Cluster[r3.Vec], meshCenter r3.Vec, taken []bool, opts Options) (Inlet, error) {
	c.RemoveOutliers(cluster.Euclidean{})
	seed, err := plane.Fit(c.Points)
	if err != nil {
		return Inlet{}, err
	}
	if away := r3.Sub(seed.Center, meshCenter); r3.Norm(away) > 0 {
		seed = seed.OrientTo(away)
	}
	sigma := spreadAround(c.Points, seed.Center)
	tol := plane.Tolerance{
		NormalDot: opts.NormalDot,
		Distance:  opts.DistanceBand * sigma,
		Reach:     opts.SpreadFactor * sigma,
	}

	normals, centroids := g.FaceNormals(), g.FaceCentroids()
	accept := make([]bool, len(taken))
	parallel.For(len(taken), func(start, end int) {
		for f := start; f < end; f++ {
			accept[f] = !taken[f] && seed.Accepts(normals[f], centroids[f], tol)
		}
	})

	var faces []int
	for f, ok := range accept {
		if ok {
			faces = append(faces, f)
		}
	}
	if len(faces) == 0 {
		return Inlet{}, fmt.Errorf("inlet: no faces near plane at %v: %w", seed.Center, geometry.ErrDegenerateInput)
	}

	view := geometry.FacesView(g, faces)
	final, err := plane.Fit(view.Positions())
	if err != nil {
		final = seed
	}
	final = final.OrientTo(seed.Normal)
	for _, f := range faces {
		taken[f] = true
	}
	return newInlet(final, patchRadius(g, view.Indices, final.Center), view.Indices), nil
}

// spreadAround returns the root mean square distance of points to center.
func spreadAround(points []r3.Vec, center r3.Vec) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += r3.Norm2(r3.Sub(p, center))
	}
	return math.Sqrt(sum / float64(len(points)))
}
