package inlet

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/halfedge"
	"github.com/alexsr/of-vis-sub000/pkg/plane"
)

// Selection is the result of growing a patch from a picked vertex.
type Selection struct {
	Inlet     Inlet
	Highlight []bool // per vertex of the mesh, true inside the patch
}

// SelectManual grows a coplanar patch breadth first from seed. Faces around
// the current frontier are tested once against the running plane, which
// starts at the seed's position and normal and is refit after every layer.
// The vertices of accepted faces form the next frontier. normals holds one
// normal per vertex; nil computes them from the topology.
//
// A seed without a usable normal, or one whose neighborhood accepts no face,
// yields ok == false and a nil error.
func SelectManual(topo *halfedge.Mesh, seed int, normals []r3.Vec, opts Options) (sel Selection, ok bool, err error) {
	if err := opts.Validate(); err != nil {
		return Selection{}, false, err
	}
	outgoing, err := topo.Outgoing(seed)
	if err != nil {
		return Selection{}, false, err
	}
	if len(outgoing) == 0 {
		return Selection{}, false, nil
	}
	if normals == nil {
		normals, _ = topo.CalculateNormals()
	}
	if len(normals) != topo.VertexCount() {
		return Selection{}, false, fmt.Errorf("inlet: %d normals for %d vertices: %w", len(normals), topo.VertexCount(), geometry.ErrInvalidArgument)
	}
	g := topo.Geometry()
	seedNormal := normals[seed]
	running, err := plane.FromPointNormal(g.Vertices[seed], seedNormal)
	if err != nil {
		return Selection{}, false, nil
	}

	tol := plane.Tolerance{NormalDot: opts.NormalDot, Distance: opts.ManualDistance}
	if tol.Distance == 0 {
		tol.Distance = 0.5 * g.MeanEdgeLength()
	}

	faceNormals, centroids := g.FaceNormals(), g.FaceCentroids()
	tested := make([]bool, topo.FaceCount())
	highlight := make([]bool, topo.VertexCount())
	var faces []int
	var points []r3.Vec

	frontier := []int{seed}
	for len(frontier) > 0 {
		var next []int
		for _, v := range frontier {
			around, _ := topo.Outgoing(v)
			for _, he := range around {
				f := halfedge.Face(he)
				if tested[f] {
					continue
				}
				tested[f] = true
				if !running.Accepts(faceNormals[f], centroids[f], tol) {
					continue
				}
				faces = append(faces, f)
				for _, c := range g.Triangle(f) {
					if !highlight[c] {
						highlight[c] = true
						points = append(points, g.Vertices[c])
						next = append(next, int(c))
					}
				}
			}
		}
		if len(points) >= 3 {
			if fit, err := plane.Fit(points); err == nil {
				running = fit.OrientTo(seedNormal)
			}
		}
		frontier = next
	}
	if len(faces) == 0 {
		return Selection{}, false, nil
	}

	view := geometry.FacesView(g, faces)
	in := newInlet(running, patchRadius(g, view.Indices, running.Center), view.Indices)
	return Selection{Inlet: in, Highlight: highlight}, true, nil
}
