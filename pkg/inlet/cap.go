package inlet

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
	"github.com/alexsr/of-vis-sub000/pkg/halfedge"
	"github.com/alexsr/of-vis-sub000/pkg/plane"
)

// CapHoles closes every boundary loop of the mesh with a triangle fan around
// a new center vertex and returns one inlet per loop, holding that fan. The
// fan follows the loop's winding so the capped surface stays consistently
// oriented. Each inlet's normal agrees with the mean surface normal of its
// loop vertices.
//
// The vertices and triangles are appended to topo's geometry; topo itself is
// stale afterwards and must be rebuilt before further traversal. Loops of
// fewer than three vertices are left open.
func CapHoles(topo *halfedge.Mesh) ([]Inlet, error) {
	loops := topo.Boundaries()
	if len(loops) == 0 {
		return nil, nil
	}
	g := topo.Geometry()
	normals := g.Normals
	if len(normals) != len(g.Vertices) {
		normals, _ = topo.CalculateNormals()
	}

	var inlets []Inlet
	for _, loop := range loops {
		if len(loop) < 3 {
			continue
		}
		rim := make([]r3.Vec, len(loop))
		var avg r3.Vec
		for i, v := range loop {
			rim[i] = g.Vertices[v]
			avg = r3.Add(avg, normals[v])
		}
		winding := newellNormal(rim)

		p, err := plane.Fit(rim)
		if err != nil {
			if p, err = plane.FromPointNormal(geometry.Centroid(rim...), winding); err != nil {
				continue
			}
		}
		if r3.Norm(avg) > 1e-12 {
			p = p.OrientTo(avg)
		} else {
			p = p.OrientTo(winding)
		}

		center := g.AddVertex(p.Center, r3.Scale(-1, p.Normal))
		fan := make([]uint32, 0, 3*len(loop))
		for i, a := range loop {
			b := loop[(i+1)%len(loop)]
			fan = append(fan, uint32(b), uint32(a), center)
		}
		if err := g.AddTriangles(fan...); err != nil {
			return inlets, err
		}
		inlets = append(inlets, newInlet(p, p.Radius(rim), fan))
	}
	return inlets, nil
}

// newellNormal returns the unnormalized area normal of a closed polygon.
func newellNormal(poly []r3.Vec) r3.Vec {
	var n r3.Vec
	for i, p := range poly {
		n = r3.Add(n, r3.Cross(p, poly[(i+1)%len(poly)]))
	}
	return n
}

