package halfedge

import (
	"github.com/samber/lo"

	"github.com/alexsr/of-vis-sub000/pkg/geometry"
)

// OneRing returns the half-edges leaving v, one per incident face, in
// rotation order. closed is false when the walk hit a boundary; the ring then
// starts at the boundary edge so consecutive entries are always adjacent.
//
// The walk follows opposite->next from the vertex's entry edge. On a
// boundary it walks back from the entry with prev->opposite and prepends.
// A non-manifold vertex yields only the fan containing its entry edge.
func (m *Mesh) OneRing(v int) ([]int, bool, error) {
	if err := m.checkVertex(v); err != nil {
		return nil, false, err
	}
	ring, closed := m.oneRing(v)
	return ring, closed, nil
}

func (m *Mesh) oneRing(v int) ([]int, bool) {
	start := m.entry[v]
	if start == None {
		return nil, true
	}
	limit := len(m.edges)

	ring := []int{start}
	he := start
	for steps := 0; steps < limit; steps++ {
		opp := m.edges[he].Opposite
		if opp == None {
			break
		}
		he = Next(opp)
		if he == start {
			return ring, true
		}
		ring = append(ring, he)
	}

	var back []int
	he = start
	for steps := 0; steps < limit; steps++ {
		opp := m.edges[Prev(he)].Opposite
		if opp == None {
			break
		}
		he = opp
		if he == start {
			break
		}
		back = append(back, he)
	}
	if len(back) == 0 {
		return ring, false
	}
	out := make([]int, 0, len(back)+len(ring))
	for i := len(back) - 1; i >= 0; i-- {
		out = append(out, back[i])
	}
	return append(out, ring...), false
}

// OneRingFaces returns the faces incident to v in rotation order.
func (m *Mesh) OneRingFaces(v int) ([]int, error) {
	ring, _, err := m.OneRing(v)
	if err != nil {
		return nil, err
	}
	return lo.Map(ring, func(he int, _ int) int { return Face(he) }), nil
}

// OneRingNeighborhood returns the triangle fan around v as a view over the
// base geometry.
func (m *Mesh) OneRingNeighborhood(v int) (geometry.View, error) {
	faces, err := m.OneRingFaces(v)
	if err != nil {
		return geometry.View{}, err
	}
	return geometry.FacesView(m.geom, faces), nil
}

// OneRingVertices returns the distinct neighbors of v in rotation order.
func (m *Mesh) OneRingVertices(v int) ([]int, error) {
	ring, _, err := m.OneRing(v)
	if err != nil {
		return nil, err
	}
	nbrs := make([]int, 0, len(ring)+1)
	for _, he := range ring {
		nbrs = append(nbrs, m.edges[he].To, m.From(Prev(he)))
	}
	return lo.Uniq(nbrs), nil
}
