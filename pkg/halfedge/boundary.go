package halfedge

// Boundaries returns every boundary loop as an ordered vertex list. Loop i
// visits the unmatched half-edges v[0]->v[1]->...->v[0] in face winding
// order. A closed manifold mesh has none. The result is computed on the
// first call and shared afterwards; it must not be modified.
func (m *Mesh) Boundaries() [][]int {
	m.boundaryOnce.Do(func() {
		m.boundaries = m.findBoundaries()
	})
	return m.boundaries
}

// BoundaryEdges returns the half-edges of each loop, parallel to
// Boundaries: edge j of loop i leaves vertex j of that loop.
func (m *Mesh) BoundaryEdges() [][]int {
	loops := m.Boundaries()
	edges := make([][]int, len(loops))
	for i, loop := range loops {
		edges[i] = make([]int, len(loop))
		for j, v := range loop {
			next := loop[(j+1)%len(loop)]
			for _, he := range m.out[v] {
				if m.edges[he].Opposite == None && m.edges[he].To == next {
					edges[i][j] = he
					break
				}
			}
		}
	}
	return edges
}

func (m *Mesh) findBoundaries() [][]int {
	claimed := make([]bool, len(m.edges))
	loops := [][]int{}
	for start := range m.edges {
		if claimed[start] || m.edges[start].Opposite != None {
			continue
		}
		var loop []int
		he := start
		for he != None {
			claimed[he] = true
			loop = append(loop, m.From(he))
			he = m.nextBoundary(he, start, claimed)
		}
		loops = append(loops, loop)
	}
	return loops
}

// nextBoundary returns the unmatched, unclaimed half-edge leaving the end of
// he, or None once the loop returns to start or runs into a dead end.
func (m *Mesh) nextBoundary(he, start int, claimed []bool) int {
	v := m.edges[he].To
	if v == m.From(start) {
		return None
	}
	for _, cand := range m.out[v] {
		if m.edges[cand].Opposite == None && !claimed[cand] {
			return cand
		}
	}
	return None
}
