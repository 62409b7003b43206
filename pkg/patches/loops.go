package patches

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/kernel"
)

// Cell is one four-sided loop of the network. Edges run E1 forward along
// a profile, E2 forward along a guide, E3 backward along the next profile
// and E4 backward along the previous guide, so the loop is closed.
type Cell struct {
	Edges      [4]kernel.OrientedEdge
	Provenance [4]Provenance
	// Continuity is the highest guide or profile continuity found at the
	// four corners.
	Continuity kernel.Continuity
}

// Corner returns the vertex where edge i of the loop starts.
func (c Cell) Corner(i int) *kernel.Vertex { return c.Edges[i].StartVertex() }

// Grid holds the cells row-major. Rows counts the guide intervals walked
// along one profile strip, Cols the profile strips.
type Grid struct {
	Rows, Cols int
	cells      []Cell
}

// Cell returns the cell between guides gi and gi+1 and profiles pi and
// pi+1. Both indices are 1-based; with closed curves the last interval
// wraps back to the first curve.
func (g *Grid) Cell(gi, pi int) (Cell, error) {
	if gi < 1 || gi > g.Rows || pi < 1 || pi > g.Cols {
		return Cell{}, kernel.ValidationError{
			Field:   "cell",
			Message: fmt.Sprintf("index (%d, %d) outside %dx%d grid", gi, pi, g.Rows, g.Cols),
		}
	}
	return g.cells[(pi-1)*g.Rows+gi-1], nil
}

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// All returns the cells in walk order.
func (g *Grid) All() []Cell { return append([]Cell(nil), g.cells...) }

// Perform runs the loop finder and returns its status. The result is
// cached.
func (n *Network) Perform() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.performLocked()
}

// Status returns the loop finder status, running it if needed.
func (n *Network) Status() Status { return n.Perform() }

func (n *Network) performLocked() Status {
	if n.performed {
		return n.status
	}
	n.performed = true
	f, err := n.fuseLocked()
	if err != nil {
		n.log.WithError(err).Warn("guide curve network could not be fused")
		n.status = FailIntersection
		return n.status
	}
	n.grid, n.status = n.findLoops(f)
	if n.status != OK {
		n.grid = nil
		n.log.WithField("status", n.status).Warn("guide curve network has no cell grid")
	}
	return n.status
}

// Cells returns the cell grid. It fails unless Perform reports OK.
func (n *Network) Cells() (*Grid, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if st := n.performLocked(); st != OK {
		return nil, &StatusError{Status: st}
	}
	f := n.fused
	for i, c := range n.grid.cells {
		if err := checkCell(c, f, n.cfg.TolConf); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}
	return n.grid, nil
}

func checkCell(c Cell, f *Fused, tol float64) error {
	counts := map[Provenance]int{}
	for i, oe := range c.Edges {
		counts[f.Provenance[oe.Edge.ID]]++
		next := c.Edges[(i+1)%4]
		if oe.EndVertex() != next.StartVertex() {
			return &StatusError{Status: Fail, Reason: fmt.Sprintf("edge %d does not meet edge %d", i, (i+1)%4)}
		}
		if gap := oe.End().Sub(next.Start()).Length(); gap > tol {
			return &StatusError{Status: Fail, Reason: fmt.Sprintf("gap %g after edge %d", gap, i)}
		}
	}
	if counts[Guide] != 2 || counts[Profile] != 2 {
		return &StatusError{Status: Fail, Reason: fmt.Sprintf("%d guide and %d profile edges", counts[Guide], counts[Profile])}
	}
	return nil
}

// vertexMap holds the edges meeting at each vertex, vertices in order of
// first appearance.
type vertexMap struct {
	order []*kernel.Vertex
	edges map[*kernel.Vertex][]*kernel.Edge
	prov  map[kernel.EdgeID]Provenance
}

func newVertexMap(f *Fused) *vertexMap {
	m := &vertexMap{edges: map[*kernel.Vertex][]*kernel.Edge{}, prov: f.Provenance}
	add := func(v *kernel.Vertex, e *kernel.Edge) {
		if _, ok := m.edges[v]; !ok {
			m.order = append(m.order, v)
		}
		m.edges[v] = append(m.edges[v], e)
	}
	for _, e := range f.Edges {
		add(e.First, e)
		if e.Last != e.First {
			add(e.Last, e)
		}
	}
	return m
}

// starting returns the first edge of the family that starts at v.
func (m *vertexMap) starting(v *kernel.Vertex, p Provenance) *kernel.Edge {
	for _, e := range m.edges[v] {
		if e.First == v && m.prov[e.ID] == p {
			return e
		}
	}
	return nil
}

// ending returns the first edge of the family that ends at v.
func (m *vertexMap) ending(v *kernel.Vertex, p Provenance) *kernel.Edge {
	for _, e := range m.edges[v] {
		if e.Last == v && m.prov[e.ID] == p {
			return e
		}
	}
	return nil
}

func (m *vertexMap) family(v *kernel.Vertex, p Provenance) []*kernel.Edge {
	var out []*kernel.Edge
	for _, e := range m.edges[v] {
		if m.prov[e.ID] == p {
			out = append(out, e)
		}
	}
	return out
}

// continuity rates the join of one family at v. A vertex with fewer than
// two edges of the family is C0.
func (n *Network) continuity(m *vertexMap, v *kernel.Vertex, p Provenance) (kernel.Continuity, bool) {
	es := m.family(v, p)
	switch {
	case len(es) > 2:
		return kernel.C0, false
	case len(es) == 2:
		return n.g.Continuity(es[0], es[1], v), true
	case len(es) == 1 && es[0].IsClosed():
		return n.g.Continuity(es[0], es[0], v), true
	}
	return kernel.C0, true
}

// findLoops walks the cells starting from a corner of the network. Each
// row follows one profile strip across the guides; closed profiles wrap
// the row around and closed guides bring the walk back to the global start.
func (n *Network) findLoops(f *Fused) (*Grid, Status) {
	m := newVertexMap(f)
	if len(m.order) == 0 {
		return nil, FailNoData
	}

	type corner struct{ guide, profile kernel.Continuity }
	cont := map[*kernel.Vertex]corner{}
	for _, v := range m.order {
		gc, ok1 := n.continuity(m, v, Guide)
		pc, ok2 := n.continuity(m, v, Profile)
		if !ok1 || !ok2 {
			n.log.WithField("vertex", v.ID).Warn("more than two edges of one curve family meet at a vertex")
			return nil, Fail
		}
		cont[v] = corner{gc, pc}
	}

	minExtent := math.MaxInt
	for _, v := range m.order {
		minExtent = min(minExtent, len(m.edges[v]))
	}
	var start *kernel.Vertex
	for _, v := range m.order {
		if len(m.edges[v]) == minExtent && m.starting(v, Profile) != nil && m.starting(v, Guide) != nil {
			start = v
			break
		}
	}
	if start == nil {
		return nil, FailStartingPoint
	}

	cellContinuity := func(vs ...*kernel.Vertex) kernel.Continuity {
		c := kernel.C0
		for _, v := range vs {
			c = max(c, cont[v].guide, cont[v].profile)
		}
		return c
	}

	var (
		cells      []Cell
		global     = start
		next       = start
		nextStart  *kernel.Vertex
		firstRow   = true
		rowLength  = 0
		status     = OK
		iterations = 0
	)
	endRow := func() {
		start = nextStart
		next = start
		if firstRow {
			rowLength = len(cells)
			firstRow = false
		}
	}
	for {
		if iterations++; iterations > 2*len(f.Edges)+4 {
			status = Fail
			break
		}
		c := next
		if !firstRow && c == global {
			break
		}
		e1 := m.starting(c, Profile)
		if e1 == nil {
			if nextStart == nil || nextStart == c {
				if len(cells) == 0 || nextStart == nil {
					status = FailFirstEdge
				}
				break
			}
			endRow()
			continue
		}
		cur := e1.Last
		next = cur

		e2 := m.starting(cur, Guide)
		if e2 == nil {
			if len(cells) == 0 {
				status = FailSecondEdge
			}
			break
		}
		cur = e2.Last
		if next == start {
			// closed profile: the row wrapped around to its first corner
			start = cur
			next = start
		}

		e3 := m.ending(cur, Profile)
		if e3 == nil {
			if len(cells) == 0 {
				status = FailThirdEdge
			}
			break
		}
		cur = e3.First
		if c == start {
			nextStart = cur
		}

		e4 := m.ending(cur, Guide)
		if e4 == nil {
			if len(cells) == 0 {
				status = FailFourthEdge
			}
			break
		}
		cells = append(cells, Cell{
			Edges: [4]kernel.OrientedEdge{
				{Edge: e1}, {Edge: e2},
				{Edge: e3, Reversed: true}, {Edge: e4, Reversed: true},
			},
			Provenance: [4]Provenance{Profile, Guide, Profile, Guide},
			Continuity: cellContinuity(e1.Last, e2.Last, e3.First, c),
		})
		if e4.First != e1.First {
			status = FailFourthEdge
			break
		}
		if next == start {
			endRow()
		}
	}
	if status != OK {
		return nil, status
	}
	if rowLength == 0 {
		return nil, Fail
	}
	if len(cells)%rowLength != 0 {
		n.log.WithFields(logrus.Fields{"cells": len(cells), "row": rowLength}).Warn("cell grid is not rectangular")
		return nil, FailNoClosedProfile
	}
	grid := &Grid{Rows: rowLength, Cols: len(cells) / rowLength, cells: cells}
	if rows, cols := n.expectedGrid(); grid.Rows != rows || grid.Cols != cols {
		n.log.WithFields(logrus.Fields{
			"rows": grid.Rows, "cols": grid.Cols, "wantRows": rows, "wantCols": cols,
		}).Warn("cell grid does not cover every guide and profile")
		return nil, FailNoClosedProfile
	}
	return grid, OK
}

// expectedGrid returns the grid size a complete network has: one row per
// guide interval and one column per profile interval, counting the
// wrap-around interval of closed curves.
func (n *Network) expectedGrid() (rows, cols int) {
	if n.expected != nil {
		return n.expected[0], n.expected[1]
	}
	rows, cols = len(n.guides)-1, len(n.profiles)-1
	if allClosed(n.profiles, n.cfg.TolConf) {
		rows++
	}
	if allClosed(n.guides, n.cfg.TolConf) {
		cols++
	}
	return rows, cols
}

func allClosed(ws []*kernel.Wire, tol float64) bool {
	if len(ws) == 0 {
		return false
	}
	for _, w := range ws {
		if !w.IsClosed(tol) {
			return false
		}
	}
	return true
}
