package kernel

import (
	"fmt"
	"sync/atomic"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EdgeID identifies an edge for the lifetime of the process.
type EdgeID uint64

// VertexID identifies a vertex for the lifetime of the process.
type VertexID uint64

var (
	edgeCounter   uint64
	vertexCounter uint64
)

// Vertex is a topological point shared by the edges that meet there.
type Vertex struct {
	ID    VertexID
	Point v3.Vec
}

// NewVertex allocates a vertex with a fresh ID.
func NewVertex(p v3.Vec) *Vertex {
	return &Vertex{ID: VertexID(atomic.AddUint64(&vertexCounter, 1)), Point: p}
}

// Edge is a bounded curve between two vertices. The curve runs from
// First to Last over its whole parameter domain.
type Edge struct {
	ID    EdgeID
	Curve Curve
	First *Vertex
	Last  *Vertex
}

// NewEdge wraps c in an edge with fresh vertices at its end points.
func NewEdge(c Curve) *Edge {
	return NewEdgeBetween(c, NewVertex(StartPoint(c)), NewVertex(EndPoint(c)))
}

// NewEdgeBetween wraps c in an edge bounded by the given vertices.
func NewEdgeBetween(c Curve, first, last *Vertex) *Edge {
	return &Edge{
		ID:    EdgeID(atomic.AddUint64(&edgeCounter, 1)),
		Curve: c,
		First: first,
		Last:  last,
	}
}

// Start returns the geometric start point of the edge.
func (e *Edge) Start() v3.Vec { return StartPoint(e.Curve) }

// End returns the geometric end point of the edge.
func (e *Edge) End() v3.Vec { return EndPoint(e.Curve) }

// IsClosed reports whether the edge starts and ends at the same vertex.
func (e *Edge) IsClosed() bool { return e.First == e.Last }

func (e *Edge) String() string {
	return fmt.Sprintf("edge#%d(%d->%d)", e.ID, e.First.ID, e.Last.ID)
}

// OrientedEdge is an edge used in a given direction by a loop or face.
type OrientedEdge struct {
	Edge     *Edge
	Reversed bool
}

// StartVertex returns the vertex where the oriented edge begins.
func (o OrientedEdge) StartVertex() *Vertex {
	if o.Reversed {
		return o.Edge.Last
	}
	return o.Edge.First
}

// EndVertex returns the vertex where the oriented edge ends.
func (o OrientedEdge) EndVertex() *Vertex {
	if o.Reversed {
		return o.Edge.First
	}
	return o.Edge.Last
}

// Start returns the geometric start point of the oriented edge.
func (o OrientedEdge) Start() v3.Vec {
	if o.Reversed {
		return o.Edge.End()
	}
	return o.Edge.Start()
}

// End returns the geometric end point of the oriented edge.
func (o OrientedEdge) End() v3.Vec {
	if o.Reversed {
		return o.Edge.Start()
	}
	return o.Edge.End()
}

// Curve returns the edge curve running in the oriented direction.
func (o OrientedEdge) Curve() Curve {
	if o.Reversed {
		return Reverse(o.Edge.Curve)
	}
	return o.Edge.Curve
}

// Wire is a connected sequence of edges.
type Wire struct {
	Edges []*Edge
}

// NewWire builds a wire from edges given in traversal order.
func NewWire(edges ...*Edge) *Wire {
	return &Wire{Edges: edges}
}

// Len returns the number of edges.
func (w *Wire) Len() int { return len(w.Edges) }

// Start returns the start point of the first edge.
func (w *Wire) Start() v3.Vec { return w.Edges[0].Start() }

// End returns the end point of the last edge.
func (w *Wire) End() v3.Vec { return w.Edges[len(w.Edges)-1].End() }

// IsClosed reports whether consecutive edges connect and the last edge
// returns to the start of the first, all within tol.
func (w *Wire) IsClosed(tol float64) bool {
	if len(w.Edges) == 0 {
		return false
	}
	if !w.IsConnected(tol) {
		return false
	}
	return w.End().Sub(w.Start()).Length() <= tol
}

// IsConnected reports whether each edge starts where its predecessor ends.
func (w *Wire) IsConnected(tol float64) bool {
	for i := 1; i < len(w.Edges); i++ {
		if w.Edges[i].Start().Sub(w.Edges[i-1].End()).Length() > tol {
			return false
		}
	}
	return true
}

// Curves returns the curves of the wire's edges in order.
func (w *Wire) Curves() []Curve {
	cs := make([]Curve, len(w.Edges))
	for i, e := range w.Edges {
		cs[i] = e.Curve
	}
	return cs
}

// Transform returns a copy of w mapped through m. Edges that shared a
// vertex share the mapped vertex.
func (w *Wire) Transform(m sdf.M44) *Wire {
	verts := map[*Vertex]*Vertex{}
	mapped := func(v *Vertex) *Vertex {
		if nv, ok := verts[v]; ok {
			return nv
		}
		nv := NewVertex(m.MulPosition(v.Point))
		verts[v] = nv
		return nv
	}
	out := &Wire{Edges: make([]*Edge, len(w.Edges))}
	for i, e := range w.Edges {
		out.Edges[i] = NewEdgeBetween(TransformCurve(e.Curve, m), mapped(e.First), mapped(e.Last))
	}
	return out
}

// Surface is a bounded parametric surface.
type Surface interface {
	Value(u, v float64) v3.Vec
	// Bounds returns the parameter rectangle.
	Bounds() (u0, u1, v0, v1 float64)
}

// Face is a surface bounded by a loop of oriented edges.
type Face struct {
	Surface  Surface
	Boundary []OrientedEdge
}

// Shell is a set of faces joined along shared edges.
type Shell struct {
	Faces []*Face
	// Shared lists edges used by exactly two faces.
	Shared []EdgeID
	// Free lists edges used by a single face.
	Free []EdgeID
}

// IsClosed reports whether the shell has no free edges.
func (s *Shell) IsClosed() bool { return len(s.Free) == 0 && len(s.Faces) > 0 }
