package nurbs

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"

	"github.com/chazu/spar/pkg/kernel"
)

// vertexPool snaps points to existing vertices within a tolerance.
type vertexPool struct {
	tree *rtreego.Rtree
	tol  float64
}

type pooledVertex struct {
	v    *kernel.Vertex
	rect rtreego.Rect
}

func (p *pooledVertex) Bounds() rtreego.Rect { return p.rect }

func newVertexPool(tol float64) *vertexPool {
	return &vertexPool{tree: rtreego.NewTree(3, 2, 8), tol: tol}
}

func toPoint(p v3.Vec) rtreego.Point { return rtreego.Point{p.X, p.Y, p.Z} }

// add registers v unless another vertex already sits within tol.
func (vp *vertexPool) add(v *kernel.Vertex) *kernel.Vertex {
	if found := vp.find(v.Point); found != nil {
		return found
	}
	vp.tree.Insert(&pooledVertex{v: v, rect: toPoint(v.Point).ToRect(vp.tol)})
	return v
}

// find returns the nearest vertex within tol of p, or nil.
func (vp *vertexPool) find(p v3.Vec) *kernel.Vertex {
	var best *kernel.Vertex
	bestDist := math.Inf(1)
	for _, s := range vp.tree.SearchIntersect(toPoint(p).ToRect(vp.tol)) {
		v := s.(*pooledVertex).v
		if d := v.Point.Sub(p).Length(); d <= vp.tol && d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// vertexAt returns the pooled vertex at p, creating it if needed.
func (vp *vertexPool) vertexAt(p v3.Vec) *kernel.Vertex {
	if v := vp.find(p); v != nil {
		return v
	}
	return vp.add(kernel.NewVertex(p))
}

type split struct {
	u float64
	v *kernel.Vertex
}

// Fuse merges tool into network. Edges are split at every interior point
// where they meet within tol, and coincident points share one vertex.
// Modified maps each replaced input edge to its fragments.
func Fuse(network []*kernel.Edge, tool *kernel.Edge, tol float64) (kernel.FuseResult, error) {
	res := kernel.FuseResult{Modified: map[kernel.EdgeID][]kernel.EdgeID{}}
	pool := newVertexPool(tol)
	for _, e := range network {
		pool.add(e.First)
		pool.add(e.Last)
	}

	toolSplits := []split{}
	netSplits := make([][]split, len(network))
	for i, e := range network {
		for _, h := range Intersect(e.Curve, tool.Curve, tol) {
			v := pool.vertexAt(h.Point)
			if interior(e.Curve, h.U) {
				netSplits[i] = append(netSplits[i], split{u: h.U, v: v})
			}
			if interior(tool.Curve, h.V) {
				toolSplits = append(toolSplits, split{u: h.V, v: v})
			}
		}
	}

	for i, e := range network {
		if len(netSplits[i]) == 0 {
			res.Edges = append(res.Edges, e)
			continue
		}
		frags, err := splitEdge(e, e.First, e.Last, netSplits[i])
		if err != nil {
			return kernel.FuseResult{}, err
		}
		res.Edges = append(res.Edges, frags...)
		res.Modified[e.ID] = edgeIDs(frags)
	}

	first := pool.find(tool.Start())
	if first == nil {
		first = pool.add(tool.First)
	}
	last := pool.find(tool.End())
	if last == nil {
		last = pool.add(tool.Last)
	}
	if len(toolSplits) == 0 && first == tool.First && last == tool.Last {
		res.Edges = append(res.Edges, tool)
		return res, nil
	}
	frags, err := splitEdge(tool, first, last, toolSplits)
	if err != nil {
		return kernel.FuseResult{}, err
	}
	res.Edges = append(res.Edges, frags...)
	res.Modified[tool.ID] = edgeIDs(frags)
	return res, nil
}

// interior reports whether u lies inside the domain of c, away from its
// ends by a small relative margin.
func interior(c kernel.Curve, u float64) bool {
	first, last := c.FirstParameter(), c.LastParameter()
	eps := 1e-6 * (last - first)
	return u > first+eps && u < last-eps
}

// splitEdge cuts e at the given splits and returns the fragments in
// order, bounded by first, the split vertices, and last.
func splitEdge(e *kernel.Edge, first, last *kernel.Vertex, splits []split) ([]*kernel.Edge, error) {
	sort.Slice(splits, func(i, j int) bool { return splits[i].u < splits[j].u })
	c := e.Curve
	eps := 1e-6 * (c.LastParameter() - c.FirstParameter())

	var frags []*kernel.Edge
	u0, v0 := c.FirstParameter(), first
	for _, s := range splits {
		if s.u-u0 <= eps || s.v == v0 {
			continue
		}
		seg, err := kernel.TrimCurve(c, u0, s.u)
		if err != nil {
			return nil, err
		}
		frags = append(frags, kernel.NewEdgeBetween(seg, v0, s.v))
		u0, v0 = s.u, s.v
	}
	seg, err := kernel.TrimCurve(c, u0, c.LastParameter())
	if err != nil {
		return nil, err
	}
	return append(frags, kernel.NewEdgeBetween(seg, v0, last)), nil
}

func edgeIDs(edges []*kernel.Edge) []kernel.EdgeID {
	ids := make([]kernel.EdgeID, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}
