package patches

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/spar/pkg/kernel"
)

// Fused is the network after all curves were fused into one edge set.
type Fused struct {
	// Edges in fuse order: guide fragments first, then profile fragments.
	Edges      []*kernel.Edge
	Provenance map[kernel.EdgeID]Provenance
}

// Of returns the edges descending from the given curve family.
func (f *Fused) Of(p Provenance) []*kernel.Edge {
	return lo.Filter(f.Edges, func(e *kernel.Edge, _ int) bool {
		return f.Provenance[e.ID] == p
	})
}

// Fuse merges every guide edge and then every profile edge into one
// network. The result is cached.
func (n *Network) Fuse() (*Fused, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fuseLocked()
}

func (n *Network) fuseLocked() (*Fused, error) {
	if n.fused != nil || n.fuseErr != nil {
		return n.fused, n.fuseErr
	}
	n.fused, n.fuseErr = n.fuse()
	return n.fused, n.fuseErr
}

type taggedEdge struct {
	edge *kernel.Edge
	prov Provenance
}

func (n *Network) fuse() (*Fused, error) {
	var tools []taggedEdge
	for _, w := range n.guides {
		for _, e := range w.Edges {
			tools = append(tools, taggedEdge{e, Guide})
		}
	}
	for _, w := range n.profiles {
		for _, e := range w.Edges {
			tools = append(tools, taggedEdge{e, Profile})
		}
	}
	if len(tools) == 0 {
		return &Fused{Provenance: map[kernel.EdgeID]Provenance{}}, nil
	}

	prov := map[kernel.EdgeID]Provenance{}
	var network []*kernel.Edge
	for i, t := range tools {
		prov[t.edge.ID] = t.prov
		res, err := n.g.Fuse(network, t.edge, n.cfg.TolConf)
		if err != nil {
			return nil, &StatusError{Status: FailIntersection, Reason: fmt.Sprintf("fusing %s edge %d: %v", t.prov, i, err)}
		}
		for parent, frags := range res.Modified {
			for _, id := range frags {
				prov[id] = prov[parent]
			}
		}
		network = res.Edges
	}

	live := lo.SliceToMap(network, func(e *kernel.Edge) (kernel.EdgeID, Provenance) {
		return e.ID, prov[e.ID]
	})
	n.log.WithField("edges", len(network)).Debug("fused guide curve network")
	return &Fused{Edges: network, Provenance: live}, nil
}
