package graph

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodeProfile NodeKind = iota // wing profile in its local xz plane
	NodeSection                 // profile placed in space
	NodeGuide                   // guide curve through a chord position of every section
	NodeNetwork                 // sections and guides fused into a patch network
	NodeGroup                   // logical grouping (wing, component)
)

func (k NodeKind) String() string {
	switch k {
	case NodeProfile:
		return "profile"
	case NodeSection:
		return "section"
	case NodeGuide:
		return "guide"
	case NodeNetwork:
		return "network"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
