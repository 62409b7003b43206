package graph

import (
	"encoding/hex"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
)

// idNamespace scopes the name-based UUIDs of graph nodes.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/spar/graph"))

// NodeID is a content-addressed identifier for graph nodes. Evaluating the
// same source twice yields the same IDs.
type NodeID uuid.UUID

// ZeroID is the zero NodeID.
var ZeroID NodeID

// NewNodeID derives a NodeID from a node path such as "section/root".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(idNamespace, []byte(path)))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns the first six bytes of id in hex.
func (id NodeID) Short() string { return hex.EncodeToString(id[:6]) }

func (id NodeID) String() string { return uuid.UUID(id).String() }

// MarshalText encodes id in the canonical UUID form.
func (id NodeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText parses the canonical UUID form.
func (id *NodeID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// Vec3 is a point or direction in design space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Vec converts v to the geometry kernel's vector type.
func (v Vec3) Vec() v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func (v Vec3) String() string { return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z) }
