// Package kernel defines the abstract geometry kernel interfaces.
// Geometry covers the curve and surface primitives needed by the profile
// engine and the guide-curve patch network; Modeler covers preview solids.
// Implementations (nurbs, sdfx) live in sub-packages so the rest of the
// system can swap backends without changes.
package kernel

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Continuity classifies how smoothly two curves or a closed curve join.
type Continuity int

const (
	C0 Continuity = iota // positional
	C1                   // tangent
	C2                   // curvature
)

func (c Continuity) String() string {
	switch c {
	case C0:
		return "C0"
	case C1:
		return "C1"
	case C2:
		return "C2"
	default:
		return fmt.Sprintf("Continuity(%d)", int(c))
	}
}

// FillStyle selects the blending functions of a Coons fill.
type FillStyle int

const (
	StretchStyle FillStyle = iota // linear blending
	CoonsStyle                    // cubic Hermite blending
	CurvedStyle                   // treated like CoonsStyle
)

func (s FillStyle) String() string {
	switch s {
	case StretchStyle:
		return "stretch"
	case CoonsStyle:
		return "coons"
	case CurvedStyle:
		return "curved"
	default:
		return fmt.Sprintf("FillStyle(%d)", int(s))
	}
}

// ParseFillStyle maps a name such as "coons" to a FillStyle.
func ParseFillStyle(name string) (FillStyle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stretch":
		return StretchStyle, nil
	case "", "coons":
		return CoonsStyle, nil
	case "curved":
		return CurvedStyle, nil
	}
	return 0, ValidationError{Field: "style", Message: fmt.Sprintf("unknown fill style %q", name)}
}

// InterpolateOptions controls curve fitting through points.
type InterpolateOptions struct {
	// Degree is the maximum degree; 0 means cubic.
	Degree int
	// StartTangent and EndTangent, when set, prescribe the end derivative
	// directions. They are scaled by the polygon length of the points.
	StartTangent *v3.Vec
	EndTangent   *v3.Vec
	// Continuity above C0 requests C1/C2 conditions across the seam of a
	// curve whose first and last points coincide.
	Continuity Continuity
}

// CurveHit is one intersection between two curves.
type CurveHit struct {
	U, V  float64 // parameters on the first and second curve
	Point v3.Vec
}

// FuseResult is the output of fusing one tool edge into a network.
type FuseResult struct {
	// Edges is the complete edge set of the fused network.
	Edges []*Edge
	// Modified maps an input edge (network or tool) to the edges that
	// replaced it. Edges that survived unchanged have no entry.
	Modified map[EdgeID][]EdgeID
}

// Geometry is the curve/surface kernel consumed by the profile engine and
// the patch network.
type Geometry interface {
	// Interpolate fits an interpolating B-spline through the points.
	Interpolate(points []v3.Vec, opts InterpolateOptions) (Curve, error)
	// Line returns the straight segment from p0 to p1.
	Line(p0, p1 v3.Vec) Curve
	// Trim restricts c to [u0, u1].
	Trim(c Curve, u0, u1 float64) (Curve, error)

	// Project returns the parameter of the point on c nearest to p and
	// the distance between them.
	Project(c Curve, p v3.Vec) (u float64, dist float64)
	// IntersectPlane returns the sorted parameters where c crosses the plane.
	IntersectPlane(c Curve, origin, normal v3.Vec) []float64
	// IntersectLine2D intersects the xz projection of c with the infinite
	// line through origin along dir (both given as (x, z)).
	IntersectLine2D(c Curve, origin, dir v2.Vec) []v2.Vec
	// Intersect returns the points where a and b meet within tol.
	Intersect(a, b Curve, tol float64) []CurveHit

	// Fuse merges tool into network, splitting edges at shared points.
	Fuse(network []*Edge, tool *Edge, tol float64) (FuseResult, error)
	// Continuity reports how a and b join at the vertex v.
	Continuity(a, b *Edge, v *Vertex) Continuity

	// FillCoons builds a surface bounded by four curves ordered
	// bottom (u), right (v), top (u), left (v), all running in the
	// positive parameter direction of the patch.
	FillCoons(boundary [4]Curve, style FillStyle) (Surface, error)
	// Sew joins faces along shared edges.
	Sew(faces []*Face, tol float64) (*Shell, error)

	// BoundingBox returns the axis-aligned box of c.
	BoundingBox(c Curve) sdf.Box3
}

// Solid is an opaque handle to a preview solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Modeler builds preview solids from profile outlines.
type Modeler interface {
	// Primitives
	Extrude(outline []v2.Vec, height float64) (Solid, error)
	Loft(bottom, top []v2.Vec, height float64) (Solid, error)

	Union(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
