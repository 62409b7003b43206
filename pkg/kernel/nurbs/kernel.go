// Package nurbs implements kernel.Geometry in pure Go on non-rational
// B-spline curves and Coons patches.
package nurbs

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

// boundsSamples is the resolution of curve bounding boxes.
const boundsSamples = 256

// Kernel implements kernel.Geometry.
type Kernel struct{}

// Compile-time check that Kernel satisfies kernel.Geometry.
var _ kernel.Geometry = (*Kernel)(nil)

// New creates a new geometry kernel.
func New() *Kernel {
	return &Kernel{}
}

func (k *Kernel) Interpolate(points []v3.Vec, opts kernel.InterpolateOptions) (kernel.Curve, error) {
	c, err := Interpolate(points, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (k *Kernel) Line(p0, p1 v3.Vec) kernel.Curve {
	return &Line{P0: p0, P1: p1}
}

func (k *Kernel) Trim(c kernel.Curve, u0, u1 float64) (kernel.Curve, error) {
	return kernel.TrimCurve(c, u0, u1)
}

func (k *Kernel) Project(c kernel.Curve, p v3.Vec) (float64, float64) {
	return Project(c, p)
}

func (k *Kernel) IntersectPlane(c kernel.Curve, origin, normal v3.Vec) []float64 {
	return IntersectPlane(c, origin, normal)
}

func (k *Kernel) IntersectLine2D(c kernel.Curve, origin, dir v2.Vec) []v2.Vec {
	return IntersectLine2D(c, origin, dir)
}

func (k *Kernel) Intersect(a, b kernel.Curve, tol float64) []kernel.CurveHit {
	return Intersect(a, b, tol)
}

func (k *Kernel) Fuse(network []*kernel.Edge, tool *kernel.Edge, tol float64) (kernel.FuseResult, error) {
	return Fuse(network, tool, tol)
}

func (k *Kernel) Continuity(a, b *kernel.Edge, v *kernel.Vertex) kernel.Continuity {
	return EdgeContinuity(a, b, v)
}

func (k *Kernel) FillCoons(boundary [4]kernel.Curve, style kernel.FillStyle) (kernel.Surface, error) {
	s, err := FillCoons(boundary, style)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (k *Kernel) Sew(faces []*kernel.Face, tol float64) (*kernel.Shell, error) {
	return Sew(faces, tol)
}

func (k *Kernel) BoundingBox(c kernel.Curve) sdf.Box3 {
	return kernel.SampledBounds(c, boundsSamples)
}
