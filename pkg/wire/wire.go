// Package wire builds profile wires from ordered point samples.
//
// Two algorithms share one contract: BSpline fits a single interpolating
// curve, Polyline joins consecutive points with straight edges. Both drop
// near-duplicate points, force closure when the sample's ends coincide,
// and add a straight closing edge when closure is requested but the
// fitted geometry is open.
package wire

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

// DefaultTolerance is the distance below which two points are the same.
const DefaultTolerance = 1e-7

// Algorithm selects how a wire is built from points.
type Algorithm int

const (
	BSpline Algorithm = iota
	Polyline
)

func (a Algorithm) String() string {
	switch a {
	case BSpline:
		return "bspline"
	case Polyline:
		return "polyline"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bspline", "b-spline", "interpolate":
		return BSpline, nil
	case "polyline", "linear":
		return Polyline, nil
	}
	return 0, kernel.ValidationError{Field: "algorithm", Message: fmt.Sprintf("unknown wire algorithm %q", name)}
}

type options struct {
	tolerance  float64
	continuity kernel.Continuity
	start, end *v3.Vec
}

// Option configures BuildWire.
type Option func(*options)

// WithTolerance sets the point coincidence tolerance.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tolerance = tol
		}
	}
}

// WithContinuity requests seam continuity for closed B-spline wires. It is
// honoured only when the deduplicated start and end points coincide.
func WithContinuity(c kernel.Continuity) Option {
	return func(o *options) { o.continuity = c }
}

// WithTangents prescribes the end directions of a B-spline wire.
func WithTangents(start, end v3.Vec) Option {
	return func(o *options) {
		o.start = &start
		o.end = &end
	}
}

// BuildWire builds a wire through points with the given algorithm.
func BuildWire(g kernel.Geometry, alg Algorithm, points []v3.Vec, forceClosed bool, opts ...Option) (*kernel.Wire, error) {
	o := options{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if len(points) < 2 {
		return nil, &kernel.GeometryError{Op: "wire", Message: "too few points"}
	}

	// Identical first and last points always close the wire.
	if points[0].Sub(points[len(points)-1]).Length() <= o.tolerance {
		forceClosed = true
	}

	used := Dedup(points, o.tolerance)
	if len(used) < 2 {
		return nil, &kernel.GeometryError{Op: "wire", Message: "too few points"}
	}
	start, end := used[0], used[len(used)-1]
	endsMeet := start.Sub(end).Length() <= o.tolerance
	if endsMeet && len(used) > 2 {
		used[len(used)-1] = start
	}
	if !endsMeet {
		o.continuity = kernel.C0
	}

	var w *kernel.Wire
	var err error
	switch alg {
	case BSpline:
		w, err = bsplineWire(g, used, o)
	case Polyline:
		w, err = polylineWire(g, used, o)
	default:
		return nil, &kernel.GeometryError{Op: "wire", Message: fmt.Sprintf("unsupported algorithm %v", alg)}
	}
	if err != nil {
		return nil, err
	}

	if forceClosed && !w.IsClosed(o.tolerance) {
		first, last := w.Edges[0].First, w.Edges[len(w.Edges)-1].Last
		closing := kernel.NewEdgeBetween(g.Line(w.End(), w.Start()), last, first)
		w.Edges = append(w.Edges, closing)
		if !w.IsClosed(o.tolerance) {
			return nil, &kernel.GeometryError{Op: "wire", Message: "wire closing failed"}
		}
	}
	return w, nil
}

func bsplineWire(g kernel.Geometry, pts []v3.Vec, o options) (*kernel.Wire, error) {
	c, err := g.Interpolate(pts, kernel.InterpolateOptions{
		Degree:       3,
		StartTangent: o.start,
		EndTangent:   o.end,
		Continuity:   o.continuity,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: interpolate %d points: %w", len(pts), err)
	}
	first := kernel.NewVertex(kernel.StartPoint(c))
	last := first
	if !kernel.IsClosedCurve(c, o.tolerance) {
		last = kernel.NewVertex(kernel.EndPoint(c))
	}
	return kernel.NewWire(kernel.NewEdgeBetween(c, first, last)), nil
}

func polylineWire(g kernel.Geometry, pts []v3.Vec, o options) (*kernel.Wire, error) {
	verts := make([]*kernel.Vertex, len(pts))
	for i, p := range pts {
		verts[i] = kernel.NewVertex(p)
	}
	if len(pts) > 2 && pts[0].Sub(pts[len(pts)-1]).Length() <= o.tolerance {
		verts[len(verts)-1] = verts[0]
	}
	w := kernel.NewWire()
	for i := 1; i < len(pts); i++ {
		w.Edges = append(w.Edges, kernel.NewEdgeBetween(g.Line(pts[i-1], pts[i]), verts[i-1], verts[i]))
	}
	return w, nil
}

// Dedup drops every point that lies within tol of its kept predecessor.
func Dedup(points []v3.Vec, tol float64) []v3.Vec {
	if len(points) == 0 {
		return nil
	}
	out := []v3.Vec{points[0]}
	prev := points[0]
	for _, p := range points[1:] {
		if prev.Sub(p).Length() <= tol {
			continue
		}
		out = append(out, p)
		prev = p
	}
	return out
}

// ---------------------------------------------------------------------------
// Extreme point queries
// ---------------------------------------------------------------------------

func extreme(points []v3.Vec, op string, better func(a, b v3.Vec) bool) (v3.Vec, error) {
	if len(points) == 0 {
		return v3.Vec{}, &kernel.GeometryError{Op: op, Message: "too few points"}
	}
	best := points[0]
	for _, p := range points[1:] {
		if better(p, best) {
			best = p
		}
	}
	return best, nil
}

// MinX returns the first point with the smallest x.
func MinX(points []v3.Vec) (v3.Vec, error) {
	return extreme(points, "min x", func(a, b v3.Vec) bool { return a.X < b.X })
}

// MaxX returns the first point with the largest x.
func MaxX(points []v3.Vec) (v3.Vec, error) {
	return extreme(points, "max x", func(a, b v3.Vec) bool { return a.X > b.X })
}

// MinY returns the first point with the smallest y.
func MinY(points []v3.Vec) (v3.Vec, error) {
	return extreme(points, "min y", func(a, b v3.Vec) bool { return a.Y < b.Y })
}

// MaxY returns the first point with the largest y.
func MaxY(points []v3.Vec) (v3.Vec, error) {
	return extreme(points, "max y", func(a, b v3.Vec) bool { return a.Y > b.Y })
}

// MinZ returns the first point with the smallest z.
func MinZ(points []v3.Vec) (v3.Vec, error) {
	return extreme(points, "min z", func(a, b v3.Vec) bool { return a.Z < b.Z })
}

// MaxZ returns the first point with the largest z.
func MaxZ(points []v3.Vec) (v3.Vec, error) {
	return extreme(points, "max z", func(a, b v3.Vec) bool { return a.Z > b.Z })
}
