package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/integrate/quad"
)

// Curve is a bounded parametric curve in model space.
type Curve interface {
	Value(u float64) v3.Vec
	// Derivatives returns the first and second derivative at u.
	Derivatives(u float64) (d1, d2 v3.Vec)
	FirstParameter() float64
	LastParameter() float64
}

// StartPoint returns c evaluated at its first parameter.
func StartPoint(c Curve) v3.Vec { return c.Value(c.FirstParameter()) }

// EndPoint returns c evaluated at its last parameter.
func EndPoint(c Curve) v3.Vec { return c.Value(c.LastParameter()) }

// IsClosedCurve reports whether the end points of c coincide within tol.
func IsClosedCurve(c Curve, tol float64) bool {
	return StartPoint(c).Sub(EndPoint(c)).Length() <= tol
}

// ---------------------------------------------------------------------------
// Curve wrappers
// ---------------------------------------------------------------------------

// trimmedCurve restricts a basis curve to a sub-range.
type trimmedCurve struct {
	basis  Curve
	u0, u1 float64
}

func (t *trimmedCurve) Value(u float64) v3.Vec                { return t.basis.Value(clamp(u, t.u0, t.u1)) }
func (t *trimmedCurve) Derivatives(u float64) (d1, d2 v3.Vec) { return t.basis.Derivatives(clamp(u, t.u0, t.u1)) }
func (t *trimmedCurve) FirstParameter() float64               { return t.u0 }
func (t *trimmedCurve) LastParameter() float64                { return t.u1 }

// TrimCurve restricts c to [u0, u1]. Trimming a trimmed curve trims its
// basis so wrappers never nest.
func TrimCurve(c Curve, u0, u1 float64) (Curve, error) {
	if !(u0 < u1) {
		return nil, geometryErrorf("trim", "empty parameter range [%g, %g]", u0, u1)
	}
	first, last := c.FirstParameter(), c.LastParameter()
	eps := 1e-12 * math.Max(1, math.Abs(last-first))
	if u0 < first-eps || u1 > last+eps {
		return nil, geometryErrorf("trim", "range [%g, %g] outside curve domain [%g, %g]", u0, u1, first, last)
	}
	u0 = math.Max(u0, first)
	u1 = math.Min(u1, last)
	if t, ok := c.(*trimmedCurve); ok {
		return &trimmedCurve{basis: t.basis, u0: u0, u1: u1}, nil
	}
	return &trimmedCurve{basis: c, u0: u0, u1: u1}, nil
}

// reversedCurve traverses a basis curve backwards over the same domain.
type reversedCurve struct {
	basis Curve
}

func (r *reversedCurve) mirror(u float64) float64 {
	return r.basis.FirstParameter() + r.basis.LastParameter() - u
}

func (r *reversedCurve) Value(u float64) v3.Vec { return r.basis.Value(r.mirror(u)) }
func (r *reversedCurve) Derivatives(u float64) (d1, d2 v3.Vec) {
	d1, d2 = r.basis.Derivatives(r.mirror(u))
	return d1.Neg(), d2
}
func (r *reversedCurve) FirstParameter() float64 { return r.basis.FirstParameter() }
func (r *reversedCurve) LastParameter() float64  { return r.basis.LastParameter() }

// Reverse returns c traversed in the opposite direction.
func Reverse(c Curve) Curve {
	if r, ok := c.(*reversedCurve); ok {
		return r.basis
	}
	return &reversedCurve{basis: c}
}

// rescaledCurve maps [a, b] affinely onto the basis domain.
type rescaledCurve struct {
	basis Curve
	a, b  float64
	scale float64 // basis units per new unit
}

func (s *rescaledCurve) toBasis(u float64) float64 {
	return s.basis.FirstParameter() + (u-s.a)*s.scale
}

func (s *rescaledCurve) Value(u float64) v3.Vec { return s.basis.Value(s.toBasis(u)) }
func (s *rescaledCurve) Derivatives(u float64) (d1, d2 v3.Vec) {
	d1, d2 = s.basis.Derivatives(s.toBasis(u))
	return d1.MulScalar(s.scale), d2.MulScalar(s.scale * s.scale)
}
func (s *rescaledCurve) FirstParameter() float64 { return s.a }
func (s *rescaledCurve) LastParameter() float64  { return s.b }

// Reparametrize maps the domain of c onto [a, b].
func Reparametrize(c Curve, a, b float64) Curve {
	if r, ok := c.(*rescaledCurve); ok {
		c = r.basis
	}
	if c.FirstParameter() == a && c.LastParameter() == b {
		return c
	}
	return &rescaledCurve{
		basis: c,
		a:     a,
		b:     b,
		scale: (c.LastParameter() - c.FirstParameter()) / (b - a),
	}
}

// transformedCurve maps a basis curve through an affine transform.
type transformedCurve struct {
	basis Curve
	m     sdf.M44
}

func (t *transformedCurve) Value(u float64) v3.Vec { return t.m.MulPosition(t.basis.Value(u)) }
func (t *transformedCurve) Derivatives(u float64) (d1, d2 v3.Vec) {
	d1, d2 = t.basis.Derivatives(u)
	return t.direction(d1), t.direction(d2)
}
func (t *transformedCurve) FirstParameter() float64 { return t.basis.FirstParameter() }
func (t *transformedCurve) LastParameter() float64  { return t.basis.LastParameter() }

func (t *transformedCurve) direction(d v3.Vec) v3.Vec {
	return t.m.MulPosition(d).Sub(t.m.MulPosition(v3.Vec{}))
}

// TransformCurve returns c mapped through the affine transform m. The
// parametrization is unchanged.
func TransformCurve(c Curve, m sdf.M44) Curve {
	if t, ok := c.(*transformedCurve); ok {
		return &transformedCurve{basis: t.basis, m: m.Mul(t.m)}
	}
	return &transformedCurve{basis: c, m: m}
}

// ProjectXZ flattens c onto the y = 0 plane.
func ProjectXZ(c Curve) Curve {
	return &xzCurve{basis: c}
}

type xzCurve struct {
	basis Curve
}

func (p *xzCurve) Value(u float64) v3.Vec {
	v := p.basis.Value(u)
	v.Y = 0
	return v
}
func (p *xzCurve) Derivatives(u float64) (d1, d2 v3.Vec) {
	d1, d2 = p.basis.Derivatives(u)
	d1.Y, d2.Y = 0, 0
	return d1, d2
}
func (p *xzCurve) FirstParameter() float64 { return p.basis.FirstParameter() }
func (p *xzCurve) LastParameter() float64  { return p.basis.LastParameter() }

// ---------------------------------------------------------------------------
// Sampling and measures
// ---------------------------------------------------------------------------

// Sample evaluates c at n+1 uniformly spaced parameters.
func Sample(c Curve, n int) []v3.Vec {
	if n < 1 {
		n = 1
	}
	first, last := c.FirstParameter(), c.LastParameter()
	pts := make([]v3.Vec, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.Value(first + (last-first)*float64(i)/float64(n))
	}
	return pts
}

// SampledBounds returns the bounding box of n+1 samples of c.
func SampledBounds(c Curve, n int) sdf.Box3 {
	pts := Sample(c, n)
	box := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// lengthIntervals splits the domain for piecewise Gauss-Legendre quadrature.
const lengthIntervals = 32

// Length returns the arc length of c.
func Length(c Curve) float64 {
	speed := func(u float64) float64 {
		d1, _ := c.Derivatives(u)
		return d1.Length()
	}
	first, last := c.FirstParameter(), c.LastParameter()
	h := (last - first) / lengthIntervals
	total := 0.0
	for i := 0; i < lengthIntervals; i++ {
		a := first + float64(i)*h
		total += quad.Fixed(speed, a, a+h, 8, quad.Legendre{}, 0)
	}
	return total
}

func clamp(u, lo, hi float64) float64 {
	if u < lo {
		return lo
	}
	if u > hi {
		return hi
	}
	return u
}
