package profile

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/wire"
)

// CST holds the class/shape transformation parameters of a profile.
// Each side is x^N1 * (1-x)^N2 * sum(B[i] * bernstein(i, len(B)-1, x)).
type CST struct {
	UpperN1, UpperN2 float64
	UpperB           []float64
	LowerN1, LowerN2 float64
	LowerB           []float64
	// Psi are the chord positions the profile is sampled at.
	Psi []float64
	// TEThickness opens the trailing edge linearly in psi, half on each
	// side.
	TEThickness float64
}

func (c CST) clone() CST {
	c.UpperB = append([]float64(nil), c.UpperB...)
	c.LowerB = append([]float64(nil), c.LowerB...)
	c.Psi = append([]float64(nil), c.Psi...)
	return c
}

func (c CST) validate() error {
	scalars := []struct {
		name string
		v    float64
	}{
		{"upperN1", c.UpperN1}, {"upperN2", c.UpperN2},
		{"lowerN1", c.LowerN1}, {"lowerN2", c.LowerN2},
	}
	for _, s := range scalars {
		if math.IsNaN(s.v) || s.v < 0 {
			return kernel.ValidationError{Field: s.name, Message: fmt.Sprintf("exponent must be non-negative, got %g", s.v)}
		}
	}
	if len(c.UpperB) == 0 || len(c.LowerB) == 0 {
		return kernel.ValidationError{Field: "B", Message: "upper and lower coefficients are required"}
	}
	if c.TEThickness < 0 {
		return kernel.ValidationError{Field: "trailingEdgeThickness", Message: fmt.Sprintf("must be non-negative, got %g", c.TEThickness)}
	}
	return nil
}

// NormalizePsi sorts psi and makes it span [0, 1]. Two values or fewer are
// replaced by {0, 1}.
func NormalizePsi(psi []float64, tol float64) ([]float64, error) {
	if len(psi) <= 2 {
		return []float64{0, 1}, nil
	}
	out := append([]float64(nil), psi...)
	sort.Float64s(out)
	if out[0] < 0 || out[len(out)-1] > 1 {
		return nil, kernel.ValidationError{Field: "psi", Message: fmt.Sprintf("values must lie in [0, 1], got [%g, %g]", out[0], out[len(out)-1])}
	}
	if out[len(out)-1] < 1-tol {
		out = append(out, 1)
	}
	if out[0] > tol {
		out = append([]float64{0}, out...)
	}
	return out, nil
}

// CosinePsi returns n+1 chord positions clustered at both ends:
// psi_i = (1 - cos(pi*i/n)) / 2.
func CosinePsi(n int) []float64 {
	if n < 1 {
		n = 1
	}
	psi := make([]float64, n+1)
	for i := range psi {
		psi[i] = 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(n)))
	}
	psi[0], psi[n] = 0, 1
	return psi
}

func bernstein(i, n int, x float64) float64 {
	if i < 0 || i > n {
		return 0
	}
	return float64(combin.Binomial(n, i)) * math.Pow(x, float64(i)) * math.Pow(1-x, float64(n-i))
}

func shape(b []float64, x float64) float64 {
	n := len(b) - 1
	s := 0.0
	for i, bi := range b {
		s += bi * bernstein(i, n, x)
	}
	return s
}

func shapeDerivative(b []float64, x float64) float64 {
	n := len(b) - 1
	if n < 1 {
		return 0
	}
	s := 0.0
	for i, bi := range b {
		s += bi * float64(n) * (bernstein(i-1, n-1, x) - bernstein(i, n-1, x))
	}
	return s
}

// ClassShape evaluates the CST function at psi.
func ClassShape(n1, n2 float64, b []float64, psi float64) float64 {
	return math.Pow(psi, n1) * math.Pow(1-psi, n2) * shape(b, psi)
}

// ClassShapeDerivative evaluates d/dpsi of ClassShape. It is infinite at
// psi = 0 when n1 < 1 and at psi = 1 when n2 < 1.
func ClassShapeDerivative(n1, n2 float64, b []float64, psi float64) float64 {
	class := math.Pow(psi, n1) * math.Pow(1-psi, n2)
	var dclass float64
	if n1 != 0 {
		dclass += n1 * math.Pow(psi, n1-1) * math.Pow(1-psi, n2)
	}
	if n2 != 0 {
		dclass -= n2 * math.Pow(psi, n1) * math.Pow(1-psi, n2-1)
	}
	return dclass*shape(b, psi) + class*shapeDerivative(b, psi)
}

// CSTTangent returns the unit tangent of the side with the given z sign
// (+1 upper, -1 lower) in the direction of increasing psi. Where the
// class function has an infinite slope the tangent is vertical.
func CSTTangent(n1, n2 float64, b []float64, psi, sign float64) v3.Vec {
	switch {
	case psi <= 0 && n1 < 1:
		return v3.Vec{Z: sign}
	case psi >= 1 && n2 < 1:
		return v3.Vec{Z: -sign}
	}
	dz := sign * ClassShapeDerivative(n1, n2, b, psi)
	return v3.Vec{X: 1, Z: dz}.Normalize()
}

// sides returns the upper and lower samples at every psi.
func (c CST) sides() (upper, lower []v3.Vec) {
	upper = make([]v3.Vec, len(c.Psi))
	lower = make([]v3.Vec, len(c.Psi))
	for i, x := range c.Psi {
		half := 0.5 * x * c.TEThickness
		upper[i] = v3.Vec{X: x, Z: ClassShape(c.UpperN1, c.UpperN2, c.UpperB, x) + half}
		lower[i] = v3.Vec{X: x, Z: -ClassShape(c.LowerN1, c.LowerN2, c.LowerB, x) - half}
	}
	return upper, lower
}

// walk returns the profile samples: the upper side from psi = 1 down to
// the first psi above 0, then the lower side from psi = 0 up to the last
// psi below 1.
func (c CST) walk() []v3.Vec {
	upper, lower := c.sides()
	n := len(c.Psi)
	out := make([]v3.Vec, 0, 2*n-2)
	for i := n - 1; i > 0; i-- {
		out = append(out, upper[i])
	}
	return append(out, lower[:n-1]...)
}

// wirePoints extends the walk by the lower trailing-edge sample so the
// fitted curve reaches the trailing edge on both sides.
func (c CST) wirePoints() []v3.Vec {
	_, lower := c.sides()
	return append(c.walk(), lower[len(lower)-1])
}

func (c CST) tangents() (start, end v3.Vec) {
	start = CSTTangent(c.UpperN1, c.UpperN2, c.UpperB, 1, 1).Neg()
	end = CSTTangent(c.LowerN1, c.LowerN2, c.LowerB, 1, -1)
	return start, end
}

func (p *Profile) buildCST() (*cache, error) {
	c := p.cst
	upper, lower := c.sides()
	le := upper[0]
	te := lower[len(lower)-1]
	if le.Sub(te).Length() == 0 {
		return nil, &kernel.GeometryError{Op: "lete", Message: "leading and trailing edge coincide"}
	}
	start, end := c.tangents()
	opts := []wire.Option{wire.WithTolerance(p.cfg.Tolerance), wire.WithTangents(start, end)}

	pts := c.wirePoints()
	cc := &cache{le: le, te: te, closedSamples: c.TEThickness <= p.cfg.TolConf}
	fitted, err := wire.BuildWire(p.g, p.alg, pts, false, opts...)
	if err != nil {
		return nil, fmt.Errorf("cst wire: %w", err)
	}
	if cc.blunt, err = p.makeVariant(fitted, le, te, "blunt", SplitKnownOrder); err != nil {
		return nil, err
	}

	closed := fitted
	if !cc.closedSamples {
		closed, err = wire.BuildWire(p.g, p.alg, closeProfilePoints(pts, p.cfg.BlendingWindow), true, opts...)
		if err != nil {
			return nil, fmt.Errorf("cst closed wire: %w", err)
		}
	}
	if cc.sharp, err = p.makeVariant(closed, le, te, "sharp", SplitKnownOrder); err != nil {
		return nil, err
	}
	cc.sharp.trailingEdge = nil
	return cc, nil
}
