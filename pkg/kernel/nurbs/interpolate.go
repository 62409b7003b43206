package nurbs

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/spar/pkg/kernel"
)

// centripetal is the exponent used for the chord-length parametrization.
const centripetal = 0.5

// Parameters returns the normalized centripetal parameters of points on
// [0, 1]. Coincident points fall back to a uniform spacing.
func Parameters(points []v3.Vec, alpha float64) []float64 {
	params := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		d2 := points[i].Sub(points[i-1]).Length2()
		params[i] = params[i-1] + math.Pow(d2, alpha/2)
	}
	total := params[len(params)-1]
	for i := range params {
		if total < 1e-10 {
			params[i] = float64(i) / float64(len(params)-1)
		} else {
			params[i] /= total
		}
	}
	return params
}

// KnotsFromParameters builds the flat knot vector for interpolating at
// params. With closed set, extra poles carry the periodicity conditions
// and the knot vector is extended periodically instead of clamped.
func KnotsFromParameters(params []float64, degree int, closed bool) ([]float64, error) {
	if len(params) < 2 {
		return nil, fmt.Errorf("nurbs: need at least two parameters, got %d", len(params))
	}
	p := degree
	nCP := len(params)
	if closed {
		nCP += p - 1
	}
	nInner := nCP - p + 1
	inner := make([]float64, nInner)
	inner[0] = params[0]
	inner[nInner-1] = params[len(params)-1]

	switch {
	case closed && p%2 == 0:
		return nil, fmt.Errorf("nurbs: periodic knots need an odd degree, got %d", p)
	case closed:
		copy(inner, params)
	default:
		// averaging
		for j := 1; j < len(params)-p; j++ {
			sum := 0.0
			for i := j; i <= j+p-1; i++ {
				sum += params[i]
			}
			inner[j] = sum / float64(p)
		}
	}

	knots := make([]float64, 0, nInner+2*p)
	if closed {
		offset := inner[0] - inner[nInner-1]
		for i := 0; i < p; i++ {
			knots = append(knots, offset+inner[nInner-p-1+i])
		}
		knots = append(knots, inner...)
		for i := 0; i < p; i++ {
			knots = append(knots, -offset+inner[i+1])
		}
	} else {
		for i := 0; i < p; i++ {
			knots = append(knots, inner[0])
		}
		knots = append(knots, inner...)
		for i := 0; i < p; i++ {
			knots = append(knots, inner[nInner-1])
		}
	}
	return knots, nil
}

// Interpolate fits a B-spline through points.
//
// Without options the curve has degree min(3, n-1), centripetal parameters
// and averaged knots. End tangents switch to a clamped cubic with two
// derivative rows. A continuity above C0 is honoured only when the first
// and last points coincide on a cubic; it adds C1 and C2 seam rows.
func Interpolate(points []v3.Vec, opts kernel.InterpolateOptions) (*Curve, error) {
	n := len(points)
	if n < 2 {
		return nil, &kernel.GeometryError{Op: "interpolate", Message: "too few points"}
	}
	maxDegree := opts.Degree
	if maxDegree <= 0 {
		maxDegree = 3
	}
	params := Parameters(points, centripetal)

	if opts.StartTangent != nil || opts.EndTangent != nil {
		return interpolateTangents(points, params, opts)
	}

	degree := maxDegree
	if degree > n-1 {
		degree = n - 1
	}

	// Seam conditions need the odd-degree periodic knot layout.
	nCond := 0
	if opts.Continuity > kernel.C0 && degree == 3 && isClosedSample(points) {
		nCond = 2
	}

	knots, err := KnotsFromParameters(params, degree, nCond > 0)
	if err != nil {
		return nil, &kernel.GeometryError{Op: "interpolate", Err: err}
	}
	nCP := n + nCond
	a := mat.NewDense(nCP, nCP, nil)
	fillBasisRows(a, 0, degree, 0, knots, params, nCP)
	if nCond >= 1 {
		seamRow(a, n, degree, 1, knots, params[0], params[n-1], nCP)
	}
	if nCond >= 2 {
		seamRow(a, n+1, degree, 2, knots, params[0], params[n-1], nCP)
	}

	b := mat.NewDense(nCP, 3, nil)
	for i, p := range points {
		b.SetRow(i, []float64{p.X, p.Y, p.Z})
	}
	poles, err := solvePoles(a, b)
	if err != nil {
		return nil, err
	}
	return NewCurve(degree, knots, poles)
}

// interpolateTangents fits a clamped cubic through points with prescribed
// end derivatives scaled by the polygon length.
func interpolateTangents(points []v3.Vec, params []float64, opts kernel.InterpolateOptions) (*Curve, error) {
	const p = 3
	n := len(points)
	length := 0.0
	for i := 1; i < n; i++ {
		length += points[i].Sub(points[i-1]).Length()
	}

	// Only the given tangents add rows; the other end uses a natural
	// condition so the system stays square.
	nCP := n + 2
	knots := make([]float64, 0, nCP+p+1)
	for i := 0; i <= p; i++ {
		knots = append(knots, params[0])
	}
	knots = append(knots, params[1:n-1]...)
	for i := 0; i <= p; i++ {
		knots = append(knots, params[n-1])
	}

	a := mat.NewDense(nCP, nCP, nil)
	b := mat.NewDense(nCP, 3, nil)
	fillBasisRows(a, 0, p, 0, knots, params, nCP)
	for i, pt := range points {
		b.SetRow(i, []float64{pt.X, pt.Y, pt.Z})
	}

	endRow := func(row int, u float64, tangent *v3.Vec) {
		order := 1
		rhs := v3.Vec{}
		if tangent != nil {
			rhs = tangent.MulScalar(length)
		} else {
			order = 2
		}
		span := findSpan(nCP-1, p, u, knots)
		ders := dersBasisFuns(span, u, p, order, knots)
		for j := 0; j <= p; j++ {
			a.Set(row, span-p+j, ders[order][j])
		}
		b.SetRow(row, []float64{rhs.X, rhs.Y, rhs.Z})
	}
	endRow(n, params[0], opts.StartTangent)
	endRow(n+1, params[n-1], opts.EndTangent)

	poles, err := solvePoles(a, b)
	if err != nil {
		return nil, err
	}
	return NewCurve(p, knots, poles)
}

// fillBasisRows writes the basis function values (order 0) or derivatives
// at each parameter into consecutive rows starting at row.
func fillBasisRows(a *mat.Dense, row, p, order int, knots, params []float64, nCP int) {
	for i, u := range params {
		span := findSpan(nCP-1, p, u, knots)
		ders := dersBasisFuns(span, u, p, order, knots)
		for j := 0; j <= p; j++ {
			a.Set(row+i, span-p+j, ders[order][j])
		}
	}
}

// seamRow writes N^(order)(u0) - N^(order)(u1) into row.
func seamRow(a *mat.Dense, row, p, order int, knots []float64, u0, u1 float64, nCP int) {
	span := findSpan(nCP-1, p, u0, knots)
	ders := dersBasisFuns(span, u0, p, order, knots)
	for j := 0; j <= p; j++ {
		a.Set(row, span-p+j, a.At(row, span-p+j)+ders[order][j])
	}
	span = findSpan(nCP-1, p, u1, knots)
	ders = dersBasisFuns(span, u1, p, order, knots)
	for j := 0; j <= p; j++ {
		a.Set(row, span-p+j, a.At(row, span-p+j)-ders[order][j])
	}
}

func solvePoles(a, b *mat.Dense) ([]v3.Vec, error) {
	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, &kernel.GeometryError{Op: "interpolate", Message: "singular matrix", Err: err}
		}
	}
	rows, _ := x.Dims()
	poles := make([]v3.Vec, rows)
	for i := range poles {
		poles[i] = v3.Vec{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)}
	}
	return poles, nil
}

// isClosedSample compares the end points relative to the sample extent.
func isClosedSample(points []v3.Vec) bool {
	maxDist := 0.0
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			maxDist = math.Max(maxDist, points[i].Sub(points[j]).Length())
		}
	}
	return points[0].Sub(points[len(points)-1]).Length() <= 1e-12*maxDist
}
