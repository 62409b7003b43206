package nurbs

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Curve is a non-rational B-spline curve with a clamped or unclamped knot
// vector. Knots must hold len(Poles)+Degree+1 non-decreasing values.
type Curve struct {
	Degree int
	Knots  []float64
	Poles  []v3.Vec
}

// NewCurve validates the knot vector and returns the curve.
func NewCurve(degree int, knots []float64, poles []v3.Vec) (*Curve, error) {
	if degree < 1 {
		return nil, fmt.Errorf("nurbs: degree %d < 1", degree)
	}
	if len(poles) < degree+1 {
		return nil, fmt.Errorf("nurbs: %d poles cannot carry degree %d", len(poles), degree)
	}
	if len(knots) != len(poles)+degree+1 {
		return nil, fmt.Errorf("nurbs: %d knots, want %d", len(knots), len(poles)+degree+1)
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			return nil, fmt.Errorf("nurbs: knots decrease at index %d", i)
		}
	}
	return &Curve{Degree: degree, Knots: knots, Poles: poles}, nil
}

func (c *Curve) FirstParameter() float64 { return c.Knots[c.Degree] }
func (c *Curve) LastParameter() float64  { return c.Knots[len(c.Poles)] }

// Value evaluates the curve at u.
func (c *Curve) Value(u float64) v3.Vec {
	u = clampParam(u, c.FirstParameter(), c.LastParameter())
	span := findSpan(len(c.Poles)-1, c.Degree, u, c.Knots)
	n := basisFuns(span, u, c.Degree, c.Knots)
	var p v3.Vec
	for j := 0; j <= c.Degree; j++ {
		p = p.Add(c.Poles[span-c.Degree+j].MulScalar(n[j]))
	}
	return p
}

// Derivatives returns the first and second derivatives at u.
func (c *Curve) Derivatives(u float64) (d1, d2 v3.Vec) {
	u = clampParam(u, c.FirstParameter(), c.LastParameter())
	span := findSpan(len(c.Poles)-1, c.Degree, u, c.Knots)
	ders := dersBasisFuns(span, u, c.Degree, 2, c.Knots)
	for j := 0; j <= c.Degree; j++ {
		pole := c.Poles[span-c.Degree+j]
		d1 = d1.Add(pole.MulScalar(ders[1][j]))
		d2 = d2.Add(pole.MulScalar(ders[2][j]))
	}
	return d1, d2
}

// findSpan returns the knot span index containing u (Piegl & Tiller A2.1).
// n is the index of the last pole.
func findSpan(n, p int, u float64, knots []float64) int {
	if u >= knots[n+1] {
		return n
	}
	if u <= knots[p] {
		return p
	}
	low, high := p, n+1
	mid := (low + high) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basisFuns computes the p+1 non-vanishing basis functions at u (A2.2).
func basisFuns(span int, u float64, p int, knots []float64) []float64 {
	n := make([]float64, p+1)
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	n[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			temp := n[r] / (right[r+1] + left[j-r])
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
	return n
}

// dersBasisFuns computes the basis functions and their derivatives up to
// order nd at u (A2.3). Orders above p are zero. Result is ders[k][j].
func dersBasisFuns(span int, u float64, p, nd int, knots []float64) [][]float64 {
	ders := make([][]float64, nd+1)
	for k := range ders {
		ders[k] = make([]float64, p+1)
	}
	n := nd
	if n > p {
		n = p
	}

	ndu := make([][]float64, p+1)
	for i := range ndu {
		ndu[i] = make([]float64, p+1)
	}
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	ndu[0][0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			// lower triangle
			ndu[j][r] = right[r+1] + left[j-r]
			temp := ndu[r][j-1] / ndu[j][r]
			// upper triangle
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}
	for j := 0; j <= p; j++ {
		ders[0][j] = ndu[j][p]
	}

	a := [2][]float64{make([]float64, p+1), make([]float64, p+1)}
	for r := 0; r <= p; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1
		for k := 1; k <= n; k++ {
			d := 0.0
			rk := r - k
			pk := p - k
			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}
			j1 := 1
			if rk < -1 {
				j1 = -rk
			}
			j2 := p - r
			if r-1 <= pk {
				j2 = k - 1
			}
			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}
			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}
			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}

	r := float64(p)
	for k := 1; k <= n; k++ {
		for j := 0; j <= p; j++ {
			ders[k][j] *= r
		}
		r *= float64(p - k)
	}
	return ders
}

func clampParam(u, lo, hi float64) float64 {
	if u < lo {
		return lo
	}
	if u > hi {
		return hi
	}
	return u
}

// Line is a straight segment parametrized on [0, 1].
type Line struct {
	P0, P1 v3.Vec
}

func (l *Line) Value(u float64) v3.Vec {
	return l.P0.Add(l.P1.Sub(l.P0).MulScalar(u))
}

func (l *Line) Derivatives(u float64) (d1, d2 v3.Vec) {
	return l.P1.Sub(l.P0), v3.Vec{}
}

func (l *Line) FirstParameter() float64 { return 0 }
func (l *Line) LastParameter() float64  { return 1 }
