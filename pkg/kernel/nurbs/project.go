package nurbs

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

const (
	// projectSamples seeds the Newton search for nearest points.
	projectSamples = 256
	newtonIters    = 30
)

// Project returns the parameter of the point on c nearest to p and the
// distance to it. A dense sample seeds a Newton iteration on
// (C(u) - p) . C'(u) = 0.
func Project(c kernel.Curve, p v3.Vec) (float64, float64) {
	first, last := c.FirstParameter(), c.LastParameter()
	best, bestDist := first, math.Inf(1)
	for i := 0; i <= projectSamples; i++ {
		u := first + (last-first)*float64(i)/projectSamples
		if d := c.Value(u).Sub(p).Length2(); d < bestDist {
			best, bestDist = u, d
		}
	}

	u := best
	for it := 0; it < newtonIters; it++ {
		d1, d2 := c.Derivatives(u)
		diff := c.Value(u).Sub(p)
		f := diff.Dot(d1)
		df := d1.Dot(d1) + diff.Dot(d2)
		if df == 0 {
			break
		}
		next := clampParam(u-f/df, first, last)
		if math.Abs(next-u) < 1e-14*math.Max(1, math.Abs(last-first)) {
			u = next
			break
		}
		u = next
	}
	if d := c.Value(u).Sub(p).Length2(); d > bestDist {
		u = best
	}
	return u, c.Value(u).Sub(p).Length()
}
