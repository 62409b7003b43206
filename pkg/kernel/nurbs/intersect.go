package nurbs

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

const (
	// rootSamples is the number of intervals scanned for sign changes.
	rootSamples = 512
	bisectIters = 80
	// polySamples is the polyline resolution for curve/curve candidates.
	polySamples = 200
)

// roots returns the sorted zeros of f on [a, b] found by sign changes
// between uniform samples, refined by bisection.
func roots(f func(float64) float64, a, b float64) []float64 {
	var out []float64
	h := (b - a) / rootSamples
	prevU, prevF := a, f(a)
	if prevF == 0 {
		out = append(out, a)
	}
	for i := 1; i <= rootSamples; i++ {
		u := a + float64(i)*h
		if i == rootSamples {
			u = b
		}
		fu := f(u)
		switch {
		case fu == 0:
			out = append(out, u)
		case prevF != 0 && math.Signbit(prevF) != math.Signbit(fu):
			out = append(out, bisect(f, prevU, u, prevF))
		}
		prevU, prevF = u, fu
	}
	return dedupSorted(out, 1e-9*math.Max(1, b-a))
}

func bisect(f func(float64) float64, lo, hi, flo float64) float64 {
	for i := 0; i < bisectIters; i++ {
		mid := 0.5 * (lo + hi)
		fm := f(mid)
		if fm == 0 {
			return mid
		}
		if math.Signbit(fm) == math.Signbit(flo) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

func dedupSorted(us []float64, eps float64) []float64 {
	sort.Float64s(us)
	var out []float64
	for _, u := range us {
		if len(out) > 0 && u-out[len(out)-1] <= eps {
			continue
		}
		out = append(out, u)
	}
	return out
}

// IntersectPlane returns the parameters where c crosses the plane through
// origin with the given normal.
func IntersectPlane(c kernel.Curve, origin, normal v3.Vec) []float64 {
	n := normal.Normalize()
	f := func(u float64) float64 { return c.Value(u).Sub(origin).Dot(n) }
	return roots(f, c.FirstParameter(), c.LastParameter())
}

// IntersectLine2D intersects the xz projection of c with the line through
// origin along dir. Points are returned as (x, z).
func IntersectLine2D(c kernel.Curve, origin, dir v2.Vec) []v2.Vec {
	d := dir.Normalize()
	f := func(u float64) float64 {
		p := c.Value(u)
		return d.X*(p.Z-origin.Y) - d.Y*(p.X-origin.X)
	}
	us := roots(f, c.FirstParameter(), c.LastParameter())
	pts := make([]v2.Vec, len(us))
	for i, u := range us {
		p := c.Value(u)
		pts[i] = v2.Vec{X: p.X, Y: p.Z}
	}
	return pts
}

// Intersect returns the points where a and b come within tol of each
// other. Candidates come from closest segment pairs of both polylines and
// are refined by Newton iteration on the squared distance.
func Intersect(a, b kernel.Curve, tol float64) []kernel.CurveHit {
	pa := samplePolyline(a)
	pb := samplePolyline(b)

	boxA := polyBounds(pa.points, tol)
	boxB := polyBounds(pb.points, tol)
	if !boxesOverlap(boxA, boxB) {
		return nil
	}

	reach := math.Max(pa.maxSegment, pb.maxSegment) + tol
	var hits []kernel.CurveHit
	for i := 0; i+1 < len(pa.points); i++ {
		for j := 0; j+1 < len(pb.points); j++ {
			s, t, dist := segmentDistance(pa.points[i], pa.points[i+1], pb.points[j], pb.points[j+1])
			if dist > reach {
				continue
			}
			u := pa.params[i] + s*(pa.params[i+1]-pa.params[i])
			v := pb.params[j] + t*(pb.params[j+1]-pb.params[j])
			u, v = refinePair(a, b, u, v)
			pu, pv := a.Value(u), b.Value(v)
			if pu.Sub(pv).Length() > tol {
				continue
			}
			hits = appendHit(hits, kernel.CurveHit{U: u, V: v, Point: pu.Add(pv).MulScalar(0.5)}, a, b)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].U < hits[j].U })
	return hits
}

type polyline struct {
	points     []v3.Vec
	params     []float64
	maxSegment float64
}

func samplePolyline(c kernel.Curve) polyline {
	first, last := c.FirstParameter(), c.LastParameter()
	pl := polyline{
		points: make([]v3.Vec, polySamples+1),
		params: make([]float64, polySamples+1),
	}
	for i := 0; i <= polySamples; i++ {
		u := first + (last-first)*float64(i)/polySamples
		pl.params[i] = u
		pl.points[i] = c.Value(u)
		if i > 0 {
			pl.maxSegment = math.Max(pl.maxSegment, pl.points[i].Sub(pl.points[i-1]).Length())
		}
	}
	return pl
}

func polyBounds(pts []v3.Vec, pad float64) [2]v3.Vec {
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	m := v3.Vec{X: pad, Y: pad, Z: pad}
	return [2]v3.Vec{lo.Sub(m), hi.Add(m)}
}

func boxesOverlap(a, b [2]v3.Vec) bool {
	return a[0].X <= b[1].X && b[0].X <= a[1].X &&
		a[0].Y <= b[1].Y && b[0].Y <= a[1].Y &&
		a[0].Z <= b[1].Z && b[0].Z <= a[1].Z
}

// appendHit adds h unless an equivalent hit is already present.
func appendHit(hits []kernel.CurveHit, h kernel.CurveHit, a, b kernel.Curve) []kernel.CurveHit {
	epsU := 1e-7 * math.Max(1, a.LastParameter()-a.FirstParameter())
	epsV := 1e-7 * math.Max(1, b.LastParameter()-b.FirstParameter())
	for _, o := range hits {
		if math.Abs(o.U-h.U) <= epsU && math.Abs(o.V-h.V) <= epsV {
			return hits
		}
	}
	return append(hits, h)
}

// refinePair minimizes |A(u) - B(v)|^2 by Newton steps, clamped to the
// curve domains.
func refinePair(a, b kernel.Curve, u, v float64) (float64, float64) {
	a0, a1 := a.FirstParameter(), a.LastParameter()
	b0, b1 := b.FirstParameter(), b.LastParameter()
	for it := 0; it < newtonIters; it++ {
		pa, pb := a.Value(u), b.Value(v)
		da1, da2 := a.Derivatives(u)
		db1, db2 := b.Derivatives(v)
		d := pa.Sub(pb)

		gu := d.Dot(da1)
		gv := -d.Dot(db1)
		huu := da1.Dot(da1) + d.Dot(da2)
		hvv := db1.Dot(db1) - d.Dot(db2)
		huv := -da1.Dot(db1)

		det := huu*hvv - huv*huv
		var du, dv float64
		if math.Abs(det) < 1e-300 {
			// degenerate: fall back to independent steps
			if huu != 0 {
				du = -gu / huu
			}
			if hvv != 0 {
				dv = -gv / hvv
			}
		} else {
			du = -(hvv*gu - huv*gv) / det
			dv = -(huu*gv - huv*gu) / det
		}
		nu := clampParam(u+du, a0, a1)
		nv := clampParam(v+dv, b0, b1)
		if math.Abs(nu-u) < 1e-15*math.Max(1, a1-a0) && math.Abs(nv-v) < 1e-15*math.Max(1, b1-b0) {
			return nu, nv
		}
		// keep the step only if it does not increase the distance
		if a.Value(nu).Sub(b.Value(nv)).Length2() > d.Length2() {
			nu = u + 0.5*(nu-u)
			nv = v + 0.5*(nv-v)
		}
		u, v = nu, nv
	}
	return u, v
}

// segmentDistance returns the closest parameters s, t on segments p1q1 and
// p2q2 and the distance between the closest points.
func segmentDistance(p1, q1, p2, q2 v3.Vec) (s, t, dist float64) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	const eps = 1e-300
	switch {
	case a <= eps && e <= eps:
		return 0, 0, r.Length()
	case a <= eps:
		t = clampParam(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clampParam(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = clampParam((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clampParam(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = clampParam((b-c)/a, 0, 1)
			}
		}
	}
	c1 := p1.Add(d1.MulScalar(s))
	c2 := p2.Add(d2.MulScalar(t))
	return s, t, c1.Sub(c2).Length()
}
