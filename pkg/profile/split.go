package profile

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
)

// splitAtLE cuts c at the parameter nearest to le.
func splitAtLE(g kernel.Geometry, c kernel.Curve, le v3.Vec) (head, tail kernel.Curve, err error) {
	first, last := c.FirstParameter(), c.LastParameter()
	u, _ := g.Project(c, le)
	eps := 1e-9 * (last - first)
	if u <= first+eps || u >= last-eps {
		return nil, nil, &kernel.GeometryError{Op: "split", Message: fmt.Sprintf("leading edge projects onto the curve end (u = %g)", u)}
	}
	if head, err = g.Trim(c, first, u); err != nil {
		return nil, nil, err
	}
	if tail, err = g.Trim(c, u, last); err != nil {
		return nil, nil, err
	}
	return head, tail, nil
}

// SplitUpperLower splits c at the leading edge. The half whose bounding
// box lies higher in z is the upper curve.
func SplitUpperLower(g kernel.Geometry, c kernel.Curve, le v3.Vec) (upper, lower kernel.Curve, err error) {
	head, tail, err := splitAtLE(g, c, le)
	if err != nil {
		return nil, nil, err
	}
	hb, tb := g.BoundingBox(head), g.BoundingBox(tail)
	if hb.Center().Z > tb.Center().Z {
		return head, tail, nil
	}
	return tail, head, nil
}

// SplitKnownOrder splits c at the leading edge when the curve is known to
// run over the upper side first, as generated CST samples do.
func SplitKnownOrder(g kernel.Geometry, c kernel.Curve, le v3.Vec) (upper, lower kernel.Curve, err error) {
	head, tail, err := splitAtLE(g, c, le)
	if err != nil {
		return nil, nil, err
	}
	return head, tail, nil
}

// TrimSkewedTrailingEdge cuts the profile halves at the plane through te
// normal to the chord. Samples with a skewed trailing edge reach past
// that plane on one side; the overhang is removed from the half and from
// the combined curve. Trims longer than cfg.SkewWarnRelDist of the chord
// are logged.
func TrimSkewedTrailingEdge(g kernel.Geometry, upper, lower, combined kernel.Curve, le, te v3.Vec, cfg config.Config, log logrus.FieldLogger) (kernel.Curve, kernel.Curve, kernel.Curve, error) {
	chord := te.Sub(le)
	chordLen := chord.Length()
	if chordLen == 0 {
		return nil, nil, nil, &kernel.GeometryError{Op: "trim", Message: "zero chord"}
	}
	normal := chord.DivScalar(chordLen)
	start, end := combined.FirstParameter(), combined.LastParameter()

	trim := func(side string, c kernel.Curve) (kernel.Curve, error) {
		first, last := c.FirstParameter(), c.LastParameter()
		leading := startsCombined(c, combined)
		w, ok := 0.0, false
		for _, u := range g.IntersectPlane(c, te, normal) {
			if u <= first+cfg.TolParam || u >= last-cfg.TolParam {
				continue
			}
			if leading && !ok {
				w, ok = u, true
			}
			if !leading {
				w, ok = u, true
			}
		}
		if !ok {
			return c, nil
		}
		var (
			ref v3.Vec
			out kernel.Curve
			err error
		)
		if leading {
			ref = kernel.StartPoint(c)
			out, err = g.Trim(c, w, last)
			start = w
		} else {
			ref = kernel.EndPoint(c)
			out, err = g.Trim(c, first, w)
			end = w
		}
		if err != nil {
			return nil, err
		}
		relDist := c.Value(w).Sub(ref).Length() / chordLen
		if relDist > cfg.SkewWarnRelDist && log != nil {
			log.WithFields(logrus.Fields{"side": side, "relDist": relDist}).
				Warn("skewed trailing edge trimmed")
		}
		return out, nil
	}

	var err error
	if upper, err = trim("upper", upper); err != nil {
		return nil, nil, nil, err
	}
	if lower, err = trim("lower", lower); err != nil {
		return nil, nil, nil, err
	}
	if start != combined.FirstParameter() || end != combined.LastParameter() {
		if combined, err = g.Trim(combined, start, end); err != nil {
			return nil, nil, nil, err
		}
	}
	return upper, lower, combined, nil
}
