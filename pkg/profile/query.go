package profile

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

// ChordPoint returns the point at relative chord position xsi.
func (p *Profile) ChordPoint(xsi float64) (v3.Vec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.built()
	if err != nil {
		return v3.Vec{}, err
	}
	return c.le.Add(c.te.Sub(c.le).MulScalar(xsi)), nil
}

// UpperPoint returns the upper-side point at chord position xsi.
func (p *Profile) UpperPoint(xsi float64) (v3.Vec, error) { return p.Point(xsi, true) }

// LowerPoint returns the lower-side point at chord position xsi.
func (p *Profile) LowerPoint(xsi float64) (v3.Vec, error) { return p.Point(xsi, false) }

// Point intersects the line normal to the chord at xsi with the upper or
// lower curve of the unmodified profile. When the line meets the curve
// more than once the outermost hit wins.
func (p *Profile) Point(xsi float64, fromUpper bool) (v3.Vec, error) {
	if xsi < 0 || xsi > 1 {
		return v3.Vec{}, kernel.ValidationError{Field: "xsi", Message: fmt.Sprintf("%g is outside [0, 1]", xsi)}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.built()
	if err != nil {
		return v3.Vec{}, err
	}
	if xsi < p.cfg.Tolerance {
		return c.le, nil
	}
	if 1-xsi < p.cfg.Tolerance {
		return c.te, nil
	}
	v, err := p.variant(Unmodified)
	if err != nil {
		return v3.Vec{}, err
	}
	curve, side := v.lower.Curve, "lower"
	if fromUpper {
		curve, side = v.upper.Curve, "upper"
	}

	chordPoint := c.le.Add(c.te.Sub(c.le).MulScalar(xsi))
	origin := v2.Vec{X: chordPoint.X, Y: chordPoint.Z}
	// normal of the chord towards the upper side
	up := v2.Vec{X: c.le.Z - c.te.Z, Y: c.te.X - c.le.X}
	hits := p.g.IntersectLine2D(curve, origin, up)
	if len(hits) == 0 {
		return v3.Vec{}, kernel.NotFoundError{
			Query:   fmt.Sprintf("%s point at xsi=%g", side, xsi),
			Message: fmt.Sprintf("chord normal misses the %s curve of %s", side, p.uid),
		}
	}
	best := outermost(hits, origin, up, fromUpper)
	return v3.Vec{X: best.X, Y: 0, Z: best.Y}, nil
}

// outermost picks the hit farthest from the chord along up, or against
// it for the lower side.
func outermost(hits []v2.Vec, origin, up v2.Vec, fromUpper bool) v2.Vec {
	offset := func(h v2.Vec) float64 { return h.Sub(origin).Dot(up) }
	best := hits[0]
	for _, h := range hits[1:] {
		if d, b := offset(h), offset(best); (fromUpper && d > b) || (!fromUpper && d < b) {
			best = h
		}
	}
	return best
}
