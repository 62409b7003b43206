package nurbs

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

// CoonsPatch is a bilinearly or bicubically blended Coons surface over
// [0,1]^2 bounded by four curves.
type CoonsPatch struct {
	// bottom (u), right (v), top (u), left (v), all mapped onto [0, 1]
	bounds  [4]kernel.Curve
	corners [4]v3.Vec // P00, P10, P11, P01
	style   kernel.FillStyle
}

// closureRelTol is the corner mismatch accepted relative to the patch size.
const closureRelTol = 1e-3

// FillCoons builds a Coons patch. The boundary is ordered bottom, right,
// top, left, where bottom and top run along u and right and left along v.
func FillCoons(boundary [4]kernel.Curve, style kernel.FillStyle) (*CoonsPatch, error) {
	cp := &CoonsPatch{style: style}
	for i, c := range boundary {
		if c == nil {
			return nil, &kernel.GeometryError{Op: "coons", Message: fmt.Sprintf("boundary %d is nil", i)}
		}
		cp.bounds[i] = kernel.Reparametrize(c, 0, 1)
	}
	b := cp.bounds
	pairs := [4][2]v3.Vec{
		{kernel.StartPoint(b[0]), kernel.StartPoint(b[3])}, // P00
		{kernel.EndPoint(b[0]), kernel.StartPoint(b[1])},   // P10
		{kernel.EndPoint(b[2]), kernel.EndPoint(b[1])},     // P11
		{kernel.StartPoint(b[2]), kernel.EndPoint(b[3])},   // P01
	}
	size := pairs[0][0].Sub(pairs[2][0]).Length() + pairs[1][0].Sub(pairs[3][0]).Length()
	for i, p := range pairs {
		if gap := p[0].Sub(p[1]).Length(); gap > closureRelTol*size {
			return nil, &kernel.GeometryError{
				Op:      "coons",
				Message: fmt.Sprintf("boundary not closed at corner %d (gap %g)", i, gap),
			}
		}
		cp.corners[i] = p[0].Add(p[1]).MulScalar(0.5)
	}
	return cp, nil
}

func (cp *CoonsPatch) blend(t float64) float64 {
	if cp.style == kernel.StretchStyle {
		return t
	}
	return t * t * (3 - 2*t)
}

// Value evaluates the patch at (u, v).
func (cp *CoonsPatch) Value(u, v float64) v3.Vec {
	u = clampParam(u, 0, 1)
	v = clampParam(v, 0, 1)
	fu, fv := cp.blend(u), cp.blend(v)
	b := cp.bounds

	ruled := b[0].Value(u).MulScalar(1 - fv).
		Add(b[2].Value(u).MulScalar(fv)).
		Add(b[3].Value(v).MulScalar(1 - fu)).
		Add(b[1].Value(v).MulScalar(fu))

	c := cp.corners
	bilinear := c[0].MulScalar((1 - fu) * (1 - fv)).
		Add(c[1].MulScalar(fu * (1 - fv))).
		Add(c[2].MulScalar(fu * fv)).
		Add(c[3].MulScalar((1 - fu) * fv))
	return ruled.Sub(bilinear)
}

func (cp *CoonsPatch) Bounds() (u0, u1, v0, v1 float64) { return 0, 1, 0, 1 }

// Style returns the blending style of the patch.
func (cp *CoonsPatch) Style() kernel.FillStyle { return cp.style }
