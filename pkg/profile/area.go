package profile

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chazu/spar/pkg/kernel"
)

// outlineSamples is the number of intervals used to flatten each edge of
// the outline.
const outlineSamples = 128

// Outline returns the closed outline of the variant flattened into the xz
// plane as a ring of (x, z) points.
func (p *Profile) Outline(mod ShapeModifier) (orb.Ring, error) {
	w, err := p.Wire(mod)
	if err != nil {
		return nil, err
	}
	var ring orb.Ring
	for _, e := range w.Edges {
		pts := kernel.Sample(e.Curve, outlineSamples)
		if len(ring) > 0 {
			pts = pts[1:]
		}
		for _, q := range pts {
			ring = append(ring, orb.Point{q.X, q.Z})
		}
	}
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// Area returns the area enclosed by the sharp trailing-edge outline.
func (p *Profile) Area() (float64, error) {
	ring, err := p.Outline(SharpTrailingEdge)
	if err != nil {
		return 0, err
	}
	return math.Abs(planar.Area(ring)), nil
}

// Centroid returns the area centroid of the sharp trailing-edge outline
// on y = 0.
func (p *Profile) Centroid() (v3.Vec, error) {
	ring, err := p.Outline(SharpTrailingEdge)
	if err != nil {
		return v3.Vec{}, err
	}
	c, _ := planar.CentroidArea(ring)
	return v3.Vec{X: c[0], Z: c[1]}, nil
}
