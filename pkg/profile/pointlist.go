package profile

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/wire"
)

// OrderPoints checks that samples run from the trailing edge over the
// lower side to the leading edge and back over the upper side. Samples in
// the opposite direction are reversed with a warning.
func OrderPoints(points []v3.Vec, log logrus.FieldLogger) ([]v3.Vec, error) {
	if len(points) < 2 {
		return nil, kernel.ValidationError{Field: "points", Message: fmt.Sprintf("need at least 2 points, got %d", len(points))}
	}
	minIdx, maxIdx := 0, 0
	for i, p := range points {
		if p.Z < points[minIdx].Z {
			minIdx = i
		}
		if p.Z > points[maxIdx].Z {
			maxIdx = i
		}
	}
	if minIdx == maxIdx {
		return nil, kernel.ValidationError{Field: "points", Message: "Unable to separate upper and lower wing profile"}
	}
	out := append([]v3.Vec(nil), points...)
	if minIdx > maxIdx {
		if log != nil {
			log.Warn("points don't seem to be ordered in a mathematical positive sense; reversing")
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// ComputeLETE finds the leading and trailing edge of the samples. The
// trailing edge is the midpoint of the first and last sample, the leading
// edge the sample farthest from it. Both are moved onto y = 0. A chord
// no longer than tol is degenerate.
func ComputeLETE(samples []v3.Vec, tol float64) (le, te v3.Vec, err error) {
	if len(samples) < 2 {
		return v3.Vec{}, v3.Vec{}, &kernel.GeometryError{Op: "lete", Message: fmt.Sprintf("need at least 2 samples, got %d", len(samples))}
	}
	te = samples[0].Add(samples[len(samples)-1]).MulScalar(0.5)
	best := -1.0
	for _, p := range samples {
		if d := p.Sub(te).Length(); d > best {
			le, best = p, d
		}
	}
	le.Y, te.Y = 0, 0
	if le.Sub(te).Length() <= tol {
		return v3.Vec{}, v3.Vec{}, &kernel.GeometryError{Op: "lete", Message: "leading and trailing edge coincide"}
	}
	return le, te, nil
}

// ShortenChord pulls te back along the chord so that it does not reach
// beyond the projection of the first or last sample.
func ShortenChord(samples []v3.Vec, le, te v3.Vec) v3.Vec {
	chord := te.Sub(le)
	l2 := chord.Length2()
	if l2 == 0 || len(samples) == 0 {
		return te
	}
	first := samples[0].Sub(le).Dot(chord) / l2
	last := samples[len(samples)-1].Sub(le).Dot(chord) / l2
	return le.Add(chord.MulScalar(math.Min(first, last)))
}

// closeProfilePoints blends the samples near the trailing edge so that
// the first and last point meet. The side running towards the trailing
// edge moves by half the gap in one direction, the side leaving it by
// half the gap in the other, both ramped in over the window.
func closeProfilePoints(points []v3.Vec, window float64) []v3.Vec {
	out := append([]v3.Vec(nil), points...)
	start, end := out[0], out[len(out)-1]
	gap := end.Sub(start)
	lastX := start.X
	for i, p := range out {
		x := p.X
		if x >= 1-window {
			shift := gap.MulScalar(0.5 * (x - (1 - window)) / window)
			if lastX < x {
				out[i] = p.Sub(shift)
			} else {
				out[i] = p.Add(shift)
			}
		}
		lastX = x
	}
	out[len(out)-1] = out[0]
	return out
}

// openProfilePoints spreads the samples near the trailing edge apart in
// z by a fraction of the profile thickness.
func openProfilePoints(points []v3.Vec, window, teGap float64) []v3.Vec {
	out := append([]v3.Vec(nil), points...)
	minZ, maxZ := 0.0, 0.0
	for _, p := range out {
		minZ = math.Min(minZ, p.Z)
		maxZ = math.Max(maxZ, p.Z)
	}
	delta := (maxZ - minZ) * teGap * 0.5
	lastX := out[0].X
	for i, p := range out {
		x := p.X
		if x >= 1-window {
			factor := (x - (1 - window)) / window
			if lastX >= x {
				out[i].Z = p.Z - factor*delta
			} else {
				out[i].Z = p.Z + factor*delta
			}
		}
		lastX = x
	}
	return out
}

// BuildClosedVariant fits the sharp trailing-edge wire. Open samples are
// closed by closeProfilePoints first.
func BuildClosedVariant(g kernel.Geometry, alg wire.Algorithm, samples []v3.Vec, cfg config.Config, opts ...wire.Option) (*kernel.Wire, error) {
	if err := checkAlgorithm(alg); err != nil {
		return nil, err
	}
	if len(samples) < 2 {
		return nil, &kernel.GeometryError{Op: "wire", Message: "too few points"}
	}
	pts := samples
	if isOpen(samples, cfg.Tolerance) {
		pts = closeProfilePoints(samples, cfg.BlendingWindow)
	}
	opts = append([]wire.Option{wire.WithTolerance(cfg.Tolerance)}, opts...)
	w, err := wire.BuildWire(g, alg, pts, true, opts...)
	if err != nil {
		return nil, fmt.Errorf("closed variant: %w", err)
	}
	return w, nil
}

// BuildOpenVariant fits the blunt trailing-edge wire. Closed samples are
// opened by openProfilePoints first.
func BuildOpenVariant(g kernel.Geometry, alg wire.Algorithm, samples []v3.Vec, cfg config.Config, opts ...wire.Option) (*kernel.Wire, error) {
	if err := checkAlgorithm(alg); err != nil {
		return nil, err
	}
	if len(samples) < 2 {
		return nil, &kernel.GeometryError{Op: "wire", Message: "too few points"}
	}
	pts := samples
	if !isOpen(samples, cfg.Tolerance) {
		pts = openProfilePoints(samples, cfg.BlendingWindow, cfg.TEGap)
	}
	opts = append([]wire.Option{wire.WithTolerance(cfg.Tolerance)}, opts...)
	w, err := wire.BuildWire(g, alg, pts, false, opts...)
	if err != nil {
		return nil, fmt.Errorf("open variant: %w", err)
	}
	return w, nil
}

func checkAlgorithm(alg wire.Algorithm) error {
	if alg != wire.BSpline {
		return &kernel.GeometryError{Op: "profile", Message: "Linear Wing Profiles are currently not supported"}
	}
	return nil
}
