package wire_test

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/kernel/nurbs"
	"github.com/chazu/spar/pkg/wire"
)

func pt(x, z float64) v3.Vec { return v3.Vec{X: x, Z: z} }

// airfoil is an open sample running TE lower -> LE -> TE upper.
func airfoil() []v3.Vec {
	return []v3.Vec{
		pt(1, -0.002), pt(0.7, -0.03), pt(0.3, -0.05), pt(0.05, -0.025), pt(0, 0),
		pt(0.05, 0.03), pt(0.3, 0.07), pt(0.7, 0.04), pt(1, 0.002),
	}
}

func TestBuildWireClosure(t *testing.T) {
	g := nurbs.New()
	closed := append(airfoil()[:8:8], pt(1, -0.002))

	tests := []struct {
		name        string
		alg         wire.Algorithm
		points      []v3.Vec
		forceClosed bool
		wantClosed  bool
		wantEdges   int
	}{
		{"bspline open", wire.BSpline, airfoil(), false, false, 1},
		{"bspline forced", wire.BSpline, airfoil(), true, true, 2},
		{"bspline coincident ends", wire.BSpline, closed, false, true, 1},
		{"polyline open", wire.Polyline, airfoil(), false, false, 8},
		{"polyline forced", wire.Polyline, airfoil(), true, true, 9},
		{"polyline coincident ends", wire.Polyline, closed, false, true, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := wire.BuildWire(g, tt.alg, tt.points, tt.forceClosed)
			if err != nil {
				t.Fatalf("BuildWire() error = %v", err)
			}
			if got := w.IsClosed(wire.DefaultTolerance); got != tt.wantClosed {
				t.Errorf("IsClosed() = %v, want %v", got, tt.wantClosed)
			}
			if w.Len() != tt.wantEdges {
				t.Errorf("edges = %d, want %d", w.Len(), tt.wantEdges)
			}
			if !w.IsConnected(wire.DefaultTolerance) {
				t.Error("wire edges are not connected")
			}
		})
	}
}

func TestBuildWireSharesClosingVertices(t *testing.T) {
	w, err := wire.BuildWire(nurbs.New(), wire.BSpline, airfoil(), true)
	if err != nil {
		t.Fatalf("BuildWire() error = %v", err)
	}
	curve, closing := w.Edges[0], w.Edges[1]
	if closing.First != curve.Last || closing.Last != curve.First {
		t.Error("closing edge should reuse the curve's end vertices")
	}
}

func TestBuildWireTooFewPoints(t *testing.T) {
	tests := []struct {
		name   string
		points []v3.Vec
	}{
		{"empty", nil},
		{"one point", []v3.Vec{pt(0, 0)}},
		{"duplicates only", []v3.Vec{pt(1, 0), pt(1, 1e-9), pt(1, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wire.BuildWire(nurbs.New(), wire.BSpline, tt.points, false)
			var gerr *kernel.GeometryError
			if !errors.As(err, &gerr) {
				t.Fatalf("error = %v, want GeometryError", err)
			}
			if gerr.Message != "too few points" {
				t.Errorf("message = %q, want %q", gerr.Message, "too few points")
			}
		})
	}
}

func TestBuildWireTwoPoints(t *testing.T) {
	w, err := wire.BuildWire(nurbs.New(), wire.BSpline, []v3.Vec{pt(0, 0), pt(1, 0)}, false)
	if err != nil {
		t.Fatalf("BuildWire() error = %v", err)
	}
	if w.Len() != 1 || w.IsClosed(wire.DefaultTolerance) {
		t.Fatalf("two-point wire: edges = %d closed = %v", w.Len(), w.IsClosed(wire.DefaultTolerance))
	}
	mid := w.Edges[0].Curve.Value(0.5)
	if mid.Sub(pt(0.5, 0)).Length() > 1e-12 {
		t.Errorf("midpoint = %v, want (0.5, 0, 0)", mid)
	}

	// Forced closure of two points is a there-and-back wire.
	w, err = wire.BuildWire(nurbs.New(), wire.BSpline, []v3.Vec{pt(0, 0), pt(1, 0)}, true)
	if err != nil {
		t.Fatalf("BuildWire(forceClosed) error = %v", err)
	}
	if w.Len() != 2 || !w.IsClosed(wire.DefaultTolerance) {
		t.Errorf("forced two-point wire: edges = %d closed = %v", w.Len(), w.IsClosed(wire.DefaultTolerance))
	}
}

func TestBuildWireContinuity(t *testing.T) {
	g := nurbs.New()
	closed := append(airfoil()[:8:8], pt(1, -0.002))
	w, err := wire.BuildWire(g, wire.BSpline, closed, false, wire.WithContinuity(kernel.C2))
	if err != nil {
		t.Fatalf("BuildWire() error = %v", err)
	}
	e := w.Edges[0]
	if got := g.Continuity(e, e, e.First); got != kernel.C2 {
		t.Errorf("seam continuity = %v, want C2", got)
	}

	// Open samples silently fall back to C0 and get a closing edge.
	w, err = wire.BuildWire(g, wire.BSpline, airfoil(), true, wire.WithContinuity(kernel.C2))
	if err != nil {
		t.Fatalf("BuildWire() error = %v", err)
	}
	if w.Len() != 2 {
		t.Errorf("edges = %d, want 2", w.Len())
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    wire.Algorithm
		wantErr bool
	}{
		{"bspline", wire.BSpline, false},
		{" Polyline ", wire.Polyline, false},
		{"linear", wire.Polyline, false},
		{"spline", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := wire.ParseAlgorithm(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtremePoints(t *testing.T) {
	pts := []v3.Vec{{X: 1, Y: 2, Z: 0}, {X: 0, Y: 2, Z: -1}, {X: 0, Y: -1, Z: 3}, {X: 1, Y: 5, Z: 3}}
	tests := []struct {
		name string
		fn   func([]v3.Vec) (v3.Vec, error)
		want v3.Vec
	}{
		{"min x keeps first", wire.MinX, pts[1]},
		{"max x keeps first", wire.MaxX, pts[0]},
		{"min y", wire.MinY, pts[2]},
		{"max y", wire.MaxY, pts[3]},
		{"min z", wire.MinZ, pts[1]},
		{"max z keeps first", wire.MaxZ, pts[2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(pts)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if _, err := tt.fn(nil); err == nil {
				t.Error("empty input should fail")
			}
		})
	}
}
