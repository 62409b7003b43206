package profile

import (
	"errors"
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
)

// naca returns a symmetric four-digit section with the given thickness,
// ordered TE -> lower -> LE -> upper -> TE. The last coefficient picks a
// blunt (-0.1015) or sharp (-0.1036) trailing edge.
func naca(thickness, c4 float64, n int) []v3.Vec {
	yt := func(x float64) float64 {
		return 5 * thickness * (0.2969*math.Sqrt(x) - 0.1260*x - 0.3516*x*x + 0.2843*x*x*x + c4*x*x*x*x)
	}
	xs := make([]float64, n+1)
	for i := range xs {
		xs[i] = 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(n)))
	}
	var pts []v3.Vec
	for i := n; i >= 0; i-- {
		pts = append(pts, v3.Vec{X: xs[i], Z: -yt(xs[i])})
	}
	for i := 1; i <= n; i++ {
		pts = append(pts, v3.Vec{X: xs[i], Z: yt(xs[i])})
	}
	return pts
}

func TestComputeLETEDiamond(t *testing.T) {
	tests := []struct {
		name    string
		samples []v3.Vec
		wantLE  v3.Vec
		wantTE  v3.Vec
	}{
		{
			name:    "closed",
			samples: []v3.Vec{{X: 1}, {Z: -0.1}, {Z: 0.1}, {X: 1}},
			wantLE:  v3.Vec{Z: -0.1},
			wantTE:  v3.Vec{X: 1},
		},
		{
			name:    "open",
			samples: []v3.Vec{{X: 1}, {Z: -0.1}, {Z: 0.1}},
			wantLE:  v3.Vec{Z: -0.1},
			wantTE:  v3.Vec{X: 0.5, Z: 0.05},
		},
		{
			name:    "y dropped",
			samples: []v3.Vec{{X: 1, Y: 2}, {Y: 2, Z: -0.1}, {Y: 2, Z: 0.1}, {X: 1, Y: 2}},
			wantLE:  v3.Vec{Z: -0.1},
			wantTE:  v3.Vec{X: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le, te, err := ComputeLETE(tt.samples, 1e-7)
			if err != nil {
				t.Fatalf("ComputeLETE() error = %v", err)
			}
			if le.Sub(tt.wantLE).Length() > 1e-12 || te.Sub(tt.wantTE).Length() > 1e-12 {
				t.Errorf("LE, TE = %v, %v, want %v, %v", le, te, tt.wantLE, tt.wantTE)
			}
			if le.Y != 0 || te.Y != 0 {
				t.Errorf("LE/TE must lie on y = 0, got %v, %v", le, te)
			}
		})
	}

}

func TestComputeLETEDegenerate(t *testing.T) {
	tests := []struct {
		name    string
		samples []v3.Vec
		tol     float64
	}{
		{"single sample", []v3.Vec{{X: 1}}, 1e-7},
		{"no samples", nil, 1e-7},
		{"coincident", []v3.Vec{{X: 1}, {X: 1}, {X: 1}}, 1e-7},
		{"chord within tolerance", []v3.Vec{{X: 1e-9}, {}, {X: 1e-9}}, 1e-7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ComputeLETE(tt.samples, tt.tol)
			var gerr *kernel.GeometryError
			if !errors.As(err, &gerr) {
				t.Fatalf("ComputeLETE() error = %v, want GeometryError", err)
			}
		})
	}

	// The same tiny chord is accepted at a finer tolerance.
	if _, _, err := ComputeLETE([]v3.Vec{{X: 1e-9}, {}, {X: 1e-9}}, 1e-12); err != nil {
		t.Errorf("ComputeLETE() at tol 1e-12 error = %v", err)
	}
}

func TestShortenChord(t *testing.T) {
	samples := []v3.Vec{{X: 1.01, Z: -0.01}, {}, {X: 1, Z: 0.01}}
	le, te, err := ComputeLETE(samples, 1e-7)
	if err != nil {
		t.Fatal(err)
	}
	got := ShortenChord(samples, le, te)
	if !scalar.EqualWithinAbs(got.X, 1, 1e-12) || !scalar.EqualWithinAbs(got.Z, 0, 1e-12) {
		t.Errorf("ShortenChord() = %v, want (1, 0, 0)", got)
	}
}

func TestOrderPoints(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pts := naca(0.12, -0.1015, 20)

	got, err := OrderPoints(pts, logger)
	if err != nil {
		t.Fatalf("OrderPoints() error = %v", err)
	}
	if got[0] != pts[0] || len(hook.AllEntries()) != 0 {
		t.Error("correctly ordered points should pass unchanged and silently")
	}

	reversed := make([]v3.Vec, len(pts))
	for i, p := range pts {
		reversed[len(pts)-1-i] = p
	}
	got, err = OrderPoints(reversed, logger)
	if err != nil {
		t.Fatalf("OrderPoints(reversed) error = %v", err)
	}
	if got[0] != pts[0] || got[len(got)-1] != pts[len(pts)-1] {
		t.Error("reversed points should be put back in order")
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("expected a warning, got %v", e)
	}
	if reversed[0] != pts[len(pts)-1] {
		t.Error("input slice must not be modified")
	}

	tests := []struct {
		name   string
		points []v3.Vec
	}{
		{"empty", nil},
		{"single", []v3.Vec{{X: 1}}},
		{"flat", []v3.Vec{{X: 1}, {X: 0.5}, {X: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OrderPoints(tt.points, logger)
			var verr kernel.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestCloseProfilePoints(t *testing.T) {
	cfg := config.Default()
	pts := naca(0.12, -0.1015, 30)
	closed := closeProfilePoints(pts, cfg.BlendingWindow)

	if closed[0] != closed[len(closed)-1] {
		t.Fatalf("ends differ: %v %v", closed[0], closed[len(closed)-1])
	}
	if !scalar.EqualWithinAbs(closed[0].Z, 0, 1e-12) {
		t.Errorf("symmetric gap should close on the chord, got z = %g", closed[0].Z)
	}
	for i, p := range pts {
		if p.X < 1-cfg.BlendingWindow && closed[i] != p {
			t.Fatalf("point %d outside the window moved: %v -> %v", i, p, closed[i])
		}
	}
	if pts[0].Z >= 0 {
		t.Fatal("input must not be modified")
	}
}

func TestOpenProfilePoints(t *testing.T) {
	cfg := config.Default()
	pts := naca(0.12, -0.1036, 30)
	if pts[0].Sub(pts[len(pts)-1]).Length() > 1e-12 {
		t.Fatal("fixture should have a sharp trailing edge")
	}
	opened := openProfilePoints(pts, cfg.BlendingWindow, cfg.TEGap)

	minZ, maxZ := 0.0, 0.0
	for _, p := range pts {
		minZ = math.Min(minZ, p.Z)
		maxZ = math.Max(maxZ, p.Z)
	}
	want := (maxZ - minZ) * cfg.TEGap
	gap := opened[len(opened)-1].Z - opened[0].Z
	if !scalar.EqualWithinAbs(gap, want, 1e-12) {
		t.Errorf("TE gap = %g, want %g", gap, want)
	}
	if opened[0].Z >= pts[0].Z {
		t.Error("lower TE point should move down")
	}
	for i, p := range pts {
		if p.X < 1-cfg.BlendingWindow && opened[i] != p {
			t.Fatalf("point %d outside the window moved", i)
		}
	}
}

func TestOutermostFollowsChordNormal(t *testing.T) {
	tests := []struct {
		name         string
		le, te       v2.Vec
		hits         []v2.Vec
		upper, lower v2.Vec
	}{
		{
			name:  "untwisted",
			le:    v2.Vec{},
			te:    v2.Vec{X: 1},
			hits:  []v2.Vec{{X: 0.5, Y: -0.05}, {X: 0.5, Y: 0.08}, {X: 0.5, Y: 0.02}},
			upper: v2.Vec{X: 0.5, Y: 0.08},
			lower: v2.Vec{X: 0.5, Y: -0.05},
		},
		{
			// chord along -z: the upper side is +x and all hits share z
			name:  "quarter turn",
			le:    v2.Vec{},
			te:    v2.Vec{Y: -1},
			hits:  []v2.Vec{{X: -0.1, Y: -0.5}, {X: 0.2, Y: -0.5}},
			upper: v2.Vec{X: 0.2, Y: -0.5},
			lower: v2.Vec{X: -0.1, Y: -0.5},
		},
		{
			// LE behind the TE: the upper side is -z
			name:  "reversed chord",
			le:    v2.Vec{X: 1},
			te:    v2.Vec{},
			hits:  []v2.Vec{{X: 0.5, Y: 0.1}, {X: 0.5, Y: -0.2}},
			upper: v2.Vec{X: 0.5, Y: -0.2},
			lower: v2.Vec{X: 0.5, Y: 0.1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin := tt.le.Add(tt.te).MulScalar(0.5)
			up := v2.Vec{X: tt.le.Y - tt.te.Y, Y: tt.te.X - tt.le.X}
			if got := outermost(tt.hits, origin, up, true); got != tt.upper {
				t.Errorf("upper hit = %v, want %v", got, tt.upper)
			}
			if got := outermost(tt.hits, origin, up, false); got != tt.lower {
				t.Errorf("lower hit = %v, want %v", got, tt.lower)
			}
		})
	}
}
