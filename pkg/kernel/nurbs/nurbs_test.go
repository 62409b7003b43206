package nurbs

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/chazu/spar/pkg/kernel"
)

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

func near(a, b v3.Vec, tol float64) bool { return a.Sub(b).Length() <= tol }

func TestBasisPartitionOfUnity(t *testing.T) {
	knots := []float64{0, 0, 0, 0, 0.3, 0.5, 0.5, 0.8, 1, 1, 1, 1}
	const p = 3
	n := len(knots) - p - 2
	for _, u := range []float64{0, 0.1, 0.3, 0.49, 0.5, 0.75, 0.99, 1} {
		span := findSpan(n, p, u, knots)
		ders := dersBasisFuns(span, u, p, 2, knots)
		if got := floats.Sum(ders[0]); !scalar.EqualWithinAbs(got, 1, 1e-12) {
			t.Errorf("u=%g: sum N = %g, want 1", u, got)
		}
		if got := floats.Sum(ders[1]); !scalar.EqualWithinAbs(got, 0, 1e-9) {
			t.Errorf("u=%g: sum N' = %g, want 0", u, got)
		}
		basis := basisFuns(span, u, p, knots)
		for j := range basis {
			if !scalar.EqualWithinAbs(basis[j], ders[0][j], 1e-12) {
				t.Errorf("u=%g: basisFuns[%d] = %g, dersBasisFuns = %g", u, j, basis[j], ders[0][j])
			}
		}
	}
}

func TestDerivativeMatchesFiniteDifference(t *testing.T) {
	pts := []v3.Vec{vec(0, 0, 0), vec(1, 0.5, 0), vec(2, -0.3, 1), vec(3, 0, 0.2), vec(4, 1, 0)}
	c, err := Interpolate(pts, kernel.InterpolateOptions{})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	const h = 1e-6
	for _, u := range []float64{0.1, 0.37, 0.62, 0.9} {
		d1, d2 := c.Derivatives(u)
		fd1 := c.Value(u + h).Sub(c.Value(u - h)).DivScalar(2 * h)
		e1, _ := c.Derivatives(u + h)
		e0, _ := c.Derivatives(u - h)
		fd2 := e1.Sub(e0).DivScalar(2 * h)
		if !near(d1, fd1, 1e-4*math.Max(1, d1.Length())) {
			t.Errorf("u=%g: d1 = %v, finite difference %v", u, d1, fd1)
		}
		if !near(d2, fd2, 1e-3*math.Max(1, d2.Length())) {
			t.Errorf("u=%g: d2 = %v, finite difference %v", u, d2, fd2)
		}
	}
}

func TestParameters(t *testing.T) {
	pts := []v3.Vec{vec(0, 0, 0), vec(1, 0, 0), vec(5, 0, 0)}
	params := Parameters(pts, centripetal)
	want := []float64{0, 1.0 / 3, 1}
	if !floats.EqualApprox(params, want, 1e-12) {
		t.Errorf("Parameters() = %v, want %v", params, want)
	}

	same := Parameters([]v3.Vec{vec(1, 1, 1), vec(1, 1, 1), vec(1, 1, 1)}, centripetal)
	if !floats.EqualApprox(same, []float64{0, 0.5, 1}, 1e-12) {
		t.Errorf("coincident Parameters() = %v, want uniform", same)
	}
}

func TestKnotsFromParameters(t *testing.T) {
	params := []float64{0, 0.2, 0.4, 0.7, 1}
	knots, err := KnotsFromParameters(params, 3, false)
	if err != nil {
		t.Fatalf("KnotsFromParameters() error = %v", err)
	}
	want := []float64{0, 0, 0, 0, (0.2 + 0.4 + 0.7) / 3, 1, 1, 1, 1}
	if !floats.EqualApprox(knots, want, 1e-12) {
		t.Errorf("open knots = %v, want %v", knots, want)
	}

	closed, err := KnotsFromParameters(params, 3, true)
	if err != nil {
		t.Fatalf("closed KnotsFromParameters() error = %v", err)
	}
	if len(closed) != len(params)+2+3+1 {
		t.Fatalf("closed knots len = %d, want %d", len(closed), len(params)+6)
	}
	if closed[3] != 0 || closed[len(params)+2] != 1 {
		t.Errorf("closed domain = [%g, %g], want [0, 1]", closed[3], closed[len(params)+2])
	}

	if _, err := KnotsFromParameters(params, 2, true); err == nil {
		t.Error("even closed degree should be rejected")
	}
	if _, err := KnotsFromParameters([]float64{0}, 3, false); err == nil {
		t.Error("single parameter should be rejected")
	}
}

func TestInterpolatePassesThroughPoints(t *testing.T) {
	tests := []struct {
		name   string
		pts    []v3.Vec
		degree int
	}{
		{"two points", []v3.Vec{vec(0, 0, 0), vec(1, 1, 0)}, 1},
		{"three points", []v3.Vec{vec(0, 0, 0), vec(1, 1, 0), vec(2, 0, 0)}, 2},
		{"six points", []v3.Vec{vec(1, 0, 0), vec(0.6, 0, 0.06), vec(0.2, 0, 0.05), vec(0, 0, 0), vec(0.3, 0, -0.04), vec(1, 0, -0.001)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Interpolate(tt.pts, kernel.InterpolateOptions{})
			if err != nil {
				t.Fatalf("Interpolate() error = %v", err)
			}
			if c.Degree != tt.degree {
				t.Errorf("Degree = %d, want %d", c.Degree, tt.degree)
			}
			params := Parameters(tt.pts, centripetal)
			for i, p := range tt.pts {
				if got := c.Value(params[i]); !near(got, p, 1e-9) {
					t.Errorf("C(%g) = %v, want %v", params[i], got, p)
				}
			}
		})
	}
}

func TestInterpolateTooFewPoints(t *testing.T) {
	_, err := Interpolate([]v3.Vec{vec(0, 0, 0)}, kernel.InterpolateOptions{})
	if err == nil {
		t.Fatal("expected error for one point")
	}
}

func circlePoints(n int) []v3.Vec {
	pts := make([]v3.Vec, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = vec(math.Cos(a), 0, math.Sin(a))
	}
	pts[n] = pts[0]
	return pts
}

func TestInterpolateClosedContinuity(t *testing.T) {
	pts := circlePoints(12)
	c, err := Interpolate(pts, kernel.InterpolateOptions{Continuity: kernel.C2})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if len(c.Poles) != len(pts)+2 {
		t.Fatalf("poles = %d, want %d", len(c.Poles), len(pts)+2)
	}
	if !near(c.Value(0), c.Value(1), 1e-9) {
		t.Errorf("closed curve ends differ: %v %v", c.Value(0), c.Value(1))
	}
	a1, a2 := c.Derivatives(0)
	b1, b2 := c.Derivatives(1)
	if !near(a1, b1, 1e-6*a1.Length()) {
		t.Errorf("first derivative jump at seam: %v vs %v", a1, b1)
	}
	if !near(a2, b2, 1e-6*a2.Length()) {
		t.Errorf("second derivative jump at seam: %v vs %v", a2, b2)
	}

	seam := kernel.NewVertex(c.Value(0))
	e := kernel.NewEdgeBetween(c, seam, seam)
	if got := EdgeContinuity(e, e, seam); got != kernel.C2 {
		t.Errorf("seam continuity = %v, want C2", got)
	}

	plain, err := Interpolate(pts, kernel.InterpolateOptions{})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if len(plain.Poles) != len(pts) {
		t.Errorf("C0 closed curve poles = %d, want %d", len(plain.Poles), len(pts))
	}
}

func TestInterpolateTangents(t *testing.T) {
	pts := []v3.Vec{vec(0, 0, 0), vec(0.5, 0, 0.1), vec(1, 0, 0)}
	start := vec(0, 0, 1)
	end := vec(1, 0, -1).Normalize()
	c, err := Interpolate(pts, kernel.InterpolateOptions{StartTangent: &start, EndTangent: &end})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	d0, _ := c.Derivatives(0)
	d1, _ := c.Derivatives(1)
	if d0.Normalize().Sub(start).Length() > 1e-9 {
		t.Errorf("start tangent = %v, want %v", d0.Normalize(), start)
	}
	if d1.Normalize().Sub(end).Length() > 1e-9 {
		t.Errorf("end tangent = %v, want %v", d1.Normalize(), end)
	}
	params := Parameters(pts, centripetal)
	for i, p := range pts {
		if got := c.Value(params[i]); !near(got, p, 1e-9) {
			t.Errorf("C(%g) = %v, want %v", params[i], got, p)
		}
	}
}

func TestProject(t *testing.T) {
	c, err := Interpolate(circlePoints(24), kernel.InterpolateOptions{Continuity: kernel.C2})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	u, dist := Project(c, vec(2, 0, 0))
	if math.Abs(dist-1) > 1e-3 {
		t.Errorf("distance = %g, want ~1", dist)
	}
	if p := c.Value(u); !near(p, vec(1, 0, 0), 1e-3) {
		t.Errorf("projected point = %v, want (1,0,0)", p)
	}
	_, dist = Project(&Line{P0: vec(0, 0, 0), P1: vec(1, 0, 0)}, vec(0.5, 0, 2))
	if math.Abs(dist-2) > 1e-12 {
		t.Errorf("line distance = %g, want 2", dist)
	}
}

func TestIntersectPlaneAndLine(t *testing.T) {
	c, err := Interpolate(circlePoints(24), kernel.InterpolateOptions{Continuity: kernel.C2})
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	us := IntersectPlane(c, vec(0, 0, 0), vec(1, 0, 0))
	if len(us) != 2 {
		t.Fatalf("plane hits = %v, want 2", us)
	}
	for _, u := range us {
		if x := c.Value(u).X; math.Abs(x) > 1e-9 {
			t.Errorf("hit x = %g, want 0", x)
		}
	}

	pts := IntersectLine2D(c, v2.Vec{X: 0.5, Y: 0}, v2.Vec{X: 0, Y: 1})
	if len(pts) != 2 {
		t.Fatalf("line hits = %v, want 2", pts)
	}
	for _, p := range pts {
		if math.Abs(p.X-0.5) > 1e-9 || math.Abs(math.Abs(p.Y)-math.Sqrt(0.75)) > 1e-3 {
			t.Errorf("hit = %v, want (0.5, +-0.866)", p)
		}
	}
}

func TestIntersectCurves(t *testing.T) {
	a := &Line{P0: vec(0, 0, 0), P1: vec(2, 0, 0)}
	b := &Line{P0: vec(1, -1, 0), P1: vec(1, 1, 0)}
	hits := Intersect(a, b, 1e-7)
	if len(hits) != 1 {
		t.Fatalf("hits = %v, want 1", hits)
	}
	if !near(hits[0].Point, vec(1, 0, 0), 1e-9) {
		t.Errorf("hit point = %v, want (1,0,0)", hits[0].Point)
	}
	if math.Abs(hits[0].U-0.5) > 1e-9 || math.Abs(hits[0].V-0.5) > 1e-9 {
		t.Errorf("hit params = (%g, %g), want (0.5, 0.5)", hits[0].U, hits[0].V)
	}

	skew := &Line{P0: vec(1, -1, 0.5), P1: vec(1, 1, 0.5)}
	if hits := Intersect(a, skew, 1e-7); len(hits) != 0 {
		t.Errorf("skew lines hits = %v, want none", hits)
	}
}

func TestFuseSplitsAndSharesVertices(t *testing.T) {
	guide := kernel.NewEdge(&Line{P0: vec(0, -1, 0), P1: vec(0, 1, 0)})
	other := kernel.NewEdge(&Line{P0: vec(1, -1, 0), P1: vec(1, 1, 0)})
	tool := kernel.NewEdge(&Line{P0: vec(0, 0, 0), P1: vec(1, 0, 0)})

	res, err := Fuse([]*kernel.Edge{guide, other}, tool, 1e-7)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if len(res.Edges) != 5 {
		t.Fatalf("edges = %d, want 5", len(res.Edges))
	}
	if got := len(res.Modified[guide.ID]); got != 2 {
		t.Errorf("guide fragments = %d, want 2", got)
	}
	if got := len(res.Modified[tool.ID]); got != 1 {
		t.Errorf("tool fragments = %d, want 1 (re-bounded)", got)
	}

	byID := map[kernel.EdgeID]*kernel.Edge{}
	for _, e := range res.Edges {
		byID[e.ID] = e
	}
	newTool := byID[res.Modified[tool.ID][0]]
	g0 := byID[res.Modified[guide.ID][0]]
	g1 := byID[res.Modified[guide.ID][1]]
	if g0.Last != g1.First {
		t.Error("guide fragments should share the split vertex")
	}
	if newTool.First != g0.Last {
		t.Error("tool start should reuse the guide split vertex")
	}
	o0 := byID[res.Modified[other.ID][0]]
	if newTool.Last != o0.Last {
		t.Error("tool end should reuse the second guide split vertex")
	}
}

func TestFuseUntouched(t *testing.T) {
	a := kernel.NewEdge(&Line{P0: vec(0, 0, 0), P1: vec(1, 0, 0)})
	b := kernel.NewEdge(&Line{P0: vec(0, 1, 0), P1: vec(1, 1, 0)})
	res, err := Fuse([]*kernel.Edge{a}, b, 1e-7)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if len(res.Modified) != 0 {
		t.Errorf("Modified = %v, want empty", res.Modified)
	}
	if len(res.Edges) != 2 || res.Edges[0] != a || res.Edges[1] != b {
		t.Error("disjoint edges should pass through unchanged")
	}
}

func TestCoonsPatch(t *testing.T) {
	bottom := &Line{P0: vec(0, 0, 0), P1: vec(1, 0, 0)}
	right := &Line{P0: vec(1, 0, 0), P1: vec(1, 1, 0)}
	top := &Line{P0: vec(0, 1, 1), P1: vec(1, 1, 0)}
	left := &Line{P0: vec(0, 0, 0), P1: vec(0, 1, 1)}

	for _, style := range []kernel.FillStyle{kernel.StretchStyle, kernel.CoonsStyle} {
		t.Run(style.String(), func(t *testing.T) {
			s, err := FillCoons([4]kernel.Curve{bottom, right, top, left}, style)
			if err != nil {
				t.Fatalf("FillCoons() error = %v", err)
			}
			for _, u := range []float64{0, 0.25, 0.5, 1} {
				if got := s.Value(u, 0); !near(got, bottom.Value(u), 1e-12) {
					t.Errorf("S(%g,0) = %v, want %v", u, got, bottom.Value(u))
				}
				if got := s.Value(u, 1); !near(got, top.Value(u), 1e-12) {
					t.Errorf("S(%g,1) = %v, want %v", u, got, top.Value(u))
				}
				if got := s.Value(0, u); !near(got, left.Value(u), 1e-12) {
					t.Errorf("S(0,%g) = %v, want %v", u, got, left.Value(u))
				}
			}
		})
	}

	open := &Line{P0: vec(0, 2, 0), P1: vec(1, 1, 0)}
	if _, err := FillCoons([4]kernel.Curve{bottom, right, open, left}, kernel.StretchStyle); err == nil {
		t.Error("open boundary should fail")
	}
}

func TestSew(t *testing.T) {
	p := []v3.Vec{vec(0, 0, 0), vec(1, 0, 0), vec(2, 0, 0), vec(0, 1, 0), vec(1, 1, 0), vec(2, 1, 0)}
	vs := make([]*kernel.Vertex, len(p))
	for i := range p {
		vs[i] = kernel.NewVertex(p[i])
	}
	edge := func(a, b int) *kernel.Edge {
		return kernel.NewEdgeBetween(&Line{P0: p[a], P1: p[b]}, vs[a], vs[b])
	}
	b0, b1 := edge(0, 1), edge(1, 2)
	t0, t1 := edge(3, 4), edge(4, 5)
	l, m, r := edge(0, 3), edge(1, 4), edge(2, 5)

	loop := func(bottom, right, top, left *kernel.Edge) *kernel.Face {
		return &kernel.Face{Boundary: []kernel.OrientedEdge{
			{Edge: bottom}, {Edge: right}, {Edge: top, Reversed: true}, {Edge: left, Reversed: true},
		}}
	}
	shell, err := Sew([]*kernel.Face{loop(b0, m, t0, l), loop(b1, r, t1, m)}, 1e-9)
	if err != nil {
		t.Fatalf("Sew() error = %v", err)
	}
	if len(shell.Shared) != 1 || shell.Shared[0] != m.ID {
		t.Errorf("Shared = %v, want [%d]", shell.Shared, m.ID)
	}
	if len(shell.Free) != 6 {
		t.Errorf("Free = %v, want 6 edges", shell.Free)
	}
	if shell.IsClosed() {
		t.Error("two-face shell should not be closed")
	}

	broken := &kernel.Face{Boundary: []kernel.OrientedEdge{{Edge: b0}, {Edge: t1}}}
	if _, err := Sew([]*kernel.Face{broken}, 1e-9); err == nil {
		t.Error("open boundary loop should fail")
	}
}

func TestEdgeContinuity(t *testing.T) {
	v := kernel.NewVertex(vec(1, 0, 0))
	a := kernel.NewEdgeBetween(&Line{P0: vec(0, 0, 0), P1: vec(1, 0, 0)}, kernel.NewVertex(vec(0, 0, 0)), v)
	b := kernel.NewEdgeBetween(&Line{P0: vec(1, 0, 0), P1: vec(2, 0, 0)}, v, kernel.NewVertex(vec(2, 0, 0)))
	c := kernel.NewEdgeBetween(&Line{P0: vec(1, 0, 0), P1: vec(1, 1, 0)}, v, kernel.NewVertex(vec(1, 1, 0)))

	if got := EdgeContinuity(a, b, v); got != kernel.C2 {
		t.Errorf("collinear lines = %v, want C2", got)
	}
	if got := EdgeContinuity(a, c, v); got != kernel.C0 {
		t.Errorf("corner = %v, want C0", got)
	}
	if got := EdgeContinuity(a, b, kernel.NewVertex(vec(5, 5, 5))); got != kernel.C0 {
		t.Errorf("foreign vertex = %v, want C0", got)
	}
}

func TestKernelBoundingBox(t *testing.T) {
	k := New()
	box := k.BoundingBox(k.Line(vec(1, 2, 3), vec(-1, 0, 5)))
	if !near(box.Min, vec(-1, 0, 3), 1e-12) || !near(box.Max, vec(1, 2, 5), 1e-12) {
		t.Errorf("BoundingBox() = %v", box)
	}
}
