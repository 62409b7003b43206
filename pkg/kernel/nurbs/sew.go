package nurbs

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

// Sew joins faces along the edges their boundaries share. Every boundary
// must be a closed loop within tol. An edge used by more than two faces
// makes the shell non-manifold and is rejected.
func Sew(faces []*kernel.Face, tol float64) (*kernel.Shell, error) {
	if len(faces) == 0 {
		return nil, &kernel.GeometryError{Op: "sew", Message: "no faces"}
	}
	uses := map[kernel.EdgeID]int{}
	for fi, f := range faces {
		n := len(f.Boundary)
		if n == 0 {
			return nil, &kernel.GeometryError{Op: "sew", Message: fmt.Sprintf("face %d has no boundary", fi)}
		}
		for i, oe := range f.Boundary {
			next := f.Boundary[(i+1)%n]
			if gap := oe.End().Sub(next.Start()).Length(); gap > tol {
				return nil, &kernel.GeometryError{
					Op:      "sew",
					Message: fmt.Sprintf("face %d boundary open after %s (gap %g)", fi, oe.Edge, gap),
				}
			}
			uses[oe.Edge.ID]++
		}
	}

	shell := &kernel.Shell{Faces: faces}
	for id, n := range uses {
		switch {
		case n == 1:
			shell.Free = append(shell.Free, id)
		case n == 2:
			shell.Shared = append(shell.Shared, id)
		default:
			return nil, &kernel.GeometryError{Op: "sew", Message: fmt.Sprintf("edge %d used by %d faces", id, n)}
		}
	}
	sort.Slice(shell.Free, func(i, j int) bool { return shell.Free[i] < shell.Free[j] })
	sort.Slice(shell.Shared, func(i, j int) bool { return shell.Shared[i] < shell.Shared[j] })
	return shell, nil
}

// Angular and relative curvature tolerances for continuity checks.
const (
	tangentTol   = 1e-4
	curvatureTol = 1e-3
)

// EdgeContinuity reports how a and b join at v. A closed edge passed as
// both a and b is checked across its own seam.
func EdgeContinuity(a, b *kernel.Edge, v *kernel.Vertex) kernel.Continuity {
	ua, okA := endParam(a, v, true)
	ub, okB := endParam(b, v, false)
	if !okA || !okB {
		return kernel.C0
	}
	da1, da2 := a.Curve.Derivatives(ua)
	db1, db2 := b.Curve.Derivatives(ub)
	if da1.Length() == 0 || db1.Length() == 0 {
		return kernel.C0
	}
	ta, tb := da1.Normalize(), db1.Normalize()
	if ta.Cross(tb).Length() > tangentTol {
		return kernel.C0
	}
	ka, kb := curvatureVector(da1, da2), curvatureVector(db1, db2)
	scale := math.Max(1, math.Max(ka.Length(), kb.Length()))
	if ka.Sub(kb).Length() > curvatureTol*scale {
		return kernel.C1
	}
	return kernel.C2
}

// endParam picks the parameter of e at v. preferLast selects the end of a
// closed edge.
func endParam(e *kernel.Edge, v *kernel.Vertex, preferLast bool) (float64, bool) {
	first, last := e.First == v, e.Last == v
	switch {
	case first && last:
		if preferLast {
			return e.Curve.LastParameter(), true
		}
		return e.Curve.FirstParameter(), true
	case last:
		return e.Curve.LastParameter(), true
	case first:
		return e.Curve.FirstParameter(), true
	}
	return 0, false
}

// curvatureVector returns the curvature times the principal normal. It is
// independent of the parametrization and of the traversal direction.
func curvatureVector(d1, d2 v3.Vec) v3.Vec {
	l2 := d1.Length2()
	t := d1.DivScalar(math.Sqrt(l2))
	return d2.Sub(t.MulScalar(d2.Dot(t))).DivScalar(l2)
}
