package patches

import (
	"fmt"

	"github.com/chazu/spar/pkg/kernel"
)

// PatchOptions controls surface filling.
type PatchOptions struct {
	// Style is used for cells whose corners join with curvature
	// continuity; all other cells are filled with kernel.StretchStyle.
	Style kernel.FillStyle
	// Sewing joins the faces into a shell with shared edges.
	Sewing bool
}

// DefaultPatchOptions returns Coons filling with the network's sewing
// setting.
func (n *Network) DefaultPatchOptions() PatchOptions {
	return PatchOptions{Style: kernel.CoonsStyle, Sewing: n.cfg.Sewing}
}

// Patches fills every cell with a surface. Cells that cannot be filled are
// skipped with a warning; a network without any filled cell, or one the
// loop finder rejects, reports FailPatches.
func (n *Network) Patches(opts PatchOptions) (*kernel.Shell, Status) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := n.fuseLocked(); err != nil {
		return nil, FailIntersection
	}
	if st := n.performLocked(); st != OK {
		return nil, FailPatches
	}

	var faces []*kernel.Face
	for i, c := range n.grid.cells {
		log := n.log.WithField("cell", i)
		boundary, err := orderBoundary(cellCurves(c), n.cfg.TolConf)
		if err != nil {
			log.WithError(err).Warn("cell boundary is not a loop")
			continue
		}
		if opts.Sewing {
			for j := range boundary {
				boundary[j] = kernel.Reparametrize(boundary[j], 0, 1)
			}
		}
		style := kernel.StretchStyle
		if c.Continuity == kernel.C2 {
			style = opts.Style
		}
		s, err := n.g.FillCoons(boundary, style)
		if err != nil {
			log.WithError(err).Warn("cell could not be filled")
			continue
		}
		faces = append(faces, &kernel.Face{Surface: s, Boundary: c.Edges[:]})
	}
	if len(faces) == 0 {
		return nil, FailPatches
	}
	if !opts.Sewing {
		return &kernel.Shell{Faces: faces}, OK
	}
	shell, err := n.g.Sew(faces, n.cfg.TolConf)
	if err != nil {
		n.log.WithError(err).Warn("patches could not be sewn")
		return nil, FailPatches
	}
	return shell, OK
}

// cellCurves returns the edge curves of the cell, E1 first, each in the
// direction of its edge.
func cellCurves(c Cell) [4]kernel.Curve {
	var out [4]kernel.Curve
	for i, oe := range c.Edges {
		out[i] = oe.Edge.Curve
	}
	return out
}

// orderBoundary arranges four curves as bottom, right, top and left of a
// patch. The first curve is the bottom; the curve touching its start
// becomes the left side and the one touching its end the right side, both
// turned to start on the bottom. The remaining curve is the top, running
// from the left side to the right side.
func orderBoundary(curves [4]kernel.Curve, tol float64) ([4]kernel.Curve, error) {
	var out [4]kernel.Curve
	bottom := curves[0]
	out[0] = bottom
	used := [4]bool{true}

	attach := func(p kernel.Curve, at int) error {
		target := kernel.StartPoint(p)
		if at == 1 {
			target = kernel.EndPoint(p)
		}
		for i := 1; i < 4; i++ {
			if used[i] {
				continue
			}
			c := curves[i]
			switch {
			case kernel.StartPoint(c).Sub(target).Length() <= tol:
			case kernel.EndPoint(c).Sub(target).Length() <= tol:
				c = kernel.Reverse(c)
			default:
				continue
			}
			used[i] = true
			slot := 3
			if at == 1 {
				slot = 1
			}
			out[slot] = c
			return nil
		}
		return fmt.Errorf("no boundary curve touches point %v", target)
	}
	if err := attach(bottom, 0); err != nil {
		return out, err
	}
	if err := attach(bottom, 1); err != nil {
		return out, err
	}
	for i := 1; i < 4; i++ {
		if used[i] {
			continue
		}
		top := curves[i]
		left, right := kernel.EndPoint(out[3]), kernel.EndPoint(out[1])
		switch {
		case kernel.StartPoint(top).Sub(left).Length() <= tol && kernel.EndPoint(top).Sub(right).Length() <= tol:
		case kernel.EndPoint(top).Sub(left).Length() <= tol && kernel.StartPoint(top).Sub(right).Length() <= tol:
			top = kernel.Reverse(top)
		default:
			return out, fmt.Errorf("opposite curve does not join the sides")
		}
		out[2] = top
		return out, nil
	}
	return out, fmt.Errorf("boundary has fewer than four curves")
}
