// Package export writes profiles and patch networks to files for
// inspection in CAD tools and plots.
package export

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/entity"

	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/patches"
)

// Layer names of the cell drawing.
const (
	GuideLayer   = "guides"
	ProfileLayer = "profiles"
)

// DefaultEdgeSamples is the number of segments each edge is flattened to.
const DefaultEdgeSamples = 32

// WriteOutlinesDXF writes each outline as a polyline that returns to its
// first point, on its own layer named after the map key. Outlines are in
// the xz plane and are drawn as (x, z) in the drawing plane.
func WriteOutlinesDXF(path string, outlines map[string]orb.Ring) error {
	if len(outlines) == 0 {
		return kernel.ValidationError{Field: "outlines", Message: "nothing to write"}
	}
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	names := lo.Keys(outlines)
	sort.Strings(names)
	for _, name := range names {
		ring := outlines[name]
		if len(ring) < 3 {
			return kernel.ValidationError{Field: "outlines", Message: fmt.Sprintf("outline %q has %d points", name, len(ring))}
		}
		if !ring.Closed() {
			ring = append(ring[:len(ring):len(ring)], ring[0])
		}
		d.AddLayer(name, color.Red, dxf.DefaultLineType, true)
		d.ChangeLayer(name)
		lwp := entity.NewLwPolyline(len(ring))
		for j, pt := range ring {
			lwp.Vertices[j] = []float64{pt[0], pt[1]}
		}
		d.AddEntity(lwp)
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// WriteCellsDXF writes every edge of the cell grid as a chain of 3D line
// segments, guides and profiles on separate layers. Edges shared by two
// cells are written once.
func WriteCellsDXF(path string, grid *patches.Grid, samples int) error {
	if grid == nil || grid.Len() == 0 {
		return kernel.ValidationError{Field: "grid", Message: "no cells to write"}
	}
	if samples < 1 {
		samples = DefaultEdgeSamples
	}
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0
	d.AddLayer(GuideLayer, color.Blue, dxf.DefaultLineType, false)
	d.AddLayer(ProfileLayer, color.Red, dxf.DefaultLineType, false)

	seen := map[kernel.EdgeID]bool{}
	for _, c := range grid.All() {
		for i, oe := range c.Edges {
			if seen[oe.Edge.ID] {
				continue
			}
			seen[oe.Edge.ID] = true

			layer := ProfileLayer
			if c.Provenance[i] == patches.Guide {
				layer = GuideLayer
			}
			d.ChangeLayer(layer)
			pts := kernel.Sample(oe.Edge.Curve, samples)
			for j := 1; j < len(pts); j++ {
				a, b := pts[j-1], pts[j]
				if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
					return fmt.Errorf("export: edge %d: %w", oe.Edge.ID, err)
				}
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
