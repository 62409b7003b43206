package export

import (
	"fmt"
	"image/color"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chazu/spar/pkg/kernel"
)

// Figure size of profile plots.
const (
	figWidth  = 6 * vg.Inch
	figHeight = 3 * vg.Inch
)

// ProfilePlot describes one profile figure.
type ProfilePlot struct {
	Title string
	// Outlines are drawn as lines, one per key.
	Outlines map[string]orb.Ring
	// Marks are labelled points in the xz plane, such as the leading
	// edge or guide points.
	Marks map[string]v3.Vec
}

// PlotProfile renders p to path. The format follows the file extension
// (png, svg, pdf, ...).
func PlotProfile(path string, p ProfilePlot) error {
	if len(p.Outlines) == 0 {
		return kernel.ValidationError{Field: "outlines", Message: "nothing to plot"}
	}
	plt := plot.New()
	plt.Title.Text = p.Title
	plt.X.Label.Text = "x"
	plt.Y.Label.Text = "z"
	plt.Add(plotter.NewGrid())

	names := lo.Keys(p.Outlines)
	sort.Strings(names)
	for i, name := range names {
		ring := p.Outlines[name]
		xys := make(plotter.XYs, len(ring))
		for j, pt := range ring {
			xys[j].X, xys[j].Y = pt[0], pt[1]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("export: outline %q: %w", name, err)
		}
		line.Color = palette[i%len(palette)]
		plt.Add(line)
		plt.Legend.Add(name, line)
	}

	if len(p.Marks) > 0 {
		labels := lo.Keys(p.Marks)
		sort.Strings(labels)
		xys := make(plotter.XYs, len(labels))
		for i, l := range labels {
			xys[i].X, xys[i].Y = p.Marks[l].X, p.Marks[l].Z
		}
		pts, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("export: marks: %w", err)
		}
		pts.Color = color.Black
		lbls, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return fmt.Errorf("export: marks: %w", err)
		}
		plt.Add(pts, lbls)
	}

	// Keep the aspect ratio of the section.
	span := max(plt.X.Max-plt.X.Min, plt.Y.Max-plt.Y.Min)
	midZ := (plt.Y.Max + plt.Y.Min) / 2
	plt.Y.Min, plt.Y.Max = midZ-span/4, midZ+span/4

	if err := plt.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}
