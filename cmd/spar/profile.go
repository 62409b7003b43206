package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/chazu/spar/pkg/cpacs"
	"github.com/chazu/spar/pkg/export"
	"github.com/chazu/spar/pkg/profile"
)

type profileFlags struct {
	uid      string
	modifier string
	xsi      []float64
	dxf      string
	png      string
}

func (c *cli) profileCmd() *cobra.Command {
	var f profileFlags
	cmd := &cobra.Command{
		Use:   "profile <cpacs.xml>",
		Short: "Build and inspect the wing profiles of a CPACS file",
		Long: "Read every wingAirfoil of a CPACS file, build its curves and print the\n" +
			"leading edge, trailing edge and area. Outlines can be written to DXF or\n" +
			"plotted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProfile(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.uid, "uid", "", "only the profile with this uID")
	cmd.Flags().StringVar(&f.modifier, "modifier", "unmodified", "trailing edge: unmodified, sharp or blunt")
	cmd.Flags().Float64SliceVar(&f.xsi, "xsi", nil, "chord positions at which to print the upper and lower points")
	cmd.Flags().StringVar(&f.dxf, "dxf", "", "write the outlines to this DXF file")
	cmd.Flags().StringVar(&f.png, "png", "", "plot the outlines to this image file")
	return cmd
}

func (c *cli) runProfile(cmd *cobra.Command, path string, f profileFlags) error {
	mod, err := profile.ParseModifier(f.modifier)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := cpacs.ReadProfiles(file, cpacs.WithLogger(c.log))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if f.uid != "" {
		var picked []cpacs.ProfileData
		for _, d := range data {
			if d.UID == f.uid {
				picked = append(picked, d)
			}
		}
		if len(picked) == 0 {
			return fmt.Errorf("%s: no profile with uID %q", path, f.uid)
		}
		data = picked
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tNAME\tKIND\tLE\tTE\tAREA\tBLUNT")

	outlines := map[string]orb.Ring{}
	marks := map[string]v3.Vec{}
	var points []string
	for _, d := range data {
		p, err := d.Build(c.geo, c.cfg, c.log.WithField("profile", d.UID))
		if err == nil {
			err = p.Build()
		}
		if err != nil {
			return err
		}
		le, err := p.LeadingEdge()
		if err != nil {
			return err
		}
		te, err := p.TrailingEdgePoint()
		if err != nil {
			return err
		}
		area, err := p.Area()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.6g\t%t\n",
			d.UID, d.Name, p.Kind(), vecString(le), vecString(te), area, p.HasBluntTE())

		for _, xsi := range f.xsi {
			up, err := p.UpperPoint(xsi)
			if err != nil {
				return fmt.Errorf("profile %s: %w", d.UID, err)
			}
			lo, err := p.LowerPoint(xsi)
			if err != nil {
				return fmt.Errorf("profile %s: %w", d.UID, err)
			}
			points = append(points, fmt.Sprintf("%s xsi=%g upper=%s lower=%s", d.UID, xsi, vecString(up), vecString(lo)))
			if len(data) == 1 {
				marks[fmt.Sprintf("upper %g", xsi)] = up
				marks[fmt.Sprintf("lower %g", xsi)] = lo
			}
		}

		if f.dxf != "" || f.png != "" {
			ring, err := p.Outline(mod)
			if err != nil {
				return fmt.Errorf("profile %s: %w", d.UID, err)
			}
			outlines[d.UID] = ring
			if len(data) == 1 {
				marks["LE"], marks["TE"] = le, te
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, line := range points {
		fmt.Fprintln(out, line)
	}

	if f.dxf != "" {
		if err := export.WriteOutlinesDXF(f.dxf, outlines); err != nil {
			return err
		}
		c.log.WithField("file", f.dxf).Info("outlines written")
	}
	if f.png != "" {
		title := path
		if len(data) == 1 {
			title = data[0].UID
		}
		if err := export.PlotProfile(f.png, export.ProfilePlot{Title: title, Outlines: outlines, Marks: marks}); err != nil {
			return err
		}
		c.log.WithField("file", f.png).Info("plot written")
	}
	return nil
}

func vecString(v v3.Vec) string {
	return fmt.Sprintf("(%.6g, %.6g, %.6g)", v.X, v.Y, v.Z)
}
