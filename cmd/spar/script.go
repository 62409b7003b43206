package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/spar/pkg/export"
	"github.com/chazu/spar/pkg/graph"
	"github.com/chazu/spar/pkg/tessellate"
)

func (c *cli) evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a spar script and list its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evalFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tID\tCHILDREN")
			for _, kind := range []graph.NodeKind{graph.NodeProfile, graph.NodeSection, graph.NodeGuide, graph.NodeNetwork, graph.NodeGroup} {
				for _, n := range res.Graph.OfKind(kind) {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", n.Kind, n.Name, n.ID.Short(), len(n.Children))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w.Message)
			}
			return nil
		},
	}
}

func (c *cli) patchesCmd() *cobra.Command {
	var (
		network string
		dxf     string
	)
	cmd := &cobra.Command{
		Use:   "patches <script>",
		Short: "Find the cells of the patch networks of a spar script",
		Long: "Evaluate a spar script, fuse the guide and profile curves of each\n" +
			"network and report its cell grid. Cell edges can be written to DXF.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evalFile(args[0])
			if err != nil {
				return err
			}
			nets, err := networks(res.Graph, network)
			if err != nil {
				return err
			}
			scene := tessellate.NewScene(res.Graph, c.geo, nil,
				tessellate.WithConfig(c.cfg), tessellate.WithLogger(c.log))
			out := cmd.OutOrStdout()
			for _, n := range nets {
				net, err := scene.Network(n.ID)
				if err != nil {
					return err
				}
				grid, err := net.Cells()
				if err != nil {
					return fmt.Errorf("network %q: %w", n.Name, err)
				}
				fmt.Fprintf(out, "%s: %d guides, %d profiles, %dx%d cells\n",
					n.Name, net.Guides(), net.Profiles(), grid.Rows, grid.Cols)
				if dxf == "" {
					continue
				}
				path := dxf
				if len(nets) > 1 {
					path = suffixed(dxf, n.Name)
				}
				if err := export.WriteCellsDXF(path, grid, export.DefaultEdgeSamples); err != nil {
					return err
				}
				c.log.WithField("file", path).Info("cells written")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&network, "network", "", "only the network with this name")
	cmd.Flags().StringVar(&dxf, "dxf", "", "write the cell edges to this DXF file (one per network, suffixed with its name)")
	return cmd
}

func (c *cli) meshCmd() *cobra.Command {
	var (
		jsonOut string
		modeler string
	)
	cmd := &cobra.Command{
		Use:   "mesh <script>",
		Short: "Tessellate a spar script",
		Long: "Evaluate a spar script and tessellate every part reachable from its\n" +
			"roots: networks become patch meshes, lone sections become slabs.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.evalFile(args[0])
			if err != nil {
				return err
			}
			cfg := c.cfg
			if modeler != "" {
				cfg.Modeler = modeler
			}
			mod, err := tessellate.NewModeler(cfg)
			if err != nil {
				return err
			}
			meshes, err := tessellate.Tessellate(res.Graph, c.geo, mod,
				tessellate.WithConfig(cfg), tessellate.WithLogger(c.log))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PART\tVERTICES\tTRIANGLES")
			for _, m := range meshes {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", m.PartName, m.VertexCount(), m.TriangleCount())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if jsonOut == "" {
				return nil
			}
			b, err := json.Marshal(meshes)
			if err != nil {
				return err
			}
			return os.WriteFile(jsonOut, b, 0o644)
		},
	}
	cmd.Flags().StringVar(&jsonOut, "json", "", "write the meshes as JSON to this file")
	cmd.Flags().StringVar(&modeler, "modeler", "", "solid modeler for section slabs: sdfx or manifold (default from config)")
	return cmd
}

// suffixed inserts "-name" before the extension of path.
func suffixed(path, name string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + name + ext
}
