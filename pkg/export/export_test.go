package export_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/paulmach/orb"

	"github.com/chazu/spar/pkg/export"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/kernel/nurbs"
	"github.com/chazu/spar/pkg/patches"
)

func ellipse(n int, a, b float64) orb.Ring {
	var r orb.Ring
	for i := 0; i <= n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		r = append(r, orb.Point{a * math.Cos(t), b * math.Sin(t)})
	}
	return r
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	if len(b) == 0 {
		t.Fatalf("%s is empty", path)
	}
	return b
}

func TestWriteOutlinesDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.dxf")
	err := export.WriteOutlinesDXF(path, map[string]orb.Ring{
		"root": ellipse(24, 0.5, 0.06),
		"tip":  ellipse(24, 0.25, 0.03),
	})
	if err != nil {
		t.Fatalf("WriteOutlinesDXF() error = %v", err)
	}
	s := string(readFile(t, path))
	for _, want := range []string{"LWPOLYLINE", "root", "tip"} {
		if !strings.Contains(s, want) {
			t.Errorf("drawing does not mention %q", want)
		}
	}
}

func TestWriteOutlinesDXFErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		outlines map[string]orb.Ring
	}{
		{"empty", nil},
		{"degenerate", map[string]orb.Ring{"line": {{0, 0}, {1, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve kernel.ValidationError
			err := export.WriteOutlinesDXF(filepath.Join(dir, tt.name+".dxf"), tt.outlines)
			if !errors.As(err, &ve) {
				t.Errorf("WriteOutlinesDXF() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestWriteCellsDXF(t *testing.T) {
	g := nurbs.New()
	line := func(a, b v3.Vec) *kernel.Wire { return kernel.NewWire(kernel.NewEdge(g.Line(a, b))) }
	guides := []*kernel.Wire{
		line(v3.Vec{}, v3.Vec{Y: 1}),
		line(v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}),
	}
	profiles := []*kernel.Wire{
		line(v3.Vec{}, v3.Vec{X: 1}),
		line(v3.Vec{Y: 1}, v3.Vec{X: 1, Y: 1}),
	}
	grid, err := patches.NewNetwork(g, guides, profiles).Cells()
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "cells.dxf")
	if err := export.WriteCellsDXF(path, grid, 4); err != nil {
		t.Fatalf("WriteCellsDXF() error = %v", err)
	}
	s := string(readFile(t, path))
	for _, want := range []string{"LINE", export.GuideLayer, export.ProfileLayer} {
		if !strings.Contains(s, want) {
			t.Errorf("drawing does not mention %q", want)
		}
	}

	var ve kernel.ValidationError
	if err := export.WriteCellsDXF(path, nil, 4); !errors.As(err, &ve) {
		t.Errorf("WriteCellsDXF(nil) error = %v, want ValidationError", err)
	}
}

func TestPlotProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naca.png")
	err := export.PlotProfile(path, export.ProfilePlot{
		Title:    "ellipse",
		Outlines: map[string]orb.Ring{"sharp": ellipse(48, 0.5, 0.06)},
		Marks: map[string]v3.Vec{
			"LE": {X: -0.5},
			"TE": {X: 0.5},
		},
	})
	if err != nil {
		t.Fatalf("PlotProfile() error = %v", err)
	}
	if b := readFile(t, path); !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Error("output is not a PNG image")
	}

	var ve kernel.ValidationError
	if err := export.PlotProfile(path, export.ProfilePlot{}); !errors.As(err, &ve) {
		t.Errorf("PlotProfile(empty) error = %v, want ValidationError", err)
	}
}
