package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/spar/pkg/kernel"
)

const wingScript = "../../examples/wing.spar"

const cpacsDocument = `<?xml version="1.0" encoding="utf-8"?>
<cpacs>
  <vehicles>
    <profiles>
      <wingAirfoils>
        <wingAirfoil uID="cst">
          <name>CST</name>
          <cst2D>
            <psi mapType="vector">0;0.05;0.1;0.2;0.3;0.4;0.5;0.6;0.7;0.8;0.9;0.95;1</psi>
            <upperN1>0.5</upperN1>
            <upperN2>1.0</upperN2>
            <upperB mapType="vector">0.17;0.16;0.15</upperB>
            <lowerN1>0.5</lowerN1>
            <lowerN2>1.0</lowerN2>
            <lowerB mapType="vector">0.17;0.16;0.15</lowerB>
            <trailingEdgeThickness>0.002</trailingEdgeThickness>
          </cst2D>
        </wingAirfoil>
      </wingAirfoils>
    </profiles>
  </vehicles>
</cpacs>`

// run executes the command line and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("spar %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestEvalCommand(t *testing.T) {
	out := mustRun(t, "eval", wingScript)
	for _, want := range []string{"KIND", "profile", "foil", "section", "tip", "guide", "te", "network", "wing", "aircraft"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not mention %q:\n%s", want, out)
		}
	}
}

func TestPatchesCommand(t *testing.T) {
	dxf := filepath.Join(t.TempDir(), "cells.dxf")
	out := mustRun(t, "patches", wingScript, "--network", "wing", "--dxf", dxf)

	// closed sections: one row per guide, one column per section interval
	if want := "wing: 4 guides, 3 profiles, 4x2 cells"; !strings.Contains(out, want) {
		t.Errorf("output = %q, want it to contain %q", out, want)
	}
	if info, err := os.Stat(dxf); err != nil || info.Size() == 0 {
		t.Errorf("cells drawing not written: %v", err)
	}
}

func TestMeshCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wing.json")
	out := mustRun(t, "mesh", wingScript, "--json", path)
	if !strings.Contains(out, "wing") {
		t.Errorf("output does not list the wing:\n%s", out)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var meshes []*kernel.Mesh
	if err := json.Unmarshal(b, &meshes); err != nil {
		t.Fatalf("mesh file is not JSON: %v", err)
	}
	if len(meshes) != 1 || meshes[0].PartName != "wing" || meshes[0].TriangleCount() == 0 {
		t.Errorf("meshes = %d, want one non-empty wing mesh", len(meshes))
	}
}

func TestProfileCommand(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "profiles.xml")
	if err := os.WriteFile(doc, []byte(cpacsDocument), 0o644); err != nil {
		t.Fatal(err)
	}
	dxf := filepath.Join(dir, "cst.dxf")
	png := filepath.Join(dir, "cst.png")

	out := mustRun(t, "profile", doc, "--uid", "cst", "--xsi", "0.25,0.5", "--modifier", "blunt", "--dxf", dxf, "--png", png)
	for _, want := range []string{"UID", "cst", "CST", "true", "cst xsi=0.25", "cst xsi=0.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not mention %q:\n%s", want, out)
		}
	}
	for _, path := range []string{dxf, png} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", path, err)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.spar")
	if err := os.WriteFile(broken, []byte(`(section "root" (node "missing"))`), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := filepath.Join(dir, "profiles.xml")
	if err := os.WriteFile(doc, []byte(cpacsDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"bad log level", []string{"eval", wingScript, "--log-level", "loud"}},
		{"missing config", []string{"eval", wingScript, "--config", filepath.Join(dir, "none.toml")}},
		{"missing script", []string{"eval", filepath.Join(dir, "none.spar")}},
		{"evaluation error", []string{"eval", broken}},
		{"unknown network", []string{"patches", wingScript, "--network", "tail"}},
		{"unknown profile", []string{"profile", doc, "--uid", "naca"}},
		{"unknown modifier", []string{"profile", doc, "--modifier", "rounded"}},
		{"unknown solid modeler", []string{"mesh", wingScript, "--modeler", "occt"}},
		{"no arguments", []string{"eval"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("spar %s: error = nil", strings.Join(tt.args, " "))
			}
		})
	}
}

func TestSuffixed(t *testing.T) {
	if got := suffixed("out/cells.dxf", "wing"); got != "out/cells-wing.dxf" {
		t.Errorf("suffixed() = %q", got)
	}
}
