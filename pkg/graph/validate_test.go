package graph

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidWing creates a two-section wing: one profile placed at the root
// and the tip, two guides and a network, all below a group root.
func buildValidWing() *DesignGraph {
	g := New()

	profileID := NewNodeID("profile/naca")
	rootID := NewNodeID("section/root")
	tipID := NewNodeID("section/tip")
	leID := NewNodeID("guide/le")
	teID := NewNodeID("guide/te")
	netID := NewNodeID("network/wing")
	groupID := NewNodeID("group/aircraft")

	g.AddNode(&Node{
		ID: profileID, Kind: NodeProfile, Name: "naca",
		Data: ProfileData{Points: []Vec3{{1, 0, 0}, {0, 0, 0}, {1, 0, 0.01}}},
	})
	g.AddNode(&Node{
		ID: rootID, Kind: NodeSection, Name: "root",
		Children: []NodeID{profileID},
		Data:     SectionData{Profile: profileID, Chord: 2},
	})
	g.AddNode(&Node{
		ID: tipID, Kind: NodeSection, Name: "tip",
		Children: []NodeID{profileID},
		Data:     SectionData{Profile: profileID, Origin: Vec3{0.5, 5, 0}, Chord: 1, Twist: -2, Modifier: "blunt"},
	})
	g.AddNode(&Node{
		ID: leID, Kind: NodeGuide, Name: "le",
		Data: GuideData{Xsi: 0, Upper: true},
	})
	g.AddNode(&Node{
		ID: teID, Kind: NodeGuide, Name: "te",
		Data: GuideData{Xsi: 1, Upper: true},
	})
	g.AddNode(&Node{
		ID: netID, Kind: NodeNetwork, Name: "wing",
		Children: []NodeID{rootID, tipID, leID, teID},
		Data:     NetworkData{Sections: []NodeID{rootID, tipID}, Guides: []NodeID{leID, teID}},
	})
	g.AddNode(&Node{
		ID:       groupID,
		Kind:     NodeGroup,
		Name:     "aircraft",
		Children: []NodeID{netID},
		Data:     GroupData{Description: "test wing"},
	})
	g.AddRoot(groupID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func logAll(t *testing.T, errs []ValidationError) {
	t.Helper()
	for _, e := range errs {
		t.Logf("  %s", e)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidate_ValidGraph(t *testing.T) {
	g := buildValidWing()
	for _, e := range Validate(g) {
		t.Errorf("unexpected validation error: %s", e)
	}
}

func TestValidate_EmptyGraph(t *testing.T) {
	for _, e := range Validate(New()) {
		t.Errorf("unexpected validation error on empty graph: %s", e)
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	g := New()

	aID := NewNodeID("a")
	bID := NewNodeID("b")
	cID := NewNodeID("c")

	// a -> b -> c -> a
	g.AddNode(&Node{ID: aID, Kind: NodeGroup, Name: "a", Children: []NodeID{bID}, Data: GroupData{}})
	g.AddNode(&Node{ID: bID, Kind: NodeGroup, Name: "b", Children: []NodeID{cID}, Data: GroupData{}})
	g.AddNode(&Node{ID: cID, Kind: NodeGroup, Name: "c", Children: []NodeID{aID}, Data: GroupData{}})
	g.AddRoot(aID)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Error("expected cycle detection error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	g := New()

	parentID := NewNodeID("parent")
	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "parent",
		Children: []NodeID{NewNodeID("missing-child")},
		Data:     GroupData{},
	})
	g.AddRoot(parentID)

	errs := Validate(g)
	if !hasError(errs, "child reference") {
		t.Error("expected dangling reference error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DanglingDataReference(t *testing.T) {
	g := buildValidWing()
	net := g.MustLookup("wing")
	nd := net.Data.(NetworkData)
	nd.Guides = append(nd.Guides, NewNodeID("guide/missing"))
	net.Data = nd

	errs := Validate(g)
	if !hasError(errs, "network guide reference") {
		t.Error("expected dangling guide reference error")
		logAll(t, errs)
	}
}

func TestValidate_DuplicateName(t *testing.T) {
	g := buildValidWing()
	dup := &Node{ID: NewNodeID("section/root-2"), Kind: NodeGroup, Name: "root", Data: GroupData{}}
	g.Nodes[dup.ID] = dup
	g.AddRoot(dup.ID)

	errs := Validate(g)
	if !hasError(errs, `duplicate name "root"`) {
		t.Error("expected duplicate name error")
		logAll(t, errs)
	}
}

func TestValidate_OrphanNode(t *testing.T) {
	g := buildValidWing()
	g.AddNode(&Node{ID: NewNodeID("guide/spare"), Kind: NodeGuide, Name: "spare", Data: GuideData{Xsi: 0.3}})

	errs := Validate(g)
	if !hasWarning(errs, `"spare" is not reachable`) {
		t.Error("expected orphan warning")
		logAll(t, errs)
	}
	res := ValidateAll(g)
	if len(res.Errors) != 0 || len(res.Warnings) != 1 {
		t.Errorf("ValidateAll = %d errors, %d warnings; want 0, 1", len(res.Errors), len(res.Warnings))
	}
}

func TestValidate_NameIndexPointsToMissingNode(t *testing.T) {
	g := New()
	g.NameIndex["ghost"] = NewNodeID("ghost")

	if errs := Validate(g); !hasError(errs, "non-existent node") {
		t.Error("expected name index error")
		logAll(t, errs)
	}
}

func TestValidate_RootReferencesNonExistentNode(t *testing.T) {
	g := New()
	g.AddRoot(NewNodeID("nowhere"))

	if errs := Validate(g); !hasError(errs, "root reference") {
		t.Error("expected root reference error")
		logAll(t, errs)
	}
}

func TestValidate_NodeData(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *DesignGraph)
		want   string
	}{
		{
			name: "profile without samples",
			mutate: func(g *DesignGraph) {
				g.MustLookup("naca").Data = ProfileData{}
			},
			want: "neither points nor CST",
		},
		{
			name: "profile with both sample kinds",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("naca")
				pd := n.Data.(ProfileData)
				pd.CST = &CSTData{UpperB: []float64{0.1}, LowerB: []float64{0.1}}
				n.Data = pd
			},
			want: "both points and CST",
		},
		{
			name: "too few points",
			mutate: func(g *DesignGraph) {
				g.MustLookup("naca").Data = ProfileData{Points: []Vec3{{1, 0, 0}, {0, 0, 0}}}
			},
			want: "at least 3 points",
		},
		{
			name: "CST without lower coefficients",
			mutate: func(g *DesignGraph) {
				g.MustLookup("naca").Data = ProfileData{CST: &CSTData{UpperB: []float64{0.1}}}
			},
			want: "upper and lower coefficients",
		},
		{
			name: "polyline profile",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("naca")
				pd := n.Data.(ProfileData)
				pd.Algorithm = "polyline"
				n.Data = pd
			},
			want: "not supported",
		},
		{
			name: "zero chord",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("tip")
				sd := n.Data.(SectionData)
				sd.Chord = 0
				n.Data = sd
			},
			want: "chord must be positive",
		},
		{
			name: "unknown modifier",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("tip")
				sd := n.Data.(SectionData)
				sd.Modifier = "round"
				n.Data = sd
			},
			want: "unknown trailing edge modifier",
		},
		{
			name: "section placing a guide",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("tip")
				sd := n.Data.(SectionData)
				sd.Profile = g.MustLookup("le").ID
				n.Data = sd
			},
			want: "is guide, not profile",
		},
		{
			name: "guide outside the chord",
			mutate: func(g *DesignGraph) {
				g.MustLookup("te").Data = GuideData{Xsi: 1.5}
			},
			want: "outside [0, 1]",
		},
		{
			name: "single guide",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("wing")
				nd := n.Data.(NetworkData)
				nd.Guides = nd.Guides[:1]
				n.Data = nd
			},
			want: "at least 2 guides",
		},
		{
			name: "repeated section",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("wing")
				nd := n.Data.(NetworkData)
				nd.Sections = []NodeID{nd.Sections[0], nd.Sections[0]}
				n.Data = nd
			},
			want: "more than once",
		},
		{
			name: "guide listed as section",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("wing")
				nd := n.Data.(NetworkData)
				nd.Sections = []NodeID{nd.Sections[0], nd.Guides[0]}
				n.Data = nd
			},
			want: "is guide",
		},
		{
			name: "unknown fill style",
			mutate: func(g *DesignGraph) {
				n := g.MustLookup("wing")
				nd := n.Data.(NetworkData)
				nd.Style = "gordon"
				n.Data = nd
			},
			want: "unknown fill style",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildValidWing()
			tt.mutate(g)
			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logAll(t, errs)
			}
		})
	}
}

func TestValidationError_String(t *testing.T) {
	e1 := ValidationError{Message: "test graph error", Severity: SeverityError}
	if !strings.Contains(e1.Error(), "error") || !strings.Contains(e1.Error(), "test graph error") {
		t.Errorf("graph-level error string = %q", e1.Error())
	}

	e2 := ValidationError{NodeID: NewNodeID("test"), Message: "test node warning", Severity: SeverityWarning}
	if !strings.Contains(e2.Error(), "warning") || !strings.Contains(e2.Error(), "node") {
		t.Errorf("node-level warning string = %q", e2.Error())
	}
}
