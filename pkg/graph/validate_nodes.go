package graph

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/profile"
	"github.com/chazu/spar/pkg/wire"
)

type dataRef struct {
	field string
	id    NodeID
}

// dataRefs lists the node IDs referenced by kind-specific data.
func dataRefs(d NodeData) []dataRef {
	var refs []dataRef
	switch d := d.(type) {
	case SectionData:
		if !d.Profile.IsZero() {
			refs = append(refs, dataRef{"section profile", d.Profile})
		}
	case NetworkData:
		for _, id := range d.Sections {
			refs = append(refs, dataRef{"network section", id})
		}
		for _, id := range d.Guides {
			refs = append(refs, dataRef{"network guide", id})
		}
	}
	return refs
}

func errorf(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// validateProfiles checks that every profile has exactly one kind of
// samples and a supported wire algorithm.
func validateProfiles(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		pd, ok := node.Data.(ProfileData)
		if !ok {
			continue
		}
		switch {
		case len(pd.Points) > 0 && pd.CST != nil:
			errs = append(errs, errorf(node.ID, "profile has both points and CST coefficients"))
		case len(pd.Points) == 0 && pd.CST == nil:
			errs = append(errs, errorf(node.ID, "profile has neither points nor CST coefficients"))
		case pd.CST == nil && len(pd.Points) < 3:
			errs = append(errs, errorf(node.ID, "profile needs at least 3 points, got %d", len(pd.Points)))
		case pd.CST != nil && (len(pd.CST.UpperB) == 0 || len(pd.CST.LowerB) == 0):
			errs = append(errs, errorf(node.ID, "CST profile needs upper and lower coefficients"))
		}
		if pd.Algorithm != "" {
			alg, err := wire.ParseAlgorithm(pd.Algorithm)
			switch {
			case err != nil:
				errs = append(errs, errorf(node.ID, "%v", err))
			case alg != wire.BSpline:
				errs = append(errs, errorf(node.ID, "%s wing profiles are not supported", alg))
			}
		}
	}
	return errs
}

// validateSections checks chord, modifier and that the placed node is a
// profile.
func validateSections(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		sd, ok := node.Data.(SectionData)
		if !ok {
			continue
		}
		if sd.Chord <= 0 {
			errs = append(errs, errorf(node.ID, "section chord must be positive, got %g", sd.Chord))
		}
		if _, err := profile.ParseModifier(sd.Modifier); err != nil {
			errs = append(errs, errorf(node.ID, "%v", err))
		}
		if p, ok := g.Nodes[sd.Profile]; ok && p.Kind != NodeProfile {
			errs = append(errs, errorf(node.ID, "section profile %s is %s, not profile", sd.Profile.Short(), p.Kind))
		}
	}
	return errs
}

func validateGuides(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		gd, ok := node.Data.(GuideData)
		if ok && (gd.Xsi < 0 || gd.Xsi > 1) {
			errs = append(errs, errorf(node.ID, "guide xsi %g is outside [0, 1]", gd.Xsi))
		}
	}
	return errs
}

// validateNetworks checks that a network has at least two sections and two
// guides of the right kinds, each used once.
func validateNetworks(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		nd, ok := node.Data.(NetworkData)
		if !ok {
			continue
		}
		check := func(ids []NodeID, kind NodeKind) {
			if len(ids) < 2 {
				errs = append(errs, errorf(node.ID, "network needs at least 2 %ss, got %d", kind, len(ids)))
			}
			if dup := lo.FindDuplicates(ids); len(dup) > 0 {
				errs = append(errs, errorf(node.ID, "network uses %s %s more than once", kind, dup[0].Short()))
			}
			for _, id := range ids {
				if n, ok := g.Nodes[id]; ok && n.Kind != kind {
					errs = append(errs, errorf(node.ID, "network %s %s is %s", kind, id.Short(), n.Kind))
				}
			}
		}
		check(nd.Sections, NodeSection)
		check(nd.Guides, NodeGuide)
		if _, err := kernel.ParseFillStyle(nd.Style); err != nil {
			errs = append(errs, errorf(node.ID, "%v", err))
		}
	}
	return errs
}
