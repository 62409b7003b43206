package engine

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/spar/pkg/graph"
	"github.com/chazu/spar/pkg/profile"
)

// defaultPsiIntervals is the number of cosine-spaced intervals a CST
// profile is sampled at when the script gives no :psi.
const defaultPsiIntervals = 40

// builder collects the nodes created by one evaluation.
type builder struct {
	g    *graph.DesignGraph
	anon int
}

// anonName returns a name for an unnamed node, unique within one
// evaluation so identical sources give identical node IDs.
func (b *builder) anonName(kind string) string {
	b.anon++
	return fmt.Sprintf("%s_anon_%d", kind, b.anon)
}

func (b *builder) add(kind graph.NodeKind, name string, children []graph.NodeID, data graph.NodeData) *sexpNodeRef {
	id := graph.NewNodeID(kind.String() + "/" + name)
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Children: children,
		Data:     data,
	})
	return &sexpNodeRef{id: id, name: name}
}

// name returns the optional leading string argument of a form.
func (b *builder) name(fn, kind string, pa kwArgs) (string, error) {
	if len(pa.positional) == 0 {
		return b.anonName(kind), nil
	}
	s, err := toString(pa.positional[0])
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", fn, err)
	}
	return s, nil
}

// float reads an optional numeric keyword into dst.
func (a kwArgs) float(fn, key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// floats reads an optional list-of-numbers keyword into dst.
func (a kwArgs) floats(fn, key string, dst *[]float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	fs, err := toFloatList(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = fs
	return nil
}

// word reads an optional keyword-or-string keyword into dst.
func (a kwArgs) word(fn, key string, dst *string) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = s
	return nil
}

// registerBuiltins installs all spar DSL builtins into a zygomys environment.
// The builtins operate on the provided DesignGraph, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.DesignGraph) {
	b := &builder{g: g}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: graph.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (point-list-profile "naca" :points (list (vec3 1 0 0) ...))
	// (point-list-profile "naca" :x (list 1 0.5 0 0.5 1) :z (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("point_list_profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const fn = "point-list-profile"
		pa := parseArgs(args)
		profName, err := b.name(fn, "profile", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		var pd graph.ProfileData

		if v, ok := pa.kw["points"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: points: %w", fn, err)
			}
			for i, item := range items {
				p, err := toVec3(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: point %d: %w", fn, i, err)
				}
				pd.Points = append(pd.Points, p)
			}
		}
		var xs, zs []float64
		if err := pa.floats(fn, "x", &xs); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floats(fn, "z", &zs); err != nil {
			return zygo.SexpNull, err
		}
		if len(xs) != len(zs) {
			return zygo.SexpNull, fmt.Errorf("%s: x has %d values, z has %d", fn, len(xs), len(zs))
		}
		if len(xs) > 0 && len(pd.Points) > 0 {
			return zygo.SexpNull, fmt.Errorf("%s: give either :points or :x and :z", fn)
		}
		for i := range xs {
			pd.Points = append(pd.Points, graph.Vec3{X: xs[i], Z: zs[i]})
		}
		if err := pa.word(fn, "algorithm", &pd.Algorithm); err != nil {
			return zygo.SexpNull, err
		}

		return b.add(graph.NodeProfile, profName, nil, pd), nil
	})

	// -----------------------------------------------------------------------
	// (cst-profile "rae" :upper-b (list 0.17 0.16) :lower-b (list 0.17 0.16)
	//              :n1 0.5 :n2 1.0 :te 0.002 :psi (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("cst_profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const fn = "cst-profile"
		pa := parseArgs(args)
		profName, err := b.name(fn, "profile", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		c := &graph.CSTData{UpperN1: 0.5, UpperN2: 1, LowerN1: 0.5, LowerN2: 1}

		var n1, n2 float64 = -1, -1
		steps := []error{
			pa.float(fn, "n1", &n1),
			pa.float(fn, "n2", &n2),
		}
		if n1 >= 0 {
			c.UpperN1, c.LowerN1 = n1, n1
		}
		if n2 >= 0 {
			c.UpperN2, c.LowerN2 = n2, n2
		}
		steps = append(steps,
			pa.float(fn, "upper-n1", &c.UpperN1),
			pa.float(fn, "upper-n2", &c.UpperN2),
			pa.float(fn, "lower-n1", &c.LowerN1),
			pa.float(fn, "lower-n2", &c.LowerN2),
			pa.floats(fn, "upper-b", &c.UpperB),
			pa.floats(fn, "lower-b", &c.LowerB),
			pa.floats(fn, "psi", &c.Psi),
			pa.float(fn, "te", &c.TEThickness),
		)
		for _, err := range steps {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		if len(c.Psi) == 0 {
			c.Psi = profile.CosinePsi(defaultPsiIntervals)
		}

		return b.add(graph.NodeProfile, profName, nil, graph.ProfileData{CST: c}), nil
	})

	// -----------------------------------------------------------------------
	// (section "root" naca :origin (vec3 0 0 0) :chord 2 :twist 1.5 :modifier :blunt)
	// -----------------------------------------------------------------------
	env.AddFunction("section", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const fn = "section"
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires a name and a profile reference", fn)
		}
		secName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: name: %w", fn, err)
		}
		profID, err := toNodeRef(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: profile: %w", fn, err)
		}
		sd := graph.SectionData{Profile: profID, Chord: 1}

		if v, ok := pa.kw["origin"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: origin: %w", fn, err)
			}
			sd.Origin = vec
		}
		if err := pa.float(fn, "chord", &sd.Chord); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float(fn, "twist", &sd.Twist); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.word(fn, "modifier", &sd.Modifier); err != nil {
			return zygo.SexpNull, err
		}

		return b.add(graph.NodeSection, secName, []graph.NodeID{profID}, sd), nil
	})

	// -----------------------------------------------------------------------
	// (guide "spar" :xsi 0.25 :side :lower)
	// -----------------------------------------------------------------------
	env.AddFunction("guide", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const fn = "guide"
		pa := parseArgs(args)
		guideName, err := b.name(fn, "guide", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		gd := graph.GuideData{Upper: true}
		if err := pa.float(fn, "xsi", &gd.Xsi); err != nil {
			return zygo.SexpNull, err
		}
		side := "upper"
		if err := pa.word(fn, "side", &side); err != nil {
			return zygo.SexpNull, err
		}
		switch side {
		case "upper":
		case "lower":
			gd.Upper = false
		default:
			return zygo.SexpNull, fmt.Errorf("%s: side: expected :upper or :lower, got %q", fn, side)
		}

		return b.add(graph.NodeGuide, guideName, nil, gd), nil
	})

	// -----------------------------------------------------------------------
	// (network "wing" :sections (list root tip) :guides (list le te)
	//          :style :coons :sewing true)
	// -----------------------------------------------------------------------
	env.AddFunction("network", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const fn = "network"
		pa := parseArgs(args)
		netName, err := b.name(fn, "network", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		var nd graph.NetworkData

		if v, ok := pa.kw["sections"]; ok {
			if nd.Sections, err = toRefList(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: sections: %w", fn, err)
			}
		}
		if v, ok := pa.kw["guides"]; ok {
			if nd.Guides, err = toRefList(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: guides: %w", fn, err)
			}
		}
		if err := pa.word(fn, "style", &nd.Style); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["sewing"]; ok {
			s, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: sewing: %w", fn, err)
			}
			nd.Sewing = &s
		}

		children := append(append([]graph.NodeID(nil), nd.Sections...), nd.Guides...)
		return b.add(graph.NodeNetwork, netName, children, nd), nil
	})

	// -----------------------------------------------------------------------
	// (node "root")
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("node requires a name argument")
		}

		nodeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: name: %w", err)
		}

		n := g.Lookup(nodeName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("node: no node named %q", nodeName)
		}

		return &sexpNodeRef{id: n.ID, name: nodeName}, nil
	})

	// -----------------------------------------------------------------------
	// (group "aircraft" wing tail ...)
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}

		grpName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}

		var children []graph.NodeID
		for i, arg := range pa.positional[1:] {
			ref, ok := arg.(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("group: child %d: expected node reference, got %T (%s)",
					i+1, arg, arg.SexpString(nil))
			}
			children = append(children, ref.id)
		}
		gd := graph.GroupData{}
		if err := pa.word("group", "description", &gd.Description); err != nil {
			return zygo.SexpNull, err
		}

		ref := b.add(graph.NodeGroup, grpName, children, gd)
		g.AddRoot(ref.id)
		return ref, nil
	})
}
