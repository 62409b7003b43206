// Package tessellate walks a design graph and produces triangle meshes.
// Networks are filled with patches by the patch network and sampled on a
// regular parameter grid; sections that stand on their own become thin
// slabs built by the solid modeler. One mesh is produced per part.
package tessellate

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/graph"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/patches"
	"github.com/chazu/spar/pkg/profile"
	"github.com/chazu/spar/pkg/wire"
)

// Option configures a Scene.
type Option func(*Scene)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(s *Scene) { s.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Scene) {
		if log != nil {
			s.log = log
		}
	}
}

// Scene turns the nodes of one design graph into geometry. Profiles are
// built once and shared by every section that references them. A Scene is
// read-only with respect to the graph and is not safe for concurrent use.
type Scene struct {
	g   *graph.DesignGraph
	geo kernel.Geometry
	mod kernel.Modeler
	cfg config.Config
	log logrus.FieldLogger

	profiles map[graph.NodeID]*profile.Profile
}

// NewScene prepares a scene over g. mod may be nil when no section is
// tessellated on its own.
func NewScene(g *graph.DesignGraph, geo kernel.Geometry, mod kernel.Modeler, opts ...Option) *Scene {
	s := &Scene{
		g:        g,
		geo:      geo,
		mod:      mod,
		cfg:      config.Default(),
		log:      logrus.StandardLogger(),
		profiles: make(map[graph.NodeID]*profile.Profile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tessellate walks the design graph and returns one mesh per part.
func Tessellate(g *graph.DesignGraph, geo kernel.Geometry, mod kernel.Modeler, opts ...Option) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}
	return NewScene(g, geo, mod, opts...).Meshes()
}

// Profile returns the built profile of a profile node.
func (s *Scene) Profile(id graph.NodeID) (*profile.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	n, err := s.node(id, graph.NodeProfile)
	if err != nil {
		return nil, err
	}
	data, ok := n.Data.(graph.ProfileData)
	if !ok {
		return nil, fmt.Errorf("profile node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	alg := wire.BSpline
	if data.Algorithm != "" {
		if alg, err = wire.ParseAlgorithm(data.Algorithm); err != nil {
			return nil, err
		}
	}
	p := profile.New(s.geo, n.ID.String(),
		profile.WithConfig(s.cfg),
		profile.WithLogger(s.log.WithField("profile", n.Name)),
		profile.WithAlgorithm(alg),
		profile.WithName(n.Name),
	)
	switch {
	case data.CST != nil:
		c := data.CST
		err = p.SetCST(profile.CST{
			UpperN1: c.UpperN1, UpperN2: c.UpperN2, UpperB: c.UpperB,
			LowerN1: c.LowerN1, LowerN2: c.LowerN2, LowerB: c.LowerB,
			Psi:         c.Psi,
			TEThickness: c.TEThickness,
		})
	default:
		pts := make([]v3.Vec, len(data.Points))
		for i, q := range data.Points {
			pts[i] = q.Vec()
		}
		err = p.SetPoints(pts)
	}
	if err == nil {
		err = p.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", n.Name, err)
	}
	s.profiles[id] = p
	return p, nil
}

// placement is a section resolved against its profile.
type placement struct {
	node    *graph.Node
	data    graph.SectionData
	profile *profile.Profile
	mod     profile.ShapeModifier
}

// transform maps profile coordinates into the section frame: scale by the
// chord, twist about y, then move to the origin. A positive twist raises
// the leading edge.
func (pl placement) transform() sdf.M44 {
	twist := pl.data.Twist * math.Pi / 180
	return sdf.Translate3d(pl.data.Origin.Vec()).
		Mul(sdf.RotateY(twist)).
		Mul(sdf.Scale3d(v3.Vec{X: pl.data.Chord, Y: pl.data.Chord, Z: pl.data.Chord}))
}

func (s *Scene) place(id graph.NodeID) (placement, error) {
	n, err := s.node(id, graph.NodeSection)
	if err != nil {
		return placement{}, err
	}
	data, ok := n.Data.(graph.SectionData)
	if !ok {
		return placement{}, fmt.Errorf("section node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	mod, err := profile.ParseModifier(data.Modifier)
	if err != nil {
		return placement{}, fmt.Errorf("section %q: %w", n.Name, err)
	}
	p, err := s.Profile(data.Profile)
	if err != nil {
		return placement{}, fmt.Errorf("section %q: %w", n.Name, err)
	}
	return placement{node: n, data: data, profile: p, mod: mod}, nil
}

// SectionWire returns the closed outline of a section placed in space.
func (s *Scene) SectionWire(id graph.NodeID) (*kernel.Wire, error) {
	pl, err := s.place(id)
	if err != nil {
		return nil, err
	}
	w, err := pl.profile.Wire(pl.mod)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", pl.node.Name, err)
	}
	return w.Transform(pl.transform()), nil
}

// guidePoint returns the point a guide passes through on a section, in
// profile coordinates. At xsi = 1 the guide snaps to the end of the
// section curve on its side so that blunt trailing edges keep their
// corners on guides.
func guidePoint(pl placement, gd graph.GuideData, tol float64) (v3.Vec, error) {
	if 1-gd.Xsi >= tol {
		return pl.profile.Point(gd.Xsi, gd.Upper)
	}
	w, err := pl.profile.UpperLowerWire(pl.mod)
	if err != nil {
		return v3.Vec{}, err
	}
	a, b := w.Start(), w.End()
	if (a.Z < b.Z) == gd.Upper {
		a = b
	}
	return a, nil
}

// Network builds the patch network of a network node. Every section
// contributes the single curve of its outline without the trailing edge;
// every guide is interpolated through its points on the sections in
// network order.
func (s *Scene) Network(id graph.NodeID) (*patches.Network, error) {
	n, err := s.node(id, graph.NodeNetwork)
	if err != nil {
		return nil, err
	}
	data, ok := n.Data.(graph.NetworkData)
	if !ok {
		return nil, fmt.Errorf("network node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	places := make([]placement, len(data.Sections))
	profiles := make([]*kernel.Wire, len(data.Sections))
	for i, sid := range data.Sections {
		pl, err := s.place(sid)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", n.Name, err)
		}
		w, err := pl.profile.UpperLowerWire(pl.mod)
		if err != nil {
			return nil, fmt.Errorf("network %q: section %q: %w", n.Name, pl.node.Name, err)
		}
		places[i] = pl
		profiles[i] = w.Transform(pl.transform())
	}

	guides := make([]*kernel.Wire, len(data.Guides))
	for i, gid := range data.Guides {
		gn, err := s.node(gid, graph.NodeGuide)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", n.Name, err)
		}
		gd, ok := gn.Data.(graph.GuideData)
		if !ok {
			return nil, fmt.Errorf("guide node %s has unexpected data type %T", gn.ID.Short(), gn.Data)
		}
		pts := make([]v3.Vec, len(places))
		for j, pl := range places {
			q, err := guidePoint(pl, gd, s.cfg.Tolerance)
			if err != nil {
				return nil, fmt.Errorf("network %q: guide %q on section %q: %w", n.Name, gn.Name, pl.node.Name, err)
			}
			pts[j] = pl.transform().MulPosition(q)
		}
		w, err := wire.BuildWire(s.geo, wire.BSpline, pts, false, wire.WithTolerance(s.cfg.Tolerance))
		if err != nil {
			return nil, fmt.Errorf("network %q: guide %q: %w", n.Name, gn.Name, err)
		}
		guides[i] = w
	}

	return patches.NewNetwork(s.geo, guides, profiles,
		patches.WithConfig(s.cfg),
		patches.WithLogger(s.log.WithField("network", n.Name)),
	), nil
}

// Surface fills the network node and returns the resulting shell.
func (s *Scene) Surface(id graph.NodeID) (*kernel.Shell, error) {
	net, err := s.Network(id)
	if err != nil {
		return nil, err
	}
	n := s.g.Get(id)
	data := n.Data.(graph.NetworkData)
	opts := net.DefaultPatchOptions()
	if data.Style != "" {
		if opts.Style, err = kernel.ParseFillStyle(data.Style); err != nil {
			return nil, fmt.Errorf("network %q: %w", n.Name, err)
		}
	}
	if data.Sewing != nil {
		opts.Sewing = *data.Sewing
	}
	shell, st := net.Patches(opts)
	if st != patches.OK {
		// Cells names the failing loop walk or the broken cell.
		if _, err := net.Cells(); err != nil {
			return nil, fmt.Errorf("network %q: %w", n.Name, err)
		}
		return nil, fmt.Errorf("network %q: %w", n.Name, &patches.StatusError{Status: st, Reason: "no cell could be filled"})
	}
	return shell, nil
}

// Meshes walks the roots of the graph and returns one mesh per part.
func (s *Scene) Meshes() ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, rootID := range s.g.Roots {
		root := s.g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := s.walk(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

func (s *Scene) walk(n *graph.Node) ([]*kernel.Mesh, error) {
	switch n.Kind {
	case graph.NodeGroup:
		var meshes []*kernel.Mesh
		for _, child := range s.g.Children(n) {
			collected, err := s.walk(child)
			if err != nil {
				return nil, err
			}
			meshes = append(meshes, collected...)
		}
		return meshes, nil

	case graph.NodeNetwork:
		m, err := s.networkMesh(n)
		if err != nil {
			return nil, err
		}
		return []*kernel.Mesh{m}, nil

	case graph.NodeSection:
		m, err := s.sectionMesh(n)
		if err != nil {
			return nil, err
		}
		return []*kernel.Mesh{m}, nil

	case graph.NodeProfile, graph.NodeGuide:
		// Nothing to show on their own.
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// networkMesh samples every face of the filled network on a regular
// (PatchSamples+1)^2 grid over its parameter rectangle.
func (s *Scene) networkMesh(n *graph.Node) (*kernel.Mesh, error) {
	shell, err := s.Surface(n.ID)
	if err != nil {
		return nil, err
	}
	steps := s.cfg.PatchSamples
	if steps < 1 {
		steps = 1
	}
	m := &kernel.Mesh{PartName: partName(n)}
	for _, f := range shell.Faces {
		u0, u1, v0, v1 := f.Surface.Bounds()
		grid := make([][]v3.Vec, steps+1)
		for i := range grid {
			u := u0 + (u1-u0)*float64(i)/float64(steps)
			grid[i] = make([]v3.Vec, steps+1)
			for j := range grid[i] {
				v := v0 + (v1-v0)*float64(j)/float64(steps)
				grid[i][j] = f.Surface.Value(u, v)
			}
		}
		m.AddGrid(grid)
	}
	s.log.WithFields(logrus.Fields{
		"network":   n.Name,
		"faces":     len(shell.Faces),
		"triangles": m.TriangleCount(),
	}).Debug("network tessellated")
	return m, nil
}

// SlabThickness returns the slab thickness relative to the chord.
func (s *Scene) SlabThickness() float64 {
	if t := s.g.Defaults.SlabThickness; t > 0 {
		return t
	}
	return graph.DefaultSlabThickness
}

// sectionMesh extrudes the section outline into a thin slab normal to the
// section plane.
func (s *Scene) sectionMesh(n *graph.Node) (*kernel.Mesh, error) {
	if s.mod == nil {
		return nil, fmt.Errorf("section %q: no solid modeler", n.Name)
	}
	pl, err := s.place(n.ID)
	if err != nil {
		return nil, err
	}
	ring, err := pl.profile.Outline(pl.mod)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", n.Name, err)
	}
	chord := pl.data.Chord
	outline := make([]v2.Vec, 0, len(ring))
	for i, q := range ring {
		if i == len(ring)-1 && q.Equal(ring[0]) {
			break
		}
		outline = append(outline, v2.Vec{X: q[0] * chord, Y: q[1] * chord})
	}

	solid, err := s.mod.Extrude(outline, s.SlabThickness()*chord)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", n.Name, err)
	}
	// The outline was drawn in xy; stand it up into xz.
	solid = s.mod.Rotate(solid, 90, 0, 0)
	if pl.data.Twist != 0 {
		solid = s.mod.Rotate(solid, 0, pl.data.Twist, 0)
	}
	o := pl.data.Origin
	if o.X != 0 || o.Y != 0 || o.Z != 0 {
		solid = s.mod.Translate(solid, o.X, o.Y, o.Z)
	}

	m, err := s.mod.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for node %s: %w", n.ID.Short(), err)
	}
	m.PartName = partName(n)
	return m, nil
}

func (s *Scene) node(id graph.NodeID, kind graph.NodeKind) (*graph.Node, error) {
	n := s.g.Get(id)
	if n == nil {
		return nil, kernel.NotFoundError{Query: fmt.Sprintf("%s %s", kind, id.Short()), Message: "node is not in the graph"}
	}
	if n.Kind != kind {
		return nil, fmt.Errorf("node %q is a %s, not a %s", n.Name, n.Kind, kind)
	}
	return n, nil
}

// partName prefers the node's name and falls back to its short ID.
func partName(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}
