// Package profile turns wing-profile samples into profile curves.
//
// A Profile is loaded either from a point list (SetPoints) or from CST
// coefficients (SetCST). On first use it detects the leading and trailing
// edge, fits closed (sharp TE) and opened (blunt TE) variants of the
// profile wire, splits each at the leading edge into an upper and a lower
// curve and trims skewed trailing edges. The derived geometry is held in
// a cache value that Invalidate drops.
package profile

import (
	"fmt"
	"strings"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/wire"
)

// ShapeModifier selects a trailing-edge variant of the profile wires.
type ShapeModifier int

const (
	// Unmodified resolves to SharpTrailingEdge for closed samples and to
	// BluntTrailingEdge otherwise.
	Unmodified ShapeModifier = iota
	SharpTrailingEdge
	BluntTrailingEdge
)

func (m ShapeModifier) String() string {
	switch m {
	case Unmodified:
		return "unmodified"
	case SharpTrailingEdge:
		return "sharp"
	case BluntTrailingEdge:
		return "blunt"
	default:
		return fmt.Sprintf("ShapeModifier(%d)", int(m))
	}
}

// ParseModifier maps a name such as "sharp" to a ShapeModifier.
func ParseModifier(name string) (ShapeModifier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unmodified":
		return Unmodified, nil
	case "sharp":
		return SharpTrailingEdge, nil
	case "blunt":
		return BluntTrailingEdge, nil
	}
	return 0, kernel.ValidationError{Field: "modifier", Message: fmt.Sprintf("unknown trailing edge modifier %q", name)}
}

// Kind tells how the samples of a profile were given.
type Kind int

const (
	Empty Kind = iota
	PointList
	CSTKind
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case PointList:
		return "pointList"
	case CSTKind:
		return "cst2D"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Option configures a Profile.
type Option func(*Profile)

// WithConfig replaces the default tolerances and constants.
func WithConfig(cfg config.Config) Option {
	return func(p *Profile) { p.cfg = cfg }
}

// WithLogger sets the logger receiving tolerable-condition warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Profile) {
		if log != nil {
			p.log = log
		}
	}
}

// WithAlgorithm selects the wire algorithm. Only wire.BSpline produces a
// usable profile.
func WithAlgorithm(alg wire.Algorithm) Option {
	return func(p *Profile) { p.alg = alg }
}

// WithName sets the human readable profile name.
func WithName(name string) Option {
	return func(p *Profile) { p.name = name }
}

// Profile is one wing profile. It is safe for concurrent use; derived
// geometry is computed once under the profile's mutex.
type Profile struct {
	mu sync.Mutex

	uid  string
	name string
	g    kernel.Geometry
	alg  wire.Algorithm
	cfg  config.Config
	log  logrus.FieldLogger

	kind    Kind
	samples []v3.Vec
	cst     *CST

	cache *cache
}

// New returns a profile without samples.
func New(g kernel.Geometry, uid string, opts ...Option) *Profile {
	p := &Profile{
		uid: uid,
		g:   g,
		alg: wire.BSpline,
		cfg: config.Default(),
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// UID returns the profile identifier.
func (p *Profile) UID() string { return p.uid }

// Name returns the profile name, falling back to the UID.
func (p *Profile) Name() string {
	if p.name == "" {
		return p.uid
	}
	return p.name
}

// Kind reports how the samples were given.
func (p *Profile) Kind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind
}

// Samples returns a copy of the ordered profile samples. For CST profiles
// these are the generated coordinates.
func (p *Profile) Samples() []v3.Vec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]v3.Vec(nil), p.samples...)
}

// CST returns a copy of the CST parameters, or nil for point lists.
func (p *Profile) CST() *CST {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cst == nil {
		return nil
	}
	c := p.cst.clone()
	return &c
}

// SetPoints loads point-list samples. The samples are validated and
// ordered first; on error the profile keeps its previous state.
func (p *Profile) SetPoints(points []v3.Vec) error {
	ordered, err := OrderPoints(points, p.log.WithField("profile", p.uid))
	if err != nil {
		return fmt.Errorf("profile %s: %w", p.uid, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kind = PointList
	p.samples = ordered
	p.cst = nil
	p.cache = nil
	return nil
}

// SetCST loads CST coefficients and generates the samples from them.
func (p *Profile) SetCST(c CST) error {
	c = c.clone()
	psi, err := NormalizePsi(c.Psi, p.cfg.TolConf)
	if err != nil {
		return fmt.Errorf("profile %s: %w", p.uid, err)
	}
	c.Psi = psi
	if err := c.validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.uid, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kind = CSTKind
	p.cst = &c
	p.samples = c.walk()
	p.cache = nil
	return nil
}

// Invalidate drops all derived geometry. It is rebuilt on the next query.
func (p *Profile) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = nil
}

// built returns the cache, filling it on first use. The caller must hold
// p.mu.
func (p *Profile) built() (*cache, error) {
	if p.cache != nil {
		return p.cache, nil
	}
	if p.kind == Empty {
		return nil, kernel.ValidationError{Field: "profile", Message: fmt.Sprintf("%s has no samples", p.uid)}
	}
	if p.alg != wire.BSpline {
		return nil, &kernel.GeometryError{Op: "profile", Message: "Linear Wing Profiles are currently not supported"}
	}
	var (
		c   *cache
		err error
	)
	switch p.kind {
	case PointList:
		c, err = p.buildPointList()
	case CSTKind:
		c, err = p.buildCST()
	}
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.uid, err)
	}
	p.cache = c
	return c, nil
}

// Build computes the derived geometry now instead of on first query.
func (p *Profile) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.built()
	return err
}

func (p *Profile) variant(mod ShapeModifier) (*variant, error) {
	c, err := p.built()
	if err != nil {
		return nil, err
	}
	switch mod {
	case SharpTrailingEdge:
		return c.sharp, nil
	case BluntTrailingEdge:
		return c.blunt, nil
	case Unmodified:
		if c.closedSamples {
			return c.sharp, nil
		}
		return c.blunt, nil
	}
	return nil, kernel.ValidationError{Field: "modifier", Message: fmt.Sprintf("unknown shape modifier %v", mod)}
}

// UpperWire returns the upper curve of the profile, running from the
// leading edge towards the trailing edge or back, as fitted.
func (p *Profile) UpperWire(mod ShapeModifier) (*kernel.Wire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.variant(mod)
	if err != nil {
		return nil, err
	}
	return kernel.NewWire(v.upper), nil
}

// LowerWire returns the lower curve of the profile.
func (p *Profile) LowerWire(mod ShapeModifier) (*kernel.Wire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.variant(mod)
	if err != nil {
		return nil, err
	}
	return kernel.NewWire(v.lower), nil
}

// UpperLowerWire returns the combined upper and lower curve without the
// trailing edge.
func (p *Profile) UpperLowerWire(mod ShapeModifier) (*kernel.Wire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.variant(mod)
	if err != nil {
		return nil, err
	}
	return kernel.NewWire(v.upperLower), nil
}

// TrailingEdge returns the straight trailing-edge edge closing the
// variant, or nil when the variant has a sharp trailing edge.
func (p *Profile) TrailingEdge(mod ShapeModifier) (*kernel.Edge, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.variant(mod)
	if err != nil {
		return nil, err
	}
	return v.trailingEdge, nil
}

// Wire returns the closed outline of the variant: the combined curve
// followed by the trailing edge when there is one.
func (p *Profile) Wire(mod ShapeModifier) (*kernel.Wire, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.variant(mod)
	if err != nil {
		return nil, err
	}
	w := kernel.NewWire(v.upperLower)
	if v.trailingEdge != nil {
		w.Edges = append(w.Edges, v.trailingEdge)
	}
	return w, nil
}

// LeadingEdge returns the leading-edge point.
func (p *Profile) LeadingEdge() (v3.Vec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.built()
	if err != nil {
		return v3.Vec{}, err
	}
	return c.le, nil
}

// TrailingEdgePoint returns the trailing-edge point after the chord has
// been shortened to the sample extent.
func (p *Profile) TrailingEdgePoint() (v3.Vec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.built()
	if err != nil {
		return v3.Vec{}, err
	}
	return c.te, nil
}

// IsClosed reports whether the samples form a closed outline, i.e. the
// profile has a sharp trailing edge as given.
func (p *Profile) IsClosed() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.built()
	if err != nil {
		return false, err
	}
	return c.closedSamples, nil
}

// HasBluntTE reports whether the first and last samples are apart.
func (p *Profile) HasBluntTE() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.samples) < 2 {
		return false
	}
	first, last := p.samples[0], p.samples[len(p.samples)-1]
	if p.kind == CSTKind && p.cst != nil {
		return p.cst.TEThickness > p.cfg.TolConf
	}
	return first.Sub(last).Length() > p.cfg.TolConf
}

// ---------------------------------------------------------------------------
// Derived geometry
// ---------------------------------------------------------------------------

type cache struct {
	le, te        v3.Vec
	closedSamples bool
	sharp, blunt  *variant
}

// variant holds the curves of one trailing-edge variant as edges that
// share their end vertices.
type variant struct {
	upper, lower *kernel.Edge
	upperLower   *kernel.Edge
	trailingEdge *kernel.Edge
}

func (p *Profile) buildPointList() (*cache, error) {
	le, te, err := ComputeLETE(p.samples, p.cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	te = ShortenChord(p.samples, le, te)
	c := &cache{le: le, te: te}
	c.closedSamples = !isOpen(p.samples, p.cfg.Tolerance)

	closedWire, err := BuildClosedVariant(p.g, p.alg, p.samples, p.cfg)
	if err != nil {
		return nil, err
	}
	openWire, err := BuildOpenVariant(p.g, p.alg, p.samples, p.cfg)
	if err != nil {
		return nil, err
	}
	if c.sharp, err = p.makeVariant(closedWire, le, te, "sharp", SplitUpperLower); err != nil {
		return nil, err
	}
	if c.blunt, err = p.makeVariant(openWire, le, te, "blunt", SplitUpperLower); err != nil {
		return nil, err
	}
	// The closed variant never carries a trailing edge.
	c.sharp.trailingEdge = nil
	return c, nil
}

type splitFunc func(g kernel.Geometry, c kernel.Curve, le v3.Vec) (upper, lower kernel.Curve, err error)

// makeVariant splits and trims a single-edge wire and turns the result
// into edges.
func (p *Profile) makeVariant(w *kernel.Wire, le, te v3.Vec, label string, split splitFunc) (*variant, error) {
	if w.Len() != 1 {
		return nil, &kernel.GeometryError{Op: "profile", Message: fmt.Sprintf("%s wire has %d edges, want 1", label, w.Len())}
	}
	curve := kernel.ProjectXZ(w.Edges[0].Curve)
	upper, lower, err := split(p.g, curve, le)
	if err != nil {
		return nil, err
	}
	log := p.log.WithFields(logrus.Fields{"profile": p.uid, "variant": label})
	upper, lower, curve, err = TrimSkewedTrailingEdge(p.g, upper, lower, curve, le, te, p.cfg, log)
	if err != nil {
		return nil, err
	}
	return assemble(p.g, upper, lower, curve, p.cfg.TolConf), nil
}

// assemble builds edges for the split curves. The upper and lower edge
// share the leading-edge vertex and the combined edge shares the outer
// vertices with them.
func assemble(g kernel.Geometry, upper, lower, combined kernel.Curve, tol float64) *variant {
	a := kernel.NewVertex(kernel.StartPoint(combined))
	b := a
	if !kernel.IsClosedCurve(combined, tol) {
		b = kernel.NewVertex(kernel.EndPoint(combined))
	}
	first, second := lower, upper
	if startsCombined(upper, combined) {
		first, second = upper, lower
	}
	le := kernel.NewVertex(kernel.EndPoint(first))

	v := &variant{upperLower: kernel.NewEdgeBetween(combined, a, b)}
	firstEdge := kernel.NewEdgeBetween(first, a, le)
	secondEdge := kernel.NewEdgeBetween(second, le, b)
	if first == upper {
		v.upper, v.lower = firstEdge, secondEdge
	} else {
		v.lower, v.upper = firstEdge, secondEdge
	}
	if a != b {
		v.trailingEdge = kernel.NewEdgeBetween(g.Line(b.Point, a.Point), b, a)
	}
	return v
}

// startsCombined reports whether c is the leading part of combined. Both
// are trims of the same fitted curve, so their parameters agree.
func startsCombined(c, combined kernel.Curve) bool {
	return c.FirstParameter() <= combined.FirstParameter()+1e-12
}

func isOpen(samples []v3.Vec, tol float64) bool {
	return samples[0].Sub(samples[len(samples)-1]).Length() >= tol
}
