// Package patches partitions a network of guide and profile curves into
// four-sided cells and fills them with surfaces.
//
// Guides run from the first profile to the last and profiles run from the
// first guide to the last. Closed profiles must have their seam on a guide,
// and closed guides on a profile. The network is fused into one edge set,
// every fragment keeping the provenance of the curve it came from; the
// loop finder then walks the cells corner by corner.
package patches

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
)

// Provenance tells which curve family an edge descends from.
type Provenance int

const (
	Guide Provenance = iota
	Profile
)

func (p Provenance) String() string {
	switch p {
	case Guide:
		return "guide"
	case Profile:
		return "profile"
	default:
		return fmt.Sprintf("Provenance(%d)", int(p))
	}
}

// Status is the outcome of the loop finder or of patch filling.
type Status int

const (
	OK Status = iota
	Fail
	FailStartingPoint
	FailNoData
	FailFirstEdge
	FailSecondEdge
	FailThirdEdge
	FailFourthEdge
	FailNoClosedProfile
	FailIntersection
	FailPatches
)

var statusNames = map[Status]string{
	OK:                  "OK",
	Fail:                "FAIL",
	FailStartingPoint:   "FAIL_STARTINGPOINT",
	FailNoData:          "FAIL_NODATA",
	FailFirstEdge:       "FAIL_FIRSTEDGE",
	FailSecondEdge:      "FAIL_SECONDEDGE",
	FailThirdEdge:       "FAIL_THIRDEDGE",
	FailFourthEdge:      "FAIL_FOURTHEDGE",
	FailNoClosedProfile: "FAIL_NOCLOSEDPROFILE",
	FailIntersection:    "FAIL_INTERSECTION",
	FailPatches:         "FAIL_PATCHES",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// StatusError carries a non-OK status through an error return.
type StatusError struct {
	Status Status
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return "patches: " + e.Status.String()
	}
	return fmt.Sprintf("patches: %s: %s", e.Status, e.Reason)
}

// Option configures a Network.
type Option func(*Network)

// WithConfig replaces the default tolerances.
func WithConfig(cfg config.Config) Option {
	return func(n *Network) { n.cfg = cfg }
}

// WithLogger sets the logger for fuse and fill diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(n *Network) {
		if log != nil {
			n.log = log
		}
	}
}

// WithExpectedGrid makes Perform fail with FailNoClosedProfile unless the
// grid has exactly rows guide intervals and cols profile intervals.
func WithExpectedGrid(rows, cols int) Option {
	return func(n *Network) { n.expected = &[2]int{rows, cols} }
}

// Network is a set of guide and profile wires. Results are computed once
// and cached under the network's mutex.
type Network struct {
	mu sync.Mutex

	g        kernel.Geometry
	guides   []*kernel.Wire
	profiles []*kernel.Wire
	cfg      config.Config
	log      logrus.FieldLogger
	expected *[2]int

	fused     *Fused
	fuseErr   error
	performed bool
	status    Status
	grid      *Grid
}

// NewNetwork stores the guide and profile wires. Nothing is computed until
// Fuse, Perform or Patches is called.
func NewNetwork(g kernel.Geometry, guides, profiles []*kernel.Wire, opts ...Option) *Network {
	n := &Network{
		g:        g,
		guides:   guides,
		profiles: profiles,
		cfg:      config.Default(),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Guides returns the number of guide wires.
func (n *Network) Guides() int { return len(n.guides) }

// Profiles returns the number of profile wires.
func (n *Network) Profiles() int { return len(n.profiles) }
