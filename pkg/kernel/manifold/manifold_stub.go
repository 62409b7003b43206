//go:build !manifold

// Package manifold implements kernel.Modeler on the Manifold C library.
// Without the "manifold" build tag only this stub is compiled and New
// reports that the modeler is unavailable.
package manifold

import (
	"errors"

	"github.com/chazu/spar/pkg/kernel"
)

// ErrUnavailable is returned by New in builds without the manifold tag.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New returns ErrUnavailable. Build with -tags=manifold to enable.
func New() (kernel.Modeler, error) {
	return nil, ErrUnavailable
}
