package tessellate

import (
	"fmt"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/kernel/manifold"
	"github.com/chazu/spar/pkg/kernel/sdfx"
)

// NewModeler returns the solid modeler named by cfg.Modeler. The sdfx
// modeler meshes with cfg.MeshCells cells along its longest side.
func NewModeler(cfg config.Config) (kernel.Modeler, error) {
	switch cfg.Modeler {
	case "", "sdfx":
		return sdfx.NewWithCells(cfg.MeshCells), nil
	case "manifold":
		m, err := manifold.New()
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("tessellate: unknown modeler %q", cfg.Modeler)
}
