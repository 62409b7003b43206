// Package config holds the tolerances and empirical constants of the
// profile engine and the patch network.
//
// Values start from Default, may be read from a TOML file, and are then
// overlaid with SPAR_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SPAR"

// Config is the complete set of tunables.
type Config struct {
	// Tolerance is the point coincidence distance.
	Tolerance float64 `toml:"tolerance" envconfig:"TOLERANCE"`
	// BlendingWindow is the chord fraction near the TE in which samples
	// are blended to open or close a profile.
	BlendingWindow float64 `toml:"blending_window" envconfig:"BLENDING_WINDOW"`
	// TEGap is the TE opening relative to the profile thickness used for
	// the blunt variant of a closed profile.
	TEGap float64 `toml:"te_gap" envconfig:"TE_GAP"`
	// SkewWarnRelDist is the relative trim distance above which a skewed
	// TE trim is logged.
	SkewWarnRelDist float64 `toml:"skew_warn_rel_dist" envconfig:"SKEW_WARN_REL_DIST"`

	TolConf  float64 `toml:"tol_conf" envconfig:"TOL_CONF"`
	TolParam float64 `toml:"tol_param" envconfig:"TOL_PARAM"`
	Sewing   bool    `toml:"sewing" envconfig:"SEWING"`

	// Modeler names the solid modeler for section slabs: "sdfx" or
	// "manifold" (needs the manifold build tag).
	Modeler      string        `toml:"modeler" envconfig:"MODELER"`
	MeshCells    int           `toml:"mesh_cells" envconfig:"MESH_CELLS"`
	PatchSamples int           `toml:"patch_samples" envconfig:"PATCH_SAMPLES"`
	EvalTimeout  time.Duration `toml:"eval_timeout" envconfig:"EVAL_TIMEOUT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tolerance:       1e-7,
		BlendingWindow:  0.1,
		TEGap:           1e-2,
		SkewWarnRelDist: 1e-4,
		TolConf:         1e-4,
		TolParam:        1e-4,
		Sewing:          true,
		Modeler:         "sdfx",
		MeshCells:       200,
		PatchSamples:    8,
		EvalTimeout:     5 * time.Second,
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(os.ExpandEnv(path), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv applies the environment to the defaults.
func FromEnv() (Config, error) {
	return Load("")
}

// Validate rejects values the algorithms cannot work with.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"tolerance", c.Tolerance},
		{"te_gap", c.TEGap},
		{"skew_warn_rel_dist", c.SkewWarnRelDist},
		{"tol_conf", c.TolConf},
		{"tol_param", c.TolParam},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			return fmt.Errorf("config: %s must be positive, got %g", p.name, p.v)
		}
	}
	if !(c.BlendingWindow > 0 && c.BlendingWindow < 1) {
		return fmt.Errorf("config: blending_window must lie in (0, 1), got %g", c.BlendingWindow)
	}
	switch c.Modeler {
	case "sdfx", "manifold":
	default:
		return fmt.Errorf("config: modeler must be sdfx or manifold, got %q", c.Modeler)
	}
	if c.MeshCells <= 0 {
		return fmt.Errorf("config: mesh_cells must be positive, got %d", c.MeshCells)
	}
	if c.PatchSamples < 1 {
		return fmt.Errorf("config: patch_samples must be at least 1, got %d", c.PatchSamples)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("config: eval_timeout must be positive, got %v", c.EvalTimeout)
	}
	return nil
}
