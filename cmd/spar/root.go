package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/engine"
	"github.com/chazu/spar/pkg/graph"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/kernel/nurbs"
)

// cli holds the state shared by all sub-commands.
type cli struct {
	configFile string
	logLevel   string

	cfg config.Config
	log *logrus.Logger
	geo kernel.Geometry
}

func newRootCmd() *cobra.Command {
	c := &cli{log: logrus.New(), geo: nurbs.New()}
	root := &cobra.Command{
		Use:   "spar",
		Short: "Wing profile and patch network tool",
		Long: "spar builds wing profiles from CPACS point lists and CST parameters,\n" +
			"and fills networks of guide and profile curves with surface patches.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.startup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "TOML configuration file (SPAR_* variables override it)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warning", "log level: debug, info, warning or error")

	root.AddCommand(
		c.profileCmd(),
		c.evalCmd(),
		c.patchesCmd(),
		c.meshCmd(),
	)
	return root
}

// startup reads the configuration and sets up logging.
func (c *cli) startup(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(c.logLevel)
	if err != nil {
		return err
	}
	c.log.SetLevel(level)
	c.log.SetOutput(cmd.ErrOrStderr())

	c.cfg, err = config.Load(c.configFile)
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"config":    c.configFile,
		"tolerance": c.cfg.Tolerance,
		"tol_conf":  c.cfg.TolConf,
	}).Debug("configuration loaded")
	return nil
}

// evalFile evaluates a spar script and fails on evaluation errors.
func (c *cli) evalFile(path string) (*engine.EvalResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(engine.WithTimeout(c.cfg.EvalTimeout), engine.WithLogger(c.log))
	res, err := eng.Run(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			c.log.WithField("file", path).Error(e.Error())
		}
		return nil, fmt.Errorf("%s: %d evaluation error(s), first: %s", path, len(res.Errors), res.Errors[0].Error())
	}
	return res, nil
}

// networks returns the network nodes to work on: all of them, or the one
// named name.
func networks(g *graph.DesignGraph, name string) ([]*graph.Node, error) {
	if name == "" {
		nets := g.Networks()
		if len(nets) == 0 {
			return nil, fmt.Errorf("script defines no network")
		}
		return nets, nil
	}
	n := g.Lookup(name)
	if n == nil || n.Kind != graph.NodeNetwork {
		return nil, fmt.Errorf("no network named %q", name)
	}
	return []*graph.Node{n}, nil
}
