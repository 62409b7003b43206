package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/chazu/spar/pkg/config"
	"github.com/chazu/spar/pkg/engine"
	"github.com/chazu/spar/pkg/kernel"
	"github.com/chazu/spar/pkg/kernel/nurbs"
	"github.com/chazu/spar/pkg/kernel/sdfx"
	"github.com/chazu/spar/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx      context.Context
	engine   *engine.Engine
	geometry kernel.Geometry
	modeler  kernel.Modeler
	cfg      config.Config
	log      logrus.FieldLogger
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App configured from the SPAR_* environment, with
// the NURBS geometry kernel for curves and patches and the configured
// modeler for section slabs.
func NewApp() *App {
	log := logrus.StandardLogger()
	cfg, err := config.FromEnv()
	if err != nil {
		log.WithError(err).Warn("falling back to the default configuration")
		cfg = config.Default()
	}
	return newApp(cfg, log)
}

func newApp(cfg config.Config, log logrus.FieldLogger) *App {
	mod, err := tessellate.NewModeler(cfg)
	if err != nil {
		log.WithError(err).Warn("falling back to the sdfx modeler")
		mod = sdfx.NewWithCells(cfg.MeshCells)
	}
	return &App{
		engine:   engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout), engine.WithLogger(log)),
		geometry: nurbs.New(),
		modeler:  mod,
		cfg:      cfg,
		log:      log,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a design graph.
	res, err := a.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.WithError(err).Error("evaluate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Tessellate the design graph into triangle meshes.
	meshes, err := tessellate.Tessellate(res.Graph, a.geometry, a.modeler,
		tessellate.WithConfig(a.cfg), tessellate.WithLogger(a.log))
	if err != nil {
		a.log.WithError(err).Warn("tessellation failed")
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes to the frontend MeshData format.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	return result
}
