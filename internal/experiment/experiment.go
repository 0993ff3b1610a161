// Package experiment turns a run configuration into a populated System and
// drives it through the simulator.
package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/description"
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/metrics"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/storage"
)

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

// WithLogOutput builds the logger from the configuration, writing to w.
func WithLogOutput(w io.Writer) Option {
	return func(e *Experiment) { e.logOut = w }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// WithOverrides sets float variables before initialization. Keys are
// "<object reference>/<variable>", e.g. "earth/mu".
func WithOverrides(values map[string]float64) Option {
	return func(e *Experiment) { e.overrides = maps.Clone(values) }
}

// WithEscapeRadius adds a stability metric per moving track that counts
// samples within radius meters of the root origin.
func WithEscapeRadius(radius float64) Option {
	return func(e *Experiment) { e.escapeRadius = radius }
}

type Experiment struct {
	cfg          config.Config
	registry     *Registry
	log          *slog.Logger
	logOut       io.Writer
	overrides    map[string]float64
	escapeRadius float64

	scene     string
	sys       *sim.System
	simulator *sim.Simulator
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: *cfg, registry: defaultRegistry}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		if e.logOut != nil {
			e.log = logging.New(cfg.Log.Level, cfg.Log.Format, e.logOut)
		} else {
			e.log = logging.Discard()
		}
	}
	return e
}

// Setup builds the System: solvers, scene and metrics. It can run once.
func (e *Experiment) Setup() error {
	if e.sys != nil {
		return errors.New("experiment already set up")
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	label, data, err := e.cfg.SceneSource()
	if err != nil {
		return err
	}
	propagator, err := e.registry.PropagatorFor(e.cfg.Integrator)
	if err != nil {
		return err
	}

	sys := sim.New(sim.WithLogger(e.log))
	if err := e.registry.RegisterAll(sys); err != nil {
		sys.Close()
		return err
	}
	sys.SetTime(e.cfg.StartMJD)

	pending := maps.Clone(e.overrides)
	opts := description.LoadOptions{
		Flags: description.BlockingInitialize,
		OnLoadObject: func(obj *sim.Object) error {
			if typ, err := obj.Type(); err == nil && typ == PropagatorType {
				if err := obj.SetType(propagator); err != nil {
					return err
				}
			}
			return applyOverrides(obj, pending)
		},
		OnSyntaxError: func(line int, msg string) {
			e.log.Warn("scene error", "scene", label, "line", line, "msg", msg)
		},
	}
	if _, err := description.Load(sys, nil, bytes.NewReader(data), opts); err != nil {
		sys.Close()
		return fmt.Errorf("load %s: %w", label, err)
	}
	if len(pending) > 0 {
		sys.Close()
		return fmt.Errorf("override targets not found: %s", strings.Join(slices.Sorted(maps.Keys(pending)), ", "))
	}

	e.scene = label
	e.sys = sys
	e.simulator = sim.NewSimulator(sys)
	for _, m := range e.metrics() {
		e.simulator.AddMetric(m)
	}
	e.log.Debug("experiment ready", "scene", label, "integrator", e.cfg.Integrator, "tracks", len(e.cfg.Track))
	return nil
}

// applyOverrides sets every pending override addressed to obj and removes it
// from pending.
func applyOverrides(obj *sim.Object, pending map[string]float64) error {
	if len(pending) == 0 {
		return nil
	}
	ref, err := obj.Reference()
	if err != nil {
		return err
	}
	for key, value := range pending {
		i := strings.LastIndexByte(key, '/')
		if i <= 0 || key[:i] != ref {
			continue
		}
		if err := setReal(obj, key[i+1:], value); err != nil {
			return fmt.Errorf("override %s: %w", key, err)
		}
		delete(pending, key)
	}
	return nil
}

func setReal(obj *sim.Object, name string, value float64) error {
	v, err := obj.Variable(name)
	if errors.Is(err, errcode.NotFound) {
		_, err = obj.AddRealVariable(name, value)
		return err
	}
	if err != nil {
		return err
	}
	return v.SetReal(value)
}

// metrics picks the default metrics for every tracked object by its type.
func (e *Experiment) metrics() []sim.Metric {
	var out []sim.Metric
	for _, ref := range e.cfg.Track {
		obj, v, err := e.sys.QueryByReference(nil, ref)
		if err != nil || v != nil {
			e.log.Warn("tracked object not found", "track", ref)
			continue
		}
		typ, _ := obj.Type()
		switch typ {
		case "fuel_tank":
			out = append(out, metrics.NewFuelUsed(ref))
		case "thruster":
			out = append(out, metrics.NewDeltaV(ref))
		case "point_mass", "planet":
			out = append(out, metrics.NewEnergy(ref), metrics.NewEnergyDrift(ref))
			if e.escapeRadius > 0 {
				out = append(out, metrics.NewStability(ref, e.escapeRadius))
			}
		}
	}
	return out
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Track:         e.cfg.Track,
		Parallel:      e.cfg.Parallel,
		ValidateState: true,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	start := time.Now()
	res, err := e.simulator.Run(ctx, e.SimConfig())
	if err != nil {
		return res, err
	}
	e.log.Info("run finished", "scene", e.scene, "steps", res.StepsTaken, "elapsed", time.Since(start))
	return res, nil
}

// System returns the simulated System, or nil before Setup.
func (e *Experiment) System() *sim.System { return e.sys }

func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Config() config.Config { return e.cfg }

// Record converts a result into a storable run.
func (e *Experiment) Record(res *sim.Result) (*storage.Run, []storage.Sample) {
	run := &storage.Run{
		Scene:      e.scene,
		Integrator: e.cfg.Integrator,
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		StartMJD:   e.cfg.StartMJD,
		Steps:      res.StepsTaken,
		Timestamp:  time.Now(),
		Tracks:     slices.Clone(e.cfg.Track),
		Metrics:    maps.Clone(res.Metrics),
	}
	return run, storage.SamplesFromResult(res)
}

func (e *Experiment) Close() error {
	if e.sys == nil {
		return nil
	}
	return e.sys.Close()
}

// Run sets up and runs cfg in one go.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*sim.Result, *Experiment, error) {
	exp := New(cfg, opts...)
	if err := exp.Setup(); err != nil {
		return nil, nil, err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		exp.Close()
		return res, nil, err
	}
	return res, exp, nil
}
