// Package automation runs scripted sequences of runs, parameter sweeps and
// step-size convergence studies on top of package experiment.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/experiment"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Unset fields fall back to the preset, or to
// the defaults when the step names a scene file.
type ScenarioStep struct {
	Preset     string             `yaml:"preset"`
	Scene      string             `yaml:"scene"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Track      []string           `yaml:"track"`
	Overrides  map[string]float64 `yaml:"overrides"`
	SaveAs     string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}

	return &scenario, nil
}

// Config resolves the step into a full run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "" && s.Scene != "":
		return nil, fmt.Errorf("preset and scene are mutually exclusive")
	case s.Scene != "":
		cfg = config.DefaultConfig()
		cfg.Preset = ""
		cfg.Scene = s.Scene
		cfg.Track = nil
	default:
		name := s.Preset
		if name == "" {
			name = "leo"
		}
		if cfg = config.GetPreset(name); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if len(s.Track) > 0 {
		cfg.Track = slices.Clone(s.Track)
	}
	return cfg, cfg.Validate()
}

// StepResult is one finished scenario step, ready for storage.
type StepResult struct {
	Name    string
	Run     *storage.Run
	Samples []storage.Sample
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = logging.Discard()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log.Info("running scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, exp, err := experiment.Run(ctx, cfg,
			experiment.WithLogger(log),
			experiment.WithOverrides(step.Overrides))
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		run, samples := exp.Record(res)
		exp.Close()

		results = append(results, StepResult{Name: name, Run: run, Samples: samples})
	}

	return results, nil
}

// ParameterSweep runs one configuration across evenly spaced values of a
// float variable.
type ParameterSweep struct {
	Base *config.Config
	// Target is "<object reference>/<variable>".
	Target   string
	ParamMin float64
	ParamMax float64
	NumSteps int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	// Final holds the last recorded root-frame position of every track.
	Final map[string][3]float64
}

// Values returns the swept parameter values.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.ParamMin}
	}
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	out := make([]float64, s.NumSteps)
	for i := range out {
		out[i] = s.ParamMin + float64(i)*step
	}
	return out
}

// RunSweep executes a parameter sweep; members run concurrently.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.Base == nil {
		return nil, fmt.Errorf("sweep has no base configuration")
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	values := sweep.Values()

	build := func(i int) (*sim.Simulator, error) {
		exp := experiment.New(sweep.Base, experiment.WithOverrides(map[string]float64{sweep.Target: values[i]}))
		if err := exp.Setup(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Target, values[i], err)
		}
		return exp.Simulator(), nil
	}
	results, err := sim.NewEnsemble(build, repeat(simConfig(sweep.Base), len(values))...).Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(values))
	for i, res := range results {
		out[i] = SweepResult{ParamValue: values[i], Metrics: res.Metrics, Final: finalPositions(res)}
	}
	return out, nil
}

// ConvergencePoint is the final-position error of one step size against the
// finest step of the study.
type ConvergencePoint struct {
	Dt    float64
	Error float64
}

// Convergence is the outcome of a step-size study on one track.
type Convergence struct {
	Track  string
	Points []ConvergencePoint
	// Order is the least-squares slope of log(error) over log(dt).
	Order float64
}

// RunConvergence runs base at every step size concurrently and measures how
// the final position of track approaches the finest run.
func RunConvergence(ctx context.Context, base *config.Config, track string, dts []float64) (*Convergence, error) {
	if len(dts) < 3 {
		return nil, fmt.Errorf("convergence needs at least three step sizes, got %d", len(dts))
	}
	dts = slices.Clone(dts)
	slices.Sort(dts)
	slices.Reverse(dts)

	configs := make([]sim.Config, len(dts))
	for i, dt := range dts {
		if n := math.Round(base.Duration / dt); dt <= 0 || math.Abs(n*dt-base.Duration) > 1e-9*base.Duration {
			return nil, fmt.Errorf("dt %g does not divide duration %g", dt, base.Duration)
		}
		cfg := simConfig(base)
		cfg.Dt = dt
		cfg.Track = []string{track}
		configs[i] = cfg
	}
	build := func(int) (*sim.Simulator, error) {
		exp := experiment.New(base)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp.Simulator(), nil
	}
	results, err := sim.NewEnsemble(build, configs...).Run(ctx)
	if err != nil {
		return nil, err
	}

	finals := make([][3]float64, len(results))
	for i, res := range results {
		p, ok := finalPositions(res)[track]
		if !ok {
			return nil, fmt.Errorf("track %q recorded nothing", track)
		}
		finals[i] = p
	}

	ref := finals[len(finals)-1]
	c := &Convergence{Track: track}
	for i := 0; i < len(dts)-1; i++ {
		c.Points = append(c.Points, ConvergencePoint{Dt: dts[i], Error: distance(finals[i], ref)})
	}
	c.Order = slope(c.Points)
	return c, nil
}

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		Track:         slices.Clone(cfg.Track),
		Parallel:      cfg.Parallel,
		ValidateState: true,
	}
}

func repeat(cfg sim.Config, n int) []sim.Config {
	out := make([]sim.Config, n)
	for i := range out {
		out[i] = cfg
	}
	return out
}

func finalPositions(res *sim.Result) map[string][3]float64 {
	out := make(map[string][3]float64, len(res.States))
	for ref, states := range res.States {
		if len(states) == 0 {
			continue
		}
		p := states[len(states)-1].Position
		out[ref] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

func distance(a, b [3]float64) float64 {
	return math.Sqrt((a[0]-b[0])*(a[0]-b[0]) + (a[1]-b[1])*(a[1]-b[1]) + (a[2]-b[2])*(a[2]-b[2]))
}

// slope fits log(error) = order*log(dt) + c. Points with zero error are
// skipped; fewer than two usable points give NaN.
func slope(points []ConvergencePoint) float64 {
	var n, sx, sy, sxx, sxy float64
	for _, p := range points {
		if p.Error <= 0 || p.Dt <= 0 {
			continue
		}
		x, y := math.Log(p.Dt), math.Log(p.Error)
		n++
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	if n < 2 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / (n*sxx - sx*sx)
}
