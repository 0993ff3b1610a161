package sim

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/vessim/internal/vecmath"
)

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(sys *System, t float64)
	Value() float64
	Reset()
}

// Observer is notified before every step.
type Observer interface {
	OnStep(sys *System, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	// Track lists object references whose states are recorded every step.
	Track []string
	// Parallel solves the top-level objects concurrently. They must not
	// share mutable state.
	Parallel      bool
	ValidateState bool
}

type Result struct {
	Times      []float64
	States     map[string][]vecmath.StateVector
	Metrics    map[string]float64
	StepsTaken int
}

// StepError reports a failure during one simulation step.
type StepError struct {
	Step   int
	Time   float64
	Object string
	Err    error
}

func (e *StepError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("step %d (t=%.4fs) %s: %v", e.Step, e.Time, e.Object, e.Err)
	}
	return fmt.Sprintf("step %d (t=%.4fs): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Simulator steps every top-level object of a System.
type Simulator struct {
	sys       *System
	metrics   []Metric
	observers []Observer
}

func NewSimulator(sys *System) *Simulator {
	return &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) System() *System { return s.sys }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		States:  make(map[string][]vecmath.StateVector, len(cfg.Track)),
		Metrics: make(map[string]float64),
	}
	tracked, err := s.resolve(cfg.Track)
	if err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	s.record(result, tracked, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(s.sys, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.sys, t)
		}

		if err := s.step(ctx, cfg); err != nil {
			err.Step, err.Time = i, t
			return result, err
		}
		s.sys.Advance(cfg.Dt)
		if err := s.sys.CleanupObjects(); err != nil {
			return result, &StepError{Step: i, Time: t, Err: err}
		}

		t += cfg.Dt
		result.StepsTaken++
		s.record(result, tracked, t)

		if cfg.ValidateState {
			for ref, obj := range tracked {
				if st, err := obj.State(); err == nil && !st.IsValid() {
					return result, &StepError{Step: i, Time: t, Object: ref, Err: fmt.Errorf("invalid state (NaN/Inf)")}
				}
			}
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

func (s *Simulator) step(ctx context.Context, cfg Config) *StepError {
	roots, err := s.sys.Root().Children()
	if err != nil {
		return &StepError{Err: err}
	}
	if !cfg.Parallel {
		for _, obj := range roots {
			if err := obj.Solve(cfg.Dt); err != nil {
				return &StepError{Object: label(obj), Err: err}
			}
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	for _, obj := range roots {
		g.Go(func() error {
			if err := obj.Solve(cfg.Dt); err != nil {
				return &StepError{Object: label(obj), Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var se *StepError
		if errors.As(err, &se) {
			return se
		}
		return &StepError{Err: err}
	}
	return nil
}

func (s *Simulator) resolve(refs []string) (map[string]*Object, error) {
	out := make(map[string]*Object, len(refs))
	for _, ref := range refs {
		obj, v, err := s.sys.QueryByReference(nil, ref)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", ref, err)
		}
		if v != nil {
			return nil, fmt.Errorf("track %q: reference names a variable", ref)
		}
		out[ref] = obj
	}
	return out, nil
}

// record stores tracked states in the root frame.
func (s *Simulator) record(r *Result, tracked map[string]*Object, t float64) {
	r.Times = append(r.Times, t)
	root := s.sys.RootFrame()
	for ref, obj := range tracked {
		st, err := obj.State()
		if err != nil {
			continue
		}
		r.States[ref] = append(r.States[ref], st.Convert(root))
	}
}

func label(o *Object) string {
	if ref, err := o.Reference(); err == nil && ref != "" {
		return ref
	}
	return o.n.describe()
}
