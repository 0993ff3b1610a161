package experiment

import (
	"context"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/sim"
)

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()

	if got := r.ListIntegrators(); !slices.Equal(got, []string{"euler", "heun", "rk4"}) {
		t.Errorf("integrators = %v", got)
	}
	for _, name := range []string{"propagator_euler", "propagator_heun", "propagator_rk4", "planet", "point_mass", "fuel_tank", "antenna", "thruster"} {
		if !slices.Contains(r.ListSolvers(), name) {
			t.Errorf("solver %s missing", name)
		}
		s, err := r.GetSolver(name)
		if err != nil {
			t.Fatalf("GetSolver(%s): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("GetSolver(%s).Name() = %s", name, s.Name())
		}
	}
	if _, err := r.GetSolver("warp_drive"); err == nil {
		t.Error("expected error for unknown solver")
	}
	if _, err := r.GetIntegrator("rk45"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if _, err := r.PropagatorFor("rk45"); err == nil {
		t.Error("expected error for unknown propagator")
	}
}

func TestRegisterAllOrder(t *testing.T) {
	sys := sim.New(sim.WithLogger(logging.Discard()))
	defer sys.Close()
	if err := RegisterAll(sys); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, s := range sys.Solvers() {
		names = append(names, s.Name())
	}
	want := []string{"propagator_euler", "propagator_heun", "propagator_rk4", "planet", "point_mass", "fuel_tank", "antenna", "thruster"}
	if !slices.Equal(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func leo(duration float64) *config.Config {
	cfg := config.GetPreset("leo")
	cfg.Duration = duration
	return cfg
}

func TestRunLEO(t *testing.T) {
	res, exp, err := Run(context.Background(), leo(600))
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	if res.StepsTaken != 60 {
		t.Errorf("steps = %d, want 60", res.StepsTaken)
	}
	if n := len(res.States["main/sat"]); n != 61 {
		t.Errorf("samples = %d, want 61", n)
	}
	drift, ok := res.Metrics["energy_drift:main/sat"]
	if !ok {
		t.Fatalf("energy drift missing from %v", res.Metrics)
	}
	if drift > 1e-6 {
		t.Errorf("energy drift = %g", drift)
	}
	if _, ok := res.Metrics["stability:main/sat"]; ok {
		t.Error("stability reported without an escape radius")
	}
}

func TestPropagatorFollowsIntegrator(t *testing.T) {
	for _, integ := range []string{"euler", "heun", "rk4"} {
		t.Run(integ, func(t *testing.T) {
			cfg := leo(100)
			cfg.Integrator = integ
			exp := New(cfg)
			if err := exp.Setup(); err != nil {
				t.Fatal(err)
			}
			defer exp.Close()

			main, _, err := exp.System().QueryByReference(nil, "main")
			if err != nil {
				t.Fatal(err)
			}
			typ, _ := main.Type()
			if typ != "propagator_"+integ {
				t.Errorf("type = %s", typ)
			}
			if !main.IsInitialized() {
				t.Error("propagator not initialized")
			}
		})
	}
}

func TestOverrides(t *testing.T) {
	exp := New(leo(100), WithOverrides(map[string]float64{
		"earth/mu":      1e14,
		"main/sat/mass": 42,
	}))
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	earth, _, _ := exp.System().QueryByReference(nil, "earth")
	if mu, _ := earth.RealVariable("mu"); mu != 1e14 {
		t.Errorf("mu = %g", mu)
	}
	sat, _, _ := exp.System().QueryByReference(nil, "main/sat")
	if m, _ := sat.RealVariable("mass"); m != 42 {
		t.Errorf("mass = %g", m)
	}
}

func TestOverrideUnknownTarget(t *testing.T) {
	exp := New(leo(100), WithOverrides(map[string]float64{"moon/mu": 1}))
	err := exp.Setup()
	if err == nil {
		exp.Close()
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "moon/mu") {
		t.Errorf("error %q does not name the target", err)
	}
}

func TestTankPreset(t *testing.T) {
	res, exp, err := Run(context.Background(), config.GetPreset("tank"))
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	if got := res.Metrics["fuel_used:tank"]; math.Abs(got-500) > 1e-9 {
		t.Errorf("fuel used = %g, want 500", got)
	}
}

func TestEscapeRadius(t *testing.T) {
	res, exp, err := Run(context.Background(), leo(300), WithEscapeRadius(1e7))
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	if got := res.Metrics["stability:main/sat"]; got != 1 {
		t.Errorf("stability = %g, want 1", got)
	}
}

func TestRecord(t *testing.T) {
	res, exp, err := Run(context.Background(), leo(100))
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	run, samples := exp.Record(res)
	if run.Scene != "preset:leo" || run.Integrator != "rk4" || run.Steps != 10 {
		t.Errorf("run = %+v", run)
	}
	if len(samples) != 11 {
		t.Errorf("samples = %d, want 11", len(samples))
	}
	if samples[0].Position[0] != 6778137 {
		t.Errorf("first sample = %v", samples[0].Position)
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"invalid", func(c *config.Config) { c.Dt = 0 }},
		{"missing scene", func(c *config.Config) { c.Preset = ""; c.Scene = "does/not/exist.yaml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := leo(100)
			tt.modify(cfg)
			exp := New(cfg)
			if err := exp.Setup(); err == nil {
				exp.Close()
				t.Error("expected error")
			}
		})
	}

	if _, err := New(leo(100)).Run(context.Background()); err == nil {
		t.Error("Run before Setup should fail")
	}
}

func TestHoldPreset(t *testing.T) {
	cfg := config.GetPreset("hold")
	cfg.Duration = 600
	res, exp, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	dv, ok := res.Metrics["delta_v:main/sat/engine"]
	if !ok {
		t.Fatalf("delta_v missing from %v", res.Metrics)
	}
	// 20 N on 500 kg for at most 600 s
	if dv <= 0 || dv > 24 {
		t.Errorf("delta_v = %g, want in (0, 24]", dv)
	}
}
