package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/vecmath"
)

// ballistic falls with constant acceleration through its integrate callback.
type ballistic struct{}

func (ballistic) Name() string { return "ballistic" }

func (ballistic) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("ballistic") != nil {
		return sim.Ignore, nil
	}
	return sim.Claimed, nil
}

func (ballistic) OnIntegrate(_ *sim.System, _ *sim.Object, _ float64, x vecmath.StateVector) (vecmath.Derivative, error) {
	d := vecmath.NewDerivative(x.Frame())
	d.Velocity = x.Velocity
	d.Acceleration = vecmath.NewVector(x.Frame(), vecmath.Acceleration, 0, 0, -10)
	return d, nil
}

// counter is solved directly.
type counter struct{ solved *int }

func (counter) Name() string { return "counter" }

func (counter) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("counter") != nil {
		return sim.Ignore, nil
	}
	return sim.Claimed, nil
}

func (c counter) OnSolve(*sim.System, *sim.Object, float64) error {
	*c.solved++
	return nil
}

// pushed is a rigid body driven by a force variable.
type pushed struct{}

func (pushed) Name() string { return "pushed" }

func (pushed) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("pushed") != nil {
		return sim.Ignore, nil
	}
	return sim.Claimed, nil
}

func (pushed) OnIntegrate(_ *sim.System, _ *sim.Object, _ float64, x vecmath.StateVector) (vecmath.Derivative, error) {
	d := vecmath.NewDerivative(x.Frame())
	d.Velocity = x.Velocity
	d.AngularVelocity = x.AngularVelocity
	d.Force = vecmath.NewVector(x.Frame(), vecmath.Force, 8, 0, 0)
	d.Torque = vecmath.NewVector(x.Frame(), vecmath.Torque, 0, 0, 3)
	return d, nil
}

func newSystem(t *testing.T) *sim.System {
	t.Helper()
	sys := sim.New(sim.WithLogger(logging.Discard()))
	t.Cleanup(func() { sys.Close() })
	for _, s := range []sim.Solver{NewPropagator(NewRK4()), ballistic{}, pushed{}} {
		if err := sys.Register(s); err != nil {
			t.Fatal(err)
		}
	}
	return sys
}

func TestPropagatorAdvancesIntegratingChildren(t *testing.T) {
	sys := newSystem(t)
	solved := 0
	sys.Register(counter{&solved})
	sys.SetTime(60000)

	prop, err := sys.CreateNamed(nil, "propagator_rk4", "main")
	if err != nil {
		t.Fatal(err)
	}
	ball, _ := sys.CreateNamed(prop, "ballistic", "ball")
	sys.CreateNamed(prop, "counter", "tick")
	ball.SetVelocity(vecmath.NewVector(prop.Frame(), vecmath.Velocity, 1, 0, 0))
	if err := prop.Initialize(true); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if err := prop.Solve(0.5); err != nil {
			t.Fatal(err)
		}
	}
	st, _ := ball.State()
	if math.Abs(st.Position.Z-(-0.5*10*4)) > 1e-9 || math.Abs(st.Position.X-2) > 1e-9 {
		t.Errorf("position = %v", st.Position)
	}
	prev, _ := ball.PreviousState()
	if math.Abs(prev.Position.Z-(-0.5*10*1.5*1.5)) > 1e-9 {
		t.Errorf("previous z = %v", prev.Position.Z)
	}
	if math.Abs(st.Time-(60000+2/vecmath.SecondsPerDay)) > 1e-9 {
		t.Errorf("state time = %v", st.Time)
	}
	if solved != 4 {
		t.Errorf("counter solved %d times, want 4", solved)
	}
}

func TestPropagatorUsesMassVariables(t *testing.T) {
	sys := newSystem(t)
	prop, _ := sys.CreateNamed(nil, "propagator_rk4", "main")
	body, _ := sys.CreateNamed(prop, "pushed", "body")
	body.AddRealVariable("mass", 4)
	body.AddRealVariable("ixx", 3)
	body.AddRealVariable("iyy", 3)
	body.AddRealVariable("izz", 3)
	if err := prop.Initialize(true); err != nil {
		t.Fatal(err)
	}

	if err := prop.Solve(1); err != nil {
		t.Fatal(err)
	}
	st, _ := body.State()
	if math.Abs(st.Velocity.X-2) > 1e-12 {
		t.Errorf("vx = %v, want 2", st.Velocity.X)
	}
	if math.Abs(st.AngularVelocity.Z-1) > 1e-12 {
		t.Errorf("wz = %v, want 1", st.AngularVelocity.Z)
	}
}

func TestPropagatorMissingMass(t *testing.T) {
	sys := newSystem(t)
	prop, _ := sys.CreateNamed(nil, "propagator_rk4", "main")
	sys.CreateNamed(prop, "pushed", "body")
	prop.Initialize(true)
	if err := prop.Solve(1); err == nil {
		t.Error("expected an error without a mass variable")
	}
}

func TestPropagatorNames(t *testing.T) {
	tests := map[string]Integrator{
		"propagator_euler": NewEuler(),
		"propagator_heun":  NewHeun(),
		"propagator_rk4":   NewRK4(),
	}
	for want, integ := range tests {
		if got := NewPropagator(integ).Name(); got != want {
			t.Errorf("Name() = %q, want %q", got, want)
		}
	}
}
