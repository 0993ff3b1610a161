package physics

import (
	"errors"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
)

const speedOfLight = 299792458.0

// Link describes the radio channel of an antenna; it is the antenna's solver
// data.
type Link struct {
	Size      float64 // m
	Frequency float64 // MHz
	Bandwidth float64
	DataRate  float64
	Transmit  bool
	Receive   bool
}

// Antenna sizes a dipole from "size" or "design_frequency" (MHz) and
// regenerates its cross-section geometry on every initialization.
type Antenna struct{}

func NewAntenna() *Antenna { return &Antenna{} }

func (a *Antenna) Name() string { return "antenna" }

func (a *Antenna) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("antenna") != nil {
		return sim.Ignore, nil
	}
	var vals [7]float64
	for i, name := range []string{"size", "frequency", "tx", "rx", "efficiency", "bandwidth", "data_rate"} {
		v, err := ensureReal(obj, name, 0)
		if err != nil {
			return sim.Ignore, err
		}
		vals[i] = v
	}
	design, err := realOr(obj, "design_frequency", 0)
	if err != nil {
		return sim.Ignore, err
	}

	size := vals[0]
	if design > 0 {
		size = speedOfLight / (1e6 * design)
	}
	size = max(size, 0)
	if err := setReal(obj, "size", size); err != nil {
		return sim.Ignore, err
	}
	freq := vals[1]
	if freq <= 0 && size > 0 {
		freq = speedOfLight / (1e6 * size)
	}
	if err := setReal(obj, "frequency", freq); err != nil {
		return sim.Ignore, err
	}

	obj.SetSolverData(&Link{
		Size:      size,
		Frequency: freq,
		Bandwidth: vals[5],
		DataRate:  vals[6],
		Transmit:  vals[2] >= 0.5,
		Receive:   vals[3] >= 0.5,
	})
	if err := generateGeometry(obj, size); err != nil {
		return sim.Ignore, err
	}
	return sim.Claimed, nil
}

func (a *Antenna) OnSolve(*sim.System, *sim.Object, float64) error { return nil }

func (a *Antenna) OnDeinitialize(_ *sim.System, obj *sim.Object) error {
	obj.SetSolverData(nil)
	return nil
}

type section struct {
	rx, offset float64
}

// generateGeometry replaces "csection_geometry" with the four cross-sections
// of a dipole of the given length.
func generateGeometry(obj *sim.Object, size float64) error {
	old, err := obj.Variable("csection_geometry")
	switch {
	case err == nil:
		if err := old.Destroy(); err != nil {
			return err
		}
	case !errors.Is(err, errcode.NotFound):
		return err
	}
	geometry, err := obj.AddVariable("csection_geometry", variable.Nested)
	if err != nil {
		return err
	}

	for _, s := range []section{
		{0.00, -size / 2},
		{0.01, -size / 2},
		{0.01, size / 2},
		{0.00, size / 2},
	} {
		cs, err := geometry.Add("csection", variable.Nested)
		if err != nil {
			return err
		}
		for _, attr := range []struct {
			name  string
			value float64
		}{{"rx", s.rx}, {"add_offset", 0}, {"offset", s.offset}} {
			if _, err := cs.AddFloatAttribute(attr.name, attr.value); err != nil {
				return err
			}
		}
	}
	return nil
}
