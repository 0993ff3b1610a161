package physics

import (
	"errors"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
)

// realOr returns a float variable or def when the object does not have it.
func realOr(obj *sim.Object, name string, def float64) (float64, error) {
	v, err := obj.RealVariable(name)
	if errors.Is(err, errcode.NotFound) {
		return def, nil
	}
	return v, err
}

// setReal overwrites a float variable, creating it if needed.
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

// ensureReal creates a float variable holding def unless it exists.
func ensureReal(obj *sim.Object, name string, def float64) (float64, error) {
	v, err := realOr(obj, name, def)
	if err != nil {
		return 0, err
	}
	return v, setReal(obj, name, v)
}
