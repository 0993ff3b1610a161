package variable

import (
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

func (v *Variable) check(types ...Type) error {
	if v == nil {
		return errcode.InvalidObject
	}
	for _, t := range types {
		if v.typ == t {
			return nil
		}
	}
	return errcode.InvalidType
}

// Real returns a float value, or the constant of a function Variable.
func (v *Variable) Real() (float64, error) {
	if err := v.check(Float, Function); err != nil {
		return 0, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.typ == Function {
		return v.function.Constant, nil
	}
	return v.real, nil
}

func (v *Variable) SetReal(x float64) error {
	if err := v.check(Float, Function); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.typ == Function {
		v.function.Constant = x
		return nil
	}
	v.real = x
	return nil
}

func (v *Variable) Text() (string, error) {
	if err := v.check(String); err != nil {
		return "", err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.text, nil
}

func (v *Variable) SetText(s string) error {
	if err := v.check(String); err != nil {
		return err
	}
	v.mu.Lock()
	v.text = s
	v.mu.Unlock()
	return nil
}

// Vector returns the stored vector exactly as set, frame included.
func (v *Variable) Vector() (vecmath.Vector, error) {
	if err := v.check(Vector); err != nil {
		return vecmath.Vector{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vec, nil
}

func (v *Variable) SetVector(x vecmath.Vector) error {
	if err := v.check(Vector); err != nil {
		return err
	}
	v.mu.Lock()
	v.vec = x
	v.mu.Unlock()
	return nil
}

func (v *Variable) Quaternion() (vecmath.Quaternion, error) {
	if err := v.check(Quaternion); err != nil {
		return vecmath.Quaternion{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.quat, nil
}

func (v *Variable) SetQuaternion(q vecmath.Quaternion) error {
	if err := v.check(Quaternion); err != nil {
		return err
	}
	v.mu.Lock()
	v.quat = q
	v.mu.Unlock()
	return nil
}

// Data returns the opaque payload of a data pointer Variable.
func (v *Variable) Data() (any, error) {
	if err := v.check(DataPointer); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.data, nil
}

func (v *Variable) SetData(d any) error {
	if err := v.check(DataPointer); err != nil {
		return err
	}
	v.mu.Lock()
	v.data = d
	v.mu.Unlock()
	return nil
}

// FunctionPointer returns the callable stored in a function pointer Variable.
// Callers type-assert it to the signature they expect.
func (v *Variable) FunctionPointer() (any, error) {
	if err := v.check(FunctionPointer); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fn, nil
}

func (v *Variable) SetFunctionPointer(fn any) error {
	if err := v.check(FunctionPointer); err != nil {
		return err
	}
	v.mu.Lock()
	v.fn = fn
	v.mu.Unlock()
	return nil
}

// Table returns a copy of the tabulated data of a function Variable.
func (v *Variable) Table() (Table, error) {
	if err := v.check(Function); err != nil {
		return Table{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.function.clone(), nil
}

// SetTable replaces the tabulated data; samples are sorted along each axis.
func (v *Variable) SetTable(f Table) error {
	if err := v.check(Function); err != nil {
		return err
	}
	f = f.clone()
	f.sort()
	v.mu.Lock()
	v.function = &f
	v.mu.Unlock()
	return nil
}

func (v *Variable) SetInterpolation(k Interpolation) error {
	if err := v.check(Function); err != nil {
		return err
	}
	v.mu.Lock()
	v.function.Interpolation = k
	v.mu.Unlock()
	return nil
}

// Evaluate interpolates a function Variable at (x, y, z); axes beyond the
// table's dimension are ignored. A float Variable evaluates to its value.
// An "interpolation" string attribute overrides the configured kernel.
func (v *Variable) Evaluate(x, y, z float64) (float64, error) {
	if err := v.check(Float, Function); err != nil {
		return 0, err
	}
	kernel, override := Linear, false
	if a, err := v.Attribute("interpolation"); err == nil {
		if s, err := a.Text(); err == nil {
			if k, ok := ParseInterpolation(s); ok {
				kernel, override = k, true
			}
		}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.typ == Float {
		return v.real, nil
	}
	if !override {
		kernel = v.function.Interpolation
	}
	return v.function.value(x, y, z, kernel), nil
}
