package sim

import (
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

// parentFrame is the frame the object's state is expressed in.
func (n *node) parentFrame() (vecmath.Frame, bool) {
	n.sys.mu.RLock()
	defer n.sys.mu.RUnlock()
	if n.parent == nil {
		return vecmath.Frame{}, false
	}
	return n.parent.frame(), true
}

// State returns the current state vector in the parent's frame.
func (o *Object) State() (vecmath.StateVector, error) {
	if err := o.readable(); err != nil {
		return vecmath.StateVector{}, err
	}
	o.n.stateMu.RLock()
	defer o.n.stateMu.RUnlock()
	return o.n.state, nil
}

// PreviousState returns the state before the last AdvanceState.
func (o *Object) PreviousState() (vecmath.StateVector, error) {
	if err := o.readable(); err != nil {
		return vecmath.StateVector{}, err
	}
	o.n.stateMu.RLock()
	defer o.n.stateMu.RUnlock()
	return o.n.prev, nil
}

// InterpolatedState blends the previous and current states at time mjd. Times
// outside the last step clamp to its ends.
func (o *Object) InterpolatedState(mjd float64) (vecmath.StateVector, error) {
	if err := o.readable(); err != nil {
		return vecmath.StateVector{}, err
	}
	o.n.stateMu.RLock()
	prev, cur := o.n.prev, o.n.state
	o.n.stateMu.RUnlock()
	span := cur.Time - prev.Time
	if span == 0 {
		return cur, nil
	}
	t := (mjd - prev.Time) / span
	switch {
	case t <= 0:
		return prev, nil
	case t >= 1:
		return cur, nil
	}
	return prev.Interpolate(cur, t), nil
}

// SetState replaces the state, converting it into the parent's frame. The
// previous state is overwritten too so interpolation does not span a jump.
func (o *Object) SetState(st vecmath.StateVector) error {
	if err := o.writable(); err != nil {
		return err
	}
	pf, ok := o.n.parentFrame()
	if !ok {
		return errcode.BadParameter
	}
	st = st.Convert(pf)
	o.n.stateMu.Lock()
	o.n.state, o.n.prev = st, st
	o.n.stateMu.Unlock()
	return nil
}

// AdvanceState installs next as the current state and keeps the old one for
// interpolation. Propagators call it once per step.
func (o *Object) AdvanceState(next vecmath.StateVector) error {
	if err := o.writable(); err != nil {
		return err
	}
	pf, ok := o.n.parentFrame()
	if !ok {
		return errcode.BadParameter
	}
	next = next.Convert(pf)
	o.n.stateMu.Lock()
	o.n.prev, o.n.state = o.n.state, next
	o.n.stateMu.Unlock()
	return nil
}

func (o *Object) updateState(fn func(pf vecmath.Frame, st *vecmath.StateVector)) error {
	if err := o.writable(); err != nil {
		return err
	}
	pf, ok := o.n.parentFrame()
	if !ok {
		return errcode.BadParameter
	}
	o.n.stateMu.Lock()
	fn(pf, &o.n.state)
	o.n.prev = o.n.state
	o.n.stateMu.Unlock()
	return nil
}

// SetPosition places the object; v may be given in any frame.
func (o *Object) SetPosition(v vecmath.Vector) error {
	if v.Kind != vecmath.Position {
		return errcode.BadParameter
	}
	c := v.Convert(o.parentOrZero())
	return o.updateState(func(pf vecmath.Frame, st *vecmath.StateVector) {
		st.Position = vecmath.NewVector(pf, vecmath.Position, c.X, c.Y, c.Z)
	})
}

// SetVelocity sets the velocity relative to the parent frame.
func (o *Object) SetVelocity(v vecmath.Vector) error {
	if v.Kind != vecmath.Velocity {
		return errcode.BadParameter
	}
	c := v.Convert(o.parentOrZero())
	return o.updateState(func(pf vecmath.Frame, st *vecmath.StateVector) {
		st.Velocity = vecmath.NewVector(pf, vecmath.Velocity, c.X, c.Y, c.Z)
	})
}

func (o *Object) SetAngularVelocity(v vecmath.Vector) error {
	if v.Kind != vecmath.AngularVelocity {
		return errcode.BadParameter
	}
	c := v.Convert(o.parentOrZero())
	return o.updateState(func(pf vecmath.Frame, st *vecmath.StateVector) {
		st.AngularVelocity = vecmath.NewVector(pf, vecmath.AngularVelocity, c.X, c.Y, c.Z)
	})
}

// SetOrientation sets the attitude from Euler angles measured in f.
func (o *Object) SetOrientation(f vecmath.Frame, roll, pitch, yaw float64) error {
	return o.SetOrientationQuaternion(vecmath.FromEuler(f, roll, pitch, yaw))
}

func (o *Object) SetOrientationQuaternion(q vecmath.Quaternion) error {
	q = q.Convert(o.parentOrZero()).Normalize()
	return o.updateState(func(pf vecmath.Frame, st *vecmath.StateVector) {
		q.Frame = pf
		st.Orientation = q
	})
}

// SetStateTime stamps the state with an MJD.
func (o *Object) SetStateTime(mjd float64) error {
	return o.updateState(func(_ vecmath.Frame, st *vecmath.StateVector) {
		st.Time = mjd
	})
}

func (o *Object) parentOrZero() vecmath.Frame {
	if o == nil || o.n == nil {
		return vecmath.Frame{}
	}
	pf, _ := o.n.parentFrame()
	return pf
}
