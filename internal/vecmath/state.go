package vecmath

// StateVector is the visible state of an object, expressed in its parent's
// frame. Acceleration and AngularAcceleration are informational.
type StateVector struct {
	Time                float64 // MJD
	Position            Vector
	Velocity            Vector
	Acceleration        Vector
	Orientation         Quaternion
	AngularVelocity     Vector
	AngularAcceleration Vector
}

// NewStateVector returns a state at rest at the origin of f.
func NewStateVector(f Frame) StateVector {
	return StateVector{
		Position:            Zero(f, Position),
		Velocity:            Zero(f, Velocity),
		Acceleration:        Zero(f, Acceleration),
		Orientation:         Identity(f),
		AngularVelocity:     Zero(f, AngularVelocity),
		AngularAcceleration: Zero(f, AngularAcceleration),
	}
}

func (s StateVector) Frame() Frame { return s.Position.Frame }

// Transform returns the placement this state describes, for use as a frame.
func (s StateVector) Transform() Transform {
	return Transform{
		Position:            s.Position.Vec(),
		Velocity:            s.Velocity.Vec(),
		Acceleration:        s.Acceleration.Vec(),
		Orientation:         s.Orientation.Q,
		AngularVelocity:     s.AngularVelocity.Vec(),
		AngularAcceleration: s.AngularAcceleration.Vec(),
	}
}

// anchored attaches the state's position to its motion vectors so conversion
// sees where they apply.
func (s StateVector) anchored() StateVector {
	s.Velocity = s.Velocity.SetPosition(s.Position)
	s.Acceleration = s.Acceleration.SetPosition(s.Position).SetVelocity(s.Velocity)
	return s
}

// Convert expresses the whole state in target.
func (s StateVector) Convert(target Frame) StateVector {
	if s.Frame() == target {
		return s
	}
	a := s.anchored()
	out := StateVector{
		Time:                s.Time,
		Position:            a.Position.Convert(target),
		Velocity:            a.Velocity.Convert(target).NullifyPositionAndVelocity(),
		Acceleration:        a.Acceleration.Convert(target).NullifyPositionAndVelocity(),
		Orientation:         a.Orientation.Convert(target),
		AngularVelocity:     a.AngularVelocity.Convert(target),
		AngularAcceleration: a.AngularAcceleration.Convert(target),
	}
	return out
}

// Advance returns s + d·dt. Orientation follows the derivative's angular
// velocity as a constant rotation over dt. Time advances by dt seconds.
func (s StateVector) Advance(d Derivative, dt float64) StateVector {
	out := s
	out.Position = s.Position.MultiplyByTimeAndAdd(d.Velocity, dt)
	out.Velocity = s.Velocity.MultiplyByTimeAndAdd(d.Acceleration, dt)
	out.Orientation = s.Orientation.integrate(s.Orientation.Frame.vecIn(d.AngularVelocity), dt)
	out.AngularVelocity = s.AngularVelocity.MultiplyByTimeAndAdd(d.AngularAcceleration, dt)
	out.Acceleration = s.Acceleration.with(s.Acceleration.in(d.Acceleration))
	out.AngularAcceleration = s.AngularAcceleration.with(s.AngularAcceleration.in(d.AngularAcceleration))
	if s.Time != Realtime {
		out.Time = s.Time + dt/SecondsPerDay
	}
	return out
}

// AdvanceKinematic is Advance with the second-order terms of the
// derivative's accelerations included, which makes a single step exact for
// constant acceleration.
func (s StateVector) AdvanceKinematic(d Derivative, dt float64) StateVector {
	k := d
	k.Velocity = d.Velocity.MultiplyByTimeAndAdd(d.Acceleration, dt/2)
	k.AngularVelocity = d.AngularVelocity.MultiplyByTimeAndAdd(d.AngularAcceleration, dt/2)
	out := s.Advance(k, dt)
	out.Acceleration = s.Acceleration.with(s.Acceleration.in(d.Acceleration))
	out.AngularAcceleration = s.AngularAcceleration.with(s.AngularAcceleration.in(d.AngularAcceleration))
	return out
}

// Interpolate blends from s (t = 0) to b (t = 1); orientation uses slerp.
func (s StateVector) Interpolate(b StateVector, t float64) StateVector {
	return StateVector{
		Time:                s.Time + (b.Time-s.Time)*t,
		Position:            s.Position.Interpolate(b.Position, t),
		Velocity:            s.Velocity.Interpolate(b.Velocity, t),
		Acceleration:        s.Acceleration.Interpolate(b.Acceleration, t),
		Orientation:         s.Orientation.Slerp(b.Orientation, t),
		AngularVelocity:     s.AngularVelocity.Interpolate(b.AngularVelocity, t),
		AngularAcceleration: s.AngularAcceleration.Interpolate(b.AngularAcceleration, t),
	}
}

// IsValid reports whether every component is finite.
func (s StateVector) IsValid() bool {
	return s.Position.IsFinite() && s.Velocity.IsFinite() &&
		s.Orientation.IsFinite() && s.AngularVelocity.IsFinite()
}

// vecIn converts v into f, tolerating a zero frame on either side.
func (f Frame) vecIn(v Vector) Vec3 {
	if f.IsZero() || v.Frame.IsZero() {
		return v.Vec()
	}
	return v.Convert(f).Vec()
}

// Derivative is the time derivative of a StateVector. Force and Torque are an
// alternative to Acceleration and AngularAcceleration; integrators fold them
// in using the object's mass properties.
type Derivative struct {
	Velocity            Vector
	Acceleration        Vector
	AngularVelocity     Vector
	AngularAcceleration Vector
	Force               Vector
	Torque              Vector
}

func NewDerivative(f Frame) Derivative {
	return Derivative{
		Velocity:            Zero(f, Velocity),
		Acceleration:        Zero(f, Acceleration),
		AngularVelocity:     Zero(f, AngularVelocity),
		AngularAcceleration: Zero(f, AngularAcceleration),
		Force:               Zero(f, Force),
		Torque:              Zero(f, Torque),
	}
}

// MultiplyAndAdd returns d + e·s channel by channel.
func (d Derivative) MultiplyAndAdd(e Derivative, s float64) Derivative {
	return Derivative{
		Velocity:            d.Velocity.MultiplyAndAdd(e.Velocity, s),
		Acceleration:        d.Acceleration.MultiplyAndAdd(e.Acceleration, s),
		AngularVelocity:     d.AngularVelocity.MultiplyAndAdd(e.AngularVelocity, s),
		AngularAcceleration: d.AngularAcceleration.MultiplyAndAdd(e.AngularAcceleration, s),
		Force:               d.Force.MultiplyAndAdd(e.Force, s),
		Torque:              d.Torque.MultiplyAndAdd(e.Torque, s),
	}
}

func (d Derivative) Scale(s float64) Derivative {
	return Derivative{
		Velocity:            d.Velocity.Scale(s),
		Acceleration:        d.Acceleration.Scale(s),
		AngularVelocity:     d.AngularVelocity.Scale(s),
		AngularAcceleration: d.AngularAcceleration.Scale(s),
		Force:               d.Force.Scale(s),
		Torque:              d.Torque.Scale(s),
	}
}

// HasLoads reports whether force or torque carries anything.
func (d Derivative) HasLoads() bool { return !d.Force.IsZero() || !d.Torque.IsZero() }
