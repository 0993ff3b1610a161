package vecmath

import (
	"fmt"
	"math"
)

// Kind is the derivative level of a vector. It selects the conversion rules.
type Kind int

const (
	Position            Kind = 0
	Velocity            Kind = 1
	Acceleration        Kind = 2
	AngularVelocity     Kind = -1
	AngularAcceleration Kind = -2
	Direction           Kind = 10
	Torque              Kind = 11
	InertialTransform   Kind = 12

	Force        = Direction
	Displacement = Direction
)

func (k Kind) String() string {
	switch k {
	case Position:
		return "position"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	case AngularVelocity:
		return "angular_velocity"
	case AngularAcceleration:
		return "angular_acceleration"
	case Direction:
		return "direction"
	case Torque:
		return "torque"
	case InertialTransform:
		return "inertial_transform"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String; "force" and "displacement" are
// accepted as aliases of direction.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "position", "":
		return Position, true
	case "velocity":
		return Velocity, true
	case "acceleration":
		return Acceleration, true
	case "angular_velocity":
		return AngularVelocity, true
	case "angular_acceleration":
		return AngularAcceleration, true
	case "direction", "force", "displacement":
		return Direction, true
	case "torque":
		return Torque, true
	case "inertial_transform":
		return InertialTransform, true
	}
	return 0, false
}

// Point is an embedded location or velocity with its own frame. A Point with a
// zero Frame is unset.
type Point struct {
	X, Y, Z float64
	Frame   Frame
}

func (p Point) IsSet() bool { return !p.Frame.IsZero() }

// Vector is a 3-vector tagged with its Kind and coordinate frame. Position and
// Velocity locate the point the vector applies to, which matters when a vector
// is converted between frames moving relative to each other.
type Vector struct {
	X, Y, Z  float64
	Kind     Kind
	Frame    Frame
	Position Point
	Velocity Point
}

func NewVector(f Frame, k Kind, x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z, Kind: k, Frame: f}
}

func Zero(f Frame, k Kind) Vector { return Vector{Kind: k, Frame: f} }

func (v Vector) Get() (x, y, z float64) { return v.X, v.Y, v.Z }

func (v Vector) Vec() Vec3 { return Vec3{v.X, v.Y, v.Z} }

func (v Vector) with(c Vec3) Vector {
	v.X, v.Y, v.Z = c.X, c.Y, c.Z
	return v
}

func (v Vector) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

func (v Vector) String() string {
	return fmt.Sprintf("%s(%g, %g, %g)", v.Kind, v.X, v.Y, v.Z)
}

// SetPosition records the location the vector applies to.
func (v Vector) SetPosition(p Vector) Vector {
	v.Position = Point{X: p.X, Y: p.Y, Z: p.Z, Frame: p.Frame}
	return v
}

// SetVelocity records the velocity of the location the vector applies to.
func (v Vector) SetVelocity(u Vector) Vector {
	v.Velocity = Point{X: u.X, Y: u.Y, Z: u.Z, Frame: u.Frame}
	return v
}

// PositionVector returns the embedded location as a Position vector, or the
// origin of v's frame when unset.
func (v Vector) PositionVector() Vector {
	if !v.Position.IsSet() {
		return Zero(v.Frame, Position)
	}
	return NewVector(v.Position.Frame, Position, v.Position.X, v.Position.Y, v.Position.Z)
}

// VelocityVector returns the embedded velocity as a Velocity vector located at
// the embedded position, or zero when unset.
func (v Vector) VelocityVector() Vector {
	if !v.Velocity.IsSet() {
		return Zero(v.Frame, Velocity)
	}
	u := NewVector(v.Velocity.Frame, Velocity, v.Velocity.X, v.Velocity.Y, v.Velocity.Z)
	u.Position = v.Position
	return u
}

func (v Vector) NullifyPositionAndVelocity() Vector {
	v.Position = Point{}
	v.Velocity = Point{}
	return v
}

func (v Vector) sameKind(b Vector, op string) {
	assertf(v.Kind == b.Kind, "%s on mismatched kinds %s and %s", op, v.Kind, b.Kind)
}

// in converts b into v's frame.
func (v Vector) in(b Vector) Vec3 {
	assertf(!v.Frame.IsZero(), "vector operand without frame")
	return b.Convert(v.Frame).Vec()
}

func (v Vector) Add(b Vector) Vector {
	v.sameKind(b, "add")
	return v.with(v.Vec().Add(v.in(b)))
}

func (v Vector) Sub(b Vector) Vector {
	v.sameKind(b, "subtract")
	return v.with(v.Vec().Sub(v.in(b)))
}

func (v Vector) Scale(s float64) Vector { return v.with(v.Vec().Scale(s)) }

// MultiplyAndAdd returns v + b·s.
func (v Vector) MultiplyAndAdd(b Vector, s float64) Vector {
	v.sameKind(b, "multiply-add")
	return v.with(v.Vec().Add(v.in(b).Scale(s)))
}

// MultiplyByTimeAndAdd returns v + b·dt where b is the time derivative of v.
// The result keeps v's kind.
func (v Vector) MultiplyByTimeAndAdd(b Vector, dt float64) Vector {
	return v.with(v.Vec().Add(v.in(b).Scale(dt)))
}

func (v Vector) Dot(b Vector) float64 { return v.Vec().Dot(v.in(b)) }

// Cross returns v × b. The kind follows the physical meaning of the operands
// where one exists (ω×r is a velocity, r×F is a torque) and is v's otherwise.
func (v Vector) Cross(b Vector) Vector {
	out := v.with(v.Vec().Cross(v.in(b)))
	out.Kind = crossKind(v.Kind, b.Kind)
	return out
}

func crossKind(a, b Kind) Kind {
	switch {
	case a == AngularVelocity && b == Position:
		return Velocity
	case a == AngularVelocity && b == Velocity, a == AngularAcceleration && b == Position:
		return Acceleration
	case a == AngularVelocity && b == AngularVelocity:
		return AngularAcceleration
	case a == Position && b == Direction:
		return Torque
	}
	return a
}

func (v Vector) Length() float64 { return v.Vec().Norm() }

// Distance is the length of v - b.
func (v Vector) Distance(b Vector) float64 { return v.Vec().Sub(v.in(b)).Norm() }

func (v Vector) Normalize() Vector { return v.with(v.Vec().Normalize()) }

// Interpolate returns v + (b - v)·t.
func (v Vector) Interpolate(b Vector, t float64) Vector {
	c := v.Vec()
	return v.with(c.Add(v.in(b).Sub(c).Scale(t)))
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector) IsFinite() bool { return v.Vec().IsFinite() }

// ApproxEqual compares components after converting b into v's frame.
func (v Vector) ApproxEqual(b Vector, tol float64) bool {
	d := v.Vec().Sub(v.in(b))
	return math.Abs(d.X) <= tol && math.Abs(d.Y) <= tol && math.Abs(d.Z) <= tol
}

// MoveForceToPosition relocates a force to pos, adding to torque the moment
// of the force about the new point. Both results are in force's frame.
func MoveForceToPosition(force, torque, pos Vector) (Vector, Vector) {
	old := force.PositionVector().Convert(force.Frame).Vec()
	at := pos.Convert(force.Frame)
	arm := old.Sub(at.Vec())
	t := force.in(torque).Add(arm.Cross(force.Vec()))
	torqueOut := force.with(t)
	torqueOut.Kind = Torque
	torqueOut = torqueOut.SetPosition(at)
	return force.SetPosition(at), torqueOut
}

// MoveTorqueToPosition relocates a pure torque. A couple has the same moment
// about every point, so only the embedded position changes.
func MoveTorqueToPosition(torque, pos Vector) Vector {
	return torque.SetPosition(pos.Convert(torque.Frame))
}
