package vecmath

// Convert expresses v in the target frame.
//
// The embedded position and velocity, when set, are carried along and locate
// the point the vector applies to; without them the point is the origin of
// v's frame, at rest in it.
func (v Vector) Convert(target Frame) Vector {
	if v.Frame == target {
		return v
	}
	if v.Frame.IsZero() || target.IsZero() {
		assertf(false, "convert %s between frames %v and %v", v.Kind, v.Frame.IsZero(), target.IsZero())
		v.Frame = target
		return v
	}
	up, down, ok := route(v.Frame, target)
	if !ok {
		assertf(false, "convert between unrelated frame trees")
		v.Frame = target
		return v
	}

	var p, u Vec3
	if v.Position.IsSet() {
		p = v.PositionVector().Convert(v.Frame).Vec()
	}
	if v.Velocity.IsSet() {
		u = v.VelocityVector().Convert(v.Frame).Vec()
	}
	x := v.Vec()

	for _, f := range up {
		x, p, u = toParent(v.Kind, f.transform(), x, p, u)
	}
	for _, f := range down {
		x, p, u = toChild(v.Kind, f.transform(), x, p, u)
	}

	out := Vector{X: x.X, Y: x.Y, Z: x.Z, Kind: v.Kind, Frame: target}
	if v.Position.IsSet() {
		out.Position = Point{X: p.X, Y: p.Y, Z: p.Z, Frame: target}
	}
	if v.Velocity.IsSet() {
		out.Velocity = Point{X: u.X, Y: u.Y, Z: u.Z, Frame: target}
	}
	return out
}

// toParent moves one hop up. x is the vector, p and u the location and
// velocity of the point it applies to, all in the child frame.
func toParent(k Kind, t Transform, x, p, u Vec3) (Vec3, Vec3, Vec3) {
	q, w := t.Orientation, t.AngularVelocity
	rx := qrotate(q, x)
	rp := qrotate(q, p)
	ru := qrotate(q, u)

	var out Vec3
	switch k {
	case Position:
		out = t.Position.Add(rx)
	case Velocity:
		out = t.Velocity.Add(rx).Add(w.Cross(rp))
	case Acceleration:
		out = t.Acceleration.Add(rx).
			Add(w.Cross(ru).Scale(2)).
			Add(w.Cross(w.Cross(rp))).
			Add(t.AngularAcceleration.Cross(rp))
	case AngularVelocity:
		out = w.Add(rx)
	case AngularAcceleration:
		out = t.AngularAcceleration.Add(rx)
	case InertialTransform:
		out = t.Velocity.Add(rx)
	default:
		out = rx
	}
	return out, t.Position.Add(rp), t.Velocity.Add(ru).Add(w.Cross(rp))
}

// toChild moves one hop down into the frame described by t.
func toChild(k Kind, t Transform, x, p, u Vec3) (Vec3, Vec3, Vec3) {
	q, w := t.Orientation, t.AngularVelocity
	d := p.Sub(t.Position)
	ur := u.Sub(t.Velocity).Sub(w.Cross(d))

	var out Vec3
	switch k {
	case Position:
		out = x.Sub(t.Position)
	case Velocity:
		out = x.Sub(t.Velocity).Sub(w.Cross(d))
	case Acceleration:
		out = x.Sub(t.Acceleration).
			Sub(w.Cross(ur).Scale(2)).
			Sub(w.Cross(w.Cross(d))).
			Sub(t.AngularAcceleration.Cross(d))
	case AngularVelocity:
		out = x.Sub(w)
	case AngularAcceleration:
		out = x.Sub(t.AngularAcceleration)
	case InertialTransform:
		out = x.Sub(t.Velocity)
	default:
		out = x
	}
	return qunrotate(q, out), qunrotate(q, d), qunrotate(q, ur)
}
