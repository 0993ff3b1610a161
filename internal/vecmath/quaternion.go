package vecmath

import (
	"fmt"
	"math"
)

// Quaternion is an orientation expressed in Frame. Q[0] is the scalar part.
// An object's orientation maps its own coordinates into Frame (its parent).
type Quaternion struct {
	Q     [4]float64
	Frame Frame
}

func NewQuaternion(f Frame, q0, q1, q2, q3 float64) Quaternion {
	return Quaternion{Q: [4]float64{q0, q1, q2, q3}, Frame: f}
}

func Identity(f Frame) Quaternion { return Quaternion{Q: identityQ, Frame: f} }

func (q Quaternion) Get() (q0, q1, q2, q3 float64) { return q.Q[0], q.Q[1], q.Q[2], q.Q[3] }

func (q Quaternion) String() string {
	return fmt.Sprintf("quaternion(%g, %g, %g, %g)", q.Q[0], q.Q[1], q.Q[2], q.Q[3])
}

func (q Quaternion) Length() float64 {
	return math.Sqrt(q.Q[0]*q.Q[0] + q.Q[1]*q.Q[1] + q.Q[2]*q.Q[2] + q.Q[3]*q.Q[3])
}

func (q Quaternion) Normalize() Quaternion {
	n := q.Length()
	if n < Eps {
		q.Q = identityQ
		return q
	}
	for i := range q.Q {
		q.Q[i] /= n
	}
	return q
}

func (q Quaternion) Conjugate() Quaternion {
	q.Q = qconj(q.Q)
	return q
}

func (q Quaternion) Scale(s float64) Quaternion {
	for i := range q.Q {
		q.Q[i] *= s
	}
	return q
}

func (q Quaternion) normalized() {
	assertf(math.Abs(q.Length()-1) < 1e-6, "unnormalized quaternion %s", q)
}

// compatible reports whether r may be composed with q without conversion:
// same frame, or r is relative to a descendant of q's frame.
func (q Quaternion) compatible(r Quaternion) bool {
	return q.Frame == r.Frame || q.Frame.IsAncestorOf(r.Frame)
}

// Multiply returns q ⊗ r. Multiplying a parent's orientation by a child's
// relative orientation yields the child's orientation in the parent's frame.
func (q Quaternion) Multiply(r Quaternion) Quaternion {
	assertf(q.compatible(r), "quaternion multiply across unrelated frames")
	q.Q = qmul(q.Q, r.Q)
	return q
}

// MultiplyConjugatedQ returns q* ⊗ r.
func (q Quaternion) MultiplyConjugatedQ(r Quaternion) Quaternion {
	assertf(q.compatible(r), "quaternion multiply across unrelated frames")
	q.Q = qmul(qconj(q.Q), r.Q)
	return q
}

// MultiplyConjugatedR returns q ⊗ r*.
func (q Quaternion) MultiplyConjugatedR(r Quaternion) Quaternion {
	assertf(q.compatible(r), "quaternion multiply across unrelated frames")
	q.Q = qmul(q.Q, qconj(r.Q))
	return q
}

// Convert re-expresses the orientation relative to target.
func (q Quaternion) Convert(target Frame) Quaternion {
	if q.Frame == target {
		return q
	}
	if q.Frame.IsZero() || target.IsZero() {
		assertf(false, "quaternion convert without frame")
		q.Frame = target
		return q
	}
	up, down, ok := route(q.Frame, target)
	assertf(ok, "quaternion convert between unrelated frame trees")
	r := q.Q
	for _, f := range up {
		r = qmul(f.transform().Orientation, r)
	}
	for _, f := range down {
		r = qmul(qconj(f.transform().Orientation), r)
	}
	return Quaternion{Q: r, Frame: target}
}

// Rotate applies q to v inside q's frame: q ⊗ v ⊗ q*.
func (q Quaternion) Rotate(v Vector) Vector {
	q.normalized()
	out := v.Convert(q.Frame)
	return out.with(qrotate(q.Q, out.Vec()))
}

// RotateConjugated applies q*: q* ⊗ v ⊗ q.
func (q Quaternion) RotateConjugated(v Vector) Vector {
	q.normalized()
	out := v.Convert(q.Frame)
	return out.with(qunrotate(q.Q, out.Vec()))
}

// RotateTo re-expresses the direction of v in child, the frame whose
// orientation q describes. Only the rotation is applied.
func (q Quaternion) RotateTo(v Vector, child Frame) Vector {
	q.normalized()
	if debug {
		p, ok := child.Parent()
		assertf(ok && p == q.Frame, "RotateTo target is not a child of the quaternion frame")
	}
	in := v.Convert(q.Frame)
	out := in.with(qunrotate(q.Q, in.Vec()))
	out.Frame = child
	out.Position, out.Velocity = Point{}, Point{}
	return out
}

// FromEuler builds an orientation from roll (x), pitch (y) and yaw (z) angles
// in radians, applied in yaw-pitch-roll order.
func FromEuler(f Frame, roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	return NewQuaternion(f,
		cr*cp*cy+sr*sp*sy,
		sr*cp*cy-cr*sp*sy,
		cr*sp*cy+sr*cp*sy,
		cr*cp*sy-sr*sp*cy,
	)
}

// Euler returns roll, pitch and yaw after converting q into target.
func (q Quaternion) Euler(target Frame) (roll, pitch, yaw float64) {
	q = q.Convert(target)
	w, x, y, z := q.Get()
	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	s := 2 * (w*y - z*x)
	s = math.Max(-1, math.Min(1, s))
	pitch = math.Asin(s)
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// FromAxisAngle builds a rotation of angle radians about axis, expressed in
// the axis' frame.
func FromAxisAngle(axis Vector, angle float64) Quaternion {
	a := axis.Vec().Normalize()
	s := math.Sin(angle / 2)
	return NewQuaternion(axis.Frame, math.Cos(angle/2), a.X*s, a.Y*s, a.Z*s)
}

// AxisAngle returns the rotation axis (Direction kind) and angle of q.
func (q Quaternion) AxisAngle() (Vector, float64) {
	q = q.Normalize()
	if q.Q[0] < 0 {
		q = q.Scale(-1)
	}
	angle := 2 * math.Acos(math.Min(1, q.Q[0]))
	s := math.Sqrt(math.Max(0, 1-q.Q[0]*q.Q[0]))
	if s < 1e-12 {
		return NewVector(q.Frame, Direction, 1, 0, 0), 0
	}
	return NewVector(q.Frame, Direction, q.Q[1]/s, q.Q[2]/s, q.Q[3]/s), angle
}

// ToMatrix returns the homogeneous rotation matrix of q, row-major.
func (q Quaternion) ToMatrix() Matrix {
	w, x, y, z := q.Get()
	return Matrix{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y), 0,
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x), 0,
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

// Slerp interpolates along the shortest arc from q to r.
func (q Quaternion) Slerp(r Quaternion, t float64) Quaternion {
	b := r.Convert(q.Frame).Q
	a := q.Q
	cos := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if cos < 0 {
		cos = -cos
		for i := range b {
			b[i] = -b[i]
		}
	}
	var ka, kb float64
	if cos > 1-1e-9 {
		ka, kb = 1-t, t
	} else {
		theta := math.Acos(cos)
		sin := math.Sin(theta)
		ka = math.Sin((1-t)*theta) / sin
		kb = math.Sin(t*theta) / sin
	}
	var out [4]float64
	for i := range out {
		out[i] = ka*a[i] + kb*b[i]
	}
	return Quaternion{Q: out, Frame: q.Frame}.Normalize()
}

// integrate advances q by a constant angular velocity w (in q's frame).
func (q Quaternion) integrate(w Vec3, dt float64) Quaternion {
	angle := w.Norm() * dt
	if angle == 0 {
		return q
	}
	axis := w.Normalize()
	s := math.Sin(angle / 2)
	dq := [4]float64{math.Cos(angle / 2), axis.X * s, axis.Y * s, axis.Z * s}
	q.Q = qmul(dq, q.Q)
	return q.Normalize()
}

func (q Quaternion) IsFinite() bool {
	for _, v := range q.Q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
