package vecmath

import "math"

// Tensor is a 3x3 matrix built from three row vectors, used for inertia.
type Tensor struct {
	Rows  [3]Vec3
	Frame Frame
}

// NewTensor takes rows in x's frame; y and z are converted as directions.
func NewTensor(x, y, z Vector) Tensor {
	conv := func(v Vector) Vec3 {
		v.Kind = Direction
		return v.Convert(x.Frame).Vec()
	}
	return Tensor{Rows: [3]Vec3{x.Vec(), conv(y), conv(z)}, Frame: x.Frame}
}

func Diagonal(f Frame, a, b, c float64) Tensor {
	return Tensor{Rows: [3]Vec3{{a, 0, 0}, {0, b, 0}, {0, 0, c}}, Frame: f}
}

func (t Tensor) at(r, c int) float64 {
	switch c {
	case 0:
		return t.Rows[r].X
	case 1:
		return t.Rows[r].Y
	}
	return t.Rows[r].Z
}

func (t Tensor) col(c int) Vec3 { return Vec3{t.at(0, c), t.at(1, c), t.at(2, c)} }

func (t Tensor) mulVec(v Vec3) Vec3 {
	return Vec3{t.Rows[0].Dot(v), t.Rows[1].Dot(v), t.Rows[2].Dot(v)}
}

// MultiplyByVector returns t·v in the tensor's frame; v keeps its kind.
func (t Tensor) MultiplyByVector(v Vector) Vector {
	in := v.Convert(t.Frame)
	return in.with(t.mulVec(in.Vec()))
}

// Rotate returns R·T·Rᵀ with R the rotation of q, expressed in q's frame.
// Rotating a body-frame inertia tensor by the body orientation yields the
// tensor in the parent frame.
func (t Tensor) Rotate(q Quaternion) Tensor {
	var rt [3]Vec3
	for i := 0; i < 3; i++ {
		rt[i] = qrotate(q.Q, t.col(i))
	}
	// rt[i] is column i of R·T; (R·T)·Rᵀ row r = R applied to row r of R·T.
	rowsRT := [3]Vec3{
		{rt[0].X, rt[1].X, rt[2].X},
		{rt[0].Y, rt[1].Y, rt[2].Y},
		{rt[0].Z, rt[1].Z, rt[2].Z},
	}
	var out Tensor
	for r := 0; r < 3; r++ {
		out.Rows[r] = qrotate(q.Q, rowsRT[r])
	}
	out.Frame = q.Frame
	return out
}

func (t Tensor) Transpose() Tensor {
	return Tensor{Rows: [3]Vec3{t.col(0), t.col(1), t.col(2)}, Frame: t.Frame}
}

func (t Tensor) Determinant() float64 {
	return t.Rows[0].Dot(t.Rows[1].Cross(t.Rows[2]))
}

// Invert returns the general inverse, or false when t is singular.
func (t Tensor) Invert() (Tensor, bool) {
	det := t.Determinant()
	if math.Abs(det) < Eps {
		return Tensor{Frame: t.Frame}, false
	}
	// Columns of the inverse are the cross products of the rows over det.
	c0 := t.Rows[1].Cross(t.Rows[2]).Scale(1 / det)
	c1 := t.Rows[2].Cross(t.Rows[0]).Scale(1 / det)
	c2 := t.Rows[0].Cross(t.Rows[1]).Scale(1 / det)
	return Tensor{Rows: [3]Vec3{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}, Frame: t.Frame}, true
}

// InvertSymmetric inverts a symmetric tensor, returning a symmetric result.
func (t Tensor) InvertSymmetric() (Tensor, bool) {
	a, b, c := t.at(0, 0), t.at(0, 1), t.at(0, 2)
	d, e, f := t.at(1, 1), t.at(1, 2), t.at(2, 2)
	det := a*(d*f-e*e) - b*(b*f-c*e) + c*(b*e-c*d)
	if math.Abs(det) < Eps {
		return Tensor{Frame: t.Frame}, false
	}
	i00 := (d*f - e*e) / det
	i01 := (c*e - b*f) / det
	i02 := (b*e - c*d) / det
	i11 := (a*f - c*c) / det
	i12 := (b*c - a*e) / det
	i22 := (a*d - b*b) / det
	return Tensor{Rows: [3]Vec3{
		{i00, i01, i02},
		{i01, i11, i12},
		{i02, i12, i22},
	}, Frame: t.Frame}, true
}

// IsSymmetric compares off-diagonal pairs relative to the tensor's scale.
func (t Tensor) IsSymmetric() bool {
	scale := math.Max(1, math.Max(math.Abs(t.at(0, 0)), math.Max(math.Abs(t.at(1, 1)), math.Abs(t.at(2, 2)))))
	tol := 1e-12 * scale
	return math.Abs(t.at(0, 1)-t.at(1, 0)) <= tol &&
		math.Abs(t.at(0, 2)-t.at(2, 0)) <= tol &&
		math.Abs(t.at(1, 2)-t.at(2, 1)) <= tol
}
