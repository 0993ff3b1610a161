package description

import (
	"errors"
	"strconv"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/vecmath"
)

// applyModifier lays out "count" instances of every original child of a
// modifier, the i-th one shifted by i times "offset" (a vector in the
// modifier's frame). Instances are derived objects, so applying a modifier
// again updates them in place.
func applyModifier(sys *sim.System, mod *sim.Object) error {
	count, err := mod.RealVariable("count")
	if errors.Is(err, errcode.NotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	offset := vecmath.Vec3{}
	if v, err := mod.Variable("offset"); err == nil {
		vec, err := v.Vector()
		if err != nil {
			return err
		}
		if !vec.Frame.IsZero() {
			vec.Kind = vecmath.Direction
			vec = vec.Convert(mod.Frame())
		}
		offset = vec.Vec()
	}

	children, err := mod.OwnedChildren()
	if err != nil {
		return err
	}
	for _, c := range children {
		if _, derived := c.Generated(); derived {
			continue
		}
		for i := 1; i < int(count); i++ {
			if err := instance(sys, mod, c, i, offset.Scale(float64(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

func instance(sys *sim.System, mod, src *sim.Object, i int, shift vecmath.Vec3) error {
	dst, err := sys.CreateBy(src, strconv.Itoa(i), mod)
	if err != nil {
		return err
	}
	typ, err := src.Type()
	if err != nil {
		return err
	}
	if err := dst.SetType(typ); err != nil {
		return err
	}

	vars, err := src.Variables()
	if err != nil {
		return err
	}
	for _, v := range vars {
		if _, err := dst.Variable(v.Name()); err == nil {
			continue
		}
		cp := v.Copy()
		cp.Reframe(src.Frame(), dst.Frame())
		if err := dst.AttachVariable(cp); err != nil {
			return err
		}
	}

	st, err := src.State()
	if err != nil {
		return err
	}
	p := st.Position.Vec().Add(shift)
	st.Position = vecmath.NewVector(st.Position.Frame, vecmath.Position, p.X, p.Y, p.Z)
	return dst.SetState(st)
}
