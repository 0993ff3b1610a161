package description

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

type SaveFlags uint

const (
	OnlyChildren SaveFlags = 1 << iota
	// SaveCopies also writes objects derived by modifiers.
	SaveCopies
	SaveUIDs
	// SaveFullState adds time, orientation and angular velocity, after
	// letting every solver flush its state into variables.
	SaveFullState
	SaveDatabases
)

type SaveOptions struct {
	Flags SaveFlags
}

// SaveFile writes obj (or its children) to path.
func SaveFile(path string, obj *sim.Object, opts SaveOptions) error {
	f, err := os.Create(path)
	if err != nil {
		obj.System().Logger().Debug("create description", "path", path, "error", err)
		return errcode.FileError
	}
	if err := Save(f, obj, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errcode.FileError
	}
	return nil
}

func Save(w io.Writer, obj *sim.Object, opts SaveOptions) error {
	doc, err := Encode(obj, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errcode.FileError
	}
	if err := enc.Close(); err != nil {
		return errcode.FileError
	}
	return nil
}

// Encode builds the document Save writes. Saving the root object saves its
// children.
func Encode(obj *sim.Object, opts SaveOptions) (*Document, error) {
	doc := &Document{Version: Version}
	sys := obj.System()

	if opts.Flags&SaveDatabases != 0 {
		for _, db := range sys.Databases() {
			if d, ok := encodeVariable(db, vecmath.Frame{}); ok {
				doc.Databases = append(doc.Databases, d)
			}
		}
	}

	objs := []*sim.Object{obj}
	if _, err := obj.Parent(); opts.Flags&OnlyChildren != 0 || errors.Is(err, errcode.NotFound) {
		var err error
		if objs, err = obj.OwnedChildren(); err != nil {
			return nil, err
		}
	}
	for _, o := range objs {
		d, ok, err := encodeObject(o, opts)
		if err != nil {
			return nil, err
		}
		if ok {
			doc.Objects = append(doc.Objects, d)
		}
	}
	return doc, nil
}

func encodeObject(obj *sim.Object, opts SaveOptions) (ObjectDoc, bool, error) {
	if _, derived := obj.Generated(); derived && opts.Flags&SaveCopies == 0 {
		return ObjectDoc{}, false, nil
	}
	full := opts.Flags&SaveFullState != 0
	if full {
		if err := obj.SaveSolverState(); err != nil && !ignorable(err) {
			return ObjectDoc{}, false, err
		}
	}

	var d ObjectDoc
	var err error
	if d.Name, err = obj.Name(); err != nil {
		return d, false, err
	}
	if d.Type, err = obj.Type(); err != nil {
		return d, false, err
	}
	if opts.Flags&SaveUIDs != 0 {
		if d.UID, err = obj.UID(); err != nil {
			return d, false, err
		}
	}

	vars, err := obj.Variables()
	if err != nil {
		return d, false, err
	}
	for _, v := range vars {
		if vd, ok := encodeVariable(v, obj.Frame()); ok {
			d.Variables = append(d.Variables, vd)
		}
	}

	st, err := obj.State()
	if err != nil {
		return d, false, err
	}
	d.State = encodeState(st, full)

	children, err := obj.OwnedChildren()
	if err != nil {
		return d, false, err
	}
	for _, c := range children {
		cd, ok, err := encodeObject(c, opts)
		if err != nil {
			return d, false, err
		}
		if ok {
			d.Children = append(d.Children, cd)
		}
	}
	return d, true, nil
}

func encodeState(st vecmath.StateVector, full bool) *StateDoc {
	s := &StateDoc{}
	if full || !st.Position.IsZero() {
		s.Position = components(st.Position)
	}
	if full || !st.Velocity.IsZero() {
		s.Velocity = components(st.Velocity)
	}
	if full {
		t := st.Time
		s.Time = &t
		q0, q1, q2, q3 := st.Orientation.Get()
		s.Orientation = []float64{q0, q1, q2, q3}
		s.AngularVelocity = components(st.AngularVelocity)
	}
	if s.Position == nil && s.Velocity == nil && !full {
		return nil
	}
	return s
}

func components(v vecmath.Vector) []float64 {
	x, y, z := v.Get()
	return []float64{x, y, z}
}

// encodeVariable writes vectors and quaternions in frame f when both frames
// are known. Pointer variables have no textual form and are skipped.
func encodeVariable(v *variable.Variable, f vecmath.Frame) (VariableDoc, bool) {
	d := VariableDoc{Name: v.Name()}
	switch v.Type() {
	case variable.Float:
		x, _ := v.Real()
		d.Real = &x
	case variable.String:
		s, _ := v.Text()
		d.String = &s
	case variable.Vector:
		vec, _ := v.Vector()
		if !vec.Frame.IsZero() && !f.IsZero() {
			vec = vec.Convert(f)
		}
		d.Vector = components(vec)
		if vec.Kind != vecmath.Position {
			d.Kind = vec.Kind.String()
		}
	case variable.Quaternion:
		q, _ := v.Quaternion()
		if !q.Frame.IsZero() && !f.IsZero() {
			q = q.Convert(f)
		}
		q0, q1, q2, q3 := q.Get()
		d.Quaternion = []float64{q0, q1, q2, q3}
	case variable.Nested:
		for _, c := range v.Children() {
			if cd, ok := encodeVariable(c, f); ok {
				d.Nested = append(d.Nested, cd)
			}
		}
		if len(d.Nested) == 0 {
			d.Type = variable.Nested.String()
		}
	case variable.Function:
		tab, _ := v.Table()
		d.Function = encodeTable(tab)
	default:
		return d, false
	}

	for _, a := range v.Attributes() {
		if ad, ok := encodeVariable(a, f); ok {
			d.Attributes = append(d.Attributes, ad)
		}
	}
	return d, true
}

func encodeTable(tab variable.Table) *FunctionDoc {
	fd := &FunctionDoc{Constant: tab.Constant, Data1D: pairs(tab.Data1D)}
	if tab.Interpolation != variable.Linear {
		fd.Interpolation = tab.Interpolation.String()
	}
	fd.Data2D = encodeCurves(tab.Data2D)
	for _, s := range tab.Data3D {
		fd.Data3D = append(fd.Data3D, SurfaceDoc{Z: s.Z, Data2D: encodeCurves(s.Curves)})
	}
	return fd
}

func encodeCurves(cs []variable.Curve) []CurveDoc {
	var out []CurveDoc
	for _, c := range cs {
		out = append(out, CurveDoc{Y: c.Y, Data: pairs(c.Samples)})
	}
	return out
}

func pairs(s []variable.Sample) [][]float64 {
	if len(s) == 0 {
		return nil
	}
	out := make([][]float64, len(s))
	for i, p := range s {
		out[i] = []float64{p.X, p.V}
	}
	return out
}
