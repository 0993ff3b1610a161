package description

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

type LoadFlags uint

const (
	// SkipModifiers leaves modifier objects unapplied.
	SkipModifiers LoadFlags = 1 << iota
	OnlyFirst
	NoObjects
	NoDatabases
	// LoadMetadata keeps objects of type "metadata".
	LoadMetadata
	DontInitialize
	BlockingInitialize
)

type LoadOptions struct {
	Flags LoadFlags
	// OnLoadObject runs once for every created object, children included,
	// before initialization. A non-nil error aborts the load.
	OnLoadObject func(obj *sim.Object) error
	// OnSyntaxError runs once for every malformed element. Loading goes on
	// past the element.
	OnSyntaxError func(line int, msg string)
}

// Loaded lists what a description produced. Objects hold owning handles
// unless they were initialized in the background.
type Loaded struct {
	Version   int
	First     *sim.Object
	Objects   []*sim.Object
	Databases []*variable.Variable
}

type loader struct {
	sys   *sim.System
	opts  LoadOptions
	out   *Loaded
	errs  int
	full  []*sim.Object
	mods  []*sim.Object
	abort error
}

// LoadFile reads a description file. Objects are created under parent, or
// under the root when parent is nil.
func LoadFile(sys *sim.System, parent *sim.Object, path string, opts LoadOptions) (*Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		sys.Logger().Debug("open description", "path", path, "error", err)
		return nil, errcode.FileError
	}
	defer f.Close()
	return Load(sys, parent, f, opts)
}

// LoadString reads a description held in memory.
func LoadString(sys *sim.System, parent *sim.Object, desc string, opts LoadOptions) (*Loaded, error) {
	return Load(sys, parent, strings.NewReader(desc), opts)
}

// Load builds objects and databases from a YAML description. Malformed
// elements are reported and skipped; the load then ends with
// errcode.SyntaxError alongside everything that was built.
func Load(sys *sim.System, parent *sim.Object, r io.Reader, opts LoadOptions) (*Loaded, error) {
	l := &loader{sys: sys, opts: opts, out: &Loaded{}}

	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			l.yamlError(err)
			return l.out, errcode.SyntaxError
		}
		l.yamlError(err)
	}
	l.out.Version = doc.Version
	if doc.Version > Version {
		l.syntaxError(1, "unsupported version %d", doc.Version)
	}

	if opts.Flags&NoDatabases == 0 {
		for _, d := range doc.Databases {
			l.database(d)
		}
	}

	var top []*sim.Object
	if opts.Flags&NoObjects == 0 {
		for _, d := range doc.Objects {
			obj := l.object(d, parent)
			if l.abort != nil {
				return l.out, l.abort
			}
			if obj == nil {
				continue
			}
			top = append(top, obj)
			if l.out.First == nil {
				l.out.First = obj
			}
			if opts.Flags&OnlyFirst != 0 {
				break
			}
		}
	}

	if opts.Flags&SkipModifiers == 0 {
		for _, m := range l.mods {
			if err := applyModifier(sys, m); err != nil {
				name, _ := m.Name()
				l.syntaxError(0, "modifier %q: %v", name, err)
			}
		}
	}

	if opts.Flags&DontInitialize == 0 {
		if err := l.initialize(top); err != nil {
			return l.out, err
		}
	}

	if l.errs > 0 {
		return l.out, errcode.SyntaxError
	}
	return l.out, nil
}

func (l *loader) initialize(top []*sim.Object) error {
	blocking := l.opts.Flags&BlockingInitialize != 0
	for _, obj := range top {
		if err := obj.Initialize(blocking); err != nil {
			return err
		}
	}
	if !blocking {
		return nil
	}
	for _, obj := range l.full {
		if err := obj.LoadSolverState(); err != nil && !ignorable(err) {
			return err
		}
	}
	return nil
}

// ignorable reports solver state errors that only mean the object keeps no
// solver state.
func ignorable(err error) bool {
	return errors.Is(err, errcode.NotImplemented) || errors.Is(err, errcode.NotInitialized)
}

func (l *loader) syntaxError(line int, format string, args ...any) {
	l.errs++
	msg := fmt.Sprintf(format, args...)
	l.sys.Logger().Debug("description syntax error", "line", line, "error", msg)
	if l.opts.OnSyntaxError != nil {
		l.opts.OnSyntaxError(line, msg)
	}
}

func (l *loader) yamlError(err error) {
	var te *yaml.TypeError
	if errors.As(err, &te) {
		for _, e := range te.Errors {
			l.syntaxError(lineOf(e), "%s", e)
		}
		return
	}
	l.syntaxError(lineOf(err.Error()), "%s", strings.TrimPrefix(err.Error(), "yaml: "))
}

func lineOf(msg string) int {
	i := strings.Index(msg, "line ")
	if i < 0 {
		return 0
	}
	var n int
	fmt.Sscanf(msg[i+len("line "):], "%d", &n)
	return n
}

func (l *loader) database(d VariableDoc) {
	v := l.variable(d, l.sys.RootFrame())
	if v == nil {
		return
	}
	if v.Type() != variable.Nested {
		l.syntaxError(d.Line, "database %q must be nested", d.Name)
		return
	}
	if err := l.sys.AddDatabase(v); err != nil {
		l.syntaxError(d.Line, "database %q: %v", d.Name, err)
		return
	}
	db, err := l.sys.Database(d.Name)
	if err == nil {
		l.out.Databases = append(l.out.Databases, db)
	}
}

func (l *loader) object(d ObjectDoc, parent *sim.Object) *sim.Object {
	if d.Type == "metadata" && l.opts.Flags&LoadMetadata == 0 {
		return nil
	}
	obj, err := l.sys.CreateNamed(parent, d.Type, d.Name)
	if err != nil {
		l.syntaxError(d.Line, "object %q: %v", d.Name, err)
		return nil
	}
	if d.UID != 0 {
		if err := obj.SetUID(d.UID); err != nil {
			l.syntaxError(d.Line, "object %q: uid %d: %v", d.Name, d.UID, err)
		}
	}
	for _, vd := range d.Variables {
		v := l.variable(vd, obj.Frame())
		if v == nil {
			continue
		}
		if err := obj.AttachVariable(v); err != nil {
			l.syntaxError(vd.Line, "variable %q: %v", vd.Name, err)
		}
	}
	if d.State != nil {
		l.state(obj, parent, d)
	}

	l.out.Objects = append(l.out.Objects, obj)
	if d.Type == "modifier" {
		l.mods = append(l.mods, obj)
	}
	if l.opts.OnLoadObject != nil {
		if err := l.opts.OnLoadObject(obj); err != nil {
			l.abort = err
			return obj
		}
	}

	for _, c := range d.Children {
		l.object(c, obj)
		if l.abort != nil {
			break
		}
	}
	return obj
}

func (l *loader) state(obj, parent *sim.Object, d ObjectDoc) {
	pf := l.sys.RootFrame()
	if parent != nil {
		pf = parent.Frame()
	}
	s := d.State
	set := func(what string, xs []float64, n int, apply func() error) {
		if len(xs) == 0 {
			return
		}
		if len(xs) != n {
			l.syntaxError(d.Line, "object %q: %s needs %d components, got %d", d.Name, what, n, len(xs))
			return
		}
		if err := apply(); err != nil {
			l.syntaxError(d.Line, "object %q: %s: %v", d.Name, what, err)
		}
	}

	set("position", s.Position, 3, func() error {
		return obj.SetPosition(vecmath.NewVector(pf, vecmath.Position, s.Position[0], s.Position[1], s.Position[2]))
	})
	set("velocity", s.Velocity, 3, func() error {
		return obj.SetVelocity(vecmath.NewVector(pf, vecmath.Velocity, s.Velocity[0], s.Velocity[1], s.Velocity[2]))
	})
	set("orientation", s.Orientation, 4, func() error {
		q := vecmath.NewQuaternion(pf, s.Orientation[0], s.Orientation[1], s.Orientation[2], s.Orientation[3])
		return obj.SetOrientationQuaternion(q.Normalize())
	})
	set("angular_velocity", s.AngularVelocity, 3, func() error {
		w := s.AngularVelocity
		return obj.SetAngularVelocity(vecmath.NewVector(pf, vecmath.AngularVelocity, w[0], w[1], w[2]))
	})
	if s.Time != nil {
		if err := obj.SetStateTime(*s.Time); err != nil {
			l.syntaxError(d.Line, "object %q: time: %v", d.Name, err)
		}
		l.full = append(l.full, obj)
	}
}

func (l *loader) variable(d VariableDoc, f vecmath.Frame) *variable.Variable {
	if d.Name == "" {
		l.syntaxError(d.Line, "variable without a name")
		return nil
	}
	t, ok := l.variableType(d)
	if !ok {
		return nil
	}

	v := variable.New(d.Name, t)
	switch t {
	case variable.Float:
		v.SetReal(*d.Real)
	case variable.String:
		v.SetText(*d.String)
	case variable.Vector:
		k, ok := vecmath.ParseKind(d.Kind)
		if !ok {
			l.syntaxError(d.Line, "variable %q: unknown vector kind %q", d.Name, d.Kind)
			return nil
		}
		if len(d.Vector) != 3 {
			l.syntaxError(d.Line, "variable %q: vector needs 3 components, got %d", d.Name, len(d.Vector))
			return nil
		}
		v.SetVector(vecmath.NewVector(f, k, d.Vector[0], d.Vector[1], d.Vector[2]))
	case variable.Quaternion:
		if len(d.Quaternion) != 4 {
			l.syntaxError(d.Line, "variable %q: quaternion needs 4 components, got %d", d.Name, len(d.Quaternion))
			return nil
		}
		q := d.Quaternion
		v.SetQuaternion(vecmath.NewQuaternion(f, q[0], q[1], q[2], q[3]).Normalize())
	case variable.Nested:
		for _, cd := range d.Nested {
			if c := l.variable(cd, f); c != nil {
				v.Attach(c)
			}
		}
	case variable.Function:
		if d.Function != nil {
			tab, ok := l.table(d)
			if !ok {
				return nil
			}
			v.SetTable(tab)
		}
	}

	for _, ad := range d.Attributes {
		if a := l.variable(ad, f); a != nil {
			v.AttachAttribute(a)
		}
	}
	return v
}

// variableType infers the type from the single payload present, or checks
// it against an explicit type.
func (l *loader) variableType(d VariableDoc) (variable.Type, bool) {
	var found []variable.Type
	if d.Real != nil {
		found = append(found, variable.Float)
	}
	if d.String != nil {
		found = append(found, variable.String)
	}
	if d.Vector != nil {
		found = append(found, variable.Vector)
	}
	if d.Quaternion != nil {
		found = append(found, variable.Quaternion)
	}
	if d.Nested != nil {
		found = append(found, variable.Nested)
	}
	if d.Function != nil {
		found = append(found, variable.Function)
	}
	if len(found) > 1 {
		l.syntaxError(d.Line, "variable %q has %d values", d.Name, len(found))
		return 0, false
	}

	if d.Type != "" {
		t, ok := variable.ParseType(d.Type)
		if !ok {
			l.syntaxError(d.Line, "variable %q: unknown type %q", d.Name, d.Type)
			return 0, false
		}
		if len(found) == 1 && found[0] != t {
			l.syntaxError(d.Line, "variable %q: %s value for a %s variable", d.Name, found[0], t)
			return 0, false
		}
		if len(found) == 0 && t != variable.Nested && t != variable.Function &&
			t != variable.DataPointer && t != variable.FunctionPointer {
			l.syntaxError(d.Line, "variable %q has no value", d.Name)
			return 0, false
		}
		return t, true
	}
	if len(found) == 0 {
		l.syntaxError(d.Line, "variable %q has no value", d.Name)
		return 0, false
	}
	return found[0], true
}

func (l *loader) table(d VariableDoc) (variable.Table, bool) {
	fd := d.Function
	tab := variable.Table{Constant: fd.Constant}
	if fd.Interpolation != "" {
		k, ok := variable.ParseInterpolation(fd.Interpolation)
		if !ok {
			l.syntaxError(d.Line, "variable %q: unknown interpolation %q", d.Name, fd.Interpolation)
			return tab, false
		}
		tab.Interpolation = k
	}

	var ok bool
	if tab.Data1D, ok = l.samples(d, fd.Data1D); !ok {
		return tab, false
	}
	if tab.Data2D, ok = l.curves(d, fd.Data2D); !ok {
		return tab, false
	}
	for _, sd := range fd.Data3D {
		cs, ok := l.curves(d, sd.Data2D)
		if !ok {
			return tab, false
		}
		tab.Data3D = append(tab.Data3D, variable.Surface{Z: sd.Z, Curves: cs})
	}
	return tab, true
}

func (l *loader) curves(d VariableDoc, cds []CurveDoc) ([]variable.Curve, bool) {
	var out []variable.Curve
	for _, cd := range cds {
		s, ok := l.samples(d, cd.Data)
		if !ok {
			return nil, false
		}
		out = append(out, variable.Curve{Y: cd.Y, Samples: s})
	}
	return out, true
}

func (l *loader) samples(d VariableDoc, pairs [][]float64) ([]variable.Sample, bool) {
	if len(pairs) == 0 {
		return nil, true
	}
	out := make([]variable.Sample, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			l.syntaxError(d.Line, "variable %q: sample %v is not an [x, value] pair", d.Name, p)
			return nil, false
		}
		out = append(out, variable.Sample{X: p[0], V: p[1]})
	}
	return out, true
}
