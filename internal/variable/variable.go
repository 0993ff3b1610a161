// Package variable implements the typed property tree attached to objects and
// databases.
//
// A Variable owns two ordered lists: nested children and attributes. The lists
// are independent namespaces; attributes describe the Variable itself and are
// never visited when walking its children. Lookups are linear in insertion
// order and adding a name twice keeps both entries, so replacing a Variable
// means destroying the old one first.
package variable

import (
	"fmt"
	"strings"
	"sync"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Type tags the payload of a Variable.
type Type int

const (
	Float Type = iota
	String
	Vector
	Quaternion
	Nested
	DataPointer
	FunctionPointer
	Function
)

var typeNames = [...]string{"float", "string", "vector", "quaternion", "nested", "data_pointer", "function_pointer", "function"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType maps a type name back to its Type.
func ParseType(s string) (Type, bool) {
	for i, n := range typeNames {
		if n == s {
			return Type(i), true
		}
	}
	return 0, false
}

// Variable is a node of the property tree. It is safe for concurrent use.
type Variable struct {
	mu       sync.RWMutex
	name     string
	typ      Type
	parent   *Variable
	isAttr   bool
	nested   []*Variable
	attrs    []*Variable
	real     float64
	text     string
	vec      vecmath.Vector
	quat     vecmath.Quaternion
	data     any
	fn       any
	function *Table
	userdata any
}

// New creates a detached Variable.
func New(name string, t Type) *Variable {
	v := &Variable{name: name, typ: t}
	if t == Function {
		v.function = &Table{}
	}
	return v
}

func (v *Variable) Name() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.name
}

func (v *Variable) SetName(name string) {
	v.mu.Lock()
	v.name = name
	v.mu.Unlock()
}

func (v *Variable) Type() Type { return v.typ }

func (v *Variable) Parent() *Variable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.parent
}

// IsAttribute reports whether v lives in its parent's attribute list.
func (v *Variable) IsAttribute() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.isAttr
}

// Add creates a nested Variable under v.
func (v *Variable) Add(name string, t Type) (*Variable, error) {
	if v == nil {
		return nil, errcode.NotFound
	}
	child := New(name, t)
	v.attach(child, false)
	return child, nil
}

// AddFloat creates a nested float Variable holding value.
func (v *Variable) AddFloat(name string, value float64) (*Variable, error) {
	if v == nil {
		return nil, errcode.NotFound
	}
	child := New(name, Float)
	child.real = value
	v.attach(child, false)
	return child, nil
}

// AddAttribute creates an attribute of v.
func (v *Variable) AddAttribute(name string, t Type) (*Variable, error) {
	if v == nil {
		return nil, errcode.NotFound
	}
	a := New(name, t)
	v.attach(a, true)
	return a, nil
}

// AddFloatAttribute creates a float attribute holding value.
func (v *Variable) AddFloatAttribute(name string, value float64) (*Variable, error) {
	if v == nil {
		return nil, errcode.NotFound
	}
	a := New(name, Float)
	a.real = value
	v.attach(a, true)
	return a, nil
}

// Attach appends a detached Variable to v's nested list.
func (v *Variable) Attach(child *Variable) error {
	if v == nil || child == nil {
		return errcode.BadParameter
	}
	if child.Parent() != nil {
		return errcode.BadState
	}
	v.attach(child, false)
	return nil
}

// AttachAttribute appends a detached Variable to v's attribute list.
func (v *Variable) AttachAttribute(a *Variable) error {
	if v == nil || a == nil {
		return errcode.BadParameter
	}
	if a.Parent() != nil {
		return errcode.BadState
	}
	v.attach(a, true)
	return nil
}

func (v *Variable) attach(child *Variable, attr bool) {
	v.mu.Lock()
	if attr {
		v.attrs = append(v.attrs, child)
	} else {
		v.nested = append(v.nested, child)
	}
	v.mu.Unlock()
	child.mu.Lock()
	child.parent = v
	child.isAttr = attr
	child.mu.Unlock()
}

func find(list []*Variable, name string) *Variable {
	for _, c := range list {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Nested returns the first nested Variable called name.
func (v *Variable) Nested(name string) (*Variable, error) {
	if v == nil {
		return nil, errcode.NotFound
	}
	v.mu.RLock()
	c := find(v.nested, name)
	v.mu.RUnlock()
	if c == nil {
		return nil, errcode.NotFound
	}
	return c, nil
}

// Attribute returns the first attribute called name.
func (v *Variable) Attribute(name string) (*Variable, error) {
	if v == nil {
		return nil, errcode.NotFound
	}
	v.mu.RLock()
	c := find(v.attrs, name)
	v.mu.RUnlock()
	if c == nil {
		return nil, errcode.NotFound
	}
	return c, nil
}

// Children returns a snapshot of the nested list.
func (v *Variable) Children() []*Variable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]*Variable(nil), v.nested...)
}

// Attributes returns a snapshot of the attribute list.
func (v *Variable) Attributes() []*Variable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]*Variable(nil), v.attrs...)
}

// Destroy detaches v from its parent. A detached Variable is left to the
// garbage collector.
func (v *Variable) Destroy() error {
	if v == nil {
		return errcode.InvalidObject
	}
	v.mu.Lock()
	p, attr := v.parent, v.isAttr
	v.parent = nil
	v.mu.Unlock()
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if attr {
		p.attrs = remove(p.attrs, v)
	} else {
		p.nested = remove(p.nested, v)
	}
	return nil
}

func remove(list []*Variable, v *Variable) []*Variable {
	for i, c := range list {
		if c == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// MoveInList moves v directly in front of before among its siblings, or to the
// end of the list when before is nil.
func (v *Variable) MoveInList(before *Variable) error {
	p := v.Parent()
	if p == nil {
		return errcode.BadState
	}
	if before == v {
		return nil
	}
	if before != nil && (before.Parent() != p || before.IsAttribute() != v.IsAttribute()) {
		return errcode.BadParameter
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list := &p.nested
	if v.IsAttribute() {
		list = &p.attrs
	}
	*list = remove(*list, v)
	if before == nil {
		*list = append(*list, v)
		return nil
	}
	for i, c := range *list {
		if c == before {
			*list = append((*list)[:i], append([]*Variable{v}, (*list)[i:]...)...)
			return nil
		}
	}
	*list = append(*list, v)
	return nil
}

// Copy returns a detached deep copy of v, attributes included. Opaque data
// and function pointers are shared; user data is not copied.
func (v *Variable) Copy() *Variable {
	v.mu.RLock()
	c := &Variable{
		name: v.name,
		typ:  v.typ,
		real: v.real,
		text: v.text,
		vec:  v.vec,
		quat: v.quat,
		data: v.data,
		fn:   v.fn,
	}
	if v.function != nil {
		f := v.function.clone()
		c.function = &f
	}
	nested := append([]*Variable(nil), v.nested...)
	attrs := append([]*Variable(nil), v.attrs...)
	v.mu.RUnlock()

	for _, n := range nested {
		c.attach(n.Copy(), false)
	}
	for _, a := range attrs {
		c.attach(a.Copy(), true)
	}
	return c
}

// Reframe rewrites the frame of every vector and quaternion payload under v.
// Copies of object variables use it to follow the new owner.
func (v *Variable) Reframe(from, to vecmath.Frame) {
	v.mu.Lock()
	if v.typ == Vector && v.vec.Frame == from {
		v.vec.Frame = to
	}
	if v.typ == Quaternion && v.quat.Frame == from {
		v.quat.Frame = to
	}
	nested := append([]*Variable(nil), v.nested...)
	attrs := append([]*Variable(nil), v.attrs...)
	v.mu.Unlock()
	for _, c := range nested {
		c.Reframe(from, to)
	}
	for _, a := range attrs {
		a.Reframe(from, to)
	}
}

func (v *Variable) Userdata() any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.userdata
}

func (v *Variable) SetUserdata(d any) {
	v.mu.Lock()
	v.userdata = d
	v.mu.Unlock()
}

// Path returns the slash-separated names from the root Variable to v.
func (v *Variable) Path() string {
	var parts []string
	for cur := v; cur != nil; cur = cur.Parent() {
		parts = append(parts, cur.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (v *Variable) String() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	switch v.typ {
	case Float:
		return fmt.Sprintf("%s = %g", v.name, v.real)
	case String:
		return fmt.Sprintf("%s = %q", v.name, v.text)
	case Vector:
		return fmt.Sprintf("%s = %s", v.name, v.vec)
	case Quaternion:
		return fmt.Sprintf("%s = %s", v.name, v.quat)
	case Function:
		return fmt.Sprintf("%s = function(%g, %dD)", v.name, v.function.Constant, v.function.Dimensions())
	case Nested:
		return fmt.Sprintf("%s {%d}", v.name, len(v.nested))
	}
	return fmt.Sprintf("%s <%s>", v.name, v.typ)
}
