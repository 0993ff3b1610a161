package sim

import (
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Copy duplicates src and its subtree under parent. The copies are created,
// not initialized, and owned by the returned handle. Vector variables that
// referred to a copied frame are rebound to its copy.
func (s *System) Copy(src, parent *Object) (*Object, error) {
	return s.copyTree(src, parent, true)
}

// CopySingle duplicates src alone.
func (s *System) CopySingle(src, parent *Object) (*Object, error) {
	return s.copyTree(src, parent, false)
}

// CopyChildren copies each initialized child of src under parent.
func (s *System) CopyChildren(src, parent *Object) ([]*Object, error) {
	children, err := src.Children()
	if err != nil {
		return nil, err
	}
	out := make([]*Object, 0, len(children))
	for _, c := range children {
		cp, err := s.copyTree(c, parent, true)
		if err != nil {
			return out, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// MoveChildren reparents every initialized child of src under dst.
func (s *System) MoveChildren(src, dst *Object) error {
	children, err := src.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := c.SetParent(dst); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) copyTree(src, parent *Object, deep bool) (*Object, error) {
	if err := src.readable(); err != nil {
		return nil, err
	}
	if src.n == s.root {
		return nil, errcode.BadParameter
	}
	frames := map[vecmath.Frame]vecmath.Frame{}
	dst, err := s.copyNode(src, parent, deep, frames)
	if err != nil {
		return nil, err
	}
	rebind(dst, frames)
	return dst, nil
}

func (s *System) copyNode(src, parent *Object, deep bool, frames map[vecmath.Frame]vecmath.Frame) (*Object, error) {
	dst, err := s.Create(parent)
	if err != nil {
		return nil, err
	}
	n := src.n
	n.mu.RLock()
	typ, name := n.typ, n.name
	n.mu.RUnlock()
	if err := dst.SetType(typ); err != nil {
		return nil, err
	}
	if err := dst.SetName(name); err != nil {
		return nil, err
	}

	vars := n.variables().Copy()
	dst.n.mu.Lock()
	dst.n.vars = vars
	dst.n.mu.Unlock()

	n.stateMu.RLock()
	st := n.state
	n.stateMu.RUnlock()
	pf := s.RootFrame()
	if parent != nil {
		pf = parent.Frame()
	}
	st = reframeState(st, pf)
	dst.n.stateMu.Lock()
	dst.n.state, dst.n.prev = st, st
	dst.n.stateMu.Unlock()
	frames[n.frame()] = dst.Frame()

	if !deep {
		return dst, nil
	}
	s.mu.RLock()
	children := append([]*node(nil), n.children...)
	s.mu.RUnlock()
	for _, c := range children {
		if c.lifecycle() >= MarkedForDestruction {
			continue
		}
		if _, err := s.copyNode(&Object{n: c, token: c.owner.Load()}, dst, true, frames); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// rebind points every vector variable in the copied subtree at the copies of
// the frames it used.
func rebind(o *Object, frames map[vecmath.Frame]vecmath.Frame) {
	vars := o.n.variables()
	for from, to := range frames {
		vars.Reframe(from, to)
	}
	s := o.n.sys
	s.mu.RLock()
	children := append([]*node(nil), o.n.children...)
	s.mu.RUnlock()
	for _, c := range children {
		rebind(&Object{n: c}, frames)
	}
}

// reframeState keeps the local numbers of st but attaches them to f.
func reframeState(st vecmath.StateVector, f vecmath.Frame) vecmath.StateVector {
	st.Position.Frame = f
	st.Velocity.Frame = f
	st.Acceleration.Frame = f
	st.Orientation.Frame = f
	st.AngularVelocity.Frame = f
	st.AngularAcceleration.Frame = f
	return st
}

// CreateBy returns the object generated by origin under parent as sub, for
// example geometry a solver derives from its parameters, creating it when it
// does not exist yet. It is named "<origin>.<sub>" and Generated reports
// origin.
func (s *System) CreateBy(origin *Object, sub string, parent *Object) (*Object, error) {
	name, err := origin.Name()
	if err != nil {
		return nil, err
	}
	name += "." + sub
	if parent == nil {
		parent = s.Root()
	}

	s.mu.RLock()
	var existing *node
	for _, c := range parent.n.children {
		if c.lifecycle() >= MarkedForDestruction {
			continue
		}
		c.mu.RLock()
		match := c.origin == origin.n && c.name == name
		c.mu.RUnlock()
		if match {
			existing = c
			break
		}
	}
	s.mu.RUnlock()
	if existing != nil {
		return parent.handle(existing), nil
	}

	o, err := s.Create(parent)
	if err != nil {
		return nil, err
	}
	if err := o.SetName(name); err != nil {
		return nil, err
	}
	o.n.mu.Lock()
	o.n.origin = origin.n
	o.n.mu.Unlock()
	return o, nil
}
