package sim

import (
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Lifecycle is the state of an object.
type Lifecycle int32

const (
	Created Lifecycle = iota
	Initializing
	Initialized
	MarkedForDestruction
	Finalized
)

var lifecycleNames = [...]string{"created", "initializing", "initialized", "marked_for_destruction", "finalized"}

func (l Lifecycle) String() string {
	if l < 0 || int(l) >= len(lifecycleNames) {
		return "unknown"
	}
	return lifecycleNames[l]
}

type node struct {
	sys   *System
	index uint32
	gen   uint32

	life  atomic.Int32
	owner atomic.Uint64
	refs  atomic.Int32
	// set by the first Destroy of an initialized node
	tearingDown atomic.Bool

	// guarded by sys.mu
	parent   *node
	children []*node

	mu         sync.RWMutex
	typ        string
	name       string
	uid        uint32
	solver     Solver
	calls      dispatch
	solverData any
	userdata   any
	origin     *node
	initErr    error
	done       chan struct{}

	vars *variable.Variable

	stateMu sync.RWMutex
	state   vecmath.StateVector
	prev    vecmath.StateVector
}

func (n *node) frame() vecmath.Frame { return vecmath.NewFrame(n.sys, n.index, n.gen) }

func (n *node) lifecycle() Lifecycle { return Lifecycle(n.life.Load()) }

func (n *node) variables() *variable.Variable {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.vars == nil {
		n.vars = variable.New("", variable.Nested)
	}
	return n.vars
}

// Object is a handle to a node of the object graph. Two handles may refer to
// the same object; compare them with Same. A handle with a non-zero token owns
// the object's initialization while that token is current.
type Object struct {
	n     *node
	token uint64
}

// handle returns a handle on m carrying o's ownership where it applies.
func (o *Object) handle(m *node) *Object {
	if m == nil {
		return nil
	}
	h := &Object{n: m}
	if o.token != 0 && m.owner.Load() == o.token {
		h.token = o.token
	}
	return h
}

func (o *Object) System() *System { return o.n.sys }

// Same reports whether o and p refer to the same object.
func (o *Object) Same(p *Object) bool {
	return o != nil && p != nil && o.n == p.n
}

// Frame is the coordinate system this object defines for its children.
func (o *Object) Frame() vecmath.Frame { return o.n.frame() }

func (o *Object) Lifecycle() Lifecycle { return o.n.lifecycle() }

// Owns reports whether this handle owns the object's initialization.
func (o *Object) Owns() bool {
	return o.token != 0 && o.n.owner.Load() == o.token
}

func (o *Object) IsInitialized() bool { return o.n.lifecycle() == Initialized }

// IsDestroyed is safe in every state and never touches reclaimed memory.
func (o *Object) IsDestroyed() bool {
	return o == nil || o.n == nil || o.n.lifecycle() >= MarkedForDestruction
}

// readable gates queries: initialized or destroyed-but-retained objects are
// open to everyone, uninitialized ones only to their owner.
func (o *Object) readable() error {
	if o == nil || o.n == nil {
		return errcode.InvalidObject
	}
	switch l := o.n.lifecycle(); {
	case l == Initialized || l == MarkedForDestruction:
		return nil
	case l == Finalized:
		return errcode.InvalidObject
	}
	if o.Owns() {
		return nil
	}
	return errcode.NotInitialized
}

// writable gates mutations the same way but reports InterthreadCall.
func (o *Object) writable() error {
	if o == nil || o.n == nil {
		return errcode.InvalidObject
	}
	switch l := o.n.lifecycle(); {
	case l == Initialized:
		return nil
	case l >= MarkedForDestruction:
		return errcode.InvalidObject
	}
	if o.Owns() {
		return nil
	}
	return errcode.InterthreadCall
}

func (o *Object) Type() (string, error) {
	if err := o.readable(); err != nil {
		return "", err
	}
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.typ, nil
}

// SetType retags the object and moves it in the type index.
func (o *Object) SetType(typ string) error {
	if err := o.writable(); err != nil {
		return err
	}
	s := o.n.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	o.n.mu.Lock()
	old := o.n.typ
	o.n.typ = typ
	o.n.mu.Unlock()
	if old != typ {
		s.byType[old] = removeNode(s.byType[old], o.n)
		s.byType[typ] = append(s.byType[typ], o.n)
	}
	return nil
}

// CheckType matches the type against a shell pattern such as "rocket_*".
func (o *Object) CheckType(pattern string) error {
	typ, err := o.Type()
	if err != nil {
		return err
	}
	if ok, _ := path.Match(pattern, typ); !ok {
		return errcode.InvalidType
	}
	return nil
}

func (o *Object) Name() (string, error) {
	if err := o.readable(); err != nil {
		return "", err
	}
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.name, nil
}

func (o *Object) SetName(name string) error {
	if err := o.writable(); err != nil {
		return err
	}
	o.n.mu.Lock()
	o.n.name = name
	o.n.mu.Unlock()
	return nil
}

// SetUniqueName sets name, suffixing " (2)", " (3)"... when a sibling already
// uses it. An empty name falls back to the object's type.
func (o *Object) SetUniqueName(name string) error {
	if err := o.writable(); err != nil {
		return err
	}
	if name == "" {
		o.n.mu.RLock()
		name = o.n.typ
		o.n.mu.RUnlock()
	}
	s := o.n.sys
	s.mu.RLock()
	taken := map[string]bool{}
	if p := o.n.parent; p != nil {
		for _, c := range p.children {
			if c != o.n {
				c.mu.RLock()
				taken[c.name] = true
				c.mu.RUnlock()
			}
		}
	}
	s.mu.RUnlock()

	unique := name
	for i := 2; taken[unique]; i++ {
		unique = name + " (" + strconv.Itoa(i) + ")"
	}
	return o.SetName(unique)
}

func (o *Object) UID() (uint32, error) {
	if err := o.readable(); err != nil {
		return 0, err
	}
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.uid, nil
}

// SetUID assigns a unique numeric id; zero clears it. An id already used by
// another live object is rejected.
func (o *Object) SetUID(uid uint32) error {
	if err := o.writable(); err != nil {
		return err
	}
	s := o.n.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.byUID[uid]; uid != 0 && ok && other != o.n {
		return errcode.BadParameter
	}
	o.n.mu.Lock()
	old := o.n.uid
	o.n.uid = uid
	o.n.mu.Unlock()
	if old != 0 {
		delete(s.byUID, old)
	}
	if uid != 0 {
		s.byUID[uid] = o.n
	}
	return nil
}

// Solver returns the owning solver, nil for generic objects.
func (o *Object) Solver() (Solver, error) {
	if err := o.readable(); err != nil {
		return nil, err
	}
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.solver, nil
}

func (o *Object) SolverData() any {
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.solverData
}

func (o *Object) SetSolverData(d any) {
	o.n.mu.Lock()
	o.n.solverData = d
	o.n.mu.Unlock()
}

func (o *Object) Userdata() any {
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.userdata
}

func (o *Object) SetUserdata(d any) {
	o.n.mu.Lock()
	o.n.userdata = d
	o.n.mu.Unlock()
}

// Generated reports whether the object was produced by CreateBy and returns
// the object it was derived from.
func (o *Object) Generated() (*Object, bool) {
	o.n.mu.RLock()
	origin := o.n.origin
	o.n.mu.RUnlock()
	if origin == nil {
		return nil, false
	}
	return o.handle(origin), true
}

// Parent returns the parent object; the root has none.
func (o *Object) Parent() (*Object, error) {
	if err := o.readable(); err != nil {
		return nil, err
	}
	s := o.n.sys
	s.mu.RLock()
	p := o.n.parent
	s.mu.RUnlock()
	if p == nil {
		return nil, errcode.NotFound
	}
	return o.handle(p), nil
}

// ParentByType walks up the parent chain to the first object whose type
// matches pattern.
func (o *Object) ParentByType(pattern string) (*Object, error) {
	if err := o.readable(); err != nil {
		return nil, err
	}
	s := o.n.sys
	s.mu.RLock()
	defer s.mu.RUnlock()
	for p := o.n.parent; p != nil; p = p.parent {
		p.mu.RLock()
		typ := p.typ
		p.mu.RUnlock()
		if ok, _ := path.Match(pattern, typ); ok {
			return o.handle(p), nil
		}
	}
	return nil, errcode.NotFound
}

func (o *Object) collect(keep func(Lifecycle) bool) ([]*Object, error) {
	if err := o.readable(); err != nil {
		return nil, err
	}
	s := o.n.sys
	s.mu.RLock()
	nodes := append([]*node(nil), o.n.children...)
	s.mu.RUnlock()
	out := make([]*Object, 0, len(nodes))
	for _, c := range nodes {
		if keep(c.lifecycle()) {
			out = append(out, o.handle(c))
		}
	}
	return out, nil
}

// Children returns the initialized children in sibling order.
func (o *Object) Children() ([]*Object, error) {
	return o.collect(func(l Lifecycle) bool { return l == Initialized })
}

// AllChildren also returns children still being initialized.
func (o *Object) AllChildren() ([]*Object, error) {
	return o.collect(func(l Lifecycle) bool { return l == Initialized || l == Initializing })
}

// OwnedChildren returns children this handle owns, whatever their state. The
// loader uses it to reach objects it has not initialized yet.
func (o *Object) OwnedChildren() ([]*Object, error) {
	all, err := o.collect(func(l Lifecycle) bool { return l < MarkedForDestruction })
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if c.IsInitialized() || c.Owns() {
			out = append(out, c)
		}
	}
	return out, nil
}

// SetParent moves an initialized object under another initialized object. The
// state vector is converted into the new parent's frame.
func (o *Object) SetParent(parent *Object) error {
	if o.n.lifecycle() != Initialized || parent == nil || parent.n.lifecycle() != Initialized {
		return errcode.BadState
	}
	if o.n == o.n.sys.root || parent.n.sys != o.n.sys {
		return errcode.BadParameter
	}
	if o.n == parent.n || o.Frame().IsAncestorOf(parent.Frame()) {
		return errcode.BadParameter
	}

	o.n.stateMu.RLock()
	cur, prev := o.n.state.Convert(parent.Frame()), o.n.prev.Convert(parent.Frame())
	o.n.stateMu.RUnlock()

	s := o.n.sys
	s.mu.Lock()
	if old := o.n.parent; old != nil {
		old.children = removeNode(old.children, o.n)
	}
	o.n.parent = parent.n
	parent.n.children = append(parent.n.children, o.n)
	s.mu.Unlock()

	o.n.stateMu.Lock()
	o.n.state, o.n.prev = cur, prev
	o.n.stateMu.Unlock()
	return nil
}

// MoveInList places o directly before sibling, or last when sibling is nil.
func (o *Object) MoveInList(sibling *Object) error {
	if o.n.lifecycle() != Initialized {
		return errcode.BadState
	}
	s := o.n.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	p := o.n.parent
	if p == nil {
		return errcode.BadParameter
	}
	if sibling != nil && (sibling.n.parent != p || sibling.n == o.n) {
		if sibling.n == o.n {
			return nil
		}
		return errcode.BadParameter
	}
	p.children = removeNode(p.children, o.n)
	if sibling == nil {
		p.children = append(p.children, o.n)
		return nil
	}
	for i, c := range p.children {
		if c == sibling.n {
			p.children = append(p.children[:i], append([]*node{o.n}, p.children[i:]...)...)
			break
		}
	}
	return nil
}

// Reference returns the slash-separated names from the root down to o.
func (o *Object) Reference() (string, error) {
	if err := o.readable(); err != nil {
		return "", err
	}
	s := o.n.sys
	s.mu.RLock()
	var parts []string
	for n := o.n; n != nil && n != s.root; n = n.parent {
		n.mu.RLock()
		parts = append(parts, n.name)
		n.mu.RUnlock()
	}
	s.mu.RUnlock()
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/"), nil
}

func removeNode(list []*node, n *node) []*node {
	for i, c := range list {
		if c == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// AddVariable creates a variable on the object.
func (o *Object) AddVariable(name string, t variable.Type) (*variable.Variable, error) {
	if err := o.writable(); err != nil {
		return nil, err
	}
	return o.n.variables().Add(name, t)
}

// AddRealVariable creates a float variable holding value.
func (o *Object) AddRealVariable(name string, value float64) (*variable.Variable, error) {
	if err := o.writable(); err != nil {
		return nil, err
	}
	return o.n.variables().AddFloat(name, value)
}

// AttachVariable adds an existing detached variable tree to the object.
func (o *Object) AttachVariable(v *variable.Variable) error {
	if err := o.writable(); err != nil {
		return err
	}
	return o.n.variables().Attach(v)
}

func (o *Object) Variable(name string) (*variable.Variable, error) {
	if err := o.readable(); err != nil {
		return nil, err
	}
	return o.n.variables().Nested(name)
}

// RealVariable returns the value of a float or function variable.
func (o *Object) RealVariable(name string) (float64, error) {
	v, err := o.Variable(name)
	if err != nil {
		return 0, err
	}
	return v.Real()
}

// Variables lists the top-level variables in insertion order.
func (o *Object) Variables() ([]*variable.Variable, error) {
	if err := o.readable(); err != nil {
		return nil, err
	}
	return o.n.variables().Children(), nil
}
