package sim

import (
	"context"
	"math"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Create adds an uninitialized object under parent, or under the root when
// parent is nil. The returned handle owns the new object's initialization.
func (s *System) Create(parent *Object) (*Object, error) {
	if parent == nil {
		parent = s.Root()
	}
	if parent.n == nil || parent.n.sys != s {
		return nil, errcode.InvalidObject
	}
	switch l := parent.n.lifecycle(); {
	case l >= MarkedForDestruction:
		return nil, errcode.InvalidObject
	case l != Initialized && !parent.Owns():
		return nil, errcode.InterthreadCall
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, errcode.BadState
	}

	token := parent.token
	if token == 0 {
		token = s.newToken()
	}
	n := s.newNode(parent.n)
	n.owner.Store(token)
	st := vecmath.NewStateVector(parent.n.frame())
	st.Time = math.Float64frombits(s.time.Load())
	n.state, n.prev = st, st
	return &Object{n: n, token: token}, nil
}

// CreateNamed is Create followed by SetType and SetName.
func (s *System) CreateNamed(parent *Object, typ, name string) (*Object, error) {
	o, err := s.Create(parent)
	if err != nil {
		return nil, err
	}
	if err := o.SetType(typ); err != nil {
		return nil, err
	}
	if err := o.SetName(name); err != nil {
		return nil, err
	}
	return o, nil
}

// Initialize offers the object to the registered solvers and marks it
// initialized, then does the same for created children sharing its owner.
// With blocking false the work moves to a new goroutine and this handle loses
// ownership; use WaitInitialized to join it.
func (o *Object) Initialize(blocking bool) error {
	if o == nil || o.n == nil {
		return errcode.InvalidObject
	}
	switch o.n.lifecycle() {
	case Initialized:
		return nil
	case Initializing:
		return errcode.BadState
	case MarkedForDestruction, Finalized:
		return errcode.InvalidObject
	}
	if !o.Owns() {
		return errcode.InterthreadCall
	}

	if blocking {
		if !o.n.life.CompareAndSwap(int32(Created), int32(Initializing)) {
			return errcode.BadState
		}
		return o.initialize()
	}

	worker := &Object{n: o.n, token: o.n.sys.newToken()}
	retoken(o.n, o.token, worker.token)
	if !o.n.life.CompareAndSwap(int32(Created), int32(Initializing)) {
		return errcode.BadState
	}
	go func() {
		if err := worker.initialize(); err != nil {
			o.n.sys.log.Warn("background initialization failed", "object", o.n.describe(), "err", err)
		}
	}()
	return nil
}

// initialize runs with the object already Initializing.
func (o *Object) initialize() error {
	s, n := o.n.sys, o.n
	if err := s.claim(o); err != nil {
		n.mu.Lock()
		n.solver = nil
		n.calls = dispatch{}
		n.initErr = err
		n.life.Store(int32(Created))
		close(n.done)
		n.done = make(chan struct{})
		n.mu.Unlock()
		s.log.Debug("initialization failed", "object", n.describe(), "err", err)
		return err
	}

	n.mu.Lock()
	n.initErr = nil
	n.life.Store(int32(Initialized))
	close(n.done)
	n.mu.Unlock()
	s.log.Debug("object initialized", "object", n.describe())

	s.mu.RLock()
	children := append([]*node(nil), n.children...)
	s.mu.RUnlock()
	var first error
	for _, c := range children {
		if c.lifecycle() != Created || c.owner.Load() != o.token {
			continue
		}
		if err := (&Object{n: c, token: o.token}).Initialize(true); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// claim runs the global hook, then offers the object to each solver in
// registration order until one claims it.
func (s *System) claim(o *Object) error {
	g := s.globals()
	claimed := false
	if g.OnInitialize != nil {
		c, err := g.OnInitialize(s, o)
		if err != nil {
			return err
		}
		claimed = c == Claimed
	}
	if !claimed {
		for _, sv := range s.Solvers() {
			in, ok := sv.(Initializer)
			if !ok {
				continue
			}
			c, err := in.OnInitialize(s, o)
			if err != nil {
				return err
			}
			if c != Claimed {
				continue
			}
			o.n.mu.Lock()
			o.n.solver = sv
			o.n.calls = o.n.calls.merge(dispatchFor(sv))
			o.n.mu.Unlock()
			break
		}
	}
	if g.OnPostInitialize != nil {
		return g.OnPostInitialize(s, o)
	}
	return nil
}

// merge fills the empty entries of d from e. Callbacks installed by the
// solver during OnInitialize win over its interface methods.
func (d dispatch) merge(e dispatch) dispatch {
	if d.solve == nil {
		d.solve = e.solve
	}
	if d.integrate == nil {
		d.integrate = e.integrate
	}
	if d.deinit == nil {
		d.deinit = e.deinit
	}
	if d.finalize == nil {
		d.finalize = e.finalize
	}
	if d.stateSave == nil {
		d.stateSave = e.stateSave
	}
	if d.stateLoad == nil {
		d.stateLoad = e.stateLoad
	}
	return d
}

// retoken hands every created object in n's subtree owned by old to token.
func retoken(n *node, old, token uint64) {
	n.owner.CompareAndSwap(old, token)
	n.sys.mu.RLock()
	children := append([]*node(nil), n.children...)
	n.sys.mu.RUnlock()
	for _, c := range children {
		if c.lifecycle() == Created && c.owner.Load() == old {
			retoken(c, old, token)
		}
	}
}

// WaitInitialized blocks until the object is initialized, an initialization
// attempt fails, or ctx is done.
func (o *Object) WaitInitialized(ctx context.Context) error {
	if o == nil || o.n == nil {
		return errcode.InvalidObject
	}
	for {
		o.n.mu.RLock()
		done := o.n.done
		o.n.mu.RUnlock()
		switch o.n.lifecycle() {
		case Initialized:
			return nil
		case MarkedForDestruction, Finalized:
			return errcode.InvalidObject
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}

		o.n.mu.RLock()
		err := o.n.initErr
		o.n.mu.RUnlock()
		if o.n.lifecycle() == Initialized {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// TransferInitialization moves ownership of a created object, and the created
// descendants it owns, to a new handle. The old handle stops owning them.
func (o *Object) TransferInitialization() (*Object, error) {
	if o == nil || o.n == nil {
		return nil, errcode.InvalidObject
	}
	if o.n.lifecycle() != Created {
		return nil, errcode.BadState
	}
	if !o.Owns() {
		return nil, errcode.InterthreadCall
	}
	next := &Object{n: o.n, token: o.n.sys.newToken()}
	retoken(o.n, o.token, next.token)
	return next, nil
}

// Destroy deinitializes the object and its subtree and detaches them from the
// graph. Memory stays valid until CleanupObjects finds it unpinned.
func (o *Object) Destroy() error {
	if o == nil || o.n == nil {
		return errcode.InvalidObject
	}
	s, n := o.n.sys, o.n
	if n == s.root {
		return errcode.BadParameter
	}
	l := n.lifecycle()
	switch {
	case l == Initializing:
		return errcode.BadState
	case l == MarkedForDestruction:
		return nil
	case l == Finalized:
		return errcode.InvalidObject
	case l == Created && !o.Owns():
		return errcode.InterthreadCall
	}

	s.mu.RLock()
	children := append([]*node(nil), n.children...)
	s.mu.RUnlock()
	var first error
	for _, c := range children {
		if err := (&Object{n: c, token: c.owner.Load()}).Destroy(); err != nil && first == nil {
			first = err
		}
	}

	if l == Initialized {
		if !n.tearingDown.CompareAndSwap(false, true) {
			return first
		}
		// hooks run while the object is still initialized
		h := &Object{n: n}
		n.mu.RLock()
		deinit := n.calls.deinit
		n.mu.RUnlock()
		if deinit != nil {
			if err := deinit(s, h); err != nil && first == nil {
				first = err
			}
		}
		if g := s.globals(); g.OnDeinitialize != nil {
			if err := g.OnDeinitialize(s, h); err != nil && first == nil {
				first = err
			}
		}
	}
	if !n.life.CompareAndSwap(int32(l), int32(MarkedForDestruction)) {
		return errcode.BadState
	}

	n.mu.RLock()
	typ, uid := n.typ, n.uid
	n.mu.RUnlock()
	s.mu.Lock()
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
	}
	s.byType[typ] = removeNode(s.byType[typ], n)
	if uid != 0 && s.byUID[uid] == n {
		delete(s.byUID, uid)
	}
	s.destroyed = append(s.destroyed, n)
	s.mu.Unlock()
	s.log.Debug("object destroyed", "object", n.describe())
	return first
}

// Store pins the object so CleanupObjects keeps it, and its ancestors,
// resolvable after destruction. Every Store needs a matching Release.
func (o *Object) Store() error {
	if o == nil || o.n == nil || o.n.lifecycle() == Finalized {
		return errcode.InvalidObject
	}
	o.n.refs.Add(1)
	return nil
}

func (o *Object) Release() error {
	if o == nil || o.n == nil {
		return errcode.InvalidObject
	}
	if o.n.refs.Add(-1) < 0 {
		o.n.refs.Add(1)
		return errcode.BadState
	}
	return nil
}

// CleanupObjects finalizes destroyed objects that are neither pinned nor
// ancestors of a pinned object, and frees their slots.
func (s *System) CleanupObjects() error {
	s.mu.Lock()
	keep := make(map[*node]bool)
	for _, sl := range s.slots {
		if sl.node == nil || sl.node.refs.Load() == 0 {
			continue
		}
		for n := sl.node; n != nil && !keep[n]; n = n.parent {
			keep[n] = true
		}
	}
	var doomed, kept []*node
	for _, n := range s.destroyed {
		if keep[n] {
			kept = append(kept, n)
		} else {
			doomed = append(doomed, n)
		}
	}
	s.destroyed = kept
	s.mu.Unlock()

	var first error
	for _, n := range doomed {
		n.mu.RLock()
		fin := n.calls.finalize
		n.mu.RUnlock()
		if fin != nil {
			if err := fin(s, &Object{n: n}); err != nil && first == nil {
				first = err
			}
		}
	}

	s.mu.Lock()
	for _, n := range doomed {
		if n.refs.Load() > 0 {
			s.destroyed = append(s.destroyed, n)
			continue
		}
		n.life.Store(int32(Finalized))
		s.release(n)
	}
	s.mu.Unlock()
	if len(doomed) > 0 {
		s.log.Debug("objects finalized", "count", len(doomed))
	}
	return first
}

// describe is a log-friendly label.
func (n *node) describe() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.name == "" {
		return n.typ
	}
	return n.typ + ":" + n.name
}
