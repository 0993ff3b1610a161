package sim

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

type slot struct {
	gen  uint32
	node *node
}

// System is one simulation instance.
type System struct {
	log   *slog.Logger
	clock func() time.Time

	mu        sync.RWMutex
	slots     []slot
	free      []uint32
	root      *node
	solvers   []Solver
	callbacks GlobalCallbacks
	byType    map[string][]*node
	byUID     map[uint32]*node
	destroyed []*node
	databases []*variable.Variable
	closed    bool

	time     atomic.Uint64
	tokens   atomic.Uint64
	userdata atomic.Value
}

type Option func(*System)

// WithLogger routes system logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *System) { s.log = l }
}

// WithClock replaces the wall clock used in realtime mode.
func WithClock(now func() time.Time) Option {
	return func(s *System) { s.clock = now }
}

// New creates a System with an initialized root inertial frame. Time starts
// in realtime mode.
func New(opts ...Option) *System {
	s := &System{
		log:    slog.Default(),
		clock:  time.Now,
		byType: make(map[string][]*node),
		byUID:  make(map[uint32]*node),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetTime(vecmath.Realtime)

	s.root = s.newNode(nil)
	s.root.life.Store(int32(Initialized))
	s.root.state = vecmath.NewStateVector(s.root.frame())
	s.root.prev = s.root.state
	return s
}

func (s *System) Logger() *slog.Logger { return s.log }

// newNode allocates an arena slot. The caller links it into the graph.
func (s *System) newNode(parent *node) *node {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := &node{sys: s, parent: parent, done: make(chan struct{})}
	if k := len(s.free); k > 0 {
		n.index = s.free[k-1]
		s.free = s.free[:k-1]
	} else {
		n.index = uint32(len(s.slots))
		s.slots = append(s.slots, slot{gen: 1})
	}
	n.gen = s.slots[n.index].gen
	s.slots[n.index].node = n
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	s.byType[""] = append(s.byType[""], n)
	return n
}

// release frees an arena slot; stale frames stop resolving.
func (s *System) release(n *node) {
	sl := &s.slots[n.index]
	if sl.node != n {
		return
	}
	sl.node = nil
	sl.gen++
	s.free = append(s.free, n.index)
}

func (s *System) lookup(f vecmath.Frame) *node {
	if f.Tree() != vecmath.Tree(s) {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := f.Index()
	if int(i) >= len(s.slots) {
		return nil
	}
	sl := s.slots[i]
	if sl.node == nil || sl.gen != f.Generation() {
		return nil
	}
	return sl.node
}

// FrameParent implements vecmath.Tree.
func (s *System) FrameParent(f vecmath.Frame) (vecmath.Frame, bool) {
	n := s.lookup(f)
	if n == nil {
		return vecmath.Frame{}, false
	}
	s.mu.RLock()
	p := n.parent
	s.mu.RUnlock()
	if p == nil {
		return vecmath.Frame{}, false
	}
	return p.frame(), true
}

// FrameTransform implements vecmath.Tree.
func (s *System) FrameTransform(f vecmath.Frame) (vecmath.Transform, bool) {
	n := s.lookup(f)
	if n == nil {
		return vecmath.IdentityTransform(), false
	}
	if n == s.root {
		return vecmath.IdentityTransform(), true
	}
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.state.Transform(), true
}

// FrameAlive implements vecmath.Tree.
func (s *System) FrameAlive(f vecmath.Frame) bool { return s.lookup(f) != nil }

// ObjectByFrame resolves a frame handle, failing once the object is finalized.
func (s *System) ObjectByFrame(f vecmath.Frame) (*Object, error) {
	n := s.lookup(f)
	if n == nil {
		return nil, errcode.InvalidObject
	}
	return &Object{n: n}, nil
}

// Root returns the root inertial frame.
func (s *System) Root() *Object { return &Object{n: s.root} }

// RootFrame is shorthand for Root().Frame().
func (s *System) RootFrame() vecmath.Frame { return s.root.frame() }

// SetTime sets global time as an MJD, or vecmath.Realtime.
func (s *System) SetTime(mjd float64) {
	s.time.Store(math.Float64bits(mjd))
}

// Time returns global time as an MJD. In realtime mode it follows the clock.
func (s *System) Time() float64 {
	t := math.Float64frombits(s.time.Load())
	if t == vecmath.Realtime {
		return vecmath.UnixEpochMJD + float64(s.clock().UnixNano())/1e9/vecmath.SecondsPerDay
	}
	return t
}

func (s *System) IsRealtime() bool {
	return math.Float64frombits(s.time.Load()) == vecmath.Realtime
}

// Advance moves global time forward by dt seconds unless running in realtime.
func (s *System) Advance(dt float64) {
	for {
		old := s.time.Load()
		t := math.Float64frombits(old)
		if t == vecmath.Realtime {
			return
		}
		if s.time.CompareAndSwap(old, math.Float64bits(t+dt/vecmath.SecondsPerDay)) {
			return
		}
	}
}

func (s *System) Userdata() any { return s.userdata.Load() }

func (s *System) SetUserdata(d any) { s.userdata.Store(d) }

// SetGlobalCallbacks replaces the global callback set.
func (s *System) SetGlobalCallbacks(cb GlobalCallbacks) {
	s.mu.Lock()
	s.callbacks = cb
	s.mu.Unlock()
}

func (s *System) globals() GlobalCallbacks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callbacks
}

// Register appends a solver and runs its OnStartup. A failing startup leaves
// the solver unregistered.
func (s *System) Register(solver Solver) error {
	if solver == nil {
		return errcode.BadParameter
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errcode.BadState
	}
	s.solvers = append(s.solvers, solver)
	s.mu.Unlock()

	if st, ok := solver.(Starter); ok {
		if err := st.OnStartup(s); err != nil {
			s.mu.Lock()
			for i, x := range s.solvers {
				if x == solver {
					s.solvers = append(s.solvers[:i], s.solvers[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
			return err
		}
	}
	s.log.Debug("solver registered", "solver", solver.Name())
	return nil
}

// Solvers returns the registry in registration order.
func (s *System) Solvers() []Solver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Solver(nil), s.solvers...)
}

// Close destroys every object, sweeps them and shuts solvers down in reverse
// registration order. All goroutines using the System must have stopped.
func (s *System) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	children := append([]*node(nil), s.root.children...)
	solvers := append([]Solver(nil), s.solvers...)
	s.mu.Unlock()

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	for _, c := range children {
		keep((&Object{n: c, token: c.owner.Load()}).Destroy())
	}
	keep(s.CleanupObjects())
	for i := len(solvers) - 1; i >= 0; i-- {
		if st, ok := solvers[i].(Stopper); ok {
			keep(st.OnShutdown(s))
		}
	}
	return first
}

func (s *System) newToken() uint64 { return s.tokens.Add(1) }
