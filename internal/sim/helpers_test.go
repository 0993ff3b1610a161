package sim

import (
	"sync"

	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/vecmath"
)

// recorder claims objects of one type and counts callbacks.
type recorder struct {
	name  string
	typ   string
	err   error
	block chan struct{}

	mu       sync.Mutex
	claimed  []string
	solved   int
	deinit   []string
	final    int
	shutdown *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnInitialize(_ *System, obj *Object) (Claim, error) {
	if r.block != nil {
		<-r.block
	}
	if obj.CheckType(r.typ) != nil {
		return Ignore, nil
	}
	if r.err != nil {
		return Ignore, r.err
	}
	name, _ := obj.Name()
	r.mu.Lock()
	r.claimed = append(r.claimed, name)
	r.mu.Unlock()
	return Claimed, nil
}

func (r *recorder) OnSolve(_ *System, _ *Object, _ float64) error {
	r.mu.Lock()
	r.solved++
	r.mu.Unlock()
	return nil
}

func (r *recorder) OnDeinitialize(_ *System, obj *Object) error {
	name, _ := obj.Name()
	r.mu.Lock()
	r.deinit = append(r.deinit, name)
	r.mu.Unlock()
	return nil
}

func (r *recorder) OnFinalize(*System, *Object) error {
	r.mu.Lock()
	r.final++
	r.mu.Unlock()
	return nil
}

func (r *recorder) OnShutdown(*System) error {
	if r.shutdown != nil {
		*r.shutdown = append(*r.shutdown, r.name)
	}
	return nil
}

func (r *recorder) count() (claimed, solved, final int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claimed), r.solved, r.final
}

// mover integrates constant velocity by writing the state directly.
type mover struct{}

func (mover) Name() string { return "mover" }

func (mover) OnInitialize(_ *System, obj *Object) (Claim, error) {
	if obj.CheckType("mover") != nil {
		return Ignore, nil
	}
	return Claimed, nil
}

func (mover) OnSolve(_ *System, obj *Object, dt float64) error {
	st, err := obj.State()
	if err != nil {
		return err
	}
	d := vecmath.NewDerivative(st.Frame())
	d.Velocity = st.Velocity
	return obj.AdvanceState(st.Advance(d, dt))
}

func newTestSystem() *System {
	return New(WithLogger(logging.Discard()))
}

func mustCreate(sys *System, parent *Object, typ, name string) *Object {
	o, err := sys.CreateNamed(parent, typ, name)
	if err != nil {
		panic(err)
	}
	return o
}

// teardown claims "engine" objects and records what it can still do with
// them while they are being deinitialized.
type teardown struct {
	life Lifecycle
	err  error
}

func (*teardown) Name() string { return "teardown" }

func (*teardown) OnInitialize(_ *System, obj *Object) (Claim, error) {
	if obj.CheckType("engine") != nil {
		return Ignore, nil
	}
	return Claimed, nil
}

func (t *teardown) OnDeinitialize(_ *System, obj *Object) error {
	t.life = obj.Lifecycle()
	_, t.err = obj.AddRealVariable("spent", 1)
	return nil
}
