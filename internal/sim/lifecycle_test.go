package sim

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/vessim/internal/errcode"
)

var _ = Describe("Claim protocol", func() {
	var sys *System

	BeforeEach(func() {
		sys = newTestSystem()
	})

	AfterEach(func() {
		Expect(sys.Close()).To(Succeed())
	})

	It("gives the object to the first registered solver that claims it", func() {
		first := &recorder{name: "first", typ: "widget"}
		second := &recorder{name: "second", typ: "widget"}
		Expect(sys.Register(first)).To(Succeed())
		Expect(sys.Register(second)).To(Succeed())

		obj := mustCreate(sys, nil, "widget", "w")
		Expect(obj.Initialize(true)).To(Succeed())

		s, err := obj.Solver()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("first"))
		c, _, _ := second.count()
		Expect(c).To(BeZero())
	})

	It("initializes unclaimed objects as generic frames", func() {
		Expect(sys.Register(&recorder{name: "r", typ: "widget"})).To(Succeed())
		obj := mustCreate(sys, nil, "frame", "f")
		Expect(obj.Initialize(true)).To(Succeed())

		s, err := obj.Solver()
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeNil())
		Expect(obj.IsInitialized()).To(BeTrue())
	})

	It("lets the global hook claim before any solver", func() {
		r := &recorder{name: "r", typ: "*"}
		Expect(sys.Register(r)).To(Succeed())
		var post int
		sys.SetGlobalCallbacks(GlobalCallbacks{
			OnInitialize: func(*System, *Object) (Claim, error) { return Claimed, nil },
			OnPostInitialize: func(_ *System, obj *Object) error {
				Expect(obj.Lifecycle()).To(Equal(Initializing))
				post++
				return nil
			},
		})
		obj := mustCreate(sys, nil, "x", "x")
		Expect(obj.Initialize(true)).To(Succeed())
		c, _, _ := r.count()
		Expect(c).To(BeZero())
		Expect(post).To(Equal(1))
	})

	It("reverts to Created when a solver fails and allows a retry", func() {
		boom := errors.New("boom")
		r := &recorder{name: "r", typ: "widget", err: boom}
		Expect(sys.Register(r)).To(Succeed())

		obj := mustCreate(sys, nil, "widget", "w")
		Expect(obj.Initialize(true)).To(MatchError(boom))
		Expect(obj.Lifecycle()).To(Equal(Created))

		r.err = nil
		Expect(obj.Initialize(true)).To(Succeed())
		Expect(obj.IsInitialized()).To(BeTrue())
	})

	It("initializes children created through the owning handle", func() {
		parent := mustCreate(sys, nil, "frame", "p")
		child := mustCreate(sys, parent, "frame", "c")
		grandchild := mustCreate(sys, child, "frame", "g")

		Expect(parent.Initialize(true)).To(Succeed())
		Expect(child.IsInitialized()).To(BeTrue())
		Expect(grandchild.IsInitialized()).To(BeTrue())

		children, err := parent.Children()
		Expect(err).NotTo(HaveOccurred())
		Expect(children).To(HaveLen(1))
		Expect(children[0].Same(child)).To(BeTrue())
	})

	It("removes a solver whose startup fails", func() {
		Expect(sys.Register(failingStarter{})).To(MatchError(errcode.BadState))
		Expect(sys.Solvers()).To(BeEmpty())
	})
})

type failingStarter struct{}

func (failingStarter) Name() string            { return "failing" }
func (failingStarter) OnStartup(*System) error { return errcode.BadState }

var _ = Describe("Initialization ownership", func() {
	var sys *System

	BeforeEach(func() {
		sys = newTestSystem()
	})

	AfterEach(func() {
		Expect(sys.Close()).To(Succeed())
	})

	It("hides uninitialized objects from other handles", func() {
		obj := mustCreate(sys, nil, "frame", "secret")

		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)
			other, err := sys.ObjectByFrame(obj.Frame())
			Expect(err).NotTo(HaveOccurred())

			_, err = other.Name()
			Expect(err).To(MatchError(errcode.NotInitialized))
			Expect(other.SetName("x")).To(MatchError(errcode.InterthreadCall))
			Expect(other.Initialize(true)).To(MatchError(errcode.InterthreadCall))
			Expect(other.Destroy()).To(MatchError(errcode.InterthreadCall))
		}()
		Eventually(done).Should(BeClosed())

		name, err := obj.Name()
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("secret"))
	})

	It("moves ownership with TransferInitialization", func() {
		obj := mustCreate(sys, nil, "frame", "a")
		child := mustCreate(sys, obj, "frame", "b")

		next, err := obj.TransferInitialization()
		Expect(err).NotTo(HaveOccurred())
		Expect(obj.Owns()).To(BeFalse())
		Expect(child.Owns()).To(BeFalse())
		Expect(obj.Initialize(true)).To(MatchError(errcode.InterthreadCall))

		Expect(next.Initialize(true)).To(Succeed())
		Expect(child.IsInitialized()).To(BeTrue())
	})

	It("opens the object to everyone once initialized", func() {
		obj := mustCreate(sys, nil, "frame", "open")
		Expect(obj.Initialize(true)).To(Succeed())
		other, err := sys.ObjectByFrame(obj.Frame())
		Expect(err).NotTo(HaveOccurred())
		Expect(other.SetName("renamed")).To(Succeed())
		name, _ := obj.Name()
		Expect(name).To(Equal("renamed"))
	})

	It("initializes in the background when not blocking", func() {
		gate := make(chan struct{})
		r := &recorder{name: "slow", typ: "widget", block: gate}
		Expect(sys.Register(r)).To(Succeed())

		obj := mustCreate(sys, nil, "widget", "bg")
		Expect(obj.Initialize(false)).To(Succeed())
		Expect(obj.Owns()).To(BeFalse())
		Expect(obj.Destroy()).To(MatchError(errcode.BadState))

		close(gate)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(obj.WaitInitialized(ctx)).To(Succeed())
		Expect(obj.IsInitialized()).To(BeTrue())
	})

	It("lists initializing children only through AllChildren", func() {
		parent := mustCreate(sys, nil, "frame", "parent")
		Expect(parent.Initialize(true)).To(Succeed())
		gate := make(chan struct{})
		Expect(sys.Register(&recorder{name: "slow", typ: "widget", block: gate})).To(Succeed())

		child := mustCreate(sys, parent, "widget", "child")
		Expect(child.Initialize(false)).To(Succeed())
		Eventually(child.Lifecycle).Should(Equal(Initializing))

		all, err := parent.AllChildren()
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		ready, err := parent.Children()
		Expect(err).NotTo(HaveOccurred())
		Expect(ready).To(BeEmpty())
		other, err := sys.ObjectByFrame(child.Frame())
		Expect(err).NotTo(HaveOccurred())
		_, err = other.Type()
		Expect(err).To(MatchError(errcode.NotInitialized))

		close(gate)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(child.WaitInitialized(ctx)).To(Succeed())
		ready, _ = parent.Children()
		Expect(ready).To(HaveLen(1))
	})

	It("stops waiting when the context ends", func() {
		obj := mustCreate(sys, nil, "frame", "never")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		Expect(obj.WaitInitialized(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})

var _ = Describe("Destruction", func() {
	var (
		sys *System
		r   *recorder
	)

	BeforeEach(func() {
		sys = newTestSystem()
		r = &recorder{name: "r", typ: "*"}
		Expect(sys.Register(r)).To(Succeed())
	})

	AfterEach(func() {
		Expect(sys.Close()).To(Succeed())
	})

	It("tombstones until cleanup", func() {
		obj := mustCreate(sys, nil, "frame", "doomed")
		Expect(obj.Initialize(true)).To(Succeed())
		f := obj.Frame()

		Expect(obj.Destroy()).To(Succeed())
		Expect(obj.IsDestroyed()).To(BeTrue())
		Expect(f.Alive()).To(BeTrue())
		name, err := obj.Name()
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("doomed"))
		Expect(sys.ObjectsByType("frame")).To(BeEmpty())

		Expect(sys.CleanupObjects()).To(Succeed())
		Expect(f.Alive()).To(BeFalse())
		Expect(obj.IsDestroyed()).To(BeTrue())
		_, err = obj.Name()
		Expect(err).To(MatchError(errcode.InvalidObject))
		_, _, final := r.count()
		Expect(final).To(Equal(1))
	})

	It("deinitializes children before their parent", func() {
		parent := mustCreate(sys, nil, "frame", "parent")
		mustCreate(sys, parent, "frame", "child")
		Expect(parent.Initialize(true)).To(Succeed())

		var global []string
		sys.SetGlobalCallbacks(GlobalCallbacks{
			OnDeinitialize: func(_ *System, obj *Object) error {
				n, _ := obj.Name()
				global = append(global, n)
				return nil
			},
		})
		Expect(parent.Destroy()).To(Succeed())
		Expect(r.deinit).To(Equal([]string{"child", "parent"}))
		Expect(global).To(Equal([]string{"child", "parent"}))
	})

	It("runs deinitialize hooks while the object is still initialized", func() {
		td := &teardown{}
		sys2 := newTestSystem()
		defer sys2.Close()
		Expect(sys2.Register(td)).To(Succeed())
		var global Lifecycle
		sys2.SetGlobalCallbacks(GlobalCallbacks{
			OnDeinitialize: func(_ *System, obj *Object) error {
				global = obj.Lifecycle()
				return nil
			},
		})

		obj := mustCreate(sys2, nil, "engine", "e")
		Expect(obj.Initialize(true)).To(Succeed())
		Expect(obj.Destroy()).To(Succeed())
		Expect(td.life).To(Equal(Initialized))
		Expect(td.err).NotTo(HaveOccurred())
		Expect(global).To(Equal(Initialized))
		Expect(obj.Lifecycle()).To(Equal(MarkedForDestruction))
		Expect(obj.Destroy()).To(Succeed())
	})

	It("keeps pinned objects and their ancestors resolvable", func() {
		parent := mustCreate(sys, nil, "frame", "parent")
		child := mustCreate(sys, parent, "frame", "child")
		Expect(parent.Initialize(true)).To(Succeed())

		Expect(child.Store()).To(Succeed())
		Expect(parent.Destroy()).To(Succeed())
		Expect(sys.CleanupObjects()).To(Succeed())
		Expect(child.Frame().Alive()).To(BeTrue())
		Expect(parent.Frame().Alive()).To(BeTrue())

		Expect(child.Release()).To(Succeed())
		Expect(sys.CleanupObjects()).To(Succeed())
		Expect(child.Frame().Alive()).To(BeFalse())
		Expect(parent.Frame().Alive()).To(BeFalse())
		Expect(child.Release()).To(MatchError(errcode.BadState))
	})

	It("reuses slots without reviving stale frames", func() {
		a := mustCreate(sys, nil, "frame", "a")
		Expect(a.Initialize(true)).To(Succeed())
		old := a.Frame()
		Expect(a.Destroy()).To(Succeed())
		Expect(sys.CleanupObjects()).To(Succeed())

		b := mustCreate(sys, nil, "frame", "b")
		Expect(b.Frame().Index()).To(Equal(old.Index()))
		Expect(b.Frame()).NotTo(Equal(old))
		Expect(old.Alive()).To(BeFalse())
		_, err := sys.ObjectByFrame(old)
		Expect(err).To(MatchError(errcode.InvalidObject))
	})

	It("refuses to destroy the root", func() {
		Expect(sys.Root().Destroy()).To(MatchError(errcode.BadParameter))
	})
})
