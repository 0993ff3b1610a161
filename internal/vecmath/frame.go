package vecmath

// Transform describes a frame relative to its parent, all in parent coordinates.
type Transform struct {
	Position            Vec3
	Velocity            Vec3
	Acceleration        Vec3
	Orientation         [4]float64
	AngularVelocity     Vec3
	AngularAcceleration Vec3
}

// IdentityTransform places a frame on top of its parent.
func IdentityTransform() Transform { return Transform{Orientation: identityQ} }

// Tree resolves frames. The object graph implements it.
type Tree interface {
	// FrameParent returns the parent frame, or false at the root.
	FrameParent(f Frame) (Frame, bool)
	// FrameTransform returns the placement of f inside its parent.
	FrameTransform(f Frame) (Transform, bool)
	// FrameAlive reports whether the object behind f has not been finalized.
	FrameAlive(f Frame) bool
}

// Frame is a weak handle identifying a coordinate system. The zero Frame is
// "no frame". Frames are comparable.
type Frame struct {
	tree  Tree
	index uint32
	gen   uint32
}

// NewFrame builds a handle; only Tree implementations should call it.
func NewFrame(t Tree, index, gen uint32) Frame {
	return Frame{tree: t, index: index, gen: gen}
}

func (f Frame) IsZero() bool { return f.tree == nil }

func (f Frame) Tree() Tree { return f.tree }

func (f Frame) Index() uint32 { return f.index }

func (f Frame) Generation() uint32 { return f.gen }

// Alive is a cheap liveness check that never touches reclaimed objects.
func (f Frame) Alive() bool { return f.tree != nil && f.tree.FrameAlive(f) }

func (f Frame) Parent() (Frame, bool) {
	if f.tree == nil {
		return Frame{}, false
	}
	return f.tree.FrameParent(f)
}

// IsAncestorOf reports whether f lies on g's parent chain (g itself excluded).
func (f Frame) IsAncestorOf(g Frame) bool {
	if f.IsZero() {
		return false
	}
	for i, cur := 0, g; i < maxDepth; i++ {
		p, ok := cur.Parent()
		if !ok {
			return false
		}
		if p == f {
			return true
		}
		cur = p
	}
	return false
}

func (f Frame) transform() Transform {
	if f.tree == nil {
		return IdentityTransform()
	}
	t, ok := f.tree.FrameTransform(f)
	assertf(ok, "frame %d/%d has no transform", f.index, f.gen)
	if !ok {
		return IdentityTransform()
	}
	return t
}

const maxDepth = 1 << 12

// chain lists f and its ancestors up to the root.
func (f Frame) chain() []Frame {
	if f.IsZero() {
		return nil
	}
	out := []Frame{f}
	for cur := f; len(out) < maxDepth; {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out
}

// route returns the hops from src up to the common ancestor and from there
// down to dst. down is ordered from the common ancestor's child to dst.
func route(src, dst Frame) (up, down []Frame, ok bool) {
	a, b := src.chain(), dst.chain()
	at := make(map[Frame]int, len(b))
	for i, f := range b {
		at[f] = i
	}
	for i, f := range a {
		if j, found := at[f]; found {
			up = a[:i]
			down = make([]Frame, 0, j)
			for k := j - 1; k >= 0; k-- {
				down = append(down, b[k])
			}
			return up, down, true
		}
	}
	return nil, nil, false
}
