package metrics

import (
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/vecmath"
)

// tracked resolves a reference lazily and caches the handle.
type tracked struct {
	ref string
	obj *sim.Object
}

func (tr *tracked) state(sys *sim.System) (vecmath.StateVector, bool) {
	if tr.obj == nil || tr.obj.IsDestroyed() {
		obj, v, err := sys.QueryByReference(nil, tr.ref)
		if err != nil || v != nil {
			return vecmath.StateVector{}, false
		}
		tr.obj = obj
	}
	st, err := tr.obj.State()
	if err != nil {
		return vecmath.StateVector{}, false
	}
	return st.Convert(sys.RootFrame()), true
}

func (tr *tracked) reset() { tr.obj = nil }
