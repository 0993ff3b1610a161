package metrics

import (
	"github.com/san-kum/vessim/internal/sim"
)

// DeltaV is the velocity change a thruster has spent, as of the last
// observation.
type DeltaV struct {
	tracked
	spent float64
}

func NewDeltaV(ref string) *DeltaV {
	return &DeltaV{tracked: tracked{ref: ref}}
}

func (d *DeltaV) Name() string { return "delta_v:" + d.ref }

func (d *DeltaV) Observe(sys *sim.System, t float64) {
	if _, ok := d.state(sys); !ok {
		return
	}
	if dv, err := d.obj.RealVariable("delta_v"); err == nil {
		d.spent = dv
	}
}

func (d *DeltaV) Value() float64 { return d.spent }

func (d *DeltaV) Reset() {
	d.tracked.reset()
	d.spent = 0
}
