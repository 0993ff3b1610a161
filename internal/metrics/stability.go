package metrics

import (
	"github.com/san-kum/vessim/internal/sim"
)

// Stability is the fraction of observations in which an object stayed within
// radius of the root origin with a finite state.
type Stability struct {
	tracked
	radius     float64
	violations int
	samples    int
}

func NewStability(ref string, radius float64) *Stability {
	return &Stability{tracked: tracked{ref: ref}, radius: radius}
}

func (s *Stability) Name() string { return "stability:" + s.ref }

func (s *Stability) Observe(sys *sim.System, t float64) {
	st, ok := s.state(sys)
	if !ok {
		return
	}
	s.samples++
	if !st.IsValid() || st.Position.Length() > s.radius {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.tracked.reset()
	s.violations = 0
	s.samples = 0
}
