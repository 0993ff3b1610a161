package analysis

import (
	"math"

	"github.com/san-kum/vessim/internal/storage"
)

// Summary describes one recorded trajectory. Distances are from the root
// origin.
type Summary struct {
	Track     string
	Samples   int
	Span      float64
	MinRadius float64
	MaxRadius float64
	// Eccentricity is estimated from the radius extremes and is only
	// meaningful over a full orbit.
	Eccentricity float64
	MaxSpeed     float64
	// Period is the spectral estimate from the x coordinate; 0 when the
	// record shows no oscillation.
	Period float64
	// CrossingPeriod is the mean spacing of upward y=0 crossings; 0 with
	// fewer than two crossings.
	CrossingPeriod float64
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Summarize expects the samples of a single track in time order.
func Summarize(samples []storage.Sample) Summary {
	var s Summary
	if len(samples) == 0 {
		return s
	}
	s.Track = samples[0].Track
	s.Samples = len(samples)
	s.Span = samples[len(samples)-1].Time - samples[0].Time
	s.MinRadius = math.Inf(1)

	xs := make([]float64, len(samples))
	for i, smp := range samples {
		r := norm(smp.Position)
		s.MinRadius = math.Min(s.MinRadius, r)
		s.MaxRadius = math.Max(s.MaxRadius, r)
		s.MaxSpeed = math.Max(s.MaxSpeed, norm(smp.Velocity))
		xs[i] = smp.Position[0]
	}
	if sum := s.MaxRadius + s.MinRadius; sum > 0 {
		s.Eccentricity = (s.MaxRadius - s.MinRadius) / sum
	}

	if len(samples) > 1 {
		dt := s.Span / float64(len(samples)-1)
		if p, err := DominantPeriod(xs, dt); err == nil {
			s.Period = p
		}
	}
	if ts := Crossings(samples, 1, 0); len(ts) > 1 {
		s.CrossingPeriod = (ts[len(ts)-1] - ts[0]) / float64(len(ts)-1)
	}
	return s
}
