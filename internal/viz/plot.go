package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/vessim/internal/storage"
)

// Components lists what Series can extract from a sample.
var Components = []string{"r", "x", "y", "z", "speed", "vx", "vy", "vz"}

// Series extracts one component of every sample: "r" is the distance from
// the root origin, "speed" the velocity magnitude.
func Series(samples []storage.Sample, component string) ([]float64, error) {
	var pick func(storage.Sample) float64
	switch component {
	case "r":
		pick = func(s storage.Sample) float64 { return length(s.Position) }
	case "speed":
		pick = func(s storage.Sample) float64 { return length(s.Velocity) }
	case "x", "y", "z":
		i := int(component[0] - 'x')
		pick = func(s storage.Sample) float64 { return s.Position[i] }
	case "vx", "vy", "vz":
		i := int(component[1] - 'x')
		pick = func(s storage.Sample) float64 { return s.Velocity[i] }
	default:
		return nil, fmt.Errorf("unknown component %q (want one of %v)", component, Components)
	}

	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out, nil
}

func length(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Plot draws one component of a track as an ASCII line chart.
func Plot(samples []storage.Sample, component string, width, height int) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}
	data, err := Series(samples, component)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s of %s over %.0fs", component, samples[0].Track, samples[len(samples)-1].Time-samples[0].Time)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
