// Package analysis summarizes recorded trajectories.
//
// The package works on stored samples (root-frame positions and velocities
// of one tracked object over time):
//
//   - [Summarize]: radius range, eccentricity estimate, peak speed and period
//   - [DominantPeriod]: period of the strongest oscillation, via [FFT]
//   - [Crossings]: times a coordinate crosses a threshold going up, the
//     section-plane view of an orbit
//   - [Project]: 2D projection of a trajectory, drawn by [ProjectionToASCII]
//
// # Periods
//
// Two period estimates are reported. The spectral one needs no particular
// geometry but is limited by the frequency resolution of the record; the
// crossing one is exact for planar orbits that cross the section at least
// twice:
//
//	s := analysis.Summarize(storage.Track(samples, "main/sat"))
//	fmt.Println(s.Period, s.CrossingPeriod)
package analysis
