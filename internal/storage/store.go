// Package storage keeps finished runs: their settings, final metrics and the
// sampled trajectories of tracked objects.
package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/vessim/internal/sim"
)

var ErrRunNotFound = errors.New("run not found")

type Run struct {
	ID         string             `json:"id"`
	Scene      string             `json:"scene"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	StartMJD   float64            `json:"start_mjd"`
	Steps      int                `json:"steps"`
	Timestamp  time.Time          `json:"timestamp"`
	Tracks     []string           `json:"tracks"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Sample is a tracked object at one instant, in the root frame. Time counts
// seconds from the start of the run.
type Sample struct {
	Track    string     `json:"track"`
	Time     float64    `json:"t"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

type Store interface {
	Init() error
	// Save assigns an id when run.ID is empty and returns it.
	Save(run *Run, samples []Sample) (string, error)
	// List returns runs oldest first.
	List() ([]Run, error)
	Load(id string) (*Run, error)
	Samples(id string) ([]Sample, error)
	Close() error
}

// Open returns an initialized store of the named backend rooted at path.
func Open(backend, path string) (Store, error) {
	var s Store
	switch backend {
	case "files":
		s = NewFiles(path)
	case "sqlite":
		s = NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewID returns a time-ordered run id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// SamplesFromResult flattens a simulator result, ordered by track then time.
func SamplesFromResult(res *sim.Result) []Sample {
	tracks := make([]string, 0, len(res.States))
	for ref := range res.States {
		tracks = append(tracks, ref)
	}
	sort.Strings(tracks)

	var out []Sample
	for _, ref := range tracks {
		for i, st := range res.States[ref] {
			if i >= len(res.Times) {
				break
			}
			out = append(out, Sample{
				Track:    ref,
				Time:     res.Times[i],
				Position: [3]float64{st.Position.X, st.Position.Y, st.Position.Z},
				Velocity: [3]float64{st.Velocity.X, st.Velocity.Y, st.Velocity.Z},
			})
		}
	}
	return out
}

// Track returns the samples of one track.
func Track(samples []Sample, ref string) []Sample {
	var out []Sample
	for _, s := range samples {
		if s.Track == ref {
			out = append(out, s)
		}
	}
	return out
}

func sortRuns(runs []Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
}
