package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Files keeps one directory per run holding metadata.json and samples.csv.
type Files struct {
	baseDir string
}

func NewFiles(baseDir string) *Files {
	return &Files{baseDir: baseDir}
}

func (s *Files) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Files) Close() error { return nil }

var sampleHeader = []string{"track", "time", "x", "y", "z", "vx", "vy", "vz"}

func (s *Files) Save(run *Run, samples []Sample) (string, error) {
	if run.ID == "" {
		run.ID = NewID()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(sampleHeader); err != nil {
		return "", err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, smp := range samples {
		row := []string{
			smp.Track, format(smp.Time),
			format(smp.Position[0]), format(smp.Position[1]), format(smp.Position[2]),
			format(smp.Velocity[0]), format(smp.Velocity[1]), format(smp.Velocity[2]),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return run.ID, w.Error()
}

func (s *Files) List() ([]Run, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Run{}, nil
		}
		return nil, err
	}

	runs := make([]Run, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *Files) Load(id string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &run, nil
}

func (s *Files) Samples(id string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "samples.csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [7]float64
		for j := range vals {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d: %w", id, i+2, err)
			}
			vals[j] = v
		}
		samples = append(samples, Sample{
			Track:    record[0],
			Time:     vals[0],
			Position: [3]float64{vals[1], vals[2], vals[3]},
			Velocity: [3]float64{vals[4], vals[5], vals[6]},
		})
	}
	return samples, nil
}
