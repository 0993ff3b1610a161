package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run     *Run     `json:"run"`
	Samples []Sample `json:"samples"`
}

// ExportJSON writes a run and its samples as indented JSON.
func ExportJSON(w io.Writer, run *Run, samples []Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: run, Samples: samples})
}
