package config

import (
	"embed"
	"fmt"
	"maps"
	"slices"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Presets holds the run settings that go with each embedded scene.
var Presets = map[string]*Config{
	"leo": {
		Integrator: "rk4", Dt: 10, Duration: 5554,
		Track: []string{"main/sat"},
	},
	"binary": {
		Integrator: "rk4", Dt: 60, Duration: 86400,
		Track: []string{"main/moon", "main/probe"},
	},
	"hold": {
		Integrator: "rk4", Dt: 5, Duration: 3000,
		Track: []string{"main/sat", "main/sat/engine"},
	},
	"j2": {
		Integrator: "rk4", Dt: 10, Duration: 6000,
		Track: []string{"main/polar"},
	},
	"tank": {
		Integrator: "euler", Dt: 1, Duration: 1200,
		Track: []string{"tank"},
	},
}

// GetPreset returns a full configuration for a preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = name
	cfg.Integrator = p.Integrator
	cfg.Dt = p.Dt
	cfg.Duration = p.Duration
	cfg.Track = slices.Clone(p.Track)
	return cfg
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}

func PresetScene(name string) ([]byte, error) {
	if _, ok := Presets[name]; !ok {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return presetFS.ReadFile("presets/" + name + ".yaml")
}
