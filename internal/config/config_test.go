package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Preset != "leo" {
		t.Errorf("expected preset leo, got %s", cfg.Preset)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("binary")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Dt != 60 {
		t.Errorf("expected dt 60, got %f", cfg.Dt)
	}
	if len(cfg.Track) != 2 {
		t.Errorf("expected 2 tracks, got %v", cfg.Track)
	}

	cfg.Track[0] = "changed"
	if Presets["binary"].Track[0] == "changed" {
		t.Error("preset shares its track slice")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	got := strings.Join(ListPresets(), ",")
	if got != "binary,hold,j2,leo,tank" {
		t.Errorf("presets = %s", got)
	}
}

func TestPresetScenes(t *testing.T) {
	for _, name := range ListPresets() {
		data, err := PresetScene(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(string(data), "objects:") {
			t.Errorf("%s: scene has no objects", name)
		}
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := PresetScene("nope"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no scene", func(c *Config) { c.Preset = "" }, "either scene or preset"},
		{"both", func(c *Config) { c.Scene = "x.yaml" }, "mutually exclusive"},
		{"unknown preset", func(c *Config) { c.Preset = "mars" }, "unknown preset"},
		{"integrator", func(c *Config) { c.Integrator = "rk45" }, "unknown integrator"},
		{"dt", func(c *Config) { c.Dt = 0 }, "dt must be positive"},
		{"duration", func(c *Config) { c.Duration = -1 }, "duration must be positive"},
		{"start", func(c *Config) { c.StartMJD = -2 }, "start_mjd"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want %q", err, tt.want)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.StartMJD = -1
	if err := cfg.Validate(); err != nil {
		t.Errorf("realtime start rejected: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("j2")
	cfg.Storage.Backend = "sqlite"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Preset != "j2" || got.Storage.Backend != "sqlite" || got.Dt != 10 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestLoadSceneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	scene := filepath.Join(dir, "scene.yaml")
	os.WriteFile(scene, []byte("objects: []\n"), 0644)
	os.WriteFile(path, []byte("scene: "+scene+"\ndt: 1\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Preset != "" {
		t.Errorf("scene file kept default preset %q", cfg.Preset)
	}
	if cfg.Duration != DefaultDuration {
		t.Errorf("duration = %g, want default", cfg.Duration)
	}
	label, data, err := cfg.SceneSource()
	if err != nil || label != scene || string(data) != "objects: []\n" {
		t.Errorf("SceneSource() = %q, %q, %v", label, data, err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error")
	}
}
