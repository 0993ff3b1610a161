package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vessim/internal/logging"
)

const (
	DefaultDt         = 10.0
	DefaultDuration   = 5400.0
	DefaultIntegrator = "rk4"
	DefaultStorePath  = ".vessim/runs"
)

var (
	Integrators     = []string{"euler", "heun", "rk4"}
	StorageBackends = []string{"files", "sqlite"}
)

// Config describes one run: which scene to load, how to step it and where
// to keep the result. Exactly one of Scene and Preset is set.
type Config struct {
	Scene      string  `yaml:"scene,omitempty" mapstructure:"scene"`
	Preset     string  `yaml:"preset,omitempty" mapstructure:"preset"`
	Integrator string  `yaml:"integrator" mapstructure:"integrator"`
	Dt         float64 `yaml:"dt" mapstructure:"dt"`
	Duration   float64 `yaml:"duration" mapstructure:"duration"`
	// StartMJD is the initial system time; -1 runs against the wall clock.
	StartMJD float64       `yaml:"start_mjd" mapstructure:"start_mjd"`
	Track    []string      `yaml:"track,omitempty" mapstructure:"track"`
	Parallel bool          `yaml:"parallel,omitempty" mapstructure:"parallel"`
	Log      LogConfig     `yaml:"log" mapstructure:"log"`
	Storage  StorageConfig `yaml:"storage" mapstructure:"storage"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset:     "leo",
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Track:      []string{"main/sat"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Backend: "files",
			Path:    DefaultStorePath,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// a file naming its own scene does not inherit the default preset
	if cfg.Scene != "" && !presetIn(data) {
		cfg.Preset = ""
	}
	return cfg, nil
}

func presetIn(data []byte) bool {
	var probe struct {
		Preset *string `yaml:"preset"`
	}
	return yaml.Unmarshal(data, &probe) == nil && probe.Preset != nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	switch {
	case c.Scene == "" && c.Preset == "":
		errs = append(errs, errors.New("either scene or preset must be set"))
	case c.Scene != "" && c.Preset != "":
		errs = append(errs, errors.New("scene and preset are mutually exclusive"))
	case c.Preset != "" && GetPreset(c.Preset) == nil:
		errs = append(errs, fmt.Errorf("unknown preset %q", c.Preset))
	}
	if !slices.Contains(Integrators, c.Integrator) {
		errs = append(errs, fmt.Errorf("unknown integrator %q (want one of %v)", c.Integrator, Integrators))
	}
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if c.StartMJD < 0 && c.StartMJD != -1 {
		errs = append(errs, fmt.Errorf("start_mjd must be non-negative or -1, got %g", c.StartMJD))
	}
	if !logging.KnownLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if !slices.Contains(StorageBackends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("unknown storage backend %q (want one of %v)", c.Storage.Backend, StorageBackends))
	}
	return errors.Join(errs...)
}

// SceneSource returns a label for the scene and its description.
func (c *Config) SceneSource() (string, []byte, error) {
	if c.Scene != "" {
		data, err := os.ReadFile(c.Scene)
		return c.Scene, data, err
	}
	data, err := PresetScene(c.Preset)
	return "preset:" + c.Preset, data, err
}
