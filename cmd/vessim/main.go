package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/storage"
	"github.com/san-kum/vessim/internal/viz"
)

var (
	configFile string
	dataDir    string
	backend    string
	logLevel   string
	logFormat  string
	theme      string
	// run settings
	preset     string
	scene      string
	integrator string
	dt         float64
	duration   float64
	startMJD   float64
	track      []string
	parallel   bool
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"preset":     "preset",
	"scene":      "scene",
	"integrator": "integrator",
	"dt":         "dt",
	"duration":   "duration",
	"start-mjd":  "start_mjd",
	"track":      "track",
	"parallel":   "parallel",
	"log-level":  "log.level",
	"log-format": "log.format",
	"store":      "storage.backend",
	"data":       "storage.path",
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "vessim",
		Short:         "vehicle dynamics simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addPersistentFlags(rootCmd)
	rootCmd.AddCommand(
		runCommand(),
		scenarioCommand(),
		sweepCommand(),
		searchCommand(),
		convergeCommand(),
		watchCommand(),
		listCommand(),
		showCommand(),
		plotCommand(),
		exportCommand(),
		inspectCommand(),
		presetsCommand(),
		solversCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addPersistentFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "run configuration file (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultStorePath, "run store location")
	pf.StringVar(&backend, "store", "files", "run store backend (files|sqlite)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text|json)")
	pf.StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), "|")+")")
}

// addRunFlags registers the flags that select and step a scene.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "built-in scene ("+strings.Join(config.ListPresets(), "|")+")")
	f.StringVar(&scene, "scene", "", "scene description file (yaml)")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator ("+strings.Join(config.Integrators, "|")+")")
	f.Float64Var(&dt, "dt", config.DefaultDt, "step in seconds")
	f.Float64Var(&duration, "duration", config.DefaultDuration, "simulated seconds")
	f.Float64Var(&startMJD, "start-mjd", 0, "initial time as MJD, -1 follows the wall clock")
	f.StringSliceVar(&track, "track", nil, "object references to record")
	f.BoolVar(&parallel, "parallel", false, "solve top-level objects concurrently")
}

// loadConfig layers defaults, the preset, the config file, VESSIM_*
// environment variables and explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VESSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range flagKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var bindErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	cfg := config.DefaultConfig()
	switch {
	case v.GetString("preset") != "":
		if p := config.GetPreset(v.GetString("preset")); p != nil {
			cfg = p
		}
	case v.GetString("scene") != "":
		cfg.Preset = ""
	default:
		cfg = config.GetPreset(cfg.Preset)
	}
	// decoding into a longer slice would keep its tail
	if v.IsSet("track") {
		cfg.Track = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// openStore opens the run store selected by the persistent flags, the
// environment or the config file.
func openStore(cmd *cobra.Command) (storage.Store, error) {
	v := viper.New()
	v.SetEnvPrefix("VESSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("storage.backend", backend)
	v.SetDefault("storage.path", dataDir)
	v.BindEnv("storage.backend")
	v.BindEnv("storage.path")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	for name, key := range map[string]string{"store": "storage.backend", "data": "storage.path"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	return storage.Open(v.GetString("storage.backend"), v.GetString("storage.path"))
}

func styles() viz.Styles {
	return viz.GetTheme(theme).Styles()
}
