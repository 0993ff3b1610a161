package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/vessim/internal/automation"
	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/experiment"
	"github.com/san-kum/vessim/internal/optim"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/storage"
	"github.com/san-kum/vessim/internal/viz"
	"github.com/san-kum/vessim/internal/watch"
)

var (
	overrides    []string
	escapeRadius float64
	progress     bool
	noStore      bool
	// sweep
	sweepTarget string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	// search
	searchParams []string
	searchMetric string
	// converge
	convergeTrack string
	convergeDts   []float64
)

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a scene and store the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(cmd)
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a float variable, e.g. earth/mu=3.9e14")
	cmd.Flags().Float64Var(&escapeRadius, "escape-radius", 0, "report the fraction of samples within this distance of the origin")
	cmd.Flags().BoolVar(&progress, "progress", false, "draw a progress bar")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not store the run")
	return cmd
}

// parseOverrides turns "ref/var=value" pairs into a map.
func parseOverrides(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok || !strings.Contains(key, "/") {
			return nil, fmt.Errorf("invalid override %q (want object/variable=value)", p)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
		out[key] = f
	}
	return out, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	values, err := parseOverrides(overrides)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	exp := experiment.New(cfg,
		experiment.WithLogger(log),
		experiment.WithOverrides(values),
		experiment.WithEscapeRadius(escapeRadius))
	if err := exp.Setup(); err != nil {
		return err
	}
	defer exp.Close()

	var bar *viz.Progress
	if progress {
		bar = viz.NewProgress(os.Stderr, cfg.Duration, styles())
		exp.Simulator().AddObserver(bar)
	}
	res, err := exp.Run(cmd.Context())
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		var se *sim.StepError
		if errors.As(err, &se) {
			log.Error("run failed", "step", se.Step, "t", se.Time, "object", se.Object)
		}
		return err
	}

	run, samples := exp.Record(res)
	if !noStore {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if _, err := st.Save(run, samples); err != nil {
			return fmt.Errorf("store run: %w", err)
		}
	}
	printRun(run)
	return nil
}

func printRun(run *storage.Run) {
	s := styles()
	fields := map[string]string{
		"scene":      run.Scene,
		"integrator": run.Integrator,
		"steps":      strconv.Itoa(run.Steps),
		"dt":         fmt.Sprintf("%gs", run.Dt),
		"duration":   fmt.Sprintf("%gs", run.Duration),
	}
	if run.ID != "" {
		fields["id"] = run.ID
	}
	for name, v := range run.Metrics {
		fields[name] = fmt.Sprintf("%.6g", v)
	}
	fmt.Println(s.KeyValues("run", fields))
}

func scenarioCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <file>",
		Short: "run every step of a scenario file and store the runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			log := newLogger(&config.Config{Log: config.LogConfig{Level: logLevel, Format: logFormat}})
			results, err := automation.RunScenario(cmd.Context(), sc, log)
			if len(results) > 0 {
				st, serr := openStore(cmd)
				if serr != nil {
					return serr
				}
				defer st.Close()
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STEP\tID\tSCENE\tSTEPS")
				for _, r := range results {
					id, serr := st.Save(r.Run, r.Samples)
					if serr != nil {
						return serr
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.Name, id, r.Run.Scene, r.Run.Steps)
				}
				w.Flush()
			}
			return err
		},
	}
	return cmd
}

func sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a scene across a range of one variable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
				Base:     cfg,
				Target:   sweepTarget,
				ParamMin: sweepMin,
				ParamMax: sweepMax,
				NumSteps: sweepSteps,
			})
			if err != nil {
				return err
			}
			printSweep(results)
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&sweepTarget, "target", "", "variable to sweep, e.g. earth/mu")
	cmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 0, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	cmd.MarkFlagRequired("target")
	return cmd
}

func printSweep(results []automation.SweepResult) {
	if len(results) == 0 {
		return
	}
	names := make([]string, 0, len(results[0].Metrics))
	for n := range results[0].Metrics {
		names = append(names, n)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VALUE\t%s\n", strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range results {
		fmt.Fprintf(w, "%g", r.ParamValue)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.6g", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func searchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "grid search variables for the lowest value of a metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			names, ranges, err := parseGrid(searchParams)
			if err != nil {
				return err
			}
			g := optim.NewGridSearch(names, ranges)
			newLogger(cfg).Info("grid search", "runs", g.Size(), "metric", searchMetric)

			best, value, err := g.Search(cmd.Context(), cfg, searchMetric)
			if err != nil {
				return err
			}
			fields := map[string]string{searchMetric: fmt.Sprintf("%.6g", value)}
			for k, v := range best {
				fields[k] = fmt.Sprintf("%g", v)
			}
			fmt.Println(styles().KeyValues("best", fields))
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringArrayVar(&searchParams, "param", nil, "grid axis, e.g. earth/mu=3.9e14,4e14,4.1e14")
	cmd.Flags().StringVar(&searchMetric, "metric", "", "metric to minimize, e.g. energy_drift:main/sat")
	cmd.MarkFlagRequired("param")
	cmd.MarkFlagRequired("metric")
	return cmd
}

// parseGrid reads "ref/var=v1,v2,..." axes.
func parseGrid(axes []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(axes))
	ranges := make([][]float64, 0, len(axes))
	for _, a := range axes {
		key, list, ok := strings.Cut(a, "=")
		if !ok || list == "" {
			return nil, nil, fmt.Errorf("invalid grid axis %q (want object/variable=v1,v2,...)", a)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid axis %s: %w", key, err)
			}
			values = append(values, f)
		}
		names = append(names, key)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func convergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converge",
		Short: "estimate the order of convergence of the integrator on a scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ref := convergeTrack
			if ref == "" {
				if len(cfg.Track) == 0 {
					return fmt.Errorf("no track to compare; set --of")
				}
				ref = cfg.Track[0]
			}
			c, err := automation.RunConvergence(cmd.Context(), cfg, ref, convergeDts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DT\tFINAL POSITION ERROR")
			for _, p := range c.Points {
				fmt.Fprintf(w, "%gs\t%.6g m\n", p.Dt, p.Error)
			}
			w.Flush()
			if math.IsNaN(c.Order) {
				fmt.Println("order: undetermined")
			} else {
				fmt.Printf("order: %.2f (%s)\n", c.Order, cfg.Integrator)
			}
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&convergeTrack, "of", "", "tracked object to compare (default: first track)")
	cmd.Flags().Float64SliceVar(&convergeDts, "steps", []float64{60, 30, 15, 7.5}, "step sizes in seconds")
	return cmd
}

func watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "re-run whenever the config or scene file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			files := []string{}
			if configFile != "" {
				files = append(files, configFile)
			}
			if cfg.Scene != "" {
				files = append(files, cfg.Scene)
			}
			if len(files) == 0 {
				return fmt.Errorf("nothing to watch: pass --config or --scene")
			}
			log := newLogger(cfg)

			w, err := watch.New(watch.DefaultDebounce, files...)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			rerun := func() {
				cfg, err := loadConfig(cmd)
				if err != nil {
					log.Error("invalid configuration", "err", err)
					return
				}
				res, exp, err := experiment.Run(cmd.Context(), cfg, experiment.WithLogger(log))
				if err != nil {
					log.Error("run failed", "err", err)
					return
				}
				run, _ := exp.Record(res)
				exp.Close()
				printRun(run)
			}

			rerun()
			log.Info("watching", "files", files)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case c, ok := <-w.Changes:
					if !ok {
						return nil
					}
					if c.Removed {
						log.Warn("watched file removed", "file", c.File)
						continue
					}
					log.Info("change detected", "file", c.File)
					rerun()
				}
			}
		},
	}
	addRunFlags(cmd)
	return cmd
}
