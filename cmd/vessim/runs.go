package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/vessim/internal/analysis"
	"github.com/san-kum/vessim/internal/export"
	"github.com/san-kum/vessim/internal/storage"
	"github.com/san-kum/vessim/internal/viz"
)

var (
	plotTrack     string
	plotComponent string
	plotPlane     string
	plotWidth     int
	plotHeight    int
	exportFormat  string
	exportOut     string
	exportPlane   string
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tINTEG\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%gs\t%s\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
		)
	}

	return w.Flush()
}

// loadRun fetches a run and its samples from the configured store.
func loadRun(cmd *cobra.Command, id string) (*storage.Run, []storage.Sample, error) {
	st, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	run, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.Samples(id)
	if err != nil {
		return nil, nil, err
	}
	return run, samples, nil
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run_id>",
		Short: "show a run's settings, metrics and trajectory summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, samples, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			printRun(run)

			s := styles()
			for _, ref := range run.Tracks {
				tr := storage.Track(samples, ref)
				if len(tr) == 0 {
					continue
				}
				sum := analysis.Summarize(tr)
				fields := map[string]string{
					"samples":      fmt.Sprintf("%d over %.0fs", sum.Samples, sum.Span),
					"radius":       fmt.Sprintf("%.6g .. %.6g m", sum.MinRadius, sum.MaxRadius),
					"eccentricity": fmt.Sprintf("%.4f", sum.Eccentricity),
					"max speed":    fmt.Sprintf("%.6g m/s", sum.MaxSpeed),
				}
				if sum.Period > 0 {
					fields["period (spectral)"] = fmt.Sprintf("%.1fs", sum.Period)
				}
				if sum.CrossingPeriod > 0 {
					fields["period (crossings)"] = fmt.Sprintf("%.1fs", sum.CrossingPeriod)
				}
				r, _ := viz.Series(tr, "r")
				fields["r"] = s.Sparkline(r, 40)
				fmt.Println(s.KeyValues(ref, fields))
			}
			return nil
		},
	}
}

func plotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <run_id>",
		Short: "plot a component of a tracked object, or its path on a plane",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&plotTrack, "track", "", "tracked object (default: first track)")
	cmd.Flags().StringVar(&plotComponent, "component", "r", "component ("+strings.Join(viz.Components, "|")+")")
	cmd.Flags().StringVar(&plotPlane, "plane", "", "draw the path projected on a plane (xy|xz|yz) instead")
	cmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	cmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")
	return cmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	ref := plotTrack
	if ref == "" {
		if len(run.Tracks) == 0 {
			return fmt.Errorf("run %s tracked nothing", run.ID)
		}
		ref = run.Tracks[0]
	}
	tr := storage.Track(samples, ref)
	if len(tr) == 0 {
		return fmt.Errorf("no samples for %q in run %s", ref, run.ID)
	}

	if plotPlane != "" {
		proj, err := analysis.Project(tr, plotPlane)
		if err != nil {
			return err
		}
		fmt.Print(analysis.ProjectionToASCII(proj, plotWidth, plotHeight))
		fmt.Printf("%s of %s\n", plotPlane, ref)
		return nil
	}

	graph, err := viz.Plot(tr, plotComponent, plotWidth, plotHeight)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run_id>",
		Short: "export a run as JSON or its paths as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json|svg)")
	cmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&exportPlane, "plane", "xy", "projection plane for svg")
	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		return storage.ExportJSON(w, run, samples)
	case "svg":
		svg, err := export.SamplesToSVG(samples, exportPlane, 800, 800)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, svg+"\n")
		return err
	default:
		return fmt.Errorf("unknown export format %q (want json or svg)", exportFormat)
	}
}
