package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/vessim/internal/config"
	"github.com/san-kum/vessim/internal/description"
	"github.com/san-kum/vessim/internal/experiment"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/viz"
)

var (
	inspectVars  bool
	inspectInit  bool
	inspectSave  string
	inspectInteg string
	presetsShow  string
)

func inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <scene>",
		Short: "show the object tree of a scene file",
		Long: "Loads a scene description and prints its objects as a tree. With --init\n" +
			"the scene is initialized by the built-in solvers first, so derived\n" +
			"variables and generated objects show up.",
		Args: cobra.ExactArgs(1),
		RunE: inspectScene,
	}
	cmd.Flags().BoolVar(&inspectVars, "vars", false, "list variables")
	cmd.Flags().BoolVar(&inspectInit, "init", false, "initialize the scene before printing")
	cmd.Flags().StringVar(&inspectInteg, "integrator", config.DefaultIntegrator, "integrator for propagator objects with --init")
	cmd.Flags().StringVar(&inspectSave, "save", "", "write the initialized scene to this file")
	return cmd
}

func inspectScene(cmd *cobra.Command, args []string) error {
	if inspectSave != "" && !inspectInit {
		return fmt.Errorf("--save needs --init")
	}
	log := logging.New(logLevel, logFormat, os.Stderr)
	sys := sim.New(sim.WithLogger(log))
	defer sys.Close()

	syntax := 0
	opts := description.LoadOptions{
		Flags: description.DontInitialize,
		OnSyntaxError: func(line int, msg string) {
			syntax++
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", args[0], line, msg)
		},
	}
	if inspectInit {
		reg := experiment.NewRegistry()
		prop, err := reg.PropagatorFor(inspectInteg)
		if err != nil {
			return err
		}
		if err := reg.RegisterAll(sys); err != nil {
			return err
		}
		opts.Flags = description.BlockingInitialize
		opts.OnLoadObject = func(obj *sim.Object) error {
			if typ, _ := obj.Type(); typ == experiment.PropagatorType {
				return obj.SetType(prop)
			}
			return nil
		}
	}

	loaded, err := description.LoadFile(sys, nil, args[0], opts)
	if err != nil && syntax == 0 {
		return err
	}

	tops, err := topLevel(sys, loaded)
	if err != nil {
		return err
	}
	s := styles()
	for _, obj := range tops {
		out, err := viz.ObjectTree(obj, viz.TreeOptions{Variables: inspectVars, Styles: s})
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	if n := len(loaded.Databases); n > 0 {
		names := make([]string, 0, n)
		for _, db := range loaded.Databases {
			names = append(names, db.Name())
		}
		fmt.Println(s.Muted.Render("databases: " + strings.Join(names, ", ")))
	}

	if inspectSave != "" {
		flags := description.SaveUIDs | description.SaveDatabases | description.SaveFullState
		if err := description.SaveFile(inspectSave, sys.Root(), description.SaveOptions{Flags: flags}); err != nil {
			return err
		}
	}
	if syntax > 0 {
		return fmt.Errorf("%d error(s) in %s", syntax, args[0])
	}
	return nil
}

// topLevel returns the loaded objects that sit directly under the root.
func topLevel(sys *sim.System, loaded *description.Loaded) ([]*sim.Object, error) {
	if loaded == nil {
		return nil, nil
	}
	var out []*sim.Object
	for _, obj := range loaded.Objects {
		parent, err := obj.Parent()
		if err != nil {
			return nil, err
		}
		if parent.Same(sys.Root()) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func presetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if presetsShow != "" {
				data, err := config.PresetScene(presetsShow)
				if err != nil {
					return err
				}
				fmt.Print(string(data))
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tINTEG\tDT\tDURATION\tTRACK")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%gs\t%gs\t%s\n", name, p.Integrator, p.Dt, p.Duration, strings.Join(p.Track, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&presetsShow, "show", "", "print the scene description of a preset")
	return cmd
}

func solversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "solvers",
		Short: "list built-in solvers and integrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			s := styles()
			fmt.Println(s.Title.Render("solvers"))
			for _, name := range reg.ListSolvers() {
				fmt.Println("  " + name)
			}
			fmt.Println(s.Title.Render("integrators"))
			for _, name := range reg.ListIntegrators() {
				fmt.Println("  " + name)
			}
			return nil
		},
	}
}
