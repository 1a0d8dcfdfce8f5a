package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/experiment"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/sim"
	"github.com/san-kum/trajfit/internal/storage"
	"github.com/san-kum/trajfit/internal/trajlog"
	"github.com/san-kum/trajfit/internal/units"
	"github.com/san-kum/trajfit/internal/viz"
)

func runFit(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)
	log := newLogger().Component("fit")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	if verbose {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
		open := trajlog.Factory(outDir, func(path string) { fmt.Println(path) })
		obj := exp.Objective()
		obj.SinkFactory = func(c sim.Candidate) (fit.SinkCloser, error) {
			return open(c)
		}
		obj.OnEval = func(ev fit.Evaluation) {
			fmt.Println(ev.String())
		}
	}

	log.Debug(ctx, "fitting observation",
		"model", cfg.Model, "integrator", cfg.Integrator,
		"distance", cfg.Observation.Distance(), "seconds", cfg.Observation.Seconds)

	sol, err := exp.Fit(ctx)
	if err != nil {
		if errors.Is(err, dynamo.ErrOptimizationDivergence) && sol != nil {
			log.Error(ctx, "can't find minimum", err, "best", sol.Value, "iterations", sol.Iterations)
		}
		return err
	}
	if verbose {
		fmt.Printf("ok %d\n", sol.Iterations)
	}

	fmt.Printf("speed = %8.3f angle = %8.3f; compute time %.3fms\n",
		units.ConvertSpeed(sol.Candidate.Speed, cfg.Units),
		sol.Candidate.AngleDegrees(),
		float64(sol.Elapsed.Microseconds())/1000)

	log.Debug(ctx, "fit finished",
		"evaluations", sol.Evaluations, "value", sol.Value,
		"distance", sol.Result.Distance, "seconds", sol.Result.Seconds)

	if !save {
		return nil
	}
	id, err := saveFit(ctx, exp, sol)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

// saveFit flies the fitted candidate again to capture its trajectory and
// metrics, then stores the run.
func saveFit(ctx context.Context, exp *experiment.Experiment, sol *fit.Solution) (string, error) {
	st, err := openStore()
	if err != nil {
		return "", err
	}
	defer st.Close()

	traj := &storage.Trajectory{}
	_, rec, err := exp.Fly(ctx, sol.Candidate, traj)
	if err != nil {
		return "", err
	}

	return st.Save(storage.NewRunMetadata(exp.Config(), sol, rec.Values()), traj)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	kind, _ := cfg.Kind()
	out, err := trajlog.Create(filepath.Join(outDir, kind.String()+".dat"))
	if err != nil {
		return err
	}

	sinks := []sim.Sink{out}
	if verbose {
		sinks = append(sinks, sim.SinkFunc(func(t float64, x dynamo.State) error {
			fmt.Printf("%8.3f %8.3f %8.3f\n", t, x[dynamo.X], x[dynamo.Z])
			return nil
		}))
	}

	c := sim.Candidate{Speed: units.ToMPS(speed, cfg.Units), Angle: units.Radians(angle)}
	res, rec, err := exp.Fly(ctx, c, sinks...)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Println(out.Path())
	fmt.Printf("landed at %.3f m after %.3f s (%d frames, %d steps)\n",
		res.Distance, res.Seconds, res.Frames, res.Steps)
	fmt.Println(viz.MetricsPanel(rec.Values()))
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	c := sim.Candidate{Speed: units.ToMPS(speed, cfg.Units), Angle: units.Radians(angle)}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tDISTANCE\tSECONDS\tSTEPS\tREJECTED\tEVALS")
	for _, name := range registry.ListSteppers() {
		run := cfg.Clone()
		run.Integrator = name

		exp := experiment.New(run)
		if err := exp.Setup(registry); err != nil {
			return err
		}
		res, _, err := exp.Fly(ctx, c)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(w, "%s\t%.9f\t%.9f\t%d\t%d\t%d\n",
			name, res.Distance, res.Seconds, res.Steps, res.Rejected, res.Evaluations)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	speedAxis, angleAxis := fit.DefaultSweepAxes()
	grid, err := fit.Sweep(ctx, exp.Objective(), speedAxis, angleAxis)
	if err != nil {
		return err
	}

	f, err := os.Create(surfaceFile)
	if err != nil {
		return fmt.Errorf("can't create %s: %w", surfaceFile, err)
	}
	if err := fit.WriteSurface(f, grid); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	best := sim.CandidateFrom(grid.Best.X)
	fmt.Printf("wrote %d samples to %s; best speed = %.3f angle = %.3f error = %.6g\n",
		len(grid.Samples), surfaceFile,
		units.ConvertSpeed(best.Speed, cfg.Units), best.AngleDegrees(), grid.Best.F)
	return nil
}
