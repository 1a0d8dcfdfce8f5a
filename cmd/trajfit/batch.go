package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajfit/internal/automation"
	"github.com/san-kum/trajfit/internal/experiment"
	"github.com/san-kum/trajfit/internal/units"
	"github.com/san-kum/trajfit/internal/viz"
)

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)
	log := newLogger().Component("batch")

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	results, runErr := automation.RunScenario(ctx, scenario, registry, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHOT\tMODEL\tSPEED\tANGLE\tERROR\tITER\tSTATUS\tRUN")
	for _, r := range results {
		sol := r.Solution
		id := ""
		if save {
			exp := experiment.New(r.Config)
			if err := exp.Setup(registry); err != nil {
				return err
			}
			if id, err = saveFit(ctx, exp, sol); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%.3f %s\t%.3f\t%.3g\t%d\t%s\t%s\n",
			r.Shot.Name, r.Config.Model,
			units.ConvertSpeed(sol.Candidate.Speed, r.Config.Units), units.Label(r.Config.Units),
			sol.Candidate.AngleDegrees(), sol.Value, sol.Iterations, viz.Status(sol.Converged), id)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runParamSweep(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  paramSteps,
	}
	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), newLogger().Component("paramsweep"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSPEED\tANGLE\tERROR\tSTATUS\n", paramName)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.3f %s\t%.3f\t%.3g\t%s\n",
			r.ParamValue,
			units.ConvertSpeed(r.Candidate.Speed, cfg.Units), units.Label(cfg.Units),
			r.Candidate.AngleDegrees(), r.Value, viz.Status(r.Converged))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	ctx := runContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:          cfg,
		PositionNoise: posNoise,
		TimeNoise:     timeNoise,
		NumTrials:     trials,
		Seed:          seed,
	}
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry(), newLogger().Component("montecarlo"))
	if err != nil {
		return err
	}

	stats := automation.MonteCarloStats(results)
	label := units.Label(cfg.Units)
	fmt.Println(viz.Panel("monte carlo", []viz.Field{
		{Label: "trials", Value: fmt.Sprintf("%d (%d converged)", stats.Trials, stats.Converged)},
		{Label: "speed", Value: fmt.Sprintf("%.3f ± %.3f %s",
			units.ConvertSpeed(stats.SpeedMean, cfg.Units), units.ConvertSpeed(stats.SpeedStdDev, cfg.Units), label)},
		{Label: "angle", Value: fmt.Sprintf("%.3f ± %.3f deg", stats.AngleMean, stats.AngleStdDev)},
	}))
	return nil
}
