package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/logging"
	"github.com/san-kum/trajfit/internal/storage"
	"github.com/san-kum/trajfit/internal/units"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	unitFlag   string
	model      string
	integrator string
	hit        []float64
	bounce     []float64
	secs       float64
	outDir     string
	save       bool
	parallel   bool
	// simulate / compare
	speed float64
	angle float64
	// sweep
	surfaceFile string
	// paramsweep
	paramName  string
	paramMin   float64
	paramMax   float64
	paramSteps int
	// montecarlo
	trials    int
	posNoise  float64
	timeNoise float64
	seed      int64
	// export
	format  string
	outFile string
)

// main runs the trajfit CLI and exits with status 1 if the command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "trajfit",
		Short:        "recover tennis shot launch speed and angle from an observed bounce",
		SilenceUsage: true,
		RunE:         runFit,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trajfit", "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostics and write trajectory files")
	rootCmd.PersistentFlags().StringVar(&unitFlag, "units", units.MPH, "speed units: mps, mph, kmph")
	rootCmd.PersistentFlags().StringVar(&model, "model", config.DefaultModel, "force model: vacuum, drag, spin")
	rootCmd.PersistentFlags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "stepper: rk45, bs32, rk4")
	rootCmd.PersistentFlags().Float64SliceVar(&hit, "hit", nil, "observed hit position x,y,z in metres")
	rootCmd.PersistentFlags().Float64SliceVar(&bounce, "bounce", nil, "observed bounce position x,y,z in metres")
	rootCmd.PersistentFlags().Float64Var(&secs, "secs", 0, "observed flight time in seconds")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", ".", "directory for trajectory files")
	addFitFlags(rootCmd)

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "fit launch speed and angle to the observation",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	addFitFlags(fitCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "fly one shot and write its trajectory",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64Var(&speed, "speed", 60, "launch speed in --units")
	simulateCmd.Flags().Float64Var(&angle, "angle", 20, "launch angle in degrees")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "fly one shot with every integrator",
		Args:  cobra.NoArgs,
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&speed, "speed", 60, "launch speed in --units")
	compareCmd.Flags().Float64Var(&angle, "angle", 20, "launch angle in degrees")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "write the error surface over speed and angle",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&surfaceFile, "file", "err.dat", "error surface output file")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "fit every shot in a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&save, "save", false, "save each fitted shot")

	paramSweepCmd := &cobra.Command{
		Use:   "paramsweep",
		Short: "refit the observation across a range of one physical parameter",
		Args:  cobra.NoArgs,
		RunE:  runParamSweep,
	}
	paramSweepCmd.Flags().StringVar(&paramName, "param", "spin_rate", "parameter to vary")
	paramSweepCmd.Flags().Float64Var(&paramMin, "min", 10, "first value")
	paramSweepCmd.Flags().Float64Var(&paramMax, "max", 60, "last value")
	paramSweepCmd.Flags().IntVar(&paramSteps, "steps", 6, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "refit under random measurement noise",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&posNoise, "pos-noise", 0.1, "bounce position noise in metres")
	monteCarloCmd.Flags().Float64Var(&timeNoise, "time-noise", 0.01, "flight time noise in seconds")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed, 0 for time based")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, svg, png or html")
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-10s %s\n", name, config.Presets[name].Description)
			}
			return nil
		},
	}

	rootCmd.AddCommand(fitCmd, simulateCmd, compareCmd, sweepCmd, batchCmd, paramSweepCmd,
		monteCarloCmd, runsCmd, plotCmd, exportCmd, deleteCmd, presetsCmd)

	return rootCmd
}

func addFitFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&save, "save", false, "save the fitted run")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate simplex vertices concurrently")
}

// loadConfig builds the run configuration: defaults, then the preset, then
// the config file, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("units") {
		cfg.Units = unitFlag
	}
	if flags.Changed("hit") {
		if len(hit) != 3 {
			return nil, fmt.Errorf("%w: --hit needs x,y,z", dynamo.ErrParameterBounds)
		}
		copy(cfg.Observation.Hit[:], hit)
	}
	if flags.Changed("bounce") {
		if len(bounce) != 3 {
			return nil, fmt.Errorf("%w: --bounce needs x,y,z", dynamo.ErrParameterBounds)
		}
		copy(cfg.Observation.Bounce[:], bounce)
	}
	if flags.Changed("secs") {
		cfg.Observation.Seconds = secs
	}
	if flags.Changed("parallel") {
		cfg.Fit.Parallel = parallel
	}

	u, err := units.Parse(cfg.Units)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	cfg.Units = u

	return cfg, cfg.Validate()
}

func newLogger() *logging.Logger {
	if verbose {
		return logging.New(os.Stderr, slog.LevelDebug)
	}
	return logging.NewLogger()
}

// runContext tags the command's context with a fresh run ID for log
// correlation.
func runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithRunID(ctx, uuid.NewString())
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
