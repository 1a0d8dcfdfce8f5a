package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajfit/internal/export"
	"github.com/san-kum/trajfit/internal/units"
	"github.com/san-kum/trajfit/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
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
	fmt.Fprintln(w, "ID\tMODEL\tSPEED (m/s)\tANGLE\tERROR\tCONVERGED\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3g\t%t\t%s\n",
			run.ID[:min(8, len(run.ID))], run.Model, run.Speed, units.Degrees(run.Angle),
			run.Value, run.Converged, run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(traj.Samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.Panel("run "+meta.ID, []viz.Field{
		{Label: "model", Value: meta.Model},
		{Label: "speed", Value: fmt.Sprintf("%.3f m/s", meta.Candidate.Speed)},
		{Label: "angle", Value: fmt.Sprintf("%.3f deg", meta.Candidate.AngleDegrees())},
		{Label: "landing", Value: fmt.Sprintf("%.3f m after %.3f s", meta.Distance, meta.Seconds)},
		{Label: "status", Value: viz.Status(meta.Converged)},
		{Label: "history", Value: viz.SparklineChart(meta.History, 40)},
	}))
	fmt.Println()

	xs, zs := traj.Positions()
	fmt.Println(viz.TrajectoryGraph(xs, zs, 80, 12, "height (m) over distance"))
	fmt.Println()
	if len(meta.History) > 0 {
		fmt.Println(viz.ConvergenceGraph(meta.History, 80, 10))
		fmt.Println()
	}
	if len(meta.Metrics) > 0 {
		fmt.Println(viz.MetricsPanel(meta.Metrics))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) (err error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outFile != "" {
		file, ferr := os.Create(outFile)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}()
		w = file
	}

	if err := export.Write(w, f, meta, traj); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Printf("exported to %s\n", outFile)
	}
	return nil
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := st.Delete(runID); err != nil {
		return err
	}
	fmt.Printf("deleted run %s\n", runID)
	return nil
}
