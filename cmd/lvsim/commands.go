package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/lvsim/internal/analysis"
	"github.com/san-kum/lvsim/internal/config"
	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/export"
	"github.com/san-kum/lvsim/internal/physics"
	"github.com/san-kum/lvsim/internal/sim"
	"github.com/san-kum/lvsim/internal/viz"
)

func size(cmd *cobra.Command) (int, int) {
	w, _ := cmd.Flags().GetInt("width")
	h, _ := cmd.Flags().GetInt("height")
	return w, h
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	res, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary(res.Scenario.String(), []viz.Row{
		viz.R("method", "%s", cfg.Method),
		viz.R("tolerance", "rtol %.0e, atol %.0e", cfg.RelTol, cfg.AbsTol),
	}))
	fmt.Println(resultPanel(fmt.Sprintf("window t = 0..%g", sim.WindowHorizon), res.Window))
	fmt.Println(resultPanel(fmt.Sprintf("horizon t = 0..%g", cfg.Horizon), res.Full))

	if res.Full.Degenerate {
		fmt.Println(viz.Warn.Render("non-positive coefficient: expect monotonic decay or growth, not cycles"))
	}
	if res.Full.Underflow {
		fmt.Println(viz.Bad.Render("a population trough is below float64 range: samples after it are not reliable"))
	}
	return nil
}

func resultPanel(title string, r *sim.Result) string {
	prey, pred := r.Prey(), r.Predator()
	preyLo, preyHi := analysis.Range(prey)
	predLo, predHi := analysis.Range(pred)

	c, cycled := analysis.FindCycle(r.Trajectory)
	cycle := viz.Status(cycled, "prey peak -> predator peak -> prey trough", "no full oscillation")
	if cycled {
		cycle += fmt.Sprintf(" (t = %.2f, %.2f, %.2f)", c.PreyPeak.Time, c.PredatorPeak.Time, c.PreyTrough.Time)
	}

	rows := []viz.Row{
		viz.R("samples", "%d", r.Trajectory.Len()),
		viz.R("steps", "%d accepted, %d rejected, %d evaluations", r.Stats.Accepted, r.Stats.Rejected, r.Stats.Evaluations),
		viz.R("step size", "%.3g .. %.3g", r.Stats.SmallestStep, r.Stats.LargestStep),
		viz.R("prey", "%.3f .. %.3f  %s", preyLo, preyHi, viz.Sparkline(prey, 30)),
		viz.R("predator", "%.3f .. %.3f  %s", predLo, predHi, viz.Sparkline(pred, 30)),
		viz.R("H drift", "%.2e (H0 = %.6f)", r.InvariantDrift, r.InvariantInitial),
		viz.R("cycle", "%s", cycle),
	}
	if p, ok := analysis.PeakPeriod(r.Trajectory.Times, prey); ok {
		rows = append(rows, viz.R("period", "%.3f", p))
	}
	return viz.Summary(title, rows)
}

func plotSeries(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	res, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	w, h := size(cmd)
	fmt.Println(viz.PopulationChart(res.Scenario.Name, res.Window.Trajectory, w, h))
	fmt.Println()
	fmt.Println(viz.PopulationChart(fmt.Sprintf("%s x%g", res.Scenario.Name, cfg.Horizon), res.Full.Trajectory, w, h))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	res, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	portrait := analysis.NewPhasePortrait(res.Full.Trajectory)
	if !res.Full.Degenerate {
		portrait.WithEquilibrium(physics.NewLotkaVolterra(cfg.Params))
	}

	w, h := size(cmd)
	fmt.Printf("phase plane: prey (x) vs predator (y), t = 0..%g\n", cfg.Horizon)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, w, h))
	fmt.Println("o start   + equilibrium")
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	res, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	traj := res.Full.Trajectory
	prey := traj.Component(physics.Prey)
	pred := traj.Component(physics.Predator)

	rows := []viz.Row{
		viz.R("prey peaks / troughs", "%d / %d", len(analysis.Peaks(traj.Times, prey)), len(analysis.Troughs(traj.Times, prey))),
		viz.R("predator peaks", "%d", len(analysis.Peaks(traj.Times, pred))),
		viz.R("full cycles", "%d", analysis.CountCycles(traj)),
	}
	if c, ok := analysis.FindCycle(traj); ok {
		rows = append(rows, viz.R("first cycle", "%s", c))
	}
	if p, ok := analysis.PeakPeriod(traj.Times, prey); ok {
		rows = append(rows, viz.R("period (peaks)", "%.3f", p))
	}
	if p, ok := analysis.DominantPeriod(traj.Times, prey); ok {
		rows = append(rows, viz.R("period (spectrum)", "%.3f", p))
	}
	if !res.Full.Degenerate {
		lv := physics.NewLotkaVolterra(cfg.Params)
		eq := lv.Equilibrium()
		rows = append(rows,
			viz.R("small-orbit period", "%.3f", lv.LinearPeriod()),
			viz.R("equilibrium", "(%.3f, %.3f)", eq[physics.Prey], eq[physics.Predator]),
		)
	}
	fmt.Println(viz.Summary("analysis of "+res.Scenario.String(), rows))

	ps := analysis.PowerSpectrum(prey)
	fmt.Println(viz.SpectrumChart(ps, 60, 60, 10))
	return nil
}

// referenceRelTol is the tolerance of the run other methods are measured against.
const referenceRelTol = 1e-10

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	methods := sim.Methods()
	if len(args) > 0 {
		methods = methods[:0]
		for _, a := range args {
			m, err := sim.ParseMethod(a)
			if err != nil {
				return err
			}
			methods = append(methods, m)
		}
	}

	grid := cfg.Grid()
	fmt.Printf("comparing methods on %s (t = 0..%g, %d samples)\n\n", cfg.Scenario(), cfg.Horizon, len(grid))

	// reference: the adaptive method at a much tighter tolerance
	refCfg := cfg.SimConfig()
	refCfg.Method = sim.MethodDormandPrince
	refCfg.Options.RelTol = math.Min(refCfg.Options.RelTol, referenceRelTol)
	ref, err := sim.New(refCfg).Run(cmd.Context(), cfg.Params, cfg.Initial(), grid)
	if err != nil {
		logFailure(err)
		return fmt.Errorf("reference run: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "method\tsteps\tH drift\tmax deviation\tmin population\ttime_ms\t")
	for _, m := range methods {
		sc := cfg.SimConfig()
		sc.Method = m

		start := time.Now()
		r, err := sim.New(sc).Run(cmd.Context(), cfg.Params, cfg.Initial(), grid)
		elapsed := time.Since(start)
		if err != nil {
			logFailure(err)
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\t\n", m, dynamo.KindOf(err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2e\t%.2e\t%.4f\t%.2f\t\n",
			m, r.Stats.Accepted, r.InvariantDrift, r.Deviation(ref), r.Metrics["min_population"], float64(elapsed.Microseconds())/1000)
	}
	return tw.Flush()
}

func sweepCoefficient(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if sweepSteps < 2 {
		return fmt.Errorf("sweep needs at least 2 steps, got %d", sweepSteps)
	}

	s := sim.New(cfg.SimConfig())
	grid := cfg.Grid()
	initial := cfg.Initial()
	run := func(ctx context.Context, p physics.Params) (*dynamo.Trajectory, error) {
		r, err := s.Run(ctx, p, initial, grid)
		if err != nil {
			return nil, err
		}
		return r.Trajectory, nil
	}

	start := time.Now()
	points, err := analysis.Sweep(cmd.Context(), cfg.Params, sweepParam, sweepFrom, sweepTo, sweepSteps, run)
	if err != nil {
		return err
	}
	failed := 0
	for _, p := range points {
		if p.Err != nil {
			failed++
			logFailure(p.Err)
		}
	}
	logger.Info("sweep finished",
		"param", sweepParam, "points", len(points), "failed", failed, "elapsed", time.Since(start))

	w, h := size(cmd)
	fmt.Println(viz.SweepChart(sweepParam, points, w, h))
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tprey min\tprey max\tpredator max\tcycles\t\n", sweepParam)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(tw, "%.3f\t%s\t\t\t\t\n", p.Value, dynamo.KindOf(p.Err))
			continue
		}
		fmt.Fprintf(tw, "%.3f\t%.4f\t%.4f\t%.4f\t%d\t\n", p.Value, p.PreyMin, p.PreyMax, p.PredatorMax, p.Cycles)
	}
	return tw.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Println(viz.Summary(fmt.Sprintf("%s (%s)", name, p.Title), []viz.Row{
			viz.R("coefficients", "%s", p.Params),
			viz.R("initial", "prey %g, predator %g", p.Prey, p.Predator),
			viz.R("horizon", "%g", p.Horizon),
		}))
	}
	return nil
}

func exportTrajectory(cmd *cobra.Command) (*config.Config, *sim.Result, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	res, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if full {
		return cfg, res.Full, nil
	}
	return cfg, res.Window, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, r, err := exportTrajectory(cmd)
	if err != nil {
		return err
	}
	return export.WriteCSV(os.Stdout, r.Trajectory)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, r, err := exportTrajectory(cmd)
	if err != nil {
		return err
	}
	doc := export.NewDocument(cfg.Scenario().Name, cfg.SimConfig().Method, cfg.Initial(), r)
	return export.WriteJSON(os.Stdout, doc)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, r, err := exportTrajectory(cmd)
	if err != nil {
		return err
	}
	w, h := size(cmd)
	var out string
	if phase, _ := cmd.Flags().GetBool("phase"); phase {
		out = export.PhaseSVG(analysis.NewPhasePortrait(r.Trajectory), w, h)
	} else {
		out = export.SeriesSVG(r.Trajectory, w, h)
	}
	if out == "" {
		return fmt.Errorf("not enough samples to draw (%d)", r.Trajectory.Len())
	}
	_, err = os.Stdout.WriteString(out)
	return err
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	logger.Info("config written", "path", args[0], "preset", cfg.Preset)
	return nil
}
