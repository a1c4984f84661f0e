package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	logLevel   string

	alpha, beta, gamma, delta float64
	prey, predator            float64
	horizon                   float64
	samples                   int
	method                    string
	substeps                  int
	rtol, atol                float64
	minStep                   float64
	maxSteps                  int
	maxMagnitude              float64

	full       bool
	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	rootCmd := &cobra.Command{
		Use:           "lvsim",
		Short:         "Lotka-Volterra predator-prey integrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "preset name (see 'lvsim presets')")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.Float64Var(&alpha, "alpha", 0.1, "prey growth rate")
	pf.Float64Var(&beta, "beta", 0.1, "predation rate")
	pf.Float64Var(&gamma, "gamma", 0.1, "predator death rate")
	pf.Float64Var(&delta, "delta", 0.1, "predator reproduction efficiency")
	pf.Float64Var(&prey, "prey", 5, "initial prey population")
	pf.Float64Var(&predator, "predator", 10, "initial predator population")
	pf.Float64Var(&horizon, "horizon", 100, "time horizon (15, 50, 100 or 200)")
	pf.IntVar(&samples, "samples", 1000, "samples per trajectory")
	pf.StringVar(&method, "method", "dopri5", "integration method: dopri5, rk4, euler")
	pf.IntVar(&substeps, "substeps", 10, "steps per sample for rk4 and euler")
	pf.Float64Var(&rtol, "rtol", 1e-6, "relative tolerance")
	pf.Float64Var(&atol, "atol", 1e-300, "absolute tolerance, only used for populations near zero")
	pf.Float64Var(&minStep, "min-step", 1e-10, "smallest step before giving up")
	pf.IntVar(&maxSteps, "max-steps", 200000, "step attempt budget")
	pf.Float64Var(&maxMagnitude, "max-magnitude", 1e12, "population ceiling treated as blow-up")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the 0..15 window and the full horizon, print a summary",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot population time series",
		Args:  cobra.NoArgs,
		RunE:  plotSeries,
	}
	plotCmd.Flags().Int("width", 80, "chart width")
	plotCmd.Flags().Int("height", 12, "chart height")

	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "phase-space plot of the full horizon",
		Args:  cobra.NoArgs,
		RunE:  phasePlot,
	}
	phaseCmd.Flags().Int("width", 70, "plot width")
	phaseCmd.Flags().Int("height", 24, "plot height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "oscillation, period and spectrum analysis",
		Args:  cobra.NoArgs,
		RunE:  analyzeRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [method...]",
		Short: "compare integration methods on the same scenario",
		RunE:  compareMethods,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one coefficient and chart the prey range",
		Args:  cobra.NoArgs,
		RunE:  sweepCoefficient,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "alpha", "coefficient to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.01, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 2.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 20, "number of values")
	sweepCmd.Flags().Int("width", 60, "chart width")
	sweepCmd.Flags().Int("height", 12, "chart height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv",
		Short: "write the trajectory as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE:  exportCSV,
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "write the trajectory and diagnostics as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE:  exportJSON,
	}
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg",
		Short: "write an SVG chart to stdout",
		Args:  cobra.NoArgs,
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().Int("width", 800, "image width")
	exportSVGCmd.Flags().Int("height", 400, "image height")
	exportSVGCmd.Flags().Bool("phase", false, "draw the phase plane instead of the time series")

	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportSVGCmd} {
		c.Flags().BoolVar(&full, "full", true, "export the full horizon instead of the 0..15 window")
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(runCmd, plotCmd, phaseCmd, analyzeCmd, compareCmd, sweepCmd,
		presetsCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level: %s", s)
}
