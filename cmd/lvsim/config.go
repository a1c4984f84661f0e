package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/lvsim/internal/config"
	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/sim"
)

// resolveConfig layers defaults, the config file (and any preset it names),
// the --preset flag and finally every flag set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	}

	floats := []struct {
		name string
		dst  *float64
		v    float64
	}{
		{"alpha", &cfg.Params.Alpha, alpha},
		{"beta", &cfg.Params.Beta, beta},
		{"gamma", &cfg.Params.Gamma, gamma},
		{"delta", &cfg.Params.Delta, delta},
		{"prey", &cfg.Prey, prey},
		{"predator", &cfg.Predator, predator},
		{"horizon", &cfg.Horizon, horizon},
		{"rtol", &cfg.RelTol, rtol},
		{"atol", &cfg.AbsTol, atol},
		{"min-step", &cfg.MinStep, minStep},
		{"max-magnitude", &cfg.MaxMagnitude, maxMagnitude},
	}
	for _, f := range floats {
		if flags.Changed(f.name) {
			*f.dst = f.v
		}
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("method") {
		cfg.Method = method
	}

	for _, note := range cfg.Clamp() {
		logger.Warn("clamped to operating envelope", slog.String("change", note))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Debug("config resolved",
		slog.String("preset", cfg.Preset),
		slog.String("params", cfg.Params.String()),
		slog.Float64("prey", cfg.Prey),
		slog.Float64("predator", cfg.Predator),
		slog.Float64("horizon", cfg.Horizon),
		slog.String("method", cfg.Method),
	)
	return cfg, nil
}

func simulate(ctx context.Context, cfg *config.Config) (*sim.ScenarioResult, error) {
	sc := cfg.Scenario()
	logger.Info("integrating",
		slog.String("scenario", sc.Name),
		slog.String("method", cfg.Method),
		slog.Float64("horizon", sc.Horizon),
		slog.Int("samples", sc.Samples),
	)

	start := time.Now()
	res, err := sim.New(cfg.SimConfig()).RunScenario(ctx, sc)
	if err != nil {
		logFailure(err)
		return nil, err
	}

	if res.Full.Underflow {
		logger.Warn("population underflowed float64; conservation is not reliable past the trough",
			slog.Float64("min_population", res.Full.Metrics["min_population"]),
			slog.Int("samples", int(res.Full.Metrics["underflow_samples"])),
		)
	}
	logger.Info("integration finished",
		slog.Int("accepted", res.Full.Stats.Accepted),
		slog.Int("rejected", res.Full.Stats.Rejected),
		slog.Int("evaluations", res.Full.Stats.Evaluations),
		slog.Float64("invariant_drift", res.Full.InvariantDrift),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func logFailure(err error) {
	var ie *dynamo.IntegrationError
	if !errors.As(err, &ie) {
		return
	}
	attrs := []any{
		slog.String("kind", ie.Kind.String()),
		slog.Int("index", ie.Index),
		slog.Float64("time", ie.Time),
		slog.Float64("at", ie.At),
		slog.String("reason", ie.Reason),
	}
	if ie.Partial != nil {
		attrs = append(attrs, slog.Int("partial_samples", ie.Partial.Len()))
	}
	logger.Error("integration failed", attrs...)
}
