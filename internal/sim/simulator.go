package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/integrators"
	"github.com/san-kum/lvsim/internal/metrics"
	"github.com/san-kum/lvsim/internal/physics"
)

// Simulator integrates the Lotka-Volterra model. It holds configuration
// only; every Run builds its own model, integrator and metrics, so one
// Simulator may serve concurrent callers.
type Simulator struct {
	cfg Config
}

func New(cfg Config) *Simulator {
	return &Simulator{cfg: cfg}
}

func (s *Simulator) Config() Config { return s.cfg }

func (s *Simulator) integrator() (integrators.GridIntegrator, error) {
	switch s.cfg.Method {
	case MethodDormandPrince, "":
		return integrators.NewDormandPrince(s.cfg.Options), nil
	case MethodRK4:
		fg := integrators.NewFixedGrid(integrators.NewRK4(), s.cfg.Substeps)
		if s.cfg.Options.MaxMagnitude > 0 {
			fg.MaxMagnitude = s.cfg.Options.MaxMagnitude
		}
		return fg, nil
	case MethodEuler:
		fg := integrators.NewFixedGrid(integrators.NewEuler(), s.cfg.Substeps)
		if s.cfg.Options.MaxMagnitude > 0 {
			fg.MaxMagnitude = s.cfg.Options.MaxMagnitude
		}
		return fg, nil
	}
	return nil, dynamo.InvalidInput(-1, "unknown method %q", s.cfg.Method)
}

// Run integrates from initial over grid. The returned trajectory has one
// state per grid time; grid[0] maps to initial unchanged.
func (s *Simulator) Run(ctx context.Context, p physics.Params, initial Populations, grid []float64) (*Result, error) {
	if err := validate(p, initial); err != nil {
		return nil, err
	}

	integ, err := s.integrator()
	if err != nil {
		return nil, err
	}

	model := physics.NewLotkaVolterra(p)
	traj, stats, err := integ.Integrate(ctx, model, initial.State(), grid)
	if err != nil {
		return nil, err
	}

	drift := metrics.NewInvariantDrift(model)
	pos := metrics.NewPositivity()
	result := &Result{
		Params:     p,
		Trajectory: traj,
		Stats:      stats,
		Metrics:    metrics.Observe(traj, drift, pos),
		Degenerate: p.Degenerate(),
		Underflow:  pos.Underflows() > 0,
	}
	result.InvariantInitial = drift.Initial()
	result.InvariantFinal = drift.Final()
	result.InvariantDrift = drift.Value()
	result.Metrics["accepted_steps"] = float64(stats.Accepted)
	result.Metrics["rejected_steps"] = float64(stats.Rejected)
	result.Metrics["underflow_samples"] = float64(pos.Underflows())

	return result, nil
}

func validate(p physics.Params, initial Populations) error {
	if !p.Finite() {
		return dynamo.InvalidInput(-1, "coefficients must be finite (%s)", p)
	}
	for i, v := range []float64{initial.Prey, initial.Predator} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.InvalidInput(-1, "initial population %d is %v", i, v)
		}
		if v < 0 {
			return dynamo.InvalidInput(-1, "initial population %d is negative (%g)", i, v)
		}
	}
	return nil
}

// Integrate runs the default adaptive integrator with tolerances taken from
// opts. Steps that would take a population below zero are always rejected.
func Integrate(ctx context.Context, p physics.Params, initial Populations, grid []float64, opts integrators.Options) (*Result, error) {
	cfg := DefaultConfig()
	opts.NonNegative = true
	cfg.Options = opts
	return New(cfg).Run(ctx, p, initial, grid)
}

// ConservationError returns |H(last) - H(first)|.
func (r *Result) ConservationError() float64 {
	return math.Abs(r.InvariantFinal - r.InvariantInitial)
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %d samples, %d accepted / %d rejected steps, drift %.3e",
		r.Params, r.Trajectory.Len(), r.Stats.Accepted, r.Stats.Rejected, r.InvariantDrift)
}
