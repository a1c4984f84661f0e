package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
)

// GridIntegrator advances a system across a caller-supplied time grid and
// reports exactly one state per grid point.
type GridIntegrator interface {
	Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid []float64) (*dynamo.Trajectory, Stats, error)
}

// Linspace returns n evenly spaced samples over [start, stop]. The last
// sample is exactly stop.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// ValidateGrid checks that grid is non-empty, finite and strictly increasing.
func ValidateGrid(grid []float64) error {
	if len(grid) == 0 {
		return dynamo.InvalidInput(-1, "empty time grid")
	}
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			e := dynamo.InvalidInput(i, "time grid entry is %v", t)
			e.Time = t
			return e
		}
		if i > 0 && t <= grid[i-1] {
			e := dynamo.InvalidInput(i, "time grid not strictly increasing (%g after %g)", t, grid[i-1])
			e.Time = t
			return e
		}
	}
	return nil
}

func validateInitial(sys dynamo.System, x0 dynamo.State) error {
	if len(x0) != sys.StateDim() {
		return dynamo.InvalidInput(-1, "initial state has %d components, system needs %d", len(x0), sys.StateDim())
	}
	if i := x0.FirstInvalid(); i >= 0 {
		return dynamo.InvalidInput(-1, "initial state component %d is %v", i, x0[i])
	}
	return nil
}

// failure builds a NumericalBlowup or NonConvergence error carrying a copy
// of the samples written so far.
func failure(kind dynamo.Kind, traj *dynamo.Trajectory, at float64, x dynamo.State, format string, args ...any) *dynamo.IntegrationError {
	e := &dynamo.IntegrationError{
		Kind:    kind,
		Index:   traj.Len() - 1,
		At:      at,
		State:   x.Clone(),
		Partial: traj.Prefix(traj.Len()),
		Reason:  fmt.Sprintf(format, args...),
	}
	if e.Index >= 0 {
		e.Time = traj.Times[e.Index]
	}
	return e
}

// checkMagnitude returns a reason string when x is non-finite or exceeds limit.
func checkMagnitude(x dynamo.State, limit float64) string {
	if i := x.FirstInvalid(); i >= 0 {
		return fmt.Sprintf("state component %d is %v", i, x[i])
	}
	if m := x.MaxAbs(); m > limit {
		return fmt.Sprintf("state magnitude %.3g exceeds ceiling %.3g", m, limit)
	}
	return ""
}

// FixedGrid drives a fixed-step scheme across a grid, taking Substeps equal
// steps per grid interval. It has no error control and is used as a
// reference for the adaptive integrator.
type FixedGrid struct {
	Stepper      dynamo.Stepper
	Substeps     int
	MaxMagnitude float64
}

func NewFixedGrid(stepper dynamo.Stepper, substeps int) *FixedGrid {
	if substeps < 1 {
		substeps = 1
	}
	return &FixedGrid{Stepper: stepper, Substeps: substeps, MaxMagnitude: DefaultMaxMagnitude}
}

func (f *FixedGrid) Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid []float64) (*dynamo.Trajectory, Stats, error) {
	var stats Stats
	if err := ValidateGrid(grid); err != nil {
		return nil, stats, err
	}
	if err := validateInitial(sys, x0); err != nil {
		return nil, stats, err
	}

	limit := f.MaxMagnitude
	if limit <= 0 {
		limit = DefaultMaxMagnitude
	}

	traj := dynamo.NewTrajectory(len(grid))
	x := x0.Clone()
	traj.Append(grid[0], x)
	stats.Reached = grid[0]

	for i := 1; i < len(grid); i++ {
		select {
		case <-ctx.Done():
			return nil, stats, fmt.Errorf("integration stopped at t=%.4f: %w", stats.Reached, ctx.Err())
		default:
		}

		t := grid[i-1]
		h := (grid[i] - t) / float64(f.Substeps)
		for s := 0; s < f.Substeps; s++ {
			x = f.Stepper.Step(sys, x, t+float64(s)*h, h)
			stats.Attempts++
			stats.recordAccepted(h)
			if reason := checkMagnitude(x, limit); reason != "" {
				return nil, stats, failure(dynamo.KindNumericalBlowup, traj, t+float64(s+1)*h, x, "%s", reason)
			}
		}
		stats.Reached = grid[i]
		traj.Append(grid[i], x)
	}

	return traj, stats, nil
}
