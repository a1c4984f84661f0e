package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/lvsim/internal/integrators"
	"github.com/san-kum/lvsim/internal/physics"
)

// WindowHorizon is the span of the short overview run that accompanies
// every scenario.
const WindowHorizon = 15.0

const DefaultSamples = 1000

// Scenario is a named parameter set with a horizon.
type Scenario struct {
	Name    string
	Params  physics.Params
	Initial Populations
	Horizon float64
	Samples int
}

func (sc Scenario) String() string {
	return fmt.Sprintf("%s (%s, prey=%g predator=%g, t<=%g)",
		sc.Name, sc.Params, sc.Initial.Prey, sc.Initial.Predator, sc.Horizon)
}

// ScenarioResult holds the overview window and the full-horizon run.
type ScenarioResult struct {
	Scenario Scenario
	Window   *Result
	Full     *Result
}

// RunScenario integrates the scenario twice: over [0, WindowHorizon] and
// over [0, Horizon], each sampled at Samples points. The runs are
// independent; either failing fails the whole scenario.
func (s *Simulator) RunScenario(ctx context.Context, sc Scenario) (*ScenarioResult, error) {
	n := sc.Samples
	if n <= 0 {
		n = DefaultSamples
	}
	if sc.Horizon <= 0 {
		return nil, fmt.Errorf("scenario %q: horizon must be positive, got %g", sc.Name, sc.Horizon)
	}

	window, err := s.Run(ctx, sc.Params, sc.Initial, integrators.Linspace(0, WindowHorizon, n))
	if err != nil {
		return nil, fmt.Errorf("scenario %q window: %w", sc.Name, err)
	}
	full, err := s.Run(ctx, sc.Params, sc.Initial, integrators.Linspace(0, sc.Horizon, n))
	if err != nil {
		return nil, fmt.Errorf("scenario %q horizon %g: %w", sc.Name, sc.Horizon, err)
	}

	return &ScenarioResult{Scenario: sc, Window: window, Full: full}, nil
}
