package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/integrators"
	"github.com/san-kum/lvsim/internal/physics"
)

// Populations is the initial (prey, predator) pair.
type Populations struct {
	Prey     float64 `yaml:"prey" json:"prey"`
	Predator float64 `yaml:"predator" json:"predator"`
}

func (p Populations) State() dynamo.State {
	return dynamo.State{p.Prey, p.Predator}
}

type Method string

const (
	MethodDormandPrince Method = "dopri5"
	MethodRK4           Method = "rk4"
	MethodEuler         Method = "euler"
)

func Methods() []Method {
	return []Method{MethodDormandPrince, MethodRK4, MethodEuler}
}

func ParseMethod(s string) (Method, error) {
	for _, m := range Methods() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown method: %s", s)
}

type Config struct {
	Method  Method
	Options integrators.Options
	// Substeps per grid interval for the fixed-step methods.
	Substeps int
}

func DefaultConfig() Config {
	opts := integrators.DefaultOptions()
	opts.NonNegative = true
	return Config{
		Method:   MethodDormandPrince,
		Options:  opts,
		Substeps: 10,
	}
}

// Result is one integration run with its diagnostics.
type Result struct {
	Params     physics.Params
	Trajectory *dynamo.Trajectory
	Stats      integrators.Stats
	Metrics    map[string]float64

	// InvariantInitial and InvariantFinal are H at the first and last
	// samples where it is defined.
	InvariantInitial float64
	InvariantFinal   float64
	// InvariantDrift is the largest deviation of H from its initial value,
	// relative when |H| > 1.
	InvariantDrift float64

	// Degenerate is set when a coefficient is non-positive; such runs decay
	// or grow monotonically instead of cycling.
	Degenerate bool

	// Underflow is set when a population that started positive fell below
	// the smallest normal float64. The orbit's trough is then not
	// representable, so samples after it follow a collapsed population and H
	// is not conserved.
	Underflow bool
}

// Deviation is the largest Euclidean distance between matching samples of
// r and ref. Both must share a time grid.
func (r *Result) Deviation(ref *Result) float64 {
	n := min(r.Trajectory.Len(), ref.Trajectory.Len())
	worst := 0.0
	for i := 0; i < n; i++ {
		d := r.Trajectory.States[i].Sub(ref.Trajectory.States[i]).Norm()
		worst = math.Max(worst, d)
	}
	return worst
}

func (r *Result) Prey() []float64     { return r.Trajectory.Component(physics.Prey) }
func (r *Result) Predator() []float64 { return r.Trajectory.Component(physics.Predator) }
