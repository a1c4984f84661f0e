package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
)

const (
	Prey     = 0
	Predator = 1
)

// Params holds the four rate coefficients of the model.
type Params struct {
	Alpha float64 `yaml:"alpha" json:"alpha"` // prey growth rate
	Beta  float64 `yaml:"beta" json:"beta"`   // predation rate
	Gamma float64 `yaml:"gamma" json:"gamma"` // predator death rate
	Delta float64 `yaml:"delta" json:"delta"` // predator reproduction efficiency
}

func (p Params) Finite() bool {
	for _, v := range []float64{p.Alpha, p.Beta, p.Gamma, p.Delta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Degenerate reports whether any coefficient is non-positive.
func (p Params) Degenerate() bool {
	return p.Alpha <= 0 || p.Beta <= 0 || p.Gamma <= 0 || p.Delta <= 0
}

func (p Params) String() string {
	return fmt.Sprintf("alpha=%g beta=%g gamma=%g delta=%g", p.Alpha, p.Beta, p.Gamma, p.Delta)
}

// LotkaVolterra implements the predator-prey model.
// State: [prey, predator]
type LotkaVolterra struct {
	p Params
}

func NewLotkaVolterra(p Params) *LotkaVolterra {
	return &LotkaVolterra{p: p}
}

func (l *LotkaVolterra) StateDim() int  { return 2 }
func (l *LotkaVolterra) Params() Params { return l.p }

// Derive returns the population growth rates. Non-finite inputs propagate
// into the result.
func (l *LotkaVolterra) Derive(s dynamo.State, _ float64) dynamo.State {
	x, y := s[Prey], s[Predator]
	return dynamo.State{
		l.p.Alpha*x - l.p.Beta*x*y,
		l.p.Delta*x*y - l.p.Gamma*y,
	}
}

// Invariant returns H. It is +Inf when either population is zero and NaN
// when either is negative.
func (l *LotkaVolterra) Invariant(s dynamo.State) float64 {
	x, y := s[Prey], s[Predator]
	return l.p.Delta*x - l.p.Gamma*math.Log(x) + l.p.Beta*y - l.p.Alpha*math.Log(y)
}

// Equilibrium returns the non-trivial fixed point (gamma/delta, alpha/beta).
func (l *LotkaVolterra) Equilibrium() dynamo.State {
	return dynamo.State{l.p.Gamma / l.p.Delta, l.p.Alpha / l.p.Beta}
}

// LinearPeriod is the period of small oscillations around the equilibrium.
// Larger orbits take longer.
func (l *LotkaVolterra) LinearPeriod() float64 {
	return 2 * math.Pi / math.Sqrt(l.p.Alpha*l.p.Gamma)
}

func (l *LotkaVolterra) SetParam(name string, value float64) error {
	switch name {
	case "alpha":
		l.p.Alpha = value
	case "beta":
		l.p.Beta = value
	case "gamma":
		l.p.Gamma = value
	case "delta":
		l.p.Delta = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
