package metrics

import (
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
)

// Positivity records the smallest component seen and how many samples had a
// negative component. The exact solution of a population model never goes
// negative, so any violation is a numerical failure.
//
// It also counts underflows: samples where a component that was positive in
// the first sample has dropped below the smallest normal float64. Past that
// point relative precision is gone and the population may collapse to zero,
// which the exact solution never does.
type Positivity struct {
	name       string
	min        float64
	violations int
	underflows int
	samples    int
	positive   []bool
}

// smallestNormal is the least positive normal float64, 2^-1022.
const smallestNormal = 0x1p-1022

func NewPositivity() *Positivity {
	return &Positivity{
		name: "min_population",
		min:  math.Inf(1),
	}
}

func (p *Positivity) Name() string {
	return p.name
}

func (p *Positivity) Observe(x dynamo.State, t float64) {
	if p.samples == 0 {
		p.positive = make([]bool, len(x))
		for i, v := range x {
			p.positive[i] = v > 0
		}
	}
	p.samples++

	negative, underflow := false, false
	for i, v := range x {
		p.min = math.Min(p.min, v)
		if v < 0 {
			negative = true
		}
		if i < len(p.positive) && p.positive[i] && v >= 0 && v < smallestNormal {
			underflow = true
		}
	}
	if negative {
		p.violations++
	}
	if underflow {
		p.underflows++
	}
}

// Value is the smallest component observed, or 0 before any sample.
func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.min
}

func (p *Positivity) Violations() int { return p.violations }
func (p *Positivity) Underflows() int { return p.underflows }

func (p *Positivity) Reset() {
	p.min = math.Inf(1)
	p.violations = 0
	p.underflows = 0
	p.samples = 0
	p.positive = nil
}

// Observe feeds every sample of a trajectory to each metric and returns
// their values by name.
func Observe(traj *dynamo.Trajectory, ms ...dynamo.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, x := range traj.States {
			m.Observe(x, traj.Times[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}
