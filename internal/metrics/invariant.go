package metrics

import (
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
)

// InvariantDrift tracks the largest deviation of a conserved quantity from
// its value at the first observed sample. Drift is relative when the initial
// value is larger than one in magnitude and absolute otherwise, so orbits
// with H near zero are not penalised.
type InvariantDrift struct {
	name     string
	inv      dynamo.Invariant
	initial  float64
	current  float64
	maxDrift float64
	samples  int
	skipped  int
}

func NewInvariantDrift(inv dynamo.Invariant) *InvariantDrift {
	return &InvariantDrift{
		name: "invariant_drift",
		inv:  inv,
	}
}

func (d *InvariantDrift) Name() string { return d.name }

func (d *InvariantDrift) Observe(x dynamo.State, t float64) {
	h := d.inv.Invariant(x)
	if math.IsNaN(h) || math.IsInf(h, 0) {
		d.skipped++
		return
	}

	if d.samples == 0 {
		d.initial = h
	}
	d.current = h
	d.samples++

	drift := math.Abs(h-d.initial) / math.Max(1, math.Abs(d.initial))
	d.maxDrift = math.Max(d.maxDrift, drift)
}

func (d *InvariantDrift) Value() float64 {
	return d.maxDrift
}

// Initial and Final are the invariant at the first and last finite samples.
func (d *InvariantDrift) Initial() float64 { return d.initial }
func (d *InvariantDrift) Final() float64   { return d.current }

// Skipped counts samples where the invariant was undefined, such as a zero
// population.
func (d *InvariantDrift) Skipped() int { return d.skipped }

func (d *InvariantDrift) Reset() {
	d.initial = 0
	d.current = 0
	d.maxDrift = 0
	d.samples = 0
	d.skipped = 0
}
