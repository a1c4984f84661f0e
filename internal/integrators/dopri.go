package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau. The seventh stage is evaluated at the new
// solution and reused as the first stage of the next step.
var (
	dpC = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}

	dpA = [7][6]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}

	// fifth-order weights minus embedded fourth-order weights
	dpE = [7]float64{
		71.0 / 57600.0,
		0,
		-71.0 / 16695.0,
		71.0 / 1920.0,
		-17253.0 / 339200.0,
		22.0 / 525.0,
		-1.0 / 40.0,
	}

	// continuous extension (Hairer, Norsett & Wanner, dense output of order 4)
	dpD = [7]float64{
		-12715105075.0 / 11282082432.0,
		0,
		87487479700.0 / 32700410799.0,
		-10690763975.0 / 1880347072.0,
		701980252875.0 / 199316789632.0,
		-1453857185.0 / 822651844.0,
		69997945.0 / 29380423.0,
	}
)

// DormandPrince is an embedded adaptive Runge-Kutta integrator of order 5
// with a fourth-order error estimate and dense output. A value holds only
// its configuration and may be used from several goroutines.
type DormandPrince struct {
	opts Options
}

func NewDormandPrince(opts Options) *DormandPrince {
	return &DormandPrince{opts: opts}
}

func (d *DormandPrince) Options() Options { return d.opts }

// stepResult is one attempted step from (t, x) of size h.
type stepResult struct {
	x1    dynamo.State
	k     [7]dynamo.State
	err   float64
	bad   string
	evals int
}

func (d *DormandPrince) attempt(sys dynamo.System, x dynamo.State, t, h float64, k1 dynamo.State, o Options) stepResult {
	n := len(x)
	var r stepResult
	r.k[0] = k1

	for s := 1; s < 7; s++ {
		xs := make(dynamo.State, n)
		for i := 0; i < n; i++ {
			acc := 0.0
			for j := 0; j < s; j++ {
				acc += dpA[s][j] * r.k[j][i]
			}
			xs[i] = x[i] + h*acc
		}
		if s == 6 {
			r.x1 = xs
		}
		r.k[s] = sys.Derive(xs, t+dpC[s]*h)
		r.evals++
		if i := r.k[s].FirstInvalid(); i >= 0 {
			r.bad = fmt.Sprintf("stage %d derivative component %d is %v", s+1, i, r.k[s][i])
			return r
		}
	}
	if i := r.x1.FirstInvalid(); i >= 0 {
		r.bad = fmt.Sprintf("state component %d is %v", i, r.x1[i])
		return r
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		e := 0.0
		for j := 0; j < 7; j++ {
			e += dpE[j] * r.k[j][i]
		}
		sc := o.AbsTol + o.RelTol*math.Max(math.Abs(x[i]), math.Abs(r.x1[i]))
		q := h * e / sc
		sum += q * q
	}
	r.err = math.Sqrt(sum / float64(n))
	return r
}

// Step takes one untested fifth-order step of size dt, so the tableau can
// also be driven by FixedGrid.
func (d *DormandPrince) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	o := d.opts.withDefaults(math.Abs(dt))
	r := d.attempt(sys, x, t, dt, sys.Derive(x, t), o)
	if r.x1 == nil {
		out := make(dynamo.State, len(x))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	return r.x1
}

// denseOutput interpolates inside an accepted step.
type denseOutput struct {
	t0, h float64
	r     [5]dynamo.State
}

func newDenseOutput(x dynamo.State, t, h float64, r stepResult) denseOutput {
	n := len(x)
	var dn denseOutput
	dn.t0, dn.h = t, h
	for i := range dn.r {
		dn.r[i] = make(dynamo.State, n)
	}
	for i := 0; i < n; i++ {
		ydiff := r.x1[i] - x[i]
		bspl := h*r.k[0][i] - ydiff
		dn.r[0][i] = x[i]
		dn.r[1][i] = ydiff
		dn.r[2][i] = bspl
		dn.r[3][i] = ydiff - h*r.k[6][i] - bspl
		acc := 0.0
		for j := 0; j < 7; j++ {
			acc += dpD[j] * r.k[j][i]
		}
		dn.r[4][i] = h * acc
	}
	return dn
}

func (dn denseOutput) at(t float64) dynamo.State {
	theta := (t - dn.t0) / dn.h
	theta1 := 1 - theta
	out := make(dynamo.State, len(dn.r[0]))
	for i := range out {
		out[i] = dn.r[0][i] + theta*(dn.r[1][i]+theta1*(dn.r[2][i]+theta*(dn.r[3][i]+theta1*dn.r[4][i])))
	}
	return out
}

// Integrate solves the initial value problem x(grid[0]) = x0 and returns
// the solution at every grid time. The internal step is chosen
// independently of the grid spacing; samples between step boundaries come
// from the continuous extension.
//
// Failures are *dynamo.IntegrationError values: InvalidInput before any
// stepping, NumericalBlowup when a state turns non-finite or exceeds
// MaxMagnitude, NonConvergence when a rejected step falls below MinStep or
// the MaxSteps budget is spent.
func (d *DormandPrince) Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid []float64) (*dynamo.Trajectory, Stats, error) {
	var stats Stats
	if err := d.opts.Validate(); err != nil {
		return nil, stats, err
	}
	if err := ValidateGrid(grid); err != nil {
		return nil, stats, err
	}
	if err := validateInitial(sys, x0); err != nil {
		return nil, stats, err
	}

	traj := dynamo.NewTrajectory(len(grid))
	traj.Append(grid[0], x0)
	stats.Reached = grid[0]
	if len(grid) == 1 {
		return traj, stats, nil
	}

	t, tEnd := grid[0], grid[len(grid)-1]
	o := d.opts.withDefaults(tEnd - t)
	x := x0.Clone()

	k1 := sys.Derive(x, t)
	stats.Evaluations++
	if i := k1.FirstInvalid(); i >= 0 {
		return nil, stats, failure(dynamo.KindNumericalBlowup, traj, t, x, "initial derivative component %d is %v", i, k1[i])
	}

	h := o.InitialStep
	if h <= 0 {
		h = estimateInitialStep(sys, t, x, k1, o)
		stats.Evaluations++
	}
	h = math.Min(h, o.MaxStep)

	next := 1
	rejected := false
	for next < len(grid) {
		select {
		case <-ctx.Done():
			return nil, stats, fmt.Errorf("integration stopped at t=%.4f: %w", t, ctx.Err())
		default:
		}

		if stats.Attempts >= o.MaxSteps {
			return nil, stats, failure(dynamo.KindNonConvergence, traj, t, x, "step budget of %d attempts exhausted", o.MaxSteps)
		}

		last := false
		if t+1.01*h >= tEnd {
			h = tEnd - t
			last = true
		}

		r := d.attempt(sys, x, t, h, k1, o)
		stats.Attempts++
		stats.Evaluations += r.evals
		if r.bad != "" {
			return nil, stats, failure(dynamo.KindNumericalBlowup, traj, t+h, x, "%s", r.bad)
		}

		factor := o.Safety * math.Pow(math.Max(r.err, 1e-10), -0.2)

		var emitted []dynamo.State
		if r.err <= 1 {
			tNew := t + h
			if last {
				tNew = tEnd
			}
			dense := newDenseOutput(x, t, h, r)
			for j := next; j < len(grid) && grid[j] <= tNew; j++ {
				if grid[j] == tNew {
					emitted = append(emitted, r.x1)
				} else {
					emitted = append(emitted, dense.at(grid[j]))
				}
			}

			if o.NonNegative && (hasNegative(r.x1) || anyNegative(emitted)) {
				// treated as a local error failure: halve and retry
				r.err = math.Inf(1)
				factor = 0.5
			} else {
				for j, s := range append(emitted, r.x1) {
					if reason := checkMagnitude(s, o.MaxMagnitude); reason != "" {
						at := tNew
						if j < len(emitted) {
							at = grid[next+j]
						}
						return nil, stats, failure(dynamo.KindNumericalBlowup, traj, at, s, "%s", reason)
					}
				}
			}
		}

		if r.err <= 1 {
			for _, s := range emitted {
				traj.Append(grid[next], s)
				next++
			}
			stats.recordAccepted(h)

			factor = math.Min(o.MaxScale, factor)
			if rejected {
				factor = math.Min(1, factor)
			}
			rejected = false

			x = r.x1
			k1 = r.k[6]
			t += h
			if last {
				t = tEnd
			}
			stats.Reached = t
			h = math.Min(h*factor, o.MaxStep)
			continue
		}

		stats.Rejected++
		rejected = true
		h *= math.Max(o.MinScale, math.Min(factor, 1))
		floor := math.Max(o.MinStep, 16*epsilon*math.Abs(t))
		if h < floor {
			reason := fmt.Sprintf("step %.3g below floor %.3g (error ratio %.3g)", h, floor, r.err)
			if math.IsInf(r.err, 1) {
				reason = fmt.Sprintf("step %.3g below floor %.3g while keeping populations non-negative", h, floor)
			}
			return nil, stats, failure(dynamo.KindNonConvergence, traj, t, x, "%s", reason)
		}
	}

	return traj, stats, nil
}

const epsilon = 2.220446049250313e-16

func hasNegative(x dynamo.State) bool {
	for _, v := range x {
		if v < 0 {
			return true
		}
	}
	return false
}

func anyNegative(xs []dynamo.State) bool {
	for _, x := range xs {
		if hasNegative(x) {
			return true
		}
	}
	return false
}

// estimateInitialStep follows the usual starting-step heuristic: balance
// the first and second derivative norms against the tolerance.
//
// A component at or near zero would make a tiny AbsTol dominate the scale,
// so the scale is floored at a thousandth of the relative tolerance applied
// to the largest component.
func estimateInitialStep(sys dynamo.System, t float64, x, f0 dynamo.State, o Options) float64 {
	n := len(x)
	floor := o.RelTol * x.MaxAbs() * 1e-3
	sk := make([]float64, n)
	dnf, dny := 0.0, 0.0
	for i := 0; i < n; i++ {
		sk[i] = math.Max(o.AbsTol+o.RelTol*math.Abs(x[i]), floor)
		dnf += (f0[i] / sk[i]) * (f0[i] / sk[i])
		dny += (x[i] / sk[i]) * (x[i] / sk[i])
	}

	var h float64
	if math.Min(dnf, dny) < 1e-10 {
		h = 1e-6
	} else {
		h = 1e-2 * math.Sqrt(dny/dnf)
	}
	if !(h > 0) || math.IsInf(h, 0) {
		// the scaled norms overflowed
		h = 1e-6
	}
	h = math.Min(h, o.MaxStep)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + h*f0[i]
	}
	f2 := sys.Derive(x2, t+h)

	der2 := 0.0
	for i := 0; i < n; i++ {
		d := (f2[i] - f0[i]) / sk[i]
		der2 += d * d
	}
	der2 = math.Sqrt(der2) / h
	der12 := math.Max(der2, math.Sqrt(dnf))

	var h1 float64
	if der12 <= 1e-15 || math.IsNaN(der12) {
		h1 = math.Max(1e-6, h*1e-3)
	} else {
		h1 = math.Pow(1e-2/der12, 1.0/5.0)
	}
	if !(h1 > 0) {
		h1 = math.Max(1e-6, h*1e-3)
	}
	return math.Min(100*h, math.Min(h1, o.MaxStep))
}
