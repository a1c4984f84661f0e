package integrators

import (
	"math"

	"github.com/san-kum/lvsim/internal/dynamo"
)

// Options controls the adaptive integrator. Zero values select defaults,
// except NonNegative which is opt-in.
type Options struct {
	// RelTol and AbsTol bound the local error of each accepted step:
	// |err_i| <= AbsTol + RelTol*max(|x_i|, |x_i'|) in the RMS sense.
	// AbsTol only takes over for components smaller than AbsTol/RelTol, so
	// the default keeps control relative down to the smallest normal float.
	RelTol float64
	AbsTol float64

	// InitialStep, if > 0, is used for the first step attempt. Otherwise
	// it is estimated from the vector field at the initial state.
	InitialStep float64

	// MinStep is the step floor. A step rejected below it fails the call
	// with NonConvergence.
	MinStep float64

	// MaxStep caps the internal step. Zero means the full grid span.
	MaxStep float64

	// MaxSteps bounds the number of step attempts, accepted or rejected.
	MaxSteps int

	// MaxMagnitude is the ceiling on any state component. Exceeding it is
	// reported as NumericalBlowup.
	MaxMagnitude float64

	// NonNegative rejects steps that produce a negative component, for
	// systems whose exact solution cannot leave the positive orthant.
	NonNegative bool

	Safety   float64
	MinScale float64
	MaxScale float64
}

const (
	DefaultRelTol       = 1e-6
	DefaultAbsTol       = 1e-300
	DefaultMinStep      = 1e-10
	DefaultMaxSteps     = 200000
	DefaultMaxMagnitude = 1e12
)

func DefaultOptions() Options {
	return Options{
		RelTol:       DefaultRelTol,
		AbsTol:       DefaultAbsTol,
		MinStep:      DefaultMinStep,
		MaxSteps:     DefaultMaxSteps,
		MaxMagnitude: DefaultMaxMagnitude,
		Safety:       0.9,
		MinScale:     0.2,
		MaxScale:     10.0,
	}
}

// withDefaults fills zero fields. span is the length of the time grid.
func (o Options) withDefaults(span float64) Options {
	d := DefaultOptions()
	if o.RelTol == 0 {
		o.RelTol = d.RelTol
	}
	if o.AbsTol == 0 {
		o.AbsTol = d.AbsTol
	}
	if o.MinStep == 0 {
		o.MinStep = d.MinStep
	}
	if o.MaxStep == 0 || o.MaxStep > span {
		o.MaxStep = span
	}
	if o.MaxSteps == 0 {
		o.MaxSteps = d.MaxSteps
	}
	if o.MaxMagnitude == 0 {
		o.MaxMagnitude = d.MaxMagnitude
	}
	if o.Safety == 0 {
		o.Safety = d.Safety
	}
	if o.MinScale == 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale == 0 {
		o.MaxScale = d.MaxScale
	}
	return o
}

// Validate rejects negative or non-finite settings.
func (o Options) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"rtol", o.RelTol},
		{"atol", o.AbsTol},
		{"initial step", o.InitialStep},
		{"min step", o.MinStep},
		{"max step", o.MaxStep},
		{"max magnitude", o.MaxMagnitude},
		{"safety", o.Safety},
		{"min scale", o.MinScale},
		{"max scale", o.MaxScale},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return dynamo.InvalidInput(-1, "%s must be finite and non-negative, got %g", f.name, f.v)
		}
	}
	if o.MaxSteps < 0 {
		return dynamo.InvalidInput(-1, "max steps must be non-negative, got %d", o.MaxSteps)
	}
	if o.Safety >= 1 {
		return dynamo.InvalidInput(-1, "safety factor must be below 1, got %g", o.Safety)
	}
	if o.MinScale > 1 || (o.MaxScale != 0 && o.MaxScale < 1) {
		return dynamo.InvalidInput(-1, "step scale bounds must satisfy min <= 1 <= max")
	}
	return nil
}

// Stats reports the work done by one integration call.
type Stats struct {
	Attempts    int
	Accepted    int
	Rejected    int
	Evaluations int
	// SmallestStep and LargestStep are over accepted steps.
	SmallestStep float64
	LargestStep  float64
	// Reached is the integration time when the call returned.
	Reached float64
}

func (s *Stats) recordAccepted(h float64) {
	s.Accepted++
	if s.SmallestStep == 0 || h < s.SmallestStep {
		s.SmallestStep = h
	}
	if h > s.LargestStep {
		s.LargestStep = h
	}
}
