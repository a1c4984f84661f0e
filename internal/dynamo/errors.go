package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration. Every *IntegrationError unwraps to exactly
// one of these.
var (
	// ErrInvalidInput indicates a malformed time grid, initial state or parameters.
	ErrInvalidInput = errors.New("dynamo: invalid input")

	// ErrNumericalBlowup indicates the state became non-finite or exceeded the magnitude ceiling.
	ErrNumericalBlowup = errors.New("dynamo: numerical blow-up (state diverged)")

	// ErrNonConvergence indicates step-size control could not meet tolerance above the step floor.
	ErrNonConvergence = errors.New("dynamo: adaptive step control did not converge")
)

type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindNumericalBlowup
	KindNonConvergence
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindNumericalBlowup:
		return "NumericalBlowup"
	case KindNonConvergence:
		return "NonConvergence"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNumericalBlowup:
		return ErrNumericalBlowup
	case KindNonConvergence:
		return ErrNonConvergence
	}
	return nil
}

// IntegrationError wraps a failure with the context needed to reproduce it.
//
// Index is the last sample written to the trajectory (-1 if none) and Time is
// that sample's grid time. For InvalidInput, Index points at the offending
// grid entry when there is one. At is the integration time reached when the
// failure was detected. Partial holds the samples produced before a
// NumericalBlowup or NonConvergence; it is nil for InvalidInput.
type IntegrationError struct {
	Kind    Kind
	Index   int
	Time    float64
	At      float64
	State   State
	Partial *Trajectory
	Reason  string
}

func (e *IntegrationError) Error() string {
	base := e.Kind.sentinel()
	msg := "dynamo: integration failed"
	if base != nil {
		msg = base.Error()
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: sample %d (t=%.4f)", msg, e.Index, e.Time)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *IntegrationError) Unwrap() error {
	return e.Kind.sentinel()
}

// InvalidInput builds an InvalidInput error. index is -1 when no grid entry is at fault.
func InvalidInput(index int, format string, args ...any) *IntegrationError {
	return &IntegrationError{
		Kind:   KindInvalidInput,
		Index:  index,
		Reason: fmt.Sprintf(format, args...),
	}
}

// KindOf reports the failure kind carried by err, or 0 if err is not an
// integration failure.
func KindOf(err error) Kind {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNumericalBlowup):
		return KindNumericalBlowup
	case errors.Is(err, ErrNonConvergence):
		return KindNonConvergence
	}
	return 0
}
