package integrators

import "github.com/san-kum/lvsim/internal/dynamo"

// Euler is the explicit first-order scheme. It is kept as a baseline for
// comparing invariant drift.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t float64, dt float64) dynamo.State {
	return x.Add(sys.Derive(x, t).Scale(dt))
}
