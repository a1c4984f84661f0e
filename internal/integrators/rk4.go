package integrators

import "github.com/san-kum/lvsim/internal/dynamo"

// RK4 is the classic fixed-step fourth-order Runge-Kutta scheme. Stage
// states are fresh values on every step so one RK4 may be shared across
// goroutines.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	half := dt * 0.5

	k1 := sys.Derive(x, t)
	k2 := sys.Derive(x.Add(k1.Scale(half)), t+half)
	k3 := sys.Derive(x.Add(k2.Scale(half)), t+half)
	k4 := sys.Derive(x.Add(k3.Scale(dt)), t+dt)

	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return x.Add(sum.Scale(dt / 6.0))
}
