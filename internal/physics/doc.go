// Package physics provides the vector fields integrated by the engine.
//
// [LotkaVolterra] implements [dynamo.System] for the two-species
// predator-prey model:
//
//	dx/dt = alpha*x - beta*x*y
//	dy/dt = delta*x*y - gamma*y
//
// where x is the prey population and y the predator population. It also
// implements [dynamo.Invariant], exposing the quantity
//
//	H = delta*x - gamma*ln(x) + beta*y - alpha*ln(y)
//
// which is constant along exact solutions and is used to measure drift.
//
// # Coefficients
//
// All four coefficients are expected to be strictly positive. Zero or
// negative values are accepted but produce degenerate dynamics: populations
// decay monotonically or grow without bound instead of cycling.
package physics
