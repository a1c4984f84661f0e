// Package analysis inspects sampled predator-prey trajectories.
//
//   - [Extrema] and [FindCycle]: local peaks and troughs, and the first full
//     oscillation (prey peak, then predator peak, then prey trough)
//   - [PeakPeriod] and [DominantPeriod]: period estimates from peak spacing
//     and from the power spectrum
//   - [PhasePortrait] and [PhasePortraitToASCII]: prey/predator phase plane
//   - [Sweep]: coefficient sweep recording the prey range per value
//
// Nothing here integrates on its own except [Sweep], which drives a
// caller-supplied run function.
package analysis
