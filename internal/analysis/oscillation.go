package analysis

import (
	"fmt"

	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/physics"
)

// Extremum is a local peak or trough of a sampled series.
type Extremum struct {
	Index int
	Time  float64
	Value float64
	Peak  bool
}

func (e Extremum) String() string {
	kind := "trough"
	if e.Peak {
		kind = "peak"
	}
	return fmt.Sprintf("%s %.4f at t=%.4f", kind, e.Value, e.Time)
}

// Extrema returns the interior local extrema of values in time order. A
// plateau counts once, at its first sample. The end points are never
// reported.
func Extrema(times, values []float64) []Extremum {
	n := min(len(times), len(values))
	var out []Extremum
	for i := 1; i < n-1; i++ {
		prev, cur := values[i-1], values[i]
		if cur == prev {
			continue
		}
		j := i + 1
		for j < n-1 && values[j] == cur {
			j++
		}
		next := values[j]
		switch {
		case cur > prev && cur > next:
			out = append(out, Extremum{Index: i, Time: times[i], Value: cur, Peak: true})
		case cur < prev && cur < next:
			out = append(out, Extremum{Index: i, Time: times[i], Value: cur})
		}
	}
	return out
}

func Peaks(times, values []float64) []Extremum {
	return filter(Extrema(times, values), true)
}

func Troughs(times, values []float64) []Extremum {
	return filter(Extrema(times, values), false)
}

func filter(es []Extremum, peak bool) []Extremum {
	var out []Extremum
	for _, e := range es {
		if e.Peak == peak {
			out = append(out, e)
		}
	}
	return out
}

// Cycle is one full predator-prey oscillation.
type Cycle struct {
	PreyPeak     Extremum
	PredatorPeak Extremum
	PreyTrough   Extremum
}

func (c Cycle) String() string {
	return fmt.Sprintf("prey %s -> predator %s -> prey %s", c.PreyPeak, c.PredatorPeak, c.PreyTrough)
}

// FindCycle looks for the first prey peak that is followed by a predator
// peak and then a prey trough.
func FindCycle(traj *dynamo.Trajectory) (Cycle, bool) {
	if traj == nil || traj.Len() < 3 {
		return Cycle{}, false
	}
	prey := traj.Component(physics.Prey)
	pred := traj.Component(physics.Predator)

	preyPeaks := Peaks(traj.Times, prey)
	predPeaks := Peaks(traj.Times, pred)
	preyTroughs := Troughs(traj.Times, prey)

	for _, pp := range preyPeaks {
		qp, ok := firstAfter(predPeaks, pp.Index)
		if !ok {
			return Cycle{}, false
		}
		tr, ok := firstAfter(preyTroughs, qp.Index)
		if !ok {
			return Cycle{}, false
		}
		return Cycle{PreyPeak: pp, PredatorPeak: qp, PreyTrough: tr}, true
	}
	return Cycle{}, false
}

func firstAfter(es []Extremum, index int) (Extremum, bool) {
	for _, e := range es {
		if e.Index > index {
			return e, true
		}
	}
	return Extremum{}, false
}

// CountCycles counts non-overlapping prey peak, predator peak, prey trough
// sequences.
func CountCycles(traj *dynamo.Trajectory) int {
	if traj == nil || traj.Len() < 3 {
		return 0
	}
	preyPeaks := Peaks(traj.Times, traj.Component(physics.Prey))
	predPeaks := Peaks(traj.Times, traj.Component(physics.Predator))
	preyTroughs := Troughs(traj.Times, traj.Component(physics.Prey))

	count, from := 0, -1
	for {
		pp, ok := firstAfter(preyPeaks, from)
		if !ok {
			return count
		}
		qp, ok := firstAfter(predPeaks, pp.Index)
		if !ok {
			return count
		}
		tr, ok := firstAfter(preyTroughs, qp.Index)
		if !ok {
			return count
		}
		count++
		from = tr.Index
	}
}

// PeakPeriod is the mean spacing of successive peaks. It needs at least two
// peaks.
func PeakPeriod(times, values []float64) (float64, bool) {
	peaks := Peaks(times, values)
	if len(peaks) < 2 {
		return 0, false
	}
	span := peaks[len(peaks)-1].Time - peaks[0].Time
	return span / float64(len(peaks)-1), true
}

// Range returns the smallest and largest value.
func Range(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
