package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lvsim/internal/analysis"
	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/physics"
)

// Downsample picks at most n evenly spaced values, always keeping the last.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}

// PopulationChart plots prey (green) and predator (red) against sample
// index. width is the number of columns of plot area.
func PopulationChart(title string, traj *dynamo.Trajectory, width, height int) string {
	if traj == nil || traj.Len() == 0 {
		return ""
	}
	prey := Downsample(traj.Component(physics.Prey), width)
	pred := Downsample(traj.Component(physics.Predator), width)

	caption := fmt.Sprintf("%s: prey (green) and predator (red), t = %g..%g",
		title, traj.Times[0], traj.Times[traj.Len()-1])
	return asciigraph.PlotMany([][]float64{prey, pred},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
	)
}

// SpectrumChart plots the first bins of a power spectrum.
func SpectrumChart(ps []float64, bins, width, height int) string {
	if len(ps) < 2 {
		return ""
	}
	bins = min(max(bins, 2), len(ps))
	return asciigraph.Plot(ps[:bins],
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("power spectrum (prey), first %d bins", bins)),
	)
}

// SweepChart plots the prey minimum and maximum for each swept value.
// Failed points are drawn at zero.
func SweepChart(name string, points []analysis.SweepPoint, width, height int) string {
	if len(points) < 2 {
		return ""
	}
	lo := make([]float64, len(points))
	hi := make([]float64, len(points))
	for i, p := range points {
		lo[i], hi[i] = p.PreyMin, p.PreyMax
	}
	caption := fmt.Sprintf("prey max (green) and min (red) for %s = %g..%g",
		name, points[0].Value, points[len(points)-1].Value)
	return asciigraph.PlotMany([][]float64{hi, lo},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
	)
}
