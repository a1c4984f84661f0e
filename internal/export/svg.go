package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/lvsim/internal/analysis"
	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/physics"
)

const (
	PreyColor     = "#4caf50"
	PredatorColor = "#ff7043"
)

type bounds struct {
	minX, minY, rangeX, rangeY float64
}

func boundsOf(points []analysis.Point) bounds {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return bounds{
		minX:   minX - rangeX*0.05,
		minY:   minY - rangeY*0.05,
		rangeX: rangeX * 1.1,
		rangeY: rangeY * 1.1,
	}
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func writePath(sb *strings.Builder, points []analysis.Point, b bounds, width, height int, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i, p := range points {
		x := (p.X - b.minX) / b.rangeX * float64(width)
		y := float64(height) - (p.Y-b.minY)/b.rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// PhaseSVG draws the prey/predator curve as a single path.
func PhaseSVG(portrait *analysis.PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}
	var sb strings.Builder
	header(&sb, width, height)
	writePath(&sb, portrait.Points, boundsOf(portrait.Points), width, height, PredatorColor)
	sb.WriteString("</svg>\n")
	return sb.String()
}

// SeriesSVG draws both populations against time on shared axes.
func SeriesSVG(traj *dynamo.Trajectory, width, height int) string {
	if traj == nil || traj.Len() < 2 {
		return ""
	}
	prey := make([]analysis.Point, traj.Len())
	pred := make([]analysis.Point, traj.Len())
	for i, x := range traj.States {
		prey[i] = analysis.Point{X: traj.Times[i], Y: x[physics.Prey]}
		pred[i] = analysis.Point{X: traj.Times[i], Y: x[physics.Predator]}
	}
	b := boundsOf(append(append([]analysis.Point{}, prey...), pred...))

	var sb strings.Builder
	header(&sb, width, height)
	writePath(&sb, prey, b, width, height, PreyColor)
	writePath(&sb, pred, b, width, height, PredatorColor)
	sb.WriteString("</svg>\n")
	return sb.String()
}
