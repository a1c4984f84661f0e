package analysis

import (
	"strings"

	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/physics"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds the prey (X) against predator (Y) curve of a run.
type PhasePortrait struct {
	Points      []Point
	Equilibrium *Point
}

func NewPhasePortrait(traj *dynamo.Trajectory) *PhasePortrait {
	if traj == nil {
		return nil
	}
	p := &PhasePortrait{Points: make([]Point, 0, traj.Len())}
	for _, x := range traj.States {
		p.Points = append(p.Points, Point{X: x[physics.Prey], Y: x[physics.Predator]})
	}
	return p
}

// WithEquilibrium marks the interior fixed point of the model on the plot.
func (p *PhasePortrait) WithEquilibrium(lv *physics.LotkaVolterra) *PhasePortrait {
	eq := lv.Equilibrium()
	p.Equilibrium = &Point{X: eq[physics.Prey], Y: eq[physics.Predator]}
	return p
}

// PhasePortraitToASCII draws the portrait on a width x height canvas. The
// first sample is drawn as 'o' and the equilibrium, if set, as '+'.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	if eq := portrait.Equilibrium; eq != nil {
		minX, maxX = min(minX, eq.X), max(maxX, eq.X)
		minY, maxY = min(minY, eq.Y), max(maxY, eq.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	plot := func(p Point, r rune) {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = r
		}
	}

	for _, p := range portrait.Points {
		plot(p, '•')
	}
	plot(portrait.Points[0], 'o')
	if portrait.Equilibrium != nil {
		plot(*portrait.Equilibrium, '+')
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}
