package analysis

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/physics"
)

// RunFunc integrates one parameter set and returns its trajectory.
type RunFunc func(ctx context.Context, p physics.Params) (*dynamo.Trajectory, error)

// SweepPoint is the population range observed for one coefficient value.
// Err is set when that run failed; the ranges are then zero.
type SweepPoint struct {
	Value       float64
	Params      physics.Params
	PreyMin     float64
	PreyMax     float64
	PredatorMin float64
	PredatorMax float64
	Cycles      int
	Err         error
}

// Sweep varies one coefficient over [lo, hi] in steps values and records
// the range of both populations for each. Runs are independent and are
// spread over GOMAXPROCS goroutines. A failing run is recorded on its
// point; only cancellation aborts the sweep.
func Sweep(ctx context.Context, base physics.Params, name string, lo, hi float64, steps int, run RunFunc) ([]SweepPoint, error) {
	if steps < 2 {
		steps = 2
	}
	points := make([]SweepPoint, steps)
	stride := (hi - lo) / float64(steps-1)
	for i := range points {
		lv := physics.NewLotkaVolterra(base)
		v := lo + float64(i)*stride
		if err := lv.SetParam(name, v); err != nil {
			return nil, err
		}
		points[i] = SweepPoint{Value: v, Params: lv.Params()}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range points {
		pt := &points[i]
		g.Go(func() error {
			traj, err := run(gctx, pt.Params)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				pt.Err = err
				return nil
			}
			pt.PreyMin, pt.PreyMax = Range(traj.Component(physics.Prey))
			pt.PredatorMin, pt.PredatorMax = Range(traj.Component(physics.Predator))
			pt.Cycles = CountCycles(traj)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
