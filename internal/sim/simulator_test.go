package sim_test

import (
	"context"
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lvsim/internal/analysis"
	"github.com/san-kum/lvsim/internal/dynamo"
	"github.com/san-kum/lvsim/internal/integrators"
	"github.com/san-kum/lvsim/internal/physics"
	"github.com/san-kum/lvsim/internal/sim"
)

var (
	foxesHares  = physics.Params{Alpha: 1.0, Beta: 0.2, Gamma: 1.0, Delta: 0.1}
	wolvesElk   = physics.Params{Alpha: 0.1, Beta: 0.02, Gamma: 0.05, Delta: 0.01}
	defaultOpts = integrators.DefaultOptions()
)

func expectPositive(traj *dynamo.Trajectory) {
	for i, x := range traj.States {
		Expect(x.IsValid()).To(BeTrue(), "sample %d not finite: %v", i, x)
		Expect(x[physics.Prey]).To(BeNumerically(">", 0), "prey at sample %d", i)
		Expect(x[physics.Predator]).To(BeNumerically(">", 0), "predator at sample %d", i)
	}
}

var _ = Describe("Integrate", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Foxes vs Hares", func() {
		var (
			grid   []float64
			result *sim.Result
		)

		BeforeEach(func() {
			grid = integrators.Linspace(0, 50, 1000)
			var err error
			result, err = sim.Integrate(ctx, foxesHares, sim.Populations{Prey: 5, Predator: 10}, grid, defaultOpts)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports one state per grid time", func() {
			Expect(result.Trajectory.Len()).To(Equal(1000))
			Expect(result.Trajectory.Times).To(Equal(grid))
			Expect(result.Trajectory.States[0]).To(Equal(dynamo.State{5, 10}))
		})

		It("completes a full oscillation", func() {
			c, ok := analysis.FindCycle(result.Trajectory)
			Expect(ok).To(BeTrue())
			Expect(c.PreyPeak.Time).To(BeNumerically("~", 5.21, 0.1))
			Expect(c.PredatorPeak.Time).To(BeNumerically("~", 6.26, 0.1))
			Expect(c.PreyTrough.Time).To(BeNumerically("~", 7.91, 0.1))
			Expect(analysis.CountCycles(result.Trajectory)).To(BeNumerically(">=", 6))
		})

		It("keeps both populations positive", func() {
			expectPositive(result.Trajectory)
			Expect(result.Metrics["min_population"]).To(BeNumerically(">", 1))
		})

		It("conserves H within a small multiple of the tolerance", func() {
			Expect(result.ConservationError()).To(BeNumerically("<", 1e3*defaultOpts.RelTol))
			Expect(result.InvariantDrift).To(BeNumerically("<", 1e3*defaultOpts.RelTol))
			Expect(result.Degenerate).To(BeFalse())
		})

		It("oscillates with a period near 6.8", func() {
			p, ok := analysis.PeakPeriod(result.Trajectory.Times, result.Prey())
			Expect(ok).To(BeTrue())
			Expect(p).To(BeNumerically("~", 6.8, 0.1))
		})
	})

	Describe("Wolves vs Elk", func() {
		It("closes its orbit over the long horizon", func() {
			grid := integrators.Linspace(0, 200, 1000)
			result, err := sim.Integrate(ctx, wolvesElk, sim.Populations{Prey: 10, Predator: 10}, grid, defaultOpts)
			Expect(err).NotTo(HaveOccurred())

			c, ok := analysis.FindCycle(result.Trajectory)
			Expect(ok).To(BeTrue())
			Expect(c.PreyPeak.Time).To(BeNumerically("~", 91.09, 0.5))
			Expect(c.PredatorPeak.Time).To(BeNumerically("~", 105.11, 0.5))
			Expect(c.PreyTrough.Time).To(BeNumerically("~", 130.93, 0.5))

			expectPositive(result.Trajectory)
			Expect(result.ConservationError()).To(BeNumerically("<", 1e3*defaultOpts.RelTol))
		})

		It("takes far fewer internal steps than samples", func() {
			grid := integrators.Linspace(0, 200, 1000)
			result, err := sim.Integrate(ctx, wolvesElk, sim.Populations{Prey: 10, Predator: 10}, grid, defaultOpts)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stats.Accepted).To(BeNumerically("<", 500))
			Expect(result.Metrics["accepted_steps"]).To(BeNumerically("==", result.Stats.Accepted))
		})
	})

	It("tightens conservation with the tolerance", func() {
		opts := integrators.DefaultOptions()
		opts.RelTol = 1e-10
		opts.AbsTol = 1e-12
		result, err := sim.Integrate(ctx, foxesHares, sim.Populations{Prey: 5, Predator: 10},
			integrators.Linspace(0, 50, 1000), opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.ConservationError()).To(BeNumerically("<", 1e-7))
	})

	It("is deterministic", func() {
		grid := integrators.Linspace(0, 50, 1000)
		a, err := sim.Integrate(ctx, foxesHares, sim.Populations{Prey: 5, Predator: 10}, grid, defaultOpts)
		Expect(err).NotTo(HaveOccurred())
		b, err := sim.Integrate(ctx, foxesHares, sim.Populations{Prey: 5, Predator: 10}, grid, defaultOpts)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Trajectory.States).To(Equal(a.Trajectory.States))
		Expect(b.Stats).To(Equal(a.Stats))
	})

	It("stays at the zero fixed point", func() {
		p := physics.Params{Alpha: 0.5, Beta: 0.5, Gamma: 0.5, Delta: 0.5}
		grid := integrators.Linspace(0, 10, 50)
		result, err := sim.Integrate(ctx, p, sim.Populations{}, grid, defaultOpts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Trajectory.Len()).To(Equal(50))
		for _, x := range result.Trajectory.States {
			Expect(x).To(Equal(dynamo.State{0, 0}))
		}
	})

	It("returns the initial state alone for a single-point grid", func() {
		result, err := sim.Integrate(ctx, foxesHares, sim.Populations{Prey: 7, Predator: 3}, []float64{2.5}, defaultOpts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Trajectory.Times).To(Equal([]float64{2.5}))
		Expect(result.Trajectory.States).To(Equal([]dynamo.State{{7, 3}}))
		Expect(result.Stats.Accepted).To(BeZero())
	})

	It("accepts degenerate coefficients and flags them", func() {
		p := physics.Params{Alpha: 0, Beta: 0.2, Gamma: 1, Delta: 0.1}
		result, err := sim.Integrate(ctx, p, sim.Populations{Prey: 5, Predator: 10},
			integrators.Linspace(0, 50, 200), defaultOpts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Degenerate).To(BeTrue())

		final := result.Trajectory.Final()
		Expect(final[physics.Predator]).To(BeNumerically("<", 10))
		Expect(final[physics.Prey]).To(BeNumerically(">=", 0))
		Expect(final[physics.Prey]).To(BeNumerically("<", 5))
	})

	DescribeTable("rejects invalid input before stepping",
		func(p physics.Params, initial sim.Populations, grid []float64) {
			result, err := sim.Integrate(ctx, p, initial, grid, defaultOpts)
			Expect(result).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrInvalidInput))
			Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindInvalidInput))

			var ie *dynamo.IntegrationError
			Expect(errors.As(err, &ie)).To(BeTrue())
			Expect(ie.Partial).To(BeNil())
		},
		Entry("decreasing grid", foxesHares, sim.Populations{Prey: 5, Predator: 10}, []float64{5, 3, 4}),
		Entry("empty grid", foxesHares, sim.Populations{Prey: 5, Predator: 10}, []float64{}),
		Entry("repeated time", foxesHares, sim.Populations{Prey: 5, Predator: 10}, []float64{0, 1, 1}),
		Entry("NaN coefficient", physics.Params{Alpha: math.NaN(), Beta: 1, Gamma: 1, Delta: 1},
			sim.Populations{Prey: 5, Predator: 10}, []float64{0, 1}),
		Entry("infinite prey", foxesHares, sim.Populations{Prey: math.Inf(1), Predator: 10}, []float64{0, 1}),
		Entry("negative predator", foxesHares, sim.Populations{Prey: 5, Predator: -1}, []float64{0, 1}),
	)

	It("reports the offending grid index", func() {
		_, err := sim.Integrate(ctx, foxesHares, sim.Populations{Prey: 5, Predator: 10}, []float64{5, 3, 4}, defaultOpts)
		var ie *dynamo.IntegrationError
		Expect(errors.As(err, &ie)).To(BeTrue())
		Expect(ie.Index).To(Equal(1))
		Expect(ie.Time).To(Equal(3.0))
	})

	It("is safe to call concurrently", func() {
		params := []physics.Params{
			foxesHares,
			wolvesElk,
			{Alpha: 0.1, Beta: 0.1, Gamma: 0.1, Delta: 0.1},
			{Alpha: 2, Beta: 0.5, Gamma: 1.5, Delta: 0.3},
		}
		grid := integrators.Linspace(0, 100, 1000)
		initial := sim.Populations{Prey: 5, Predator: 10}

		want := make([]*sim.Result, len(params))
		for i, p := range params {
			r, err := sim.Integrate(ctx, p, initial, grid, defaultOpts)
			Expect(err).NotTo(HaveOccurred())
			want[i] = r
		}

		got := make([]*sim.Result, 4*len(params))
		errs := make([]error, len(got))
		var wg sync.WaitGroup
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i], errs[i] = sim.Integrate(ctx, params[i%len(params)], initial, grid, defaultOpts)
			}(i)
		}
		wg.Wait()

		for i := range got {
			Expect(errs[i]).NotTo(HaveOccurred())
			Expect(got[i].Trajectory.States).To(Equal(want[i%len(params)].Trajectory.States))
		}
	})

	It("stops when the context is canceled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sim.Integrate(cctx, foxesHares, sim.Populations{Prey: 5, Predator: 10},
			integrators.Linspace(0, 50, 1000), defaultOpts)
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Operating envelope", func() {
	corners := []float64{0.01, 2.0}
	starts := []sim.Populations{{Prey: 1, Predator: 1}, {Prey: 1, Predator: 20}, {Prey: 20, Predator: 1}, {Prey: 20, Predator: 20}}

	It("either conserves H or flags an underflowed trough at every corner over 200 time units", func() {
		grid := integrators.Linspace(0, 200, 1000)
		underflowed := 0
		for _, a := range corners {
			for _, b := range corners {
				for _, c := range corners {
					for _, d := range corners {
						p := physics.Params{Alpha: a, Beta: b, Gamma: c, Delta: d}
						for _, x0 := range starts {
							result, err := sim.Integrate(context.Background(), p, x0, grid, defaultOpts)
							Expect(err).NotTo(HaveOccurred(), "%s from %+v", p, x0)
							Expect(result.Trajectory.Len()).To(Equal(len(grid)))
							Expect(result.Metrics["min_population"]).To(BeNumerically(">=", 0), "%s from %+v", p, x0)
							for _, x := range result.Trajectory.States {
								Expect(x.IsValid()).To(BeTrue())
							}

							if result.Underflow {
								underflowed++
								Expect(result.Metrics["underflow_samples"]).To(BeNumerically(">", 0))
								continue
							}
							expectPositive(result.Trajectory)
							Expect(result.InvariantDrift).To(BeNumerically("<", 2e-3), "%s from %+v", p, x0)
						}
					}
				}
			}
		}
		Expect(underflowed).To(BeNumerically(">", 0))
	})

	DescribeTable("conserves H on orbits with deep troughs",
		func(p physics.Params, x0 sim.Populations, horizon float64) {
			result, err := sim.Integrate(context.Background(), p, x0, integrators.Linspace(0, horizon, 1000), defaultOpts)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Underflow).To(BeFalse())
			expectPositive(result.Trajectory)
			Expect(result.InvariantDrift).To(BeNumerically("<=", 50*defaultOpts.RelTol))
		},
		Entry("trough near 1e-74", physics.Params{Alpha: 1.5738, Beta: 1.2487, Gamma: 0.2418, Delta: 1.9554}, sim.Populations{Prey: 18, Predator: 9}, 200.0),
		Entry("trough near 1e-85", physics.Params{Alpha: 1.41, Beta: 1.37, Gamma: 0.15, Delta: 1.27}, sim.Populations{Prey: 18, Predator: 8}, 50.0),
		Entry("trough near 1e-29", physics.Params{Alpha: 1.4, Beta: 0.69, Gamma: 0.32, Delta: 1.91}, sim.Populations{Prey: 11, Predator: 4}, 15.0),
		Entry("trough near 1e-24", physics.Params{Alpha: 1.19, Beta: 0.07, Gamma: 0.2, Delta: 0.47}, sim.Populations{Prey: 20, Predator: 1}, 50.0),
		Entry("trough near 1e-14", physics.Params{Alpha: 1.95, Beta: 0.76, Gamma: 1.11, Delta: 1.66}, sim.Populations{Prey: 20, Predator: 12}, 50.0),
		Entry("trough near 1e-11", physics.Params{Alpha: 0.43, Beta: 1.0, Gamma: 1.77, Delta: 1.29}, sim.Populations{Prey: 5, Predator: 9}, 50.0),
		Entry("many cycles", physics.Params{Alpha: 0.77, Beta: 0.91, Gamma: 1.67, Delta: 0.33}, sim.Populations{Prey: 12, Predator: 7}, 100.0),
		Entry("shallow orbit", physics.Params{Alpha: 0.47, Beta: 0.07, Gamma: 0.64, Delta: 0.54}, sim.Populations{Prey: 7, Predator: 19}, 100.0),
	)

	It("flags a trough below float64 range", func() {
		// the exact predator minimum on this orbit is around e^-4190
		p := physics.Params{Alpha: 0.01, Beta: 2, Gamma: 0.01, Delta: 2}
		result, err := sim.Integrate(context.Background(), p, sim.Populations{Prey: 20, Predator: 1},
			integrators.Linspace(0, 200, 1000), defaultOpts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Underflow).To(BeTrue())
		Expect(result.Metrics["underflow_samples"]).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Simulator", func() {
	It("selects the fixed-step methods", func() {
		grid := integrators.Linspace(0, 15, 300)
		initial := sim.Populations{Prey: 5, Predator: 10}
		lv := physics.NewLotkaVolterra(foxesHares)
		h0 := lv.Invariant(initial.State())

		drift := map[sim.Method]float64{}
		for _, m := range sim.Methods() {
			cfg := sim.DefaultConfig()
			cfg.Method = m
			result, err := sim.New(cfg).Run(context.Background(), foxesHares, initial, grid)
			Expect(err).NotTo(HaveOccurred(), string(m))
			Expect(result.Trajectory.Len()).To(Equal(300))
			drift[m] = math.Abs(lv.Invariant(result.Trajectory.Final()) - h0)
		}

		Expect(drift[sim.MethodDormandPrince]).To(BeNumerically("<", drift[sim.MethodEuler]))
		Expect(drift[sim.MethodRK4]).To(BeNumerically("<", drift[sim.MethodEuler]))
	})

	It("measures deviation from a tighter reference run", func() {
		grid := integrators.Linspace(0, 15, 300)
		initial := sim.Populations{Prey: 5, Predator: 10}

		refCfg := sim.DefaultConfig()
		refCfg.Options.RelTol = 1e-10
		ref, err := sim.New(refCfg).Run(context.Background(), foxesHares, initial, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(ref.Deviation(ref)).To(BeZero())

		dev := map[sim.Method]float64{}
		for _, m := range sim.Methods() {
			cfg := sim.DefaultConfig()
			cfg.Method = m
			result, err := sim.New(cfg).Run(context.Background(), foxesHares, initial, grid)
			Expect(err).NotTo(HaveOccurred(), string(m))
			dev[m] = result.Deviation(ref)
		}

		Expect(dev[sim.MethodDormandPrince]).To(BeNumerically("<", 0.05))
		Expect(dev[sim.MethodRK4]).To(BeNumerically("<", dev[sim.MethodEuler]))
		Expect(dev[sim.MethodDormandPrince]).To(BeNumerically("<", dev[sim.MethodEuler]))
	})

	It("rejects an unknown method", func() {
		cfg := sim.DefaultConfig()
		cfg.Method = "leapfrog"
		_, err := sim.New(cfg).Run(context.Background(), foxesHares, sim.Populations{Prey: 5, Predator: 10}, []float64{0, 1})
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))

		_, err = sim.ParseMethod("leapfrog")
		Expect(err).To(HaveOccurred())
		m, err := sim.ParseMethod("RK4")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(sim.MethodRK4))
	})

	It("runs a scenario window and horizon", func() {
		sc := sim.Scenario{
			Name:    "Foxes vs Hares",
			Params:  foxesHares,
			Initial: sim.Populations{Prey: 5, Predator: 10},
			Horizon: 50,
		}
		res, err := sim.New(sim.DefaultConfig()).RunScenario(context.Background(), sc)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Window.Trajectory.Len()).To(Equal(sim.DefaultSamples))
		Expect(res.Full.Trajectory.Len()).To(Equal(sim.DefaultSamples))
		Expect(res.Window.Trajectory.Times[sim.DefaultSamples-1]).To(Equal(sim.WindowHorizon))
		Expect(res.Full.Trajectory.Times[sim.DefaultSamples-1]).To(Equal(50.0))
	})

	It("fails a scenario without a horizon", func() {
		_, err := sim.New(sim.DefaultConfig()).RunScenario(context.Background(), sim.Scenario{Name: "empty", Params: foxesHares})
		Expect(err).To(MatchError(ContainSubstring("horizon must be positive")))
	})
})
