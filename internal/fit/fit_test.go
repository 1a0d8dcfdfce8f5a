package fit_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/event"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/integrators"
	"github.com/san-kum/trajfit/internal/optim"
	"github.com/san-kum/trajfit/internal/physics"
	"github.com/san-kum/trajfit/internal/sim"
)

func newSim(kind physics.Kind) *sim.Simulator {
	sys, err := physics.New(kind, physics.DefaultParams())
	Expect(err).NotTo(HaveOccurred())
	return sim.New(sys, integrators.NewRK45(), integrators.DefaultOptions(), event.DefaultRefiner())
}

type memorySink struct {
	samples int
	closed  bool
	failOn  error
}

func (m *memorySink) Record(float64, dynamo.State) error {
	m.samples++
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return m.failOn
}

var _ = Describe("Observation", func() {
	It("measures ground distance and launch height", func() {
		obs := fit.ReferenceObservation()
		Expect(obs.Distance()).To(Equal(25.0))
		Expect(obs.Height()).To(Equal(1.0))
	})

	It("ignores the vertical coordinate of the bounce", func() {
		obs := fit.Observation{Hit: [3]float64{1, 1, 2}, Bounce: [3]float64{4, 5, 0.3}, Seconds: 1}
		Expect(obs.Distance()).To(BeNumerically("~", 5, 1e-12))
	})

	DescribeTable("validation",
		func(mutate func(*fit.Observation), ok bool) {
			obs := fit.ReferenceObservation()
			mutate(&obs)
			if ok {
				Expect(obs.Validate()).To(Succeed())
			} else {
				Expect(obs.Validate()).To(MatchError(dynamo.ErrParameterBounds))
			}
		},
		Entry("reference", func(o *fit.Observation) {}, true),
		Entry("ground-level hit", func(o *fit.Observation) { o.Hit[2] = 0 }, true),
		Entry("zero seconds", func(o *fit.Observation) { o.Seconds = 0 }, false),
		Entry("negative seconds", func(o *fit.Observation) { o.Seconds = -1 }, false),
		Entry("below ground", func(o *fit.Observation) { o.Hit[2] = -0.5 }, false),
		Entry("non-finite bounce", func(o *fit.Observation) { o.Bounce[0] = math.Inf(1) }, false),
	)
})

var _ = Describe("Objective", func() {
	var (
		ctx   context.Context
		s     *sim.Simulator
		shot  sim.Candidate
		exact fit.Observation
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = newSim(physics.Spin)
		shot = sim.Candidate{Speed: 24, Angle: 0.2}

		res, err := s.Run(ctx, shot, 1)
		Expect(err).NotTo(HaveOccurred())
		exact = fit.Observation{
			Hit:     [3]float64{0, 0, 1},
			Bounce:  [3]float64{res.Distance, 0, 0},
			Seconds: res.Seconds,
		}
	})

	It("is zero when the simulation reproduces the observation", func() {
		v, err := fit.NewObjective(s, exact).Evaluate(ctx, shot)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("is positive for any other candidate", func() {
		obj := fit.NewObjective(s, exact)
		for _, c := range []sim.Candidate{{Speed: 20, Angle: 0.2}, {Speed: 24, Angle: 0.3}, {Speed: 0, Angle: 0}} {
			v, err := obj.Evaluate(ctx, c)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically(">", 0))
		}
	})

	It("weights the time error", func() {
		late := exact
		late.Seconds += 0.1
		ev, err := fit.NewObjective(s, late).Evaluation(ctx, shot)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.DistErr).To(BeZero())
		Expect(ev.SecsErr).To(BeNumerically("~", -0.1, 1e-12))
		Expect(ev.Error).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("opens and closes one sink per evaluation and reports each evaluation", func() {
		var sinks []*memorySink
		var seen []fit.Evaluation
		obj := fit.NewObjective(s, exact)
		obj.SinkFactory = func(sim.Candidate) (fit.SinkCloser, error) {
			m := &memorySink{}
			sinks = append(sinks, m)
			return m, nil
		}
		obj.OnEval = func(e fit.Evaluation) { seen = append(seen, e) }

		for i := 0; i < 3; i++ {
			_, err := obj.Evaluate(ctx, shot)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(sinks).To(HaveLen(3))
		Expect(seen).To(HaveLen(3))
		for _, m := range sinks {
			Expect(m.closed).To(BeTrue())
			Expect(m.samples).To(BeNumerically(">=", 3))
		}
	})

	It("fails when the sink cannot be opened or closed", func() {
		boom := errors.New("no space left")
		obj := fit.NewObjective(s, exact)

		obj.SinkFactory = func(sim.Candidate) (fit.SinkCloser, error) { return nil, boom }
		_, err := obj.Evaluate(ctx, shot)
		Expect(err).To(MatchError(boom))

		obj.SinkFactory = func(sim.Candidate) (fit.SinkCloser, error) { return &memorySink{failOn: boom}, nil }
		_, err = obj.Evaluate(ctx, shot)
		Expect(err).To(MatchError(boom))
	})

	It("formats the evaluation line with fixed width columns", func() {
		ev, err := fit.NewObjective(s, exact).Evaluation(ctx, shot)
		Expect(err).NotTo(HaveOccurred())
		fields := strings.Fields(ev.String())
		Expect(fields).To(HaveLen(6))
		Expect(len(ev.String())).To(Equal(6*10 + 5))
	})
})

var _ = Describe("Solver", func() {
	It("recovers the launch of the reference shot", func() {
		obs := fit.ReferenceObservation()
		solver := fit.NewSolver(fit.NewObjective(newSim(physics.Spin), obs))

		sol, err := solver.Solve(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.Converged).To(BeTrue())
		Expect(sol.Value).To(BeNumerically("<", 1e-3))
		Expect(sol.Iterations).To(BeNumerically("<=", 200))

		Expect(sol.Result.Distance).To(BeNumerically("~", 25, 0.05))
		Expect(sol.Result.Seconds).To(BeNumerically("~", 1.359, 0.005))
		Expect(sol.Candidate.Speed).To(BeNumerically(">", 20))
		Expect(sol.Candidate.Speed).To(BeNumerically("<", 35))
		Expect(sol.Candidate.AngleDegrees()).To(BeNumerically(">", 10))
		Expect(sol.Candidate.AngleDegrees()).To(BeNumerically("<", 35))
	})

	It("recovers the reference shot under drag alone", func() {
		obs := fit.ReferenceObservation()
		sol, err := fit.NewSolver(fit.NewObjective(newSim(physics.Drag), obs)).Solve(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.Value).To(BeNumerically("<", 1e-3))

		distErr := sol.Result.Distance - obs.Distance()
		secsErr := sol.Result.Seconds - obs.Seconds
		Expect(distErr * distErr).To(BeNumerically("<", 1e-3))
		Expect(100 * secsErr * secsErr).To(BeNumerically("<", 1e-3))
		Expect(sol.Candidate.Speed).To(BeNumerically("~", 24.975, 0.5))
		Expect(sol.Candidate.AngleDegrees()).To(BeNumerically("~", 14.96, 1))
	})

	It("returns the best candidate with a divergence error at the iteration cap", func() {
		solver := fit.NewSolver(fit.NewObjective(newSim(physics.Drag), fit.ReferenceObservation()))
		solver.Optimizer = optim.NewNelderMead(optim.Options{MaxIter: 2, SpreadTol: 1e-3, Target: 1e-3})

		sol, err := solver.Solve(context.Background())
		Expect(err).To(MatchError(dynamo.ErrOptimizationDivergence))
		Expect(sol).NotTo(BeNil())
		Expect(sol.Converged).To(BeFalse())
		Expect(sol.Iterations).To(Equal(2))
		Expect(sol.Result).NotTo(BeNil())
	})

	It("rejects an invalid observation before optimizing", func() {
		obs := fit.ReferenceObservation()
		obs.Seconds = 0
		_, err := fit.NewSolver(fit.NewObjective(newSim(physics.Vacuum), obs)).Solve(context.Background())
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})
})

var _ = Describe("Sweep", func() {
	It("writes one row block per speed", func() {
		obj := fit.NewObjective(newSim(physics.Vacuum), fit.ReferenceObservation())
		speed := optim.Axis{Name: "speed", Start: 10, Step: 5, Count: 3}
		angle := optim.Axis{Name: "angle", Start: 0, Step: math.Pi / 180, Count: 2}

		grid, err := fit.Sweep(context.Background(), obj, speed, angle)
		Expect(err).NotTo(HaveOccurred())
		Expect(grid.Samples).To(HaveLen(6))

		var buf bytes.Buffer
		Expect(fit.WriteSurface(&buf, grid)).To(Succeed())

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(9))
		Expect(lines[2]).To(BeEmpty())
		Expect(strings.Fields(lines[0])[:2]).To(Equal([]string{"10", "0"}))
		Expect(strings.Fields(lines[1])[:2]).To(Equal([]string{"10", "1"}))
	})

	It("has the default 80 by 50 grid", func() {
		speed, angle := fit.DefaultSweepAxes()
		Expect(speed.Count * angle.Count).To(Equal(4000))
		Expect(angle.Values()[49] * 180 / math.Pi).To(BeNumerically("~", 49, 1e-9))
	})
})
