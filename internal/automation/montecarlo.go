package automation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/experiment"
	"github.com/san-kum/trajfit/internal/logging"
	"github.com/san-kum/trajfit/internal/sim"
)

// MonteCarloConfig perturbs the observation with uniform measurement
// noise and refits each trial.
type MonteCarloConfig struct {
	Base          *config.Config
	PositionNoise float64 // metres, applied to each bounce coordinate
	TimeNoise     float64 // seconds
	NumTrials     int
	Seed          int64
}

type MonteCarloResult struct {
	TrialID   int
	Bounce    [3]float64
	Seconds   float64
	Candidate sim.Candidate
	Value     float64
	Converged bool
}

type MonteCarloSummary struct {
	Trials      int
	Converged   int
	SpeedMean   float64
	SpeedStdDev float64
	AngleMean   float64
	AngleStdDev float64
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, log *logging.Logger) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive", dynamo.ErrParameterBounds)
	}
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialCfg := cfg.Base.Clone()
		obs := &trialCfg.Observation
		for i := 0; i < 2; i++ {
			obs.Bounce[i] += (rng.Float64() - 0.5) * 2 * cfg.PositionNoise
		}
		obs.Seconds += (rng.Float64() - 0.5) * 2 * cfg.TimeNoise

		exp := experiment.New(trialCfg)
		if err := exp.Setup(registry); err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		sol, err := exp.Fit(ctx)
		if sol == nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, MonteCarloResult{
			TrialID:   trial,
			Bounce:    obs.Bounce,
			Seconds:   obs.Seconds,
			Candidate: sol.Candidate,
			Value:     sol.Value,
			Converged: sol.Converged,
		})

		if (trial+1)%10 == 0 {
			log.Info(ctx, "monte carlo progress", "done", trial+1, "total", cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats summarizes the converged trials.
func MonteCarloStats(results []MonteCarloResult) MonteCarloSummary {
	sum := MonteCarloSummary{Trials: len(results)}
	speeds := make([]float64, 0, len(results))
	angles := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Converged {
			continue
		}
		sum.Converged++
		speeds = append(speeds, r.Candidate.Speed)
		angles = append(angles, r.Candidate.AngleDegrees())
	}
	if len(speeds) == 0 {
		return sum
	}
	sum.SpeedMean, sum.SpeedStdDev = stat.MeanStdDev(speeds, nil)
	sum.AngleMean, sum.AngleStdDev = stat.MeanStdDev(angles, nil)
	return sum
}
