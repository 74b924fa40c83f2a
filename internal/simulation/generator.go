// Package simulation builds synthetic price paths under geometric Brownian motion.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"montecarlo-dashboard/internal/model"

	goValidator "github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// RandSource is the subset of *rand.Rand the generator needs.
type RandSource interface {
	Float64() float64
}

// Params describes one GBM path. Mu and Sigma are per year of StepsPerYear steps.
type Params struct {
	StartPrice   float64 `validate:"gt=0"`
	Days         int     `validate:"gte=2"`
	Mu           float64
	Sigma        float64 `validate:"gt=0"`
	StepsPerYear float64 `validate:"gte=0"`
}

var validate = goValidator.New()

// Validate checks the inputs the generator assumes; GeneratePath does not call it.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid simulation params: %w", err)
	}
	return nil
}

// ParamsFromProfile builds Params for a ticker profile over the given number of steps.
func ParamsFromProfile(profile model.TickerProfile, days int) Params {
	return Params{
		StartPrice:   profile.StartPrice,
		Days:         days,
		Mu:           profile.Mu,
		Sigma:        profile.Sigma,
		StepsPerYear: profile.StepsPerYear,
	}
}

func (p Params) stepsPerYear() float64 {
	if p.StepsPerYear <= 0 {
		return model.TradingDaysPerYear
	}
	return p.StepsPerYear
}

// StandardNormal draws from N(0,1) with the Box-Muller transform.
func StandardNormal(rng RandSource) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	v := rng.Float64()
	for v == 0 {
		v = rng.Float64()
	}
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// GeneratePath returns p.Days prices starting at exactly p.StartPrice.
func GeneratePath(rng RandSource, p Params) model.PricePath {
	n := p.stepsPerYear()
	drift := (p.Mu - 0.5*p.Sigma*p.Sigma) / n
	vol := p.Sigma / math.Sqrt(n)

	path := make(model.PricePath, p.Days)
	path[0] = p.StartPrice
	for t := 1; t < p.Days; t++ {
		path[t] = path[t-1] * math.Exp(drift+vol*StandardNormal(rng))
	}
	return path
}

// GenerateEnsemble builds numPaths independent paths. Paths are split into
// contiguous chunks, one per worker, and worker w draws from its own source
// seeded with seed+w, so a given (seed, workers) pair always yields the same
// ensemble.
func GenerateEnsemble(ctx context.Context, p Params, numPaths int, seed int64, workers int) (*model.Ensemble, error) {
	if numPaths < 1 {
		return nil, model.ErrEmptyEnsemble
	}
	if workers < 1 {
		workers = 1
	}
	if workers > numPaths {
		workers = numPaths
	}

	paths := make([]model.PricePath, numPaths)
	chunk := (numPaths + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		from := w * chunk
		to := min(from+chunk, numPaths)
		if from >= to {
			break
		}
		rng := rand.New(rand.NewSource(seed + int64(w)))

		g.Go(func() error {
			for i := from; i < to; i++ {
				if (i-from)%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				paths[i] = GeneratePath(rng, p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.Ensemble{StartPrice: p.StartPrice, Paths: paths}, nil
}
