package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/dto"
	"montecarlo-dashboard/internal/model"
	"montecarlo-dashboard/internal/simulation"
	"montecarlo-dashboard/internal/statistics"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/utils"
)

const (
	// RawPathsSpeedup is the fixed slow/fast ratio assigned to raw-path results,
	// which only have one real timing.
	RawPathsSpeedup = 15.0

	syntheticFastBaseMs   = 140.0
	syntheticFastJitterMs = 25.0
	syntheticSlowBaseMs   = 2150.0
	syntheticSlowJitterMs = 250.0
)

// Normalizer maps each data source into a model.CanonicalResult.
type Normalizer struct {
	cfg     config.Dashboard
	log     *logger.Logger
	tickers map[string]model.TickerProfile

	mu  sync.Mutex
	rng *rand.Rand
}

func NewNormalizer(cfg *config.Config, log *logger.Logger, rng *rand.Rand) *Normalizer {
	tickers := make(map[string]model.TickerProfile, len(cfg.Dashboard.Tickers))
	for symbol, t := range cfg.Dashboard.Tickers {
		symbol = strings.ToUpper(symbol)
		tickers[symbol] = model.TickerProfile{
			Symbol:       symbol,
			Name:         t.Name,
			StartPrice:   t.StartPrice,
			Mu:           t.Mu,
			Sigma:        t.Sigma,
			StepsPerYear: model.TradingDaysPerYear,
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Normalizer{
		cfg:     cfg.Dashboard,
		log:     log,
		tickers: tickers,
		rng:     rng,
	}
}

// Profile returns the configured profile for ticker, or the default ticker's
// profile when the symbol is unknown.
func (n *Normalizer) Profile(ticker string) (model.TickerProfile, bool) {
	if p, ok := n.tickers[strings.ToUpper(ticker)]; ok {
		return p, true
	}
	return n.tickers[strings.ToUpper(n.cfg.DefaultTicker)], false
}

// FromRich reshapes a rich endpoint payload. Nothing is recomputed.
func (n *Normalizer) FromRich(ticker string, resp *dto.SimulationResultsResponse) (*model.CanonicalResult, error) {
	if err := validateRich(resp); err != nil {
		return nil, err
	}

	paths := make([]model.PricePath, len(resp.SamplePaths))
	for i, p := range resp.SamplePaths {
		paths[i] = p
	}

	buckets := make([]model.DrawdownBucket, len(resp.DrawdownCounts))
	for i, c := range resp.DrawdownCounts {
		buckets[i] = model.DrawdownBucket{Label: resp.DrawdownBinEdges[i], Count: c}
	}

	if resp.Ticker != "" {
		ticker = resp.Ticker
	}

	return &model.CanonicalResult{
		Ticker:     ticker,
		StartPrice: resp.StartPrice,
		Steps:      resp.NumSteps,
		Paths:      resp.NumPaths,
		Performance: model.PerformanceMetrics{
			FastMs:  resp.FPGATimeMs,
			SlowMs:  resp.CPUTimeMs,
			Speedup: resp.SpeedImprovementX,
		},
		Risk: model.RiskStatistics{
			ValueAtRisk95:            resp.ValueAtRisk95,
			ConditionalValueAtRisk95: resp.ConditionalValueAtRisk95,
			ProbabilityOfProfit:      resp.ProbabilityOfProfit,
			AverageDrawdownDays:      resp.AverageDrawdownDays,
		},
		Histogram: model.HistogramData{
			BinEdges:         append([]float64(nil), resp.HistogramBinEdges...),
			PrimaryCounts:    append([]int(nil), resp.HistogramFPGACounts...),
			ComparisonCounts: append([]int(nil), resp.HistogramCPUCounts...),
		},
		Drawdown:    model.DrawdownDistribution{Buckets: buckets},
		SamplePaths: model.SamplePrefix(paths, n.cfg.VizSampleSize),
	}, nil
}

func validateRich(resp *dto.SimulationResultsResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("%w: empty body", model.ErrInvalidPayload)
	case resp.StartPrice <= 0:
		return fmt.Errorf("%w: start price %v", model.ErrInvalidPayload, resp.StartPrice)
	case len(resp.SamplePaths) == 0:
		return fmt.Errorf("%w: no sample paths", model.ErrInvalidPayload)
	case len(resp.HistogramBinEdges) < 2:
		return fmt.Errorf("%w: histogram needs at least two edges", model.ErrInvalidPayload)
	case len(resp.HistogramFPGACounts) != len(resp.HistogramBinEdges)-1,
		len(resp.HistogramCPUCounts) != len(resp.HistogramBinEdges)-1:
		return fmt.Errorf("%w: histogram counts do not match edges", model.ErrInvalidPayload)
	case len(resp.DrawdownCounts) == 0 || len(resp.DrawdownCounts) != len(resp.DrawdownBinEdges):
		return fmt.Errorf("%w: drawdown labels do not match counts", model.ErrInvalidPayload)
	}
	for i, p := range resp.SamplePaths {
		if len(p) == 0 {
			return fmt.Errorf("%w: sample path %d is empty", model.ErrInvalidPayload, i)
		}
	}
	return nil
}

// FromRawPaths derives every statistic locally. The fetch latency is the fast
// timing and the slow timing is RawPathsSpeedup times it.
func (n *Normalizer) FromRawPaths(ticker string, raw [][]float64, latency time.Duration) (*model.CanonicalResult, error) {
	paths := make([]model.PricePath, len(raw))
	for i, p := range raw {
		paths[i] = p
	}
	ensemble, err := model.NewEnsemble(paths)
	if err != nil {
		return nil, err
	}

	fast := utils.Round(float64(latency.Microseconds())/1000, 2)
	perf := model.PerformanceMetrics{
		FastMs:  fast,
		SlowMs:  utils.Round(fast*RawPathsSpeedup, 2),
		Speedup: RawPathsSpeedup,
	}
	return n.fromEnsemble(ticker, ensemble, perf)
}

// FromSynthetic generates an ensemble for ticker's profile and derives the
// result from it. It only fails if ctx is cancelled.
func (n *Normalizer) FromSynthetic(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
	profile, known := n.Profile(ticker)
	if !known {
		n.log.DebugContext(ctx, "Unknown ticker, using default profile",
			logger.StringField("ticker", ticker),
			logger.StringField("default_ticker", profile.Symbol),
		)
	}

	n.mu.Lock()
	seed := n.rng.Int63()
	fast := syntheticFastBaseMs + n.rng.Float64()*syntheticFastJitterMs
	slow := syntheticSlowBaseMs + n.rng.Float64()*syntheticSlowJitterMs
	n.mu.Unlock()

	params := simulation.ParamsFromProfile(profile, n.cfg.SyntheticSteps)
	ensemble, err := simulation.GenerateEnsemble(ctx, params, n.cfg.SyntheticPaths, seed, n.cfg.SyntheticWorkers)
	if err != nil {
		return nil, err
	}

	perf := model.PerformanceMetrics{
		FastMs:  utils.Round(fast, 2),
		SlowMs:  utils.Round(slow, 2),
		Speedup: utils.Round(slow/fast, 1),
	}
	return n.fromEnsemble(ticker, ensemble, perf)
}

func (n *Normalizer) fromEnsemble(ticker string, ensemble *model.Ensemble, perf model.PerformanceMetrics) (*model.CanonicalResult, error) {
	stats, err := statistics.Compute(ensemble, n.cfg.HistogramBins)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	stats.Histogram.ComparisonCounts = statistics.DeriveComparison(stats.Histogram.PrimaryCounts, n.rng)
	n.mu.Unlock()

	return &model.CanonicalResult{
		Ticker:      ticker,
		StartPrice:  ensemble.StartPrice,
		Steps:       ensemble.Steps(),
		Paths:       ensemble.Size(),
		Performance: perf,
		Risk:        stats.Risk,
		Histogram:   stats.Histogram,
		Drawdown:    stats.Drawdown,
		SamplePaths: ensemble.Sample(n.cfg.VizSampleSize),
	}, nil
}
