package service

import (
	"context"
	"errors"
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
	"montecarlo-dashboard/pkg/cache"
	"montecarlo-dashboard/pkg/common"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"
	"montecarlo-dashboard/pkg/utils"
)

var ErrSimulationNotReady = errors.New("simulation not ready")

// SimulationService owns the ensemble served by the simulation API and
// regenerates it on demand.
type SimulationService interface {
	Refresh(ctx context.Context) error
	Results(ctx context.Context, ticker string, sampleSize int) (*dto.SimulationResultsResponse, error)
	Sample(ctx context.Context, sampleSize int) (*dto.MonteCarloSampleResponse, error)
}

type simulationSnapshot struct {
	generation int64
	profile    model.TickerProfile
	ensemble   *model.Ensemble
	cpuTimeMs  float64
}

type simulationService struct {
	cfg        *config.Config
	log        *logger.Logger
	cache      cache.Cache
	calibrator CalibrationService
	metrics    *metrics.Metrics

	refreshMu sync.Mutex
	mu        sync.RWMutex
	snapshot  *simulationSnapshot

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewSimulationService(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache, calibrator CalibrationService, m *metrics.Metrics) SimulationService {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &simulationService{
		cfg:        cfg,
		log:        log,
		cache:      inmemoryCache,
		calibrator: calibrator,
		metrics:    m,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (s *simulationService) staticProfile() model.TickerProfile {
	sim := s.cfg.Simulation
	return model.TickerProfile{
		Symbol:       strings.ToUpper(sim.Ticker),
		StartPrice:   sim.StartPrice,
		Mu:           sim.Mu,
		Sigma:        sim.Sigma,
		StepsPerYear: sim.StepsPerYear,
	}
}

func (s *simulationService) profile(ctx context.Context) model.TickerProfile {
	static := s.staticProfile()
	if !s.cfg.MarketData.Enabled || s.calibrator == nil {
		return static
	}

	calibrated, err := s.calibrator.Calibrate(ctx, static.Symbol)
	if err == nil {
		err = simulation.ParamsFromProfile(*calibrated, s.cfg.Simulation.NumSteps).Validate()
	}
	if err != nil {
		s.log.WarnContext(ctx, "Calibration failed, using static parameters",
			logger.StringField("ticker", static.Symbol),
			logger.ErrorField(err),
		)
		return static
	}
	return *calibrated
}

// Refresh generates a new ensemble and swaps it in. Concurrent calls are serialized.
func (s *simulationService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	profile := s.profile(ctx)
	params := simulation.ParamsFromProfile(profile, s.cfg.Simulation.NumSteps)
	if err := params.Validate(); err != nil {
		s.metrics.RefreshFailed()
		return err
	}

	s.rngMu.Lock()
	seed := s.rng.Int63()
	s.rngMu.Unlock()

	start := time.Now()
	ensemble, err := simulation.GenerateEnsemble(ctx, params, s.cfg.Simulation.NumPaths, seed, s.cfg.Simulation.Workers)
	if err != nil {
		s.metrics.RefreshFailed()
		return fmt.Errorf("failed to generate ensemble: %w", err)
	}
	elapsed := time.Since(start)

	s.mu.Lock()
	generation := int64(1)
	if s.snapshot != nil {
		generation = s.snapshot.generation + 1
		s.cache.Delete(fmt.Sprintf(common.KEY_SIMULATION_STATS, s.snapshot.generation))
	}
	s.snapshot = &simulationSnapshot{
		generation: generation,
		profile:    profile,
		ensemble:   ensemble,
		cpuTimeMs:  float64(elapsed.Microseconds()) / 1000,
	}
	s.mu.Unlock()
	s.metrics.ObserveRefresh(generation, ensemble.Size(), elapsed)

	s.log.InfoContext(ctx, "Simulation completed",
		logger.IntField("paths", ensemble.Size()),
		logger.IntField("steps", ensemble.Steps()),
		logger.DurationField("elapsed", elapsed),
		logger.Field("generation", generation),
	)
	return nil
}

func (s *simulationService) current() (*simulationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrSimulationNotReady
	}
	return s.snapshot, nil
}

// stats computes the snapshot statistics once per generation. Refresh drops
// the previous generation's entry.
func (s *simulationService) stats(snap *simulationSnapshot) (*statistics.Result, error) {
	key := fmt.Sprintf(common.KEY_SIMULATION_STATS, snap.generation)
	return cache.Remember(s.cache, key, cache.NoExpiration, func() (*statistics.Result, error) {
		res, err := statistics.Compute(snap.ensemble, s.cfg.Simulation.HistogramBins)
		if err != nil {
			return nil, err
		}

		s.rngMu.Lock()
		res.Histogram.ComparisonCounts = statistics.DeriveComparison(res.Histogram.PrimaryCounts, s.rng)
		s.rngMu.Unlock()
		return res, nil
	})
}

func (s *simulationService) Results(ctx context.Context, ticker string, sampleSize int) (*dto.SimulationResultsResponse, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	res, err := s.stats(snap)
	if err != nil {
		return nil, err
	}

	if ticker == "" {
		ticker = snap.profile.Symbol
	}

	cpu := snap.cpuTimeMs
	fpga := cpu / s.cfg.Simulation.SpeedupRatio
	speedup := s.cfg.Simulation.SpeedupRatio
	if fpga > 0 {
		speedup = cpu / fpga
	}

	labels := make([]string, len(res.Drawdown.Buckets))
	counts := make([]int, len(res.Drawdown.Buckets))
	for i, b := range res.Drawdown.Buckets {
		labels[i] = b.Label
		counts[i] = b.Count
	}

	return &dto.SimulationResultsResponse{
		Ticker:                   ticker,
		StartPrice:               snap.ensemble.StartPrice,
		NumPaths:                 snap.ensemble.Size(),
		NumSteps:                 snap.ensemble.Steps(),
		CPUTimeMs:                utils.Round(cpu, 2),
		FPGATimeMs:               utils.Round(fpga, 2),
		SpeedImprovementX:        utils.Round(speedup, 1),
		ValueAtRisk95:            res.Risk.ValueAtRisk95,
		ConditionalValueAtRisk95: res.Risk.ConditionalValueAtRisk95,
		ProbabilityOfProfit:      res.Risk.ProbabilityOfProfit,
		AverageDrawdownDays:      res.Risk.AverageDrawdownDays,
		HistogramBinEdges:        res.Histogram.BinEdges,
		HistogramFPGACounts:      res.Histogram.PrimaryCounts,
		HistogramCPUCounts:       res.Histogram.ComparisonCounts,
		DrawdownBinEdges:         labels,
		DrawdownCounts:           counts,
		SamplePaths:              s.samplePaths(snap.ensemble, sampleSize),
	}, nil
}

func (s *simulationService) Sample(ctx context.Context, sampleSize int) (*dto.MonteCarloSampleResponse, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return &dto.MonteCarloSampleResponse{Paths: s.samplePaths(snap.ensemble, sampleSize)}, nil
}

// samplePaths draws sampleSize distinct paths uniformly at random, or returns
// every path when sampleSize covers the ensemble.
func (s *simulationService) samplePaths(e *model.Ensemble, sampleSize int) [][]float64 {
	total := e.Size()
	if sampleSize >= total {
		out := make([][]float64, total)
		for i, p := range e.Paths {
			out[i] = p
		}
		return out
	}

	// partial Fisher-Yates over indices
	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	s.rngMu.Lock()
	for i := 0; i < sampleSize; i++ {
		j := i + s.rng.Intn(total-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	s.rngMu.Unlock()

	out := make([][]float64, sampleSize)
	for i := 0; i < sampleSize; i++ {
		out[i] = e.Paths[idx[i]]
	}
	return out
}
