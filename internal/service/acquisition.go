package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/model"
	"montecarlo-dashboard/internal/repository"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"
	"montecarlo-dashboard/pkg/utils"
)

var (
	// ErrSuperseded is returned by an acquisition that a newer one replaced.
	ErrSuperseded = errors.New("acquisition superseded by a newer request")
	// ErrSourcesExhausted means every source failed. With the synthetic source
	// last in line this only happens on a programming error.
	ErrSourcesExhausted = errors.New("all data sources failed")
)

// Source is one way of producing a canonical result.
type Source interface {
	Name() string
	Fetch(ctx context.Context, ticker string) (*model.CanonicalResult, error)
}

// AcquisitionService produces exactly one canonical result per call, trying
// sources in priority order and hiding their failures.
type AcquisitionService interface {
	Acquire(ctx context.Context, ticker string) (*model.CanonicalResult, error)
}

type acquisitionService struct {
	log           *logger.Logger
	metrics       *metrics.Metrics
	defaultTicker string
	sources       []Source

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

func NewAcquisitionService(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, sources ...Source) AcquisitionService {
	return &acquisitionService{
		log:           log,
		metrics:       m,
		defaultTicker: strings.ToUpper(cfg.Dashboard.DefaultTicker),
		sources:       sources,
	}
}

// DefaultSources is rich endpoint, then raw-paths endpoint, then synthetic generation.
func DefaultSources(cfg *config.Config, repo repository.SimulationAPIRepository, normalizer *Normalizer) []Source {
	return []Source{
		NewRichSource(repo, normalizer, cfg.Dashboard.RichSampleSize),
		NewRawPathsSource(repo, normalizer, cfg.Dashboard.RawSampleSize),
		NewSyntheticSource(normalizer, cfg.Dashboard.SyntheticDelayMin, cfg.Dashboard.SyntheticDelayMax),
	}
}

// Acquire cancels any acquisition still in flight on this service before it
// starts; the cancelled call returns ErrSuperseded.
func (s *acquisitionService) Acquire(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		ticker = s.defaultTicker
	}

	runCtx, cancel := context.WithCancel(ctx)
	gen := s.begin(cancel)
	defer s.end(gen, cancel)

	log := s.log.With(logger.StringField("ticker", ticker))

	for _, src := range s.sources {
		if !utils.ShouldContinue(runCtx, log) {
			break
		}

		start := time.Now()
		result, err := src.Fetch(runCtx, ticker)
		s.metrics.ObserveSource(src.Name(), time.Since(start), err)
		if err != nil {
			log.Warn("Data source failed, falling through",
				logger.StringField("source", src.Name()),
				logger.DurationField("elapsed", time.Since(start)),
				logger.ErrorField(err),
			)
			continue
		}
		if !s.current(gen) {
			return nil, ErrSuperseded
		}

		log.Info("Simulation result acquired",
			logger.StringField("source", src.Name()),
			logger.DurationField("elapsed", time.Since(start)),
			logger.IntField("paths", result.Paths),
		)
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.current(gen) {
		return nil, ErrSuperseded
	}
	log.Error("Every data source failed", logger.IntField("sources", len(s.sources)))
	return nil, ErrSourcesExhausted
}

func (s *acquisitionService) begin(cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel
	return s.generation
}

func (s *acquisitionService) end(gen uint64, cancel context.CancelFunc) {
	s.mu.Lock()
	if s.generation == gen {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()
}

func (s *acquisitionService) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

type richSource struct {
	repo       repository.SimulationAPIRepository
	normalizer *Normalizer
	sampleSize int
}

func NewRichSource(repo repository.SimulationAPIRepository, normalizer *Normalizer, sampleSize int) Source {
	return &richSource{repo: repo, normalizer: normalizer, sampleSize: sampleSize}
}

func (s *richSource) Name() string { return "rich" }

func (s *richSource) Fetch(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
	resp, err := s.repo.GetSimulationResults(ctx, ticker, s.sampleSize)
	if err != nil {
		return nil, err
	}
	return s.normalizer.FromRich(ticker, resp)
}

type rawPathsSource struct {
	repo       repository.SimulationAPIRepository
	normalizer *Normalizer
	sampleSize int
}

func NewRawPathsSource(repo repository.SimulationAPIRepository, normalizer *Normalizer, sampleSize int) Source {
	return &rawPathsSource{repo: repo, normalizer: normalizer, sampleSize: sampleSize}
}

func (s *rawPathsSource) Name() string { return "raw_paths" }

func (s *rawPathsSource) Fetch(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
	start := time.Now()
	resp, err := s.repo.GetMonteCarloSample(ctx, s.sampleSize)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start)

	if resp == nil {
		return nil, model.ErrEmptyEnsemble
	}
	return s.normalizer.FromRawPaths(ticker, resp.Paths, latency)
}

type syntheticSource struct {
	normalizer *Normalizer
	delayMin   time.Duration
	delayMax   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource generates paths locally. A delay drawn from
// [delayMin, delayMax] is waited first so the fallback does not answer faster
// than a network source would; zero disables it.
func NewSyntheticSource(normalizer *Normalizer, delayMin, delayMax time.Duration) Source {
	return &syntheticSource{
		normalizer: normalizer,
		delayMin:   delayMin,
		delayMax:   delayMax,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *syntheticSource) Name() string { return "synthetic" }

func (s *syntheticSource) Fetch(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
	if delay := s.delay(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.normalizer.FromSynthetic(ctx, ticker)
}

func (s *syntheticSource) delay() time.Duration {
	if s.delayMax <= 0 {
		return 0
	}
	span := s.delayMax - s.delayMin
	if span <= 0 {
		return s.delayMin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayMin + time.Duration(s.rng.Int63n(int64(span)+1))
}
