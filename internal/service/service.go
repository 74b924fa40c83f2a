package service

import (
	"math/rand"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/repository"
	"montecarlo-dashboard/pkg/cache"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"
)

type Service struct {
	AcquisitionService AcquisitionService
	SimulationService  SimulationService
	CalibrationService CalibrationService
	RefreshScheduler   RefreshScheduler
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	m *metrics.Metrics,
) *Service {
	normalizer := NewNormalizer(cfg, log.Named("normalizer"), rand.New(rand.NewSource(time.Now().UnixNano())))
	acquisitionService := NewAcquisitionService(cfg, log.Named("acquisition"), m, DefaultSources(cfg, repo.SimulationAPIRepo, normalizer)...)

	calibrationService := NewCalibrationService(cfg, log.Named("calibration"), repo.MarketDataRepo)
	simulationService := NewSimulationService(cfg, log.Named("simulation"), inmemoryCache, calibrationService, m)

	return &Service{
		AcquisitionService: acquisitionService,
		SimulationService:  simulationService,
		CalibrationService: calibrationService,
		RefreshScheduler:   NewRefreshScheduler(cfg, log.Named("scheduler"), simulationService),
	}
}
