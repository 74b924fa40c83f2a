package repository

import (
	"montecarlo-dashboard/config"
	"montecarlo-dashboard/pkg/logger"
)

type Repository struct {
	SimulationAPIRepo SimulationAPIRepository
	MarketDataRepo    MarketDataRepository
}

func NewRepository(cfg *config.Config, log *logger.Logger) *Repository {
	return &Repository{
		SimulationAPIRepo: NewSimulationAPIRepository(cfg, log),
		MarketDataRepo:    NewMarketDataRepository(cfg, log),
	}
}
