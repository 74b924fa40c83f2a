package repository

import (
	"context"
	"strconv"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/dto"
	"montecarlo-dashboard/pkg/httpclient"
	"montecarlo-dashboard/pkg/logger"
)

const (
	simulationResultsEndpoint = "/simulation-results"
	monteCarloSampleEndpoint  = "/montecarlo-sample"
)

// SimulationAPIRepository talks to the rich and raw-paths simulation endpoints.
type SimulationAPIRepository interface {
	GetSimulationResults(ctx context.Context, ticker string, sampleSize int) (*dto.SimulationResultsResponse, error)
	GetMonteCarloSample(ctx context.Context, sampleSize int) (*dto.MonteCarloSampleResponse, error)
}

type simulationAPIRepository struct {
	httpClient httpclient.HTTPClient
	logger     *logger.Logger
}

func NewSimulationAPIRepository(cfg *config.Config, log *logger.Logger) SimulationAPIRepository {
	return NewSimulationAPIRepositoryWithClient(httpclient.New(cfg.Dashboard.BaseURL, cfg.Dashboard.Timeout, ""), log)
}

func NewSimulationAPIRepositoryWithClient(client httpclient.HTTPClient, log *logger.Logger) SimulationAPIRepository {
	return &simulationAPIRepository{
		httpClient: client,
		logger:     log,
	}
}

func (r *simulationAPIRepository) GetSimulationResults(ctx context.Context, ticker string, sampleSize int) (*dto.SimulationResultsResponse, error) {
	queryParams := map[string]string{
		"ticker":      ticker,
		"sample_size": strconv.Itoa(sampleSize),
	}

	var out dto.SimulationResultsResponse
	if err := r.get(ctx, simulationResultsEndpoint, queryParams, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *simulationAPIRepository) GetMonteCarloSample(ctx context.Context, sampleSize int) (*dto.MonteCarloSampleResponse, error) {
	queryParams := map[string]string{
		"sample_size": strconv.Itoa(sampleSize),
	}

	var out dto.MonteCarloSampleResponse
	if err := r.get(ctx, monteCarloSampleEndpoint, queryParams, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *simulationAPIRepository) get(ctx context.Context, endpoint string, queryParams map[string]string, result interface{}) error {
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, result)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		r.logger.DebugContext(ctx, "Simulation API returned non-success status",
			logger.StringField("endpoint", endpoint),
			logger.IntField("status_code", resp.StatusCode),
		)
		return &httpclient.StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	return nil
}
