package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/calibration"
	"montecarlo-dashboard/internal/dto"
	"montecarlo-dashboard/pkg/httpclient"
	"montecarlo-dashboard/pkg/logger"

	"golang.org/x/time/rate"
)

const maxTradesPerRequest = 50000

// MarketDataRepository reads intraday aggregates and trades from a
// Polygon-compatible REST API.
type MarketDataRepository interface {
	GetSecondAggregates(ctx context.Context, ticker string, window calibration.Window) ([]dto.AggregateBar, error)
	GetTrades(ctx context.Context, ticker string, window calibration.Window, limit int) ([]dto.Trade, error)
}

type marketDataRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	mu             sync.Mutex
}

func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	return NewMarketDataRepositoryWithClient(cfg, log, httpclient.New(cfg.MarketData.BaseURL, cfg.MarketData.Timeout, ""))
}

func NewMarketDataRepositoryWithClient(cfg *config.Config, log *logger.Logger, client httpclient.HTTPClient) MarketDataRepository {
	perRequest := time.Minute / time.Duration(max(1, cfg.MarketData.MaxRequestPerMinute))

	return &marketDataRepository{
		httpClient:     client,
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(perRequest), 1),
	}
}

func (r *marketDataRepository) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.requestLimiter.Allow() {
		r.logger.DebugContext(ctx, "Market data request limit reached, waiting",
			logger.IntField("max_request_per_minute", r.cfg.MarketData.MaxRequestPerMinute),
		)
		return r.requestLimiter.Wait(ctx)
	}
	return nil
}

func (r *marketDataRepository) GetSecondAggregates(ctx context.Context, ticker string, window calibration.Window) ([]dto.AggregateBar, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/second/%d/%d",
		ticker, window.Start.UnixMilli(), window.End.UnixMilli())
	queryParams := map[string]string{
		"adjusted": "true",
		"sort":     "asc",
		"limit":    "50000",
		"apiKey":   r.cfg.MarketData.APIKey,
	}

	var out dto.AggregatesResponse
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aggregates: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &httpclient.StatusError{Endpoint: "aggregates", StatusCode: resp.StatusCode}
	}
	return out.Results, nil
}

func (r *marketDataRepository) GetTrades(ctx context.Context, ticker string, window calibration.Window, limit int) ([]dto.Trade, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"timestamp.gte": window.Start.Format(time.RFC3339),
		"timestamp.lt":  window.End.Format(time.RFC3339),
		"order":         "asc",
		"sort":          "timestamp",
		"limit":         fmt.Sprintf("%d", min(limit, maxTradesPerRequest)),
		"apiKey":        r.cfg.MarketData.APIKey,
	}

	var out dto.TradesResponse
	resp, err := r.httpClient.Get(ctx, "/v3/trades/"+ticker, queryParams, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &httpclient.StatusError{Endpoint: "trades", StatusCode: resp.StatusCode}
	}

	trades := out.Results
	if len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}
