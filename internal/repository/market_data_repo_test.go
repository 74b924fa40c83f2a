package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/calibration"
	"montecarlo-dashboard/pkg/httpclient"
	"montecarlo-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketDataRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/aggs/ticker/SPY/range/1/second/"):
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"t":1000,"c":10.5},{"t":2000,"c":10.6}]}`))
		case r.URL.Path == "/v3/trades/SPY":
			assert.Equal(t, "timestamp", r.URL.Query().Get("sort"))
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"price":1,"size":5},{"price":2,"size":5},{"price":3,"size":5}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := &config.Config{MarketData: config.MarketData{APIKey: "secret", MaxRequestPerMinute: 6000}}
	repo := NewMarketDataRepositoryWithClient(cfg, logger.NewNop(), httpclient.New(srv.URL, time.Second, ""))

	window := calibration.Window{Start: time.Unix(0, 0), End: time.Unix(60, 0)}

	bars, err := repo.GetSecondAggregates(context.Background(), "SPY", window)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.6, bars[1].Close)

	trades, err := repo.GetTrades(context.Background(), "SPY", window, 2)
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	_, err = repo.GetSecondAggregates(context.Background(), "QQQ", window)
	assert.Error(t, err)
}

func TestMarketDataRepository_ZeroRequestBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"t":1000,"c":10.5}]}`))
	}))
	defer srv.Close()

	cfg := &config.Config{MarketData: config.MarketData{APIKey: "secret"}}
	var repo MarketDataRepository
	require.NotPanics(t, func() {
		repo = NewMarketDataRepositoryWithClient(cfg, logger.NewNop(), httpclient.New(srv.URL, time.Second, ""))
	})

	window := calibration.Window{Start: time.Unix(0, 0), End: time.Unix(60, 0)}
	bars, err := repo.GetSecondAggregates(context.Background(), "SPY", window)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}
