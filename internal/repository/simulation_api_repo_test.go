package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"montecarlo-dashboard/pkg/httpclient"
	"montecarlo-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimulationAPITestRepo(t *testing.T, handler http.HandlerFunc) SimulationAPIRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSimulationAPIRepositoryWithClient(httpclient.New(srv.URL, time.Second, ""), logger.NewNop())
}

func TestSimulationAPIRepository_GetSimulationResults(t *testing.T) {
	repo := newSimulationAPITestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simulation-results", r.URL.Path)
		assert.Equal(t, "NVDA", r.URL.Query().Get("ticker"))
		assert.Equal(t, "35", r.URL.Query().Get("sample_size"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ticker":"NVDA","start_price":100,"n_steps":3,"sample_paths":[[100,101,102]]}`))
	})

	out, err := repo.GetSimulationResults(context.Background(), "NVDA", 35)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", out.Ticker)
	assert.Equal(t, [][]float64{{100, 101, 102}}, out.SamplePaths)
}

func TestSimulationAPIRepository_StatusError(t *testing.T) {
	repo := newSimulationAPITestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := repo.GetMonteCarloSample(context.Background(), 10)

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestSimulationAPIRepository_GetMonteCarloSample(t *testing.T) {
	repo := newSimulationAPITestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/montecarlo-sample", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"paths":[[1,2],[1,3]]}`))
	})

	out, err := repo.GetMonteCarloSample(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, out.Paths, 2)
}
