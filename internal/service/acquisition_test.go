package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"montecarlo-dashboard/internal/model"
	"montecarlo-dashboard/internal/repository"
	"montecarlo-dashboard/internal/statistics"
	"montecarlo-dashboard/pkg/httpclient"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpointStub struct {
	richStatus int
	richBody   interface{}
	rawStatus  int
	rawBody    interface{}

	richHits atomic.Int32
	rawHits  atomic.Int32
}

func (s *endpointStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/simulation-results", func(w http.ResponseWriter, r *http.Request) {
		s.richHits.Add(1)
		writeJSON(w, s.richStatus, s.richBody)
	})
	mux.HandleFunc("/montecarlo-sample", func(w http.ResponseWriter, r *http.Request) {
		s.rawHits.Add(1)
		writeJSON(w, s.rawStatus, s.rawBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func newHTTPAcquisition(t *testing.T, baseURL string) AcquisitionService {
	t.Helper()
	cfg := testConfig()
	log := logger.NewNop()
	repo := repository.NewSimulationAPIRepositoryWithClient(httpclient.New(baseURL, cfg.Dashboard.Timeout, ""), log)
	return NewAcquisitionService(cfg, log, nil, DefaultSources(cfg, repo, newTestNormalizer())...)
}

func TestAcquire_RichEndpoint(t *testing.T) {
	stub := &endpointStub{richStatus: http.StatusOK, richBody: richResponse(5), rawStatus: http.StatusOK}
	srv := stub.server(t)

	got, err := newHTTPAcquisition(t, srv.URL).Acquire(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, 100000, got.Paths)
	assert.Equal(t, 91.5, got.Risk.ValueAtRisk95)
	assert.Equal(t, int32(1), stub.richHits.Load())
	assert.Equal(t, int32(0), stub.rawHits.Load(), "later sources must not be contacted")
}

func TestAcquire_FallsBackToRawPaths(t *testing.T) {
	raw := map[string][][]float64{
		"paths": {
			{100, 102, 101},
			{100, 97, 99},
			{100, 100, 104},
			{100, 99, 98},
		},
	}
	stub := &endpointStub{richStatus: http.StatusNotFound, rawStatus: http.StatusOK, rawBody: raw}
	srv := stub.server(t)

	got, err := newHTTPAcquisition(t, srv.URL).Acquire(context.Background(), "SPY")
	require.NoError(t, err)

	assert.Equal(t, "SPY", got.Ticker)
	assert.Equal(t, 4, got.Paths)
	assert.Equal(t, 3, got.Steps)
	assert.Equal(t, 100.0, got.StartPrice)
	assert.Equal(t, RawPathsSpeedup, got.Performance.Speedup)
	assert.InDelta(t, got.Performance.FastMs*RawPathsSpeedup, got.Performance.SlowMs, 0.01)
	assert.Equal(t, 4, got.Drawdown.Total())
	assert.Equal(t, int32(1), stub.richHits.Load())
	assert.Equal(t, int32(1), stub.rawHits.Load())

	served := make([]model.PricePath, len(raw["paths"]))
	for i, p := range raw["paths"] {
		served[i] = p
	}
	ensemble, err := model.NewEnsemble(served)
	require.NoError(t, err)
	want, err := statistics.Compute(ensemble, testConfig().Dashboard.HistogramBins)
	require.NoError(t, err)

	assert.Equal(t, want.Risk, got.Risk)
	assert.Equal(t, want.Histogram.BinEdges, got.Histogram.BinEdges)
	assert.Equal(t, want.Histogram.PrimaryCounts, got.Histogram.PrimaryCounts)
	assert.Equal(t, want.Drawdown, got.Drawdown)
}

func TestAcquire_InvalidRichPayloadFallsThrough(t *testing.T) {
	bad := richResponse(3)
	bad.HistogramFPGACounts = []int{1}
	stub := &endpointStub{richStatus: http.StatusOK, richBody: bad, rawStatus: http.StatusInternalServerError}
	srv := stub.server(t)

	got, err := newHTTPAcquisition(t, srv.URL).Acquire(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, testConfig().Dashboard.SyntheticPaths, got.Paths)
}

func TestAcquire_UnreachableEndpointsUseSynthetic(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got, err := newHTTPAcquisition(t, url).Acquire(context.Background(), "MSFT")
	require.NoError(t, err)

	cfg := testConfig()
	assert.Equal(t, "MSFT", got.Ticker)
	assert.Equal(t, cfg.Dashboard.Tickers["MSFT"].StartPrice, got.StartPrice)
	assert.Equal(t, cfg.Dashboard.SyntheticPaths, got.Paths)
	assert.Equal(t, cfg.Dashboard.SyntheticSteps, got.Steps)
}

type funcSource struct {
	name string
	fn   func(ctx context.Context, ticker string) (*model.CanonicalResult, error)
}

func (s *funcSource) Name() string { return s.name }

func (s *funcSource) Fetch(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
	return s.fn(ctx, ticker)
}

func failing(name string) *funcSource {
	return &funcSource{name: name, fn: func(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
		return nil, errors.New(name + " down")
	}}
}

func succeeding(name string) *funcSource {
	return &funcSource{name: name, fn: func(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
		return &model.CanonicalResult{Ticker: ticker, Paths: 1}, nil
	}}
}

func TestAcquire_SourceOrder(t *testing.T) {
	var calls []string
	record := func(src *funcSource) *funcSource {
		inner := src.fn
		src.fn = func(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
			calls = append(calls, src.name)
			return inner(ctx, ticker)
		}
		return src
	}

	svc := NewAcquisitionService(testConfig(), logger.NewNop(), nil,
		record(failing("first")),
		record(succeeding("second")),
		record(succeeding("third")),
	)

	got, err := svc.Acquire(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "SPY", got.Ticker, "empty ticker falls back to the default")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestAcquire_AllSourcesFail(t *testing.T) {
	svc := NewAcquisitionService(testConfig(), logger.NewNop(), nil, failing("a"), failing("b"))

	_, err := svc.Acquire(context.Background(), "SPY")
	assert.ErrorIs(t, err, ErrSourcesExhausted)
}

func TestAcquire_CancelledContext(t *testing.T) {
	svc := NewAcquisitionService(testConfig(), logger.NewNop(), nil, succeeding("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Acquire(ctx, "SPY")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquire_NewerRequestSupersedesInFlight(t *testing.T) {
	started := make(chan struct{})
	var calls atomic.Int32
	blocking := &funcSource{name: "blocking", fn: func(ctx context.Context, ticker string) (*model.CanonicalResult, error) {
		if calls.Add(1) > 1 {
			return nil, errors.New("unavailable")
		}
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	svc := NewAcquisitionService(testConfig(), logger.NewNop(), nil, blocking, succeeding("fallback"))

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Acquire(context.Background(), "SPY")
		firstErr <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first acquisition never started")
	}

	got, err := svc.Acquire(context.Background(), "QQQ")
	require.NoError(t, err)
	assert.Equal(t, "QQQ", got.Ticker)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded acquisition did not return")
	}
}

func TestSyntheticSource_DelayHonorsCancellation(t *testing.T) {
	src := NewSyntheticSource(newTestNormalizer(), time.Minute, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := src.Fetch(ctx, "SPY")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAcquire_RecordsSourceOutcomes(t *testing.T) {
	m := metrics.New("test")
	svc := NewAcquisitionService(testConfig(), logger.NewNop(), m, failing("rich"), succeeding("synthetic"))

	_, err := svc.Acquire(context.Background(), "SPY")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceAttempts.WithLabelValues("rich", metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceAttempts.WithLabelValues("synthetic", metrics.OutcomeSuccess)))
}
