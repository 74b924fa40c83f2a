package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"montecarlo-dashboard/internal/dto"
	"montecarlo-dashboard/internal/service"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSimulationService struct {
	err        error
	ticker     string
	sampleSize int
}

func (f *fakeSimulationService) Refresh(ctx context.Context) error { return nil }

func (f *fakeSimulationService) Results(ctx context.Context, ticker string, sampleSize int) (*dto.SimulationResultsResponse, error) {
	f.ticker, f.sampleSize = ticker, sampleSize
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SimulationResultsResponse{Ticker: ticker, NumPaths: 10, SamplePaths: make([][]float64, sampleSize)}, nil
}

func (f *fakeSimulationService) Sample(ctx context.Context, sampleSize int) (*dto.MonteCarloSampleResponse, error) {
	f.sampleSize = sampleSize
	if f.err != nil {
		return nil, f.err
	}
	return &dto.MonteCarloSampleResponse{Paths: make([][]float64, sampleSize)}, nil
}

func newTestHandler(fake *fakeSimulationService) *echo.Echo {
	e := echo.New()
	h := NewHttpAPIHandler(context.Background(), e, goValidator.New(), logger.NewNop(), &service.Service{SimulationService: fake}, metrics.New("test"), nil)
	h.SetupRoutes()
	return e
}

func serve(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetSimulationResults(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantTicker string
		wantSample int
	}{
		{
			name:       "defaults",
			target:     "/simulation-results",
			wantStatus: http.StatusOK,
			wantSample: defaultResultsSampleSize,
		},
		{
			name:       "explicit ticker and sample size",
			target:     "/simulation-results?ticker=NVDA&sample_size=5",
			wantStatus: http.StatusOK,
			wantTicker: "NVDA",
			wantSample: 5,
		},
		{
			name:       "sample size too large",
			target:     "/simulation-results?sample_size=10001",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "sample size not a number",
			target:     "/simulation-results?sample_size=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not ready",
			target:     "/simulation-results",
			err:        service.ErrSimulationNotReady,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "internal failure",
			target:     "/simulation-results",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSimulationService{err: tt.err}
			rec := serve(newTestHandler(fake), tt.target)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				var body dto.BaseResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantStatus, body.Code)
				return
			}

			var body dto.SimulationResultsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantTicker, body.Ticker)
			assert.Len(t, body.SamplePaths, tt.wantSample)
			assert.Equal(t, tt.wantSample, fake.sampleSize)
		})
	}
}

func TestGetMonteCarloSample(t *testing.T) {
	t.Run("default sample size", func(t *testing.T) {
		fake := &fakeSimulationService{}
		rec := serve(newTestHandler(fake), "/montecarlo-sample")

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string][][]float64
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body["paths"], defaultRawSampleSize)
	})

	t.Run("zero sample size rejected", func(t *testing.T) {
		rec := serve(newTestHandler(&fakeSimulationService{}), "/montecarlo-sample?sample_size=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		rec := serve(newTestHandler(&fakeSimulationService{err: service.ErrSimulationNotReady}), "/montecarlo-sample?sample_size=3")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRequestIDAndMetricsRoutes(t *testing.T) {
	e := newTestHandler(&fakeSimulationService{})

	rec := serve(e, "/montecarlo-sample?sample_size=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/montecarlo-sample?sample_size=1", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(e, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
