package http

import (
	"errors"
	"net/http"

	"montecarlo-dashboard/internal/dto"
	"montecarlo-dashboard/internal/service"
	"montecarlo-dashboard/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	defaultResultsSampleSize = 35
	defaultRawSampleSize     = 100
)

func (h *HttpAPIHandler) SetupSimulation(base *echo.Group) {
	base.GET("/simulation-results", h.getSimulationResults)
	base.GET("/montecarlo-sample", h.getMonteCarloSample)
}

func (h *HttpAPIHandler) getSimulationResults(c echo.Context) error {
	ctx := c.Request().Context()

	req := &dto.SimulationResultsRequest{SampleSize: defaultResultsSampleSize}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.SimulationService.Results(ctx, req.Ticker, req.SampleSize)
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *HttpAPIHandler) getMonteCarloSample(c echo.Context) error {
	ctx := c.Request().Context()

	req := &dto.MonteCarloSampleRequest{SampleSize: defaultRawSampleSize}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.SimulationService.Sample(ctx, req.SampleSize)
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *HttpAPIHandler) failure(c echo.Context, err error) error {
	if errors.Is(err, service.ErrSimulationNotReady) {
		return c.JSON(http.StatusServiceUnavailable, dto.NewServiceUnavailableResponse(err.Error()))
	}
	h.log.ErrorContext(c.Request().Context(), "Simulation request failed", logger.ErrorField(err))
	return c.JSON(http.StatusInternalServerError, dto.NewInternalErrorResponse())
}
