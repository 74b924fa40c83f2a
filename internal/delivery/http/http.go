package http

import (
	"context"

	"montecarlo-dashboard/internal/service"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"
	"montecarlo-dashboard/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	log       *logger.Logger
	service   *service.Service
	metrics   *metrics.Metrics
	limiter   echo.MiddlewareFunc
}

func NewHttpAPIHandler(
	ctx context.Context,
	echo *echo.Echo,
	validator *goValidator.Validate,
	log *logger.Logger,
	service *service.Service,
	metrics *metrics.Metrics,
	limiter echo.MiddlewareFunc,
) *HttpAPIHandler {
	if limiter == nil {
		limiter = middleware.Passthrough
	}
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		log:       log,
		service:   service,
		metrics:   metrics,
		limiter:   limiter,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))

	base := h.echo.Group("", h.limiter, h.requestLogger)
	h.SetupSimulation(base)
}

// requestLogger tags the request context logger with a request id, reusing
// the caller's X-Request-ID when present.
func (h *HttpAPIHandler) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		requestID := req.Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		reqLog := h.log.With(
			logger.StringField("request_id", requestID),
			logger.StringField("path", c.Path()),
			logger.StringField("remote_ip", c.RealIP()),
		)
		c.SetRequest(req.WithContext(logger.NewContext(req.Context(), reqLog)))
		return next(c)
	}
}
