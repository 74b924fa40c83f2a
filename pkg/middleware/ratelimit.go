package middleware

import (
	"net/http"

	"montecarlo-dashboard/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// errorBody mirrors the API's error envelope.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRateLimiterMiddleware throttles each client IP to cfg.Rate requests per
// second with bursts of cfg.Burst. Idle clients are forgotten after cfg.ExpiresIn.
func NewRateLimiterMiddleware(cfg config.RateLimit) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.Rate),
		Burst:     cfg.Burst,
		ExpiresIn: cfg.ExpiresIn,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorBody{
				Code:    http.StatusForbidden,
				Message: "unable to identify client",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, errorBody{
				Code:    http.StatusTooManyRequests,
				Message: "rate limit exceeded, retry later",
			})
		},
	})
}

// Passthrough is a no-op middleware.
func Passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
