package cmd

import (
	"context"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/pkg/cache"
	"montecarlo-dashboard/pkg/logger"
	"montecarlo-dashboard/pkg/metrics"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AppDependency struct {
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	metrics   *metrics.Metrics
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		echo:      e,
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		metrics:   metrics.New(cfg.Metrics.Namespace),
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	d.cache.Flush()
	_ = d.log.Sync()
	return nil
}
