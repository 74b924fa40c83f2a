package service

import (
	"context"
	"fmt"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/internal/calibration"
	"montecarlo-dashboard/internal/dto"
	"montecarlo-dashboard/internal/model"
	"montecarlo-dashboard/internal/repository"
	"montecarlo-dashboard/pkg/logger"
)

// CalibrationService estimates per-second GBM parameters for a ticker from
// recent intraday data.
type CalibrationService interface {
	Calibrate(ctx context.Context, ticker string) (*model.TickerProfile, error)
}

type calibrationService struct {
	cfg            *config.Config
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
	now            func() time.Time
}

func NewCalibrationService(cfg *config.Config, log *logger.Logger, marketDataRepo repository.MarketDataRepository) CalibrationService {
	return &calibrationService{
		cfg:            cfg,
		log:            log,
		marketDataRepo: marketDataRepo,
		now:            time.Now,
	}
}

func (s *calibrationService) Calibrate(ctx context.Context, ticker string) (*model.TickerProfile, error) {
	bars, window, err := s.recentAggregates(ctx, ticker)
	if err != nil {
		return nil, err
	}

	startPrice, mu, sigma, err := calibration.Estimate(bars)
	if err != nil {
		return nil, err
	}

	trades, err := s.closingTrades(ctx, ticker)
	if err != nil {
		s.log.WarnContext(ctx, "No closing trades, skipping order-flow adjustment",
			logger.StringField("ticker", ticker),
			logger.ErrorField(err),
		)
	}
	adj := calibration.AdjustDrift(mu, sigma, trades, s.cfg.MarketData.FlowScale, s.cfg.MarketData.MaxShiftSigmas)

	s.log.InfoContext(ctx, "GBM parameters calibrated",
		logger.StringField("ticker", ticker),
		logger.StringField("window_start", window.Start.Format(time.RFC3339)),
		logger.StringField("window_end", window.End.Format(time.RFC3339)),
		logger.IntField("bars", len(bars)),
		logger.FloatField("start_price", startPrice),
		logger.FloatField("mu", mu),
		logger.FloatField("sigma", sigma),
		logger.FloatField("net_flow", adj.NetFlow),
		logger.FloatField("delta_mu", adj.DeltaMu),
	)

	return &model.TickerProfile{
		Symbol:       ticker,
		StartPrice:   startPrice,
		Mu:           adj.Mu,
		Sigma:        sigma,
		StepsPerYear: 1,
	}, nil
}

// recentAggregates walks back day by day until a clamped one-hour window has
// enough one-second bars.
func (s *calibrationService) recentAggregates(ctx context.Context, ticker string) ([]dto.AggregateBar, calibration.Window, error) {
	now := s.now().Add(-15 * time.Minute)
	for i := 0; i < s.cfg.MarketData.MaxBackDays; i++ {
		window := calibration.ClampedHourWindow(now.AddDate(0, 0, -i))
		bars, err := s.marketDataRepo.GetSecondAggregates(ctx, ticker, window)
		if err != nil {
			return nil, calibration.Window{}, err
		}
		if len(bars) >= calibration.MinAggregates {
			return bars, window, nil
		}
	}
	return nil, calibration.Window{}, fmt.Errorf("%w: no window with %d bars in the last %d days",
		calibration.ErrNotEnoughData, calibration.MinAggregates, s.cfg.MarketData.MaxBackDays)
}

// closingTrades returns trades from the last ten minutes of the most recent
// session that had any.
func (s *calibrationService) closingTrades(ctx context.Context, ticker string) ([]dto.Trade, error) {
	today := s.now()
	for i := 0; i < s.cfg.MarketData.MaxBackDays; i++ {
		window := calibration.ClosingWindow(today.AddDate(0, 0, -i))
		trades, err := s.marketDataRepo.GetTrades(ctx, ticker, window, s.cfg.MarketData.MaxTrades)
		if err != nil {
			return nil, err
		}
		if len(trades) > 0 {
			return trades, nil
		}
	}
	return nil, calibration.ErrNotEnoughData
}
