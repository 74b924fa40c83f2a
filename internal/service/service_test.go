package service

import (
	"time"

	"montecarlo-dashboard/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: config.Logger{Level: "info", Encoding: "json"},
		Simulation: config.Simulation{
			Ticker:        "SPY",
			StartPrice:    190.17,
			Mu:            0.5202,
			Sigma:         0.326202,
			StepsPerYear:  252,
			NumPaths:      200,
			NumSteps:      10,
			Seed:          7,
			Workers:       2,
			SpeedupRatio:  15,
			HistogramBins: 24,
		},
		Dashboard: config.Dashboard{
			Timeout:          2 * time.Second,
			RichSampleSize:   35,
			RawSampleSize:    50,
			VizSampleSize:    35,
			SyntheticPaths:   400,
			SyntheticSteps:   30,
			SyntheticWorkers: 2,
			HistogramBins:    24,
			DefaultTicker:    "SPY",
			Tickers:          config.DefaultTickers(),
		},
		MarketData: config.MarketData{
			MaxRequestPerMinute: 60,
			MaxBackDays:         3,
			MaxTrades:           100,
			FlowScale:           0.0001,
			MaxShiftSigmas:      0.5,
		},
	}
}
