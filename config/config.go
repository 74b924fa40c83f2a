package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        Logger     `mapstructure:"logger"`
	API        API        `mapstructure:"api"`
	Simulation Simulation `mapstructure:"simulation"`
	Cache      Cache      `mapstructure:"cache"`
	RateLimit  RateLimit  `mapstructure:"rate_limit"`
	Dashboard  Dashboard  `mapstructure:"dashboard"`
	MarketData MarketData `mapstructure:"market_data"`
	Metrics    Metrics    `mapstructure:"metrics"`
}

type Metrics struct {
	Namespace string `mapstructure:"namespace" validate:"required"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"required"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
}

type API struct {
	Port            int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Simulation configures the ensemble served by the simulation API.
type Simulation struct {
	Ticker          string  `mapstructure:"ticker" validate:"required"`
	StartPrice      float64 `mapstructure:"start_price" validate:"gt=0"`
	Mu              float64 `mapstructure:"mu"`
	Sigma           float64 `mapstructure:"sigma" validate:"gt=0"`
	StepsPerYear    float64 `mapstructure:"steps_per_year" validate:"gte=0"`
	NumPaths        int     `mapstructure:"n_paths" validate:"gte=1"`
	NumSteps        int     `mapstructure:"n_steps" validate:"gte=2"`
	Seed            int64   `mapstructure:"seed"`
	Workers         int     `mapstructure:"workers" validate:"gte=1"`
	SpeedupRatio    float64 `mapstructure:"speedup_ratio" validate:"gt=0"`
	HistogramBins   int     `mapstructure:"histogram_bins" validate:"gte=1"`
	RefreshSchedule string  `mapstructure:"refresh_schedule"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimit struct {
	Rate      float64       `mapstructure:"rate" validate:"gt=0"`
	Burst     int           `mapstructure:"burst" validate:"gte=1"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

// Dashboard configures the acquisition side: which endpoints to try and how the
// synthetic fallback is shaped.
type Dashboard struct {
	BaseURL           string                   `mapstructure:"base_url"`
	Timeout           time.Duration            `mapstructure:"timeout"`
	RichSampleSize    int                      `mapstructure:"rich_sample_size" validate:"gte=1"`
	RawSampleSize     int                      `mapstructure:"raw_sample_size" validate:"gte=1"`
	VizSampleSize     int                      `mapstructure:"viz_sample_size" validate:"gte=1"`
	SyntheticPaths    int                      `mapstructure:"synthetic_paths" validate:"gte=1"`
	SyntheticSteps    int                      `mapstructure:"synthetic_steps" validate:"gte=2"`
	SyntheticWorkers  int                      `mapstructure:"synthetic_workers" validate:"gte=1"`
	SyntheticDelayMin time.Duration            `mapstructure:"synthetic_delay_min"`
	SyntheticDelayMax time.Duration            `mapstructure:"synthetic_delay_max" validate:"gtefield=SyntheticDelayMin"`
	HistogramBins     int                      `mapstructure:"histogram_bins" validate:"gte=1"`
	DefaultTicker     string                   `mapstructure:"default_ticker" validate:"required"`
	Tickers           map[string]TickerProfile `mapstructure:"tickers" validate:"dive"`
}

type TickerProfile struct {
	Name       string  `mapstructure:"name"`
	StartPrice float64 `mapstructure:"start_price" validate:"gt=0"`
	Mu         float64 `mapstructure:"mu"`
	Sigma      float64 `mapstructure:"sigma" validate:"gt=0"`
}

type MarketData struct {
	Enabled             bool          `mapstructure:"enabled"`
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"gte=1"`
	MaxBackDays         int           `mapstructure:"max_back_days" validate:"gte=1"`
	MaxTrades           int           `mapstructure:"max_trades" validate:"gte=1"`
	FlowScale           float64       `mapstructure:"flow_scale"`
	MaxShiftSigmas      float64       `mapstructure:"max_shift_sigmas" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.read_timeout", 15*time.Second)
	v.SetDefault("api.write_timeout", 60*time.Second)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)

	v.SetDefault("simulation.ticker", "SPY")
	v.SetDefault("simulation.start_price", 190.17)
	v.SetDefault("simulation.mu", 0.520200)
	v.SetDefault("simulation.sigma", 0.326202)
	v.SetDefault("simulation.steps_per_year", 252)
	v.SetDefault("simulation.n_paths", 100_000)
	v.SetDefault("simulation.n_steps", 60)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.workers", 8)
	v.SetDefault("simulation.speedup_ratio", 15.0)
	v.SetDefault("simulation.histogram_bins", 24)
	v.SetDefault("simulation.refresh_schedule", "")

	v.SetDefault("cache.default_expiration", 30*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("rate_limit.rate", 10)
	v.SetDefault("rate_limit.burst", 30)
	v.SetDefault("rate_limit.expires_in", 3*time.Minute)

	v.SetDefault("dashboard.base_url", "http://localhost:8000")
	v.SetDefault("dashboard.timeout", 10*time.Second)
	v.SetDefault("dashboard.rich_sample_size", 35)
	v.SetDefault("dashboard.raw_sample_size", 1000)
	v.SetDefault("dashboard.viz_sample_size", 35)
	v.SetDefault("dashboard.synthetic_paths", 10_000)
	v.SetDefault("dashboard.synthetic_steps", 252)
	v.SetDefault("dashboard.synthetic_workers", 4)
	v.SetDefault("dashboard.synthetic_delay_min", 0)
	v.SetDefault("dashboard.synthetic_delay_max", 0)
	v.SetDefault("dashboard.histogram_bins", 24)
	v.SetDefault("dashboard.default_ticker", "SPY")

	v.SetDefault("metrics.namespace", "montecarlo")

	v.SetDefault("market_data.enabled", false)
	v.SetDefault("market_data.base_url", "https://api.polygon.io")
	v.SetDefault("market_data.timeout", 15*time.Second)
	v.SetDefault("market_data.max_request_per_minute", 5)
	v.SetDefault("market_data.max_back_days", 10)
	v.SetDefault("market_data.max_trades", 2000)
	v.SetDefault("market_data.flow_scale", 0.0001)
	v.SetDefault("market_data.max_shift_sigmas", 0.5)
}

// DefaultTickers is the built-in ticker set. Tickers configured under
// dashboard.tickers override entries with the same symbol.
func DefaultTickers() map[string]TickerProfile {
	return map[string]TickerProfile{
		"SPY":  {Name: "SPDR S&P 500 ETF", StartPrice: 512.40, Mu: 0.09, Sigma: 0.16},
		"QQQ":  {Name: "Invesco QQQ Trust", StartPrice: 438.10, Mu: 0.12, Sigma: 0.22},
		"AAPL": {Name: "Apple Inc.", StartPrice: 190.17, Mu: 0.5202, Sigma: 0.326202},
		"NVDA": {Name: "NVIDIA Corp.", StartPrice: 875.30, Mu: 0.45, Sigma: 0.52},
		"TSLA": {Name: "Tesla Inc.", StartPrice: 178.20, Mu: 0.15, Sigma: 0.61},
		"MSFT": {Name: "Microsoft Corp.", StartPrice: 415.50, Mu: 0.14, Sigma: 0.24},
	}
}

// Load reads configuration from an optional .env file, an optional yaml file and
// the environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded:", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	tickers := DefaultTickers()
	for symbol, profile := range cfg.Dashboard.Tickers {
		tickers[strings.ToUpper(symbol)] = profile
	}
	cfg.Dashboard.Tickers = tickers

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := goValidator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, ok := cfg.Dashboard.Tickers[strings.ToUpper(cfg.Dashboard.DefaultTicker)]; !ok {
		return fmt.Errorf("invalid configuration: default ticker %q has no profile", cfg.Dashboard.DefaultTicker)
	}
	return nil
}
