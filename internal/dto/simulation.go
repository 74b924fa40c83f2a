package dto

// SimulationResultsResponse is the payload of the rich endpoint
// (GET /simulation-results).
type SimulationResultsResponse struct {
	Ticker                   string      `json:"ticker"`
	StartPrice               float64     `json:"start_price"`
	NumPaths                 int         `json:"n_paths"`
	NumSteps                 int         `json:"n_steps"`
	CPUTimeMs                float64     `json:"cpu_time_ms"`
	FPGATimeMs               float64     `json:"fpga_time_ms"`
	SpeedImprovementX        float64     `json:"speed_improvement_x"`
	ValueAtRisk95            float64     `json:"value_at_risk_95"`
	ConditionalValueAtRisk95 float64     `json:"conditional_value_at_risk_95"`
	ProbabilityOfProfit      float64     `json:"probability_of_profit"`
	AverageDrawdownDays      float64     `json:"average_drawdown_days"`
	HistogramBinEdges        []float64   `json:"histogram_bin_edges"`
	HistogramFPGACounts      []int       `json:"histogram_fpga_counts"`
	HistogramCPUCounts       []int       `json:"histogram_cpu_counts"`
	DrawdownBinEdges         []string    `json:"drawdown_bin_edges"`
	DrawdownCounts           []int       `json:"drawdown_counts"`
	SamplePaths              [][]float64 `json:"sample_paths"`
}

// MonteCarloSampleResponse is the payload of the raw-paths endpoint
// (GET /montecarlo-sample).
type MonteCarloSampleResponse struct {
	Paths [][]float64 `json:"paths"`
}

type SimulationResultsRequest struct {
	Ticker     string `query:"ticker" validate:"omitempty,max=16"`
	SampleSize int    `query:"sample_size" validate:"gte=1,lte=10000"`
}

type MonteCarloSampleRequest struct {
	SampleSize int `query:"sample_size" validate:"gte=1,lte=10000"`
}
