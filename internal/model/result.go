package model

// RiskStatistics are scalar metrics over an ensemble's final prices.
type RiskStatistics struct {
	ValueAtRisk95            float64 `json:"value_at_risk_95"`
	ConditionalValueAtRisk95 float64 `json:"conditional_value_at_risk_95"`
	ProbabilityOfProfit      float64 `json:"probability_of_profit"`
	AverageDrawdownDays      float64 `json:"average_drawdown_days"`
}

// HistogramData holds len(BinEdges)-1 bins and two count series over the same edges.
type HistogramData struct {
	BinEdges         []float64 `json:"bin_edges"`
	PrimaryCounts    []int     `json:"primary_counts"`
	ComparisonCounts []int     `json:"comparison_counts"`
}

type DrawdownBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DrawdownDistribution partitions the max drawdown-run length into contiguous
// day ranges; the last bucket is open-ended.
type DrawdownDistribution struct {
	Buckets []DrawdownBucket `json:"buckets"`
}

func (d DrawdownDistribution) Total() int {
	total := 0
	for _, b := range d.Buckets {
		total += b.Count
	}
	return total
}

type PerformanceMetrics struct {
	FastMs  float64 `json:"fast_ms"`
	SlowMs  float64 `json:"slow_ms"`
	Speedup float64 `json:"speedup"`
}

// CanonicalResult is the only shape handed to presentation code. It carries no
// trace of the source that produced it.
type CanonicalResult struct {
	Ticker      string               `json:"ticker"`
	StartPrice  float64              `json:"start_price"`
	Steps       int                  `json:"steps"`
	Paths       int                  `json:"paths"`
	Performance PerformanceMetrics   `json:"performance"`
	Risk        RiskStatistics       `json:"risk"`
	Histogram   HistogramData        `json:"histogram"`
	Drawdown    DrawdownDistribution `json:"drawdown"`
	SamplePaths []PricePath          `json:"sample_paths"`
}
