// Package statistics derives risk metrics, histogram bins and the drawdown-run
// distribution from an ensemble of price paths.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"montecarlo-dashboard/internal/model"
	"montecarlo-dashboard/pkg/utils"
)

const (
	DefaultHistogramBins = 24
	DrawdownBucketCount  = 5

	varQuantile   = 0.05
	trimLowerQ    = 0.02
	trimUpperQ    = 0.98
	jitterMaxStep = 2
)

// Result is everything the engine derives from one ensemble.
type Result struct {
	Risk            model.RiskStatistics
	Histogram       model.HistogramData
	Drawdown        model.DrawdownDistribution
	MaxDrawdownRuns []int
}

// Compute is a pure function of the ensemble: calling it twice on the same
// unmodified ensemble gives identical output. The comparison histogram series is
// left empty; see DeriveComparison.
func Compute(e *model.Ensemble, bins int) (*Result, error) {
	if e == nil || e.Size() == 0 {
		return nil, model.ErrEmptyEnsemble
	}
	if bins < 1 {
		bins = DefaultHistogramBins
	}

	runs := make([]int, e.Size())
	for i, p := range e.Paths {
		runs[i] = MaxDrawdownRun(p, e.StartPrice)
	}

	sorted := e.FinalPrices()
	sort.Float64s(sorted)

	valueAtRisk, conditional := tailRisk(sorted)

	return &Result{
		Risk: model.RiskStatistics{
			ValueAtRisk95:            utils.Round(valueAtRisk, 2),
			ConditionalValueAtRisk95: utils.Round(conditional, 2),
			ProbabilityOfProfit:      utils.Round(ProbabilityOfProfit(sorted, e.StartPrice), 1),
			AverageDrawdownDays:      utils.Round(mean(runs), 1),
		},
		Histogram:       Histogram(sorted, bins),
		Drawdown:        DrawdownBuckets(runs, e.Steps()),
		MaxDrawdownRuns: runs,
	}, nil
}

// MaxDrawdownRun is the longest unbroken run of steps with price strictly below
// start, scanning t in [1, len-1). The final price is not part of the scan.
func MaxDrawdownRun(path model.PricePath, start float64) int {
	current, longest := 0, 0
	for t := 1; t < len(path)-1; t++ {
		if path[t] < start {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// tailRisk returns VaR95 and CVaR95 from ascending final prices.
func tailRisk(sorted []float64) (float64, float64) {
	idx := int(math.Floor(varQuantile * float64(len(sorted))))
	valueAtRisk := sorted[idx]

	tail := sorted[:idx+1]
	if len(tail) == 0 {
		return valueAtRisk, valueAtRisk
	}
	sum := 0.0
	for _, v := range tail {
		sum += v
	}
	return valueAtRisk, sum / float64(len(tail))
}

// ProbabilityOfProfit is the percentage of finals strictly above start.
func ProbabilityOfProfit(finals []float64, start float64) float64 {
	if len(finals) == 0 {
		return 0
	}
	profitable := 0
	for _, v := range finals {
		if v > start {
			profitable++
		}
	}
	return float64(profitable) / float64(len(finals)) * 100
}

// Histogram bins ascending final prices into equal-width bins spanning the
// floor(0.02N)-th to floor(0.98N)-th order statistics. Values outside that range
// are not counted. The upper edge is inclusive.
func Histogram(sorted []float64, bins int) model.HistogramData {
	n := len(sorted)
	lo := sorted[int(math.Floor(trimLowerQ*float64(n)))]
	hi := sorted[int(math.Floor(trimUpperQ*float64(n)))]

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = utils.Round(lo+float64(i)*width, 2)
	}

	counts := make([]int, bins)
	for _, v := range sorted {
		if v < lo || v > hi {
			continue
		}
		idx := 0
		if width > 0 {
			idx = int((v - lo) / width)
		}
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	return model.HistogramData{BinEdges: edges, PrimaryCounts: counts}
}

// DrawdownBuckets counts max-run values into five contiguous buckets of width
// max(1, floor((days-1)/5)); the last bucket is open-ended.
func DrawdownBuckets(runs []int, days int) model.DrawdownDistribution {
	step := max(1, (days-1)/DrawdownBucketCount)

	buckets := make([]model.DrawdownBucket, DrawdownBucketCount)
	for i := range buckets {
		lower := i * step
		if i == DrawdownBucketCount-1 {
			buckets[i].Label = fmt.Sprintf("%dd+", lower)
		} else {
			buckets[i].Label = fmt.Sprintf("%d-%dd", lower, lower+step-1)
		}
	}

	for _, r := range runs {
		idx := r / step
		if idx >= DrawdownBucketCount {
			idx = DrawdownBucketCount - 1
		}
		buckets[idx].Count++
	}

	return model.DrawdownDistribution{Buckets: buckets}
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
