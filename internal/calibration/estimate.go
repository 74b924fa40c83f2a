// Package calibration estimates GBM parameters from intraday market data.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"montecarlo-dashboard/internal/dto"
)

// MinAggregates is the fewest one-second bars a window needs to be usable.
const MinAggregates = 10

var ErrNotEnoughData = errors.New("not enough data to estimate parameters")

// LogReturnParams returns the mean and sample standard deviation (n-1) of the
// log returns of closes.
func LogReturnParams(closes []float64) (mu, sigma float64, err error) {
	if len(closes) < 3 {
		return 0, 0, ErrNotEnoughData
	}

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i] <= 0 || closes[i-1] <= 0 {
			return 0, 0, errors.New("closes must be positive")
		}
		returns[i-1] = math.Log(closes[i] / closes[i-1])
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	mu = sum / float64(len(returns))

	sq := 0.0
	for _, r := range returns {
		sq += (r - mu) * (r - mu)
	}
	sigma = math.Sqrt(sq / float64(len(returns)-1))
	return mu, sigma, nil
}

// ToPerSecond rescales per-observation parameters to per-second ones given the
// first and last bar timestamps (unix millis) and the number of bars.
func ToPerSecond(mu, sigma float64, firstMs, lastMs int64, bars int) (float64, float64) {
	elapsed := math.Max(float64(lastMs-firstMs)/1000, 1)
	n := math.Max(float64(bars-1), 1)

	return mu * (n / elapsed), sigma * math.Sqrt(n/elapsed)
}

// Estimate sorts bars by time and returns the last close with per-second mu and sigma.
func Estimate(bars []dto.AggregateBar) (startPrice, mu, sigma float64, err error) {
	if len(bars) < MinAggregates {
		return 0, 0, 0, ErrNotEnoughData
	}

	sorted := append([]dto.AggregateBar(nil), bars...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
	}

	sampleMu, sampleSigma, err := LogReturnParams(closes)
	if err != nil {
		return 0, 0, 0, err
	}

	mu, sigma = ToPerSecond(sampleMu, sampleSigma, sorted[0].Timestamp, sorted[len(sorted)-1].Timestamp, len(sorted))
	startPrice = closes[len(closes)-1]
	if !(sigma > 0) || !finite(mu, sigma, startPrice) {
		return 0, 0, 0, fmt.Errorf("%w: degenerate window (mu=%g sigma=%g)", ErrNotEnoughData, mu, sigma)
	}
	return startPrice, mu, sigma, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
