package calibration

import (
	"math"

	"montecarlo-dashboard/internal/dto"
)

// FlowAdjustment describes how order flow nudged the drift.
type FlowAdjustment struct {
	NetFlow   float64 `json:"net_flow"`
	Sentiment float64 `json:"sentiment"`
	DeltaMu   float64 `json:"delta_mu"`
	Mu        float64 `json:"mu"`
}

// NetFlow is sum(size_i * (price_i - price_{i-1})) over consecutive trades.
func NetFlow(trades []dto.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}
	flow := 0.0
	for i := 1; i < len(trades); i++ {
		flow += trades[i].Size * (trades[i].Price - trades[i-1].Price)
	}
	return flow
}

// AdjustDrift maps net flow to a sentiment in [-1, 1] with tanh, caps it at
// +-maxShiftSigmas and shifts mu by that many sigmas.
func AdjustDrift(mu, sigma float64, trades []dto.Trade, flowScale, maxShiftSigmas float64) FlowAdjustment {
	if len(trades) < 2 {
		return FlowAdjustment{Mu: mu}
	}

	flow := NetFlow(trades)
	sentiment := math.Tanh(flowScale * flow)
	clipped := math.Max(-maxShiftSigmas, math.Min(maxShiftSigmas, sentiment))
	delta := clipped * sigma

	return FlowAdjustment{
		NetFlow:   flow,
		Sentiment: sentiment,
		DeltaMu:   delta,
		Mu:        mu + delta,
	}
}
