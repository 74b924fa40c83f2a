package model

// TradingDaysPerYear is the default number of GBM steps per year.
const TradingDaysPerYear = 252

// TickerProfile holds the GBM parameters used to synthesize paths for a symbol.
// Mu and Sigma are annualized unless StepsPerYear says otherwise.
type TickerProfile struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	StartPrice   float64 `json:"start_price"`
	Mu           float64 `json:"mu"`
	Sigma        float64 `json:"sigma"`
	StepsPerYear float64 `json:"steps_per_year"`
}
