package dto

// AggregateBar is one Polygon-style aggregate bar. Timestamp is unix millis.
type AggregateBar struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type AggregatesResponse struct {
	Ticker       string         `json:"ticker"`
	Status       string         `json:"status"`
	ResultsCount int            `json:"resultsCount"`
	Results      []AggregateBar `json:"results"`
}

type Trade struct {
	Price                float64 `json:"price"`
	Size                 float64 `json:"size"`
	SIPTimestamp         int64   `json:"sip_timestamp"`
	ParticipantTimestamp int64   `json:"participant_timestamp"`
}

type TradesResponse struct {
	Status  string  `json:"status"`
	Results []Trade `json:"results"`
	NextURL string  `json:"next_url"`
}
