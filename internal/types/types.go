package types

import "github.com/shopspring/decimal"

// Quote is a snapshot of real-time market data for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"last_price"`
	ChangePct     float64 `json:"change_pct"`
	Volume        int64   `json:"volume"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
}

type Candle struct {
	Ts                     int64
	Open, High, Low, Close float64
	Vol                    int64
}

type NewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url,omitempty"`
}

// RiskProfile is the user's tolerance ceiling for recommendations.
type RiskProfile string

const (
	RiskLow    RiskProfile = "Low"
	RiskMedium RiskProfile = "Medium"
	RiskHigh   RiskProfile = "High"
)

// Rank orders profiles so recommendations can be gated against the
// user's ceiling. Unknown profiles rank highest so they never pass.
func (r RiskProfile) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return 3
}

func (r RiskProfile) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// AnalysisInput is everything the recommendation engine sees for one ticker.
type AnalysisInput struct {
	Ticker      string
	Quote       *Quote
	History     []Candle
	News        []NewsItem
	RiskProfile RiskProfile
}

// Recommendation is the structured output of the recommendation engine.
type Recommendation struct {
	Ticker      string `json:"ticker"`
	Confidence  int    `json:"confidence"` // percent, 0-100
	RiskLevel   string `json:"risk_level"`
	Action      string `json:"action"` // BUY, SELL or HOLD
	TimeHorizon string `json:"time_horizon"`
	Reasoning   string `json:"reasoning"`
}

type Position struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MarketValue decimal.Decimal `json:"market_value"`
}

type OrderReq struct {
	AccountID string
	Symbol    string
	Action    string // BUY or SELL
	Quantity  int64
	PriceType string // MARKET, LIMIT, ...
}

type OrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SimulatedTrade records one fill against the local paper portfolio.
type SimulatedTrade struct {
	Symbol   string          `json:"symbol"`
	Action   string          `json:"action"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Drift is one line of a local-vs-live portfolio reconciliation.
type Drift struct {
	Symbol   string `json:"symbol"`
	LocalQty int64  `json:"local_qty"`
	LiveQty  int64  `json:"live_qty"`
}

func (d Drift) Delta() int64 { return d.LocalQty - d.LiveQty }
