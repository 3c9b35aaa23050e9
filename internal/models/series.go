package models

// PricePoint is one daily bar of a price series.
type PricePoint struct {
	Date   string  `json:"date"` // "2006-01-02"
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
	Amount float64 `json:"amount"`
}

// PriceSeries is an ordered-by-date daily bar sequence for one instrument,
// plus the display metadata the feed returns alongside it.
type PriceSeries struct {
	SecID   string       `json:"sec_id"`
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	Decimal int          `json:"decimal"`
	Total   int          `json:"total"` // feed's total bar count for the instrument
	Points  []PricePoint `json:"points"`
}

// LatestClose returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) LatestClose() float64 {
	if s == nil || len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// ChartPoint is one x-axis day of the merged dashboard chart: price and
// overlay values where a bar exists, buy/sell markers where trades occurred.
// Nil fields render as gaps, which keeps the calendar axis uniform.
type ChartPoint struct {
	Date       string   `json:"date"`
	Close      *float64 `json:"close,omitempty"`
	MA         *float64 `json:"ma,omitempty"`
	UpperBand  *float64 `json:"upper_band,omitempty"`
	LowerBand  *float64 `json:"lower_band,omitempty"`
	BuyPrice   *float64 `json:"buy_price,omitempty"`
	SellPrice  *float64 `json:"sell_price,omitempty"`
	ClosedBuy  *float64 `json:"closed_buy_price,omitempty"`
	ClosedSell *float64 `json:"closed_sell_price,omitempty"`
}

// AssetMetrics carries the derived numbers the dashboard shows per asset.
type AssetMetrics struct {
	Asset        string   `json:"asset"`
	CostBasis    *float64 `json:"cost_basis,omitempty"` // absent when no qualifying open buys
	CurrentPrice float64  `json:"current_price"`        // latest series close, else ledger price
	RelativePct  *float64 `json:"relative_pct,omitempty"`
	OpenTrades   int      `json:"open_trades"`
	ClosedTrades int      `json:"closed_trades"`
	RealizedPnL  float64  `json:"realized_pnl"`
}
