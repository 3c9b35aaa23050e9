package models

// TradeStatus distinguishes held positions from fully closed round trips.
type TradeStatus string

const (
	TradeOpen      TradeStatus = "open"
	TradeCompleted TradeStatus = "completed"
)

// Trade is a read-only projection of one row of the trade ledger. A trade
// with no sell side is an open position; one with both sides populated is a
// completed round trip. Dates are calendar-date strings ("2006-01-02"); the
// ledger stores them as epoch-millis timestamps.
type Trade struct {
	ID         string      `json:"id"`
	Asset      AssetRef    `json:"asset"`
	BuyDate    string      `json:"buy_date,omitempty"`
	BuyPrice   float64     `json:"buy_price"`
	BuyQty     float64     `json:"buy_qty"`
	BuyAmount  float64     `json:"buy_amount"`
	SellDate   string      `json:"sell_date,omitempty"`
	SellPrice  float64     `json:"sell_price"`
	SellQty    float64     `json:"sell_qty"`
	SellAmount float64     `json:"sell_amount"`
	Status     TradeStatus `json:"status"`
	PnLAmount  float64     `json:"pnl_amount"`
	PnLRatio   float64     `json:"pnl_ratio"`
	Fee        float64     `json:"fee"`
}

// HasBuy reports whether the buy side is populated with a usable fill.
func (t *Trade) HasBuy() bool {
	return t.BuyDate != "" && t.BuyPrice > 0
}

// HasSell reports whether the sell side is populated with a usable fill.
func (t *Trade) HasSell() bool {
	return t.SellDate != "" && t.SellPrice > 0
}

// IsCompleted reports whether both sides of the trade are recorded.
func (t *Trade) IsCompleted() bool {
	return t.HasBuy() && t.HasSell()
}
