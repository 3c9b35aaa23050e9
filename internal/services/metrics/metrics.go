// Package metrics computes the dashboard's derived numbers from accessor
// outputs. Everything here is a full recomputation over the inputs; no
// incremental state survives between calls.
package metrics

import (
	"github.com/linqiu/folio/internal/models"
)

const (
	// DefaultWindow is the moving-average lookback in calendar bars.
	DefaultWindow = 60

	// DefaultBandPct is the symmetric band width around the moving average.
	DefaultBandPct = 0.15
)

// CostBasis returns the quantity-weighted average purchase price across the
// given open trades: sum(buyAmount) / sum(buyQty) over trades with a buy
// date and positive quantity. ok is false when no trade qualifies: an
// absent basis, never zero or NaN.
func CostBasis(trades []models.Trade) (basis float64, ok bool) {
	var totalAmount, totalQty float64
	for i := range trades {
		t := &trades[i]
		if t.BuyDate == "" || t.BuyQty <= 0 {
			continue
		}
		totalAmount += t.BuyAmount
		totalQty += t.BuyQty
	}
	if totalQty <= 0 {
		return 0, false
	}
	return totalAmount / totalQty, true
}

// MovingAverage returns the rolling mean of closes with the given window.
// The window grows from the start of the series: index i averages closes
// max(0, i-window+1) .. i inclusive.
func MovingAverage(points []models.PricePoint, window int) []float64 {
	if window <= 0 {
		window = DefaultWindow
	}

	out := make([]float64, len(points))
	var sum float64
	for i := range points {
		sum += points[i].Close
		if i >= window {
			sum -= points[i-window].Close
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Bands returns symmetric percentage bands around each moving-average value:
// upper = ma * (1 + pct), lower = ma * (1 - pct).
func Bands(ma []float64, pct float64) (upper, lower []float64) {
	if pct <= 0 {
		pct = DefaultBandPct
	}
	upper = make([]float64, len(ma))
	lower = make([]float64, len(ma))
	for i, v := range ma {
		upper[i] = v * (1 + pct)
		lower[i] = v * (1 - pct)
	}
	return upper, lower
}

// RelativePercent returns how far current sits from reference, in percent:
// (current/reference - 1) * 100. ok is false for a non-positive reference.
func RelativePercent(current, reference float64) (pct float64, ok bool) {
	if reference <= 0 {
		return 0, false
	}
	return (current/reference - 1) * 100, true
}

// CurrentPrice picks the price to show for an asset: the latest series
// close when a series is available, else the ledger's reported price.
func CurrentPrice(asset *models.Asset, series *models.PriceSeries) float64 {
	if c := series.LatestClose(); c > 0 {
		return c
	}
	if asset != nil {
		return asset.CurrentPrice
	}
	return 0
}

// Compute assembles the per-asset metric summary the dashboard shows.
func Compute(asset *models.Asset, open, completed []models.Trade, series *models.PriceSeries) models.AssetMetrics {
	m := models.AssetMetrics{
		OpenTrades:   len(open),
		ClosedTrades: len(completed),
		CurrentPrice: CurrentPrice(asset, series),
	}
	if asset != nil {
		m.Asset = asset.Name
	}

	for i := range completed {
		m.RealizedPnL += completed[i].PnLAmount
	}

	if basis, ok := CostBasis(open); ok {
		m.CostBasis = &basis
		if pct, ok := RelativePercent(m.CurrentPrice, basis); ok {
			m.RelativePct = &pct
		}
	}
	return m
}
