// Package interfaces defines service contracts for folio
package interfaces

import (
	"context"

	"github.com/linqiu/folio/internal/models"
)

// LedgerClient reads raw records from the spreadsheet ledger service.
type LedgerClient interface {
	// QueryRecords fetches all records of one datasheet view.
	QueryRecords(ctx context.Context, datasheetID, viewID string) ([]models.Record, error)
}

// MarketDataClient fetches daily bar series from the market-data feed.
type MarketDataClient interface {
	// GetKline fetches up to limit daily bars for the given instrument.
	GetKline(ctx context.Context, secID string, limit int) (*models.PriceSeries, error)
}
