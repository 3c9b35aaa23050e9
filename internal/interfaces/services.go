package interfaces

import (
	"context"

	"github.com/linqiu/folio/internal/models"
)

// LedgerService exposes the asset list and per-asset trade accessors.
// Every accessor reads the cache first unless force is set, and leaves any
// stale cache entry intact when the upstream fetch fails.
type LedgerService interface {
	Assets(ctx context.Context, force bool) ([]models.Asset, error)
	OpenTrades(ctx context.Context, asset string, force bool) ([]models.Trade, error)
	CompletedTrades(ctx context.Context, asset string, force bool) ([]models.Trade, error)

	// AssetByName resolves one asset from the (cached) asset list.
	AssetByName(ctx context.Context, name string) (*models.Asset, error)

	// Select switches the live dashboard selection and kicks off background
	// loads for the new asset's trades. Superseded loads are discarded.
	Select(ctx context.Context, asset string)

	// Snapshots returns the live accessor states for the dashboard.
	Snapshots() models.LedgerSnapshots

	// ClearCache invalidates the ledger namespaces (assets and trades),
	// sparing the price-series cache.
	ClearCache(ctx context.Context) error
}

// QuoteService exposes the price-series accessor.
type QuoteService interface {
	Series(ctx context.Context, asset string, force bool) (*models.PriceSeries, error)

	// ResolveSecID maps an asset to the market-data instrument identifier.
	ResolveSecID(asset *models.Asset) string

	ClearSeries(ctx context.Context) error
	ClearSeriesFor(ctx context.Context, secID string) error
}
