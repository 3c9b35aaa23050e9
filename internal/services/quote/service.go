// Package quote serves daily price series from the market-data feed,
// cached per instrument. Series share the ledger's throttler so the two
// upstreams never see bursts from this process.
package quote

import (
	"context"
	"fmt"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/interfaces"
	"github.com/linqiu/folio/internal/models"
	"github.com/linqiu/folio/internal/storage/badger"
	"github.com/linqiu/folio/internal/throttle"
)

// Service implements interfaces.QuoteService.
type Service struct {
	client    interfaces.MarketDataClient
	cache     interfaces.CacheStore
	throttler *throttle.Throttler
	ledger    interfaces.LedgerService
	logger    *common.Logger
	barLimit  int
}

// NewService creates the quote service. barLimit caps how many daily bars
// each refresh requests.
func NewService(client interfaces.MarketDataClient, cache interfaces.CacheStore, throttler *throttle.Throttler, ledger interfaces.LedgerService, barLimit int, logger *common.Logger) *Service {
	if barLimit <= 0 {
		barLimit = 500
	}
	return &Service{
		client:    client,
		cache:     cache,
		throttler: throttler,
		ledger:    ledger,
		logger:    logger,
		barLimit:  barLimit,
	}
}

// ResolveSecID maps an asset to its market-data instrument identifier: the
// name table first, then inference from the exchange code. Empty when the
// asset has no mapping at all.
func (s *Service) ResolveSecID(asset *models.Asset) string {
	if asset == nil {
		return ""
	}
	if id, ok := secidByName[asset.Name]; ok {
		return id
	}
	return inferSecID(asset.Code)
}

// Series returns the daily price series for the named asset, cache-first
// unless force is set. A failed refresh leaves any cached series intact.
func (s *Service) Series(ctx context.Context, asset string, force bool) (*models.PriceSeries, error) {
	resolved, err := s.ledger.AssetByName(ctx, asset)
	if err != nil {
		return nil, err
	}
	secID := s.ResolveSecID(resolved)
	if secID == "" {
		return nil, fmt.Errorf("quote: no instrument mapping for asset '%s'", asset)
	}

	if !force {
		var cached models.PriceSeries
		if s.cache.Get(ctx, badger.NamespaceKline, secID, &cached) {
			return &cached, nil
		}
	}

	series, err := throttle.Do(s.throttler, ctx, func(ctx context.Context) (*models.PriceSeries, error) {
		return s.client.GetKline(ctx, secID, s.barLimit)
	})
	if err != nil {
		return nil, err
	}
	series.SecID = secID

	if err := s.cache.Set(ctx, badger.NamespaceKline, secID, series); err != nil {
		s.logger.Warn().Err(err).Str("secid", secID).Msg("Failed to cache price series")
	}

	s.logger.Debug().Str("secid", secID).Int("bars", len(series.Points)).Msg("Price series refreshed")
	return series, nil
}

// ClearSeries drops every cached price series.
func (s *Service) ClearSeries(ctx context.Context) error {
	return s.cache.Clear(ctx, badger.NamespaceKline)
}

// ClearSeriesFor drops the cached series for one instrument.
func (s *Service) ClearSeriesFor(ctx context.Context, secID string) error {
	return s.cache.ClearKey(ctx, badger.NamespaceKline, secID)
}
