// Package ledger reads the portfolio's spreadsheet ledger: the asset list
// and the open and completed trade sheets. Every upstream read funnels
// through the shared throttler and lands in the TTL cache.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/interfaces"
	"github.com/linqiu/folio/internal/models"
	"github.com/linqiu/folio/internal/services/accessor"
	"github.com/linqiu/folio/internal/storage/badger"
	"github.com/linqiu/folio/internal/throttle"
)

// Service implements interfaces.LedgerService over a spreadsheet client,
// a cache store and the shared request throttler.
type Service struct {
	client    interfaces.LedgerClient
	cache     interfaces.CacheStore
	throttler *throttle.Throttler
	config    common.VikaConfig
	logger    *common.Logger

	assets    *accessor.Accessor[[]models.Asset]
	open      *accessor.Accessor[[]models.Trade]
	completed *accessor.Accessor[[]models.Trade]

	mu       sync.Mutex
	selected string
}

// NewService creates the ledger service and wires its three accessors.
func NewService(client interfaces.LedgerClient, cache interfaces.CacheStore, throttler *throttle.Throttler, config common.VikaConfig, logger *common.Logger) *Service {
	s := &Service{
		client:    client,
		cache:     cache,
		throttler: throttler,
		config:    config,
		logger:    logger,
	}

	s.assets = accessor.New(s.fetchAssets)
	s.open = accessor.New(s.tradeFetch(config.TradesDatasheetID, config.TradesViewID, badger.NamespaceTrades, models.TradeOpen))
	s.completed = accessor.New(s.tradeFetch(config.CompletedDatasheetID, config.CompletedViewID, badger.NamespaceCompletedTrades, models.TradeCompleted))

	return s
}

// Assets returns the asset list, cache-first unless force is set.
func (s *Service) Assets(ctx context.Context, force bool) ([]models.Asset, error) {
	return s.assets.Fetch(ctx, "", force)
}

// OpenTrades returns the open positions recorded for the named asset.
func (s *Service) OpenTrades(ctx context.Context, asset string, force bool) ([]models.Trade, error) {
	if asset == "" {
		return nil, errors.New("ledger: asset name required")
	}
	return s.open.Fetch(ctx, asset, force)
}

// CompletedTrades returns the closed round trips recorded for the named asset.
func (s *Service) CompletedTrades(ctx context.Context, asset string, force bool) ([]models.Trade, error) {
	if asset == "" {
		return nil, errors.New("ledger: asset name required")
	}
	return s.completed.Fetch(ctx, asset, force)
}

// AssetByName resolves one asset from the (cached) asset list.
func (s *Service) AssetByName(ctx context.Context, name string) (*models.Asset, error) {
	assets, err := s.Assets(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if assets[i].Name == name {
			return &assets[i], nil
		}
	}
	return nil, fmt.Errorf("ledger: unknown asset '%s'", name)
}

// Select switches the live dashboard selection and kicks off background
// loads of both trade sheets for the new asset. A load still running for a
// previous selection is discarded when it completes.
func (s *Service) Select(ctx context.Context, asset string) {
	s.mu.Lock()
	s.selected = asset
	s.mu.Unlock()

	s.logger.Debug().Str("asset", asset).Msg("Asset selected")

	// Detach from the caller's lifetime; selection loads outlive the request.
	bg := context.WithoutCancel(ctx)
	s.open.Start(bg, asset, false)
	s.completed.Start(bg, asset, false)
}

// Snapshots returns the live accessor states for the dashboard.
func (s *Service) Snapshots() models.LedgerSnapshots {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	return models.LedgerSnapshots{
		Selected:  selected,
		Open:      tradeSnapshot(s.open.Snapshot()),
		Completed: tradeSnapshot(s.completed.Snapshot()),
	}
}

func tradeSnapshot(snap accessor.Snapshot[[]models.Trade]) models.TradeSnapshot {
	return models.TradeSnapshot{
		Asset:     snap.Key,
		Status:    snap.Status,
		Trades:    snap.Items,
		Error:     snap.Err,
		UpdatedAt: snap.UpdatedAt,
	}
}

// ClearCache invalidates the ledger namespaces. The price-series cache is
// deliberately spared; series are refreshed on their own cadence.
func (s *Service) ClearCache(ctx context.Context) error {
	var errs []error
	for _, ns := range []string{badger.NamespaceAssets, badger.NamespaceTrades, badger.NamespaceCompletedTrades} {
		if err := s.cache.Clear(ctx, ns); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info().Msg("Ledger cache cleared")
	return nil
}

// fetchAssets is the asset accessor's pipeline: cache, else one throttled
// query of the asset datasheet. Rows without a name are skipped. A failed
// fetch leaves any cached copy untouched.
func (s *Service) fetchAssets(ctx context.Context, _ string, force bool) ([]models.Asset, error) {
	if !force {
		var cached []models.Asset
		if s.cache.Get(ctx, badger.NamespaceAssets, "", &cached) {
			return cached, nil
		}
	}

	records, err := throttle.Do(s.throttler, ctx, func(ctx context.Context) ([]models.Record, error) {
		return s.client.QueryRecords(ctx, s.config.AssetsDatasheetID, s.config.AssetsViewID)
	})
	if err != nil {
		return nil, err
	}

	assets := make([]models.Asset, 0, len(records))
	for _, rec := range records {
		a := projectAsset(rec)
		if a.Name == "" {
			continue
		}
		assets = append(assets, a)
	}

	if err := s.cache.Set(ctx, badger.NamespaceAssets, "", assets); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache asset list")
	}

	s.logger.Debug().Int("count", len(assets)).Msg("Asset list refreshed")
	return assets, nil
}

// tradeFetch builds the pipeline for one trade sheet: cache per asset name,
// else one throttled query of the sheet, projected and filtered down to the
// asset's rows. The asset is resolved through the cached asset list, so a
// cold start costs two throttled calls, matching the sheet's linked-record
// layout.
func (s *Service) tradeFetch(datasheetID, viewID, namespace string, status models.TradeStatus) accessor.FetchFunc[[]models.Trade] {
	return func(ctx context.Context, asset string, force bool) ([]models.Trade, error) {
		if !force {
			var cached []models.Trade
			if s.cache.Get(ctx, namespace, asset, &cached) {
				return cached, nil
			}
		}

		resolved, err := s.AssetByName(ctx, asset)
		if err != nil {
			return nil, err
		}

		records, err := throttle.Do(s.throttler, ctx, func(ctx context.Context) ([]models.Record, error) {
			return s.client.QueryRecords(ctx, datasheetID, viewID)
		})
		if err != nil {
			return nil, err
		}

		trades := make([]models.Trade, 0, len(records))
		for _, rec := range records {
			trades = append(trades, projectTrade(rec, status))
		}
		trades = filterTradesForAsset(trades, resolved)

		if err := s.cache.Set(ctx, namespace, asset, trades); err != nil {
			s.logger.Warn().Err(err).Str("asset", asset).Msg("Failed to cache trades")
		}

		s.logger.Debug().
			Str("asset", asset).
			Str("status", string(status)).
			Int("count", len(trades)).
			Msg("Trades refreshed")
		return trades, nil
	}
}
