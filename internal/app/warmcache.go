package app

import (
	"context"
	"os"
	"time"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/interfaces"
)

// warmCache pre-fetches the asset list and each asset's price series on
// startup so the first dashboard load is fast. Fetches go through the same
// cache-first pipeline as user requests, so a warm cache makes this a no-op.
func warmCache(ctx context.Context, ledgerService interfaces.LedgerService, quoteService interfaces.QuoteService, logger *common.Logger) {
	if os.Getenv("FOLIO_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via FOLIO_WARM_CACHE=off")
		return
	}

	start := time.Now()

	assets, err := ledgerService.Assets(ctx, false)
	if err != nil {
		logger.Warn().Err(err).Msg("Warm cache: asset list unavailable, skipping")
		return
	}
	if len(assets) == 0 {
		logger.Info().Msg("Warm cache: no assets, skipping")
		return
	}

	warmed := 0
	for _, asset := range assets {
		if ctx.Err() != nil {
			logger.Info().Msg("Warm cache: cancelled")
			return
		}
		if _, err := quoteService.Series(ctx, asset.Name, false); err != nil {
			logger.Debug().Err(err).Str("asset", asset.Name).Msg("Warm cache: series fetch failed")
			continue
		}
		warmed++
	}

	logger.Info().
		Int("assets", len(assets)).
		Int("series", warmed).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
