// Package app wires configuration, storage, clients and services into one
// shared core used by cmd/folio-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linqiu/folio/internal/clients/eastmoney"
	"github.com/linqiu/folio/internal/clients/vika"
	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/interfaces"
	"github.com/linqiu/folio/internal/services/ledger"
	"github.com/linqiu/folio/internal/services/quote"
	"github.com/linqiu/folio/internal/storage/badger"
	"github.com/linqiu/folio/internal/throttle"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Cache       interfaces.CacheStore
	Throttler   *throttle.Throttler
	Ledger      interfaces.LedgerService
	Quotes      interfaces.QuoteService
	StartupTime time.Time

	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients and services. configPath may be empty,
// in which case FOLIO_CONFIG, the binary directory and config/folio.toml are
// tried in order.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	cache := badger.NewCacheStorage(store, logger, config.Cache.GetTTL())

	throttler := throttle.New(logger, config.Throttle.GetInterval())

	vikaClient := vika.NewClient(config.Clients.Vika.Token,
		vika.WithBaseURL(config.Clients.Vika.BaseURL),
		vika.WithLogger(logger),
		vika.WithRateLimit(config.Clients.Vika.RateLimit),
		vika.WithTimeout(config.Clients.Vika.GetTimeout()),
	)

	eastmoneyClient := eastmoney.NewClient(
		eastmoney.WithBaseURL(config.Clients.Eastmoney.BaseURL),
		eastmoney.WithLogger(logger),
		eastmoney.WithRateLimit(config.Clients.Eastmoney.RateLimit),
		eastmoney.WithTimeout(config.Clients.Eastmoney.GetTimeout()),
	)

	ledgerService := ledger.NewService(vikaClient, cache, throttler, config.Clients.Vika, logger)
	quoteService := quote.NewService(eastmoneyClient, cache, throttler, ledgerService, config.Clients.Eastmoney.GetBarLimit(), logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Cache:       cache,
		Throttler:   throttler,
		Ledger:      ledgerService,
		Quotes:      quoteService,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartWarmCache launches the background cache warming goroutine.
func (a *App) StartWarmCache() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.Ledger, a.Quotes, a.Logger)
	}()
}

// Close releases all resources. Shutdown order: cancel warm cache, drain the
// throttler, close storage.
func (a *App) Close() {
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Throttler != nil {
		a.Throttler.Close()
		a.Throttler = nil
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close cache store")
		}
		a.Cache = nil
	}
}
