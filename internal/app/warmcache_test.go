package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/models"
)

type stubLedger struct {
	assets []models.Asset
	err    error
}

func (l *stubLedger) Assets(context.Context, bool) ([]models.Asset, error) {
	return l.assets, l.err
}
func (l *stubLedger) OpenTrades(context.Context, string, bool) ([]models.Trade, error) {
	return nil, nil
}
func (l *stubLedger) CompletedTrades(context.Context, string, bool) ([]models.Trade, error) {
	return nil, nil
}
func (l *stubLedger) AssetByName(_ context.Context, name string) (*models.Asset, error) {
	for i := range l.assets {
		if l.assets[i].Name == name {
			return &l.assets[i], nil
		}
	}
	return nil, fmt.Errorf("unknown asset '%s'", name)
}
func (l *stubLedger) Select(context.Context, string)    {}
func (l *stubLedger) Snapshots() models.LedgerSnapshots { return models.LedgerSnapshots{} }
func (l *stubLedger) ClearCache(context.Context) error  { return nil }

type stubQuotes struct {
	seriesCalls []string
	fail        map[string]bool
}

func (q *stubQuotes) Series(_ context.Context, asset string, _ bool) (*models.PriceSeries, error) {
	q.seriesCalls = append(q.seriesCalls, asset)
	if q.fail[asset] {
		return nil, errors.New("feed down")
	}
	return &models.PriceSeries{}, nil
}
func (q *stubQuotes) ResolveSecID(*models.Asset) string            { return "" }
func (q *stubQuotes) ClearSeries(context.Context) error            { return nil }
func (q *stubQuotes) ClearSeriesFor(context.Context, string) error { return nil }

func TestWarmCache_LoadsAllSeries(t *testing.T) {
	ledger := &stubLedger{assets: []models.Asset{{Name: "纳指ETF"}, {Name: "标普ETF"}}}
	quotes := &stubQuotes{}

	warmCache(context.Background(), ledger, quotes, common.NewSilentLogger())

	if len(quotes.seriesCalls) != 2 {
		t.Errorf("series calls = %v, want both assets", quotes.seriesCalls)
	}
}

func TestWarmCache_ContinuesPastFailures(t *testing.T) {
	ledger := &stubLedger{assets: []models.Asset{{Name: "纳指ETF"}, {Name: "标普ETF"}}}
	quotes := &stubQuotes{fail: map[string]bool{"纳指ETF": true}}

	warmCache(context.Background(), ledger, quotes, common.NewSilentLogger())

	if len(quotes.seriesCalls) != 2 {
		t.Errorf("a failed series must not stop the warm-up: %v", quotes.seriesCalls)
	}
}

func TestWarmCache_SkipsWhenLedgerDown(t *testing.T) {
	ledger := &stubLedger{err: errors.New("ledger down")}
	quotes := &stubQuotes{}

	warmCache(context.Background(), ledger, quotes, common.NewSilentLogger())

	if len(quotes.seriesCalls) != 0 {
		t.Errorf("no series should be fetched without an asset list: %v", quotes.seriesCalls)
	}
}

func TestWarmCache_DisabledByEnv(t *testing.T) {
	t.Setenv("FOLIO_WARM_CACHE", "off")
	ledger := &stubLedger{assets: []models.Asset{{Name: "纳指ETF"}}}
	quotes := &stubQuotes{}

	warmCache(context.Background(), ledger, quotes, common.NewSilentLogger())

	if len(quotes.seriesCalls) != 0 {
		t.Errorf("warm cache should be disabled: %v", quotes.seriesCalls)
	}
}

func TestWarmCache_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ledger := &stubLedger{assets: []models.Asset{{Name: "纳指ETF"}, {Name: "标普ETF"}}}
	quotes := &stubQuotes{}

	warmCache(ctx, ledger, quotes, common.NewSilentLogger())

	if len(quotes.seriesCalls) != 0 {
		t.Errorf("cancelled warm-up should fetch nothing: %v", quotes.seriesCalls)
	}
}
