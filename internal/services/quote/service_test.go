package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/models"
	"github.com/linqiu/folio/internal/storage/badger"
	"github.com/linqiu/folio/internal/throttle"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) key(namespace, id string) string { return namespace + ":" + id }

func (c *memoryCache) Get(_ context.Context, namespace, id string, out any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[c.key(namespace, id)]
	if !ok {
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

func (c *memoryCache) Set(_ context.Context, namespace, id string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(namespace, id)] = payload
	return nil
}

func (c *memoryCache) Clear(_ context.Context, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) > len(namespace) && key[:len(namespace)+1] == namespace+":" {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) ClearKey(_ context.Context, namespace, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.key(namespace, id))
	return nil
}

func (c *memoryCache) Close() error { return nil }

// stubLedger serves a fixed asset list; the quote service only needs
// AssetByName.
type stubLedger struct {
	assets []models.Asset
}

func (l *stubLedger) Assets(context.Context, bool) ([]models.Asset, error) { return l.assets, nil }
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

type mockMarketClient struct {
	mu    sync.Mutex
	calls int
	fn    func(secID string, limit int) (*models.PriceSeries, error)
}

func (m *mockMarketClient) GetKline(_ context.Context, secID string, limit int) (*models.PriceSeries, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(secID, limit)
}

func (m *mockMarketClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestService(t *testing.T, client *mockMarketClient, ledger *stubLedger) (*Service, *memoryCache) {
	t.Helper()
	logger := common.NewSilentLogger()
	th := throttle.New(logger, time.Millisecond)
	t.Cleanup(th.Close)
	cache := newMemoryCache()
	return NewService(client, cache, th, ledger, 500, logger), cache
}

func TestResolveSecID(t *testing.T) {
	svc := &Service{}
	cases := []struct {
		asset models.Asset
		want  string
	}{
		{models.Asset{Name: "纳指ETF"}, "1.513100"},                      // name table
		{models.Asset{Name: "未知基金", Code: "513100"}, "1.513100"},       // Shanghai prefix
		{models.Asset{Name: "未知基金", Code: "600519"}, "1.600519"},       // Shanghai prefix
		{models.Asset{Name: "未知基金", Code: "159919"}, "0.159919"},       // Shenzhen prefix
		{models.Asset{Name: "未知基金", Code: "0.159919"}, "0.159919"},     // already qualified
		{models.Asset{Name: "未知基金"}, ""},                               // no mapping
		{models.Asset{Name: "沪深300ETF", Code: "600000"}, "0.159919"},   // table wins over code
	}
	for _, tc := range cases {
		if got := svc.ResolveSecID(&tc.asset); got != tc.want {
			t.Errorf("ResolveSecID(%+v) = %q, want %q", tc.asset, got, tc.want)
		}
	}
	if got := svc.ResolveSecID(nil); got != "" {
		t.Errorf("ResolveSecID(nil) = %q", got)
	}
}

func TestSeries_CacheFirst(t *testing.T) {
	client := &mockMarketClient{fn: func(secID string, limit int) (*models.PriceSeries, error) {
		if limit != 500 {
			return nil, fmt.Errorf("limit = %d", limit)
		}
		return &models.PriceSeries{
			Code: "513100",
			Name: "纳指ETF",
			Points: []models.PricePoint{
				{Date: "2024-01-02", Close: 1.1},
				{Date: "2024-01-03", Close: 1.2},
			},
		}, nil
	}}
	ledger := &stubLedger{assets: []models.Asset{{RecordID: "recA", Name: "纳指ETF", Code: "513100"}}}
	svc, _ := newTestService(t, client, ledger)

	series, err := svc.Series(context.Background(), "纳指ETF", false)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if series.SecID != "1.513100" || len(series.Points) != 2 {
		t.Errorf("series = %+v", series)
	}

	if _, err := svc.Series(context.Background(), "纳指ETF", false); err != nil {
		t.Fatalf("cached Series: %v", err)
	}
	if n := client.callCount(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}

	if _, err := svc.Series(context.Background(), "纳指ETF", true); err != nil {
		t.Fatalf("forced Series: %v", err)
	}
	if n := client.callCount(); n != 2 {
		t.Errorf("upstream calls after force = %d, want 2", n)
	}
}

func TestSeries_FailureLeavesCacheIntact(t *testing.T) {
	failing := false
	client := &mockMarketClient{fn: func(secID string, limit int) (*models.PriceSeries, error) {
		if failing {
			return nil, errors.New("feed down")
		}
		return &models.PriceSeries{Points: []models.PricePoint{{Date: "2024-01-02", Close: 1.1}}}, nil
	}}
	ledger := &stubLedger{assets: []models.Asset{{Name: "纳指ETF", Code: "513100"}}}
	svc, _ := newTestService(t, client, ledger)

	if _, err := svc.Series(context.Background(), "纳指ETF", false); err != nil {
		t.Fatalf("prime: %v", err)
	}

	failing = true
	if _, err := svc.Series(context.Background(), "纳指ETF", true); err == nil {
		t.Fatal("forced refresh should fail")
	}

	series, err := svc.Series(context.Background(), "纳指ETF", false)
	if err != nil || len(series.Points) != 1 {
		t.Errorf("cached read after failure = %+v, %v", series, err)
	}
}

func TestSeries_NoMapping(t *testing.T) {
	client := &mockMarketClient{fn: func(string, int) (*models.PriceSeries, error) {
		t.Error("client should not be called without a mapping")
		return nil, nil
	}}
	ledger := &stubLedger{assets: []models.Asset{{Name: "未知基金"}}}
	svc, _ := newTestService(t, client, ledger)

	if _, err := svc.Series(context.Background(), "未知基金", false); err == nil {
		t.Error("expected mapping error")
	}
	if _, err := svc.Series(context.Background(), "不存在", false); err == nil {
		t.Error("expected unknown-asset error")
	}
}

func TestClearSeries(t *testing.T) {
	client := &mockMarketClient{fn: func(string, int) (*models.PriceSeries, error) {
		return &models.PriceSeries{Points: []models.PricePoint{{Date: "2024-01-02", Close: 1.1}}}, nil
	}}
	ledger := &stubLedger{assets: []models.Asset{
		{Name: "纳指ETF", Code: "513100"},
		{Name: "沪深300ETF"},
	}}
	svc, cache := newTestService(t, client, ledger)

	for _, name := range []string{"纳指ETF", "沪深300ETF"} {
		if _, err := svc.Series(context.Background(), name, false); err != nil {
			t.Fatalf("prime %s: %v", name, err)
		}
	}

	if err := svc.ClearSeriesFor(context.Background(), "1.513100"); err != nil {
		t.Fatalf("ClearSeriesFor: %v", err)
	}
	var out models.PriceSeries
	if cache.Get(context.Background(), badger.NamespaceKline, "1.513100", &out) {
		t.Error("cleared series still cached")
	}
	if !cache.Get(context.Background(), badger.NamespaceKline, "0.159919", &out) {
		t.Error("other series should survive ClearSeriesFor")
	}

	if err := svc.ClearSeries(context.Background()); err != nil {
		t.Fatalf("ClearSeries: %v", err)
	}
	if cache.Get(context.Background(), badger.NamespaceKline, "0.159919", &out) {
		t.Error("ClearSeries should drop every series")
	}
}
