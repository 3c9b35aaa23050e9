package ledger

import (
	"testing"
	"time"

	"github.com/linqiu/folio/internal/models"
)

func TestProjectAsset(t *testing.T) {
	rec := models.Record{
		RecordID: "recA",
		Fields: map[string]any{
			"标的名称": "纳指ETF",
			"标的代码": "513100",
			"当前价格": 1.234,
			"持有数量": float64(1000),
			"持有金额": 1234.0,
			"比例":   0.25,
			"总金额":  5000.0,
		},
	}

	a := projectAsset(rec)
	if a.RecordID != "recA" || a.Name != "纳指ETF" || a.Code != "513100" {
		t.Errorf("identity fields = %+v", a)
	}
	if a.CurrentPrice != 1.234 || a.HeldQty != 1000 || a.HeldAmount != 1234 {
		t.Errorf("position fields = %+v", a)
	}
	if a.SecID != "513100" {
		t.Errorf("sec id should default to the code, got %q", a.SecID)
	}
}

func TestFieldDate(t *testing.T) {
	millis := float64(time.Date(2024, 1, 15, 0, 0, 0, 0, ledgerLocation).UnixMilli())
	fields := map[string]any{
		"买入日期": millis,
		"卖出日期": "2024-02-01",
	}

	if got := fieldDate(fields, "买入日期"); got != "2024-01-15" {
		t.Errorf("epoch-millis date = %q, want 2024-01-15", got)
	}
	if got := fieldDate(fields, "卖出日期"); got != "2024-02-01" {
		t.Errorf("textual date = %q", got)
	}
	if got := fieldDate(fields, "missing"); got != "" {
		t.Errorf("missing date = %q, want empty", got)
	}
}

func TestFieldFloat_Coercion(t *testing.T) {
	fields := map[string]any{
		"a": 1.5,
		"b": "2.5",
		"c": "not a number",
		"d": true,
	}
	cases := []struct {
		name string
		want float64
	}{
		{"a", 1.5}, {"b", 2.5}, {"c", 0}, {"d", 0}, {"missing", 0},
	}
	for _, tc := range cases {
		if got := fieldFloat(fields, tc.name); got != tc.want {
			t.Errorf("fieldFloat(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFieldRef(t *testing.T) {
	byName := fieldRef(map[string]any{"标的": "纳指ETF"}, "标的")
	if !byName.Matches("", "纳指ETF") {
		t.Error("name ref should match by name")
	}

	byIDs := fieldRef(map[string]any{"标的": []any{"recA", "recB"}}, "标的")
	if !byIDs.Matches("recB", "") {
		t.Error("record-ID ref should match by ID")
	}
	if byIDs.Matches("", "纳指ETF") {
		t.Error("record-ID ref must not match by name")
	}

	if ref := fieldRef(map[string]any{}, "标的"); !ref.IsZero() {
		t.Errorf("missing ref should be zero, got %+v", ref)
	}
}

func TestProjectTrade(t *testing.T) {
	buyMillis := float64(time.Date(2024, 3, 1, 0, 0, 0, 0, ledgerLocation).UnixMilli())
	rec := models.Record{
		RecordID: "recT1",
		Fields: map[string]any{
			"标的":   []any{"recA"},
			"买入日期": buyMillis,
			"买入价格": 10.0,
			"买入数量": 100.0,
			"买入金额": 1000.0,
			"盈亏金额": 50.0,
			"手续费":  1.5,
		},
	}

	tr := projectTrade(rec, models.TradeOpen)
	if tr.ID != "recT1" || tr.Status != models.TradeOpen {
		t.Errorf("identity = %+v", tr)
	}
	if tr.BuyDate != "2024-03-01" || tr.BuyPrice != 10 || tr.BuyQty != 100 {
		t.Errorf("buy side = %+v", tr)
	}
	if !tr.HasBuy() || tr.HasSell() {
		t.Errorf("lifecycle predicates wrong for %+v", tr)
	}
	if tr.PnLAmount != 50 || tr.Fee != 1.5 {
		t.Errorf("pnl fields = %+v", tr)
	}
}

func TestFilterTradesForAsset(t *testing.T) {
	asset := &models.Asset{RecordID: "recA", Name: "纳指ETF"}
	trades := []models.Trade{
		{ID: "t1", Asset: models.RefByRecordIDs([]string{"recA"})},
		{ID: "t2", Asset: models.RefByName("纳指ETF")},
		{ID: "t3", Asset: models.RefByRecordIDs([]string{"recB"})},
		{ID: "t4", Asset: models.RefByName("标普ETF")},
	}

	got := filterTradesForAsset(trades, asset)
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("filtered = %+v", got)
	}
}
