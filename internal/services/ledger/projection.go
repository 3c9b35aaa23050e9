package ledger

import (
	"strconv"
	"time"

	"github.com/linqiu/folio/internal/models"
)

// Spreadsheet column headers. The ledger datasheets use Chinese headers and
// fieldKey=name addressing, so these are the upstream contract.
const (
	fieldAssetName    = "标的名称"
	fieldAssetCode    = "标的代码"
	fieldCurrentPrice = "当前价格"
	fieldHeldQty      = "持有数量"
	fieldHeldAmount   = "持有金额"
	fieldWeightRatio  = "比例"
	fieldTotalAmount  = "总金额"

	fieldAssetRef   = "标的"
	fieldBuyDate    = "买入日期"
	fieldBuyPrice   = "买入价格"
	fieldBuyQty     = "买入数量"
	fieldBuyAmount  = "买入金额"
	fieldSellDate   = "卖出日期"
	fieldSellPrice  = "卖出价格"
	fieldSellQty    = "卖出数量"
	fieldSellAmount = "卖出金额"
	fieldStatus     = "状态"
	fieldPnLAmount  = "盈亏金额"
	fieldPnLRatio   = "盈亏比例"
	fieldFee        = "手续费"
)

const dateLayout = "2006-01-02"

// ledgerLocation is the ledger's home market timezone, used to turn the
// spreadsheet's epoch-millis date cells into calendar dates.
var ledgerLocation = mustLoadLocation("Asia/Shanghai")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// CST fixed zone if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// fieldString reads a string cell, tolerating absent or non-string values.
func fieldString(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

// fieldFloat reads a numeric cell defensively: numbers pass through,
// numeric strings parse, anything else coerces to 0.
func fieldFloat(fields map[string]any, name string) float64 {
	switch v := fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// fieldDate reads a date cell. The spreadsheet stores dates as epoch-millis
// numbers; already-textual cells pass through untouched.
func fieldDate(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case float64:
		return time.UnixMilli(int64(v)).In(ledgerLocation).Format(dateLayout)
	case int64:
		return time.UnixMilli(v).In(ledgerLocation).Format(dateLayout)
	case string:
		return v
	default:
		return ""
	}
}

// fieldRef reads the asset-reference cell, which is either a linked-record
// ID list or a bare asset name depending on the column type.
func fieldRef(fields map[string]any, name string) models.AssetRef {
	switch v := fields[name].(type) {
	case string:
		return models.RefByName(v)
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}
		return models.RefByRecordIDs(ids)
	default:
		return models.AssetRef{}
	}
}

// projectAsset maps one asset-datasheet record. Records without a name are
// dropped by the caller.
func projectAsset(rec models.Record) models.Asset {
	code := fieldString(rec.Fields, fieldAssetCode)
	return models.Asset{
		RecordID:     rec.RecordID,
		Name:         fieldString(rec.Fields, fieldAssetName),
		Code:         code,
		CurrentPrice: fieldFloat(rec.Fields, fieldCurrentPrice),
		HeldQty:      fieldFloat(rec.Fields, fieldHeldQty),
		HeldAmount:   fieldFloat(rec.Fields, fieldHeldAmount),
		WeightRatio:  fieldFloat(rec.Fields, fieldWeightRatio),
		TotalAmount:  fieldFloat(rec.Fields, fieldTotalAmount),
		SecID:        code,
	}
}

// projectTrade maps one trade-datasheet record.
func projectTrade(rec models.Record, status models.TradeStatus) models.Trade {
	return models.Trade{
		ID:         rec.RecordID,
		Asset:      fieldRef(rec.Fields, fieldAssetRef),
		BuyDate:    fieldDate(rec.Fields, fieldBuyDate),
		BuyPrice:   fieldFloat(rec.Fields, fieldBuyPrice),
		BuyQty:     fieldFloat(rec.Fields, fieldBuyQty),
		BuyAmount:  fieldFloat(rec.Fields, fieldBuyAmount),
		SellDate:   fieldDate(rec.Fields, fieldSellDate),
		SellPrice:  fieldFloat(rec.Fields, fieldSellPrice),
		SellQty:    fieldFloat(rec.Fields, fieldSellQty),
		SellAmount: fieldFloat(rec.Fields, fieldSellAmount),
		Status:     status,
		PnLAmount:  fieldFloat(rec.Fields, fieldPnLAmount),
		PnLRatio:   fieldFloat(rec.Fields, fieldPnLRatio),
		Fee:        fieldFloat(rec.Fields, fieldFee),
	}
}

// filterTradesForAsset keeps trades whose reference resolves to the asset,
// whether the ledger linked it by record ID or by name.
func filterTradesForAsset(trades []models.Trade, asset *models.Asset) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for i := range trades {
		if trades[i].Asset.Matches(asset.RecordID, asset.Name) {
			out = append(out, trades[i])
		}
	}
	return out
}
