package quote

import "strings"

// secidByName maps asset names to Eastmoney instrument identifiers for
// assets whose ledger row carries no usable code. Interim table until the
// ledger grows an instrument-ID column.
var secidByName = map[string]string{
	"A500ETF基金": "1.512050",
	"恒生科技ETF":   "1.513130",
	"恒生红利低波":    "0.159545",
	"沪深300ETF":  "0.159919",
	"中证500ETF":  "0.159922",
	"有色金属ETF":   "1.512400",
	"酒ETF":      "1.512690",
	"红利低波ETF":   "1.512890",
	"纳指ETF":     "1.513100",
	"光伏ETF":     "1.515790",
	"电池ETF":     "1.561910",
	"科创50ETF":   "1.588000",
	"华夏磐泰LOF":   "0.160323",
	"标普ETF":     "1.513650",
	"现金流":       "0.159399",
	"日经225etf":  "1.513000",
	"现金流DC":     "0.159235",
	"工银黄金":      "1.518660",
}

// inferSecID derives an instrument identifier from a bare exchange code.
// Codes starting with 5 or 6 trade in Shanghai (market 1), the rest in
// Shenzhen (market 0). Codes already carrying a market prefix pass through.
func inferSecID(code string) string {
	if code == "" {
		return ""
	}
	if strings.Contains(code, ".") {
		return code
	}
	switch code[0] {
	case '5', '6':
		return "1." + code
	default:
		return "0." + code
	}
}
