package exchange

import (
	"strings"

	"xspread/internal/domain/model"
)

// SymbolConverter 统一格式 BASE/QUOTE 与交易所格式之间的转换
type SymbolConverter struct {
	sep string
}

// NewSymbolConverter sep 为交易所使用的分隔符，例如 "" (BTCUSDT)、"_" (BTC_USDT)
func NewSymbolConverter(sep string) *SymbolConverter {
	return &SymbolConverter{sep: sep}
}

// ToVenue BTC/USDT -> BTC{sep}USDT
func (c *SymbolConverter) ToVenue(symbol string) string {
	return model.BaseToken(symbol) + c.sep + model.QuoteToken(symbol)
}

// ToCommon 交易所格式转回 BASE/QUOTE；无分隔符时按 quote 后缀拆分
// 例: BTCUSDT (quote=USDT) -> BTC/USDT, BTC_USDT -> BTC/USDT
func (c *SymbolConverter) ToCommon(venueSymbol, quote string) string {
	sym := strings.ToUpper(strings.TrimSpace(venueSymbol))
	if sym == "" {
		return ""
	}
	if c.sep != "" {
		if i := strings.Index(sym, c.sep); i > 0 {
			return sym[:i] + "/" + sym[i+len(c.sep):]
		}
	}
	quote = strings.ToUpper(quote)
	if quote != "" && strings.HasSuffix(sym, quote) && len(sym) > len(quote) {
		return strings.TrimSuffix(sym, quote) + "/" + quote
	}
	return sym
}
