package model

import (
	"fmt"
	"strings"
)

// MarketKind 市场类型：现货 / 永续
type MarketKind string

const (
	MarketSpot      MarketKind = "spot"
	MarketPerpetual MarketKind = "futures"
)

// ParseMarketKind 解析市场类型，兼容常见别名（perp, swap, f, s 等）
func ParseMarketKind(s string) (MarketKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spot", "s":
		return MarketSpot, nil
	case "futures", "future", "perp", "perpetual", "swap", "f":
		return MarketPerpetual, nil
	default:
		return "", fmt.Errorf("unknown market kind %q", s)
	}
}

// Short 单字母标记，用于消息展示 (S / F)
func (k MarketKind) Short() string {
	if k == MarketPerpetual {
		return "F"
	}
	return "S"
}

func (k MarketKind) String() string { return string(k) }

// PriceLevel 订单簿单档
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBook 订单簿（只保留最优几档）
type OrderBook struct {
	Symbol string
	Bids   []PriceLevel
	Asks   []PriceLevel
}

// Empty 任意一侧没有报价即视为空
func (ob *OrderBook) Empty() bool {
	return ob == nil || len(ob.Bids) == 0 || len(ob.Asks) == 0
}

// TokenStatus 充提状态
type TokenStatus struct {
	Deposit  bool `json:"deposit"`
	Withdraw bool `json:"withdraw"`
}

// Disabled 充值和提现都关闭
func (ts TokenStatus) Disabled() bool {
	return !ts.Deposit && !ts.Withdraw
}

// BaseToken 从 "BTC/USDT" 中取出基础币种 "BTC"
func BaseToken(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(sym, '/'); i >= 0 {
		return sym[:i]
	}
	return sym
}

// QuoteToken 从 "BTC/USDT" 中取出计价币种，缺省为 USDT
func QuoteToken(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(sym, '/'); i >= 0 && i < len(sym)-1 {
		return sym[i+1:]
	}
	return "USDT"
}

// NormalizeSymbol 统一成 BASE/QUOTE 格式，例: btc -> BTC/USDT, eth_usdt -> ETH/USDT, SOLUSDT -> SOL/USDT
func NormalizeSymbol(s string) string {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" {
		return ""
	}
	sym = strings.NewReplacer("_", "/", "-", "/").Replace(sym)
	if !strings.Contains(sym, "/") {
		if base, ok := strings.CutSuffix(sym, "USDT"); ok && base != "" {
			return base + "/USDT"
		}
		return sym + "/USDT"
	}
	return sym
}
