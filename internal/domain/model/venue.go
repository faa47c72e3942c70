package model

import (
	"fmt"
	"strings"
)

// Venue 已知交易所（封闭集合），所有按交易所区分的行为都查 venueTable，不在各处 switch 字符串
type Venue string

const (
	VenueBinance     Venue = "binance"
	VenueBybit       Venue = "bybit"
	VenueGate        Venue = "gate"
	VenueMEXC        Venue = "mexc"
	VenueKuCoin      Venue = "kucoin"
	VenueBitget      Venue = "bitget"
	VenueDexScreener Venue = "dexscreener"
)

type venueInfo struct {
	display    string
	separator  string // 交易对链接中的分隔符 BTC_USDT / BTCUSDT / BTC-USDT
	spotURL    string // %s = 格式化后的交易对
	perpURL    string
	deposit    string // %s = 币种
	withdraw   string
	aggregator bool // 聚合数据源而非 CEX
}

var venueTable = map[Venue]venueInfo{
	VenueBinance: {
		display:   "Binance",
		separator: "_",
		spotURL:   "https://www.binance.com/en/trade/%s",
		perpURL:   "https://www.binance.com/en/futures/%s",
		deposit:   "https://www.binance.com/en/my/wallet/account/main/deposit/crypto/%s",
		withdraw:  "https://www.binance.com/en/my/wallet/account/main/withdrawal/crypto/%s",
	},
	VenueBybit: {
		display:   "Bybit",
		separator: "/",
		spotURL:   "https://www.bybit.com/trade/spot/%s",
		perpURL:   "https://www.bybit.com/trade/usdt/%s",
		deposit:   "https://www.bybit.com/user/assets/deposit/%s",
		withdraw:  "https://www.bybit.com/user/assets/withdraw/%s",
	},
	VenueGate: {
		display:   "Gate",
		separator: "_",
		spotURL:   "https://www.gate.io/trade/%s",
		perpURL:   "https://www.gate.io/futures/%s",
		deposit:   "https://www.gate.io/myaccount/deposit/%s",
		withdraw:  "https://www.gate.io/myaccount/withdraw/%s",
	},
	VenueMEXC: {
		display:   "MEXC",
		separator: "_",
		spotURL:   "https://www.mexc.com/exchange/%s",
		perpURL:   "https://futures.mexc.com/exchange/%s",
		deposit:   "https://www.mexc.com/assets/deposit/%s",
		withdraw:  "https://www.mexc.com/assets/withdraw/%s",
	},
	VenueKuCoin: {
		display:   "KuCoin",
		separator: "-",
		spotURL:   "https://www.kucoin.com/trade/%s",
		perpURL:   "https://www.kucoin.com/futures/trade/%s",
		deposit:   "https://www.kucoin.com/assets/deposit/%s",
		withdraw:  "https://www.kucoin.com/assets/withdraw/%s",
	},
	VenueBitget: {
		display:   "Bitget",
		separator: "",
		spotURL:   "https://www.bitget.com/spot/%s",
		perpURL:   "https://www.bitget.com/futures/usdt/%s",
		deposit:   "https://www.bitget.com/asset/recharge?coinName=%s",
		withdraw:  "https://www.bitget.com/asset/withdraw?coinName=%s",
	},
	VenueDexScreener: {
		display:    "DexScreener",
		aggregator: true,
	},
}

// AllVenues 规范顺序，决定默认查询顺序
var AllVenues = []Venue{VenueMEXC, VenueKuCoin, VenueGate, VenueBitget, VenueBinance, VenueBybit, VenueDexScreener}

// ParseVenue 解析交易所名称（大小写不敏感）
func ParseVenue(s string) (Venue, error) {
	v := Venue(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := venueTable[v]; !ok {
		return "", fmt.Errorf("unknown venue %q", s)
	}
	return v, nil
}

func (v Venue) String() string { return string(v) }

// Valid 是否为已知交易所
func (v Venue) Valid() bool {
	_, ok := venueTable[v]
	return ok
}

// DisplayName 展示名称
func (v Venue) DisplayName() string {
	if info, ok := venueTable[v]; ok {
		return info.display
	}
	return string(v)
}

// IsAggregator 是否为聚合数据源（如 DexScreener），这类来源没有充提链接
func (v Venue) IsAggregator() bool {
	return venueTable[v].aggregator
}

// TradeURL 交易页面链接；聚合数据源返回空串，由适配器提供实际 pair 链接
func (v Venue) TradeURL(symbol string, kind MarketKind) string {
	info, ok := venueTable[v]
	if !ok || info.aggregator {
		return ""
	}
	pair := strings.Replace(strings.ToUpper(symbol), "/", info.separator, 1)
	if kind == MarketPerpetual {
		// 合约页面统一用无分隔符 / 下划线格式
		if v == VenueBitget || v == VenueBinance || v == VenueBybit {
			pair = strings.Replace(strings.ToUpper(symbol), "/", "", 1)
		}
		// KuCoin 合约: XBTUSDTM
		if v == VenueKuCoin {
			pair = strings.Replace(strings.ToUpper(symbol), "/", "", 1) + "M"
			if strings.HasPrefix(pair, "BTC") {
				pair = "XBT" + strings.TrimPrefix(pair, "BTC")
			}
		}
		return fmt.Sprintf(info.perpURL, pair)
	}
	return fmt.Sprintf(info.spotURL, pair)
}

// DepositURL 充值链接，未知时返回 "#"
func (v Venue) DepositURL(token string) string {
	info, ok := venueTable[v]
	if !ok || info.deposit == "" {
		return "#"
	}
	return fmt.Sprintf(info.deposit, strings.ToUpper(token))
}

// WithdrawURL 提现链接，未知时返回 "#"
func (v Venue) WithdrawURL(token string) string {
	info, ok := venueTable[v]
	if !ok || info.withdraw == "" {
		return "#"
	}
	return fmt.Sprintf(info.withdraw, strings.ToUpper(token))
}

// ParseVenues 解析逗号分隔的交易所列表，支持 all / cex 别名
func ParseVenues(arg string) ([]Venue, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "all":
		return append([]Venue(nil), AllVenues...), nil
	case "cex":
		out := make([]Venue, 0, len(AllVenues))
		for _, v := range AllVenues {
			if !v.IsAggregator() {
				out = append(out, v)
			}
		}
		return out, nil
	}

	var out []Venue
	seen := map[Venue]struct{}{}
	for _, part := range strings.Split(arg, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := ParseVenue(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no venues in %q", arg)
	}
	return out, nil
}
