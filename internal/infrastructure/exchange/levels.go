package exchange

import (
	"errors"

	"github.com/shopspring/decimal"

	"xspread/internal/domain/model"
)

// ErrEmptyBook 交易所返回了空订单簿
var ErrEmptyBook = errors.New("empty order book")

// Level 交易所返回的一档 [price, size, ...]，数字或字符串均可
type Level []decimal.Decimal

// ToPriceLevels 转换前 depth 档，跳过格式不完整或价格非正的档位；depth <= 0 表示全部
func ToPriceLevels(levels []Level, depth int) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(levels))
	for _, l := range levels {
		if depth > 0 && len(out) >= depth {
			break
		}
		if len(l) < 2 || !l[0].IsPositive() {
			continue
		}
		out = append(out, model.PriceLevel{
			Price: l[0].InexactFloat64(),
			Size:  l[1].InexactFloat64(),
		})
	}
	return out
}

// NewBook 构建订单簿，任意一侧为空时返回 ErrEmptyBook
func NewBook(symbol string, bids, asks []model.PriceLevel) (*model.OrderBook, error) {
	ob := &model.OrderBook{Symbol: symbol, Bids: bids, Asks: asks}
	if ob.Empty() {
		return nil, ErrEmptyBook
	}
	return ob, nil
}

// ParsePercent 资金费率小数字符串转百分比，例如 "0.0001" -> 0.01
func ParsePercent(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
}
