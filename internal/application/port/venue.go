package port

import (
	"context"

	"xspread/internal/domain/model"
)

// VenueAdapter 交易所行情适配器的基础能力：订单簿
type VenueAdapter interface {
	Venue() model.Venue
	// MarketKinds 该交易所支持查询的市场类型
	MarketKinds() []model.MarketKind
	// OrderBook 获取最优几档订单簿，symbol 为 BASE/QUOTE
	OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error)
}

// 以下为可选能力，聚合器在构造时通过类型断言探测

// FundingRateProvider 永续资金费率（百分比）
type FundingRateProvider interface {
	FundingRate(ctx context.Context, symbol string) (float64, error)
}

// TokenStatusChecker 币种充提状态
type TokenStatusChecker interface {
	TokenStatus(ctx context.Context, token string) (model.TokenStatus, error)
}

// NetworkLister 币种支持的链
type NetworkLister interface {
	Networks(ctx context.Context, token string) ([]string, error)
}

// ContractResolver 币种在某条链上的合约地址，不存在时返回空串
type ContractResolver interface {
	TokenContract(ctx context.Context, token, network string) (string, error)
}

// PairLinker 聚合数据源提供的实际交易对链接（例如 DexScreener pair 页面）
type PairLinker interface {
	PairURL(symbol string) string
}
