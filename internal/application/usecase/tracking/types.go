package tracking

import (
	"context"

	"xspread/internal/domain/model"
)

// PriceSource 行情来源，由 MarketAggregator 实现
type PriceSource interface {
	GetAllPrices(ctx context.Context, symbol string, venues []model.Venue) ([]model.VenueQuote, error)
	CalculateSpread(ctx context.Context, symbol string, kind1, kind2 model.MarketKind, venues []model.Venue) (*model.SpreadData, error)
}

// LinkResolver 聚合数据源（dexscreener）的交易对链接
type LinkResolver interface {
	PairURL(venue model.Venue, symbol string) string
}

// State 跟踪任务生命周期：Starting -> Polling -> Stopped
type State int32

const (
	StateStarting State = iota
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
