package bybit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

const (
	defaultBaseURL = "https://api.bybit.com"
	bookDepth      = 5
)

var converter = exchange.NewSymbolConverter("")

// Adapter Bybit v5 公共行情：spot / linear
type Adapter struct {
	client *exchange.RestClient
}

func New(cfg config.ExchangeConfig) *Adapter {
	base := cfg.RestURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Adapter{client: exchange.NewRestClient("bybit", base, cfg.RatePerSec)}
}

func (a *Adapter) Venue() model.Venue { return model.VenueBybit }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot, model.MarketPerpetual}
}

// envelope Bybit v5 统一响应
type envelope[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

func (e envelope[T]) err(path string) error {
	if e.RetCode != 0 {
		return fmt.Errorf("bybit %s: %d %s", path, e.RetCode, e.RetMsg)
	}
	return nil
}

type orderBookResult struct {
	Symbol string           `json:"s"`
	Bids   []exchange.Level `json:"b"`
	Asks   []exchange.Level `json:"a"`
}

func category(kind model.MarketKind) string {
	if kind == model.MarketPerpetual {
		return "linear"
	}
	return "spot"
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	const path = "/v5/market/orderbook"
	var resp envelope[orderBookResult]
	q := url.Values{
		"category": {category(kind)},
		"symbol":   {converter.ToVenue(symbol)},
		"limit":    {strconv.Itoa(bookDepth)},
	}
	if err := a.client.GetJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(path); err != nil {
		return nil, err
	}
	return exchange.NewBook(symbol,
		exchange.ToPriceLevels(resp.Result.Bids, bookDepth),
		exchange.ToPriceLevels(resp.Result.Asks, bookDepth))
}

type fundingHistoryResult struct {
	Category string `json:"category"`
	List     []struct {
		Symbol      string `json:"symbol"`
		FundingRate string `json:"fundingRate"`
		FundingTime string `json:"fundingRateTimestamp"`
	} `json:"list"`
}

// FundingRate 最近一次结算的资金费率（百分比）
func (a *Adapter) FundingRate(ctx context.Context, symbol string) (float64, error) {
	const path = "/v5/market/funding/history"
	var resp envelope[fundingHistoryResult]
	q := url.Values{
		"category": {"linear"},
		"symbol":   {converter.ToVenue(symbol)},
		"limit":    {"1"},
	}
	if err := a.client.GetJSON(ctx, path, q, &resp); err != nil {
		return 0, err
	}
	if err := resp.err(path); err != nil {
		return 0, err
	}
	if len(resp.Result.List) == 0 {
		return 0, fmt.Errorf("bybit: no funding rate for %s", symbol)
	}
	return exchange.ParsePercent(resp.Result.List[0].FundingRate)
}
