package binance

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
	defaultSpotURL    = "https://api.binance.com"
	defaultFuturesURL = "https://fapi.binance.com"
	bookDepth         = 5
)

var converter = exchange.NewSymbolConverter("")

// Adapter Binance 现货 + U 本位永续；开启 ws 时永续最优价优先取 bookTicker 流
type Adapter struct {
	spot    *exchange.RestClient
	futures *exchange.RestClient
	stream  *BookTickerStream
}

func New(cfg config.ExchangeConfig) *Adapter {
	spotURL, futuresURL := cfg.RestURL, cfg.FuturesURL
	if spotURL == "" {
		spotURL = defaultSpotURL
	}
	if futuresURL == "" {
		futuresURL = defaultFuturesURL
	}
	a := &Adapter{
		spot:    exchange.NewRestClient("binance", spotURL, cfg.RatePerSec),
		futures: exchange.NewRestClient("binance", futuresURL, cfg.RatePerSec),
	}
	if cfg.WsEnabled && cfg.WsURL != "" {
		a.stream = NewBookTickerStream(cfg.WsURL)
	}
	return a
}

func (a *Adapter) Venue() model.Venue { return model.VenueBinance }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot, model.MarketPerpetual}
}

type depthResp struct {
	Bids []exchange.Level `json:"bids"`
	Asks []exchange.Level `json:"asks"`
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	sym := converter.ToVenue(symbol)
	if kind == model.MarketPerpetual && a.stream != nil {
		if ob, ok := a.stream.Book(sym); ok {
			ob.Symbol = symbol
			return ob, nil
		}
	}

	client, path := a.spot, "/api/v3/depth"
	if kind == model.MarketPerpetual {
		client, path = a.futures, "/fapi/v1/depth"
	}

	var resp depthResp
	q := url.Values{"symbol": {sym}, "limit": {strconv.Itoa(bookDepth)}}
	if err := client.GetJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return exchange.NewBook(symbol,
		exchange.ToPriceLevels(resp.Bids, bookDepth),
		exchange.ToPriceLevels(resp.Asks, bookDepth))
}

type premiumIndexResp struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
}

// FundingRate 当前资金费率（百分比）
func (a *Adapter) FundingRate(ctx context.Context, symbol string) (float64, error) {
	var resp premiumIndexResp
	q := url.Values{"symbol": {converter.ToVenue(symbol)}}
	if err := a.futures.GetJSON(ctx, "/fapi/v1/premiumIndex", q, &resp); err != nil {
		return 0, err
	}
	if resp.LastFundingRate == "" {
		return 0, fmt.Errorf("binance: no funding rate for %s", symbol)
	}
	return exchange.ParsePercent(resp.LastFundingRate)
}

// Run 维护 bookTicker 流直到 ctx 结束；未开启 ws 时立即返回
func (a *Adapter) Run(ctx context.Context) {
	if a.stream != nil {
		a.stream.Run(ctx)
	}
}
