package mexc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

const (
	defaultSpotURL    = "https://api.mexc.com"
	defaultFuturesURL = "https://contract.mexc.com"
	bookDepth         = 5
)

var (
	spotSymbols     = exchange.NewSymbolConverter("")
	contractSymbols = exchange.NewSymbolConverter("_")
)

// Adapter MEXC 现货 + 合约；充提状态需要签名接口，这里不提供
type Adapter struct {
	spot    *exchange.RestClient
	futures *exchange.RestClient
}

func New(cfg config.ExchangeConfig) *Adapter {
	spotURL, futuresURL := cfg.RestURL, cfg.FuturesURL
	if spotURL == "" {
		spotURL = defaultSpotURL
	}
	if futuresURL == "" {
		futuresURL = defaultFuturesURL
	}
	return &Adapter{
		spot:    exchange.NewRestClient("mexc", spotURL, cfg.RatePerSec),
		futures: exchange.NewRestClient("mexc", futuresURL, cfg.RatePerSec),
	}
}

func (a *Adapter) Venue() model.Venue { return model.VenueMEXC }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot, model.MarketPerpetual}
}

type depth struct {
	Bids []exchange.Level `json:"bids"`
	Asks []exchange.Level `json:"asks"`
}

// contractResp 合约接口统一响应
type contractResp[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (r contractResp[T]) err(path string) error {
	if !r.Success || r.Code != 0 {
		return fmt.Errorf("mexc %s: code %d %s", path, r.Code, r.Message)
	}
	return nil
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	var book depth
	if kind == model.MarketPerpetual {
		path := "/api/v1/contract/depth/" + contractSymbols.ToVenue(symbol)
		var resp contractResp[depth]
		q := url.Values{"limit": {strconv.Itoa(bookDepth)}}
		if err := a.futures.GetJSON(ctx, path, q, &resp); err != nil {
			return nil, err
		}
		if err := resp.err(path); err != nil {
			return nil, err
		}
		book = resp.Data
	} else {
		q := url.Values{"symbol": {spotSymbols.ToVenue(symbol)}, "limit": {strconv.Itoa(bookDepth)}}
		if err := a.spot.GetJSON(ctx, "/api/v3/depth", q, &book); err != nil {
			return nil, err
		}
	}
	return exchange.NewBook(symbol,
		exchange.ToPriceLevels(book.Bids, bookDepth),
		exchange.ToPriceLevels(book.Asks, bookDepth))
}

type fundingRate struct {
	Symbol      string          `json:"symbol"`
	FundingRate decimal.Decimal `json:"fundingRate"`
}

// FundingRate 当前资金费率（百分比）
func (a *Adapter) FundingRate(ctx context.Context, symbol string) (float64, error) {
	path := "/api/v1/contract/funding_rate/" + contractSymbols.ToVenue(symbol)
	var resp contractResp[fundingRate]
	if err := a.futures.GetJSON(ctx, path, nil, &resp); err != nil {
		return 0, err
	}
	if err := resp.err(path); err != nil {
		return 0, err
	}
	return resp.Data.FundingRate.Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
}
