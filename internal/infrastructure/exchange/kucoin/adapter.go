package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	sdkapi "github.com/Kucoin/kucoin-universal-sdk/sdk/golang/pkg/api"
	futuresmarket "github.com/Kucoin/kucoin-universal-sdk/sdk/golang/pkg/generate/futures/market"
	sdktype "github.com/Kucoin/kucoin-universal-sdk/sdk/golang/pkg/types"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

const (
	defaultSpotURL    = "https://api.kucoin.com"
	defaultFuturesURL = "https://api-futures.kucoin.com"
	bookDepth         = 5
	sdkTimeout        = 10 * time.Second
	codeOK            = "200000"
)

var converter = exchange.NewSymbolConverter("-")

// Adapter KuCoin 现货 + USDT 永续；资金费率走官方 SDK 的合约行情接口
type Adapter struct {
	spot    *exchange.RestClient
	futures *exchange.RestClient

	// contractInfo 返回合约详情的 JSON（字段与 /api/v1/contracts/{symbol} 一致）
	contractInfo func(ctx context.Context, contract string) ([]byte, error)
	limiter      *rate.Limiter
}

func New(cfg config.ExchangeConfig) *Adapter {
	spotURL, futuresURL := cfg.RestURL, cfg.FuturesURL
	if spotURL == "" {
		spotURL = defaultSpotURL
	}
	if futuresURL == "" {
		futuresURL = defaultFuturesURL
	}

	transportOpt := sdktype.NewTransportOptionBuilder().
		SetTimeout(sdkTimeout).
		Build()
	option := sdktype.NewClientOptionBuilder().
		WithFuturesEndpoint(futuresURL).
		WithTransportOption(transportOpt).
		Build()
	market := sdkapi.NewClient(option).RestService().GetFuturesService().GetMarketAPI()

	a := &Adapter{
		spot:    exchange.NewRestClient("kucoin", spotURL, cfg.RatePerSec),
		futures: exchange.NewRestClient("kucoin", futuresURL, cfg.RatePerSec),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	if cfg.RatePerSec > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	a.contractInfo = func(ctx context.Context, contract string) ([]byte, error) {
		req := futuresmarket.NewGetSymbolReqBuilder().SetSymbol(contract).Build()
		resp, err := market.GetSymbol(req, ctx)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, fmt.Errorf("kucoin: empty contract response for %s", contract)
		}
		return json.Marshal(resp)
	}
	return a
}

func (a *Adapter) Venue() model.Venue { return model.VenueKuCoin }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot, model.MarketPerpetual}
}

// contractSymbol BTC/USDT -> XBTUSDTM
func contractSymbol(symbol string) string {
	base := model.BaseToken(symbol)
	if base == "BTC" {
		base = "XBT"
	}
	return base + model.QuoteToken(symbol) + "M"
}

type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func get[T any](ctx context.Context, c *exchange.RestClient, path string, q url.Values) (T, error) {
	var resp envelope[T]
	if err := c.GetJSON(ctx, path, q, &resp); err != nil {
		return resp.Data, err
	}
	if resp.Code != codeOK {
		return resp.Data, fmt.Errorf("kucoin %s: code %s: %s", path, resp.Code, resp.Msg)
	}
	return resp.Data, nil
}

type book struct {
	Bids []exchange.Level `json:"bids"`
	Asks []exchange.Level `json:"asks"`
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	var (
		data book
		err  error
	)
	if kind == model.MarketPerpetual {
		q := url.Values{"symbol": {contractSymbol(symbol)}}
		data, err = get[book](ctx, a.futures, "/api/v1/level2/depth20", q)
	} else {
		q := url.Values{"symbol": {converter.ToVenue(symbol)}}
		data, err = get[book](ctx, a.spot, "/api/v1/market/orderbook/level2_20", q)
	}
	if err != nil {
		return nil, err
	}
	return exchange.NewBook(symbol,
		exchange.ToPriceLevels(data.Bids, bookDepth),
		exchange.ToPriceLevels(data.Asks, bookDepth))
}

type contractFunding struct {
	Symbol         string           `json:"symbol"`
	FundingFeeRate *decimal.Decimal `json:"fundingFeeRate"`
}

// FundingRate 当前资金费率（百分比）
func (a *Adapter) FundingRate(ctx context.Context, symbol string) (float64, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	raw, err := a.contractInfo(ctx, contractSymbol(symbol))
	if err != nil {
		return 0, err
	}
	var info contractFunding
	if err := json.Unmarshal(raw, &info); err != nil {
		return 0, fmt.Errorf("kucoin: decode contract: %w", err)
	}
	if info.FundingFeeRate == nil {
		return 0, fmt.Errorf("kucoin: no funding rate for %s", symbol)
	}
	return exchange.ParsePercent(info.FundingFeeRate.String())
}

type currencyChain struct {
	ChainName         string `json:"chainName"`
	ChainID           string `json:"chainId"`
	IsDepositEnabled  bool   `json:"isDepositEnabled"`
	IsWithdrawEnabled bool   `json:"isWithdrawEnabled"`
	ContractAddress   string `json:"contractAddress"`
}

type currency struct {
	Currency string          `json:"currency"`
	Chains   []currencyChain `json:"chains"`
}

func (a *Adapter) currency(ctx context.Context, token string) (currency, error) {
	return get[currency](ctx, a.spot, "/api/v3/currencies/"+strings.ToUpper(token), nil)
}

// TokenStatus 任一条链开放即视为可充/可提
func (a *Adapter) TokenStatus(ctx context.Context, token string) (model.TokenStatus, error) {
	c, err := a.currency(ctx, token)
	if err != nil {
		return model.TokenStatus{}, err
	}
	var st model.TokenStatus
	for _, ch := range c.Chains {
		st.Deposit = st.Deposit || ch.IsDepositEnabled
		st.Withdraw = st.Withdraw || ch.IsWithdrawEnabled
	}
	return st, nil
}

// Networks 至少开放充值或提现的链
func (a *Adapter) Networks(ctx context.Context, token string) ([]string, error) {
	c, err := a.currency(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(c.Chains))
	for _, ch := range c.Chains {
		if (ch.IsDepositEnabled || ch.IsWithdrawEnabled) && ch.ChainName != "" {
			out = append(out, ch.ChainName)
		}
	}
	return out, nil
}

func (a *Adapter) TokenContract(ctx context.Context, token, network string) (string, error) {
	c, err := a.currency(ctx, token)
	if err != nil {
		return "", err
	}
	for _, ch := range c.Chains {
		if strings.EqualFold(ch.ChainName, network) || strings.EqualFold(ch.ChainID, network) {
			return strings.TrimSpace(ch.ContractAddress), nil
		}
	}
	return "", nil
}
