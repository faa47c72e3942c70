package bitget

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

const (
	defaultBaseURL = "https://api.bitget.com"
	productType    = "usdt-futures"
	bookDepth      = 5
	codeSuccess    = "00000"
)

var converter = exchange.NewSymbolConverter("")

// Adapter Bitget v2：现货、USDT 永续，币种信息来自公共 coins 接口
type Adapter struct {
	client *exchange.RestClient
}

func New(cfg config.ExchangeConfig) *Adapter {
	base := cfg.RestURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Adapter{client: exchange.NewRestClient("bitget", base, cfg.RatePerSec)}
}

func (a *Adapter) Venue() model.Venue { return model.VenueBitget }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot, model.MarketPerpetual}
}

type response[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// get 请求并校验业务码，返回 data
func get[T any](ctx context.Context, c *exchange.RestClient, path string, q url.Values) (T, error) {
	var resp response[T]
	if err := c.GetJSON(ctx, path, q, &resp); err != nil {
		return resp.Data, err
	}
	if resp.Code != codeSuccess {
		return resp.Data, fmt.Errorf("bitget %s: %s %s", path, resp.Code, resp.Msg)
	}
	return resp.Data, nil
}

type depth struct {
	Bids []exchange.Level `json:"bids"`
	Asks []exchange.Level `json:"asks"`
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	q := url.Values{"symbol": {converter.ToVenue(symbol)}, "limit": {strconv.Itoa(bookDepth)}}
	path := "/api/v2/spot/market/orderbook"
	if kind == model.MarketPerpetual {
		path = "/api/v2/mix/market/merge-depth"
		q.Set("productType", productType)
	}

	book, err := get[depth](ctx, a.client, path, q)
	if err != nil {
		return nil, err
	}
	return exchange.NewBook(symbol,
		exchange.ToPriceLevels(book.Bids, bookDepth),
		exchange.ToPriceLevels(book.Asks, bookDepth))
}

type fundRate struct {
	Symbol      string `json:"symbol"`
	FundingRate string `json:"fundingRate"`
}

// FundingRate 当前资金费率（百分比）
func (a *Adapter) FundingRate(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{"symbol": {converter.ToVenue(symbol)}, "productType": {productType}}
	rates, err := get[[]fundRate](ctx, a.client, "/api/v2/mix/market/current-fund-rate", q)
	if err != nil {
		return 0, err
	}
	if len(rates) == 0 {
		return 0, fmt.Errorf("bitget: no funding rate for %s", symbol)
	}
	return exchange.ParsePercent(rates[0].FundingRate)
}

type coinChain struct {
	Chain           string `json:"chain"`
	Rechargeable    string `json:"rechargeable"`
	Withdrawable    string `json:"withdrawable"`
	ContractAddress string `json:"contractAddress"`
}

type coinInfo struct {
	Coin   string      `json:"coin"`
	Chains []coinChain `json:"chains"`
}

func (a *Adapter) coin(ctx context.Context, token string) (*coinInfo, error) {
	coins, err := get[[]coinInfo](ctx, a.client, "/api/v2/spot/public/coins", url.Values{"coin": {strings.ToUpper(token)}})
	if err != nil {
		return nil, err
	}
	for i := range coins {
		if strings.EqualFold(coins[i].Coin, token) {
			return &coins[i], nil
		}
	}
	return nil, fmt.Errorf("bitget: coin %s not found", token)
}

// TokenStatus 任意一条链可充/可提即视为开启
func (a *Adapter) TokenStatus(ctx context.Context, token string) (model.TokenStatus, error) {
	info, err := a.coin(ctx, token)
	if err != nil {
		return model.TokenStatus{}, err
	}
	var st model.TokenStatus
	for _, c := range info.Chains {
		st.Deposit = st.Deposit || c.Rechargeable == "true"
		st.Withdraw = st.Withdraw || c.Withdrawable == "true"
	}
	return st, nil
}

func (a *Adapter) Networks(ctx context.Context, token string) ([]string, error) {
	info, err := a.coin(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(info.Chains))
	for _, c := range info.Chains {
		out = append(out, c.Chain)
	}
	return out, nil
}

func (a *Adapter) TokenContract(ctx context.Context, token, network string) (string, error) {
	info, err := a.coin(ctx, token)
	if err != nil {
		return "", err
	}
	for _, c := range info.Chains {
		if strings.EqualFold(c.Chain, network) {
			return strings.TrimSpace(c.ContractAddress), nil
		}
	}
	return "", nil
}
