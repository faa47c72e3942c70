package gate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

const (
	defaultBaseURL = "https://api.gateio.ws/api/v4"
	bookDepth      = 5
)

var converter = exchange.NewSymbolConverter("_")

// Adapter Gate.io v4：现货、USDT 永续、币种充提状态与链上合约
type Adapter struct {
	client *exchange.RestClient
}

func New(cfg config.ExchangeConfig) *Adapter {
	base := cfg.RestURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Adapter{client: exchange.NewRestClient("gate", base, cfg.RatePerSec)}
}

func (a *Adapter) Venue() model.Venue { return model.VenueGate }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot, model.MarketPerpetual}
}

type spotBook struct {
	Bids []exchange.Level `json:"bids"`
	Asks []exchange.Level `json:"asks"`
}

// futuresLevel 永续订单簿的档位是对象 {"p": "价格", "s": 数量}
type futuresLevel struct {
	Price decimal.Decimal `json:"p"`
	Size  decimal.Decimal `json:"s"`
}

type futuresBook struct {
	Bids []futuresLevel `json:"bids"`
	Asks []futuresLevel `json:"asks"`
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	pair := converter.ToVenue(symbol)
	limit := strconv.Itoa(bookDepth)

	if kind == model.MarketPerpetual {
		var resp futuresBook
		q := url.Values{"contract": {pair}, "limit": {limit}}
		if err := a.client.GetJSON(ctx, "/futures/usdt/order_book", q, &resp); err != nil {
			return nil, err
		}
		return exchange.NewBook(symbol, toLevels(resp.Bids), toLevels(resp.Asks))
	}

	var resp spotBook
	q := url.Values{"currency_pair": {pair}, "limit": {limit}}
	if err := a.client.GetJSON(ctx, "/spot/order_book", q, &resp); err != nil {
		return nil, err
	}
	return exchange.NewBook(symbol,
		exchange.ToPriceLevels(resp.Bids, bookDepth),
		exchange.ToPriceLevels(resp.Asks, bookDepth))
}

func toLevels(in []futuresLevel) []model.PriceLevel {
	levels := make([]exchange.Level, 0, len(in))
	for _, l := range in {
		levels = append(levels, exchange.Level{l.Price, l.Size})
	}
	return exchange.ToPriceLevels(levels, bookDepth)
}

type contractInfo struct {
	Name        string `json:"name"`
	FundingRate string `json:"funding_rate"`
}

// FundingRate 当前周期资金费率（百分比）
func (a *Adapter) FundingRate(ctx context.Context, symbol string) (float64, error) {
	var resp contractInfo
	path := "/futures/usdt/contracts/" + converter.ToVenue(symbol)
	if err := a.client.GetJSON(ctx, path, nil, &resp); err != nil {
		return 0, err
	}
	if resp.FundingRate == "" {
		return 0, fmt.Errorf("gate: no funding rate for %s", symbol)
	}
	return exchange.ParsePercent(resp.FundingRate)
}

type currencyInfo struct {
	Currency         string `json:"currency"`
	Delisted         bool   `json:"delisted"`
	DepositDisabled  bool   `json:"deposit_disabled"`
	WithdrawDisabled bool   `json:"withdraw_disabled"`
}

// TokenStatus 币种级别的充提开关
func (a *Adapter) TokenStatus(ctx context.Context, token string) (model.TokenStatus, error) {
	var resp currencyInfo
	if err := a.client.GetJSON(ctx, "/spot/currencies/"+strings.ToUpper(token), nil, &resp); err != nil {
		return model.TokenStatus{}, err
	}
	if resp.Delisted {
		return model.TokenStatus{}, nil
	}
	return model.TokenStatus{Deposit: !resp.DepositDisabled, Withdraw: !resp.WithdrawDisabled}, nil
}

type currencyChain struct {
	Chain           string `json:"chain"`
	ContractAddress string `json:"contract_address"`
	IsDisabled      int    `json:"is_disabled"`
}

func (a *Adapter) chains(ctx context.Context, token string) ([]currencyChain, error) {
	var resp []currencyChain
	q := url.Values{"currency": {strings.ToUpper(token)}}
	if err := a.client.GetJSON(ctx, "/wallet/currency_chains", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Networks 币种当前启用的链
func (a *Adapter) Networks(ctx context.Context, token string) ([]string, error) {
	chains, err := a.chains(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(chains))
	for _, c := range chains {
		if c.IsDisabled == 0 && c.Chain != "" {
			out = append(out, c.Chain)
		}
	}
	return out, nil
}

func (a *Adapter) TokenContract(ctx context.Context, token, network string) (string, error) {
	chains, err := a.chains(ctx, token)
	if err != nil {
		return "", err
	}
	for _, c := range chains {
		if strings.EqualFold(c.Chain, network) {
			return strings.TrimSpace(c.ContractAddress), nil
		}
	}
	return "", nil
}
