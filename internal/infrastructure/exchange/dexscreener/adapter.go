package dexscreener

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

const (
	defaultBaseURL = "https://api.dexscreener.com"
	// minVolumeUSD 24h 成交额低于该值的池子不参与
	minVolumeUSD = 1000
	// syntheticSpread 只有成交价，按 ±0.1% 构造一档买卖
	syntheticSpread = 0.001
)

// Adapter DexScreener 聚合数据：按 24h 成交额选出最活跃的池子
type Adapter struct {
	client *exchange.RestClient

	mu    sync.RWMutex
	pairs map[string]string // symbol -> 最近一次选中的 pair 页面
}

func New(cfg config.ExchangeConfig) *Adapter {
	base := cfg.RestURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Adapter{
		client: exchange.NewRestClient("dexscreener", base, cfg.RatePerSec),
		pairs:  make(map[string]string),
	}
}

func (a *Adapter) Venue() model.Venue { return model.VenueDexScreener }

func (a *Adapter) MarketKinds() []model.MarketKind {
	return []model.MarketKind{model.MarketSpot}
}

type token struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

type pair struct {
	ChainID   string          `json:"chainId"`
	DexID     string          `json:"dexId"`
	URL       string          `json:"url"`
	BaseToken token           `json:"baseToken"`
	PriceUSD  decimal.Decimal `json:"priceUsd"`
	Volume    struct {
		H24 decimal.Decimal `json:"h24"`
	} `json:"volume"`
}

type searchResp struct {
	Pairs []pair `json:"pairs"`
}

// search 返回成交额达标的池子，按 24h 成交额降序
func (a *Adapter) search(ctx context.Context, query string) ([]pair, error) {
	var resp searchResp
	if err := a.client.GetJSON(ctx, "/latest/dex/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	minVol := decimal.NewFromInt(minVolumeUSD)
	out := make([]pair, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		if p.Volume.H24.GreaterThanOrEqual(minVol) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume.H24.GreaterThan(out[j].Volume.H24) })
	return out, nil
}

func (a *Adapter) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	if kind != model.MarketSpot {
		return nil, fmt.Errorf("dexscreener: market %s not supported", kind)
	}
	pairs, err := a.search(ctx, model.BaseToken(symbol))
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("dexscreener: no pairs with sufficient volume for %s", symbol)
	}
	best := pairs[0]
	if !best.PriceUSD.IsPositive() {
		return nil, fmt.Errorf("dexscreener: invalid price for %s", symbol)
	}

	a.mu.Lock()
	a.pairs[symbol] = best.URL
	a.mu.Unlock()
	log.Debug().Str("symbol", symbol).Str("dex", best.DexID).Str("chain", best.ChainID).
		Str("volume_24h", best.Volume.H24.String()).Msg("dexscreener pair selected")

	price := best.PriceUSD.InexactFloat64()
	return exchange.NewBook(symbol,
		[]model.PriceLevel{{Price: price * (1 - syntheticSpread), Size: 1}},
		[]model.PriceLevel{{Price: price * (1 + syntheticSpread), Size: 1}})
}

// PairURL 最近一次报价使用的池子页面
func (a *Adapter) PairURL(symbol string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pairs[symbol]
}

// Networks 活跃池子所在的链（大写，去重）
func (a *Adapter) Networks(ctx context.Context, tok string) ([]string, error) {
	pairs, err := a.search(ctx, tok)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range pairs {
		chain := strings.ToUpper(p.ChainID)
		if chain == "" || seen[chain] {
			continue
		}
		seen[chain] = true
		out = append(out, chain)
	}
	return out, nil
}

// TokenContract 该链上成交额最大的同名代币地址
func (a *Adapter) TokenContract(ctx context.Context, tok, network string) (string, error) {
	pairs, err := a.search(ctx, tok)
	if err != nil {
		return "", err
	}
	for _, p := range pairs {
		if strings.EqualFold(p.ChainID, network) && strings.EqualFold(p.BaseToken.Symbol, tok) {
			return p.BaseToken.Address, nil
		}
	}
	return "", nil
}
