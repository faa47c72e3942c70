package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
	domainsvc "xspread/internal/domain/service"
)

const (
	defaultCallTimeout = 5 * time.Second
	defaultMaxParallel = 4
)

// 交易所没有提供 NetworkLister 时尝试的链
var defaultNetworks = []string{"ETH", "BSC", "ARBITRUM", "POLYGON", "OPTIMISM", "AVAX"}

type AggregatorConfig struct {
	CallTimeout time.Duration // 单次交易所调用超时
	MaxParallel int           // 同时查询的交易所数量
}

// venueEntry 适配器及其在构造时探测到的可选能力
type venueEntry struct {
	adapter   port.VenueAdapter
	funding   port.FundingRateProvider
	tokens    port.TokenStatusChecker
	networks  port.NetworkLister
	contracts port.ContractResolver
	linker    port.PairLinker
}

// MarketAggregator 多交易所行情聚合
type MarketAggregator struct {
	order   []model.Venue
	venues  map[model.Venue]*venueEntry
	markets *MarketAvailability
	tokens  *TokenAvailability
	cfg     AggregatorConfig
}

// NewMarketAggregator adapters 的顺序即查询与比较顺序
func NewMarketAggregator(adapters []port.VenueAdapter, cfg AggregatorConfig) *MarketAggregator {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = defaultMaxParallel
	}

	a := &MarketAggregator{
		venues:  make(map[model.Venue]*venueEntry, len(adapters)),
		markets: NewMarketAvailability(),
		tokens:  NewTokenAvailability(),
		cfg:     cfg,
	}
	for _, ad := range adapters {
		v := ad.Venue()
		if _, dup := a.venues[v]; dup {
			log.Warn().Str("venue", string(v)).Msg("duplicate venue adapter ignored")
			continue
		}
		e := &venueEntry{adapter: ad}
		e.funding, _ = ad.(port.FundingRateProvider)
		e.tokens, _ = ad.(port.TokenStatusChecker)
		e.networks, _ = ad.(port.NetworkLister)
		e.contracts, _ = ad.(port.ContractResolver)
		e.linker, _ = ad.(port.PairLinker)

		a.venues[v] = e
		a.order = append(a.order, v)
	}
	return a
}

// Venues 已启用的交易所（按配置顺序）
func (a *MarketAggregator) Venues() []model.Venue {
	out := make([]model.Venue, len(a.order))
	copy(out, a.order)
	return out
}

// PairURL 聚合数据源记住的交易对页面，没有时返回空串
func (a *MarketAggregator) PairURL(venue model.Venue, symbol string) string {
	e, ok := a.venues[venue]
	if !ok || e.linker == nil {
		return ""
	}
	return e.linker.PairURL(symbol)
}

// MarketAvailability 共享的市场可用性缓存
func (a *MarketAggregator) MarketAvailability() *MarketAvailability { return a.markets }

// TokenAvailability 共享的币种充提缓存
func (a *MarketAggregator) TokenAvailability() *TokenAvailability { return a.tokens }

// selected 按配置顺序过滤出本次请求的交易所，venues 为空表示全部
func (a *MarketAggregator) selected(venues []model.Venue) []*venueEntry {
	want := make(map[model.Venue]bool, len(venues))
	for _, v := range venues {
		want[v] = true
	}
	out := make([]*venueEntry, 0, len(a.order))
	for _, v := range a.order {
		if len(want) == 0 || want[v] {
			out = append(out, a.venues[v])
		}
	}
	return out
}

func (a *MarketAggregator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.CallTimeout)
}

// GetAllPrices 查询所有选中交易所、所有支持市场的最优报价
// 单个交易所失败只记录日志；全部失败时返回 ErrNoPricesAvailable
func (a *MarketAggregator) GetAllPrices(ctx context.Context, symbol string, venues []model.Venue) ([]model.VenueQuote, error) {
	entries := a.selected(venues)
	results := make([][]model.VenueQuote, len(entries))

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxParallel)
	for i, e := range entries {
		g.Go(func() error {
			results[i] = a.venueQuotes(ctx, e, symbol)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var quotes []model.VenueQuote
	for _, r := range results {
		quotes = append(quotes, r...)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoPricesAvailable)
	}
	return quotes, nil
}

func (a *MarketAggregator) venueQuotes(ctx context.Context, e *venueEntry, symbol string) []model.VenueQuote {
	venue := e.adapter.Venue()
	status := a.tokenStatus(ctx, e, model.BaseToken(symbol))

	var out []model.VenueQuote
	for _, kind := range e.adapter.MarketKinds() {
		if ctx.Err() != nil {
			return nil
		}

		// 探测成功时直接复用探测得到的订单簿
		var fetched *model.OrderBook
		available := a.markets.Resolve(ctx, symbol, venue, kind, func(pctx context.Context) error {
			cctx, cancel := a.callCtx(pctx)
			defer cancel()
			ob, err := e.adapter.OrderBook(cctx, symbol, kind)
			if err != nil {
				log.Debug().Str("venue", string(venue)).Str("symbol", symbol).Str("market", string(kind)).
					Err(err).Msg("market check failed")
				return err
			}
			fetched = ob
			return nil
		})
		if !available {
			continue
		}

		ob := fetched
		if ob == nil {
			cctx, cancel := a.callCtx(ctx)
			var err error
			ob, err = e.adapter.OrderBook(cctx, symbol, kind)
			cancel()
			if err != nil {
				log.Warn().Str("venue", string(venue)).Str("symbol", symbol).Str("market", string(kind)).
					Err(err).Msg("order book fetch failed")
				continue
			}
		}
		if ob.Empty() {
			continue
		}

		q := model.VenueQuote{
			Venue:       venue,
			Market:      kind,
			Bid:         ob.Bids[0].Price,
			Ask:         ob.Asks[0].Price,
			Symbol:      symbol,
			TokenStatus: status,
		}
		if kind == model.MarketPerpetual && e.funding != nil {
			q.Funding = a.fundingRate(ctx, e, symbol)
		}
		out = append(out, q)
	}
	return out
}

// tokenStatus 充提状态；查询失败按关闭处理并缓存
func (a *MarketAggregator) tokenStatus(ctx context.Context, e *venueEntry, token string) *model.TokenStatus {
	if e.tokens == nil {
		return nil
	}
	venue := e.adapter.Venue()
	if a.tokens.IsDisabled(venue, token) {
		return &model.TokenStatus{}
	}

	cctx, cancel := a.callCtx(ctx)
	defer cancel()
	st, err := e.tokens.TokenStatus(cctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Debug().Str("venue", string(venue)).Str("token", token).Err(err).Msg("token status check failed")
		a.tokens.MarkDisabled(venue, token)
		return &model.TokenStatus{}
	}
	if st.Disabled() {
		a.tokens.MarkDisabled(venue, token)
	}
	return &st
}

func (a *MarketAggregator) fundingRate(ctx context.Context, e *venueEntry, symbol string) *float64 {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()
	rate, err := e.funding.FundingRate(cctx, symbol)
	if err != nil {
		log.Debug().Str("venue", string(e.adapter.Venue())).Str("symbol", symbol).Err(err).Msg("funding rate unavailable")
		return nil
	}
	return &rate
}

// CalculateSpread 普通模式：每个交易所取主市场（现货）订单簿，选出最优买卖
func (a *MarketAggregator) CalculateSpread(ctx context.Context, symbol string, kind1, kind2 model.MarketKind, venues []model.Venue) (*model.SpreadData, error) {
	entries := a.selected(venues)
	books := make([]*model.OrderBook, len(entries))
	errs := make([]error, len(entries))

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxParallel)
	for i, e := range entries {
		g.Go(func() error {
			cctx, cancel := a.callCtx(ctx)
			defer cancel()
			books[i], errs[i] = e.adapter.OrderBook(cctx, symbol, model.MarketSpot)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		bestBid, bestAsk   float64
		bidVenue, askVenue model.Venue
		available          int
		failures           = make(map[model.Venue]string)
	)
	for i, e := range entries {
		venue := e.adapter.Venue()
		switch {
		case errs[i] != nil:
			failures[venue] = errs[i].Error()
			continue
		case books[i].Empty():
			failures[venue] = "empty order book"
			continue
		}
		available++
		bid, ask := books[i].Bids[0].Price, books[i].Asks[0].Price
		if bidVenue == "" || bid > bestBid {
			bestBid, bidVenue = bid, venue
		}
		if askVenue == "" || ask < bestAsk {
			bestAsk, askVenue = ask, venue
		}
	}

	if available < 2 {
		return nil, &InsufficientLiquidityError{Symbol: symbol, Available: available, Errors: failures}
	}

	return &model.SpreadData{
		Symbol:        symbol,
		AskVenue:      askVenue,
		BidVenue:      bidVenue,
		AskMarket:     kind1,
		BidMarket:     kind2,
		AskPrice:      bestAsk,
		BidPrice:      bestBid,
		SpreadPercent: domainsvc.SpreadPercent(bestBid, bestAsk),
	}, nil
}

// GetTokenContracts venue -> network -> 合约地址，只包含查到地址的链
func (a *MarketAggregator) GetTokenContracts(ctx context.Context, token string) (map[model.Venue]map[string]string, error) {
	entries := a.selected(nil)
	results := make([]map[string]string, len(entries))

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxParallel)
	for i, e := range entries {
		if e.contracts == nil {
			continue
		}
		g.Go(func() error {
			results[i] = a.venueContracts(ctx, e, token)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[model.Venue]map[string]string)
	for i, e := range entries {
		if len(results[i]) > 0 {
			out[e.adapter.Venue()] = results[i]
		}
	}
	return out, nil
}

func (a *MarketAggregator) venueContracts(ctx context.Context, e *venueEntry, token string) map[string]string {
	venue := e.adapter.Venue()
	networks := defaultNetworks
	if e.networks != nil {
		cctx, cancel := a.callCtx(ctx)
		list, err := e.networks.Networks(cctx, token)
		cancel()
		if err != nil {
			log.Debug().Str("venue", string(venue)).Str("token", token).Err(err).Msg("network list unavailable")
			return nil
		}
		networks = list
	}

	found := make(map[string]string)
	for _, network := range networks {
		cctx, cancel := a.callCtx(ctx)
		addr, err := e.contracts.TokenContract(cctx, token, network)
		cancel()
		if err != nil {
			log.Debug().Str("venue", string(venue)).Str("token", token).Str("network", network).
				Err(err).Msg("contract lookup failed")
			continue
		}
		if addr != "" {
			found[network] = addr
		}
	}
	return found
}
