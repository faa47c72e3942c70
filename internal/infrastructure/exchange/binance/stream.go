package binance

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/exchange"
)

// bookTickerMaxAge 超过该时间的缓存视为过期，回退到 REST
const bookTickerMaxAge = 5 * time.Second

type bookTickerMsg struct {
	Symbol   string          `json:"s"`
	BidPrice decimal.Decimal `json:"b"`
	BidQty   decimal.Decimal `json:"B"`
	AskPrice decimal.Decimal `json:"a"`
	AskQty   decimal.Decimal `json:"A"`
}

type bookTicker struct {
	bid, bidQty float64
	ask, askQty float64
	at          time.Time
}

// BookTickerStream 订阅永续全市场 !bookTicker，缓存每个合约的最优买卖价
type BookTickerStream struct {
	stream exchange.Stream

	mu    sync.RWMutex
	books map[string]bookTicker
	now   func() time.Time
}

// NewBookTickerStream wsURL 例如 wss://fstream.binance.com
func NewBookTickerStream(wsURL string) *BookTickerStream {
	s := &BookTickerStream{
		books: make(map[string]bookTicker),
		now:   time.Now,
	}
	// 手动拼接，避免 url.URL 把 ! 转义
	streamURL := strings.TrimRight(strings.TrimSpace(wsURL), "/") + "/ws/!bookTicker"
	s.stream = exchange.Stream{Name: "binance-bookticker", URL: streamURL, OnMessage: s.handle}
	return s
}

// Run 阻塞直到 ctx 结束
func (s *BookTickerStream) Run(ctx context.Context) {
	s.stream.Run(ctx)
}

func (s *BookTickerStream) handle(b []byte) {
	var msg bookTickerMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Debug().Err(err).Msg("binance bookTicker unmarshal failed")
		return
	}
	if msg.Symbol == "" || !msg.BidPrice.IsPositive() || !msg.AskPrice.IsPositive() {
		return
	}

	s.mu.Lock()
	s.books[msg.Symbol] = bookTicker{
		bid:    msg.BidPrice.InexactFloat64(),
		bidQty: msg.BidQty.InexactFloat64(),
		ask:    msg.AskPrice.InexactFloat64(),
		askQty: msg.AskQty.InexactFloat64(),
		at:     s.now(),
	}
	s.mu.Unlock()
}

// Book 返回未过期的最优价，venueSymbol 为 BTCUSDT 格式
func (s *BookTickerStream) Book(venueSymbol string) (*model.OrderBook, bool) {
	s.mu.RLock()
	bt, ok := s.books[venueSymbol]
	s.mu.RUnlock()
	if !ok || s.now().Sub(bt.at) > bookTickerMaxAge {
		return nil, false
	}
	return &model.OrderBook{
		Symbol: converter.ToCommon(venueSymbol, "USDT"),
		Bids:   []model.PriceLevel{{Price: bt.bid, Size: bt.bidQty}},
		Asks:   []model.PriceLevel{{Price: bt.ask, Size: bt.askQty}},
	}, true
}
