package tracking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"xspread/internal/domain/model"
)

var errSourceDown = errors.New("source down")

// mockSource 按调用次数返回 bids 中的买价（ask 固定为 100），超出后重复最后一个
type mockSource struct {
	mu    sync.Mutex
	bids  []float64
	calls int
	err   error
	delay time.Duration
	// entered 每次调用开始时非阻塞写入
	entered chan struct{}
}

func newMockSource(bids ...float64) *mockSource {
	return &mockSource{bids: bids, entered: make(chan struct{}, 64)}
}

func (m *mockSource) next(ctx context.Context) (float64, error) {
	select {
	case m.entered <- struct{}{}:
	default:
	}
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	i := m.calls - 1
	if i >= len(m.bids) {
		i = len(m.bids) - 1
	}
	return m.bids[i], nil
}

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSource) GetAllPrices(ctx context.Context, symbol string, venues []model.Venue) ([]model.VenueQuote, error) {
	bid, err := m.next(ctx)
	if err != nil {
		return nil, err
	}
	return []model.VenueQuote{
		{Venue: model.VenueMEXC, Market: model.MarketSpot, Bid: 99, Ask: 100, Symbol: symbol},
		{Venue: model.VenueGate, Market: model.MarketSpot, Bid: bid, Ask: 101, Symbol: symbol},
	}, nil
}

func (m *mockSource) CalculateSpread(ctx context.Context, symbol string, kind1, kind2 model.MarketKind, venues []model.Venue) (*model.SpreadData, error) {
	bid, err := m.next(ctx)
	if err != nil {
		return nil, err
	}
	return &model.SpreadData{
		Symbol:        symbol,
		AskVenue:      model.VenueMEXC,
		BidVenue:      model.VenueGate,
		AskMarket:     kind1,
		BidMarket:     kind2,
		AskPrice:      100,
		BidPrice:      bid,
		SpreadPercent: (bid - 100) / 100 * 100,
	}, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
	// failAt 第 N 次调用（从 1 开始）返回对应错误
	failAt   map[int]error
	attempts int
}

func (n *mockNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if err, ok := n.failAt[n.attempts]; ok {
		return err
	}
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (n *mockNotifier) Messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func (n *mockNotifier) Count(substr string) int {
	c := 0
	for _, m := range n.Messages() {
		if strings.Contains(m.text, substr) {
			c++
		}
	}
	return c
}

type mockRepo struct {
	mu      sync.Mutex
	signals []model.Signal
	quotes  int
}

func (r *mockRepo) UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes++
	return nil
}

func (r *mockRepo) InsertSignal(ctx context.Context, s model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
	return nil
}

func (r *mockRepo) Close() error { return nil }

func (r *mockRepo) Signals() []model.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Signal(nil), r.signals...)
}

// waitFor 轮询直到条件成立或超时
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
