package service

import (
	"context"
	"errors"
	"sync"

	"xspread/internal/domain/model"
)

var errVenueDown = errors.New("venue down")

// MockVenue 可编程的交易所适配器，books 为 nil 的市场返回 errVenueDown
type MockVenue struct {
	venue model.Venue
	kinds []model.MarketKind

	mu      sync.Mutex
	books   map[model.MarketKind]*model.OrderBook
	calls   map[model.MarketKind]int
	status  *model.TokenStatus
	funding *float64
}

func NewMockVenue(venue model.Venue, kinds ...model.MarketKind) *MockVenue {
	if len(kinds) == 0 {
		kinds = []model.MarketKind{model.MarketSpot}
	}
	return &MockVenue{
		venue: venue,
		kinds: kinds,
		books: make(map[model.MarketKind]*model.OrderBook),
		calls: make(map[model.MarketKind]int),
	}
}

func (m *MockVenue) WithBook(kind model.MarketKind, bid, ask float64) *MockVenue {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[kind] = &model.OrderBook{
		Bids: []model.PriceLevel{{Price: bid, Size: 1}},
		Asks: []model.PriceLevel{{Price: ask, Size: 1}},
	}
	return m
}

func (m *MockVenue) Calls(kind model.MarketKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind]
}

func (m *MockVenue) Venue() model.Venue               { return m.venue }
func (m *MockVenue) MarketKinds() []model.MarketKind { return m.kinds }

func (m *MockVenue) OrderBook(ctx context.Context, symbol string, kind model.MarketKind) (*model.OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[kind]++
	ob, ok := m.books[kind]
	if !ok {
		return nil, errVenueDown
	}
	return ob, nil
}

// MockStatusVenue 同时实现充提状态和资金费率
type MockStatusVenue struct {
	*MockVenue
	statusCalls int
}

func (m *MockStatusVenue) TokenStatus(ctx context.Context, token string) (model.TokenStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.status == nil {
		return model.TokenStatus{}, errVenueDown
	}
	return *m.status, nil
}

func (m *MockStatusVenue) FundingRate(ctx context.Context, symbol string) (float64, error) {
	if m.funding == nil {
		return 0, errVenueDown
	}
	return *m.funding, nil
}

// MockContractVenue 提供链列表与合约地址
type MockContractVenue struct {
	*MockVenue
	contracts map[string]string
}

func (m *MockContractVenue) Networks(ctx context.Context, token string) ([]string, error) {
	out := make([]string, 0, len(m.contracts)+1)
	for n := range m.contracts {
		out = append(out, n)
	}
	return append(out, "TRON"), nil
}

func (m *MockContractVenue) TokenContract(ctx context.Context, token, network string) (string, error) {
	return m.contracts[network], nil
}
