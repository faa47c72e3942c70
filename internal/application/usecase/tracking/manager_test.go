package tracking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"xspread/internal/domain/model"
)

func newTestManager(src *mockSource, n *mockNotifier) *Manager {
	return NewManager(ManagerDeps{Source: src, Notifier: n, Policy: testPolicy, Interval: time.Hour})
}

func TestManagerStartAndList(t *testing.T) {
	m := newTestManager(newMockSource(102), &mockNotifier{})
	defer m.StopEverything()

	info, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: 1, Symbol: "btc-usdt", Ultra: true})
	if err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if info.Key != "BTC/USDT_spot_spot_ultra" {
		t.Errorf("Unexpected key %s", info.Key)
	}
	if info.ID == "" {
		t.Error("Expected tracker id")
	}

	list := m.ListTrackings(1)
	if len(list) != 1 || list[0].Key != info.Key {
		t.Fatalf("Unexpected list %+v", list)
	}
	if ids := m.ActiveChatIDs(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Unexpected active chats %v", ids)
	}
}

func TestManagerReplacesSameKey(t *testing.T) {
	src := newMockSource(102)
	n := &mockNotifier{}
	m := newTestManager(src, n)
	defer m.StopEverything()

	p := model.TrackingParams{ChatID: 1, Symbol: "BTC/USDT", Ultra: true}
	first, err := m.StartTracking(context.Background(), p)
	if err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	p.MinSpreadPercent = 2
	second, err := m.StartTracking(context.Background(), p)
	if err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}

	list := m.ListTrackings(1)
	if len(list) != 1 {
		t.Fatalf("Expected 1 tracker after replace, got %d", len(list))
	}
	if list[0].ID != second.ID || list[0].ID == first.ID {
		t.Errorf("Expected replaced tracker %s, got %s", second.ID, list[0].ID)
	}
	if list[0].Params.MinSpreadPercent != 2 {
		t.Errorf("Expected new params, got %+v", list[0].Params)
	}
}

func TestManagerStopVariants(t *testing.T) {
	m := newTestManager(newMockSource(102), &mockNotifier{})
	ctx := context.Background()

	for _, p := range []model.TrackingParams{
		{ChatID: 1, Symbol: "BTC/USDT", Ultra: true},
		{ChatID: 1, Symbol: "BTC/USDT", Market2: model.MarketPerpetual},
		{ChatID: 1, Symbol: "ETH/USDT", Ultra: true},
		{ChatID: 2, Symbol: "ETH/USDT", Ultra: true},
	} {
		if _, err := m.StartTracking(ctx, p); err != nil {
			t.Fatalf("StartTracking failed: %v", err)
		}
	}

	if m.StopTracking(1, "missing") {
		t.Error("Expected false for unknown key")
	}
	if !m.StopTracking(1, "ETH/USDT_spot_spot_ultra") {
		t.Error("Expected true for existing key")
	}
	if n := m.StopSymbol(1, "BTC/USDT"); n != 2 {
		t.Errorf("Expected 2 stopped by symbol, got %d", n)
	}
	if ids := m.ActiveChatIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Expected only chat 2 active, got %v", ids)
	}
	if n := m.StopAllTracking(2); n != 1 {
		t.Errorf("Expected 1 stopped, got %d", n)
	}
	if len(m.ActiveChatIDs()) != 0 {
		t.Error("Expected no active chats")
	}
}

func TestManagerStartFailureNotRegistered(t *testing.T) {
	n := &mockNotifier{err: errors.New("blocked by user")}
	m := newTestManager(newMockSource(102), n)

	_, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: 1, Symbol: "BTC/USDT", Ultra: true})
	if err == nil {
		t.Fatal("Expected start error")
	}
	if len(m.ListTrackings(1)) != 0 {
		t.Error("Failed tracker must not stay registered")
	}
}

func TestManagerRejectsInvalidParams(t *testing.T) {
	m := newTestManager(newMockSource(102), &mockNotifier{})

	_, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: 1, Symbol: "BTC/USDT", MinSpreadPercent: 3, MaxSpreadPercent: 2})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if len(m.ActiveChatIDs()) != 0 {
		t.Error("Invalid params must not register a tracker")
	}
}

func TestManagerCycleErrorSentToChat(t *testing.T) {
	src := newMockSource(102)
	src.err = errSourceDown
	n := &mockNotifier{}
	m := newTestManager(src, n)
	defer m.StopEverything()

	if _, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: 7, Symbol: "BTC/USDT", Ultra: true}); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}

	var found bool
	for _, msg := range n.Messages() {
		if msg.chatID == 7 && strings.Contains(msg.text, "Error fetching data for BTC/USDT: source down") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected error message in chat, got %v", n.Messages())
	}
}

func TestManagerBroadcast(t *testing.T) {
	n := &mockNotifier{}
	m := newTestManager(newMockSource(102), n)
	defer m.StopEverything()

	for _, chat := range []int64{1, 2} {
		if _, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: chat, Symbol: "BTC/USDT", Ultra: true}); err != nil {
			t.Fatalf("StartTracking failed: %v", err)
		}
	}
	if sent := m.Broadcast(context.Background(), m.Formatter().ShuttingDown()); sent != 2 {
		t.Errorf("Expected 2 broadcasts, got %d", sent)
	}
}

func TestManagerLimitsVenuesToEnabled(t *testing.T) {
	n := &mockNotifier{}
	m := NewManager(ManagerDeps{
		Source: newMockSource(102), Notifier: n, Policy: testPolicy, Interval: time.Hour,
		Venues: []model.Venue{model.VenueMEXC, model.VenueGate},
	})
	defer m.StopEverything()

	info, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: 3, Symbol: "BTC/USDT", Ultra: true})
	if err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	got := info.Params.Venues
	if len(got) != 2 || got[0] != model.VenueMEXC || got[1] != model.VenueGate {
		t.Errorf("Expected [mexc gate], got %v", got)
	}
	if c := n.Count("Venues: mexc, gate\n"); c != 1 {
		t.Errorf("Expected started message to list only enabled venues, got %v", n.Messages())
	}

	_, err = m.StartTracking(context.Background(), model.TrackingParams{
		ChatID: 3, Symbol: "ETH/USDT", Ultra: true, Venues: []model.Venue{model.VenueBybit},
	})
	if err == nil {
		t.Error("Expected error when no selected venue is enabled")
	}
}

func TestManagerBroadcastToNoticeChats(t *testing.T) {
	n := &mockNotifier{}
	m := newTestManager(newMockSource(102), n)
	defer m.StopEverything()

	// 没有任务时只发给固定接收方
	if sent := m.Broadcast(context.Background(), m.Formatter().Restarted(), 7); sent != 1 {
		t.Fatalf("Expected 1 notice without active chats, got %d", sent)
	}

	if _, err := m.StartTracking(context.Background(), model.TrackingParams{ChatID: 7, Symbol: "BTC/USDT", Ultra: true}); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if sent := m.Broadcast(context.Background(), m.Formatter().ShuttingDown(), 7, 8, 0); sent != 2 {
		t.Errorf("Expected 2 notices (chat 7 once, chat 8), got %d", sent)
	}
}
