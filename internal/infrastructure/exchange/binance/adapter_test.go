package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/depth", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"lastUpdateId":1,"bids":[["100.10","2.5"],["100.00","1"]],"asks":[["100.20","0.7"]]}`))
	})
	mux.HandleFunc("/fapi/v1/depth", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":[["100.30","1"]],"asks":[]}`))
	})
	mux.HandleFunc("/fapi/v1/premiumIndex", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","lastFundingRate":"0.00010000"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAdapterSpotOrderBook(t *testing.T) {
	srv := newTestServer(t)
	a := New(config.ExchangeConfig{RestURL: srv.URL, FuturesURL: srv.URL})

	ob, err := a.OrderBook(context.Background(), "BTC/USDT", model.MarketSpot)
	if err != nil {
		t.Fatalf("OrderBook failed: %v", err)
	}
	if ob.Bids[0].Price != 100.10 || ob.Asks[0].Price != 100.20 || len(ob.Bids) != 2 {
		t.Errorf("Unexpected book %+v", ob)
	}

	if _, err := a.OrderBook(context.Background(), "NOPE/USDT", model.MarketSpot); err == nil {
		t.Error("Expected error for unknown symbol")
	}
}

func TestAdapterEmptyFuturesBook(t *testing.T) {
	srv := newTestServer(t)
	a := New(config.ExchangeConfig{RestURL: srv.URL, FuturesURL: srv.URL})

	if _, err := a.OrderBook(context.Background(), "BTC/USDT", model.MarketPerpetual); err == nil {
		t.Error("Expected error for one-sided book")
	}
}

func TestAdapterFundingRate(t *testing.T) {
	srv := newTestServer(t)
	a := New(config.ExchangeConfig{RestURL: srv.URL, FuturesURL: srv.URL})

	rate, err := a.FundingRate(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("FundingRate failed: %v", err)
	}
	if rate != 0.01 {
		t.Errorf("Expected 0.01%%, got %v", rate)
	}
}

func TestBookTickerStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/!bookTicker" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"e":"bookTicker","s":"ETHUSDT","b":"2000.5","B":"3","a":"2000.7","A":"4"}`))
		// 保持连接直到客户端关闭
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	a := New(config.ExchangeConfig{RestURL: "http://127.0.0.1:1", FuturesURL: "http://127.0.0.1:1", WsURL: wsURL, WsEnabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := a.stream.Book("ETHUSDT"); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	ob, err := a.OrderBook(context.Background(), "ETH/USDT", model.MarketPerpetual)
	if err != nil {
		t.Fatalf("OrderBook from stream failed: %v", err)
	}
	if ob.Bids[0].Price != 2000.5 || ob.Asks[0].Price != 2000.7 || ob.Symbol != "ETH/USDT" {
		t.Errorf("Unexpected stream book %+v", ob)
	}
}

func TestBookTickerExpires(t *testing.T) {
	s := NewBookTickerStream("wss://example.invalid")
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }
	s.handle([]byte(`{"s":"BTCUSDT","b":"1","B":"1","a":"2","A":"1"}`))

	if _, ok := s.Book("BTCUSDT"); !ok {
		t.Fatal("Expected fresh book")
	}
	now = now.Add(bookTickerMaxAge + time.Second)
	if _, ok := s.Book("BTCUSDT"); ok {
		t.Error("Expected stale book to be ignored")
	}
}
