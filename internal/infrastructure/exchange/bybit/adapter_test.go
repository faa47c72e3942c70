package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
)

func TestAdapterOrderBookCategories(t *testing.T) {
	var categories []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v5/market/orderbook":
			categories = append(categories, r.URL.Query().Get("category"))
			w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"s":"BTCUSDT","b":[["65000.5","0.1"]],"a":[["65001","0.2"]]}}`))
		case "/v5/market/funding/history":
			w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[{"symbol":"BTCUSDT","fundingRate":"-0.0002"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := New(config.ExchangeConfig{RestURL: srv.URL})
	for _, kind := range a.MarketKinds() {
		ob, err := a.OrderBook(context.Background(), "BTC/USDT", kind)
		if err != nil {
			t.Fatalf("OrderBook(%s) failed: %v", kind, err)
		}
		if ob.Bids[0].Price != 65000.5 || ob.Asks[0].Price != 65001 {
			t.Errorf("Unexpected book %+v", ob)
		}
	}
	if len(categories) != 2 || categories[0] != "spot" || categories[1] != "linear" {
		t.Errorf("Unexpected categories %v", categories)
	}

	rate, err := a.FundingRate(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("FundingRate failed: %v", err)
	}
	if rate != -0.02 {
		t.Errorf("Expected -0.02, got %v", rate)
	}
}

func TestAdapterRetCodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":10001,"retMsg":"params error: symbol invalid","result":{}}`))
	}))
	defer srv.Close()

	a := New(config.ExchangeConfig{RestURL: srv.URL})
	if _, err := a.OrderBook(context.Background(), "NOPE/USDT", model.MarketSpot); err == nil {
		t.Error("Expected error on non-zero retCode")
	}
}
