package dexscreener

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
)

const searchBody = `{"pairs":[
	{"chainId":"solana","dexId":"raydium","url":"https://dexscreener.com/solana/small","baseToken":{"address":"So1","symbol":"WIF"},"priceUsd":"2.00","volume":{"h24":500}},
	{"chainId":"solana","dexId":"orca","url":"https://dexscreener.com/solana/mid","baseToken":{"address":"So2","symbol":"WIF"},"priceUsd":"2.10","volume":{"h24":50000}},
	{"chainId":"base","dexId":"aerodrome","url":"https://dexscreener.com/base/top","baseToken":{"address":"0xbase","symbol":"WIF"},"priceUsd":"2.20","volume":{"h24":90000.5}},
	{"chainId":"base","dexId":"uniswap","url":"https://dexscreener.com/base/other","baseToken":{"address":"0xother","symbol":"DOGWIF"},"priceUsd":"9","volume":{"h24":100000}}
]}`

func newTestAdapter(t *testing.T, body string) (*Adapter, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/dex/search" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	return New(config.ExchangeConfig{RestURL: srv.URL}), srv.Close
}

func TestOrderBookPicksHighestVolume(t *testing.T) {
	a, done := newTestAdapter(t, searchBody)
	defer done()

	if got := a.PairURL("WIF/USDT"); got != "" {
		t.Errorf("Expected no pair url before first quote, got %q", got)
	}

	ob, err := a.OrderBook(context.Background(), "WIF/USDT", model.MarketSpot)
	if err != nil {
		t.Fatalf("OrderBook failed: %v", err)
	}
	// DOGWIF 成交额最大
	if math.Abs(ob.Bids[0].Price-9*0.999) > 1e-9 || math.Abs(ob.Asks[0].Price-9*1.001) > 1e-9 {
		t.Errorf("Unexpected synthetic book %+v", ob)
	}
	if got := a.PairURL("WIF/USDT"); got != "https://dexscreener.com/base/other" {
		t.Errorf("Unexpected pair url %q", got)
	}

	if _, err := a.OrderBook(context.Background(), "WIF/USDT", model.MarketPerpetual); err == nil {
		t.Error("Expected error for perpetual market")
	}
}

func TestOrderBookNoLiquidPairs(t *testing.T) {
	a, done := newTestAdapter(t, `{"pairs":[{"chainId":"bsc","priceUsd":"1","volume":{"h24":10}}]}`)
	defer done()

	if _, err := a.OrderBook(context.Background(), "ABC/USDT", model.MarketSpot); err == nil {
		t.Error("Expected error when no pair has enough volume")
	}
}

func TestNetworksAndContracts(t *testing.T) {
	a, done := newTestAdapter(t, searchBody)
	defer done()

	nets, err := a.Networks(context.Background(), "WIF")
	if err != nil {
		t.Fatalf("Networks failed: %v", err)
	}
	if len(nets) != 2 || nets[0] != "BASE" || nets[1] != "SOLANA" {
		t.Errorf("Expected [BASE SOLANA], got %v", nets)
	}

	addr, err := a.TokenContract(context.Background(), "WIF", "BASE")
	if err != nil {
		t.Fatalf("TokenContract failed: %v", err)
	}
	if addr != "0xbase" {
		t.Errorf("Expected 0xbase, got %q", addr)
	}

	addr, _ = a.TokenContract(context.Background(), "WIF", "ETHEREUM")
	if addr != "" {
		t.Errorf("Expected empty address, got %q", addr)
	}
}
