package bitget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/v2/spot/market/orderbook":
			w.Write([]byte(`{"code":"00000","msg":"success","data":{"bids":[["2.51","10"]],"asks":[["2.52","12"]]}}`))
		case "/api/v2/mix/market/merge-depth":
			if q.Get("productType") != "usdt-futures" {
				w.Write([]byte(`{"code":"40019","msg":"Parameter productType cannot be empty"}`))
				return
			}
			w.Write([]byte(`{"code":"00000","msg":"success","data":{"bids":[[2.5,100]],"asks":[[2.53,90]]}}`))
		case "/api/v2/mix/market/current-fund-rate":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[{"symbol":"ARBUSDT","fundingRate":"0.000125"}]}`))
		case "/api/v2/spot/public/coins":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[{"coin":"ARB","chains":[
				{"chain":"ArbitrumOne","rechargeable":"false","withdrawable":"true","contractAddress":"0x912ce59144191c1204e64559fe8253a0e49e6548"},
				{"chain":"ERC20","rechargeable":"false","withdrawable":"false","contractAddress":"0xb50721bcf8d664c30412cfbc6cf7a15145234ad1"}
			]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestAdapterBooksAndFunding(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := New(config.ExchangeConfig{RestURL: srv.URL})

	spot, err := a.OrderBook(context.Background(), "ARB/USDT", model.MarketSpot)
	if err != nil {
		t.Fatalf("spot book failed: %v", err)
	}
	if spot.Bids[0].Price != 2.51 {
		t.Errorf("Unexpected spot bid %v", spot.Bids[0].Price)
	}

	perp, err := a.OrderBook(context.Background(), "ARB/USDT", model.MarketPerpetual)
	if err != nil {
		t.Fatalf("futures book failed: %v", err)
	}
	if perp.Asks[0].Price != 2.53 {
		t.Errorf("Unexpected futures ask %v", perp.Asks[0].Price)
	}

	rate, err := a.FundingRate(context.Background(), "ARB/USDT")
	if err != nil {
		t.Fatalf("FundingRate failed: %v", err)
	}
	if rate != 0.0125 {
		t.Errorf("Expected 0.0125, got %v", rate)
	}
}

func TestAdapterCoinInfo(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := New(config.ExchangeConfig{RestURL: srv.URL})

	st, err := a.TokenStatus(context.Background(), "ARB")
	if err != nil {
		t.Fatalf("TokenStatus failed: %v", err)
	}
	if st.Deposit || !st.Withdraw {
		t.Errorf("Unexpected status %+v", st)
	}

	nets, err := a.Networks(context.Background(), "ARB")
	if err != nil || len(nets) != 2 {
		t.Fatalf("Expected 2 networks, got %v, %v", nets, err)
	}

	addr, err := a.TokenContract(context.Background(), "ARB", "erc20")
	if err != nil {
		t.Fatalf("TokenContract failed: %v", err)
	}
	if addr != "0xb50721bcf8d664c30412cfbc6cf7a15145234ad1" {
		t.Errorf("Unexpected address %q", addr)
	}
}
