package model

import "testing"

func TestParseVenues(t *testing.T) {
	all, err := ParseVenues("all")
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if len(all) != len(AllVenues) {
		t.Errorf("expected %d venues, got %d", len(AllVenues), len(all))
	}

	cex, err := ParseVenues("cex")
	if err != nil {
		t.Fatalf("parse cex: %v", err)
	}
	for _, v := range cex {
		if v.IsAggregator() {
			t.Errorf("cex list must not contain aggregator %s", v)
		}
	}

	list, err := ParseVenues("MEXC, gate,mexc")
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(list) != 2 || list[0] != VenueMEXC || list[1] != VenueGate {
		t.Errorf("unexpected venues %v", list)
	}

	if _, err := ParseVenues("mexc,kraken"); err == nil {
		t.Error("expected error for unknown venue")
	}
}

func TestVenueLinks(t *testing.T) {
	if got := VenueMEXC.TradeURL("BTC/USDT", MarketSpot); got != "https://www.mexc.com/exchange/BTC_USDT" {
		t.Errorf("mexc spot url: %s", got)
	}
	if got := VenueBitget.TradeURL("BTC/USDT", MarketPerpetual); got != "https://www.bitget.com/futures/usdt/BTCUSDT" {
		t.Errorf("bitget perp url: %s", got)
	}
	if got := VenueKuCoin.TradeURL("BTC/USDT", MarketSpot); got != "https://www.kucoin.com/trade/BTC-USDT" {
		t.Errorf("kucoin spot url: %s", got)
	}
	if got := VenueKuCoin.TradeURL("BTC/USDT", MarketPerpetual); got != "https://www.kucoin.com/futures/trade/XBTUSDTM" {
		t.Errorf("kucoin perp url: %s", got)
	}
	if got := VenueDexScreener.TradeURL("BTC/USDT", MarketSpot); got != "" {
		t.Errorf("aggregator should not have a static trade url, got %s", got)
	}
	if got := VenueGate.DepositURL("eth"); got != "https://www.gate.io/myaccount/deposit/ETH" {
		t.Errorf("gate deposit url: %s", got)
	}
	if got := VenueDexScreener.WithdrawURL("ETH"); got != "#" {
		t.Errorf("aggregator withdraw url: %s", got)
	}
}

func TestSymbolHelpers(t *testing.T) {
	cases := map[string]string{
		"btc":        "BTC/USDT",
		"eth_usdt":   "ETH/USDT",
		"SOL-USDC":   "SOL/USDC",
		" pepe/usdt": "PEPE/USDT",
		"solusdt":    "SOL/USDT",
		"USDT":       "USDT/USDT",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
	if BaseToken("ETH/USDT") != "ETH" || QuoteToken("ETH/USDC") != "USDC" {
		t.Error("base/quote token split failed")
	}
}
