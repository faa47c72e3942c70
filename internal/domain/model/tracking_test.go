package model

import "testing"

func TestTrackingKey(t *testing.T) {
	p := TrackingParams{Symbol: "BTC/USDT", Market1: MarketSpot, Market2: MarketPerpetual}
	if got := p.Key(); got != "BTC/USDT_spot_futures" {
		t.Errorf("unexpected key %s", got)
	}
	p.Ultra = true
	if got := p.Key(); got != "BTC/USDT_spot_futures_ultra" {
		t.Errorf("unexpected ultra key %s", got)
	}

	// 交易所集合和阈值不影响键
	q := p
	q.Venues = []Venue{VenueGate}
	q.MinSpreadPercent = 5
	if q.Key() != p.Key() {
		t.Error("key should only depend on symbol, markets and mode")
	}
}

func TestTrackingParamsValidate(t *testing.T) {
	p := TrackingParams{ChatID: 42, Symbol: "eth"}
	p.Normalize()
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}
	if p.Symbol != "ETH/USDT" || p.Market1 != MarketSpot || len(p.Venues) != len(AllVenues) {
		t.Errorf("defaults not applied: %+v", p)
	}

	bad := p
	bad.ChatID = 0
	if bad.Validate() == nil {
		t.Error("expected error for empty chat id")
	}

	bad = p
	bad.MinSpreadPercent = 3
	bad.MaxSpreadPercent = 1
	if bad.Validate() == nil {
		t.Error("expected error for max < min")
	}
}
