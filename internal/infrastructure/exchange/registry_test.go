package exchange

import (
	"context"
	"testing"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
)

type fakeAdapter struct {
	venue model.Venue
	cfg   config.ExchangeConfig
}

func (f *fakeAdapter) Venue() model.Venue               { return f.venue }
func (f *fakeAdapter) MarketKinds() []model.MarketKind { return []model.MarketKind{model.MarketSpot} }
func (f *fakeAdapter) OrderBook(context.Context, string, model.MarketKind) (*model.OrderBook, error) {
	return nil, ErrEmptyBook
}

func TestBuildUsesRegisteredFactories(t *testing.T) {
	Register(model.VenueGate, func(cfg config.ExchangeConfig) port.VenueAdapter {
		return &fakeAdapter{venue: model.VenueGate, cfg: cfg}
	})
	cfg := &config.Config{Exchanges: map[string]config.ExchangeConfig{
		"gate": {RestURL: "http://gate.local"},
	}}

	adapters, err := Build([]model.Venue{model.VenueGate}, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	fa, ok := adapters[0].(*fakeAdapter)
	if !ok || fa.cfg.RestURL != "http://gate.local" {
		t.Errorf("Unexpected adapter %+v", adapters[0])
	}

	if _, err := Build([]model.Venue{"kraken"}, cfg); err == nil {
		t.Error("Expected error for unregistered venue")
	}
}
