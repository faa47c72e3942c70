package exchange

import "testing"

func TestSymbolConverter(t *testing.T) {
	tests := []struct {
		sep    string
		common string
		venue  string
	}{
		{"", "BTC/USDT", "BTCUSDT"},
		{"_", "ETH/USDT", "ETH_USDT"},
		{"-", "SOL/USDC", "SOL-USDC"},
	}
	for _, tt := range tests {
		c := NewSymbolConverter(tt.sep)
		if got := c.ToVenue(tt.common); got != tt.venue {
			t.Errorf("ToVenue(%q) = %q, want %q", tt.common, got, tt.venue)
		}
		if got := c.ToCommon(tt.venue, "USDT"); tt.sep != "" && got != tt.common {
			t.Errorf("ToCommon(%q) = %q, want %q", tt.venue, got, tt.common)
		}
	}

	c := NewSymbolConverter("")
	if got := c.ToCommon("btcusdt", "USDT"); got != "BTC/USDT" {
		t.Errorf("Expected BTC/USDT, got %q", got)
	}
	if got := c.ToCommon("USDT", "USDT"); got != "USDT" {
		t.Errorf("Expected USDT unchanged, got %q", got)
	}
}
