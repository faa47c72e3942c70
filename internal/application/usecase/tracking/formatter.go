package tracking

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"

	"xspread/internal/domain/model"
	dsvc "xspread/internal/domain/service"
)

// spreadChangeEpsilon 变化小于该值时不显示箭头
const spreadChangeEpsilon = 0.01

// Formatter 生成发往 Telegram 的 HTML 消息
type Formatter struct {
	links LinkResolver
}

func NewFormatter(links LinkResolver) *Formatter {
	return &Formatter{links: links}
}

func (f *Formatter) TrackingStarted(p model.TrackingParams) string {
	mode := fmt.Sprintf(" (%s-%s)", p.Market1, p.Market2)
	if p.Ultra {
		mode = " (ULTRA MODE)"
	}
	names := make([]string, len(p.Venues))
	for i, v := range p.Venues {
		names[i] = string(v)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Tracking started: %s%s\n", p.Symbol, mode)
	fmt.Fprintf(&sb, "📊 Venues: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&sb, "🎯 Min spread: %s%%\n", trimFloat(p.MinSpreadPercent))
	if p.MaxSpreadPercent > 0 {
		fmt.Fprintf(&sb, "🔝 Max spread: %s%%\n", trimFloat(p.MaxSpreadPercent))
	}
	return sb.String()
}

// Ultra 所有交易所的报价表 + 价差 + 路线；prev 为上一次发送的价差
func (f *Formatter) Ultra(view model.AggregatedView, prev *float64) string {
	symbol := view.BestBid.Symbol
	token := model.BaseToken(symbol)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🪙 %s\n\n", html.EscapeString(token))

	for _, venue := range view.VenueOrder {
		sb.WriteString(string(venue))
		sb.WriteString("\n")

		quotes := append([]model.VenueQuote(nil), view.ByVenue[venue]...)
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].Market == model.MarketSpot && quotes[j].Market != model.MarketSpot
		})
		for _, q := range quotes {
			f.writeQuoteRow(&sb, q, view, token)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Spread: %.2f%%%s\n", view.SpreadPercent, changeSuffix(view.SpreadPercent, prev))
	fmt.Fprintf(&sb, "%s(%s) ➜ %s(%s)",
		view.BestAsk.Venue, view.BestAsk.Market, view.BestBid.Venue, view.BestBid.Market)
	return sb.String()
}

func (f *Formatter) writeQuoteRow(sb *strings.Builder, q model.VenueQuote, view model.AggregatedView, token string) {
	bid := fmt.Sprintf("%.6f", q.Bid)
	if dsvc.IsBestPrice(q.Bid, view.BestBid.Bid) {
		bid = "🔥" + bid
	}
	ask := fmt.Sprintf("%.6f", q.Ask)
	if dsvc.IsBestPrice(q.Ask, view.BestAsk.Ask) {
		ask = "🔥" + ask
	}

	fmt.Fprintf(sb, "%s: %s | %s", q.Market.Short(), bid, ask)
	if q.Funding != nil {
		fmt.Fprintf(sb, " | 💰%.4f%%", *q.Funding)
	}
	if q.TokenStatus != nil {
		fmt.Fprintf(sb, " | %s:%s %s:%s",
			statusLink("D", q.TokenStatus.Deposit, q.Venue.DepositURL(token)), statusMark(q.TokenStatus.Deposit),
			statusLink("W", q.TokenStatus.Withdraw, q.Venue.WithdrawURL(token)), statusMark(q.TokenStatus.Withdraw))
	}
	if link := f.tradeURL(q); link != "" {
		fmt.Fprintf(sb, ` | <a href="%s">Trade</a>`, html.EscapeString(link))
	}
	sb.WriteString("\n")
}

func (f *Formatter) tradeURL(q model.VenueQuote) string {
	if q.Venue.IsAggregator() {
		if f.links == nil {
			return ""
		}
		return f.links.PairURL(q.Venue, q.Symbol)
	}
	return q.Venue.TradeURL(q.Symbol, q.Market)
}

func statusLink(label string, enabled bool, url string) string {
	if !enabled || url == "" || url == "#" {
		return label
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), label)
}

func statusMark(enabled bool) string {
	if enabled {
		return "✅"
	}
	return "🚫"
}

// Spread 普通模式消息
func (f *Formatter) Spread(d *model.SpreadData, prev *float64) string {
	change := 0.0
	if prev != nil {
		change = d.SpreadPercent - *prev
	}
	arrow := "➡️"
	switch {
	case change > 0:
		arrow = "📈"
	case change < 0:
		arrow = "📉"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(%s): %s\n", d.AskVenue, d.AskMarket, trimFloat(d.AskPrice))
	fmt.Fprintf(&sb, "%s(%s): %s\n", d.BidVenue, d.BidMarket, trimFloat(d.BidPrice))
	fmt.Fprintf(&sb, "💰 %.2f%% %s%.2f%%", d.SpreadPercent, arrow, change)
	return sb.String()
}

// Error 跟踪过程中的错误提示
func (f *Formatter) Error(symbol string, err error) string {
	return fmt.Sprintf("Error fetching data for %s: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// List /list 的输出
func (f *Formatter) List(infos []model.TrackingInfo) string {
	if len(infos) == 0 {
		return "No active trackings."
	}
	var sb strings.Builder
	sb.WriteString("📋 Active trackings:\n")
	for _, info := range infos {
		p := info.Params
		mode := fmt.Sprintf("%s-%s", p.Market1, p.Market2)
		if p.Ultra {
			mode = "ultra"
		}
		fmt.Fprintf(&sb, "• %s (%s), min %s%%", p.Symbol, mode, trimFloat(p.MinSpreadPercent))
		if info.LastSpread != nil {
			fmt.Fprintf(&sb, ", last %.2f%%", *info.LastSpread)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Contracts /contracts 的输出
func (f *Formatter) Contracts(token string, contracts map[model.Venue]map[string]string) string {
	if len(contracts) == 0 {
		return fmt.Sprintf("No contract addresses found for %s.", html.EscapeString(token))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 %s contracts\n", html.EscapeString(token))
	for _, venue := range model.AllVenues {
		nets, ok := contracts[venue]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n%s\n", venue.DisplayName())
		names := make([]string, 0, len(nets))
		for n := range nets {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&sb, "%s: <code>%s</code>\n", html.EscapeString(n), html.EscapeString(nets[n]))
		}
	}
	return sb.String()
}

func (f *Formatter) Restarted() string { return "✅ Bot restarted and ready." }

func (f *Formatter) ShuttingDown() string { return "🔄 Bot is restarting for an update..." }

func changeSuffix(current float64, prev *float64) string {
	if prev == nil {
		return ""
	}
	change := current - *prev
	if math.Abs(change) < spreadChangeEpsilon {
		return ""
	}
	arrow := "📈"
	if change < 0 {
		arrow = "📉"
	}
	return fmt.Sprintf(" %s%.2f%%", arrow, math.Abs(change))
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.8f", v), "0"), ".")
}
