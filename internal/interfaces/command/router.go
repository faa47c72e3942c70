package command

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"xspread/internal/application/usecase/tracking"
	"xspread/internal/domain/model"
)

const defaultMinSpread = 1.0

// TrackingService 命令需要的跟踪管理能力
type TrackingService interface {
	StartTracking(ctx context.Context, params model.TrackingParams) (model.TrackingInfo, error)
	StopSymbol(chatID int64, symbol string) int
	StopAllTracking(chatID int64) int
	ListTrackings(chatID int64) []model.TrackingInfo
}

// ContractFinder /contracts 使用
type ContractFinder interface {
	GetTokenContracts(ctx context.Context, token string) (map[model.Venue]map[string]string, error)
}

// Command Bot 菜单中的一项
type Command struct {
	Name        string
	Description string
}

// Commands 菜单，顺序即展示顺序
var Commands = []Command{
	{"start", "Start the bot"},
	{"help", "Show help"},
	{"track", "Start tracking a pair"},
	{"stop", "Stop tracking a pair"},
	{"stopall", "Stop all trackings"},
	{"list", "List tracked pairs"},
	{"contracts", "Show token contract addresses"},
}

// Router 把一行命令文本分发到对应处理函数，返回要回复的 HTML 文本（空串表示不回复）
type Router struct {
	tracking  TrackingService
	contracts ContractFinder
	format    *tracking.Formatter
}

func NewRouter(ts TrackingService, cf ContractFinder, format *tracking.Formatter) *Router {
	if format == nil {
		format = tracking.NewFormatter(nil)
	}
	return &Router{tracking: ts, contracts: cf, format: format}
}

// Handle 处理一条消息；非命令文本被忽略
func (r *Router) Handle(ctx context.Context, chatID int64, text string) string {
	name, args, ok := parseCommand(text)
	if !ok {
		return ""
	}
	log.Debug().Int64("chat", chatID).Str("command", name).Strs("args", args).Msg("command received")

	switch name {
	case "start":
		return startText
	case "help":
		return helpText
	case "track":
		return r.track(ctx, chatID, args)
	case "stop":
		return r.stop(chatID, args)
	case "stopall":
		if n := r.tracking.StopAllTracking(chatID); n == 0 {
			return "You have no active trackings."
		}
		return "✅ All trackings stopped."
	case "list":
		return r.format.List(r.tracking.ListTrackings(chatID))
	case "contracts":
		return r.contractsFor(ctx, args)
	default:
		return "Unknown command. Use /help to see the list of commands."
	}
}

func (r *Router) track(ctx context.Context, chatID int64, args []string) string {
	params, err := parseTrackArgs(args)
	if err != nil {
		return html.EscapeString(err.Error()) + "\n\n" + trackUsage
	}
	params.ChatID = chatID

	info, err := r.tracking.StartTracking(ctx, params)
	if err != nil {
		log.Error().Int64("chat", chatID).Str("symbol", params.Symbol).Err(err).Msg("start tracking failed")
		return "Error starting tracking: " + html.EscapeString(err.Error())
	}
	log.Info().Int64("chat", chatID).Str("key", info.Key).Str("tracker", info.ID).Msg("tracking started")
	// 启动消息由 Tracker 自己发送
	return ""
}

func (r *Router) stop(chatID int64, args []string) string {
	if len(args) == 0 {
		return "Please specify a symbol.\nExample: /stop BTC/USDT"
	}
	symbol := model.NormalizeSymbol(args[0])
	if r.tracking.StopSymbol(chatID, symbol) == 0 {
		return fmt.Sprintf("No tracking found for %s.", html.EscapeString(symbol))
	}
	return fmt.Sprintf("✅ Tracking %s stopped.", html.EscapeString(symbol))
}

func (r *Router) contractsFor(ctx context.Context, args []string) string {
	if len(args) == 0 || r.contracts == nil {
		return "Please specify a token.\nExample: /contracts USDT"
	}
	token := strings.ToUpper(args[0])
	contracts, err := r.contracts.GetTokenContracts(ctx, token)
	if err != nil {
		return "Error fetching contracts: " + html.EscapeString(err.Error())
	}
	return r.format.Contracts(token, contracts)
}

// parseCommand "/track@MyBot BTC ultra" -> ("track", ["BTC", "ultra"])
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

var errMissingSymbol = errors.New("symbol is required")

// parseTrackArgs /track SYMBOL [ultra|kind1-kind2] [all|cex|v1,v2] [min] [max]
// 省略模式时使用 ultra
func parseTrackArgs(args []string) (model.TrackingParams, error) {
	if len(args) == 0 {
		return model.TrackingParams{}, errMissingSymbol
	}
	p := model.TrackingParams{
		Symbol:           model.NormalizeSymbol(args[0]),
		Ultra:            true,
		MinSpreadPercent: defaultMinSpread,
	}
	rest := args[1:]

	if len(rest) > 0 {
		if mode, ok, err := parseMode(rest[0]); ok {
			if err != nil {
				return p, err
			}
			p.Ultra = mode.ultra
			p.Market1, p.Market2 = mode.kind1, mode.kind2
			rest = rest[1:]
		}
	}

	if len(rest) > 0 && !isNumber(rest[0]) {
		venues, err := parseVenues(rest[0])
		if err != nil {
			return p, err
		}
		p.Venues = venues
		rest = rest[1:]
	}

	if len(rest) > 0 {
		v, err := strconv.ParseFloat(rest[0], 64)
		if err != nil || v <= 0 {
			return p, fmt.Errorf("invalid min spread %q: must be a positive number", rest[0])
		}
		p.MinSpreadPercent = v
		rest = rest[1:]
	}
	if len(rest) > 0 {
		v, err := strconv.ParseFloat(rest[0], 64)
		if err != nil || v < p.MinSpreadPercent {
			return p, fmt.Errorf("invalid max spread %q: must be a number >= min spread", rest[0])
		}
		p.MaxSpreadPercent = v
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return p, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	return p, nil
}

type trackMode struct {
	ultra        bool
	kind1, kind2 model.MarketKind
}

// parseMode 返回 ok=false 表示该参数不是模式
func parseMode(s string) (trackMode, bool, error) {
	s = strings.ToLower(s)
	if isNumber(s) {
		return trackMode{}, false, nil
	}
	if s == "ultra" {
		return trackMode{ultra: true}, true, nil
	}
	a, b, found := strings.Cut(s, "-")
	if !found {
		return trackMode{}, false, nil
	}
	k1, err1 := model.ParseMarketKind(a)
	k2, err2 := model.ParseMarketKind(b)
	if err1 != nil || err2 != nil {
		return trackMode{}, true, fmt.Errorf("invalid market types %q: use spot-spot, spot-futures or futures-futures", s)
	}
	return trackMode{kind1: k1, kind2: k2}, true, nil
}

func parseVenues(s string) ([]model.Venue, error) {
	switch strings.ToLower(s) {
	case "all":
		return append([]model.Venue(nil), model.AllVenues...), nil
	case "cex":
		var out []model.Venue
		for _, v := range model.AllVenues {
			if !v.IsAggregator() {
				out = append(out, v)
			}
		}
		return out, nil
	}

	var out []model.Venue
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		v, err := model.ParseVenue(name)
		if err != nil {
			return nil, fmt.Errorf("%w; valid venues: %s or all, cex", err, venueNames())
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("no venues specified")
	}
	return out, nil
}

func venueNames() string {
	names := make([]string, len(model.AllVenues))
	for i, v := range model.AllVenues {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
