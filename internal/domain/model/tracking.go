package model

import (
	"errors"
	"fmt"
	"strings"
)

// TrackingParams 一个跟踪任务的配置
type TrackingParams struct {
	ChatID           int64
	Symbol           string // BASE/QUOTE
	Market1          MarketKind
	Market2          MarketKind
	Venues           []Venue
	MinSpreadPercent float64
	MaxSpreadPercent float64 // 0 表示不限制，只用于展示
	Ultra            bool
}

// Key 跟踪任务的键：symbol_kind1_kind2[_ultra]
// 只由交易对、市场类型和模式决定，不同交易所集合/阈值会映射到同一个键
func (p TrackingParams) Key() string {
	return TrackingKey(p.Symbol, p.Market1, p.Market2, p.Ultra)
}

// TrackingKey 生成跟踪键
func TrackingKey(symbol string, m1, m2 MarketKind, ultra bool) string {
	key := fmt.Sprintf("%s_%s_%s", symbol, m1, m2)
	if ultra {
		key += "_ultra"
	}
	return key
}

// Normalize 填充默认值并统一格式
func (p *TrackingParams) Normalize() {
	p.Symbol = NormalizeSymbol(p.Symbol)
	if p.Market1 == "" {
		p.Market1 = MarketSpot
	}
	if p.Market2 == "" {
		p.Market2 = MarketSpot
	}
	if len(p.Venues) == 0 {
		p.Venues = append([]Venue(nil), AllVenues...)
	}
}

// Validate 校验参数
func (p TrackingParams) Validate() error {
	if p.ChatID == 0 {
		return errors.New("chat id is empty")
	}
	if strings.TrimSpace(p.Symbol) == "" || !strings.Contains(p.Symbol, "/") {
		return fmt.Errorf("invalid symbol %q", p.Symbol)
	}
	if len(p.Venues) == 0 {
		return errors.New("no venues selected")
	}
	for _, v := range p.Venues {
		if !v.Valid() {
			return fmt.Errorf("unknown venue %q", v)
		}
	}
	if p.MinSpreadPercent < 0 {
		return fmt.Errorf("min spread must be >= 0, got %v", p.MinSpreadPercent)
	}
	if p.MaxSpreadPercent > 0 && p.MaxSpreadPercent < p.MinSpreadPercent {
		return fmt.Errorf("max spread %v below min spread %v", p.MaxSpreadPercent, p.MinSpreadPercent)
	}
	return nil
}

// TrackingInfo 对外展示的跟踪任务信息
type TrackingInfo struct {
	ID         string
	Key        string
	Params     TrackingParams
	LastSpread *float64 // 最近一次发送通知时的价差
}
