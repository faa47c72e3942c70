package service

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"xspread/internal/domain/model"
)

type marketKey struct {
	symbol string
	venue  model.Venue
	kind   model.MarketKind
}

func (k marketKey) String() string {
	return k.symbol + "|" + string(k.venue) + "|" + string(k.kind)
}

// MarketAvailability 市场可用性缓存：symbol -> venue -> kind 是否可用
// 首次探测后永久有效，不可用的组合不会再次探测
type MarketAvailability struct {
	mu    sync.RWMutex
	known map[marketKey]bool
	group singleflight.Group
}

func NewMarketAvailability() *MarketAvailability {
	return &MarketAvailability{known: make(map[marketKey]bool)}
}

// Lookup 查询缓存，found=false 表示尚未探测
func (c *MarketAvailability) Lookup(symbol string, venue model.Venue, kind model.MarketKind) (available, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	available, found = c.known[marketKey{symbol, venue, kind}]
	return
}

// Resolve 返回缓存结果；未命中时执行 check，check 返回 nil 视为可用
// 同一个键的并发探测合并为一次远程调用；调用方 ctx 被取消导致的失败不写入缓存
// 合并进来的调用方如果遇到发起方被取消（结果未缓存），在自身 ctx 仍有效时重新检查
func (c *MarketAvailability) Resolve(ctx context.Context, symbol string, venue model.Venue, kind model.MarketKind, check func(context.Context) error) bool {
	key := marketKey{symbol, venue, kind}
	for {
		if available, found := c.Lookup(symbol, venue, kind); found {
			return available
		}
		if ctx.Err() != nil {
			return false
		}

		c.group.Do(key.String(), func() (interface{}, error) {
			if _, found := c.Lookup(symbol, venue, kind); found {
				return nil, nil
			}
			err := check(ctx)
			if err != nil && ctx.Err() != nil {
				return nil, nil
			}
			c.mark(key, err == nil)
			return nil, nil
		})
	}
}

// mark 只在缺失时写入，返回最终生效的值
func (c *MarketAvailability) mark(key marketKey, available bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.known[key]; ok {
		return existing
	}
	c.known[key] = available
	return available
}

// TokenAvailability 充提均关闭的币种缓存：venue -> base token 集合，永久有效
type TokenAvailability struct {
	mu       sync.RWMutex
	disabled map[model.Venue]map[string]struct{}
}

func NewTokenAvailability() *TokenAvailability {
	return &TokenAvailability{disabled: make(map[model.Venue]map[string]struct{})}
}

// IsDisabled 是否已知充提均关闭
func (c *TokenAvailability) IsDisabled(venue model.Venue, token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.disabled[venue][token]
	return ok
}

// MarkDisabled 幂等标记
func (c *TokenAvailability) MarkDisabled(venue model.Venue, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.disabled[venue]
	if !ok {
		set = make(map[string]struct{})
		c.disabled[venue] = set
	}
	set[token] = struct{}{}
}
