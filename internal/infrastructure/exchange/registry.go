package exchange

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
)

// Factory 根据交易所配置创建适配器
type Factory func(cfg config.ExchangeConfig) port.VenueAdapter

var (
	mu       sync.RWMutex
	registry = make(map[model.Venue]Factory)
)

// Register 由各个交易所包的 init() 调用
func Register(venue model.Venue, factory Factory) {
	if factory == nil {
		log.Warn().Str("venue", string(venue)).Msg("invalid venue adapter factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[venue]; exists {
		log.Warn().Str("venue", string(venue)).Msg("venue adapter factory already registered, overwriting")
	}
	registry[venue] = factory
}

// Get 获取已注册的工厂
func Get(venue model.Venue) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[venue]
	return f, ok
}

// Build 按顺序为 venues 创建适配器
func Build(venues []model.Venue, cfg *config.Config) ([]port.VenueAdapter, error) {
	out := make([]port.VenueAdapter, 0, len(venues))
	for _, v := range venues {
		f, ok := Get(v)
		if !ok {
			return nil, fmt.Errorf("no adapter registered for venue %q", v)
		}
		out = append(out, f(cfg.Exchange(v)))
	}
	return out, nil
}
