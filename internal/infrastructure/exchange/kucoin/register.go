package kucoin

import (
	"xspread/internal/application/port"
	"xspread/internal/domain/model"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(model.VenueKuCoin, func(cfg config.ExchangeConfig) port.VenueAdapter {
		return New(cfg)
	})
}
