package svc

// 交易所包在 init() 中向 exchange 注册表登记
import (
	_ "xspread/internal/infrastructure/exchange/binance"
	_ "xspread/internal/infrastructure/exchange/bitget"
	_ "xspread/internal/infrastructure/exchange/bybit"
	_ "xspread/internal/infrastructure/exchange/dexscreener"
	_ "xspread/internal/infrastructure/exchange/gate"
	_ "xspread/internal/infrastructure/exchange/kucoin"
	_ "xspread/internal/infrastructure/exchange/mexc"
)
