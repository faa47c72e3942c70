package model

import "time"

// VenueQuote 某个交易所某个市场的一次最优买卖报价，每轮轮询重新生成，不做修改
type VenueQuote struct {
	Venue       Venue        `json:"venue"`
	Market      MarketKind   `json:"market"`
	Bid         float64      `json:"bid"`
	Ask         float64      `json:"ask"`
	Symbol      string       `json:"symbol"`
	Funding     *float64     `json:"funding,omitempty"`      // 资金费率（百分比），仅永续
	TokenStatus *TokenStatus `json:"token_status,omitempty"` // 充提状态，交易所不支持时为空
}

// AggregatedView 一轮轮询的聚合结果
type AggregatedView struct {
	BestBid       VenueQuote
	BestAsk       VenueQuote
	SpreadPercent float64
	ByVenue       map[Venue][]VenueQuote
	VenueOrder    []Venue // 按查询顺序排列的交易所
}

// SpreadData 普通模式（两交易所）价差结果
type SpreadData struct {
	Symbol        string     `json:"symbol"`
	AskVenue      Venue      `json:"ask_venue"` // 买入（最低卖价）交易所
	BidVenue      Venue      `json:"bid_venue"` // 卖出（最高买价）交易所
	AskMarket     MarketKind `json:"ask_market"`
	BidMarket     MarketKind `json:"bid_market"`
	AskPrice      float64    `json:"ask_price"`
	BidPrice      float64    `json:"bid_price"`
	SpreadPercent float64    `json:"spread"`
}

// Signal 已发送的价差通知，用于落库审计
type Signal struct {
	ID            string    `json:"id"`
	ChatID        int64     `json:"chat_id"`
	TrackingKey   string    `json:"tracking_key"`
	Symbol        string    `json:"symbol"`
	SpreadPercent float64   `json:"spread"`
	BuyVenue      Venue     `json:"buy_venue"`
	SellVenue     Venue     `json:"sell_venue"`
	Message       string    `json:"message"`
	Time          time.Time `json:"ts"`
}
