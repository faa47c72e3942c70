package service

import (
	"math"

	"xspread/internal/domain/model"
)

// bestPriceTolerance 判断展示价格是否为最优价的绝对误差
const bestPriceTolerance = 0.000001

// Analyze 计算所有报价中的最优买价(最高 bid)、最优卖价(最低 ask)和价差
// bid 和 ask 独立选择，可能来自不同交易所也可能来自同一个；价差可以为负（倒挂）
// 价格相同时保留先出现的报价（即查询顺序靠前的交易所）
func Analyze(quotes []model.VenueQuote) (model.AggregatedView, error) {
	if len(quotes) == 0 {
		return model.AggregatedView{}, ErrInsufficientData
	}

	bestBid := quotes[0]
	bestAsk := quotes[0]
	byVenue := make(map[model.Venue][]model.VenueQuote)
	var order []model.Venue

	for i, q := range quotes {
		if i > 0 {
			if q.Bid > bestBid.Bid {
				bestBid = q
			}
			if q.Ask < bestAsk.Ask {
				bestAsk = q
			}
		}
		if _, ok := byVenue[q.Venue]; !ok {
			order = append(order, q.Venue)
		}
		byVenue[q.Venue] = append(byVenue[q.Venue], q)
	}

	return model.AggregatedView{
		BestBid:       bestBid,
		BestAsk:       bestAsk,
		SpreadPercent: SpreadPercent(bestBid.Bid, bestAsk.Ask),
		ByVenue:       byVenue,
		VenueOrder:    order,
	}, nil
}

// SpreadPercent (bid - ask) / ask * 100
func SpreadPercent(bid, ask float64) float64 {
	if ask == 0 {
		return 0
	}
	return (bid - ask) / ask * 100
}

// IsBestPrice 仅用于展示高亮，不参与阈值判断
func IsBestPrice(price, best float64) bool {
	return math.Abs(price-best) < bestPriceTolerance
}
