package paper

import "marketmaker-go/internal/market"

// MarkToMarket values a fill against the best opposing price seen at decision time:
// a buy is marked at the best bid we could sell into, a sell at the best ask we could buy back from.
func MarkToMarket(side market.Side, price, reference, qty float64) float64 {
	if side == market.Sell {
		return (price - reference) * qty
	}
	return (reference - price) * qty
}
