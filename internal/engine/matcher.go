package engine

import (
	"sort"

	"fxbot/types"
)

// FillPolicy decides the intra-candle order in which executable orders fill.
type FillPolicy interface {
	Sequence(orders []*types.Order, candle types.Candle) []*types.Order
}

// OHLCPathPolicy approximates the unknown intrabar path from OHLC alone: a
// bearish candle is assumed to trade up to its high before falling to its
// low, a bullish (or flat) candle the reverse. Orders priced at the open fill
// first. This is a modelling assumption, not tick data. Equal prices keep
// submission order.
type OHLCPathPolicy struct{}

func (OHLCPathPolicy) Sequence(orders []*types.Order, candle types.Candle) []*types.Order {
	var atOpen, aboveOpen, belowOpen []*types.Order
	for _, o := range orders {
		switch o.Price.Cmp(candle.Open) {
		case 0:
			atOpen = append(atOpen, o)
		case 1:
			aboveOpen = append(aboveOpen, o)
		default:
			belowOpen = append(belowOpen, o)
		}
	}

	sort.SliceStable(aboveOpen, func(i, j int) bool { return aboveOpen[i].Price.LessThan(aboveOpen[j].Price) })
	sort.SliceStable(belowOpen, func(i, j int) bool { return belowOpen[i].Price.GreaterThan(belowOpen[j].Price) })

	out := make([]*types.Order, 0, len(orders))
	out = append(out, atOpen...)
	if candle.IsBearish() {
		out = append(out, aboveOpen...)
		out = append(out, belowOpen...)
	} else {
		out = append(out, belowOpen...)
		out = append(out, aboveOpen...)
	}
	return out
}

// Executable returns the active orders whose price lies within the candle's range.
func Executable(orders []*types.Order, candle types.Candle) []*types.Order {
	var out []*types.Order
	for _, o := range orders {
		if o.IsActive() && candle.Includes(o.Price) {
			out = append(out, o)
		}
	}
	return out
}

// OrderFillSequence orders the executable subset of orders with the default policy.
func OrderFillSequence(orders []*types.Order, candle types.Candle) []*types.Order {
	return OHLCPathPolicy{}.Sequence(Executable(orders, candle), candle)
}
