package aggregator

import (
	"sort"

	"marketmaker-go/internal/market"
)

// Compute derives a snapshot from already-validated quotes. Bids and asks are ranked
// independently, so the medians need not come from the same source.
func Compute(quotes []market.SourceQuote) market.Snapshot {
	if len(quotes) == 0 {
		return market.Snapshot{}
	}
	bids := make([]float64, len(quotes))
	asks := make([]float64, len(quotes))
	mids := make([]float64, len(quotes))
	snap := market.Snapshot{
		BestBid:     quotes[0].Bid,
		BestAsk:     quotes[0].Ask,
		SourceCount: len(quotes),
	}
	for i, q := range quotes {
		bids[i] = q.Bid
		asks[i] = q.Ask
		mids[i] = q.Mid()
		if q.Bid > snap.BestBid {
			snap.BestBid = q.Bid
		}
		if q.Ask < snap.BestAsk {
			snap.BestAsk = q.Ask
		}
		if q.ObservedAt.After(snap.AsOf) {
			snap.AsOf = q.ObservedAt
		}
	}
	snap.MedianBid = median(bids)
	snap.MedianAsk = median(asks)
	snap.MedianMid = median(mids)
	return snap
}

// median sorts values in place; even counts average the two middle elements.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
