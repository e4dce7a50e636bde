// Package strategy turns an aggregated snapshot into a quote and an execution probability.
package strategy

import "marketmaker-go/internal/market"

const (
	// BasicProbability is the fixed fill chance of the basic model.
	BasicProbability = 0.70
	// MinProbability applies to quotes no better than the median.
	MinProbability = 0.20
	// MaxProbability applies to quotes at or through the best observed price.
	MaxProbability = 0.90
)

// QuotePrice quotes at the median bid when buying and the median ask when selling.
func QuotePrice(snap market.Snapshot, side market.Side) float64 {
	return snap.Median(side)
}

// BasicModel fills with BasicProbability regardless of price.
type BasicModel struct{}

// Name returns the identifier for logging.
func (BasicModel) Name() string { return string(Basic) }

// Quote prices at the median and applies the fixed probability.
func (BasicModel) Quote(snap market.Snapshot, side market.Side) Decision {
	return Decision{Price: QuotePrice(snap, side), Probability: BasicProbability}
}

// AdvancedModel interpolates between MinProbability and MaxProbability.
type AdvancedModel struct{}

// Name returns the identifier for logging.
func (AdvancedModel) Name() string { return string(Advanced) }

// Quote prices at the median and scores it against the median and best prices of the same side.
func (AdvancedModel) Quote(snap market.Snapshot, side market.Side) Decision {
	price := QuotePrice(snap, side)
	return Decision{
		Price:       price,
		Probability: Probability(side, price, snap.Median(side), snap.Best(side)),
	}
}

// Probability scores quoted against the side's median and best prices. Quotes at or
// through best get MaxProbability, quotes no better than median get MinProbability, and
// anything in between is interpolated; a zero-width median/best range counts as best.
func Probability(side market.Side, quoted, median, best float64) float64 {
	var t float64
	switch side {
	case market.Sell:
		if quoted <= best {
			return MaxProbability
		}
		if quoted >= median {
			return MinProbability
		}
		if best == median {
			return MaxProbability
		}
		t = (median - quoted) / (median - best)
	default:
		if quoted >= best {
			return MaxProbability
		}
		if quoted <= median {
			return MinProbability
		}
		if best == median {
			return MaxProbability
		}
		t = (quoted - median) / (best - median)
	}
	return clamp(MinProbability+t*(MaxProbability-MinProbability), MinProbability, MaxProbability)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
