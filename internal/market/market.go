// Package market standardizes payloads shared between feed ingestion, aggregation, the engine and PnL tracking.
package market

import (
	"fmt"
	"strings"
	"time"
)

// Side enumerates quote directions from the market maker's point of view.
type Side string

const (
	// Buy means we bid for the asset at our quoted price.
	Buy Side = "BUY"
	// Sell means we offer the asset at our quoted price.
	Sell Side = "SELL"
)

// Sides lists both directions in the order the engine evaluates them.
var Sides = [...]Side{Buy, Sell}

// ParseSide accepts case-insensitive BUY/SELL.
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(Buy):
		return Buy, nil
	case string(Sell):
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q", raw)
	}
}

func (s Side) String() string { return string(s) }

// SourceQuote is the latest bid/ask reported by one price source.
type SourceQuote struct {
	Source     string    `json:"source"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	ObservedAt time.Time `json:"observed_at"`
}

// Mid returns the arithmetic middle of bid and ask.
func (q SourceQuote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// Snapshot is an aggregated, internally consistent view across fresh sources.
type Snapshot struct {
	MedianBid   float64   `json:"median_bid"`
	MedianAsk   float64   `json:"median_ask"`
	MedianMid   float64   `json:"median_mid"`
	BestBid     float64   `json:"best_bid"`
	BestAsk     float64   `json:"best_ask"`
	SourceCount int       `json:"source_count"`
	AsOf        time.Time `json:"as_of"`
}

// Valid reports whether at least one source contributed.
func (s Snapshot) Valid() bool { return s.SourceCount > 0 }

// SpreadBps is the median spread relative to the median mid, in basis points.
func (s Snapshot) SpreadBps() float64 {
	if s.MedianMid <= 0 {
		return 0
	}
	return (s.MedianAsk - s.MedianBid) / s.MedianMid * 10_000
}

// Median returns the median price for the side we quote on.
func (s Snapshot) Median(side Side) float64 {
	if side == Sell {
		return s.MedianAsk
	}
	return s.MedianBid
}

// Best returns the most competitive price on the side we quote on
// (highest bid for Buy, lowest ask for Sell).
func (s Snapshot) Best(side Side) float64 {
	if side == Sell {
		return s.BestAsk
	}
	return s.BestBid
}

// TradeAttempt records one quote decision and its sampled outcome.
type TradeAttempt struct {
	Side        Side      `json:"side"`
	Price       float64   `json:"price"`
	Probability float64   `json:"probability"`
	Draw        float64   `json:"draw"`
	Executed    bool      `json:"executed"`
	Reference   float64   `json:"reference"`
	SourceCount int       `json:"source_count"`
	Ts          time.Time `json:"ts"`
}

// ExecutedTrade is a filled attempt with its mark-to-market PnL fixed at creation.
type ExecutedTrade struct {
	ID          string    `json:"id"`
	Side        Side      `json:"side"`
	Price       float64   `json:"price"`
	Qty         float64   `json:"qty"`
	Notional    float64   `json:"notional"`
	Reference   float64   `json:"reference"`
	Probability float64   `json:"probability"`
	PnL         float64   `json:"pnl"`
	Ts          time.Time `json:"ts"`
}
