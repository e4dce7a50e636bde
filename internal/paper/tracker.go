// Package paper books simulated fills and keeps running mark-to-market statistics.
package paper

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketmaker-go/internal/market"
	"marketmaker-go/internal/metrics"
)

// TradeRecorder captures executed trades outside the tracker, e.g. a JSONL journal.
type TradeRecorder interface {
	Record(market.ExecutedTrade) error
}

// Summary is a read-only view of the running statistics.
type Summary struct {
	TotalPnL       float64 `json:"total_pnl"`
	TradeCount     int     `json:"trade_count"`
	BuyCount       int     `json:"buy_count"`
	SellCount      int     `json:"sell_count"`
	BuyPnL         float64 `json:"buy_pnl"`
	SellPnL        float64 `json:"sell_pnl"`
	TotalNotional  float64 `json:"total_notional"`
	AvgProbability float64 `json:"avg_probability"`
	AvgPnL         float64 `json:"avg_pnl"`
	PnLPerNotional float64 `json:"pnl_per_notional_bps"`
}

// Tracker accumulates executed trades. Totals are kept as decimals so the running PnL
// equals the sum of per-trade PnL without accumulated float drift.
type Tracker struct {
	mu       sync.Mutex
	ledger   *Ledger
	totalPnL decimal.Decimal
	buyPnL   decimal.Decimal
	sellPnL  decimal.Decimal
	notional decimal.Decimal
	probSum  decimal.Decimal
	buys     int
	sells    int

	recorder TradeRecorder
	log      zerolog.Logger
}

// NewTracker builds a tracker; recorder may be nil.
func NewTracker(recorder TradeRecorder, log zerolog.Logger) *Tracker {
	return &Tracker{
		ledger:   NewLedger(256),
		recorder: recorder,
		log:      log,
	}
}

// Record appends the trade and folds its PnL into the totals.
func (t *Tracker) Record(trade market.ExecutedTrade) {
	pnl := decimal.NewFromFloat(trade.PnL)

	t.mu.Lock()
	t.ledger.Append(trade)
	t.totalPnL = t.totalPnL.Add(pnl)
	t.notional = t.notional.Add(decimal.NewFromFloat(trade.Notional))
	t.probSum = t.probSum.Add(decimal.NewFromFloat(trade.Probability))
	switch trade.Side {
	case market.Sell:
		t.sells++
		t.sellPnL = t.sellPnL.Add(pnl)
	default:
		t.buys++
		t.buyPnL = t.buyPnL.Add(pnl)
	}
	total := t.totalPnL.InexactFloat64()
	t.mu.Unlock()

	metrics.TradesTotal.WithLabelValues(string(trade.Side)).Inc()
	metrics.PnLTotal.Set(total)

	if t.recorder != nil {
		if err := t.recorder.Record(trade); err != nil {
			t.log.Warn().Err(err).Str("trade", trade.ID).Msg("journal trade failed")
		}
	}
}

// Summary returns a copy of the running statistics.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.buys + t.sells
	s := Summary{
		TotalPnL:      t.totalPnL.InexactFloat64(),
		TradeCount:    count,
		BuyCount:      t.buys,
		SellCount:     t.sells,
		BuyPnL:        t.buyPnL.InexactFloat64(),
		SellPnL:       t.sellPnL.InexactFloat64(),
		TotalNotional: t.notional.InexactFloat64(),
	}
	if count > 0 {
		n := decimal.NewFromInt(int64(count))
		s.AvgPnL = t.totalPnL.Div(n).InexactFloat64()
		s.AvgProbability = t.probSum.Div(n).InexactFloat64()
	}
	if t.notional.IsPositive() {
		s.PnLPerNotional = t.totalPnL.Div(t.notional).Mul(decimal.NewFromInt(10_000)).InexactFloat64()
	}
	return s
}

// Recent returns the last n trades, oldest first.
func (t *Tracker) Recent(n int) []market.ExecutedTrade {
	return t.ledger.Last(n)
}

// Trades returns every recorded trade.
func (t *Tracker) Trades() []market.ExecutedTrade {
	return t.ledger.Snapshot()
}
