package paper

import (
	"sync"

	"marketmaker-go/internal/market"
)

// Ledger stores executed trades in memory in arrival order.
type Ledger struct {
	mu     sync.Mutex
	trades []market.ExecutedTrade
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{trades: make([]market.ExecutedTrade, 0, capacity)}
}

// Append adds a trade to the ledger.
func (l *Ledger) Append(trade market.ExecutedTrade) {
	l.mu.Lock()
	l.trades = append(l.trades, trade)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded trades.
func (l *Ledger) Snapshot() []market.ExecutedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]market.ExecutedTrade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Last returns a copy of the most recent n trades, oldest first.
func (l *Ledger) Last(n int) []market.ExecutedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 {
		return nil
	}
	start := len(l.trades) - n
	if start < 0 {
		start = 0
	}
	out := make([]market.ExecutedTrade, len(l.trades)-start)
	copy(out, l.trades[start:])
	return out
}

// Len reports how many trades were appended.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}
