// Package aggregator merges the latest quote from every price source into one consistent snapshot.
package aggregator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketmaker-go/internal/market"
	"marketmaker-go/internal/metrics"
)

var (
	// ErrInvalidQuote marks a quote dropped at ingestion.
	ErrInvalidQuote = errors.New("invalid quote")
	// ErrNoReliablePrice is returned by Snapshot when no source is fresh.
	ErrNoReliablePrice = errors.New("no reliable price available")
)

// SourceStatus describes one known source for status reporting.
type SourceStatus struct {
	Source    string             `json:"source"`
	Quote     market.SourceQuote `json:"quote"`
	Age       time.Duration      `json:"age"`
	Fresh     bool               `json:"fresh"`
	Anomalies uint64             `json:"anomalies"`
}

type slot struct {
	quote     market.SourceQuote
	hasQuote  bool
	anomalies uint64
}

// Aggregator holds one slot per source id. Writers replace whole slots under the lock and
// readers copy values out, so a snapshot never sees a partially written quote.
type Aggregator struct {
	mu        sync.RWMutex
	slots     map[string]*slot
	anomalies uint64
	staleness time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures Aggregator construction parameters.
type Option func(*Aggregator)

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger attaches a logger for anomaly reporting.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Aggregator) { a.log = log }
}

const defaultStaleness = 15 * time.Second

// New builds an aggregator excluding quotes older than staleness.
func New(staleness time.Duration, opts ...Option) *Aggregator {
	if staleness <= 0 {
		staleness = defaultStaleness
	}
	a := &Aggregator{
		slots:     make(map[string]*slot),
		staleness: staleness,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Staleness returns the maximum quote age accepted by Snapshot.
func (a *Aggregator) Staleness() time.Duration { return a.staleness }

// Update stores q as the latest quote for its source. Invalid quotes are counted and
// dropped; the previous entry for that source stays visible.
func (a *Aggregator) Update(q market.SourceQuote) error {
	if err := validate(q); err != nil {
		a.mu.Lock()
		if q.Source != "" {
			a.slotFor(q.Source).anomalies++
		}
		a.anomalies++
		a.mu.Unlock()
		metrics.QuoteAnomaliesTotal.WithLabelValues(q.Source).Inc()
		a.log.Debug().Err(err).Str("source", q.Source).Float64("bid", q.Bid).Float64("ask", q.Ask).Msg("dropped quote")
		return err
	}

	a.mu.Lock()
	s := a.slotFor(q.Source)
	if s.hasQuote && q.ObservedAt.Before(s.quote.ObservedAt) {
		a.mu.Unlock()
		return nil
	}
	s.quote = q
	s.hasQuote = true
	a.mu.Unlock()

	metrics.QuoteUpdatesTotal.WithLabelValues(q.Source).Inc()
	return nil
}

// slotFor must be called with the write lock held.
func (a *Aggregator) slotFor(source string) *slot {
	s, ok := a.slots[source]
	if !ok {
		s = &slot{}
		a.slots[source] = s
	}
	return s
}

func validate(q market.SourceQuote) error {
	switch {
	case q.Source == "":
		return fmt.Errorf("%w: missing source id", ErrInvalidQuote)
	case !finite(q.Bid) || !finite(q.Ask):
		return fmt.Errorf("%w: non-finite price", ErrInvalidQuote)
	case q.Bid <= 0 || q.Ask <= 0:
		return fmt.Errorf("%w: non-positive price bid=%v ask=%v", ErrInvalidQuote, q.Bid, q.Ask)
	case q.Ask < q.Bid:
		return fmt.Errorf("%w: crossed quote bid=%v ask=%v", ErrInvalidQuote, q.Bid, q.Ask)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Snapshot aggregates every quote younger than the staleness threshold.
func (a *Aggregator) Snapshot() (market.Snapshot, error) {
	now := a.now()
	fresh := a.freshQuotes(now)
	metrics.FreshSources.Set(float64(len(fresh)))
	if len(fresh) == 0 {
		return market.Snapshot{}, ErrNoReliablePrice
	}
	return Compute(fresh), nil
}

func (a *Aggregator) freshQuotes(now time.Time) []market.SourceQuote {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]market.SourceQuote, 0, len(a.slots))
	for _, s := range a.slots {
		if !s.hasQuote || now.Sub(s.quote.ObservedAt) >= a.staleness {
			continue
		}
		out = append(out, s.quote)
	}
	return out
}

// Sources lists every source seen so far, sorted by id.
func (a *Aggregator) Sources() []SourceStatus {
	now := a.now()
	a.mu.RLock()
	out := make([]SourceStatus, 0, len(a.slots))
	for id, s := range a.slots {
		st := SourceStatus{Source: id, Anomalies: s.anomalies}
		if s.hasQuote {
			st.Quote = s.quote
			st.Age = now.Sub(s.quote.ObservedAt)
			st.Fresh = st.Age < a.staleness
		}
		out = append(out, st)
	}
	a.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Anomalies returns the total number of rejected quotes.
func (a *Aggregator) Anomalies() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.anomalies
}
