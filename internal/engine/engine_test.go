package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketmaker-go/internal/aggregator"
	"marketmaker-go/internal/execution"
	"marketmaker-go/internal/market"
	"marketmaker-go/internal/paper"
	"marketmaker-go/internal/strategy"
)

type staticPrices struct {
	mu    sync.Mutex
	snap  market.Snapshot
	err   error
	calls int
}

func (s *staticPrices) Snapshot() (market.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.snap, s.err
}

type bookSpy struct {
	mu     sync.Mutex
	trades []market.ExecutedTrade
}

func (b *bookSpy) Record(trade market.ExecutedTrade) {
	b.mu.Lock()
	b.trades = append(b.trades, trade)
	b.mu.Unlock()
}

func (b *bookSpy) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.trades)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scenarioAggregator(t *testing.T) *aggregator.Aggregator {
	t.Helper()
	agg := aggregator.New(10*time.Second, aggregator.WithClock(func() time.Time { return fixedNow }))
	for _, q := range []market.SourceQuote{
		{Source: "binance", Bid: 100.00, Ask: 100.20, ObservedAt: fixedNow},
		{Source: "jupiter", Bid: 100.10, Ask: 100.30, ObservedAt: fixedNow},
		{Source: "cowswap", Bid: 99.95, Ask: 100.15, ObservedAt: fixedNow},
	} {
		require.NoError(t, agg.Update(q))
	}
	return agg
}

func newEngine(cfg Config, prices SnapshotSource, mode strategy.Mode, book Recorder, draws ...float64) *Engine {
	sampler := execution.NewSampler(execution.NewSequence(draws...), zerolog.Nop())
	ids := 0
	return New(cfg, prices, strategy.Build(mode), sampler, book,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { ids++; return "trade-" + string(rune('0'+ids)) }),
	)
}

func TestTickScenarioAdvancedBuyExecutes(t *testing.T) {
	agg := scenarioAggregator(t)
	book := &bookSpy{}
	// 0.15 < 0.20 fills the buy; 0.95 misses the sell.
	eng := newEngine(Config{NotionalPerSide: 100_000, TotalCycles: 1}, agg, strategy.Advanced, book, 0.15, 0.95)

	attempts := eng.Tick(context.Background())
	require.Len(t, attempts, 2)

	buy := attempts[0]
	assert.Equal(t, market.Buy, buy.Side)
	assert.Equal(t, 100.00, buy.Price)
	assert.Equal(t, 0.20, buy.Probability)
	assert.Equal(t, 0.15, buy.Draw)
	assert.True(t, buy.Executed)
	assert.Equal(t, 100.10, buy.Reference)
	assert.Equal(t, 3, buy.SourceCount)
	assert.Equal(t, fixedNow, buy.Ts)

	sell := attempts[1]
	assert.Equal(t, market.Sell, sell.Side)
	assert.Equal(t, 100.20, sell.Price)
	assert.Equal(t, 100.15, sell.Reference)
	assert.False(t, sell.Executed)

	require.Len(t, book.trades, 1)
	trade := book.trades[0]
	qty := 100_000 / 100.00
	assert.Equal(t, "trade-1", trade.ID)
	assert.InDelta(t, qty, trade.Qty, 1e-9)
	assert.InDelta(t, 0.10*qty, trade.PnL, 1e-6)
	assert.Equal(t, 100_000.0, trade.Notional)
	assert.Equal(t, 0.20, trade.Probability)
}

func TestTickBasicModelBothSidesExecute(t *testing.T) {
	agg := scenarioAggregator(t)
	book := &bookSpy{}
	eng := newEngine(Config{NotionalPerSide: 1000, TotalCycles: 1}, agg, strategy.Basic, book, 0.1, 0.69)

	attempts := eng.Tick(context.Background())
	require.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.Equal(t, 0.70, a.Probability)
		assert.True(t, a.Executed)
	}
	require.Len(t, book.trades, 2)

	sell := book.trades[1]
	assert.Equal(t, market.Sell, sell.Side)
	// Sell at median ask 100.20 marked at best ask 100.15 is profitable.
	assert.Greater(t, sell.PnL, 0.0)
	assert.InDelta(t, paper.MarkToMarket(market.Sell, 100.20, 100.15, 1000/100.20), sell.PnL, 1e-9)
}

func TestTickAllStaleYieldsNoAttempts(t *testing.T) {
	clock := fixedNow
	agg := aggregator.New(5*time.Second, aggregator.WithClock(func() time.Time { return clock }))
	require.NoError(t, agg.Update(market.SourceQuote{Source: "a", Bid: 100, Ask: 101, ObservedAt: fixedNow}))
	clock = fixedNow.Add(10 * time.Second)

	book := &bookSpy{}
	eng := newEngine(Config{NotionalPerSide: 1000, TotalCycles: 1}, agg, strategy.Basic, book, 0.0)
	attempts := eng.Tick(context.Background())
	assert.Empty(t, attempts)
	assert.Zero(t, book.count())
}

func TestTickSingleSourceProceeds(t *testing.T) {
	prices := &staticPrices{snap: market.Snapshot{MedianBid: 50, MedianAsk: 51, BestBid: 50, BestAsk: 51, SourceCount: 1}}
	book := &bookSpy{}
	eng := newEngine(Config{NotionalPerSide: 500, TotalCycles: 1}, prices, strategy.Advanced, book, 0.5, 0.5)

	attempts := eng.Tick(context.Background())
	require.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.Equal(t, 0.90, a.Probability)
		assert.True(t, a.Executed)
	}
	for _, trade := range book.trades {
		assert.Zero(t, trade.PnL)
	}
	assert.Equal(t, 2, prices.calls, "each side fetches its own snapshot")
}

func TestTickSnapshotErrorSkipsSide(t *testing.T) {
	prices := &staticPrices{err: errors.New("boom")}
	eng := newEngine(Config{NotionalPerSide: 500, TotalCycles: 1}, prices, strategy.Basic, nil, 0.1)
	assert.Empty(t, eng.Tick(context.Background()))

	prices = &staticPrices{snap: market.Snapshot{}}
	eng = newEngine(Config{NotionalPerSide: 500, TotalCycles: 1}, prices, strategy.Basic, nil, 0.1)
	assert.Empty(t, eng.Tick(context.Background()))
}

func TestTickRecordsFillsAfterCancellation(t *testing.T) {
	agg := scenarioAggregator(t)
	book := &bookSpy{}
	eng := newEngine(Config{NotionalPerSide: 1000, TotalCycles: 1}, agg, strategy.Basic, book, 0.0, 0.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := eng.Tick(ctx)
	assert.Len(t, attempts, 2)
	assert.Equal(t, 2, book.count())
}

func TestRunExecutesConfiguredCycles(t *testing.T) {
	agg := scenarioAggregator(t)
	tracker := paper.NewTracker(nil, zerolog.Nop())
	eng := newEngine(Config{NotionalPerSide: 1000, TotalCycles: 3, CycleInterval: time.Millisecond}, agg, strategy.Basic, tracker, 0.5)

	var reports []CycleReport
	err := eng.Run(context.Background(), func(r CycleReport) { reports = append(reports, r) })
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for i, r := range reports {
		assert.Equal(t, i+1, r.Cycle)
		assert.Equal(t, 2-i, r.Remaining)
		assert.True(t, r.Available)
		assert.Len(t, r.Attempts, 2)
	}
	assert.Zero(t, eng.Remaining())
	assert.Equal(t, 6, tracker.Summary().TradeCount)

	// Terminal state: a second run produces nothing.
	require.NoError(t, eng.Run(context.Background(), func(CycleReport) { t.Fatalf("unexpected cycle after completion") }))
	assert.Equal(t, 6, tracker.Summary().TradeCount)
}

func TestRunStopsOnCancel(t *testing.T) {
	agg := scenarioAggregator(t)
	eng := newEngine(Config{NotionalPerSide: 1000, TotalCycles: 100, CycleInterval: time.Hour}, agg, strategy.Basic, nil, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	cycles := make(chan int, 1)
	go func() {
		done <- eng.Run(ctx, func(r CycleReport) { cycles <- r.Cycle })
	}()

	select {
	case c := <-cycles:
		assert.Equal(t, 1, c)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first cycle")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	assert.Equal(t, 99, eng.Remaining())
}

func TestRunCancelledDuringWarmup(t *testing.T) {
	agg := scenarioAggregator(t)
	eng := newEngine(Config{NotionalPerSide: 1000, TotalCycles: 5, CycleInterval: time.Millisecond, Warmup: time.Hour}, agg, strategy.Basic, nil, 0.5)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := eng.Run(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 5, eng.Remaining())
}
