// Package exchange hosts the price source adapters that push normalized quotes into the aggregator.
package exchange

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"marketmaker-go/internal/config"
	"marketmaker-go/internal/market"
)

const (
	// ProviderStub emits deterministic synthetic quotes (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams best bid/ask from the Binance public bookTicker websocket.
	ProviderBinance = "binance"
	// ProviderJupiter polls the Jupiter price API.
	ProviderJupiter = "jupiter"
	// ProviderCowSwap polls the CoW Protocol quote API.
	ProviderCowSwap = "cowswap"
)

// Sink receives normalized quotes. The aggregator satisfies it.
type Sink interface {
	Update(market.SourceQuote) error
}

// Feed is one price source running until its context is canceled.
type Feed interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

// Build constructs every enabled feed from configuration.
func Build(cfg config.Feeds, log zerolog.Logger) ([]Feed, error) {
	var feeds []Feed
	if cfg.Stub.Enabled {
		n := cfg.Stub.Sources
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			feeds = append(feeds, NewStubFeed(fmt.Sprintf("%s-%d", ProviderStub, i+1), cfg.Stub.BasePrice, i,
				time.Duration(cfg.Stub.PollInterval)*time.Millisecond))
		}
	}
	if cfg.Binance.Enabled {
		feeds = append(feeds, NewBinanceFeed(cfg.Binance.URL, cfg.Binance.Symbol, log))
	}
	if cfg.Jupiter.Enabled {
		feed, err := NewJupiterFeed(cfg.Jupiter, log)
		if err != nil {
			return nil, fmt.Errorf("jupiter feed: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if cfg.CowSwap.Enabled {
		feeds = append(feeds, NewCowSwapFeed(cfg.CowSwap, log))
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds enabled")
	}
	return feeds, nil
}

// spreadQuote turns a single reference price into bid/ask offset by spreadBps on each side.
func spreadQuote(source string, price, spreadBps float64, at time.Time) market.SourceQuote {
	off := price * spreadBps / 10_000
	return market.SourceQuote{Source: source, Bid: price - off, Ask: price + off, ObservedAt: at}
}

// StubFeed oscillates around a base price with a per-source offset.
type StubFeed struct {
	name     string
	base     float64
	offset   int
	interval time.Duration
}

// NewStubFeed builds a synthetic source; offset shifts its price so sources disagree slightly.
func NewStubFeed(name string, base float64, offset int, interval time.Duration) *StubFeed {
	if base <= 0 {
		base = 100
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &StubFeed{name: name, base: base, offset: offset, interval: interval}
}

// Name identifies the source.
func (f *StubFeed) Name() string { return f.name }

// Run pushes one quote immediately and one per interval.
func (f *StubFeed) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	step := 0
	emit := func(ts time.Time) {
		px := f.base * (1 + 0.001*math.Sin(float64(step)/5) + 0.0002*float64(f.offset))
		_ = sink.Update(spreadQuote(f.name, px, 4, ts))
		step++
	}
	emit(time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			emit(ts)
		}
	}
}
