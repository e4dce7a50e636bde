// Package engine runs the fixed-cadence quote, sample and book loop.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marketmaker-go/internal/aggregator"
	"marketmaker-go/internal/execution"
	"marketmaker-go/internal/market"
	"marketmaker-go/internal/metrics"
	"marketmaker-go/internal/paper"
	"marketmaker-go/internal/strategy"
)

// SnapshotSource yields the current aggregated market or aggregator.ErrNoReliablePrice.
type SnapshotSource interface {
	Snapshot() (market.Snapshot, error)
}

// Recorder books executed trades.
type Recorder interface {
	Record(market.ExecutedTrade)
}

type discard struct{}

func (discard) Record(market.ExecutedTrade) {}

// Config sizes and paces the engine.
type Config struct {
	NotionalPerSide float64
	CycleInterval   time.Duration
	TotalCycles     int
	Warmup          time.Duration
}

// Engine is a stateless stepper: every Tick is an independent trial per side.
type Engine struct {
	cfg     Config
	prices  SnapshotSource
	model   strategy.Model
	sampler *execution.Sampler
	book    Recorder
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger

	mu        sync.Mutex
	remaining int
}

// Option configures Engine construction parameters.
type Option func(*Engine)

// WithClock overrides the timestamp source for attempts and trades.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithIDGenerator overrides trade id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New wires the engine to its collaborators.
func New(cfg Config, prices SnapshotSource, model strategy.Model, sampler *execution.Sampler, book Recorder, opts ...Option) *Engine {
	if model == nil {
		model = strategy.BasicModel{}
	}
	e := &Engine{
		cfg:       cfg,
		prices:    prices,
		model:     model,
		sampler:   sampler,
		book:      book,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       zerolog.Nop(),
		remaining: cfg.TotalCycles,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sampler == nil {
		e.sampler = execution.NewSampler(nil, e.log)
	}
	if e.book == nil {
		e.book = discard{}
	}
	return e
}

// Remaining reports how many cycles Run still has to execute.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// consume takes one cycle; false means the engine reached its terminal state.
func (e *Engine) consume() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.remaining <= 0 {
		return 0, false
	}
	e.remaining--
	return e.remaining, true
}

// Tick evaluates Buy then Sell, each against its own fresh snapshot. Sides without a
// reliable price are skipped. ctx is not observed mid-cycle: once a cycle starts both
// sides are evaluated and every sampled fill is booked, so cancellation only takes
// effect between cycles in Run.
func (e *Engine) Tick(ctx context.Context) []market.TradeAttempt {
	attempts := make([]market.TradeAttempt, 0, len(market.Sides))
	for _, side := range market.Sides {
		attempt, ok := e.attempt(side)
		if !ok {
			continue
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}

func (e *Engine) attempt(side market.Side) (market.TradeAttempt, bool) {
	snap, err := e.prices.Snapshot()
	if err != nil {
		metrics.CyclesSkippedTotal.WithLabelValues(string(side)).Inc()
		if errors.Is(err, aggregator.ErrNoReliablePrice) {
			e.log.Warn().Str("side", string(side)).Msg("no reliable price, skipping side")
		} else {
			e.log.Error().Err(err).Str("side", string(side)).Msg("snapshot failed, skipping side")
		}
		return market.TradeAttempt{}, false
	}
	if !snap.Valid() {
		metrics.CyclesSkippedTotal.WithLabelValues(string(side)).Inc()
		e.log.Warn().Str("side", string(side)).Msg("empty snapshot, skipping side")
		return market.TradeAttempt{}, false
	}

	decision := e.model.Quote(snap, side)
	draw, filled := e.sampler.Sample(side, decision.Probability)
	ts := e.now()
	attempt := market.TradeAttempt{
		Side:        side,
		Price:       decision.Price,
		Probability: decision.Probability,
		Draw:        draw,
		Executed:    filled,
		Reference:   snap.Best(side),
		SourceCount: snap.SourceCount,
		Ts:          ts,
	}
	if filled {
		e.book.Record(e.fill(attempt))
	}
	return attempt, true
}

func (e *Engine) fill(attempt market.TradeAttempt) market.ExecutedTrade {
	qty := e.cfg.NotionalPerSide / attempt.Price
	trade := market.ExecutedTrade{
		ID:          e.newID(),
		Side:        attempt.Side,
		Price:       attempt.Price,
		Qty:         qty,
		Notional:    e.cfg.NotionalPerSide,
		Reference:   attempt.Reference,
		Probability: attempt.Probability,
		PnL:         paper.MarkToMarket(attempt.Side, attempt.Price, attempt.Reference, qty),
		Ts:          attempt.Ts,
	}
	e.log.Info().
		Str("side", string(trade.Side)).
		Float64("px", trade.Price).
		Float64("qty", trade.Qty).
		Float64("ref", trade.Reference).
		Float64("prob", trade.Probability).
		Float64("pnl", trade.PnL).
		Msg("trade executed")
	return trade
}
