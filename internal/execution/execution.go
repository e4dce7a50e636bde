// Package execution simulates whether a quoted order is filled by the market.
package execution

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketmaker-go/internal/market"
	"marketmaker-go/internal/metrics"
)

// RandomSource yields uniform samples in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a PCG generator; seed 0 picks one from the clock.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sampler draws one independent sample per attempt from an injected source.
type Sampler struct {
	mu  sync.Mutex
	rng RandomSource
	log zerolog.Logger
}

// NewSampler wraps rng; a nil rng falls back to a clock-seeded generator.
func NewSampler(rng RandomSource, log zerolog.Logger) *Sampler {
	if rng == nil {
		rng = NewRandomSource(0)
	}
	return &Sampler{rng: rng, log: log}
}

// Sample returns the draw and whether it fills, i.e. draw < probability.
func (s *Sampler) Sample(side market.Side, probability float64) (float64, bool) {
	s.mu.Lock()
	draw := s.rng.Float64()
	s.mu.Unlock()

	filled := draw < probability
	outcome := "missed"
	if filled {
		outcome = "filled"
	}
	metrics.TradeAttemptsTotal.WithLabelValues(string(side), outcome).Inc()
	s.log.Debug().Str("side", string(side)).Float64("prob", probability).Float64("draw", draw).Bool("filled", filled).Msg("sampled execution")
	return draw, filled
}

// Sequence replays fixed draws in order, wrapping around; useful for deterministic runs.
type Sequence struct {
	mu    sync.Mutex
	draws []float64
	next  int
}

// NewSequence builds a replaying RandomSource.
func NewSequence(draws ...float64) *Sequence {
	return &Sequence{draws: append([]float64(nil), draws...)}
}

// Float64 returns the next configured draw, or 0 when none were given.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.draws) == 0 {
		return 0
	}
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v
}
