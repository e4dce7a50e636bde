package execution

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"marketmaker-go/internal/market"
)

func TestSampleFillsBelowProbability(t *testing.T) {
	sampler := NewSampler(NewSequence(0.15, 0.70, 0.69999), zerolog.Nop())

	draw, filled := sampler.Sample(market.Buy, 0.20)
	if draw != 0.15 || !filled {
		t.Fatalf("expected draw 0.15 to fill at 0.20, got draw=%v filled=%v", draw, filled)
	}
	if _, filled := sampler.Sample(market.Sell, 0.70); filled {
		t.Fatalf("draw equal to probability must not fill")
	}
	if _, filled := sampler.Sample(market.Sell, 0.70); !filled {
		t.Fatalf("draw just under probability must fill")
	}
}

func TestSampleLogsDecision(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	sampler := NewSampler(NewSequence(0.5), logger)
	sampler.Sample(market.Sell, 0.9)
	out := buf.String()
	if !strings.Contains(out, "SELL") || !strings.Contains(out, "sampled execution") {
		t.Fatalf("log does not contain sample decision: %s", out)
	}
}

func TestSeededSourceIsDeterministic(t *testing.T) {
	a := NewRandomSource(99)
	b := NewRandomSource(99)
	for i := 0; i < 10; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Fatalf("seeded sources diverged at %d: %v != %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("sample out of range: %v", va)
		}
	}
}

func TestSequenceWraps(t *testing.T) {
	seq := NewSequence(0.1, 0.2)
	got := []float64{seq.Float64(), seq.Float64(), seq.Float64()}
	if got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.1 {
		t.Fatalf("unexpected sequence %v", got)
	}
	if NewSequence().Float64() != 0 {
		t.Fatalf("empty sequence should yield 0")
	}
}
