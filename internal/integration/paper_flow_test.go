package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketmaker-go/internal/aggregator"
	"marketmaker-go/internal/engine"
	"marketmaker-go/internal/exchange"
	"marketmaker-go/internal/execution"
	"marketmaker-go/internal/market"
	"marketmaker-go/internal/paper"
	"marketmaker-go/internal/strategy"
)

func TestPaperFlowBooksAndJournalsTrades(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	agg := aggregator.New(time.Second, aggregator.WithLogger(logger))
	feeds := []exchange.Feed{
		exchange.NewStubFeed("stub-1", 2500, 0, 10*time.Millisecond),
		exchange.NewStubFeed("stub-2", 2500, 1, 10*time.Millisecond),
		exchange.NewStubFeed("stub-3", 2500, 2, 10*time.Millisecond),
	}

	journalPath := filepath.Join(t.TempDir(), "trades.jsonl")
	journal, err := paper.NewJSONLRecorder(journalPath)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}
	tracker := paper.NewTracker(journal, logger)

	// Every draw below the basic probability fills.
	sampler := execution.NewSampler(execution.NewSequence(0.1, 0.5, 0.95), logger)
	eng := engine.New(engine.Config{
		NotionalPerSide: 1000,
		CycleInterval:   5 * time.Millisecond,
		TotalCycles:     6,
		Warmup:          50 * time.Millisecond,
	}, agg, strategy.Build(strategy.Basic), sampler, tracker, engine.WithLogger(logger))

	feedCtx, stopFeeds := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(feedCtx)
	for _, f := range feeds {
		g.Go(func() error { return f.Run(gctx, agg) })
	}

	var reports []engine.CycleReport
	if err := eng.Run(ctx, func(r engine.CycleReport) { reports = append(reports, r) }); err != nil {
		t.Fatalf("engine run returned error: %v", err)
	}
	stopFeeds()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("feeds returned error: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("close journal: %v", err)
	}

	if len(reports) != 6 {
		t.Fatalf("expected 6 cycle reports, got %d", len(reports))
	}
	for _, r := range reports {
		if !r.Available || r.Snapshot.SourceCount != 3 {
			t.Fatalf("expected three fresh sources, got %+v", r.Snapshot)
		}
	}

	summary := tracker.Summary()
	// Draws cycle 0.1, 0.5, 0.95 over 12 attempts: 8 fills at p=0.70.
	if summary.TradeCount != 8 {
		t.Fatalf("expected 8 trades, got %d", summary.TradeCount)
	}
	var sum float64
	for _, trade := range tracker.Trades() {
		sum += trade.PnL
		if trade.Side == market.Buy && trade.PnL < 0 {
			t.Fatalf("buy at median bid cannot lose against best bid: %+v", trade)
		}
	}
	if diff := sum - summary.TotalPnL; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("total pnl %f does not match sum of trades %f", summary.TotalPnL, sum)
	}

	f, err := os.Open(journalPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var trade market.ExecutedTrade
		if err := json.Unmarshal(scanner.Bytes(), &trade); err != nil {
			t.Fatalf("journal line %d: %v", lines, err)
		}
		lines++
	}
	if lines != summary.TradeCount {
		t.Fatalf("expected %d journal lines, got %d", summary.TradeCount, lines)
	}

	if !strings.Contains(buf.String(), "trade executed") {
		t.Fatalf("expected log output to include trade executed, got %s", buf.String())
	}
}
