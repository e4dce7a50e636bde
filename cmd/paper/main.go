package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketmaker-go/internal/aggregator"
	"marketmaker-go/internal/config"
	"marketmaker-go/internal/engine"
	"marketmaker-go/internal/exchange"
	"marketmaker-go/internal/execution"
	"marketmaker-go/internal/paper"
	"marketmaker-go/internal/status"
	"marketmaker-go/internal/strategy"
	"marketmaker-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	advanced := flag.Bool("advanced", false, "use the advanced execution probability model")
	flag.Parse()

	log := util.NewConsoleLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := config.ApplyEnv(cfg, ".env"); err != nil {
		log.Fatal().Err(err).Msg("apply env")
	}
	if *advanced {
		cfg.Engine.Mode = string(strategy.Advanced)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log = util.NewConsoleLogger(cfg.App.LogLevel)

	mode, err := strategy.ParseMode(cfg.Engine.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("engine mode")
	}

	agg := aggregator.New(cfg.Engine.Staleness(), aggregator.WithLogger(log))
	feeds, err := exchange.Build(cfg.Feeds, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build feeds")
	}

	var journal *paper.JSONLRecorder
	var recorder paper.TradeRecorder
	if cfg.Paper.JournalPath != "" {
		journal, err = paper.NewJSONLRecorder(cfg.Paper.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open journal")
		}
		defer journal.Close()
		recorder = journal
	}
	tracker := paper.NewTracker(recorder, log)

	model := strategy.Build(mode)
	sampler := execution.NewSampler(execution.NewRandomSource(cfg.Engine.Seed), log)
	eng := engine.New(engine.Config{
		NotionalPerSide: cfg.Engine.NotionalPerSide,
		CycleInterval:   cfg.Engine.CycleInterval(),
		TotalCycles:     cfg.Engine.TotalCycles,
		Warmup:          cfg.Engine.Warmup(),
	}, agg, model, sampler, tracker, engine.WithLogger(log))

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	feedCtx, stopFeeds := context.WithCancel(gctx)
	defer stopFeeds()

	for _, feed := range feeds {
		g.Go(background(feedCtx, log, feed.Name(), func(ctx context.Context) error { return feed.Run(ctx, agg) }))
	}

	if cfg.App.StatusAddr != "" {
		srv, err := status.NewServer(status.Config{
			Addr:     cfg.App.StatusAddr,
			Mode:     model.Name(),
			Prices:   agg,
			Stats:    tracker,
			Progress: eng,
			Log:      log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("status server")
		}
		g.Go(background(feedCtx, log, "status", srv.Start))
	}

	log.Info().
		Str("mode", model.Name()).
		Int("cycles", cfg.Engine.TotalCycles).
		Dur("interval", cfg.Engine.CycleInterval()).
		Float64("notional", cfg.Engine.NotionalPerSide).
		Int("feeds", len(feeds)).
		Msg("market maker simulator started")

	g.Go(func() error {
		defer stopFeeds()
		err := eng.Run(gctx, reporter(log, agg, tracker, cfg.Engine))
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("interrupted, shutting down")
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	printFinal(log, tracker)
}

// background runs an auxiliary service whose failure is logged but never cancels the
// group, so the trading run outlives a dead feed or an unusable status address.
func background(ctx context.Context, log zerolog.Logger, name string, run func(context.Context) error) func() error {
	return func() error {
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("service", name).Msg("background service stopped")
		}
		return nil
	}
}

func reporter(log zerolog.Logger, agg *aggregator.Aggregator, tracker *paper.Tracker, cfg config.Engine) func(engine.CycleReport) {
	return func(r engine.CycleReport) {
		evt := log.Info().
			Int("cycle", r.Cycle).
			Int("of", cfg.TotalCycles).
			Str("sources", sourceMarks(agg.Sources()))
		if r.Available {
			evt = evt.
				Float64("mid", r.Snapshot.MedianMid).
				Float64("spread_bps", r.Snapshot.SpreadBps()).
				Int("fresh", r.Snapshot.SourceCount)
		} else {
			evt = evt.Bool("available", false)
		}
		evt.Int("attempts", len(r.Attempts)).Msg("cycle complete")

		if cfg.StatsEvery > 0 && r.Cycle%cfg.StatsEvery == 0 {
			s := tracker.Summary()
			log.Info().
				Int("trades", s.TradeCount).
				Int("buys", s.BuyCount).
				Int("sells", s.SellCount).
				Float64("pnl", s.TotalPnL).
				Float64("avg_prob", s.AvgProbability).
				Dur("elapsed", r.Elapsed).
				Msg("running stats")
		}
	}
}

func sourceMarks(statuses []aggregator.SourceStatus) string {
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		mark := "✗"
		if st.Fresh {
			mark = "✓"
		}
		parts = append(parts, st.Source+" "+mark)
	}
	return strings.Join(parts, ", ")
}

func printFinal(log zerolog.Logger, tracker *paper.Tracker) {
	s := tracker.Summary()
	log.Info().
		Int("trades", s.TradeCount).
		Int("buys", s.BuyCount).
		Int("sells", s.SellCount).
		Float64("total_pnl", s.TotalPnL).
		Float64("buy_pnl", s.BuyPnL).
		Float64("sell_pnl", s.SellPnL).
		Float64("avg_pnl", s.AvgPnL).
		Float64("pnl_bps", s.PnLPerNotional).
		Msg("final summary")
	for _, t := range tracker.Recent(5) {
		log.Info().
			Str("id", t.ID).
			Str("side", string(t.Side)).
			Float64("px", t.Price).
			Float64("qty", t.Qty).
			Float64("ref", t.Reference).
			Float64("pnl", t.PnL).
			Time("ts", t.Ts).
			Msg("recent trade")
	}
}
