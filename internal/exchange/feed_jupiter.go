package exchange

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketmaker-go/internal/config"
	"marketmaker-go/internal/dex/solana"
	"marketmaker-go/internal/market"
)

// JupiterFeed polls the Jupiter price API and widens the USD price into a quote.
type JupiterFeed struct {
	client    *solana.JupiterClient
	interval  time.Duration
	spreadBps float64
	now       func() time.Time
	log       zerolog.Logger
}

func NewJupiterFeed(cfg config.Jupiter, log zerolog.Logger) (*JupiterFeed, error) {
	client, err := solana.NewJupiterClient(cfg.BaseURL, cfg.Mint)
	if err != nil {
		return nil, err
	}
	return &JupiterFeed{
		client:    client,
		interval:  time.Duration(cfg.PollInterval) * time.Millisecond,
		spreadBps: cfg.SpreadBps,
		now:       time.Now,
		log:       log.With().Str("source", ProviderJupiter).Logger(),
	}, nil
}

func (f *JupiterFeed) Name() string { return ProviderJupiter }

func (f *JupiterFeed) Run(ctx context.Context, sink Sink) error {
	return poll(ctx, ProviderJupiter, f.interval, f.log, f.fetch, sink)
}

func (f *JupiterFeed) fetch(ctx context.Context) (market.SourceQuote, error) {
	px, err := f.client.GetPrice(ctx)
	if err != nil {
		return market.SourceQuote{}, err
	}
	return spreadQuote(ProviderJupiter, px.USD, f.spreadBps, f.now()), nil
}
