package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"marketmaker-go/internal/market"
)

const defaultPollInterval = 2 * time.Second

// fetchFunc performs one pull request and returns the normalized quote.
type fetchFunc func(ctx context.Context) (market.SourceQuote, error)

// poll paces fetch with a limiter and forwards results until ctx is done. Fetch errors are
// logged and absorbed; the aggregator only notices the source going stale.
func poll(ctx context.Context, name string, interval time.Duration, log zerolog.Logger, fetch fetchFunc, sink Sink) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		q, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("source", name).Msg("price poll failed")
			continue
		}
		if err := sink.Update(q); err != nil {
			log.Debug().Err(err).Str("source", name).Msg("quote rejected")
		}
	}
}
