package exchange

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"marketmaker-go/internal/market"
)

const (
	binanceReadTimeout = 30 * time.Second
	binancePingEvery   = 15 * time.Second
	binanceMaxBackoff  = 30 * time.Second
)

// BinanceFeed streams top-of-book for one symbol.
type BinanceFeed struct {
	url     string
	symbol  string
	backoff time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewBinanceFeed targets <baseURL>/<symbol>@bookTicker.
func NewBinanceFeed(baseURL, symbol string, log zerolog.Logger) *BinanceFeed {
	return &BinanceFeed{
		url:     strings.TrimRight(baseURL, "/"),
		symbol:  strings.ToLower(symbol),
		backoff: time.Second,
		now:     time.Now,
		log:     log.With().Str("source", ProviderBinance).Logger(),
	}
}

func (f *BinanceFeed) Name() string { return ProviderBinance }

// Run keeps the stream connected until ctx is done, reconnecting with capped backoff.
func (f *BinanceFeed) Run(ctx context.Context, sink Sink) error {
	if f.symbol == "" {
		return fmt.Errorf("binance feed requires a symbol")
	}
	url := fmt.Sprintf("%s/%s@bookTicker", f.url, f.symbol)
	backoff := f.backoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delivered, err := f.consume(ctx, url, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered {
			backoff = f.backoff
		}
		f.log.Warn().Err(err).Dur("backoff", backoff).Msg("binance feed disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(binanceMaxBackoff), float64(backoff)*1.8))
	}
}

// consume reads one connection until it fails; delivered reports whether any quote got through.
func (f *BinanceFeed) consume(ctx context.Context, url string, sink Sink) (delivered bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	f.log.Info().Str("symbol", f.symbol).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(binanceReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(binanceReadTimeout))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(binancePingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				// unblock ReadMessage on shutdown
				conn.Close()
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return delivered, err
		}
		conn.SetReadDeadline(time.Now().Add(binanceReadTimeout))

		q, err := f.parse(message)
		if err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		if err := sink.Update(q); err != nil {
			f.log.Debug().Err(err).Msg("quote rejected")
			continue
		}
		delivered = true
	}
}

// parse reads best bid/ask prices. Keys are matched exactly: "B" and "A" carry the
// quantities and must not be taken for "b" and "a".
func (f *BinanceFeed) parse(message []byte) (market.SourceQuote, error) {
	if !gjson.ValidBytes(message) {
		return market.SourceQuote{}, fmt.Errorf("malformed frame")
	}
	fields := gjson.GetManyBytes(message, "b", "a")
	if !fields[0].Exists() || !fields[1].Exists() {
		return market.SourceQuote{}, fmt.Errorf("frame missing bid/ask")
	}
	bid, err := strconv.ParseFloat(fields[0].String(), 64)
	if err != nil {
		return market.SourceQuote{}, fmt.Errorf("bid: %w", err)
	}
	ask, err := strconv.ParseFloat(fields[1].String(), 64)
	if err != nil {
		return market.SourceQuote{}, fmt.Errorf("ask: %w", err)
	}
	return market.SourceQuote{Source: ProviderBinance, Bid: bid, Ask: ask, ObservedAt: f.now()}, nil
}
