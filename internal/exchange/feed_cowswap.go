package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"marketmaker-go/internal/config"
	"marketmaker-go/internal/market"
)

const (
	cowSellDecimals = 6  // USDC
	cowBuyDecimals  = 18 // ETH
	cowZeroAddress  = "0x0000000000000000000000000000000000000000"
)

// CowSwapFeed derives a price from a CoW Protocol sell quote.
type CowSwapFeed struct {
	base     string
	cfg      config.CowSwap
	interval time.Duration
	http     *http.Client
	now      func() time.Time
	log      zerolog.Logger
}

func NewCowSwapFeed(cfg config.CowSwap, log zerolog.Logger) *CowSwapFeed {
	return &CowSwapFeed{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		cfg:      cfg,
		interval: time.Duration(cfg.PollInterval) * time.Millisecond,
		http:     &http.Client{Timeout: 8 * time.Second},
		now:      time.Now,
		log:      log.With().Str("source", ProviderCowSwap).Logger(),
	}
}

func (f *CowSwapFeed) Name() string { return ProviderCowSwap }

func (f *CowSwapFeed) Run(ctx context.Context, sink Sink) error {
	return poll(ctx, ProviderCowSwap, f.interval, f.log, f.fetch, sink)
}

func (f *CowSwapFeed) fetch(ctx context.Context) (market.SourceQuote, error) {
	payload := map[string]string{
		"sellToken":           f.cfg.SellToken,
		"buyToken":            f.cfg.BuyToken,
		"sellAmountBeforeFee": f.cfg.SellAmount,
		"kind":                "sell",
		"from":                cowZeroAddress,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return market.SourceQuote{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.base+"/mainnet/api/v1/quote", bytes.NewReader(body))
	if err != nil {
		return market.SourceQuote{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return market.SourceQuote{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return market.SourceQuote{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return market.SourceQuote{}, fmt.Errorf("cowswap quote status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "description").String())
	}

	price, err := cowPrice(gjson.GetBytes(raw, "quote.sellAmount").String(), gjson.GetBytes(raw, "quote.buyAmount").String())
	if err != nil {
		return market.SourceQuote{}, err
	}
	return spreadQuote(ProviderCowSwap, price, f.cfg.SpreadBps, f.now()), nil
}

// cowPrice converts raw token amounts into USDC per ETH.
func cowPrice(sellAmount, buyAmount string) (float64, error) {
	sell, err := strconv.ParseFloat(sellAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("sellAmount %q: %w", sellAmount, err)
	}
	buy, err := strconv.ParseFloat(buyAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("buyAmount %q: %w", buyAmount, err)
	}
	if buy <= 0 {
		return 0, fmt.Errorf("buyAmount must be positive")
	}
	return (sell / math.Pow10(cowSellDecimals)) / (buy / math.Pow10(cowBuyDecimals)), nil
}
