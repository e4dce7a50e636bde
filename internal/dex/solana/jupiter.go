// Package solana reads token prices for Solana mints from the Jupiter price API.
package solana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"
)

// ErrPriceMissing is returned when the response carries no usable price for the mint.
var ErrPriceMissing = errors.New("jupiter: price missing")

type JupiterClient struct {
	Base string
	Mint solana.PublicKey
	Http *http.Client
}

// Price is one Jupiter USD price observation.
type Price struct {
	Mint      string
	USD       float64
	Decimals  int64
	Change24h float64
}

// NewJupiterClient validates mint as a base58 public key before any request is made.
func NewJupiterClient(base, mint string) (*JupiterClient, error) {
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	return &JupiterClient{
		Base: base,
		Mint: key,
		Http: &http.Client{Timeout: 8 * time.Second},
	}, nil
}

// GetPrice fetches the current USD price of the configured mint.
func (j *JupiterClient) GetPrice(ctx context.Context) (Price, error) {
	mint := j.Mint.String()
	q := url.Values{}
	q.Set("ids", mint)
	u := j.Base + "/price/v3?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Price{}, err
	}
	resp, err := j.Http.Do(req)
	if err != nil {
		return Price{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Price{}, fmt.Errorf("jupiter price status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Price{}, err
	}
	if !gjson.ValidBytes(body) {
		return Price{}, fmt.Errorf("jupiter price: malformed response")
	}

	entry := gjson.GetBytes(body, gjson.Escape(mint))
	usd := entry.Get("usdPrice")
	if !usd.Exists() || usd.Float() <= 0 {
		return Price{}, ErrPriceMissing
	}
	return Price{
		Mint:      mint,
		USD:       usd.Float(),
		Decimals:  entry.Get("decimals").Int(),
		Change24h: entry.Get("priceChange24h").Float(),
	}, nil
}
