// Package config also contains the per-source price feed surfaces.
package config

// Feeds groups the price sources merged into the reference price.
type Feeds struct {
	Stub    Stub    `yaml:"stub"`
	Binance Binance `yaml:"binance"`
	Jupiter Jupiter `yaml:"jupiter"`
	CowSwap CowSwap `yaml:"cowswap"`
}

// Stub emits synthetic quotes for offline runs.
type Stub struct {
	Enabled      bool    `yaml:"enabled"`
	Sources      int     `yaml:"sources"`
	BasePrice    float64 `yaml:"base_price"`
	PollInterval int     `yaml:"poll_interval_ms"`
}

// Binance configures the bookTicker websocket push stream.
type Binance struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Symbol  string `yaml:"symbol"`
}

// Jupiter configures the HTTP price poll against the Jupiter price API.
type Jupiter struct {
	Enabled      bool    `yaml:"enabled"`
	BaseURL      string  `yaml:"base_url"`
	Mint         string  `yaml:"mint"`
	PollInterval int     `yaml:"poll_interval_ms"`
	SpreadBps    float64 `yaml:"spread_bps"`
}

// CowSwap configures the HTTP quote poll against the CoW Protocol API.
type CowSwap struct {
	Enabled      bool    `yaml:"enabled"`
	BaseURL      string  `yaml:"base_url"`
	SellToken    string  `yaml:"sell_token"`
	BuyToken     string  `yaml:"buy_token"`
	SellAmount   string  `yaml:"sell_amount"`
	PollInterval int     `yaml:"poll_interval_ms"`
	SpreadBps    float64 `yaml:"spread_bps"`
}

// AnyEnabled reports whether at least one source will run.
func (f Feeds) AnyEnabled() bool {
	return f.Stub.Enabled || f.Binance.Enabled || f.Jupiter.Enabled || f.CowSwap.Enabled
}

func defaultFeeds() Feeds {
	return Feeds{
		Stub: Stub{Sources: 3, BasePrice: 2500, PollInterval: 1000},
		Binance: Binance{
			Enabled: true,
			URL:     "wss://stream.binance.com:9443/ws",
			Symbol:  "ethusdc",
		},
		Jupiter: Jupiter{
			Enabled:      true,
			BaseURL:      "https://lite-api.jup.ag",
			Mint:         "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs",
			PollInterval: 2000,
			SpreadBps:    5,
		},
		CowSwap: CowSwap{
			Enabled:      true,
			BaseURL:      "https://api.cow.fi",
			SellToken:    "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			BuyToken:     "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
			SellAmount:   "1000000000",
			PollInterval: 3000,
			SpreadBps:    10,
		},
	}
}
