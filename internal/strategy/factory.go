package strategy

import (
	"fmt"
	"strings"

	"marketmaker-go/internal/market"
)

// Mode selects how execution probability is modeled.
type Mode string

const (
	// Basic fills every quote with a fixed probability.
	Basic Mode = "basic"
	// Advanced scales the probability with quote competitiveness.
	Advanced Mode = "advanced"
)

// ParseMode maps a config value to a Mode; blank selects Basic.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(Basic):
		return Basic, nil
	case string(Advanced):
		return Advanced, nil
	default:
		return "", fmt.Errorf("unknown execution model %q", raw)
	}
}

// Decision is the quoted price and its modeled fill probability.
type Decision struct {
	Price       float64
	Probability float64
}

// Model defines behaviour shared by execution models used by the engine.
type Model interface {
	Quote(snap market.Snapshot, side market.Side) Decision
	Name() string
}

// Build returns a model implementation matching the configured mode.
func Build(mode Mode) Model {
	switch mode {
	case Advanced:
		return AdvancedModel{}
	default:
		return BasicModel{}
	}
}
