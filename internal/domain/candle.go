package domain

import (
	"strings"
	"time"
)

// Candle is a single OHLCV bar. Sequences of candles are ordered oldest to newest.
type Candle struct {
	Timestamp int64   `json:"timestamp"` // Open time, milliseconds since epoch
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time returns the candle's open time.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// Closes extracts close prices in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// PriceQuote is the provider's view of the latest price.
type PriceQuote struct {
	Price            float64  `json:"price"`
	Change24h        *float64 `json:"change24h,omitempty"`
	ChangePercent24h *float64 `json:"changePercent24h,omitempty"`
}

// MarketData bundles everything the layers read about an instrument. Built fresh per analysis.
type MarketData struct {
	Ticker           string
	AssetType        AssetType
	CurrentPrice     float64
	Change24h        *float64
	ChangePercent24h *float64
	Candles          []Candle
	Timeframe        string // e.g. "1D", "4H"
}

// FundamentalData holds optional valuation metrics. Always nil for crypto.
type FundamentalData struct {
	PERatio        *float64 `json:"peRatio,omitempty"`
	PSRatio        *float64 `json:"psRatio,omitempty"`
	MarketCap      *float64 `json:"marketCap,omitempty"`
	Revenue        *float64 `json:"revenue,omitempty"`
	RevenueGrowth  *float64 `json:"revenueGrowth,omitempty"` // percent
	Earnings       *float64 `json:"earnings,omitempty"`
	EarningsGrowth *float64 `json:"earningsGrowth,omitempty"` // percent
}

// Float returns a pointer to v. Convenience for optional fields.
func Float(v float64) *float64 {
	return &v
}

var timeframes = map[string]time.Duration{
	"1H": time.Hour,
	"4H": 4 * time.Hour,
	"1D": 24 * time.Hour,
	"1W": 7 * 24 * time.Hour,
}

// TimeframeDuration returns the bar length for a timeframe label such as "4H" or "1d".
func TimeframeDuration(tf string) (time.Duration, bool) {
	d, ok := timeframes[strings.ToUpper(strings.TrimSpace(tf))]
	return d, ok
}
