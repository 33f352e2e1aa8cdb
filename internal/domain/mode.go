package domain

import "strings"

// Mode is an analysis profile. The set is closed; use ParseMode at outer surfaces.
type Mode string

const (
	ModeLongTerm Mode = "long_term"
	ModeSwing    Mode = "swing"
	ModeRiskOnly Mode = "risk_only"
)

// Modes lists every mode.
var Modes = []Mode{ModeLongTerm, ModeSwing, ModeRiskOnly}

// ParseMode accepts the canonical identifiers plus the hyphenated forms ("long-term").
func ParseMode(s string) (Mode, bool) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, m := range Modes {
		if string(m) == norm {
			return m, true
		}
	}
	return "", false
}

// WeightVector holds one non-negative weight per layer.
type WeightVector struct {
	Trend             float64 `json:"trend"`
	Momentum          float64 `json:"momentum"`
	SupportResistance float64 `json:"supportResistance"`
	VolumeVolatility  float64 `json:"volumeVolatility"`
	Fundamentals      float64 `json:"fundamentals"`
	UserPosition      float64 `json:"userPosition"`
}

// For returns the weight assigned to layer.
func (w WeightVector) For(layer LayerName) float64 {
	switch layer {
	case LayerTrend:
		return w.Trend
	case LayerMomentum:
		return w.Momentum
	case LayerSupportResistance:
		return w.SupportResistance
	case LayerVolumeVolatility:
		return w.VolumeVolatility
	case LayerFundamentals:
		return w.Fundamentals
	case LayerUserPosition:
		return w.UserPosition
	}
	return 0
}

// ModeConfig is the static profile for a mode.
type ModeConfig struct {
	Mode          Mode
	DisplayName   string
	Description   string
	Timeframes    []string // Preferred first
	Weights       WeightVector
	BuyThreshold  float64
	SellThreshold float64
}

// PrimaryTimeframe is the timeframe candles are fetched for.
func (c ModeConfig) PrimaryTimeframe() string {
	if len(c.Timeframes) == 0 {
		return "1D"
	}
	return c.Timeframes[0]
}

// modeConfigs is initialised once and never written afterwards.
var modeConfigs = map[Mode]ModeConfig{
	ModeLongTerm: {
		Mode:        ModeLongTerm,
		DisplayName: "Long-Term",
		Description: "Position building over months; fundamentals and primary trend dominate.",
		Timeframes:  []string{"1D", "1W"},
		Weights: WeightVector{
			Trend:             0.25,
			Momentum:          0.10,
			SupportResistance: 0.10,
			VolumeVolatility:  0.10,
			Fundamentals:      0.35,
			UserPosition:      0.10,
		},
		BuyThreshold:  6.5,
		SellThreshold: 7.0,
	},
	ModeSwing: {
		Mode:        ModeSwing,
		DisplayName: "Swing",
		Description: "Holding periods of days to weeks; momentum and levels matter most.",
		Timeframes:  []string{"4H", "1D"},
		Weights: WeightVector{
			Trend:             0.25,
			Momentum:          0.25,
			SupportResistance: 0.20,
			VolumeVolatility:  0.15,
			Fundamentals:      0.05,
			UserPosition:      0.10,
		},
		BuyThreshold:  6.0,
		SellThreshold: 6.0,
	},
	ModeRiskOnly: {
		Mode:        ModeRiskOnly,
		DisplayName: "Risk Only",
		Description: "Exposure check; volatility is the dominant signal.",
		Timeframes:  []string{"1D"},
		Weights: WeightVector{
			Trend:             0.15,
			Momentum:          0.10,
			SupportResistance: 0.10,
			VolumeVolatility:  0.60,
			Fundamentals:      0,
			UserPosition:      0.05,
		},
		BuyThreshold:  7.5,
		SellThreshold: 5.0,
	},
}

// GetModeConfig returns the static configuration for mode. Timeframes are copied so callers
// cannot reach the shared table.
func GetModeConfig(mode Mode) ModeConfig {
	cfg, ok := modeConfigs[mode]
	if !ok {
		cfg = modeConfigs[ModeSwing]
	}
	cfg.Timeframes = append([]string(nil), cfg.Timeframes...)
	return cfg
}
