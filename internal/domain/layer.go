package domain

import "strings"

// LayerName identifies one of the six analysis layers.
type LayerName string

const (
	LayerTrend             LayerName = "trend"
	LayerMomentum          LayerName = "momentum"
	LayerSupportResistance LayerName = "support_resistance"
	LayerVolumeVolatility  LayerName = "volume_volatility"
	LayerFundamentals      LayerName = "fundamentals"
	LayerUserPosition      LayerName = "user_position"
)

// LayerNames lists every layer in registry order.
var LayerNames = []LayerName{
	LayerTrend,
	LayerMomentum,
	LayerSupportResistance,
	LayerVolumeVolatility,
	LayerFundamentals,
	LayerUserPosition,
}

// Flag is a semantic tag attached to a layer output. The set is closed.
type Flag string

// Shared flags.
const (
	FlagInsufficientData Flag = "insufficient_data"
	FlagNotApplicable    Flag = "not_applicable"
	FlagLayerError       Flag = "layer_error"
)

// Trend flags.
const (
	FlagUptrend     Flag = "uptrend"
	FlagDowntrend   Flag = "downtrend"
	FlagRangeBound  Flag = "range_bound"
	FlagStrongTrend Flag = "strong_trend"
)

// Momentum flags.
const (
	FlagOverbought            Flag = "overbought"
	FlagOversold              Flag = "oversold"
	FlagMACDBullish           Flag = "macd_bullish"
	FlagMACDBearish           Flag = "macd_bearish"
	FlagStrongBullishMomentum Flag = "strong_bullish_momentum"
	FlagStrongBearishMomentum Flag = "strong_bearish_momentum"
)

// Support/resistance flags.
const (
	FlagNearSupport           Flag = "near_support"
	FlagNearResistance        Flag = "near_resistance"
	FlagApproachingSupport    Flag = "approaching_support"
	FlagApproachingResistance Flag = "approaching_resistance"
	FlagNoSupportBelow        Flag = "no_support_below"
	FlagNoResistanceAbove     Flag = "no_resistance_above"
)

// Volume/volatility flags.
const (
	FlagHighVolume         Flag = "high_volume"
	FlagLowVolume          Flag = "low_volume"
	FlagHighVolumeBuying   Flag = "high_volume_buying"
	FlagHighVolumeSelling  Flag = "high_volume_selling"
	FlagVeryHighVolatility Flag = "very_high_volatility"
	FlagHighVolatility     Flag = "high_volatility"
	FlagLowVolatility      Flag = "low_volatility"
)

// Fundamentals flags.
const (
	FlagLowPE                Flag = "low_pe"
	FlagHighPE               Flag = "high_pe"
	FlagVeryHighPE           Flag = "very_high_pe"
	FlagNegativeEarnings     Flag = "negative_earnings"
	FlagStrongRevenueGrowth  Flag = "strong_revenue_growth"
	FlagRevenueGrowth        Flag = "revenue_growth"
	FlagRevenueDecline       Flag = "revenue_decline"
	FlagEarningsDecline      Flag = "earnings_decline"
	FlagStrongEarningsGrowth Flag = "strong_earnings_growth"
)

// User position flags.
const (
	FlagNoPosition            Flag = "no_position"
	FlagLargeProfit           Flag = "large_profit"
	FlagModerateProfit        Flag = "moderate_profit"
	FlagLargeLoss             Flag = "large_loss"
	FlagRiskToleranceExceeded Flag = "risk_tolerance_exceeded"
)

// Polarity is the direction a flag pushes a human reader.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// Polarity classifies the flag. Every flag in the closed set is listed.
func (f Flag) Polarity() Polarity {
	switch f {
	case FlagUptrend, FlagOversold, FlagMACDBullish, FlagStrongBullishMomentum,
		FlagNearSupport, FlagApproachingSupport, FlagNoResistanceAbove,
		FlagHighVolumeBuying, FlagLowVolatility,
		FlagLowPE, FlagStrongRevenueGrowth, FlagRevenueGrowth, FlagStrongEarningsGrowth,
		FlagLargeProfit, FlagModerateProfit:
		return PolarityPositive
	case FlagDowntrend, FlagOverbought, FlagMACDBearish, FlagStrongBearishMomentum,
		FlagNearResistance, FlagApproachingResistance, FlagNoSupportBelow,
		FlagHighVolumeSelling, FlagVeryHighVolatility, FlagHighVolatility,
		FlagHighPE, FlagVeryHighPE, FlagNegativeEarnings, FlagRevenueDecline, FlagEarningsDecline,
		FlagLargeLoss, FlagRiskToleranceExceeded:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// Trivial reports flags that carry no information for a reader.
func (f Flag) Trivial() bool {
	return f == FlagInsufficientData || f == FlagNotApplicable || f == FlagLayerError
}

// Title formats the flag for display: "strong_bullish_momentum" -> "Strong Bullish Momentum".
func (f Flag) Title() string {
	parts := strings.Split(string(f), "_")
	for i, p := range parts {
		switch p {
		case "pe", "macd":
			parts[i] = strings.ToUpper(p)
		case "":
		default:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// LayerOutput is what a layer hands back to the engine.
type LayerOutput struct {
	Layer    LayerName          `json:"layer"`
	Score    float64            `json:"score"` // 0..10
	Flags    []Flag             `json:"flags"`
	Note     string             `json:"note"`
	Metadata map[string]float64 `json:"metadata,omitempty"`
}

// NewLayerOutput builds an output with the score clamped to [0,10].
func NewLayerOutput(layer LayerName, score float64, flags []Flag, note string, meta map[string]float64) LayerOutput {
	if flags == nil {
		flags = []Flag{}
	}
	return LayerOutput{
		Layer:    layer,
		Score:    Clamp(score, 0, 10),
		Flags:    flags,
		Note:     note,
		Metadata: meta,
	}
}

// NeutralOutput is the degraded result: score 5 with a single flag.
func NeutralOutput(layer LayerName, flag Flag, note string) LayerOutput {
	return NewLayerOutput(layer, 5, []Flag{flag}, note, nil)
}

// Has reports whether the output carries flag.
func (o LayerOutput) Has(flag Flag) bool {
	for _, f := range o.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Degraded reports whether the layer produced no real opinion.
func (o LayerOutput) Degraded() bool {
	return o.Has(FlagInsufficientData) || o.Has(FlagNotApplicable) || o.Has(FlagLayerError)
}

func (o LayerOutput) clone() LayerOutput {
	c := o
	c.Flags = append([]Flag(nil), o.Flags...)
	if o.Metadata != nil {
		c.Metadata = make(map[string]float64, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}
