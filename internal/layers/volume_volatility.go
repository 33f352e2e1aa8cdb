package layers

import (
	"context"
	"fmt"

	"signalDesk/internal/domain"
	"signalDesk/internal/strategy/indicators"
)

const (
	volMinCandles      = 20
	volLongPeriod      = 20
	volShortPeriod     = 5
	volHighRatio       = 1.5
	volLowRatio        = 0.7
	volVeryHigh        = 0.5
	volHigh            = 0.3
	volLow             = 0.15
	volRiskOnlyAmplify = 1.5
	volLookbackCandles = 60
	atrPeriod          = 14
	MetaVolatility     = "volatility"
	MetaVolumeRatio    = "volumeRatio"
	MetaATRPercent     = "atrPercent"
)

// VolumeVolatility reads participation and realised volatility.
type VolumeVolatility struct {
	atr *indicators.ATR
}

func NewVolumeVolatility() *VolumeVolatility {
	return &VolumeVolatility{atr: indicators.NewATR(indicators.ATRConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: atrPeriod},
	})}
}

func (v *VolumeVolatility) Name() domain.LayerName { return domain.LayerVolumeVolatility }

func (v *VolumeVolatility) IsApplicable(domain.Mode) bool { return true }

func (v *VolumeVolatility) Analyze(ctx context.Context, in Input) (domain.LayerOutput, error) {
	candles := in.Market.Candles
	if len(candles) < volMinCandles {
		return domain.NeutralOutput(domain.LayerVolumeVolatility, domain.FlagInsufficientData,
			fmt.Sprintf("Only %d candles available; volume analysis needs %d.", len(candles), volMinCandles)), nil
	}

	longAvg, err := indicators.AverageVolume(candles, volLongPeriod)
	if err != nil {
		return domain.LayerOutput{}, err
	}
	shortAvg, err := indicators.AverageVolume(candles, volShortPeriod)
	if err != nil {
		return domain.LayerOutput{}, err
	}
	ratio := 1.0
	if longAvg > 0 {
		ratio = shortAvg / longAvg
	}

	window := candles
	if len(window) > volLookbackCandles {
		window = window[len(window)-volLookbackCandles:]
	}
	vol, err := indicators.AnnualizedVolatility(domain.Closes(window))
	if err != nil {
		return domain.LayerOutput{}, err
	}

	score := 5.0
	var flags []domain.Flag

	last, prev := candles[len(candles)-1], candles[len(candles)-2]
	switch {
	case ratio > volHighRatio:
		flags = append(flags, domain.FlagHighVolume)
		if last.Close > prev.Close {
			score += 1
			flags = append(flags, domain.FlagHighVolumeBuying)
		} else if last.Close < prev.Close {
			score -= 1
			flags = append(flags, domain.FlagHighVolumeSelling)
		}
	case ratio < volLowRatio:
		score -= 0.5
		flags = append(flags, domain.FlagLowVolume)
	}

	adj := 0.0
	switch {
	case vol > volVeryHigh:
		adj = -2
		flags = append(flags, domain.FlagVeryHighVolatility)
	case vol > volHigh:
		adj = -1
		flags = append(flags, domain.FlagHighVolatility)
	case vol < volLow:
		adj = 1
		flags = append(flags, domain.FlagLowVolatility)
	}
	if in.Mode == domain.ModeRiskOnly {
		adj *= volRiskOnlyAmplify
	}
	score += adj

	meta := map[string]float64{
		MetaVolumeRatio: round2(ratio),
		MetaVolatility:  vol,
	}
	if atr, err := v.atr.Calculate(ctx, candles); err == nil && last.Close > 0 {
		meta[MetaATRPercent] = round2(atr / last.Close * 100)
	}

	note := fmt.Sprintf("Annualized volatility %.0f%% with recent volume at %.2fx the 20-period average.", vol*100, ratio)
	return domain.NewLayerOutput(domain.LayerVolumeVolatility, score, flags, note, meta), nil
}
