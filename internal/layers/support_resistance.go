package layers

import (
	"context"
	"fmt"

	"signalDesk/internal/domain"
	"signalDesk/internal/strategy/indicators"
)

const (
	srMinCandles  = 10
	srWindow      = 3
	srNearPct     = 2.0
	srApproachPct = 5.0
)

// SupportResistance scores proximity to the nearest swing levels.
type SupportResistance struct{}

func NewSupportResistance() *SupportResistance { return &SupportResistance{} }

func (s *SupportResistance) Name() domain.LayerName { return domain.LayerSupportResistance }

func (s *SupportResistance) IsApplicable(domain.Mode) bool { return true }

func (s *SupportResistance) Analyze(_ context.Context, in Input) (domain.LayerOutput, error) {
	candles := in.Market.Candles
	if len(candles) < srMinCandles {
		return domain.NeutralOutput(domain.LayerSupportResistance, domain.FlagInsufficientData,
			fmt.Sprintf("Only %d candles available; level detection needs %d.", len(candles), srMinCandles)), nil
	}

	price := in.Market.CurrentPrice
	if price <= 0 {
		price = candles[len(candles)-1].Close
	}

	support, hasSupport := indicators.NearestBelow(indicators.SwingLows(candles, srWindow), price)
	resistance, hasResistance := indicators.NearestAbove(indicators.SwingHighs(candles, srWindow), price)

	score := 5.0
	var flags []domain.Flag
	meta := map[string]float64{}

	if hasSupport {
		dist := (price - support) / price * 100
		meta["support"] = round2(support)
		meta["supportDistancePct"] = round2(dist)
		switch {
		case dist < srNearPct:
			score += 2.5
			flags = append(flags, domain.FlagNearSupport)
		case dist < srApproachPct:
			score += 1
			flags = append(flags, domain.FlagApproachingSupport)
		}
	} else {
		score -= 0.5
		flags = append(flags, domain.FlagNoSupportBelow)
	}

	if hasResistance {
		dist := (resistance - price) / price * 100
		meta["resistance"] = round2(resistance)
		meta["resistanceDistancePct"] = round2(dist)
		switch {
		case dist < srNearPct:
			score -= 2.5
			flags = append(flags, domain.FlagNearResistance)
		case dist < srApproachPct:
			score -= 1
			flags = append(flags, domain.FlagApproachingResistance)
		}
	} else {
		score += 0.5
		flags = append(flags, domain.FlagNoResistanceAbove)
	}

	return domain.NewLayerOutput(domain.LayerSupportResistance, score, flags,
		levelNote(price, support, hasSupport, resistance, hasResistance), meta), nil
}

func levelNote(price, support float64, hasSupport bool, resistance float64, hasResistance bool) string {
	switch {
	case hasSupport && hasResistance:
		return fmt.Sprintf("Price %.2f trades between support %.2f and resistance %.2f.", price, support, resistance)
	case hasSupport:
		return fmt.Sprintf("Support at %.2f; no swing resistance above %.2f.", support, price)
	case hasResistance:
		return fmt.Sprintf("Resistance at %.2f; no swing support below %.2f.", resistance, price)
	default:
		return fmt.Sprintf("No swing levels detected around %.2f.", price)
	}
}
