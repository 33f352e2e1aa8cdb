package engine

import (
	"math"

	"signalDesk/internal/domain"
	"signalDesk/internal/layers"
)

// Asset-class risk adjustments.
const (
	cryptoRiskAdjustment = 10.0
	etfRiskAdjustment    = -5.0
	neutralRisk          = 50.0
)

type contribution func(domain.LayerOutput) float64

// flagBonus maps a flag to its adjustment; combos apply when every flag in the set is present.
type flagBonus struct {
	all   []domain.Flag
	bonus float64
}

var buyBonuses = map[domain.LayerName][]flagBonus{
	domain.LayerTrend: {
		{[]domain.Flag{domain.FlagUptrend, domain.FlagStrongTrend}, 0.5},
		{[]domain.Flag{domain.FlagDowntrend, domain.FlagStrongTrend}, -0.5},
	},
	domain.LayerMomentum: {
		{[]domain.Flag{domain.FlagStrongBullishMomentum}, 1.0},
		{[]domain.Flag{domain.FlagStrongBearishMomentum}, -1.0},
	},
	domain.LayerSupportResistance: {
		{[]domain.Flag{domain.FlagNearSupport}, 0.5},
		{[]domain.Flag{domain.FlagNearResistance}, -0.5},
	},
	domain.LayerVolumeVolatility: {
		{[]domain.Flag{domain.FlagHighVolumeBuying}, 0.5},
		{[]domain.Flag{domain.FlagHighVolumeSelling}, -0.5},
		{[]domain.Flag{domain.FlagVeryHighVolatility}, -0.5},
	},
	domain.LayerFundamentals: {
		{[]domain.Flag{domain.FlagLowPE, domain.FlagStrongRevenueGrowth}, 0.5},
		{[]domain.Flag{domain.FlagVeryHighPE}, -0.5},
	},
	domain.LayerUserPosition: {
		{[]domain.Flag{domain.FlagRiskToleranceExceeded}, -0.5},
	},
}

var sellBonuses = map[domain.LayerName][]flagBonus{
	domain.LayerTrend: {
		{[]domain.Flag{domain.FlagDowntrend, domain.FlagStrongTrend}, 0.5},
		{[]domain.Flag{domain.FlagUptrend, domain.FlagStrongTrend}, -0.5},
	},
	domain.LayerMomentum: {
		{[]domain.Flag{domain.FlagStrongBearishMomentum}, 1.0},
		{[]domain.Flag{domain.FlagStrongBullishMomentum}, -1.0},
	},
	domain.LayerSupportResistance: {
		{[]domain.Flag{domain.FlagNearResistance}, 0.5},
		{[]domain.Flag{domain.FlagNearSupport}, -0.5},
	},
	domain.LayerVolumeVolatility: {
		{[]domain.Flag{domain.FlagHighVolumeSelling}, 0.5},
		{[]domain.Flag{domain.FlagHighVolumeBuying}, -0.5},
		{[]domain.Flag{domain.FlagVeryHighVolatility}, 0.5},
	},
	domain.LayerFundamentals: {
		{[]domain.Flag{domain.FlagVeryHighPE}, 0.5},
		{[]domain.Flag{domain.FlagRevenueDecline, domain.FlagEarningsDecline}, 0.5},
		{[]domain.Flag{domain.FlagLowPE, domain.FlagStrongRevenueGrowth}, -0.5},
	},
	domain.LayerUserPosition: {
		{[]domain.Flag{domain.FlagLargeProfit}, 1.0},
		{[]domain.Flag{domain.FlagModerateProfit}, 0.5},
		{[]domain.Flag{domain.FlagLargeLoss}, 0.5},
		{[]domain.Flag{domain.FlagRiskToleranceExceeded}, 0.5},
	},
}

func bonusFor(table map[domain.LayerName][]flagBonus, out domain.LayerOutput) float64 {
	total := 0.0
	for _, b := range table[out.Layer] {
		matched := true
		for _, f := range b.all {
			if !out.Has(f) {
				matched = false
				break
			}
		}
		if matched {
			total += b.bonus
		}
	}
	return total
}

// buyContribution is the bullish reading of a layer: its raw score plus buy bonuses.
// The position layer's raw score is buy-oriented (it falls as profit grows), so buy takes it
// as is and sell takes 10 - raw like every other layer. Do not invert it here.
func buyContribution(out domain.LayerOutput) float64 {
	return domain.Clamp(out.Score+bonusFor(buyBonuses, out), 0, 10)
}

// sellContribution inverts the raw score: a bullish layer exerts little sell pressure.
func sellContribution(out domain.LayerOutput) float64 {
	return domain.Clamp(10-out.Score+bonusFor(sellBonuses, out), 0, 10)
}

// weightedScore is the mode-weighted mean; zero total weight yields the midpoint.
func weightedScore(outputs []domain.LayerOutput, w domain.WeightVector, c contribution) float64 {
	var sum, total float64
	for _, out := range outputs {
		weight := w.For(out.Layer)
		if weight <= 0 {
			continue
		}
		sum += weight * c(out)
		total += weight
	}
	if total == 0 {
		return 5
	}
	return round1(domain.Clamp(sum/total, 0, 10))
}

// layerRisk maps a layer output to a 0..100 risk sub-score.
func layerRisk(out domain.LayerOutput) float64 {
	if out.Degraded() {
		return neutralRisk
	}
	switch out.Layer {
	case domain.LayerTrend:
		switch {
		case out.Has(domain.FlagDowntrend):
			return 70
		case out.Has(domain.FlagUptrend):
			return 30
		}
		return 50
	case domain.LayerMomentum:
		switch {
		case out.Has(domain.FlagStrongBearishMomentum):
			return 75
		case out.Has(domain.FlagOverbought):
			return 70
		case out.Has(domain.FlagOversold):
			return 60
		case out.Has(domain.FlagMACDBearish):
			return 55
		}
		return 40
	case domain.LayerSupportResistance:
		switch {
		case out.Has(domain.FlagNoSupportBelow):
			return 70
		case out.Has(domain.FlagNearResistance):
			return 65
		case out.Has(domain.FlagApproachingResistance):
			return 55
		case out.Has(domain.FlagNearSupport):
			return 35
		}
		return 50
	case domain.LayerVolumeVolatility:
		vol := out.Metadata[layers.MetaVolatility]
		risk := 45.0
		switch {
		case vol > 0.5:
			risk = 85
		case vol > 0.3:
			risk = 65
		case vol < 0.15:
			risk = 25
		}
		if out.Has(domain.FlagHighVolumeSelling) {
			risk += 5
		}
		return math.Min(risk, 100)
	case domain.LayerFundamentals:
		risk := 40.0
		switch {
		case out.Has(domain.FlagVeryHighPE):
			risk = 75
		case out.Has(domain.FlagNegativeEarnings):
			risk = 70
		case out.Has(domain.FlagHighPE):
			risk = 60
		case out.Has(domain.FlagLowPE) && out.Has(domain.FlagStrongRevenueGrowth):
			risk = 30
		}
		if out.Has(domain.FlagRevenueDecline) {
			risk += 10
		}
		if out.Has(domain.FlagEarningsDecline) {
			risk += 10
		}
		return math.Min(risk, 100)
	case domain.LayerUserPosition:
		switch {
		case out.Has(domain.FlagLargeLoss):
			return 80
		case out.Has(domain.FlagRiskToleranceExceeded):
			return 75
		case out.Has(domain.FlagLargeProfit):
			return 55
		case out.Has(domain.FlagModerateProfit):
			return 45
		case out.Has(domain.FlagNoPosition):
			return neutralRisk
		}
		return 40
	}
	return neutralRisk
}

func assetRiskAdjustment(a domain.AssetType) float64 {
	switch a {
	case domain.AssetCrypto:
		return cryptoRiskAdjustment
	case domain.AssetETF:
		return etfRiskAdjustment
	}
	return 0
}

// riskScore combines layer risk by mode weight and applies the asset-class adjustment.
func riskScore(outputs []domain.LayerOutput, w domain.WeightVector, asset domain.AssetType) float64 {
	var sum, total float64
	for _, out := range outputs {
		weight := w.For(out.Layer)
		if weight <= 0 {
			continue
		}
		sum += weight * layerRisk(out)
		total += weight
	}
	base := neutralRisk
	if total > 0 {
		base = sum / total
	}
	return round1(domain.Clamp(base+assetRiskAdjustment(asset), 0, 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
