package engine

import (
	"fmt"
	"strings"

	"signalDesk/internal/domain"
)

// MaxKeyFactors caps the key factor list.
const MaxKeyFactors = 5

// Suggested action thresholds.
const (
	profitTakingPnLPct    = 25.0
	exitConsiderPnLPct    = -15.0
	positionSellTrigger   = 6.5
	positionRiskTrigger   = 70.0
	positionRiskExit      = 85.0
	entryRiskCeiling      = 75.0
	aggressiveBuyScore    = 8.0
	aggressiveRiskCeiling = 50.0
	watchBuyScore         = 5.0
)

func findOutput(outputs []domain.LayerOutput, layer domain.LayerName) (domain.LayerOutput, bool) {
	for _, o := range outputs {
		if o.Layer == layer {
			return o, true
		}
	}
	return domain.LayerOutput{}, false
}

func regime(outputs []domain.LayerOutput, buy, sell float64) domain.Regime {
	trend, _ := findOutput(outputs, domain.LayerTrend)
	switch {
	case (trend.Has(domain.FlagUptrend) && buy > 7) || buy-sell > 2:
		return domain.RegimeBull
	case (trend.Has(domain.FlagDowntrend) && sell > 7) || sell-buy > 2:
		return domain.RegimeBear
	}
	return domain.RegimeRange
}

func scoreBucket(buy, sell float64) string {
	side, score := "buy", buy
	if sell > buy {
		side, score = "sell", sell
	}
	switch {
	case score > 7:
		return fmt.Sprintf("Strong %s signal (%.1f/10).", side, score)
	case score > 6:
		return fmt.Sprintf("Moderate %s signal (%.1f/10).", side, score)
	}
	return fmt.Sprintf("Mixed signals (buy %.1f, sell %.1f).", buy, sell)
}

// supportingNote prefers fundamentals in long-term mode, then trend, then momentum.
func supportingNote(mode domain.Mode, outputs []domain.LayerOutput) string {
	order := []domain.LayerName{domain.LayerTrend, domain.LayerMomentum}
	if mode == domain.ModeLongTerm {
		order = append([]domain.LayerName{domain.LayerFundamentals}, order...)
	}
	for _, name := range order {
		if o, ok := findOutput(outputs, name); ok && !o.Degraded() && o.Note != "" {
			return o.Note
		}
	}
	return ""
}

func explain(ticker string, mode domain.Mode, r domain.Regime, outputs []domain.LayerOutput, buy, sell float64) string {
	var statement string
	switch r {
	case domain.RegimeBull:
		statement = fmt.Sprintf("%s is in a bullish regime.", ticker)
	case domain.RegimeBear:
		statement = fmt.Sprintf("%s is in a bearish regime.", ticker)
	default:
		statement = fmt.Sprintf("%s is range-bound.", ticker)
	}
	parts := []string{statement, scoreBucket(buy, sell)}
	if note := supportingNote(mode, outputs); note != "" {
		parts = append(parts, note)
	}
	return strings.Join(parts, " ")
}

func suggestAction(cfg domain.ModeConfig, pos *domain.UserPosition, price, buy, sell, risk float64) domain.SuggestedAction {
	if pos != nil && pos.AvgEntryPrice > 0 && pos.Quantity > 0 {
		pnl := pos.Recompute(price).PnLPercent
		switch {
		case pnl >= profitTakingPnLPct && sell >= positionSellTrigger:
			return domain.ActionTakePartialProfit
		case pnl <= exitConsiderPnLPct && (sell >= positionSellTrigger || risk >= positionRiskTrigger):
			return domain.ActionConsiderExit
		case risk >= positionRiskExit:
			return domain.ActionConsiderExit
		}
		return domain.ActionHold
	}

	switch {
	case risk >= entryRiskCeiling:
		return domain.ActionAvoidNewEntries
	case buy >= aggressiveBuyScore && risk < aggressiveRiskCeiling:
		return domain.ActionAccumulateAggressive
	case buy >= cfg.BuyThreshold && sell < cfg.SellThreshold:
		return domain.ActionAccumulateSmall
	case sell >= cfg.SellThreshold:
		return domain.ActionAvoidNewEntries
	case buy >= watchBuyScore && buy > sell:
		return domain.ActionHold
	}
	return domain.ActionNoAction
}

// keyFactors keeps the first MaxKeyFactors informative flags in layer order.
func keyFactors(outputs []domain.LayerOutput) []domain.KeyFactor {
	factors := make([]domain.KeyFactor, 0, MaxKeyFactors)
	for _, o := range outputs {
		for _, f := range o.Flags {
			if f.Trivial() {
				continue
			}
			factors = append(factors, domain.KeyFactor{
				Label:    f.Title(),
				Polarity: f.Polarity(),
				Layer:    o.Layer,
				Flag:     f,
			})
			if len(factors) == MaxKeyFactors {
				return factors
			}
		}
	}
	return factors
}

func breakdown(outputs []domain.LayerOutput) domain.LayerBreakdown {
	var b domain.LayerBreakdown
	for _, name := range domain.LayerNames {
		b.Set(name, 5)
	}
	for _, o := range outputs {
		b.Set(o.Layer, o.Score)
	}
	return b
}
