// Package playbook maps engine scores to a discrete, actionable tier.
package playbook

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"signalDesk/internal/domain"
)

// Config holds the classification thresholds on the engine's native scales.
type Config struct {
	StrongBuyThreshold  float64 `yaml:"strong_buy"`
	BuyThreshold        float64 `yaml:"buy"`
	StrongSellThreshold float64 `yaml:"strong_sell"`
	TakeProfitThreshold float64 `yaml:"take_profit"`
	HighRiskThreshold   float64 `yaml:"high_risk"`
	NeutralThreshold    float64 `yaml:"neutral"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		StrongBuyThreshold:  8.0,
		BuyThreshold:        6.5,
		StrongSellThreshold: 8.0,
		TakeProfitThreshold: 6.5,
		HighRiskThreshold:   70,
		NeutralThreshold:    1.0,
	}
}

// Validate checks ranges and ordering.
func (c Config) Validate() error {
	var errs []string
	for name, v := range map[string]float64{
		"strong_buy":  c.StrongBuyThreshold,
		"buy":         c.BuyThreshold,
		"strong_sell": c.StrongSellThreshold,
		"take_profit": c.TakeProfitThreshold,
	} {
		if v < 0 || v > 10 {
			errs = append(errs, fmt.Sprintf("%s must be within 0-10, got %.2f", name, v))
		}
	}
	if c.HighRiskThreshold < 0 || c.HighRiskThreshold > 100 {
		errs = append(errs, fmt.Sprintf("high_risk must be within 0-100, got %.2f", c.HighRiskThreshold))
	}
	if c.NeutralThreshold < 0 {
		errs = append(errs, "neutral must not be negative")
	}
	if c.StrongBuyThreshold < c.BuyThreshold {
		errs = append(errs, "strong_buy must be >= buy")
	}
	if c.StrongSellThreshold < c.TakeProfitThreshold {
		errs = append(errs, "strong_sell must be >= take_profit")
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return errors.New("invalid playbook config: " + strings.Join(errs, "; "))
	}
	return nil
}

// Classify evaluates the rules in priority order; the first match wins.
func Classify(r *domain.AnalysisResult, cfg Config) domain.PlaybookResult {
	buy, sell, risk := r.BuyScore, r.SellScore, r.RiskScore

	switch {
	case risk >= cfg.HighRiskThreshold:
		return domain.PlaybookResult{
			Tier:      domain.TierHighRiskAvoid,
			Action:    "Stay out or cut exposure; risk outweighs any setup.",
			Reasoning: fmt.Sprintf("Risk score %.1f is at or above %.0f regardless of buy %.1f / sell %.1f.", risk, cfg.HighRiskThreshold, buy, sell),
		}
	case math.Abs(buy-sell) <= cfg.NeutralThreshold:
		return neutral(fmt.Sprintf("Buy %.1f and sell %.1f are within %.1f of each other.", buy, sell, cfg.NeutralThreshold))
	case buy >= cfg.StrongBuyThreshold && sell < cfg.TakeProfitThreshold:
		return domain.PlaybookResult{
			Tier:      domain.TierStrongBuy,
			Action:    "Build a full position in planned tranches.",
			Reasoning: fmt.Sprintf("Buy score %.1f clears %.1f while sell pressure %.1f stays below %.1f.", buy, cfg.StrongBuyThreshold, sell, cfg.TakeProfitThreshold),
		}
	case buy >= cfg.BuyThreshold && sell < cfg.TakeProfitThreshold:
		return domain.PlaybookResult{
			Tier:      domain.TierBuy,
			Action:    "Open or add a starter position.",
			Reasoning: fmt.Sprintf("Buy score %.1f clears %.1f while sell pressure %.1f stays below %.1f.", buy, cfg.BuyThreshold, sell, cfg.TakeProfitThreshold),
		}
	case sell >= cfg.StrongSellThreshold && buy < cfg.BuyThreshold:
		return domain.PlaybookResult{
			Tier:      domain.TierStrongSell,
			Action:    "Exit the position or hedge it.",
			Reasoning: fmt.Sprintf("Sell score %.1f clears %.1f with buy support %.1f below %.1f.", sell, cfg.StrongSellThreshold, buy, cfg.BuyThreshold),
		}
	case sell >= cfg.TakeProfitThreshold && buy < cfg.BuyThreshold:
		return domain.PlaybookResult{
			Tier:      domain.TierTakeProfit,
			Action:    "Trim into strength and tighten stops.",
			Reasoning: fmt.Sprintf("Sell score %.1f clears %.1f with buy support %.1f below %.1f.", sell, cfg.TakeProfitThreshold, buy, cfg.BuyThreshold),
		}
	}
	return neutral(fmt.Sprintf("Buy %.1f / sell %.1f do not clear any tier threshold.", buy, sell))
}

func neutral(reasoning string) domain.PlaybookResult {
	return domain.PlaybookResult{
		Tier:      domain.TierNeutral,
		Action:    "Wait for a clearer setup.",
		Reasoning: reasoning,
	}
}
