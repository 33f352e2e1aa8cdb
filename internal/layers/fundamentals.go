package layers

import (
	"context"
	"fmt"
	"strings"

	"signalDesk/internal/domain"
)

// Fundamentals scores valuation and growth for stocks and ETFs.
type Fundamentals struct{}

func NewFundamentals() *Fundamentals { return &Fundamentals{} }

func (f *Fundamentals) Name() domain.LayerName { return domain.LayerFundamentals }

// IsApplicable excludes risk-only mode.
func (f *Fundamentals) IsApplicable(mode domain.Mode) bool { return mode != domain.ModeRiskOnly }

func (f *Fundamentals) Analyze(_ context.Context, in Input) (domain.LayerOutput, error) {
	if in.Market.AssetType == domain.AssetCrypto {
		return domain.NeutralOutput(domain.LayerFundamentals, domain.FlagNotApplicable,
			"Fundamentals do not apply to crypto assets."), nil
	}
	fd := in.Fundamentals
	if fd == nil {
		return domain.NeutralOutput(domain.LayerFundamentals, domain.FlagNotApplicable,
			"No fundamental data available."), nil
	}

	score := 5.0
	var flags []domain.Flag
	var parts []string
	meta := map[string]float64{}

	if pe := fd.PERatio; pe != nil {
		meta["peRatio"] = round2(*pe)
		switch {
		case *pe <= 0:
			score -= 1
			flags = append(flags, domain.FlagNegativeEarnings)
			parts = append(parts, "negative earnings")
		case *pe < 15:
			score += 1.5
			flags = append(flags, domain.FlagLowPE)
			parts = append(parts, fmt.Sprintf("attractive P/E of %.1f", *pe))
		case *pe > 50:
			score -= 2.5
			flags = append(flags, domain.FlagVeryHighPE)
			parts = append(parts, fmt.Sprintf("very rich P/E of %.1f", *pe))
		case *pe > 30:
			score -= 1.5
			flags = append(flags, domain.FlagHighPE)
			parts = append(parts, fmt.Sprintf("elevated P/E of %.1f", *pe))
		}
	}

	if g := fd.RevenueGrowth; g != nil {
		meta["revenueGrowth"] = round2(*g)
		switch {
		case *g > 20:
			score += 1.5
			flags = append(flags, domain.FlagStrongRevenueGrowth)
			parts = append(parts, fmt.Sprintf("revenue growing %.0f%%", *g))
		case *g > 10:
			score += 0.5
			flags = append(flags, domain.FlagRevenueGrowth)
			parts = append(parts, fmt.Sprintf("revenue growing %.0f%%", *g))
		case *g < 0:
			score -= 1.5
			flags = append(flags, domain.FlagRevenueDecline)
			parts = append(parts, fmt.Sprintf("revenue shrinking %.0f%%", -*g))
		}
	}

	if g := fd.EarningsGrowth; g != nil {
		meta["earningsGrowth"] = round2(*g)
		switch {
		case *g > 20:
			score += 1
			flags = append(flags, domain.FlagStrongEarningsGrowth)
			parts = append(parts, fmt.Sprintf("earnings growing %.0f%%", *g))
		case *g < 0:
			score -= 1
			flags = append(flags, domain.FlagEarningsDecline)
			parts = append(parts, fmt.Sprintf("earnings shrinking %.0f%%", -*g))
		}
	}

	// Short holding periods care less about valuation.
	if in.Mode == domain.ModeSwing {
		score = 5 + (score-5)/2
	}

	note := "Fundamentals are unremarkable."
	if len(parts) > 0 {
		note = "Fundamentals show " + strings.Join(parts, ", ") + "."
	}
	return domain.NewLayerOutput(domain.LayerFundamentals, score, flags, note, meta), nil
}
