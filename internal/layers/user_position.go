package layers

import (
	"context"
	"fmt"
	"math"

	"signalDesk/internal/domain"
)

const (
	largeProfitPct      = 50.0
	moderateProfitPct   = 25.0
	largeLossPct        = -30.0
	lowToleranceMovePct = 20.0
	MetaPnLPercent      = "pnlPercent"
)

// UserPosition scores an existing holding. Its raw score is buy-oriented: profits lower it.
type UserPosition struct{}

func NewUserPosition() *UserPosition { return &UserPosition{} }

func (u *UserPosition) Name() domain.LayerName { return domain.LayerUserPosition }

func (u *UserPosition) IsApplicable(domain.Mode) bool { return true }

func (u *UserPosition) Analyze(_ context.Context, in Input) (domain.LayerOutput, error) {
	if in.Position == nil {
		return domain.NeutralOutput(domain.LayerUserPosition, domain.FlagNoPosition, "No position held."), nil
	}
	if in.Position.AvgEntryPrice <= 0 || in.Position.Quantity <= 0 {
		return domain.NeutralOutput(domain.LayerUserPosition, domain.FlagInsufficientData,
			"Position is missing an entry price or quantity."), nil
	}

	pos := in.Position.Recompute(in.Market.CurrentPrice)
	score := 5.0
	var flags []domain.Flag

	switch {
	case pos.PnLPercent > largeProfitPct:
		score -= 3
		flags = append(flags, domain.FlagLargeProfit)
	case pos.PnLPercent > moderateProfitPct:
		score -= 1.5
		flags = append(flags, domain.FlagModerateProfit)
	case pos.PnLPercent < largeLossPct:
		// Flagged only: a large loss may argue for averaging down or for exiting.
		flags = append(flags, domain.FlagLargeLoss)
	}
	if pos.RiskTolerance == domain.RiskToleranceLow && math.Abs(pos.PnLPercent) > lowToleranceMovePct {
		flags = append(flags, domain.FlagRiskToleranceExceeded)
	}

	note := fmt.Sprintf("Position is %+.1f%% (%+.2f) from an average entry of %.2f.",
		pos.PnLPercent, pos.PnL, pos.AvgEntryPrice)
	return domain.NewLayerOutput(domain.LayerUserPosition, score, flags, note, map[string]float64{
		"pnl":          round2(pos.PnL),
		MetaPnLPercent: round2(pos.PnLPercent),
		"quantity":     pos.Quantity,
	}), nil
}
