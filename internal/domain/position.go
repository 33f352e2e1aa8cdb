package domain

// RiskTolerance is the caller's self-declared appetite for drawdown.
type RiskTolerance string

const (
	RiskToleranceUnset  RiskTolerance = ""
	RiskToleranceLow    RiskTolerance = "low"
	RiskToleranceMedium RiskTolerance = "medium"
	RiskToleranceHigh   RiskTolerance = "high"
)

// UserPosition describes a holding supplied by the caller.
type UserPosition struct {
	Ticker        string        `json:"ticker"`
	AvgEntryPrice float64       `json:"avgEntryPrice"`
	Quantity      float64       `json:"quantity"`
	CurrentPrice  float64       `json:"currentPrice"`
	PnL           float64       `json:"pnl"`        // Currency P&L, derived
	PnLPercent    float64       `json:"pnlPercent"` // Percent P&L, derived
	RiskTolerance RiskTolerance `json:"riskTolerance,omitempty"`
}

// Recompute returns a copy with P&L derived from price. A non-positive price keeps the
// position's own CurrentPrice. Caller-supplied P&L is never trusted.
func (p UserPosition) Recompute(price float64) UserPosition {
	if price > 0 {
		p.CurrentPrice = price
	}
	p.PnL = (p.CurrentPrice - p.AvgEntryPrice) * p.Quantity
	if p.AvgEntryPrice > 0 {
		p.PnLPercent = (p.CurrentPrice - p.AvgEntryPrice) / p.AvgEntryPrice * 100
	} else {
		p.PnLPercent = 0
	}
	return p
}
