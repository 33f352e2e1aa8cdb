package domain

import "time"

// Tier is a discrete playbook classification.
type Tier string

const (
	TierStrongBuy     Tier = "Strong Buy"
	TierBuy           Tier = "Buy"
	TierNeutral       Tier = "Neutral"
	TierTakeProfit    Tier = "Take Profit"
	TierStrongSell    Tier = "Strong Sell"
	TierHighRiskAvoid Tier = "High-Risk Avoid"
)

// Alertable reports whether the tier can trigger a user alert.
func (t Tier) Alertable() bool {
	return t == TierStrongBuy || t == TierStrongSell
}

// PlaybookResult is a pure function of an AnalysisResult and thresholds.
type PlaybookResult struct {
	Tier      Tier   `json:"tier"`
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
}

// AlertEvent is an emitted alert.
type AlertEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Ticker    string    `json:"ticker"`
	Mode      Mode      `json:"mode"`
	Tier      Tier      `json:"tier"`
	Action    string    `json:"action"`
	BuyScore  float64   `json:"buyScore"`
	SellScore float64   `json:"sellScore"`
	RiskScore float64   `json:"riskScore"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}
