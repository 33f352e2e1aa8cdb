// Package layers holds the six independent scoring lenses the engine combines.
package layers

import (
	"context"

	"signalDesk/internal/domain"
)

// Input is shared read-only by every layer during one analysis.
type Input struct {
	Ticker       string
	Mode         domain.Mode
	Market       domain.MarketData
	Fundamentals *domain.FundamentalData
	Position     *domain.UserPosition
}

// Layer scores an instrument 0..10 on one dimension. Implementations must be pure
// functions of Input and safe to run concurrently. Missing data degrades to a neutral
// output rather than an error; an error is reserved for unexpected faults.
type Layer interface {
	Name() domain.LayerName
	IsApplicable(mode domain.Mode) bool
	Analyze(ctx context.Context, in Input) (domain.LayerOutput, error)
}

// Registry returns the fixed, ordered layer set. Key factors and the breakdown follow this order.
func Registry() []Layer {
	return []Layer{
		NewTrend(),
		NewMomentum(),
		NewSupportResistance(),
		NewVolumeVolatility(),
		NewFundamentals(),
		NewUserPosition(),
	}
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
