package indicators

import (
	"fmt"
	"math"

	"signalDesk/internal/domain"
)

// TradingDaysPerYear annualises daily return volatility.
const TradingDaysPerYear = 252

// AnnualizedVolatility is the population standard deviation of close-to-close returns
// scaled by sqrt(252).
func AnnualizedVolatility(closes []float64) (float64, error) {
	if len(closes) < 3 {
		return 0, fmt.Errorf("%w: volatility needs 3 closes, got %d", ErrInsufficientData, len(closes))
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: not enough valid returns", ErrInsufficientData)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear), nil
}

// AverageVolume is the mean volume of the last period candles.
func AverageVolume(candles []domain.Candle, period int) (float64, error) {
	if period <= 0 || len(candles) < period {
		return 0, fmt.Errorf("%w: volume average needs %d, got %d", ErrInsufficientData, period, len(candles))
	}
	total := 0.0
	for _, c := range candles[len(candles)-period:] {
		total += c.Volume
	}
	return total / float64(period), nil
}
