package indicators

import (
	"fmt"
	"math"
)

// MACDResult is the MACD proxy reading.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// Bullish reports the MACD line above its signal line.
func (m MACDResult) Bullish() bool {
	return m.Histogram > macdTolerance(m.MACD)
}

// Bearish reports the MACD line below its signal line.
func (m MACDResult) Bearish() bool {
	return m.Histogram < -macdTolerance(m.MACD)
}

// macdTolerance absorbs float noise from averaging equal values.
func macdTolerance(v float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(v))
}

// MACDProxy computes EMA(fast) - EMA(slow) of closes. Both periods shrink to the series
// length on short histories. The signal line is an EMA(signal) taken over the MACD value
// repeated signal times, not over a historical MACD series, so the line sits on the MACD
// value and the crossover reading is usually flat.
func MACDProxy(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if len(closes) == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}, fmt.Errorf("%w: MACD needs closes and positive periods", ErrInsufficientData)
	}
	fastEMA, err := EMA(closes, min(fast, len(closes)))
	if err != nil {
		return MACDResult{}, err
	}
	slowEMA, err := EMA(closes, min(slow, len(closes)))
	if err != nil {
		return MACDResult{}, err
	}
	macd := fastEMA - slowEMA

	repeated := make([]float64, signal)
	for i := range repeated {
		repeated[i] = macd
	}
	sig, err := EMA(repeated, signal)
	if err != nil {
		return MACDResult{}, err
	}
	return MACDResult{MACD: macd, Signal: sig, Histogram: macd - sig}, nil
}
