package indicators

import "signalDesk/internal/domain"

// SwingHighs returns highs that strictly exceed every high within window candles on both sides.
func SwingHighs(candles []domain.Candle, window int) []float64 {
	return swingPoints(candles, window, func(c domain.Candle) float64 { return c.High }, func(a, b float64) bool { return a > b })
}

// SwingLows returns lows strictly below every low within window candles on both sides.
func SwingLows(candles []domain.Candle, window int) []float64 {
	return swingPoints(candles, window, func(c domain.Candle) float64 { return c.Low }, func(a, b float64) bool { return a < b })
}

func swingPoints(candles []domain.Candle, window int, price func(domain.Candle) float64, dominates func(a, b float64) bool) []float64 {
	var out []float64
	for i := window; i < len(candles)-window; i++ {
		p := price(candles[i])
		ok := true
		for j := i - window; j <= i+window; j++ {
			if j != i && !dominates(p, price(candles[j])) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// NearestBelow returns the largest level strictly below price.
func NearestBelow(levels []float64, price float64) (float64, bool) {
	best, found := 0.0, false
	for _, l := range levels {
		if l < price && (!found || l > best) {
			best, found = l, true
		}
	}
	return best, found
}

// NearestAbove returns the smallest level strictly above price.
func NearestAbove(levels []float64, price float64) (float64, bool) {
	best, found := 0.0, false
	for _, l := range levels {
		if l > price && (!found || l < best) {
			best, found = l, true
		}
	}
	return best, found
}
