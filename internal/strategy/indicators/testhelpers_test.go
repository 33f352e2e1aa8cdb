package indicators

import "signalDesk/internal/domain"

// candlesFromCloses builds hourly candles with high/low one unit around the close.
func candlesFromCloses(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			Timestamp: int64(i) * 3_600_000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return a-b < 0.0001 && b-a < 0.0001
}
