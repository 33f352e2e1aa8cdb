package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"signalDesk/internal/domain"
)

var candleHeader = []string{"open_time", "ticker", "timeframe", "open", "high", "low", "close", "volume"}

var analysisHeader = []string{
	"timestamp", "ticker", "asset_type", "mode", "price", "buy_score", "sell_score", "risk_score",
	"regime", "action", "trend", "momentum", "support_resistance", "volume_volatility",
	"fundamentals", "user_position", "key_factors",
}

// WriteCandlesToCSV writes candles to filename, creating its directory if needed.
func WriteCandlesToCSV(candles []domain.Candle, ticker, timeframe, filename string) error {
	return writeFile(filename, func(w io.Writer) error {
		return WriteCandles(w, candles, ticker, timeframe)
	})
}

// WriteAnalysesToCSV writes one row per analysis result to filename.
func WriteAnalysesToCSV(results []*domain.AnalysisResult, filename string) error {
	return writeFile(filename, func(w io.Writer) error {
		return WriteAnalyses(w, results)
	})
}

// WriteCandles writes a header and one row per candle.
func WriteCandles(w io.Writer, candles []domain.Candle, ticker, timeframe string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(candleHeader); err != nil {
		return err
	}
	for _, c := range candles {
		if err := writer.Write([]string{
			c.Time().UTC().Format(time.RFC3339),
			ticker,
			timeframe,
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteAnalyses writes a header and one row per result. Nil results are skipped.
func WriteAnalyses(w io.Writer, results []*domain.AnalysisResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(analysisHeader); err != nil {
		return err
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		labels := make([]string, 0, len(r.KeyFactors))
		for _, kf := range r.KeyFactors {
			labels = append(labels, kf.Label)
		}
		b := r.LayerBreakdown
		if err := writer.Write([]string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Ticker,
			string(r.AssetType),
			string(r.Mode),
			formatFloat(r.CurrentPrice),
			formatFloat(r.BuyScore),
			formatFloat(r.SellScore),
			formatFloat(r.RiskScore),
			string(r.MarketRegime),
			string(r.SuggestedAction),
			formatFloat(b.Trend),
			formatFloat(b.Momentum),
			formatFloat(b.SupportResistance),
			formatFloat(b.VolumeVolatility),
			formatFloat(b.Fundamentals),
			formatFloat(b.UserPosition),
			strings.Join(labels, "; "),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeFile(filename string, write func(io.Writer) error) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
