package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"signalDesk/config"
	"signalDesk/internal/adapters/logger"
	"signalDesk/internal/bootstrap"
	"signalDesk/internal/domain"
	"signalDesk/internal/utils"
)

var (
	ticker    = flag.String("ticker", "ETH", "ticker to fetch")
	timeframe = flag.String("timeframe", "1H", "candle timeframe: 1H, 4H, 1D or 1W")
	days      = flag.Int("days", 90, "history length in days (live crypto only)")
	limit     = flag.Int("limit", 500, "number of candles for non-ranged sources")
	out       = flag.String("out", "", "output CSV path (default data/<ticker>_<tf>_<from>_to_<to>.csv)")
)

func main() {
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Market data (no cache: dumps always read the source)
	md, err := bootstrap.NewMarketData(cfg, appLogger, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data providers: %v", err)
	}

	sym := domain.NormalizeTicker(*ticker)
	tf := strings.ToUpper(strings.TrimSpace(*timeframe))
	if _, ok := domain.TimeframeDuration(tf); !ok {
		log.Fatalf("FATAL: unsupported timeframe %q", *timeframe)
	}
	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	var candles []domain.Candle
	if md.Binance != nil && domain.DetectAssetType(sym) == domain.AssetCrypto {
		fmt.Printf("Fetching %s %s candles from %s to %s...\n", sym, tf, start.Format(time.DateOnly), end.Format(time.DateOnly))
		candles, err = md.Binance.GetCandlesRange(ctx, sym, tf, start, end)
	} else {
		fmt.Printf("Fetching the last %d %s %s candles from %s...\n", *limit, sym, tf, md.Provider.Name())
		candles, err = md.Provider.GetCandles(ctx, sym, tf, *limit)
	}
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(ctx, "Fetched candles", map[string]interface{}{"count": len(candles)})
	if len(candles) == 0 {
		return
	}

	filename := *out
	if filename == "" {
		first, last := candles[0].Time(), candles[len(candles)-1].Time()
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", sym, tf, first.Format("20060102"), last.Format("20060102"))
	}
	if err := utils.WriteCandlesToCSV(candles, sym, tf, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
}
