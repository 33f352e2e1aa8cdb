package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"signalDesk/config"
	"signalDesk/internal/adapters/logger"
	"signalDesk/internal/adapters/sqlite"
	"signalDesk/internal/app"
	"signalDesk/internal/bootstrap"
	"signalDesk/internal/domain"
	"signalDesk/internal/engine"
	"signalDesk/internal/utils"
)

var (
	tickers = flag.String("tickers", "BTC", "comma-separated tickers to analyse")
	mode    = flag.String("mode", "swing", "analysis mode: long_term, swing or risk_only")
	csvOut  = flag.String("csv", "", "write results to this CSV file")
	asJSON  = flag.Bool("json", false, "print full reports as JSON")
	persist = flag.Bool("persist", false, "record results in the signal log database")
	history = flag.Int("history", 0, "print the N most recent logged signals per ticker instead of analysing")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the process exit code so deferred closes execute before exit.
func run() int {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	m, ok := domain.ParseMode(*mode)
	if !ok {
		log.Fatalf("FATAL: unknown mode %q", *mode)
	}
	list := splitTickers(*tickers)
	if len(list) == 0 {
		log.Fatalf("FATAL: no tickers given")
	}

	ctx := context.Background()
	appLogger := logger.NewStdLogger(cfg.LogLevel)

	var repo *sqlite.Repository
	if *persist || *history > 0 {
		repo, err = sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to open signal database: %v", err)
		}
		defer repo.Close()
	}

	if *history > 0 {
		for _, t := range list {
			results, err := repo.RecentSignals(ctx, t, *history)
			if err != nil {
				log.Fatalf("Error reading signal history for %s: %v", t, err)
			}
			for _, r := range results {
				printSummary(r, "")
			}
		}
		return 0
	}

	rdb, err := bootstrap.NewRedis(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Warn(ctx, "Redis unavailable, continuing without cache", map[string]interface{}{"error": err.Error()})
	}
	if rdb != nil {
		defer rdb.Close()
	}
	md, err := bootstrap.NewMarketData(cfg, appLogger, rdb)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data providers: %v", err)
	}

	var engineOpts []engine.Option
	engineOpts = append(engineOpts, engine.WithLayerTimeout(cfg.LayerTimeout))
	var dispatcher *app.LogDispatcher
	if repo != nil {
		dispatcher = app.NewLogDispatcher(repo, appLogger, cfg.LogQueueSize)
		engineOpts = append(engineOpts, engine.WithSignalLogger(dispatcher))
	}

	analyzer, err := app.NewAnalyzer(md.Provider, engine.New(appLogger, engineOpts...), appLogger,
		app.WithProviderTimeout(cfg.ProviderTimeout),
		app.WithCandleLimit(cfg.CandleLimit),
		app.WithPlaybook(cfg.Playbook),
	)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize analyzer: %v", err)
	}

	var results []*domain.AnalysisResult
	exitCode := 0
	for _, t := range list {
		rep, err := analyzer.Evaluate(ctx, t, m, "", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", t, err)
			exitCode = 1
			continue
		}
		results = append(results, rep.Analysis)
		if *asJSON {
			out, _ := json.MarshalIndent(rep, "", "  ")
			fmt.Println(string(out))
			continue
		}
		printSummary(rep.Analysis, string(rep.Playbook.Tier))
	}

	if dispatcher != nil {
		if err := dispatcher.Close(ctx); err != nil {
			appLogger.Error(ctx, err, "Signal log dispatcher did not drain")
		}
	}
	if *csvOut != "" {
		if err := utils.WriteAnalysesToCSV(results, *csvOut); err != nil {
			log.Fatalf("Error writing CSV: %v", err)
		}
		appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": *csvOut, "rows": len(results)})
	}
	return exitCode
}

func printSummary(r *domain.AnalysisResult, tier string) {
	fmt.Printf("%-8s %-9s price=%-12s buy=%.1f sell=%.1f risk=%.0f regime=%s action=%s",
		r.Ticker, r.Mode, fmt.Sprintf("%.4f", r.CurrentPrice), r.BuyScore, r.SellScore, r.RiskScore, r.MarketRegime, r.SuggestedAction)
	if tier != "" {
		fmt.Printf(" tier=%q", tier)
	}
	fmt.Printf("\n         %s\n", r.Explanation)
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
