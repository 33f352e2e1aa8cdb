package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalDesk/config"
	"signalDesk/internal/adapters/httpapi"
	"signalDesk/internal/adapters/logger"
	"signalDesk/internal/adapters/rediscache"
	"signalDesk/internal/adapters/sqlite"
	"signalDesk/internal/adapters/telegram"
	"signalDesk/internal/alert"
	"signalDesk/internal/app"
	"signalDesk/internal/bootstrap"
	"signalDesk/internal/engine"
	"signalDesk/internal/ports"
	"signalDesk/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger.With("sqlite"),
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized")

	// 4. Optional Redis cache. The service runs without it.
	rdb, err := bootstrap.NewRedis(ctx, cfg, appLogger.With("redis"))
	if err != nil {
		appLogger.Warn(ctx, "Redis unavailable, continuing without cache", map[string]interface{}{"error": err.Error()})
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 5. Market data providers
	md, err := bootstrap.NewMarketData(cfg, appLogger.With("marketdata"), rdb)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market data providers")
		log.Fatalf("FATAL: Failed to initialize market data providers: %v", err)
	}
	appLogger.Info(ctx, "Market data provider initialized", map[string]interface{}{"provider": md.Provider.Name()})

	// 6. Signal log dispatcher and engine
	dispatcher := app.NewLogDispatcher(repo, appLogger.With("signallog"), cfg.LogQueueSize)
	eng := engine.New(appLogger.With("engine"),
		engine.WithSignalLogger(dispatcher),
		engine.WithLayerTimeout(cfg.LayerTimeout),
	)

	// 7. Alert service
	var alertStore ports.AlertStore = repo
	if rdb != nil {
		alertStore = rediscache.NewAlertStore(rdb, cfg.AlertWindow, repo, "alerts")
	}
	var notifier ports.Notifier
	if cfg.TelegramBotToken != "" {
		tg, err := telegram.New(telegram.Config{BotToken: cfg.TelegramBotToken, ChatID: cfg.TelegramChatID, Logger: appLogger.With("telegram")})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize Telegram notifier")
			log.Fatalf("FATAL: Failed to initialize Telegram notifier: %v", err)
		}
		notifier = tg
	}
	alerts := alert.NewService(alert.Config{
		Ticker:   cfg.AlertTicker,
		Mode:     cfg.AlertMode,
		Window:   cfg.AlertWindow,
		Playbook: cfg.Playbook,
	}, repo, alertStore, notifier, appLogger.With("alert"))

	// 8. Initialize Application Service
	analyzer, err := app.NewAnalyzer(md.Provider, eng, appLogger.With("analyzer"),
		app.WithProviderTimeout(cfg.ProviderTimeout),
		app.WithCandleLimit(cfg.CandleLimit),
		app.WithPlaybook(cfg.Playbook),
		app.WithAlerts(alerts),
	)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize analyzer")
		log.Fatalf("FATAL: Failed to initialize analyzer: %v", err)
	}

	// 9. HTTP surface
	var cache httpapi.CacheInvalidator
	if md.Cache != nil {
		cache = md.Cache
	}
	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewHandler(analyzer, repo, repo, cache, appLogger.With("http")))
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	// 10. Scheduled watchlist scan
	var sched *scheduler.Scheduler
	if cfg.ScanCron != "" {
		sched = scheduler.New(ctx, scheduler.Config{
			Spec:      cfg.ScanCron,
			Watchlist: cfg.Watchlist,
			Mode:      cfg.WatchMode,
			UserIDs:   cfg.AlertUserIDs,
		}, analyzer, alerts, appLogger.With("scheduler"))
		if err := sched.Register(); err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to register watchlist scan")
			log.Fatalf("FATAL: Failed to register watchlist scan: %v", err)
		}
		sched.Start()
	}

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			appLogger.Error(context.Background(), err, "HTTP server exited with error")
		}
	}

	// 11. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "HTTP server shutdown failed")
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "Signal log dispatcher did not drain")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
