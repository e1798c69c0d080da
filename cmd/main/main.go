package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lounge-monitor/src/catalog"
	"lounge-monitor/src/config"
	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/monitor"
	"lounge-monitor/src/notify"
	"lounge-monitor/src/server"
	"lounge-monitor/src/session"
	"lounge-monitor/src/storage"
	"lounge-monitor/src/watch"

	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 1. Audit log storage
	var db interfaces.IHistoryStore

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresHistoryDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteHistoryDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// 2. Credentials. Engine state is in-memory only; a restart starts
	// from whatever the environment provides and the rest comes in over
	// the configuration API.
	sess := session.NewStore(os.Getenv("ZALANDO_TOKEN"), os.Getenv("ZALANDO_REFRESH_TOKEN"))

	// 3. Core components
	catalogClient, err := catalog.NewClient(&cfg.Catalog, sess, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init catalog client: %v", err)
	}
	notifier := notify.NewDiscordNotifier(&cfg.Notify, appLogger)
	registry := watch.NewRegistry(appLogger)

	promRegistry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(promRegistry)

	engine := monitor.NewEngine(cfg.MConfig, appLogger, registry, sess, catalogClient, notifier, db, nil, metrics)

	checkInterval := time.Duration(cfg.Monitor.CheckIntervalSeconds) * time.Second
	refreshInterval := time.Duration(cfg.Monitor.TokenRefreshMinutes) * time.Minute
	extendInterval := time.Duration(cfg.Monitor.CartExtendIntervalSeconds) * time.Second

	poller := monitor.NewPoller(engine, appLogger, checkInterval)
	tokens := monitor.NewTokenManager(sess, catalogClient, notifier, nil, metrics, appLogger, refreshInterval)
	cart := monitor.NewCartManager(catalogClient, nil, metrics, appLogger, extendInterval)
	engine.Cart = cart

	// 4. HTTP server doubles as the websocket event sink
	srv := server.NewAPIServer(cfg.MConfig, appLogger, engine, poller, tokens, sess, promRegistry)
	engine.Events = srv
	tokens.Events = srv
	cart.Events = srv

	// 5. Run everything under one cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cart.Bind(ctx)
	// The poll loop arms itself when the first watch arrives over the API.
	if sess.HasRefreshToken() {
		tokens.EnsureStarted(ctx)
	}

	go func() {
		if err := srv.Start(ctx); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	poller.Stop()
	tokens.Stop()
	cart.Stop()
}
