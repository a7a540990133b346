package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minjaelee/vigil/internal/api"
	"github.com/minjaelee/vigil/internal/api/handlers"
	"github.com/minjaelee/vigil/internal/classify"
	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/internal/push"
	"github.com/minjaelee/vigil/internal/refresh"
	"github.com/minjaelee/vigil/internal/risk"
	"github.com/minjaelee/vigil/internal/scheduler"
	"github.com/minjaelee/vigil/internal/scheduler/jobs"
	"github.com/minjaelee/vigil/internal/trade"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/database"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
	"github.com/minjaelee/vigil/pkg/redis"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the refresh loop, push listener, and local API",
	Long: `Runs the full monitoring stack:
- session-aware refresh loop over the discovery endpoints
- websocket push listener for out-of-band refresh events
- local HTTP API for candidates, status, and trade execution
- optional order journal with scheduled cleanup

Endpoints:
  GET  /health
  GET  /api/candidates
  GET  /api/candidates/{symbol}/audit
  GET  /api/status
  POST /api/trades
  GET  /api/orders/recent

Example:
  go run ./cmd/vigil watch
  go run ./cmd/vigil watch --port 8090`,
	RunE: runWatch,
}

var watchPort string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchPort, "port", "", "local API port (overrides PORT)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if watchPort != "" {
		cfg.Port = watchPort
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	if err := refresh.SetTimezone(cfg.Discovery.Exchange); err != nil {
		log.WithError(err).WithField("tz", cfg.Discovery.Exchange).Warn("Unknown exchange timezone, using default")
	}

	log.WithFields(map[string]interface{}{
		"port":      cfg.Port,
		"env":       cfg.Env,
		"discovery": cfg.Discovery.BaseURL,
	}).Info("Starting vigil")

	// Optional Redis: snapshot cache and shared rate limiting
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	var cache *redis.Cache
	discoveryHTTP := httputil.NewWithTimeout(cfg, log, cfg.Discovery.FetchTimeout)
	if redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "vigil")
		discoveryHTTP.WithRateLimiter(redis.NewRateLimiter(redisClient, "vigil"), redis.DiscoveryRateLimit)
		log.Info("Redis connected, cache and shared rate limiting enabled")
	} else {
		discoveryHTTP.WithLocalLimiter(10, 10)
	}

	// Core pipeline
	client := discovery.NewClient(cfg, discoveryHTTP, log)
	store := ingest.NewStore(cache, log)
	pipeline := refresh.NewPipeline(cfg, client,
		ingest.NewNormalizer(log),
		classify.NewClassifier(classify.AlertThresholds, log),
		store, log)
	refresher := refresh.NewRefresher(pipeline, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if store.WarmStart(ctx) {
		log.Info("Serving cached snapshot until first refresh completes")
	}

	// Trading
	tradeHTTP := httputil.NewWithTimeout(cfg, log, cfg.Trade.SubmitTimeout)
	if redisClient.Enabled() {
		tradeHTTP.WithRateLimiter(redis.NewRateLimiter(redisClient, "vigil"), redis.TradeRateLimit)
	} else {
		tradeHTTP.WithLocalLimiter(2, 2)
	}
	submitter := trade.NewSubmitter(cfg, tradeHTTP, client, log)
	submitter.OnOrderAccepted(func(symbol string) {
		log.WithField("symbol", symbol).Info("Order accepted, requesting refresh")
		refresher.Trigger()
	})

	sizer := risk.NewSizer(cfg, log)

	// Optional order journal + cleanup schedule
	var journal *trade.Journal
	var sched *scheduler.Scheduler
	if cfg.JournalEnabled() {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		journal = trade.NewJournal(db, log)
		if err := journal.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure journal schema: %w", err)
		}

		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewJournalCleanupJob(journal, cfg.Database.JournalRetentionDays, log)); err != nil {
			return fmt.Errorf("schedule journal cleanup: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		log.Info("Order journal enabled")
	}

	// Refresh loop
	refresher.Start(ctx)
	defer refresher.Stop()

	// Optional push listener
	if cfg.Discovery.PushURL != "" {
		listener := push.NewListener(cfg, refresher, log)
		if err := listener.Start(ctx); err != nil {
			log.WithError(err).Warn("Push listener unavailable, polling only")
		} else {
			defer listener.Stop()
		}
	}

	// Local API
	router := api.NewRouter(
		handlers.NewCandidatesHandler(store, client, log),
		handlers.NewStatusHandler(client, refresher, log),
		handlers.NewTradingHandler(store, sizer, submitter, journal, log),
		log,
	)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("vigil running on http://localhost:%s (Ctrl+C to stop)\n", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
