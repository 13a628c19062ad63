package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/traderwatch/hl-monitor/internal/api"
	"github.com/traderwatch/hl-monitor/internal/config"
	"github.com/traderwatch/hl-monitor/internal/connection"
	"github.com/traderwatch/hl-monitor/internal/inference"
	"github.com/traderwatch/hl-monitor/internal/model"
	"github.com/traderwatch/hl-monitor/internal/pool"
	"github.com/traderwatch/hl-monitor/internal/refresh"
	"github.com/traderwatch/hl-monitor/internal/selector"
	"github.com/traderwatch/hl-monitor/internal/store"
	"github.com/traderwatch/hl-monitor/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/monitor.local.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting monitor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"ws_url", cfg.API.WSURL,
		"target_count", cfg.Selector.TargetCount,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	st, err := store.Connect(ctx, cfg.Database.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Create API client
	apiClient := api.NewClient(
		cfg.API.InfoURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Selection pipeline
	sel := selector.New(inference.Config{
		Disabled:           cfg.Filter.Disabled,
		DayROIThreshold:    cfg.Filter.DayROIThreshold,
		PnLRatioThreshold:  cfg.Filter.PnLRatioThreshold,
		DayVolumeThreshold: cfg.Filter.DayVolumeThreshold,
	}, logger)

	refresher := refresh.New(refresh.Config{
		Interval:    cfg.Refresh.Interval,
		TargetCount: cfg.Selector.TargetCount,
		BatchSize:   cfg.Pool.BatchSize,
		Timeout:     2 * time.Minute,
	}, apiClient, sel, st, logger)

	// Seed the target set. A failed initial cycle is tolerable when a
	// previous cycle is still installed.
	if _, err := refresher.RunCycle(ctx); err != nil {
		logger.Error("initial selection cycle failed", "error", err)
		existing, tErr := st.ActiveTargets(ctx)
		if tErr != nil || len(existing) == 0 {
			logger.Error("no previous target set available, exiting")
			os.Exit(1)
		}
		logger.Warn("continuing with previous target set", "targets", len(existing))
	}

	// Connection pool
	poolCfg := buildPoolConfig(cfg)
	var mgr atomic.Pointer[pool.Manager]
	mgr.Store(pool.NewManager(poolCfg, st, st, logger))

	if err := mgr.Load().Start(ctx); err != nil {
		logger.Error("failed to start connection pool", "error", err)
		os.Exit(1)
	}

	// Each later cycle rebuilds the pool so partitions match the new set.
	cycleCh := make(chan []model.TrackedTarget, 1)
	refresher.OnCycle = func(targets []model.TrackedTarget) {
		select {
		case cycleCh <- targets:
		default:
		}
	}
	if err := refresher.Start(ctx); err != nil {
		logger.Error("failed to start refresher", "error", err)
		os.Exit(1)
	}

	// Health/stats endpoint
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(st, &mgr, logger),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("monitor running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Main loop: wait for shutdown or a new selection cycle.
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false

		case targets := <-cycleCh:
			logger.Info("rebuilding connection pool for new cycle", "targets", len(targets))

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := mgr.Load().Stop(stopCtx); err != nil {
				logger.Error("failed to stop pool for rebuild", "error", err)
			}
			stopCancel()

			next := pool.NewManager(poolCfg, st, st, logger)
			if err := next.Start(ctx); err != nil {
				logger.Error("failed to restart connection pool", "error", err)
				cancel()
				continue
			}
			mgr.Store(next)
		}
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := refresher.Stop(shutdownCtx); err != nil {
		logger.Error("refresher shutdown error", "error", err)
	}
	if err := mgr.Load().Stop(shutdownCtx); err != nil {
		logger.Error("pool shutdown error", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("monitor stopped")
}

// buildPoolConfig maps the file configuration onto the pool's runtime config.
func buildPoolConfig(cfg *config.MonitorConfig) pool.Config {
	return pool.Config{
		PoolSize:            cfg.Pool.Size,
		BatchSize:           cfg.Pool.BatchSize,
		InboundBufferSize:   cfg.Pool.InboundBufferSize,
		BufferSizeThreshold: cfg.Pool.BufferSizeThreshold,
		FlushInterval:       cfg.Pool.FlushInterval,
		HealthInterval:      cfg.Pool.HealthInterval,
		WriteTimeout:        cfg.Pool.WriteTimeout,
		Worker: connection.WorkerConfig{
			Client: connection.ClientConfig{
				URL:               cfg.API.WSURL,
				HeartbeatInterval: cfg.Connection.HeartbeatInterval,
				PingTimeout:       cfg.Connection.PingTimeout,
				WriteTimeout:      cfg.Connection.WriteTimeout,
				BufferSize:        cfg.Pool.InboundBufferSize,
			},
			SubscribeDelay:   cfg.Connection.SubscribeDelay,
			ReconnectBase:    cfg.Connection.ReconnectBaseDelay,
			ReconnectMax:     cfg.Connection.ReconnectMaxDelay,
			MaxAttempts:      cfg.Connection.MaxReconnectAttempts,
			OutBufferTimeout: time.Second,
		},
	}
}

// createHealthHandler creates the HTTP handler for health checks and stats.
func createHealthHandler(st *store.Postgres, mgr *atomic.Pointer[pool.Manager], logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check database
		if err := st.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Check connection pool
		stats := mgr.Load().Stats()
		health.Components["pool"] = stats
		if !stats.Running {
			health.Status = "degraded"
		} else if stats.ConnectedClients == 0 && stats.TotalClients > 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mgr.Load().Stats())
	})

	return mux
}
