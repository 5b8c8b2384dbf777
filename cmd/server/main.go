package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/focus-board/internal/config"
	"github.com/benvon/focus-board/internal/database"
	"github.com/benvon/focus-board/internal/enhance"
	"github.com/benvon/focus-board/internal/handlers"
	"github.com/benvon/focus-board/internal/logger"
	"github.com/benvon/focus-board/internal/queue"
	"github.com/benvon/focus-board/internal/services/ai"
	"github.com/benvon/focus-board/internal/services/calendar"
	"github.com/benvon/focus-board/internal/staging"
	"github.com/benvon/focus-board/internal/store"
	"github.com/benvon/focus-board/internal/telemetry"
	"github.com/benvon/focus-board/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rabbitMQMaxRetries   = 10
	rabbitMQInitialDelay = 2 * time.Second
	shutdownTimeout      = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request and response bodies")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.DebugMode || *debugFlag

	zapLogger, err := logger.New(debugMode, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Bool("redis_configured", cfg.RedisURL != ""),
		zap.Bool("rabbitmq_configured", cfg.RabbitMQURL != ""),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName: telemetry.DefaultServiceName,
			Endpoint:    cfg.OTELEndpoint,
			Insecure:    cfg.OTELInsecure,
			SampleRatio: cfg.OTELSampleRatio,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")
	boards := database.NewTaskRepository(db)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	rules := enhance.DefaultRules()
	if cfg.EnhancementRulesPath != "" {
		rules, err = enhance.LoadRuleTable(cfg.EnhancementRulesPath)
		if err != nil {
			zapLogger.Fatal("failed_to_load_enhancement_rules",
				zap.String("path", cfg.EnhancementRulesPath),
				zap.Error(err),
			)
		}
		zapLogger.Info("loaded_enhancement_rules", zap.String("path", cfg.EnhancementRulesPath))
	}
	engine := enhance.NewEngine(rules)

	repo := staging.NewRepository(cfg.Staging(), boards, engine, zapLogger)

	var snapshots workers.SnapshotStore
	if redisClient != nil {
		redisStore := store.NewRedisStore(redisClient, store.DefaultKey, cfg.SnapshotTTL, zapLogger)
		restored, err := redisStore.Load(ctx)
		if err != nil {
			zapLogger.Warn("failed_to_restore_staging_snapshot", zap.Error(err))
		} else {
			repo.Restore(restored)
			zapLogger.Info("restored_staging_snapshot", zap.Int("count", len(restored)))
		}
		snapshots = redisStore

		snapshotter := workers.NewSnapshotter(repo, redisStore, cfg.SnapshotInterval, zapLogger)
		go func() {
			if err := snapshotter.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("staging_snapshotter_stopped_with_error", zap.Error(err))
			}
		}()
	}

	healthChecks := map[string]handlers.HealthCheckFunc{
		"database": db.HealthCheck,
		"redis":    nil,
		"rabbitmq": nil,
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	if cfg.RabbitMQURL != "" {
		jobQueue := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		healthChecks["rabbitmq"] = jobQueue.HealthCheck
		repo.SetScheduler(queue.NewEnhanceScheduler(jobQueue))

		msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
		if err != nil {
			zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
		}
		enhancer := workers.NewStagingEnhancer(repo, jobQueue, zapLogger)
		go enhancer.Run(ctx, msgs, errs)

		dlqGC := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("staging_enhancement_queued",
			zap.Int("prefetch", cfg.RabbitMQPrefetch),
			zap.Duration("dlq_retention", cfg.DLQRetention),
		)
	} else {
		zapLogger.Info("staging_enhancement_inline")
	}

	var proposer handlers.Proposer
	if cfg.OpenAIKey != "" {
		proposer = ai.NewOpenAIProposer(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
	} else {
		zapLogger.Warn("openai_api_key_not_configured_proposals_disabled")
	}

	var calendarSource handlers.CalendarSource
	if cfg.CalendarEnabled() {
		srv, err := calendar.NewService(ctx, cfg.CalendarCredentialsFile, cfg.CalendarTokenFile)
		if err != nil {
			zapLogger.Warn("failed_to_create_calendar_service_import_disabled", zap.Error(err))
		} else {
			calendarSource = calendar.NewImporter(srv, cfg.CalendarID, zapLogger)
		}
	}

	router, err := newRouter(routerDeps{
		cfg:     cfg,
		logger:  zapLogger,
		staging: handlers.NewStagingHandler(repo, proposer, calendarSource, zapLogger),
		boards:  handlers.NewBoardHandler(boards, zapLogger),
		rules:   handlers.NewRulesHandler(engine),
		health:  handlers.NewHealthChecker(healthChecks),
		redis:   redisClient,
		tracing: tracing,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	// Stop background loops, then persist the collection once more before exit
	stop()
	if snapshots != nil {
		if err := snapshots.Save(shutdownCtx, repo.Snapshot()); err != nil {
			zapLogger.Warn("staging_shutdown_snapshot_failed", zap.Error(err))
		}
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ dials with exponential backoff so the server tolerates a broker that starts late
func connectRabbitMQ(url string, log *zap.Logger) *queue.RabbitMQQueue {
	var lastErr error
	for attempt := 0; attempt < rabbitMQMaxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, log)
		if err == nil {
			log.Info("connected_to_rabbitmq")
			return q
		}
		lastErr = err

		delay := rabbitMQInitialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", rabbitMQMaxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	log.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", rabbitMQMaxRetries),
		zap.Error(lastErr),
	)
	return nil
}
