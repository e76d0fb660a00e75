package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dropnote/dropnote/internal/config"
	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/handlers"
	"github.com/dropnote/dropnote/internal/logger"
	"github.com/dropnote/dropnote/internal/middleware"
	"github.com/dropnote/dropnote/internal/queue"
	"github.com/dropnote/dropnote/internal/services/ai"
	"github.com/dropnote/dropnote/internal/services/discord"
	"github.com/dropnote/dropnote/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "dropnote-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tp.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	eventRepo := database.NewEventRepository(db)
	applicationRepo := database.NewApplicationRepository(db)
	statsRepo := database.NewStatsRepository(db)
	historyRepo := database.NewChatHistoryRepository(db)
	usageRepo := database.NewTokenUsageRepository(db, cfg.DailyTokenLimit)
	giveawayRepo := database.NewGiveawayRepository(db)
	guideRepo := database.NewGuideRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)
	discordConfigRepo := database.NewDiscordConfigRepository(db)

	// Discord OAuth configuration lives in the database (set via the
	// configure CLI) so credentials never sit in the environment
	discordConfig, err := discordConfigRepo.Get(context.Background())
	if err != nil {
		zapLogger.Fatal("failed_to_load_discord_config", zap.Error(err))
	}
	if discordConfig == nil {
		zapLogger.Fatal("discord_config_missing",
			zap.String("hint", "run 'configure discord' to set client credentials"),
		)
	}
	discordClient := discord.NewClient(discordConfig)
	roleIDs := database.MemberRoleIDsSlice(discordConfig.MemberRoleIDs)

	sessions, err := discord.NewSessionManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour)
	if err != nil {
		zapLogger.Fatal("failed_to_create_session_manager", zap.Error(err))
	}

	// Initialize AI assistant (optional, requires an OpenAI key)
	var assistant *ai.Assistant
	if cfg.OpenAIKey != "" {
		provider := ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		toolbox := ai.NewStatsToolbox(statsRepo, zapLogger)
		assistant = ai.NewAssistant(provider, historyRepo, usageRepo, guideRepo, toolbox, zapLogger)
	} else {
		zapLogger.Warn("openai_key_not_configured_assistant_disabled")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(discordClient, sessions, userRepo, discordConfig.GuildID, roleIDs, zapLogger)
	eventHandler := handlers.NewEventHandler(eventRepo, jobQueue, zapLogger)
	applicationHandler := handlers.NewApplicationHandler(applicationRepo, eventRepo)
	statsHandler := handlers.NewStatsHandler(statsRepo)
	giveawayHandler := handlers.NewGiveawayHandler(giveawayRepo, jobQueue, zapLogger)

	var queuePinger handlers.Pinger
	if p, ok := jobQueue.(handlers.Pinger); ok {
		queuePinger = p
	}
	healthChecker := handlers.NewHealthChecker(db, redisLimiter, queuePinger)

	// Setup router
	r := mux.NewRouter()

	// Middleware executes in reverse order of registration: last registered
	// runs first
	zapLogger.Info("setting_up_middleware")

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("dropnote-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, 1*time.Minute)
	r.Use(corsReloader.Middleware())
	rateLimitReloader := middleware.NewRateLimitReloader(redisLimiter.Client(), ratelimitConfigRepo, "5-S", zapLogger, 1*time.Minute)
	if rateLimitReloader == nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader")
	}
	rateLimitMW := rateLimitReloader.Middleware()
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	openAPIHandler := handlers.NewOpenAPIHandler(openAPIPath)
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	authMW := middleware.Auth(db, sessions)

	// Auth routes: login and callback are public, /me requires a session
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.Use(rateLimitMW)
	authHandler.RegisterRoutes(authRouter)

	protectedAuthRouter := apiRouter.PathPrefix("/auth").Subrouter()
	protectedAuthRouter.Use(authMW)
	protectedAuthRouter.Use(rateLimitMW)
	authHandler.RegisterProtectedRoutes(protectedAuthRouter)

	// Event routes (protected)
	eventsRouter := apiRouter.PathPrefix("/events").Subrouter()
	eventsRouter.Use(authMW)
	eventsRouter.Use(rateLimitMW)
	eventHandler.RegisterRoutes(eventsRouter)
	applicationHandler.RegisterEventRoutes(eventsRouter)

	// Application routes (protected)
	applicationsRouter := apiRouter.PathPrefix("/applications").Subrouter()
	applicationsRouter.Use(authMW)
	applicationsRouter.Use(rateLimitMW)
	applicationHandler.RegisterRoutes(applicationsRouter)

	// Stats routes (protected)
	statsRouter := apiRouter.PathPrefix("/stats").Subrouter()
	statsRouter.Use(authMW)
	statsRouter.Use(rateLimitMW)
	statsHandler.RegisterRoutes(statsRouter)

	// Giveaway routes (protected)
	giveawaysRouter := apiRouter.PathPrefix("/giveaways").Subrouter()
	giveawaysRouter.Use(authMW)
	giveawaysRouter.Use(rateLimitMW)
	giveawayHandler.RegisterRoutes(giveawaysRouter)

	// Assistant routes (protected, only when the assistant is configured)
	if assistant != nil {
		assistantRouter := apiRouter.PathPrefix("/assistant").Subrouter()
		assistantRouter.Use(authMW)
		assistantRouter.Use(rateLimitMW)
		handlers.NewAssistantHandler(assistant).RegisterRoutes(assistantRouter)
	}

	// Catch-all OPTIONS handler for preflight requests; the CORS middleware
	// sets headers before this runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// CORS and rate limit hot-reload loops
	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	go rateLimitReloader.Start(reloadCtx)

	// DLQ garbage collector: purge hourly, retain a day
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour)
		go func() {
			if err := dlqGC.Start(reloadCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries the connection with exponential backoff to handle
// broker startup delays
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
