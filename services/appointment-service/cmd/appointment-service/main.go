package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/johnhamson/summit-appointments/libs/config"
	"github.com/johnhamson/summit-appointments/libs/db"
	"github.com/johnhamson/summit-appointments/libs/httpx"
	"github.com/johnhamson/summit-appointments/libs/kafkax"
	otelx "github.com/johnhamson/summit-appointments/libs/otel"
	"github.com/johnhamson/summit-appointments/libs/runtime"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/catalog"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/handlers"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/outbox"
	"github.com/johnhamson/summit-appointments/services/appointment-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "appointment-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	adminHash, err := config.RequiredString("ADMIN_PASSWORD_HASH")
	if err != nil {
		panic(err)
	}
	adminUser := config.String("ADMIN_USERNAME", "admin")

	cat := catalog.Builtin()

	var checks []runtime.ReadyCheck
	var store storage.Store
	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		outboxRepo := outbox.NewRepository(pool)
		store = storage.NewPostgresStore(pool, cat, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   kafkaBrokers,
			PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)
		if kafkaBrokers != "" {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
		}
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory store (data is lost on restart)")
		store = storage.NewMemoryStore(cat)
	}

	// The public submission endpoint is the only unauthenticated write path,
	// so it gets its own rate limit.
	limit := config.Int("RATE_LIMIT", 30)
	window := config.Duration("RATE_WINDOW", time.Minute)
	var submitLimit httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		submitLimit = httpx.NewRedisRateLimiter(rdb, limit, window, "appt").Middleware(logger, true)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		submitLimit = httpx.NewRateLimiter(limit, window).Middleware()
	}

	apptHandler := handlers.NewAppointmentHandler(store, cat, logger)
	adminHandler := handlers.NewAdminHandler(
		adminUser,
		adminHash,
		jwtSecret,
		config.Duration("ADMIN_TOKEN_TTL", time.Hour),
		logger,
	)
	requireAdmin := handlers.RequireAdmin(jwtSecret)

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Summit IT Services API"}`))
	})
	mux.HandleFunc("GET /api/services", apptHandler.Services)
	mux.Handle("POST /api/appointments", submitLimit(http.HandlerFunc(apptHandler.Create)))
	mux.Handle("GET /api/appointments", requireAdmin(http.HandlerFunc(apptHandler.List)))
	mux.Handle("GET /api/appointments/summary", requireAdmin(http.HandlerFunc(apptHandler.Summary)))
	mux.Handle("GET /api/appointments/{id}", requireAdmin(http.HandlerFunc(apptHandler.Get)))
	mux.Handle("PUT /api/appointments/{id}", requireAdmin(http.HandlerFunc(apptHandler.Update)))
	mux.Handle("DELETE /api/appointments/{id}", requireAdmin(http.HandlerFunc(apptHandler.Delete)))
	mux.HandleFunc("POST /api/admin/login", adminHandler.Login)
	mux.Handle("GET /api/admin/verify", requireAdmin(http.HandlerFunc(adminHandler.Verify)))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   strings.Split(config.String("CORS_ORIGINS", ""), ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithBodyLimit(64*1024),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "appointments")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
