package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/config"
	dbRedis "github.com/kailas-cloud/polaudit/internal/db/redis"
	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/excerpt"
	logpkg "github.com/kailas-cloud/polaudit/internal/logger"
	"github.com/kailas-cloud/polaudit/internal/metrics"
	"github.com/kailas-cloud/polaudit/internal/repository/catalog"
	"github.com/kailas-cloud/polaudit/internal/repository/terms"
	chiTransport "github.com/kailas-cloud/polaudit/internal/transport/chi"
	"github.com/kailas-cloud/polaudit/internal/transport/discovery"
	feedbackuc "github.com/kailas-cloud/polaudit/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/polaudit/internal/usecase/health"
	queryuc "github.com/kailas-cloud/polaudit/internal/usecase/query"
	"github.com/kailas-cloud/polaudit/internal/version"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	subjects := domain.NewSubjects(cfg.Discovery.Collections)

	logger.Info("Starting polaudit API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("subjects", subjects.Names()),
		zap.String("coordination", cfg.Coordination.Driver),
	)

	metrics.RegisterDomainMetrics()

	// Static tables are loaded once; a broken table is fatal.
	resolver, err := terms.Load(terms.Paths{
		IgnoredTerms:     cfg.Data.IgnoredTerms,
		ArticleNames:     cfg.Data.ArticleNames,
		ArticleSummaries: cfg.Data.ArticleSummaries,
	})
	if err != nil {
		logger.Fatal("Failed to load term tables", zap.Error(err))
	}
	ignored, articles, summaries := resolver.Stats()
	logger.Info("Term tables loaded",
		zap.Int("ignored", ignored),
		zap.Int("articles", articles),
		zap.Int("summaries", summaries),
	)

	displayNames := map[string]string{}
	if cfg.Data.DisplayNames != "" {
		displayNames, err = catalog.LoadDisplayNames(cfg.Data.DisplayNames)
		if err != nil {
			logger.Fatal("Failed to load display names", zap.Error(err))
		}
	}
	docs := catalog.New(cfg.Data.DocumentsDir, cfg.HTTP.PublicBaseURL, displayNames, logger)

	client := discovery.New(&discovery.Config{
		URL:           cfg.Discovery.URL,
		APIKey:        cfg.Discovery.APIKey,
		EnvironmentID: cfg.Discovery.EnvironmentID,
		Version:       cfg.Discovery.Version,
		PassagesCount: cfg.Discovery.PassagesCount,
		RateLimit:     cfg.Discovery.RateLimitRPS,
		Burst:         cfg.Discovery.Burst,
		Logger:        logger,
	})

	querySvc := queryuc.New(client, subjects, resolver, excerpt.New(), docs).
		WithTimeout(cfg.Discovery.RequestTimeout())

	feedbackSvc := feedbackuc.New(client, subjects, logger).
		WithMaxQueries(cfg.Feedback.MaxQueries).
		WithTimeout(cfg.Discovery.RequestTimeout()).
		WithInsertRetry(cfg.Feedback.InsertAttempts, 200*time.Millisecond)

	// Pass nil interface (not typed nil pointer!) when coordination is local.
	var coordination healthuc.Pinger
	if cfg.Coordination.Driver == "redis" {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Coordination.Addrs,
			Password: cfg.Coordination.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create coordination store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Coordination.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), readiness); err != nil {
			logger.Fatal("Coordination store not ready", zap.Error(err))
		}
		logger.Info("Connected to coordination store", zap.Strings("addrs", cfg.Coordination.Addrs))

		feedbackSvc.WithDistributedLock(store,
			time.Duration(cfg.Feedback.LockTTLSec)*time.Second,
			time.Duration(cfg.Feedback.LockWaitSec)*time.Second,
		)
		coordination = store
	}

	healthSvc := healthuc.New(client, coordination)

	server := chiTransport.NewServer(querySvc, feedbackSvc, docs, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Use(chiTransport.CORS(cfg.HTTP.AllowedOrigin))
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    "internal_error",
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
