package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mealsignal/backend/config"
	httpDelivery "github.com/mealsignal/backend/internal/delivery/http"
	"github.com/mealsignal/backend/internal/domain"
	"github.com/mealsignal/backend/internal/infrastructure/cache"
	"github.com/mealsignal/backend/internal/infrastructure/logging"
	"github.com/mealsignal/backend/internal/infrastructure/metrics"
	"github.com/mealsignal/backend/internal/infrastructure/notify"
	"github.com/mealsignal/backend/internal/infrastructure/openfoodfacts"
	"github.com/mealsignal/backend/internal/infrastructure/storage"
	"github.com/mealsignal/backend/internal/infrastructure/vision"
	"github.com/mealsignal/backend/internal/usecase"
)

// app is the wired service graph
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.SQLiteStore
	metrics  *metrics.Metrics
	services httpDelivery.Services
	closers  []io.Closer
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: !cfg.IsProduction(),
	})
}

// openStore opens only the persistence layer, for commands that need no network
func openStore(cfg *config.Config, logger *zap.Logger) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

// newApp builds every dependency from configuration
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store)

	productCache, err := a.newCache()
	if err != nil {
		a.Close()
		return nil, err
	}

	offClient := openfoodfacts.NewClient(openfoodfacts.Config{
		BaseURL:           cfg.FoodDB.BaseURL,
		UserAgent:         cfg.FoodDB.UserAgent,
		PageSize:          cfg.FoodDB.PageSize,
		Timeout:           cfg.FoodDB.Timeout,
		RequestsPerMinute: cfg.RateLimit.FoodDB,
	}, logger)
	if cfg.Matching.EnableDebugLogging {
		offClient.SetDebug(true)
	}

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		OverrideConfidence: cfg.Matching.OverrideConfidence,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, logger)

	lookup := usecase.NewProductLookupService(
		productCache,
		offClient,
		matcher,
		usecase.ProductLookupConfig{
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
		logger,
		a.metrics,
	)

	var feedbackSink domain.FeedbackSink
	if cfg.Feedback.WebhookURL != "" {
		feedbackSink = notify.NewWebhookSink(cfg.Feedback.WebhookURL, logger)
	} else {
		logger.Warn("feedback webhook not configured; feedback requests will return 503")
	}

	a.services = httpDelivery.Services{
		Analysis: usecase.NewAnalysisService(
			a.newVision(),
			lookup,
			store,
			usecase.AnalysisConfig{VisionTimeout: cfg.Vision.Timeout},
			logger,
			a.metrics,
		),
		Workouts: usecase.NewWorkoutService(store, logger),
		Profiles: usecase.NewProfileService(store),
		Digest:   usecase.NewDigestService(store, cfg.Location(), logger, a.metrics),
		Data:     usecase.NewDataService(store, logger),
		Feedback: usecase.NewFeedbackService(feedbackSink, logger),
	}

	logger.Info("service wired",
		zap.String("environment", cfg.Server.Environment),
		zap.String("vision_provider", cfg.Vision.Provider),
		zap.String("cache_type", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.Float64("override_confidence", cfg.Matching.OverrideConfidence),
		zap.String("timezone", cfg.Server.Timezone))
	return a, nil
}

func (a *app) newCache() (domain.CacheRepository, error) {
	switch a.cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(a.cfg.Cache.RedisURL, "mealsignal:", a.logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, redisCache)
		return redisCache, nil
	default:
		memoryCache := cache.NewMemoryCache(10 * time.Minute)
		a.closers = append(a.closers, memoryCache)
		return memoryCache, nil
	}
}

func (a *app) newVision() domain.VisionEstimator {
	if a.cfg.Vision.Provider == "openai" {
		return vision.NewOpenAIEstimator(vision.OpenAIConfig{
			APIKey:            a.cfg.Vision.APIKey,
			BaseURL:           a.cfg.Vision.BaseURL,
			Model:             a.cfg.Vision.Model,
			Timeout:           a.cfg.Vision.Timeout,
			RequestsPerMinute: a.cfg.RateLimit.Vision,
		}, a.logger)
	}
	a.logger.Warn("vision provider is static; every analysis returns the fallback estimate")
	return vision.NewStaticEstimator()
}

// router builds the HTTP handler tree
func (a *app) router() http.Handler {
	handler := httpDelivery.NewHandler(a.services, a.logger)
	return httpDelivery.SetupRouter(a.cfg, handler, httpDelivery.RouterDeps{
		Logger:         a.logger,
		Metrics:        a.metrics,
		MetricsHandler: a.metrics.Handler(),
		RateLimiter:    httpDelivery.NewIPRateLimiter(a.cfg.RateLimit.PerIP),
	})
}

// Close releases resources in reverse order of creation
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// serve runs the HTTP server until ctx is cancelled, then drains connections
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
