package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"surveyinsights/internal/cache"
	"surveyinsights/internal/config"
	"surveyinsights/internal/logging"
	"surveyinsights/internal/repository"
	"surveyinsights/internal/service"
	"surveyinsights/internal/transport/rest"
	"surveyinsights/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	logging.Bootstrap(cfg.Level, cfg.Format)
	log := logging.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("failed to ping MongoDB")
	}
	log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("failed to ping Redis")
	}
	log.WithField("addr", cfg.RedisAddr).Info("connected to Redis")

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	submissionRepo := repository.NewSubmissionRepo(db)
	if err := submissionRepo.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to create submission indexes")
	}

	// Initialize caches
	analyticsCache := cache.NewAnalyticsCache(rdb, cfg.AnalyticsCacheTTL)

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	defer wsHub.Close()

	// Initialize services
	authSvc := service.NewAuthService(cfg.AuthConfig)
	surveySvc := service.NewSurveyService(surveyRepo)
	submissionSvc := service.NewSubmissionService(surveyRepo, submissionRepo, analyticsCache)
	insightsSvc := service.NewInsightsService(surveySvc, surveyRepo, submissionRepo, analyticsCache, cfg.Workers)
	exportSvc := service.NewExportService(surveySvc)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	submissionSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:       authSvc,
		SurveyService:     surveySvc,
		SubmissionService: submissionSvc,
		InsightsService:   insightsSvc,
		ExportService:     exportSvc,
		WSHub:             wsHub,
		CORS:              cfg.CORS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	log.Info("server exited")
}
