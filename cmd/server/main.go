package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/pcubed/gradeboard/api/handlers"
	"github.com/pcubed/gradeboard/api/routes"
	"github.com/pcubed/gradeboard/config"
	"github.com/pcubed/gradeboard/internal/aggregator"
	"github.com/pcubed/gradeboard/internal/auth"
	"github.com/pcubed/gradeboard/internal/cache"
	"github.com/pcubed/gradeboard/internal/functions"
	"github.com/pcubed/gradeboard/internal/store"
	"github.com/pcubed/gradeboard/internal/uploads"
	"github.com/pcubed/gradeboard/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("GRADEBOARD_CONFIG"))
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithOutputPaths(cfg.Log.OutputPaths),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	var clientOpts []option.ClientOption
	if cfg.GCP.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.GCP.CredentialsFile))
	}

	fsClient, err := firestore.NewClient(ctx, cfg.GCP.ProjectID, clientOpts...)
	if err != nil {
		log.Fatal("failed to create Firestore client", logger.Error(err))
	}
	defer fsClient.Close()

	gcsClient, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		log.Fatal("failed to create storage client", logger.Error(err))
	}
	defer gcsClient.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	defer rdb.Close()

	docStore := store.New(fsClient, log.Named("store"))
	fnClient := functions.NewClient(cfg.Functions.FormatURL, cfg.Functions.Timeout, log.Named("functions"))
	summaryCache := cache.NewSummaryCache(rdb)

	manager := aggregator.NewManager(
		docStore,
		fnClient,
		log.Named("aggregator"),
		summaryCache,
		aggregator.WithSummaryCache(summaryCache),
	)
	defer manager.Shutdown()

	uploadStore := uploads.NewStore(gcsClient, cfg.GCP.UploadBucket, log.Named("uploads"))
	authenticator := auth.NewGoogleAuthenticator(cfg.Auth.Audience)

	h := handlers.NewHandlers(
		handlers.NewDocumentHandler(manager, docStore, uploadStore, log.Named("documents")),
		handlers.NewProfileHandler(docStore, log.Named("profile")),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, authenticator, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", logger.Error(err))
	}
}
