package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/assethost/internal/asset"
	"github.com/abduss/assethost/internal/auth"
	"github.com/abduss/assethost/internal/config"
	"github.com/abduss/assethost/internal/logger"
	"github.com/abduss/assethost/internal/metrics"
	"github.com/abduss/assethost/internal/serve"
	"github.com/abduss/assethost/internal/server"
	"github.com/abduss/assethost/internal/storage"
	"github.com/abduss/assethost/internal/upload"
	"github.com/abduss/assethost/internal/version"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, readiness, closeStore, err := openStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("open asset store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer closeStore()

	metrics.InitMetrics()
	gin.SetMode(gin.ReleaseMode)

	uploads := upload.NewService(store, cfg.Upload.MaxChunkBytes, zlog.Named("upload"))
	go sweepExpired(ctx, uploads)

	router := server.NewRouter(server.Dependencies{
		Config:        cfg,
		Version:       version.Version,
		Logger:        zlog,
		Readiness:     readiness,
		AuthService:   auth.NewService(cfg.Auth),
		UploadService: uploads,
		Responder:     serve.NewResponder(store, zlog.Named("serve")),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("asset host listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("store", cfg.Store.Backend),
			zap.String("version", version.Version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}

// openStore builds the configured asset store together with its readiness
// probes and a release function.
func openStore(ctx context.Context, cfg config.Config, zlog *zap.Logger) (asset.Store, []server.ReadinessCheck, func(), error) {
	if cfg.Store.Backend == config.StoreBackendMemory {
		zlog.Warn("using in-memory asset store; assets are lost on restart")
		return asset.NewMemoryStore(), nil, func() {}, nil
	}

	pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := storage.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	repo := asset.NewRepository(pool, asset.NewMinIOStore(minioClient), cfg.MinIO.Bucket)
	readiness := []server.ReadinessCheck{
		{Component: "postgres", Check: repo.Ping},
		{Component: "minio", Check: func(ctx context.Context) error {
			return storage.PingBucket(ctx, minioClient, cfg.MinIO.Bucket)
		}},
	}
	return repo, readiness, pool.Close, nil
}

// sweepExpired clears abandoned batches every BatchTTL until ctx is done.
func sweepExpired(ctx context.Context, uploads *upload.Service) {
	ticker := time.NewTicker(upload.BatchTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uploads.ClearExpired()
		}
	}
}
