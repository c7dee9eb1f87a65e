package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"profile-store/internal/blob"
	"profile-store/internal/config"
	apihttp "profile-store/internal/http"
	"profile-store/internal/repository"
	"profile-store/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("document_store", cfg.DocumentStore),
		zap.String("database", cfg.MongoDBName),
		zap.String("blob_store", cfg.BlobStore),
		zap.String("bucket", cfg.AWSBucketName),
		zap.String("region", cfg.AWSRegion),
		zap.String("static_dir", cfg.StaticDir),
	)

	profileRepo := repository.NewDocumentProfileRepository(newDocumentStore(logger, cfg))
	blobStore := newBlobStore(logger, cfg)

	var (
		profileCache service.ProfileCache
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, profile cache disabled", zap.Error(err))
		} else {
			profileCache = service.NewRedisProfileCache(redisClient, cfg.ProfileCacheTTL)
		}
		cancel()
	}

	profileSvc := service.NewProfileService(logger, profileRepo, blobStore, profileCache)
	profileHandler := apihttp.NewProfileHandler(logger, profileSvc, cfg.MaxUploadBytes)
	staticHandler := apihttp.NewStaticHandler(logger, cfg.StaticDir)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apihttp.NewRouter(logger, profileHandler, staticHandler)

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.AppPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	return logger
}

func newDocumentStore(logger *zap.Logger, cfg *config.Config) repository.DocumentStore {
	switch cfg.DocumentStore {
	case config.DocumentStorePostgres:
		return repository.NewPgDocumentStore(logger, cfg.DatabaseURL)
	case config.DocumentStoreMongo:
	default:
		logger.Warn("unknown document store, using mongo", zap.String("document_store", cfg.DocumentStore))
	}
	return repository.NewMongoDocumentStore(logger, cfg.MongoURI, cfg.MongoDBName, cfg.MongoConnectTimeout)
}

// newBlobStore nunca falla: si el backend no puede construirse, las subidas
// fallarán en el primer uso con el motivo registrado.
func newBlobStore(logger *zap.Logger, cfg *config.Config) blob.Store {
	switch cfg.BlobStore {
	case config.BlobStoreMinio:
		store, err := blob.NewMinioStore(blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.AWSBucketName,
			Region:    cfg.AWSRegion,
		})
		if err != nil {
			logger.Warn("minio store init failed", zap.Error(err))
			return blob.NewDisabledStore("blob store not configured: " + err.Error())
		}
		return store
	case config.BlobStoreS3:
	default:
		logger.Warn("unknown blob store, using s3", zap.String("blob_store", cfg.BlobStore))
	}

	store, err := blob.NewS3Store(blob.S3Config{
		Bucket:          cfg.AWSBucketName,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		SessionToken:    cfg.AWSSessionToken,
	})
	if err != nil {
		logger.Warn("s3 store init failed", zap.Error(err))
		return blob.NewDisabledStore("blob store not configured: " + err.Error())
	}
	return store
}
