package setup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ebrain/board/backend/internal/handler"
	"github.com/ebrain/board/backend/internal/service"
	"github.com/ebrain/board/backend/internal/storage/cache"
	"github.com/ebrain/board/backend/internal/storage/fs"
	"github.com/ebrain/board/backend/internal/storage/pg"
	"github.com/ebrain/board/backend/internal/storage/s3"
	"github.com/ebrain/board/shared/config"
	"github.com/ebrain/board/shared/jwt"
	"github.com/ebrain/board/shared/logger"
	mw "github.com/ebrain/board/shared/middleware"
	sharedpg "github.com/ebrain/board/shared/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Blobs          service.BlobWalker
	Redis          *redis.Client
	Handler        *handler.Handler
	Jwt            jwt.JwtService
	AuthMiddleware *mw.Auth
	Sweeper        *service.BlobSweeper
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg.Private.Pg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}

	blobs, err := NewBlobStorage(cfg)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}

	var categoryCache service.CategoryCache
	var redisClient *redis.Client
	if addr := cfg.Private.Redis.Addr; addr != "" {
		redisClient, err = cache.Dial(ctx, addr, cfg.Private.Redis.Password, cfg.Private.Redis.DB)
		if err != nil {
			storage.Cleanup()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		categoryCache = cache.New(redisClient, cfg.Public.CategoryCacheTTL)
		logger.Log.Info("category cache enabled", "addr", addr)
	}

	sanitizer := service.NewSanitizer()
	attachments := service.NewAttachments(storage, blobs)
	thumbnails := service.NewThumbnails(storage, blobs, cfg.Public.ThumbnailSize)
	categories := service.NewCategories(storage, categoryCache)
	posts := service.NewPosts(storage, attachments, thumbnails, categories, sanitizer, service.PostsConfig{
		DefaultPageSize: cfg.Public.DefaultPageSize,
		MaxPageSize:     cfg.Public.MaxPageSize,
	})

	h := handler.New(handler.Services{
		Posts:      posts,
		Comments:   service.NewComments(storage, sanitizer),
		Answers:    service.NewAnswers(storage, sanitizer),
		Categories: categories,
		Files:      service.NewFiles(storage, attachments, thumbnails),
	}, storage, cfg)

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Blobs:          blobs,
		Redis:          redisClient,
		Handler:        h,
		Jwt:            jwtService,
		AuthMiddleware: mw.NewAuth(jwtService, cfg.Public.SecureCookies),
		Sweeper:        service.NewBlobSweeper(storage, blobs, cfg.Public.GCSafetyThreshold),
	}, nil
}

// NewBlobStorage picks the blob backend named in the config.
func NewBlobStorage(cfg *config.Config) (service.BlobWalker, error) {
	st := cfg.Public.Storage
	switch st.Backend {
	case "fs":
		logger.Log.Info("using filesystem blob storage", "root", st.RootPath)
		return fs.New(st.RootPath)
	case "s3":
		return s3.New(s3.Config{
			Endpoint:        st.S3.Endpoint,
			Region:          st.S3.Region,
			AccessKeyID:     cfg.Private.S3.AccessKeyID,
			SecretAccessKey: cfg.Private.S3.SecretAccessKey,
			Bucket:          st.S3.Bucket,
			Prefix:          st.S3.Prefix,
			ForcePathStyle:  st.S3.ForcePathStyle,
		}), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", st.Backend)
}

// Close releases connections opened by SetupDependencies.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Log.Warn("closing redis", "error", err)
		}
	}
	if err := d.Storage.Cleanup(); err != nil {
		logger.Log.Warn("closing db", "error", err)
	}
}
