package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/wbkost/backend/internal/api"
	"github.com/wbkost/backend/internal/db"
	"github.com/wbkost/backend/pkg/catalog"
	catalogmemrepo "github.com/wbkost/backend/pkg/catalog/repo/memory"
	catalogpgrepo "github.com/wbkost/backend/pkg/catalog/repo/postgres"
	"github.com/wbkost/backend/pkg/filevault"
	vaultmemrepo "github.com/wbkost/backend/pkg/filevault/repo/memory"
	vaultpgrepo "github.com/wbkost/backend/pkg/filevault/repo/postgres"
	fsstorage "github.com/wbkost/backend/pkg/filevault/storage/fs"
	memorystorage "github.com/wbkost/backend/pkg/filevault/storage/memory"
	s3storage "github.com/wbkost/backend/pkg/filevault/storage/s3"
	"github.com/wbkost/backend/pkg/social"
	socialmemrepo "github.com/wbkost/backend/pkg/social/repo/memory"
	socialpgrepo "github.com/wbkost/backend/pkg/social/repo/postgres"
)

type Config struct {
	Port        int    `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	JWTSecret   string `env:"JWT_SECRET" env-default:"dev-secret-change-me"`

	// DATABASE_URL empty means in-memory repositories (development only).
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	// STORAGE_URL selects the payload backend:
	//   memory://          in-memory
	//   file:///data/blobs local filesystem
	//   s3://bucket        S3 or compatible
	StorageURL string `env:"STORAGE_URL" env-default:"memory://"`

	S3 S3Config

	RetentionDays int           `env:"RETENTION_DAYS" env-default:"30"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" env-default:"1h"`
}

type S3Config struct {
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	logLevel := slog.LevelInfo
	if cfg.Environment == "development" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("build blob store: %w", err)
	}

	var (
		vaultRepo   filevault.Repository
		socialRepo  social.Repository
		catalogRepo catalog.Repository
		ready       api.ReadinessCheck
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("create connection pool: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		vaultRepo = vaultpgrepo.NewWithPool(pool)
		socialRepo = socialpgrepo.NewWithPool(pool)
		catalogRepo = catalogpgrepo.NewWithPool(pool)
		ready = func(r *http.Request) error { return pool.Ping(r.Context()) }
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		vaultRepo = vaultmemrepo.New()
		socialRepo = socialmemrepo.New()
		catalogRepo = catalogmemrepo.New()
	}

	storageName, _, _ := strings.Cut(cfg.StorageURL, "://")
	vault, err := filevault.New(
		filevault.WithRepository(vaultRepo),
		filevault.WithBlobStore(storageName, store),
	)
	if err != nil {
		return fmt.Errorf("create file service: %w", err)
	}

	posts, err := social.New(socialRepo)
	if err != nil {
		return fmt.Errorf("create social service: %w", err)
	}

	products, err := catalog.New(catalogRepo, vault)
	if err != nil {
		return fmt.Errorf("create catalog service: %w", err)
	}

	tokenAuth := api.NewTokenAuth(cfg.JWTSecret)
	router := api.NewRouter(tokenAuth, vault, posts, products, ready)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	sweeper := filevault.NewSweeper(vault, retention, cfg.SweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment, "storage", storageName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := sweeper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildBlobStore(cfg Config) (filevault.BlobStore, error) {
	u, err := url.Parse(cfg.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("parse STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "memory", "":
		return memorystorage.New(), nil
	case "file":
		return fsstorage.New(fsstorage.Config{BaseDir: u.Path})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 cfg.S3.Region,
			Bucket:                 u.Host,
			AccessKeyID:            cfg.S3.AccessKeyID,
			SecretAccessKey:        cfg.S3.SecretAccessKey,
			Endpoint:               cfg.S3.Endpoint,
			UsePathStyle:           cfg.S3.UsePathStyle,
			CreateBucketIfNotExist: cfg.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}
