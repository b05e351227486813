package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/courseguardian/backend/docs"
	"github.com/courseguardian/backend/internal/handlers"
	"github.com/courseguardian/backend/internal/metrics"
	"github.com/courseguardian/backend/internal/progress"
	"github.com/courseguardian/backend/internal/repositories"
	"github.com/courseguardian/backend/internal/services"
	"github.com/courseguardian/backend/internal/signing"
	"github.com/courseguardian/backend/internal/storage"
	authMiddleware "github.com/courseguardian/backend/libs/auth/middleware"
	authService "github.com/courseguardian/backend/libs/auth/service"
	"github.com/courseguardian/backend/libs/config"
	"github.com/courseguardian/backend/libs/logger"
	loggerMiddleware "github.com/courseguardian/backend/libs/logger/middleware"
	sharedMiddleware "github.com/courseguardian/backend/libs/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const (
	maxRequestSize = 1 * 1024 * 1024        // 1MB for regular requests
	maxUploadSize  = 2 * 1024 * 1024 * 1024 // 2GB for lesson videos
)

// @title CourseGuardian Media API
// @version 1.0
// @description Signed access to protected course PDFs and videos

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token as "Bearer <token>"
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for the metrics endpoint
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting CourseGuardian Media API", zap.String("environment", cfg.Environment))

	if cfg.IsProduction() && cfg.HasWildcardOrigin() {
		logger.Logger.Warn("CORS allows any origin in production; set CORS_ALLOWED_ORIGINS to the frontend origins")
	}

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Asynq client for progress notifications
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize JWT token validator (for auth middleware)
	tokenGenerator := authService.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize storage
	localStorage := storage.NewLocalStorage(cfg.Media.BasePath)

	var remoteStorage storage.RemoteStore
	if cfg.Supabase.Enabled() {
		supabase, err := storage.NewSupabaseStorage(storage.SupabaseConfig{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Bucket:         cfg.Supabase.Bucket,
			Timeout:        cfg.Supabase.Timeout,
			Logger:         logger.Logger,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to configure remote storage", zap.Error(err))
		}
		remoteStorage = supabase
		logger.Logger.Info("Remote storage enabled", zap.String("bucket", cfg.Supabase.Bucket))
	} else {
		logger.Logger.Info("Remote storage disabled, serving media from local storage only")
	}

	// Initialize repositories
	subjectRepo := repositories.NewSubjectRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	contentItemRepo := repositories.NewContentItemRepository(db)

	// Initialize services
	signer := signing.NewSigner(cfg.Media.SigningSecret, cfg.Media.SignatureLength)
	accessService := services.NewAccessService(
		signer,
		subjectRepo,
		enrollmentRepo,
		contentItemRepo,
		remoteStorage,
		services.AccessConfig{
			PublicBaseURL: cfg.Media.PublicBaseURL,
			PDFTTL:        cfg.Media.PDFTTL,
			VideoTTL:      cfg.Media.VideoTTL,
		},
		logger.Logger,
	)
	streamService := services.NewStreamService(localStorage, remoteStorage, progress.NewNotifier(asynqClient), logger.Logger)
	uploadService := services.NewUploadService(contentItemRepo, localStorage, remoteStorage, logger.Logger)

	// Initialize middleware
	authMw := authMiddleware.AuthMiddleware(tokenGenerator)
	adminMw := authMiddleware.RoleMiddleware(tokenGenerator, authService.RoleAdmin)
	apiKeyMw := authMiddleware.APIKeyMiddleware(cfg.APIKey)

	// Initialize handlers
	contentHandler := handlers.NewContentHandler(accessService, streamService, uploadService, logger.Logger)
	secureMediaHandler := handlers.NewSecureMediaHandler(accessService, streamService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(sharedMiddleware.NoSniffMiddleware)
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("%s/swagger/doc.json", cfg.Media.PublicBaseURL)),
	))

	// Metrics require API key
	r.With(apiKeyMw).Handle("/metrics", metrics.Handler())

	// Signed media URLs carry their own authorization
	r.Group(func(r chi.Router) {
		r.Use(sharedMiddleware.RequestSizeLimitMiddleware(maxRequestSize))
		secureMediaHandler.RegisterRoutes(r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedMiddleware.RequestSizeLimitMiddleware(maxRequestSize))
			r.Use(authMw)
			contentHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(sharedMiddleware.RequestSizeLimitMiddleware(maxUploadSize))
			r.Use(adminMw)
			contentHandler.RegisterAdminRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Minute, // Large video uploads
		WriteTimeout: 0,                // Video streams stay open for the length of playback
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "media_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Use migrations folder relative to the working directory, or its parent when running from cmd
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		if _, err := os.Stat("../../migrations"); err == nil {
			migrationPath = "file://../../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
