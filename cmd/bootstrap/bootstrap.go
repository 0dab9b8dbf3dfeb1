package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medical-records/config"
	deliveryHttp "medical-records/internal/delivery/http"
	"medical-records/internal/delivery/http/handler"
	"medical-records/internal/delivery/http/middleware"
	"medical-records/internal/infrastructure/cache"
	"medical-records/internal/infrastructure/database"
	"medical-records/internal/infrastructure/storage"
	"medical-records/internal/repository"
	"medical-records/internal/service"
	"medical-records/internal/usecase"
	"medical-records/pkg/jwt"
	"medical-records/pkg/memberid"
	"medical-records/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App)
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.WithField("driver", cfg.DB.Driver).Info("Database connected successfully")

	schema := database.NewSchemaInitializer(db, cfg.DB, log)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := schema.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := database.RegisterSchemaHealing(db, schema, log); err != nil {
		return nil, fmt.Errorf("failed to register schema healing: %w", err)
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	gateway, err := newStorageGateway(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	// Initialize all layers
	server, err := initializeServer(ctx, cfg, log, db, schema, redisClient, gateway)
	if err != nil {
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// newStorageGateway uses R2 when it is fully configured and local disk
// otherwise.
func newStorageGateway(cfg config.StorageConfig, log *logrus.Logger) (service.StorageGateway, error) {
	local, err := storage.NewLocalStore(cfg.UploadDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	var remote storage.ObjectStore
	if cfg.R2.Enabled() {
		r2, err := storage.NewR2Store(cfg.R2)
		if err != nil {
			log.Warnf("Failed to initialize R2 storage, using local storage only: %+v", err)
		} else {
			remote = r2
			log.WithField("bucket", cfg.R2.Bucket).Info("R2 storage enabled")
		}
	} else {
		log.Info("R2 storage not configured, using local storage")
	}

	return service.NewStorageGateway(log, remote, local), nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	ctx context.Context,
	cfg *config.Config,
	log *logrus.Logger,
	db *gorm.DB,
	schema database.SchemaInitializer,
	redisClient *redis.Client,
	gateway service.StorageGateway,
) (*http.Server, error) {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)
	tokenStore := cache.NewTokenStore(redisClient)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	roleRepo := repository.NewRoleRepository()
	memberRepo := repository.NewMemberRepository()
	doctorRepo := repository.NewDoctorRepository()
	medicationRepo := repository.NewMedicationRepository()
	diagnosisRepo := repository.NewDiagnosisRepository()
	medicalFileRepo := repository.NewMedicalFileRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	idGenerator := memberid.NewGenerator(log)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, roleRepo, jwtService, tokenStore, auditService, cfg.Admin)
	memberUsecase := usecase.NewMemberUsecase(db, log, memberRepo, doctorRepo, medicationRepo, diagnosisRepo, medicalFileRepo, idGenerator, gateway, auditService)
	careRecordUsecase := usecase.NewCareRecordUsecase(db, log, memberRepo, doctorRepo, medicationRepo, diagnosisRepo, auditService)
	medicalFileUsecase := usecase.NewMedicalFileUsecase(db, log, memberRepo, medicalFileRepo, gateway, auditService, cfg.Storage.MaxUploadSize)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo, memberRepo)
	systemUsecase := usecase.NewSystemUsecase(db, log, cfg.DB.Driver, schema, memberRepo, userRepo, gateway, authUsecase)

	if err := authUsecase.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	userHandler := handler.NewUserHandler(authUsecase, customValidator)
	memberHandler := handler.NewMemberHandler(memberUsecase, careRecordUsecase, customValidator)
	medicalFileHandler := handler.NewMedicalFileHandler(medicalFileUsecase, customValidator, cfg.Storage.MaxUploadSize)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)
	systemHandler := handler.NewSystemHandler(systemUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(authHandler, userHandler, memberHandler, medicalFileHandler, auditLogHandler, systemHandler, authMiddleware, corsMiddleware, loggingMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
