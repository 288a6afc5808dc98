package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/agreements-api/api/swagger"
	"github.com/noah-isme/agreements-api/internal/handler"
	internalmiddleware "github.com/noah-isme/agreements-api/internal/middleware"
	"github.com/noah-isme/agreements-api/internal/repository"
	"github.com/noah-isme/agreements-api/internal/service"
	"github.com/noah-isme/agreements-api/migrations"
	"github.com/noah-isme/agreements-api/pkg/cache"
	"github.com/noah-isme/agreements-api/pkg/config"
	"github.com/noah-isme/agreements-api/pkg/database"
	"github.com/noah-isme/agreements-api/pkg/export"
	"github.com/noah-isme/agreements-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/agreements-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/agreements-api/pkg/middleware/requestid"
	"github.com/noah-isme/agreements-api/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Agreements API
// @version 1.0.0
// @description Institutional agreements, supervision reports and supervisor evaluations
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Migrations.Enabled {
		if err := database.Migrate(db, migrations.FS, logr); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.Prefix, logr)
	defer cacheRepo.Close() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.Files.StorageDir)
	if err != nil {
		return fmt.Errorf("init file storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Files.SignedURLSecret, cfg.Files.SignedURLTTL)

	validate := validator.New()
	location := cfg.Agreements.Location()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	agreementRepo := repository.NewAgreementRepository(db)
	reportRepo := repository.NewReportRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationSvc := service.NewNotificationService(notificationRepo, metricsSvc, logr)
	agreementSvc := service.NewAgreementService(service.AgreementServiceParams{
		Repo:       agreementRepo,
		Reports:    reportRepo,
		Activities: activityRepo,
		Profiles:   profileRepo,
		Storage:    files,
		Signer:     signer,
		Exporters:  []service.TableRenderer{export.NewCSVExporter(), export.NewPDFExporter()},
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
		Config: service.AgreementServiceConfig{
			ExpiryWindowDays: cfg.Agreements.ExpiryWindowDays,
			Location:         location,
			MaxFileSize:      cfg.Files.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Files.AllowedMIMEs,
			ExportsEnabled:   cfg.Exports.Enabled,
			DownloadPath:     cfg.APIPrefix,
		},
	})
	reportSvc := service.NewReportService(reportRepo, agreementRepo, profileRepo, notificationSvc, cacheSvc, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, agreementRepo, userRepo, notificationSvc, cacheSvc, validate, logr)
	supervisorSvc := service.NewSupervisorService(service.SupervisorServiceParams{
		Repo:        supervisorRepo,
		Reports:     reportRepo,
		Evaluations: evaluationRepo,
		Agreements:  agreementRepo,
		Profiles:    profileRepo,
		Notifier:    notificationSvc,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
	})
	evaluationSvc := service.NewEvaluationService(evaluationRepo, supervisorRepo, agreementRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, profileRepo, notificationRepo, cacheSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, profileRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:   cfg.JWT.Secret,
		AccessTokenExpiry:   cfg.JWT.Expiration,
		RememberTokenExpiry: cfg.JWT.RememberExpiration,
		RefreshTokenExpiry:  cfg.JWT.RefreshExpiration,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Agreements:  agreementSvc,
		Reports:     reportRepo,
		Supervisors: supervisorRepo,
		Activities:  activityRepo,
		Cache:       cacheSvc,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:         cfg.Dashboard.CacheTTL,
			ExpiryWindowDays: cfg.Agreements.ExpiryWindowDays,
		},
	})
	reconcilerSvc := service.NewReconcilerService(agreementRepo, notificationSvc, metricsSvc, cacheSvc, logr, service.ReconcilerConfig{
		Interval: cfg.Reconciler.Interval,
		Workers:  cfg.Reconciler.Workers,
		Retries:  cfg.Reconciler.Retries,
		Location: location,
	})
	if cfg.Reconciler.Enabled {
		reconcilerSvc.Start(ctx)
		defer reconcilerSvc.Stop()
		logr.Info("status reconciler started", zap.Duration("interval", cfg.Reconciler.Interval))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	handler.Routes{
		Auth:          handler.NewAuthHandler(authSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Agreements:    handler.NewAgreementHandler(agreementSvc, reconcilerSvc),
		Reports:       handler.NewReportHandler(reportSvc),
		Activities:    handler.NewActivityHandler(activitySvc),
		Supervisors:   handler.NewSupervisorHandler(supervisorSvc, evaluationSvc),
		Users:         handler.NewUserHandler(userSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc, db),
		Tokens:        authSvc,
		Audit:         userRepo,
	}.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
