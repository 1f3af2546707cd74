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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/officehours-api/api/swagger"
	"github.com/noah-isme/officehours-api/internal/handler"
	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/repository"
	"github.com/noah-isme/officehours-api/internal/router"
	"github.com/noah-isme/officehours-api/internal/service"
	"github.com/noah-isme/officehours-api/pkg/cache"
	"github.com/noah-isme/officehours-api/pkg/config"
	"github.com/noah-isme/officehours-api/pkg/database"
	"github.com/noah-isme/officehours-api/pkg/jobs"
	"github.com/noah-isme/officehours-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/officehours-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/officehours-api/pkg/middleware/requestid"
)

// @title Office Hours API
// @version 1.0.0
// @description Professors publish availability windows, students book them.
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, serving without cache", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	loc := cfg.Booking.Location()

	userRepo := repository.NewUserRepository(db)
	windowRepo := repository.NewAvailabilityRepository(db)
	requestRepo := repository.NewAppointmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var (
		hub      *handler.Hub
		realtime *service.RealtimeService
	)
	if cfg.Realtime.Enabled {
		hub = handler.NewHub(cfg.CORS.AllowedOrigins, metrics, logr)
		defer hub.Close()
		realtime = service.NewRealtimeService(logr, metrics)
		queue := jobs.NewQueue("realtime", realtime.Handler(hub), jobs.QueueConfig{
			Workers:    cfg.Realtime.Workers,
			MaxRetries: cfg.Realtime.Retries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		realtime.Attach(queue)
	}
	invalidator := service.NewInvalidator(cacheSvc, realtime, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	}).WithInvalidator(invalidator)
	availabilitySvc := service.NewAvailabilityService(service.AvailabilityServiceParams{
		Repo:        windowRepo,
		Directory:   userRepo,
		Validator:   validate,
		Cache:       cacheSvc,
		Invalidator: invalidator,
		Logger:      logr,
		Location:    loc,
	})
	appointmentSvc := service.NewAppointmentService(service.AppointmentServiceParams{
		Repo:        requestRepo,
		Validator:   validate,
		Cache:       cacheSvc,
		Invalidator: invalidator,
		Metrics:     metrics,
		Logger:      logr,
	})
	dashboardSvc := service.NewDashboardService(availabilitySvc, appointmentSvc, logr)
	exportSvc := service.NewExportService(appointmentSvc, cfg.Export.Title, loc, logr)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Setup(r, cfg.APIPrefix, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Session:      handler.NewSessionHandler(),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Appointment:  handler.NewAppointmentHandler(appointmentSvc, exportSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Metrics:      handler.NewMetricsHandler(metrics, db),
		Hub:          hub,
	}, router.Deps{
		Tokens:      authSvc,
		Audit:       userRepo,
		AuthLimiter: limiter,
		Metrics:     metrics,
		Logger:      logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
