package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/juanketo/BBMApp-sub000/api/swagger"
	"github.com/juanketo/BBMApp-sub000/internal/handler"
	"github.com/juanketo/BBMApp-sub000/internal/middleware"
	"github.com/juanketo/BBMApp-sub000/internal/models"
	"github.com/juanketo/BBMApp-sub000/internal/repository"
	"github.com/juanketo/BBMApp-sub000/internal/service"
	"github.com/juanketo/BBMApp-sub000/pkg/cache"
	"github.com/juanketo/BBMApp-sub000/pkg/config"
	"github.com/juanketo/BBMApp-sub000/pkg/database"
	"github.com/juanketo/BBMApp-sub000/pkg/export"
	"github.com/juanketo/BBMApp-sub000/pkg/logger"
	corsmiddleware "github.com/juanketo/BBMApp-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/juanketo/BBMApp-sub000/pkg/middleware/requestid"
)

// @title BBM Payments API
// @version 1.0.0
// @description Tuition payment calculation and ledger for BBM franchises
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.NewPostgres(ctx, cfg.Database)
	cancel()
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Pricing.CacheEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logr.Warn("pricing cache disabled, redis unavailable", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()

	pricingRepo := repository.NewPricingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Pricing.CacheTTL, logr, redisClient != nil)
	pricingProvider := service.NewCachedPricingProvider(pricingRepo, cacheSvc, logr)

	calculator := service.NewPaymentCalculator(pricingProvider, service.CalculatorConfig{
		EnrollmentFee:  decimal.NewNullDecimal(cfg.Pricing.EnrollmentFee),
		CurrencySymbol: cfg.Pricing.CurrencySymbol,
	}, metricsSvc, logr)

	pricingSvc := service.NewPricingService(pricingRepo, pricingProvider, validate, logr)
	paymentSvc := service.NewPaymentService(calculator, paymentRepo, metricsSvc, validate, logr)
	receiptSvc := service.NewReceiptService(calculator, &export.CSVExporter{BOM: true}, export.NewPDFExporter(), calculator.Formatter(), logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	pricingHandler := handler.NewPricingHandler(pricingSvc, paymentSvc, receiptSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, receiptSvc)

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/price-bases", pricingHandler.ListPriceBases)
	secured.GET("/price-bases/:id", pricingHandler.GetPriceBase)
	secured.GET("/price-bases/:id/price", pricingHandler.CurrentPrice)
	secured.GET("/price-bases/:id/memberships", pricingHandler.AvailableMemberships)
	secured.GET("/price-bases/:id/memberships/export", pricingHandler.ExportMemberships)
	secured.GET("/memberships", pricingHandler.ListMemberships)
	secured.GET("/memberships/:id", pricingHandler.GetMembership)

	secured.POST("/payments/quote", paymentHandler.Quote)
	secured.POST("/payments", paymentHandler.Create)
	secured.GET("/payments", paymentHandler.List)
	secured.GET("/payments/:id", paymentHandler.Get)
	secured.GET("/payments/:id/receipt", paymentHandler.Receipt)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/price-bases", pricingHandler.CreatePriceBase)
	admin.PUT("/price-bases/:id", pricingHandler.UpdatePriceBase)
	admin.DELETE("/price-bases/:id", pricingHandler.DeletePriceBase)
	admin.POST("/memberships", pricingHandler.CreateMembership)
	admin.PUT("/memberships/:id", pricingHandler.UpdateMembership)
	admin.DELETE("/memberships/:id", pricingHandler.DeleteMembership)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "pricing_cache", cacheSvc.Enabled())
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
