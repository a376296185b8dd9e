package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	appledger "github.com/tindahan/backend/internal/application/ledger"
	apptrade "github.com/tindahan/backend/internal/application/trade"
	"github.com/tindahan/backend/internal/infrastructure/auth"
	"github.com/tindahan/backend/internal/infrastructure/cache"
	"github.com/tindahan/backend/internal/infrastructure/config"
	"github.com/tindahan/backend/internal/infrastructure/event"
	"github.com/tindahan/backend/internal/infrastructure/logger"
	"github.com/tindahan/backend/internal/infrastructure/persistence"
	"github.com/tindahan/backend/internal/infrastructure/scheduler"
	"github.com/tindahan/backend/internal/interfaces/http/handler"
	"github.com/tindahan/backend/internal/interfaces/http/middleware"
	"github.com/tindahan/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting utang ledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	// Repositories
	entryRepo := persistence.NewGormEntryRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormCreditSaleRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRecordRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	runRepo := persistence.NewGormInterestRunRepository(db.DB)

	scope := persistence.NewGormTransactionScope(db.DB, cfg.Database.LockTimeout)
	calculator := appledger.NewBalanceCalculator(entryRepo, customerRepo)

	// Interest run lock: Redis when reachable, single-process fallback
	// otherwise. The fallback is safe only with one server instance.
	runLock := newRunLock(cfg, log)

	// Event bus and the sale -> ledger projection
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(appledger.NewSaleCompletedHandler(scope, log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	paymentService := appledger.NewPaymentService(scope, log)
	adjustmentService := appledger.NewAdjustmentService(scope, log)
	queryService := appledger.NewQueryService(entryRepo, customerRepo)
	interestService := appledger.NewInterestService(scope, tenantRepo, customerRepo, entryRepo, runRepo, calculator, runLock, log)
	interestService.SetRunLockTTL(cfg.Interest.RunLockTTL)
	rebuildService := appledger.NewRebuildService(scope, tenantRepo, saleRepo, paymentRepo, entryRepo, log)
	saleService := apptrade.NewSaleService(saleRepo, eventBus, log)

	// Monthly interest scheduler
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultInterestSchedulerConfig()
		schedulerConfig.RunDay = cfg.Scheduler.RunDay
		schedulerConfig.RunHour = cfg.Scheduler.RunHour
		interestScheduler := scheduler.NewInterestScheduler(interestService, log, schedulerConfig)
		if err := interestScheduler.Start(context.Background()); err != nil {
			log.Fatal("failed to start interest scheduler", zap.Error(err))
		}
		defer func() {
			if err := interestScheduler.Stop(context.Background()); err != nil {
				log.Error("error stopping interest scheduler", zap.Error(err))
			}
		}()
		log.Info("interest scheduler started",
			zap.Int("run_day", schedulerConfig.RunDay),
			zap.Int("run_hour", schedulerConfig.RunHour),
		)
	}

	// HTTP handlers
	ledgerHandler := handler.NewLedgerHandler(paymentService, adjustmentService, queryService)
	saleHandler := handler.NewSaleHandler(saleService)
	adminHandler := handler.NewAdminHandler(interestService, rebuildService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS())

	if cfg.JWT.Secret != "" {
		jwtService := auth.NewJWTService(cfg.JWT)
		engine.Use(middleware.JWTAuth(jwtService))
	}

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.DevFallbackEnabled = cfg.App.Env == "development"
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	engine.GET("/health", healthHandler(db))

	ledgerRoutes := router.NewGroup("/ledger")
	ledgerRoutes.POST("/customers/:id/payments", ledgerHandler.RecordPayment)
	ledgerRoutes.POST("/customers/:id/adjustments", ledgerHandler.AdjustBalance)
	ledgerRoutes.GET("/customers/:id/entries", ledgerHandler.ListEntries)
	ledgerRoutes.GET("/customers/:id/balance", ledgerHandler.GetBalance)
	ledgerRoutes.POST("/sales", saleHandler.CompleteSale)
	ledgerRoutes.GET("/sales/:id", saleHandler.GetSale)

	adminRoutes := router.NewGroup("/admin")
	adminRoutes.POST("/interest-runs", adminHandler.RunInterest)
	adminRoutes.POST("/ledger-rebuilds", adminHandler.RunRebuild)

	router.NewRouter(engine).
		Register(ledgerRoutes).
		Register(adminRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited gracefully")
}

func newRunLock(cfg *config.Config, log *zap.Logger) appledger.RunLock {
	if cfg.Redis.Host != "" {
		redisLock, err := cache.NewRedisRunLock(cache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			log.Info("redis run lock connected", zap.String("host", cfg.Redis.Host))
			return redisLock
		}
		log.Warn("redis unreachable, falling back to in-process run lock", zap.Error(err))
	}
	return cache.NewInMemoryRunLock()
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
