package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/care-billing-api/api/swagger"
	"github.com/noah-isme/care-billing-api/internal/handler"
	internalmiddleware "github.com/noah-isme/care-billing-api/internal/middleware"
	"github.com/noah-isme/care-billing-api/internal/repository"
	"github.com/noah-isme/care-billing-api/internal/service"
	"github.com/noah-isme/care-billing-api/pkg/config"
	"github.com/noah-isme/care-billing-api/pkg/export"
	"github.com/noah-isme/care-billing-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/care-billing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/care-billing-api/pkg/middleware/requestid"
	"github.com/noah-isme/care-billing-api/pkg/recordstore"
)

// @title Care Billing API
// @version 1.0.0
// @description Attendance register, monthly invoicing and staff payroll reconciliation for day-care clients
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

	ctx := context.Background()
	metrics := service.NewMetricsService()

	backend, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open record store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer backend.close()
	store := recordstore.Instrument(backend.store, metrics.ObserveStoreOperation)

	directory := repository.NewDirectoryRepository(store)
	if cfg.Store.SeedFile != "" {
		if err := seedDirectory(ctx, directory, cfg.Store.SeedFile, logr); err != nil {
			logr.Fatal("failed to seed directory", zap.String("file", cfg.Store.SeedFile), zap.Error(err))
		}
	}

	locker, lockerCheck, closeLocker, err := openLocker(cfg, logr)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer closeLocker()

	attendanceRepo := repository.NewAttendanceRepository(store)
	invoiceRepo := repository.NewInvoiceRepository(store)
	staffAttendanceRepo := repository.NewStaffAttendanceRepository(store)
	auditRepo := repository.NewAuditRepository(store)

	validate := validator.New()
	pdf := export.NewPDFExporter()

	authService := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	attendanceService := service.NewAttendanceService(attendanceRepo, directory, validate, logr)
	allocator := service.NewInvoiceNumberAllocator(invoiceRepo, cfg.Billing.MaxNumberAttempts, metrics, logr)
	invoiceService := service.NewInvoiceService(
		invoiceRepo,
		directory,
		attendanceRepo,
		allocator,
		pdf,
		metrics,
		service.InvoiceServiceConfig{DueDays: cfg.Billing.DueDays, Concurrency: cfg.Billing.Concurrency},
		validate,
		logr,
	)
	staffService := service.NewStaffReconciliationService(directory, staffAttendanceRepo, export.NewCSVExporter(), pdf, logr)

	checks := map[string]func(ctx context.Context) error{"store": backend.ping}
	if lockerCheck != nil {
		checks["redis"] = lockerCheck
	}
	var metricsEndpoint http.Handler
	if cfg.Metrics.Enabled {
		metricsEndpoint = metrics.Handler()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	registerRoutes(r, cfg.APIPrefix, routeDeps{
		auth:       authService,
		recorder:   auditRepo,
		logger:     logr,
		metrics:    handler.NewMetricsHandler(metricsEndpoint, checks),
		invoices:   handler.NewInvoiceHandler(invoiceService, locker, cfg.Billing.LockTTL, logr),
		attendance: handler.NewAttendanceHandler(attendanceService),
		staff:      handler.NewStaffHandler(staffService),
		audit:      handler.NewAuditHandler(auditRepo),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
