package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/caremesh/complex-api/internal/config"
	"github.com/caremesh/complex-api/internal/handler"
	complexHandler "github.com/caremesh/complex-api/internal/handler/complex"
	"github.com/caremesh/complex-api/internal/repository/postgres"
	"github.com/caremesh/complex-api/internal/router"
	capacityService "github.com/caremesh/complex-api/internal/service/capacity"
	catalogService "github.com/caremesh/complex-api/internal/service/catalog"
	complexService "github.com/caremesh/complex-api/internal/service/complex"
	transferService "github.com/caremesh/complex-api/internal/service/transfer"
	"github.com/caremesh/complex-api/pkg/i18n"
	"github.com/caremesh/complex-api/pkg/logger"
	"github.com/caremesh/complex-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("complex_api")

	// Repositories
	base := postgres.NewBaseRepository(db)
	complexRepo := postgres.NewComplexRepository(base)
	clinicRepo := postgres.NewClinicRepository(base)
	serviceRepo := postgres.NewServiceRepository(base)
	staffRepo := postgres.NewStaffRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	hoursRepo := postgres.NewWorkingHoursRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	txn := postgres.NewTxnCoordinator(db, appLogger, m)

	// Services
	capacitySvc := capacityService.NewService(clinicRepo, staffRepo, appointmentRepo)
	deactivator := catalogService.NewService(clinicRepo, complexRepo, serviceRepo)
	transferSvc := transferService.NewService(txn, complexRepo, clinicRepo, staffRepo,
		appointmentRepo, hoursRepo, outboxRepo, capacitySvc, appLogger, m)
	complexSvc := complexService.NewService(txn, complexRepo, clinicRepo, deactivator,
		transferSvc, capacitySvc, outboxRepo, appLogger, m)

	// Handlers
	formatter := i18n.NewFormatter()
	h := handler.NewHandler(db)
	complexH := complexHandler.NewHandler(complexSvc, transferSvc, capacitySvc, formatter)

	routerCfg := router.Config{}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimitRPS = cfg.RateLimit.RequestsPerSecond
		routerCfg.RateLimitBurst = cfg.RateLimit.Burst
	}
	r := router.NewRouter(complexH, h, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
