package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyaltystay/cache"
	"loyaltystay/clock"
	"loyaltystay/config"
	"loyaltystay/controllers"
	"loyaltystay/jobs"
	"loyaltystay/middleware"
	"loyaltystay/repository"
	"loyaltystay/routes"
	"loyaltystay/services"
	"loyaltystay/services/logger"
	"loyaltystay/vendors"
	"loyaltystay/vendors/localpms"
	"loyaltystay/vendors/stripevault"
)

func newLogger(cfg config.Config) logger.Logger {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogDir == "" {
		return logger.NewDefaultLogger(level)
	}
	l, err := logger.NewFileLogger(cfg.LogDir, level)
	if err != nil {
		log.Printf("Warning: file logging disabled: %v", err)
		return logger.NewDefaultLogger(level)
	}
	return l
}

func main() {
	cfg := config.Load()
	appLogger := newLogger(cfg)
	clk := clock.NewSystem()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if cfg.AutoMigrate {
		if err := config.Migrate(db, localpms.Models()...); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}
	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}

	tx := repository.NewTxManager(db)
	companies := repository.NewCompanyRepository(db)
	catalog := repository.NewCatalogRepository(db)
	rates := repository.NewRateRepository(db)
	guests := repository.NewGuestRepository(db)
	reservations := repository.NewReservationRepository(db)
	points := repository.NewPointRepository(db)

	reservationSystems := vendors.NewReservationSystemProvider(companies, map[string]vendors.ReservationSystem{
		localpms.ServiceKey: localpms.New(db, clk),
	})
	paymentVaults := vendors.NewPaymentVaultProvider(companies, map[string]vendors.PaymentVault{
		stripevault.ServiceKey: stripevault.New(clk),
	})
	offsiteLoyalty := vendors.NewOffsiteLoyaltyProvider(companies, nil)

	availabilityService := services.NewAvailabilityService(services.AvailabilityServiceOptions{
		Cache:        cache.NewRedisStore(rdb),
		Catalog:      catalog,
		Companies:    companies,
		Reservations: reservationSystems,
		Clock:        clk,
		Logger:       appLogger,
		TTL:          cfg.AvailabilityTTL,
	})
	pointService := services.NewPointService(services.PointServiceOptions{
		Tx:        tx,
		Points:    points,
		Companies: companies,
		Clock:     clk,
		Logger:    appLogger,
	})
	rateService := services.NewRateService(services.RateServiceOptions{
		Tx:           tx,
		Rates:        rates,
		Catalog:      catalog,
		Reservations: reservationSystems,
		Clock:        clk,
		Logger:       appLogger,
	})
	paymentMethodService := services.NewPaymentMethodService(services.PaymentMethodServiceOptions{
		Guests:  guests,
		Vaults:  paymentVaults,
		Loyalty: offsiteLoyalty,
		Logger:  appLogger,
	})
	itineraryService := services.NewItineraryService(services.ItineraryServiceOptions{
		Tx:           tx,
		Reservations: reservations,
		Companies:    companies,
		Catalog:      catalog,
		Availability: availabilityService,
		Points:       pointService,
		Guests:       services.NewGuestService(guests, appLogger),
		Payments:     paymentMethodService,
		Systems:      reservationSystems,
		Clock:        clk,
		Logger:       appLogger,
	})

	scheduler := jobs.NewScheduler(jobs.SchedulerOptions{
		Availability: availabilityService,
		Rates:        rateService,
		Companies:    companies,
		Catalog:      catalog,
		Clock:        clk,
		Logger:       appLogger,
		MonthsAhead:  cfg.AvailabilityMonthsAhead,
	})
	if err := scheduler.Start(cfg.AvailabilityRefreshSpec, cfg.RateSyncSpec); err != nil {
		log.Fatalf("Failed to initialize cron jobs: %v", err)
	}

	router := config.InitRouter(cfg)
	router.Use(middleware.RequestID(), middleware.RequestLogger(appLogger))
	routes.SetupRoutes(router, routes.Handlers{
		Tokens:       services.NewTokenService(cfg.JWTSecret),
		Itineraries:  controllers.NewItineraryController(itineraryService),
		Availability: controllers.NewAvailabilityController(availabilityService, rateService),
		Points:       controllers.NewPointController(pointService, paymentMethodService),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLogger.Info("server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server shutdown: %v", err)
	}
	scheduler.Stop()
	if err := rdb.Close(); err != nil {
		appLogger.Error("redis close: %v", err)
	}
}
