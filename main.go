// File: diaglab/main.go
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diaglab/config"
	"diaglab/cron"
	"diaglab/database"
	bookingRepo "diaglab/database/repository/booking"
	couponRepo "diaglab/database/repository/coupon"
	slotLockRepo "diaglab/database/repository/slotlock"
	userRepoPkg "diaglab/database/repository/user"
	"diaglab/handlers"
	"diaglab/metrics"
	"diaglab/middleware"
	"diaglab/routes"
	"diaglab/services/coupon"
	"diaglab/services/notification"
	"diaglab/services/reservation"
	"diaglab/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type stores struct {
	bookings bookingRepo.BookingRepository
	coupons  couponRepo.CouponRepository
	users    userRepoPkg.UserRepository
	sqlDB    *sql.DB
}

func openStores(logger *zap.Logger) stores {
	switch config.AppConfig.StoreBackend {
	case "sqlite":
		db, err := database.OpenSQLite(config.AppConfig.SQLitePath)
		if err != nil {
			logger.Fatal("main: failed to open sqlite store", zap.Error(err))
		}
		return stores{
			bookings: bookingRepo.NewSQLiteBookingRepo(db),
			coupons:  couponRepo.NewSQLiteCouponRepo(db),
			users:    userRepoPkg.NewSQLiteUserRepo(db),
			sqlDB:    db,
		}
	case "mongo", "":
		db := database.Database()
		return stores{
			bookings: bookingRepo.NewMongoBookingRepo(db),
			coupons:  couponRepo.NewMongoCouponRepo(db),
			users:    userRepoPkg.NewMongoUserRepo(db),
		}
	default:
		logger.Fatal("main: unknown STORE_BACKEND", zap.String("backend", config.AppConfig.StoreBackend))
	}
	return stores{}
}

func openLocks(logger *zap.Logger, clock utils.Clock, deps map[string]utils.Pinger) slotLockRepo.SlotLockRepository {
	switch config.AppConfig.LockBackend {
	case "mongo":
		deps["mongo"] = utils.PingFunc(database.PingMongo)
		return slotLockRepo.NewMongoSlotLockRepo(database.Database(), clock)
	case "redis", "":
		client := utils.GetLockClient()
		deps["redis"] = utils.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		return slotLockRepo.NewRedisSlotLockRepo(client, clock)
	default:
		logger.Fatal("main: unknown LOCK_BACKEND", zap.String("backend", config.AppConfig.LockBackend))
	}
	return nil
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	metrics.Register()

	clock := utils.SystemClock{}
	healthDeps := map[string]utils.Pinger{}

	// repositories.
	st := openStores(logger)
	if st.sqlDB != nil {
		healthDeps["sqlite"] = utils.PingFunc(st.sqlDB.PingContext)
	} else {
		healthDeps["mongo"] = utils.PingFunc(database.PingMongo)
	}
	locks := openLocks(logger, clock, healthDeps)

	// notifications.
	var (
		notifier    notification.Notifier = notification.LogNotifier{Logger: logger}
		queueClient *asynq.Client
		worker      *asynq.Server
	)
	if config.AppConfig.NotificationBackend == "queue" {
		queueClient = asynq.NewClient(cron.QueueRedisOpt())
		qn, err := notification.NewQueueNotifier(queueClient, clock)
		if err != nil {
			logger.Fatal("main: failed to initialize notifier", zap.Error(err))
		}
		notifier = qn
		if config.AppConfig.NotificationWorkerEnabled {
			worker = cron.InitNotificationWorker(notification.LogSender{Logger: logger})
		}
	}

	// services.
	ledger := coupon.NewLedger(st.coupons, clock)
	engine := reservation.NewReservationEngine(
		locks,
		st.bookings,
		st.users,
		ledger,
		notifier,
		clock,
		config.AppConfig.SlotHoldDuration,
	)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, 30*time.Second, healthDeps)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewSlotHandler(engine),
		handlers.NewBookingHandler(engine),
		handlers.NewCouponHandler(ledger),
		gin.WrapH(promhttp.Handler()),
	)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	stopMonitor()
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			logger.Warn("main: failed to close queue client", zap.Error(err))
		}
	}
	if st.sqlDB != nil {
		if err := st.sqlDB.Close(); err != nil {
			logger.Warn("main: failed to close sqlite", zap.Error(err))
		}
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: failed to disconnect mongo", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
