package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-engine/config"
	"booking-engine/internal/handlers"
	"booking-engine/internal/notifier"
	"booking-engine/internal/notify"
	"booking-engine/internal/pricing"
	"booking-engine/internal/repository"
	"booking-engine/internal/services"
	"booking-engine/internal/ticketno"
	"booking-engine/internal/worker"
	"booking-engine/monitoring"
	"booking-engine/security"
	"booking-engine/utils"

	_ "booking-engine/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification transport
	dispatcher, closeDispatcher, err := notify.New(cfg.NotifyTransport, notify.AMQPConfig{
		URL:       cfg.NotifyAMQPURL,
		QueueName: cfg.NotifyQueue,
	}, cfg.NotifyKafkaBrokers, cfg.NotifyTopic)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	// Initialize services
	store := repository.NewStore(app)
	locker := utils.NewRedisLocker(redisClient)
	numbers := ticketno.NewGenerator(cfg.QRURLTemplate,
		ticketno.WithRedis(redisClient),
		ticketno.WithRetries(cfg.TicketNumberRetries),
	)
	authorizer := services.NewAuthorizer(store)

	bookingService := services.NewBookingService(store)
	issuanceService := services.NewIssuanceService(store, numbers, locker, dispatcher, services.IssuanceConfig{
		LockTTL: cfg.IssuanceLockTTL,
		Retries: cfg.TicketNumberRetries,
	})
	checkoutService := services.NewCheckoutService(store, pricing.NewCalculator(cfg.CouponCode), bookingService, issuanceService)
	attendanceService := services.NewAttendanceService(store, authorizer)
	reportService := services.NewReportService(store)
	sweepService := services.NewSweepService(store, cfg.Location())
	sweepWorker := worker.NewSweepWorker(sweepService, locker, cfg.SweepInterval, cfg.SweepLockTTL)

	// Change feed
	hub := notifier.NewHub(cfg.SubscriberBuffer)
	notifier.BindHooks(app, hub)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(checkoutService, bookingService, issuanceService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	reportHandler := handlers.NewReportHandler(reportService, authorizer)
	adminHandler := handlers.NewAdminHandler(sweepWorker)
	liveHandler := handlers.NewLiveHandler(hub, authorizer)
	limiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Mark every unset ticket of completed events present",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := sweepWorker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("Sweep done: %d events, %d tickets updated, %d failed",
				result.EventsProcessed, result.TicketsUpdated, result.Failed)
			return nil
		},
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		api := e.Router.Group("/api/v1")

		// Booking endpoints
		api.POST("/checkout", bookingHandler.Checkout).Bind(apis.RequireAuth())
		api.POST("/pricing/quote", bookingHandler.Quote)
		api.GET("/bookings", bookingHandler.ListBookings).Bind(apis.RequireAuth())
		api.POST("/bookings/{bookingId}/issue", bookingHandler.IssueTickets).Bind(apis.RequireAuth())

		// Attendance endpoints
		api.GET("/events/{eventId}/tickets/search", attendanceHandler.SearchTicket).
			BindFunc(limiter.AntiBot).
			BindFunc(limiter.Limit("search", cfg.SearchRateLimit, time.Minute))
		api.POST("/attendance/mark", attendanceHandler.MarkAttendance).Bind(apis.RequireAuth())
		api.GET("/tickets/{ticketId}/attendance", attendanceHandler.History).Bind(apis.RequireAuth())

		// Reports
		api.GET("/events/{eventId}/attendance/summary", reportHandler.EventSummary).Bind(apis.RequireAuth())
		api.GET("/reports/cities", reportHandler.CityRollups).Bind(apis.RequireSuperuserAuth())
		api.GET("/events/{eventId}/live", liveHandler.Stream).Bind(apis.RequireAuth())

		// Admin endpoints
		api.POST("/admin/sweep", adminHandler.RunSweep).Bind(apis.RequireSuperuserAuth())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		startBackground(ctx, cfg, redisClient, hub, sweepWorker)

		return e.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		cancel()
		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// startBackground runs the sweep worker, the PubNub bridge, the lock monitor
// and the metrics server until ctx is cancelled.
func startBackground(ctx context.Context, cfg *config.Config, redisClient *redis.Client, hub *notifier.Hub, sweepWorker *worker.SweepWorker) {
	g, gctx := errgroup.WithContext(ctx)

	if cfg.SweepEnabled {
		g.Go(func() error { return sweepWorker.Run(gctx) })
	}

	if cfg.PubNubPublishKey != "" {
		bridge := notifier.NewBridge(hub, notifier.NewPubNubPublisher(notifier.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UUID:         cfg.PubNubUUID,
		}))
		g.Go(func() error { return bridge.Run(gctx) })
	}

	if cfg.EnableMetrics {
		g.Go(func() error { return monitoring.NewMonitor(redisClient).Run(gctx) })
		g.Go(func() error { return serveMetrics(gctx, ":"+cfg.MetricsPort) })
	}

	go func() {
		if err := g.Wait(); err != nil {
			slog.Error("Background task failed", "error", err)
		}
	}()
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
