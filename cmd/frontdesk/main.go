package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"golang.org/x/time/rate"

	"github.com/neomorfeo/frontdesk/internal/adapter/amqp"
	"github.com/neomorfeo/frontdesk/internal/adapter/cache"
	"github.com/neomorfeo/frontdesk/internal/adapter/fsm"
	oteladapter "github.com/neomorfeo/frontdesk/internal/adapter/otel"
	"github.com/neomorfeo/frontdesk/internal/adapter/redis"
	riveradapter "github.com/neomorfeo/frontdesk/internal/adapter/river"
	"github.com/neomorfeo/frontdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/config"
	"github.com/neomorfeo/frontdesk/internal/domain"

	handler "github.com/neomorfeo/frontdesk/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("FRONTDESK_CONFIG"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	providers, err := oteladapter.Setup(ctx, oteladapter.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	locker, closeLocker, err := newLocker(ctx, cfg.Lock, store)
	if err != nil {
		return fmt.Errorf("locker: %w", err)
	}
	defer closeLocker()

	notifier, closeNotifier, err := newNotifier(cfg.AMQP, logger)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	defer closeNotifier()

	riverClient, err := riveradapter.Setup(ctx, store.DB(), notifier)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	roomTypes := cache.NewRoomTypes(sqlite.NewRoomTypeRepository(store.DB()), cfg.Cache.RoomTypeTTL)
	tracedStore := oteladapter.NewTracingStore(store)

	// --- Application ---
	svc := handler.Services{
		Rooms: app.NewRoomService(tracedStore, roomTypes, fsm.NewRoomMachine()),
		Stays: app.NewStayService(app.StayDeps{
			Store:     tracedStore,
			RoomTypes: roomTypes,
			Guests:    sqlite.NewGuestDirectory(store.DB()),
			Locker:    locker,
			Publisher: oteladapter.NewTracingPublisher(riveradapter.NewPublisher(riverClient)),
			Identity:  oteladapter.NewTracingIdentityReporter(riveradapter.NewIdentityReporter(riverClient)),
			Machine:   fsm.NewStayMachine(),
		},
			app.WithLogger(logger),
			app.WithLockTiming(cfg.Lock.TTL, cfg.Lock.Wait),
		),
		Reservations: app.NewReservationService(tracedStore, roomTypes),
		Timeline:     app.NewTimelineService(tracedStore),
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("frontdesk", otelchi.WithChiRoutes(router)))
	router.Use(handler.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst).Middleware)

	api := humachi.New(router, huma.DefaultConfig("frontdesk", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("frontdesk listening", "port", cfg.Server.Port, "docs", "http://localhost:"+cfg.Server.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		logger.Error("river shutdown", "error", err)
	}

	logger.Info("stopped")
	return nil
}

func newLogger(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// newLocker picks the advisory lock backend. The SQLite lease table is
// enough for a single process; redis serves several processes.
func newLocker(ctx context.Context, cfg config.LockConfig, store *sqlite.Store) (domain.Locker, func(), error) {
	var (
		inner   domain.Locker
		cleanup = func() {}
	)
	switch cfg.Backend {
	case "redis":
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		inner = redis.NewLocker(client, "frontdesk:lock:")
		cleanup = func() { client.Close() }
	default:
		inner = sqlite.NewLocker(store.DB())
	}

	traced, err := oteladapter.NewTracingLocker(inner)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return traced, cleanup, nil
}

// newNotifier publishes to RabbitMQ when a broker is configured and logs
// notifications otherwise.
func newNotifier(cfg config.AMQPConfig, logger *slog.Logger) (domain.Notifier, func(), error) {
	if cfg.URL == "" {
		return riveradapter.NewLogNotifier(logger), func() {}, nil
	}
	n, err := amqp.Dial(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, nil, err
	}
	return n, func() { n.Close() }, nil
}
