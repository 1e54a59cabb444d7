// rail-booking-api serves the seat inventory and booking API.
//
// Without DB_DSN and REDIS_HOST every driver runs in memory, which is enough
// to try the API locally:
//
//	go run ./cmd/server --port 8080
//	go run ./cmd/railctl token --user u-1 --role admin
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/biyonik/rail-booking-api/internal/config"
	"github.com/biyonik/rail-booking-api/internal/controllers"
	"github.com/biyonik/rail-booking-api/internal/jobs"
	"github.com/biyonik/rail-booking-api/internal/middleware"
	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/internal/patterns/observer"
	"github.com/biyonik/rail-booking-api/internal/patterns/strategy"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/internal/router"
	"github.com/biyonik/rail-booking-api/internal/services"
	"github.com/biyonik/rail-booking-api/pkg/auth"
	"github.com/biyonik/rail-booking-api/pkg/cache"
	"github.com/biyonik/rail-booking-api/pkg/database"
	"github.com/biyonik/rail-booking-api/pkg/database/migration"
	"github.com/biyonik/rail-booking-api/pkg/events"
	"github.com/biyonik/rail-booking-api/pkg/queue"
	"github.com/biyonik/rail-booking-api/pkg/storage"
)

type options struct {
	configPath string
	port       string
	seatStore  string
	migrate    bool
	worker     bool
}

func main() {
	logger := log.New(os.Stdout, "[rail] ", log.LstdFlags)

	if err := run(logger); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger) error {
	var opts options
	flags := pflag.NewFlagSet("rail-booking-api", pflag.ContinueOnError)
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&opts.port, "port", "p", "", "listen port (overrides PORT)")
	flags.StringVar(&opts.seatStore, "seat-store", "", "seat store driver: mysql, redis or memory (overrides SEAT_STORE)")
	flags.BoolVar(&opts.migrate, "migrate", false, "apply pending database migrations before serving")
	flags.BoolVar(&opts.worker, "worker", true, "process background jobs in this process")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if opts.seatStore != "" {
		cfg.Booking.SeatStore = opts.seatStore
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer app.close()

	return app.serve(ctx)
}

// app owns every long-lived dependency of the process.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	db         *sql.DB
	redis      *database.RedisClient
	cache      cache.Cache
	dispatcher *events.Dispatcher
	queue      queue.Queue
	limiter    *middleware.RateLimiter
	handler    http.Handler
	runWorker  bool

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, opts options, logger *log.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, runWorker: opts.worker}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	if err := a.connect(ctx, opts.migrate); err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	if a.redis != nil {
		client = a.redis.Client()
	}

	// Repositories
	var (
		trains   repositories.TrainRepository   = repositories.NewMemoryTrainRepository()
		tickets  repositories.TicketRepository  = repositories.NewMemoryTicketRepository()
		warrants repositories.WarrantRepository = repositories.NewMemoryWarrantRepository()
	)
	if a.db != nil {
		trains = repositories.NewMySQLTrainRepository(a.db)
		tickets = repositories.NewMySQLTicketRepository(a.db)
		warrants = repositories.NewMySQLWarrantRepository(a.db)
	}
	seats, err := repositories.NewSeatStore(cfg.Booking.SeatStore, a.db, client, cfg.Booking.SeatStorePrefix)
	if err != nil {
		return nil, err
	}
	logger.Printf("💺 Seat store: %s", cfg.Booking.SeatStore)

	// Cache
	if cfg.Cache.Driver == "redis" {
		a.cache = cache.NewRedisCache(client, logger, cfg.Cache.Prefix)
	} else {
		mem := cache.NewMemoryCache(logger, time.Minute)
		a.cache = mem
		a.closers = append(a.closers, mem.Close)
	}

	files, err := storage.NewLocalStorage(cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	a.dispatcher = events.NewDispatcher(logger)
	passes := factory.NewTicketPassFactory(cfg.Booking.PassSecret)

	// Jobs
	passDeps := &jobs.PassDeps{Tickets: tickets, Passes: passes, Storage: files, Logger: logger}
	registry := queue.NewRegistry()
	jobs.Register(registry, passDeps)
	if cfg.Queue.Driver == "redis" {
		a.queue = queue.NewRedisQueue(client, registry, logger, cfg.Queue.Prefix)
	} else {
		a.queue = queue.NewSyncQueue(logger)
	}

	// Services
	booking := services.NewBookingService(services.BookingDeps{
		Trains:  trains,
		Seats:   seats,
		Tickets: tickets,
		Fares:   strategy.NewFareCalculator(cfg.Booking.BaseFarePerSegment, cfg.Booking.ClassMultipliers),
		Passes:  passes,
		Files:   files,
		Events:  a.dispatcher,
		Logger:  logger,
	})
	trainSvc := services.NewTrainService(trains, seats, a.cache, a.dispatcher, logger)
	overview := services.NewOverviewService(trains, tickets, warrants, a.cache, logger)
	warrantSvc := services.NewWarrantService(warrants, a.dispatcher, logger)

	observer.Attach(a.dispatcher,
		observer.NewPassRenderObserver(a.queue, passDeps),
		observer.NewPassCleanupObserver(files, logger),
		observer.NewOverviewCacheObserver(overview),
		observer.NewOperatorAlertObserver(logger),
	)
	a.dispatcher.PrintStats()

	// HTTP
	jwtCfg := auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationTime: cfg.JWT.Expiration,
	}
	r := router.New()
	r.Use(middleware.RequestID)
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins...))
	if cfg.RateLimit.Enabled {
		// Identify callers early so the global bucket is per user when possible.
		r.Use(middleware.OptionalAuth(jwtCfg))
		r.Use(middleware.RateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit.BookingPerSecond, cfg.RateLimit.BookingBurst)
	}

	router.RegisterRoutes(r, router.Handlers{
		Trains:  controllers.NewTrainController(trainSvc, booking, logger),
		Tickets: controllers.NewTicketController(booking, logger),
		Admin:   controllers.NewAdminController(overview, warrantSvc, logger),
		Health:  a.healthController(),
	}, router.Options{JWT: jwtCfg, BookingLimiter: a.limiter})
	a.handler = r

	ok = true
	return a, nil
}

// connect opens MySQL and Redis when configured.
func (a *app) connect(ctx context.Context, migrate bool) error {
	if a.cfg.UsesMySQL() {
		db, err := database.Connect(ctx, database.PoolConfig{
			DSN:             a.cfg.DB.DSN,
			MaxOpenConns:    a.cfg.DB.MaxOpenConns,
			MaxIdleConns:    a.cfg.DB.MaxIdleConns,
			ConnMaxLifetime: a.cfg.DB.ConnMaxLifetime,
		}, a.logger)
		if err != nil {
			return err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)

		if migrate {
			applied, err := migration.NewMigrator(db, a.logger).Run(ctx, repositories.Migrations())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.logger.Printf("✅ %d migration(s) applied", len(applied))
		}
	} else {
		a.logger.Println("⚠️  DB_DSN is empty, trains, tickets and warrants are kept in memory")
	}

	if a.cfg.UsesRedis() {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = a.cfg.Redis.Host
		redisCfg.Port = a.cfg.Redis.Port
		redisCfg.Password = a.cfg.Redis.Password
		redisCfg.DB = a.cfg.Redis.DB

		client, err := database.NewRedisClient(ctx, redisCfg, a.logger)
		if err != nil {
			return err
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
	}
	return nil
}

type statsReporter interface {
	Stats() map[string]any
}

func (a *app) healthController() *controllers.HealthController {
	checks := make(map[string]controllers.HealthCheck)
	if a.db != nil {
		checks["mysql"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping
	}

	health := controllers.NewHealthController(checks)
	if a.redis != nil {
		health.WithStats("redis", a.redis.Stats)
	}
	if reporter, ok := a.cache.(statsReporter); ok {
		health.WithStats("cache", reporter.Stats)
	}
	health.WithStats("events", func() map[string]any {
		listeners := make(map[string]any)
		for name, n := range a.dispatcher.Stats() {
			listeners[name] = n
		}
		return listeners
	})
	return health
}

// serve runs the HTTP server, and the job worker when enabled, until ctx is
// cancelled, then drains both.
func (a *app) serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	var wg sync.WaitGroup
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if a.runWorker && a.cfg.Queue.Driver == "redis" {
		worker := queue.NewWorker(a.queue, a.logger, queue.WorkerConfig{RetryDelay: a.cfg.Queue.RetryAfter})
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx, jobs.PassQueue)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("🚆 %s listening on %s (%s)", a.cfg.App.Name, server.Addr, a.cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			stopWorker()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Println("🔄 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	stopWorker()
	wg.Wait()
	if derr := a.dispatcher.ShutdownWithTimeout(a.cfg.Server.ShutdownTimeout); derr != nil {
		a.logger.Printf("⚠️  Event listeners still running: %v", derr)
	}
	return err
}

func (a *app) close() {
	middleware.StopAllLimiters()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Printf("⚠️  Close: %v", err)
		}
	}
	a.closers = nil
}
