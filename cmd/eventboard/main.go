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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	ebhttp "github.com/Strob0t/EventBoard/internal/adapter/http"
	"github.com/Strob0t/EventBoard/internal/adapter/memory"
	ebnats "github.com/Strob0t/EventBoard/internal/adapter/nats"
	"github.com/Strob0t/EventBoard/internal/adapter/natskv"
	ebotel "github.com/Strob0t/EventBoard/internal/adapter/otel"
	"github.com/Strob0t/EventBoard/internal/adapter/postgres"
	"github.com/Strob0t/EventBoard/internal/adapter/push"
	"github.com/Strob0t/EventBoard/internal/adapter/ristretto"
	"github.com/Strob0t/EventBoard/internal/adapter/tiered"
	"github.com/Strob0t/EventBoard/internal/config"
	"github.com/Strob0t/EventBoard/internal/logger"
	"github.com/Strob0t/EventBoard/internal/middleware"
	"github.com/Strob0t/EventBoard/internal/port/cache"
	"github.com/Strob0t/EventBoard/internal/port/eventstore"
	"github.com/Strob0t/EventBoard/internal/resilience"
	"github.com/Strob0t/EventBoard/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = run()
	case "migrate":
		err = runMigrate(args)
	case "feed":
		err = runFeed(args)
	case "help", "--help", "-h":
		printHelp()
	default:
		printHelp()
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: eventboard [command]

Commands:
  serve            Run the HTTP server (default)
  migrate          Apply or roll back database migrations
  feed             Print change feed records as they arrive
  help             Show this help message

Examples:
  eventboard
  eventboard migrate up
  eventboard migrate down 1
  eventboard feed
`)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Logging.Level,
		"nats", cfg.NATS.URL != "",
		"otel", cfg.OTEL.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := ebotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := ebotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	checks := make(map[string]ebhttp.HealthCheck)

	// --- Infrastructure ---

	var store eventstore.Store
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		slog.Info("postgres connected")

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")

		store = postgres.NewEventStore(pool)
		checks["postgres"] = pool.Ping
	default:
		store = memory.NewEventStore()
		slog.Warn("using in-memory event store; data is lost on restart")
	}

	var queue *ebnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = ebnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		checks["nats"] = func(context.Context) error {
			if !queue.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
		slog.Info("nats connected")
	}

	// Cache: L1 ristretto in front of an optional L2 NATS KV bucket.
	l1, err := ristretto.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() {
		st := l1.Stats()
		slog.Info("event cache stats", "hits", st.Hits, "misses", st.Misses, "rejected", st.Rejected, "ratio", st.Ratio)
		l1.Close()
	}()

	var l2 cache.Cache
	if queue != nil {
		kv, err := natskv.Bucket(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("cache l2: %w", err)
		}
		l2 = natskv.New(kv)
	}
	eventCache := tiered.New(l1, l2, cfg.Cache.L1TTL)

	// --- Services ---

	registry := push.NewRegistry(metrics)
	streams := push.NewStreams(registry, cfg.Notify)

	events := service.NewEventService(store, registry)
	events.SetCache(eventCache, cfg.Cache.L1TTL)
	events.SetMetrics(metrics)

	if queue != nil {
		breaker := resilience.NewBreaker("changefeed", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		feed := service.NewChangeFeed(queue, breaker)
		events.SetChangeFeed(feed)
		checks["changefeed"] = func(context.Context) error {
			if s := feed.BreakerState(); s == resilience.StateOpen {
				return fmt.Errorf("circuit %s", s)
			}
			return nil
		}
	}

	// --- HTTP ---

	var api []func(http.Handler) http.Handler
	if cfg.OTEL.Enabled {
		api = append(api, ebotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	}
	if queue != nil {
		kv, err := natskv.Bucket(ctx, queue.JetStream(), cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("idempotency: %w", err)
		}
		api = append(api, middleware.Idempotency(natskv.New(kv), cfg.Idempotency.TTL))
	}

	rl := middleware.NewRateLimiter(cfg.Rate)

	r := chi.NewRouter()
	r.Use(ebhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(ebhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(rl.Handler)
	r.Use(ebhttp.SecurityHeaders)

	handlers := &ebhttp.Handlers{
		Events:  events,
		Streams: streams,
		Checks:  checks,
	}
	ebhttp.MountRoutes(r, handlers, ebhttp.RouteConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		API:            api,
	})

	// WriteTimeout stays 0: push streams manage their own per-write deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rl.Run(gctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "subscribers", registry.Count())

		// Close streams first; Shutdown does not wait for hijacked or
		// long-lived connections to finish on their own.
		registry.Close()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
