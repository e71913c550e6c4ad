package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	complainthandler "filetrack/internal/complaint/handler"
	complaintservice "filetrack/internal/complaint/service"
	complaintstore "filetrack/internal/complaint/store"
	filehandler "filetrack/internal/file/handler"
	"filetrack/internal/file/journal"
	filemetrics "filetrack/internal/file/metrics"
	fileservice "filetrack/internal/file/service"
	filestore "filetrack/internal/file/store"
	"filetrack/internal/platform/config"
	"filetrack/internal/platform/kafka"
	"filetrack/internal/platform/metrics"
	"filetrack/internal/platform/middleware"
	"filetrack/internal/platform/postgres"
	"filetrack/internal/platform/ratelimit"
	"filetrack/internal/platform/redis"
	routehandler "filetrack/internal/route/handler"
	routemetrics "filetrack/internal/route/metrics"
	"filetrack/internal/route/seed"
	routeservice "filetrack/internal/route/service"
	routestore "filetrack/internal/route/store"
	"filetrack/pkg/platform/circuit"
	"filetrack/pkg/platform/httputil"
)

const (
	journalQueueSize   = 1024
	routeCacheCooldown = 5 * time.Second
)

// app holds the wired process. background tasks run alongside the HTTP server and
// must return when their context is cancelled.
type app struct {
	router     http.Handler
	background []func(ctx context.Context) error
	closers    []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	fileMetrics := filemetrics.New(reg)
	routeMetrics := routemetrics.New(reg)

	var (
		db      *sql.DB
		files   fileservice.Store
		backend routestore.Backend
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
		files = filestore.NewPostgres(db)
		backend = routestore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		files = filestore.NewInMemory()
		backend = routestore.NewInMemory()
		log.Info("using in-memory stores")
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		backend = routestore.NewCached(backend, redisClient.Client, cfg.Redis.RouteTTL,
			routestore.WithCacheLogger(log),
			routestore.WithCacheMetrics(routeMetrics),
			routestore.WithCacheBreaker(circuit.New("route-cache", circuit.WithCooldown(routeCacheCooldown))),
		)
		log.Info("route cache enabled", "ttl", cfg.Redis.RouteTTL)
	}

	routes := routeservice.New(backend, backend,
		routeservice.WithLogger(log),
		routeservice.WithMetrics(routeMetrics),
	)

	history := journal.NewMemoryStore()
	var sink journal.Sink = history
	kafkaClient, err := kafka.New(cfg.Kafka)
	if err != nil {
		a.Close()
		return nil, err
	}
	if kafkaClient != nil {
		a.closers = append(a.closers, func() error { kafkaClient.Close(); return nil })
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka.JournalTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			a.Close()
			return nil, err
		}
		queue := journal.NewAsyncSink(journalQueueSize, log)
		worker := journal.NewWorker(journal.NewKafkaSink(kafkaClient, cfg.Kafka.JournalTopic), queue, log)
		a.background = append(a.background, worker.Run)
		sink = journal.Tee{history, queue}
		log.Info("kafka journal enabled", "topic", cfg.Kafka.JournalTopic)
	}

	fileService := fileservice.New(files, routes,
		fileservice.WithLogger(log),
		fileservice.WithMetrics(fileMetrics),
		fileservice.WithJournal(journal.NewPublisher(sink, history)),
		fileservice.WithDirectory(routes),
		fileservice.WithStrictStatuses(cfg.StrictStatuses),
	)
	complaints := complaintservice.New(complaintstore.NewInMemory(), files,
		complaintservice.WithLogger(log),
	)

	if cfg.RoutesFile != "" {
		if err := loadSeed(ctx, cfg.RoutesFile, routes, log); err != nil {
			a.Close()
			return nil, err
		}
		watcher := seed.NewWatcher(cfg.RoutesFile, routes, seed.WithWatcherLogger(log))
		a.background = append(a.background, watcher.Run)
	}

	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.New(limitStore, cfg.RateLimit.Requests, cfg.RateLimit.Window,
		ratelimit.WithLogger(log),
		ratelimit.WithRegisterer(reg),
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
	)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/health", healthHandler(db, redisClient, kafkaClient))

	routehandler.New(routes, log).Register(r)
	filehandler.New(fileService, log,
		filehandler.WithPublicMiddleware(limiter.PerClient("track")),
	).Register(r)
	complainthandler.New(complaints, log,
		complainthandler.WithPublicMiddleware(limiter.PerClient("complaints")),
	).Register(r)

	a.router = r
	return a, nil
}

func loadSeed(ctx context.Context, path string, routes seed.Configurer, log *slog.Logger) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, routes, f)
	if err != nil {
		return fmt.Errorf("apply seed %s: %w", path, err)
	}
	log.InfoContext(ctx, "route seed applied",
		"path", path,
		"administrations", res.Administrations,
		"routes", res.Routes,
	)
	return nil
}

func healthHandler(db *sql.DB, redisClient *redis.Client, kafkaClient *kgo.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}
		healthy := true
		check := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if db != nil {
			check("postgres", db.PingContext(ctx))
		}
		if redisClient != nil {
			check("redis", redisClient.Health(ctx))
		}
		if kafkaClient != nil {
			check("kafka", kafkaClient.Ping(ctx))
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}
