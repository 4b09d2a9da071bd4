package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"trailguard/internal/alerting"
	"trailguard/internal/events"
	"trailguard/internal/geofence"
	"trailguard/internal/platform/config"
	"trailguard/internal/platform/httpserver"
	"trailguard/internal/platform/logger"
	"trailguard/internal/platform/metrics"
	platformredis "trailguard/internal/platform/redis"
	"trailguard/internal/reporting"
	"trailguard/internal/session"
	httpapi "trailguard/internal/transport/http"
	"trailguard/internal/zones"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Pipeline logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Membership store: redis when configured, in-process otherwise.
	var membership geofence.MembershipStore = geofence.NewInMemoryMembershipStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		membership = geofence.NewRedisMembershipStore(redisClient.Client)
		defer redisClient.Close()
		log.Info("using redis membership store")
	}

	// Incident journal: postgres when configured, in-process otherwise.
	var journal reporting.Journal = reporting.NewInMemoryJournal()
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pgJournal := reporting.NewPostgresJournal(pool)
		if err := pgJournal.EnsureSchema(ctx); err != nil {
			log.Error("incident journal schema", "error", err)
			os.Exit(1)
		}
		journal = pgJournal
		log.Info("using postgres incident journal")
	}

	// Safety event stream: kafka when configured, otherwise events are dropped.
	var publisher *events.Publisher
	if len(cfg.Kafka.Seeds) > 0 {
		kafkaSink, err := events.NewKafkaSink(cfg.Kafka.Seeds, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		publisher = events.NewPublisher(kafkaSink, log, events.WithAsyncBuffer(256))
		defer publisher.Close()
		log.Info("publishing safety events", "topic", cfg.Kafka.Topic)
	}

	reporter := reporting.NewJournaledReporter(
		reporting.NewHTTPReporter(cfg.IncidentAPIBaseURL, log), journal, log)

	manager := session.NewManager(session.Deps{
		Repository:          zones.NewHTTPRepository(cfg.ZoneAPIBaseURL, log),
		Membership:          membership,
		Sink:                alerting.NewLogSink(log),
		Reporter:            reporter,
		Publisher:           publisher,
		Logger:              log,
		Metrics:             m,
		ZoneRadiusKm:        cfg.ZoneRadiusKm,
		ZoneRefreshInterval: cfg.ZoneRefreshInterval,
		EscalationDelay:     cfg.EscalationDelay,
		CountdownTick:       cfg.CountdownTick,
	})

	router := httpapi.NewRouter(httpapi.New(manager, log))
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting trailguard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
