// The apiserver binary runs the ChannelIQ HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/channeliq/channeliq/internal/application/analysis"
	"github.com/channeliq/channeliq/internal/config"
	"github.com/channeliq/channeliq/internal/engine/benchmark"
	"github.com/channeliq/channeliq/internal/engine/scoring"
	"github.com/channeliq/channeliq/internal/engine/signals"
	"github.com/channeliq/channeliq/internal/infrastructure/database/postgres"
	"github.com/channeliq/channeliq/internal/infrastructure/database/postgres/repositories"
	"github.com/channeliq/channeliq/internal/infrastructure/database/redis"
	"github.com/channeliq/channeliq/internal/infrastructure/messaging/kafka"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/channeliq/channeliq/internal/interfaces/http"
	"github.com/channeliq/channeliq/internal/interfaces/http/handlers"
)

var version = "dev"

const shutdownGrace = 30 * time.Second

// loadConfig prefers the file when one is named, otherwise builds the
// configuration from CHANNELIQ_* environment variables.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	log.Info("starting channeliq api server", logging.String("version", version))

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", logging.Err(err))
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx := context.Background()

	// The pseudonymizer is constructed first: a missing secret in production
	// must abort startup before any connection is opened.
	pseudo, err := benchmark.NewPseudonymizer(cfg.Privacy)
	if err != nil {
		return err
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Database.MigrationPath != "" {
		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "channeliq",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	redisClient, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, log,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithStats(metrics.CacheHit, metrics.CacheMiss),
	)

	var events analysis.EventPublisher
	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		events = producer
	}

	repo := repositories.NewAnalyticsRepository(conn.Pool(), log)
	extractor := signals.NewExtractor(repo, log, cfg.Engine.FetchTimeout)
	builder := benchmark.NewBuilder(repo, cache, pseudo, log, cfg.Engine.MinContributors, cfg.Engine.BenchmarkTTL)
	scorer := scoring.NewScorer(cfg.Engine.BenchmarkWeight)
	service := analysis.WithMetrics(
		analysis.NewService(cfg.Engine, extractor, builder, scorer, repo, pseudo, events, log),
		metrics,
	)

	health := handlers.NewHealthHandler(version, map[string]handlers.Pinger{
		"postgres": handlers.PingerFunc(conn.HealthCheck),
		"redis":    handlers.PingerFunc(redisClient.Ping),
	})

	router := httpserver.NewRouter(cfg.Server, httpserver.RouterDeps{
		Service:   service,
		Logger:    log,
		Metrics:   metrics,
		Collector: collector,
		Health:    health,
	})
	server := httpserver.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	grace := cfg.Server.ShutdownTimeout
	if grace == 0 {
		grace = shutdownGrace
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
