package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/harvest"
	"github.com/deksa89/argo-connectors/internal/httpserver"
	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
	"github.com/deksa89/argo-connectors/internal/index"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/metrics"
	"github.com/deksa89/argo-connectors/internal/redis"
	"github.com/deksa89/argo-connectors/internal/scheduler"
	"github.com/deksa89/argo-connectors/internal/sink"
	natssink "github.com/deksa89/argo-connectors/internal/sink/nats"
	"github.com/deksa89/argo-connectors/internal/state"
	redisstore "github.com/deksa89/argo-connectors/internal/store/redis"
	"github.com/deksa89/argo-connectors/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	metrics     *metrics.Metrics
	customers   *scheduler.CustomerSet
	memIndex    *index.MemoryIndex
	runner      *harvest.Runner
	redisClient *goredis.Client
	store       *redisstore.Store
	natsConn    *nats.Conn
}

// New connects the optional Redis and NATS publishers and builds the
// runner. It fails fast when an enabled publisher is unreachable.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	a := &App{
		cfg:       cfg,
		logger:    loggerClient,
		metrics:   metrics.New(),
		customers: scheduler.NewCustomerSet(cfg.CustomersFile, cfg.OnlyCustomers),
		memIndex:  index.NewMemoryIndex(),
	}
	if err := a.customers.Reload(); err != nil {
		return nil, err
	}

	markers := state.Multi{state.NewFileMarker(cfg.StateDir), a.memIndex}
	sinks := []sink.Publisher{a.memIndex}

	if cfg.PublishRedis {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		a.store = redisstore.NewStore(client, cfg.RedisSnapshotTTL)
		sinks = append(sinks, a.store)
		markers = append(markers, a.store)
		loggerClient.Info("Redis initialized successfully")
	}

	if cfg.PublishNATS {
		nc, err := natssink.Connect(cfg.NATSURL, loggerClient)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.natsConn = nc
		sinks = append(sinks, natssink.New(nc, cfg.NATSSubjectPrefix))
		loggerClient.Info("NATS initialized successfully", logger.String("url", cfg.NATSURL))
	}

	a.runner = harvest.NewRunner(harvest.Deps{
		Config:  cfg,
		Log:     loggerClient,
		Metrics: a.metrics,
		Marker:  markers,
		Sinks:   sinks,
	})
	return a, nil
}

func (a *App) Runner() *harvest.Runner { return a.runner }

// Serve runs the harvest scheduler and the ops API until SIGINT or SIGTERM.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting argo-connectors v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("argo-connectors %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the index from the last snapshots published to Redis
	if a.store != nil {
		syncer := scheduler.NewRedisSyncer(a.store, a.memIndex, a.logger)
		if err := syncer.Sync(ctx); err != nil {
			a.logger.Warn("failed to sync from redis on startup, waiting for first harvest",
				logger.Error(err))
		}
	}

	reloadTrigger := make(chan struct{}, 1)

	harvester := scheduler.NewHarvester(a.runner, a.customers, a.logger, a.cfg.RunInterval, reloadTrigger)
	if err := harvester.Start(ctx); err != nil {
		return fmt.Errorf("failed to start harvester: %w", err)
	}
	a.logger.Info("harvester started", logger.Duration("interval", a.cfg.RunInterval))

	var watcher *scheduler.CustomersWatcher
	if a.cfg.WatchCustomers {
		watcher = scheduler.NewCustomersWatcher(a.customers, a.logger, reloadTrigger)
		if err := watcher.Start(ctx); err != nil {
			a.logger.Warn("customers file watch disabled", logger.Error(err))
			watcher = nil
		}
	}

	gc := scheduler.NewGarbageCollector(
		a.store,
		a.memIndex,
		a.customers,
		a.logger,
		a.cfg.GCInterval,
		a.cfg.SnapshotRetention,
	)
	if err := gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	d := deps.Deps{
		Logger:        a.logger,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedCIDRS:  a.cfg.AllowedCIDRS,
		TrustProxy:    a.cfg.TrustProxy,
		MemoryIndex:   a.memIndex,
		Metrics:       a.metrics,
		Harvest:       harvester,
		ReloadTrigger: reloadTrigger,
		ReloadToken:   a.cfg.ReloadToken,
	}
	if a.redisClient != nil {
		d.RedisClient = a.redisClient
	}
	server := httpserver.New(a.cfg, a.logger, d)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case serveErr = <-errCh:
		stop()
	}

	if watcher != nil {
		watcher.Stop()
	}
	gc.Stop()
	harvester.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.Close()
	if serveErr == nil {
		a.logger.Info("✅ argo-connectors stopped cleanly")
	}
	return serveErr
}

// Close drains NATS and closes Redis. It is safe to call twice.
func (a *App) Close() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warnf("failed to drain nats: %v", err)
		}
		a.natsConn = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
		a.redisClient = nil
	}
}
