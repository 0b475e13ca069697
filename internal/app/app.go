package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chrisdamba/orderpulse/internal/analytics"
	"github.com/chrisdamba/orderpulse/internal/cloudwriter"
	"github.com/chrisdamba/orderpulse/internal/factories"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/output"
	"github.com/chrisdamba/orderpulse/internal/repositories"
	"github.com/chrisdamba/orderpulse/internal/repositories/file"
	"github.com/chrisdamba/orderpulse/internal/repositories/memory"
	"github.com/chrisdamba/orderpulse/internal/repositories/postgres"
	s3store "github.com/chrisdamba/orderpulse/internal/repositories/s3"
	"github.com/chrisdamba/orderpulse/internal/simulator"
	"github.com/chrisdamba/orderpulse/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	events bool
}

// WithEvents attaches an event forwarder for the configured event_output.
func WithEvents() Option {
	return func(o *options) { o.events = true }
}

// App owns every component of one session. Close releases them in reverse
// order of construction.
type App struct {
	Config   *models.Config
	Log      *zap.Logger
	Location *time.Location

	Orders    repositories.OrderRepository
	KV        repositories.KeyValueStore
	Store     *store.Store
	Registry  *analytics.Registry
	Factory   *factories.OrderFactory
	Generator *simulator.Generator
	Movement  *simulator.Movement
	Simulator *simulator.Simulator
	Forwarder *output.Forwarder

	pool     *pgxpool.Pool
	s3Client cloudwriter.S3API
}

func New(ctx context.Context, cfg *models.Config, log *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log = logger.OrGlobal(log)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, Location: loc}

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Store = store.New(a.Orders, log.Named("store"), store.WithSyncTimeout(cfg.SyncTimeout))
	a.Registry = analytics.NewRegistry(ctx, a.KV, a.Store, log.Named("charts"), analytics.WithLocation(loc))
	a.Factory = factories.NewOrderFactory(cfg)
	a.Generator = simulator.NewGenerator(cfg, a.Orders, a.KV, a.Store, a.Factory, log.Named("generator"))
	a.Movement = simulator.NewMovement(cfg, a.Store, log.Named("movement"))
	a.Simulator = simulator.NewSimulator(a.Generator, a.Movement, cfg.DailyCheckInterval, log.Named("simulator"))

	if o.events && cfg.EventOutput != models.EventOutputNone {
		dest, err := a.newOutputDestination()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Forwarder = output.NewForwarder(dest, cfg.EventBufferSize, log.Named("events"))
		a.Forwarder.Attach(a.Store)
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config
	if cfg.OrderStore == models.OrderStorePostgres || cfg.KVStore == models.KVStorePostgres || cfg.EventOutput == models.EventOutputPostgres {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("unable to create connection pool: %w", err)
		}
		a.pool = pool
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("unable to reach database: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
	}

	switch cfg.OrderStore {
	case models.OrderStorePostgres:
		a.Orders = postgres.NewOrderRepository(a.pool)
	default:
		a.Orders = memory.NewOrderRepository()
	}

	switch cfg.KVStore {
	case models.KVStorePostgres:
		a.KV = postgres.NewKeyValueStore(a.pool)
	case models.KVStoreFile:
		a.KV = file.NewKeyValueStore(cfg.KVFilePath)
	case models.KVStoreS3:
		client, err := a.S3Client(ctx)
		if err != nil {
			return err
		}
		a.KV = s3store.NewKeyValueStore(client, cfg.S3.Bucket, cfg.S3.Prefix)
	default:
		a.KV = memory.NewKeyValueStore()
	}
	return nil
}

// S3Client returns the shared S3 client, creating it on first use.
func (a *App) S3Client(ctx context.Context) (cloudwriter.S3API, error) {
	if a.s3Client != nil {
		return a.s3Client, nil
	}
	client, err := cloudwriter.NewS3Client(ctx, a.Config.S3.Region)
	if err != nil {
		return nil, err
	}
	a.s3Client = client
	return client, nil
}

func (a *App) newOutputDestination() (output.OutputDestination, error) {
	switch a.Config.EventOutput {
	case models.EventOutputConsole:
		return output.NewConsoleOutput(os.Stdout), nil
	case models.EventOutputFile:
		return output.NewJSONOutput(a.Config.EventOutputPath), nil
	case models.EventOutputKafka:
		return output.NewSaramaProducer(a.Config.KafkaBrokerList, a.Log.Named("kafka"))
	case models.EventOutputPostgres:
		return output.NewPostgresOutput(a.pool), nil
	default:
		return nil, fmt.Errorf("unsupported event output: %s", a.Config.EventOutput)
	}
}

// Close flushes outstanding writes and releases connections.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		a.Store.Flush()
	}
	if a.Forwarder != nil {
		if err := a.Forwarder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event output: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
