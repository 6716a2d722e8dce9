// Package container builds the object graph shared by the server and the
// command line tools from one Config.
package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/application/usecase/continuation"
	"github.com/Subrata270/studio-sub001/application/usecase/currency"
	"github.com/Subrata270/studio-sub001/application/usecase/notification"
	"github.com/Subrata270/studio-sub001/application/usecase/routing"
	"github.com/Subrata270/studio-sub001/application/usecase/user_management"
	"github.com/Subrata270/studio-sub001/application/usecase/workflow"
	"github.com/Subrata270/studio-sub001/domain/entity"
	"github.com/Subrata270/studio-sub001/infrastructure/adapter/memory"
	"github.com/Subrata270/studio-sub001/infrastructure/adapter/postgres"
	"github.com/Subrata270/studio-sub001/infrastructure/adapter/redisstore"
	"github.com/Subrata270/studio-sub001/infrastructure/config"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
	"github.com/Subrata270/studio-sub001/infrastructure/service/ratelimit"
)

// Repositories holds all repository implementations
type Repositories struct {
	Users         outbound.UserRepository
	Subscriptions outbound.SubscriptionRepository
	Deleted       outbound.DeletedSubscriptionRepository
	Notifications outbound.NotificationRepository
}

// UseCases holds all use case implementations
type UseCases struct {
	Engine     *workflow.Engine
	Tracker    *continuation.Tracker
	Dispatcher *notification.Dispatcher
	Users      inbound.UserManagementUseCase
}

type Container struct {
	Config       *config.Config
	Logger       logger.Logger
	DB           *sql.DB
	Redis        *redis.Client
	Repositories Repositories
	UseCases     UseCases
	Guard        *workflow.Guard
}

// New connects the configured drivers and wires the use cases
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	if err := c.initStorage(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if c.needsRedis() {
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Redis = client
		log.Info(ctx, "Redis connection established", map[string]interface{}{
			"lock_driver":  cfg.LockDriver,
			"rates_source": cfg.RatesSource,
		})
	}

	var locker outbound.SubscriptionLocker = memory.NewKeyedLocker()
	if cfg.LockDriver == config.LockDriverRedis {
		locker = redisstore.NewLocker(c.Redis, cfg.LockTTL, log)
	}

	var rates outbound.RateProvider = currency.NewStaticRateProvider(cfg.StaticRates)
	if cfg.RatesSource == config.RatesSourceRedis {
		rates = redisstore.NewRateProvider(c.Redis, cfg.RatesRedisKey)
	}
	rates = currency.NewCachedRateProvider(rates, cfg.RatesCacheTTL)

	repos := c.Repositories
	c.Guard = workflow.NewGuard(repos.Subscriptions, locker, workflow.Options{
		MaxRetries:        cfg.TransitionMaxRetries,
		Backoff:           cfg.TransitionBackoff,
		RepositoryTimeout: cfg.RepositoryTimeout,
	}, log)

	dispatcher := notification.NewDispatcher(repos.Notifications, log)
	dispatcher.SetRepositoryTimeout(cfg.RepositoryTimeout)
	c.Guard.OnCommit(dispatcher.Published)

	engine := workflow.NewEngine(
		repos.Subscriptions,
		repos.Deleted,
		c.Guard,
		routing.NewRouter(repos.Users, log),
		currency.NewNormalizer(rates, cfg.CanonicalCurrency),
		dispatcher,
		log,
		workflow.EngineConfig{AlertDaysDefault: cfg.AlertDaysDefault},
	)
	tracker := continuation.NewTracker(repos.Subscriptions, c.Guard, engine, dispatcher, log, continuation.Config{
		DefaultDecision: entity.ContinuationDecision(cfg.ContinuationDefault),
	})

	c.UseCases = UseCases{
		Engine:     engine,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Users:      user_management.NewUserManagementUseCaseWithTimeout(repos.Users, log, cfg.RepositoryTimeout),
	}
	return c, nil
}

func (c *Container) initStorage(ctx context.Context) error {
	if c.Config.StorageDriver == config.StorageDriverMemory {
		store := memory.NewStore()
		c.Repositories = Repositories{
			Users:         store.Users(),
			Subscriptions: store.Subscriptions(),
			Deleted:       store.Deleted(),
			Notifications: store.Notifications(),
		}
		c.Logger.Warn(ctx, "Using in-memory storage; data is lost on exit", nil)
		return nil
	}

	db, err := sql.Open("postgres", c.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.DB = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	c.Logger.Info(ctx, "Database connection established", nil)

	c.Repositories = Repositories{
		Users:         postgres.NewUserRepositoryAdapter(db),
		Subscriptions: postgres.NewSubscriptionRepositoryAdapter(db),
		Deleted:       postgres.NewDeletedSubscriptionRepositoryAdapter(db),
		Notifications: postgres.NewNotificationRepositoryAdapter(db),
	}
	return nil
}

func (c *Container) needsRedis() bool {
	cfg := c.Config
	return cfg.LockDriver == config.LockDriverRedis || cfg.RatesSource == config.RatesSourceRedis
}

// RateLimiter counts in Redis when a client is connected and in process
// memory otherwise.
func (c *Container) RateLimiter() ratelimit.RateLimitService {
	if !c.Config.RateLimitEnabled {
		return ratelimit.NewNoopRateLimitService()
	}
	if c.Redis != nil {
		return ratelimit.NewRedisRateLimitService(c.Redis)
	}
	return ratelimit.NewMemoryRateLimitService()
}

// HealthChecks returns one ping per connected backend
func (c *Container) HealthChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{}
	if c.DB != nil {
		checks["database"] = c.DB.PingContext
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Error(context.Background(), "Failed to close redis client", err, nil)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Error(context.Background(), "Failed to close database", err, nil)
		}
	}
}
