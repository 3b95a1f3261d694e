package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/poofware/society-service/internal/config"
	"github.com/poofware/society-service/internal/repositories"
	"github.com/poofware/society-service/migrations"
	"github.com/poofware/society-service/pkg/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond

	// MemoryDBScheme selects the in-process store. Data does not survive a restart.
	MemoryDBScheme = "memory://"
)

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *RedisClient

	memory *repositories.MemorySubmissionRepository
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if strings.HasPrefix(cfg.DBUrl, MemoryDBScheme) {
		utils.Logger.Warn("DB_URL uses memory://; submissions are kept in process memory only")
		app.memory = repositories.NewMemorySubmissionRepository()
	} else {
		pool, err := connectWithRetry(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		app.DB = pool

		if cfg.DBAutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := migrations.Apply(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			utils.Logger.Info("Database migrations applied")
		}
	}

	rdb, err := NewRedisClient(cfg.RedisURL)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Redis = rdb
	return app, nil
}

// SubmissionRepository returns the store backing this process.
func (a *App) SubmissionRepository() repositories.SubmissionRepository {
	if a.memory != nil {
		return a.memory
	}
	return repositories.NewSubmissionRepository(a.DB)
}

// SequenceAllocator returns the Redis allocator when Redis is configured.
// Otherwise it returns nil and the submission store numbers rows inside its
// own insert.
func (a *App) SequenceAllocator(counter repositories.DayCounter) repositories.SequenceAllocator {
	if a.Redis == nil {
		utils.Logger.Info("Acknowledgement numbers issued by the submission store")
		return nil
	}
	utils.Logger.Info("Acknowledgement numbers allocated via Redis")
	return repositories.NewRedisSequenceAllocator(a.Redis.Client, counter)
}

// Ping reports the health of each backing store keyed by name.
func (a *App) Ping(ctx context.Context) map[string]error {
	out := map[string]error{}
	if a.DB != nil {
		out["database"] = a.DB.Ping(ctx)
	}
	if a.Redis != nil {
		out["redis"] = a.Redis.Health(ctx)
	}
	return out
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("society-service DB connection closed.")
	}
}

func connectWithRetry(databaseURL string) (*pgxpool.Pool, error) {
	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		dbPool, err = newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("society-service connected to DB on attempt %d", i)
			return dbPool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)

		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}
