package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/kiosk-service/internal/config"
	"github.com/spec-kit/kiosk-service/internal/repository"
)

// Pinger is implemented by every connection readiness can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend bundles the ticket store with the connections behind it.
type Backend struct {
	Tickets  repository.TicketRepository
	Postgres *Postgres
	Redis    *Redis
}

// Open connects the configured ticket store. Redis is also opened when only
// the event stream needs it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	b := &Backend{}

	if cfg.UsesRedis() {
		b.Redis = NewRedis(cfg.Redis, logger)
	}

	switch cfg.Store.Backend {
	case config.StorePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Postgres = pg
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.Tickets = repository.NewTicketRepository(pg.Pool)
	case config.StoreRedis:
		b.Tickets = repository.NewRedisTicketRepository(b.Redis.Client, cfg.Redis.KeyPrefix)
	case config.StoreMemory:
		logger.Warn("using in-memory ticket store; tickets are lost on restart")
		b.Tickets = repository.NewMemoryTicketRepository()
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	logger.Info("ticket store ready", zap.String("backend", cfg.Store.Backend))
	return b, nil
}

// Checks returns the connections readiness should ping, keyed by name.
func (b *Backend) Checks() map[string]Pinger {
	checks := map[string]Pinger{}
	if b.Postgres != nil {
		checks["postgres"] = b.Postgres
	}
	if b.Redis != nil {
		checks["redis"] = b.Redis
	}
	return checks
}

// Close releases every opened connection.
func (b *Backend) Close() {
	if b == nil {
		return
	}
	b.Postgres.Close()
	b.Redis.Close()
}
