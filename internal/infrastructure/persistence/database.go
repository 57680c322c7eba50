package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	pingTimeout   = 2 * time.Second
	retryInterval = time.Second
)

// Database owns the PostgreSQL pool behind every repository
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// Open connects to PostgreSQL and waits up to cfg.ConnectTimeout for it to
// accept connections, so the API can start alongside a booting database.
func Open(ctx context.Context, cfg *config.DatabaseConfig, l gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), newGormConfig(l))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := waitForDatabase(ctx, sqlDB, retryInterval); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Database{DB: db, sql: sqlDB}, nil
}

type contextPinger interface {
	PingContext(ctx context.Context) error
}

// waitForDatabase pings until the database answers or ctx ends
func waitForDatabase(ctx context.Context, p contextPinger, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := p.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not reachable: %w", err)
		case <-ticker.C:
		}
	}
}

func newGormConfig(l gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 l,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc:                shared.Now,
	}
}

// Close closes the pool
func (d *Database) Close() error {
	return d.sql.Close()
}

// Ping reports whether the database answers within the health check budget
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.sql.PingContext(ctx)
}
