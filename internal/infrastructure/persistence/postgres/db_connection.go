// Package postgres provides the PostgreSQL persistence layer. CRUD
// repositories ride on GORM; the high-volume attempt log uses pgx directly.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/internal/domain/models"
	apperrors "github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// Connection bundles the GORM handle and the pgx pool over the same database.
type Connection struct {
	DB   *gorm.DB
	Pool *pgxpool.Pool
}

// NewConnection opens both database handles and verifies connectivity.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MinConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)

	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Minute
	poolCfg.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.ErrDatabaseOperation(err)
	}

	log.Info(context.Background(), "Database connection established",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
	)

	return &Connection{DB: db, Pool: pool}, nil
}

// Migrate creates or updates the schema for all persisted entities.
func (c *Connection) Migrate() error {
	if err := c.DB.AutoMigrate(
		&models.RateLimitRule{},
		&models.SecurityEvent{},
		&models.NotificationTemplate{},
		&models.NotificationRule{},
		&models.QueueEntry{},
		&models.NotificationPreferences{},
		&models.InboxMessage{},
		&models.FeatureFlag{},
	); err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}

	// The attempt log is written through pgx, outside GORM's model set.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Pool.Exec(ctx, createAttemptsTableSQL); err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}

	return nil
}

const createAttemptsTableSQL = `
CREATE TABLE IF NOT EXISTS rate_limit_attempts (
    id         BIGSERIAL PRIMARY KEY,
    key        VARCHAR(512) NOT NULL,
    ip_address VARCHAR(64)  NOT NULL,
    user_id    VARCHAR(128),
    endpoint   VARCHAR(255) NOT NULL,
    method     VARCHAR(16)  NOT NULL,
    blocked    BOOLEAN      NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_rl_attempts_key_created ON rate_limit_attempts (key, created_at);
CREATE INDEX IF NOT EXISTS idx_rl_attempts_created ON rate_limit_attempts (created_at);
`

// Ping verifies both handles are alive.
func (c *Connection) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	return c.Pool.Ping(ctx)
}

// Close releases both handles.
func (c *Connection) Close() error {
	c.Pool.Close()
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
