package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Client owns the process-wide GORM pool.
type Client struct {
	conn *gorm.DB
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens and configures the pool. Postgres is the production driver;
// sqlite is accepted for local single-process runs.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	driver := driverName(cfg)
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logg, cfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pool, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql pool: %w", err)
	}
	configurePool(pool, driver, cfg)

	if logg != nil {
		logg.Info(logg.WithField(ctx, "db_driver", driver), "database connection established")
	}
	return &Client{conn: conn}, nil
}

// NewFromConn wraps an already opened connection.
func NewFromConn(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func driverName(cfg config.DBConfig) string {
	if d := strings.ToLower(strings.TrimSpace(cfg.Driver)); d != "" {
		return d
	}
	return DriverPostgres
}

// configurePool pins sqlite to one connection; it serializes writers anyway.
func configurePool(pool *sql.DB, driver string, cfg config.DBConfig) {
	if driver == DriverSQLite {
		pool.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (c *Client) Close() error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// WithTx runs fn in a transaction. An error or panic from fn rolls back; a
// panic is re-raised after the rollback.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
