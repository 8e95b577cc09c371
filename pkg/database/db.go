package database

import (
	"context"
	"database/sql"
	"time"

	"automated-identity-matching/pkg/config"
	errs "automated-identity-matching/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

// DB wraps the MySQL/MariaDB connection pool for the reference store.
// Queries live in the repository layer; this package owns pool tuning
// and read-timeout policy.
type DB struct {
	conn        *sql.DB
	readTimeout time.Duration
}

const defaultReadTimeout = 30 * time.Second

// New opens a connection pool with default settings.
func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, errs.NewDB("database.New", "open connection", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(10 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, errs.NewDB("database.New", "ping", err)
	}

	return &DB{conn: conn, readTimeout: defaultReadTimeout}, nil
}

// NewWithConfig opens a connection pool tuned from configuration.
func NewWithConfig(databaseURL string, cfg *config.Config) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, errs.NewDB("database.NewWithConfig", "open connection", err)
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, errs.NewDB("database.NewWithConfig", "ping", err)
	}

	rt := cfg.DBReadTimeout
	if rt == 0 {
		rt = defaultReadTimeout
	}

	return &DB{conn: conn, readTimeout: rt}, nil
}

// Conn exposes the underlying pool for the repository layer.
func (db *DB) Conn() *sql.DB { return db.conn }

// ReadContext derives a context bounded by the configured read timeout.
func (db *DB) ReadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.readTimeout)
}

// PingContext checks connectivity, used by the health endpoint.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}
