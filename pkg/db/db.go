package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	log "github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned by Conn when neither Configure nor InitDB ran.
var ErrNotConfigured = errors.New("database pool is not configured")

// Options describes how the process-wide pool is opened.
type Options struct {
	Driver          string // "postgres" (lib/pq) or "pgx"
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB holds the process-wide connection pool. Handlers obtain it through Conn
// and never keep a reference past a single operation.
var DB *sqlx.DB

var (
	mu   sync.Mutex
	opts *Options
)

// Configure records the pool options without connecting. The pool is opened
// on the first call to Conn.
func Configure(o Options) {
	mu.Lock()
	defer mu.Unlock()
	opts = &o
}

// InitDB opens the pool immediately and verifies connectivity.
func InitDB(o Options) error {
	Configure(o)
	_, err := Conn()
	return err
}

// Conn returns the pool, opening it on first use.
func Conn() (*sqlx.DB, error) {
	mu.Lock()
	defer mu.Unlock()
	if DB != nil {
		return DB, nil
	}
	if opts == nil {
		return nil, ErrNotConfigured
	}
	conn, err := open(*opts)
	if err != nil {
		return nil, err
	}
	DB = conn
	log.WithFields(log.Fields{
		"driver":         opts.Driver,
		"max_open_conns": opts.MaxOpenConns,
	}).Info("Database connection pool initialized successfully.")
	return DB, nil
}

// SetDB installs an already opened pool. Used by tools and tests.
func SetDB(conn *sqlx.DB) {
	mu.Lock()
	defer mu.Unlock()
	DB = conn
}

// CloseDB closes the pool. A later Conn call reopens it if options are set.
func CloseDB() {
	mu.Lock()
	defer mu.Unlock()
	if DB == nil {
		return
	}
	if err := DB.Close(); err != nil {
		log.Errorf("Error closing database connection: %v", err)
	} else {
		log.Info("Database connection pool closed.")
	}
	DB = nil
}

// Ping checks that the pool can reach the database.
func Ping(ctx context.Context) error {
	conn, err := Conn()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

func open(o Options) (*sqlx.DB, error) {
	var conn *sqlx.DB
	switch o.Driver {
	case "pgx":
		cfg, err := pgx.ParseConfig(o.URL)
		if err != nil {
			return nil, fmt.Errorf("db: failed to parse DSN: %w", err)
		}
		cfg.ConnectTimeout = 5 * time.Second
		conn = sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")
	case "postgres", "":
		var err error
		conn, err = sqlx.Open("postgres", o.URL)
		if err != nil {
			return nil, fmt.Errorf("db: failed to open pool: %w", err)
		}
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", o.Driver)
	}

	if o.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(o.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		log.Errorf("Failed to ping database: %v", err)
		return nil, fmt.Errorf("db: failed to connect: %w", err)
	}
	return conn, nil
}
