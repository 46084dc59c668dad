package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config holds everything needed to reach the database. It is filled from
// the application config; this package never reads the environment itself.
type Config struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int32
	ConnectTimeout time.Duration
}

const (
	// DefaultConnectRetries bounds the connect loop when the caller passes 0.
	DefaultConnectRetries = 3

	// DefaultCloseTimeout is the pool drain grace period on shutdown.
	DefaultCloseTimeout = 30 * time.Second
)

// HealthCheckResult is a point-in-time snapshot of database reachability.
type HealthCheckResult struct {
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// DB owns the lifecycle of one pooled connection: construct disconnected,
// Connect, operate, Close. All query paths fail fast with ErrNotConnected
// while no pool is live. Safe for concurrent use.
type DB struct {
	cfg Config
	log *zap.Logger

	mu                 sync.Mutex
	pool               *pgxpool.Pool
	connected          bool
	connectionAttempts int
	lastHealthCheck    *HealthCheckResult
	listeners          map[string]*channelListener
}

// New builds a disconnected session handle. No I/O happens until Connect.
func New(cfg Config, log *zap.Logger) *DB {
	return &DB{
		cfg:       cfg,
		log:       log,
		listeners: make(map[string]*channelListener),
	}
}

func (db *DB) connString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.cfg.Host, db.cfg.Port, db.cfg.User, db.cfg.Password, db.cfg.Name, db.cfg.SSLMode)
}

// Connect establishes the connection pool, probing liveness before marking
// the session connected. Each failed attempt waits 2^attempt seconds before
// the next one; once retries are exhausted the last cause is returned inside
// a *ConnectError tagged with the attempt count. Connecting an already
// connected session is a no-op, keeping the live pool.
func (db *DB) Connect(ctx context.Context, retries int) error {
	db.mu.Lock()
	if db.connected {
		db.mu.Unlock()
		return nil
	}
	db.mu.Unlock()

	if retries <= 0 {
		retries = DefaultConnectRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		db.mu.Lock()
		db.connectionAttempts = attempt
		db.mu.Unlock()

		pool, err := db.open(ctx)
		if err == nil {
			db.mu.Lock()
			db.pool = pool
			db.connected = true
			db.connectionAttempts = 0
			db.mu.Unlock()

			db.log.Info("connected to database",
				zap.String("host", db.cfg.Host),
				zap.String("port", db.cfg.Port),
				zap.String("database", db.cfg.Name),
			)
			return nil
		}

		lastErr = err
		if attempt == retries {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		db.log.Warn("database connection attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("retries", retries),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return &ConnectError{Attempts: attempt, Err: ctx.Err()}
		}
	}

	return &ConnectError{Attempts: retries, Err: lastErr}
}

// open creates a pool and runs the liveness probe. A pool can be constructed
// without a reachable server, so the probe is what decides success.
func (db *DB) open(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.connString())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	if db.cfg.MaxConns > 0 {
		poolConfig.MaxConns = db.cfg.MaxConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	if db.cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = db.cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	var probe int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&probe); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connection probe: %w", err)
	}

	return pool, nil
}

// Pool returns the live pool handle. It never attempts to connect.
func (db *DB) Pool() (*pgxpool.Pool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.connected || db.pool == nil {
		return nil, ErrNotConnected
	}
	return db.pool, nil
}

// IsConnected reports whether a successful Connect has not yet been Closed.
func (db *DB) IsConnected() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.connected && db.pool != nil
}

// ConnectionAttempts returns the attempt counter of an in-flight connect
// loop; it is reset to zero once a connection is established.
func (db *DB) ConnectionAttempts() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.connectionAttempts
}

// Query executes a parameterized statement and returns its rows. Driver
// failures come back as *QueryError.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pool, err := db.Pool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, Normalize(err, "query execution", sql)
	}
	return rows, nil
}

// QueryRow executes a statement expected to return at most one row. Scan
// errors surface on the returned row and are the caller's to normalize;
// only the not-connected condition is reported here.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) (pgx.Row, error) {
	pool, err := db.Pool()
	if err != nil {
		return nil, err
	}
	return pool.QueryRow(ctx, sql, args...), nil
}

// Exec executes a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pool, err := db.Pool()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := pool.Exec(ctx, sql, args...)
	if err != nil {
		return pgconn.CommandTag{}, Normalize(err, "exec", sql)
	}
	return tag, nil
}

// Transaction runs fn inside one transaction on a dedicated connection.
// A nil return commits; an error or panic rolls back.
func (db *DB) Transaction(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	pool, err := db.Pool()
	if err != nil {
		return err
	}

	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return Normalize(err, "begin transaction", "")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			db.log.Warn("transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return Normalize(err, "commit transaction", "")
	}
	return nil
}

// HealthCheck measures the round trip of a trivial probe. It never returns
// an error and is safe to call at any time, including while disconnected.
func (db *DB) HealthCheck(ctx context.Context) HealthCheckResult {
	start := time.Now()
	result := HealthCheckResult{Timestamp: start}

	pool, err := db.Pool()
	if err != nil {
		result.Error = err.Error()
	} else {
		var probe int
		if err := pool.QueryRow(ctx, "SELECT 1").Scan(&probe); err != nil {
			result.Error = err.Error()
		} else {
			result.Connected = true
			result.Latency = time.Since(start)
		}
	}

	db.mu.Lock()
	db.lastHealthCheck = &result
	db.mu.Unlock()

	return result
}

// LastHealthCheck returns the most recent HealthCheck snapshot, or nil if
// none has run yet.
func (db *DB) LastHealthCheck() *HealthCheckResult {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.lastHealthCheck == nil {
		return nil
	}
	snapshot := *db.lastHealthCheck
	return &snapshot
}

// Stats reports server-side connection and size figures, for operational
// endpoints.
type Stats struct {
	ActiveConnections int    `json:"activeConnections"`
	TotalConnections  int    `json:"totalConnections"`
	DatabaseSize      string `json:"databaseSize"`
	Uptime            string `json:"uptime"`
}

func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	const query = `
		SELECT
			(SELECT count(*) FROM pg_stat_activity WHERE state = 'active') AS active_connections,
			(SELECT count(*) FROM pg_stat_activity) AS total_connections,
			(SELECT pg_size_pretty(pg_database_size(current_database()))) AS database_size,
			(SELECT date_trunc('second', now() - pg_postmaster_start_time())::text) AS uptime
	`

	row, err := db.QueryRow(ctx, query)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := row.Scan(&stats.ActiveConnections, &stats.TotalConnections, &stats.DatabaseSize, &stats.Uptime); err != nil {
		return nil, Normalize(err, "database statistics", query)
	}
	return &stats, nil
}

// Close stops all channel listeners, drains the pool within timeout, and
// clears session state. Calling it while already disconnected is a no-op,
// so one deferred Close alongside an explicit shutdown path is safe.
func (db *DB) Close(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultCloseTimeout
	}

	db.mu.Lock()
	pool := db.pool
	connected := db.connected
	listeners := db.listeners
	db.pool = nil
	db.connected = false
	db.lastHealthCheck = nil
	db.listeners = make(map[string]*channelListener)
	db.mu.Unlock()

	if pool == nil || !connected {
		return nil
	}

	// Listener teardown is best-effort: a wedged listener must not block
	// the pool drain.
	for channel, l := range listeners {
		l.stop()
		db.log.Info("stopped channel listener", zap.String("channel", channel))
	}

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
		db.log.Info("database connections closed")
	case <-time.After(timeout):
		db.log.Warn("database close timed out waiting for pool drain",
			zap.Duration("timeout", timeout))
	case <-ctx.Done():
		db.log.Warn("database close interrupted", zap.Error(ctx.Err()))
	}
	return nil
}
