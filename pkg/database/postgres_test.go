package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB() *DB {
	return New(Config{
		Host: "localhost", Port: "5432", Name: "superbuy",
		User: "postgres", Password: "postgres", SSLMode: "disable",
	}, zap.NewNop())
}

func TestDisconnectedFailsFast(t *testing.T) {
	db := newTestDB()
	ctx := context.Background()

	assert.False(t, db.IsConnected())
	assert.Zero(t, db.ConnectionAttempts())

	_, err := db.Pool()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = db.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = db.QueryRow(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = db.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	err = db.Transaction(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error { return nil })
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = db.Stats(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestHealthCheckDisconnected(t *testing.T) {
	db := newTestDB()

	result := db.HealthCheck(context.Background())
	assert.False(t, result.Connected)
	assert.Contains(t, result.Error, "not connected")
	assert.False(t, result.Timestamp.IsZero())

	// The snapshot is retained and returned by value.
	last := db.LastHealthCheck()
	require.NotNil(t, last)
	assert.Equal(t, result.Error, last.Error)
	last.Error = "mutated"
	assert.NotEqual(t, "mutated", db.LastHealthCheck().Error)
}

func TestLastHealthCheckBeforeAnyProbe(t *testing.T) {
	assert.Nil(t, newTestDB().LastHealthCheck())
}

func TestCloseIdempotent(t *testing.T) {
	db := newTestDB()
	ctx := context.Background()

	assert.NoError(t, db.Close(ctx, time.Second))
	assert.NoError(t, db.Close(ctx, time.Second))
	assert.False(t, db.IsConnected())
}

func TestCloseClearsHealthSnapshot(t *testing.T) {
	db := newTestDB()
	db.HealthCheck(context.Background())
	require.NotNil(t, db.LastHealthCheck())

	require.NoError(t, db.Close(context.Background(), time.Second))
	assert.Nil(t, db.LastHealthCheck())
}

func TestConnectCancelledContext(t *testing.T) {
	db := New(Config{
		Host: "127.0.0.1", Port: "1", Name: "x", User: "x", Password: "x",
		SSLMode: "disable", ConnectTimeout: 100 * time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.Connect(ctx, 3)
	require.Error(t, err)

	var connErr *ConnectError
	require.ErrorAs(t, err, &connErr)
	assert.False(t, db.IsConnected())
}

func TestConnectAlreadyConnected(t *testing.T) {
	db := newTestDB()

	// Pool construction does no I/O; only the probe inside Connect does.
	cfg, err := pgxpool.ParseConfig(db.connString())
	require.NoError(t, err)
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db.mu.Lock()
	db.pool = pool
	db.connected = true
	db.mu.Unlock()

	// Reconnecting a live session must keep the existing pool instead of
	// overwriting it and leaking its connections.
	require.NoError(t, db.Connect(context.Background(), 1))

	got, err := db.Pool()
	require.NoError(t, err)
	assert.Same(t, pool, got)
}

func TestListenRequiresConnection(t *testing.T) {
	db := newTestDB()
	ctx := context.Background()

	err := db.Listen(ctx, "orders", func(payload string) {})
	assert.ErrorIs(t, err, ErrNotConnected)

	err = db.Notify(ctx, "orders", "hello")
	assert.ErrorIs(t, err, ErrNotConnected)

	// Unknown channel is not an error.
	assert.NoError(t, db.Unlisten("orders"))
}
