package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// channelListener holds the dedicated connection and goroutine serving one
// LISTEN channel.
type channelListener struct {
	channel string
	conn    *pgxpool.Conn
	cancel  context.CancelFunc
	done    chan struct{}
}

func (l *channelListener) stop() {
	l.cancel()
	<-l.done
}

// Listen registers handler for NOTIFY payloads on channel. One pooled
// connection is held per channel until Unlisten or Close. Handlers run on
// the listener goroutine, so they must not block.
func (db *DB) Listen(ctx context.Context, channel string, handler func(payload string)) error {
	pool, err := db.Pool()
	if err != nil {
		return err
	}

	// The listener outlives the caller's ctx; only Unlisten/Close stop it.
	listenCtx, cancel := context.WithCancel(context.Background())
	l := &channelListener{
		channel: channel,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// The registry slot is claimed before any setup I/O so a concurrent
	// Listen on the same channel cannot pass the exists-check twice and
	// orphan one listener's connection.
	if err := db.addListener(l); err != nil {
		cancel()
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		db.releaseListener(l)
		return Normalize(err, fmt.Sprintf("listen on channel %s", channel), "")
	}

	listenSQL := "LISTEN " + quoteIdent(channel)
	if _, err := conn.Exec(ctx, listenSQL); err != nil {
		conn.Release()
		db.releaseListener(l)
		return Normalize(err, fmt.Sprintf("listen on channel %s", channel), listenSQL)
	}

	l.conn = conn
	go db.listenLoop(listenCtx, l, handler)

	db.log.Info("listening on channel", zap.String("channel", channel))
	return nil
}

// addListener claims the registry slot for l's channel. The claim carries a
// working cancel/done pair, so Unlisten or Close can stop a listener whose
// setup is still in flight.
func (db *DB) addListener(l *channelListener) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.listeners[l.channel]; exists {
		return fmt.Errorf("already listening on channel %q", l.channel)
	}
	db.listeners[l.channel] = l
	return nil
}

// releaseListener undoes a claim whose setup failed. The identity check keeps
// it from removing a registration that replaced l after Close swapped the
// registry out.
func (db *DB) releaseListener(l *channelListener) {
	db.mu.Lock()
	if db.listeners[l.channel] == l {
		delete(db.listeners, l.channel)
	}
	db.mu.Unlock()
	l.cancel()
	close(l.done)
}

func (db *DB) listenLoop(ctx context.Context, l *channelListener, handler func(payload string)) {
	defer close(l.done)
	defer l.conn.Release()

	for {
		notification, err := l.conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				db.log.Warn("channel listener stopped",
					zap.String("channel", l.channel), zap.Error(err))
			}
			return
		}
		handler(notification.Payload)
	}
}

// Unlisten stops the listener for channel and releases its connection.
// Unknown channels are a no-op.
func (db *DB) Unlisten(channel string) error {
	db.mu.Lock()
	l, ok := db.listeners[channel]
	delete(db.listeners, channel)
	db.mu.Unlock()

	if !ok {
		return nil
	}

	l.stop()
	db.log.Info("stopped listening on channel", zap.String("channel", channel))
	return nil
}

// Notify sends payload to every listener of channel.
func (db *DB) Notify(ctx context.Context, channel, payload string) error {
	pool, err := db.Pool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload); err != nil {
		return Normalize(err, fmt.Sprintf("notify channel %s", channel), "")
	}
	return nil
}
