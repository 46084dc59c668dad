package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryListener(channel string) *channelListener {
	_, cancel := context.WithCancel(context.Background())
	return &channelListener{
		channel: channel,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func TestListenerRegistry(t *testing.T) {
	db := newTestDB()

	first := newRegistryListener("orders")
	require.NoError(t, db.addListener(first))

	t.Run("second claim on the channel is rejected", func(t *testing.T) {
		second := newRegistryListener("orders")
		err := db.addListener(second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orders")

		// The losing claim must not have replaced the registered listener.
		db.mu.Lock()
		registered := db.listeners["orders"]
		db.mu.Unlock()
		assert.Same(t, first, registered)
	})

	t.Run("releasing a foreign claim leaves the registration alone", func(t *testing.T) {
		loser := newRegistryListener("orders")
		db.releaseListener(loser)

		db.mu.Lock()
		registered := db.listeners["orders"]
		db.mu.Unlock()
		assert.Same(t, first, registered)
	})

	t.Run("release frees the channel for a new claim", func(t *testing.T) {
		db.releaseListener(first)

		db.mu.Lock()
		_, exists := db.listeners["orders"]
		db.mu.Unlock()
		assert.False(t, exists)

		require.NoError(t, db.addListener(newRegistryListener("orders")))
	})
}

func TestListenerClaimIsStoppable(t *testing.T) {
	// A claim made before setup I/O completes still carries a working
	// cancel/done pair, so Close and Unlisten can stop it mid-setup.
	db := newTestDB()

	l := newRegistryListener("orders")
	require.NoError(t, db.addListener(l))
	go db.releaseListener(l)

	l.stop()
}
