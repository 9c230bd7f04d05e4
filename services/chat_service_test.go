package services

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telescordAPI/pkg/errors"
)

// Hub registry tests drive clients without real sockets: Register, Unregister
// and Push only ever touch the Send channel.

func newTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID, userID)
}

func TestLastRegisterWins(t *testing.T) {
	hub := NewHub()

	first := newTestClient(hub, "alice")
	hub.Register(first)

	second := newTestClient(hub, "alice")
	hub.Register(second)

	got, ok := hub.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, got)

	// The evicted handle's send channel is closed so its write pump exits.
	_, open := <-first.Send
	assert.False(t, open)
}

func TestUnregisterIsCompareAndDelete(t *testing.T) {
	hub := NewHub()

	stale := newTestClient(hub, "alice")
	hub.Register(stale)

	fresh := newTestClient(hub, "alice")
	hub.Register(fresh)

	// The stale handle's late disconnect must not evict the new session.
	hub.Unregister(stale)
	got, ok := hub.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	hub.Unregister(fresh)
	assert.False(t, hub.Online("alice"))
}

func TestUnregisterIdempotent(t *testing.T) {
	hub := NewHub()

	c := newTestClient(hub, "alice")
	hub.Register(c)
	hub.Unregister(c)
	// A second unregister for the same handle is a no-op, not a double close.
	hub.Unregister(c)
	assert.False(t, hub.Online("alice"))
}

func TestPushToOfflineUserIsAMiss(t *testing.T) {
	hub := NewHub()
	delivered := hub.Push("nobody", map[string]string{"type": "dm_message"})
	assert.False(t, delivered)
}

func TestPushDeliversToLiveConnection(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "alice")
	hub.Register(c)

	delivered := hub.Push("alice", map[string]any{"type": "friend_update", "userId": "bob"})
	require.True(t, delivered)

	raw := <-c.Send
	var event map[string]any
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "friend_update", event["type"])
	assert.Equal(t, "bob", event["userId"])
}

func TestEvictedClientErrorReportIsDropped(t *testing.T) {
	hub := NewHub()

	stale := newTestClient(hub, "alice")
	hub.Register(stale)

	// Reconnect closes the stale handle's send channel.
	fresh := newTestClient(hub, "alice")
	hub.Register(fresh)

	// The stale read pump may still be mid-frame and report an error on
	// its own handle; that must be a silent drop, never a crash.
	assert.NotPanics(t, func() {
		stale.sendError(errors.ErrEmptyMessage)
	})
	assert.False(t, stale.trySend([]byte("late")))

	// The fresh session is untouched.
	require.True(t, hub.Push("alice", map[string]string{"type": "friend_update"}))
}

func TestEvictionRacingSendsNeverPanics(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		c := newTestClient(hub, "alice")
		hub.Register(c)

		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.sendError(errors.ErrEmptyMessage)
			}
			hub.Unregister(c)
		}(c)
	}
	wg.Wait()
}

func TestPushNeverBlocksOnStalledPeer(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "alice")
	hub.Register(c)

	// Nobody draining the channel: fill the buffer, then verify the next
	// push is a miss rather than a hang.
	event := map[string]string{"type": "dm_message"}
	for i := 0; i < sendBuffer; i++ {
		require.True(t, hub.Push("alice", event))
	}
	assert.False(t, hub.Push("alice", event))
}
