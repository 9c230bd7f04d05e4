package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telescordAPI/internal/store/memory"
	"telescordAPI/internal/types/message"
	"telescordAPI/pkg/errors"
)

func newTestRouter() (*DeliveryRouter, *Hub) {
	hub := NewHub()
	router := NewDeliveryRouter(hub, NewMessageService(memory.New()), nil)
	return router, hub
}

func decodeEvent(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var event map[string]any
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func TestSendDirectMessageDeliversToOnlineRecipient(t *testing.T) {
	ctx := context.Background()
	router, hub := newTestRouter()

	bob := newTestClient(hub, "bob")
	hub.Register(bob)

	sent, err := router.SendDirectMessage(ctx, "alice", &message.SendMessageRequest{
		ReceiverID: "bob",
		Body:       "hello",
	})
	require.NoError(t, err)

	event := decodeEvent(t, <-bob.Send)
	assert.Equal(t, "dm_message", event["type"])
	msg := event["message"].(map[string]any)
	assert.Equal(t, sent.ID, msg["id"])
	assert.Equal(t, "alice", msg["senderId"])
	assert.Equal(t, "hello", msg["body"])
}

func TestSendDirectMessageEchoesToSender(t *testing.T) {
	ctx := context.Background()
	router, hub := newTestRouter()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)

	sent, err := router.SendDirectMessage(ctx, "alice", &message.SendMessageRequest{
		ReceiverID: "bob",
		Body:       "hello",
	})
	require.NoError(t, err)

	// The echo carries the canonical persisted form, server id included.
	event := decodeEvent(t, <-alice.Send)
	assert.Equal(t, "dm_message", event["type"])
	msg := event["message"].(map[string]any)
	assert.Equal(t, sent.ID, msg["id"])
}

func TestSendToOfflineRecipientStillPersists(t *testing.T) {
	ctx := context.Background()
	router, _ := newTestRouter()

	_, err := router.SendDirectMessage(ctx, "alice", &message.SendMessageRequest{
		ReceiverID: "bob",
		Body:       "you there?",
	})
	require.NoError(t, err)

	// Bob comes back later and finds the message in history.
	history, err := router.History(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "you there?", history[0].Body)
}

func TestSendDirectMessageValidation(t *testing.T) {
	ctx := context.Background()
	router, _ := newTestRouter()

	_, err := router.SendDirectMessage(ctx, "alice", &message.SendMessageRequest{Body: "no receiver"})
	assert.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))

	_, err = router.SendDirectMessage(ctx, "alice", &message.SendMessageRequest{ReceiverID: "alice", Body: "hi me"})
	assert.ErrorIs(t, err, errors.ErrSelfTarget)

	_, err = router.SendDirectMessage(ctx, "alice", &message.SendMessageRequest{ReceiverID: "bob"})
	assert.ErrorIs(t, err, errors.ErrEmptyMessage)

	// None of the rejected sends left a trace.
	history, err := router.History(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNotifyRelationshipChanged(t *testing.T) {
	router, hub := newTestRouter()

	bob := newTestClient(hub, "bob")
	hub.Register(bob)

	assert.True(t, router.NotifyRelationshipChanged("bob", "alice"))
	event := decodeEvent(t, <-bob.Send)
	assert.Equal(t, "friend_update", event["type"])
	assert.Equal(t, "alice", event["userId"])

	// Offline target is a silent miss.
	assert.False(t, router.NotifyRelationshipChanged("carol", "alice"))
}
