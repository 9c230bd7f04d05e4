package services

import (
	"context"
	"log"
	"time"

	"telescordAPI/internal/types/message"
	"telescordAPI/pkg/errors"
)

// DeliveryRouter sits between the durable message log and the live
// connections. Persistence is the durability point and the only thing that
// can fail a send; pushes on top of it are best-effort and never retried.
type DeliveryRouter struct {
	hub           *Hub
	messages      *MessageService
	notifications *NotificationService // optional offline push, may be nil
}

func NewDeliveryRouter(hub *Hub, messages *MessageService, notifications *NotificationService) *DeliveryRouter {
	return &DeliveryRouter{
		hub:           hub,
		messages:      messages,
		notifications: notifications,
	}
}

// SendDirectMessage validates, persists, then pushes the canonical persisted
// payload to both parties' live connections. An offline or stalled recipient
// is a silent miss; the message stays retrievable via History.
func (r *DeliveryRouter) SendDirectMessage(ctx context.Context, senderID string, req *message.SendMessageRequest) (*message.Message, error) {
	if req.ReceiverID == "" {
		return nil, errors.InvalidArg("receiverId is required")
	}
	if req.ReceiverID == senderID {
		return nil, errors.ErrSelfTarget
	}

	msg, err := r.messages.Append(ctx, senderID, req)
	if err != nil {
		return nil, err
	}

	event := map[string]any{
		"type":    "dm_message",
		"message": msg,
	}

	// Sender echo carries the server-assigned id and timestamp.
	r.hub.Push(senderID, event)

	if delivered := r.hub.Push(req.ReceiverID, event); !delivered && r.notifications != nil {
		// Recipient offline: hand off a device push, off the send path.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := r.notifications.NotifyNewMessage(ctx, senderID, req.ReceiverID); err != nil {
				log.Printf("Offline notification for %s failed: %v", req.ReceiverID, err)
			}
		}()
	}

	return msg, nil
}

// History proxies the message log for the fetch-history boundary call.
func (r *DeliveryRouter) History(ctx context.Context, userA, userB string) ([]*message.Message, error) {
	return r.messages.History(ctx, userA, userB)
}

// NotifyRelationshipChanged pushes a friend_update event about aboutID to
// targetID's live connection. Offline targets simply see the new state on
// their next full-state fetch.
func (r *DeliveryRouter) NotifyRelationshipChanged(targetID, aboutID string) bool {
	return r.hub.Push(targetID, map[string]any{
		"type":   "friend_update",
		"userId": aboutID,
	})
}
