// Package store defines the persistence contracts the services run on.
// Two implementations exist: postgres (production, pgx) and memory
// (tests, and a zero-setup dev mode when DATABASE_URL is unset).
package store

import (
	"context"
	"time"

	"telescordAPI/internal/types/friendship"
	"telescordAPI/internal/types/message"
	"telescordAPI/internal/types/notification"
	"telescordAPI/internal/user"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id string) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	UpdateAvatar(ctx context.Context, id, avatarPath string) error
	UsersByIDs(ctx context.Context, ids []string) ([]*user.User, error)
	SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]*user.User, error)
}

// RelationshipStore holds one row per unordered user pair. Callers never
// read-modify-write concurrently for the same pair; the relationship
// service serializes mutations behind a per-pair lock.
type RelationshipStore interface {
	// GetPair returns nil, nil when no row exists for the pair.
	GetPair(ctx context.Context, userA, userB string) (*friendship.Pair, error)
	UpsertPair(ctx context.Context, p *friendship.Pair) error
	DeletePair(ctx context.Context, userA, userB string) error
	ListFriends(ctx context.Context, userID string) ([]string, error)
	ListRequestsReceived(ctx context.Context, userID string) ([]string, error)
	ListRequestsSent(ctx context.Context, userID string) ([]string, error)
}

// MessageStore is the append-only durable message log.
type MessageStore interface {
	SaveMessage(ctx context.Context, m *message.Message) error
	// ListConversation returns the whole conversation ascending by
	// (timestamp, seq).
	ListConversation(ctx context.Context, conversationKey string) ([]*message.Message, error)
}

type NotificationStore interface {
	SaveNotification(ctx context.Context, n *notification.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id, userID string) error
	MarkSent(ctx context.Context, id string) error
	SaveDeviceToken(ctx context.Context, userID string, t notification.DeviceToken) error
	DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error)
	DeleteOldRead(ctx context.Context, olderThan time.Time) (int64, error)
}
