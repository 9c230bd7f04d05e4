package notification

import "time"

type NotificationType string

const (
	TypeFriendRequest  NotificationType = "friend_request"
	TypeFriendAccepted NotificationType = "friend_accepted"
	TypeNewMessage     NotificationType = "new_message"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusRead    NotificationStatus = "read"
)

type Notification struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Type      NotificationType   `json:"type"`
	Status    NotificationStatus `json:"status"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	Data      map[string]any     `json:"data,omitempty"`
	ActorID   string             `json:"actorId,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	ReadAt    *time.Time         `json:"readAt,omitempty"`
}

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type NotificationListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unreadCount"`
}
