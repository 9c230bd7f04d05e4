package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telescordAPI/internal/store"
	"telescordAPI/internal/types/notification"
	"telescordAPI/pkg/errors"
)

type NotificationService struct {
	store      store.NotificationStore
	users      store.UserStore
	dispatcher *NotificationDispatcher
}

func NewNotificationService(notifStore store.NotificationStore, users store.UserStore) *NotificationService {
	service := &NotificationService{
		store: notifStore,
		users: users,
	}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the real FCM provider from main.go. Without a
// provider, notifications are still persisted but no device push happens.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

func (s *NotificationService) create(ctx context.Context, userID string, typ notification.NotificationType, title, body, actorID string, data map[string]any) (*notification.Notification, error) {
	n := &notification.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Status:    notification.StatusPending,
		Title:     title,
		Body:      body,
		Data:      data,
		ActorID:   actorID,
		CreatedAt: time.Now(),
	}

	if err := s.store.SaveNotification(ctx, n); err != nil {
		return nil, errors.ErrPersistence(err)
	}

	s.dispatcher.Dispatch(n)
	return n, nil
}

// NotifyFriendRequest records that actor sent userID a friend request.
func (s *NotificationService) NotifyFriendRequest(ctx context.Context, userID, actorID, actorUsername string) error {
	_, err := s.create(ctx, userID, notification.TypeFriendRequest,
		"New friend request",
		fmt.Sprintf("%s sent you a friend request", actorUsername),
		actorID,
		map[string]any{"senderId": actorID},
	)
	return err
}

// NotifyFriendAccepted records that actor accepted userID's request.
func (s *NotificationService) NotifyFriendAccepted(ctx context.Context, userID, actorID, actorUsername string) error {
	_, err := s.create(ctx, userID, notification.TypeFriendAccepted,
		"Friend request accepted",
		fmt.Sprintf("You are now friends with %s", actorUsername),
		actorID,
		nil,
	)
	return err
}

// NotifyNewMessage records an offline direct message for receiverID.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, senderID, receiverID string) error {
	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return err
	}

	_, err = s.create(ctx, receiverID, notification.TypeNewMessage,
		"New message",
		fmt.Sprintf("%s sent you a message", sender.Username),
		senderID,
		map[string]any{"senderId": senderID},
	)
	return err
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID string, limit int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, err := s.store.ListNotifications(ctx, userID, limit, unreadOnly)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}

	unread, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}

	return &notification.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	return s.store.MarkRead(ctx, notificationID, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	return s.store.DeleteNotification(ctx, notificationID, userID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID string, req notification.RegisterDeviceRequest) error {
	if req.Token == "" {
		return errors.InvalidArg("device token is required")
	}
	return s.store.SaveDeviceToken(ctx, userID, notification.DeviceToken{
		Token:    req.Token,
		Platform: req.Platform,
	})
}
