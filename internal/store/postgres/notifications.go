package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"telescordAPI/internal/types/notification"
	"telescordAPI/pkg/errors"
)

func (s *Store) SaveNotification(ctx context.Context, n *notification.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	query := `
	INSERT INTO notifications (id, user_id, type, status, title, body, data, actor_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Status,
		n.Title,
		n.Body,
		data,
		n.ActorID,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*notification.Notification, error) {
	query := `
	SELECT id, user_id, type, status, title, body, data, actor_id, created_at, read_at
	FROM notifications
	WHERE user_id = $1 AND ($3 = false OR status != 'read')
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		var data []byte
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Status,
			&n.Title,
			&n.Body,
			&data,
			&n.ActorID,
			&n.CreatedAt,
			&n.ReadAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				log.Printf("ListNotifications: failed to decode data for %s: %v", n.ID, err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status != 'read'`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, id, userID string) error {
	result, err := s.db.Exec(ctx,
		`UPDATE notifications SET status = 'read', read_at = NOW() WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("notification not found")
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE notifications SET status = 'read', read_at = NOW() WHERE user_id = $1 AND status != 'read'`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("notification not found")
	}
	return nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE notifications SET status = 'sent' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	return nil
}

func (s *Store) SaveDeviceToken(ctx context.Context, userID string, t notification.DeviceToken) error {
	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform
	`

	_, err := s.db.Exec(ctx, query, userID, t.Token, t.Platform)
	if err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	return nil
}

func (s *Store) DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]notification.DeviceToken, 0)
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *Store) DeleteOldRead(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM notifications WHERE status = 'read' AND read_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", err)
	}
	return result.RowsAffected(), nil
}
