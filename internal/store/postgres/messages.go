package postgres

import (
	"context"
	"fmt"

	"telescordAPI/internal/types/message"
)

func (s *Store) SaveMessage(ctx context.Context, m *message.Message) error {
	query := `
	INSERT INTO messages (id, conversation_key, sender_id, receiver_id, body, is_media, media_type, media_ref, ts, seq)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		m.ID,
		message.ConversationKey(m.SenderID, m.ReceiverID),
		m.SenderID,
		m.ReceiverID,
		m.Body,
		m.IsMedia,
		m.MediaType,
		m.MediaRef,
		m.Timestamp,
		m.Seq,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

func (s *Store) ListConversation(ctx context.Context, conversationKey string) ([]*message.Message, error) {
	query := `
	SELECT id, sender_id, receiver_id, body, is_media, media_type, media_ref, ts, seq
	FROM messages
	WHERE conversation_key = $1
	ORDER BY ts ASC, seq ASC
	`

	rows, err := s.db.Query(ctx, query, conversationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]*message.Message, 0)
	for rows.Next() {
		m := &message.Message{}
		err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.ReceiverID,
			&m.Body,
			&m.IsMedia,
			&m.MediaType,
			&m.MediaRef,
			&m.Timestamp,
			&m.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
