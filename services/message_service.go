package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"telescordAPI/internal/store"
	"telescordAPI/internal/types/message"
	"telescordAPI/pkg/errors"
)

// MessageService is the append-only message log. Timestamps are assigned
// server-side under a short mutex so they are globally monotonic; the
// sequence number breaks ties between messages stamped in the same instant.
// The lock is never held across storage I/O.
type MessageService struct {
	store store.MessageStore

	mu      sync.Mutex
	lastTS  time.Time
	lastSeq uint64
}

func NewMessageService(store store.MessageStore) *MessageService {
	return &MessageService{store: store}
}

func (s *MessageService) stamp() (time.Time, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(s.lastTS) {
		now = s.lastTS
	}
	s.lastTS = now
	s.lastSeq++
	return now, s.lastSeq
}

// Append persists a message durably and returns the canonical form with the
// server-assigned id and timestamp. Persistence failure means nothing was
// delivered.
func (s *MessageService) Append(ctx context.Context, senderID string, req *message.SendMessageRequest) (*message.Message, error) {
	if !req.HasContent() {
		return nil, errors.ErrEmptyMessage
	}

	ts, seq := s.stamp()
	m := &message.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
		IsMedia:    req.IsMedia,
		MediaType:  req.MediaType,
		MediaRef:   req.MediaRef,
		Timestamp:  ts,
		Seq:        seq,
	}

	if err := s.store.SaveMessage(ctx, m); err != nil {
		return nil, errors.ErrPersistence(err)
	}
	return m, nil
}

// History returns the full conversation between two users ascending by
// timestamp. Read-only and idempotent.
func (s *MessageService) History(ctx context.Context, userA, userB string) ([]*message.Message, error) {
	msgs, err := s.store.ListConversation(ctx, message.ConversationKey(userA, userB))
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}
	return msgs, nil
}
