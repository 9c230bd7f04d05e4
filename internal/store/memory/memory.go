// Package memory is an in-process implementation of the store contracts.
// It backs the test suite and the dev mode where no DATABASE_URL is set.
// Message history obviously does not survive a restart in this mode; use
// the postgres store for that.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"telescordAPI/internal/types/friendship"
	"telescordAPI/internal/types/message"
	"telescordAPI/internal/types/notification"
	"telescordAPI/internal/user"
	"telescordAPI/pkg/errors"
)

type Store struct {
	mu sync.RWMutex

	users         map[string]*user.User       // id -> user
	usersByName   map[string]string           // username -> id
	pairs         map[string]*friendship.Pair // pair key -> pair
	conversations map[string][]*message.Message
	notifications map[string]*notification.Notification
	deviceTokens  map[string][]notification.DeviceToken
}

func New() *Store {
	return &Store{
		users:         make(map[string]*user.User),
		usersByName:   make(map[string]string),
		pairs:         make(map[string]*friendship.Pair),
		conversations: make(map[string][]*message.Message),
		notifications: make(map[string]*notification.Notification),
		deviceTokens:  make(map[string][]notification.DeviceToken),
	}
}

// --- UserStore ---

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByName[u.Username]; taken {
		return errors.ErrUsernameTaken
	}
	cp := *u
	s.users[u.ID] = &cp
	s.usersByName[u.Username] = u.ID
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) UpdateAvatar(ctx context.Context, id, avatarPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.AvatarPath = avatarPath
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]*user.User, 0)
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- RelationshipStore ---

func (s *Store) GetPair(ctx context.Context, userA, userB string) (*friendship.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pairs[friendship.PairKey(userA, userB)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertPair(ctx context.Context, p *friendship.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.pairs[friendship.PairKey(p.UserA, p.UserB)] = &cp
	return nil
}

func (s *Store) DeletePair(ctx context.Context, userA, userB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairs, friendship.PairKey(userA, userB))
	return nil
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]string, error) {
	return s.listPairs(userID, func(p *friendship.Pair) bool {
		return p.State == friendship.StateAccepted
	})
}

func (s *Store) ListRequestsReceived(ctx context.Context, userID string) ([]string, error) {
	return s.listPairs(userID, func(p *friendship.Pair) bool {
		return p.State == friendship.StatePending && p.RequesterID != userID
	})
}

func (s *Store) ListRequestsSent(ctx context.Context, userID string) ([]string, error) {
	return s.listPairs(userID, func(p *friendship.Pair) bool {
		return p.State == friendship.StatePending && p.RequesterID == userID
	})
}

func (s *Store) listPairs(userID string, match func(*friendship.Pair) bool) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0)
	for _, p := range s.pairs {
		if p.UserA != userID && p.UserB != userID {
			continue
		}
		if match(p) {
			out = append(out, p.Other(userID))
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- MessageStore ---

func (s *Store) SaveMessage(ctx context.Context, m *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := message.ConversationKey(m.SenderID, m.ReceiverID)
	cp := *m
	s.conversations[key] = append(s.conversations[key], &cp)
	return nil
}

func (s *Store) ListConversation(ctx context.Context, conversationKey string) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.conversations[conversationKey]
	out := make([]*message.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// --- NotificationStore ---

func (s *Store) SaveNotification(ctx context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*notification.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Status == notification.StatusRead {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && n.Status != notification.StatusRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return errors.NotFound("notification not found")
	}
	now := time.Now()
	n.Status = notification.StatusRead
	n.ReadAt = &now
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, n := range s.notifications {
		if n.UserID == userID && n.Status != notification.StatusRead {
			n.Status = notification.StatusRead
			n.ReadAt = &now
		}
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return errors.NotFound("notification not found")
	}
	delete(s.notifications, id)
	return nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.notifications[id]; ok && n.Status == notification.StatusPending {
		n.Status = notification.StatusSent
	}
	return nil
}

func (s *Store) SaveDeviceToken(ctx context.Context, userID string, t notification.DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.deviceTokens[userID] {
		if existing.Token == t.Token {
			return nil
		}
	}
	s.deviceTokens[userID] = append(s.deviceTokens[userID], t)
	return nil
}

func (s *Store) DeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]notification.DeviceToken(nil), s.deviceTokens[userID]...), nil
}

func (s *Store) DeleteOldRead(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, n := range s.notifications {
		if n.Status == notification.StatusRead && n.ReadAt != nil && n.ReadAt.Before(olderThan) {
			delete(s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}
