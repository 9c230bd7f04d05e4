package services

import (
	"context"
	"sync"
	"time"

	"telescordAPI/internal/store"
	"telescordAPI/internal/types/friendship"
	"telescordAPI/internal/user"
	"telescordAPI/pkg/errors"
)

// RelationshipService owns the friend-request state machine. Every mutation
// for a given user pair runs under that pair's mutex, so two concurrent
// calls touching the same pair can never both partially succeed.
type RelationshipService struct {
	users store.UserStore
	rels  store.RelationshipStore

	pairLocks map[string]*sync.Mutex
	locksMu   sync.Mutex
}

func NewRelationshipService(users store.UserStore, rels store.RelationshipStore) *RelationshipService {
	return &RelationshipService{
		users:     users,
		rels:      rels,
		pairLocks: make(map[string]*sync.Mutex),
	}
}

// returns mutex for given pair (creates if needed)
func (s *RelationshipService) pairLock(a, b string) *sync.Mutex {
	key := friendship.PairKey(a, b)

	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if l, ok := s.pairLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.pairLocks[key] = l
	return l
}

// SendRequest moves the pair from none to pending(from). A reverse pending
// request is surfaced as a conflict, never auto-accepted.
func (s *RelationshipService) SendRequest(ctx context.Context, fromID, toID string) (*friendship.Pair, error) {
	if fromID == toID {
		return nil, errors.ErrSelfTarget
	}
	if _, err := s.users.GetUserByID(ctx, toID); err != nil {
		return nil, err
	}

	l := s.pairLock(fromID, toID)
	l.Lock()
	defer l.Unlock()

	p, err := s.rels.GetPair(ctx, fromID, toID)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}

	if p != nil {
		switch {
		case p.State == friendship.StateAccepted:
			return nil, errors.ErrAlreadyFriends
		case p.RequesterID == fromID:
			return nil, errors.ErrDuplicateRequest
		default:
			return nil, errors.ErrReverseRequestExists
		}
	}

	a, b := friendship.OrderPair(fromID, toID)
	now := time.Now()
	p = &friendship.Pair{
		UserA:       a,
		UserB:       b,
		State:       friendship.StatePending,
		RequesterID: fromID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.rels.UpsertPair(ctx, p); err != nil {
		return nil, errors.ErrPersistence(err)
	}

	return p, nil
}

// AcceptRequest resolves a pending request from senderID into a mutual
// friendship and returns the new friend's record. The transition is a
// single row update, so friendship can never exist on one side only.
func (s *RelationshipService) AcceptRequest(ctx context.Context, acceptorID, senderID string) (*user.User, error) {
	if acceptorID == senderID {
		return nil, errors.ErrSelfTarget
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	l := s.pairLock(acceptorID, senderID)
	l.Lock()
	defer l.Unlock()

	p, err := s.rels.GetPair(ctx, acceptorID, senderID)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}
	if p == nil || p.State != friendship.StatePending || p.RequesterID != senderID {
		return nil, errors.ErrNoSuchRequest
	}

	p.State = friendship.StateAccepted
	p.UpdatedAt = time.Now()
	if err := s.rels.UpsertPair(ctx, p); err != nil {
		return nil, errors.ErrPersistence(err)
	}

	return sender, nil
}

// RejectRequest drops a pending request from senderID without creating
// friendship.
func (s *RelationshipService) RejectRequest(ctx context.Context, acceptorID, senderID string) error {
	l := s.pairLock(acceptorID, senderID)
	l.Lock()
	defer l.Unlock()

	p, err := s.rels.GetPair(ctx, acceptorID, senderID)
	if err != nil {
		return errors.ErrPersistence(err)
	}
	if p == nil || p.State != friendship.StatePending || p.RequesterID != senderID {
		return errors.ErrNoSuchRequest
	}

	if err := s.rels.DeletePair(ctx, acceptorID, senderID); err != nil {
		return errors.ErrPersistence(err)
	}
	return nil
}

// RemoveFriend tears down a mutual friendship.
func (s *RelationshipService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	l := s.pairLock(userID, friendID)
	l.Lock()
	defer l.Unlock()

	p, err := s.rels.GetPair(ctx, userID, friendID)
	if err != nil {
		return errors.ErrPersistence(err)
	}
	if p == nil || p.State != friendship.StateAccepted {
		return errors.ErrNotFriends
	}

	if err := s.rels.DeletePair(ctx, userID, friendID); err != nil {
		return errors.ErrPersistence(err)
	}
	return nil
}

func (s *RelationshipService) Friends(ctx context.Context, userID string) ([]user.Card, error) {
	ids, err := s.rels.ListFriends(ctx, userID)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}
	return s.cards(ctx, ids)
}

func (s *RelationshipService) RequestsReceived(ctx context.Context, userID string) ([]user.Card, error) {
	ids, err := s.rels.ListRequestsReceived(ctx, userID)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}
	return s.cards(ctx, ids)
}

func (s *RelationshipService) RequestsSent(ctx context.Context, userID string) ([]user.Card, error) {
	ids, err := s.rels.ListRequestsSent(ctx, userID)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}
	return s.cards(ctx, ids)
}

func (s *RelationshipService) cards(ctx context.Context, ids []string) ([]user.Card, error) {
	users, err := s.users.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}
	cards := make([]user.Card, 0, len(users))
	for _, u := range users {
		cards = append(cards, u.Card())
	}
	return cards, nil
}
