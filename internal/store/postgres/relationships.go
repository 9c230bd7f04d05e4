package postgres

import (
	"context"
	"fmt"

	stderrors "errors"

	"github.com/jackc/pgx/v5"

	"telescordAPI/internal/types/friendship"
)

func (s *Store) GetPair(ctx context.Context, userA, userB string) (*friendship.Pair, error) {
	a, b := friendship.OrderPair(userA, userB)

	query := `
	SELECT user_a, user_b, state, requester_id, created_at, updated_at
	FROM friendships
	WHERE user_a = $1 AND user_b = $2
	`

	p := &friendship.Pair{}
	err := s.db.QueryRow(ctx, query, a, b).Scan(
		&p.UserA,
		&p.UserB,
		&p.State,
		&p.RequesterID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pair: %w", err)
	}

	return p, nil
}

func (s *Store) UpsertPair(ctx context.Context, p *friendship.Pair) error {
	query := `
	INSERT INTO friendships (user_a, user_b, state, requester_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_a, user_b)
	DO UPDATE SET state = EXCLUDED.state, requester_id = EXCLUDED.requester_id, updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.Exec(ctx, query,
		p.UserA,
		p.UserB,
		p.State,
		p.RequesterID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pair: %w", err)
	}

	return nil
}

func (s *Store) DeletePair(ctx context.Context, userA, userB string) error {
	a, b := friendship.OrderPair(userA, userB)

	_, err := s.db.Exec(ctx, `DELETE FROM friendships WHERE user_a = $1 AND user_b = $2`, a, b)
	if err != nil {
		return fmt.Errorf("failed to delete pair: %w", err)
	}

	return nil
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]string, error) {
	query := `
	SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
	FROM friendships
	WHERE (user_a = $1 OR user_b = $1) AND state = 'accepted'
	ORDER BY 1
	`

	return s.listCounterparts(ctx, query, userID)
}

func (s *Store) ListRequestsReceived(ctx context.Context, userID string) ([]string, error) {
	query := `
	SELECT requester_id
	FROM friendships
	WHERE (user_a = $1 OR user_b = $1) AND state = 'pending' AND requester_id != $1
	ORDER BY 1
	`

	return s.listCounterparts(ctx, query, userID)
}

func (s *Store) ListRequestsSent(ctx context.Context, userID string) ([]string, error) {
	query := `
	SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
	FROM friendships
	WHERE (user_a = $1 OR user_b = $1) AND state = 'pending' AND requester_id = $1
	ORDER BY 1
	`

	return s.listCounterparts(ctx, query, userID)
}

func (s *Store) listCounterparts(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
