package postgres

import (
	"context"
	"fmt"
	"log"

	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"telescordAPI/internal/user"
	"telescordAPI/pkg/errors"
)

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, username, email, password_hash, avatar_path, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.AvatarPath,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errors.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	return s.getUser(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.getUser(ctx, `WHERE username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*user.User, error) {
	query := `
	SELECT id, username, email, password_hash, avatar_path, created_at, updated_at
	FROM users ` + where

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.AvatarPath,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *Store) UpdateAvatar(ctx context.Context, id, avatarPath string) error {
	query := `
	UPDATE users SET avatar_path = $2, updated_at = NOW()
	WHERE id = $1
	`

	result, err := s.db.Exec(ctx, query, id, avatarPath)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}

	return nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	query := `
	SELECT id, username, email, password_hash, avatar_path, created_at, updated_at
	FROM users
	WHERE id = ANY($1)
	ORDER BY username
	`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (s *Store) SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]*user.User, error) {
	sql := `
	SELECT id, username, email, password_hash, avatar_path, created_at, updated_at
	FROM users
	WHERE username ILIKE '%' || $1 || '%' AND id != $2
	ORDER BY username
	LIMIT $3
	`

	rows, err := s.db.Query(ctx, sql, query, excludeID, limit)
	if err != nil {
		log.Printf("SearchUsers: query failed: %v", err)
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]*user.User, error) {
	users := make([]*user.User, 0)
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.AvatarPath,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
