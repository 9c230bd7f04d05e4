package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"telescordAPI/internal/store"
	"telescordAPI/internal/user"
	"telescordAPI/pkg/errors"
	"telescordAPI/utils"
)

type UserService struct {
	store store.UserStore
}

func NewUserService(store store.UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 30 {
		return nil, errors.InvalidArg("username must be 3-30 characters")
	}
	if len(req.Password) < 8 {
		return nil, errors.InvalidArg("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		AvatarPath:   utils.PlaceholderAvatar(username),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate resolves username/password into a user record. The same
// error comes back for an unknown user and a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errors.ErrBadCredentials
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

func (s *UserService) UpdateAvatar(ctx context.Context, id, avatarPath string) error {
	return s.store.UpdateAvatar(ctx, id, avatarPath)
}

func (s *UserService) SearchUsers(ctx context.Context, userID, query string) ([]user.Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []user.Card{}, nil
	}

	users, err := s.store.SearchUsers(ctx, query, userID, 20)
	if err != nil {
		return nil, errors.ErrPersistence(err)
	}

	cards := make([]user.Card, 0, len(users))
	for _, u := range users {
		cards = append(cards, u.Card())
	}
	return cards, nil
}
