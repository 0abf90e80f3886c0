package auth

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	Store    *Store
	Secret   string
	TokenTTL time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, UserContext, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", UserContext{}, ErrInvalidCredentials
		}
		return "", UserContext{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", UserContext{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Role: user.Role}, s.TokenTTL)
	if err != nil {
		return "", UserContext{}, err
	}
	return token, UserContext{UserID: user.ID, Role: user.Role}, nil
}
