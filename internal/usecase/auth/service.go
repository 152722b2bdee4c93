package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDisabled           = errors.New("admin login disabled")
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Admin struct {
	Username string `json:"username"`
}

// Service checks the single operator account configured for the admin API.
type Service struct {
	username     string
	passwordHash []byte
}

func NewService(username, passwordHash string) *Service {
	return &Service{
		username:     normalizeUsername(username),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
	}
}

func (s *Service) Authenticate(_ context.Context, in LoginInput) (Admin, error) {
	if s == nil || s.username == "" || len(s.passwordHash) == 0 {
		return Admin{}, ErrDisabled
	}
	username := normalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return Admin{}, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	pwErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(in.Password))
	if !userOK || pwErr != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return Admin{Username: s.username}, nil
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
