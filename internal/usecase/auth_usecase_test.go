package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"anzsco-lookup/internal/pkg/jwt"
	ucauth "anzsco-lookup/internal/usecase/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type failingSigner struct{}

func (failingSigner) GenerateAccessToken(string, string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("sign failed")
}

func (failingSigner) ValidateToken(string) (jwt.Claims, error) {
	return jwt.Claims{}, jwt.ErrTokenInvalid
}

func newTestAuth(t *testing.T, signer jwt.Service) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthUsecase(ucauth.NewService("Admin", string(hash)), signer)
}

func TestAuth_Login(t *testing.T) {
	signer := jwt.NewHMACService("test-secret", "anzsco-lookup", time.Hour)
	uc := newTestAuth(t, signer)

	out, err := uc.Login(context.Background(), ucauth.LoginInput{Username: " admin ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "admin", out.Admin.Username)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.True(t, out.ExpiresAt.After(time.Now()))

	claims, err := signer.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAdmin, claims.Role)
	assert.Equal(t, "admin", claims.Subject)
}

func TestAuth_LoginFailures(t *testing.T) {
	signer := jwt.NewHMACService("test-secret", "anzsco-lookup", time.Hour)
	uc := newTestAuth(t, signer)

	_, err := uc.Login(context.Background(), ucauth.LoginInput{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), ucauth.LoginInput{Username: "root", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	disabled := NewAuthUsecase(ucauth.NewService("", ""), signer)
	_, err = disabled.Login(context.Background(), ucauth.LoginInput{Username: "admin", Password: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	broken := newTestAuth(t, failingSigner{})
	_, err = broken.Login(context.Background(), ucauth.LoginInput{Username: "admin", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInternal)
}
