package usecase

import (
	"context"
	"errors"
	"time"

	"anzsco-lookup/internal/pkg/jwt"
	ucauth "anzsco-lookup/internal/usecase/auth"
)

type AuthUsecase interface {
	Login(ctx context.Context, in ucauth.LoginInput) (LoginOutput, error)
}

type LoginOutput struct {
	Admin       ucauth.Admin `json:"admin"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

type Auth struct {
	authSvc *ucauth.Service
	jwt     jwt.Service
}

func NewAuthUsecase(authSvc *ucauth.Service, jwtSvc jwt.Service) *Auth {
	return &Auth{authSvc: authSvc, jwt: jwtSvc}
}

func (u *Auth) Login(ctx context.Context, in ucauth.LoginInput) (LoginOutput, error) {
	if u == nil || u.jwt == nil {
		return LoginOutput{}, ErrInternal
	}
	admin, err := u.authSvc.Authenticate(ctx, in)
	if err != nil {
		if errors.Is(err, ucauth.ErrDisabled) {
			return LoginOutput{}, ErrUnauthorized
		}
		return LoginOutput{}, ErrInvalidCredentials
	}

	token, exp, err := u.jwt.GenerateAccessToken(admin.Username, jwt.RoleAdmin)
	if err != nil {
		return LoginOutput{}, ErrInternal
	}
	return LoginOutput{Admin: admin, AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}
