package authservice

import (
	"context"
	"errors"
	"fmt"

	"masterserver/internal/master/domain/models"
	"masterserver/internal/master/repository/userrepo"
	"masterserver/internal/pkg/config"
	"masterserver/internal/pkg/jwtauth"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo Repository
	cfg      config.Auth
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("could not validate credentials")
)

type Repository interface {
	GetUsers(context.Context, userrepo.Filter) ([]models.User, error)
}

func New(userRepo Repository, cfg config.Auth) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Login verifies the email/password pair and issues an access token with the
// user's email as subject. A missing user and a wrong password are not
// distinguished.
func (as *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	users, err := as.userRepo.GetUsers(ctx, userrepo.Filter{Email: email})
	if err != nil {
		return "", fmt.Errorf("get user error: %w", err)
	}

	if len(users) == 0 {
		return "", ErrInvalidCredentials
	}

	u := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := jwtauth.GetToken(u.Email, as.cfg.TTL(), as.cfg.Secret, as.cfg.Algorithm)
	if err != nil {
		return "", fmt.Errorf("can't get token error: %w", err)
	}

	return token, nil
}

// Authenticate resolves a bearer token back to the stored user. Any failure,
// including a subject that no longer exists, reports ErrTokenInvalid.
func (as *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	email, err := jwtauth.Validate(token, as.cfg.Secret)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	users, err := as.userRepo.GetUsers(ctx, userrepo.Filter{Email: email})
	if err != nil {
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	if len(users) == 0 {
		return models.User{}, ErrTokenInvalid
	}

	return users[0], nil
}
