package userservice

import (
	"context"
	"errors"
	"fmt"

	"masterserver/internal/master/domain/models"
	"masterserver/internal/master/repository/userrepo"
	"masterserver/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo Repository
	lg       logger.Logger
}

type Repository interface {
	GetUsers(context.Context, userrepo.Filter) ([]models.User, error)
	CreateUser(context.Context, models.User) (models.User, error)
	UpdateUser(context.Context, models.User) error
	DeleteUser(context.Context, uuid.UUID) error
	Shutdown(context.Context) error
}

func New(userRepo Repository, lg logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		lg:       lg,
	}
}

// GetUsers returns every user matching the filter. An empty result is not
// an error.
func (us *UserService) GetUsers(ctx context.Context, f userrepo.Filter) ([]models.User, error) {
	users, err := us.userRepo.GetUsers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("get users error: %w", err)
	}

	return users, nil
}

func (us *UserService) AddUser(ctx context.Context, req CreateUserRequest) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("generate from password error: %w", err)
	}

	u := models.User{
		UUID:         uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}

	created, err := us.userRepo.CreateUser(ctx, u)
	if err != nil {
		return models.User{}, fmt.Errorf("create user error: %w", err)
	}

	us.lg.Debugf("created user %s", created.UUID)

	return created, nil
}

// UpdateUser overwrites only the fields present in the request. The stored
// record is fetched first so omitted fields keep their values.
func (us *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (models.User, error) {
	users, err := us.userRepo.GetUsers(ctx, userrepo.Filter{UUID: &id})
	if err != nil {
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	if len(users) == 0 {
		return models.User{}, userrepo.ErrNotFound
	}

	u := users[0]

	if req.Name != "" {
		u.Name = req.Name
	}

	if req.Email != "" {
		u.Email = req.Email
	}

	if req.Role != "" {
		u.Role = req.Role
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("generate from password error: %w", err)
		}

		u.PasswordHash = string(hash)
	}

	if err := us.userRepo.UpdateUser(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("update user error: %w", err)
	}

	return u, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := us.userRepo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return userrepo.ErrNotFound
		}

		return fmt.Errorf("delete user error: %w", err)
	}

	us.lg.Debugf("deleted user %s", id)

	return nil
}

func (us *UserService) Shutdown(ctx context.Context) error {
	if err := us.userRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown user repo error: %w", err)
	}

	return nil
}
