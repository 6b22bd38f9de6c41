package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type UserStorage interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, username string) (model.User, error)
}

type UserUsecaseDeps struct {
	UserStorage UserStorage
}

type UserUsecase struct {
	UserUsecaseDeps
}

func NewUserUsecase(deps UserUsecaseDeps) *UserUsecase {
	return &UserUsecase{
		UserUsecaseDeps: deps,
	}
}

func (u *UserUsecase) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, ErrMissingFields
	}
	user := model.User{
		Username: username,
		Password: password,
	}
	if err := u.UserStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Validate returns the stored user when the credentials match.
func (u *UserUsecase) Validate(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, ErrMissingFields
	}
	user, err := u.UserStorage.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserDoesNotExist) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Password != password {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (u *UserUsecase) Exists(ctx context.Context, username string) (bool, error) {
	_, err := u.UserStorage.GetUser(ctx, username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrUserDoesNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get user: %w", err)
}
