package in_memory

import (
	"context"
	"sync"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
)

type UserStorage struct {
	mu    sync.RWMutex
	users []model.User
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		users: make([]model.User, 0),
	}
}

func (u *UserStorage) CreateUser(_ context.Context, user model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, existing := range u.users {
		if existing.Matches(user.Username) {
			return model.ErrUserAlreadyExists
		}
	}
	u.users = append(u.users, user)
	return nil
}

func (u *UserStorage) GetUser(_ context.Context, username string) (model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	for _, user := range u.users {
		if user.Matches(username) {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserDoesNotExist
}
