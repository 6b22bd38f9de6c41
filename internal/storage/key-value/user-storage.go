package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	usersKey        = "babyai_users_db"
	maxWatchRetries = 5
)

var (
	ErrUsersTableBusy = errors.New("users table changed concurrently")
)

type userInternal struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserStorage struct {
	rdb *redis.Client
	// beforeCommit runs between reading the users table and writing it back.
	beforeCommit func(ctx context.Context)
}

func NewUserStorage(rdb *redis.Client) *UserStorage {
	return &UserStorage{
		rdb: rdb,
	}
}

func (u *UserStorage) CreateUser(ctx context.Context, user model.User) error {
	create := func(tx *redis.Tx) error {
		users, err := getUsers(ctx, tx)
		if err != nil {
			return err
		}
		for _, existing := range users {
			if model.UsernameKey(existing.Username) == model.UsernameKey(user.Username) {
				return model.ErrUserAlreadyExists
			}
		}
		users = append(
			users, userInternal{
				Username: user.Username,
				Password: user.Password,
			},
		)
		usersJSON, err := json.Marshal(users)
		if err != nil {
			return fmt.Errorf("failed to marshal users: %w", err)
		}
		if u.beforeCommit != nil {
			u.beforeCommit(ctx)
		}
		_, err = tx.TxPipelined(
			ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, usersKey, usersJSON, 0)
				return nil
			},
		)
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := u.rdb.Watch(ctx, create, usersKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, model.ErrUserAlreadyExists) {
			return fmt.Errorf("failed to save user %s: %w", user.Username, err)
		}
		return err
	}
	return ErrUsersTableBusy
}

func (u *UserStorage) GetUser(ctx context.Context, username string) (model.User, error) {
	users, err := getUsers(ctx, u.rdb)
	if err != nil {
		return model.User{}, err
	}
	for _, userInt := range users {
		if model.UsernameKey(userInt.Username) == model.UsernameKey(username) {
			return model.User{
				Username: userInt.Username,
				Password: userInt.Password,
			}, nil
		}
	}
	return model.User{}, model.ErrUserDoesNotExist
}

func getUsers(ctx context.Context, c redis.Cmdable) ([]userInternal, error) {
	usersRaw, err := c.Get(ctx, usersKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return make([]userInternal, 0), nil
		}
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	var users []userInternal
	if err = json.Unmarshal([]byte(usersRaw), &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	return users, nil
}
