package in_memory

import (
	"context"
	"sync"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
)

type BabyStorage struct {
	mu     sync.RWMutex
	babies map[string]model.Baby
}

func NewBabyStorage() *BabyStorage {
	return &BabyStorage{
		babies: make(map[string]model.Baby),
	}
}

func (b *BabyStorage) SaveBaby(_ context.Context, baby model.Baby) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.babies[model.UsernameKey(baby.UserOwner)] = copyBaby(baby)
	return nil
}

func (b *BabyStorage) LoadBaby(_ context.Context, username string) (model.Baby, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	baby, ok := b.babies[model.UsernameKey(username)]
	if !ok {
		return model.Baby{}, model.ErrBabyDoesNotExist
	}
	return copyBaby(baby), nil
}

func (b *BabyStorage) DeleteBaby(_ context.Context, username string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.babies, model.UsernameKey(username))
	return nil
}

// copyBaby detaches the memory slice so callers cannot mutate stored state.
func copyBaby(baby model.Baby) model.Baby {
	memory := make([]string, len(baby.Memory))
	copy(memory, baby.Memory)
	baby.Memory = memory
	return baby
}
