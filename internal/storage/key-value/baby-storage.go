package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/redis/go-redis/v9"
)

const babyKeyPrefix = "babyai_data_"

type babyInternal struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Gender      string   `json:"gender"`
	BirthDate   int64    `json:"birthDate"`
	XP          int      `json:"xp"`
	Level       string   `json:"level"`
	Mood        string   `json:"mood"`
	Hunger      *int     `json:"hunger,omitempty"`
	Energy      *int     `json:"energy,omitempty"`
	UserOwner   string   `json:"userOwner"`
	Memory      []string `json:"memory"`
	AvatarImage string   `json:"avatarImage,omitempty"`
}

type BabyStorage struct {
	rdb *redis.Client
}

func NewBabyStorage(rdb *redis.Client) *BabyStorage {
	return &BabyStorage{
		rdb: rdb,
	}
}

func (b *BabyStorage) SaveBaby(ctx context.Context, baby model.Baby) error {
	hunger, energy := baby.Hunger, baby.Energy
	babyInt := babyInternal{
		ID:          baby.ID.String(),
		Name:        baby.Name,
		Gender:      string(baby.Gender),
		BirthDate:   baby.BirthDate.UnixMilli(),
		XP:          baby.XP,
		Level:       baby.Level,
		Mood:        string(baby.Mood),
		Hunger:      &hunger,
		Energy:      &energy,
		UserOwner:   baby.UserOwner,
		Memory:      baby.Memory,
		AvatarImage: baby.AvatarImage,
	}
	if babyInt.Memory == nil {
		babyInt.Memory = make([]string, 0)
	}
	babyJSON, err := json.Marshal(babyInt)
	if err != nil {
		return fmt.Errorf("failed to marshal internal baby: %w", err)
	}
	babyKey := getBabyKey(baby.UserOwner)
	if err = b.rdb.Set(ctx, babyKey, babyJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save baby %s: %w", babyKey, err)
	}
	return nil
}

func (b *BabyStorage) LoadBaby(ctx context.Context, username string) (model.Baby, error) {
	babyKey := getBabyKey(username)
	babyRaw, err := b.rdb.Get(ctx, babyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Baby{}, model.ErrBabyDoesNotExist
		}
		return model.Baby{}, fmt.Errorf("failed to get baby %s: %w", babyKey, err)
	}
	var babyInt babyInternal
	if err = json.Unmarshal([]byte(babyRaw), &babyInt); err != nil {
		return model.Baby{}, fmt.Errorf("failed to unmarshal baby %s: %w", babyKey, err)
	}
	return babyInt.toModel()
}

func (b *BabyStorage) DeleteBaby(ctx context.Context, username string) error {
	babyKey := getBabyKey(username)
	if err := b.rdb.Del(ctx, babyKey).Err(); err != nil {
		return fmt.Errorf("failed to delete baby %s: %w", babyKey, err)
	}
	return nil
}

func (b babyInternal) toModel() (model.Baby, error) {
	babyID, err := uuid.Parse(b.ID)
	if err != nil {
		return model.Baby{}, fmt.Errorf("failed to parse baby id %s: %w", b.ID, err)
	}
	gender, ok := model.ParseGender(b.Gender)
	if !ok {
		gender = model.GenderNeutral
	}

	// Records saved before memory and care stats existed.
	memory := b.Memory
	if memory == nil {
		memory = make([]string, 0)
	}
	hunger, energy := model.InitialHunger, model.InitialEnergy
	if b.Hunger != nil {
		hunger = model.Clamp(*b.Hunger)
	}
	if b.Energy != nil {
		energy = model.Clamp(*b.Energy)
	}
	mood, ok := model.ParseMood(b.Mood)
	if !ok {
		mood = model.MoodCurious
	}

	return model.Baby{
		ID:          babyID,
		Name:        b.Name,
		Gender:      gender,
		BirthDate:   time.UnixMilli(b.BirthDate),
		XP:          b.XP,
		Level:       model.LevelTitle(b.XP),
		Mood:        mood,
		Hunger:      hunger,
		Energy:      energy,
		UserOwner:   b.UserOwner,
		Memory:      memory,
		AvatarImage: b.AvatarImage,
	}, nil
}

func getBabyKey(username string) string {
	return fmt.Sprintf("%s%s", babyKeyPrefix, model.UsernameKey(username))
}
