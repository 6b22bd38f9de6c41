package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/pkg/local"
	"github.com/mudler/xlog"
)

const (
	chatXP = 2

	fallbackPitch = 1.2
	fallbackRate  = 1.1
)

var (
	ErrBabyNotFound      = errors.New("baby not found")
	ErrInvalidCareAction = errors.New("invalid care action")
	ErrInvalidGender     = errors.New("invalid gender")
)

type BabyStorage interface {
	SaveBaby(ctx context.Context, baby model.Baby) error
	LoadBaby(ctx context.Context, username string) (model.Baby, error)
	DeleteBaby(ctx context.Context, username string) error
}

type BabyUsecaseDeps struct {
	BabyStorage BabyStorage
	User        *UserUsecase
	AI          *OpenAIUsecase
}

type BabyUsecase struct {
	BabyUsecaseDeps
	language local.Language
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBabyUsecase(deps BabyUsecaseDeps, language local.Language) *BabyUsecase {
	return &BabyUsecase{
		BabyUsecaseDeps: deps,
		language:        language,
		now:             time.Now,
		locks:           make(map[string]*sync.Mutex),
	}
}

// lock serializes read-modify-write cycles on one owner's pet record.
func (b *BabyUsecase) lock(username string) func() {
	key := model.UsernameKey(username)
	b.mu.Lock()
	l, ok := b.locks[key]
	if !ok {
		l = &sync.Mutex{}
		b.locks[key] = l
	}
	b.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (b *BabyUsecase) Signup(
	ctx context.Context,
	username, password, babyName string,
	gender model.Gender,
) (model.Baby, error) {
	username = strings.TrimSpace(username)
	babyName = strings.TrimSpace(babyName)
	if username == "" || password == "" || babyName == "" || gender == "" {
		return model.Baby{}, ErrMissingFields
	}
	if _, ok := model.ParseGender(string(gender)); !ok {
		return model.Baby{}, ErrInvalidGender
	}

	exists, err := b.User.Exists(ctx, username)
	if err != nil {
		return model.Baby{}, err
	}
	if exists {
		return model.Baby{}, model.ErrUserAlreadyExists
	}

	avatarImage := b.AI.GenerateAvatar(ctx, babyName, gender)
	user, err := b.User.Register(ctx, username, password)
	if err != nil {
		return model.Baby{}, err
	}

	unlock := b.lock(user.Username)
	defer unlock()
	baby := model.NewBaby(babyName, gender, user.Username, avatarImage, b.now())
	if err = b.BabyStorage.SaveBaby(ctx, baby); err != nil {
		return model.Baby{}, fmt.Errorf("failed to save baby: %w", err)
	}
	xlog.Info("Baby born", "owner", user.Username, "baby", baby.Name, "gender", baby.Gender)
	return baby, nil
}

// Login validates credentials and loads the pet. A valid user without a pet gets
// ErrBabyNotFound together with the user so the caller can offer a rebirth.
func (b *BabyUsecase) Login(ctx context.Context, username, password string) (model.User, model.Baby, error) {
	user, err := b.User.Validate(ctx, username, password)
	if err != nil {
		return model.User{}, model.Baby{}, err
	}
	baby, err := b.GetBaby(ctx, user.Username)
	if err != nil {
		return user, model.Baby{}, err
	}
	return user, baby, nil
}

func (b *BabyUsecase) GetBaby(ctx context.Context, username string) (model.Baby, error) {
	baby, err := b.BabyStorage.LoadBaby(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrBabyDoesNotExist) {
			return model.Baby{}, ErrBabyNotFound
		}
		return model.Baby{}, fmt.Errorf("failed to load baby: %w", err)
	}
	return baby, nil
}

func (b *BabyUsecase) Chat(
	ctx context.Context,
	username string,
	history []model.ChatMessage,
	message string,
) (string, model.Baby, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", model.Baby{}, ErrMissingFields
	}
	baby, err := b.GetBaby(ctx, username)
	if err != nil {
		return "", model.Baby{}, err
	}

	reply := b.AI.ChatReply(ctx, baby, history, message)

	unlock := b.lock(username)
	defer unlock()
	if baby, err = b.GetBaby(ctx, username); err != nil {
		return "", model.Baby{}, err
	}
	baby.GainXP(chatXP)
	baby.Mood = model.MoodCurious
	if err = b.BabyStorage.SaveBaby(ctx, baby); err != nil {
		return "", model.Baby{}, fmt.Errorf("failed to save baby: %w", err)
	}
	return reply, baby, nil
}

func (b *BabyUsecase) Teach(
	ctx context.Context,
	username, topic, content string,
) (TeachEvaluation, model.Baby, error) {
	topic = strings.TrimSpace(topic)
	content = strings.TrimSpace(content)
	if topic == "" || content == "" {
		return TeachEvaluation{}, model.Baby{}, ErrMissingFields
	}
	if _, err := b.GetBaby(ctx, username); err != nil {
		return TeachEvaluation{}, model.Baby{}, err
	}

	evaluation := b.AI.EvaluateTeaching(ctx, topic, content)

	unlock := b.lock(username)
	defer unlock()
	baby, err := b.GetBaby(ctx, username)
	if err != nil {
		return TeachEvaluation{}, model.Baby{}, err
	}
	baby.GainXP(evaluation.XPGained)
	baby.Mood = model.MoodHappy
	baby.Learn(evaluation.Memory)
	if err = b.BabyStorage.SaveBaby(ctx, baby); err != nil {
		return TeachEvaluation{}, model.Baby{}, fmt.Errorf("failed to save baby: %w", err)
	}
	xlog.Debug("Baby learned", "owner", username, "topic", topic, "xp", evaluation.XPGained)
	return evaluation, baby, nil
}

func (b *BabyUsecase) Care(ctx context.Context, username string, action model.CareAction) (string, model.Baby, error) {
	if _, ok := model.ParseCareAction(string(action)); !ok {
		return "", model.Baby{}, ErrInvalidCareAction
	}

	unlock := b.lock(username)
	baby, err := b.GetBaby(ctx, username)
	if err != nil {
		unlock()
		return "", model.Baby{}, err
	}
	baby.ApplyCare(action)
	if err = b.BabyStorage.SaveBaby(ctx, baby); err != nil {
		unlock()
		return "", model.Baby{}, fmt.Errorf("failed to save baby: %w", err)
	}
	unlock()

	return b.AI.CareReaction(ctx, baby, action), baby, nil
}

// Rebirth replaces the owner's pet with a newborn one.
func (b *BabyUsecase) Rebirth(ctx context.Context, username, name string, gender model.Gender) (model.Baby, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(username) == "" || name == "" || gender == "" {
		return model.Baby{}, ErrMissingFields
	}
	if _, ok := model.ParseGender(string(gender)); !ok {
		return model.Baby{}, ErrInvalidGender
	}

	avatarImage := b.AI.GenerateAvatar(ctx, name, gender)

	unlock := b.lock(username)
	defer unlock()
	if err := b.BabyStorage.DeleteBaby(ctx, username); err != nil {
		return model.Baby{}, fmt.Errorf("failed to delete baby: %w", err)
	}
	baby := model.NewBaby(name, gender, username, avatarImage, b.now())
	if err := b.BabyStorage.SaveBaby(ctx, baby); err != nil {
		return model.Baby{}, fmt.Errorf("failed to save baby: %w", err)
	}
	xlog.Info("Baby reborn", "owner", username, "baby", baby.Name)
	return baby, nil
}

// Speak never fails: without synthesized audio the result carries a local utterance.
func (b *BabyUsecase) Speak(ctx context.Context, text string, gender model.Gender) model.Speech {
	speech, err := b.AI.Synthesize(ctx, text, gender)
	if err == nil {
		return speech
	}
	xlog.Warn("Speech synthesis failed, falling back to local voice", "error", err)
	return model.Speech{
		Fallback: &model.LocalUtterance{
			Text:  text,
			Lang:  b.language.Locale(),
			Pitch: fallbackPitch,
			Rate:  fallbackRate,
		},
	}
}

func (b *BabyUsecase) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	if len(audio) == 0 {
		return "", ErrMissingFields
	}
	return b.AI.Transcribe(ctx, audio, fileName)
}
