package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
)

const maxChatHistory = 50

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoBaby      = errors.New("session has no baby")
)

type SessionUsecaseDeps struct {
	Baby *BabyUsecase
}

type SessionUsecase struct {
	SessionUsecaseDeps
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *model.Session
}

func NewSessionUsecase(deps SessionUsecaseDeps) *SessionUsecase {
	return &SessionUsecase{
		SessionUsecaseDeps: deps,
		now:                time.Now,
		sessions:           make(map[string]*sessionEntry),
	}
}

func TelegramSessionKey(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

func WebSessionKey(username string) string {
	return "web:" + model.UsernameKey(username)
}

// with runs fn holding the session lock and returns a snapshot of the session afterwards.
func (s *SessionUsecase) with(key string, fn func(session *model.Session) error) (model.Session, error) {
	s.mu.Lock()
	entry, ok := s.sessions[key]
	if !ok {
		entry = &sessionEntry{session: model.NewSession(key)}
		s.sessions[key] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	err := fn(entry.session)
	return snapshot(entry.session), err
}

func (s *SessionUsecase) Session(key string) model.Session {
	session, _ := s.with(key, func(*model.Session) error { return nil })
	return session
}

// Update lets a transport edit wizard state under the session lock.
func (s *SessionUsecase) Update(key string, fn func(session *model.Session) error) (model.Session, error) {
	return s.with(key, fn)
}

func (s *SessionUsecase) Navigate(ctx context.Context, key string, view model.View) (model.Session, error) {
	return s.with(
		key, func(session *model.Session) error {
			if view == model.ViewDashboard && session.LoggedIn() {
				if err := s.refreshBaby(ctx, session); err != nil && !errors.Is(err, ErrBabyNotFound) {
					return err
				}
			}
			if err := session.GoTo(view); err != nil {
				return err
			}
			if view == model.ViewLogin {
				session.Username = ""
				session.Baby = nil
				session.ChatHistory = make([]model.ChatMessage, 0)
			}
			session.Form = model.Form{}
			return nil
		},
	)
}

// Login moves the session to the dashboard. A user without a pet lands on the
// rebirth view and ErrBabyNotFound is returned with the updated session.
func (s *SessionUsecase) Login(ctx context.Context, key, username, password string) (model.Session, error) {
	return s.with(
		key, func(session *model.Session) error {
			return s.login(ctx, session, username, password)
		},
	)
}

func (s *SessionUsecase) login(ctx context.Context, session *model.Session, username, password string) error {
	user, baby, err := s.Baby.Login(ctx, username, password)
	if err != nil && !errors.Is(err, ErrBabyNotFound) {
		return err
	}
	session.Reset()
	session.Username = user.Username
	if errors.Is(err, ErrBabyNotFound) {
		if goErr := session.GoTo(model.ViewRebirth); goErr != nil {
			return goErr
		}
		return err
	}
	session.Baby = &baby
	return session.GoTo(model.ViewDashboard)
}

// Authenticate keeps a stateless client's session bound to the given credentials.
func (s *SessionUsecase) Authenticate(ctx context.Context, key, username, password string) (model.Session, error) {
	return s.with(
		key, func(session *model.Session) error {
			if session.LoggedIn() && model.UsernameKey(session.Username) == model.UsernameKey(username) {
				if _, err := s.Baby.User.Validate(ctx, username, password); err != nil {
					return err
				}
				if err := s.refreshBaby(ctx, session); err != nil && !errors.Is(err, ErrBabyNotFound) {
					return err
				}
				return nil
			}
			err := s.login(ctx, session, username, password)
			if errors.Is(err, ErrBabyNotFound) {
				return nil
			}
			return err
		},
	)
}

func (s *SessionUsecase) Signup(
	ctx context.Context,
	key, username, password, babyName string,
	gender model.Gender,
) (model.Session, error) {
	return s.with(
		key, func(session *model.Session) error {
			baby, err := s.Baby.Signup(ctx, username, password, babyName, gender)
			if err != nil {
				return err
			}
			session.Reset()
			session.Username = baby.UserOwner
			session.Baby = &baby
			return session.GoTo(model.ViewDashboard)
		},
	)
}

// SendChatMessage keeps user messages and replies in arrival order.
func (s *SessionUsecase) SendChatMessage(ctx context.Context, key, message string) (string, model.Session, error) {
	var reply string
	message = strings.TrimSpace(message)
	session, err := s.with(
		key, func(session *model.Session) error {
			if err := requireBaby(session); err != nil {
				return err
			}
			history := append([]model.ChatMessage(nil), session.ChatHistory...)
			var (
				baby model.Baby
				err  error
			)
			reply, baby, err = s.Baby.Chat(ctx, session.Username, history, message)
			if err != nil {
				return err
			}
			session.Baby = &baby
			s.appendChat(session, model.MessageSourceUser, message)
			s.appendChat(session, model.MessageSourceAssistant, reply)
			return nil
		},
	)
	return reply, session, err
}

func (s *SessionUsecase) appendChat(session *model.Session, source model.MessageSource, body string) {
	session.ChatHistory = append(
		session.ChatHistory, model.ChatMessage{
			Source:    source,
			Body:      body,
			Timestamp: s.now(),
		},
	)
	if overflow := len(session.ChatHistory) - maxChatHistory; overflow > 0 {
		session.ChatHistory = append(session.ChatHistory[:0:0], session.ChatHistory[overflow:]...)
	}
}

func (s *SessionUsecase) ClearChat(key string) model.Session {
	session, _ := s.with(
		key, func(session *model.Session) error {
			session.ChatHistory = make([]model.ChatMessage, 0)
			return nil
		},
	)
	return session
}

func (s *SessionUsecase) Teach(ctx context.Context, key, topic, content string) (TeachEvaluation, model.Session, error) {
	var evaluation TeachEvaluation
	session, err := s.with(
		key, func(session *model.Session) error {
			if err := requireBaby(session); err != nil {
				return err
			}
			var (
				baby model.Baby
				err  error
			)
			evaluation, baby, err = s.Baby.Teach(ctx, session.Username, topic, content)
			if err != nil {
				return err
			}
			session.Baby = &baby
			session.Form = model.Form{}
			if session.View == model.ViewTeach {
				return session.GoTo(model.ViewDashboard)
			}
			return nil
		},
	)
	return evaluation, session, err
}

func (s *SessionUsecase) Care(ctx context.Context, key string, action model.CareAction) (string, model.Session, error) {
	var reaction string
	session, err := s.with(
		key, func(session *model.Session) error {
			if err := requireBaby(session); err != nil {
				return err
			}
			var (
				baby model.Baby
				err  error
			)
			reaction, baby, err = s.Baby.Care(ctx, session.Username, action)
			if err != nil {
				return err
			}
			session.Baby = &baby
			return nil
		},
	)
	return reaction, session, err
}

func (s *SessionUsecase) Rebirth(ctx context.Context, key, name string, gender model.Gender) (model.Session, error) {
	return s.with(
		key, func(session *model.Session) error {
			if !session.LoggedIn() {
				return ErrNotLoggedIn
			}
			baby, err := s.Baby.Rebirth(ctx, session.Username, name, gender)
			if err != nil {
				return err
			}
			session.Baby = &baby
			session.Form = model.Form{}
			session.ChatHistory = make([]model.ChatMessage, 0)
			if !session.View.CanGoTo(model.ViewRebirth) {
				if err = session.GoTo(model.ViewDashboard); err != nil {
					return err
				}
			}
			if err = session.GoTo(model.ViewRebirth); err != nil {
				return err
			}
			return session.GoTo(model.ViewDashboard)
		},
	)
}

func (s *SessionUsecase) Logout(key string) model.Session {
	session, _ := s.with(
		key, func(session *model.Session) error {
			session.Reset()
			return nil
		},
	)
	return session
}

func (s *SessionUsecase) refreshBaby(ctx context.Context, session *model.Session) error {
	baby, err := s.Baby.GetBaby(ctx, session.Username)
	if err != nil {
		session.Baby = nil
		return err
	}
	session.Baby = &baby
	return nil
}

func requireBaby(session *model.Session) error {
	if !session.LoggedIn() {
		return ErrNotLoggedIn
	}
	if session.Baby == nil {
		return ErrNoBaby
	}
	return nil
}

func snapshot(session *model.Session) model.Session {
	out := *session
	out.ChatHistory = append([]model.ChatMessage(nil), session.ChatHistory...)
	if session.Baby != nil {
		baby := *session.Baby
		baby.Memory = append([]string(nil), session.Baby.Memory...)
		out.Baby = &baby
	}
	return out
}
