package model

import "fmt"

// FormStep is the field a wizard is currently waiting for.
type FormStep string

const (
	StepNone      = FormStep("")
	StepUsername  = FormStep("username")
	StepPassword  = FormStep("password")
	StepBabyName  = FormStep("baby_name")
	StepGender    = FormStep("gender")
	StepTopic     = FormStep("topic")
	StepContent   = FormStep("content")
	StepChatInput = FormStep("chat_input")
)

type Form struct {
	Username string
	Password string
	BabyName string
	Gender   Gender
	Topic    string
	Content  string
}

type Session struct {
	Key         string
	View        View
	Step        FormStep
	Username    string
	Baby        *Baby
	Form        Form
	ChatHistory []ChatMessage
}

func NewSession(key string) *Session {
	return &Session{
		Key:         key,
		View:        ViewLogin,
		Step:        StepUsername,
		ChatHistory: make([]ChatMessage, 0),
	}
}

func (s *Session) LoggedIn() bool {
	return s.Username != ""
}

func (s *Session) GoTo(next View) error {
	if !s.View.CanGoTo(next) {
		return fmt.Errorf("%s -> %s: %w", s.View, next, ErrViewTransitionNotAllowed)
	}
	if next.RequiresBaby() && (!s.LoggedIn() || s.Baby == nil) {
		return fmt.Errorf("%s -> %s without baby: %w", s.View, next, ErrViewTransitionNotAllowed)
	}
	if next == ViewRebirth && !s.LoggedIn() {
		return fmt.Errorf("%s -> %s without user: %w", s.View, next, ErrViewTransitionNotAllowed)
	}
	s.View = next
	s.Step = firstStep(next)
	return nil
}

func (s *Session) Reset() {
	*s = *NewSession(s.Key)
}

func firstStep(v View) FormStep {
	switch v {
	case ViewLogin, ViewSignup:
		return StepUsername
	case ViewTeach:
		return StepTopic
	case ViewChat:
		return StepChatInput
	case ViewRebirth:
		return StepBabyName
	default:
		return StepNone
	}
}
