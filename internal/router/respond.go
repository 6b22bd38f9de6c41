package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	"github.com/mudler/xlog"
)

const (
	maxJSONBody  = 1 << 20
	maxAudioBody = 25 << 20
)

var errInvalidJSON = errors.New("invalid json")

type errorResponse struct {
	Error string     `json:"error"`
	View  model.View `json:"view,omitempty"`
}

type babyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gender    string    `json:"gender"`
	BirthDate time.Time `json:"birth_date"`
	AgeInDays int       `json:"age_in_days"`
	XP        int       `json:"xp"`
	Level     string    `json:"level"`
	Mood      string    `json:"mood"`
	Hunger    int       `json:"hunger"`
	Energy    int       `json:"energy"`
	UserOwner string    `json:"user_owner"`
	Memory    []string  `json:"memory"`
	Avatar    string    `json:"avatar_url"`
}

type chatMessageResponse struct {
	Source    string    `json:"source"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func toBabyResponse(baby model.Baby, now time.Time) babyResponse {
	memory := baby.Memory
	if memory == nil {
		memory = []string{}
	}
	return babyResponse{
		ID:        baby.ID.String(),
		Name:      baby.Name,
		Gender:    string(baby.Gender),
		BirthDate: baby.BirthDate,
		AgeInDays: baby.AgeInDays(now),
		XP:        baby.XP,
		Level:     baby.Level,
		Mood:      string(baby.Mood),
		Hunger:    baby.Hunger,
		Energy:    baby.Energy,
		UserOwner: baby.UserOwner,
		Memory:    memory,
		Avatar:    "/api/baby/avatar",
	}
}

func toChatResponse(history []model.ChatMessage) []chatMessageResponse {
	out := make([]chatMessageResponse, 0, len(history))
	for _, m := range history {
		out = append(
			out, chatMessageResponse{
				Source:    string(m.Source),
				Body:      m.Body,
				Timestamp: m.Timestamp,
			},
		)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}
	switch {
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, usecase.ErrMissingFields),
		errors.Is(err, usecase.ErrInvalidGender),
		errors.Is(err, usecase.ErrInvalidCareAction):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidCredentials), errors.Is(err, usecase.ErrNotLoggedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, usecase.ErrBabyNotFound), errors.Is(err, usecase.ErrNoBaby):
		status = http.StatusNotFound
		resp.View = model.ViewRebirth
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, model.ErrViewTransitionNotAllowed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		xlog.Error("Request failed", "error", err)
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}
