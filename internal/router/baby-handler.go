package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iamvkosarev/ai-baby-bot/internal/avatar"
	"github.com/iamvkosarev/ai-baby-bot/internal/middleware"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
)

const formatPNG = "png"

type handler struct {
	sessions *usecase.SessionUsecase
	baby     *usecase.BabyUsecase
	controls *voiceControls
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BabyName string `json:"baby_name"`
	Gender   string `json:"gender"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply   string                `json:"reply"`
	History []chatMessageResponse `json:"history"`
	Baby    babyResponse          `json:"baby"`
}

type teachRequest struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

type teachResponse struct {
	Reply    string       `json:"reply"`
	Score    int          `json:"score"`
	XPGained int          `json:"xp_gained"`
	Memory   string       `json:"memory,omitempty"`
	Baby     babyResponse `json:"baby"`
}

type careRequest struct {
	Action string `json:"action"`
}

type careResponse struct {
	Reaction string       `json:"reaction"`
	Baby     babyResponse `json:"baby"`
}

type rebirthRequest struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

type speechRequest struct {
	Text string `json:"text"`
}

type localUtteranceResponse struct {
	Text  string  `json:"text"`
	Lang  string  `json:"lang"`
	Pitch float64 `json:"pitch"`
	Rate  float64 `json:"rate"`
}

type speechFallbackResponse struct {
	Fallback localUtteranceResponse `json:"fallback"`
}

func parseGender(s string) (model.Gender, error) {
	if s == "" {
		return "", usecase.ErrMissingFields
	}
	gender, ok := model.ParseGender(s)
	if !ok {
		return "", usecase.ErrInvalidGender
	}
	return gender, nil
}

// session authenticates the request against its web session.
func (h *handler) session(w http.ResponseWriter, r *http.Request) (string, model.Session, bool) {
	creds, ok := middleware.GetCredentials(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="ai-baby"`)
		writeError(w, usecase.ErrNotLoggedIn)
		return "", model.Session{}, false
	}
	key := usecase.WebSessionKey(creds.Username)
	session, err := h.sessions.Authenticate(r.Context(), key, creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrMissingFields) {
			err = usecase.ErrInvalidCredentials
		}
		writeError(w, err)
		return "", model.Session{}, false
	}
	return key, session, true
}

func (h *handler) sessionWithBaby(w http.ResponseWriter, r *http.Request) (string, model.Session, bool) {
	key, session, ok := h.session(w, r)
	if !ok {
		return "", model.Session{}, false
	}
	if session.Baby == nil {
		writeError(w, usecase.ErrBabyNotFound)
		return "", model.Session{}, false
	}
	return key, session, true
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	gender, err := parseGender(req.Gender)
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := h.sessions.Signup(
		r.Context(), usecase.WebSessionKey(req.Username), req.Username, req.Password, req.BabyName, gender,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBabyResponse(*session.Baby, time.Now()))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.GetCredentials(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="ai-baby"`)
		writeError(w, usecase.ErrNotLoggedIn)
		return
	}
	session, err := h.sessions.Login(
		r.Context(), usecase.WebSessionKey(creds.Username), creds.Username, creds.Password,
	)
	if err != nil {
		if errors.Is(err, usecase.ErrMissingFields) {
			err = usecase.ErrInvalidCredentials
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBabyResponse(*session.Baby, time.Now()))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sessions.Logout(key)
	h.controls.drop(key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getBaby(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBabyResponse(*session.Baby, time.Now()))
}

func (h *handler) getAvatar(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	baby := session.Baby
	if remote, ok := avatar.RemoteURL(baby.AvatarImage); ok {
		http.Redirect(w, r, remote, http.StatusFound)
		return
	}

	var (
		mimeType string
		data     []byte
		err      error
	)
	if r.URL.Query().Get("format") == formatPNG {
		mimeType, data, err = avatar.Raster(baby.AvatarImage, baby.Name, baby.Gender)
	} else {
		mimeType, data, err = avatar.ParseDataURI(baby.AvatarImage)
		if err != nil {
			mimeType, data = avatar.MimeSVG, []byte(avatar.SVG(baby.Name, baby.Gender))
			err = nil
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) getChat(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(session.ChatHistory))
}

func (h *handler) sendChat(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	reply, session, err := h.sessions.SendChatMessage(r.Context(), key, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(
		w, http.StatusOK, chatResponse{
			Reply:   reply,
			History: toChatResponse(session.ChatHistory),
			Baby:    toBabyResponse(*session.Baby, time.Now()),
		},
	)
}

func (h *handler) clearChat(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	h.sessions.ClearChat(key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) teach(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	var req teachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	evaluation, session, err := h.sessions.Teach(r.Context(), key, req.Topic, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(
		w, http.StatusOK, teachResponse{
			Reply:    evaluation.Reply,
			Score:    evaluation.Score,
			XPGained: evaluation.XPGained,
			Memory:   evaluation.Memory,
			Baby:     toBabyResponse(*session.Baby, time.Now()),
		},
	)
}

func (h *handler) care(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	var req careRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	reaction, session, err := h.sessions.Care(r.Context(), key, model.CareAction(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(
		w, http.StatusOK, careResponse{
			Reaction: reaction,
			Baby:     toBabyResponse(*session.Baby, time.Now()),
		},
	)
}

func (h *handler) rebirth(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req rebirthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	gender, err := parseGender(req.Gender)
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := h.sessions.Rebirth(r.Context(), key, req.Name, gender)
	if err != nil {
		writeError(w, err)
		return
	}
	h.controls.drop(key)
	writeJSON(w, http.StatusCreated, toBabyResponse(*session.Baby, time.Now()))
}

func (h *handler) speech(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.sessionWithBaby(w, r)
	if !ok {
		return
	}
	var req speechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Text == "" {
		writeError(w, usecase.ErrMissingFields)
		return
	}

	speech := h.baby.Speak(r.Context(), req.Text, session.Baby.Gender)
	if speech.Fallback != nil {
		writeJSON(
			w, http.StatusOK, speechFallbackResponse{
				Fallback: localUtteranceResponse{
					Text:  speech.Fallback.Text,
					Lang:  speech.Fallback.Lang,
					Pitch: speech.Fallback.Pitch,
					Rate:  speech.Fallback.Rate,
				},
			},
		)
		return
	}
	w.Header().Set("Content-Type", speech.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(speech.Audio)))
	w.Header().Set("X-Audio-Duration-Ms", strconv.FormatInt(speech.Duration.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(speech.Audio)
}
