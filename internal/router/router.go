package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/iamvkosarev/ai-baby-bot/internal/middleware"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	"github.com/iamvkosarev/ai-baby-bot/internal/voice"
)

type Options struct {
	Sessions *usecase.SessionUsecase
	Baby     *usecase.BabyUsecase
	// Voice configures the push-to-talk gesture; zero values fall back to defaults.
	Voice voice.Thresholds
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext)

	r.Get(
		"/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	)

	thresholds := opts.Voice
	if thresholds == (voice.Thresholds{}) {
		thresholds = voice.DefaultThresholds()
	}
	h := &handler{
		sessions: opts.Sessions,
		baby:     opts.Baby,
		controls: newVoiceControls(opts.Baby, thresholds),
	}

	r.Route(
		"/api", func(api chi.Router) {
			api.Post("/signup", h.signup)
			api.Post("/login", h.login)
			api.Post("/logout", h.logout)

			api.Route(
				"/baby", func(br chi.Router) {
					br.Get("/", h.getBaby)
					br.Get("/avatar", h.getAvatar)
					br.Get("/chat", h.getChat)
					br.Post("/chat", h.sendChat)
					br.Delete("/chat", h.clearChat)
					br.Post("/teach", h.teach)
					br.Post("/care", h.care)
					br.Post("/rebirth", h.rebirth)
					br.Post("/speech", h.speech)
				},
			)

			api.Route(
				"/voice", func(vr chi.Router) {
					vr.Post("/events", h.event)
					vr.Post("/audio", h.audio)
					vr.Post("/transcribe", h.transcribe)
				},
			)
		},
	)

	return r
}
