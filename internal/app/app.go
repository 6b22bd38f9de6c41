package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/ai-baby-bot/config"
	in_memory "github.com/iamvkosarev/ai-baby-bot/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/ai-baby-bot/internal/storage/key-value"
	"github.com/iamvkosarev/ai-baby-bot/internal/router"
	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	"github.com/iamvkosarev/ai-baby-bot/internal/voice"
	"github.com/iamvkosarev/ai-baby-bot/pkg/local"
	"github.com/mudler/xlog"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
)

var ErrNoTransport = errors.New("neither http nor telegram is enabled")

// Run wires the application and blocks until ctx is cancelled or a transport fails.
func Run(ctx context.Context, cfg *config.Config) error {
	if !cfg.HTTP.Enabled && !cfg.Telegram.Enabled {
		return ErrNoTransport
	}

	baseURL, err := url.JoinPath(cfg.OpenAI.OpenAIBaseURL, "/v1")
	if err != nil {
		return err
	}
	cfg.OpenAI.OpenAIBaseURL = baseURL
	language := local.ParseLanguage(cfg.Baby.Language)

	var (
		userStorage usecase.UserStorage
		babyStorage usecase.BabyStorage
	)
	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		userStorage = in_memory.NewUserStorage()
		babyStorage = in_memory.NewBabyStorage()
		xlog.Warn("Using in-memory storage, data is lost on restart")
	default:
		rdb := redis.NewClient(
			&redis.Options{
				Addr:     cfg.Redis.Endpoint,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			},
		)
		defer rdb.Close()
		if err = rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		userStorage = key_value.NewUserStorage(rdb)
		babyStorage = key_value.NewBabyStorage(rdb)
	}

	openAIUsecase := usecase.NewOpenAIUsecase(usecase.NewOpenAIClient(cfg.OpenAI), cfg.OpenAI, language)

	userUsecase := usecase.NewUserUsecase(
		usecase.UserUsecaseDeps{
			UserStorage: userStorage,
		},
	)

	babyUsecase := usecase.NewBabyUsecase(
		usecase.BabyUsecaseDeps{
			BabyStorage: babyStorage,
			User:        userUsecase,
			AI:          openAIUsecase,
		}, language,
	)

	sessionUsecase := usecase.NewSessionUsecase(
		usecase.SessionUsecaseDeps{
			Baby: babyUsecase,
		},
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var server *http.Server
	if cfg.HTTP.Enabled {
		server = &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: router.NewRouter(
				router.Options{
					Sessions: sessionUsecase,
					Baby:     babyUsecase,
					Voice: voice.Thresholds{
						CancelDistance: cfg.Voice.CancelDistance,
						LockDistance:   cfg.Voice.LockDistance,
						TapMaxDuration: cfg.Voice.TapMaxDuration,
					},
				},
			),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
	}

	var telegramUsecase *usecase.TelegramUsecase
	if cfg.Telegram.Enabled {
		bot, err := api.NewBotAPI(cfg.Telegram.TelegramAPIToken)
		if err != nil {
			return fmt.Errorf("failed to create new bot: %w", err)
		}
		xlog.Info("Authorized on telegram", "account", bot.Self.UserName)

		telegramUsecase, err = usecase.NewTelegramUsecase(
			cfg.Telegram, language, usecase.TelegramUsecaseDeps{
				Sessions: sessionUsecase,
				Baby:     babyUsecase,
				Bot:      bot,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to create telegram usecase: %w", err)
		}
	}

	errs := make(chan error, 2)
	wg := conc.NewWaitGroup()
	if server != nil {
		wg.Go(
			func() {
				xlog.Info("HTTP server listening", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errs <- fmt.Errorf("http server: %w", err)
					cancel()
				}
			},
		)
		wg.Go(
			func() {
				<-ctx.Done()
				if err := server.Shutdown(context.Background()); err != nil {
					xlog.Error("Failed to shut down http server", "error", err)
				}
			},
		)
	}
	if telegramUsecase != nil {
		wg.Go(
			func() {
				if err := telegramUsecase.Run(ctx); err != nil {
					errs <- fmt.Errorf("telegram: %w", err)
					cancel()
				}
			},
		)
	}
	wg.Wait()
	close(errs)

	xlog.Info("AI baby stopped")
	return <-errs
}
