package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
)

var (
	ErrTelegramTokenRequired = errors.New("telegram is enabled but TELEGRAM_APITOKEN is empty")
	ErrUnknownStorageBackend = errors.New("unknown storage backend")
)

type OpenAI struct {
	OpenAIAPIKey       string        `yaml:"api_key" env:"OPENAI_API_KEY" env-required:"true"`
	OpenAIBaseURL      string        `yaml:"open_ai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com"`
	ChatModel          string        `yaml:"chat_model" env:"OPENAI_CHAT_MODEL" env-default:"gpt-4o-mini"`
	ModelTemperature   float32       `yaml:"model_temperature" env:"MODEL_TEMPERATURE" env-default:"0.8"`
	MaxReplyTokens     int           `yaml:"max_reply_tokens" env-default:"150"`
	HistoryTokenLimit  int           `yaml:"history_token_limit" env-default:"3500"`
	ImageModel         string        `yaml:"image_model" env:"OPENAI_IMAGE_MODEL" env-default:"dall-e-3"`
	ImageSize          string        `yaml:"image_size" env-default:"1024x1024"`
	SpeechModel        string        `yaml:"speech_model" env:"OPENAI_SPEECH_MODEL" env-default:"tts-1"`
	TranscriptionModel string        `yaml:"transcription_model" env:"OPENAI_TRANSCRIPTION_MODEL" env-default:"whisper-1"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env-default:"60s"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Storage struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"redis"`
}

type Telegram struct {
	Enabled           bool    `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"true"`
	TelegramAPIToken  string  `yaml:"api_token" env:"TELEGRAM_APITOKEN"`
	AllowedTelegramID []int64 `yaml:"allowed_telegram_id" env:"ALLOWED_TELEGRAM_ID" env-separator:","`
	IsNotPublic       bool    `yaml:"is_not_public" env:"TELEGRAM_NOT_PUBLIC" env-default:"false"`
}

type HTTP struct {
	Enabled      bool          `yaml:"enabled" env:"HTTP_ENABLED" env-default:"true"`
	Addr         string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"90s"`
}

type Baby struct {
	Language string `yaml:"language" env:"BABY_LANGUAGE" env-default:"pt"`
}

type Voice struct {
	CancelDistance float64       `yaml:"cancel_distance" env-default:"80"`
	LockDistance   float64       `yaml:"lock_distance" env-default:"60"`
	TapMaxDuration time.Duration `yaml:"tap_max_duration" env-default:"300ms"`
}

type Config struct {
	OpenAI   OpenAI   `yaml:"openai"`
	Redis    Redis    `yaml:"redis"`
	Storage  Storage  `yaml:"storage"`
	Telegram Telegram `yaml:"telegram"`
	HTTP     HTTP     `yaml:"http"`
	Baby     Baby     `yaml:"baby"`
	Voice    Voice    `yaml:"voice"`
}

// LoadConfig reads the YAML file at cfgPath, if any, and then applies environment overrides.
func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Enabled && strings.TrimSpace(c.Telegram.TelegramAPIToken) == "" {
		return ErrTelegramTokenRequired
	}
	switch c.Storage.Backend {
	case StorageBackendRedis, StorageBackendMemory:
	default:
		return fmt.Errorf("%q: %w", c.Storage.Backend, ErrUnknownStorageBackend)
	}
	return nil
}
