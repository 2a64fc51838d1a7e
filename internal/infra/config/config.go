package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv    string `envconfig:"APP_ENV" default:"dev"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	PracticumToken    string `envconfig:"PRACTICUM_TOKEN"`
	PracticumEndpoint string `envconfig:"PRACTICUM_ENDPOINT" default:"https://practicum.yandex.ru/api/user_api/homework_statuses/"`

	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`

	RetryPeriod time.Duration `envconfig:"RETRY_PERIOD" default:"10m"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	Redis struct {
		Addr      string `envconfig:"REDIS_ADDR"`
		FeedKey   string `envconfig:"STATUS_FEED_KEY" default:"homework_status_events"`
		FeedLimit int64  `envconfig:"STATUS_FEED_LIMIT" default:"100"`
	} `envconfig:""`

	Rabbit struct {
		URL   string `envconfig:"RABBITMQ_URL"`
		Queue string `envconfig:"STATUS_EVENTS_QUEUE" default:"homework_status_events"`
	} `envconfig:""`
}

// MissingError — обязательная переменная окружения не задана или пуста.
type MissingError struct {
	Var string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s не найдена или пуста", e.Var)
}

// Load загружает конфиг из .env (если есть) и окружения и проверяет обязательные значения.
func Load() (AppConfig, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("чтение %s: %w", envFile, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("разбор окружения: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate проверяет, что все токены заданы.
func (c AppConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"PRACTICUM_TOKEN", c.PracticumToken},
		{"TELEGRAM_TOKEN", c.TelegramToken},
		{"TELEGRAM_CHAT_ID", c.TelegramChatID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &MissingError{Var: r.name}
		}
	}
	if c.RetryPeriod <= 0 {
		return fmt.Errorf("RETRY_PERIOD должен быть положительным, получено %s", c.RetryPeriod)
	}
	return nil
}
