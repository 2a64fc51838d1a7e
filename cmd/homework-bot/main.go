package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"homework-bot/internal/adapters/practicum"
	"homework-bot/internal/adapters/repo"
	"homework-bot/internal/adapters/telegram"
	"homework-bot/internal/domain"
	"homework-bot/internal/infra/cache"
	"homework-bot/internal/infra/config"
	"homework-bot/internal/infra/db"
	apphttp "homework-bot/internal/infra/http"
	applog "homework-bot/internal/infra/log"
	"homework-bot/internal/infra/metrics"
	"homework-bot/internal/infra/queue"
	"homework-bot/internal/usecase/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := applog.NewLogger(applog.Options{AppEnv: os.Getenv("APP_ENV"), Format: os.Getenv("LOG_FORMAT"), Escalation: os.Stderr})
		var missing *config.MissingError
		if errors.As(err, &missing) {
			logger.WithLevel(zerolog.FatalLevel).Str("var", missing.Var).Msg(missing.Error())
		} else {
			logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("не удалось загрузить конфиг")
		}
		os.Exit(1)
	}
	logger := applog.NewLogger(applog.Options{AppEnv: cfg.AppEnv, Format: cfg.LogFormat, Escalation: os.Stderr})

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	fetcher, err := practicum.New(cfg.PracticumEndpoint, cfg.PracticumToken, practicum.WithHTTPClient(httpClient))
	if err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("некорректный адрес API Практикума")
		os.Exit(1)
	}

	bot := telegram.NewBot(cfg.TelegramToken, "", httpClient)
	notifier, err := telegram.NewNotifier(bot, cfg.TelegramChatID, logger.With().Str("component", "telegram").Logger())
	if err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Str("var", "TELEGRAM_CHAT_ID").Msg("некорректный идентификатор чата")
		os.Exit(1)
	}

	var (
		opts    []watch.Option
		history domain.StatusHistory
	)

	if cfg.PGDSN != "" {
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error().Err(err).Msg("история в Postgres отключена: нет подключения к БД")
		} else {
			defer pool.Close()
			pg := repo.NewPostgres(pool)
			if err := pg.EnsureSchema(ctx); err != nil {
				logger.Error().Err(err).Msg("история в Postgres отключена: не удалось создать таблицу")
			} else {
				opts = append(opts, watch.WithJournal("postgres", pg))
				history = pg
			}
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Error().Err(err).Msg("лента в Redis отключена: нет подключения")
		} else {
			defer client.Close()
			feed := queue.NewRedisStatusFeed(client, cfg.Redis.FeedKey, cfg.Redis.FeedLimit)
			opts = append(opts, watch.WithJournal("redis", feed))
			if history == nil {
				history = feed
			}
		}
	}

	if cfg.Rabbit.URL != "" {
		publisher, err := queue.NewRabbitStatusPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			logger.Error().Err(err).Msg("события в RabbitMQ отключены: нет подключения")
		} else {
			defer publisher.Close()
			opts = append(opts, watch.WithJournal("rabbitmq", publisher))
		}
	}

	service := watch.NewService(fetcher, notifier, logger.With().Str("component", "watch").Logger(), cfg.RetryPeriod, opts...)

	if cfg.HTTPAddr != "" {
		server := apphttp.NewServer(
			logger.With().Str("component", "http").Logger(),
			prometheus.DefaultGatherer,
			func() any { return service.Snapshot() },
			history,
		)
		server.Start(ctx, cfg.HTTPAddr)
	}

	service.Run(ctx, watch.InitialState(time.Now()))
	logger.Info().Msg("бот остановлен")
}
