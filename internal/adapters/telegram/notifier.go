package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"homework-bot/internal/domain"
	"homework-bot/internal/infra/metrics"
)

// Sender — часть tgbotapi.BotAPI, нужная для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot создаёт клиента Bot API без запроса getMe, чтобы запуск не зависел от доступности Telegram.
// Пустой endpoint заменяется tgbotapi.APIEndpoint.
func NewBot(token, endpoint string, client *http.Client) *tgbotapi.BotAPI {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: client,
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return bot
}

// Notifier отправляет уведомления в один чат.
type Notifier struct {
	bot      Sender
	chatID   int64
	username string
	log      zerolog.Logger
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier создаёт уведомитель. chat — числовой идентификатор или @username канала.
func NewNotifier(bot Sender, chat string, log zerolog.Logger) (*Notifier, error) {
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return nil, errors.New("chat id is required")
	}
	n := &Notifier{bot: bot, log: log}
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		n.chatID = id
	} else if strings.HasPrefix(chat, "@") {
		n.username = chat
	} else {
		return nil, fmt.Errorf("invalid chat id %q", chat)
	}
	return n, nil
}

// Notify отправляет текст. Ошибка доставки логируется один раз и возвращается как *domain.DeliveryError.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return &domain.DeliveryError{Err: err}
	}
	for _, part := range splitText(text, messageLimit) {
		start := time.Now()
		_, err := n.bot.Send(n.message(part))
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", n.target(), start, err)
		if err != nil {
			metrics.BotSendErrors.Inc()
			event := n.log.Warn().Err(err).Str("chat", n.target())
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) {
				event = event.Int("code", apiErr.Code)
				if apiErr.RetryAfter > 0 {
					event = event.Int("retry_after", apiErr.RetryAfter)
				}
			}
			event.Msg("не удалось отправить сообщение в Telegram")
			return &domain.DeliveryError{Err: err}
		}
	}
	n.log.Debug().Str("chat", n.target()).Msg("сообщение отправлено в Telegram")
	return nil
}

func (n *Notifier) message(text string) tgbotapi.MessageConfig {
	if n.username != "" {
		return tgbotapi.NewMessageToChannel(n.username, text)
	}
	return tgbotapi.NewMessage(n.chatID, text)
}

func (n *Notifier) target() string {
	if n.username != "" {
		return n.username
	}
	return strconv.FormatInt(n.chatID, 10)
}
