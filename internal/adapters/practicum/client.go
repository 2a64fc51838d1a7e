package practicum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homework-bot/internal/domain"
	"homework-bot/internal/infra/metrics"
)

// DefaultEndpoint — адрес API статусов домашних работ.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

const maxBodySize = 4 << 20

// Client опрашивает API статусов домашних работ.
type Client struct {
	endpoint   *url.URL
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// New создаёт клиента. Пустой endpoint заменяется DefaultEndpoint.
func New(endpoint, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("token is required")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("endpoint must be absolute: %q", endpoint)
	}
	client := &Client{
		endpoint:   parsed,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

var _ domain.StatusFetcher = (*Client)(nil)

// Fetch запрашивает изменения статусов начиная с from и возвращает тело ответа.
// Структура тела не проверяется.
func (c *Client) Fetch(ctx context.Context, from int64) ([]byte, error) {
	resolved := *c.endpoint
	query := resolved.Query()
	query.Set("from_date", strconv.FormatInt(from, 10))
	resolved.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("practicum", "homework_statuses", c.endpoint.Host, start, err)
	if err != nil {
		return nil, &domain.RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &domain.RequestError{Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	return nil, mapAPIError(resp.StatusCode, body)
}

type badRequestBody struct {
	Error struct {
		Error string `json:"error"`
	} `json:"error"`
}

type unauthorizedBody struct {
	Message string `json:"message"`
}

func mapAPIError(status int, body []byte) error {
	message := ""
	switch status {
	case http.StatusBadRequest:
		var payload badRequestBody
		if json.Unmarshal(body, &payload) == nil {
			message = payload.Error.Error
		}
	case http.StatusUnauthorized:
		var payload unauthorizedBody
		if json.Unmarshal(body, &payload) == nil {
			message = payload.Message
		}
	}
	if strings.TrimSpace(message) == "" {
		message = domain.GenericRequestMessage
	}
	return &domain.RequestError{StatusCode: status, Message: message}
}
