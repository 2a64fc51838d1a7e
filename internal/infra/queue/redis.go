package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"homework-bot/internal/domain"
	"homework-bot/internal/infra/metrics"
)

// RedisStatusFeed хранит последние изменения статусов в ограниченном списке Redis.
type RedisStatusFeed struct {
	client *redis.Client
	key    string
	limit  int64
}

var (
	_ domain.StatusJournal = (*RedisStatusFeed)(nil)
	_ domain.StatusHistory = (*RedisStatusFeed)(nil)
)

// NewRedisStatusFeed создаёт ленту по ключу key, хранящую не более limit записей.
func NewRedisStatusFeed(client *redis.Client, key string, limit int64) *RedisStatusFeed {
	if limit <= 0 {
		limit = 100
	}
	return &RedisStatusFeed{client: client, key: key, limit: limit}
}

// Record добавляет изменение в начало списка и обрезает хвост.
func (f *RedisStatusFeed) Record(ctx context.Context, change domain.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	start := time.Now()
	_, err = f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, f.key, payload)
		pipe.LTrim(ctx, f.key, 0, f.limit-1)
		return nil
	})
	metrics.ObserveNetworkRequest("redis", "lpush", f.key, start, err)
	if err != nil {
		return fmt.Errorf("push change: %w", err)
	}
	return nil
}

// Recent возвращает до limit последних изменений.
func (f *RedisStatusFeed) Recent(ctx context.Context, limit int) ([]domain.StatusChange, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	items, err := f.client.LRange(ctx, f.key, 0, int64(limit)-1).Result()
	metrics.ObserveNetworkRequest("redis", "lrange", f.key, start, err)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	changes := make([]domain.StatusChange, 0, len(items))
	for _, item := range items {
		var change domain.StatusChange
		if err := json.Unmarshal([]byte(item), &change); err != nil {
			return nil, fmt.Errorf("decode change: %w", err)
		}
		changes = append(changes, change)
	}
	return changes, nil
}
