package domain

import (
	"context"
	"time"
)

// StatusFetcher запрашивает изменения статусов начиная с метки времени.
type StatusFetcher interface {
	Fetch(ctx context.Context, from int64) ([]byte, error)
}

// Notifier доставляет текст в чат пользователя.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// StatusChange — обнаруженное изменение статуса проверки.
type StatusChange struct {
	ID              string    `json:"id"`
	HomeworkID      int64     `json:"homework_id,omitempty"`
	Homework        string    `json:"homework_name"`
	LessonName      string    `json:"lesson_name,omitempty"`
	Status          Status    `json:"status"`
	PreviousStatus  Status    `json:"previous_status,omitempty"`
	ReviewerComment string    `json:"reviewer_comment,omitempty"`
	Message         string    `json:"message"`
	Cursor          int64     `json:"cursor"`
	ObservedAt      time.Time `json:"observed_at"`
}

// StatusJournal фиксирует изменения статусов во внешнем хранилище.
type StatusJournal interface {
	Record(ctx context.Context, change StatusChange) error
}

// StatusHistory возвращает последние изменения статусов, новые первыми.
type StatusHistory interface {
	Recent(ctx context.Context, limit int) ([]StatusChange, error)
}
