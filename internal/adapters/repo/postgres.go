package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homework-bot/internal/domain"
	"homework-bot/internal/infra/metrics"
)

// Postgres хранит историю изменений статусов на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.StatusJournal = (*Postgres)(nil)
	_ domain.StatusHistory = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS homework_status_history (
    id               TEXT PRIMARY KEY,
    homework_id      BIGINT NOT NULL DEFAULT 0,
    homework_name    TEXT NOT NULL,
    lesson_name      TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL,
    previous_status  TEXT NOT NULL DEFAULT '',
    reviewer_comment TEXT NOT NULL DEFAULT '',
    message          TEXT NOT NULL,
    cursor_date      BIGINT NOT NULL,
    observed_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS homework_status_history_observed_idx
    ON homework_status_history (observed_at DESC);
`

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицу истории, если её нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, schema)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "homework_status_history", start, err)
	return err
}

// Record сохраняет изменение статуса. Повторная запись с тем же id игнорируется.
func (p *Postgres) Record(ctx context.Context, change domain.StatusChange) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO homework_status_history
    (id, homework_id, homework_name, lesson_name, status, previous_status, reviewer_comment, message, cursor_date, observed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`, change.ID, change.HomeworkID, change.Homework, change.LessonName, string(change.Status), string(change.PreviousStatus),
		change.ReviewerComment, change.Message, change.Cursor, change.ObservedAt)
	metrics.ObserveNetworkRequest("postgres", "status_history_insert", "homework_status_history", start, err)
	return err
}

// Recent возвращает последние изменения, новые первыми.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]domain.StatusChange, error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, homework_id, homework_name, lesson_name, status, previous_status, reviewer_comment, message, cursor_date, observed_at
FROM homework_status_history
ORDER BY observed_at DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "status_history_select", "homework_status_history", start, err)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StatusChange, error) {
		var (
			c                domain.StatusChange
			status, previous string
		)
		err := row.Scan(&c.ID, &c.HomeworkID, &c.Homework, &c.LessonName, &status, &previous,
			&c.ReviewerComment, &c.Message, &c.Cursor, &c.ObservedAt)
		c.Status = domain.Status(status)
		c.PreviousStatus = domain.Status(previous)
		return c, err
	})
}
