package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"homework-bot/internal/domain"
	"homework-bot/internal/infra/metrics"
)

// Snapshot — состояние последнего цикла для страницы /healthz.
type Snapshot struct {
	Cursor       int64     `json:"cursor"`
	LastHomework string    `json:"last_homework,omitempty"`
	LastStatus   string    `json:"last_status,omitempty"`
	LastCycleAt  time.Time `json:"last_cycle_at,omitempty"`
	LastOutcome  string    `json:"last_outcome,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	Cycles       int64     `json:"cycles"`
}

// Service опрашивает API и уведомляет чат об изменениях статусов.
type Service struct {
	fetcher  domain.StatusFetcher
	notifier domain.Notifier
	journals map[string]domain.StatusJournal
	log      zerolog.Logger
	period   time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

type Option func(*Service)

// WithJournal добавляет хранилище изменений статусов под именем name.
func WithJournal(name string, journal domain.StatusJournal) Option {
	return func(s *Service) {
		if journal != nil {
			s.journals[name] = journal
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт сервис опроса.
func NewService(fetcher domain.StatusFetcher, notifier domain.Notifier, log zerolog.Logger, period time.Duration, opts ...Option) *Service {
	s := &Service{
		fetcher:  fetcher,
		notifier: notifier,
		journals: make(map[string]domain.StatusJournal),
		log:      log,
		period:   period,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run выполняет циклы опроса до отмены ctx, засыпая на period после каждого цикла.
func (s *Service) Run(ctx context.Context, state State) State {
	s.log.Info().Int64("from_date", state.Cursor).Dur("period", s.period).Msg("запуск опроса API")
	for {
		state = s.RunCycle(ctx, state)
		select {
		case <-ctx.Done():
			s.log.Info().Int64("from_date", state.Cursor).Msg("опрос API остановлен")
			return state
		case <-time.After(s.period):
		}
	}
}

// RunCycle выполняет один цикл: запрос, переход состояния, уведомление.
// Паника внутри цикла логируется и сообщается в чат, состояние при этом не меняется.
func (s *Service) RunCycle(ctx context.Context, state State) (next State) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			s.log.Error().Err(err).Msg("сбой в работе программы")
			s.report(ctx, fmt.Sprintf("Сбой в работе программы: %v", r))
			s.publish(state, OutcomeFailed.String(), err)
			next = state
		}
	}()

	body, err := s.fetcher.Fetch(ctx, state.Cursor)
	if ctx.Err() != nil {
		return state
	}
	advanced, outcome := Advance(state, Poll{Body: body, Err: err})

	switch outcome.Kind {
	case OutcomeFailed:
		s.logFailure(outcome)
		s.report(ctx, outcome.Err.Error())
	case OutcomeChanged:
		s.log.Info().
			Str("homework", outcome.Homework.Name).
			Str("status", string(outcome.Homework.Status)).
			Str("previous", string(outcome.Previous)).
			Msg("статус проверки изменился")
		sendErr := s.notifier.Notify(ctx, outcome.Message)
		metrics.ObserveNotification("status", sendErr)
		s.record(ctx, advanced, outcome)
	default:
		s.log.Debug().Msg("новых статусов нет")
	}

	if advanced.Cursor != state.Cursor {
		s.log.Debug().Int64("from", state.Cursor).Int64("to", advanced.Cursor).Msg("курсор сдвинут")
	}
	metrics.ObserveCycle(outcome.Kind.String(), advanced.Cursor)
	s.publish(advanced, outcome.Kind.String(), outcome.Err)
	return advanced
}

// Snapshot возвращает состояние последнего цикла.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Service) logFailure(outcome Outcome) {
	event := s.log.Error().Err(outcome.Err)
	var (
		reqErr   *domain.RequestError
		shapeErr *domain.ShapeError
		semErr   *domain.SemanticError
	)
	switch {
	case errors.As(outcome.Err, &reqErr):
		event.Int("status_code", reqErr.StatusCode).Msg("ошибка запроса к API")
	case errors.As(outcome.Err, &shapeErr):
		event.Int("reason", int(shapeErr.Reason)).Msg("ответ API не соответствует ожиданиям")
	case errors.As(outcome.Err, &semErr):
		event.Str("homework", semErr.Homework).Msg("некорректная запись о домашней работе")
	default:
		event.Msg("сбой в работе программы")
	}
}

// report отправляет текст ошибки в чат. Ошибку доставки логирует сам уведомитель.
func (s *Service) report(ctx context.Context, text string) {
	err := s.notifier.Notify(ctx, text)
	metrics.ObserveNotification("error", err)
}

func (s *Service) record(ctx context.Context, state State, outcome Outcome) {
	if len(s.journals) == 0 {
		return
	}
	change := domain.StatusChange{
		ID:              uuid.NewString(),
		HomeworkID:      outcome.Homework.ID,
		Homework:        outcome.Homework.Name,
		LessonName:      outcome.Homework.LessonName,
		Status:          outcome.Homework.Status,
		PreviousStatus:  outcome.Previous,
		ReviewerComment: outcome.Homework.ReviewerComment,
		Message:         outcome.Message,
		Cursor:          state.Cursor,
		ObservedAt:      s.now().UTC(),
	}
	for name, journal := range s.journals {
		if err := journal.Record(ctx, change); err != nil {
			metrics.JournalErrors.WithLabelValues(name).Inc()
			s.log.Warn().Err(err).Str("journal", name).Msg("не удалось сохранить изменение статуса")
		}
	}
}

func (s *Service) publish(state State, outcome string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Cursor = state.Cursor
	s.snapshot.LastHomework = state.LastHomework
	s.snapshot.LastStatus = string(state.LastStatus)
	s.snapshot.LastCycleAt = s.now().UTC()
	s.snapshot.LastOutcome = outcome
	s.snapshot.LastError = ""
	if err != nil {
		s.snapshot.LastError = err.Error()
	}
	s.snapshot.Cycles++
}
