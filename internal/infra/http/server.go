package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"homework-bot/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// SnapshotFunc возвращает текущее состояние опроса.
type SnapshotFunc func() any

// Server оборачивает chi.Router с базовыми middlewares.
type Server struct {
	Router  chi.Router
	log     zerolog.Logger
	history domain.StatusHistory
}

// NewServer создаёт HTTP сервер со страницами /healthz, /metrics и /history.
// history может быть nil — тогда /history отвечает 404.
func NewServer(logger zerolog.Logger, gatherer prometheus.Gatherer, snapshot SnapshotFunc, history domain.StatusHistory) *Server {
	s := &Server{log: logger, history: history}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, snapshot())
	})
	if history != nil {
		r.Get("/history", s.handleHistory)
	}
	s.Router = r
	return s
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit должен быть положительным числом"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	changes, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("не удалось получить историю статусов")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "история недоступна"})
		return
	}
	if changes == nil {
		changes = []domain.StatusChange{}
	}
	writeJSON(w, http.StatusOK, changes)
}

// Start запускает http.Server и останавливает его при отмене ctx.
func (s *Server) Start(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("http: graceful shutdown failed")
		}
	}()

	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
