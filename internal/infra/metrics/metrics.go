package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homework_poll_cycles_total",
		Help: "Циклы опроса API по результату",
	}, []string{"outcome"})
	PollCursor = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "homework_poll_cursor_seconds",
		Help: "Текущее значение from_date",
	})
	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "homework_notifications_total",
		Help: "Попытки отправки уведомлений в чат",
	}, []string{"kind", "status"})
	BotSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})
	JournalErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "status_journal_errors_total",
		Help: "Ошибки записи изменений статусов",
	}, []string{"journal"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PollCycles,
		PollCursor,
		NotificationsSent,
		BotSendErrors,
		JournalErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveCycle учитывает результат цикла опроса.
func ObserveCycle(outcome string, cursor int64) {
	PollCycles.WithLabelValues(outcome).Inc()
	PollCursor.Set(float64(cursor))
}

// ObserveNotification учитывает попытку отправки уведомления.
func ObserveNotification(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	NotificationsSent.WithLabelValues(kind, status).Inc()
}
