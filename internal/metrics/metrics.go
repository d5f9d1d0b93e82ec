// Package metrics содержит prometheus-коллекторы бота.
// Все коллекторы регистрируются в реестре по умолчанию и отдаются через /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "consultation_bot"

var (
	// SlotTransitions считает условные переходы статуса слота по результату
	SlotTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_transitions_total",
			Help:      "Conditional slot status transitions by target status and outcome.",
		},
		[]string{"to", "outcome"},
	)

	// CacheLookups считает обращения к кэшу расписания
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_cache_lookups_total",
			Help:      "Schedule cache lookups by backend and result.",
		},
		[]string{"backend", "result"},
	)

	// StoreRequestDuration - длительность запросов к хранилищу таблиц
	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_request_duration_seconds",
			Help:      "Duration of tabular store requests in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "op", "status"},
	)

	// DialogEvents считает входящие события диалога
	DialogEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_events_total",
			Help:      "Inbound dialog events by kind.",
		},
		[]string{"kind"},
	)

	// Notifications считает уведомления оператору
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Operator notifications by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// ActiveSessions - количество незавершённых диалогов
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of dialogs with an active state.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SlotTransitions,
		CacheLookups,
		StoreRequestDuration,
		DialogEvents,
		Notifications,
		ActiveSessions,
	)
}

// ObserveStore записывает длительность запроса к хранилищу
func ObserveStore(backend, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreRequestDuration.WithLabelValues(backend, op, status).Observe(time.Since(start).Seconds())
}
