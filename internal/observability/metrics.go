package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_alert"

// Metrics содержит счётчики и гистограммы сервиса. Методы безопасны для nil-получателя,
// поэтому в юнит-тестах метрики можно не передавать.
type Metrics struct {
	ReportsSubmitted      *prometheus.CounterVec // labels: channel={web,sms}
	Escalations           *prometheus.CounterVec // labels: outcome={created,already_escalated,invalid_report_set,error}
	AssignmentTransitions *prometheus.CounterVec // labels: status
	PropagationSkipped    prometheus.Counter
	AlertQueries          prometheus.Counter
	AlertResults          prometheus.Histogram

	// Заполняются планировщиком после каждого пересчёта групп.
	ActiveGroups   prometheus.Gauge
	EligibleGroups prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.ReportsSubmitted,
		m.Escalations,
		m.AssignmentTransitions,
		m.PropagationSkipped,
		m.AlertQueries,
		m.AlertResults,
		m.ActiveGroups,
		m.EligibleGroups,
	)
	return m
}

// NewMetricsForTesting создаёт метрики без регистрации.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Принятые отчёты о загрязнении по каналу подачи.",
		}, []string{"channel"}),
		Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Попытки эскалации по результату.",
		}, []string{"outcome"}),
		AssignmentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_transitions_total",
			Help:      "Переходы назначений по новому статусу.",
		}, []string{"status"}),
		PropagationSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_skipped_total",
			Help:      "Отчёты, пропущенные при массовой смене статуса.",
		}),
		AlertQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_queries_total",
			Help:      "Запросы активных предупреждений поблизости.",
		}),
		AlertResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_results",
			Help:      "Количество предупреждений в ответе.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		ActiveGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_groups",
			Help:      "Группы с хотя бы одним активным отчётом.",
		}),
		EligibleGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eligible_groups",
			Help:      "Группы, готовые к эскалации.",
		}),
	}
}

func (m *Metrics) ReportSubmitted(channel string) {
	if m == nil {
		return
	}
	m.ReportsSubmitted.WithLabelValues(channel).Inc()
}

func (m *Metrics) Escalation(outcome string) {
	if m == nil {
		return
	}
	m.Escalations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AssignmentTransitioned(status string) {
	if m == nil {
		return
	}
	m.AssignmentTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) PropagationSkip(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PropagationSkipped.Add(float64(n))
}

func (m *Metrics) AlertQuery(results int) {
	if m == nil {
		return
	}
	m.AlertQueries.Inc()
	m.AlertResults.Observe(float64(results))
}

func (m *Metrics) SetGroups(active, eligible int) {
	if m == nil {
		return
	}
	m.ActiveGroups.Set(float64(active))
	m.EligibleGroups.Set(float64(eligible))
}
