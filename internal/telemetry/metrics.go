package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики запросов одного запуска CLI.
//
// Используется собственный реестр, а не prometheus.DefaultRegisterer:
// в файл попадают только метрики клиента, без go_* и process_*.
// Нулевой *Metrics допустим и ничего не делает.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics создаёт и регистрирует метрики клиента.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aap_client_requests_total",
			Help: "Total HTTP requests sent to AAP, by API and status code.",
		}, []string{"api", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aap_client_request_duration_seconds",
			Help:    "Latency of HTTP requests sent to AAP.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"api", "method"}),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// ObserveRequest учитывает один HTTP-запрос.
// code == 0 означает, что ответ не получен (сетевая ошибка, таймаут).
func (m *Metrics) ObserveRequest(api, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(api, method, label).Inc()
	m.duration.WithLabelValues(api, method).Observe(d.Seconds())
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile сохраняет метрики в файл в текстовом формате Prometheus.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
