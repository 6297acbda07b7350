// Package metrics содержит счётчики Prometheus для операций сервиса идентификации.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Исходы операции.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder учитывает исходы операций фасада.
type Recorder struct {
	operations *prometheus.CounterVec
}

// NewRecorder создаёт счётчики и регистрирует их в reg.
// Если reg равен nil, счётчики не регистрируются.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "operations_total",
			Help:      "Number of identity operations by outcome and error kind.",
		}, []string{"operation", "outcome", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(r.operations)
	}
	return r
}

// Observe учитывает исход операции. kind пуст для успешных операций.
func (r *Recorder) Observe(operation, kind string) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeFailure
	}
	r.operations.WithLabelValues(operation, outcome, kind).Inc()
}

// Collector возвращает счётчик операций для тестов и ручной регистрации.
func (r *Recorder) Collector() prometheus.Collector {
	return r.operations
}
