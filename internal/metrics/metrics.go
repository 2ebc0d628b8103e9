// Package metrics exposes proposal workflow and HTTP metrics to Prometheus.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rfbmarket/internal/workflow"
)

// Metrics implements workflow.Observer.
type Metrics struct {
	transitions   *prometheus.CounterVec
	guardFailures *prometheus.CounterVec
	otpResults    *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers every metric with reg under the service prefix.
// It panics on duplicate registration.
func New(service string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_proposal_transitions_total", service),
				Help: "Proposal workflow state transitions",
			},
			[]string{"from", "to"},
		),
		guardFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_proposal_guard_failures_total", service),
				Help: "Transitions refused by a workflow guard",
			},
			[]string{"state", "guard"},
		),
		otpResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_otp_verifications_total", service),
				Help: "Passcode verification attempts by result",
			},
			[]string{"result"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_proposal_deliveries_total", service),
				Help: "Submitted proposal deliveries by status",
			},
			[]string{"status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    fmt.Sprintf("%s_http_request_duration_seconds", service),
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.transitions,
		m.guardFailures,
		m.otpResults,
		m.deliveries,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Transition(from, to workflow.State) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) GuardFailed(state workflow.State, guard string) {
	m.guardFailures.WithLabelValues(string(state), guard).Inc()
}

func (m *Metrics) OTPVerified(result string) {
	m.otpResults.WithLabelValues(result).Inc()
}

func (m *Metrics) Delivered(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.deliveries.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
