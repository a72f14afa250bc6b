// Package metrics provides Prometheus metrics for auth operations and the HTTP API.
// Metrics live in their own registry, exposed by Handler.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
)

const namespace = "smallsquare"

type Metrics struct {
	registry *prometheus.Registry

	// operation: signup | login | logout | refresh | ...
	// outcome: success | one of outcomes below
	authOperations *prometheus.CounterVec
	authDuration   *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		authOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "operations_total",
				Help:      "Total number of auth operations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		authDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "operation_duration_seconds",
				Help:      "Duration of auth operations in seconds.",
				// bcrypt dominates, so start from 10ms
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"operation"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveAuth records auth operation started at started and finished with err
func (m *Metrics) ObserveAuth(operation string, started time.Time, err error) {
	m.authOperations.WithLabelValues(operation, Outcome(err)).Inc()
	m.authDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveHTTP(method string, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var outcomes = []struct {
	err     error
	outcome string
}{
	{apperrors.ErrValidation, "validation"},
	{apperrors.ErrDuplicate, "duplicate"},
	{apperrors.ErrWrongPassword, "wrong_password"},
	{apperrors.ErrConfirmationMismatch, "confirmation_mismatch"},
	{apperrors.ErrSamePassword, "same_password"},
	{apperrors.ErrNotFound, "not_found"},
	{apperrors.ErrInactiveAccount, "inactive"},
	{apperrors.ErrEmailNotVerified, "email_not_verified"},
	{apperrors.ErrInvalidToken, "invalid_token"},
	{apperrors.ErrExpiredToken, "expired_token"},
	{apperrors.ErrRevokedToken, "revoked_token"},
}

// Outcome label for the error: success for nil, error for unknown ones
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.outcome
		}
	}
	return "error"
}
