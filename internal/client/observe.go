// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Outcomes of one client call, used as the "outcome" metric label.
const (
	outcomeOK          = "ok"
	outcomeRateLimited = "rate_limited"
	outcomeTransport   = "transport"
	outcomeCanceled    = "canceled"
	outcomeTimeout     = "timeout"
	outcomeLocal       = "local"
)

// outcome classifies err. Non-200 responses map to their status class
// ("4xx", "5xx"), except a 429 that outlived the retries. Failures that
// never reached the service, or happened after the body was read, are
// "local".
func outcome(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests:
		return outcomeRateLimited
	case errors.As(err, &te):
		return fmt.Sprintf("%dxx", te.StatusCode/100)
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	case errors.Is(err, ErrTransport):
		return outcomeTransport
	}
	return outcomeLocal
}

type clientMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	calls, err := registerShared(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datasearch",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Calls to the search service by operation and outcome.",
	}, []string{"operation", "outcome"}))
	if err != nil {
		return nil, err
	}
	duration, err := registerShared(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "datasearch",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Duration of calls to the search service, retries included.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	return &clientMetrics{calls: calls, duration: duration}, nil
}

// registerShared registers c, or returns the collector of the same type
// another client already registered on reg.
func registerShared[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("registering client metrics: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("client metric already registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and counts client calls.
type observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	dur := time.Since(start)
	oc := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, oc).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("outcome", oc),
		zap.Duration("duration", dur),
	}
	switch oc {
	case outcomeOK:
		o.logger.Debug("request completed", fields...)
	case outcomeCanceled:
		o.logger.Info("request canceled", fields...)
	default:
		var te *TransportError
		if errors.As(err, &te) {
			fields = append(fields, zap.Int("status_code", te.StatusCode))
		}
		o.logger.Warn("request failed", append(fields, zap.Error(err))...)
	}
}
