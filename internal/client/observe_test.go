// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/searchtest"
)

func TestObserverCountsRequests(t *testing.T) {
	svc := searchtest.New(t)
	svc.Fail("/search", http.StatusBadGateway)
	reg := prometheus.NewRegistry()
	core, logs := zapobserver.New(zapcore.DebugLevel)

	c, err := New(svc.URL, WithMetrics(reg), WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), SearchRequest{Query: query.Spec{}})
	require.Error(t, err)
	_, err = c.Search(context.Background(), SearchRequest{Query: query.Spec{}})
	require.NoError(t, err)

	m := c.obs.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("search", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("search", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(http.StatusBadGateway), failed[0].ContextMap()["status_code"])
	assert.Equal(t, "5xx", failed[0].ContextMap()["outcome"])
	assert.Equal(t, 1, logs.FilterMessage("request completed").Len())
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "ok"},
		{"not found", &TransportError{Op: "search", StatusCode: http.StatusNotFound}, "4xx"},
		{"server error", fmt.Errorf("wrapped: %w", &TransportError{Op: "search", StatusCode: http.StatusServiceUnavailable}), "5xx"},
		{"rate limited", &TransportError{Op: "search", StatusCode: http.StatusTooManyRequests}, "rate_limited"},
		{"network", fmt.Errorf("search: %w: %w", ErrTransport, errors.New("connection refused")), "transport"},
		{"canceled", fmt.Errorf("search: %w: %w", ErrTransport, context.Canceled), "canceled"},
		{"deadline", fmt.Errorf("search: %w: %w", ErrTransport, context.DeadlineExceeded), "timeout"},
		{"writer", errors.New("disk full"), "local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcome(tt.err))
		})
	}
}

func TestMetricsReusedAcrossClients(t *testing.T) {
	svc := searchtest.New(t)
	reg := prometheus.NewRegistry()

	a, err := New(svc.URL, WithMetrics(reg))
	require.NoError(t, err)
	b, err := New(svc.URL, WithMetrics(reg))
	require.NoError(t, err)

	_, err = a.Statistics(context.Background())
	require.NoError(t, err)
	_, err = b.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(b.obs.metrics.calls.WithLabelValues("statistics", "ok")))
}

func TestTransportErrorMessage(t *testing.T) {
	e := &TransportError{Op: "search", StatusCode: 503}
	assert.Equal(t, "search: HTTP 503", e.Error())
	e.Body = "down"
	assert.Equal(t, "search: HTTP 503: down", e.Error())
	assert.ErrorIs(t, e, ErrTransport)
}
