// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	logger     *zap.Logger
	metricsReg prometheus.Registerer
	userAgent  string
	token      string
	maxRetries int
}

// WithHTTPClient sets the HTTP client. Defaults to a client with a
// 60 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.httpClient = c
	})
}

// WithLogger enables structured logging of requests. Pass nil to disable
// (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.logger = l
	})
}

// WithMetrics registers request counts and durations on the given
// registerer. Pass nil to disable (default).
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.metricsReg = reg
	})
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.userAgent = ua
	})
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.token = token
	})
}

// WithMaxRetries sets how many times a rate-limited request is retried.
// Default: 5.
func WithMaxRetries(n int) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.maxRetries = n
	})
}
