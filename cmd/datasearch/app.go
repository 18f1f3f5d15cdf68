// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/datasearch/internal/client"
	"github.com/pdiddy/datasearch/internal/explorer"
	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/history"
	"github.com/pdiddy/datasearch/internal/logger"
	"github.com/pdiddy/datasearch/internal/secrets"
	"github.com/pdiddy/datasearch/internal/status"
	"github.com/pdiddy/datasearch/internal/urlsync"
	"github.com/pdiddy/datasearch/pkg/types"
)

// app is everything one command invocation needs.
type app struct {
	cfg      types.ClientConfig
	log      *zap.Logger
	reg      *prometheus.Registry
	client   *client.Client
	history  *history.Store
	status   *status.Cache
	explorer *explorer.Explorer
}

func loadConfig(v *viper.Viper) (types.ClientConfig, error) {
	var cfg types.ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.APIURL == "" {
		return cfg, errors.New("api_url is not set")
	}
	if cfg.SessionDir == "" {
		return cfg, errors.New("session_dir is not set")
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	secretsDir, _ := cmd.Flags().GetString("secrets-dir")
	creds, err := secrets.Load(secretsDir, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	c, err := client.New(cfg.APIURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
		client.WithLogger(log),
		client.WithMetrics(reg),
		client.WithUserAgent(cfg.HTTP.UserAgent),
		client.WithToken(creds[secrets.APIToken]),
		client.WithMaxRetries(cfg.HTTP.MaxRetries),
	)
	if err != nil {
		return nil, err
	}

	h, err := history.Open(cfg.SessionDir)
	if err != nil {
		return nil, err
	}

	cache := status.NewCache(c, log)
	return &app{
		cfg:     cfg,
		log:     log,
		reg:     reg,
		client:  c,
		history: h,
		status:  cache,
		explorer: explorer.New(c,
			explorer.WithAddressBar(h),
			explorer.WithSources(cache),
			explorer.WithLogger(log),
		),
	}, nil
}

// Close releases the history and exports metrics when configured.
func (a *app) Close() error {
	var errs []error
	if a.cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsTextfile, a.reg); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	if err := a.history.Close(); err != nil {
		errs = append(errs, err)
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	ctx := logger.ContextWithLogger(cmd.Context(), a.log)
	return fn(ctx, a)
}

// attachLocalData reads the bytes of any local related file named in the
// address so searches send the file itself. Session tokens that are not
// paths on disk are sent by reference.
func attachLocalData(e *explorer.Explorer, address string) {
	loc, err := urlsync.FromURL(address)
	if err != nil {
		return
	}
	entry, ok := loc.Parsed.Filters.Find(filter.RelatedFile)
	if !ok {
		return
	}
	lf, ok := entry.Value.(filter.LocalFile)
	if !ok || !filepath.IsAbs(lf.Token) {
		return
	}
	if data, err := os.ReadFile(lf.Token); err == nil {
		e.AttachData(lf.Token, data)
	}
}

// currentSession returns the session of the current history entry.
func (a *app) currentSession(ctx context.Context) *urlsync.Session {
	cur, err := a.history.Current(ctx)
	if err != nil {
		return nil
	}
	loc, err := urlsync.FromURL(cur.Address)
	if err != nil {
		return nil
	}
	return loc.Session
}
