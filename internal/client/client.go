// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package client talks to the dataset search service: search, augment,
// statistics and location lookup. Every call is retried on HTTP 429,
// logged and counted.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/httputil"
)

const defaultTimeout = 60 * time.Second

// Client is a dataset search service client. Safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	obs        *observer
	userAgent  string
	token      string
	maxRetries int
}

// New returns a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    u,
		http:       cfg.httpClient,
		obs:        obs,
		userAgent:  cfg.userAgent,
		token:      cfg.token,
		maxRetries: cfg.maxRetries,
	}, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// send issues one request and returns the response when the status is
// 200. The body is held in memory so rate-limited requests can be replayed.
func (c *Client) send(ctx context.Context, op, method, path string, params url.Values, contentType string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, params), rd)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.obs.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	return resp, nil
}

// Related is the related file sent alongside a search or augment call.
// Data holds the bytes of a local file; without it a local file is sent
// by its profile token.
type Related struct {
	File filter.RelatedFileValue
	Data []byte
}

func (r *Related) writeTo(w *multipart.Writer) error {
	if r == nil || r.File == nil {
		return nil
	}
	switch f := r.File.(type) {
	case filter.LocalFile:
		if len(r.Data) > 0 {
			part, err := w.CreateFormFile("data", f.Name)
			if err != nil {
				return err
			}
			_, err = part.Write(r.Data)
			return err
		}
		if f.Token == "" {
			return fmt.Errorf("local file %q has neither data nor profile token", f.Name)
		}
		return w.WriteField("data_profile", f.Token)
	case filter.SearchResultFile:
		return w.WriteField("data_id", f.DatasetID)
	}
	return fmt.Errorf("unsupported related file %T", r.File)
}

// multipartBody builds a multipart form with one JSON field plus the
// related file.
func multipartBody(field string, payload []byte, related *Related) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField(field, string(payload)); err != nil {
		return nil, "", err
	}
	if err := related.writeTo(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
