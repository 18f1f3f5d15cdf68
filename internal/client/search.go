// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/datasearch/internal/augment"
	"github.com/pdiddy/datasearch/internal/geo"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/urlsync"
	"github.com/pdiddy/datasearch/pkg/types"
)

// SearchRequest is one search submission.
type SearchRequest struct {
	Query   query.Spec
	Related *Related
}

// Search runs a query. Zero hits is a successful, empty response.
func (c *Client) Search(ctx context.Context, req SearchRequest) (out types.SearchResponse, err error) {
	const op = "search"
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	q, err := req.Query.WireJSON()
	if err != nil {
		return out, fmt.Errorf("%s: encoding query: %w", op, err)
	}
	body, ct, err := multipartBody("query", q, req.Related)
	if err != nil {
		return out, fmt.Errorf("%s: building form: %w", op, err)
	}

	resp, err := c.send(ctx, op, http.MethodPost, "/search", url.Values{"_parse_sample": {"1"}}, ct, body)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.SearchResponse{}, fmt.Errorf("%s: decoding response: %v: %w", op, err, ErrTransport)
	}
	if out.Results == nil {
		out.Results = []types.SearchResult{}
	}
	return out, nil
}

// AugmentRequest asks the service to join or union a candidate dataset
// with the related file.
type AugmentRequest struct {
	Task    augment.Task
	Related *Related
	Session *urlsync.Session
}

// Augment submits an augmentation task and streams the resulting archive
// into w. It returns the number of bytes written.
func (c *Client) Augment(ctx context.Context, req AugmentRequest, w io.Writer) (n int64, err error) {
	const op = "augment"
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	task, err := json.Marshal(req.Task)
	if err != nil {
		return 0, fmt.Errorf("%s: encoding task: %w", op, err)
	}
	body, ct, err := multipartBody("task", task, req.Related)
	if err != nil {
		return 0, fmt.Errorf("%s: building form: %w", op, err)
	}

	resp, err := c.send(ctx, op, http.MethodPost, "/augment", req.Session.AugmentParams(), ct, body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	dst := &archiveWriter{w: w}
	n, err = io.Copy(dst, resp.Body)
	switch {
	case dst.err != nil:
		return n, fmt.Errorf("%s: writing archive: %w", op, dst.err)
	case err != nil:
		return n, fmt.Errorf("%s: reading archive: %w: %w", op, ErrTransport, err)
	}
	return n, nil
}

// archiveWriter remembers the first error of the destination so it can be
// told apart from a failure reading the response.
type archiveWriter struct {
	w   io.Writer
	err error
}

func (a *archiveWriter) Write(p []byte) (int, error) {
	n, err := a.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && a.err == nil {
		a.err = err
	}
	return n, err
}

// Statistics fetches the service status: recent discoveries and the
// number of datasets per source.
func (c *Client) Statistics(ctx context.Context) (out types.Statistics, err error) {
	const op = "statistics"
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	resp, err := c.send(ctx, op, http.MethodGet, "/statistics", nil, "", nil)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.Statistics{}, fmt.Errorf("%s: decoding response: %v: %w", op, err, ErrTransport)
	}
	return out, nil
}

// Place is one location search match.
type Place struct {
	Name string          `json:"name"`
	Box  geo.BoundingBox `json:"bbox"`
}

// coord accepts a JSON number or a numeric string.
type coord float64

func (c *coord) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*c = coord(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("coordinate %s: not a number", b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", s, err)
	}
	*c = coord(f)
	return nil
}

type locationResponse struct {
	Results []struct {
		DisplayName string  `json:"display_name"`
		BoundingBox []coord `json:"boundingbox"`
	} `json:"results"`
}

// Locate resolves a place name into bounding boxes. Matches without a
// four-value bounding box are skipped.
func (c *Client) Locate(ctx context.Context, place string) (out []Place, err error) {
	const op = "location"
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	form := url.Values{"q": {place}}
	resp, err := c.send(ctx, op, http.MethodPost, "/location", nil,
		"application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr locationResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %v: %w", op, err, ErrTransport)
	}

	out = []Place{}
	for _, r := range lr.Results {
		if len(r.BoundingBox) != 4 {
			continue
		}
		bb := r.BoundingBox
		name := r.DisplayName
		if name == "" {
			name = place
		}
		out = append(out, Place{
			Name: name,
			Box:  geo.FromNominatim(float64(bb[0]), float64(bb[1]), float64(bb[2]), float64(bb[3])),
		})
	}
	return out, nil
}
