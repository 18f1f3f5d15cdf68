// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explorer is the search session controller. It owns the filter
// state and keywords, derives the query from them, keeps the address bar
// in sync and drives the search lifecycle.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/datasearch/internal/augment"
	"github.com/pdiddy/datasearch/internal/client"
	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/lifecycle"
	"github.com/pdiddy/datasearch/internal/logger"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/status"
	"github.com/pdiddy/datasearch/internal/urlsync"
	"github.com/pdiddy/datasearch/pkg/types"
)

var (
	// ErrNoResults is returned by Augment when no search has succeeded.
	ErrNoResults = errors.New("no search results")
	// ErrNoSuchResult is returned for a hit index out of range.
	ErrNoSuchResult = errors.New("no such result")
	// ErrPlaceNotFound is returned when a place name has no bounding box.
	ErrPlaceNotFound = errors.New("place not found")
)

// Service is the remote search service.
type Service interface {
	Search(ctx context.Context, req client.SearchRequest) (types.SearchResponse, error)
	Augment(ctx context.Context, req client.AugmentRequest, w io.Writer) (int64, error)
	Locate(ctx context.Context, place string) ([]client.Place, error)
}

// AddressBar records the address of every submitted search.
type AddressBar interface {
	Push(ctx context.Context, address string) error
}

// SourceLister provides the known values of the source filter.
type SourceLister interface {
	Sources(ctx context.Context) ([]status.SourceCount, error)
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithAddressBar sets where search addresses are pushed.
func WithAddressBar(b AddressBar) Option {
	return func(e *Explorer) { e.bar = b }
}

// WithSources sets the source list warmed when the session is clean.
func WithSources(s SourceLister) Option {
	return func(e *Explorer) { e.sources = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Explorer) {
		if l != nil {
			e.log = l
		}
	}
}

// Explorer is one search session. Safe for concurrent use; a newer
// search always wins over an older one still in flight.
type Explorer struct {
	svc     Service
	bar     AddressBar
	sources SourceLister
	log     *zap.Logger
	machine *lifecycle.Machine

	mu       sync.Mutex
	keywords string
	terms    []string
	filters  filter.Set
	augType  query.AugmentationType
	session  *urlsync.Session
	data     map[string][]byte
	address  string
	sent     submission
}

// submission is what one search sent. Augmenting a result reuses the
// related file and session its search was run with.
type submission struct {
	ticket  lifecycle.Ticket
	related *client.Related
	session *urlsync.Session
}

// New returns a clean session.
func New(svc Service, opts ...Option) *Explorer {
	e := &Explorer{
		svc:  svc,
		log:  zap.NewNop(),
		data: map[string][]byte{},
	}
	for _, o := range opts {
		o(e)
	}
	e.machine = lifecycle.New(e.log)
	return e
}

// SetKeywords replaces the free-text keywords.
func (e *Explorer) SetKeywords(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keywords = s
	e.terms = nil
}

// Keywords returns the free-text keywords.
func (e *Explorer) Keywords() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keywords
}

// Filters returns the current filter snapshot.
func (e *Explorer) Filters() filter.Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

// AddFilter adds a filter and returns its id. For single-entry kinds that
// already have an entry, the existing id is returned and nothing changes.
func (e *Explorer) AddFilter(kind filter.Kind, v filter.Value) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	set, id, err := e.filters.Add(kind, v)
	if err != nil {
		return "", err
	}
	e.filters = set
	return id, nil
}

// UpdateFilter replaces the value of an existing filter.
func (e *Explorer) UpdateFilter(id string, v filter.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	set, err := e.filters.Update(id, v)
	if err != nil {
		return err
	}
	e.filters = set
	return nil
}

// RemoveFilter deletes a filter. Unknown ids are ignored.
func (e *Explorer) RemoveFilter(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = e.filters.Remove(id)
}

// SetHidden collapses or expands a filter.
func (e *Explorer) SetHidden(id string, hidden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = e.filters.SetHidden(id, hidden)
}

// SetAugmentationType chooses between join and union discovery. Empty
// means the default.
func (e *Explorer) SetAugmentationType(t query.AugmentationType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.augType = t
}

// AttachData registers the bytes of a local related file. Searches send
// them instead of the profile token.
func (e *Explorer) AttachData(token string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[token] = data
}

// SetSession binds the session to an external system. A session data
// token replaces any related file filter.
func (e *Explorer) SetSession(s *urlsync.Session) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = s
	bound := s.BoundFile()
	if bound == nil {
		return nil
	}
	set, _, err := e.filters.RemoveKind(filter.RelatedFile).Add(filter.RelatedFile, bound)
	if err != nil {
		return err
	}
	e.filters = set
	return nil
}

// Session returns the bound session, or nil.
func (e *Explorer) Session() *urlsync.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Address returns the address of the last search or navigation.
func (e *Explorer) Address() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.address
}

// View returns the current lifecycle snapshot.
func (e *Explorer) View() lifecycle.View {
	return e.machine.Snapshot()
}

// Query returns the query the current state would submit.
func (e *Explorer) Query() query.Spec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queryLocked()
}

func (e *Explorer) queryLocked() query.Spec {
	return query.Build(query.State{
		Keywords:         e.keywords,
		Terms:            e.terms,
		Filters:          e.filters,
		AugmentationType: e.augType,
	})
}

func (e *Explorer) relatedLocked() *client.Related {
	entry, ok := e.filters.Find(filter.RelatedFile)
	if !ok || entry.Value == nil {
		return nil
	}
	rf, ok := entry.Value.(filter.RelatedFileValue)
	if !ok {
		return nil
	}
	r := &client.Related{File: rf}
	if lf, ok := rf.(filter.LocalFile); ok {
		r.Data = e.data[lf.Token]
	}
	return r
}

// Search submits the current state. The query, the related file and the
// session are captured together; the address is pushed before the
// request goes out. The returned view reflects this search unless a newer
// one superseded it.
func (e *Explorer) Search(ctx context.Context) (lifecycle.View, error) {
	e.mu.Lock()
	spec := e.queryLocked()
	addr, err := urlsync.ToURL(spec, e.session)
	if err != nil {
		e.mu.Unlock()
		return e.View(), err
	}
	e.address = addr
	sub := e.submitLocked(spec)
	e.mu.Unlock()

	if e.bar != nil {
		if err := e.bar.Push(ctx, addr); err != nil {
			e.log.Warn("recording address", zap.Error(err))
		}
	}
	return e.send(ctx, sub), nil
}

// submitLocked starts a new search for spec and records what it sends.
// e.mu must be held.
func (e *Explorer) submitLocked(spec query.Spec) submission {
	ticket, hidden := e.machine.Submit(spec, e.filters)
	e.filters = hidden
	e.sent = submission{ticket: ticket, related: e.relatedLocked(), session: e.session}
	return e.sent
}

func (e *Explorer) send(ctx context.Context, sub submission) lifecycle.View {
	resp, err := e.svc.Search(ctx, client.SearchRequest{Query: sub.ticket.Query, Related: sub.related})
	if err != nil {
		e.machine.Fail(sub.ticket, err)
		return e.machine.Snapshot()
	}

	results := augment.Aggregate(logger.ContextWithLogger(ctx, e.log), resp.Results)
	if !e.machine.Succeed(sub.ticket, lifecycle.Outcome{
		Results: results,
		Total:   resp.Total,
		Facets:  resp.Facets,
	}) {
		e.log.Debug("search superseded", zap.Uint64("generation", sub.ticket.Generation))
	}
	return e.machine.Snapshot()
}

// Navigate rebuilds the whole session from an address, discarding the
// in-memory state. An address with a query searches immediately; one
// without resets to clean and warms the source list. A malformed address
// resets to clean and returns an error wrapping query.ErrMalformedQuery.
func (e *Explorer) Navigate(ctx context.Context, address string) (lifecycle.View, error) {
	loc, err := urlsync.FromURL(address)
	if err != nil {
		e.log.Warn("malformed address, resetting", zap.Error(err))
		e.mu.Lock()
		e.keywords, e.terms, e.filters, e.augType, e.session = "", nil, filter.Set{}, "", nil
		e.address = ""
		e.machine.Reset()
		e.mu.Unlock()
		return e.View(), err
	}

	e.mu.Lock()
	e.keywords = loc.Parsed.Keywords
	e.terms = loc.Parsed.Terms
	e.filters = loc.Parsed.Filters
	e.augType = loc.Parsed.AugmentationType
	e.session = loc.Session
	e.address = address
	if loc.Query == nil {
		e.machine.Reset()
		e.mu.Unlock()
		e.warmSources(ctx)
		return e.View(), nil
	}
	sub := e.submitLocked(e.queryLocked())
	e.mu.Unlock()
	return e.send(ctx, sub), nil
}

func (e *Explorer) warmSources(ctx context.Context) {
	if e.sources == nil {
		return
	}
	if _, err := e.sources.Sources(ctx); err != nil {
		e.log.Warn("loading sources", zap.Error(err))
	}
}

// LocateFilter resolves a place name and adds its bounding box as a
// geospatial filter. The first match wins.
func (e *Explorer) LocateFilter(ctx context.Context, place string) (string, client.Place, error) {
	places, err := e.svc.Locate(ctx, place)
	if err != nil {
		return "", client.Place{}, err
	}
	if len(places) == 0 {
		return "", client.Place{}, fmt.Errorf("%q: %w", place, ErrPlaceNotFound)
	}
	id, err := e.AddFilter(filter.GeoSpatial, filter.GeoSpatialValue{Box: places[0].Box})
	if err != nil {
		return "", client.Place{}, err
	}
	return id, places[0], nil
}

// Augment downloads the augmentation of result hit of the current search
// into w, restricted to the selection. The related file and session are
// the ones that search was sent with, even if the filters changed since.
func (e *Explorer) Augment(ctx context.Context, hit int, sel augment.Selection, w io.Writer) (int64, error) {
	e.mu.Lock()
	view := e.machine.Snapshot()
	sent := e.sent
	e.mu.Unlock()
	if view.State != lifecycle.Success || view.Generation != sent.ticket.Generation {
		return 0, ErrNoResults
	}
	if hit < 0 || hit >= len(view.Results) {
		return 0, fmt.Errorf("result %d of %d: %w", hit, len(view.Results), ErrNoSuchResult)
	}
	task, err := augment.BuildTask(view.Results[hit], sel)
	if err != nil {
		return 0, err
	}

	req := client.AugmentRequest{Task: task, Related: sent.related, Session: sent.session}
	n, err := e.svc.Augment(ctx, req, w)
	if err != nil {
		return n, err
	}
	e.log.Info("augmentation downloaded",
		zap.String("dataset", task.ID),
		zap.String("type", string(task.Augmentation.Type)),
		zap.Int64("bytes", n),
	)
	return n, nil
}
