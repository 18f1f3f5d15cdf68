// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lifecycle tracks the progress of one search at a time. Every
// submission gets a new generation; responses carrying an older
// generation are discarded so a slow, superseded request can never
// overwrite newer results.
package lifecycle

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/pkg/types"
)

// State is the phase of the current search.
type State int

const (
	Clean State = iota
	Requesting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Requesting:
		return "requesting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Ticket tags one submission. Hand it back to Succeed or Fail.
type Ticket struct {
	Generation uint64
	Query      query.Spec
}

// Outcome is a completed search, already aggregated.
type Outcome struct {
	Results []types.SearchResult
	Total   int
	Facets  map[string]types.Facet
}

// View is an immutable snapshot for rendering.
type View struct {
	State      State
	Generation uint64
	// Query is nil in the Clean state.
	Query   *query.Spec
	Results []types.SearchResult
	Total   int
	Facets  map[string]types.Facet
	// Err is set in the Failed state.
	Err error
}

// Machine is the search state machine. It never returns errors: failures
// are represented by the Failed state. Safe for concurrent use.
type Machine struct {
	mu   sync.Mutex
	log  *zap.Logger
	gen  uint64
	view View
}

// New returns a machine in the Clean state.
func New(log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{log: log}
}

// Submit starts a new search, superseding any in-flight one. It clears
// previous results and returns the filters with every entry hidden.
func (m *Machine) Submit(spec query.Spec, filters filter.Set) (Ticket, filter.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	from := m.view.State
	q := spec
	m.view = View{State: Requesting, Generation: m.gen, Query: &q}
	m.log.Debug("search submitted",
		zap.Uint64("generation", m.gen),
		zap.Stringer("from", from),
	)
	return Ticket{Generation: m.gen, Query: spec}, filters.HideAll()
}

func (m *Machine) currentLocked(t Ticket) bool {
	return t.Generation == m.gen && m.view.State == Requesting
}

// Succeed attaches results to the search identified by t. It reports
// false, and changes nothing, when t has been superseded.
func (m *Machine) Succeed(t Ticket, o Outcome) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(t) {
		m.log.Debug("discarding stale response",
			zap.Uint64("generation", t.Generation),
			zap.Uint64("current", m.gen),
		)
		return false
	}
	results := o.Results
	if results == nil {
		results = []types.SearchResult{}
	}
	m.view.State = Success
	m.view.Results = slices.Clip(results)
	m.view.Total = o.Total
	m.view.Facets = o.Facets
	m.log.Debug("search succeeded",
		zap.Uint64("generation", t.Generation),
		zap.Int("results", len(results)),
		zap.Int("total", o.Total),
	)
	return true
}

// Fail records a transport or server error for the search identified by
// t. It reports false when t has been superseded.
func (m *Machine) Fail(t Ticket, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(t) {
		m.log.Debug("discarding stale failure",
			zap.Uint64("generation", t.Generation),
			zap.Uint64("current", m.gen),
		)
		return false
	}
	m.view.State = Failed
	m.view.Err = err
	m.log.Info("search failed", zap.Uint64("generation", t.Generation), zap.Error(err))
	return true
}

// Reset returns to Clean. In-flight searches become stale.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.view = View{State: Clean, Generation: m.gen}
}

// Current reports whether t is the latest in-flight submission.
func (m *Machine) Current(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked(t)
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}
