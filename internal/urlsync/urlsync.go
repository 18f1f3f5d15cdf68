// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urlsync maps queries and sessions to and from the address bar.
// The address is the single source of truth on navigation: filter state is
// always rebuilt from it, never merged with what was in memory.
package urlsync

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/query"
)

const (
	paramQuery   = "q"
	paramSession = "session"
)

// Session binds the client to an external system that started it, such
// as a modeling tool that wants augmented data back in a given format.
type Session struct {
	ID            string         `json:"session_id"`
	DataToken     string         `json:"data_token,omitempty"`
	Format        string         `json:"format,omitempty"`
	FormatOptions map[string]any `json:"format_options,omitempty"`
	SystemName    string         `json:"system_name,omitempty"`
}

// BoundFile returns the related file the session was started with, or nil.
func (s *Session) BoundFile() filter.RelatedFileValue {
	if s == nil || s.DataToken == "" {
		return nil
	}
	name := "session input"
	if s.SystemName != "" {
		name = s.SystemName + " input"
	}
	return filter.LocalFile{Token: s.DataToken, Name: name}
}

// AugmentParams returns the augment endpoint query parameters for the
// session: session_id, format and one format_<key> per option.
func (s *Session) AugmentParams() url.Values {
	v := url.Values{}
	if s == nil {
		return v
	}
	v.Set("session_id", s.ID)
	if s.Format != "" {
		v.Set("format", s.Format)
	}
	keys := make([]string, 0, len(s.FormatOptions))
	for k := range s.FormatOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set("format_"+k, fmt.Sprint(s.FormatOptions[k]))
	}
	return v
}

// ToURL serializes the query and optional session into a location search
// string ("?q=..."). Equal inputs give byte-identical output.
func ToURL(spec query.Spec, session *Session) (string, error) {
	q, err := spec.Encode()
	if err != nil {
		return "", fmt.Errorf("encoding query: %w", err)
	}
	v := url.Values{}
	v.Set(paramQuery, string(q))
	if session != nil {
		s, err := json.Marshal(session)
		if err != nil {
			return "", fmt.Errorf("encoding session: %w", err)
		}
		v.Set(paramSession, string(s))
	}
	return "?" + v.Encode(), nil
}

// SessionURL serializes only a session, for the initial address of a
// session that has not searched yet.
func SessionURL(session Session) (string, error) {
	s, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	return "?" + url.Values{paramSession: {string(s)}}.Encode(), nil
}

// Location is the state reconstructed from an address.
type Location struct {
	// Query is nil when the address carries no query.
	Query *query.Spec
	// Parsed holds keywords and fresh filter entries. When a session binds
	// a file it is present here even without a query.
	Parsed  query.Parsed
	Session *Session
}

// FromURL reconstructs query, filters and session from a location search
// string. Errors wrap query.ErrMalformedQuery; callers fall back to the
// clean state.
func FromURL(search string) (Location, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(search, "?"))
	if err != nil {
		return Location{}, fmt.Errorf("parsing address: %v: %w", err, query.ErrMalformedQuery)
	}

	var loc Location
	if raw := values.Get(paramSession); raw != "" {
		var s Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return Location{}, fmt.Errorf("decoding session: %v: %w", err, query.ErrMalformedQuery)
		}
		if s.ID == "" {
			return Location{}, fmt.Errorf("session without session_id: %w", query.ErrMalformedQuery)
		}
		loc.Session = &s
	}

	if values.Has(paramQuery) {
		spec, err := query.Decode([]byte(values.Get(paramQuery)))
		if err != nil {
			return Location{}, err
		}
		parsed, err := query.Parse(spec)
		if err != nil {
			return Location{}, err
		}
		loc.Query = &spec
		loc.Parsed = parsed
	}

	if bound := loc.Session.BoundFile(); bound != nil {
		filters := loc.Parsed.Filters
		if e, ok := filters.Find(filter.RelatedFile); ok {
			if rf, ok := e.Value.(filter.RelatedFileValue); ok && rf.Columns() != nil {
				bound = bound.WithColumns(rf.Columns())
			}
		}
		filters, _, err = filters.RemoveKind(filter.RelatedFile).Add(filter.RelatedFile, bound)
		if err != nil {
			return Location{}, err
		}
		loc.Parsed.Filters = filters
	}
	return loc, nil
}
