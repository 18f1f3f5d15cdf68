// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter holds the independently edited search filters. A Set is
// an immutable, ordered collection of entries indexed by id; every edit
// returns a new Set and leaves the receiver untouched.
package filter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an entry id is not in the set.
	ErrNotFound = errors.New("filter not found")
	// ErrKindMismatch is returned when a value does not match its entry kind.
	ErrKindMismatch = errors.New("filter value kind mismatch")
)

// Entry is one filter as edited by the user. Hidden only affects
// presentation. Value may be nil while the user has not filled it in.
type Entry struct {
	ID     string
	Kind   Kind
	Hidden bool
	Value  Value
}

// Set is a copy-on-write arena of filter entries. The zero value is an
// empty set. Values stored in a set must be treated as immutable.
type Set struct {
	entries []Entry
	index   map[string]int
}

// NewID returns a fresh entry id.
func NewID() string {
	return uuid.NewString()
}

func (s Set) with(entries []Entry) Set {
	idx := make(map[string]int, len(entries))
	for i, e := range entries {
		idx[e.ID] = i
	}
	return Set{entries: entries, index: idx}
}

// Len returns the number of entries.
func (s Set) Len() int { return len(s.entries) }

// Entries returns the entries in insertion order.
func (s Set) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Get returns the entry with the given id.
func (s Set) Get(id string) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Find returns the first entry of the given kind.
func (s Set) Find(kind Kind) (Entry, bool) {
	for _, e := range s.entries {
		if e.Kind == kind {
			return e, true
		}
	}
	return Entry{}, false
}

// Add appends a new entry of the given kind holding v (which may be nil).
// For singleton kinds that already have an entry, the set is returned
// unchanged together with the existing entry's id.
func (s Set) Add(kind Kind, v Value) (Set, string, error) {
	if v != nil && v.Kind() != kind {
		return s, "", fmt.Errorf("adding %s filter with %s value: %w", kind, v.Kind(), ErrKindMismatch)
	}
	if kind.Singleton() {
		if e, ok := s.Find(kind); ok {
			return s, e.ID, nil
		}
	}
	id := NewID()
	entries := append(slices.Clone(s.entries), Entry{ID: id, Kind: kind, Value: v})
	return s.with(entries), id, nil
}

// Update replaces the value of entry id.
func (s Set) Update(id string, v Value) (Set, error) {
	i, ok := s.index[id]
	if !ok {
		return s, fmt.Errorf("updating %s: %w", id, ErrNotFound)
	}
	if v != nil && v.Kind() != s.entries[i].Kind {
		return s, fmt.Errorf("updating %s filter with %s value: %w", s.entries[i].Kind, v.Kind(), ErrKindMismatch)
	}
	entries := slices.Clone(s.entries)
	entries[i].Value = v
	return s.with(entries), nil
}

// Remove drops entry id. Removing an unknown id is a no-op.
func (s Set) Remove(id string) Set {
	i, ok := s.index[id]
	if !ok {
		return s
	}
	return s.with(slices.Delete(slices.Clone(s.entries), i, i+1))
}

// RemoveKind drops every entry of the given kind.
func (s Set) RemoveKind(kind Kind) Set {
	entries := slices.DeleteFunc(slices.Clone(s.entries), func(e Entry) bool {
		return e.Kind == kind
	})
	return s.with(entries)
}

// SetHidden sets the hidden flag of entry id.
func (s Set) SetHidden(id string, hidden bool) Set {
	i, ok := s.index[id]
	if !ok {
		return s
	}
	entries := slices.Clone(s.entries)
	entries[i].Hidden = hidden
	return s.with(entries)
}

// HideAll marks every entry hidden.
func (s Set) HideAll() Set {
	entries := slices.Clone(s.entries)
	for i := range entries {
		entries[i].Hidden = true
	}
	return s.with(entries)
}
