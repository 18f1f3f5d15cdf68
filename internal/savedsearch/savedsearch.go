// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package savedsearch writes a search and its results to a YAML file so it
// can be reviewed offline and reopened later.
package savedsearch

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/urlsync"
	"github.com/pdiddy/datasearch/pkg/types"
)

// File is the on-disk representation of a saved search. Address is the
// source of truth on reload; Query is informational.
type File struct {
	Address string               `yaml:"address"`
	Query   []string             `yaml:"query,omitempty"`
	Results []types.SearchResult `yaml:"results"`
	Summary Summary              `yaml:"summary"`
}

// Summary stores result statistics and a timestamp.
type Summary struct {
	Returned  int                    `yaml:"returned"`
	Total     int                    `yaml:"total"`
	Augmented map[string]int         `yaml:"augmented,omitempty"`
	Facets    map[string]types.Facet `yaml:"facets,omitempty"`
	Timestamp time.Time              `yaml:"timestamp"`
}

// New assembles a saved search from an address and the results it produced.
func New(address string, spec query.Spec, resp types.SearchResponse) File {
	f := File{
		Address: address,
		Query:   spec.Describe(),
		Results: resp.Results,
		Summary: Summary{
			Returned:  len(resp.Results),
			Total:     resp.Total,
			Facets:    resp.Facets,
			Timestamp: time.Now().UTC(),
		},
	}
	for _, r := range resp.Results {
		kind := r.AugmentationType()
		if kind == types.AugmentationNone {
			continue
		}
		if f.Summary.Augmented == nil {
			f.Summary.Augmented = map[string]int{}
		}
		f.Summary.Augmented[string(kind)]++
	}
	if f.Results == nil {
		f.Results = []types.SearchResult{}
	}
	return f
}

// Write saves f to path.
func Write(path string, f File) error {
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshaling saved search: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads a saved search and checks that its address still parses.
// Address errors wrap query.ErrMalformedQuery.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading saved search: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing saved search: %w", err)
	}
	if _, err := urlsync.FromURL(f.Address); err != nil {
		return nil, fmt.Errorf("saved search %s: %w", path, err)
	}
	return &f, nil
}
