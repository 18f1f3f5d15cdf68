// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/datasearch/internal/lifecycle"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/urlsync"
	"github.com/pdiddy/datasearch/pkg/types"
)

type viewJSON struct {
	Address string                 `json:"address,omitempty"`
	State   string                 `json:"state"`
	Query   *query.Spec            `json:"query,omitempty"`
	Total   int                    `json:"total"`
	Results []types.SearchResult   `json:"results"`
	Facets  map[string]types.Facet `json:"facets,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func augmentationLabel(r types.SearchResult) string {
	kind := r.AugmentationType()
	if kind == types.AugmentationNone {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", kind, r.Augmentation.Len())
}

// renderView prints a lifecycle snapshot. A failed search is printed and
// returned as an error so the command exits non-zero.
func renderView(w io.Writer, address string, v lifecycle.View, asJSON bool) error {
	if asJSON {
		out := viewJSON{
			Address: address,
			State:   v.State.String(),
			Query:   v.Query,
			Total:   v.Total,
			Results: v.Results,
			Facets:  v.Facets,
		}
		if out.Results == nil {
			out.Results = []types.SearchResult{}
		}
		if v.Err != nil {
			out.Error = v.Err.Error()
		}
		if err := writeJSON(w, out); err != nil {
			return err
		}
		return v.Err
	}

	switch v.State {
	case lifecycle.Clean:
		info(w, "No search in this session yet.")
		return nil
	case lifecycle.Failed:
		failure(w, "Search failed: %v", v.Err)
		return v.Err
	case lifecycle.Requesting:
		info(w, "Search superseded by a newer one.")
		return nil
	}

	if v.Query != nil {
		for _, line := range v.Query.Describe() {
			info(w, "  %s", line)
		}
	}
	total := v.Total
	if total < len(v.Results) {
		total = len(v.Results)
	}
	success(w, "%d results (%d total)", len(v.Results), total)
	if len(v.Results) == 0 {
		return nil
	}

	t := newTable("#", "ID", "NAME", "SOURCE", "ROWS", "SCORE", "AUGMENT")
	for i, r := range v.Results {
		t.add(
			strconv.Itoa(i+1),
			r.ID,
			truncate(r.Metadata.Name, 48),
			r.Metadata.Source,
			strconv.FormatInt(r.Metadata.NbRows, 10),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			augmentationLabel(r),
		)
	}
	t.render(w)
	return nil
}

// describeAddress summarizes an address on one line.
func describeAddress(address string) string {
	loc, err := urlsync.FromURL(address)
	if err != nil {
		return "(malformed) " + truncate(address, 60)
	}
	if loc.Query == nil {
		return "(clean)"
	}
	lines := loc.Query.Describe()
	if len(lines) == 0 {
		return "(everything)"
	}
	return truncate(strings.Join(lines, "; "), 80)
}
