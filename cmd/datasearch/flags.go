// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/datasearch/internal/augment"
	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/geo"
	"github.com/pdiddy/datasearch/internal/urlsync"
)

const dateFmt = "2006-01-02"

// temporalFlag builds a temporal filter value from --from, --to and
// --granularity. It reports false when none is set.
func temporalFlag(from, to, granularity string) (filter.TemporalValue, bool, error) {
	var v filter.TemporalValue
	if from == "" && to == "" && granularity == "" {
		return v, false, nil
	}
	if from != "" {
		t, err := time.Parse(dateFmt, from)
		if err != nil {
			return v, false, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		v.Start = t
	}
	if to != "" {
		t, err := time.Parse(dateFmt, to)
		if err != nil {
			return v, false, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		v.End = t
	}
	if !v.Start.IsZero() && !v.End.IsZero() && v.End.Before(v.Start) {
		return v, false, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	g, err := filter.ParseGranularity(granularity)
	if err != nil {
		return v, false, err
	}
	v.Granularity = g
	return v, true, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out[i] = f
	}
	return out, nil
}

// parseBBox reads "lat1,lon1,lat2,lon2", two opposite corners in any
// order, and normalizes it.
func parseBBox(s string) (geo.BoundingBox, error) {
	f, err := parseFloats(s, 4)
	if err != nil {
		return geo.BoundingBox{}, fmt.Errorf("invalid --bbox: %w", err)
	}
	return geo.Normalize(geo.Rect{
		A: geo.Point{Latitude: f[0], Longitude: f[1]},
		B: geo.Point{Latitude: f[2], Longitude: f[3]},
	}), nil
}

// parseIndexes reads a comma-separated list of non-negative integers.
func parseIndexes(s string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid index %q", p)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// selectionMask turns 1-based correspondence numbers into a mask.
func selectionMask(numbers []int) ([]bool, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	mask := make([]bool, slices.Max(numbers))
	for _, n := range numbers {
		if n == 0 {
			return nil, fmt.Errorf("correspondences are numbered from 1")
		}
		mask[n-1] = true
	}
	return mask, nil
}

// parseAggregation reads "column=fn[,fn...]" or "column=all".
func parseAggregation(s string) (augment.ColumnAggregation, error) {
	col, fns, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" || strings.TrimSpace(fns) == "" {
		return augment.ColumnAggregation{}, fmt.Errorf("invalid --agg %q: want column=function[,function]", s)
	}
	agg := augment.ColumnAggregation{Column: col}
	for _, name := range strings.Split(fns, ",") {
		name = strings.TrimSpace(name)
		if name == "all" {
			agg.All = true
			continue
		}
		f, err := augment.ParseFunction(name)
		if err != nil {
			return augment.ColumnAggregation{}, err
		}
		agg.Functions = append(agg.Functions, f)
	}
	return agg, nil
}

// parseSession reads a session in its address-bar JSON form.
func parseSession(s string) (*urlsync.Session, error) {
	var sess urlsync.Session
	if err := json.Unmarshal([]byte(s), &sess); err != nil {
		return nil, fmt.Errorf("invalid --session: %w", err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("invalid --session: session_id is required")
	}
	return &sess, nil
}
