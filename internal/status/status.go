// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package status caches the service statistics for one session. The
// cache is owned by whoever constructs it and handed to its consumers.
package status

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/datasearch/pkg/types"
)

// Fetcher retrieves the service statistics.
type Fetcher interface {
	Statistics(ctx context.Context) (types.Statistics, error)
}

// SourceCount is one known source and how many datasets it provides.
type SourceCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Cache fetches statistics at most once until invalidated. Concurrent
// callers share one in-flight request. Failures are not cached.
type Cache struct {
	fetch Fetcher
	log   *zap.Logger
	group singleflight.Group

	mu    sync.Mutex
	stats *types.Statistics
	epoch uint64
}

// NewCache returns an empty cache.
func NewCache(f Fetcher, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{fetch: f, log: log}
}

const flightKey = "statistics"

// Statistics returns the memoized statistics, fetching them if needed.
func (c *Cache) Statistics(ctx context.Context) (types.Statistics, error) {
	c.mu.Lock()
	if c.stats != nil {
		st := *c.stats
		c.mu.Unlock()
		return st, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	v, err, shared := c.group.Do(flightKey, func() (any, error) {
		c.mu.Lock()
		if c.stats != nil {
			st := *c.stats
			c.mu.Unlock()
			return st, nil
		}
		c.mu.Unlock()

		st, err := c.fetch.Statistics(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == epoch {
			c.stats = &st
		}
		c.mu.Unlock()
		return st, nil
	})
	if err != nil {
		c.log.Warn("fetching statistics", zap.Error(err))
		return types.Statistics{}, err
	}
	c.log.Debug("statistics fetched", zap.Bool("shared", shared))
	return v.(types.Statistics), nil
}

// Sources returns the known sources, most datasets first, ties by name.
func (c *Cache) Sources(ctx context.Context) ([]SourceCount, error) {
	st, err := c.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SourceCount, 0, len(st.SourcesCounts))
	for name, n := range st.SourcesCounts {
		out = append(out, SourceCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b SourceCount) int {
		if d := cmp.Compare(b.Count, a.Count); d != 0 {
			return d
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Invalidate drops the memoized statistics. A fetch already in flight
// completes for its callers but is not stored.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	c.epoch++
	c.group.Forget(flightKey)
}
