// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package augment collapses ranked hits that describe the same dataset and
// augmentation kind, and builds the task payloads submitted to the augment
// endpoint.
package augment

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/pdiddy/datasearch/internal/logger"
	"github.com/pdiddy/datasearch/pkg/types"
)

type hitKey struct {
	id   string
	kind types.AugmentationKind
}

type ranked struct {
	firstRank int
	hit       types.SearchResult
}

// Aggregate merges hits sharing (id, augmentation type) into one result
// placed at the rank of the first occurrence. Correspondences of later
// hits are appended to the first one's, skipping indexes that are not
// defined in all four column slices. The input is not modified.
func Aggregate(ctx context.Context, hits []types.SearchResult) []types.SearchResult {
	log := logger.FromContext(ctx)

	seen := make(map[hitKey]int, len(hits))
	merged := make([]ranked, 0, len(hits))
	for rank, h := range hits {
		key := hitKey{id: h.ID, kind: h.AugmentationType()}
		if idx, ok := seen[key]; ok {
			if key.kind != types.AugmentationJoin {
				log.Warn("unexpected augmentation repeat",
					zap.String("id", h.ID),
					zap.String("type", string(key.kind)),
					zap.Int("rank", rank),
					zap.Int("first_rank", merged[idx].firstRank),
				)
			}
			mergeInto(&merged[idx].hit, h)
			continue
		}
		first := h
		first.Augmentation = h.Augmentation.Clone()
		seen[key] = len(merged)
		merged = append(merged, ranked{firstRank: rank, hit: first})
	}

	slices.SortStableFunc(merged, func(a, b ranked) int {
		return a.firstRank - b.firstRank
	})

	out := make([]types.SearchResult, len(merged))
	for i, m := range merged {
		out[i] = m.hit
	}
	return out
}

// mergeInto appends src's defined correspondences to dst. dst owns its
// augmentation (it was cloned when first seen).
func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	sa := src.Augmentation
	if sa == nil {
		return
	}
	if dst.Augmentation == nil {
		dst.Augmentation = &types.AugmentationInfo{Type: sa.Type}
	}
	da := dst.Augmentation

	n := max(len(sa.LeftColumns), len(sa.LeftColumnsNames), len(sa.RightColumns), len(sa.RightColumnsNames))
	for i := range n {
		if !sa.Defined(i) {
			continue
		}
		da.LeftColumns = append(da.LeftColumns, slices.Clone(sa.LeftColumns[i]))
		da.LeftColumnsNames = append(da.LeftColumnsNames, slices.Clone(sa.LeftColumnsNames[i]))
		da.RightColumns = append(da.RightColumns, slices.Clone(sa.RightColumns[i]))
		da.RightColumnsNames = append(da.RightColumnsNames, slices.Clone(sa.RightColumnsNames[i]))
	}
	if da.TemporalResolution == "" {
		da.TemporalResolution = sa.TemporalResolution
	}
}
