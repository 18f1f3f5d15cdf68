// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package augment

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pdiddy/datasearch/pkg/types"
)

var (
	// ErrNoColumnsSelected means the user must pick at least one join
	// correspondence before submitting.
	ErrNoColumnsSelected = errors.New("no columns selected")
	// ErrNotAugmentable is returned for hits without a join or union.
	ErrNotAugmentable = errors.New("result cannot be augmented")
	// ErrInvalidAggregation is returned for unknown columns, unknown
	// functions, or functions that do not apply to a column's type.
	ErrInvalidAggregation = errors.New("invalid aggregation")
)

// Function is an aggregate function applied to an extra join column.
type Function string

const (
	First Function = "first"
	Mean  Function = "mean"
	Sum   Function = "sum"
	Max   Function = "max"
	Min   Function = "min"
	Count Function = "count"
)

var (
	numericFunctions = []Function{First, Mean, Sum, Max, Min, Count}
	textFunctions    = []Function{First}
)

// FunctionsFor returns the functions applicable to a column.
func FunctionsFor(c types.Column) []Function {
	if c.IsNumeric() {
		return slices.Clone(numericFunctions)
	}
	return slices.Clone(textFunctions)
}

// ColumnAggregation assigns aggregate functions to an extra output column
// of the candidate dataset. All expands to every applicable function.
type ColumnAggregation struct {
	Column    string
	Functions []Function
	All       bool
}

// Selection is what the user picked for one hit: a mask over its
// correspondence indexes and, for joins, extra aggregated columns.
type Selection struct {
	Mask         []bool
	Aggregations []ColumnAggregation
}

// TaskAugmentation is the filtered augmentation sent to the service.
type TaskAugmentation struct {
	types.AugmentationInfo
	AggFunctions map[string][]Function `json:"agg_functions,omitempty"`
}

// Task is the payload of the augment endpoint's "task" field.
type Task struct {
	ID           string           `json:"id"`
	Score        float64          `json:"score"`
	Metadata     types.Metadata   `json:"metadata"`
	Augmentation TaskAugmentation `json:"augmentation"`
}

// BuildTask builds the augment payload for hit restricted to the selected
// correspondences. A join with several correspondences needs at least one
// selected; otherwise an empty selection means "all of them".
func BuildTask(hit types.SearchResult, sel Selection) (Task, error) {
	kind := hit.AugmentationType()
	if kind == types.AugmentationNone {
		return Task{}, fmt.Errorf("dataset %s: %w", hit.ID, ErrNotAugmentable)
	}
	aug := hit.Augmentation

	var available, selected []int
	for i := range aug.Len() {
		if !aug.Defined(i) {
			continue
		}
		available = append(available, i)
		if i < len(sel.Mask) && sel.Mask[i] {
			selected = append(selected, i)
		}
	}
	if len(available) == 0 {
		return Task{}, fmt.Errorf("dataset %s has no correspondences: %w", hit.ID, ErrNotAugmentable)
	}
	if len(selected) == 0 {
		if kind == types.AugmentationJoin && len(available) > 1 {
			return Task{}, fmt.Errorf("dataset %s offers %d join correspondences: %w", hit.ID, len(available), ErrNoColumnsSelected)
		}
		selected = available
	}

	out := TaskAugmentation{AugmentationInfo: types.AugmentationInfo{
		Type:               kind,
		TemporalResolution: aug.TemporalResolution,
	}}
	for _, i := range selected {
		out.LeftColumns = append(out.LeftColumns, slices.Clone(aug.LeftColumns[i]))
		out.LeftColumnsNames = append(out.LeftColumnsNames, slices.Clone(aug.LeftColumnsNames[i]))
		out.RightColumns = append(out.RightColumns, slices.Clone(aug.RightColumns[i]))
		out.RightColumnsNames = append(out.RightColumnsNames, slices.Clone(aug.RightColumnsNames[i]))
	}

	if len(sel.Aggregations) > 0 {
		if kind != types.AugmentationJoin {
			return Task{}, fmt.Errorf("aggregations need a join, got %s: %w", kind, ErrInvalidAggregation)
		}
		agg, err := aggregationMap(hit.Metadata, sel.Aggregations)
		if err != nil {
			return Task{}, err
		}
		out.AggFunctions = agg
	}

	return Task{
		ID:           hit.ID,
		Score:        hit.Score,
		Metadata:     hit.Metadata,
		Augmentation: out,
	}, nil
}

func aggregationMap(meta types.Metadata, aggs []ColumnAggregation) (map[string][]Function, error) {
	out := make(map[string][]Function)
	for _, a := range aggs {
		col, ok := meta.Column(a.Column)
		if !ok {
			return nil, fmt.Errorf("column %q: not in dataset: %w", a.Column, ErrInvalidAggregation)
		}
		applicable := FunctionsFor(col)
		fns := a.Functions
		if a.All {
			fns = applicable
		}
		for _, f := range fns {
			if !slices.Contains(applicable, f) {
				return nil, fmt.Errorf("column %q: function %q does not apply: %w", a.Column, f, ErrInvalidAggregation)
			}
			if !slices.Contains(out[a.Column], f) {
				out[a.Column] = append(out[a.Column], f)
			}
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// ParseFunction validates a function name.
func ParseFunction(s string) (Function, error) {
	f := Function(s)
	if !slices.Contains(numericFunctions, f) {
		return "", fmt.Errorf("unknown function %q: %w", s, ErrInvalidAggregation)
	}
	return f, nil
}
