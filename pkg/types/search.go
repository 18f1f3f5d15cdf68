// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures exchanged with the dataset
// search service and shared across datasearch packages.
package types

import (
	"bytes"
	"encoding/json"
	"slices"
)

// AugmentationKind describes how a candidate dataset relates to the
// user's related file.
type AugmentationKind string

const (
	AugmentationNone  AugmentationKind = "none"
	AugmentationJoin  AugmentationKind = "join"
	AugmentationUnion AugmentationKind = "union"
)

// SearchResult is one ranked hit returned by the service.
type SearchResult struct {
	// ID is the dataset identifier assigned by the service.
	ID string `json:"id" yaml:"id"`

	// Score is the server-side ranking score.
	Score float64 `json:"score" yaml:"score"`

	// Metadata describes the dataset.
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// Augmentation describes how the dataset can be joined or unioned with
	// the related file. Nil when the query had no related file.
	Augmentation *AugmentationInfo `json:"augmentation,omitempty" yaml:"augmentation,omitempty"`

	// Sample holds the first rows of the dataset as parsed text cells.
	Sample [][]string `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// AugmentationType returns the augmentation kind, treating a missing
// augmentation as "none".
func (r SearchResult) AugmentationType() AugmentationKind {
	if r.Augmentation == nil || r.Augmentation.Type == "" {
		return AugmentationNone
	}
	return r.Augmentation.Type
}

// AugmentationInfo lists candidate column correspondences. The four
// column slices are parallel: entry i across all of them describes one
// correspondence between a group of query columns (left) and a group of
// candidate columns (right).
type AugmentationInfo struct {
	Type               AugmentationKind `json:"type" yaml:"type"`
	LeftColumns        [][]int          `json:"left_columns" yaml:"left_columns"`
	LeftColumnsNames   [][]string       `json:"left_columns_names" yaml:"left_columns_names"`
	RightColumns       [][]int          `json:"right_columns" yaml:"right_columns"`
	RightColumnsNames  [][]string       `json:"right_columns_names" yaml:"right_columns_names"`
	TemporalResolution string           `json:"temporal_resolution,omitempty" yaml:"temporal_resolution,omitempty"`
}

// Len returns the number of correspondences, counting an index only when
// it is present in all four slices.
func (a *AugmentationInfo) Len() int {
	if a == nil {
		return 0
	}
	return min(len(a.LeftColumns), len(a.LeftColumnsNames), len(a.RightColumns), len(a.RightColumnsNames))
}

// Defined reports whether correspondence i is present in all four slices.
// A null entry is missing; an empty group or column index 0 is not.
func (a *AugmentationInfo) Defined(i int) bool {
	if a == nil || i < 0 {
		return false
	}
	return i < len(a.LeftColumns) && a.LeftColumns[i] != nil &&
		i < len(a.LeftColumnsNames) && a.LeftColumnsNames[i] != nil &&
		i < len(a.RightColumns) && a.RightColumns[i] != nil &&
		i < len(a.RightColumnsNames) && a.RightColumnsNames[i] != nil
}

// Clone returns a deep copy.
func (a *AugmentationInfo) Clone() *AugmentationInfo {
	if a == nil {
		return nil
	}
	c := *a
	c.LeftColumns = cloneGroups(a.LeftColumns)
	c.LeftColumnsNames = cloneGroups(a.LeftColumnsNames)
	c.RightColumns = cloneGroups(a.RightColumns)
	c.RightColumnsNames = cloneGroups(a.RightColumnsNames)
	return &c
}

func cloneGroups[T any](groups [][]T) [][]T {
	if groups == nil {
		return nil
	}
	out := make([][]T, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}

// Structural types the service assigns to columns.
const (
	TypeInteger = "http://schema.org/Integer"
	TypeFloat   = "http://schema.org/Float"
	TypeText    = "http://schema.org/Text"
)

// Column describes one dataset column.
type Column struct {
	Name           string   `json:"name" yaml:"name"`
	StructuralType string   `json:"structural_type" yaml:"structural_type"`
	SemanticTypes  []string `json:"semantic_types,omitempty" yaml:"semantic_types,omitempty"`
}

// IsNumeric reports whether the column holds numbers.
func (c Column) IsNumeric() bool {
	return c.StructuralType == TypeInteger || c.StructuralType == TypeFloat
}

// Metadata describes a dataset. Fields the client does not model are
// preserved: a decoded Metadata re-encodes to the exact JSON it was
// decoded from, so task payloads echo the service's own metadata.
type Metadata struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	Size        int64    `json:"size,omitempty" yaml:"size,omitempty"`
	NbRows      int64    `json:"nb_rows,omitempty" yaml:"nb_rows,omitempty"`
	Types       []string `json:"types,omitempty" yaml:"types,omitempty"`
	Columns     []Column `json:"columns,omitempty" yaml:"columns,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the modeled fields and keeps the original bytes.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Metadata(p)
	if !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		m.raw = bytes.Clone(data)
	}
	return nil
}

// MarshalJSON returns the original bytes when the value was decoded.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	type plain Metadata
	return json.Marshal(plain(m))
}

// Column returns the column with the given name.
func (m Metadata) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Facet holds per-value bucket counts for one filter.
type Facet struct {
	Buckets    map[string]int `json:"buckets" yaml:"buckets"`
	Incomplete bool           `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Results []SearchResult   `json:"results"`
	Total   int              `json:"total,omitempty"`
	Facets  map[string]Facet `json:"facets,omitempty"`
}

// RecentDiscovery is a recently indexed dataset.
type RecentDiscovery struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Discovered string `json:"discovered,omitempty"`
}

// Statistics is the body of the status endpoint.
type Statistics struct {
	RecentDiscoveries []RecentDiscovery          `json:"recent_discoveries"`
	SourcesCounts     map[string]int             `json:"sources_counts"`
	CustomFields      map[string]json.RawMessage `json:"custom_fields,omitempty"`
}
