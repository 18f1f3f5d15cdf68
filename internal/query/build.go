// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query converts filter state into the canonical query the service
// accepts, and parses canonical queries back into filter state.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/geo"
)

const dateFmt = "2006-01-02"

// State is the user-edited input to Build.
type State struct {
	Keywords string
	// Terms, when non-nil, are the keywords used verbatim instead of
	// splitting Keywords. Parse sets them so terms containing separators
	// survive a round trip.
	Terms   []string
	Filters filter.Set
	// AugmentationType is used when a related file is present. Empty means join.
	AugmentationType AugmentationType
}

// Parsed is the filter state reconstructed from a query. Entry ids are
// fresh and never match a previous session.
type Parsed struct {
	// Keywords is the display form of Terms.
	Keywords         string
	Terms            []string
	Filters          filter.Set
	AugmentationType AugmentationType
}

// State returns the parsed query as builder input.
func (p Parsed) State() State {
	return State{
		Keywords:         p.Keywords,
		Terms:            slices.Clone(p.Terms),
		Filters:          p.Filters,
		AugmentationType: p.AugmentationType,
	}
}

func isKeywordSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '+'
}

// SplitKeywords splits free text on runs of whitespace, commas and plus
// signs. Blank input yields an empty, non-nil slice.
func SplitKeywords(s string) []string {
	kw := strings.FieldsFunc(s, isKeywordSeparator)
	if kw == nil {
		return []string{}
	}
	return kw
}

// Build derives the canonical query from the given state. Variables keep
// filter entry order, with the related file's tabular variable last.
func Build(st State) Spec {
	spec := Spec{
		Keywords:  SplitKeywords(st.Keywords),
		Variables: Variables{},
	}
	if st.Terms != nil {
		spec.Keywords = slices.Clone(st.Terms)
	}

	var related filter.RelatedFileValue
	for _, e := range st.Filters.Entries() {
		switch v := e.Value.(type) {
		case nil:
		case filter.TemporalValue:
			if v.IsSet() {
				spec.Variables = append(spec.Variables, temporalVariable(v))
			}
		case filter.GeoSpatialValue:
			spec.Variables = append(spec.Variables, GeoSpatialVariable{
				Latitude1:  v.Box.Latitude1,
				Longitude1: v.Box.Longitude1,
				Latitude2:  v.Box.Latitude2,
				Longitude2: v.Box.Longitude2,
			})
		case filter.RelatedFileValue:
			related = v
		case filter.SourceValue:
			if len(v.Checked) > 0 {
				spec.Source = slices.Clone(v.Checked)
			}
		case filter.DatasetTypeValue:
			if len(v.Checked) > 0 {
				spec.Types = slices.Clone(v.Checked)
			}
		}
	}

	if related != nil {
		if t := related.Columns(); t != nil {
			rel := t.Relationship
			if rel == "" {
				rel = filter.RelationshipContains
			}
			spec.Variables = append(spec.Variables, TabularVariable{
				Columns:      slices.Clone(t.Columns),
				Relationship: rel,
			})
		}
		spec.AugmentationType = st.AugmentationType
		if spec.AugmentationType == "" {
			spec.AugmentationType = AugmentationJoin
		}
		spec.RelatedFile = relatedRef(related)
	}
	return spec
}

func temporalVariable(v filter.TemporalValue) TemporalVariable {
	var tv TemporalVariable
	if !v.Start.IsZero() {
		tv.Start = v.Start.Format(dateFmt)
	}
	if !v.End.IsZero() {
		tv.End = v.End.Format(dateFmt)
	}
	tv.Granularity = string(v.Granularity)
	return tv
}

func relatedRef(v filter.RelatedFileValue) *RelatedFileRef {
	switch f := v.(type) {
	case filter.LocalFile:
		return &RelatedFileRef{Kind: RelatedLocalFile, Token: f.Token, Name: f.Name, Size: f.Size}
	case filter.SearchResultFile:
		return &RelatedFileRef{Kind: RelatedSearchResult, DatasetID: f.DatasetID, Name: f.Name}
	}
	return nil
}

// Value converts the reference back into a filter value.
func (r RelatedFileRef) Value() (filter.RelatedFileValue, error) {
	switch r.Kind {
	case RelatedLocalFile:
		if r.Token == "" {
			return nil, fmt.Errorf("related file %q has no token: %w", r.Name, ErrMalformedQuery)
		}
		return filter.LocalFile{Token: r.Token, Name: r.Name, Size: r.Size}, nil
	case RelatedSearchResult:
		if r.DatasetID == "" {
			return nil, fmt.Errorf("related dataset %q has no id: %w", r.Name, ErrMalformedQuery)
		}
		return filter.SearchResultFile{DatasetID: r.DatasetID, Name: r.Name}, nil
	}
	return nil, fmt.Errorf("unknown related file kind %q: %w", r.Kind, ErrMalformedQuery)
}

// Parse reconstructs filter state from a query. Every variable becomes one
// visible filter entry; unknown variables are rejected.
func Parse(spec Spec) (Parsed, error) {
	var (
		set     filter.Set
		tabular *filter.Tabular
	)
	add := func(kind filter.Kind, v filter.Value) error {
		var err error
		set, _, err = set.Add(kind, v)
		return err
	}

	for i, variable := range spec.Variables {
		switch v := variable.(type) {
		case TemporalVariable:
			tv, err := parseTemporal(v)
			if err != nil {
				return Parsed{}, fmt.Errorf("variable %d: %w", i, err)
			}
			if !tv.IsSet() {
				return Parsed{}, fmt.Errorf("variable %d: temporal variable without start or end: %w", i, ErrMalformedQuery)
			}
			if err := add(filter.Temporal, tv); err != nil {
				return Parsed{}, err
			}
		case GeoSpatialVariable:
			box := geo.BoundingBox{
				Latitude1:  v.Latitude1,
				Longitude1: v.Longitude1,
				Latitude2:  v.Latitude2,
				Longitude2: v.Longitude2,
			}
			if !box.Valid() {
				return Parsed{}, fmt.Errorf("variable %d: invalid bounding box: %w", i, ErrMalformedQuery)
			}
			if err := add(filter.GeoSpatial, filter.GeoSpatialValue{Box: box}); err != nil {
				return Parsed{}, err
			}
		case TabularVariable:
			if tabular != nil {
				return Parsed{}, fmt.Errorf("variable %d: more than one tabular variable: %w", i, ErrMalformedQuery)
			}
			if v.Relationship != "" && v.Relationship != filter.RelationshipContains {
				return Parsed{}, fmt.Errorf("variable %d: unknown relationship %q: %w", i, v.Relationship, ErrMalformedQuery)
			}
			tabular = &filter.Tabular{Columns: slices.Clone(v.Columns), Relationship: filter.RelationshipContains}
		default:
			return Parsed{}, fmt.Errorf("variable %d: unsupported variable %T: %w", i, variable, ErrMalformedQuery)
		}
	}

	switch {
	case spec.RelatedFile != nil:
		rf, err := spec.RelatedFile.Value()
		if err != nil {
			return Parsed{}, err
		}
		if tabular != nil {
			rf = rf.WithColumns(tabular)
		}
		if err := add(filter.RelatedFile, rf); err != nil {
			return Parsed{}, err
		}
	case tabular != nil:
		return Parsed{}, fmt.Errorf("tabular variable without related file: %w", ErrMalformedQuery)
	}

	if len(spec.Source) > 0 {
		if err := add(filter.Source, filter.SourceValue{Checked: slices.Clone(spec.Source)}); err != nil {
			return Parsed{}, err
		}
	}
	if len(spec.Types) > 0 {
		if err := add(filter.DatasetType, filter.DatasetTypeValue{Checked: slices.Clone(spec.Types)}); err != nil {
			return Parsed{}, err
		}
	}

	switch spec.AugmentationType {
	case "", AugmentationJoin, AugmentationUnion:
	default:
		return Parsed{}, fmt.Errorf("unknown augmentation type %q: %w", spec.AugmentationType, ErrMalformedQuery)
	}
	// Build sets augmentation_type if and only if there is a related file.
	switch {
	case spec.RelatedFile == nil && spec.AugmentationType != "":
		return Parsed{}, fmt.Errorf("augmentation type %q without related file: %w", spec.AugmentationType, ErrMalformedQuery)
	case spec.RelatedFile != nil && spec.AugmentationType == "":
		return Parsed{}, fmt.Errorf("related file without augmentation type: %w", ErrMalformedQuery)
	}

	terms := slices.Clone(spec.Keywords)
	if terms == nil {
		terms = []string{}
	}
	return Parsed{
		Keywords:         strings.Join(terms, " "),
		Terms:            terms,
		Filters:          set,
		AugmentationType: spec.AugmentationType,
	}, nil
}

func parseTemporal(v TemporalVariable) (filter.TemporalValue, error) {
	var tv filter.TemporalValue
	if v.Start != "" {
		t, err := time.Parse(dateFmt, v.Start)
		if err != nil {
			return tv, fmt.Errorf("invalid start %q: %v: %w", v.Start, err, ErrMalformedQuery)
		}
		tv.Start = t
	}
	if v.End != "" {
		t, err := time.Parse(dateFmt, v.End)
		if err != nil {
			return tv, fmt.Errorf("invalid end %q: %v: %w", v.End, err, ErrMalformedQuery)
		}
		tv.End = t
	}
	g, err := filter.ParseGranularity(v.Granularity)
	if err != nil {
		return tv, fmt.Errorf("%v: %w", err, ErrMalformedQuery)
	}
	tv.Granularity = g
	return tv, nil
}

// ParseJSON decodes and parses a JSON query in one step.
func ParseJSON(data []byte) (Spec, Parsed, error) {
	spec, err := Decode(data)
	if err != nil {
		return Spec{}, Parsed{}, err
	}
	parsed, err := Parse(spec)
	if err != nil {
		return Spec{}, Parsed{}, err
	}
	return spec, parsed, nil
}
