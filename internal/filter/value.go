// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"fmt"
	"time"

	"github.com/pdiddy/datasearch/internal/geo"
)

// Kind identifies the type of a filter entry.
type Kind int

const (
	Temporal Kind = iota + 1
	GeoSpatial
	RelatedFile
	Source
	DatasetType
)

// String returns the kind name used in logs and CLI output.
func (k Kind) String() string {
	switch k {
	case Temporal:
		return "temporal"
	case GeoSpatial:
		return "geospatial"
	case RelatedFile:
		return "related_file"
	case Source:
		return "source"
	case DatasetType:
		return "dataset_type"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Singleton reports whether at most one entry of this kind may exist.
func (k Kind) Singleton() bool {
	return k == RelatedFile || k == Source || k == DatasetType
}

// Value is the payload of a filter entry. The set of implementations is
// closed: only the types in this package satisfy it.
type Value interface {
	Kind() Kind
	sealed()
}

// Granularity is the temporal resolution of a temporal filter.
type Granularity string

const (
	GranularityNone    Granularity = ""
	GranularityYear    Granularity = "year"
	GranularityQuarter Granularity = "quarter"
	GranularityMonth   Granularity = "month"
	GranularityWeek    Granularity = "week"
	GranularityDay     Granularity = "day"
	GranularityHour    Granularity = "hour"
	GranularityMinute  Granularity = "minute"
	GranularitySecond  Granularity = "second"
)

// ParseGranularity validates a granularity name. The empty string is
// accepted and means "unspecified".
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityNone, GranularityYear, GranularityQuarter, GranularityMonth,
		GranularityWeek, GranularityDay, GranularityHour, GranularityMinute, GranularitySecond:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// TemporalValue bounds results by date. Zero times are absent bounds.
type TemporalValue struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

func (TemporalValue) Kind() Kind { return Temporal }
func (TemporalValue) sealed()    {}

// IsSet reports whether at least one bound is present. Entries without
// bounds do not contribute to a query.
func (v TemporalValue) IsSet() bool {
	return !v.Start.IsZero() || !v.End.IsZero()
}

// GeoSpatialValue restricts results to a bounding box.
type GeoSpatialValue struct {
	Box geo.BoundingBox
}

func (GeoSpatialValue) Kind() Kind { return GeoSpatial }
func (GeoSpatialValue) sealed()    {}

// SourceValue holds the checked set of dataset sources.
type SourceValue struct {
	Checked []string
}

func (SourceValue) Kind() Kind { return Source }
func (SourceValue) sealed()    {}

// DatasetTypeValue holds the checked set of dataset types.
type DatasetTypeValue struct {
	Checked []string
}

func (DatasetTypeValue) Kind() Kind { return DatasetType }
func (DatasetTypeValue) sealed()    {}
