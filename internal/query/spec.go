// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrMalformedQuery is returned when a query cannot be decoded or contains
// values the client does not understand.
var ErrMalformedQuery = errors.New("malformed query")

// Variable type tags on the wire.
const (
	TypeTemporal   = "temporal_variable"
	TypeGeoSpatial = "geospatial_variable"
	TypeTabular    = "tabular_variable"
)

// AugmentationType selects how candidate datasets relate to the related file.
type AugmentationType string

const (
	AugmentationJoin  AugmentationType = "join"
	AugmentationUnion AugmentationType = "union"
)

// Spec is the canonical query sent to the service and stored in the
// address bar. It is derived from filter state and never edited in place.
type Spec struct {
	Keywords         []string         `json:"keywords"`
	Variables        Variables        `json:"variables"`
	Source           []string         `json:"source,omitempty"`
	Types            []string         `json:"types,omitempty"`
	AugmentationType AugmentationType `json:"augmentation_type,omitempty"`

	// RelatedFile only travels in the address bar; the service receives the
	// file out of band as a multipart field.
	RelatedFile *RelatedFileRef `json:"related_file,omitempty"`
}

// RelatedFileRef identifies the related file in the address bar.
type RelatedFileRef struct {
	Kind      string `json:"kind"`
	Token     string `json:"token,omitempty"`
	DatasetID string `json:"datasetId,omitempty"`
	Name      string `json:"name"`
	Size      int64  `json:"size,omitempty"`
}

// Related file kinds.
const (
	RelatedLocalFile    = "localFile"
	RelatedSearchResult = "searchResult"
)

// Variable is one typed constraint in a query.
type Variable interface {
	VariableType() string
}

// TemporalVariable bounds results by date ("2006-01-02").
type TemporalVariable struct {
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// GeoSpatialVariable bounds results by a top-left / bottom-right box.
type GeoSpatialVariable struct {
	Latitude1  float64 `json:"latitude1"`
	Longitude1 float64 `json:"longitude1"`
	Latitude2  float64 `json:"latitude2"`
	Longitude2 float64 `json:"longitude2"`
}

// TabularVariable restricts the related file to a subset of its columns.
type TabularVariable struct {
	Columns      []int  `json:"columns"`
	Relationship string `json:"relationship"`
}

func (TemporalVariable) VariableType() string   { return TypeTemporal }
func (GeoSpatialVariable) VariableType() string { return TypeGeoSpatial }
func (TabularVariable) VariableType() string    { return TypeTabular }

func (v TemporalVariable) String() string {
	start, end := v.Start, v.End
	if start == "" {
		start = "*"
	}
	if end == "" {
		end = "*"
	}
	if v.Granularity == "" {
		return fmt.Sprintf("temporal %s..%s", start, end)
	}
	return fmt.Sprintf("temporal %s..%s by %s", start, end, v.Granularity)
}

func (v GeoSpatialVariable) String() string {
	return fmt.Sprintf("geospatial (%g, %g) to (%g, %g)", v.Latitude1, v.Longitude1, v.Latitude2, v.Longitude2)
}

func (v TabularVariable) String() string {
	return fmt.Sprintf("tabular columns %v %s", v.Columns, v.Relationship)
}

func (v TemporalVariable) MarshalJSON() ([]byte, error) {
	type plain TemporalVariable
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeTemporal, plain(v)})
}

func (v GeoSpatialVariable) MarshalJSON() ([]byte, error) {
	type plain GeoSpatialVariable
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeGeoSpatial, plain(v)})
}

func (v TabularVariable) MarshalJSON() ([]byte, error) {
	type plain TabularVariable
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeTabular, plain(v)})
}

// Variables is the ordered variable list. It decodes the "type" tag into
// the matching concrete Variable.
type Variables []Variable

// MarshalJSON encodes a nil list as [].
func (vs Variables) MarshalJSON() ([]byte, error) {
	if vs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Variable(vs))
}

// UnmarshalJSON decodes tagged variables, rejecting unknown types.
func (vs *Variables) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Variables, 0, len(raw))
	for i, r := range raw {
		var tag struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(r, &tag); err != nil {
			return fmt.Errorf("variable %d: %w", i, err)
		}
		var v Variable
		var err error
		switch tag.Type {
		case TypeTemporal:
			var t TemporalVariable
			err = json.Unmarshal(r, &t)
			v = t
		case TypeGeoSpatial:
			var g GeoSpatialVariable
			err = json.Unmarshal(r, &g)
			v = g
		case TypeTabular:
			var t TabularVariable
			err = json.Unmarshal(r, &t)
			v = t
		default:
			return fmt.Errorf("variable %d: unknown type %q: %w", i, tag.Type, ErrMalformedQuery)
		}
		if err != nil {
			return fmt.Errorf("variable %d: %w", i, err)
		}
		out = append(out, v)
	}
	*vs = out
	return nil
}

// Decode parses a JSON query. Any failure wraps ErrMalformedQuery.
func Decode(data []byte) (Spec, error) {
	var s Spec
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, ErrMalformedQuery) {
			return Spec{}, err
		}
		return Spec{}, fmt.Errorf("decoding query: %v: %w", err, ErrMalformedQuery)
	}
	if s.Keywords == nil {
		s.Keywords = []string{}
	}
	if s.Variables == nil {
		s.Variables = Variables{}
	}
	return s, nil
}

// Encode returns the address-bar JSON form of the query, including the
// related file reference.
func (s Spec) Encode() ([]byte, error) {
	if s.Keywords == nil {
		s.Keywords = []string{}
	}
	return json.Marshal(s)
}

// WireJSON returns the JSON sent in the multipart "query" field. The
// related file is omitted because it travels in its own field.
func (s Spec) WireJSON() ([]byte, error) {
	s.RelatedFile = nil
	return s.Encode()
}

// Equal reports whether two queries are equivalent. Variable order is
// ignored; nil and empty lists compare equal.
func (s Spec) Equal(o Spec) bool {
	if !slices.Equal(s.Keywords, o.Keywords) ||
		!slices.Equal(s.Source, o.Source) ||
		!slices.Equal(s.Types, o.Types) ||
		s.AugmentationType != o.AugmentationType {
		return false
	}
	if (s.RelatedFile == nil) != (o.RelatedFile == nil) {
		return false
	}
	if s.RelatedFile != nil && *s.RelatedFile != *o.RelatedFile {
		return false
	}
	a, errA := canonicalVariables(s.Variables)
	b, errB := canonicalVariables(o.Variables)
	return errA == nil && errB == nil && slices.Equal(a, b)
}

func canonicalVariables(vs Variables) ([]string, error) {
	out := make([]string, len(vs))
	for i, v := range vs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[i] = string(b)
	}
	sort.Strings(out)
	return out, nil
}

// Describe returns one human-readable line per constraint, in query order.
func (s Spec) Describe() []string {
	var out []string
	if len(s.Keywords) > 0 {
		out = append(out, "keywords "+strings.Join(s.Keywords, " "))
	}
	for _, v := range s.Variables {
		out = append(out, fmt.Sprint(v))
	}
	if s.RelatedFile != nil {
		out = append(out, fmt.Sprintf("related %s %q (%s)", s.RelatedFile.Kind, s.RelatedFile.Name, s.AugmentationType))
	}
	if len(s.Source) > 0 {
		out = append(out, "source "+strings.Join(s.Source, ", "))
	}
	if len(s.Types) > 0 {
		out = append(out, "type "+strings.Join(s.Types, ", "))
	}
	return out
}
