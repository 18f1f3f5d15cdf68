// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datasearch/internal/geo"
)

func TestAddRepeatableKinds(t *testing.T) {
	var s Set
	s1, id1, err := s.Add(Temporal, nil)
	require.NoError(t, err)
	s2, id2, err := s1.Add(Temporal, TemporalValue{Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 0, s.Len(), "receiver must not change")
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 2, s2.Len())
}

func TestAddSingletonKeepsExisting(t *testing.T) {
	var s Set
	s, id, err := s.Add(Source, SourceValue{Checked: []string{"worldbank.org"}})
	require.NoError(t, err)

	s2, id2, err := s.Add(Source, SourceValue{Checked: []string{"data.gov"}})
	require.NoError(t, err)

	assert.Equal(t, id, id2)
	assert.Equal(t, 1, s2.Len())
	e, ok := s2.Get(id)
	require.True(t, ok)
	assert.Equal(t, SourceValue{Checked: []string{"worldbank.org"}}, e.Value)
}

func TestAddKindMismatch(t *testing.T) {
	var s Set
	_, _, err := s.Add(Temporal, GeoSpatialValue{})
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestUpdate(t *testing.T) {
	var s Set
	s, id, err := s.Add(GeoSpatial, nil)
	require.NoError(t, err)

	box := geo.BoundingBox{Latitude1: 10, Longitude1: -10, Latitude2: -10, Longitude2: 10}
	s2, err := s.Update(id, GeoSpatialValue{Box: box})
	require.NoError(t, err)

	orig, _ := s.Get(id)
	assert.Nil(t, orig.Value, "original snapshot keeps its value")
	got, _ := s2.Get(id)
	assert.Equal(t, GeoSpatialValue{Box: box}, got.Value)

	_, err = s2.Update(id, TemporalValue{})
	assert.ErrorIs(t, err, ErrKindMismatch)
	_, err = s2.Update("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAndHide(t *testing.T) {
	var s Set
	s, a, _ := s.Add(Temporal, nil)
	s, b, _ := s.Add(GeoSpatial, nil)
	s, c, _ := s.Add(Temporal, nil)

	hidden := s.HideAll()
	for _, e := range hidden.Entries() {
		assert.True(t, e.Hidden)
	}
	for _, e := range s.Entries() {
		assert.False(t, e.Hidden)
	}

	shown := hidden.SetHidden(b, false)
	e, _ := shown.Get(b)
	assert.False(t, e.Hidden)

	removed := s.Remove(b)
	require.Equal(t, 2, removed.Len())
	ids := []string{removed.Entries()[0].ID, removed.Entries()[1].ID}
	assert.Equal(t, []string{a, c}, ids)
	_, ok := removed.Get(c)
	assert.True(t, ok, "index is rebuilt after removal")

	assert.Equal(t, 1, s.RemoveKind(Temporal).Len())
	assert.Equal(t, 3, s.Remove("nope").Len())
}

func TestRelatedFileWithColumns(t *testing.T) {
	f := LocalFile{Token: "abc", Name: "taxi.csv"}
	g := f.WithColumns(&Tabular{Columns: []int{0, 2}, Relationship: RelationshipContains})

	assert.Nil(t, f.Columns())
	assert.Equal(t, []int{0, 2}, g.Columns().Columns)
	assert.Equal(t, "taxi.csv", g.Label())
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("month")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)

	_, err = ParseGranularity("fortnight")
	assert.Error(t, err)
}
