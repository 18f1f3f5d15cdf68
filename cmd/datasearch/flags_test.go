// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datasearch/internal/augment"
	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/geo"
)

func TestTemporalFlag(t *testing.T) {
	tests := []struct {
		name            string
		from, to, gran  string
		wantSet         bool
		wantErr         bool
		wantStart       time.Time
		wantGranularity filter.Granularity
	}{
		{name: "unset"},
		{name: "from only", from: "2020-03-01", wantSet: true, wantStart: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "granularity only", gran: "month", wantSet: true, wantGranularity: filter.GranularityMonth},
		{name: "bad date", from: "03/01/2020", wantErr: true},
		{name: "reversed", from: "2020-03-01", to: "2020-01-01", wantErr: true},
		{name: "bad granularity", gran: "fortnight", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := temporalFlag(tt.from, tt.to, tt.gran)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, ok)
			assert.True(t, tt.wantStart.Equal(v.Start))
			assert.Equal(t, tt.wantGranularity, v.Granularity)
		})
	}
}

func TestParseBBox(t *testing.T) {
	box, err := parseBBox("40.5, -73.7, 40.9, -74.3")
	require.NoError(t, err)
	assert.Equal(t, geo.BoundingBox{Latitude1: 40.9, Longitude1: -74.3, Latitude2: 40.5, Longitude2: -73.7}, box)

	_, err = parseBBox("1,2,3")
	assert.Error(t, err)
	_, err = parseBBox("1,2,3,x")
	assert.Error(t, err)
}

func TestParseIndexesAndMask(t *testing.T) {
	got, err := parseIndexes("3, 1,3,")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, got)

	mask, err := selectionMask(got)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, mask)

	mask, err = selectionMask(nil)
	require.NoError(t, err)
	assert.Nil(t, mask)

	_, err = selectionMask([]int{0})
	assert.Error(t, err)
	_, err = parseIndexes("1,-2")
	assert.Error(t, err)
}

func TestParseAggregation(t *testing.T) {
	agg, err := parseAggregation("fare=mean, max")
	require.NoError(t, err)
	assert.Equal(t, augment.ColumnAggregation{Column: "fare", Functions: []augment.Function{augment.Mean, augment.Max}}, agg)

	agg, err = parseAggregation("name=all")
	require.NoError(t, err)
	assert.True(t, agg.All)

	for _, bad := range []string{"fare", "=mean", "fare=", "fare=median"} {
		_, err := parseAggregation(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSession(t *testing.T) {
	s, err := parseSession(`{"session_id":"s1","format":"csv"}`)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "csv", s.Format)

	_, err = parseSession(`{"format":"csv"}`)
	assert.Error(t, err)
	_, err = parseSession(`nope`)
	assert.Error(t, err)
}
