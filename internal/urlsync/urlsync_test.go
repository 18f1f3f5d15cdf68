// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package urlsync

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/query"
)

func sampleSpec() query.Spec {
	return query.Spec{
		Keywords: []string{"taxi"},
		Variables: query.Variables{
			query.TemporalVariable{Start: "2019-01-01", End: "2019-02-01"},
		},
		Source: []string{"nyc.gov"},
	}
}

func TestToURLStable(t *testing.T) {
	a, err := ToURL(sampleSpec(), nil)
	require.NoError(t, err)
	b, err := ToURL(sampleSpec(), nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, '?', rune(a[0]))

	v, err := url.ParseQuery(a[1:])
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"keywords":["taxi"],"variables":[{"type":"temporal_variable","start":"2019-01-01","end":"2019-02-01"}],"source":["nyc.gov"]}`,
		v.Get("q"))
	assert.False(t, v.Has("session"))
}

func TestURLRoundTrip(t *testing.T) {
	sess := &Session{ID: "s1", Format: "csv", FormatOptions: map[string]any{"delimiter": ";"}}
	u, err := ToURL(sampleSpec(), sess)
	require.NoError(t, err)

	loc, err := FromURL(u)
	require.NoError(t, err)
	require.NotNil(t, loc.Query)
	assert.True(t, sampleSpec().Equal(*loc.Query))
	assert.Equal(t, "taxi", loc.Parsed.Keywords)
	assert.Equal(t, 2, loc.Parsed.Filters.Len())
	require.NotNil(t, loc.Session)
	assert.Equal(t, "s1", loc.Session.ID)

	again, err := ToURL(query.Build(loc.Parsed.State()), loc.Session)
	require.NoError(t, err)
	assert.Equal(t, u, again, "replaying an address reproduces it exactly")
}

func TestFromURLWithoutQuery(t *testing.T) {
	loc, err := FromURL("")
	require.NoError(t, err)
	assert.Nil(t, loc.Query)
	assert.Nil(t, loc.Session)
	assert.Equal(t, 0, loc.Parsed.Filters.Len())

	loc, err = FromURL("?other=1")
	require.NoError(t, err)
	assert.Nil(t, loc.Query)
}

func TestFromURLMalformed(t *testing.T) {
	for _, in := range []string{
		"?q=%7Bnot-json",
		"?q=" + url.QueryEscape(`{"variables":[{"type":"mystery"}]}`),
		"?session=" + url.QueryEscape(`{"format":"csv"}`),
		"?session=%7B",
		"?q=%zz",
	} {
		_, err := FromURL(in)
		assert.ErrorIs(t, err, query.ErrMalformedQuery, in)
	}
}

func TestSessionFileWins(t *testing.T) {
	spec := sampleSpec()
	spec.RelatedFile = &query.RelatedFileRef{Kind: query.RelatedSearchResult, DatasetID: "other", Name: "Other"}
	spec.Variables = append(spec.Variables, query.TabularVariable{Columns: []int{1}, Relationship: "contains"})
	spec.AugmentationType = query.AugmentationJoin

	u, err := ToURL(spec, &Session{ID: "s1", DataToken: "tok-123", SystemName: "Modeler"})
	require.NoError(t, err)

	loc, err := FromURL(u)
	require.NoError(t, err)
	e, ok := loc.Parsed.Filters.Find(filter.RelatedFile)
	require.True(t, ok)
	f, ok := e.Value.(filter.LocalFile)
	require.True(t, ok)
	assert.Equal(t, "tok-123", f.Token)
	assert.Equal(t, "Modeler input", f.Name)
	require.NotNil(t, f.Tabular)
	assert.Equal(t, []int{1}, f.Tabular.Columns)

	var related int
	for _, e := range loc.Parsed.Filters.Entries() {
		if e.Kind == filter.RelatedFile {
			related++
		}
	}
	assert.Equal(t, 1, related)
}

func TestSessionWithoutQueryBindsFile(t *testing.T) {
	u, err := SessionURL(Session{ID: "s1", DataToken: "tok"})
	require.NoError(t, err)
	loc, err := FromURL(u)
	require.NoError(t, err)
	assert.Nil(t, loc.Query)
	_, ok := loc.Parsed.Filters.Find(filter.RelatedFile)
	assert.True(t, ok)
}

func TestAugmentParams(t *testing.T) {
	s := &Session{ID: "s1", Format: "d3m", FormatOptions: map[string]any{"version": "4.0.0", "need_d3mindex": true}}
	assert.Equal(t, "format=d3m&format_need_d3mindex=true&format_version=4.0.0&session_id=s1", s.AugmentParams().Encode())

	var none *Session
	assert.Empty(t, none.AugmentParams())
}
