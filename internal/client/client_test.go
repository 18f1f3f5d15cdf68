// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datasearch/internal/augment"
	"github.com/pdiddy/datasearch/internal/client"
	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/geo"
	"github.com/pdiddy/datasearch/internal/httputil"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/searchtest"
	"github.com/pdiddy/datasearch/internal/urlsync"
	"github.com/pdiddy/datasearch/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newClient(t *testing.T, svc *searchtest.Service, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.New(svc.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://nope"} {
		_, err := client.New(u)
		assert.Error(t, err, u)
	}
}

func TestSearch(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetResponse(types.SearchResponse{
		Results: []types.SearchResult{{ID: "ds1", Score: 1.5, Metadata: types.Metadata{Name: "Taxi"}}},
		Total:   1,
	})
	c := newClient(t, svc, client.WithUserAgent("datasearch-test"), client.WithToken("secret"))

	spec := query.Spec{
		Keywords:    []string{"taxi"},
		Variables:   query.Variables{},
		RelatedFile: &query.RelatedFileRef{Kind: query.RelatedLocalFile, Token: "tok", Name: "trips.csv"},
	}
	resp, err := c.Search(context.Background(), client.SearchRequest{Query: spec})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ds1", resp.Results[0].ID)
	assert.Equal(t, 1, resp.Total)

	reqs := svc.Searches()
	require.Len(t, reqs, 1)
	assert.Equal(t, "1", reqs[0].Params.Get("_parse_sample"))
	assert.Equal(t, "datasearch-test", reqs[0].Header.Get("User-Agent"))
	assert.Equal(t, "Bearer secret", reqs[0].Header.Get("Authorization"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Payload, &sent))
	assert.NotContains(t, sent, "related_file")
	assert.Equal(t, []any{"taxi"}, sent["keywords"])
}

func TestSearchRelatedFields(t *testing.T) {
	tests := []struct {
		name    string
		related *client.Related
		check   func(t *testing.T, r searchtest.Request)
	}{
		{
			name:    "local bytes",
			related: &client.Related{File: filter.LocalFile{Token: "tok", Name: "trips.csv"}, Data: []byte("a,b\n1,2\n")},
			check: func(t *testing.T, r searchtest.Request) {
				assert.Equal(t, "trips.csv", r.DataName)
				assert.Equal(t, []byte("a,b\n1,2\n"), r.Data)
				assert.Empty(t, r.DataProfile)
			},
		},
		{
			name:    "local profile token",
			related: &client.Related{File: filter.LocalFile{Token: "tok", Name: "trips.csv"}},
			check: func(t *testing.T, r searchtest.Request) {
				assert.Equal(t, "tok", r.DataProfile)
				assert.Nil(t, r.Data)
			},
		},
		{
			name:    "search result",
			related: &client.Related{File: filter.SearchResultFile{DatasetID: "ds9", Name: "weather"}},
			check: func(t *testing.T, r searchtest.Request) {
				assert.Equal(t, "ds9", r.DataID)
			},
		},
		{
			name: "none",
			check: func(t *testing.T, r searchtest.Request) {
				assert.Empty(t, r.DataID)
				assert.Empty(t, r.DataProfile)
				assert.Nil(t, r.Data)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := searchtest.New(t)
			c := newClient(t, svc)
			_, err := c.Search(context.Background(), client.SearchRequest{Query: query.Spec{}, Related: tt.related})
			require.NoError(t, err)
			reqs := svc.Searches()
			require.Len(t, reqs, 1)
			tt.check(t, reqs[0])
		})
	}
}

func TestSearchLocalFileWithoutDataOrToken(t *testing.T) {
	svc := searchtest.New(t)
	c := newClient(t, svc)
	_, err := c.Search(context.Background(), client.SearchRequest{
		Related: &client.Related{File: filter.LocalFile{Name: "x.csv"}},
	})
	require.Error(t, err)
	assert.Empty(t, svc.Searches())
}

func TestSearchEmptyResults(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetResponse(types.SearchResponse{})
	c := newClient(t, svc)

	resp, err := c.Search(context.Background(), client.SearchRequest{Query: query.Spec{}})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestSearchServerError(t *testing.T) {
	svc := searchtest.New(t)
	svc.Fail("/search", http.StatusInternalServerError)
	c := newClient(t, svc)

	_, err := c.Search(context.Background(), client.SearchRequest{Query: query.Spec{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrTransport)

	var te *client.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "search", te.Op)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Contains(t, te.Body, "Internal Server Error")
}

func TestSearchRetriesRateLimit(t *testing.T) {
	svc := searchtest.New(t)
	svc.Fail("/search", http.StatusTooManyRequests, http.StatusTooManyRequests)
	c := newClient(t, svc)

	_, err := c.Search(context.Background(), client.SearchRequest{Query: query.Spec{Keywords: []string{"x"}}})
	require.NoError(t, err)
	reqs := svc.Searches()
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"keywords":["x"],"variables":[]}`, string(reqs[0].Payload))
}

func TestSearchNetworkError(t *testing.T) {
	svc := searchtest.New(t)
	c := newClient(t, svc)
	svc.Close()

	_, err := c.Search(context.Background(), client.SearchRequest{Query: query.Spec{}})
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestAugment(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetArchive([]byte("zip-bytes"))
	c := newClient(t, svc)

	task := augment.Task{
		ID: "ds1",
		Augmentation: augment.TaskAugmentation{
			AugmentationInfo: types.AugmentationInfo{
				Type:              types.AugmentationJoin,
				LeftColumns:       [][]int{{0}},
				LeftColumnsNames:  [][]string{{"zip"}},
				RightColumns:      [][]int{{2}},
				RightColumnsNames: [][]string{{"zipcode"}},
			},
			AggFunctions: map[string][]augment.Function{"fare": {augment.Mean}},
		},
	}
	session := &urlsync.Session{ID: "s1", Format: "csv", FormatOptions: map[string]any{"delimiter": ";"}}

	var buf bytes.Buffer
	n, err := c.Augment(context.Background(), client.AugmentRequest{
		Task:    task,
		Related: &client.Related{File: filter.LocalFile{Token: "tok", Name: "trips.csv"}},
		Session: session,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len("zip-bytes")), n)
	assert.Equal(t, "zip-bytes", buf.String())

	reqs := svc.Augments()
	require.Len(t, reqs, 1)
	assert.Equal(t, "s1", reqs[0].Params.Get("session_id"))
	assert.Equal(t, "csv", reqs[0].Params.Get("format"))
	assert.Equal(t, ";", reqs[0].Params.Get("format_delimiter"))
	assert.Equal(t, "tok", reqs[0].DataProfile)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Payload, &sent))
	aug := sent["augmentation"].(map[string]any)
	assert.Equal(t, "join", aug["type"])
	assert.Equal(t, map[string]any{"fare": []any{"mean"}}, aug["agg_functions"])
}

func TestAugmentWithoutSession(t *testing.T) {
	svc := searchtest.New(t)
	c := newClient(t, svc)

	var buf bytes.Buffer
	_, err := c.Augment(context.Background(), client.AugmentRequest{Task: augment.Task{ID: "ds1"}}, &buf)
	require.NoError(t, err)
	reqs := svc.Augments()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Params)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestAugmentWriterErrorIsNotTransport(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetArchive([]byte("zip-bytes"))
	c := newClient(t, svc)

	diskFull := errors.New("no space left on device")
	_, err := c.Augment(context.Background(), client.AugmentRequest{Task: augment.Task{ID: "ds1"}}, failingWriter{err: diskFull})
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.NotErrorIs(t, err, client.ErrTransport)
	assert.Contains(t, err.Error(), "writing archive")
}

func TestStatistics(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetStatistics(types.Statistics{
		RecentDiscoveries: []types.RecentDiscovery{{ID: "d1", Name: "New"}},
		SourcesCounts:     map[string]int{"noaa": 12, "worldbank": 3},
	})
	c := newClient(t, svc)

	st, err := c.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"noaa": 12, "worldbank": 3}, st.SourcesCounts)
	require.Len(t, st.RecentDiscoveries, 1)
	assert.Equal(t, 1, svc.StatisticsCalls())
}

func TestLocate(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetPlaces(`[
		{"display_name": "Paris", "boundingbox": ["48.8", "48.9", "2.2", "2.4"]},
		{"display_name": "Nowhere"},
		{"boundingbox": [40.5, 40.9, -74.3, -73.7]}
	]`)
	c := newClient(t, svc)

	places, err := c.Locate(context.Background(), "somewhere")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Paris", places[0].Name)
	assert.Equal(t, geo.BoundingBox{Latitude1: 48.9, Longitude1: 2.2, Latitude2: 48.8, Longitude2: 2.4}, places[0].Box)
	assert.Equal(t, "somewhere", places[1].Name)
	assert.Equal(t, geo.BoundingBox{Latitude1: 40.9, Longitude1: -74.3, Latitude2: 40.5, Longitude2: -73.7}, places[1].Box)
	assert.Equal(t, []string{"somewhere"}, svc.Locations())
}

func TestLocateBadCoordinate(t *testing.T) {
	svc := searchtest.New(t)
	svc.SetPlaces(`[{"boundingbox": ["north", "1", "2", "3"]}]`)
	c := newClient(t, svc)

	_, err := c.Locate(context.Background(), "x")
	assert.ErrorIs(t, err, client.ErrTransport)
}
