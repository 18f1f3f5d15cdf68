// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searchtest runs an in-process fake of the dataset search
// service for tests. It records every request and serves canned
// responses.
package searchtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/datasearch/pkg/types"
)

const maxMemory = 32 << 20

// Request is one recorded multipart submission.
type Request struct {
	Params url.Values
	// Payload is the "query" field of a search or the "task" field of an
	// augment.
	Payload     json.RawMessage
	DataName    string
	Data        []byte
	DataProfile string
	DataID      string
	Header      http.Header
}

// Service is a fake search service.
type Service struct {
	*httptest.Server

	mu        sync.Mutex
	response  types.SearchResponse
	stats     types.Statistics
	places    json.RawMessage
	archive   []byte
	failures  map[string][]int
	searches  []Request
	augments  []Request
	locations []string
	statCalls int
}

// New starts a fake service that is closed when the test ends.
func New(t testing.TB) *Service {
	t.Helper()
	s := &Service{
		response: types.SearchResponse{Results: []types.SearchResult{}},
		places:   json.RawMessage(`[]`),
		archive:  []byte("PK\x05\x06"),
		failures: map[string][]int{},
	}

	r := chi.NewRouter()
	r.Use(s.failing)
	r.Post("/search", s.handleSearch)
	r.Post("/augment", s.handleAugment)
	r.Get("/statistics", s.handleStatistics)
	r.Post("/location", s.handleLocation)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetResponse sets the body returned by /search.
func (s *Service) SetResponse(resp types.SearchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = resp
}

// SetStatistics sets the body returned by /statistics.
func (s *Service) SetStatistics(st types.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = st
}

// SetPlaces sets the raw "results" array returned by /location.
func (s *Service) SetPlaces(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places = json.RawMessage(raw)
}

// SetArchive sets the body returned by /augment.
func (s *Service) SetArchive(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archive = b
}

// Fail makes the next calls to path answer with the given statuses, one
// per call, before normal service resumes.
func (s *Service) Fail(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

// Searches returns the recorded search requests.
func (s *Service) Searches() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.searches...)
}

// Augments returns the recorded augment requests.
func (s *Service) Augments() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.augments...)
}

// Locations returns the recorded location queries.
func (s *Service) Locations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locations...)
}

// StatisticsCalls returns how many times /statistics was served.
func (s *Service) StatisticsCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statCalls
}

func (s *Service) failing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		queue := s.failures[r.URL.Path]
		var status int
		if len(queue) > 0 {
			status = queue[0]
			s.failures[r.URL.Path] = queue[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func readMultipart(r *http.Request, field string) (Request, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return Request{}, err
	}
	req := Request{
		Params:      r.URL.Query(),
		Payload:     json.RawMessage(r.FormValue(field)),
		DataProfile: r.FormValue("data_profile"),
		DataID:      r.FormValue("data_id"),
		Header:      r.Header.Clone(),
	}
	if f, hdr, err := r.FormFile("data"); err == nil {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return Request{}, err
		}
		req.DataName = hdr.Filename
		req.Data = b
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := readMultipart(r, "query")
	if err != nil || !json.Valid(req.Payload) {
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.searches = append(s.searches, req)
	resp := s.response
	s.mu.Unlock()
	writeJSON(w, resp)
}

func (s *Service) handleAugment(w http.ResponseWriter, r *http.Request) {
	req, err := readMultipart(r, "task")
	if err != nil || !json.Valid(req.Payload) {
		http.Error(w, "invalid task", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.augments = append(s.augments, req)
	archive := s.archive
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="augmentation.zip"`)
	_, _ = w.Write(archive)
}

func (s *Service) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.statCalls++
	st := s.stats
	s.mu.Unlock()
	writeJSON(w, st)
}

func (s *Service) handleLocation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.locations = append(s.locations, r.PostForm.Get("q"))
	places := s.places
	s.mu.Unlock()
	writeJSON(w, map[string]json.RawMessage{"results": places})
}
